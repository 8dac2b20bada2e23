package pattern

import "testing"

func TestItemMatches_Fuzzy(t *testing.T) {
	it := Item{Raw: "iron"}
	if !it.Matches("grid:iron_ingot") {
		t.Fatalf("substring of full name should match")
	}
	if !it.Matches("IRON_BLOCK") {
		t.Fatalf("match should be case-insensitive")
	}
	if it.Matches("grid:gold_ingot") {
		t.Fatalf("unrelated item should not match")
	}
}

func TestItemMatches_Wildcard(t *testing.T) {
	it := Item{Raw: "*"}
	if !it.Matches("grid:anything_at_all") {
		t.Fatalf("* should match everything")
	}
}

func TestItemMatches_Exact(t *testing.T) {
	it := Item{Raw: "iron_ingot", Exact: true}
	if !it.Matches("grid:iron_ingot") {
		t.Fatalf("exact should accept namespace-stripped name")
	}
	if !it.Matches("iron_ingot") {
		t.Fatalf("exact should accept full name")
	}
	if it.Matches("grid:iron_ingot_pile") {
		t.Fatalf("exact should reject supersets")
	}
}

func TestMatchNodes_ExactFirst(t *testing.T) {
	ids := []string{"grid:bin_2", "bin"}
	got := MatchNodes("bin", ids)
	if len(got) != 1 || got[0] != "bin" {
		t.Fatalf("exact identifier should win: %v", got)
	}
}

func TestMatchNodes_ShortestWins(t *testing.T) {
	ids := []string{"minecraft:chest_2", "minecraft:chest_23"}
	got := MatchNodes("chest2", ids)
	if len(got) != 1 || got[0] != "minecraft:chest_2" {
		t.Fatalf("shortest identifier should win, got %v", got)
	}
}

func TestMatchNodes_SeparatorStripped(t *testing.T) {
	ids := []string{"grid:ore_bin_north", "grid:ore_bin_south"}
	got := MatchNodes("binnorth", ids)
	if len(got) != 1 || got[0] != "grid:ore_bin_north" {
		t.Fatalf("stripped match failed: %v", got)
	}
}

func TestMatchNodes_LengthTieReturnsBoth(t *testing.T) {
	ids := []string{"grid:bin_a", "grid:bin_b"}
	got := MatchNodes("bin", ids)
	if len(got) != 2 || got[0] != "grid:bin_a" || got[1] != "grid:bin_b" {
		t.Fatalf("length tie should keep both in discovery order, got %v", got)
	}
}

func TestMatchNodes_NoMatch(t *testing.T) {
	if got := MatchNodes("smelter", []string{"grid:bin_1"}); len(got) != 0 {
		t.Fatalf("expected no match, got %v", got)
	}
}
