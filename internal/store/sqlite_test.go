package store

import (
	"context"
	"path/filepath"
	"testing"

	"itemgrid.ai/internal/protocol"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "grid.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedNode(t *testing.T, s *Store, id string, slots int) {
	t.Helper()
	err := s.EnsureNode(context.Background(), NodeDef{
		ID: id, Slots: slots, CanList: true, CanPush: true, CanPull: true,
	})
	if err != nil {
		t.Fatalf("ensure node %s: %v", id, err)
	}
}

func TestTransfer_MovesAndConserves(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	seedNode(t, s, "grid:bin_a", 27)
	seedNode(t, s, "grid:bin_b", 27)
	if err := s.SetStack(ctx, "grid:bin_a", protocol.ItemStack{Slot: 0, Item: "grid:iron_ingot", Count: 40, MaxCount: 64}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	moved, err := s.Transfer(ctx, "grid:bin_a", 0, "grid:bin_b", 16)
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if moved != 16 {
		t.Fatalf("moved = %d, want 16", moved)
	}

	a, _ := s.Stacks(ctx, "grid:bin_a")
	b, _ := s.Stacks(ctx, "grid:bin_b")
	if len(a) != 1 || a[0].Count != 24 {
		t.Fatalf("source stacks: %+v", a)
	}
	if len(b) != 1 || b[0].Count != 16 || b[0].Item != "grid:iron_ingot" {
		t.Fatalf("dest stacks: %+v", b)
	}
}

func TestTransfer_FillsPartialStackFirst(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	seedNode(t, s, "grid:bin_a", 27)
	seedNode(t, s, "grid:bin_b", 27)
	_ = s.SetStack(ctx, "grid:bin_a", protocol.ItemStack{Slot: 0, Item: "grid:iron_ingot", Count: 30, MaxCount: 64})
	_ = s.SetStack(ctx, "grid:bin_b", protocol.ItemStack{Slot: 5, Item: "grid:iron_ingot", Count: 60, MaxCount: 64})

	moved, err := s.Transfer(ctx, "grid:bin_a", 0, "grid:bin_b", 30)
	if err != nil || moved != 30 {
		t.Fatalf("moved=%d err=%v", moved, err)
	}
	b, _ := s.Stacks(ctx, "grid:bin_b")
	if len(b) != 2 {
		t.Fatalf("dest stacks: %+v", b)
	}
	// Slot 0 gets the overflow after slot 5 tops out.
	if b[0].Slot != 0 || b[0].Count != 26 {
		t.Fatalf("overflow stack: %+v", b[0])
	}
	if b[1].Slot != 5 || b[1].Count != 64 {
		t.Fatalf("topped-up stack: %+v", b[1])
	}
}

func TestTransfer_CapacityCeiling(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	seedNode(t, s, "grid:bin_a", 27)
	seedNode(t, s, "grid:bin_b", 1)
	_ = s.SetStack(ctx, "grid:bin_a", protocol.ItemStack{Slot: 0, Item: "grid:iron_ingot", Count: 40, MaxCount: 64})
	_ = s.SetStack(ctx, "grid:bin_b", protocol.ItemStack{Slot: 0, Item: "grid:iron_ingot", Count: 50, MaxCount: 64})

	moved, err := s.Transfer(ctx, "grid:bin_a", 0, "grid:bin_b", 40)
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if moved != 14 {
		t.Fatalf("moved = %d, want headroom 14", moved)
	}
	a, _ := s.Stacks(ctx, "grid:bin_a")
	if a[0].Count != 26 {
		t.Fatalf("source should give up exactly what fit: %+v", a)
	}
}

func TestTransfer_EmptySlotIsZeroNotError(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	seedNode(t, s, "grid:bin_a", 27)
	seedNode(t, s, "grid:bin_b", 27)

	moved, err := s.Transfer(ctx, "grid:bin_a", 3, "grid:bin_b", 10)
	if err != nil || moved != 0 {
		t.Fatalf("moved=%d err=%v, want 0/nil", moved, err)
	}
}

func TestTransfer_SelfRejected(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	seedNode(t, s, "grid:bin_a", 27)
	if _, err := s.Transfer(ctx, "grid:bin_a", 0, "grid:bin_a", 1); err == nil {
		t.Fatalf("transfer within one node must be rejected")
	}
}

func TestEnsureNode_UpdateKeepsInventory(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	seedNode(t, s, "grid:bin_a", 27)
	_ = s.SetStack(ctx, "grid:bin_a", protocol.ItemStack{Slot: 0, Item: "grid:iron_ingot", Count: 10, MaxCount: 64})

	seedNode(t, s, "grid:bin_a", 54)
	st, err := s.Stacks(ctx, "grid:bin_a")
	if err != nil || len(st) != 1 || st[0].Count != 10 {
		t.Fatalf("inventory should survive re-registration: %+v err=%v", st, err)
	}
}

func TestNodes_SortedWithCapabilities(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	seedNode(t, s, "grid:bin_b", 27)
	if err := s.EnsureNode(ctx, NodeDef{ID: "grid:bin_a", Slots: 27, CanList: true}); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	nodes, err := s.Nodes(ctx)
	if err != nil {
		t.Fatalf("nodes: %v", err)
	}
	if len(nodes) != 2 || nodes[0].ID != "grid:bin_a" || nodes[1].ID != "grid:bin_b" {
		t.Fatalf("nodes: %+v", nodes)
	}
	if nodes[0].CanPush || !nodes[1].CanPush {
		t.Fatalf("capabilities lost: %+v", nodes)
	}
}
