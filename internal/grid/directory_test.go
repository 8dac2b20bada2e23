package grid

import (
	"context"
	"testing"
	"time"
)

func zeroDelay() RetryPolicy {
	return RetryPolicy{Attempts: 3, Delay: func(int) time.Duration { return 0 }}
}

func TestDirectory_RetriesThenSucceeds(t *testing.T) {
	f := newFakeNet("")
	f.addNode("grid:bin_a", 27)
	f.nodesFail = 2

	d := NewDirectory(f, zeroDelay())
	nodes := d.Snapshot(context.Background())
	if len(nodes) != 1 {
		t.Fatalf("snapshot after retries: %v", nodes)
	}
	if f.nodeCalls != 3 {
		t.Fatalf("nodeCalls = %d, want 3", f.nodeCalls)
	}
}

func TestDirectory_EmptyAfterExhaustedRetries(t *testing.T) {
	f := newFakeNet("")
	f.addNode("grid:bin_a", 27)
	f.nodesFail = 99

	d := NewDirectory(f, zeroDelay())
	if nodes := d.Snapshot(context.Background()); len(nodes) != 0 {
		t.Fatalf("exhausted retries should yield empty, got %v", nodes)
	}
	if f.nodeCalls != 3 {
		t.Fatalf("nodeCalls = %d, want bounded at 3", f.nodeCalls)
	}
}

func TestDirectory_LocalIDKnownWithoutNetwork(t *testing.T) {
	f := newFakeNet("grid:crane_1")
	f.nodesFail = 99 // discovery down

	d := NewDirectory(f, zeroDelay())
	if id := d.LocalID(context.Background()); id != "grid:crane_1" {
		t.Fatalf("local id = %q", id)
	}
}
