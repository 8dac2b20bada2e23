package grid

import (
	"context"
	"time"
)

// RetryPolicy bounds discovery retries. Delay is called with the attempt
// number (starting at 1) between attempts; tests inject a zero-delay policy.
type RetryPolicy struct {
	Attempts int
	Delay    func(attempt int) time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts: 3,
		Delay:    func(int) time.Duration { return 250 * time.Millisecond },
	}
}

// Directory discovers reachable nodes and the local actor's identity with
// bounded retry. An empty result after exhausted retries is a first-class
// outcome, not an error: callers treat an empty directory as "off-grid".
type Directory struct {
	net   Network
	retry RetryPolicy

	// Last-known local identity. Kept so self-resolution works while the
	// network is down; the actor's own storage is always reachable.
	localID string
}

func NewDirectory(net Network, retry RetryPolicy) *Directory {
	return &Directory{net: net, retry: retry}
}

// Snapshot lists all reachable nodes, retrying per policy. Returns an empty
// slice (nil error) when every attempt came back empty or failed.
func (d *Directory) Snapshot(ctx context.Context) []Node {
	for attempt := 1; ; attempt++ {
		nodes, err := d.net.Nodes(ctx)
		if err == nil && len(nodes) > 0 {
			return nodes
		}
		if attempt >= d.retry.Attempts {
			return nil
		}
		if !sleepCtx(ctx, d.retry.Delay(attempt)) {
			return nil
		}
	}
}

// LocalID returns the actor's network identity, "" when disconnected.
func (d *Directory) LocalID(ctx context.Context) string {
	for attempt := 1; ; attempt++ {
		id, err := d.net.LocalID(ctx)
		if err == nil {
			if id != "" {
				d.localID = id
			}
			return id
		}
		if attempt >= d.retry.Attempts {
			return d.localID
		}
		if !sleepCtx(ctx, d.retry.Delay(attempt)) {
			return d.localID
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
