package grid

import (
	"context"
	"sort"

	"itemgrid.ai/internal/pattern"
	"itemgrid.ai/internal/protocol"
)

type BalanceOptions struct {
	Verbose bool
	// MinMoved stops the pass loop once a pass moves fewer units than this,
	// avoiding diminishing-return passes on lossy networks. 0 disables.
	MinMoved int
}

// Balance redistributes the matched item evenly across all list-capable
// nodes: target floor(total/n), with the total mod n remainder granted to
// the nodes already holding the most so fewer units move overall. Passes
// repeat until a pass moves nothing (or falls under MinMoved).
func (e *Engine) Balance(ctx context.Context, itemPat string, opts BalanceOptions) (int, error) {
	item := pattern.ParseItem(itemPat)
	localID := e.dir.LocalID(ctx)

	var nodes []Node
	for _, n := range e.dir.Snapshot(ctx) {
		if n.CanList {
			nodes = append(nodes, n)
		}
	}
	if len(nodes) == 0 {
		return 0, codeErrf(protocol.ErrDirectoryUnavailable, "no reachable nodes")
	}

	counts, err := e.liveCounts(ctx, nodes, item)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return 0, codeErrf(protocol.ErrNoMatchOrFull, "no items matched %q anywhere", itemPat)
	}

	// Baseline-ranked target assignment: the remainder units stay with the
	// nodes that held the most at baseline.
	base := total / len(nodes)
	extra := total % len(nodes)
	rank := make([]int, len(nodes))
	for i := range rank {
		rank[i] = i
	}
	sort.SliceStable(rank, func(a, b int) bool { return counts[rank[a]] > counts[rank[b]] })
	target := make([]int, len(nodes))
	for pos, i := range rank {
		target[i] = base
		if pos < extra {
			target[i]++
		}
	}

	totalMoved := 0
	touchedLocal := false
	for pass := 0; ; pass++ {
		if pass > 0 {
			counts, err = e.liveCounts(ctx, nodes, item)
			if err != nil {
				return totalMoved, err
			}
		}

		var donors, receivers []int
		for i := range nodes {
			switch {
			case counts[i] > target[i]:
				donors = append(donors, i)
			case counts[i] < target[i]:
				receivers = append(receivers, i)
			}
		}
		if len(donors) == 0 || len(receivers) == 0 {
			break
		}

		// Greedy fixed-order pairing, not globally optimal: lists are not
		// re-sorted after partial progress within a pass.
		passMoved := 0
		for _, di := range donors {
			excess := counts[di] - target[di]
			for _, ri := range receivers {
				if excess <= 0 {
					break
				}
				need := target[ri] - counts[ri]
				if need <= 0 {
					continue
				}
				moved, cerr := e.moveBetween(ctx, nodes[di], nodes[ri], item, min(excess, need), localID, opts.Verbose)
				if cerr != nil {
					return totalMoved + passMoved, cerr
				}
				if moved > 0 {
					passMoved += moved
					excess -= moved
					counts[di] -= moved
					counts[ri] += moved
					if nodes[di].ID == localID || nodes[ri].ID == localID {
						touchedLocal = true
					}
				}
			}
		}
		totalMoved += passMoved
		if passMoved == 0 {
			break
		}
		if opts.MinMoved > 0 && passMoved < opts.MinMoved {
			break
		}
	}

	if touchedLocal {
		e.notifyLocalChange()
	}
	return totalMoved, nil
}

// moveBetween drains up to limit matching units from src into dst, walking
// src's stacks in slot order. Soft failures skip forward; the returned error
// is only non-nil for context cancellation or strict mode.
func (e *Engine) moveBetween(ctx context.Context, src, dst Node, item pattern.Item, limit int, localID string, verbose bool) (int, *CodeError) {
	stacks, err := e.net.Stacks(ctx, src.ID)
	if err != nil {
		if ctx.Err() != nil || e.Strict {
			return 0, codeErrf(protocol.ErrTransferFailed, "list %s: %v", src.ID, err)
		}
		return 0, nil
	}

	moved := 0
	for _, st := range stacks {
		if moved >= limit {
			break
		}
		if st.Count <= 0 || !item.Matches(st.Item) {
			continue
		}
		n, out, cerr := e.attemptTransfer(ctx, src, st.Slot, dst, min(st.Count, limit-moved), localID)
		if out == outcomeHard {
			return moved, cerr
		}
		if out == outcomeSoft && e.Strict {
			return moved, cerr
		}
		if n > 0 {
			moved += n
			e.verbosef(verbose, "balance: moved %d x %s: %s -> %s", n, st.Item, src.ID, dst.ID)
		}
	}
	return moved, nil
}

func (e *Engine) liveCounts(ctx context.Context, nodes []Node, item pattern.Item) ([]int, error) {
	counts := make([]int, len(nodes))
	for i, n := range nodes {
		stacks, err := e.net.Stacks(ctx, n.ID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, codeErrf(protocol.ErrTransferFailed, "list %s: %v", n.ID, err)
			}
			continue
		}
		for _, st := range stacks {
			if item.Matches(st.Item) {
				counts[i] += st.Count
			}
		}
	}
	return counts, nil
}
