package grid

import (
	"context"

	"itemgrid.ai/internal/pattern"
	"itemgrid.ai/internal/protocol"
)

type MoveOptions struct {
	Verbose bool
}

// drainAll is the remaining-counter sentinel for "++": it never decrements,
// so every matching stack across every source node is drained.
const drainAll = -1

// Move resolves a source and destination pattern and transfers items until
// the requested count is satisfied or the sources are exhausted. Partial
// success is success; only zero movement is reported as an error.
func (e *Engine) Move(ctx context.Context, srcPat, dstPat string, opts MoveOptions) (int, error) {
	src := pattern.Parse(srcPat)
	dst := pattern.Parse(dstPat)

	localID := e.dir.LocalID(ctx)
	nodes := e.dir.Snapshot(ctx)

	srcRes := resolveLocation(src.Location, localID, nodes)
	if len(srcRes.nodes) == 0 {
		return 0, codeErrf(protocol.ErrLocationNotFound, "source location not found: %q", srcPat)
	}
	dstRes := resolveLocation(dst.Location, localID, nodes)
	if len(dstRes.nodes) == 0 {
		return 0, codeErrf(protocol.ErrLocationNotFound, "destination location not found: %q", dstPat)
	}
	if !dstRes.anyMode && len(dstRes.nodes) > 1 {
		return 0, codeErrf(protocol.ErrAmbiguousDest,
			"Destination must be a single location, pattern %q matched %d nodes", dstPat, len(dstRes.nodes))
	}

	remaining := 0
	switch src.Count.Kind {
	case pattern.CountAll:
		remaining = drainAll
	case pattern.CountFixed:
		remaining = src.Count.N
	}
	oneStack := src.Count.Kind == pattern.CountOneStack

	total := 0
	touchedLocal := false

sources:
	for _, srcNode := range srcRes.nodes {
		if remaining == 0 && !oneStack {
			break
		}
		stacks, err := e.net.Stacks(ctx, srcNode.ID)
		if err != nil {
			if ctx.Err() != nil {
				return total, codeErrf(protocol.ErrTransferFailed, "list %s: %v", srcNode.ID, err)
			}
			if e.Strict {
				return total, codeErrf(protocol.ErrTransferFailed, "list %s: %v", srcNode.ID, err)
			}
			continue
		}
		for _, st := range stacks {
			if st.Count <= 0 || !src.Item.Matches(st.Item) {
				continue
			}
			if oneStack {
				remaining = min(st.Count, maxCountOf(st))
			}

			want := st.Count
			if remaining != drainAll {
				want = min(want, remaining)
			}

			moved, destID, out, cerr := e.sendToDest(ctx, srcNode, st.Slot, want, dstRes, localID)
			if out == outcomeHard {
				return total, cerr
			}
			if out == outcomeSoft && e.Strict {
				return total, cerr
			}
			if moved > 0 {
				total += moved
				if remaining != drainAll {
					remaining -= moved
				}
				if srcNode.ID == localID || destID == localID {
					touchedLocal = true
				}
				e.verbosef(opts.Verbose, "moved %d x %s: %s -> %s", moved, st.Item, srcNode.ID, destID)
			}
			if oneStack {
				// One stack means one stack, even when the destination only
				// took part of it.
				break sources
			}
			if remaining == 0 {
				break sources
			}
		}
	}

	if touchedLocal {
		e.notifyLocalChange()
	}
	if total == 0 {
		return 0, codeErrf(protocol.ErrNoMatchOrFull, "no items matched %q or destination full", srcPat)
	}
	return total, nil
}

// sendToDest attempts one stack transfer against the resolved destination.
// In any mode candidates are tried in order, skipping the current source
// node, until one accepts a non-zero quantity.
func (e *Engine) sendToDest(ctx context.Context, srcNode Node, slot, want int, dstRes resolved, localID string) (int, string, outcome, *CodeError) {
	if !dstRes.anyMode {
		dst := dstRes.nodes[0]
		moved, out, cerr := e.attemptTransfer(ctx, srcNode, slot, dst, want, localID)
		return moved, dst.ID, out, cerr
	}

	lastErr := codeErrf(protocol.ErrNoMatchOrFull, "no destination accepted items from %s", srcNode.ID)
	for _, dst := range dstRes.nodes {
		if dst.ID == srcNode.ID {
			continue
		}
		moved, out, cerr := e.attemptTransfer(ctx, srcNode, slot, dst, want, localID)
		if out == outcomeHard {
			return 0, "", outcomeHard, cerr
		}
		if moved > 0 {
			return moved, dst.ID, outcomeOK, nil
		}
		lastErr = cerr
	}
	return 0, "", outcomeSoft, lastErr
}

func maxCountOf(st protocol.ItemStack) int {
	if st.MaxCount > 0 {
		return st.MaxCount
	}
	return st.Count
}
