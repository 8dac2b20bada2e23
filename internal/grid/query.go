package grid

import (
	"context"

	"itemgrid.ai/internal/pattern"
)

// Count sums matching quantities across every list-capable directory node.
// An empty directory is a zero count, not an error.
func (e *Engine) Count(ctx context.Context, itemPat string) (int, error) {
	perNode, order, err := e.countPerNode(ctx, itemPat)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, id := range order {
		total += perNode[id]
	}
	return total, nil
}

// High returns the node holding the most matching items. Ties keep the
// earlier node in discovery order. nodeID is "" when the directory is empty.
func (e *Engine) High(ctx context.Context, itemPat string) (string, int, error) {
	perNode, order, err := e.countPerNode(ctx, itemPat)
	if err != nil {
		return "", 0, err
	}
	bestID, bestN := "", -1
	for _, id := range order {
		if perNode[id] > bestN {
			bestID, bestN = id, perNode[id]
		}
	}
	if bestN < 0 {
		return "", 0, nil
	}
	return bestID, bestN, nil
}

// Low returns the node holding the fewest matching items. Zero-count nodes
// are skipped unless includeEmpty is set.
func (e *Engine) Low(ctx context.Context, itemPat string, includeEmpty bool) (string, int, error) {
	perNode, order, err := e.countPerNode(ctx, itemPat)
	if err != nil {
		return "", 0, err
	}
	bestID, bestN := "", -1
	for _, id := range order {
		n := perNode[id]
		if n == 0 && !includeEmpty {
			continue
		}
		if bestN < 0 || n < bestN {
			bestID, bestN = id, n
		}
	}
	if bestN < 0 {
		return "", 0, nil
	}
	return bestID, bestN, nil
}

// countPerNode snapshots per-node totals of the matched item in discovery
// order. Read-only; unreadable nodes count as zero.
func (e *Engine) countPerNode(ctx context.Context, itemPat string) (map[string]int, []string, error) {
	item := pattern.ParseItem(itemPat)
	nodes := e.dir.Snapshot(ctx)

	perNode := make(map[string]int, len(nodes))
	order := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if !n.CanList {
			continue
		}
		order = append(order, n.ID)
		stacks, err := e.net.Stacks(ctx, n.ID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, err
			}
			continue
		}
		for _, st := range stacks {
			if item.Matches(st.Item) {
				perNode[n.ID] += st.Count
			}
		}
	}
	return perNode, order, nil
}
