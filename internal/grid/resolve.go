package grid

import (
	"itemgrid.ai/internal/pattern"
)

// resolved is the outcome of mapping one location pattern onto the current
// directory snapshot. anyMode marks "every reachable node": destination
// selection tries members in order, source iteration visits all of them.
type resolved struct {
	nodes   []Node
	anyMode bool
}

// resolveLocation is pure over a single directory snapshot so both sides of
// a move see the same node set. An empty result is not an error here; only
// the orchestrator decides that.
func resolveLocation(loc pattern.Location, localID string, nodes []Node) resolved {
	switch loc.Kind {
	case pattern.LocSelf:
		if localID == "" {
			return resolved{}
		}
		for _, n := range nodes {
			if n.ID == localID {
				return resolved{nodes: []Node{n}}
			}
		}
		// Off-directory self: the actor's own storage stays reachable even
		// when discovery is down.
		return resolved{nodes: []Node{{ID: localID, CanList: true}}}

	case pattern.LocAny:
		return resolved{nodes: nodes, anyMode: true}

	case pattern.LocNamed:
		ids := make([]string, len(nodes))
		for i, n := range nodes {
			ids[i] = n.ID
		}
		matched := pattern.MatchNodes(loc.Name, ids)
		if len(matched) == 0 {
			return resolved{}
		}
		byID := make(map[string]Node, len(nodes))
		for _, n := range nodes {
			byID[n.ID] = n
		}
		out := make([]Node, 0, len(matched))
		for _, id := range matched {
			out = append(out, byID[id])
		}
		return resolved{nodes: out}
	}
	return resolved{}
}
