package grid

import (
	"context"
	"fmt"
	"sort"

	"itemgrid.ai/internal/protocol"
)

// fakeNet is an in-memory Network with real capacity semantics: a node has a
// fixed number of slots, a slot holds one item type up to its max stack size,
// and pushes fill partial stacks before empty slots.
type fakeNet struct {
	localID string
	nodes   []Node
	inv     map[string]map[int]*fakeStack // node -> slot -> stack
	slots   map[string]int                // slot capacity per node
	maxs    int                           // default max stack size

	down      map[string]bool // nodes that fail Stacks/Transfer
	nodesFail int             // remaining Nodes() calls that error
	nodeCalls int

	transfers []string // "exec dir peer slot count" audit
}

type fakeStack struct {
	item  string
	count int
	max   int
}

func newFakeNet(localID string) *fakeNet {
	return &fakeNet{
		localID: localID,
		inv:     map[string]map[int]*fakeStack{},
		slots:   map[string]int{},
		down:    map[string]bool{},
		maxs:    64,
	}
}

func (f *fakeNet) addNode(id string, slots int) {
	f.nodes = append(f.nodes, Node{ID: id, CanList: true, CanPush: true, CanPull: true})
	f.inv[id] = map[int]*fakeStack{}
	f.slots[id] = slots
}

func (f *fakeNet) addNodeCaps(n Node, slots int) {
	f.nodes = append(f.nodes, n)
	f.inv[n.ID] = map[int]*fakeStack{}
	f.slots[n.ID] = slots
}

func (f *fakeNet) put(node string, slot int, item string, count int) {
	f.inv[node][slot] = &fakeStack{item: item, count: count, max: f.maxs}
}

func (f *fakeNet) total(node, item string) int {
	n := 0
	for _, st := range f.inv[node] {
		if st != nil && st.item == item {
			n += st.count
		}
	}
	return n
}

func (f *fakeNet) LocalID(context.Context) (string, error) {
	return f.localID, nil
}

func (f *fakeNet) Nodes(context.Context) ([]Node, error) {
	f.nodeCalls++
	if f.nodesFail > 0 {
		f.nodesFail--
		return nil, fmt.Errorf("directory offline")
	}
	return f.nodes, nil
}

func (f *fakeNet) Stacks(_ context.Context, nodeID string) ([]protocol.ItemStack, error) {
	if f.down[nodeID] {
		return nil, fmt.Errorf("node %s unreachable", nodeID)
	}
	m, ok := f.inv[nodeID]
	if !ok {
		return nil, fmt.Errorf("no such node %s", nodeID)
	}
	slots := make([]int, 0, len(m))
	for s, st := range m {
		if st != nil && st.count > 0 {
			slots = append(slots, s)
		}
	}
	sort.Ints(slots)
	out := make([]protocol.ItemStack, 0, len(slots))
	for _, s := range slots {
		st := m[s]
		out = append(out, protocol.ItemStack{Slot: s, Item: st.item, Count: st.count, MaxCount: st.max})
	}
	return out, nil
}

func (f *fakeNet) Transfer(_ context.Context, execNode, direction, peerNode string, slot, count int) (int, error) {
	f.transfers = append(f.transfers, fmt.Sprintf("%s %s %s %d %d", execNode, direction, peerNode, slot, count))
	if f.down[execNode] || f.down[peerNode] {
		return 0, fmt.Errorf("peer unreachable")
	}
	src, dst := execNode, peerNode
	if direction == protocol.DirPull {
		src, dst = peerNode, execNode
	}
	if src == dst {
		return 0, fmt.Errorf("cannot transfer to self")
	}
	from, ok := f.inv[src]
	if !ok {
		return 0, fmt.Errorf("no such node %s", src)
	}
	if _, ok := f.inv[dst]; !ok {
		return 0, fmt.Errorf("no such node %s", dst)
	}
	st := from[slot]
	if st == nil || st.count <= 0 {
		return 0, nil
	}
	want := min(count, st.count)
	moved := f.accept(dst, st.item, st.max, want)
	st.count -= moved
	if st.count <= 0 {
		delete(from, slot)
	}
	return moved, nil
}

// accept stores up to want units on dst and returns how many fit. Partial
// stacks of the same item top up before empty slots open.
func (f *fakeNet) accept(dst, item string, max, want int) int {
	inv := f.inv[dst]
	moved := 0
	for s := 0; s < f.slots[dst] && moved < want; s++ {
		st := inv[s]
		if st == nil || st.item != item || st.count >= st.max {
			continue
		}
		n := min(want-moved, st.max-st.count)
		st.count += n
		moved += n
	}
	for s := 0; s < f.slots[dst] && moved < want; s++ {
		if inv[s] != nil {
			continue
		}
		n := min(want-moved, max)
		inv[s] = &fakeStack{item: item, count: n, max: max}
		moved += n
	}
	return moved
}
