// Package grid moves discrete items between inventory nodes reachable over a
// shared network. It resolves compact location/item/count patterns against
// the live node directory, executes push/pull transfers with the direction
// chosen by which endpoint is the local actor, and builds the aggregate
// query and balancing operations on top of single transfers.
package grid

import (
	"context"
	"fmt"
	"log"

	"itemgrid.ai/internal/protocol"
)

// Node is one addressable inventory endpoint as reported by the directory.
type Node struct {
	ID      string
	CanList bool
	CanPush bool
	CanPull bool
}

// Network is the seam to the transport layer. Every call blocks until the
// peer answers; the engine never issues calls concurrently.
type Network interface {
	// LocalID returns the local actor's network identity, or "" when the
	// actor is off-grid. Known from the session handshake, so it stays
	// available when node discovery is down.
	LocalID(ctx context.Context) (string, error)

	// Nodes lists every reachable inventory node.
	Nodes(ctx context.Context) ([]Node, error)

	// Stacks snapshots one node's inventory in slot order. Never cached by
	// the engine: transfers mutate it.
	Stacks(ctx context.Context, nodeID string) ([]protocol.ItemStack, error)

	// Transfer executes one slot-to-node move on execNode and returns the
	// quantity actually moved.
	Transfer(ctx context.Context, execNode, direction, peerNode string, slot, count int) (int, error)
}

// Engine carries the per-session state the operations share: the network
// handle, the directory with its retry policy, and the local-change signal.
type Engine struct {
	net Network
	dir *Directory
	log *log.Logger

	// Strict escalates the first soft transfer failure to a returned error
	// instead of skipping it. Diagnostic mode.
	Strict bool

	invChanged chan struct{}
}

func NewEngine(net Network, logger *log.Logger) *Engine {
	return &Engine{
		net:        net,
		dir:        NewDirectory(net, DefaultRetryPolicy()),
		log:        logger,
		invChanged: make(chan struct{}, 1),
	}
}

// SetRetryPolicy replaces the directory retry policy. Tests inject a
// zero-delay policy here.
func (e *Engine) SetRetryPolicy(p RetryPolicy) {
	e.dir.retry = p
}

// InventoryChanged fires once after any operation that touched the local
// actor's own inventory. Single-shot signal, not a queue.
func (e *Engine) InventoryChanged() <-chan struct{} {
	return e.invChanged
}

func (e *Engine) notifyLocalChange() {
	select {
	case e.invChanged <- struct{}{}:
	default:
	}
}

func (e *Engine) verbosef(verbose bool, format string, args ...any) {
	if !verbose || e.log == nil {
		return
	}
	e.log.Printf(format, args...)
}

// CodeError pairs a protocol error code with a human-readable message. All
// engine failures are returned as values of this type.
type CodeError struct {
	Code string
	Msg  string
}

func (e *CodeError) Error() string { return e.Msg }

func codeErrf(code, format string, args ...any) *CodeError {
	return &CodeError{Code: code, Msg: fmt.Sprintf(format, args...)}
}
