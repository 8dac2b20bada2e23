package grid

import (
	"context"

	"itemgrid.ai/internal/protocol"
)

// TransferDirection is computed once per transfer from which endpoint is the
// local actor. The actor's own storage is only reachable through its peers:
// a peer pulls from it when the actor is the source, and pushes toward it
// when the actor is the destination.
type TransferDirection int

const (
	// DirPushDirect: neither side is the local actor; the source node
	// pushes straight to the destination.
	DirPushDirect TransferDirection = iota + 1
	// DirPushToActor: the destination is the local actor; the source node
	// pushes toward the actor's identifier.
	DirPushToActor
	// DirPullFromActor: the source is the local actor; the destination node
	// pulls from the actor's identifier.
	DirPullFromActor
)

func directionFor(srcID, dstID, localID string) TransferDirection {
	switch {
	case localID != "" && srcID == localID:
		return DirPullFromActor
	case localID != "" && dstID == localID:
		return DirPushToActor
	}
	return DirPushDirect
}

// outcome classifies one transfer attempt. Soft failures contribute zero
// moved and never abort a multi-step operation; hard failures (context
// cancellation) do.
type outcome int

const (
	outcomeOK outcome = iota + 1
	outcomeSoft
	outcomeHard
)

// attemptTransfer moves up to count units out of src's slot into dst,
// dispatching on the transfer direction. It is the single soft-failure
// classification point shared by the move orchestrator and the balancer.
func (e *Engine) attemptTransfer(ctx context.Context, src Node, slot int, dst Node, count int, localID string) (int, outcome, *CodeError) {
	if count <= 0 {
		return 0, outcomeSoft, codeErrf(protocol.ErrTransferFailed, "nothing to move")
	}

	var execNode, direction, peerNode string
	switch directionFor(src.ID, dst.ID, localID) {
	case DirPullFromActor:
		if !dst.CanPull {
			return 0, outcomeSoft, codeErrf(protocol.ErrCapabilityMissing, "%s cannot pull", dst.ID)
		}
		execNode, direction, peerNode = dst.ID, protocol.DirPull, src.ID
	case DirPushToActor:
		if !src.CanPush {
			return 0, outcomeSoft, codeErrf(protocol.ErrCapabilityMissing, "%s cannot push", src.ID)
		}
		execNode, direction, peerNode = src.ID, protocol.DirPush, dst.ID
	default:
		if !src.CanPush {
			return 0, outcomeSoft, codeErrf(protocol.ErrCapabilityMissing, "%s cannot push", src.ID)
		}
		execNode, direction, peerNode = src.ID, protocol.DirPush, dst.ID
	}

	moved, err := e.net.Transfer(ctx, execNode, direction, peerNode, slot, count)
	if err != nil {
		if ctx.Err() != nil {
			return 0, outcomeHard, codeErrf(protocol.ErrTransferFailed, "transfer aborted: %v", ctx.Err())
		}
		return 0, outcomeSoft, codeErrf(protocol.ErrTransferFailed, "%s -> %s: %v", src.ID, dst.ID, err)
	}
	if moved <= 0 {
		return 0, outcomeSoft, codeErrf(protocol.ErrNoMatchOrFull, "%s rejected transfer from %s", dst.ID, src.ID)
	}
	return moved, outcomeOK, nil
}
