// Package ws carries the grid protocol over websockets: the hub server that
// owns the node inventories, and the actor-side client implementing
// grid.Network.
package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	persistlog "itemgrid.ai/internal/persistence/log"
	"itemgrid.ai/internal/protocol"
	"itemgrid.ai/internal/store"
)

type Server struct {
	store *store.Store
	log   *log.Logger
	tlog  *persistlog.TransferLogger // optional

	upgrader websocket.Upgrader
}

func NewServer(st *store.Store, logger *log.Logger, tlog *persistlog.TransferLogger) *Server {
	return &Server{
		store: st,
		log:   logger,
		tlog:  tlog,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sessionID, out, ok := s.handshake(r.Context(), conn)
		if !ok {
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop. Requests are served in arrival order; the store is
		// the only shared state and serializes access itself.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil {
				continue
			}
			switch base.Type {
			case protocol.TypeNodes:
				var req protocol.NodesMsg
				if json.Unmarshal(msg, &req) == nil {
					s.send(out, s.handleNodes(ctx, req))
				}
			case protocol.TypeList:
				var req protocol.ListMsg
				if json.Unmarshal(msg, &req) == nil {
					s.send(out, s.handleList(ctx, req))
				}
			case protocol.TypeTransfer:
				var req protocol.TransferMsg
				if json.Unmarshal(msg, &req) == nil {
					s.send(out, s.handleTransfer(ctx, sessionID, req))
				}
			}
		}
	}
}

func (s *Server) handshake(ctx context.Context, conn *websocket.Conn) (sessionID string, out chan []byte, ok bool) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil, false
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"),
			time.Now().Add(time.Second))
		return "", nil, false
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", nil, false
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"),
			time.Now().Add(time.Second))
		return "", nil, false
	}

	maxQ := hello.Capabilities.MaxQueue
	if maxQ <= 0 {
		maxQ = 8
	}
	if maxQ > 64 {
		maxQ = 64
	}
	out = make(chan []byte, maxQ)

	// The actor's own inventory is the node registered under its name, if
	// any. No node means the actor operates off-grid: queries still work,
	// "." resolves to nothing.
	localNodeID := ""
	if hello.ActorName != "" {
		if has, err := s.store.HasNode(ctx, hello.ActorName); err == nil && has {
			localNodeID = hello.ActorName
		}
	}

	sessionID = "s_" + uuid.NewString()
	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sessionID,
		LocalNodeID:     localNodeID,
	}
	b, err := json.Marshal(welcome)
	if err != nil {
		return "", nil, false
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		return "", nil, false
	}
	if s.log != nil {
		s.log.Printf("session %s: actor=%q local_node=%q", sessionID, hello.ActorName, localNodeID)
	}
	return sessionID, out, true
}

func (s *Server) send(out chan []byte, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case out <- b:
	default:
		// Slow consumer: drop rather than block the reader loop.
	}
}

func (s *Server) handleNodes(ctx context.Context, req protocol.NodesMsg) protocol.NodesResultMsg {
	resp := protocol.NodesResultMsg{
		Type:            protocol.TypeNodesResult,
		ProtocolVersion: protocol.Version,
		ReqID:           req.ReqID,
		Nodes:           []protocol.NodeRef{},
	}
	nodes, err := s.store.Nodes(ctx)
	if err != nil {
		return resp
	}
	resp.Nodes = nodes
	return resp
}

func (s *Server) handleList(ctx context.Context, req protocol.ListMsg) protocol.ListResultMsg {
	resp := protocol.ListResultMsg{
		Type:            protocol.TypeListResult,
		ProtocolVersion: protocol.Version,
		ReqID:           req.ReqID,
		Stacks:          []protocol.ItemStack{},
	}
	node, err := s.store.Node(ctx, req.NodeID)
	if err != nil {
		resp.Code = protocol.ErrNodeNotFound
		resp.Message = err.Error()
		return resp
	}
	if !node.CanList {
		resp.Code = protocol.ErrCapabilityMissing
		resp.Message = req.NodeID + " cannot list"
		return resp
	}
	stacks, err := s.store.Stacks(ctx, req.NodeID)
	if err != nil {
		resp.Code = protocol.ErrInternal
		resp.Message = err.Error()
		return resp
	}
	if stacks != nil {
		resp.Stacks = stacks
	}
	return resp
}

func (s *Server) handleTransfer(ctx context.Context, sessionID string, req protocol.TransferMsg) protocol.TransferResultMsg {
	resp := protocol.TransferResultMsg{
		Type:            protocol.TypeTransferResult,
		ProtocolVersion: protocol.Version,
		ReqID:           req.ReqID,
	}
	defer func() {
		if s.tlog == nil {
			return
		}
		_ = s.tlog.Write(persistlog.TransferEntry{
			Time:      time.Now().UTC().Format(time.RFC3339),
			SessionID: sessionID,
			ExecNode:  req.ExecNode,
			Direction: req.Direction,
			PeerNode:  req.PeerNode,
			Slot:      req.Slot,
			Requested: req.Count,
			Moved:     resp.Moved,
			Code:      resp.Code,
		})
	}()

	exec, err := s.store.Node(ctx, req.ExecNode)
	if err != nil {
		resp.Code = protocol.ErrNodeNotFound
		resp.Message = err.Error()
		return resp
	}

	var srcNode, dstNode string
	switch req.Direction {
	case protocol.DirPush:
		if !exec.CanPush {
			resp.Code = protocol.ErrCapabilityMissing
			resp.Message = req.ExecNode + " cannot push"
			return resp
		}
		srcNode, dstNode = req.ExecNode, req.PeerNode
	case protocol.DirPull:
		if !exec.CanPull {
			resp.Code = protocol.ErrCapabilityMissing
			resp.Message = req.ExecNode + " cannot pull"
			return resp
		}
		srcNode, dstNode = req.PeerNode, req.ExecNode
	default:
		resp.Code = protocol.ErrProtoBadRequest
		resp.Message = "bad direction " + req.Direction
		return resp
	}

	moved, err := s.store.Transfer(ctx, srcNode, req.Slot, dstNode, req.Count)
	if err != nil {
		resp.Code = protocol.ErrTransferFailed
		resp.Message = err.Error()
		return resp
	}
	resp.Moved = moved
	return resp
}
