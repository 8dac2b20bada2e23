package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"itemgrid.ai/internal/grid"
	"itemgrid.ai/internal/protocol"
)

// Client is the actor side of a hub session and implements grid.Network.
// One request is in flight at a time, matching the engine's cooperative
// single-threaded model.
type Client struct {
	conn    *websocket.Conn
	localID string
	timeout time.Duration

	mu    sync.Mutex
	reqID int
}

// Dial connects, performs the HELLO/WELCOME handshake, and learns the
// actor's local node identity.
func Dial(ctx context.Context, url, actorName string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ActorName:       actorName,
		Capabilities:    protocol.HelloCapabilities{MaxQueue: 8},
	}
	if err := writeJSON(conn, hello); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("send HELLO: %w", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("await WELCOME: %w", err)
	}
	var welcome protocol.WelcomeMsg
	if err := json.Unmarshal(msg, &welcome); err != nil || welcome.Type != protocol.TypeWelcome {
		_ = conn.Close()
		return nil, fmt.Errorf("unexpected handshake reply")
	}

	return &Client{
		conn:    conn,
		localID: welcome.LocalNodeID,
		timeout: 15 * time.Second,
	}, nil
}

func (c *Client) Close() error { return c.conn.Close() }

func (c *Client) LocalID(context.Context) (string, error) {
	return c.localID, nil
}

func (c *Client) Nodes(ctx context.Context) ([]grid.Node, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextReqID()
	req := protocol.NodesMsg{Type: protocol.TypeNodes, ProtocolVersion: protocol.Version, ReqID: id}
	var resp protocol.NodesResultMsg
	if err := c.roundTrip(ctx, req, protocol.TypeNodesResult, id, &resp); err != nil {
		return nil, err
	}
	out := make([]grid.Node, 0, len(resp.Nodes))
	for _, n := range resp.Nodes {
		out = append(out, grid.Node{ID: n.ID, CanList: n.CanList, CanPush: n.CanPush, CanPull: n.CanPull})
	}
	return out, nil
}

func (c *Client) Stacks(ctx context.Context, nodeID string) ([]protocol.ItemStack, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextReqID()
	req := protocol.ListMsg{Type: protocol.TypeList, ProtocolVersion: protocol.Version, ReqID: id, NodeID: nodeID}
	var resp protocol.ListResultMsg
	if err := c.roundTrip(ctx, req, protocol.TypeListResult, id, &resp); err != nil {
		return nil, err
	}
	if resp.Code != "" {
		return nil, fmt.Errorf("%s: %s", resp.Code, resp.Message)
	}
	return resp.Stacks, nil
}

func (c *Client) Transfer(ctx context.Context, execNode, direction, peerNode string, slot, count int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextReqID()
	req := protocol.TransferMsg{
		Type:            protocol.TypeTransfer,
		ProtocolVersion: protocol.Version,
		ReqID:           id,
		ExecNode:        execNode,
		Direction:       direction,
		PeerNode:        peerNode,
		Slot:            slot,
		Count:           count,
	}
	var resp protocol.TransferResultMsg
	if err := c.roundTrip(ctx, req, protocol.TypeTransferResult, id, &resp); err != nil {
		return 0, err
	}
	if resp.Code != "" {
		return resp.Moved, fmt.Errorf("%s: %s", resp.Code, resp.Message)
	}
	return resp.Moved, nil
}

func (c *Client) nextReqID() string {
	c.reqID++
	return "r" + strconv.Itoa(c.reqID)
}

// roundTrip sends one request and reads frames until the matching response
// arrives. Callers hold c.mu.
func (c *Client) roundTrip(ctx context.Context, req any, wantType, wantReqID string, resp any) error {
	if err := writeJSON(c.conn, req); err != nil {
		return err
	}
	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		_ = c.conn.SetReadDeadline(deadline)
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return err
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil || base.Type != wantType {
			continue
		}
		var probe struct {
			ReqID string `json:"req_id"`
		}
		if json.Unmarshal(msg, &probe) != nil || probe.ReqID != wantReqID {
			continue
		}
		return json.Unmarshal(msg, resp)
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
