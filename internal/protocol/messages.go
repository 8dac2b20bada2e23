package protocol

// HELLO (actor -> hub)
type HelloMsg struct {
	Type            string            `json:"type"`
	ProtocolVersion string            `json:"protocol_version"`
	ActorName       string            `json:"actor_name"`
	Capabilities    HelloCapabilities `json:"capabilities,omitempty"`
}

type HelloCapabilities struct {
	MaxQueue int `json:"max_queue,omitempty"`
}

// WELCOME (hub -> actor). LocalNodeID is empty when the hub has no inventory
// node registered for this actor; the actor is then effectively off-grid.
type WelcomeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	SessionID       string `json:"session_id"`
	LocalNodeID     string `json:"local_node_id,omitempty"`
}

// NODES (actor -> hub): list every reachable inventory node.
type NodesMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id"`
}

type NodeRef struct {
	ID      string `json:"id"`
	CanList bool   `json:"can_list"`
	CanPush bool   `json:"can_push"`
	CanPull bool   `json:"can_pull"`
}

type NodesResultMsg struct {
	Type            string    `json:"type"`
	ProtocolVersion string    `json:"protocol_version"`
	ReqID           string    `json:"req_id"`
	Nodes           []NodeRef `json:"nodes"`
}

// LIST (actor -> hub): snapshot one node's stacks in slot order.
type ListMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id"`
	NodeID          string `json:"node_id"`
}

type ItemStack struct {
	Slot     int    `json:"slot"`
	Item     string `json:"item"`
	Count    int    `json:"count"`
	MaxCount int    `json:"max_count"`
}

type ListResultMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	ReqID           string      `json:"req_id"`
	Code            string      `json:"code,omitempty"`
	Message         string      `json:"message,omitempty"`
	Stacks          []ItemStack `json:"stacks"`
}

// TRANSFER (actor -> hub): ExecNode performs the move; with DirPush the slot
// is read from ExecNode and items land on PeerNode, with DirPull the slot is
// read from PeerNode and items land on ExecNode.
type TransferMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id"`
	ExecNode        string `json:"exec_node"`
	Direction       string `json:"direction"`
	PeerNode        string `json:"peer_node"`
	Slot            int    `json:"slot"`
	Count           int    `json:"count"`
}

type TransferResultMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id"`
	Moved           int    `json:"moved"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
}
