package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	TypeHello          = "HELLO"
	TypeWelcome        = "WELCOME"
	TypeNodes          = "NODES"
	TypeNodesResult    = "NODES_RESULT"
	TypeList           = "LIST"
	TypeListResult     = "LIST_RESULT"
	TypeTransfer       = "TRANSFER"
	TypeTransferResult = "TRANSFER_RESULT"
)

// Transfer directions. The executing node is always the endpoint the request
// is addressed to; PUSH sends toward the peer, PULL takes from the peer.
const (
	DirPush = "PUSH"
	DirPull = "PULL"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
