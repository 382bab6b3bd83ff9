package protocol

import "encoding/json"

const Version = "1.0"

// Message types exchanged over the transport (spec §6's CONNECTION/CAST
// envelope, server responses as CONNECTION_RESPONSE/ACTION).
const (
	TypeConnection     = "CONNECTION"
	TypeConnectionResp = "CONNECTION_RESPONSE"
	TypeCast           = "CAST"
	TypeAction         = "ACTION"
	TypeAck            = "ACK"
)

// BaseMessage lets the transport route an unknown JSON message by type
// before unmarshalling the full envelope.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
