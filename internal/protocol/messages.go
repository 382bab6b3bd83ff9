package protocol

// ConnectionMsg (client -> server) opens a session: either a fresh join
// (ResumeToken empty) or a resume of a previously issued one.
type ConnectionMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	AgentName       string `json:"agent_name"`
	ResumeToken     string `json:"resume_token,omitempty"`
	WorldPreference string `json:"world_preference,omitempty"`
}

// ConnectionResponseMsg (server -> client) answers a CONNECTION, carrying
// the player's identity, a resume token for reconnects, and the
// configuration/catalog digests a client needs before it starts casting.
type ConnectionResponseMsg struct {
	Type                 string       `json:"type"`
	ProtocolVersion      string       `json:"protocol_version"`
	PlayerID             string       `json:"player_id"`
	ResumeToken          string       `json:"resume_token"`
	WorldID              string       `json:"world_id,omitempty"`
	AbilityCatalogDigest string       `json:"ability_catalog_digest,omitempty"`
	Config               ConfigParams `json:"config"`
}

// ConfigParams mirrors the subset of config.Game a client needs to know
// about (view/listen distances govern what it can expect to be told about).
type ConfigParams struct {
	ViewDistance         int `json:"view_distance"`
	InactiveViewDistance int `json:"inactive_view_distance"`
	ListenDistance       int `json:"listen_distance"`
	TickMillis           int `json:"tick_millis"`
}

// CastMsg (client -> server) requests an ability cast. ActID is the
// idempotency key: a retried CAST with an already-seen (player, act_id) is
// acknowledged without re-queuing the event.
type CastMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	ActID           string         `json:"act_id"`
	AbilityID       string         `json:"ability_id"`
	Target          string         `json:"target,omitempty"`
	Params          map[string]any `json:"params,omitempty"`
}

// ActionMsg (server -> client) delivers one queued OutboundMessage: either
// an executed action's generated message, or a synthetic publish/unpublish
// triggered by a sensed-entity visibility change.
type ActionMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	Kind            string         `json:"kind"`
	ActionID        string         `json:"action_id,omitempty"`
	EntityID        string         `json:"entity_id,omitempty"`
	ServerTick      uint64         `json:"server_tick"`
	Payload         map[string]any `json:"payload,omitempty"`
}

// AckMsg acknowledges a CAST, successful or not, per spec §7's validation
// error / soft refusal reporting.
type AckMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	AckFor          string `json:"ack_for"`
	Accepted        bool   `json:"accepted"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
	ServerTick      uint64 `json:"server_tick,omitempty"`
}
