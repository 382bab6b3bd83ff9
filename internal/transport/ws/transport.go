package ws

import (
	"encoding/json"
	"sync"

	"github.com/hellsoul/simcore/internal/core"
	"github.com/hellsoul/simcore/internal/protocol"
)

// Transport implements core.Transport by writing each OutboundMessage as a
// protocol.ActionMsg onto the connected player's outbound byte channel. It
// owns the playerID -> channel registry itself rather than asking core.Game
// to track raw connections, keeping the wire format out of the simulation
// core entirely.
type Transport struct {
	game *core.Game

	mu   sync.Mutex
	outs map[string]chan []byte
}

func NewTransport(g *core.Game) *Transport {
	t := &Transport{game: g, outs: map[string]chan []byte{}}
	g.Transport = t
	return t
}

// Register associates playerID with the byte channel its connection's
// writer goroutine drains. Called once a CONNECTION/CONNECTION_RESPONSE
// handshake completes.
func (t *Transport) Register(playerID string, out chan []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.outs[playerID] = out
}

func (t *Transport) Unregister(playerID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.outs, playerID)
}

// Send satisfies core.Transport. A nil/unregistered destination (a player
// with no live connection, e.g. between disconnect and a future Attach) is
// a silent no-op: outbox history isn't replayed on reconnect.
func (t *Transport) Send(playerID string, msg core.OutboundMessage) {
	t.mu.Lock()
	ch := t.outs[playerID]
	t.mu.Unlock()
	if ch == nil {
		return
	}
	b, err := json.Marshal(toActionMsg(msg, t.game.CurrentTick()))
	if err != nil {
		return
	}
	sendLatest(ch, b)
}

func toActionMsg(msg core.OutboundMessage, tick uint64) protocol.ActionMsg {
	return protocol.ActionMsg{
		Type:            protocol.TypeAction,
		ProtocolVersion: protocol.Version,
		Kind:            msg.Kind,
		ActionID:        msg.ActionID,
		EntityID:        msg.EntityID,
		ServerTick:      tick,
		Payload:         msg.Payload,
	}
}

// sendLatest writes b to ch without blocking, dropping the oldest queued
// message first if ch is full — a slow client loses stale frames rather
// than stalling the broadcast.
func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
