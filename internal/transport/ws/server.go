package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hellsoul/simcore/internal/core"
	"github.com/hellsoul/simcore/internal/protocol"
)

// outQueueDepth bounds how many undelivered frames a slow client's
// connection buffers before sendLatest starts dropping the oldest.
const outQueueDepth = 32

// Server upgrades HTTP connections to the websocket transport described in
// spec section 6: CONNECTION/CONNECTION_RESPONSE handshake, then CAST in,
// ACTION out.
type Server struct {
	game      *core.Game
	transport *Transport
	log       *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(g *core.Game, t *Transport, logger *log.Logger) *Server {
	return &Server{
		game:      g,
		transport: t,
		log:       logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
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

		playerID, out := s.handshake(conn)
		if playerID == "" {
			return
		}
		s.transport.Register(playerID, out)

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

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil {
				continue
			}
			if base.Type != protocol.TypeCast {
				continue
			}
			if err := protocol.ValidateCast(msg); err != nil {
				s.sendAck(conn, "", core.CastResult{Code: protocol.ErrProtoBadRequest, Message: err.Error()})
				continue
			}
			var cast protocol.CastMsg
			if err := json.Unmarshal(msg, &cast); err != nil {
				continue
			}
			if cast.ProtocolVersion != protocol.Version {
				continue
			}
			result := s.game.Cast(core.CastEnvelope{
				PlayerID:  playerID,
				ActID:     cast.ActID,
				AbilityID: cast.AbilityID,
				Target:    cast.Target,
				Params:    cast.Params,
			})
			s.sendAck(conn, cast.ActID, result)
		}

		// Cleanup.
		s.transport.Unregister(playerID)
		s.game.LeaveChan() <- playerID
	}
}

func (s *Server) sendAck(conn *websocket.Conn, actID string, result core.CastResult) {
	ack := protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		AckFor:          actID,
		Accepted:        result.Accepted,
		Code:            result.Code,
		Message:         result.Message,
		ServerTick:      s.game.CurrentTick(),
	}
	_ = writeJSON(conn, ack)
}

// handshake performs the CONNECTION / CONNECTION_RESPONSE exchange,
// resolving either a fresh join or a resumed session, and returns the
// player id and outbound channel the reader/writer goroutines use for the
// remainder of the connection.
func (s *Server) handshake(conn *websocket.Conn) (playerID string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeConnection {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected CONNECTION"), time.Now().Add(time.Second))
		return "", nil
	}
	if err := protocol.ValidateConnection(msg); err != nil {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, protocol.ErrProtoBadRequest), time.Now().Add(time.Second))
		return "", nil
	}

	var connMsg protocol.ConnectionMsg
	if err := json.Unmarshal(msg, &connMsg); err != nil {
		return "", nil
	}
	if connMsg.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return "", nil
	}
	if connMsg.AgentName == "" {
		connMsg.AgentName = "agent"
	}

	out = make(chan []byte, outQueueDepth)

	var resp core.JoinResponse
	if connMsg.ResumeToken != "" {
		respCh := make(chan core.JoinResponse, 1)
		s.game.AttachChan() <- core.AttachRequest{ResumeToken: connMsg.ResumeToken, Resp: respCh}
		resp = <-respCh
	}
	if resp.PlayerID == "" {
		respCh := make(chan core.JoinResponse, 1)
		s.game.JoinChan() <- core.JoinRequest{Name: connMsg.AgentName, WorldPreference: connMsg.WorldPreference, Resp: respCh}
		resp = <-respCh
	}

	reply := protocol.ConnectionResponseMsg{
		Type:                 protocol.TypeConnectionResp,
		ProtocolVersion:      protocol.Version,
		PlayerID:             resp.PlayerID,
		ResumeToken:          resp.ResumeToken,
		WorldID:              resp.WorldID,
		AbilityCatalogDigest: s.game.AbilityCatalogDigest(),
		Config: protocol.ConfigParams{
			ViewDistance:         s.game.Config.ViewDistance,
			InactiveViewDistance: s.game.Config.InactiveViewDistance,
			ListenDistance:       s.game.Config.ListenDistance,
			TickMillis:           s.game.Config.TickMillis,
		},
	}
	if err := writeJSON(conn, reply); err != nil {
		return "", nil
	}

	return resp.PlayerID, out
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
