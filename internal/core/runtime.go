package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"time"

	"github.com/hellsoul/simcore/internal/ids"
)

// JoinResponse answers a JoinRequest or AttachRequest. PlayerID is empty when
// an AttachRequest's resume token was not recognized.
type JoinResponse struct {
	PlayerID    string
	ResumeToken string
	WorldID     string
}

// JoinRequest asks the actor loop to mint a fresh player. Resp is answered
// from inside Run, never from the calling goroutine, so the transport must
// not block the loop waiting on an unbuffered Resp with nothing draining it.
type JoinRequest struct {
	Name            string
	WorldPreference string
	Resp            chan JoinResponse
}

// AttachRequest asks the actor loop to resume a previously issued player by
// resume token, the way a reconnecting client re-establishes its session
// without losing ownership of its entities.
type AttachRequest struct {
	ResumeToken string
	Resp        chan JoinResponse
}

// CastEnvelope is a transport-agnostic ability cast request: the ws layer
// translates a protocol.CastMsg into one of these before handing it to the
// actor loop, keeping core free of any wire-format dependency.
type CastEnvelope struct {
	PlayerID  string
	ActID     string
	AbilityID string
	Target    string
	Params    map[string]any
}

// CastResult reports how a queued cast was handled, for the transport layer
// to translate into an AckMsg.
type CastResult struct {
	Accepted bool
	Code     string
	Message  string
}

type castRequest struct {
	env  CastEnvelope
	resp chan CastResult
}

// ensureActor lazily allocates the actor-loop channels and registries so a
// Game driven synchronously without Run (as in every _test.go in this
// package, which calls Execute directly) never pays for them.
func (g *Game) ensureActor() {
	if g.joinCh != nil {
		return
	}
	g.joinCh = make(chan JoinRequest)
	g.attachCh = make(chan AttachRequest)
	g.leaveCh = make(chan string)
	g.castCh = make(chan castRequest)
	g.stopCh = make(chan struct{})
	g.abilities = map[string]Ability{}
	g.seenActs = map[string]map[string]uint64{}
}

// JoinChan, AttachChan, and LeaveChan expose the actor loop's request
// channels to the transport layer, mirroring the teacher's World.Inbox /
// World.Join / World.Attach getters (runtime_api.go).
func (g *Game) JoinChan() chan<- JoinRequest     { g.ensureActor(); return g.joinCh }
func (g *Game) AttachChan() chan<- AttachRequest { g.ensureActor(); return g.attachCh }
func (g *Game) LeaveChan() chan<- string         { g.ensureActor(); return g.leaveCh }

// Cast queues an ability cast for the next tick and blocks until the actor
// loop has validated and either queued or refused it. Safe to call
// concurrently with Run from any number of transport goroutines.
func (g *Game) Cast(env CastEnvelope) CastResult {
	g.ensureActor()
	req := castRequest{env: env, resp: make(chan CastResult, 1)}
	g.castCh <- req
	return <-req.resp
}

// RegisterAbility adds a to the ability catalog a CastEnvelope's AbilityID
// is resolved against, and that AbilityCatalogDigest summarizes for clients.
func (g *Game) RegisterAbility(a Ability) {
	g.ensureActor()
	g.abilities[a.ID()] = a
}

// AbilityCatalogDigest hashes the sorted set of registered ability ids, the
// way the teacher digests its block/item catalogs for clients to cache
// against (runtime_api.go's catalog digest requests).
func (g *Game) AbilityCatalogDigest() string {
	ids := make([]string, 0, len(g.abilities))
	for id := range g.abilities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	h := sha256.New()
	for _, id := range ids {
		h.Write([]byte(id))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Run drives the actor loop: a single goroutine owns all Game state, so
// every join/attach/leave/cast request is serialized against tick
// application exactly the way the teacher's World.Run loop serializes
// requests against its own step (runtime_loop.go). It returns when ctx is
// canceled or Stop is called.
func (g *Game) Run(ctx context.Context) error {
	g.ensureActor()
	interval := time.Duration(g.Config.TickMillis) * time.Millisecond
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-g.stopCh:
			return nil
		case req := <-g.joinCh:
			g.handleJoin(req)
		case req := <-g.attachCh:
			g.handleAttach(req)
		case playerID := <-g.leaveCh:
			g.handleLeave(playerID)
		case req := <-g.castCh:
			req.resp <- g.handleCast(req.env)
		case <-ticker.C:
			g.Tick()
		}
	}
}

// Stop ends a running Run loop. Safe to call at most once.
func (g *Game) Stop() {
	g.ensureActor()
	close(g.stopCh)
}

func (g *Game) handleJoin(req JoinRequest) {
	p := NewPlayer(ids.New(), req.Name, g.Logger)
	p.ResumeToken = ids.New()
	g.AddPlayer(p)
	req.Resp <- JoinResponse{
		PlayerID:    p.IDValue,
		ResumeToken: p.ResumeToken,
		WorldID:     g.preferredWorldID(req.WorldPreference),
	}
}

func (g *Game) handleAttach(req AttachRequest) {
	var found *Player
	g.Players.Each(func(_ string, p *Player) {
		if found == nil && req.ResumeToken != "" && p.ResumeToken == req.ResumeToken {
			found = p
		}
	})
	if found == nil {
		req.Resp <- JoinResponse{}
		return
	}
	req.Resp <- JoinResponse{
		PlayerID:    found.IDValue,
		ResumeToken: found.ResumeToken,
		WorldID:     g.preferredWorldID(""),
	}
}

// handleLeave is currently a no-op beyond accepting the disconnect: a
// player's entities and rate-limit state survive a disconnect so a
// reconnect via AttachRequest picks the session back up unchanged.
func (g *Game) handleLeave(playerID string) {}

func (g *Game) preferredWorldID(preference string) string {
	if preference != "" && g.Worlds.Has(preference) {
		return preference
	}
	ids := g.Worlds.IDs()
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}

// handleCast validates env — unknown player, replayed act_id, unknown
// ability, exhausted rate limit — and, once accepted, casts the ability and
// queues the resulting Event for this tick's drain. Casting never executes
// actions inline, so the caller only ever learns whether the cast was
// queued, not what it did.
func (g *Game) handleCast(env CastEnvelope) CastResult {
	p := g.PlayerByID(env.PlayerID)
	if p == nil {
		return CastResult{Code: "E_WORLD_DENIED", Message: "unknown player"}
	}
	if g.wasSeen(p.IDValue, env.ActID) {
		return CastResult{Accepted: true, Message: "duplicate act_id"}
	}
	ability, ok := g.abilities[env.AbilityID]
	if !ok {
		return CastResult{Code: "E_NO_RESOURCE", Message: "unknown ability"}
	}
	if !p.AllowAction(env.AbilityID, g.tick, g.Config.ActionRateWindowTicks, g.Config.ActionRateMax) {
		return CastResult{Code: "E_RATE_LIMIT", Message: "rate limit exceeded"}
	}

	var caster *Entity
	for eid := range p.Entities {
		if caster = g.EntityByID(eid); caster != nil {
			break
		}
	}
	var target *Entity
	if env.Target != "" {
		target = g.EntityByID(env.Target)
	}

	ev := ability.Cast(g, caster, CastRequest{GrantedBy: env.AbilityID, Target: target, Params: env.Params})
	g.Enqueue(ev)
	g.markSeen(p.IDValue, env.ActID)
	return CastResult{Accepted: true}
}

func (g *Game) wasSeen(playerID, actID string) bool {
	if actID == "" {
		return false
	}
	byPlayer, ok := g.seenActs[playerID]
	if !ok {
		return false
	}
	_, seen := byPlayer[actID]
	return seen
}

// markSeen records actID as applied for playerID and prunes entries fallen
// outside the dedupe window, bounding the map's size the way a TTL cache
// would.
func (g *Game) markSeen(playerID, actID string) {
	if actID == "" {
		return
	}
	byPlayer, ok := g.seenActs[playerID]
	if !ok {
		byPlayer = map[string]uint64{}
		g.seenActs[playerID] = byPlayer
	}
	byPlayer[actID] = g.tick

	window := g.Config.ActionRateWindowTicks * 4
	if window == 0 {
		window = 80
	}
	if g.tick <= window {
		return
	}
	cutoff := g.tick - window
	for actID, seenAt := range byPlayer {
		if seenAt < cutoff {
			delete(byPlayer, actID)
		}
	}
}
