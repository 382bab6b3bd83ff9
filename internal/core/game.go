package core

import (
	"log"
	"strings"

	"github.com/hellsoul/simcore/internal/config"
)

// OutboundMessage is one entry in a player's broadcast outbox: either an
// executed action's generated message, or a synthetic publish/unpublish
// triggered by a sensed-entity visibility change.
type OutboundMessage struct {
	Kind     string // "action", "publish", "unpublish"
	ActionID string
	EntityID string
	Payload  map[string]any
}

// Transport delivers outbound messages to a connected player. Game works
// with a nil Transport (messages simply accumulate in each Player's Outbox)
// so the simulation core has no hard dependency on the network layer.
type Transport interface {
	Send(playerID string, msg OutboundMessage)
}

// Game is the simulation root: it owns every world, player, team, and
// entity reachable from it, the pending action queue, and configuration.
// It is itself a Container at ScopeGame, the one scope every entity/world/
// player/team may subscribe outward to and that has no outward target of
// its own.
type Game struct {
	Worlds  *orderedIDMap[*World]
	Players *orderedIDMap[*Player]
	Teams   *orderedIDMap[*Team]
	// Entities indexes every entity that has ever been created (published
	// or not), so collect_listeners and sense lookups can resolve ids
	// without walking per-world indices.
	Entities *orderedIDMap[*Entity]

	Config    *config.Game
	Queue     *ActionQueue
	Transport Transport
	Logger    *log.Logger

	tick uint64

	catalog *ComponentCatalog

	// Actor-loop plumbing (see runtime.go): lazily allocated by ensureActor
	// so a Game used purely as a synchronous library (no Run loop) never
	// pays for them.
	joinCh   chan JoinRequest
	attachCh chan AttachRequest
	leaveCh  chan string
	castCh   chan castRequest
	stopCh   chan struct{}

	abilities map[string]Ability
	seenActs  map[string]map[string]uint64
}

// NewGame constructs an empty Game. cfg may be nil, in which case
// config.Default() is used.
func NewGame(cfg *config.Game, logger *log.Logger) *Game {
	if cfg == nil {
		cfg = config.Default()
	}
	g := &Game{
		Worlds:   newOrderedIDMap[*World](),
		Players:  newOrderedIDMap[*Player](),
		Teams:    newOrderedIDMap[*Team](),
		Entities: newOrderedIDMap[*Entity](),
		Config:   cfg,
		Queue:    NewActionQueue(),
		Logger:   logger,
	}
	g.catalog = NewComponentCatalog(g, ScopeGame, logger)
	return g
}

func (g *Game) ID() string               { return "game" }
func (g *Game) ContainerScope() ScopeTag  { return ScopeGame }
func (g *Game) IsPublished() bool         { return true }
func (g *Game) Catalog() *ComponentCatalog { return g.catalog }

// GetContainerByScope always fails: game has no valid outward subscription
// target (validTargets[ScopeGame] is empty).
func (g *Game) GetContainerByScope(scope ScopeTag) (Container, bool) { return nil, false }

func (g *Game) Modify(_ *Game, a Action) { g.catalog.fanOutModify(g, a) }
func (g *Game) React(_ *Game, a Action)  { g.catalog.fanOutReact(g, a) }
func (g *Game) Sense(_ *Game, a Action) any {
	info, ok := g.catalog.fanOutSense(g, a)
	if !ok {
		return false
	}
	return info
}

// Registries.

func (g *Game) AddWorld(w *World)   { g.Worlds.Set(w.IDValue, w) }
func (g *Game) AddPlayer(p *Player) { g.Players.Set(p.IDValue, p) }
func (g *Game) AddTeam(t *Team)     { g.Teams.Set(t.IDValue, t) }
func (g *Game) AddEntity(e *Entity) { g.Entities.Set(e.IDValue, e) }

func (g *Game) WorldByID(id string) (*World, bool)   { return g.Worlds.Get(id) }
func (g *Game) EntityByID(id string) *Entity {
	e, _ := g.Entities.Get(id)
	return e
}

func (g *Game) PlayerByID(id string) *Player {
	p, _ := g.Players.Get(id)
	return p
}

func (g *Game) TeamByID(id string) *Team {
	t, _ := g.Teams.Get(id)
	return t
}

// Tick drains the action queue to a fixed point (repeatedly dequeuing and
// executing until empty — a react phase may enqueue new top-level actions
// via Enqueue, though the common case is chained reactions via Chain, which
// never touch the queue) and then flushes every player's outbox.
func (g *Game) Tick() {
	g.tick++
	for !g.Queue.Empty() {
		a, ok := g.Queue.Pop()
		if !ok {
			break
		}
		Execute(g, a, false)
	}
	g.BroadcastAll()
}

func (g *Game) CurrentTick() uint64 { return g.tick }

// Enqueue pushes ev's actions onto the pending queue for the next Tick to
// drain, per Ability.Cast's contract (abilities never execute inline).
func (g *Game) Enqueue(ev Event) { g.Queue.Push(ev) }

// queueForBroadcast implements spec section 4.6: translate visibility
// changes into synthetic publish/unpublish deliveries, then fan the action
// itself out per its BroadcastType.
func (g *Game) queueForBroadcast(a Action, msg map[string]any) {
	if vc := a.VisibilityChanges(); vc != nil {
		g.applyVisibilityChanges(vc)
	}

	switch a.BroadcastType() {
	case BroadcastNone, BroadcastDirect:
		return
	case BroadcastFull:
		g.Players.Each(func(_ string, p *Player) {
			g.deliverAction(p, msg)
		})
	default: // sense-gated (HAS_SENSE_OF_ENTITY)
		delivered := map[string]struct{}{}
		deliverTo := func(e *Entity) {
			if e == nil {
				return
			}
			for pid := range g.playersWhoSense(e) {
				if _, ok := delivered[pid]; ok {
					continue
				}
				delivered[pid] = struct{}{}
				if p, ok := g.Players.Get(pid); ok {
					g.deliverAction(p, msg)
				}
			}
		}
		deliverTo(a.Caster())
		deliverTo(a.Target())
	}
}

// playersWhoSense returns the ids of every player who either owns e
// directly or has e rolled up into their sensed-entities NestedMap. Under
// Config.PerceptionGrouping == team, it also folds in every member of a team
// whose own rollup senses e, per spec section 4.6 step 4 ("each player/team
// whose owned or sensed entities include caster or target") — a teammate who
// doesn't individually sense e still receives the broadcast when the team
// does.
func (g *Game) playersWhoSense(e *Entity) map[string]struct{} {
	out := map[string]struct{}{}
	g.Players.Each(func(id string, p *Player) {
		if p.OwnsEntity(e.IDValue) || p.SensedEntitiesMap.Contains(e.IDValue) {
			out[id] = struct{}{}
		}
	})
	if g.Config.PerceptionGrouping == config.PerceptionTeam {
		g.Teams.Each(func(_ string, t *Team) {
			if !t.SensedEntitiesMap.Contains(e.IDValue) {
				return
			}
			for pid := range t.Members {
				out[pid] = struct{}{}
			}
		})
	}
	return out
}

func (g *Game) deliverAction(p *Player, payload map[string]any) {
	p.Outbox = append(p.Outbox, OutboundMessage{Kind: "action", Payload: payload})
}

// applyVisibilityChanges walks the NestedChanges a sense gain/loss recorded
// at the player or team scope (whichever Config.PerceptionGrouping
// selects) and enqueues a synthetic publish (for gains) or unpublish (for
// losses) per viewer, per newly-(in)visible entity.
func (g *Game) applyVisibilityChanges(vc *VisibilityChange) {
	scope := string(ScopePlayer)
	if g.Config.PerceptionGrouping == config.PerceptionTeam {
		scope = string(ScopeTeam)
	}
	for _, nodeID := range vc.Changes.NodeIDs(scope) {
		viewerID := viewerIDFromNode(nodeID)
		players := g.viewerPlayers(scope, viewerID)
		ids := vc.Changes.IDsAt(scope, nodeID)
		for entityID := range ids {
			for _, p := range players {
				if vc.Added {
					e := g.EntityByID(entityID)
					payload := map[string]any{"entity": entityID}
					if e != nil {
						payload["name"] = e.Name
						payload["position"] = e.Position
					}
					p.Outbox = append(p.Outbox, OutboundMessage{Kind: "publish", EntityID: entityID, Payload: payload})
				} else {
					p.Outbox = append(p.Outbox, OutboundMessage{Kind: "unpublish", EntityID: entityID})
				}
			}
		}
	}
}

// viewerIDFromNode recovers the owning player/team id from a
// sensed-entities NestedMap's node id, which is always constructed as
// "sensed:"+ownerID.
func viewerIDFromNode(nodeID string) string {
	return strings.TrimPrefix(nodeID, "sensed:")
}

// viewerPlayers resolves which players should receive a visibility change
// recorded at (scope, viewerID): just that player when scope is player, or
// every member of that team when scope is team.
func (g *Game) viewerPlayers(scope, viewerID string) []*Player {
	if scope == string(ScopePlayer) {
		if p := g.PlayerByID(viewerID); p != nil {
			return []*Player{p}
		}
		return nil
	}
	t := g.TeamByID(viewerID)
	if t == nil {
		return nil
	}
	out := make([]*Player, 0, len(t.Members))
	for pid := range t.Members {
		if p := g.PlayerByID(pid); p != nil {
			out = append(out, p)
		}
	}
	return out
}

// BroadcastAll flushes every player's outbox to Transport (a no-op beyond
// the flush when Transport is nil; callers can still inspect Outbox).
func (g *Game) BroadcastAll() {
	g.Players.Each(func(_ string, p *Player) {
		if g.Transport != nil {
			for _, msg := range p.Outbox {
				g.Transport.Send(p.IDValue, msg)
			}
		}
		p.Outbox = p.Outbox[:0]
	})
}
