package core

import (
	"log"

	"github.com/hellsoul/simcore/internal/nestedmap"
)

// Player is both a container (it owns a ComponentCatalog like any other
// scope root) and a viewer (it owns Scopes and a sensed-entities rollup).
type Player struct {
	IDValue     string
	Name        string
	Entities    map[string]struct{} // entity ids this player owns
	Team        *Team
	ResumeToken string

	SensedEntitiesMap *nestedmap.Map[*Entity]
	Scopes            map[string]*Scope // world id -> Scope

	rateWindows map[string]*rateWindow

	Outbox []OutboundMessage

	catalog *ComponentCatalog
}

// NewPlayer constructs a player with no team and an empty sensed-entities
// rollup.
func NewPlayer(id, name string, logger *log.Logger) *Player {
	p := &Player{
		IDValue:     id,
		Name:        name,
		Entities:    map[string]struct{}{},
		Scopes:      map[string]*Scope{},
		rateWindows: map[string]*rateWindow{},
	}
	p.SensedEntitiesMap = nestedmap.New[*Entity]("sensed:"+id, id, string(ScopePlayer))
	p.catalog = NewComponentCatalog(p, ScopePlayer, logger)
	return p
}

func (p *Player) ID() string                { return p.IDValue }
func (p *Player) ContainerScope() ScopeTag  { return ScopePlayer }
func (p *Player) IsPublished() bool         { return true } // players are always addressable
func (p *Player) Catalog() *ComponentCatalog { return p.catalog }

func (p *Player) GetContainerByScope(scope ScopeTag) (Container, bool) {
	switch scope {
	case ScopeTeam:
		if p.Team == nil {
			return nil, false
		}
		return p.Team, true
	default:
		return nil, false
	}
}

func (p *Player) Modify(g *Game, a Action) { p.catalog.fanOutModify(g, a) }
func (p *Player) React(g *Game, a Action)  { p.catalog.fanOutReact(g, a) }
func (p *Player) Sense(g *Game, a Action) any {
	info, ok := p.catalog.fanOutSense(g, a)
	if !ok {
		return false
	}
	return info
}

// SensedEntities returns this player's sensed-entities rollup.
func (p *Player) SensedEntities() *nestedmap.Map[*Entity] { return p.SensedEntitiesMap }

// ScopeFor returns (creating if absent) this player's Scope for worldID.
func (p *Player) ScopeFor(worldID string, viewDistance int) *Scope {
	s, ok := p.Scopes[worldID]
	if !ok {
		s = NewScope(p.IDValue, worldID, viewDistance)
		p.Scopes[worldID] = s
	}
	return s
}

func (p *Player) OwnsEntity(entityID string) bool {
	_, ok := p.Entities[entityID]
	return ok
}

// ownEntity records e as owned by p and wires e's sensed-entities rollup as
// a child of p's, returning the NestedMap propagation this causes (used by
// OwnEntityAction to populate visibility_changes).
func (p *Player) ownEntity(e *Entity) *nestedmap.Changes {
	p.Entities[e.IDValue] = struct{}{}
	e.AddOwner(p.IDValue)
	changes := nestedmap.NewChanges()
	if e.SensedEntities.AddParent(p.SensedEntitiesMap) {
		// Re-propagating an existing child's contents into a freshly
		// attached parent doesn't itself return a Changes record (AddParent
		// returns only success), so the entity's own presence in its
		// owner's rollup is recorded directly here.
		changes.Merge(p.SensedEntitiesMap.Add(e.IDValue, e))
	}
	return changes
}

// rateWindow is a fixed-window rate limiter keyed per action tag (the count
// resets once the window has expired), mirroring the teacher's
// per-agent-per-action-type rate limiting.
type rateWindow struct {
	startTick uint64
	count     int
}

// AllowAction enforces a max-per-window rate limit for tag, advancing the
// window if it has expired. Returns false (and does not consume a slot) if
// the caller is currently over budget.
func (p *Player) AllowAction(tag string, nowTick uint64, windowTicks uint64, max int) bool {
	if max <= 0 || windowTicks == 0 {
		return true
	}
	w, ok := p.rateWindows[tag]
	if !ok || nowTick >= w.startTick+windowTicks {
		w = &rateWindow{startTick: nowTick, count: 0}
		p.rateWindows[tag] = w
	}
	if w.count >= max {
		return false
	}
	w.count++
	return true
}
