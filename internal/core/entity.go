package core

import (
	"log"
	"sort"

	"github.com/hellsoul/simcore/internal/geom"
	"github.com/hellsoul/simcore/internal/nestedmap"
	"github.com/hellsoul/simcore/internal/property"
)

// Grant records how an entity came to have an ability: who (or what)
// granted it, and what item/component it was granted through.
type Grant struct {
	Ability    string
	GrantedBy  string
	Using      string
}

// Entity is the base container for in-world actors: players' characters,
// monsters, traps, anything with a position and a component catalog.
type Entity struct {
	IDValue    string
	Name       string
	Tags       map[string]struct{}
	Published  bool
	Active     bool
	Omnipotent bool

	Properties map[string]*property.Property
	Abilities  map[string][]Grant
	Owners     map[string]struct{} // player ids
	Slots      map[string]string   // slot name -> occupant entity id ("" = empty)

	// Teams rolls up the teams this entity's owners belong to. The source
	// names this field on Entity but it has no call site beyond bookkeeping
	// (unlike SensedEntities, which the pipeline actively publishes
	// through).
	Teams *nestedmap.Map[*Team]

	SensedEntities *nestedmap.Map[*Entity]

	World    *World
	Position geom.Vector

	catalog *ComponentCatalog
	game    *Game
}

// NewEntity constructs an unpublished entity owned by g.
func NewEntity(g *Game, id, name string, logger *log.Logger) *Entity {
	e := &Entity{
		IDValue:    id,
		Name:       name,
		Tags:       map[string]struct{}{},
		Properties: map[string]*property.Property{},
		Abilities:  map[string][]Grant{},
		Owners:     map[string]struct{}{},
		Slots:      map[string]string{},
		game:       g,
	}
	e.Teams = nestedmap.New[*Team]("teams:"+id, id, string(ScopeEntity))
	e.SensedEntities = nestedmap.New[*Entity]("sensed:"+id, id, string(ScopeEntity))
	e.catalog = NewComponentCatalog(e, ScopeEntity, logger)
	return e
}

func (e *Entity) ID() string              { return e.IDValue }
func (e *Entity) ContainerScope() ScopeTag { return ScopeEntity }
func (e *Entity) IsPublished() bool        { return e.Published }
func (e *Entity) Catalog() *ComponentCatalog { return e.catalog }

func (e *Entity) HasTag(tag string) bool {
	_, ok := e.Tags[tag]
	return ok
}

// GetContainerByScope resolves world/player/team/game for this entity. When
// an entity has multiple owners, player/team resolve against the
// lowest-sorted owner id, deterministically.
func (e *Entity) GetContainerByScope(scope ScopeTag) (Container, bool) {
	switch scope {
	case ScopeWorld:
		if e.World == nil {
			return nil, false
		}
		return e.World, true
	case ScopeGame:
		if e.game == nil {
			return nil, false
		}
		return e.game, true
	case ScopePlayer:
		p := e.primaryOwner()
		if p == nil {
			return nil, false
		}
		return p, true
	case ScopeTeam:
		p := e.primaryOwner()
		if p == nil || p.Team == nil {
			return nil, false
		}
		return p.Team, true
	default:
		return nil, false
	}
}

func (e *Entity) primaryOwner() *Player {
	if len(e.Owners) == 0 || e.game == nil {
		return nil
	}
	ids := make([]string, 0, len(e.Owners))
	for id := range e.Owners {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return e.game.PlayerByID(ids[0])
}

func (e *Entity) Modify(g *Game, a Action) { e.catalog.fanOutModify(g, a) }
func (e *Entity) React(g *Game, a Action)  { e.catalog.fanOutReact(g, a) }
func (e *Entity) Sense(g *Game, a Action) any {
	info, ok := e.catalog.fanOutSense(g, a)
	if !ok {
		return false
	}
	return info
}

// Publish is the exported form of publish, for callers outside this package
// that need to re-attach a restored entity to a world (the persistence
// layer's snapshot restore) without going through the action pipeline.
func (e *Entity) Publish(world *World, pos geom.Vector) { e.publish(world, pos) }

// publish attaches the entity to world at position, publishes its
// components' subscriptions, and indexes it in the world's chunk index.
func (e *Entity) publish(world *World, pos geom.Vector) {
	e.World = world
	e.Position = pos
	e.Published = true
	e.Active = true
	e.catalog.SubscribeToAll()
	world.indexEntity(e)
}

// unpublish reverses publish: drops subscriptions, removes the entity from
// the world's chunk index, and clears the world reference.
func (e *Entity) unpublish() {
	if e.World != nil {
		e.World.unindexEntity(e)
	}
	e.catalog.UnsubscribeFromAll()
	e.Published = false
	e.Active = false
	e.World = nil
}

// AddOwner records player as an owner of this entity.
func (e *Entity) AddOwner(playerID string) {
	e.Owners[playerID] = struct{}{}
}

// Grant appends a Grant recording how ability was learned.
func (e *Entity) Grant(ability, grantedBy, using string) {
	e.Abilities[ability] = append(e.Abilities[ability], Grant{Ability: ability, GrantedBy: grantedBy, Using: using})
}

// Forget removes the most recent Grant matching (grantedBy, using) for
// ability. Returns true if one was removed.
func (e *Entity) Forget(ability, grantedBy, using string) bool {
	grants := e.Abilities[ability]
	for i := len(grants) - 1; i >= 0; i-- {
		if grants[i].GrantedBy == grantedBy && grants[i].Using == using {
			e.Abilities[ability] = append(grants[:i], grants[i+1:]...)
			if len(e.Abilities[ability]) == 0 {
				delete(e.Abilities, ability)
			}
			return true
		}
	}
	return false
}

// HasAbility reports whether the entity has any grant for ability.
func (e *Entity) HasAbility(ability string) bool {
	return len(e.Abilities[ability]) > 0
}
