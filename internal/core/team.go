package core

import (
	"log"

	"github.com/hellsoul/simcore/internal/nestedmap"
)

// Team aggregates players. Its sensed-entities rollup is the parent node of
// each member player's rollup (via the NestedMap parent edge), so anything
// any member senses is visible at the team level too.
type Team struct {
	IDValue string
	Name    string
	Members map[string]struct{} // player ids

	SensedEntitiesMap *nestedmap.Map[*Entity]
	Scopes            map[string]*Scope // world id -> Scope, used when perception_grouping == team

	catalog *ComponentCatalog
	game    *Game
}

func NewTeam(g *Game, id, name string, logger *log.Logger) *Team {
	t := &Team{
		IDValue: id,
		Name:    name,
		Members: map[string]struct{}{},
		Scopes:  map[string]*Scope{},
		game:    g,
	}
	t.SensedEntitiesMap = nestedmap.New[*Entity]("sensed:"+id, id, string(ScopeTeam))
	t.catalog = NewComponentCatalog(t, ScopeTeam, logger)
	return t
}

func (t *Team) ID() string                { return t.IDValue }
func (t *Team) ContainerScope() ScopeTag  { return ScopeTeam }
func (t *Team) IsPublished() bool         { return true }
func (t *Team) Catalog() *ComponentCatalog { return t.catalog }

func (t *Team) GetContainerByScope(scope ScopeTag) (Container, bool) {
	switch scope {
	case ScopeGame:
		if t.game == nil {
			return nil, false
		}
		return t.game, true
	default:
		return nil, false
	}
}

func (t *Team) Modify(g *Game, a Action) { t.catalog.fanOutModify(g, a) }
func (t *Team) React(g *Game, a Action)  { t.catalog.fanOutReact(g, a) }
func (t *Team) Sense(g *Game, a Action) any {
	info, ok := t.catalog.fanOutSense(g, a)
	if !ok {
		return false
	}
	return info
}

func (t *Team) SensedEntities() *nestedmap.Map[*Entity] { return t.SensedEntitiesMap }

// AddPlayer wires player into the team, rolling up its sensed entities.
func (t *Team) AddPlayer(p *Player) {
	t.Members[p.IDValue] = struct{}{}
	p.Team = t
	p.SensedEntitiesMap.AddParent(t.SensedEntitiesMap)
}

func (t *Team) ScopeFor(worldID string, viewDistance int) *Scope {
	s, ok := t.Scopes[worldID]
	if !ok {
		s = NewScope(t.IDValue, worldID, viewDistance)
		t.Scopes[worldID] = s
	}
	return s
}
