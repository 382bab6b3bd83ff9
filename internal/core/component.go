package core

import "github.com/hellsoul/simcore/internal/nestedmap"

// Component is a pluggable behavior attached to exactly one container at
// construction. Which roles it plays (sensor, modifier, reacter) is
// determined by which of the Sensor/Modifier/Reacter interfaces below its
// concrete type satisfies — Go interface satisfaction standing in for the
// source's duck-typed is_sensor/is_modifier/is_reacter capability flags, per
// the design note's guidance to avoid hierarchical inheritance.
type Component interface {
	ID() string
	Parent() Container
	// ScopeFor reports the scope this component wants to listen at for the
	// given role. An empty ScopeTag means it does not declare a target for
	// that role (irrelevant unless the component also implements the
	// matching role interface).
	ScopeFor(role Role) ScopeTag
	// Broadcast reports whether this component should be included when its
	// parent entity is serialized for a client (§6 serialize boundary).
	Broadcast() bool
}

// SensoryInformation is what a sensor component reports back for an action.
// Components are free to leave Data nil and rely solely on ComponentID.
type SensoryInformation struct {
	ComponentID string
	Data        map[string]any
}

// Sensor components observe an action and report SensoryInformation without
// being able to veto or mutate it.
type Sensor interface {
	Component
	Sense(g *Game, a Action) SensoryInformation
}

// Modifier components may mutate an action's parameters and cast permission
// votes (Permit/Deny) or counter it with another action.
type Modifier interface {
	Component
	Modify(g *Game, a Action)
}

// Reacter components run after an action has resolved (and, if permitted,
// applied), and may enqueue follow-up or counter actions.
type Reacter interface {
	Component
	React(g *Game, a Action)
}

// EntitySensor is implemented by sensor components that maintain their own
// rollup of currently-perceived entities, rather than purely transient
// SensoryInformation. AttachComponentAction wires a freshly attached one's
// rollup as a child of its parent container's sensed_entities NestedMap.
type EntitySensor interface {
	Sensor
	SensedEntities() *nestedmap.Map[*Entity]
}

// ComponentBase is embedded by concrete components to satisfy the base
// Component interface; concrete types add Sense/Modify/React methods to
// opt into the matching role.
type ComponentBase struct {
	IDValue  string
	ParentC  Container
	Scopes   map[Role]ScopeTag
	Broadcastable bool
}

func NewComponentBase(id string, parent Container) ComponentBase {
	return ComponentBase{IDValue: id, ParentC: parent, Scopes: map[Role]ScopeTag{}}
}

func (c *ComponentBase) ID() string          { return c.IDValue }
func (c *ComponentBase) Parent() Container    { return c.ParentC }
func (c *ComponentBase) Broadcast() bool      { return c.Broadcastable }
func (c *ComponentBase) ScopeFor(r Role) ScopeTag { return c.Scopes[r] }

// SetScope declares the target scope this component wants to listen at for
// role r.
func (c *ComponentBase) SetScope(r Role, scope ScopeTag) {
	c.Scopes[r] = scope
}

func isSensor(c Component) (Sensor, bool)     { s, ok := c.(Sensor); return s, ok }
func isModifier(c Component) (Modifier, bool) { m, ok := c.(Modifier); return m, ok }
func isReacter(c Component) (Reacter, bool)   { r, ok := c.(Reacter); return r, ok }

func roleImplemented(c Component, role Role) bool {
	switch role {
	case RoleSensor:
		_, ok := isSensor(c)
		return ok
	case RoleModifier:
		_, ok := isModifier(c)
		return ok
	case RoleReacter:
		_, ok := isReacter(c)
		return ok
	default:
		return false
	}
}
