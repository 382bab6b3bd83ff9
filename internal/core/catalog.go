package core

import (
	"fmt"
	"log"
)

// Subscription is our component listening elsewhere: a non-owning
// back-reference naming which remote container and role the owning
// catalog's component has been wired into.
type Subscription struct {
	Component Component
	To        Container
	Role      Role
	Scope     ScopeTag
}

// ComponentCatalog is the per-container subscription graph node: it owns
// the container's components, tracks who (externally) listens to this
// container per role, and tracks where this container's own components
// listen elsewhere.
type ComponentCatalog struct {
	Owner       Container
	ParentScope ScopeTag

	all *orderedIDMap[Component]

	// subscribers[role] is external components listening to this container.
	subscribers map[Role]*orderedIDMap[Component]

	// subscriptions[scope] is our components listening at that scope,
	// keyed by component id. A component attached via the local-fallback
	// path (declared scope invalid, or parent unpublished) is recorded here
	// under ParentScope with To == Owner, so the catalog invariant ("every
	// subscriptions entry has a matching subscribers entry on To") holds
	// uniformly whether the subscription is local or remote.
	subscriptions map[ScopeTag]map[string]*Subscription

	logger *log.Logger
}

// NewComponentCatalog constructs a catalog for a freshly created container.
// parentScope is derived once, at construction, from the container variant.
func NewComponentCatalog(owner Container, parentScope ScopeTag, logger *log.Logger) *ComponentCatalog {
	subs := map[Role]*orderedIDMap[Component]{}
	for _, r := range activeRoles {
		subs[r] = newOrderedIDMap[Component]()
	}
	subs[RoleRoller] = newOrderedIDMap[Component]() // reserved, never populated
	return &ComponentCatalog{
		Owner:         owner,
		ParentScope:   parentScope,
		all:           newOrderedIDMap[Component](),
		subscribers:   subs,
		subscriptions: map[ScopeTag]map[string]*Subscription{},
		logger:        logger,
	}
}

// All returns every attached component in insertion order.
func (cat *ComponentCatalog) All() []Component { return cat.all.Values() }

// Subscribers returns every external component subscribed to this
// container for role, in insertion order.
func (cat *ComponentCatalog) Subscribers(role Role) []Component {
	return cat.subscribers[role].Values()
}

// AddComponent inserts c and wires its declared subscriptions. Returns an
// error if a component with the same id is already attached.
func (cat *ComponentCatalog) AddComponent(c Component) error {
	if cat.all.Has(c.ID()) {
		return fmt.Errorf("component %s already attached", c.ID())
	}
	cat.all.Set(c.ID(), c)
	cat.wireSubscriptions(c)
	return nil
}

// RemoveComponent detaches c, asking every remote container it subscribed
// to (including itself, for local-fallback subscriptions) to drop it from
// the matching subscribers map.
func (cat *ComponentCatalog) RemoveComponent(c Component) {
	cat.dropSubscriptions(c.ID())
	cat.all.Delete(c.ID())
}

func (cat *ComponentCatalog) dropSubscriptions(componentID string) {
	for scope, byComponent := range cat.subscriptions {
		sub, ok := byComponent[componentID]
		if !ok {
			continue
		}
		sub.To.Catalog().removeSubscriber(sub.Role, componentID)
		delete(byComponent, componentID)
		if len(byComponent) == 0 {
			delete(cat.subscriptions, scope)
		}
	}
}

func (cat *ComponentCatalog) wireSubscriptions(c Component) {
	for _, role := range activeRoles {
		if !roleImplemented(c, role) {
			continue
		}
		target := c.ScopeFor(role)
		var (
			remote Container
			scope  ScopeTag
			ok     bool
		)
		if target != "" && isValidTarget(cat.ParentScope, target) && cat.Owner.IsPublished() {
			remote, ok = cat.Owner.GetContainerByScope(target)
		}
		if !ok || remote == nil {
			// Local fallback: subscribe to our own catalog under our own
			// scope, so a local-only sensor still fires.
			remote = cat.Owner
			scope = cat.ParentScope
		} else {
			scope = target
		}
		remote.Catalog().addSubscriber(role, c)
		cat.recordSubscription(scope, &Subscription{Component: c, To: remote, Role: role, Scope: scope})
	}
}

func (cat *ComponentCatalog) recordSubscription(scope ScopeTag, sub *Subscription) {
	byComponent, ok := cat.subscriptions[scope]
	if !ok {
		byComponent = map[string]*Subscription{}
		cat.subscriptions[scope] = byComponent
	}
	byComponent[sub.Component.ID()] = sub
}

func (cat *ComponentCatalog) addSubscriber(role Role, c Component) {
	cat.subscribers[role].Set(c.ID(), c)
}

func (cat *ComponentCatalog) removeSubscriber(role Role, componentID string) {
	cat.subscribers[role].Delete(componentID)
}

// SubscribeToAll clears every outgoing subscription this catalog's
// components hold and rebuilds them — used when the parent transitions to
// published.
func (cat *ComponentCatalog) SubscribeToAll() {
	cat.UnsubscribeFromAll()
	cat.all.Each(func(_ string, c Component) {
		cat.wireSubscriptions(c)
	})
}

// UnsubscribeFromAll drops every outgoing subscription without removing
// components from All() — used on unpublish.
func (cat *ComponentCatalog) UnsubscribeFromAll() {
	cat.all.Each(func(id string, _ Component) {
		cat.dropSubscriptions(id)
	})
}

// Unload symmetrically removes every subscription (both directions, via
// RemoveComponent) and clears All(). The source left this a stub; per the
// spec's resolution of that open question, this is the exact behavior.
func (cat *ComponentCatalog) Unload() {
	for _, c := range cat.all.Values() {
		cat.RemoveComponent(c)
	}
}

// fanOutModify calls Modify on every subscribed modifier, in insertion
// order, logging and continuing past a panicking component so one rogue
// behavior can't crash the tick (spec §7).
func (cat *ComponentCatalog) fanOutModify(g *Game, a Action) {
	for _, c := range cat.subscribers[RoleModifier].Values() {
		m, ok := isModifier(c)
		if !ok {
			continue
		}
		cat.safely(c.ID(), "modify", func() { m.Modify(g, a) })
	}
}

func (cat *ComponentCatalog) fanOutReact(g *Game, a Action) {
	for _, c := range cat.subscribers[RoleReacter].Values() {
		r, ok := isReacter(c)
		if !ok {
			continue
		}
		cat.safely(c.ID(), "react", func() { r.React(g, a) })
	}
}

// fanOutSense aggregates every sensor subscriber's report. If this
// container has no sensor subscribers it returns (nil, false) so the
// pipeline can fall back to recording a plain bool.
func (cat *ComponentCatalog) fanOutSense(g *Game, a Action) (map[string]SensoryInformation, bool) {
	sensors := cat.subscribers[RoleSensor]
	if sensors.Len() == 0 {
		return nil, false
	}
	out := map[string]SensoryInformation{}
	for _, c := range sensors.Values() {
		s, ok := isSensor(c)
		if !ok {
			continue
		}
		cat.safely(c.ID(), "sense", func() {
			out[c.ID()] = s.Sense(g, a)
		})
	}
	return out, true
}

func (cat *ComponentCatalog) safely(componentID, phase string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			if cat.logger != nil {
				cat.logger.Printf("component %s panicked during %s: %v", componentID, phase, r)
			}
		}
	}()
	fn()
}
