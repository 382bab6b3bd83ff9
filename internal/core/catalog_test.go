package core

import (
	"testing"

	"github.com/hellsoul/simcore/internal/geom"
)

// eyesSensor is a test-only entity-scoped sensor with no remote target
// declared (empty ScopeFor), exercising the local-fallback subscription
// path: it should still end up in its own catalog's subscriber list.
type eyesSensor struct {
	ComponentBase
}

func (s *eyesSensor) Sense(g *Game, a Action) SensoryInformation {
	return SensoryInformation{ComponentID: s.IDValue}
}

func TestLocalFallbackSubscribesToOwnCatalog(t *testing.T) {
	g := NewGame(nil, nil)
	e := NewEntity(g, "e1", "Scout", nil)

	eyes := &eyesSensor{ComponentBase: NewComponentBase("eyes1", e)}
	if err := e.catalog.AddComponent(eyes); err != nil {
		t.Fatal(err)
	}

	subs := e.catalog.Subscribers(RoleSensor)
	if len(subs) != 1 || subs[0].ID() != "eyes1" {
		t.Fatalf("expected local-fallback subscriber, got %v", subs)
	}
}

func TestPublishThenUnpublishRestoresSubscriptions(t *testing.T) {
	g := NewGame(nil, nil)
	w := NewWorld(g, "w1", "World", nil)
	g.AddWorld(w)

	e := NewEntity(g, "e1", "Scout", nil)
	rule := &auraOfProtection{ComponentBase: NewComponentBase("rule1", e), protects: e}
	rule.SetScope(RoleModifier, ScopeWorld)
	if err := e.catalog.AddComponent(rule); err != nil {
		t.Fatal(err)
	}

	// Before publish, e is not published, so wireSubscriptions fell back to
	// e's own catalog.
	if len(w.catalog.Subscribers(RoleModifier)) != 0 {
		t.Fatal("world should have no modifier subscribers before publish")
	}

	e.publish(w, geom.Vector{X: 0, Y: 0})
	if len(w.catalog.Subscribers(RoleModifier)) != 1 {
		t.Fatalf("expected world to gain a modifier subscriber on publish, got %v", w.catalog.Subscribers(RoleModifier))
	}

	e.unpublish()
	if len(w.catalog.Subscribers(RoleModifier)) != 0 {
		t.Fatalf("expected world's modifier subscribers to be dropped on unpublish, got %v", w.catalog.Subscribers(RoleModifier))
	}
}

func TestRemoveComponentDropsSubscriptions(t *testing.T) {
	g := NewGame(nil, nil)
	w := NewWorld(g, "w1", "World", nil)
	e := NewEntity(g, "e1", "Scout", nil)
	e.publish(w, geom.Vector{X: 0, Y: 0})

	rule := &auraOfProtection{ComponentBase: NewComponentBase("rule1", e), protects: e}
	rule.SetScope(RoleModifier, ScopeWorld)
	e.catalog.AddComponent(rule)

	if len(w.catalog.Subscribers(RoleModifier)) != 1 {
		t.Fatal("expected world to have gained the subscriber")
	}
	e.catalog.RemoveComponent(rule)
	if len(w.catalog.Subscribers(RoleModifier)) != 0 {
		t.Fatal("expected world's subscriber to be removed with the component")
	}
	if e.catalog.All() != nil && len(e.catalog.All()) != 0 {
		t.Fatalf("expected component removed from All(), got %v", e.catalog.All())
	}
}
