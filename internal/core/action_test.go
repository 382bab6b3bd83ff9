package core

import (
	"testing"

	"github.com/hellsoul/simcore/internal/geom"
	"github.com/hellsoul/simcore/internal/property"
)

// auraOfProtection is a test-only world-scoped modifier component: it
// denies any attack-tagged action targeting the entity it protects,
// mirroring the spec's "Aura modifier" end-to-end scenario.
type auraOfProtection struct {
	ComponentBase
	protects *Entity
}

func (a *auraOfProtection) Modify(g *Game, action Action) {
	if action.Target() == a.protects && action.HasTag("attack") {
		action.Deny(5, a.IDValue, "", "protected")
	}
}

func TestPaladinHealsSelf(t *testing.T) {
	g := NewGame(nil, nil)
	w := NewWorld(g, "w1", "World", nil)
	g.AddWorld(w)
	p := NewPlayer("p1", "Hero", nil)
	g.AddPlayer(p)

	paladin := NewEntity(g, "paladin", "Paladin", nil)
	paladin.Properties["HP"] = property.New("paladin", "HP", 10, 0, 20)
	g.AddEntity(paladin)
	p.ownEntity(paladin)
	paladin.publish(w, geom.Vector{X: 0, Y: 0})

	heal := NewPropertyAdjustmentAction(paladin, paladin, "HP", 5)
	Execute(g, heal, false)

	if got := paladin.Properties["HP"].Current; got != 15 {
		t.Fatalf("HP = %v, want 15", got)
	}
	if len(p.Outbox) != 1 {
		t.Fatalf("outbox len = %d, want exactly 1 broadcast entry", len(p.Outbox))
	}
}

func TestAuraDeniesAttack(t *testing.T) {
	g := NewGame(nil, nil)
	w := NewWorld(g, "w1", "World", nil)
	g.AddWorld(w)

	paladin := NewEntity(g, "paladin", "Paladin", nil)
	paladin.Properties["HP"] = property.New("paladin", "HP", 10, 0, 20)
	g.AddEntity(paladin)
	paladin.publish(w, geom.Vector{X: 0, Y: 0})

	aura := &auraOfProtection{ComponentBase: NewComponentBase("aura1", paladin), protects: paladin}
	aura.SetScope(RoleModifier, ScopeWorld)
	if err := paladin.catalog.AddComponent(aura); err != nil {
		t.Fatal(err)
	}

	zombie := NewEntity(g, "zombie", "Zombie", nil)
	g.AddEntity(zombie)
	zombie.publish(w, geom.Vector{X: 1, Y: 1})

	attack := NewPropertyAdjustmentAction(zombie, paladin, "HP", -5)
	attack.AddTag("attack")
	Execute(g, attack, false)

	if attack.Permitted() {
		t.Fatal("expected attack to be denied by the aura")
	}
	if d := attack.DecidingPermission(); d == nil || d.Message != "protected" {
		t.Fatalf("deciding permission = %#v, want message 'protected'", d)
	}
	if got := paladin.Properties["HP"].Current; got != 10 {
		t.Fatalf("HP = %v, want unchanged 10", got)
	}
}

func TestEqualPriorityDenyAfterAllowSticks(t *testing.T) {
	a := NewActionBase(nil, nil)
	a.Permit(5, "x", "", "ok")
	a.Deny(5, "y", "", "blocked")
	a.decidePermission()
	if a.Permitted() {
		t.Fatal("expected deny recorded after allow at equal priority to win")
	}
}

func TestEqualPriorityAllowAfterDenyDoesNotStick(t *testing.T) {
	a := NewActionBase(nil, nil)
	a.Deny(5, "x", "", "blocked")
	a.Permit(5, "y", "", "ok")
	a.decidePermission()
	if a.Permitted() {
		t.Fatal("expected deny to remain sticky even after a later allow at equal priority")
	}
}

func TestHigherPriorityOverrides(t *testing.T) {
	a := NewActionBase(nil, nil)
	a.Deny(4, "x", "", "blocked")
	a.Permit(5, "y", "", "ok")
	a.decidePermission()
	if !a.Permitted() {
		t.Fatal("expected higher-priority permit to override lower-priority deny")
	}

	b := NewActionBase(nil, nil)
	b.Permit(4, "x", "", "ok")
	b.Deny(5, "y", "", "blocked")
	b.decidePermission()
	if b.Permitted() {
		t.Fatal("expected higher-priority deny to override lower-priority permit")
	}
}

func TestEquipBlockedByMissingSlot(t *testing.T) {
	g := NewGame(nil, nil)
	entity := NewEntity(g, "e1", "Entity", nil)
	sword := NewEntity(g, "sword", "Sword", nil)
	g.AddEntity(entity)
	g.AddEntity(sword)

	act := NewEquipItemAction(entity, entity, sword, "R. Hand")
	applied := Execute(g, act, false)

	if applied {
		t.Fatal("expected equip to fail: entity has no R. Hand slot")
	}
	if !act.Permitted() {
		t.Fatal("expected permitted to remain true even though apply failed")
	}
}

func TestOwnEntityTriggersPublishMessage(t *testing.T) {
	g := NewGame(nil, nil)
	w := NewWorld(g, "w1", "World", nil)
	g.AddWorld(w)
	p := NewPlayer("p1", "Hero", nil)
	g.AddPlayer(p)

	item := NewEntity(g, "item1", "Item", nil)
	g.AddEntity(item)
	item.publish(w, geom.Vector{})

	act := NewOwnEntityAction(nil, item, p)
	Execute(g, act, false)

	found := false
	for _, msg := range p.Outbox {
		if msg.Kind == "publish" && msg.EntityID == "item1" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a publish message in owner's outbox, got %#v", p.Outbox)
	}
}

func TestNestedDepthCapStopsRecursion(t *testing.T) {
	g := NewGame(nil, nil)
	entity := NewEntity(g, "e1", "Entity", nil)
	g.AddEntity(entity)

	maxDepth := 0
	var makeAction func() *CustomAction
	makeAction = func() *CustomAction {
		a := NewCustomAction(entity, entity, "loop", nil)
		a.ApplyFn = func(g *Game, self *CustomAction) bool {
			if self.Nested() > maxDepth {
				maxDepth = self.Nested()
			}
			g.Chain(self, makeAction())
			return true
		}
		return a
	}

	Execute(g, makeAction(), true)

	if maxDepth != g.Config.NestedDepthCap {
		t.Fatalf("recursion reached depth %d, want exactly the cap %d", maxDepth, g.Config.NestedDepthCap)
	}
}
