package core

import (
	"testing"

	"github.com/hellsoul/simcore/internal/config"
	"github.com/hellsoul/simcore/internal/geom"
	"github.com/hellsoul/simcore/internal/property"
)

// TestTeamSenseBroadcastsToTeammates exercises spec section 4.6 step 4 under
// PerceptionGrouping == team: a teammate who has never individually sensed
// the target still receives a sense-gated broadcast once the team's rollup
// senses it through another member.
func TestTeamSenseBroadcastsToTeammates(t *testing.T) {
	cfg := config.Default()
	cfg.PerceptionGrouping = config.PerceptionTeam
	g := NewGame(cfg, nil)
	w := NewWorld(g, "w1", "World", nil)
	g.AddWorld(w)

	team := NewTeam(g, "t1", "Squad", nil)
	g.AddTeam(team)

	scout := NewPlayer("p1", "Scout", nil)
	support := NewPlayer("p2", "Support", nil)
	g.AddPlayer(scout)
	g.AddPlayer(support)
	team.AddPlayer(scout)
	team.AddPlayer(support)

	zombie := NewEntity(g, "zombie", "Zombie", nil)
	zombie.Properties["HP"] = property.New("zombie", "HP", 10, 0, 20)
	g.AddEntity(zombie)
	scout.ownEntity(zombie)
	zombie.publish(w, geom.Vector{X: 0, Y: 0})

	hit := NewPropertyAdjustmentAction(zombie, zombie, "HP", -3)
	Execute(g, hit, false)

	if len(support.Outbox) == 0 {
		t.Fatal("expected teammate with no direct sense of the entity to receive the broadcast via the team rollup")
	}
}

// TestPlayerGroupingDoesNotLeakAcrossTeam is the counterpart: under the
// default player grouping, a teammate who doesn't individually sense the
// entity receives nothing, even though the team rollup does.
func TestPlayerGroupingDoesNotLeakAcrossTeam(t *testing.T) {
	g := NewGame(nil, nil)
	w := NewWorld(g, "w1", "World", nil)
	g.AddWorld(w)

	team := NewTeam(g, "t1", "Squad", nil)
	g.AddTeam(team)

	scout := NewPlayer("p1", "Scout", nil)
	support := NewPlayer("p2", "Support", nil)
	g.AddPlayer(scout)
	g.AddPlayer(support)
	team.AddPlayer(scout)
	team.AddPlayer(support)

	zombie := NewEntity(g, "zombie", "Zombie", nil)
	zombie.Properties["HP"] = property.New("zombie", "HP", 10, 0, 20)
	g.AddEntity(zombie)
	scout.ownEntity(zombie)
	zombie.publish(w, geom.Vector{X: 0, Y: 0})

	hit := NewPropertyAdjustmentAction(zombie, zombie, "HP", -3)
	Execute(g, hit, false)

	if len(support.Outbox) != 0 {
		t.Fatalf("expected no broadcast to a teammate under player grouping, got %#v", support.Outbox)
	}
}
