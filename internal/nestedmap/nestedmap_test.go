package nestedmap

import "testing"

func TestAddPropagatesToAncestors(t *testing.T) {
	entity := New[string]("sensor1", "owner1", "entity")
	player := New[string]("player1", "owner1", "player")
	team := New[string]("team1", "owner1", "team")

	entity.AddParent(player)
	player.AddParent(team)

	changes := entity.Add("zombie1", "zombie")
	for _, node := range []*Map[string]{entity, player, team} {
		if !node.Contains("zombie1") {
			t.Fatalf("expected node %s to contain zombie1", node.ID)
		}
	}
	for _, scope := range []string{"entity", "player", "team"} {
		if ids := changes.NodeIDs(scope); len(ids) != 1 {
			t.Fatalf("expected exactly one changed node for scope %s, got %v", scope, ids)
		}
	}
}

func TestAddSecondChildDoesNotDoubleReportParent(t *testing.T) {
	sensorA := New[string]("sensorA", "o", "entity")
	sensorB := New[string]("sensorB", "o", "entity")
	player := New[string]("player1", "o", "player")
	sensorA.AddParent(player)
	sensorB.AddParent(player)

	sensorA.Add("z1", "zombie")
	changes := sensorB.Add("z1", "zombie")
	if ids := changes.NodeIDs("player"); len(ids) != 0 {
		t.Fatalf("expected no player-scope change on second add, got %v", ids)
	}
	if !player.Contains("z1") {
		t.Fatalf("expected player to contain z1")
	}
}

func TestRemoveOnlyWhenNoChildStillContains(t *testing.T) {
	sensorA := New[string]("sensorA", "o", "entity")
	sensorB := New[string]("sensorB", "o", "entity")
	player := New[string]("player1", "o", "player")
	sensorA.AddParent(player)
	sensorB.AddParent(player)

	sensorA.Add("z1", "zombie")
	sensorB.Add("z1", "zombie")

	changes := sensorA.Remove("z1")
	if ids := changes.NodeIDs("player"); len(ids) != 0 {
		t.Fatalf("expected no player-level removal while sensorB still holds z1, got %v", ids)
	}
	if !player.Contains("z1") {
		t.Fatalf("expected player to still contain z1 via sensorB")
	}

	changes2 := sensorB.Remove("z1")
	if ids := changes2.NodeIDs("player"); len(ids) != 1 {
		t.Fatalf("expected player-level removal once last child drops z1, got %v", ids)
	}
	if player.Contains("z1") {
		t.Fatalf("expected player to no longer contain z1")
	}
}

func TestAddParentRejectsCycle(t *testing.T) {
	a := New[string]("a", "o", "s")
	b := New[string]("b", "o", "s")
	a.AddParent(b)
	if b.AddParent(a) {
		t.Fatalf("expected cycle-forming AddParent to be rejected")
	}
}
