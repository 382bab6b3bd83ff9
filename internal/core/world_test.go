package core

import (
	"testing"

	"github.com/hellsoul/simcore/internal/geom"
)

func TestWorldIndexesEntityInExactlyOneChunk(t *testing.T) {
	g := NewGame(nil, nil)
	w := NewWorld(g, "w1", "World", nil)
	e := NewEntity(g, "e1", "Entity", nil)

	e.publish(w, geom.Vector{X: 5, Y: 5})
	if got := w.EntitiesInChunk(geom.Vector{X: 0, Y: 0}); len(got) != 1 || got[0] != "e1" {
		t.Fatalf("chunk (0,0) = %v, want [e1]", got)
	}

	w.Move(e, geom.Vector{X: 20, Y: 5})
	if got := w.EntitiesInChunk(geom.Vector{X: 0, Y: 0}); len(got) != 0 {
		t.Fatalf("old chunk still holds entity: %v", got)
	}
	if got := w.EntitiesInChunk(geom.Vector{X: 1, Y: 0}); len(got) != 1 || got[0] != "e1" {
		t.Fatalf("new chunk (1,0) = %v, want [e1]", got)
	}
}

func TestWorldUnindexRemovesEntity(t *testing.T) {
	g := NewGame(nil, nil)
	w := NewWorld(g, "w1", "World", nil)
	e := NewEntity(g, "e1", "Entity", nil)
	e.publish(w, geom.Vector{X: 0, Y: 0})

	e.unpublish()

	if w.IsPublishedHere("e1") {
		t.Fatal("expected entity to be unindexed after unpublish")
	}
	if got := w.EntitiesInChunk(geom.Vector{X: 0, Y: 0}); len(got) != 0 {
		t.Fatalf("expected empty chunk after unpublish, got %v", got)
	}
}

func TestEntitiesWithinTileRadius(t *testing.T) {
	g := NewGame(nil, nil)
	w := NewWorld(g, "w1", "World", nil)
	scout := NewEntity(g, "scout", "Scout", nil)
	zombie := NewEntity(g, "zombie", "Zombie", nil)
	scout.publish(w, geom.Vector{X: 0, Y: 0})
	zombie.publish(w, geom.Vector{X: 10, Y: 10})

	near := w.EntitiesWithinTileRadius(geom.Vector{X: 0, Y: 0}, 6)
	if containsID(near, "zombie") {
		t.Fatal("zombie at distance 10 should be out of a radius-6 query")
	}

	far := w.EntitiesWithinTileRadius(geom.Vector{X: 0, Y: 0}, 10)
	if !containsID(far, "zombie") {
		t.Fatal("zombie at distance 10 should be within a radius-10 query")
	}
}

func containsID(ids []string, target string) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}
