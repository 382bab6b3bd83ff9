package core

import (
	"testing"

	"github.com/hellsoul/simcore/internal/geom"
)

func TestScopeViewDistanceZeroIsSingleChunk(t *testing.T) {
	s := NewScope("v1", "w1", 0)
	change := s.AddViewer("v1", geom.Vector{X: 0, Y: 0}, nil, false, geom.Vector{}, geom.Vector{})
	if len(change.Added) != 1 || change.Added[0] != "0,0" {
		t.Fatalf("Added = %v, want exactly [\"0,0\"]", change.Added)
	}
	if !s.IsActive("0,0") {
		t.Fatal("expected chunk 0,0 active")
	}
}

func TestScopeAddThenRemoveViewerRestoresChunkViewers(t *testing.T) {
	s := NewScope("v1", "w1", 1)
	s.AddViewer("v1", geom.Vector{X: 0, Y: 0}, nil, false, geom.Vector{}, geom.Vector{})
	s.RemoveViewer("v1", geom.Vector{X: 0, Y: 0}, nil, false, geom.Vector{}, geom.Vector{})

	if len(s.ChunkViewers) != 0 {
		t.Fatalf("expected chunk_viewers fully restored empty, got %v", s.ChunkViewers)
	}
	if len(s.Active) != 0 {
		t.Fatalf("expected no active chunks left, got %v", s.Active)
	}
}

func TestScopeMoveOnlyFlipsEnteringAndLeavingChunks(t *testing.T) {
	s := NewScope("v1", "w1", 0)
	from := geom.Vector{X: 0, Y: 0}
	to := geom.Vector{X: 16, Y: 0} // one chunk over
	s.AddViewer("v1", from, nil, false, geom.Vector{}, geom.Vector{})

	change := s.AddViewer("v1", to, &from, false, geom.Vector{}, geom.Vector{})
	if len(change.Added) != 1 || change.Added[0] != "1,0" {
		t.Fatalf("Added = %v, want exactly [\"1,0\"]", change.Added)
	}
	if len(change.Removed) != 1 || change.Removed[0] != "0,0" {
		t.Fatalf("Removed = %v, want exactly [\"0,0\"]", change.Removed)
	}
}

func TestMultipleViewersKeepChunkActiveUntilLastLeaves(t *testing.T) {
	s := NewScope("v", "w1", 0)
	s.AddViewer("a", geom.Vector{X: 0, Y: 0}, nil, false, geom.Vector{}, geom.Vector{})
	change := s.AddViewer("b", geom.Vector{X: 0, Y: 0}, nil, false, geom.Vector{}, geom.Vector{})
	if len(change.Added) != 0 {
		t.Fatalf("expected no flip on second viewer entering an already-active chunk, got %v", change.Added)
	}

	change = s.RemoveViewer("a", geom.Vector{X: 0, Y: 0}, nil, false, geom.Vector{}, geom.Vector{})
	if len(change.Removed) != 0 {
		t.Fatalf("expected chunk to stay active while viewer b remains, got %v", change.Removed)
	}
	change = s.RemoveViewer("b", geom.Vector{X: 0, Y: 0}, nil, false, geom.Vector{}, geom.Vector{})
	if len(change.Removed) != 1 {
		t.Fatalf("expected chunk to flip inactive once last viewer leaves, got %v", change.Removed)
	}
}
