package geom

import "testing"

func TestToChunkSpace(t *testing.T) {
	cases := []struct {
		in   Vector
		want Vector
	}{
		{Vector{0, 0}, Vector{0, 0}},
		{Vector{15, 15}, Vector{0, 0}},
		{Vector{16, 0}, Vector{1, 0}},
		{Vector{-1, 0}, Vector{-1, 0}},
		{Vector{-16, -16}, Vector{-1, -1}},
		{Vector{-17, 0}, Vector{-2, 0}},
	}
	for _, c := range cases {
		if got := c.in.ToChunkSpace(); got != c.want {
			t.Errorf("ToChunkSpace(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestDifferentChunk(t *testing.T) {
	if DifferentChunk(Vector{0, 0}, Vector{15, 15}) {
		t.Fatalf("expected same chunk")
	}
	if !DifferentChunk(Vector{0, 0}, Vector{16, 0}) {
		t.Fatalf("expected different chunk")
	}
}

func TestChunkOutOfBoundsPanics(t *testing.T) {
	c := NewChunk(0)
	cases := [][2]int{{-1, 0}, {16, 0}, {0, -1}, {0, 16}}
	for _, rc := range cases {
		func() {
			defer func() {
				r := recover()
				if r == nil {
					t.Fatalf("expected panic for (%d,%d)", rc[0], rc[1])
				}
				if _, ok := r.(*InvariantViolation); !ok {
					t.Fatalf("expected *InvariantViolation, got %T", r)
				}
			}()
			c.Get(rc[0], rc[1])
		}()
	}
}

func TestLayerUnsetTileReadsFill(t *testing.T) {
	l := NewLayer(7)
	if got := l.GetTile(Vector{100, 100}); got != 7 {
		t.Fatalf("expected fill value 7, got %d", got)
	}
	l.SetTile(Vector{100, 100}, 9)
	if got := l.GetTile(Vector{100, 100}); got != 9 {
		t.Fatalf("expected 9 after SetTile, got %d", got)
	}
	// Neighbouring tile in a different chunk remains unset.
	if got := l.GetTile(Vector{116, 100}); got != 7 {
		t.Fatalf("expected neighbouring chunk tile to stay at fill, got %d", got)
	}
}

func TestChebyshevSquare(t *testing.T) {
	center := Vector{0, 0}
	if !WithinChebyshev(center, Vector{6, 6}, 6) {
		t.Fatalf("expected (6,6) within radius 6")
	}
	if WithinChebyshev(center, Vector{7, 0}, 6) {
		t.Fatalf("expected (7,0) outside radius 6")
	}
}
