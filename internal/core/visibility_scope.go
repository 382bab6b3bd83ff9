package core

import "github.com/hellsoul/simcore/internal/geom"

// ScopeChange lists chunk keys whose active/inactive status flipped as a
// result of an add_viewer/remove_viewer call.
type ScopeChange struct {
	Added   []string
	Removed []string
}

func (c *ScopeChange) IsEmpty() bool { return c == nil || (len(c.Added) == 0 && len(c.Removed) == 0) }

// Scope is the per (viewer x world) visibility bookkeeping structure: which
// chunks are active (have at least one viewer), and which viewer ids are
// looking at each chunk. Chunk load/unload is reference-counted through
// ChunkViewers: a chunk is active iff its viewer set is non-empty.
type Scope struct {
	ViewerID     string
	WorldID      string
	ViewDistance int

	Active       map[string]struct{}
	ChunkViewers map[string]map[string]struct{}
}

func NewScope(viewerID, worldID string, viewDistance int) *Scope {
	return &Scope{
		ViewerID:     viewerID,
		WorldID:      worldID,
		ViewDistance: viewDistance,
		Active:       map[string]struct{}{},
		ChunkViewers: map[string]map[string]struct{}{},
	}
}

// chebyshevSquare returns every chunk key within ViewDistance chunks of the
// chunk containing center (a tile position), as a Chebyshev square, clamped
// to [min,max] chunk-space bounds when bounded is true.
func (s *Scope) chebyshevSquare(center geom.Vector, bounded bool, min, max geom.Vector) []string {
	centerChunk := center.ToChunkSpace()
	keys := make([]string, 0, (2*s.ViewDistance+1)*(2*s.ViewDistance+1))
	for dx := -s.ViewDistance; dx <= s.ViewDistance; dx++ {
		for dy := -s.ViewDistance; dy <= s.ViewDistance; dy++ {
			c := geom.Vector{X: centerChunk.X + dx, Y: centerChunk.Y + dy}
			if bounded {
				if c.X < min.X || c.X > max.X || c.Y < min.Y || c.Y > max.Y {
					continue
				}
			}
			keys = append(keys, c.ChunkKey())
		}
	}
	return keys
}

func (s *Scope) addToChunk(key, viewerID string, out *ScopeChange) {
	set, ok := s.ChunkViewers[key]
	if !ok {
		set = map[string]struct{}{}
		s.ChunkViewers[key] = set
	}
	wasEmpty := len(set) == 0
	set[viewerID] = struct{}{}
	if wasEmpty {
		s.Active[key] = struct{}{}
		out.Added = append(out.Added, key)
	}
}

func (s *Scope) removeFromChunk(key, viewerID string, out *ScopeChange) {
	set, ok := s.ChunkViewers[key]
	if !ok {
		return
	}
	delete(set, viewerID)
	if len(set) == 0 {
		delete(s.ChunkViewers, key)
		if _, active := s.Active[key]; active {
			delete(s.Active, key)
			out.Removed = append(out.Removed, key)
		}
	}
}

// AddViewer brings viewerID's view onto the Chebyshev square around to,
// optionally also dropping its prior view around from (the square around
// from that falls outside the new square around to). Returns the chunks
// whose active status flipped.
func (s *Scope) AddViewer(viewerID string, to geom.Vector, from *geom.Vector, bounded bool, min, max geom.Vector) *ScopeChange {
	change := &ScopeChange{}
	newKeys := s.chebyshevSquare(to, bounded, min, max)
	newSet := toSet(newKeys)

	if from != nil {
		for _, key := range s.chebyshevSquare(*from, bounded, min, max) {
			if _, stillIn := newSet[key]; !stillIn {
				s.removeFromChunk(key, viewerID, change)
			}
		}
	}
	for _, key := range newKeys {
		s.addToChunk(key, viewerID, change)
	}
	return change
}

// RemoveViewer drops viewerID's view of the Chebyshev square around from,
// optionally keeping the portion that's still covered by a new square
// around to. Returns the chunks whose active status flipped.
func (s *Scope) RemoveViewer(viewerID string, from geom.Vector, to *geom.Vector, bounded bool, min, max geom.Vector) *ScopeChange {
	change := &ScopeChange{}
	oldKeys := s.chebyshevSquare(from, bounded, min, max)

	var keepSet map[string]struct{}
	if to != nil {
		keepSet = toSet(s.chebyshevSquare(*to, bounded, min, max))
	}
	for _, key := range oldKeys {
		if keepSet != nil {
			if _, keep := keepSet[key]; keep {
				continue
			}
		}
		s.removeFromChunk(key, viewerID, change)
	}
	return change
}

func toSet(keys []string) map[string]struct{} {
	out := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		out[k] = struct{}{}
	}
	return out
}

// IsActive reports whether key currently has at least one viewer.
func (s *Scope) IsActive(key string) bool {
	_, ok := s.Active[key]
	return ok
}
