package core

import (
	"log"

	"github.com/hellsoul/simcore/internal/geom"
)

// TerrainTile is the payload of World's layer 0, the canonical terrain
// layer. Components may stack additional typed layers over it (decoration,
// ownership, etc.) via AddLayer.
type TerrainTile struct {
	Kind string
}

// World is an ordered sequence of layers (layer 0 is canonical terrain) plus
// the published-entity chunk index. It satisfies Container so world-scoped
// components (weather, world rules) can subscribe here.
type World struct {
	IDValue string
	Name    string

	Layers     []*geom.Layer[TerrainTile]
	layerNames map[string]int

	// published holds every entity id currently published in this world.
	published map[string]struct{}

	// chunkIndex maps chunk key -> insertion-ordered set of entity ids whose
	// position resolves to that chunk. An entity appears in exactly one
	// chunk's set while published. Insertion order (not iteration order of a
	// bare map) is what collectListeners relies on for deterministic
	// same-chunk listener visitation.
	chunkIndex map[string]*orderedIDMap[struct{}]
	entityPos  map[string]geom.Vector // last indexed position, by entity id

	catalog *ComponentCatalog
	game    *Game
}

func NewWorld(g *Game, id, name string, logger *log.Logger) *World {
	w := &World{
		IDValue:    id,
		Name:       name,
		layerNames: map[string]int{"terrain": 0},
		published:  map[string]struct{}{},
		chunkIndex: map[string]*orderedIDMap[struct{}]{},
		entityPos:  map[string]geom.Vector{},
		game:       g,
	}
	w.Layers = []*geom.Layer[TerrainTile]{geom.NewLayer(TerrainTile{Kind: "void"})}
	w.catalog = NewComponentCatalog(w, ScopeWorld, logger)
	return w
}

func (w *World) ID() string               { return w.IDValue }
func (w *World) ContainerScope() ScopeTag  { return ScopeWorld }
func (w *World) IsPublished() bool         { return true }
func (w *World) Catalog() *ComponentCatalog { return w.catalog }

func (w *World) GetContainerByScope(scope ScopeTag) (Container, bool) {
	switch scope {
	case ScopeGame:
		if w.game == nil {
			return nil, false
		}
		return w.game, true
	default:
		return nil, false
	}
}

func (w *World) Modify(g *Game, a Action) { w.catalog.fanOutModify(g, a) }
func (w *World) React(g *Game, a Action)  { w.catalog.fanOutReact(g, a) }
func (w *World) Sense(g *Game, a Action) any {
	info, ok := w.catalog.fanOutSense(g, a)
	if !ok {
		return false
	}
	return info
}

// TerrainLayer returns the canonical layer-0 terrain layer.
func (w *World) TerrainLayer() *geom.Layer[TerrainTile] { return w.Layers[0] }

// AddLayer appends a new named layer and returns its index.
func (w *World) AddLayer(name string, fill TerrainTile) int {
	idx := len(w.Layers)
	w.Layers = append(w.Layers, geom.NewLayer(fill))
	w.layerNames[name] = idx
	return idx
}

func (w *World) Layer(name string) (*geom.Layer[TerrainTile], bool) {
	idx, ok := w.layerNames[name]
	if !ok {
		return nil, false
	}
	return w.Layers[idx], true
}

// indexEntity places e into the chunk bucket for its current position,
// replacing any prior bucket membership. Invariant: e is indexed in exactly
// one chunk whose coordinates equal e.Position.ToChunkSpace() while
// published.
func (w *World) indexEntity(e *Entity) {
	w.published[e.IDValue] = struct{}{}
	w.reindex(e.IDValue, e.Position)
}

func (w *World) reindex(entityID string, pos geom.Vector) {
	if old, ok := w.entityPos[entityID]; ok {
		oldKey := old.ToChunkSpace().ChunkKey()
		if bucket, ok := w.chunkIndex[oldKey]; ok {
			bucket.Delete(entityID)
			if bucket.Len() == 0 {
				delete(w.chunkIndex, oldKey)
			}
		}
	}
	key := pos.ToChunkSpace().ChunkKey()
	bucket, ok := w.chunkIndex[key]
	if !ok {
		bucket = newOrderedIDMap[struct{}]()
		w.chunkIndex[key] = bucket
	}
	bucket.Set(entityID, struct{}{})
	w.entityPos[entityID] = pos
}

// unindexEntity removes e from the chunk index and published set entirely.
func (w *World) unindexEntity(e *Entity) {
	delete(w.published, e.IDValue)
	if old, ok := w.entityPos[e.IDValue]; ok {
		oldKey := old.ToChunkSpace().ChunkKey()
		if bucket, ok := w.chunkIndex[oldKey]; ok {
			bucket.Delete(e.IDValue)
			if bucket.Len() == 0 {
				delete(w.chunkIndex, oldKey)
			}
		}
		delete(w.entityPos, e.IDValue)
	}
}

// Move re-indexes e at newPos, whether or not the chunk changed (callers
// check geom.DifferentChunk themselves before deciding to touch Scopes).
func (w *World) Move(e *Entity, newPos geom.Vector) {
	e.Position = newPos
	w.reindex(e.IDValue, newPos)
}

// IsPublishedHere reports whether entityID is currently indexed in this
// world.
func (w *World) IsPublishedHere(entityID string) bool {
	_, ok := w.published[entityID]
	return ok
}

// EntitiesInChunk returns the entity ids indexed in the single chunk at
// chunkSpace, in the order they were published (or last moved) into it.
func (w *World) EntitiesInChunk(chunkSpace geom.Vector) []string {
	bucket, ok := w.chunkIndex[chunkSpace.ChunkKey()]
	if !ok {
		return nil
	}
	return bucket.IDs()
}

// EntitiesWithinChebyshev returns every published entity id whose indexed
// chunk lies within radius chunks (Chebyshev) of center's chunk, scanning
// the (2r+1)^2 candidate chunk keys directly rather than walking the whole
// index. Used for chunk-granularity queries (Scope view distance).
func (w *World) EntitiesWithinChebyshev(center geom.Vector, radius int) []string {
	centerChunk := center.ToChunkSpace()
	var out []string
	for dx := -radius; dx <= radius; dx++ {
		for dy := -radius; dy <= radius; dy++ {
			key := geom.Vector{X: centerChunk.X + dx, Y: centerChunk.Y + dy}.ChunkKey()
			bucket, ok := w.chunkIndex[key]
			if !ok {
				continue
			}
			out = append(out, bucket.IDs()...)
		}
	}
	return out
}

// EntitiesWithinTileRadius returns every published entity id within exact
// Chebyshev tile distance radius of center (the action pipeline's
// listen_distance is in tiles, not chunks). It narrows to the covering
// chunks first, then filters by exact position.
func (w *World) EntitiesWithinTileRadius(center geom.Vector, radius int) []string {
	chunkRadius := radius/geom.ChunkWidth + 1
	var out []string
	for _, id := range w.EntitiesWithinChebyshev(center, chunkRadius) {
		pos, ok := w.entityPos[id]
		if !ok {
			continue
		}
		if geom.WithinChebyshev(center, pos, radius) {
			out = append(out, id)
		}
	}
	return out
}
