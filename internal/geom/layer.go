package geom

// Layer is a sparse mapping from chunk key to Chunk[T], with a default fill
// value used for tiles in chunks that don't exist yet. A missing chunk
// yields the fill value for GetTile ("unset"), never a panic.
type Layer[T any] struct {
	fill   T
	chunks map[string]*Chunk[T]
}

// NewLayer returns an empty layer whose unset tiles read as fill.
func NewLayer[T any](fill T) *Layer[T] {
	return &Layer[T]{fill: fill, chunks: map[string]*Chunk[T]{}}
}

// absToChunkRel splits an absolute tile coordinate into its chunk-space
// coordinate and the coordinate relative to that chunk's origin.
func absToChunkRel(v Vector) (chunk Vector, rel Vector) {
	chunk = v.ToChunkSpace()
	rx := v.X - chunk.X*ChunkWidth
	ry := v.Y - chunk.Y*ChunkWidth
	return chunk, Vector{X: rx, Y: ry}
}

// GetTile returns the tile at absolute position pos, or the layer's fill
// value if its chunk has never been written to.
func (l *Layer[T]) GetTile(pos Vector) T {
	chunk, rel := absToChunkRel(pos)
	c, ok := l.chunks[chunk.ChunkKey()]
	if !ok {
		return l.fill
	}
	return c.Get(rel.X, rel.Y)
}

// SetTile writes v at absolute position pos, allocating its chunk (filled
// with the layer default) on first write.
func (l *Layer[T]) SetTile(pos Vector, v T) {
	chunk, rel := absToChunkRel(pos)
	key := chunk.ChunkKey()
	c, ok := l.chunks[key]
	if !ok {
		c = NewChunk(l.fill)
		l.chunks[key] = c
	}
	c.Set(rel.X, rel.Y, v)
}

// Chunk returns the chunk at chunk-space coordinates key, and whether it has
// been allocated.
func (l *Layer[T]) Chunk(chunkSpace Vector) (*Chunk[T], bool) {
	c, ok := l.chunks[chunkSpace.ChunkKey()]
	return c, ok
}

// EnsureChunk allocates (if absent) and returns the chunk at chunkSpace.
func (l *Layer[T]) EnsureChunk(chunkSpace Vector) *Chunk[T] {
	key := chunkSpace.ChunkKey()
	c, ok := l.chunks[key]
	if !ok {
		c = NewChunk(l.fill)
		l.chunks[key] = c
	}
	return c
}

// ChunkKeys returns every allocated chunk key, for iteration in tests and
// snapshot export.
func (l *Layer[T]) ChunkKeys() []string {
	out := make([]string, 0, len(l.chunks))
	for k := range l.chunks {
		out = append(out, k)
	}
	return out
}
