// Package nestedmap implements the rollup tree used for sensed-entity sets:
// a node's contents are the union of its own local entries and everything
// its descendants contain, with incremental add/remove reporting so callers
// can react only to the nodes whose membership actually flipped.
package nestedmap

// Changes records every node at which an id became newly present (Record via
// Add) or newly absent (Record via Remove), keyed by scope then node id.
type Changes struct {
	// Entries maps scope -> node id -> set of ids that changed at that node.
	Entries map[string]map[string]map[string]struct{}
}

// NewChanges returns an empty Changes record.
func NewChanges() *Changes {
	return &Changes{Entries: map[string]map[string]map[string]struct{}{}}
}

func (c *Changes) record(scope, nodeID, id string) {
	byNode, ok := c.Entries[scope]
	if !ok {
		byNode = map[string]map[string]struct{}{}
		c.Entries[scope] = byNode
	}
	set, ok := byNode[nodeID]
	if !ok {
		set = map[string]struct{}{}
		byNode[nodeID] = set
	}
	set[id] = struct{}{}
}

// IsEmpty reports whether no node changed.
func (c *Changes) IsEmpty() bool {
	return c == nil || len(c.Entries) == 0
}

// NodeIDs returns every node id that changed within scope.
func (c *Changes) NodeIDs(scope string) []string {
	byNode, ok := c.Entries[scope]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(byNode))
	for id := range byNode {
		out = append(out, id)
	}
	return out
}

// IDsAt returns the set of changed ids at the given scope/node.
func (c *Changes) IDsAt(scope, nodeID string) map[string]struct{} {
	byNode, ok := c.Entries[scope]
	if !ok {
		return nil
	}
	return byNode[nodeID]
}

// Merge folds other's entries into c.
func (c *Changes) Merge(other *Changes) {
	if other == nil {
		return
	}
	for scope, byNode := range other.Entries {
		for nodeID, ids := range byNode {
			for id := range ids {
				c.record(scope, nodeID, id)
			}
		}
	}
}

// Map is a rollup tree node holding a local set of values plus edges to
// parent/child nodes. A node contains id iff its local map contains id or
// any descendant does (spec invariant).
type Map[V any] struct {
	ID    string
	Owner string
	Scope string

	local map[string]V
	// childPresent[id] is the set of child node ids currently reporting that
	// they (transitively) contain id.
	childPresent map[string]map[string]struct{}

	parents  map[string]*Map[V]
	children map[string]*Map[V]
}

// New returns an empty, unparented node.
func New[V any](id, owner, scope string) *Map[V] {
	return &Map[V]{
		ID:           id,
		Owner:        owner,
		Scope:        scope,
		local:        map[string]V{},
		childPresent: map[string]map[string]struct{}{},
		parents:      map[string]*Map[V]{},
		children:     map[string]*Map[V]{},
	}
}

// Contains reports whether id is present locally or via any descendant.
func (m *Map[V]) Contains(id string) bool {
	if _, ok := m.local[id]; ok {
		return true
	}
	return len(m.childPresent[id]) > 0
}

// Get returns the locally stored value for id, if this node holds it
// directly (not via rollup).
func (m *Map[V]) Get(id string) (V, bool) {
	v, ok := m.local[id]
	return v, ok
}

// AddParent wires m as a child of parent, rejecting an edge that would
// create a cycle.
func (m *Map[V]) AddParent(parent *Map[V]) bool {
	if parent == nil || parent == m {
		return false
	}
	if m.reaches(parent) {
		return false
	}
	m.parents[parent.ID] = parent
	parent.children[m.ID] = m
	// Re-propagate m's current contents into the newly attached parent and,
	// where the parent's containment flips, on up through its ancestors.
	for id := range m.local {
		parent.onChildGained(id, m.ID)
		parent.collectGain(id, NewChanges())
	}
	for id := range m.childPresent {
		if len(m.childPresent[id]) > 0 {
			parent.onChildGained(id, m.ID)
			parent.collectGain(id, NewChanges())
		}
	}
	return true
}

// reaches reports whether target is reachable from m by following child
// edges (used to reject cycles before they're created).
func (m *Map[V]) reaches(target *Map[V]) bool {
	if m == target {
		return true
	}
	for _, c := range m.children {
		if c.reaches(target) {
			return true
		}
	}
	return false
}

// RemoveParent detaches the parent edge in both directions and withdraws
// m's contributions from parent (and, where containment flips, its
// ancestors).
func (m *Map[V]) RemoveParent(parent *Map[V]) {
	if parent == nil {
		return
	}
	if _, ok := m.parents[parent.ID]; !ok {
		return
	}
	delete(m.parents, parent.ID)
	delete(parent.children, m.ID)
	for id := range parent.childPresent {
		if _, fromM := parent.childPresent[id][m.ID]; fromM {
			parent.onChildLost(id, m.ID, NewChanges())
		}
	}
}

// Add inserts id locally and propagates the change up to every transitive
// parent, returning a record of every node where id became newly present.
func (m *Map[V]) Add(id string, v V) *Changes {
	changes := NewChanges()
	before := m.Contains(id)
	m.local[id] = v
	if !before {
		changes.record(m.Scope, m.ID, id)
		for _, p := range m.parents {
			p.onChildGained(id, m.ID)
			p.collectGain(id, changes)
		}
	}
	return changes
}

// onChildGained marks that child now (transitively) contains id, without
// recording a Changes entry itself (collectGain does that, separately, so
// callers can decide whether to recurse before or after recording).
func (m *Map[V]) onChildGained(id, childID string) {
	set, ok := m.childPresent[id]
	if !ok {
		set = map[string]struct{}{}
		m.childPresent[id] = set
	}
	set[childID] = struct{}{}
}

// collectGain records m (and recurses to its parents) if m's containment of
// id just flipped to true because of a child gain. It must be called
// exactly once per propagation step, after onChildGained has updated the
// childPresent bookkeeping but using the pre-update containment state
// captured by the caller; to keep that ordering correct it recomputes
// "was it already present before this child's contribution" by checking
// whether local has id or more than one child currently reports it.
func (m *Map[V]) collectGain(id string, changes *Changes) {
	set := m.childPresent[id]
	_, inLocal := m.local[id]
	if inLocal {
		// Local already guaranteed containment; nothing flipped here.
		return
	}
	if len(set) != 1 {
		// Already contained via another child before this one arrived.
		return
	}
	changes.record(m.Scope, m.ID, id)
	for _, p := range m.parents {
		p.onChildGained(id, m.ID)
		p.collectGain(id, changes)
	}
}

// Remove deletes id from the local map and propagates the removal upward to
// every parent for which no child still contains id, returning a record of
// every node id was actually removed from.
func (m *Map[V]) Remove(id string) *Changes {
	changes := NewChanges()
	delete(m.local, id)
	if m.Contains(id) {
		// Still present via a child: nothing to propagate.
		return changes
	}
	changes.record(m.Scope, m.ID, id)
	for _, p := range m.parents {
		p.onChildLost(id, m.ID, changes)
	}
	return changes
}

func (m *Map[V]) onChildLost(id, childID string, changes *Changes) {
	set, ok := m.childPresent[id]
	if ok {
		delete(set, childID)
		if len(set) == 0 {
			delete(m.childPresent, id)
		}
	}
	if m.Contains(id) {
		return
	}
	changes.record(m.Scope, m.ID, id)
	for _, p := range m.parents {
		p.onChildLost(id, m.ID, changes)
	}
}
