package core

// VisibilityLevel is the older visibility lattice kept alongside the
// NestedChanges-driven broadcast path (section 4.6) for compatibility tests;
// the broadcast path in game.go does not consult it. NotVisible is the
// bottom, Visible the top;
// CasterUnknown and TargetUnknown join to Visible (if one half of the pair
// is unverifiable, the check defers to the other).
type VisibilityLevel int

const (
	NotVisible VisibilityLevel = iota
	CasterUnknown
	TargetUnknown
	Visible
)

// Defer is a sentinel outside the lattice meaning "ask the next, more
// specific, level" rather than asserting a visibility value of its own.
const Defer VisibilityLevel = -1

// JoinVisibility combines two levels for the same viewer/action: the join
// of CasterUnknown and TargetUnknown is Visible (per spec 4.7); otherwise
// the higher level wins.
func JoinVisibility(a, b VisibilityLevel) VisibilityLevel {
	if (a == CasterUnknown && b == TargetUnknown) || (a == TargetUnknown && b == CasterUnknown) {
		return Visible
	}
	if a > b {
		return a
	}
	return b
}

// VisibilityChecker is implemented at each escalation tier (team, player,
// entity). Returning Defer means "this tier has no opinion, ask the next
// one"; any other value participates in the join.
type VisibilityChecker interface {
	CheckVisibility(viewerID, casterID, targetID string) VisibilityLevel
}

// ResolveVisibility escalates through checkers in order (spec: team then
// player then entity), joining every non-Defer result, and returns
// NotVisible if every tier deferred.
func ResolveVisibility(checkers []VisibilityChecker, viewerID, casterID, targetID string) VisibilityLevel {
	result := Defer
	for _, c := range checkers {
		lvl := c.CheckVisibility(viewerID, casterID, targetID)
		if lvl == Defer {
			continue
		}
		if result == Defer {
			result = lvl
			continue
		}
		result = JoinVisibility(result, lvl)
	}
	if result == Defer {
		return NotVisible
	}
	return result
}
