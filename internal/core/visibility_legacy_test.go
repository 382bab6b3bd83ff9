package core

import "testing"

type fixedChecker VisibilityLevel

func (f fixedChecker) CheckVisibility(_, _, _ string) VisibilityLevel { return VisibilityLevel(f) }

func TestJoinVisibilityUnknownHalvesJoinToVisible(t *testing.T) {
	if got := JoinVisibility(CasterUnknown, TargetUnknown); got != Visible {
		t.Fatalf("join = %v, want Visible", got)
	}
	if got := JoinVisibility(TargetUnknown, CasterUnknown); got != Visible {
		t.Fatalf("join = %v, want Visible", got)
	}
}

func TestResolveVisibilityDefersDownward(t *testing.T) {
	checkers := []VisibilityChecker{fixedChecker(Defer), fixedChecker(NotVisible)}
	if got := ResolveVisibility(checkers, "v", "c", "t"); got != NotVisible {
		t.Fatalf("resolved = %v, want NotVisible", got)
	}
}

func TestResolveVisibilityAllDeferYieldsNotVisible(t *testing.T) {
	checkers := []VisibilityChecker{fixedChecker(Defer), fixedChecker(Defer)}
	if got := ResolveVisibility(checkers, "v", "c", "t"); got != NotVisible {
		t.Fatalf("resolved = %v, want NotVisible", got)
	}
}
