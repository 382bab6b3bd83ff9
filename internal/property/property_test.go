package property

import "testing"

func TestEffectiveAppliesInOrder(t *testing.T) {
	p := New("e1", "HP", 10, 0, 20)
	p.AddModification(Modification{Kind: Adjustment, Amount: 5})
	p.AddModification(Modification{Kind: Multiplier, Amount: 2})
	// (10+5)*2 = 30, clamped to max 20.
	if got := p.Effective(); got != 20 {
		t.Fatalf("Effective() = %v, want 20", got)
	}
}

func TestAbsoluteOverridesPriorChain(t *testing.T) {
	p := New("e1", "HP", 10, 0, 20)
	p.AddModification(Modification{Kind: Adjustment, Amount: 100})
	p.AddModification(Modification{Kind: Absolute, Amount: 7})
	if got := p.Effective(); got != 7 {
		t.Fatalf("Effective() = %v, want 7", got)
	}
}

func TestAdjustClampsCurrent(t *testing.T) {
	p := New("e1", "HP", 10, 0, 20)
	p.Adjust(5)
	if p.Current != 15 {
		t.Fatalf("Current = %v, want 15", p.Current)
	}
	p.Adjust(1000)
	if p.Current != 20 {
		t.Fatalf("Current = %v, want clamped to 20", p.Current)
	}
}
