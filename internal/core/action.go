package core

import (
	"github.com/hellsoul/simcore/internal/geom"
	"github.com/hellsoul/simcore/internal/nestedmap"
)

// Permission is a single vote on whether an action should apply, recorded
// under an integer priority key.
type Permission struct {
	Permitted bool
	By        string
	Using     string
	Message   string
}

// permEntry is one recorded Permit/Deny call, kept in insertion order so
// decidePermission can implement "deny after allow at equal priority
// replaces it; allow after deny does not" without depending on Go's
// randomized map iteration.
type permEntry struct {
	priority int
	perm     Permission
}

// ListenPoint names a world position actions can additionally route
// listeners through (PublishEntityAction uses this so not-yet-visible
// entities still get a chance to veto their own publication).
type ListenPoint struct {
	World    *World
	Position geom.Vector
}

// VisibilityChange records a NestedMap propagation the broadcast stage must
// translate into publish/unpublish follow-ups.
type VisibilityChange struct {
	Added   bool // true = entities newly sensed, false = entities lost
	Changes *nestedmap.Changes
}

// Action is the common interface every action variant satisfies. Variants
// embed ActionBase (which implements every method with the base behavior)
// and override Initialize/Apply/Teardown/GenerateMessage; Execute is a
// free function operating on the Action interface so those overrides
// dispatch dynamically even though Go has no virtual methods through
// embedding.
type Action interface {
	Caster() *Entity
	Target() *Entity
	Using() any

	Tags() map[string]struct{}
	HasTag(tag string) bool
	AddTag(tag string)
	Breadcrumbs() map[string]struct{}
	AddBreadcrumb(b string)

	Public() bool
	Absolute() bool

	Permit(priority int, by, using, message string)
	Deny(priority int, by, using, message string)
	Permitted() bool
	DecidingPermission() *Permission
	decidePermission()

	Nested() int
	setNested(n int)
	MovementAction() bool

	Anticipators() map[string]struct{}

	Sensors() map[string]any
	recordSense(containerID string, v any)

	VisibilityChanges() *VisibilityChange
	SetVisibilityChanges(vc *VisibilityChange)

	Listeners() []Container
	ListenerIDs() map[string]struct{}
	setListeners(ls []Container)

	AdditionalListenPoints() []ListenPoint
	AdditionalListeners() []Container

	SetFeasibilityCallback(fn func(Action) bool)
	CheckFeasible(self Action) bool

	Applied() bool
	setApplied(b bool)

	// Variant hooks; ActionBase supplies no-op defaults.
	Initialize(g *Game)
	Apply(g *Game) bool
	Teardown(g *Game)
	GenerateMessage(g *Game) map[string]any

	BroadcastType() BroadcastType
}

// BroadcastType selects the fan-out strategy Game.queueForBroadcast applies
// after an action executes.
type BroadcastType int

const (
	BroadcastNone BroadcastType = iota
	BroadcastDirect
	BroadcastFull
	BroadcastHasSenseOfEntity
)

// ActionBase implements the full Action interface with the base behavior
// described in spec section 4.3; concrete variants embed this and override
// Initialize/Apply/Teardown/GenerateMessage as needed.
type ActionBase struct {
	CasterEntity *Entity
	TargetEntity *Entity
	UsingValue   any // *Entity or Component

	TagSet         map[string]struct{}
	BreadcrumbSet  map[string]struct{}
	IsPublic       bool
	IsAbsolute     bool
	IsMovement     bool
	BroadcastTp    BroadcastType

	permissions []permEntry
	permitted   bool
	deciding    *Permission

	nestedDepth int

	anticipators map[string]struct{}

	sensors map[string]any

	visibilityChanges *VisibilityChange

	listeners   []Container
	listenerIDs map[string]struct{}

	additionalListenPoints []ListenPoint
	additionalListeners    []Container

	feasibilityCallback func(Action) bool

	applied bool
}

// NewActionBase constructs a base with the default priority-0 allow vote
// already recorded, per spec ("Default key 0 = allow").
func NewActionBase(caster, target *Entity) ActionBase {
	b := ActionBase{
		CasterEntity:  caster,
		TargetEntity:  target,
		TagSet:        map[string]struct{}{},
		BreadcrumbSet: map[string]struct{}{},
		anticipators:  map[string]struct{}{},
		sensors:       map[string]any{},
		listenerIDs:   map[string]struct{}{},
		permitted:     true,
		BroadcastTp:   BroadcastHasSenseOfEntity,
	}
	b.permissions = append(b.permissions, permEntry{priority: 0, perm: Permission{Permitted: true, Message: "default"}})
	return b
}

func (a *ActionBase) Caster() *Entity { return a.CasterEntity }
func (a *ActionBase) Target() *Entity { return a.TargetEntity }
func (a *ActionBase) Using() any      { return a.UsingValue }

func (a *ActionBase) Tags() map[string]struct{} { return a.TagSet }
func (a *ActionBase) HasTag(tag string) bool {
	_, ok := a.TagSet[tag]
	return ok
}
func (a *ActionBase) AddTag(tag string) { a.TagSet[tag] = struct{}{} }

func (a *ActionBase) Breadcrumbs() map[string]struct{} { return a.BreadcrumbSet }
func (a *ActionBase) AddBreadcrumb(b string)           { a.BreadcrumbSet[b] = struct{}{} }

func (a *ActionBase) Public() bool                 { return a.IsPublic }
func (a *ActionBase) Absolute() bool               { return a.IsAbsolute }
func (a *ActionBase) BroadcastType() BroadcastType { return a.BroadcastTp }

func (a *ActionBase) Permit(priority int, by, using, message string) {
	a.permissions = append(a.permissions, permEntry{priority: priority, perm: Permission{Permitted: true, By: by, Using: using, Message: message}})
}

func (a *ActionBase) Deny(priority int, by, using, message string) {
	a.permissions = append(a.permissions, permEntry{priority: priority, perm: Permission{Permitted: false, By: by, Using: using, Message: message}})
}

func (a *ActionBase) Permitted() bool                  { return a.permitted }
func (a *ActionBase) DecidingPermission() *Permission  { return a.deciding }

// decidePermission scans the recorded votes: the highest priority wins;
// within that priority, a deny recorded after an allow replaces it, but an
// allow recorded after a deny does not (denials are sticky at equal
// priority).
func (a *ActionBase) decidePermission() {
	maxPriority := a.permissions[0].priority
	for _, e := range a.permissions {
		if e.priority > maxPriority {
			maxPriority = e.priority
		}
	}
	var winner *Permission
	for i := range a.permissions {
		e := &a.permissions[i]
		if e.priority != maxPriority {
			continue
		}
		switch {
		case winner == nil:
			winner = &e.perm
		case !e.perm.Permitted:
			winner = &e.perm
		case !winner.Permitted:
			// deny sticks; a later allow at the same priority does not
			// override it
		default:
			winner = &e.perm
		}
	}
	a.deciding = winner
	a.permitted = winner.Permitted
}

func (a *ActionBase) Nested() int        { return a.nestedDepth }
func (a *ActionBase) setNested(n int)    { a.nestedDepth = n }
func (a *ActionBase) MovementAction() bool { return a.IsMovement }

func (a *ActionBase) Anticipators() map[string]struct{} { return a.anticipators }

func (a *ActionBase) Sensors() map[string]any { return a.sensors }
func (a *ActionBase) recordSense(containerID string, v any) { a.sensors[containerID] = v }

func (a *ActionBase) VisibilityChanges() *VisibilityChange { return a.visibilityChanges }
func (a *ActionBase) SetVisibilityChanges(vc *VisibilityChange) { a.visibilityChanges = vc }

func (a *ActionBase) Listeners() []Container              { return a.listeners }
func (a *ActionBase) ListenerIDs() map[string]struct{}    { return a.listenerIDs }
func (a *ActionBase) setListeners(ls []Container)         { a.listeners = ls }

func (a *ActionBase) AdditionalListenPoints() []ListenPoint { return a.additionalListenPoints }
func (a *ActionBase) AdditionalListeners() []Container      { return a.additionalListeners }

func (a *ActionBase) SetFeasibilityCallback(fn func(Action) bool) { a.feasibilityCallback = fn }

func (a *ActionBase) Applied() bool     { return a.applied }
func (a *ActionBase) setApplied(b bool) { a.applied = b }

// Default hooks: a bare ActionBase (used directly only by CustomAction and
// tests) does nothing beyond the common pipeline.
func (a *ActionBase) Initialize(g *Game)                    {}
func (a *ActionBase) Apply(g *Game) bool                     { return false }
func (a *ActionBase) Teardown(g *Game)                       {}
func (a *ActionBase) GenerateMessage(g *Game) map[string]any { return nil }

// CheckFeasible evaluates the feasibility callback against self (the outer,
// concrete action Execute was called with), defaulting to true when none is
// set.
func (a *ActionBase) CheckFeasible(self Action) bool {
	if a.feasibilityCallback == nil {
		return true
	}
	return a.feasibilityCallback(self)
}
