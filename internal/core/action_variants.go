package core

import (
	"github.com/hellsoul/simcore/internal/geom"
	"github.com/hellsoul/simcore/internal/nestedmap"
	"github.com/hellsoul/simcore/internal/property"
)

// baseMessage builds the envelope fields common to every variant's
// GenerateMessage: the deciding permission, whether the action applied, and
// caster/target ids.
func baseMessage(kind string, a *ActionBase) map[string]any {
	msg := map[string]any{
		"kind":      kind,
		"permitted": a.Permitted(),
		"applied":   a.Applied(),
	}
	if a.CasterEntity != nil {
		msg["caster"] = a.CasterEntity.IDValue
	}
	if a.TargetEntity != nil {
		msg["target"] = a.TargetEntity.IDValue
	}
	if d := a.DecidingPermission(); d != nil {
		msg["message"] = d.Message
	}
	return msg
}

// sensedEntitiesMapFor resolves the NestedMap<Entity> that "using" owns,
// per spec section 4.4's SenseEntityAction/LoseEntityAction ("calls
// using.sensed_entities.add/remove"). using may be the sensing entity
// itself or one of its EntitySensor components.
func sensedEntitiesMapFor(using any) *nestedmap.Map[*Entity] {
	switch v := using.(type) {
	case *Entity:
		return v.SensedEntities
	case EntitySensor:
		return v.SensedEntities()
	default:
		return nil
	}
}

// --- AttachComponentAction ---------------------------------------------

type AttachComponentAction struct {
	ActionBase
	NewComponent Component
}

func NewAttachComponentAction(caster, target *Entity, c Component) *AttachComponentAction {
	a := &AttachComponentAction{ActionBase: NewActionBase(caster, target), NewComponent: c}
	return a
}

func (a *AttachComponentAction) Apply(g *Game) bool {
	if a.TargetEntity == nil {
		return false
	}
	if err := a.TargetEntity.catalog.AddComponent(a.NewComponent); err != nil {
		return false
	}
	if es, ok := a.NewComponent.(EntitySensor); ok {
		es.SensedEntities().AddParent(a.TargetEntity.SensedEntities)
	}
	return true
}

func (a *AttachComponentAction) GenerateMessage(g *Game) map[string]any {
	msg := baseMessage("attach_component", &a.ActionBase)
	msg["component"] = a.NewComponent.ID()
	return msg
}

// --- PublishEntityAction -------------------------------------------------

type PublishEntityAction struct {
	ActionBase
	World    *World
	Position geom.Vector
	// AlreadyPublished marks the synthetic "publish in place" action the
	// broadcast stage sends a player whose sensed-entities rollup just
	// gained an entity that was already published to everyone else.
	AlreadyPublished bool
}

func NewPublishEntityAction(caster, target *Entity, w *World, pos geom.Vector) *PublishEntityAction {
	a := &PublishEntityAction{ActionBase: NewActionBase(caster, target), World: w, Position: pos}
	a.IsMovement = true
	a.IsPublic = true
	return a
}

func (a *PublishEntityAction) isPublishEntityAction() {}

func (a *PublishEntityAction) Initialize(g *Game) {
	a.additionalListenPoints = append(a.additionalListenPoints, ListenPoint{World: a.World, Position: a.Position})
	if a.World != nil {
		a.World.TerrainLayer().EnsureChunk(a.Position.ToChunkSpace())
	}
}

func (a *PublishEntityAction) Apply(g *Game) bool {
	if a.AlreadyPublished || a.TargetEntity == nil || a.World == nil {
		return false
	}
	a.TargetEntity.publish(a.World, a.Position)
	return true
}

func (a *PublishEntityAction) Teardown(g *Game) {
	if a.TargetEntity != nil && !a.TargetEntity.Active {
		a.TargetEntity.unpublish()
	}
}

func (a *PublishEntityAction) GenerateMessage(g *Game) map[string]any {
	msg := baseMessage("publish_entity", &a.ActionBase)
	msg["position"] = a.Position
	return msg
}

// --- UnpublishEntityAction ------------------------------------------------

type UnpublishEntityAction struct {
	ActionBase
}

func NewUnpublishEntityAction(caster, target *Entity) *UnpublishEntityAction {
	a := &UnpublishEntityAction{ActionBase: NewActionBase(caster, target)}
	a.IsPublic = true
	return a
}

func (a *UnpublishEntityAction) Apply(g *Game) bool {
	if a.TargetEntity == nil || !a.TargetEntity.Published {
		return false
	}
	a.TargetEntity.unpublish()
	return true
}

func (a *UnpublishEntityAction) GenerateMessage(g *Game) map[string]any {
	return baseMessage("unpublish_entity", &a.ActionBase)
}

// --- ChangeWorldAction ------------------------------------------------

type ChangeWorldAction struct {
	ActionBase
	NewWorld    *World
	NewPosition geom.Vector
}

func NewChangeWorldAction(caster, target *Entity, w *World, pos geom.Vector) *ChangeWorldAction {
	a := &ChangeWorldAction{ActionBase: NewActionBase(caster, target), NewWorld: w, NewPosition: pos}
	a.IsMovement = true
	return a
}

func (a *ChangeWorldAction) Apply(g *Game) bool {
	if a.TargetEntity == nil || a.NewWorld == nil {
		return false
	}
	if a.TargetEntity.World != nil {
		a.TargetEntity.World.unindexEntity(a.TargetEntity)
	}
	a.TargetEntity.World = a.NewWorld
	a.TargetEntity.Position = a.NewPosition
	a.NewWorld.indexEntity(a.TargetEntity)
	return true
}

func (a *ChangeWorldAction) GenerateMessage(g *Game) map[string]any {
	msg := baseMessage("change_world", &a.ActionBase)
	msg["world"] = a.NewWorld.IDValue
	msg["position"] = a.NewPosition
	return msg
}

// --- MoveAction / RelativeMoveAction ------------------------------------

// moveEntityApply re-indexes target at newPos and, if the chunk changed,
// updates every owner's Scope for target's world via add/remove_viewer so
// the deltas reflect only chunks whose viewer-set emptiness flipped.
func moveEntityApply(g *Game, target *Entity, newPos geom.Vector) bool {
	if target == nil || target.World == nil {
		return false
	}
	oldPos := target.Position
	changedChunk := geom.DifferentChunk(oldPos, newPos)
	target.World.Move(target, newPos)
	if changedChunk {
		for ownerID := range target.Owners {
			p := g.PlayerByID(ownerID)
			if p == nil {
				continue
			}
			p.ScopeFor(target.World.IDValue, g.Config.ViewDistance).AddViewer(target.IDValue, newPos, &oldPos, false, geom.Vector{}, geom.Vector{})
		}
	}
	return true
}

type MoveAction struct {
	ActionBase
	NewPosition geom.Vector
}

func NewMoveAction(caster, target *Entity, newPos geom.Vector) *MoveAction {
	a := &MoveAction{ActionBase: NewActionBase(caster, target), NewPosition: newPos}
	a.IsMovement = true
	return a
}

func (a *MoveAction) Apply(g *Game) bool { return moveEntityApply(g, a.TargetEntity, a.NewPosition) }

func (a *MoveAction) GenerateMessage(g *Game) map[string]any {
	msg := baseMessage("move", &a.ActionBase)
	msg["position"] = a.NewPosition
	return msg
}

type RelativeMoveAction struct {
	ActionBase
	Delta       geom.Vector
	newPosition geom.Vector
}

func NewRelativeMoveAction(caster, target *Entity, delta geom.Vector) *RelativeMoveAction {
	a := &RelativeMoveAction{ActionBase: NewActionBase(caster, target), Delta: delta}
	a.IsMovement = true
	return a
}

func (a *RelativeMoveAction) Initialize(g *Game) {
	if a.TargetEntity != nil {
		a.newPosition = a.TargetEntity.Position.Add(a.Delta)
	}
}

func (a *RelativeMoveAction) Apply(g *Game) bool {
	return moveEntityApply(g, a.TargetEntity, a.newPosition)
}

func (a *RelativeMoveAction) GenerateMessage(g *Game) map[string]any {
	msg := baseMessage("relative_move", &a.ActionBase)
	msg["position"] = a.newPosition
	return msg
}

// --- OwnEntityAction ------------------------------------------------

type OwnEntityAction struct {
	ActionBase
	NewOwner *Player
}

func NewOwnEntityAction(caster, target *Entity, owner *Player) *OwnEntityAction {
	a := &OwnEntityAction{ActionBase: NewActionBase(caster, target), NewOwner: owner}
	a.IsPublic = true
	return a
}

func (a *OwnEntityAction) Apply(g *Game) bool {
	if a.NewOwner == nil || a.TargetEntity == nil {
		return false
	}
	changes := a.NewOwner.ownEntity(a.TargetEntity)
	a.SetVisibilityChanges(&VisibilityChange{Added: true, Changes: changes})
	return true
}

func (a *OwnEntityAction) GenerateMessage(g *Game) map[string]any {
	msg := baseMessage("own_entity", &a.ActionBase)
	msg["owner"] = a.NewOwner.IDValue
	return msg
}

// --- EquipItemAction ------------------------------------------------

type EquipItemAction struct {
	ActionBase
	Item *Entity
	Slot string
}

func NewEquipItemAction(caster, target, item *Entity, slot string) *EquipItemAction {
	return &EquipItemAction{ActionBase: NewActionBase(caster, target), Item: item, Slot: slot}
}

func (a *EquipItemAction) Apply(g *Game) bool {
	if a.TargetEntity == nil || a.Item == nil {
		return false
	}
	occupant, exists := a.TargetEntity.Slots[a.Slot]
	if !exists || occupant != "" {
		return false
	}
	a.TargetEntity.Slots[a.Slot] = a.Item.IDValue
	return true
}

func (a *EquipItemAction) GenerateMessage(g *Game) map[string]any {
	msg := baseMessage("equip_item", &a.ActionBase)
	msg["slot"] = a.Slot
	msg["item"] = a.Item.IDValue
	return msg
}

// --- AddSlotAction / RemoveSlotAction ------------------------------------------------

type AddSlotAction struct {
	ActionBase
	SlotName string
}

func NewAddSlotAction(caster, target *Entity, slot string) *AddSlotAction {
	return &AddSlotAction{ActionBase: NewActionBase(caster, target), SlotName: slot}
}

func (a *AddSlotAction) Apply(g *Game) bool {
	if a.TargetEntity == nil {
		return false
	}
	if _, exists := a.TargetEntity.Slots[a.SlotName]; exists {
		return false
	}
	a.TargetEntity.Slots[a.SlotName] = ""
	return true
}

func (a *AddSlotAction) GenerateMessage(g *Game) map[string]any {
	msg := baseMessage("add_slot", &a.ActionBase)
	msg["slot"] = a.SlotName
	return msg
}

type RemoveSlotAction struct {
	ActionBase
	SlotName string
}

func NewRemoveSlotAction(caster, target *Entity, slot string) *RemoveSlotAction {
	return &RemoveSlotAction{ActionBase: NewActionBase(caster, target), SlotName: slot}
}

func (a *RemoveSlotAction) Apply(g *Game) bool {
	if a.TargetEntity == nil {
		return false
	}
	if _, exists := a.TargetEntity.Slots[a.SlotName]; !exists {
		return false
	}
	delete(a.TargetEntity.Slots, a.SlotName)
	return true
}

func (a *RemoveSlotAction) GenerateMessage(g *Game) map[string]any {
	msg := baseMessage("remove_slot", &a.ActionBase)
	msg["slot"] = a.SlotName
	return msg
}

// --- AddPropertyAction / RemovePropertyAction ------------------------------------------------

type AddPropertyAction struct {
	ActionBase
	Name               string
	Current, Min, Max float64
}

func NewAddPropertyAction(caster, target *Entity, name string, current, min, max float64) *AddPropertyAction {
	return &AddPropertyAction{ActionBase: NewActionBase(caster, target), Name: name, Current: current, Min: min, Max: max}
}

func (a *AddPropertyAction) Apply(g *Game) bool {
	if a.TargetEntity == nil {
		return false
	}
	if _, exists := a.TargetEntity.Properties[a.Name]; exists {
		return false
	}
	a.TargetEntity.Properties[a.Name] = property.New(a.TargetEntity.IDValue, a.Name, a.Current, a.Min, a.Max)
	return true
}

func (a *AddPropertyAction) GenerateMessage(g *Game) map[string]any {
	msg := baseMessage("add_property", &a.ActionBase)
	msg["property"] = a.Name
	return msg
}

type RemovePropertyAction struct {
	ActionBase
	Name string
}

func NewRemovePropertyAction(caster, target *Entity, name string) *RemovePropertyAction {
	return &RemovePropertyAction{ActionBase: NewActionBase(caster, target), Name: name}
}

func (a *RemovePropertyAction) Apply(g *Game) bool {
	if a.TargetEntity == nil {
		return false
	}
	if _, exists := a.TargetEntity.Properties[a.Name]; !exists {
		return false
	}
	delete(a.TargetEntity.Properties, a.Name)
	return true
}

func (a *RemovePropertyAction) GenerateMessage(g *Game) map[string]any {
	msg := baseMessage("remove_property", &a.ActionBase)
	msg["property"] = a.Name
	return msg
}

// --- LearnAbilityAction / ForgetAbilityAction ------------------------------------------------

type LearnAbilityAction struct {
	ActionBase
	Ability   string
	GrantedBy string
	UsingName string
}

func NewLearnAbilityAction(caster, target *Entity, ability, grantedBy, using string) *LearnAbilityAction {
	return &LearnAbilityAction{ActionBase: NewActionBase(caster, target), Ability: ability, GrantedBy: grantedBy, UsingName: using}
}

func (a *LearnAbilityAction) Apply(g *Game) bool {
	if a.TargetEntity == nil {
		return false
	}
	a.TargetEntity.Grant(a.Ability, a.GrantedBy, a.UsingName)
	return true
}

func (a *LearnAbilityAction) GenerateMessage(g *Game) map[string]any {
	msg := baseMessage("learn_ability", &a.ActionBase)
	msg["ability"] = a.Ability
	return msg
}

type ForgetAbilityAction struct {
	ActionBase
	Ability   string
	GrantedBy string
	UsingName string
}

func NewForgetAbilityAction(caster, target *Entity, ability, grantedBy, using string) *ForgetAbilityAction {
	return &ForgetAbilityAction{ActionBase: NewActionBase(caster, target), Ability: ability, GrantedBy: grantedBy, UsingName: using}
}

func (a *ForgetAbilityAction) Apply(g *Game) bool {
	if a.TargetEntity == nil {
		return false
	}
	return a.TargetEntity.Forget(a.Ability, a.GrantedBy, a.UsingName)
}

func (a *ForgetAbilityAction) GenerateMessage(g *Game) map[string]any {
	msg := baseMessage("forget_ability", &a.ActionBase)
	msg["ability"] = a.Ability
	return msg
}

// --- ModifyPropertyAction / PropertyAdjustmentAction ------------------------------------------------

type ModifyPropertyAction struct {
	ActionBase
	Name string
	Mod  property.Modification
}

func NewModifyPropertyAction(caster, target *Entity, name string, mod property.Modification) *ModifyPropertyAction {
	return &ModifyPropertyAction{ActionBase: NewActionBase(caster, target), Name: name, Mod: mod}
}

func (a *ModifyPropertyAction) Apply(g *Game) bool {
	if a.TargetEntity == nil {
		return false
	}
	prop, ok := a.TargetEntity.Properties[a.Name]
	if !ok {
		return false
	}
	prop.AddModification(a.Mod)
	return true
}

func (a *ModifyPropertyAction) GenerateMessage(g *Game) map[string]any {
	msg := baseMessage("modify_property", &a.ActionBase)
	msg["property"] = a.Name
	return msg
}

type PropertyAdjustmentAction struct {
	ActionBase
	Name   string
	Amount float64
}

func NewPropertyAdjustmentAction(caster, target *Entity, name string, amount float64) *PropertyAdjustmentAction {
	return &PropertyAdjustmentAction{ActionBase: NewActionBase(caster, target), Name: name, Amount: amount}
}

func (a *PropertyAdjustmentAction) Apply(g *Game) bool {
	if a.TargetEntity == nil {
		return false
	}
	prop, ok := a.TargetEntity.Properties[a.Name]
	if !ok {
		return false
	}
	prop.Adjust(a.Amount)
	return true
}

func (a *PropertyAdjustmentAction) GenerateMessage(g *Game) map[string]any {
	msg := baseMessage("property_adjustment", &a.ActionBase)
	msg["property"] = a.Name
	msg["amount"] = a.Amount
	return msg
}

// --- SenseEntityAction / LoseEntityAction ------------------------------------------------

type SenseEntityAction struct {
	ActionBase
	Sensed *Entity
}

// NewSenseEntityAction builds an action recording that using (an *Entity or
// an EntitySensor component) now perceives sensed. using is carried in the
// common Using field.
func NewSenseEntityAction(caster *Entity, using any, sensed *Entity) *SenseEntityAction {
	a := &SenseEntityAction{ActionBase: NewActionBase(caster, sensed), Sensed: sensed}
	a.UsingValue = using
	return a
}

func (a *SenseEntityAction) Apply(g *Game) bool {
	nm := sensedEntitiesMapFor(a.UsingValue)
	if nm == nil || a.Sensed == nil {
		return false
	}
	changes := nm.Add(a.Sensed.IDValue, a.Sensed)
	a.SetVisibilityChanges(&VisibilityChange{Added: true, Changes: changes})
	return true
}

func (a *SenseEntityAction) GenerateMessage(g *Game) map[string]any {
	return baseMessage("sense_entity", &a.ActionBase)
}

type LoseEntityAction struct {
	ActionBase
	Lost *Entity
}

func NewLoseEntityAction(caster *Entity, using any, lost *Entity) *LoseEntityAction {
	a := &LoseEntityAction{ActionBase: NewActionBase(caster, lost), Lost: lost}
	a.UsingValue = using
	return a
}

func (a *LoseEntityAction) Apply(g *Game) bool {
	nm := sensedEntitiesMapFor(a.UsingValue)
	if nm == nil || a.Lost == nil {
		return false
	}
	changes := nm.Remove(a.Lost.IDValue)
	a.SetVisibilityChanges(&VisibilityChange{Added: false, Changes: changes})
	return true
}

func (a *LoseEntityAction) GenerateMessage(g *Game) map[string]any {
	return baseMessage("lose_entity", &a.ActionBase)
}

// --- CustomAction ------------------------------------------------

// CustomAction is an opaque payload for content-defined behavior: ApplyFn,
// if set, is invoked as this action's Apply.
type CustomAction struct {
	ActionBase
	Name    string
	Payload map[string]any
	ApplyFn func(g *Game, a *CustomAction) bool
}

func NewCustomAction(caster, target *Entity, name string, payload map[string]any) *CustomAction {
	return &CustomAction{ActionBase: NewActionBase(caster, target), Name: name, Payload: payload}
}

func (a *CustomAction) Apply(g *Game) bool {
	if a.ApplyFn == nil {
		return false
	}
	return a.ApplyFn(g, a)
}

func (a *CustomAction) GenerateMessage(g *Game) map[string]any {
	msg := baseMessage("custom:"+a.Name, &a.ActionBase)
	msg["payload"] = a.Payload
	return msg
}
