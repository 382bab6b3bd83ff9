package core

// publishMarker is implemented only by PublishEntityAction; Execute checks
// it to exempt publication itself from the unpublished-target fast path
// (an entity being published is, by definition, not yet published).
type publishMarker interface {
	isPublishEntityAction()
}

// collectListeners walks the action's caster/target/game/additional points
// in the exact order spec section 4.3 names, deduplicating by container id.
func collectListeners(g *Game, a Action) []Container {
	var out []Container
	ids := a.ListenerIDs()
	add := func(c Container) {
		if c == nil {
			return
		}
		if _, ok := ids[c.ID()]; ok {
			return
		}
		ids[c.ID()] = struct{}{}
		out = append(out, c)
	}

	caster := a.Caster()
	target := a.Target()

	if caster != nil {
		add(caster)
		if caster.World != nil {
			for _, id := range caster.World.EntitiesWithinTileRadius(caster.Position, g.Config.ListenDistance) {
				if id == caster.IDValue {
					continue
				}
				if target != nil && id == target.IDValue {
					continue
				}
				if e := g.EntityByID(id); e != nil {
					add(e)
				}
			}
			add(caster.World)
		}
	}

	add(g)

	if target != nil && (caster == nil || target.IDValue != caster.IDValue) {
		if target.World != nil {
			add(target.World)
			for _, id := range target.World.EntitiesWithinTileRadius(target.Position, g.Config.ListenDistance) {
				if e := g.EntityByID(id); e != nil {
					add(e)
				}
			}
		}
		add(target)
	}

	for _, lp := range a.AdditionalListenPoints() {
		if lp.World == nil {
			continue
		}
		add(lp.World)
		for _, id := range lp.World.EntitiesWithinTileRadius(lp.Position, g.Config.ListenDistance) {
			if e := g.EntityByID(id); e != nil {
				add(e)
			}
		}
	}

	for _, c := range a.AdditionalListeners() {
		add(c)
	}

	return out
}

// Execute runs the action pipeline described in spec section 4.3: the
// unpublished-target fast path, listener collection, sense, modify, permit
// resolution, apply, broadcast hand-off, teardown, and react.
func Execute(g *Game, a Action, force bool) bool {
	a.Initialize(g)

	target := a.Target()
	_, isPublish := a.(publishMarker)
	if target != nil && !target.Published && !isPublish {
		target.Modify(g, a)
		a.decidePermission()
		if a.Permitted() || force {
			a.setApplied(a.Apply(g))
		}
		target.React(g, a)
		return a.Applied()
	}

	listeners := collectListeners(g, a)
	a.setListeners(listeners)

	caster := a.Caster()
	for _, l := range listeners {
		a.recordSense(l.ID(), l.Sense(g, a))
	}
	if caster != nil {
		a.recordSense(caster.ID(), true)
	}

	for _, l := range listeners {
		l.Modify(g, a)
	}

	a.decidePermission()

	if (a.Permitted() && a.CheckFeasible(a)) || force {
		a.setApplied(a.Apply(g))
	}

	msg := a.GenerateMessage(g)
	g.queueForBroadcast(a, msg)

	a.Teardown(g)

	for _, l := range listeners {
		l.React(g, a)
	}

	return a.Applied()
}

// Chain executes a follow-up action produced during child's caster's react
// or modify phase (the spec's react(a')/counter(a')), bumping its nested
// depth and refusing silently once the cap is reached so cyclic aura
// triggers can't crash the tick.
func (g *Game) Chain(parent, child Action) bool {
	if parent.Nested() >= g.Config.NestedDepthCap {
		return false
	}
	child.setNested(parent.Nested() + 1)
	return Execute(g, child, false)
}
