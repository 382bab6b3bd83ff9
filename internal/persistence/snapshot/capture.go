package snapshot

import (
	"sort"

	"github.com/hellsoul/simcore/internal/core"
)

// Capture walks g's registries and builds a SnapshotV1 of its durable
// state, stamping gameID and g's current tick into the header.
func Capture(g *core.Game, gameID string) SnapshotV1 {
	snap := SnapshotV1{
		Header: Header{Version: 1, GameID: gameID, Tick: g.CurrentTick()},
	}

	g.Worlds.Each(func(id string, w *core.World) {
		snap.Worlds = append(snap.Worlds, WorldV1{ID: w.ID(), Name: w.Name})
	})

	g.Entities.Each(func(id string, e *core.Entity) {
		ev := EntityV1{
			ID:         e.IDValue,
			Name:       e.Name,
			Published:  e.Published,
			Active:     e.Active,
			Omnipotent: e.Omnipotent,
			Position:   [2]int{e.Position.X, e.Position.Y},
			Slots:      e.Slots,
		}
		if e.World != nil {
			ev.WorldID = e.World.ID()
		}
		for tag := range e.Tags {
			ev.Tags = append(ev.Tags, tag)
		}
		sort.Strings(ev.Tags)
		for name, prop := range e.Properties {
			ev.Properties = append(ev.Properties, PropertyV1{Name: name, Current: prop.Current, Min: prop.Min, Max: prop.Max})
		}
		sort.Slice(ev.Properties, func(i, j int) bool { return ev.Properties[i].Name < ev.Properties[j].Name })
		for ability, grants := range e.Abilities {
			for _, gr := range grants {
				ev.Abilities = append(ev.Abilities, GrantV1{Ability: ability, GrantedBy: gr.GrantedBy, Using: gr.Using})
			}
		}
		for owner := range e.Owners {
			ev.Owners = append(ev.Owners, owner)
		}
		sort.Strings(ev.Owners)
		snap.Entities = append(snap.Entities, ev)
	})

	g.Players.Each(func(id string, p *core.Player) {
		pv := PlayerV1{ID: p.IDValue, Name: p.Name, ResumeToken: p.ResumeToken}
		if p.Team != nil {
			pv.TeamID = p.Team.IDValue
		}
		for eid := range p.Entities {
			pv.Entities = append(pv.Entities, eid)
		}
		sort.Strings(pv.Entities)
		snap.Players = append(snap.Players, pv)
	})

	g.Teams.Each(func(id string, t *core.Team) {
		tv := TeamV1{ID: t.IDValue, Name: t.Name}
		for m := range t.Members {
			tv.Members = append(tv.Members, m)
		}
		sort.Strings(tv.Members)
		snap.Teams = append(snap.Teams, tv)
	})

	return snap
}
