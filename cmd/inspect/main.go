package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/hellsoul/simcore/internal/persistence/snapshot"
)

func main() {
	var (
		snapPath = flag.String("snapshot", "", "path to .snap.zst")
		worldID  = flag.String("world", "", "limit the entity tree to one world id (optional)")
	)
	flag.Parse()

	if *snapPath == "" {
		fmt.Fprintln(os.Stderr, "missing -snapshot")
		os.Exit(2)
	}

	snap, err := snapshot.ReadSnapshot(*snapPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}

	fmt.Printf("snapshot v%d game=%s tick=%d worlds=%d entities=%d players=%d teams=%d\n",
		snap.Header.Version, snap.Header.GameID, snap.Header.Tick,
		len(snap.Worlds), len(snap.Entities), len(snap.Players), len(snap.Teams))

	byWorld := map[string][]snapshot.EntityV1{}
	var unpublished []snapshot.EntityV1
	for _, e := range snap.Entities {
		if !e.Published {
			unpublished = append(unpublished, e)
			continue
		}
		byWorld[e.WorldID] = append(byWorld[e.WorldID], e)
	}

	worlds := snap.Worlds
	sort.Slice(worlds, func(i, j int) bool { return worlds[i].ID < worlds[j].ID })
	for _, w := range worlds {
		if *worldID != "" && w.ID != *worldID {
			continue
		}
		ents := byWorld[w.ID]
		sort.Slice(ents, func(i, j int) bool { return ents[i].ID < ents[j].ID })
		fmt.Printf("\nworld %s %q (%d published entities)\n", w.ID, w.Name, len(ents))
		for _, e := range ents {
			printEntity(e, "  ")
		}
	}

	if *worldID == "" && len(unpublished) > 0 {
		sort.Slice(unpublished, func(i, j int) bool { return unpublished[i].ID < unpublished[j].ID })
		fmt.Printf("\nunpublished (%d entities)\n", len(unpublished))
		for _, e := range unpublished {
			printEntity(e, "  ")
		}
	}

	if *worldID != "" {
		return
	}

	teams := snap.Teams
	sort.Slice(teams, func(i, j int) bool { return teams[i].ID < teams[j].ID })
	fmt.Printf("\nteams (%d)\n", len(teams))
	for _, t := range teams {
		fmt.Printf("  %s %q members=%v\n", t.ID, t.Name, t.Members)
	}

	players := snap.Players
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })
	fmt.Printf("\nplayers (%d)\n", len(players))
	for _, p := range players {
		team := p.TeamID
		if team == "" {
			team = "-"
		}
		fmt.Printf("  %s %q team=%s entities=%v\n", p.ID, p.Name, team, p.Entities)
	}
}

func printEntity(e snapshot.EntityV1, indent string) {
	flags := ""
	if e.Omnipotent {
		flags += " omnipotent"
	}
	if !e.Active {
		flags += " inactive"
	}
	fmt.Printf("%s%s %q pos=(%d,%d) tags=%v owners=%v%s\n", indent, e.ID, e.Name, e.Position[0], e.Position[1], e.Tags, e.Owners, flags)
	for _, p := range e.Properties {
		fmt.Printf("%s  %s=%g [%g,%g]\n", indent, p.Name, p.Current, p.Min, p.Max)
	}
	for _, gr := range e.Abilities {
		fmt.Printf("%s  ability=%s granted_by=%s using=%s\n", indent, gr.Ability, gr.GrantedBy, gr.Using)
	}
}
