package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/hellsoul/simcore/internal/config"
	"github.com/hellsoul/simcore/internal/core"
	"github.com/hellsoul/simcore/internal/geom"
	"github.com/hellsoul/simcore/internal/persistence/indexdb"
	persistlog "github.com/hellsoul/simcore/internal/persistence/log"
	"github.com/hellsoul/simcore/internal/persistence/snapshot"
	"github.com/hellsoul/simcore/internal/property"
	"github.com/hellsoul/simcore/internal/transport/ws"
)

func main() {
	var (
		addr           = flag.String("addr", ":8080", "http listen address")
		gameID         = flag.String("game", "game_1", "game id, used to namespace the data directory")
		worldID        = flag.String("world", "world_1", "default world id created at startup")
		configPath     = flag.String("config", "", "path to config.yaml (default: built-in defaults)")
		dataDir        = flag.String("data", "./data", "runtime data directory")
		disableDB      = flag.Bool("disable_db", false, "disable the sqlite read-model index")
		snapPath       = flag.String("snapshot", "", "path to a snapshot to resume from (optional)")
		loadLatest     = flag.Bool("load_latest_snapshot", true, "load the latest snapshot from the data dir if -snapshot is empty")
		snapEveryTicks = flag.Uint64("snapshot_every_ticks", 1200, "write a snapshot every N ticks (0 disables)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)
	startedAt := time.Now()

	var cfg *config.Game
	if strings.TrimSpace(*configPath) != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			logger.Fatalf("load config: %v", err)
		}
	} else {
		cfg = config.Default()
	}

	gameDir := filepath.Join(*dataDir, "games", *gameID)
	if err := os.MkdirAll(gameDir, 0o755); err != nil {
		logger.Fatalf("mkdir data dir: %v", err)
	}

	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		var err error
		idx, err = indexdb.OpenSQLite(filepath.Join(gameDir, "index.db"))
		if err != nil {
			logger.Fatalf("open index db: %v", err)
		}
		defer idx.Close()
	}

	g := core.NewGame(cfg, logger)

	snapshotToLoad := strings.TrimSpace(*snapPath)
	if snapshotToLoad == "" && *loadLatest {
		snapshotToLoad = latestSnapshot(gameDir)
	}
	if snapshotToLoad != "" {
		if err := restoreSnapshot(g, snapshotToLoad); err != nil {
			logger.Fatalf("restore snapshot %s: %v", snapshotToLoad, err)
		}
		size := "unknown size"
		if fi, err := os.Stat(snapshotToLoad); err == nil {
			size = humanize.Bytes(uint64(fi.Size()))
		}
		logger.Printf("resumed from snapshot=%s (%s) tick=%d", filepath.Base(snapshotToLoad), size, g.CurrentTick())
	} else {
		g.AddWorld(core.NewWorld(g, *worldID, *worldID, logger))
	}

	ctx, cancel := signalContext()
	defer cancel()

	tickLog := persistlog.NewTickLogger(gameDir)
	auditLog := persistlog.NewAuditLogger(gameDir)
	defer tickLog.Close()
	defer auditLog.Close()

	transport := ws.NewTransport(g)

	if *snapEveryTicks > 0 {
		go runPeriodicSnapshot(ctx, g, *gameID, gameDir, *snapEveryTicks, cfg, idx, logger)
	}
	go runTickLog(ctx, g, cfg, tickLog, idx, logger)

	go func() {
		if err := g.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("game loop stopped: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		fmt.Fprintf(rw, "# HELP simcore_game_tick Current game tick.\n")
		fmt.Fprintf(rw, "# TYPE simcore_game_tick gauge\n")
		fmt.Fprintf(rw, "simcore_game_tick{game=%q} %d\n", *gameID, g.CurrentTick())

		fmt.Fprintf(rw, "# HELP simcore_game_players Current number of registered players.\n")
		fmt.Fprintf(rw, "# TYPE simcore_game_players gauge\n")
		fmt.Fprintf(rw, "simcore_game_players{game=%q} %d\n", *gameID, g.Players.Len())

		fmt.Fprintf(rw, "# HELP simcore_game_entities Current number of known entities.\n")
		fmt.Fprintf(rw, "# TYPE simcore_game_entities gauge\n")
		fmt.Fprintf(rw, "simcore_game_entities{game=%q} %d\n", *gameID, g.Entities.Len())
	})
	mux.HandleFunc("/v1/ws", ws.NewServer(g, transport, logger).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
	logger.Printf("shut down, had been running since %s", humanize.Time(startedAt))
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

// runTickLog polls the game's tick counter at the tick interval and records
// a TickLogEntry whenever it has advanced since the last poll; a tick that
// elapses between two polls gets no entry of its own. Join/leave/action
// detail isn't threaded through Game's synchronous Tick loop, so each entry
// currently carries just the tick number; the index db and JSONL log both
// still give an operator a timestamped record of how far the simulation has
// progressed.
func runTickLog(ctx context.Context, g *core.Game, cfg *config.Game, tickLog *persistlog.TickLogger, idx *indexdb.SQLiteIndex, logger *log.Logger) {
	interval := time.Duration(cfg.TickMillis) * time.Millisecond
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastTick uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick := g.CurrentTick()
			if tick == lastTick {
				continue
			}
			lastTick = tick
			entry := persistlog.TickLogEntry{Tick: tick}
			if err := tickLog.WriteTick(entry); err != nil {
				logger.Printf("tick log write: %v", err)
			}
			if idx != nil {
				_ = idx.WriteTick(entry)
			}
		}
	}
}

func runPeriodicSnapshot(ctx context.Context, g *core.Game, gameID, gameDir string, everyTicks uint64, cfg *config.Game, idx *indexdb.SQLiteIndex, logger *log.Logger) {
	interval := time.Duration(cfg.TickMillis) * time.Millisecond * time.Duration(everyTicks)
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := snapshot.Capture(g, gameID)
			path := filepath.Join(gameDir, "snapshots", fmt.Sprintf("%d.snap.zst", snap.Header.Tick))
			if err := snapshot.WriteSnapshot(path, snap); err != nil {
				logger.Printf("snapshot write: %v", err)
				continue
			}
			size := "unknown size"
			if fi, err := os.Stat(path); err == nil {
				size = humanize.Bytes(uint64(fi.Size()))
			}
			logger.Printf("snapshot written tick=%d path=%s size=%s", snap.Header.Tick, filepath.Base(path), size)
			if idx != nil {
				idx.RecordSnapshot(path, snap)
			}
		}
	}
}

func latestSnapshot(gameDir string) string {
	dir := filepath.Join(gameDir, "snapshots")
	ents, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var best string
	var bestTick uint64
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".snap.zst") {
			continue
		}
		base := strings.TrimSuffix(name, ".snap.zst")
		tick, err := strconv.ParseUint(base, 10, 64)
		if err != nil {
			continue
		}
		if best == "" || tick > bestTick {
			bestTick = tick
			best = filepath.Join(dir, name)
		}
	}
	return best
}

// restoreSnapshot rebuilds worlds, entities, players, and teams from a
// snapshot file. Component instances are not restored (see
// snapshot.SnapshotV1's doc comment) — an operator reattaches whatever
// components the game's startup wiring normally attaches, after which the
// restored Properties/Tags/Slots drive their behavior as before.
func restoreSnapshot(g *core.Game, path string) error {
	snap, err := snapshot.ReadSnapshot(path)
	if err != nil {
		return err
	}

	worlds := map[string]*core.World{}
	for _, wv := range snap.Worlds {
		w := core.NewWorld(g, wv.ID, wv.Name, g.Logger)
		g.AddWorld(w)
		worlds[wv.ID] = w
	}

	entities := map[string]*core.Entity{}
	for _, ev := range snap.Entities {
		e := core.NewEntity(g, ev.ID, ev.Name, g.Logger)
		e.Omnipotent = ev.Omnipotent
		for _, tag := range ev.Tags {
			e.Tags[tag] = struct{}{}
		}
		for _, pv := range ev.Properties {
			e.Properties[pv.Name] = property.New(ev.ID, pv.Name, pv.Current, pv.Min, pv.Max)
		}
		for _, gr := range ev.Abilities {
			e.Grant(gr.Ability, gr.GrantedBy, gr.Using)
		}
		for slot, occupant := range ev.Slots {
			e.Slots[slot] = occupant
		}
		g.AddEntity(e)
		entities[ev.ID] = e
		if ev.Published {
			if w, ok := worlds[ev.WorldID]; ok {
				e.Publish(w, geom.Vector{X: ev.Position[0], Y: ev.Position[1]})
			}
		}
		e.Active = ev.Active
	}

	teams := map[string]*core.Team{}
	for _, tv := range snap.Teams {
		t := core.NewTeam(g, tv.ID, tv.Name, g.Logger)
		g.AddTeam(t)
		teams[tv.ID] = t
	}

	for _, pv := range snap.Players {
		p := core.NewPlayer(pv.ID, pv.Name, g.Logger)
		p.ResumeToken = pv.ResumeToken
		g.AddPlayer(p)
		if pv.TeamID != "" {
			if t, ok := teams[pv.TeamID]; ok {
				t.AddPlayer(p)
			}
		}
		for _, eid := range pv.Entities {
			if e, ok := entities[eid]; ok {
				p.Entities[eid] = struct{}{}
				e.Owners[p.IDValue] = struct{}{}
			}
		}
	}
	return nil
}
