package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/l1jgo/companions/internal/companion"
	"github.com/l1jgo/companions/internal/config"
	"github.com/l1jgo/companions/internal/content"
	"github.com/l1jgo/companions/internal/core/event"
	coresys "github.com/l1jgo/companions/internal/core/system"
	"github.com/l1jgo/companions/internal/data"
	"github.com/l1jgo/companions/internal/persist"
	"github.com/l1jgo/companions/internal/ring"
	"github.com/l1jgo/companions/internal/scripting"
	"github.com/l1jgo/companions/internal/system"
	"github.com/l1jgo/companions/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Object ids handed to summoning rings by the headless asset registry.
const ringObjectBase = 90000

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner() {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m            companions  v0.1.0             \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main loop ─────────────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfg, err := config.Load(config.Path())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner()

	// 3. Host data: locations, sounds, map spawns
	printSection("Host data")

	maps, missing, err := data.LoadMapData(cfg.Content.MapsFile, cfg.Content.TilesDir)
	if err != nil {
		return fmt.Errorf("load maps: %w", err)
	}
	for _, name := range missing {
		log.Warn("location has no tile file, all tiles open", zap.String("location", name))
	}
	printStat("Locations", maps.Count())

	soundIDs, err := data.LoadSoundList(cfg.Content.SoundsFile)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn("no sound list, sound ids are not checked", zap.String("path", cfg.Content.SoundsFile))
	} else if err != nil {
		return fmt.Errorf("load sounds: %w", err)
	}
	sounds := world.NewSoundBank(soundIDs, log)
	printStat("Sounds", sounds.Len())

	spawnTable, err := data.LoadSpawnTable(cfg.Content.SpawnsFile)
	if err != nil {
		return fmt.Errorf("load map spawns: %w", err)
	}
	printStat("Map spawns", spawnTable.Count())
	fmt.Println()

	// 4. Content packs
	printSection("Content packs")

	seed := cfg.Simulation.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := companion.NewRandom(seed)
	ws := world.NewState(maps, sounds, cfg.Simulation.Authoritative)
	reg := companion.NewRegistry(ws, rng, log)
	rings := data.NewRingTable()

	loader := content.NewLoader(cfg.Content.PacksDir, reg, rings, log)
	stats, err := loader.LoadAll()
	if err != nil {
		return fmt.Errorf("load content: %w", err)
	}
	nextID := ringObjectBase
	rings.AssignObjectIDs(func(string) (int, bool) {
		nextID++
		return nextID, true
	})
	printStat("Packs", stats.Packs)
	printStat("Companions", stats.Profiles)
	printStat("Rejected", stats.Rejected)
	printStat("Summoning rings", rings.Count())

	var engine *scripting.Engine
	if cfg.Scripting.Dir != "" {
		engine, err = scripting.NewEngine(cfg.Scripting.Dir, log)
		if err != nil {
			return fmt.Errorf("scripting: %w", err)
		}
		defer engine.Close()
		printOK("Spawn scripts loaded")
	}
	fmt.Println()

	// 5. Worn-ring storage
	printSection("Storage")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer closeStore()

	bus := event.NewBus()
	ringMgr := ring.NewManager(reg, rings, log)
	ringMgr.Subscribe(bus)

	if store != nil {
		worn, err := store.LoadWornRings(ctx)
		if err != nil {
			return fmt.Errorf("load worn rings: %w", err)
		}
		for _, w := range worn {
			if w.Location != "" {
				ws.PlaceAgent(w.AgentID, w.Location, w.Tile)
			}
		}
		printStat("Worn rings", len(worn))
		printStat("Followers restored", ringMgr.Restore(worn))
	} else {
		printOK("Storage disabled")
	}
	fmt.Println()

	// 6. Systems
	var filter system.SpawnFilter
	if engine != nil {
		filter = engine
	}
	mapSpawns := system.NewMapSpawnSystem(reg, ws, spawnTable, filter, rng, log)
	mapSpawns.Subscribe(bus)

	runner := coresys.NewRunner()
	runner.Register(system.NewEventDispatchSystem(bus))
	runner.Register(mapSpawns)
	runner.Register(system.NewCompanionSystem(reg, ws))
	var persistSys *system.PersistenceSystem
	if store != nil {
		saveEvery := int(5 * time.Second / cfg.Simulation.TickRate)
		persistSys = system.NewPersistenceSystem(ringMgr, store, log, saveEvery)
		runner.Register(persistSys)
	}
	runner.Register(system.NewCleanupSystem(reg))

	// The headless host keeps every location active.
	for _, name := range maps.Names() {
		event.Emit(bus, event.LocationLoaded{Location: name})
	}

	// 7. Hot reload
	var reloads <-chan string
	var watchErrs <-chan error
	if cfg.Content.Watch {
		dirs := loader.WatchDirs()
		if engine != nil {
			if _, err := os.Stat(cfg.Scripting.Dir); err == nil {
				dirs = append(dirs, cfg.Scripting.Dir)
			}
		}
		watcher, err := content.NewWatcher(dirs...)
		if err != nil {
			log.Warn("content watcher disabled", zap.Error(err))
		} else {
			defer watcher.Close()
			reloads = watcher.Events
			watchErrs = watcher.Errors
			printReady(fmt.Sprintf("Watching %d directories", len(dirs)))
		}
	}

	// 8. Frame loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Simulation.TickRate)
	defer ticker.Stop()

	printReady(fmt.Sprintf("Frame loop started (tick: %s, seed: %d)", cfg.Simulation.TickRate, seed))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Simulation.TickRate)
		case path, ok := <-reloads:
			if !ok {
				reloads = nil
				continue
			}
			reload(path, loader, engine, bus, log)
		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			log.Warn("content watcher error", zap.Error(err))
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			if persistSys != nil {
				persistSys.Flush()
			}
			log.Info("stopped", zap.Int("live_companions", reg.Len()))
			return nil
		}
	}
}

func reload(path string, loader *content.Loader, engine *scripting.Engine, bus *event.Bus, log *zap.Logger) {
	if content.IsScript(path) {
		if engine == nil {
			return
		}
		if err := engine.Reload(); err != nil {
			log.Warn("spawn script reload failed", zap.String("file", path), zap.Error(err))
		}
		return
	}
	pack, stats, err := loader.Reload(path)
	if err != nil {
		log.Warn("content reload failed", zap.String("file", path), zap.Error(err))
		return
	}
	log.Info("content pack reloaded",
		zap.String("pack", pack),
		zap.Int("changed", stats.Profiles),
		zap.Int("rejected", stats.Rejected),
	)
	event.Emit(bus, event.ProfileReloaded{Pack: pack, Changed: stats.Profiles})
}

// openStore picks the worn-ring backend. A nil store disables persistence.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (ring.Store, func(), error) {
	switch cfg.Storage.Backend {
	case "postgres":
		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return nil, nil, fmt.Errorf("database: %w", err)
		}
		printOK("PostgreSQL connected")
		if _, err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrations: %w", err)
		}
		printOK("Migrations applied")
		return persist.NewRingRepo(db), db.Close, nil
	case "local":
		s, err := persist.OpenLocalStore(cfg.Storage.AppName, log)
		if err != nil {
			return nil, nil, err
		}
		printOK("Local save data opened")
		return s, func() {}, nil
	}
	return nil, func() {}, nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
