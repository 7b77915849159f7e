package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"villagelife/db"
	staticcatalog "villagelife/internal/adapter/catalog/static"
	memorycharacter "villagelife/internal/adapter/character/memory"
	staticcharacter "villagelife/internal/adapter/character/static"
	httpadapter "villagelife/internal/adapter/http"
	metricsinmem "villagelife/internal/adapter/metrics/inmemory"
	gormrepo "villagelife/internal/adapter/repo/gorm"
	"villagelife/internal/adapter/repo/memory"
	"villagelife/internal/app/ports"
	"villagelife/internal/app/replay"
	"villagelife/internal/app/resources"
	"villagelife/internal/app/savegame"
	"villagelife/internal/app/session"
	"villagelife/internal/app/status"
	"villagelife/internal/app/tasks"
	"villagelife/internal/app/tick"
	"villagelife/internal/config"
	"villagelife/internal/domain/task"
	"villagelife/internal/domain/village"

	"github.com/cloudwego/hertz/pkg/app/server"
)

const defaultConfigPath = "config/game.yaml"

type repos struct {
	saves  ports.SaveRepository
	events ports.EventRepository
	tx     ports.TxManager
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		fatal(logger, "load config", err)
	}
	catalog, err := loadCatalog(ctx, staticcatalog.Provider{Root: cfg.Catalog.Dir}, logger)
	if err != nil {
		fatal(logger, "load task catalog", err)
	}
	characters, err := loadCharacter(ctx, cfg.Character)
	if err != nil {
		fatal(logger, "load character", err)
	}
	r, err := buildRepos(ctx, cfg.Database)
	if err != nil {
		fatal(logger, "build repositories", err)
	}

	sess := session.New(village.New(catalog, cfg.Simulation.GameConfig()), cfg.Save.Slot)
	defer sess.Close()
	kpiRecorder := metricsinmem.NewRecorder()

	saveUC := savegame.UseCase{
		TxManager: r.tx,
		Saves:     r.saves,
		Events:    r.events,
		Session:   sess,
		Metrics:   kpiRecorder,
		Logger:    logger,
		Now:       time.Now,
	}
	tickUC := tick.UseCase{
		Session: sess,
		Events:  r.events,
		Metrics: kpiRecorder,
		Logger:  logger,
		Now:     time.Now,
	}

	if cfg.Save.RestoreOnStart {
		restore(ctx, saveUC, logger)
	}
	go runSimulation(ctx, tickUC, saveUC, cfg.Simulation.TickInterval, cfg.Save.AutosaveInterval, logger)

	h := httpadapter.Handler{
		StatusUC:    status.UseCase{Session: sess, Characters: characters},
		TasksUC:     tasks.UseCase{Session: sess, Characters: characters, Metrics: kpiRecorder, Logger: logger},
		ResourcesUC: resources.UseCase{Session: sess},
		TickUC:      tickUC,
		SaveUC:      saveUC,
		ReplayUC:    replay.UseCase{Events: r.events},
		KPI:         kpiRecorder,
	}

	s := server.Default(server.WithHostPorts(cfg.Server.Addr))
	h.RegisterRoutes(s)

	logger.Info("village server listening", "addr", cfg.Server.Addr, "slot", sess.Slot(), "persistent", cfg.Database.DSN != "")
	s.Spin()

	cancel()
	if _, err := saveUC.Save(context.Background(), savegame.SaveRequest{}); err != nil {
		logger.Error("final save failed", "err", err)
	}
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "err", err)
	os.Exit(1)
}

func resolveConfigPath() string {
	if p := strings.TrimSpace(os.Getenv("VILLAGE_CONFIG")); p != "" {
		return p
	}
	return defaultConfigPath
}

func loadCatalog(ctx context.Context, loader ports.CatalogLoader, logger *slog.Logger) (*task.Catalog, error) {
	templates, chains, err := loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	catalog, issues := task.NewCatalog(templates, chains)
	for _, is := range issues {
		logger.Warn("catalog entry skipped", "section", is.Section, "key", is.Key, "err", is.Err)
	}
	return catalog, nil
}

// loadCharacter seeds the in-memory character from the sheet. A missing
// sheet starts a fresh level 1 character.
func loadCharacter(ctx context.Context, cfg config.Character) (*memorycharacter.Provider, error) {
	seed := ports.Character{Name: cfg.Name, VillageLevel: 1}
	if strings.TrimSpace(cfg.File) != "" {
		c, err := staticcharacter.Provider{Path: cfg.File}.Character(ctx)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			seed = c
			if seed.Name == "" {
				seed.Name = cfg.Name
			}
		}
	}
	return memorycharacter.New(seed), nil
}

func buildRepos(ctx context.Context, cfg config.Database) (repos, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		store := memory.NewStore()
		return repos{
			saves:  memory.NewSaveRepo(store),
			events: memory.NewEventRepo(store),
			tx:     memory.NewTxManager(store),
		}, nil
	}
	gdb, err := gormrepo.OpenPostgresWithOptions(cfg.DSN, gormrepo.Options{
		MaxOpenConns: cfg.MaxOpenConns,
		Verbose:      cfg.Verbose,
	})
	if err != nil {
		return repos{}, err
	}
	if cfg.MigrationsDir != "" {
		err = gormrepo.ApplyMigrations(ctx, gdb, cfg.MigrationsDir)
	} else {
		err = gormrepo.ApplyMigrationsFS(ctx, gdb, db.Migrations())
	}
	if err != nil {
		return repos{}, err
	}
	return repos{
		saves:  gormrepo.NewSaveRepo(gdb),
		events: gormrepo.NewEventRepo(gdb),
		tx:     gormrepo.NewTxManager(gdb),
	}, nil
}

func restore(ctx context.Context, uc savegame.UseCase, logger *slog.Logger) {
	resp, err := uc.Load(ctx, savegame.LoadRequest{})
	switch {
	case errors.Is(err, ports.ErrNotFound):
		logger.Info("no saved game, starting fresh", "slot", uc.Session.Slot())
	case err != nil:
		logger.Warn("restore failed, starting fresh", "slot", uc.Session.Slot(), "err", err)
	default:
		logger.Info("restored saved game", "slot", resp.Slot, "version", resp.Version, "game_date", resp.GameDate, "issues", len(resp.Issues))
	}
}

// runSimulation drives the fixed-step clock from the wall clock and
// autosaves until ctx is done.
func runSimulation(ctx context.Context, tickUC tick.UseCase, saveUC savegame.UseCase, every, autosaveEvery time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	var autosave <-chan time.Time
	if autosaveEvery > 0 {
		t := time.NewTicker(autosaveEvery)
		defer t.Stop()
		autosave = t.C
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := tickUC.Execute(ctx, tick.Request{}); err != nil {
				logger.Error("tick failed", "err", err)
			}
		case <-autosave:
			if resp, err := saveUC.Save(ctx, savegame.SaveRequest{}); err != nil {
				logger.Warn("autosave failed", "slot", saveUC.Session.Slot(), "err", err)
			} else {
				logger.Debug("autosaved", "slot", resp.Slot, "version", resp.Version)
			}
		}
	}
}
