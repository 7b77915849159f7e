// Package config loads server and simulation settings from YAML with
// VILLAGE_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"villagelife/internal/domain/resource"
	"villagelife/internal/domain/village"
	"villagelife/internal/domain/world"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Server     Server     `yaml:"server"`
	Database   Database   `yaml:"database"`
	Simulation Simulation `yaml:"simulation"`
	Catalog    Catalog    `yaml:"catalog"`
	Character  Character  `yaml:"character"`
	Save       Save       `yaml:"save"`
}

type Server struct {
	Addr string `yaml:"addr"`
}

type Database struct {
	DSN           string `yaml:"dsn"`
	MigrationsDir string `yaml:"migrations_dir"`
	MaxOpenConns  int    `yaml:"max_open_conns"`
	Verbose       bool   `yaml:"verbose"`
}

type Simulation struct {
	TimeScale       float64       `yaml:"time_scale"`
	FixedStep       time.Duration `yaml:"fixed_step"`
	TickInterval    time.Duration `yaml:"tick_interval"`
	StorageCapacity float64       `yaml:"storage_capacity"`
	Seed            int64         `yaml:"seed"`
	Start           StartDate     `yaml:"start"`
	IgnoreWeather   bool          `yaml:"ignore_weather"`
}

type StartDate struct {
	Year   int    `yaml:"year"`
	Season string `yaml:"season"`
	Day    int    `yaml:"day"`
	Hour   int    `yaml:"hour"`
	Minute int    `yaml:"minute"`
}

// Catalog.Dir empty means the embedded default catalog.
type Catalog struct {
	Dir string `yaml:"dir"`
}

type Character struct {
	File string `yaml:"file"`
	Name string `yaml:"name"`
}

type Save struct {
	Slot             string        `yaml:"slot"`
	AutosaveInterval time.Duration `yaml:"autosave_interval"`
	RestoreOnStart   bool          `yaml:"restore_on_start"`
}

func Default() Config {
	start := world.DefaultStartDate()
	return Config{
		Server: Server{Addr: ":8080"},
		Simulation: Simulation{
			TimeScale:       world.DefaultTimeScale,
			FixedStep:       world.DefaultFixedStep,
			TickInterval:    50 * time.Millisecond,
			StorageCapacity: resource.DefaultCapacity,
			Start: StartDate{
				Year:   start.Year,
				Season: string(start.Season),
				Day:    start.Day,
				Hour:   start.Hour,
				Minute: start.Minute,
			},
		},
		Character: Character{Name: "Villager"},
		Save: Save{
			Slot:             "default",
			AutosaveInterval: 5 * time.Minute,
			RestoreOnStart:   true,
		},
	}
}

// Load reads path over the defaults and applies the environment. A missing
// file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, err
		default:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return Config{}, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
			}
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) ApplyEnv() {
	c.Server.Addr = stringEnv("VILLAGE_ADDR", c.Server.Addr)
	c.Database.DSN = stringEnv("VILLAGE_DB_DSN", c.Database.DSN)
	c.Database.MigrationsDir = stringEnv("VILLAGE_MIGRATIONS_DIR", c.Database.MigrationsDir)
	c.Database.MaxOpenConns = intEnv("VILLAGE_DB_MAX_OPEN_CONNS", c.Database.MaxOpenConns)
	c.Simulation.TimeScale = floatEnv("VILLAGE_TIME_SCALE", c.Simulation.TimeScale)
	c.Simulation.FixedStep = durationEnv("VILLAGE_FIXED_STEP", c.Simulation.FixedStep)
	c.Simulation.TickInterval = durationEnv("VILLAGE_TICK_INTERVAL", c.Simulation.TickInterval)
	c.Simulation.StorageCapacity = floatEnv("VILLAGE_STORAGE_CAPACITY", c.Simulation.StorageCapacity)
	c.Simulation.Seed = int64(intEnv("VILLAGE_SEED", int(c.Simulation.Seed)))
	c.Simulation.IgnoreWeather = boolEnv("VILLAGE_IGNORE_WEATHER", c.Simulation.IgnoreWeather)
	c.Catalog.Dir = stringEnv("VILLAGE_CATALOG_DIR", c.Catalog.Dir)
	c.Character.File = stringEnv("VILLAGE_CHARACTER_FILE", c.Character.File)
	c.Save.Slot = stringEnv("VILLAGE_SAVE_SLOT", c.Save.Slot)
	c.Save.AutosaveInterval = durationEnv("VILLAGE_AUTOSAVE_INTERVAL", c.Save.AutosaveInterval)
}

func (c Config) Validate() error {
	switch {
	case c.Simulation.TimeScale <= 0:
		return fmt.Errorf("%w: time_scale must be positive", ErrInvalidConfig)
	case c.Simulation.FixedStep <= 0:
		return fmt.Errorf("%w: fixed_step must be positive", ErrInvalidConfig)
	case c.Simulation.TickInterval <= 0:
		return fmt.Errorf("%w: tick_interval must be positive", ErrInvalidConfig)
	case c.Simulation.StorageCapacity <= 0:
		return fmt.Errorf("%w: storage_capacity must be positive", ErrInvalidConfig)
	case c.Save.AutosaveInterval < 0:
		return fmt.Errorf("%w: autosave_interval must not be negative", ErrInvalidConfig)
	}
	if _, err := c.Simulation.StartDate(); err != nil {
		return fmt.Errorf("%w: start date: %w", ErrInvalidConfig, err)
	}
	return nil
}

func (s Simulation) StartDate() (world.GameDate, error) {
	season, err := world.ParseSeason(s.Start.Season)
	if err != nil {
		return world.GameDate{}, err
	}
	d := world.GameDate{
		Year:   s.Start.Year,
		Season: season,
		Day:    s.Start.Day,
		Hour:   s.Start.Hour,
		Minute: s.Start.Minute,
	}
	return d, d.Validate()
}

// GameConfig translates the simulation section. The start date must have
// passed Validate.
func (s Simulation) GameConfig() village.Config {
	start, _ := s.StartDate()
	return village.Config{
		Clock: world.ClockConfig{
			Start:     start,
			TimeScale: s.TimeScale,
			FixedStep: s.FixedStep,
		},
		StorageCapacity: s.StorageCapacity,
		Seed:            s.Seed,
		IgnoreWeather:   s.IgnoreWeather,
	}
}

func stringEnv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func intEnv(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func floatEnv(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return n
}

func boolEnv(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
