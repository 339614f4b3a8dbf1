// Package config provides Viper-based configuration loading for the dungeon engine.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// GameConfig holds the simulation settings of a new session.
type GameConfig struct {
	// Seed drives every random roll; a fixed seed replays identically. A
	// negative seed draws a fresh one at startup.
	Seed int64 `mapstructure:"seed"`
	// TickRate is the outer loop cadence.
	TickRate time.Duration `mapstructure:"tick_rate"`
	// HistorySize is the event bus history capacity.
	HistorySize int `mapstructure:"history_size"`
	// MessageLimit is the number of log lines kept for display.
	MessageLimit     int    `mapstructure:"message_limit"`
	ArenaWidth       int    `mapstructure:"arena_width"`
	ArenaHeight      int    `mapstructure:"arena_height"`
	StartDepth       int    `mapstructure:"start_depth"`
	MaxDepth         int    `mapstructure:"max_depth"`
	MonstersPerLevel int    `mapstructure:"monsters_per_level"`
	HungerInterval   uint32 `mapstructure:"hunger_interval"`
	PlayerName       string `mapstructure:"player_name"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// File redirects log output to a file. Empty means stderr. The TUI needs
	// a file so that log lines do not tear the screen.
	File string `mapstructure:"file"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// Addr returns the "host:port" of the database server.
func (d DatabaseConfig) Addr() string {
	return fmt.Sprintf("%s:%d", d.Host, d.Port)
}

// ContentConfig locates data files. Empty paths select the built-in content.
type ContentConfig struct {
	BossFile        string `mapstructure:"boss_file"`
	AchievementFile string `mapstructure:"achievement_file"`
	MonsterDir      string `mapstructure:"monster_dir"`
	DomainDir       string `mapstructure:"domain_dir"`
	// ScriptDir holds bosses/ and ai/ Lua scripts. Empty disables scripting.
	ScriptDir string `mapstructure:"script_dir"`
	// InstructionLimit bounds every script hook call.
	InstructionLimit int `mapstructure:"instruction_limit"`
	// HotReload reloads scripts when their files change.
	HotReload bool `mapstructure:"hot_reload"`
}

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// StorageConfig selects where save slots live.
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
	// Dir is the save directory of the file backend.
	Dir   string `mapstructure:"dir"`
	Slots int    `mapstructure:"slots"`
	// AutosaveInterval is the number of turns between autosaves; 0 disables.
	AutosaveInterval uint32 `mapstructure:"autosave_interval"`
	AutosaveSlot     string `mapstructure:"autosave_slot"`
	QuickSlot        string `mapstructure:"quick_slot"`
}

// SpectatorConfig holds the read-only websocket frame feed settings.
type SpectatorConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (s SpectatorConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Config is the top-level application configuration.
type Config struct {
	Game      GameConfig      `mapstructure:"game"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Content   ContentConfig   `mapstructure:"content"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Spectator SpectatorConfig `mapstructure:"spectator"`
}

// Validate checks all configuration invariants. Database settings are only
// checked when the postgres backend is selected.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateGame(c.Game); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateContent(c.Content); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateStorage(c.Storage); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Storage.Backend == BackendPostgres {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if c.Spectator.Enabled {
		if err := validateSpectator(c.Spectator); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func joined(errs []string) error {
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateGame(g GameConfig) error {
	var errs []string
	if g.TickRate <= 0 {
		errs = append(errs, fmt.Sprintf("game.tick_rate must be > 0, got %s", g.TickRate))
	}
	if g.ArenaWidth < 3 || g.ArenaHeight < 3 {
		errs = append(errs, fmt.Sprintf("game.arena must be at least 3x3, got %dx%d", g.ArenaWidth, g.ArenaHeight))
	}
	if g.StartDepth < 1 {
		errs = append(errs, fmt.Sprintf("game.start_depth must be >= 1, got %d", g.StartDepth))
	}
	if g.MaxDepth < g.StartDepth {
		errs = append(errs, fmt.Sprintf("game.max_depth must be >= start_depth, got %d < %d", g.MaxDepth, g.StartDepth))
	}
	if g.MonstersPerLevel < 0 {
		errs = append(errs, fmt.Sprintf("game.monsters_per_level must be >= 0, got %d", g.MonstersPerLevel))
	}
	if g.HungerInterval == 0 {
		errs = append(errs, "game.hunger_interval must be > 0")
	}
	if g.MessageLimit < 1 {
		errs = append(errs, fmt.Sprintf("game.message_limit must be >= 1, got %d", g.MessageLimit))
	}
	return joined(errs)
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	return joined(errs)
}

func validateContent(c ContentConfig) error {
	if c.InstructionLimit < 0 {
		return fmt.Errorf("content.instruction_limit must be >= 0, got %d", c.InstructionLimit)
	}
	if c.HotReload && c.ScriptDir == "" {
		return fmt.Errorf("content.hot_reload requires content.script_dir")
	}
	return nil
}

func validateStorage(s StorageConfig) error {
	var errs []string
	switch s.Backend {
	case BackendMemory, BackendPostgres:
	case BackendFile:
		if s.Dir == "" {
			errs = append(errs, "storage.dir must not be empty for the file backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("storage.backend must be one of [memory, file, postgres], got %q", s.Backend))
	}
	if s.Slots < 1 {
		errs = append(errs, fmt.Sprintf("storage.slots must be >= 1, got %d", s.Slots))
	}
	if s.AutosaveInterval > 0 && s.AutosaveSlot == "" {
		errs = append(errs, "storage.autosave_slot must not be empty when autosave is enabled")
	}
	if s.QuickSlot == "" {
		errs = append(errs, "storage.quick_slot must not be empty")
	}
	return joined(errs)
}

func validateSpectator(s SpectatorConfig) error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("spectator.port must be 1-65535, got %d", s.Port)
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. An empty path uses defaults and the
// environment only.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()

	// Environment variable overrides with DUNGEON_ prefix
	v.SetEnvPrefix("DUNGEON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}
	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// NewViper returns a Viper instance holding only the defaults.
func NewViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("game.seed", 12345)
	v.SetDefault("game.tick_rate", "16ms")
	v.SetDefault("game.history_size", 1000)
	v.SetDefault("game.message_limit", 100)
	v.SetDefault("game.arena_width", 40)
	v.SetDefault("game.arena_height", 20)
	v.SetDefault("game.start_depth", 1)
	v.SetDefault("game.max_depth", 25)
	v.SetDefault("game.monsters_per_level", 6)
	v.SetDefault("game.hunger_interval", 10)
	v.SetDefault("game.player_name", "Adventurer")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file", "")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "dungeon")
	v.SetDefault("database.password", "dungeon")
	v.SetDefault("database.name", "dungeon")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("content.boss_file", "")
	v.SetDefault("content.achievement_file", "")
	v.SetDefault("content.monster_dir", "")
	v.SetDefault("content.domain_dir", "")
	v.SetDefault("content.script_dir", "content/scripts")
	v.SetDefault("content.instruction_limit", 100000)
	v.SetDefault("content.hot_reload", false)

	v.SetDefault("storage.backend", BackendFile)
	v.SetDefault("storage.dir", "saves")
	v.SetDefault("storage.slots", 10)
	v.SetDefault("storage.autosave_interval", 100)
	v.SetDefault("storage.autosave_slot", "autosave")
	v.SetDefault("storage.quick_slot", "quick")

	v.SetDefault("spectator.enabled", false)
	v.SetDefault("spectator.host", "127.0.0.1")
	v.SetDefault("spectator.port", 7070)
}
