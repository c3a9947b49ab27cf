// Package config provides Viper-based configuration loading for the simulator.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. WILDMIND_LOGGING_LEVEL.
const EnvPrefix = "WILDMIND"

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// Output is "stderr", "stdout", or a file path.
	Output string `mapstructure:"output"`
}

// SimulationConfig controls the tick loop.
type SimulationConfig struct {
	// TickInterval is the wall-clock time between steps.
	TickInterval time.Duration `mapstructure:"tick_interval"`
	// MaxTicks stops the loop after this many steps; 0 runs until interrupted.
	MaxTicks int `mapstructure:"max_ticks"`
	// Seed makes randomness reproducible; 0 selects the crypto source.
	Seed int64 `mapstructure:"seed"`
}

// ContentConfig locates the YAML and Lua content.
type ContentConfig struct {
	MapFile         string `mapstructure:"map_file"`
	NPCDir          string `mapstructure:"npc_dir"`
	DispositionFile string `mapstructure:"disposition_file"`
	// ScriptDir is optional; when set, its scripts back the "scripted" target policy.
	ScriptDir string `mapstructure:"script_dir"`
	// ScriptInstructionLimit bounds each Lua call; 0 means unlimited.
	ScriptInstructionLimit int `mapstructure:"script_instruction_limit"`
}

// PathfindingConfig tunes the A* finder and its cache.
type PathfindingConfig struct {
	AllowDiagonal bool `mapstructure:"allow_diagonal"`
	MaxNodes      int  `mapstructure:"max_nodes"`
	// CacheTTL bounds cached path lifetime; 0 disables the cache.
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`
	CacheSize int           `mapstructure:"cache_size"`
}

// EventsConfig controls the Redis stream publisher.
type EventsConfig struct {
	// RedisAddr is host:port or a redis:// URL; empty disables publishing.
	RedisAddr    string `mapstructure:"redis_addr"`
	StreamPrefix string `mapstructure:"stream_prefix"`
	// History is the number of records kept in memory per actor; 0 keeps none.
	History int `mapstructure:"history"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging     LoggingConfig     `mapstructure:"logging"`
	Simulation  SimulationConfig  `mapstructure:"simulation"`
	Content     ContentConfig     `mapstructure:"content"`
	Pathfinding PathfindingConfig `mapstructure:"pathfinding"`
	Events      EventsConfig      `mapstructure:"events"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string
	for _, err := range []error{
		validateLogging(c.Logging),
		validateSimulation(c.Simulation),
		validateContent(c.Content),
		validatePathfinding(c.Pathfinding),
		validateEvents(c.Events),
	} {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
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
	if l.Output == "" {
		return errors.New("logging.output must not be empty")
	}
	return nil
}

func validateSimulation(s SimulationConfig) error {
	var errs []string
	if s.TickInterval <= 0 {
		errs = append(errs, fmt.Sprintf("simulation.tick_interval must be > 0, got %s", s.TickInterval))
	}
	if s.MaxTicks < 0 {
		errs = append(errs, fmt.Sprintf("simulation.max_ticks must be >= 0, got %d", s.MaxTicks))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateContent(c ContentConfig) error {
	var errs []string
	if c.MapFile == "" {
		errs = append(errs, "content.map_file must not be empty")
	}
	if c.NPCDir == "" {
		errs = append(errs, "content.npc_dir must not be empty")
	}
	if c.DispositionFile == "" {
		errs = append(errs, "content.disposition_file must not be empty")
	}
	if c.ScriptInstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("content.script_instruction_limit must be >= 0, got %d", c.ScriptInstructionLimit))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validatePathfinding(p PathfindingConfig) error {
	var errs []string
	if p.MaxNodes < 1 {
		errs = append(errs, fmt.Sprintf("pathfinding.max_nodes must be >= 1, got %d", p.MaxNodes))
	}
	if p.CacheTTL < 0 {
		errs = append(errs, "pathfinding.cache_ttl must not be negative")
	}
	if p.CacheSize < 1 {
		errs = append(errs, fmt.Sprintf("pathfinding.cache_size must be >= 1, got %d", p.CacheSize))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateEvents(e EventsConfig) error {
	if e.History < 0 {
		return fmt.Errorf("events.history must be >= 0, got %d", e.History)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := NewViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromViper(v)
}

// NewViper returns a Viper instance with defaults and WILDMIND_ environment
// overrides installed but no file read.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
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

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("simulation.tick_interval", "500ms")
	v.SetDefault("simulation.max_ticks", 0)
	v.SetDefault("simulation.seed", 0)

	v.SetDefault("content.map_file", "content/maps/meadow.yaml")
	v.SetDefault("content.npc_dir", "content/npcs")
	v.SetDefault("content.disposition_file", "content/disposition.yaml")
	v.SetDefault("content.script_dir", "")
	v.SetDefault("content.script_instruction_limit", 100000)

	v.SetDefault("pathfinding.allow_diagonal", true)
	v.SetDefault("pathfinding.max_nodes", 4096)
	v.SetDefault("pathfinding.cache_ttl", "2s")
	v.SetDefault("pathfinding.cache_size", 1024)

	v.SetDefault("events.redis_addr", "")
	v.SetDefault("events.stream_prefix", "wildmind:events")
	v.SetDefault("events.history", 1024)
}
