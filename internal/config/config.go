// Package config loads the TOML or YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/amalg/go-sokoban/internal/game"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Game    GameConfig    `toml:"game" yaml:"game"`
	Logging LoggingConfig `toml:"logging" yaml:"logging"`
	Network NetworkConfig `toml:"network" yaml:"network"`
	Desktop DesktopConfig `toml:"desktop" yaml:"desktop"`
}

type GameConfig struct {
	TickRate        int      `toml:"tick_rate" yaml:"tick_rate"`               // ticks per second
	Priority        []string `toml:"priority" yaml:"priority"`                 // key evaluation order, last pressed wins
	CheckInvariants bool     `toml:"check_invariants" yaml:"check_invariants"` // verify the grid after every tick
}

type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"` // "json" or "console"
	File   string `toml:"file" yaml:"file"`
}

type NetworkConfig struct {
	Addr          string `toml:"addr" yaml:"addr"`
	Name          string `toml:"name" yaml:"name"`
	BroadcastPort int    `toml:"broadcast_port" yaml:"broadcast_port"`
}

type DesktopConfig struct {
	CellSize int    `toml:"cell_size" yaml:"cell_size"`
	Title    string `toml:"title" yaml:"title"`
}

// Load reads path on top of the defaults and applies environment overrides.
// An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			err = yaml.Unmarshal(data, cfg)
		default:
			err = toml.Unmarshal(data, cfg)
		}
		if err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Game: GameConfig{
			TickRate: 20,
			Priority: []string{"left", "right", "down", "up"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Network: NetworkConfig{
			Addr:          ":9999",
			Name:          "Sokoban",
			BroadcastPort: 9998,
		},
		Desktop: DesktopConfig{
			CellSize: 48,
			Title:    "Sokoban!",
		},
	}
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("SOKOBAN_TICK_RATE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: SOKOBAN_TICK_RATE=%q: %v", ErrInvalidConfig, v, err)
		}
		c.Game.TickRate = n
	}
	if v := os.Getenv("SOKOBAN_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("SOKOBAN_ADDR"); v != "" {
		c.Network.Addr = v
	}
	return nil
}

// Validate checks ranges and the key priority list.
func (c *Config) Validate() error {
	if c.Game.TickRate < 1 || c.Game.TickRate > 240 {
		return fmt.Errorf("%w: game.tick_rate must be between 1 and 240, got %d", ErrInvalidConfig, c.Game.TickRate)
	}
	if _, err := c.Priority(); err != nil {
		return err
	}
	if c.Desktop.CellSize <= 0 {
		return fmt.Errorf("%w: desktop.cell_size must be positive, got %d", ErrInvalidConfig, c.Desktop.CellSize)
	}
	if c.Network.BroadcastPort <= 0 || c.Network.BroadcastPort > 65535 {
		return fmt.Errorf("%w: network.broadcast_port out of range: %d", ErrInvalidConfig, c.Network.BroadcastPort)
	}
	return nil
}

// Priority parses game.priority. It must name each direction exactly once.
func (c *Config) Priority() ([]game.Direction, error) {
	if len(c.Game.Priority) != len(game.Directions) {
		return nil, fmt.Errorf("%w: game.priority must list %d directions, got %d",
			ErrInvalidConfig, len(game.Directions), len(c.Game.Priority))
	}
	seen := make(map[game.Direction]bool)
	out := make([]game.Direction, 0, len(c.Game.Priority))
	for _, name := range c.Game.Priority {
		d, err := game.ParseDirection(name)
		if err != nil || d == game.DirNone {
			return nil, fmt.Errorf("%w: game.priority: unknown direction %q", ErrInvalidConfig, name)
		}
		if seen[d] {
			return nil, fmt.Errorf("%w: game.priority: %s listed twice", ErrInvalidConfig, d)
		}
		seen[d] = true
		out = append(out, d)
	}
	return out, nil
}

// EngineConfig converts the game section into engine tunables.
func (c *Config) EngineConfig() game.GameConfig {
	cfg := game.DefaultConfig()
	cfg.TickRate = c.Game.TickRate
	if p, err := c.Priority(); err == nil {
		cfg.Priority = p
	}
	return cfg
}
