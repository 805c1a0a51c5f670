package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation failure
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all configuration values
type Config struct {
	Display    DisplayConfig    `yaml:"display"`
	World      WorldConfig      `yaml:"world"`
	Movement   MovementConfig   `yaml:"movement"`
	Planner    PlannerConfig    `yaml:"planner"`
	Simulation SimulationConfig `yaml:"simulation"`
	Logging    LoggingConfig    `yaml:"logging"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
}

type DisplayConfig struct {
	ScreenWidth  int    `yaml:"screen_width"`
	ScreenHeight int    `yaml:"screen_height"`
	WindowTitle  string `yaml:"window_title"`
	Resizable    bool   `yaml:"resizable"`
	ShowGrid     bool   `yaml:"show_grid"`
	ShowPaths    bool   `yaml:"show_paths"`
}

type WorldConfig struct {
	RenderTileSize   int    `yaml:"render_tile_size"`   // pixels per drawn tile
	MovementTileSize int    `yaml:"movement_tile_size"` // pixels per collision cell, divides RenderTileSize
	StartMap         string `yaml:"start_map"`
	MapConfigs       string `yaml:"map_configs"`
	TilesFile        string `yaml:"tiles_file"`
	ActorsFile       string `yaml:"actors_file"`
	AssetsDir        string `yaml:"assets_dir"`
}

type MovementConfig struct {
	DefaultSpeed  float64       `yaml:"default_speed"` // pixels per second
	MaxFrameDelta time.Duration `yaml:"max_frame_delta"`
}

type PlannerConfig struct {
	Workers int `yaml:"workers"` // 0 means one per CPU
}

type SimulationConfig struct {
	TPS      int `yaml:"tps"`
	MaxTicks int `yaml:"max_ticks"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type TelemetryConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Addr           string `yaml:"addr"`
	BroadcastEvery int    `yaml:"broadcast_every"` // ticks between snapshots
}

// TileConfig is the tile table in tiles.yaml
type TileConfig struct {
	TileData map[string]TileData `yaml:"tiles"`
}

type TileData struct {
	Name     string `yaml:"name"`
	Letter   string `yaml:"letter"`
	Walkable bool   `yaml:"walkable"`
	Color    [3]int `yaml:"color"`
}

// MapConfig describes one entry of map_configs.yaml
type MapConfig struct {
	Name        string `yaml:"name"`
	File        string `yaml:"file"`
	Description string `yaml:"description"`
}

type MapConfigs struct {
	Maps map[string]MapConfig `yaml:"maps"`
}

var GlobalConfig *Config

// DefaultConfig returns the values used when no file overrides them
func DefaultConfig() *Config {
	return &Config{
		Display: DisplayConfig{
			ScreenWidth:  960,
			ScreenHeight: 640,
			WindowTitle:  "gridwalk",
			ShowGrid:     true,
			ShowPaths:    true,
		},
		World: WorldConfig{
			RenderTileSize:   32,
			MovementTileSize: 16,
			StartMap:         "courtyard",
			MapConfigs:       "map_configs.yaml",
			TilesFile:        "tiles.yaml",
			ActorsFile:       "actors.yaml",
			AssetsDir:        "assets",
		},
		Movement: MovementConfig{
			DefaultSpeed:  64,
			MaxFrameDelta: 250 * time.Millisecond,
		},
		Simulation: SimulationConfig{TPS: 60, MaxTicks: 3600},
		Logging:    LoggingConfig{Level: "info", Format: "text"},
		Telemetry:  TelemetryConfig{Addr: "127.0.0.1:8089", BroadcastEvery: 6},
	}
}

// LoadConfig loads the configuration from a yaml file. Keys missing from the
// file keep their DefaultConfig values.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Set global config for easy access
	GlobalConfig = config

	return config, nil
}

// MustLoadConfig loads the configuration and panics on error
func MustLoadConfig(filename string) *Config {
	config, err := LoadConfig(filename)
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}
	return config
}

// Validate checks the values the navigation core depends on
func (c *Config) Validate() error {
	w := c.World
	if w.RenderTileSize <= 0 || w.MovementTileSize <= 0 {
		return fmt.Errorf("%w: tile sizes must be positive (render %d, movement %d)", ErrInvalidConfig, w.RenderTileSize, w.MovementTileSize)
	}
	if w.RenderTileSize%w.MovementTileSize != 0 {
		return fmt.Errorf("%w: movement tile size %d does not divide render tile size %d", ErrInvalidConfig, w.MovementTileSize, w.RenderTileSize)
	}
	if c.Movement.DefaultSpeed <= 0 {
		return fmt.Errorf("%w: movement.default_speed must be positive", ErrInvalidConfig)
	}
	if c.Movement.MaxFrameDelta < 0 {
		return fmt.Errorf("%w: movement.max_frame_delta must not be negative", ErrInvalidConfig)
	}
	if c.Planner.Workers < 0 {
		return fmt.Errorf("%w: planner.workers must not be negative", ErrInvalidConfig)
	}
	if c.Simulation.TPS <= 0 {
		return fmt.Errorf("%w: simulation.tps must be positive", ErrInvalidConfig)
	}
	return nil
}

// Helper functions for easy access to commonly used values
func (c *Config) GetScreenWidth() int {
	return c.Display.ScreenWidth
}

func (c *Config) GetScreenHeight() int {
	return c.Display.ScreenHeight
}

func (c *Config) GetRenderTileSize() int {
	return c.World.RenderTileSize
}

func (c *Config) GetMovementTileSize() int {
	return c.World.MovementTileSize
}

// GetTileRatio returns how many movement tiles span one render tile
func (c *Config) GetTileRatio() int {
	return c.World.RenderTileSize / c.World.MovementTileSize
}

func (c *Config) GetDefaultSpeed() float64 {
	return c.Movement.DefaultSpeed
}

func (c *Config) GetMaxFrameDelta() time.Duration {
	return c.Movement.MaxFrameDelta
}

func (c *Config) GetTPS() int {
	return c.Simulation.TPS
}

// GetFrameDuration returns the simulated time of one tick
func (c *Config) GetFrameDuration() time.Duration {
	return time.Second / time.Duration(c.Simulation.TPS)
}

// AssetPath joins a file name onto the assets directory
func (c *Config) AssetPath(name string) string {
	return filepath.Join(c.World.AssetsDir, name)
}
