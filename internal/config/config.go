// Package config loads the simulation tuning file. Every knob has a
// compiled-in default so the YAML file is optional.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the simulation tuning parameters.
type Config struct {
	Seed           int64 `yaml:"seed"`
	TickIntervalMs int   `yaml:"tick_interval_ms"`
	DayTicks       int   `yaml:"day_ticks"`

	// Agent pacing.
	ActionDelayTicks int `yaml:"action_delay_ticks"`
	GatherRate       int `yaml:"gather_rate"`
	BuildRate        int `yaml:"build_rate"`

	// Search budgets. NearestBudget caps the BFS fallback; the escalating
	// search starts far below it and grows geometrically. Watchtowers add
	// WatchtowerBonus each to the BFS cap.
	AStarBudget     int `yaml:"astar_budget"`
	NearestBudget   int `yaml:"nearest_budget"`
	WatchtowerBonus int `yaml:"watchtower_bonus"`

	ClusterLinkDistance int `yaml:"cluster_link_distance"`

	// Storage targets drive gather dispatch; capacity bounds the depot.
	WoodTarget      int `yaml:"wood_target"`
	StoneTarget     int `yaml:"stone_target"`
	StorageCapacity int `yaml:"storage_capacity"`

	FarmFoodInterval int `yaml:"farm_food_interval"` // ticks between farm yields

	SnapshotEvery int    `yaml:"snapshot_every"` // ticks between DB saves; 0 disables
	DBPath        string `yaml:"db_path"`
	APIPort       int    `yaml:"api_port"`
}

// Default returns the standard tuning.
func Default() Config {
	return Config{
		Seed:                42,
		TickIntervalMs:      100,
		DayTicks:            1440,
		ActionDelayTicks:    3,
		GatherRate:          1,
		BuildRate:           1,
		AStarBudget:         50000,
		NearestBudget:       10000,
		WatchtowerBonus:     5000,
		ClusterLinkDistance: 8,
		WoodTarget:          50,
		StoneTarget:         40,
		StorageCapacity:     500,
		FarmFoodInterval:    300,
		SnapshotEvery:       600,
		DBPath:              "data/hamlet.db",
		APIPort:             8080,
	}
}

// Load reads a YAML tuning file over the defaults. A missing path returns
// the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("tuning %s: %w", path, err)
	}
	return cfg, nil
}
