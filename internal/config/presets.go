package config

import (
	"maps"
	"slices"
	"time"
)

// preset builds a config from the defaults.
func preset(mutate func(c *Config)) *Config {
	c := DefaultConfig()
	mutate(c)
	return c
}

// Presets are keyed by scenario, then by name. The gains and tolerances
// are those the competition robot ran with.
var Presets = map[string]map[string]*Config{
	"drive-x": {
		"default": preset(func(c *Config) {}),
		"limited": preset(func(c *Config) {
			c.LinearPID.OutputLimit = ptr(0.5)
		}),
		"long": preset(func(c *Config) {
			c.Target = 72
			c.Duration = 15
		}),
		"strict": preset(func(c *Config) {
			c.LinearTolerance.Error = ptr(0.0)
			c.Timeout = ptr(200 * time.Millisecond)
		}),
	},
	"drive-y": {
		"default": preset(func(c *Config) {
			c.Scenario = "drive-y"
			c.HeadingDeg = 90
			c.Robot.StartHeadingDeg = 90
		}),
		"crab": preset(func(c *Config) {
			c.Scenario = "drive-y"
			c.Target = 12
			c.HeadingDeg = 90
		}),
	},
	"distance": {
		"default": preset(func(c *Config) {
			c.Scenario = "distance"
			c.Target = 36
		}),
		"reverse": preset(func(c *Config) {
			c.Scenario = "distance"
			c.Target = -24
		}),
		"diagonal": preset(func(c *Config) {
			c.Scenario = "distance"
			c.Target = 24
			c.HeadingDeg = 45
			c.Robot.StartHeadingDeg = 45
		}),
	},
	"turn": {
		"quarter": preset(func(c *Config) {
			c.Scenario = "turn"
			c.Target = 0
			c.HeadingDeg = 90
		}),
		"about-face": preset(func(c *Config) {
			c.Scenario = "turn"
			c.Target = 0
			c.HeadingDeg = 179
		}),
		"wrap": preset(func(c *Config) {
			c.Scenario = "turn"
			c.Target = 0
			c.HeadingDeg = 10
			c.Robot.StartHeadingDeg = 350
		}),
	},
	"wall": {
		"default": preset(func(c *Config) {
			c.Scenario = "wall"
			c.Target = 20
			c.Robot.StartX = 10
		}),
		"close": preset(func(c *Config) {
			c.Scenario = "wall"
			c.Target = 6
			c.Robot.StartX = 18
		}),
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(scenario, name string) *Config {
	scenarioPresets, ok := Presets[scenario]
	if !ok {
		return nil
	}
	cfg, ok := scenarioPresets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

// ListPresets returns the preset names of a scenario in sorted order.
func ListPresets(scenario string) []string {
	scenarioPresets, ok := Presets[scenario]
	if !ok {
		return nil
	}
	return slices.Sorted(maps.Keys(scenarioPresets))
}
