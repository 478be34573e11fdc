package config

import (
	"fmt"
	"strings"

	"github.com/san-kum/drivelab/internal/dynamo"
)

var _ dynamo.Configurable = (*Config)(nil)

// Tunable parameters are addressed as "<section>.<name>", e.g.
// "linear.kp", "angular.kd" or "robot.time_constant".

func (p *PIDConfig) params(prefix string, out map[string]float64) {
	out[prefix+".kp"] = p.Kp
	out[prefix+".ki"] = p.Ki
	out[prefix+".kd"] = p.Kd
	if p.IntegrationRange != nil {
		out[prefix+".integration_range"] = *p.IntegrationRange
	}
	if p.OutputLimit != nil {
		out[prefix+".output_limit"] = *p.OutputLimit
	}
}

func (p *PIDConfig) set(name string, value float64) bool {
	switch name {
	case "kp":
		p.Kp = value
	case "ki":
		p.Ki = value
	case "kd":
		p.Kd = value
	case "integration_range":
		p.IntegrationRange = ptr(value)
	case "output_limit":
		p.OutputLimit = ptr(value)
	default:
		return false
	}
	return true
}

// GetParams returns every tunable parameter of c.
func (c *Config) GetParams() map[string]float64 {
	params := map[string]float64{
		"target":      c.Target,
		"heading_deg": c.HeadingDeg,
	}
	for name, v := range c.Plant().GetParams() {
		params["robot."+name] = v
	}
	c.LinearPID.params("linear", params)
	c.AngularPID.params("angular", params)
	return params
}

// SetParam sets one tunable parameter by name.
func (c *Config) SetParam(name string, value float64) error {
	section, key, _ := strings.Cut(name, ".")
	ok := false
	switch section {
	case "target", "heading_deg":
		if key != "" {
			break
		}
		if section == "target" {
			c.Target = value
		} else {
			c.HeadingDeg = value
		}
		ok = true
	case "linear":
		ok = c.LinearPID.set(key, value)
	case "angular":
		ok = c.AngularPID.set(key, value)
	case "robot":
		if _, known := c.Plant().GetParams()[key]; known {
			return c.setPlantParam(key, value)
		}
	}
	if !ok {
		return fmt.Errorf("%w: unknown param %q", ErrInvalid, name)
	}
	return nil
}

// setPlantParam applies a robot parameter through the plant, which owns
// its bounds.
func (c *Config) setPlantParam(name string, value float64) error {
	plant := c.Plant()
	if err := plant.SetParam(name, value); err != nil {
		return fmt.Errorf("%w: robot.%s: %w", ErrInvalid, name, err)
	}
	c.Robot.MaxVoltage = plant.MaxVoltage
	c.Robot.MaxSpeed = plant.MaxSpeed
	c.Robot.TrackWidth = plant.TrackWidth
	c.Robot.TimeConstant = plant.TimeConstant
	return nil
}
