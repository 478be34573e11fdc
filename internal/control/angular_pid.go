package control

import (
	"fmt"
	"time"

	"github.com/golang/geo/s1"
)

// AngularPID is a PID loop on a heading. The error is always the shortest
// signed rotation from the measured heading to the setpoint, in radians.
type AngularPID struct {
	pid PID

	integrationRange *s1.Angle
}

func NewAngularPID(kp, ki, kd float64) *AngularPID {
	return &AngularPID{pid: *NewPID(kp, ki, kd)}
}

// WithIntegrationRange sets the integration range and returns p.
func (p *AngularPID) WithIntegrationRange(r s1.Angle) *AngularPID {
	p.SetIntegrationRange(&r)
	return p
}

// WithOutputLimit sets the output limit and returns p.
func (p *AngularPID) WithOutputLimit(limit float64) *AngularPID {
	p.SetOutputLimit(&limit)
	return p
}

func (p *AngularPID) Update(measured, setpoint s1.Angle, dt time.Duration) float64 {
	return p.pid.step(float64((setpoint - measured).Normalized()), dt)
}

// Clone returns a copy of p with fresh accumulators.
func (p *AngularPID) Clone() *AngularPID {
	c := *p
	c.pid = *p.pid.Clone()
	c.integrationRange = clonePtr(p.integrationRange)
	return &c
}

func (p *AngularPID) Reset() { p.pid.Reset() }

func (p *AngularPID) Gains() (kp, ki, kd float64) { return p.pid.Gains() }

func (p *AngularPID) SetGains(kp, ki, kd float64) { p.pid.SetGains(kp, ki, kd) }
func (p *AngularPID) SetKP(kp float64)            { p.pid.SetKP(kp) }
func (p *AngularPID) SetKI(ki float64)            { p.pid.SetKI(ki) }
func (p *AngularPID) SetKD(kd float64)            { p.pid.SetKD(kd) }

// IntegrationRange returns a copy of the integration range, or nil.
func (p *AngularPID) IntegrationRange() *s1.Angle { return clonePtr(p.integrationRange) }

// SetIntegrationRange sets the integration range. nil removes it.
func (p *AngularPID) SetIntegrationRange(r *s1.Angle) {
	if r == nil {
		p.integrationRange = nil
		p.pid.SetIntegrationRange(nil)
		return
	}
	v := r.Abs()
	p.integrationRange = &v
	rad := v.Radians()
	p.pid.SetIntegrationRange(&rad)
}

func (p *AngularPID) OutputLimit() *float64 { return p.pid.OutputLimit() }

// SetOutputLimit sets the output limit. nil removes it.
func (p *AngularPID) SetOutputLimit(limit *float64) { p.pid.SetOutputLimit(limit) }

// GetParams returns tunable parameters for live adjustment. The
// integration range is reported in degrees.
func (p *AngularPID) GetParams() map[string]float64 {
	params := map[string]float64{
		"Kp": p.pid.Kp,
		"Ki": p.pid.Ki,
		"Kd": p.pid.Kd,
	}
	if p.integrationRange != nil {
		params["IntegrationRange"] = p.integrationRange.Degrees()
	}
	if limit := p.pid.OutputLimit(); limit != nil {
		params["OutputLimit"] = *limit
	}
	return params
}

// SetParam adjusts a parameter. IntegrationRange is taken in degrees.
func (p *AngularPID) SetParam(name string, value float64) error {
	switch name {
	case "Kp", "Ki", "Kd", "OutputLimit":
		return p.pid.SetParam(name, value)
	case "IntegrationRange":
		r := s1.Angle(value) * s1.Degree
		p.SetIntegrationRange(&r)
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	return nil
}
