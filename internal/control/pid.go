package control

import (
	"fmt"
	"math"
	"time"

	"github.com/san-kum/drivelab/internal/dynamo"
)

var (
	_ dynamo.Configurable = (*PID)(nil)
	_ dynamo.Configurable = (*AngularPID)(nil)
)

// PID is a proportional-integral-derivative loop on a scalar error.
//
// The integral only accumulates while |error| is inside the integration
// range (when one is set), and the output is clamped to the symmetric
// output limit (when one is set).
type PID struct {
	Kp float64
	Ki float64
	Kd float64

	integrationRange *float64
	outputLimit      *float64

	integral float64
	prevErr  float64
	first    bool
}

func NewPID(kp, ki, kd float64) *PID {
	return &PID{
		Kp:    kp,
		Ki:    ki,
		Kd:    kd,
		first: true,
	}
}

// WithIntegrationRange sets the integration range and returns p.
func (p *PID) WithIntegrationRange(r float64) *PID {
	p.SetIntegrationRange(&r)
	return p
}

// WithOutputLimit sets the output limit and returns p.
func (p *PID) WithOutputLimit(limit float64) *PID {
	p.SetOutputLimit(&limit)
	return p
}

func (p *PID) Update(measured, setpoint float64, dt time.Duration) float64 {
	return p.step(setpoint-measured, dt)
}

func (p *PID) step(err float64, dt time.Duration) float64 {
	secs := dt.Seconds()

	var derivative float64
	if secs > 0 {
		if p.integrationRange == nil || math.Abs(err) <= *p.integrationRange {
			p.integral += err * secs
		}
		if !p.first {
			derivative = (err - p.prevErr) / secs
		}
	}
	p.prevErr = err
	p.first = false

	u := p.Kp*err + p.Ki*p.integral + p.Kd*derivative
	if p.outputLimit != nil {
		u = clamp(u, *p.outputLimit)
	}
	return u
}

// Clone returns a copy of p with fresh accumulators. The copy shares no
// memory with p.
func (p *PID) Clone() *PID {
	c := *p
	c.integrationRange = clonePtr(p.integrationRange)
	c.outputLimit = clonePtr(p.outputLimit)
	c.Reset()
	return &c
}

// Reset clears integral and derivative state
func (p *PID) Reset() {
	p.integral = 0
	p.prevErr = 0
	p.first = true
}

func (p *PID) Gains() (kp, ki, kd float64) {
	return p.Kp, p.Ki, p.Kd
}

func (p *PID) SetGains(kp, ki, kd float64) {
	p.Kp, p.Ki, p.Kd = kp, ki, kd
}

func (p *PID) SetKP(kp float64) { p.Kp = kp }
func (p *PID) SetKI(ki float64) { p.Ki = ki }
func (p *PID) SetKD(kd float64) { p.Kd = kd }

// IntegrationRange returns a copy of the integration range, or nil if the
// integral accumulates at any error.
func (p *PID) IntegrationRange() *float64 { return clonePtr(p.integrationRange) }

// SetIntegrationRange sets the integration range. nil removes it.
func (p *PID) SetIntegrationRange(r *float64) {
	if r == nil {
		p.integrationRange = nil
		return
	}
	v := math.Abs(*r)
	p.integrationRange = &v
}

// OutputLimit returns a copy of the output limit, or nil if the output is
// unclamped.
func (p *PID) OutputLimit() *float64 { return clonePtr(p.outputLimit) }

// SetOutputLimit sets the output limit. nil removes it.
func (p *PID) SetOutputLimit(limit *float64) {
	if limit == nil {
		p.outputLimit = nil
		return
	}
	v := math.Abs(*limit)
	p.outputLimit = &v
}

// GetParams returns tunable parameters for live adjustment
func (p *PID) GetParams() map[string]float64 {
	params := map[string]float64{
		"Kp": p.Kp,
		"Ki": p.Ki,
		"Kd": p.Kd,
	}
	if p.integrationRange != nil {
		params["IntegrationRange"] = *p.integrationRange
	}
	if p.outputLimit != nil {
		params["OutputLimit"] = *p.outputLimit
	}
	return params
}

// SetParam adjusts a PID parameter
func (p *PID) SetParam(name string, value float64) error {
	switch name {
	case "Kp":
		p.Kp = value
	case "Ki":
		p.Ki = value
	case "Kd":
		p.Kd = value
	case "IntegrationRange":
		p.SetIntegrationRange(&value)
	case "OutputLimit":
		p.SetOutputLimit(&value)
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	return nil
}
