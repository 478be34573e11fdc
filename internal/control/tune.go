package control

import "github.com/golang/geo/s1"

// Tuning options. Each returns a mutation of one concrete loop type, so a
// PID option handed to something that is not a *PID does not compile.

func Gains(kp, ki, kd float64) func(*PID) {
	return func(p *PID) { p.SetGains(kp, ki, kd) }
}

func KP(kp float64) func(*PID) { return func(p *PID) { p.SetKP(kp) } }
func KI(ki float64) func(*PID) { return func(p *PID) { p.SetKI(ki) } }
func KD(kd float64) func(*PID) { return func(p *PID) { p.SetKD(kd) } }

func IntegrationRange(r float64) func(*PID) {
	return func(p *PID) { p.SetIntegrationRange(&r) }
}

func NoIntegrationRange() func(*PID) {
	return func(p *PID) { p.SetIntegrationRange(nil) }
}

func OutputLimit(limit float64) func(*PID) {
	return func(p *PID) { p.SetOutputLimit(&limit) }
}

func NoOutputLimit() func(*PID) {
	return func(p *PID) { p.SetOutputLimit(nil) }
}

func AngularGains(kp, ki, kd float64) func(*AngularPID) {
	return func(p *AngularPID) { p.SetGains(kp, ki, kd) }
}

func AngularKP(kp float64) func(*AngularPID) { return func(p *AngularPID) { p.SetKP(kp) } }
func AngularKI(ki float64) func(*AngularPID) { return func(p *AngularPID) { p.SetKI(ki) } }
func AngularKD(kd float64) func(*AngularPID) { return func(p *AngularPID) { p.SetKD(kd) } }

func AngularIntegrationRange(r s1.Angle) func(*AngularPID) {
	return func(p *AngularPID) { p.SetIntegrationRange(&r) }
}

func NoAngularIntegrationRange() func(*AngularPID) {
	return func(p *AngularPID) { p.SetIntegrationRange(nil) }
}

func AngularOutputLimit(limit float64) func(*AngularPID) {
	return func(p *AngularPID) { p.SetOutputLimit(&limit) }
}

func NoAngularOutputLimit() func(*AngularPID) {
	return func(p *AngularPID) { p.SetOutputLimit(nil) }
}
