package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/golang/geo/s1"

	"github.com/san-kum/drivelab/internal/dynamo"
	"github.com/san-kum/drivelab/internal/experiment"
	"github.com/san-kum/drivelab/internal/log"
	"github.com/san-kum/drivelab/internal/motion"
)

// stepMsg is one sampled frame of a running experiment.
type stepMsg struct {
	t            float64
	state        dynamo.State
	volts        dynamo.Control
	phase        motion.Phase
	linearError  float64
	angularError s1.Angle
	gains        map[string]float64
}

// tuning is a gain change requested by the view, e.g. {"linear", "Kp", 0.2}.
type tuning struct {
	loop  string
	param string
	value float64
}

type doneMsg struct {
	result  *dynamo.Result
	outcome experiment.Outcome
	err     error
}

// Feed is a simulator observer that samples frames for the live view. It
// runs on the simulator goroutine; frames are dropped when the view falls
// behind. Gain changes queued with Tune are applied to the drive's loops on
// the same goroutine, between control steps.
type Feed struct {
	drive    *experiment.Motion
	interval float64
	last     float64
	started  bool

	frames chan stepMsg
	done   chan doneMsg
	tunes  chan tuning
}

func NewFeed(drive *experiment.Motion, fps int) *Feed {
	if fps <= 0 {
		fps = 30
	}
	return &Feed{
		drive:    drive,
		interval: 1 / float64(fps),
		frames:   make(chan stepMsg, 4),
		done:     make(chan doneMsg, 1),
		tunes:    make(chan tuning, 16),
	}
}

func (f *Feed) OnStep(x dynamo.State, u dynamo.Control, t float64) {
	f.applyTunes()
	if f.started && t-f.last < f.interval {
		return
	}
	f.started = true
	f.last = t

	lin, ang := f.drive.Errors()
	msg := stepMsg{
		t:            t,
		state:        x.Clone(),
		volts:        append(dynamo.Control(nil), u...),
		phase:        f.drive.Phase(),
		linearError:  lin,
		angularError: ang,
		gains:        f.gains(),
	}
	select {
	case f.frames <- msg:
	default:
	}
}

// Tune queues a parameter change for the "linear" or "angular" loop of the
// running drive. It reports false when the queue is full.
func (f *Feed) Tune(loop, param string, value float64) bool {
	select {
	case f.tunes <- tuning{loop: loop, param: param, value: value}:
		return true
	default:
		return false
	}
}

func (f *Feed) applyTunes() {
	for {
		select {
		case t := <-f.tunes:
			if err := f.loop(t.loop).SetParam(t.param, t.value); err != nil {
				log.Debug("live tuning rejected", "loop", t.loop, "param", t.param, "error", err)
				continue
			}
			log.Debug("live tuning", "loop", t.loop, "param", t.param, "value", t.value)
		default:
			return
		}
	}
}

func (f *Feed) loop(name string) dynamo.Configurable {
	if name == "angular" {
		return f.drive.AngularController()
	}
	return f.drive.LinearController()
}

// gains samples the loop parameters as "<loop>.<param>".
func (f *Feed) gains() map[string]float64 {
	out := make(map[string]float64, 10)
	for _, name := range []string{"linear", "angular"} {
		for k, v := range f.loop(name).GetParams() {
			out[name+"."+k] = v
		}
	}
	return out
}

// Finish hands the outcome of the run to the view.
func (f *Feed) Finish(result *dynamo.Result, outcome experiment.Outcome, err error) {
	f.done <- doneMsg{result: result, outcome: outcome, err: err}
}

func (f *Feed) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-f.done:
			return msg
		case msg := <-f.frames:
			return msg
		}
	}
}

// Watch runs exp in realtime and shows it until the user quits.
func Watch(ctx context.Context, exp *experiment.Experiment, fps int) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	feed := NewFeed(exp.Motion(), fps)
	exp.AddObserver(feed)

	go func() {
		result, outcome, err := exp.Run(ctx, true)
		feed.Finish(result, outcome, err)
	}()

	p := tea.NewProgram(newLiveModel(exp, feed), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
