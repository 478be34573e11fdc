package optim

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/drivelab/internal/config"
	"github.com/san-kum/drivelab/internal/dynamo"
	"github.com/san-kum/drivelab/internal/experiment"
	"github.com/san-kum/drivelab/internal/log"
	"github.com/san-kum/drivelab/internal/motion"
)

var ErrNoCandidate = errors.New("optim: no run settled")

// GridSearch evaluates every combination of parameter values on a base
// config and keeps the one with the lowest metric. Runs that do not settle
// are not candidates.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64

	// Workers bounds the runs in flight; GOMAXPROCS when zero.
	Workers int
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

type Result struct {
	Params  map[string]float64
	Value   float64
	Outcome experiment.Outcome
	// Evaluated counts every run, Unsettled the ones that timed out or
	// failed.
	Evaluated int
	Unsettled int
}

type evaluation struct {
	params  map[string]float64
	value   float64
	outcome experiment.Outcome
	err     error
}

// Search runs the whole grid in parallel and returns the best point.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, metricName string) (*Result, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, fmt.Errorf("optim: %d params but %d ranges", len(g.paramNames), len(g.ranges))
	}

	points := g.points()
	evals := make([]evaluation, len(points))
	reg := experiment.NewRegistry()

	dynamo.ForEach(len(points), g.Workers, func(i int) {
		evals[i] = evaluate(ctx, reg, base, points[i], metricName)
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{Value: math.Inf(1), Evaluated: len(evals)}
	for _, e := range evals {
		if e.err != nil || e.outcome.Phase != motion.Settled {
			res.Unsettled++
			if e.err != nil {
				log.Debug("grid point failed", "params", e.params, "error", e.err)
			}
			continue
		}
		if e.value < res.Value {
			res.Value = e.value
			res.Params = e.params
			res.Outcome = e.outcome
		}
	}
	if res.Params == nil {
		return res, ErrNoCandidate
	}
	return res, nil
}

func evaluate(ctx context.Context, reg *experiment.Registry, base *config.Config, params map[string]float64, metricName string) evaluation {
	ev := evaluation{params: params}

	cfg := base.Clone()
	for name, v := range params {
		if err := cfg.SetParam(name, v); err != nil {
			ev.err = err
			return ev
		}
	}

	exp, err := experiment.New(reg, cfg)
	if err != nil {
		ev.err = err
		return ev
	}
	result, outcome, err := exp.Run(ctx, false)
	if err != nil {
		ev.err = err
		return ev
	}

	value, ok := result.Metrics[metricName]
	if !ok {
		ev.err = fmt.Errorf("optim: run has no metric %q", metricName)
		return ev
	}
	ev.value = value
	ev.outcome = outcome
	return ev
}

// points enumerates the grid with the last parameter varying fastest.
func (g *GridSearch) points() []map[string]float64 {
	points := []map[string]float64{{}}
	for depth, name := range g.paramNames {
		next := make([]map[string]float64, 0, len(points)*len(g.ranges[depth]))
		for _, p := range points {
			for _, v := range g.ranges[depth] {
				q := maps.Clone(p)
				q[name] = v
				next = append(next, q)
			}
		}
		points = next
	}
	return points
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	return floats.Span(make([]float64, n), lo, hi)
}
