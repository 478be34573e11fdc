package optim

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/san-kum/drivelab/internal/config"
)

func TestPoints(t *testing.T) {
	g := NewGridSearch([]string{"linear.kp", "linear.kd"}, [][]float64{{0.1, 0.2}, {0, 0.01, 0.02}})

	points := g.points()
	if len(points) != 6 {
		t.Fatalf("expected 6 points, got %d", len(points))
	}
	if points[0]["linear.kp"] != 0.1 || points[1]["linear.kd"] != 0.01 || points[5]["linear.kp"] != 0.2 {
		t.Errorf("unexpected order %v", points)
	}
}

func TestLinspace(t *testing.T) {
	got := Linspace(0, 1, 5)
	want := []float64{0, 0.25, 0.5, 0.75, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if got := Linspace(3, 9, 1); len(got) != 1 || got[0] != 3 {
		t.Errorf("single point should be lo, got %v", got)
	}
}

func TestSearch(t *testing.T) {
	base := config.DefaultConfig()
	base.Duration = 6
	g := NewGridSearch([]string{"linear.kp"}, [][]float64{{0.05, 0.1, 0.2}})

	res, err := g.Search(context.Background(), base, "elapsed")
	if err != nil {
		t.Fatal(err)
	}
	if res.Evaluated != 3 {
		t.Errorf("expected 3 runs, got %d", res.Evaluated)
	}
	if res.Params == nil || res.Value <= 0 {
		t.Fatalf("expected a best point, got %+v", res)
	}
	if base.LinearPID.Kp != 0.1 {
		t.Error("search must not modify the base config")
	}
}

func TestSearchNoCandidate(t *testing.T) {
	base := config.DefaultConfig()
	base.Timeout = new(time.Duration)
	*base.Timeout = 50 * time.Millisecond
	g := NewGridSearch([]string{"linear.kp"}, [][]float64{{0.1, 0.2}})

	res, err := g.Search(context.Background(), base, "elapsed")
	if !errors.Is(err, ErrNoCandidate) {
		t.Fatalf("expected ErrNoCandidate, got %v", err)
	}
	if res.Unsettled != 2 {
		t.Errorf("expected 2 unsettled runs, got %d", res.Unsettled)
	}
}

func TestSearchUnknownParam(t *testing.T) {
	g := NewGridSearch([]string{"linear.gain"}, [][]float64{{1}})
	if _, err := g.Search(context.Background(), config.DefaultConfig(), "elapsed"); !errors.Is(err, ErrNoCandidate) {
		t.Errorf("expected ErrNoCandidate, got %v", err)
	}
}

func TestSearchMismatch(t *testing.T) {
	g := NewGridSearch([]string{"linear.kp"}, nil)
	if _, err := g.Search(context.Background(), config.DefaultConfig(), "elapsed"); err == nil {
		t.Error("expected error for mismatched ranges")
	}
}
