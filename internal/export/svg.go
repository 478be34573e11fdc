package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/s1"

	"github.com/san-kum/drivelab/internal/dynamo"
	"github.com/san-kum/drivelab/internal/physics"
)

type PathOptions struct {
	Width, Height int
	Stroke        string
	// Target, when set, is drawn as a cross.
	Target *r2.Point
	// TargetLine draws a dashed line at x = value (vertical) or y = value.
	TargetLine *TargetLine
}

type TargetLine struct {
	Vertical bool
	Value    float64
}

func DefaultPathOptions() PathOptions {
	return PathOptions{Width: 640, Height: 480, Stroke: "#00ff00"}
}

// Path extracts the (x, y) trace of a drive plant run.
func Path(result *dynamo.Result) []r2.Point {
	points := make([]r2.Point, 0, len(result.States))
	for _, s := range result.States {
		if len(s) <= physics.DiffY {
			continue
		}
		points = append(points, r2.Point{X: s[physics.DiffX], Y: s[physics.DiffY]})
	}
	return points
}

// PathToSVG draws a top-down view of a path with equal axis scaling. The
// final pose is marked with a heading arrow when heading is non-nil.
func PathToSVG(points []r2.Point, heading *s1.Angle, opts PathOptions) string {
	if len(points) < 2 {
		return ""
	}

	bounds := r2.RectFromPoints(points...)
	if opts.Target != nil {
		bounds = bounds.AddPoint(*opts.Target)
	}
	size := bounds.Size()
	span := math.Max(math.Max(size.X, size.Y), 1)
	pad := span * 0.1
	span += 2 * pad
	center := bounds.Center()

	width, height := float64(opts.Width), float64(opts.Height)
	scale := math.Min(width, height) / span
	project := func(p r2.Point) (float64, float64) {
		x := width/2 + (p.X-center.X)*scale
		y := height/2 - (p.Y-center.Y)*scale
		return x, y
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, opts.Width, opts.Height, opts.Width, opts.Height))

	if l := opts.TargetLine; l != nil {
		if l.Vertical {
			x, _ := project(r2.Point{X: l.Value, Y: center.Y})
			sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="0" x2="%.1f" y2="%d" stroke="#555555" stroke-dasharray="4 4"/>
`, x, x, opts.Height))
		} else {
			_, y := project(r2.Point{X: center.X, Y: l.Value})
			sb.WriteString(fmt.Sprintf(`<line x1="0" y1="%.1f" x2="%d" y2="%.1f" stroke="#555555" stroke-dasharray="4 4"/>
`, y, opts.Width, y))
		}
	}

	sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, opts.Stroke))
	for i, p := range points {
		x, y := project(p)
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}
	sb.WriteString("\"/>\n")

	if opts.Target != nil {
		x, y := project(*opts.Target)
		sb.WriteString(fmt.Sprintf(`<path stroke="#ff5555" stroke-width="1.5" d="M%.1f,%.1f L%.1f,%.1f M%.1f,%.1f L%.1f,%.1f"/>
`, x-5, y-5, x+5, y+5, x-5, y+5, x+5, y-5))
	}

	if heading != nil {
		end := points[len(points)-1]
		x, y := project(end)
		h := heading.Radians()
		tipX, tipY := x+12*math.Cos(h), y-12*math.Sin(h)
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#ffff55" stroke-width="2"/>
`, x, y, tipX, tipY))
	}

	sb.WriteString("</svg>")
	return sb.String()
}
