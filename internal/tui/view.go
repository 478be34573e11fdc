package tui

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/s1"

	"github.com/san-kum/drivelab/internal/config"
	"github.com/san-kum/drivelab/internal/experiment"
	"github.com/san-kum/drivelab/internal/motion"
	"github.com/san-kum/drivelab/internal/physics"
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	red    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	frame = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("238"))
)

const (
	maxTrail   = 400
	maxHistory = 120
)

// tunableGains are the loop parameters the live view can adjust.
var tunableGains = []string{
	"linear.Kp", "linear.Ki", "linear.Kd",
	"angular.Kp", "angular.Ki", "angular.Kd",
}

// mark is a reference line drawn on the field: a target or a wall.
type mark struct {
	vertical bool
	value    float64
	glyph    rune
}

type liveModel struct {
	scenario string
	target   string
	limit    float64
	volts    float64
	marks    []mark
	feed     *Feed

	last    stepMsg
	trail   []r2.Point
	history []float64

	gains    map[string]float64
	selected int

	done    bool
	outcome experiment.Outcome
	err     error

	width  int
	height int
}

func newLiveModel(exp *experiment.Experiment, feed *Feed) liveModel {
	cfg := exp.Config()
	limit := cfg.Duration
	if cfg.Timeout != nil {
		limit = math.Min(limit, cfg.Timeout.Seconds())
	}
	position, _ := cfg.StartPose()
	return liveModel{
		scenario: cfg.Scenario,
		target:   exp.Motion().Target().String(),
		limit:    limit,
		volts:    cfg.Robot.MaxVoltage,
		marks:    marksFor(cfg),
		feed:     feed,
		trail:    []r2.Point{position},
		width:    80,
		height:   24,
	}
}

func marksFor(cfg *config.Config) []mark {
	switch cfg.Scenario {
	case "drive-x":
		return []mark{{vertical: true, value: cfg.Target, glyph: '┆'}}
	case "drive-y":
		return []mark{{vertical: false, value: cfg.Target, glyph: '┄'}}
	case "wall":
		return []mark{
			{vertical: true, value: cfg.Robot.WallX, glyph: '█'},
			{vertical: true, value: cfg.Robot.WallX + cfg.Target, glyph: '┆'},
		}
	}
	return nil
}

func (m liveModel) Init() tea.Cmd { return m.feed.wait() }

func (m liveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "down", "j", "tab":
			m.selected = (m.selected + 1) % len(tunableGains)
		case "up", "k", "shift+tab":
			m.selected = (m.selected + len(tunableGains) - 1) % len(tunableGains)
		case "+", "=", "right", "l":
			m.adjust(true)
		case "-", "_", "left", "h":
			m.adjust(false)
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case stepMsg:
		m.last = msg
		if msg.gains != nil {
			m.gains = msg.gains
		}
		m.trail = append(m.trail, r2.Point{X: msg.state[physics.DiffX], Y: msg.state[physics.DiffY]})
		if len(m.trail) > maxTrail {
			m.trail = m.trail[1:]
		}
		m.history = append(m.history, msg.linearError)
		if len(m.history) > maxHistory {
			m.history = m.history[1:]
		}
		return m, m.feed.wait()
	case doneMsg:
		m.done = true
		m.outcome = msg.outcome
		m.err = msg.err
		if msg.result != nil {
			if final := msg.result.Final(); final != nil {
				m.last.state = final
				m.trail = append(m.trail, r2.Point{X: final[physics.DiffX], Y: final[physics.DiffY]})
				m.last.t = msg.result.Duration()
				m.last.phase = msg.outcome.Phase
			}
		}
		return m, nil
	}
	return m, nil
}

// adjust nudges the selected gain and queues it for the running drive.
// The shown value is updated at once; the next frame confirms it.
func (m *liveModel) adjust(up bool) {
	key := tunableGains[m.selected]
	v, ok := m.gains[key]
	if m.done || !ok {
		return
	}
	next := nudge(v, up)
	loop, param, _ := strings.Cut(key, ".")
	if m.feed.Tune(loop, param, next) {
		m.gains[key] = next
	}
}

// nudge scales a gain by 10%, stepping on and off zero by gainFloor.
func nudge(v float64, up bool) float64 {
	const gainFloor = 1e-3
	switch {
	case up && v < gainFloor:
		return gainFloor
	case up:
		return v * 1.1
	case v <= gainFloor:
		return 0
	default:
		return v / 1.1
	}
}

func (m liveModel) View() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("\n   %s %s  %s  %s\n",
		m.statusIcon(), cyan.Render(m.scenario), dim.Render(m.target), m.statusText()))

	progress := 0.0
	if m.limit > 0 {
		progress = math.Min(m.last.t/m.limit, 1)
	}
	barWidth := 36
	filled := int(progress * float64(barWidth))
	bar := cyan.Render(strings.Repeat("━", filled)) + dimmer.Render(strings.Repeat("─", barWidth-filled))
	b.WriteString(fmt.Sprintf("   %s %s\n", bar, dim.Render(fmt.Sprintf("%.2fs/%.1fs", m.last.t, m.limit))))

	cw := max(m.width-8, 40)
	ch := max(m.height-14, 10)
	b.WriteString(lipgloss.NewStyle().MarginLeft(3).Render(frame.Render(m.field(cw, ch))) + "\n")

	if x := m.last.state; len(x) > physics.DiffTravel {
		heading := s1.Angle(x[physics.DiffHeading]).Normalized()
		b.WriteString(fmt.Sprintf("   %s%s  %s%s  %s%s  %s%s\n",
			dim.Render("x="), white.Render(fmt.Sprintf("%.2f", x[physics.DiffX])),
			dim.Render("y="), white.Render(fmt.Sprintf("%.2f", x[physics.DiffY])),
			dim.Render("θ="), white.Render(fmt.Sprintf("%.1f°", heading.Degrees())),
			dim.Render("travel="), white.Render(fmt.Sprintf("%.2f", x[physics.DiffTravel]))))
	}
	if len(m.last.volts) == 2 {
		b.WriteString(fmt.Sprintf("   %s %s  %s %s\n",
			dim.Render("L"), voltBar(m.last.volts[0], m.volts),
			dim.Render("R"), voltBar(m.last.volts[1], m.volts)))
	}
	if len(m.history) > 1 {
		b.WriteString(fmt.Sprintf("   %s %s %s\n",
			dim.Render("error"), cyan.Render(sparkline(m.history, 36)),
			dim.Render(fmt.Sprintf("%.3f / %.1f°", m.last.linearError, m.last.angularError.Degrees()))))
	}
	if len(m.gains) > 0 {
		b.WriteString("   " + m.gainLine() + "\n")
	}
	if m.err != nil {
		b.WriteString("   " + red.Render(m.err.Error()) + "\n")
	}

	b.WriteString("\n" + dim.Render("   q quit  ↑/↓ select gain  +/- adjust") + "\n")
	return b.String()
}

func (m liveModel) gainLine() string {
	parts := make([]string, 0, len(tunableGains))
	for i, key := range tunableGains {
		text := fmt.Sprintf("%s=%.4g", key, m.gains[key])
		if i == m.selected {
			parts = append(parts, yellow.Render("▸"+text))
		} else {
			parts = append(parts, dim.Render(" "+text))
		}
	}
	return strings.Join(parts, " ")
}

func (m liveModel) phase() motion.Phase {
	if m.done {
		return m.outcome.Phase
	}
	return m.last.phase
}

func (m liveModel) statusIcon() string {
	switch {
	case m.done && m.err != nil:
		return red.Render("✗")
	case m.phase() == motion.Settled:
		return green.Render("✓")
	case m.phase() == motion.TimedOut:
		return yellow.Render("○")
	}
	return green.Render("●")
}

func (m liveModel) statusText() string {
	switch {
	case m.done && m.err != nil:
		return red.Render("failed")
	case m.done:
		return white.Render(m.outcome.String())
	}
	return green.Render("running")
}

// field draws the trail, the marks and the robot onto a w by h grid.
// Terminal cells are about twice as tall as wide, so y is squashed.
func (m liveModel) field(w, h int) string {
	canvas := make([][]rune, h)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", w))
	}

	bounds := r2.RectFromPoints(m.trail...)
	for _, mk := range m.marks {
		if mk.vertical {
			bounds = bounds.AddPoint(r2.Point{X: mk.value, Y: bounds.Center().Y})
		} else {
			bounds = bounds.AddPoint(r2.Point{X: bounds.Center().X, Y: mk.value})
		}
	}
	size := bounds.Size()
	span := math.Max(math.Max(size.X, 2*size.Y), 12) * 1.2
	scale := float64(w-1) / span
	center := bounds.Center()
	project := func(p r2.Point) (int, int) {
		x := float64(w)/2 + (p.X-center.X)*scale
		y := float64(h)/2 - (p.Y-center.Y)*scale/2
		return int(math.Round(x)), int(math.Round(y))
	}
	set := func(x, y int, c rune) {
		if x >= 0 && x < w && y >= 0 && y < h {
			canvas[y][x] = c
		}
	}

	for _, mk := range m.marks {
		if mk.vertical {
			x, _ := project(r2.Point{X: mk.value, Y: center.Y})
			for y := 0; y < h; y++ {
				set(x, y, mk.glyph)
			}
		} else {
			_, y := project(r2.Point{X: center.X, Y: mk.value})
			for x := 0; x < w; x++ {
				set(x, y, mk.glyph)
			}
		}
	}
	for _, p := range m.trail {
		x, y := project(p)
		set(x, y, '·')
	}
	if len(m.trail) > 0 && len(m.last.state) > physics.DiffHeading {
		x, y := project(m.trail[len(m.trail)-1])
		set(x, y, headingGlyph(s1.Angle(m.last.state[physics.DiffHeading])))
	}

	rows := make([]string, h)
	for i, row := range canvas {
		rows[i] = string(row)
	}
	return strings.Join(rows, "\n")
}

// headingGlyph returns the arrow closest to heading.
func headingGlyph(heading s1.Angle) rune {
	arrows := []rune{'→', '↗', '↑', '↖', '←', '↙', '↓', '↘'}
	octant := int(math.Round(heading.Normalized().Degrees()/45)) % 8
	if octant < 0 {
		octant += 8
	}
	return arrows[octant]
}

// voltBar draws a centered bar for a signed voltage.
func voltBar(v, limit float64) string {
	const half = 8
	n := int(math.Round(math.Min(math.Abs(v)/limit, 1) * half))
	left := strings.Repeat(" ", half)
	right := strings.Repeat(" ", half)
	if v < 0 {
		left = strings.Repeat(" ", half-n) + strings.Repeat("█", n)
	} else {
		right = strings.Repeat("█", n) + strings.Repeat(" ", half-n)
	}
	return yellow.Render(left) + dimmer.Render("│") + green.Render(right) + dim.Render(fmt.Sprintf(" %+5.1fV", v))
}

func sparkline(data []float64, width int) string {
	if len(data) == 0 {
		return ""
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	rang := maxVal - minVal
	if rang == 0 {
		rang = 1
	}
	step := max(len(data)/width, 1)
	var sb strings.Builder
	for i := 0; i < width && i*step < len(data); i++ {
		idx := int((data[i*step] - minVal) / rang * 7)
		sb.WriteRune(chars[max(0, min(idx, 7))])
	}
	return sb.String()
}
