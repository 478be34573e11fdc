package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/s1"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/drivelab/internal/config"
	"github.com/san-kum/drivelab/internal/dynamo"
	"github.com/san-kum/drivelab/internal/experiment"
	"github.com/san-kum/drivelab/internal/export"
	"github.com/san-kum/drivelab/internal/motion"
	"github.com/san-kum/drivelab/internal/optim"
	"github.com/san-kum/drivelab/internal/physics"
	"github.com/san-kum/drivelab/internal/storage"
	"github.com/san-kum/drivelab/internal/tui"
)

var (
	title   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	label   = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	good    = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	warning = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
)

// resolveConfig builds the config for a command: a config file, else the
// named (or default) preset of the scenario, then flag overrides.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	scenario := ""
	if len(args) > 0 {
		scenario = args[0]
	}

	var cfg *config.Config
	switch {
	case configFile != "":
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		if scenario != "" {
			cfg.Scenario = scenario
		}
	case scenarioPreset != "":
		if scenario == "" {
			scenario = "drive-x"
		}
		cfg = config.GetPreset(scenario, scenarioPreset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", scenarioPreset, config.ListPresets(scenario))
		}
	default:
		if scenario == "" {
			scenario = "drive-x"
		}
		if cfg = config.GetPreset(scenario, "default"); cfg == nil {
			cfg = config.DefaultConfig()
			cfg.Scenario = scenario
		}
	}

	flags := cmd.Flags()
	if flags.Changed("target") {
		cfg.Target = target
	}
	if flags.Changed("heading") {
		cfg.HeadingDeg = headingDeg
	}
	if flags.Changed("timeout") {
		cfg.Timeout = &timeout
	}
	if noTimeout {
		cfg.Timeout = nil
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	gains := []struct {
		flag  string
		param string
		value float64
	}{
		{"kp", "linear.kp", kp}, {"ki", "linear.ki", ki}, {"kd", "linear.kd", kd},
		{"akp", "angular.kp", akp}, {"aki", "angular.ki", aki}, {"akd", "angular.kd", akd},
	}
	for _, g := range gains {
		if flags.Changed(g.flag) {
			if err := cfg.SetParam(g.param, g.value); err != nil {
				return nil, err
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runMotion(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	exp, err := experiment.New(experiment.NewRegistry(), cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("%s %s %s\n", title.Render(cfg.Scenario), label.Render("target"), exp.Motion().Target())
	result, outcome, runErr := exp.Run(ctx, false)
	if result == nil {
		return runErr
	}

	printOutcome(outcome, result)

	if showPlot {
		index, goal := exp.Tracked()
		printSeries(result, index, goal)
	}

	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(runMetadata(cfg, outcome), result)
		if err != nil {
			return fmt.Errorf("save run: %w", err)
		}
		fmt.Printf("\n%s %s\n", label.Render("saved"), runID)
	}
	return runErr
}

func runMetadata(cfg *config.Config, outcome experiment.Outcome) storage.RunMetadata {
	return storage.RunMetadata{
		Scenario:   cfg.Scenario,
		Preset:     scenarioPreset,
		Dt:         cfg.Dt,
		Duration:   cfg.Duration,
		Integrator: cfg.Integrator,
		Target:     cfg.Target,
		HeadingDeg: cfg.HeadingDeg,
		Outcome:    outcome.Phase.String(),
		Elapsed:    outcome.Elapsed.Seconds(),
		StateNames: experiment.StateNames,
	}
}

func printOutcome(outcome experiment.Outcome, result *dynamo.Result) {
	style := good
	if outcome.Phase != motion.Settled {
		style = warning
	}
	fmt.Printf("%s %s\n\n", label.Render("outcome"), style.Render(outcome.String()))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\t%.4f\n", name, result.Metrics[name])
	}
	w.Flush()
}

func printSeries(result *dynamo.Result, index int, goal float64) {
	data := result.Column(index)
	reference := make([]float64, len(data))
	for i := range reference {
		reference[i] = goal
	}

	caption := fmt.Sprintf("%s vs time (target %.2f)", experiment.StateNames[index], goal)
	fmt.Println()
	fmt.Println(asciigraph.PlotMany([][]float64{data, reference},
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.SeriesColors(asciigraph.Green, asciigraph.DarkGray),
		asciigraph.Caption(caption),
	))
}

func watchMotion(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	exp, err := experiment.New(experiment.NewRegistry(), cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	return tui.Watch(ctx, exp, frameRate)
}

// parseRange parses name=lo:hi:n.
func parseRange(arg string) (string, []float64, error) {
	name, rest, ok := strings.Cut(arg, "=")
	if !ok {
		return "", nil, fmt.Errorf("bad param %q: want name=lo:hi:n", arg)
	}
	parts := strings.Split(rest, ":")
	if len(parts) != 3 {
		return "", nil, fmt.Errorf("bad param %q: want name=lo:hi:n", arg)
	}
	lo, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return "", nil, fmt.Errorf("bad param %q: %w", arg, err)
	}
	hi, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return "", nil, fmt.Errorf("bad param %q: %w", arg, err)
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil || n < 1 {
		return "", nil, fmt.Errorf("bad param %q: count must be a positive integer", arg)
	}
	return name, optim.Linspace(lo, hi, n), nil
}

func tuneGains(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	if len(tuneSpecs) == 0 {
		tuneSpecs = []string{"linear.kp=0.05:0.3:6", "linear.kd=0:0.05:3"}
	}

	names := make([]string, 0, len(tuneSpecs))
	ranges := make([][]float64, 0, len(tuneSpecs))
	for _, arg := range tuneSpecs {
		name, values, err := parseRange(arg)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}

	ctx, cancel := signalContext()
	defer cancel()

	res, err := optim.NewGridSearch(names, ranges).Search(ctx, cfg, metric)
	if errors.Is(err, optim.ErrNoCandidate) {
		return fmt.Errorf("%w (%d runs)", err, res.Evaluated)
	}
	if err != nil {
		return err
	}

	fmt.Printf("%s %d runs, %d unsettled\n\n", title.Render("tune"), res.Evaluated, res.Unsettled)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\t%.4f\n", name, res.Params[name])
	}
	fmt.Fprintf(w, "  %s\t%.4f\n", metric, res.Value)
	w.Flush()
	fmt.Printf("\n%s %s\n", label.Render("outcome"), good.Render(res.Outcome.String()))
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tTARGET\tHEADING\tOUTCOME\tELAPSED")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%.1f°\t%s\t%.3fs\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Target,
			run.HeadingDeg,
			run.Outcome,
			run.Elapsed,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	result, err := st.LoadResult(runID)
	if err != nil {
		return err
	}
	if len(result.States) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s (%s)\n", meta.Scenario, meta.Outcome)
	fmt.Printf("samples: %d\n\n", len(result.States))

	for i := range result.States[0] {
		data := result.Column(i)

		caption := fmt.Sprintf("x%d vs time", i)
		if i < len(meta.StateNames) {
			caption = meta.StateNames[i]
		}
		if i == physics.DiffHeading {
			for j := range data {
				data[j] = s1.Angle(data[j]).Normalized().Degrees()
			}
			caption += " (deg)"
		}

		fmt.Println(asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(caption),
		))
		fmt.Println()
	}

	if len(result.Controls) > 0 && len(result.Controls[0]) == 2 {
		left := make([]float64, len(result.Controls))
		right := make([]float64, len(result.Controls))
		for i, u := range result.Controls {
			if len(u) == 2 {
				left[i], right[i] = u[0], u[1]
			}
		}
		fmt.Println(asciigraph.PlotMany([][]float64{left, right},
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.SeriesColors(asciigraph.Yellow, asciigraph.Green),
			asciigraph.Caption("left / right volts"),
		))
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	result, err := st.LoadResult(runID)
	if err != nil {
		return err
	}

	if outFile == "" {
		return storage.ExportJSON(os.Stdout, *meta, result)
	}
	if err := storage.ExportJSONFile(outFile, *meta, result); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", outFile)
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	result, err := st.LoadResult(runID)
	if err != nil {
		return err
	}

	opts := export.DefaultPathOptions()
	switch meta.Scenario {
	case "drive-x":
		opts.TargetLine = &export.TargetLine{Vertical: true, Value: meta.Target}
	case "drive-y":
		opts.TargetLine = &export.TargetLine{Value: meta.Target}
	}

	var heading *s1.Angle
	if final := result.Final(); len(final) > physics.DiffHeading {
		h := s1.Angle(final[physics.DiffHeading])
		heading = &h
	}

	points := export.Path(result)
	if meta.Scenario == "distance" && len(points) > 0 {
		dir := s1.Angle(meta.HeadingDeg) * s1.Degree
		goal := points[0].Add(r2.Point{X: math.Cos(dir.Radians()), Y: math.Sin(dir.Radians())}.Mul(meta.Target))
		opts.Target = &goal
	}

	svg := export.PathToSVG(points, heading, opts)
	if svg == "" {
		return fmt.Errorf("run %s has too few samples to draw", runID)
	}

	path := outFile
	if path == "" {
		path = runID + ".svg"
	}
	if err := os.WriteFile(path, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", path)
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	reg := experiment.NewRegistry()
	scenarios := reg.ListScenarios()
	if len(args) > 0 {
		if _, err := reg.Get(args[0]); err != nil {
			return err
		}
		scenarios = args[:1]
	}

	for _, name := range scenarios {
		s, _ := reg.Get(name)
		fmt.Printf("%s  %s\n", title.Render(name), label.Render(s.Description))
		for _, p := range config.ListPresets(name) {
			cfg := config.GetPreset(name, p)
			fmt.Printf("  %-12s target=%.1f heading=%.0f°\n", p, cfg.Target, cfg.HeadingDeg)
		}
	}
	return nil
}

func writeConfig(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) > 1 {
		path = args[1]
	}
	cfg, err := resolveConfig(cmd, args[:min(len(args), 1)])
	if err != nil {
		return err
	}

	if path == "" {
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
