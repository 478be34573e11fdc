package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/drivelab/internal/log"
)

var (
	dataDir  string
	logLevel string

	scenarioPreset string
	configFile     string
	target         float64
	headingDeg     float64
	timeout        time.Duration
	noTimeout      bool
	dt             float64
	duration       float64
	integrator     string
	kp, ki, kd     float64
	akp, aki, akd  float64

	showPlot  bool
	noSave    bool
	frameRate int
	outFile   string
	tuneSpecs []string
	metric    string
)

// main registers the drivelab commands and exits with status 1 when a
// command fails.
func main() {
	rootCmd := &cobra.Command{
		Use:           "drivelab",
		Short:         "closed-loop drive motion lab for differential drive robots",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.Init(logLevel)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".drivelab", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "run a motion on the simulated robot and store it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runMotion,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().BoolVar(&showPlot, "plot", false, "plot the tracked coordinate after the run")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	watchCmd := &cobra.Command{
		Use:   "watch [scenario]",
		Short: "run a motion in realtime with a live view",
		Args:  cobra.MaximumNArgs(1),
		RunE:  watchMotion,
	}
	addConfigFlags(watchCmd)
	watchCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")

	tuneCmd := &cobra.Command{
		Use:   "tune [scenario]",
		Short: "grid search controller gains",
		Long: "Grid search over config parameters. Each --param is name=lo:hi:n, e.g.\n" +
			"--param linear.kp=0.05:0.3:6 --param linear.kd=0:0.05:3",
		Args: cobra.MaximumNArgs(1),
		RunE: tuneGains,
	}
	addConfigFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&tuneSpecs, "param", nil, "parameter range name=lo:hi:n (repeatable)")
	tuneCmd.Flags().StringVar(&metric, "metric", "elapsed", "metric to minimise")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a stored run to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "render the path of a stored run as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default <run_id>.svg)")

	presetsCmd := &cobra.Command{
		Use:   "presets [scenario]",
		Short: "list scenarios and their presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	configCmd := &cobra.Command{
		Use:   "config [scenario] [path]",
		Short: "write the resolved configuration as YAML",
		Args:  cobra.MaximumNArgs(2),
		RunE:  writeConfig,
	}
	addConfigFlags(configCmd)

	rootCmd.AddCommand(runCmd, watchCmd, tuneCmd, listCmd, plotCmd, exportJSONCmd, exportSVGCmd, presetsCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&scenarioPreset, "preset", "", "scenario preset")
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.Float64Var(&target, "target", 0, "linear target (x, y, distance or range)")
	f.Float64Var(&headingDeg, "heading", 0, "target heading in degrees")
	f.DurationVar(&timeout, "timeout", 0, "motion timeout")
	f.BoolVar(&noTimeout, "no-timeout", false, "run until settled")
	f.Float64Var(&dt, "dt", 0, "plant step in seconds")
	f.Float64Var(&duration, "time", 0, "simulated horizon in seconds")
	f.StringVar(&integrator, "integrator", "", "integrator (euler, rk4)")
	f.Float64Var(&kp, "kp", 0, "linear kp")
	f.Float64Var(&ki, "ki", 0, "linear ki")
	f.Float64Var(&kd, "kd", 0, "linear kd")
	f.Float64Var(&akp, "akp", 0, "angular kp")
	f.Float64Var(&aki, "aki", 0, "angular ki")
	f.Float64Var(&akd, "akd", 0, "angular kd")
}
