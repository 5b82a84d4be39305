package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/san-kum/hardsim/internal/config"
	"github.com/san-kum/hardsim/internal/viz"
)

var (
	dataDir  string
	logLevel string

	configFile  string
	xi          float64
	maxEvents   int
	cutoff      float64
	tc          bool
	tcThreshold float64
	seed        int64
	count       int
	radius      float64
	mass        float64
	speed       float64
	progress    int
	metricNames []string
	svgPath     string
	energySVG   string
	outPath     string
	benchEvents int

	gridSpecs      []string
	sweepMetric    string
	scenarioDryRun bool
	ensembleRuns   int

	logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "hardsim",
	})
)

// main registers the commands, opens the preset picker when no subcommand is
// given and exits with status 1 when a command fails.
func main() {
	rootCmd := &cobra.Command{
		Use:   "hardsim",
		Short: "event-driven hard-disk gas simulator",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := log.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logger.SetLevel(level)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPicker()
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".hardsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a simulation and store the result",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().IntVar(&progress, "progress", 10000, "log progress every n events (0 disables)")
	runCmd.Flags().StringSliceVar(&metricNames, "metrics", nil, "metrics to record (default depends on restitution)")
	runCmd.Flags().StringVar(&svgPath, "svg", "", "write the final particle layout as svg")
	runCmd.Flags().StringVar(&energySVG, "energy-svg", "", "write the energy curve as svg")

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "run a simulation with live visualisation",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addConfigFlags(liveCmd)

	benchCmd := &cobra.Command{
		Use:   "bench [preset]",
		Short: "measure collision throughput",
		Args:  cobra.ExactArgs(1),
		RunE:  benchPreset,
	}
	benchCmd.Flags().IntVar(&benchEvents, "events", 100000, "events per measurement")

	sweepCmd := &cobra.Command{
		Use:   "sweep [preset]",
		Short: "run a preset over a parameter grid and report the best point",
		Args:  cobra.MaximumNArgs(1),
		RunE:  sweepPreset,
	}
	addConfigFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&gridSpecs, "grid", nil, "parameter grid as name=v1,v2,... (repeatable)")
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "energy_fraction", "metric to minimize")

	ensembleCmd := &cobra.Command{
		Use:   "ensemble [preset]",
		Short: "run a preset under several seeds and summarise the spread",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runEnsemble,
	}
	addConfigFlags(ensembleCmd)
	ensembleCmd.Flags().IntVar(&ensembleRuns, "runs", 8, "number of seeds")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run the steps of a yaml scenario in order",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().BoolVar(&scenarioDryRun, "dry-run", false, "run without saving results")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				cfg := config.GetPreset(name)
				fmt.Printf("  %-10s n=%-4d xi=%.2f events=%d\n", name, cfg.NumParticles(), cfg.Restitution, cfg.MaxEvents)
			}
			return nil
		},
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot energy and speed distributions of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export the energy table of a run to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	rootCmd.AddCommand(runCmd, liveCmd, benchCmd, sweepCmd, ensembleCmd, scenarioCmd, listCmd, presetsCmd, plotCmd, exportJSONCmd, exportCSVCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	def := config.DefaultConfig()
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().Float64Var(&xi, "xi", def.Restitution, "coefficient of restitution in (0, 1]")
	cmd.Flags().IntVar(&maxEvents, "events", def.MaxEvents, "maximum number of collisions")
	cmd.Flags().Float64Var(&cutoff, "cutoff", def.EnergyCutoff, "stop when kinetic energy falls to this fraction")
	cmd.Flags().BoolVar(&tc, "tc", def.TC.Enabled, "force elastic collisions after very short flights")
	cmd.Flags().Float64Var(&tcThreshold, "tc-threshold", def.TC.Threshold, "flight time below which tc applies")
	cmd.Flags().Int64Var(&seed, "seed", def.Seed, "random seed")
	cmd.Flags().IntVar(&count, "n", def.Species[0].Count, "number of particles (single species)")
	cmd.Flags().Float64Var(&radius, "radius", def.Species[0].Radius, "particle radius")
	cmd.Flags().Float64Var(&mass, "mass", def.Species[0].Mass, "particle mass")
	cmd.Flags().Float64Var(&speed, "speed", def.Species[0].Speed, "initial speed")
}

func runPicker() error {
	p := viz.NewPicker(config.ListPresets(), func(name string) (viz.Model, error) {
		cfg := config.GetPreset(name)
		return newLiveModel(name, cfg)
	})
	_, err := tea.NewProgram(p, tea.WithAltScreen()).Run()
	return err
}
