package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/hardsim/internal/analysis"
	"github.com/san-kum/hardsim/internal/automation"
	"github.com/san-kum/hardsim/internal/config"
	"github.com/san-kum/hardsim/internal/event"
	"github.com/san-kum/hardsim/internal/experiment"
	"github.com/san-kum/hardsim/internal/export"
	"github.com/san-kum/hardsim/internal/optim"
	"github.com/san-kum/hardsim/internal/sim"
	"github.com/san-kum/hardsim/internal/storage"
	"github.com/san-kum/hardsim/internal/viz"
)

// resolveConfig layers preset, config file and command-line flags, in that
// order of increasing precedence.
func resolveConfig(cmd *cobra.Command, args []string) (string, *config.Config, error) {
	name := "custom"
	cfg := config.DefaultConfig()
	if len(args) > 0 {
		name = args[0]
		cfg = config.GetPreset(name)
		if cfg == nil {
			return "", nil, fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.LoadOver(configFile, cfg)
		if err != nil {
			return "", nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("xi") {
		cfg.Restitution = xi
	}
	if flags.Changed("events") {
		cfg.MaxEvents = maxEvents
	}
	if flags.Changed("cutoff") {
		cfg.EnergyCutoff = cutoff
	}
	if flags.Changed("tc") {
		cfg.TC.Enabled = tc
	}
	if flags.Changed("tc-threshold") {
		cfg.TC.Threshold = tcThreshold
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("n") {
		sp := config.DefaultConfig().Species[0]
		if len(cfg.Species) > 0 {
			sp = cfg.Species[0]
		}
		sp.Count = count
		cfg.Particles = nil
		cfg.Species = []config.SpeciesConfig{sp}
	}
	particleFlags := []struct {
		flag, param string
		value       float64
	}{
		{"radius", "radius", radius},
		{"mass", "mass", mass},
		{"speed", "speed", speed},
	}
	for _, f := range particleFlags {
		if !flags.Changed(f.flag) {
			continue
		}
		if err := cfg.SetParam(f.param, f.value); err != nil {
			return "", nil, err
		}
	}

	return name, cfg, cfg.Validate()
}

// progressObserver logs a status line every n resolved collisions.
type progressObserver struct {
	every  int
	events int
	e0     float64
	start  time.Time
}

func (p *progressObserver) OnEvent(row sim.Row, ev event.Event) {
	p.events++
	if p.every <= 0 || p.events%p.every != 0 {
		return
	}
	frac := 0.0
	if p.e0 > 0 {
		frac = row.Energy / p.e0
	}
	logger.Info("progress",
		"events", p.events,
		"t", fmt.Sprintf("%.6g", row.Time),
		"energy", fmt.Sprintf("%.2f%%", 100*frac),
		"elapsed", time.Since(p.start).Round(time.Millisecond),
	)
}

func selectMetrics(cfg *config.Config) ([]sim.Metric, error) {
	registry := experiment.NewRegistry()
	if len(metricNames) == 0 {
		return registry.DefaultMetrics(cfg), nil
	}
	out := make([]sim.Metric, 0, len(metricNames))
	for _, name := range metricNames {
		m, err := registry.GetMetric(name)
		if err != nil {
			return nil, fmt.Errorf("%w (available: %v)", err, registry.ListMetrics())
		}
		out = append(out, m)
	}
	return out, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	name, cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	metrics, err := selectMetrics(cfg)
	if err != nil {
		return err
	}
	obs := &progressObserver{every: progress, start: time.Now()}
	exp := experiment.New(cfg)
	if err := exp.Setup(metrics, obs); err != nil {
		return err
	}
	obs.e0 = exp.Driver().InitialEnergy()

	logger.Info("starting run",
		"preset", name,
		"particles", exp.Driver().Store().Len(),
		"xi", cfg.Restitution,
		"tc", cfg.TC.Enabled,
		"max_events", cfg.MaxEvents,
		"seed", cfg.Seed,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	result, runErr := exp.Run(ctx)
	elapsed := time.Since(start)

	var simErr *sim.SimulationError
	switch {
	case errors.As(runErr, &simErr):
		logger.Error("simulation failed", "event", simErr.Resolved, "t", simErr.Time, "err", simErr.Wrapped)
	case errors.Is(runErr, context.Canceled):
		logger.Warn("run interrupted", "events", result.Resolved)
	case runErr != nil:
		return runErr
	}

	runID, err := st.Save(name, cfg, result)
	if err != nil {
		return err
	}

	logger.Info("run finished",
		"id", runID,
		"reason", result.StopReason,
		"events", result.Resolved,
		"elapsed", elapsed.Round(time.Millisecond),
	)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("simulated time: %.6g\n", result.Time)
	fmt.Printf("collisions: %d (popped %d, discarded %d)\n", result.Resolved, result.Popped, result.Discarded)
	fmt.Printf("tc events: %d\n", result.TCEvents)
	fmt.Printf("energy remaining: %.2f%%\n", 100*result.EnergyFraction())
	fmt.Println("\nmetrics:")
	for _, m := range metrics {
		fmt.Printf("  %s: %.6g\n", m.Name(), result.Metrics[m.Name()])
	}

	if err := writeSVGs(cfg, result); err != nil {
		return err
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

func writeSVGs(cfg *config.Config, result *sim.Result) error {
	if svgPath != "" {
		out := export.ParticlesToSVG(result.Store, cfg.Box.XMax, cfg.Box.YMax, 800)
		if err := os.WriteFile(svgPath, []byte(out), 0644); err != nil {
			return err
		}
		logger.Info("wrote particle svg", "path", svgPath)
	}
	if energySVG != "" {
		out := export.EnergyToSVG(result.Rows, 800, 400)
		if out == "" {
			logger.Warn("not enough events for an energy curve")
			return nil
		}
		if err := os.WriteFile(energySVG, []byte(out), 0644); err != nil {
			return err
		}
		logger.Info("wrote energy svg", "path", energySVG)
	}
	return nil
}

func newLiveModel(name string, cfg *config.Config) (viz.Model, error) {
	if err := cfg.Validate(); err != nil {
		return viz.Model{}, err
	}
	restarts := int64(0)
	factory := func() (*sim.Driver, error) {
		c := cfg.Clone()
		c.Seed += restarts
		restarts++
		exp := experiment.New(c)
		if err := exp.Setup(nil); err != nil {
			return nil, err
		}
		return exp.Driver(), nil
	}
	return viz.NewModel(name, cfg.Box.XMax, cfg.Box.YMax, factory)
}

func runLive(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && configFile == "" {
		return runPicker()
	}
	name, cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	m, err := newLiveModel(name, cfg)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func benchPreset(cmd *cobra.Command, args []string) error {
	name := args[0]
	base := config.GetPreset(name)
	if base == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
	}

	fmt.Printf("benchmarking %s\n\n", name)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PARTICLES\tEVENTS\tDISCARDED\tTIME\tEVENTS/SEC")

	for _, scale := range []int{1, 2, 4} {
		cfg := base.Clone()
		cfg.MaxEvents = benchEvents
		cfg.EnergyCutoff = 0
		for k := range cfg.Species {
			cfg.Species[k].Count *= scale
			cfg.Species[k].Radius /= float64(scale)
		}

		exp := experiment.New(cfg)
		if err := exp.Setup(nil); err != nil {
			return err
		}

		start := time.Now()
		result, err := exp.Run(context.Background())
		if err != nil {
			return err
		}
		elapsed := time.Since(start)

		fmt.Fprintf(w, "%d\t%d\t%d\t%v\t%.0f\n",
			result.Store.Len(), result.Resolved, result.Discarded,
			elapsed.Round(time.Millisecond), float64(result.Resolved)/elapsed.Seconds())
	}

	return w.Flush()
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
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tN\tXI\tEVENTS\tREASON\tENERGY")

	for _, run := range runs {
		frac := 0.0
		if run.InitialEnergy > 0 {
			frac = run.FinalEnergy / run.InitialEnergy
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.2f\t%d\t%s\t%.1f%%\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Particles,
			run.Restitution,
			run.Resolved,
			run.StopReason,
			100*frac,
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
	rows, err := st.LoadEnergy(runID)
	if err != nil {
		return err
	}
	speeds, err := st.LoadSpeeds(runID)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("preset: %s\n", meta.Preset)
	fmt.Printf("events: %d\n\n", len(rows))

	fmt.Println(viz.EnergyChart(rows, 80, 10))

	for k := range meta.Species {
		var before, after []float64
		for _, s := range speeds {
			if s.Species == k {
				before = append(before, s.Before)
				after = append(after, s.After)
			}
		}
		fmt.Printf("species %d (mass %g)\n", k, meta.Species[k])
		fmt.Println(viz.SpeedHistogram(before, after, 30, 80, 8))

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "\tMEAN\tRMS\tMAX\tkT\tKS(RAYLEIGH)")
		for _, row := range []struct {
			label  string
			speeds []float64
		}{{"before", before}, {"after", after}} {
			sum := analysis.Summarize(row.speeds, meta.Species[k])
			fmt.Fprintf(w, "%s\t%.4g\t%.4g\t%.4g\t%.4g\t%.4f\n",
				row.label, sum.Mean, sum.RMS, sum.Max, sum.Temperature, analysis.KSDistance(row.speeds, sum.Sigma()))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Println()
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	if outPath != "" {
		return st.ExportJSONFile(args[0], outPath)
	}
	return st.ExportJSON(args[0], os.Stdout)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	return storage.New(dataDir).ExportCSV(args[0], os.Stdout)
}

// parseGrid turns name=v1,v2,... specs into parallel name and value lists.
func parseGrid(specs []string) ([]string, [][]float64, error) {
	names := make([]string, 0, len(specs))
	ranges := make([][]float64, 0, len(specs))
	for _, spec := range specs {
		name, list, ok := strings.Cut(spec, "=")
		if !ok || name == "" || list == "" {
			return nil, nil, fmt.Errorf("invalid grid %q, want name=v1,v2,...", spec)
		}
		var values []float64
		for _, field := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("grid %s: %w", name, err)
			}
			values = append(values, v)
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}
	return names, ranges, nil
}

func sweepPreset(cmd *cobra.Command, args []string) error {
	name, cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	if len(gridSpecs) == 0 {
		return fmt.Errorf("no --grid given (tunable: %v)", config.Tunable)
	}
	names, ranges, err := parseGrid(gridSpecs)
	if err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	var recorded []string
	if sweepMetric != optim.EnergyFraction {
		if _, err := registry.GetMetric(sweepMetric); err != nil {
			return err
		}
		recorded = append(recorded, sweepMetric)
	}

	g := optim.NewGridSearch(names, ranges)
	logger.Info("starting sweep", "preset", name, "points", g.Size(), "metric", sweepMetric)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	best, bestVal, points, err := g.Search(ctx, optim.ConfigBuilder(cfg, registry, recorded...), sweepMetric)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tEVENTS\tREASON\t%s\n", strings.ToUpper(strings.Join(names, "\t")), strings.ToUpper(sweepMetric))
	for _, p := range points {
		cols := make([]string, len(names))
		for i, n := range names {
			cols[i] = strconv.FormatFloat(p.Params[n], 'g', -1, 64)
		}
		if p.Err != nil {
			fmt.Fprintf(w, "%s\t-\tfailed\t%v\n", strings.Join(cols, "\t"), p.Err)
			continue
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%.6g\n", strings.Join(cols, "\t"), p.Result.Resolved, p.Result.StopReason, p.Value)
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	if err != nil {
		return err
	}

	fmt.Printf("\nbest %s = %.6g at %v\n", sweepMetric, bestVal, best)
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	var st *storage.Store
	if !scenarioDryRun {
		st = storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
	}
	save := func(name string, cfg *config.Config, result *sim.Result) (string, error) {
		logger.Info("step finished", "name", name, "events", result.Resolved, "reason", result.StopReason)
		if st == nil {
			return "", nil
		}
		return st.Save(name, cfg, result)
	}

	logger.Info("starting scenario", "name", sc.Name, "steps", len(sc.Steps))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, runErr := automation.RunScenario(ctx, sc, experiment.NewRegistry(), save)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tNAME\tRUN ID\tEVENTS\tREASON\tENERGY")
	for i, r := range results {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%.1f%%\n",
			i+1, r.Name, r.RunID, r.Result.Resolved, r.Result.StopReason, 100*r.Result.EnergyFraction())
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return runErr
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	name, cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	ens := experiment.NewEnsemble(cfg, ensembleRuns, cfg.Seed, registry.DefaultMetrics)
	logger.Info("starting ensemble", "preset", name, "runs", ensembleRuns, "seed", cfg.Seed)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	results, err := ens.Run(ctx)
	if err != nil {
		return err
	}
	logger.Info("ensemble finished", "elapsed", time.Since(start).Round(time.Millisecond))

	columns := map[string][]float64{}
	for _, r := range results {
		columns["energy_fraction"] = append(columns["energy_fraction"], r.EnergyFraction())
		columns["time"] = append(columns["time"], r.Time)
		columns["events"] = append(columns["events"], float64(r.Resolved))
		for k, v := range r.Metrics {
			columns[k] = append(columns[k], v)
		}
	}
	keys := make([]string, 0, len(columns))
	for k := range columns {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "QUANTITY\tMEAN\tSTD")
	for _, k := range keys {
		mean, std := analysis.MeanStd(columns[k])
		fmt.Fprintf(w, "%s\t%.6g\t%.3g\n", k, mean, std)
	}
	return w.Flush()
}
