package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/hardsim/internal/config"
	"github.com/san-kum/hardsim/internal/particle"
	"github.com/san-kum/hardsim/internal/sim"
)

const (
	metadataFile  = "metadata.json"
	energyFile    = "energy.csv"
	speedsFile    = "speeds.csv"
	particlesFile = "particles.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) runDir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

type RunMetadata struct {
	ID            string             `json:"id"`
	Preset        string             `json:"preset"`
	Timestamp     time.Time          `json:"timestamp"`
	Seed          int64              `json:"seed"`
	Particles     int                `json:"particles"`
	XMax          float64            `json:"x_max"`
	YMax          float64            `json:"y_max"`
	Restitution   float64            `json:"restitution"`
	TC            bool               `json:"tc"`
	TCThreshold   float64            `json:"tc_threshold"`
	MaxEvents     int                `json:"max_events"`
	EnergyCutoff  float64            `json:"energy_cutoff"`
	Species       []float64          `json:"species"`
	Time          float64            `json:"time"`
	Resolved      int                `json:"resolved"`
	Popped        int                `json:"popped"`
	Discarded     int                `json:"discarded"`
	Generated     int                `json:"generated"`
	TCEvents      int                `json:"tc_events"`
	StopReason    string             `json:"stop_reason"`
	InitialEnergy float64            `json:"initial_energy"`
	FinalEnergy   float64            `json:"final_energy"`
	Metrics       map[string]float64 `json:"metrics"`
}

// SpeedRow is one line of the before/after speed table.
type SpeedRow struct {
	Index   int
	Species int
	Before  float64
	After   float64
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Save writes a finished run to a fresh directory and returns its id.
func (s *Store) Save(preset string, cfg *config.Config, result *sim.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", preset, now.UnixMilli())
	runDir := s.runDir(runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:            runID,
		Preset:        preset,
		Timestamp:     now,
		Seed:          cfg.Seed,
		Particles:     result.Store.Len(),
		XMax:          cfg.Box.XMax,
		YMax:          cfg.Box.YMax,
		Restitution:   cfg.Restitution,
		TC:            cfg.TC.Enabled,
		TCThreshold:   cfg.TC.Threshold,
		MaxEvents:     cfg.MaxEvents,
		EnergyCutoff:  cfg.EnergyCutoff,
		Species:       result.Species,
		Time:          result.Time,
		Resolved:      result.Resolved,
		Popped:        result.Popped,
		Discarded:     result.Discarded,
		Generated:     result.Generated,
		TCEvents:      result.TCEvents,
		StopReason:    result.StopReason.String(),
		InitialEnergy: result.InitialEnergy,
		FinalEnergy:   result.FinalEnergy,
		Metrics:       result.Metrics,
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeCSV(filepath.Join(runDir, energyFile), energyRecords(len(result.Species), result.Rows)); err != nil {
		return "", err
	}
	if err := writeCSV(filepath.Join(runDir, speedsFile), speedRecords(result)); err != nil {
		return "", err
	}
	if err := writeCSV(filepath.Join(runDir, particlesFile), particleRecords(result.Store)); err != nil {
		return "", err
	}
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCSV(path string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		return err
	}
	return f.Close()
}

func energyHeader(species int) []string {
	header := []string{"time", "e_tot"}
	for k := 0; k < species; k++ {
		header = append(header, fmt.Sprintf("e_%d", k))
	}
	return header
}

func energyRecords(species int, rows []sim.Row) [][]string {
	records := [][]string{energyHeader(species)}
	for _, row := range rows {
		rec := []string{formatFloat(row.Time), formatFloat(row.Energy)}
		for _, e := range row.SpeciesEnergy {
			rec = append(rec, formatFloat(e))
		}
		records = append(records, rec)
	}
	return records
}

func speedRecords(result *sim.Result) [][]string {
	records := [][]string{{"index", "species", "before", "after"}}
	for i := range result.SpeedsBefore {
		records = append(records, []string{
			strconv.Itoa(i),
			strconv.Itoa(result.Store.SpeciesOf(i, result.Species)),
			formatFloat(result.SpeedsBefore[i]),
			formatFloat(result.SpeedsAfter[i]),
		})
	}
	return records
}

func particleRecords(st *particle.Store) [][]string {
	records := [][]string{{"x", "y", "v_x", "v_y", "radius", "mass", "count"}}
	for i := 0; i < st.Len(); i++ {
		records = append(records, []string{
			formatFloat(st.X[i]), formatFloat(st.Y[i]),
			formatFloat(st.VX[i]), formatFloat(st.VY[i]),
			formatFloat(st.R[i]), formatFloat(st.M[i]),
			strconv.FormatUint(st.Count[i], 10),
		})
	}
	return records
}

// List returns the metadata of every stored run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.runDir(runID), metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) readCSV(runID, name string) ([][]string, error) {
	f, err := os.Open(filepath.Join(s.runDir(runID), name))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("%s: missing header", name)
	}
	return records[1:], nil
}

func parseFloats(record []string) ([]float64, error) {
	out := make([]float64, len(record))
	for i, field := range record {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// LoadEnergy reads the per-event diagnostics table of a run.
func (s *Store) LoadEnergy(runID string) ([]sim.Row, error) {
	records, err := s.readCSV(runID, energyFile)
	if err != nil {
		return nil, err
	}

	rows := make([]sim.Row, 0, len(records))
	for n, rec := range records {
		vals, err := parseFloats(rec)
		if err != nil || len(vals) < 2 {
			return nil, fmt.Errorf("%s line %d: malformed row", energyFile, n+2)
		}
		rows = append(rows, sim.Row{Time: vals[0], Energy: vals[1], SpeciesEnergy: vals[2:]})
	}
	return rows, nil
}

func (s *Store) LoadSpeeds(runID string) ([]SpeedRow, error) {
	records, err := s.readCSV(runID, speedsFile)
	if err != nil {
		return nil, err
	}

	rows := make([]SpeedRow, 0, len(records))
	for n, rec := range records {
		if len(rec) != 4 {
			return nil, fmt.Errorf("%s line %d: want 4 fields, got %d", speedsFile, n+2, len(rec))
		}
		idx, err1 := strconv.Atoi(rec[0])
		sp, err2 := strconv.Atoi(rec[1])
		vals, err3 := parseFloats(rec[2:])
		if err1 != nil || err2 != nil || err3 != nil {
			return nil, fmt.Errorf("%s line %d: malformed row", speedsFile, n+2)
		}
		rows = append(rows, SpeedRow{Index: idx, Species: sp, Before: vals[0], After: vals[1]})
	}
	return rows, nil
}

// LoadParticles rebuilds the final particle store of a run.
func (s *Store) LoadParticles(runID string) (*particle.Store, error) {
	records, err := s.readCSV(runID, particlesFile)
	if err != nil {
		return nil, err
	}

	st := particle.New(len(records))
	for i, rec := range records {
		if len(rec) != 7 {
			return nil, fmt.Errorf("%s line %d: want 7 fields, got %d", particlesFile, i+2, len(rec))
		}
		vals, err := parseFloats(rec[:6])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", particlesFile, i+2, err)
		}
		count, err := strconv.ParseUint(rec[6], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", particlesFile, i+2, err)
		}
		st.Set(i, vals[0], vals[1], vals[2], vals[3], vals[4], vals[5])
		st.Count[i] = count
	}
	return st, nil
}
