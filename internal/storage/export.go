package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/hardsim/internal/sim"
)

type ExportData struct {
	Run    RunMetadata `json:"run"`
	Events int         `json:"events"`
	Times  []float64   `json:"times"`
	Energy []float64   `json:"energy"`
	// SpeciesEnergy is indexed by species, then by event.
	SpeciesEnergy [][]float64 `json:"species_energy"`
	Speeds        []SpeedRow  `json:"speeds"`
}

func newExportData(meta *RunMetadata, rows []sim.Row, speeds []SpeedRow) ExportData {
	data := ExportData{
		Run:           *meta,
		Events:        len(rows),
		Times:         make([]float64, len(rows)),
		Energy:        make([]float64, len(rows)),
		SpeciesEnergy: make([][]float64, len(meta.Species)),
		Speeds:        speeds,
	}
	for k := range data.SpeciesEnergy {
		data.SpeciesEnergy[k] = make([]float64, len(rows))
	}
	for i, row := range rows {
		data.Times[i] = row.Time
		data.Energy[i] = row.Energy
		for k, e := range row.SpeciesEnergy {
			if k < len(data.SpeciesEnergy) {
				data.SpeciesEnergy[k][i] = e
			}
		}
	}
	return data
}

// ExportJSON writes a stored run, diagnostics included, as one JSON document.
func (s *Store) ExportJSON(runID string, w io.Writer) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	rows, err := s.LoadEnergy(runID)
	if err != nil {
		return err
	}
	speeds, err := s.LoadSpeeds(runID)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(newExportData(meta, rows, speeds))
}

func (s *Store) ExportJSONFile(runID, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := s.ExportJSON(runID, file); err != nil {
		return err
	}
	return file.Close()
}

// ExportCSV writes the energy table of a stored run.
func (s *Store) ExportCSV(runID string, w io.Writer) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	rows, err := s.LoadEnergy(runID)
	if err != nil {
		return err
	}

	return csv.NewWriter(w).WriteAll(energyRecords(len(meta.Species), rows))
}
