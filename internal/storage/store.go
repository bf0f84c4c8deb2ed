package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/sim"
)

const (
	metadataFile = "metadata.json"
	statesFile   = "states.csv"
)

// ErrRunNotFound is returned when no saved run has the requested id.
var ErrRunNotFound = errors.New("storage: run not found")

// Store keeps one directory per run under baseDir: metadata.json with the
// run setup and summary, states.csv with the sampled trajectory.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunInfo is what the caller knows about a run before it starts.
type RunInfo struct {
	Initial    string
	Params     map[string]any
	Integrator string
	G          float64
	Softening  float64
	Dt         float64
	Steps      int
}

type RunMetadata struct {
	ID              string             `json:"id"`
	Initial         string             `json:"initial"`
	Params          map[string]any     `json:"params,omitempty"`
	Integrator      string             `json:"integrator"`
	Timestamp       time.Time          `json:"timestamp"`
	G               float64            `json:"g"`
	Softening       float64            `json:"softening"`
	Dt              float64            `json:"dt"`
	Steps           int                `json:"steps"`
	StepsTaken      int                `json:"steps_taken"`
	Masses          []float64          `json:"masses"`
	InitialEnergy   float64            `json:"initial_energy"`
	FinalEnergy     float64            `json:"final_energy"`
	EnergyError     float64            `json:"energy_error"`
	PeakEnergyError float64            `json:"peak_energy_error"`
	Metrics         map[string]float64 `json:"metrics"`
	Errors          []string           `json:"errors,omitempty"`
}

// NewMetadata summarises a finished run. The id is left empty.
func NewMetadata(info RunInfo, result *sim.Result) RunMetadata {
	meta := RunMetadata{
		Initial:         info.Initial,
		Params:          info.Params,
		Integrator:      info.Integrator,
		Timestamp:       time.Now(),
		G:               info.G,
		Softening:       info.Softening,
		Dt:              info.Dt,
		Steps:           info.Steps,
		StepsTaken:      result.StepsTaken,
		InitialEnergy:   result.InitialEnergy,
		FinalEnergy:     result.FinalEnergy,
		EnergyError:     result.EnergyError,
		PeakEnergyError: result.PeakEnergyError,
		Metrics:         result.Metrics,
	}
	if len(result.States) > 0 {
		meta.Masses = result.States[0].Masses()
	}
	for _, err := range result.Errors {
		meta.Errors = append(meta.Errors, err.Error())
	}
	return meta
}

// Save writes the run and returns its id. On failure the partial run
// directory is removed.
func (s *Store) Save(info RunInfo, result *sim.Result) (string, error) {
	meta := NewMetadata(info, result)
	meta.ID = fmt.Sprintf("%s_%d", info.Initial, meta.Timestamp.UnixNano())
	runDir := filepath.Join(s.baseDir, meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	if err := writeRun(runDir, meta, result); err != nil {
		if rmErr := os.RemoveAll(runDir); rmErr != nil {
			err = errors.Join(err, rmErr)
		}
		return "", fmt.Errorf("save run %s: %w", meta.ID, err)
	}
	return meta.ID, nil
}

func writeRun(runDir string, meta RunMetadata, result *sim.Result) error {
	if err := writeFile(filepath.Join(runDir, metadataFile), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}); err != nil {
		return err
	}
	return writeFile(filepath.Join(runDir, statesFile), func(w io.Writer) error {
		return WriteCSV(w, result)
	})
}

// writeFile creates path, runs write on it and reports the Close error
// when write succeeded.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// List returns saved runs, oldest first. Directories without readable
// metadata are skipped.
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
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

// Trajectory is a saved run read back from disk.
type Trajectory struct {
	Times    []float64
	Energies []float64
	States   []dynamo.State
}

func (s *Store) LoadStates(runID string) (*Trajectory, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ReadCSV(file, meta.Masses)
}

// WriteCSV writes one row per sampled state: time, total energy, then
// x y z vx vy vz for each body. Values are written at full precision so
// the states can be read back exactly.
func WriteCSV(w io.Writer, result *sim.Result) error {
	cw := csv.NewWriter(w)

	if len(result.States) == 0 {
		cw.Flush()
		return cw.Error()
	}

	header := []string{"time", "energy"}
	for i := 0; i < result.States[0].Len(); i++ {
		for _, c := range []string{"x", "y", "z", "vx", "vy", "vz"} {
			header = append(header, fmt.Sprintf("b%d_%s", i, c))
		}
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for i, st := range result.States {
		row := []string{formatFloat(result.Times[i]), formatFloat(result.Energies[i])}
		for _, v := range st.Flatten() {
			row = append(row, formatFloat(v))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV parses what WriteCSV wrote. masses gives the body count and the
// mass of each body, which the CSV does not carry.
func ReadCSV(r io.Reader, masses []float64) (*Trajectory, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}

	traj := &Trajectory{}
	if len(records) < 2 {
		return traj, nil
	}

	want := 2 + 6*len(masses)
	for i, record := range records[1:] {
		if len(record) != want {
			return nil, fmt.Errorf("row %d: %d columns for %d bodies: %w", i+1, len(record), len(masses), dynamo.ErrDimensionMismatch)
		}
		vals := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %d: %w", i+1, j, err)
			}
			vals[j] = v
		}
		st, err := dynamo.Unflatten(masses, vals[2:])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		traj.Times = append(traj.Times, vals[0])
		traj.Energies = append(traj.Energies, vals[1])
		traj.States = append(traj.States, st)
	}
	return traj, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
