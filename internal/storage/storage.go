// Package storage persists finished runs: metadata plus the full step
// log, one JSON step per line.
package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/lachiemurray/PhotonAi/internal/world"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0o755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Scenario  string             `json:"scenario"`
	Timestamp time.Time          `json:"timestamp"`
	Dt        float64            `json:"dt"`
	Lifetime  float64            `json:"lifetime"`
	Steps     int                `json:"steps"`
	Metrics   map[string]float64 `json:"metrics"`
}

const stepsFile = "steps.jsonl"

// Save writes one run directory containing metadata.json and the step
// log, and returns the run ID.
func (s *Store) Save(scenario string, dt, lifetime float64, steps []*world.Step, metrics map[string]float64) (string, error) {
	if err := s.Init(); err != nil {
		return "", err
	}
	runID := fmt.Sprintf("%s_%d", scenario, time.Now().UnixNano())
	runDir := filepath.Join(s.baseDir, runID)
	// Mkdir, not MkdirAll: an existing directory means an ID collision,
	// and overwriting another run's log is worse than failing.
	if err := os.Mkdir(runDir, 0o755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Scenario:  scenario,
		Timestamp: time.Now(),
		Dt:        dt,
		Lifetime:  lifetime,
		Steps:     len(steps),
		Metrics:   metrics,
	}
	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()
	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	logFile, err := os.Create(filepath.Join(runDir, stepsFile))
	if err != nil {
		return "", err
	}
	defer logFile.Close()
	w := bufio.NewWriter(logFile)
	stepEnc := json.NewEncoder(w)
	for _, step := range steps {
		if err := stepEnc.Encode(step); err != nil {
			return "", err
		}
	}
	if err := w.Flush(); err != nil {
		return "", err
	}
	return runID, nil
}

// List returns metadata for every stored run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var runs []RunMetadata
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, e.Name(), "metadata.json"))
		if err != nil {
			continue
		}
		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

// LoadSteps reads a stored run's full step log back.
func (s *Store) LoadSteps(runID string) ([]*world.Step, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, stepsFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var steps []*world.Step
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		var step world.Step
		if err := json.Unmarshal(scanner.Bytes(), &step); err != nil {
			return nil, fmt.Errorf("run %s: %w", runID, err)
		}
		steps = append(steps, &step)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return steps, nil
}
