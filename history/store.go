package history

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/randalmurphal/resumeflow/workflow"
)

// compressionThreshold is the record size above which steps are gzipped.
const compressionThreshold = 64 * 1024

const (
	metadataFile  = "metadata.json"
	stepsFile     = "steps.json"
	stepsFileGzip = "steps.json.gz"
)

// FileStore keeps run histories under <baseDir>/runs/<runID>/. Runs in
// progress are held in memory and written when they end.
type FileStore struct {
	baseDir string
	mu      sync.RWMutex
	active  map[string]*Record
}

// NewFileStore creates a store rooted at baseDir.
func NewFileStore(baseDir string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Join(baseDir, "runs"), 0o755); err != nil {
		return nil, err
	}
	return &FileStore{
		baseDir: baseDir,
		active:  make(map[string]*Record),
	}, nil
}

// BaseDir returns the store's root directory.
func (s *FileStore) BaseDir() string {
	return s.baseDir
}

// Start begins recording a run.
func (s *FileStore) Start(runID, flowID string) error {
	if !validRunID(runID) {
		return fmt.Errorf("%w: %q", ErrInvalidRunID, runID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.active[runID]; exists {
		return ErrRunAlreadyExists
	}
	runDir := s.runDir(runID)
	if _, err := os.Stat(runDir); err == nil {
		return ErrRunAlreadyExists
	}
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return err
	}

	rec := &Record{
		Meta: Meta{
			RunID:     runID,
			FlowID:    flowID,
			Status:    StatusRunning,
			StartedAt: time.Now(),
		},
	}
	if err := s.writeMetadata(&rec.Meta); err != nil {
		return err
	}
	s.active[runID] = rec
	return nil
}

// Observe records a committed node. It has the workflow.NodeObserver
// signature; nodes of runs that were never started are ignored.
func (s *FileStore) Observe(node workflow.NodeID, state workflow.State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.active[state.RunID]
	if !ok {
		return
	}
	step := Step{
		Seq:        len(rec.Steps) + 1,
		Node:       node.String(),
		RetryCount: state.RetryCount,
		Text:       stepText(node, state),
		Timestamp:  time.Now(),
	}
	if node == workflow.NodeReview {
		step.Tag = state.Tag().String()
	}
	rec.Steps = append(rec.Steps, step)
	rec.Meta.StepCount = len(rec.Steps)
	rec.Meta.RetryCount = state.RetryCount
	rec.Meta.Usage = state.Usage
}

func stepText(node workflow.NodeID, state workflow.State) string {
	switch node {
	case workflow.NodeRetryPrep:
		return ""
	case workflow.NodeQuestions:
		return state.Questions()
	case workflow.NodeFinalize:
		return state.DocumentURL
	default:
		return state.ResumeText
	}
}

// End completes a run with its result or error and writes it to disk.
func (s *FileStore) End(runID string, result workflow.State, runErr error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.active[runID]
	if !ok {
		return ErrRunNotStarted
	}
	delete(s.active, runID)

	rec.Meta.Status = statusFor(result, runErr)
	rec.Meta.EndedAt = time.Now()
	if runErr != nil {
		rec.Meta.Error = runErr.Error()
		if node, ok := workflow.FailedNode(runErr); ok {
			rec.Meta.FailedNode = node.String()
		}
	} else {
		rec.Meta.RetryCount = result.RetryCount
		rec.Meta.DocumentURL = result.DocumentURL
		rec.Meta.Usage = result.Usage
	}

	if err := s.writeSteps(runID, rec.Steps); err != nil {
		return err
	}
	return s.writeMetadata(&rec.Meta)
}

// Load returns a run's full record, including runs still in progress.
func (s *FileStore) Load(runID string) (*Record, error) {
	s.mu.RLock()
	if rec, ok := s.active[runID]; ok {
		cp := &Record{Meta: rec.Meta, Steps: append([]Step(nil), rec.Steps...)}
		s.mu.RUnlock()
		return cp, nil
	}
	s.mu.RUnlock()

	meta, err := s.LoadMetadata(runID)
	if err != nil {
		return nil, err
	}
	steps, err := s.readSteps(runID)
	if err != nil {
		return nil, err
	}
	return &Record{Meta: *meta, Steps: steps}, nil
}

// LoadMetadata returns a run's summary.
func (s *FileStore) LoadMetadata(runID string) (*Meta, error) {
	s.mu.RLock()
	if rec, ok := s.active[runID]; ok {
		meta := rec.Meta
		s.mu.RUnlock()
		return &meta, nil
	}
	s.mu.RUnlock()

	if !validRunID(runID) {
		return nil, ErrRunNotFound
	}
	data, err := os.ReadFile(filepath.Join(s.runDir(runID), metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}
	var meta Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// List returns summaries matching filter, newest first.
func (s *FileStore) List(filter ListFilter) ([]Meta, error) {
	entries, err := os.ReadDir(filepath.Join(s.baseDir, "runs"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var results []Meta
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.LoadMetadata(entry.Name())
		if err != nil {
			continue
		}
		if filter.FlowID != "" && meta.FlowID != filter.FlowID {
			continue
		}
		if filter.Status != "" && meta.Status != filter.Status {
			continue
		}
		if !filter.After.IsZero() && meta.StartedAt.Before(filter.After) {
			continue
		}
		results = append(results, *meta)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].StartedAt.After(results[j].StartedAt)
	})
	if filter.Limit > 0 && len(results) > filter.Limit {
		results = results[:filter.Limit]
	}
	return results, nil
}

// Delete removes a run.
func (s *FileStore) Delete(runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !validRunID(runID) {
		return ErrRunNotFound
	}
	delete(s.active, runID)
	if err := os.RemoveAll(s.runDir(runID)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// validRunID rejects IDs that would escape the runs directory.
func validRunID(runID string) bool {
	return runID != "" && runID != "." && runID != ".." && !strings.ContainsAny(runID, `/\`)
}

func (s *FileStore) runDir(runID string) string {
	return filepath.Join(s.baseDir, "runs", runID)
}

func (s *FileStore) writeMetadata(meta *Meta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.runDir(meta.RunID), metadataFile), data, 0o644)
}

func (s *FileStore) writeSteps(runID string, steps []Step) error {
	data, err := json.MarshalIndent(steps, "", "  ")
	if err != nil {
		return err
	}
	dir := s.runDir(runID)

	if len(data) <= compressionThreshold {
		os.Remove(filepath.Join(dir, stepsFileGzip))
		return os.WriteFile(filepath.Join(dir, stepsFile), data, 0o644)
	}

	os.Remove(filepath.Join(dir, stepsFile))
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(data); err != nil {
		return err
	}
	if err := gz.Close(); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, stepsFileGzip), buf.Bytes(), 0o644)
}

func (s *FileStore) readSteps(runID string) ([]Step, error) {
	dir := s.runDir(runID)

	data, err := readGzip(filepath.Join(dir, stepsFileGzip))
	if errors.Is(err, os.ErrNotExist) {
		data, err = os.ReadFile(filepath.Join(dir, stepsFile))
		if errors.Is(err, os.ErrNotExist) {
			// A run that failed before its first node has no steps.
			return nil, nil
		}
	}
	if err != nil {
		return nil, err
	}

	var steps []Step
	if err := json.Unmarshal(data, &steps); err != nil {
		return nil, err
	}
	return steps, nil
}

func readGzip(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer gz.Close()
	return io.ReadAll(gz)
}
