// Package runs tracks import runs so the UI can poll progress and revisit
// past results. Runs live in memory and are lost on restart; the imported
// data itself is in the store.
package runs

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rfmelo/gestorpme/internal/importer"
)

// Status of an import run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Kind names what started the run.
type Kind string

const (
	KindDelimited Kind = "delimited"
	KindDocument  Kind = "document"
	KindConvert   Kind = "convert"
)

// ImportRun is one import from start to finish.
type ImportRun struct {
	ID          string           `json:"id"`
	Kind        Kind             `json:"kind"`
	FileName    string           `json:"fileName"`
	Status      Status           `json:"status"`
	StartedAt   time.Time        `json:"startedAt"`
	CompletedAt *time.Time       `json:"completedAt,omitempty"`
	Summary     importer.Summary `json:"summary"`
	Error       string           `json:"error,omitempty"`
}

// Tracker stores runs in memory, safe for concurrent use.
type Tracker struct {
	mu   sync.RWMutex
	runs map[string]*ImportRun
	now  func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{runs: make(map[string]*ImportRun), now: time.Now}
}

// Begin registers a new running import and returns its id.
func (t *Tracker) Begin(kind Kind, fileName string) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := uuid.NewString()
	t.runs[id] = &ImportRun{
		ID:        id,
		Kind:      kind,
		FileName:  fileName,
		Status:    StatusRunning,
		StartedAt: t.now(),
	}
	return id
}

// Complete marks a run finished with its summary.
func (t *Tracker) Complete(id string, summary importer.Summary) {
	t.finish(id, StatusCompleted, summary, "")
}

// Fail marks a run failed.
func (t *Tracker) Fail(id string, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	t.finish(id, StatusFailed, importer.Summary{}, msg)
}

func (t *Tracker) finish(id string, status Status, summary importer.Summary, errMsg string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	run, ok := t.runs[id]
	if !ok {
		return
	}
	done := t.now()
	run.Status = status
	run.Summary = summary
	run.Error = errMsg
	run.CompletedAt = &done
}

// Get returns a copy of one run.
func (t *Tracker) Get(id string) (ImportRun, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	run, ok := t.runs[id]
	if !ok {
		return ImportRun{}, fmt.Errorf("runs: execução não encontrada: %s", id)
	}
	return *run, nil
}

// List returns copies of all runs, newest first.
func (t *Tracker) List() []ImportRun {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]ImportRun, 0, len(t.runs))
	for _, run := range t.runs {
		out = append(out, *run)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out
}
