// Package pipeline sequences the document stages (extract, analyze,
// generate) as an explicit state machine. Runs are plain values persisted
// through an injected store on every transition; the controller never holds
// the only copy of run state.
package pipeline

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/reportreel/reportreel/internal/storage"
)

// StageStatus is the lifecycle of a single stage.
type StageStatus string

const (
	StagePending   StageStatus = "pending"
	StageRunning   StageStatus = "running"
	StageCompleted StageStatus = "completed"
	StageFailed    StageStatus = "failed"
)

// RunStatus is the lifecycle of a whole run. It adds paused to the stage
// statuses; completed and failed are terminal.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunPaused    RunStatus = "paused"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// IsTerminal reports whether no further stage work can happen for s.
func (s RunStatus) IsTerminal() bool {
	return s == RunCompleted || s == RunFailed
}

// StageRecord tracks one stage of a run. Timestamps and error messages must
// round-trip through persistence losslessly; retries are debugged with them.
type StageRecord struct {
	Name         string      `json:"name"`
	Status       StageStatus `json:"status"`
	Progress     int         `json:"progress"`
	ErrorMessage string      `json:"error_message,omitempty"`
	StartedAt    *time.Time  `json:"started_at,omitempty"`
	EndedAt      *time.Time  `json:"ended_at,omitempty"`
}

// Run is the in-memory form of a pipeline run. Updates are applied to a
// copy and persisted as one atomic record replacement.
type Run struct {
	ID            string
	DocumentID    string
	Stages        []StageRecord
	CurrentStage  int
	OverallStatus RunStatus
	StartedAt     time.Time
	LastUpdatedAt time.Time

	// Stage outputs, carried as raw JSON so the run record stays the
	// single source of truth for API responses.
	ExtractionJSON string
	FactsJSON      string
	ScriptsJSON    string
}

// toRecord flattens a Run for storage.
func (r *Run) toRecord() (storage.RunRecord, error) {
	stages, err := json.Marshal(r.Stages)
	if err != nil {
		return storage.RunRecord{}, fmt.Errorf("marshalling stages: %w", err)
	}
	return storage.RunRecord{
		ID:             r.ID,
		DocumentID:     r.DocumentID,
		StagesJSON:     string(stages),
		CurrentStage:   r.CurrentStage,
		OverallStatus:  string(r.OverallStatus),
		StartedAt:      r.StartedAt,
		LastUpdatedAt:  r.LastUpdatedAt,
		ExtractionJSON: r.ExtractionJSON,
		FactsJSON:      r.FactsJSON,
		ScriptsJSON:    r.ScriptsJSON,
	}, nil
}

// runFromRecord inflates a stored record back into a Run.
func runFromRecord(rec storage.RunRecord) (*Run, error) {
	var stages []StageRecord
	if err := json.Unmarshal([]byte(rec.StagesJSON), &stages); err != nil {
		return nil, fmt.Errorf("unmarshalling stages for run %s: %w", rec.ID, err)
	}
	return &Run{
		ID:             rec.ID,
		DocumentID:     rec.DocumentID,
		Stages:         stages,
		CurrentStage:   rec.CurrentStage,
		OverallStatus:  RunStatus(rec.OverallStatus),
		StartedAt:      rec.StartedAt,
		LastUpdatedAt:  rec.LastUpdatedAt,
		ExtractionJSON: rec.ExtractionJSON,
		FactsJSON:      rec.FactsJSON,
		ScriptsJSON:    rec.ScriptsJSON,
	}, nil
}

// OverallProgress returns the run's progress as a 0..100 percentage:
// completed stages count in full, the running stage contributes its own
// progress, pending stages contribute nothing.
func (r *Run) OverallProgress() int {
	if len(r.Stages) == 0 {
		return 0
	}
	total := 0
	for _, s := range r.Stages {
		switch s.Status {
		case StageCompleted:
			total += 100
		case StageRunning:
			total += s.Progress
		}
	}
	return total / len(r.Stages)
}

// EstimatedTimeRemaining sums the running stage's remaining estimate with
// the full estimates of stages that have not started, using now for elapsed
// time. Completed and failed stages contribute nothing.
func (r *Run) EstimatedTimeRemaining(estimates map[string]time.Duration, now time.Time) time.Duration {
	var remaining time.Duration
	for _, s := range r.Stages {
		est := estimates[s.Name]
		switch s.Status {
		case StageRunning:
			if s.StartedAt != nil {
				if left := est - now.Sub(*s.StartedAt); left > 0 {
					remaining += left
				}
			} else {
				remaining += est
			}
		case StagePending:
			remaining += est
		}
	}
	return remaining
}
