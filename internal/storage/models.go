package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Document is an uploaded financial document. The binary payload lives in
// the blob store under StorageKey; this record is metadata only and is never
// mutated after upload.
type Document struct {
	ID          string
	Title       string
	ContentType string
	StorageKey  string
	CreatedAt   time.Time
}

// RunRecord is the persisted form of a pipeline run. Stages is the full
// []StageRecord serialized as JSON text; the whole row is replaced on every
// state transition so a failed external call can never leave a half-written
// record behind.
type RunRecord struct {
	ID             string
	DocumentID     string
	StagesJSON     string // JSON array stored as text
	CurrentStage   int
	OverallStatus  string // "pending", "running", "paused", "completed", "failed"
	StartedAt      time.Time
	LastUpdatedAt  time.Time
	ExtractionJSON string // extraction result (text, provenance, quality)
	FactsJSON      string // structured financial facts
	ScriptsJSON    string // narrative script variants
}

// Notification is one append-only progress message for a run. Seq preserves
// stage-completion order for observers.
type Notification struct {
	RunID     string
	Seq       int
	Message   string
	CreatedAt time.Time
}

// Job is one queued unit of background work (currently only "run_pipeline").
type Job struct {
	ID          string
	Type        string
	PayloadJSON string
	Status      string // "pending", "running", "completed", "failed"
	Attempts    int
	MaxAttempts int
	RunAfter    time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastError   string
}
