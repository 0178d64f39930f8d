package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/reportreel/reportreel/internal/extract"
	"github.com/reportreel/reportreel/internal/facts"
	"github.com/reportreel/reportreel/internal/narrative"
	"github.com/reportreel/reportreel/internal/storage"
)

// Stage names, in execution order.
const (
	StageExtract  = "extract"
	StageAnalyze  = "analyze"
	StageGenerate = "generate"
)

// JobTypePipeline is the queue type for stage-execution jobs.
const JobTypePipeline = "run_pipeline"

const cancelMessage = "cancelled by user"

var (
	// ErrRunActive rejects a second trigger while a document already has a
	// non-terminal run. Callers must not queue silently behind it.
	ErrRunActive = errors.New("a run is already active for this document")

	// ErrNotPausable means the current stage has no safe checkpoint.
	ErrNotPausable = errors.New("current stage cannot be paused")
)

// RunStore is the persistence collaborator. Every state transition goes
// through SaveRun as one whole-record replacement.
type RunStore interface {
	SaveRun(rec storage.RunRecord) error
	GetRun(id string) (storage.RunRecord, error)
	GetActiveRunForDocument(documentID string) (storage.RunRecord, error)
	GetDocument(id string) (storage.Document, error)
	AppendNotification(runID, message string) error
	ListNotifications(runID string) ([]storage.Notification, error)
	EnqueueJob(job storage.Job) error
}

// DocumentExtractor produces text for the extract stage.
type DocumentExtractor interface {
	Extract(ctx context.Context, storageKey, contentType string) extract.Extraction
}

// FactExtractor produces structured facts for the analyze stage.
type FactExtractor interface {
	Extract(ctx context.Context, text string) (facts.FinancialFacts, facts.Source, error)
}

// ScriptGenerator produces the script set for the generate stage.
type ScriptGenerator interface {
	Generate(ctx context.Context, f facts.FinancialFacts) ([]narrative.ScriptVariant, narrative.Source)
}

// FactsResult is the analyze stage's persisted output.
type FactsResult struct {
	Facts  facts.FinancialFacts `json:"facts"`
	Source facts.Source         `json:"source"`
}

// ScriptsResult is the generate stage's persisted output.
type ScriptsResult struct {
	Scripts []narrative.ScriptVariant `json:"scripts"`
	Source  narrative.Source          `json:"source"`
}

// stageDef binds a stage name to its executor and scheduling metadata.
// Pausable stages honor a pause request at their boundary; the generate
// stage is a single model call with no checkpoint, so it is not pausable.
type stageDef struct {
	name     string
	pausable bool
	estimate time.Duration
	run      func(ctx context.Context, run *Run, doc storage.Document) error
}

// Controller owns run state transitions. It never crashes on stage errors:
// they are recorded on the run and the run goes to failed, ready for a
// manual retry.
type Controller struct {
	store     RunStore
	extractor DocumentExtractor
	analyzer  FactExtractor
	generator ScriptGenerator
	logger    *slog.Logger
	now       func() time.Time
	stages    []stageDef
}

func NewController(store RunStore, extractor DocumentExtractor, analyzer FactExtractor, generator ScriptGenerator) *Controller {
	c := &Controller{
		store:     store,
		extractor: extractor,
		analyzer:  analyzer,
		generator: generator,
		logger:    slog.Default(),
		now:       time.Now,
	}
	c.stages = []stageDef{
		{name: StageExtract, pausable: true, estimate: 5 * time.Second, run: c.runExtract},
		{name: StageAnalyze, pausable: true, estimate: 25 * time.Second, run: c.runAnalyze},
		{name: StageGenerate, pausable: false, estimate: 30 * time.Second, run: c.runGenerate},
	}
	return c
}

// StageEstimates exposes the per-stage duration estimates used for ETA.
func (c *Controller) StageEstimates() map[string]time.Duration {
	m := make(map[string]time.Duration, len(c.stages))
	for _, s := range c.stages {
		m[s.name] = s.estimate
	}
	return m
}

// StartRun creates a pending run for the document and queues its execution.
// A document with a non-terminal run gets ErrRunActive.
func (c *Controller) StartRun(ctx context.Context, documentID string) (*Run, error) {
	if _, err := c.store.GetActiveRunForDocument(documentID); err == nil {
		return nil, ErrRunActive
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("checking active runs: %w", err)
	}

	now := c.now().UTC()
	run := &Run{
		ID:            uuid.New().String(),
		DocumentID:    documentID,
		CurrentStage:  0,
		OverallStatus: RunPending,
		StartedAt:     now,
		LastUpdatedAt: now,
	}
	for _, def := range c.stages {
		run.Stages = append(run.Stages, StageRecord{Name: def.name, Status: StagePending})
	}
	if err := c.save(run); err != nil {
		return nil, err
	}
	c.notify(run.ID, "pipeline queued")

	if err := c.enqueue(run.ID); err != nil {
		return nil, err
	}
	return run, nil
}

// Execute drives the run's stages until it completes, fails, or a control
// request (pause, cancel) stops it. Stage errors never escape: they are
// recorded on the run. An error return means the run's state could not be
// loaded or persisted.
func (c *Controller) Execute(ctx context.Context, runID string) error {
	for {
		// Reload at every boundary so pause and cancel requests issued
		// while the previous stage ran are observed.
		run, err := c.load(runID)
		if err != nil {
			return err
		}
		if run.OverallStatus.IsTerminal() || run.OverallStatus == RunPaused {
			return nil
		}
		if run.CurrentStage >= len(c.stages) {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		doc, err := c.store.GetDocument(run.DocumentID)
		if err != nil {
			return fmt.Errorf("loading document %s: %w", run.DocumentID, err)
		}

		if err := c.executeStage(ctx, run, doc); err != nil {
			return err
		}
		if run.OverallStatus != RunRunning {
			return nil
		}
	}
}

// executeStage runs the current stage and applies its outcome as a single
// atomic record replacement.
func (c *Controller) executeStage(ctx context.Context, run *Run, doc storage.Document) error {
	idx := run.CurrentStage
	def := c.stages[idx]
	st := &run.Stages[idx]

	started := c.now().UTC()
	st.Status = StageRunning
	st.Progress = 0
	st.ErrorMessage = ""
	st.StartedAt = &started
	st.EndedAt = nil
	run.OverallStatus = RunRunning
	if err := c.save(run); err != nil {
		return err
	}
	c.notify(run.ID, def.name+" started")

	stageErr := def.run(ctx, run, doc)
	ended := c.now().UTC()
	st.EndedAt = &ended

	// A cancel issued mid-stage already moved the run to failed; the
	// stage's late result is discarded rather than resurrecting the run.
	fresh, err := c.load(run.ID)
	if err != nil {
		return err
	}
	if fresh.OverallStatus.IsTerminal() {
		c.logger.Info("discarding stage result for terminal run", "run_id", run.ID, "stage", def.name)
		*run = *fresh
		return nil
	}

	if stageErr != nil {
		st.Status = StageFailed
		st.ErrorMessage = stageErr.Error()
		run.OverallStatus = RunFailed
		if err := c.save(run); err != nil {
			return err
		}
		c.notify(run.ID, fmt.Sprintf("%s failed: %s", def.name, stageErr.Error()))
		c.logger.Warn("stage failed", "run_id", run.ID, "stage", def.name, "error", stageErr)
		return nil
	}

	st.Status = StageCompleted
	st.Progress = 100
	if idx == len(c.stages)-1 {
		run.OverallStatus = RunCompleted
	} else {
		run.CurrentStage = idx + 1
	}
	// A pause requested mid-stage takes effect here, after the stage's
	// outcome is recorded.
	if fresh.OverallStatus == RunPaused && run.OverallStatus == RunRunning {
		run.OverallStatus = RunPaused
	}
	if err := c.save(run); err != nil {
		return err
	}
	c.notify(run.ID, def.name+" completed")
	return nil
}

func (c *Controller) runExtract(ctx context.Context, run *Run, doc storage.Document) error {
	ex := c.extractor.Extract(ctx, doc.StorageKey, doc.ContentType)
	b, err := json.Marshal(ex)
	if err != nil {
		return fmt.Errorf("encoding extraction: %w", err)
	}
	run.ExtractionJSON = string(b)
	if len(ex.QualityIssues) > 0 {
		c.notify(run.ID, fmt.Sprintf("extraction quality warning (%s): %d issue(s)", ex.Provenance, len(ex.QualityIssues)))
	}
	return nil
}

func (c *Controller) runAnalyze(ctx context.Context, run *Run, _ storage.Document) error {
	var ex extract.Extraction
	if run.ExtractionJSON == "" {
		return fmt.Errorf("no extraction result available")
	}
	if err := json.Unmarshal([]byte(run.ExtractionJSON), &ex); err != nil {
		return fmt.Errorf("decoding extraction: %w", err)
	}

	f, src, err := c.analyzer.Extract(ctx, ex.Text)
	if err != nil {
		return err
	}
	b, err := json.Marshal(FactsResult{Facts: f, Source: src})
	if err != nil {
		return fmt.Errorf("encoding facts: %w", err)
	}
	run.FactsJSON = string(b)
	return nil
}

func (c *Controller) runGenerate(ctx context.Context, run *Run, _ storage.Document) error {
	var fr FactsResult
	if run.FactsJSON == "" {
		return fmt.Errorf("no facts available")
	}
	if err := json.Unmarshal([]byte(run.FactsJSON), &fr); err != nil {
		return fmt.Errorf("decoding facts: %w", err)
	}

	scripts, src := c.generator.Generate(ctx, fr.Facts)
	b, err := json.Marshal(ScriptsResult{Scripts: scripts, Source: src})
	if err != nil {
		return fmt.Errorf("encoding scripts: %w", err)
	}
	run.ScriptsJSON = string(b)
	return nil
}

// Pause requests a stop at the next stage boundary. It is honored only
// while the run is pending or running and the current stage is pausable.
func (c *Controller) Pause(runID string) error {
	run, err := c.load(runID)
	if err != nil {
		return err
	}
	if run.OverallStatus != RunRunning && run.OverallStatus != RunPending {
		return fmt.Errorf("cannot pause run in state %s", run.OverallStatus)
	}
	if run.CurrentStage < len(c.stages) && !c.stages[run.CurrentStage].pausable {
		return ErrNotPausable
	}

	run.OverallStatus = RunPaused
	if err := c.save(run); err != nil {
		return err
	}
	c.notify(runID, "run paused")
	return nil
}

// Resume requeues a paused run. The interrupted stage restarts from its
// beginning; there is no partial resume.
func (c *Controller) Resume(runID string) error {
	run, err := c.load(runID)
	if err != nil {
		return err
	}
	if run.OverallStatus != RunPaused {
		return fmt.Errorf("cannot resume run in state %s", run.OverallStatus)
	}

	run.OverallStatus = RunPending
	if err := c.save(run); err != nil {
		return err
	}
	c.notify(runID, "run resumed")
	return c.enqueue(runID)
}

// Retry resets the failed stage, and only that stage, then requeues the
// run. Completed stages keep their results.
func (c *Controller) Retry(runID string) error {
	run, err := c.load(runID)
	if err != nil {
		return err
	}
	if run.OverallStatus != RunFailed {
		return fmt.Errorf("cannot retry run in state %s", run.OverallStatus)
	}
	st := &run.Stages[run.CurrentStage]
	if st.Status != StageFailed {
		return fmt.Errorf("stage %s is %s, nothing to retry", st.Name, st.Status)
	}

	st.Status = StagePending
	st.Progress = 0
	st.ErrorMessage = ""
	st.StartedAt = nil
	st.EndedAt = nil
	run.OverallStatus = RunPending
	if err := c.save(run); err != nil {
		return err
	}
	c.notify(runID, "retrying "+st.Name)
	return c.enqueue(runID)
}

// Cancel moves any non-terminal run to failed with a cancellation message
// and stops further stage scheduling.
func (c *Controller) Cancel(runID string) error {
	run, err := c.load(runID)
	if err != nil {
		return err
	}
	if run.OverallStatus.IsTerminal() {
		return fmt.Errorf("cannot cancel run in state %s", run.OverallStatus)
	}

	now := c.now().UTC()
	if run.CurrentStage < len(run.Stages) {
		st := &run.Stages[run.CurrentStage]
		if st.Status != StageCompleted {
			st.Status = StageFailed
			st.ErrorMessage = cancelMessage
			st.EndedAt = &now
		}
	}
	run.OverallStatus = RunFailed
	if err := c.save(run); err != nil {
		return err
	}
	c.notify(runID, "run cancelled")
	return nil
}

// StageView is the per-stage slice of the status surface.
type StageView struct {
	Name     string      `json:"name"`
	Status   StageStatus `json:"status"`
	Progress int         `json:"progress"`
}

// StatusView is the polled status surface for UIs and logs.
type StatusView struct {
	RunID                    string      `json:"run_id"`
	OverallStatus            RunStatus   `json:"overall_status"`
	Stages                   []StageView `json:"stages"`
	OverallProgress          int         `json:"overall_progress"`
	EstimatedTimeRemainingMs int64       `json:"estimated_time_remaining_ms"`
	Notifications            []string    `json:"notifications"`
}

// Status assembles the run's progress surface, including its append-only
// notification log in delivery order.
func (c *Controller) Status(runID string) (StatusView, error) {
	run, err := c.load(runID)
	if err != nil {
		return StatusView{}, err
	}
	notes, err := c.store.ListNotifications(runID)
	if err != nil {
		return StatusView{}, fmt.Errorf("listing notifications: %w", err)
	}

	view := StatusView{
		RunID:                    run.ID,
		OverallStatus:            run.OverallStatus,
		OverallProgress:          run.OverallProgress(),
		EstimatedTimeRemainingMs: run.EstimatedTimeRemaining(c.StageEstimates(), c.now().UTC()).Milliseconds(),
		Notifications:            make([]string, 0, len(notes)),
	}
	for _, s := range run.Stages {
		view.Stages = append(view.Stages, StageView{Name: s.Name, Status: s.Status, Progress: s.Progress})
	}
	for _, n := range notes {
		view.Notifications = append(view.Notifications, n.Message)
	}
	return view, nil
}

// Load returns the run in its domain form, for API handlers.
func (c *Controller) Load(runID string) (*Run, error) {
	return c.load(runID)
}

func (c *Controller) load(runID string) (*Run, error) {
	rec, err := c.store.GetRun(runID)
	if err != nil {
		return nil, err
	}
	return runFromRecord(rec)
}

func (c *Controller) save(run *Run) error {
	run.LastUpdatedAt = c.now().UTC()
	rec, err := run.toRecord()
	if err != nil {
		return err
	}
	if err := c.store.SaveRun(rec); err != nil {
		return fmt.Errorf("persisting run %s: %w", run.ID, err)
	}
	return nil
}

func (c *Controller) notify(runID, message string) {
	if err := c.store.AppendNotification(runID, message); err != nil {
		c.logger.Error("appending notification", "run_id", runID, "error", err)
	}
}

func (c *Controller) enqueue(runID string) error {
	payload, _ := json.Marshal(map[string]string{"run_id": runID})
	job := storage.Job{
		ID:          uuid.New().String(),
		Type:        JobTypePipeline,
		PayloadJSON: string(payload),
	}
	if err := c.store.EnqueueJob(job); err != nil {
		return fmt.Errorf("enqueueing pipeline job: %w", err)
	}
	return nil
}
