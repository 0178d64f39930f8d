package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/reportreel/reportreel/internal/storage"
)

type fakeJobStore struct {
	queue     []*storage.Job
	completed []string
	failed    map[string]string
}

func newFakeJobStore() *fakeJobStore {
	return &fakeJobStore{failed: make(map[string]string)}
}

func (s *fakeJobStore) ClaimNextJob(_ []string) (*storage.Job, error) {
	if len(s.queue) == 0 {
		return nil, nil
	}
	job := s.queue[0]
	s.queue = s.queue[1:]
	return job, nil
}

func (s *fakeJobStore) CompleteJob(id string) error {
	s.completed = append(s.completed, id)
	return nil
}

func (s *fakeJobStore) FailJob(id, errMsg string) error {
	s.failed[id] = errMsg
	return nil
}

type fakeExecutor struct {
	err    error
	runIDs []string
}

func (e *fakeExecutor) Execute(_ context.Context, runID string) error {
	e.runIDs = append(e.runIDs, runID)
	return e.err
}

func TestWorkerProcessesJob(t *testing.T) {
	jobs := newFakeJobStore()
	jobs.queue = append(jobs.queue, &storage.Job{ID: "j1", Type: JobTypePipeline, PayloadJSON: `{"run_id":"r1"}`})
	exec := &fakeExecutor{}
	w := NewWorker(jobs, exec, 0)

	done, err := w.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if !done {
		t.Fatal("RunOnce = false, want true with a queued job")
	}
	if len(exec.runIDs) != 1 || exec.runIDs[0] != "r1" {
		t.Errorf("executed runs = %v, want [r1]", exec.runIDs)
	}
	if len(jobs.completed) != 1 || jobs.completed[0] != "j1" {
		t.Errorf("completed = %v, want [j1]", jobs.completed)
	}
}

func TestWorkerIdleWhenQueueEmpty(t *testing.T) {
	w := NewWorker(newFakeJobStore(), &fakeExecutor{}, 0)
	done, err := w.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if done {
		t.Error("RunOnce = true with an empty queue")
	}
}

func TestWorkerFailsJobOnExecutorError(t *testing.T) {
	jobs := newFakeJobStore()
	jobs.queue = append(jobs.queue, &storage.Job{ID: "j1", Type: JobTypePipeline, PayloadJSON: `{"run_id":"r1"}`})
	exec := &fakeExecutor{err: errors.New("store unavailable")}
	w := NewWorker(jobs, exec, 0)

	done, err := w.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if !done {
		t.Fatal("RunOnce = false, want true")
	}
	if msg, ok := jobs.failed["j1"]; !ok || msg == "" {
		t.Errorf("job not failed with a message: %v", jobs.failed)
	}
	if len(jobs.completed) != 0 {
		t.Errorf("job completed despite executor error: %v", jobs.completed)
	}
}

func TestWorkerFailsJobOnBadPayload(t *testing.T) {
	jobs := newFakeJobStore()
	jobs.queue = append(jobs.queue, &storage.Job{ID: "j1", Type: JobTypePipeline, PayloadJSON: "{"})
	w := NewWorker(jobs, &fakeExecutor{}, 0)

	if _, err := w.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if _, ok := jobs.failed["j1"]; !ok {
		t.Error("malformed payload did not fail the job")
	}
}
