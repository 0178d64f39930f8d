package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/reportreel/reportreel/internal/pipeline"
	"github.com/reportreel/reportreel/internal/storage"
)

const testToken = "test-token"

// fakeController records calls and serves canned responses.
type fakeController struct {
	startErr   error
	started    []string
	statusView pipeline.StatusView
	statusErr  error
	run        *pipeline.Run
	loadErr    error
	controlErr error
	actions    []string
}

func (f *fakeController) StartRun(_ context.Context, documentID string) (*pipeline.Run, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	f.started = append(f.started, documentID)
	return &pipeline.Run{ID: "run-1", DocumentID: documentID}, nil
}

func (f *fakeController) Status(runID string) (pipeline.StatusView, error) {
	return f.statusView, f.statusErr
}

func (f *fakeController) Load(runID string) (*pipeline.Run, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.run, nil
}

func (f *fakeController) Pause(runID string) error  { return f.control("pause") }
func (f *fakeController) Resume(runID string) error { return f.control("resume") }
func (f *fakeController) Retry(runID string) error  { return f.control("retry") }
func (f *fakeController) Cancel(runID string) error { return f.control("cancel") }

func (f *fakeController) control(action string) error {
	if f.controlErr != nil {
		return f.controlErr
	}
	f.actions = append(f.actions, action)
	return nil
}

func newTestHandler(t *testing.T, ctrl *fakeController) (http.Handler, *storage.Store, *storage.BlobStore) {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	blobs, err := storage.NewBlobStore(t.TempDir())
	if err != nil {
		t.Fatalf("creating blob store: %v", err)
	}
	return NewAppHandler(AppDeps{Store: store, Blobs: blobs, Controller: ctrl, Token: testToken}), store, blobs
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer "+testToken)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	h, _, _ := newTestHandler(t, &fakeController{})

	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/documents", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token: status = %d, want 401", w.Code)
	}
}

func TestHealthIsOpen(t *testing.T) {
	h, _, _ := newTestHandler(t, &fakeController{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", w.Code)
	}
}

func TestUploadDocumentQueuesRun(t *testing.T) {
	ctrl := &fakeController{}
	h, store, blobs := newTestHandler(t, ctrl)

	payload := []byte("Omsättningen uppgick till 142 MSEK.")
	w := doJSON(t, h, http.MethodPost, "/documents", UploadRequest{
		Title:       "Q3 report.txt",
		ContentType: "text/plain",
		Content:     base64.StdEncoding.EncodeToString(payload),
	})

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", w.Code, w.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["document_id"] == "" || resp["run_id"] != "run-1" || resp["status"] != "queued" {
		t.Errorf("response = %v", resp)
	}
	if len(ctrl.started) != 1 || ctrl.started[0] != resp["document_id"] {
		t.Errorf("StartRun calls = %v", ctrl.started)
	}

	doc, err := store.GetDocument(resp["document_id"])
	if err != nil {
		t.Fatalf("document not persisted: %v", err)
	}
	stored, err := blobs.Get(storage.BucketUploads, doc.StorageKey)
	if err != nil {
		t.Fatalf("payload not stored: %v", err)
	}
	if !bytes.Equal(stored, payload) {
		t.Error("stored payload differs from upload")
	}
}

func TestUploadRejectsBadBase64(t *testing.T) {
	h, _, _ := newTestHandler(t, &fakeController{})

	w := doJSON(t, h, http.MethodPost, "/documents", UploadRequest{Content: "not base64!!!"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestRegenerateConflictsWhileActive(t *testing.T) {
	ctrl := &fakeController{startErr: pipeline.ErrRunActive}
	h, store, _ := newTestHandler(t, ctrl)

	doc := storage.Document{ID: "doc-1", Title: "r.pdf", ContentType: "application/pdf", StorageKey: "doc-1", CreatedAt: time.Now().UTC()}
	if err := store.SaveDocument(doc); err != nil {
		t.Fatal(err)
	}

	w := doJSON(t, h, http.MethodPost, "/documents/doc-1/regenerate", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, h, http.MethodPost, "/documents/missing/regenerate", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing doc: status = %d, want 404", w.Code)
	}
}

func TestRunStatus(t *testing.T) {
	ctrl := &fakeController{statusView: pipeline.StatusView{
		RunID:           "run-1",
		OverallStatus:   pipeline.RunRunning,
		OverallProgress: 40,
		Notifications:   []string{"extract started", "extract completed"},
	}}
	h, _, _ := newTestHandler(t, ctrl)

	w := doJSON(t, h, http.MethodGet, "/runs/run-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var view pipeline.StatusView
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatal(err)
	}
	if view.RunID != "run-1" || view.OverallProgress != 40 || len(view.Notifications) != 2 {
		t.Errorf("view = %+v", view)
	}
}

func TestRunStatusNotFound(t *testing.T) {
	ctrl := &fakeController{statusErr: storage.ErrNotFound}
	h, _, _ := newTestHandler(t, ctrl)

	w := doJSON(t, h, http.MethodGet, "/runs/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestRunFactsAndScripts(t *testing.T) {
	ctrl := &fakeController{run: &pipeline.Run{
		ID:        "run-1",
		FactsJSON: `{"facts":{"company_name":"Acme AB"},"source":"model"}`,
	}}
	h, _, _ := newTestHandler(t, ctrl)

	w := doJSON(t, h, http.MethodGet, "/runs/run-1/facts", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("facts status = %d, want 200", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("Acme AB")) {
		t.Errorf("facts body = %s", w.Body.String())
	}

	// Scripts were never generated for this run.
	w = doJSON(t, h, http.MethodGet, "/runs/run-1/scripts", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("scripts status = %d, want 404", w.Code)
	}
}

func TestRunControlActions(t *testing.T) {
	ctrl := &fakeController{}
	h, _, _ := newTestHandler(t, ctrl)

	for _, action := range []string{"pause", "resume", "retry", "cancel"} {
		w := doJSON(t, h, http.MethodPost, "/runs/run-1/"+action, nil)
		if w.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200: %s", action, w.Code, w.Body.String())
		}
	}
	if len(ctrl.actions) != 4 {
		t.Errorf("actions = %v", ctrl.actions)
	}
}

func TestRunControlInvalidTransition(t *testing.T) {
	ctrl := &fakeController{controlErr: fmt.Errorf("cannot pause run in state completed")}
	h, _, _ := newTestHandler(t, ctrl)

	w := doJSON(t, h, http.MethodPost, "/runs/run-1/pause", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", w.Code)
	}
}
