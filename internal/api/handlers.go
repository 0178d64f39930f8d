package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/reportreel/reportreel/internal/pipeline"
	"github.com/reportreel/reportreel/internal/storage"
)

const maxUploadBodySize = 25 << 20 // 25MB, base64-encoded PDFs are bulky

// UploadRequest is the POST /documents body. Content is base64 so binary
// payloads survive JSON transport.
type UploadRequest struct {
	Title       string `json:"title"`
	ContentType string `json:"content_type"`
	Content     string `json:"content"`
}

// RunController is the pipeline surface the HTTP layer drives.
type RunController interface {
	StartRun(ctx context.Context, documentID string) (*pipeline.Run, error)
	Status(runID string) (pipeline.StatusView, error)
	Load(runID string) (*pipeline.Run, error)
	Pause(runID string) error
	Resume(runID string) error
	Retry(runID string) error
	Cancel(runID string) error
}

type AppDeps struct {
	Store      *storage.Store
	Blobs      *storage.BlobStore
	Controller RunController
	Token      string
}

func NewAppHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Post("/documents", handleUploadDocument(deps))
		r.Get("/documents", handleListDocuments(deps))
		r.Post("/documents/{id}/regenerate", handleRegenerate(deps))

		r.Get("/runs", handleListRuns(deps))
		r.Get("/runs/{id}", handleRunStatus(deps))
		r.Get("/runs/{id}/facts", handleRunFacts(deps))
		r.Get("/runs/{id}/scripts", handleRunScripts(deps))
		r.Post("/runs/{id}/pause", handleRunControl(deps, "pause"))
		r.Post("/runs/{id}/resume", handleRunControl(deps, "resume"))
		r.Post("/runs/{id}/retry", handleRunControl(deps, "retry"))
		r.Post("/runs/{id}/cancel", handleRunControl(deps, "cancel"))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func handleUploadDocument(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBodySize)
		defer r.Body.Close()

		var req UploadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Content == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "content is required")
			return
		}
		payload, err := base64.StdEncoding.DecodeString(req.Content)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid base64 content")
			return
		}
		if req.Title == "" {
			req.Title = "untitled document"
		}
		if req.ContentType == "" {
			req.ContentType = "application/octet-stream"
		}

		docID := uuid.New().String()
		storageKey := docID

		if err := deps.Blobs.Put(storage.BucketUploads, storageKey, payload); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to store payload: %v", err)
			return
		}
		doc := storage.Document{
			ID:          docID,
			Title:       req.Title,
			ContentType: req.ContentType,
			StorageKey:  storageKey,
			CreatedAt:   time.Now().UTC(),
		}
		if err := deps.Store.SaveDocument(doc); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to save document: %v", err)
			return
		}

		run, err := deps.Controller.StartRun(r.Context(), docID)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to start run: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{
			"document_id": docID,
			"run_id":      run.ID,
			"status":      "queued",
		})
	}
}

func handleListDocuments(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 20, 100)

		docs, err := deps.Store.ListDocuments(limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list documents: %v", err)
			return
		}
		if docs == nil {
			docs = []storage.Document{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(docs)
	}
}

// handleRegenerate starts a fresh run for an already-uploaded document. The
// new run's outputs entirely replace the old ones for consumers that follow
// the latest run.
func handleRegenerate(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		if _, err := deps.Store.GetDocument(id); errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "document not found")
			return
		} else if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to load document: %v", err)
			return
		}

		run, err := deps.Controller.StartRun(r.Context(), id)
		if errors.Is(err, pipeline.ErrRunActive) {
			httpError(w, http.StatusConflict, "conflict", "a run is already active for this document")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to start run: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{
			"run_id": run.ID,
			"status": "queued",
		})
	}
}

func handleListRuns(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 20, 100)

		runs, err := deps.Store.ListRuns(limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list runs: %v", err)
			return
		}

		type runSummary struct {
			ID            string `json:"id"`
			DocumentID    string `json:"document_id"`
			OverallStatus string `json:"overall_status"`
			StartedAt     string `json:"started_at"`
		}
		summaries := make([]runSummary, len(runs))
		for i, rec := range runs {
			summaries[i] = runSummary{
				ID:            rec.ID,
				DocumentID:    rec.DocumentID,
				OverallStatus: rec.OverallStatus,
				StartedAt:     rec.StartedAt.Format(time.RFC3339),
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(summaries)
	}
}

func handleRunStatus(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		view, err := deps.Controller.Status(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "run not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get run status: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(view)
	}
}

// handleRunFacts serves the analyze stage's output verbatim from the run
// record; 404 until the stage has produced it.
func handleRunFacts(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serveRunPayload(deps, w, r, func(run *pipeline.Run) string { return run.FactsJSON }, "facts")
	}
}

func handleRunScripts(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serveRunPayload(deps, w, r, func(run *pipeline.Run) string { return run.ScriptsJSON }, "scripts")
	}
}

func serveRunPayload(deps AppDeps, w http.ResponseWriter, r *http.Request, pick func(*pipeline.Run) string, what string) {
	id := chi.URLParam(r, "id")

	run, err := deps.Controller.Load(id)
	if errors.Is(err, storage.ErrNotFound) {
		httpError(w, http.StatusNotFound, "not_found", "run not found")
		return
	}
	if err != nil {
		httpError(w, http.StatusInternalServerError, "api_error", "failed to load run: %v", err)
		return
	}

	payload := pick(run)
	if payload == "" {
		httpError(w, http.StatusNotFound, "not_found", "no %s available for this run yet", what)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(payload))
}

func handleRunControl(deps AppDeps, action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var err error
		switch action {
		case "pause":
			err = deps.Controller.Pause(id)
		case "resume":
			err = deps.Controller.Resume(id)
		case "retry":
			err = deps.Controller.Retry(id)
		case "cancel":
			err = deps.Controller.Cancel(id)
		}

		switch {
		case err == nil:
		case errors.Is(err, storage.ErrNotFound):
			httpError(w, http.StatusNotFound, "not_found", "run not found")
			return
		case errors.Is(err, pipeline.ErrNotPausable):
			httpError(w, http.StatusConflict, "conflict", "%v", err)
			return
		default:
			// Invalid transitions (pausing a completed run, retrying a
			// running one) are client errors, not server faults.
			httpError(w, http.StatusConflict, "conflict", "%v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": action + " accepted"})
	}
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}
