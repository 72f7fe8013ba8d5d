package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"github.com/parakeep/organizer/internal/queue"
)

// mockJobQueue is a mock job queue for testing
type mockJobQueue struct {
	enqueueFunc func(ctx context.Context, job *queue.Job) error
	enqueued    []*queue.Job
}

func (m *mockJobQueue) Enqueue(ctx context.Context, job *queue.Job) error {
	m.enqueued = append(m.enqueued, job)
	if m.enqueueFunc != nil {
		return m.enqueueFunc(ctx, job)
	}
	return nil
}

func (m *mockJobQueue) Dequeue(ctx context.Context) (*queue.Message, error) {
	return nil, nil
}

func (m *mockJobQueue) Consume(ctx context.Context, prefetchCount int) (<-chan *queue.Message, <-chan error, error) {
	return nil, nil, errors.New("not implemented")
}

func (m *mockJobQueue) Close() error { return nil }

func (m *mockJobQueue) HealthCheck(ctx context.Context) error { return nil }

func TestOrganizeHandler_SingleNote(t *testing.T) {
	t.Parallel()

	jq := &mockJobQueue{}
	router := mux.NewRouter()
	NewOrganizeHandler(jq, "/vault").RegisterRoutes(router)

	req := newTestRequest(http.MethodPost, "/organize", OrganizeRequest{NotePath: "00-Inbox/note.md"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d", resp.StatusCode)
	}

	if len(jq.enqueued) != 1 {
		t.Fatalf("Expected one enqueued job, got %d", len(jq.enqueued))
	}
	job := jq.enqueued[0]
	if job.Type != queue.JobTypeClassifyNote {
		t.Errorf("Expected classify_note job, got %s", job.Type)
	}
	if job.VaultRoot != "/vault" {
		t.Errorf("Expected vault root /vault, got %s", job.VaultRoot)
	}
	if job.NotePath != "00-Inbox/note.md" {
		t.Errorf("Expected note path preserved, got %s", job.NotePath)
	}

	var body struct {
		Data OrganizeResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body.Data.JobID != job.ID.String() {
		t.Errorf("Response job ID %s does not match enqueued job %s", body.Data.JobID, job.ID)
	}
	if body.Data.JobType != "classify_note" {
		t.Errorf("Expected job_type classify_note, got %s", body.Data.JobType)
	}
}

func TestOrganizeHandler_WholeVault(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body any
	}{
		{name: "empty body", body: nil},
		{name: "empty note_path", body: OrganizeRequest{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			jq := &mockJobQueue{}
			router := mux.NewRouter()
			NewOrganizeHandler(jq, "/vault").RegisterRoutes(router)

			req := newTestRequest(http.MethodPost, "/organize", tt.body)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusAccepted {
				t.Fatalf("Expected status 202, got %d", w.Code)
			}
			if len(jq.enqueued) != 1 {
				t.Fatalf("Expected one enqueued job, got %d", len(jq.enqueued))
			}
			if jq.enqueued[0].Type != queue.JobTypeOrganizeVault {
				t.Errorf("Expected organize_vault job, got %s", jq.enqueued[0].Type)
			}
		})
	}
}

func TestOrganizeHandler_InvalidNotePath(t *testing.T) {
	t.Parallel()

	jq := &mockJobQueue{}
	router := mux.NewRouter()
	NewOrganizeHandler(jq, "/vault").RegisterRoutes(router)

	req := newTestRequest(http.MethodPost, "/organize", OrganizeRequest{NotePath: "../outside.md"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
	if len(jq.enqueued) != 0 {
		t.Error("Invalid requests should not enqueue jobs")
	}
}

func TestOrganizeHandler_EnqueueFailure(t *testing.T) {
	t.Parallel()

	jq := &mockJobQueue{
		enqueueFunc: func(ctx context.Context, job *queue.Job) error {
			return errors.New("connection closed")
		},
	}
	router := mux.NewRouter()
	NewOrganizeHandler(jq, "/vault").RegisterRoutes(router)

	req := newTestRequest(http.MethodPost, "/organize", OrganizeRequest{NotePath: "00-Inbox/note.md"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}
}
