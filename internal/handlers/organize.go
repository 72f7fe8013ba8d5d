package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/parakeep/organizer/internal/queue"
	"github.com/parakeep/organizer/internal/validation"
)

// OrganizeHandler enqueues asynchronous organize jobs
type OrganizeHandler struct {
	jobQueue  queue.JobQueue
	vaultRoot string
}

// NewOrganizeHandler creates a new organize handler
func NewOrganizeHandler(jobQueue queue.JobQueue, vaultRoot string) *OrganizeHandler {
	return &OrganizeHandler{jobQueue: jobQueue, vaultRoot: vaultRoot}
}

// RegisterRoutes registers organize routes on the given router
func (h *OrganizeHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/organize", h.Organize).Methods("POST")
}

// OrganizeRequest represents an organize request. An empty note_path
// requests a whole-vault pass.
type OrganizeRequest struct {
	NotePath string `json:"note_path,omitempty"`
}

// OrganizeResponse represents the enqueued job
type OrganizeResponse struct {
	JobID    string `json:"job_id"`
	JobType  string `json:"job_type"`
	NotePath string `json:"note_path,omitempty"`
}

// Organize enqueues a classify job for one note or the whole vault
func (h *OrganizeHandler) Organize(w http.ResponseWriter, r *http.Request) {
	var req OrganizeRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON body")
			return
		}
	}

	jobType := queue.JobTypeOrganizeVault
	if req.NotePath != "" {
		if err := validation.ValidateNotePath(req.NotePath); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		jobType = queue.JobTypeClassifyNote
	}

	job := queue.NewJob(jobType, h.vaultRoot, req.NotePath)
	if err := h.jobQueue.Enqueue(r.Context(), job); err != nil {
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "failed to enqueue job")
		return
	}

	respondJSON(w, http.StatusAccepted, OrganizeResponse{
		JobID:    job.ID.String(),
		JobType:  string(job.Type),
		NotePath: job.NotePath,
	})
}
