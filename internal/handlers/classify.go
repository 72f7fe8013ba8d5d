package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/parakeep/organizer/internal/decision"
	"github.com/parakeep/organizer/internal/pipeline"
	"github.com/parakeep/organizer/internal/services/ai"
	"github.com/parakeep/organizer/internal/validation"
)

// ClassifyEngine is the part of the pipeline the HTTP layer drives.
type ClassifyEngine interface {
	Classify(ctx context.Context, notePath string) (*pipeline.Result, error)
	Organize(ctx context.Context, notePath string) (*pipeline.Result, error)
}

// ClassifyHandler handles synchronous single-note classification requests
type ClassifyHandler struct {
	engine ClassifyEngine
}

// NewClassifyHandler creates a new classify handler
func NewClassifyHandler(engine ClassifyEngine) *ClassifyHandler {
	return &ClassifyHandler{engine: engine}
}

// RegisterRoutes registers classification routes on the given router
func (h *ClassifyHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/classify", h.ClassifyNote).Methods("POST")
}

// ClassifyNoteRequest represents a classify request
type ClassifyNoteRequest struct {
	NotePath string `json:"note_path" validate:"required,note_path"`
	Apply    bool   `json:"apply,omitempty"`
}

// ClassifyNoteResponse represents a classify response
type ClassifyNoteResponse struct {
	NotePath   string  `json:"note_path"`
	Category   string  `json:"category"`
	FolderName string  `json:"folder_name"`
	Confidence float64 `json:"confidence"`
	Method     string  `json:"method"`
	Reasoning  string  `json:"reasoning,omitempty"`
	NewPath    string  `json:"new_path,omitempty"`
	Moved      bool    `json:"moved"`
}

// ClassifyNote classifies one note; with apply=true it also moves it
func (h *ClassifyHandler) ClassifyNote(w http.ResponseWriter, r *http.Request) {
	var req ClassifyNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON body")
		return
	}
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "note_path must be a vault-relative markdown path")
		return
	}

	run := h.engine.Classify
	if req.Apply {
		run = h.engine.Organize
	}

	result, err := run(r.Context(), req.NotePath)
	if err != nil {
		switch {
		case errors.Is(err, decision.ErrNoClassifiers):
			respondJSONError(w, http.StatusUnprocessableEntity, "Unprocessable Entity", "no classifier produced a verdict for this note")
		case ai.IsRateLimitError(err) || ai.IsQuotaError(err):
			respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "classifier temporarily unavailable, retry later")
		default:
			respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", err.Error())
		}
		return
	}

	respondJSON(w, http.StatusOK, ClassifyNoteResponse{
		NotePath:   result.NotePath,
		Category:   string(result.Decision.Category),
		FolderName: result.Decision.FolderName,
		Confidence: result.Decision.Confidence,
		Method:     string(result.Decision.Method),
		Reasoning:  result.Decision.Reasoning,
		NewPath:    result.NewPath,
		Moved:      result.Moved,
	})
}
