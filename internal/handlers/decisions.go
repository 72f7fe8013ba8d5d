package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/parakeep/organizer/internal/database"
	"github.com/parakeep/organizer/internal/models"
)

const (
	// DefaultPageSize is the default page size for pagination
	DefaultPageSize = 50
	// MaxPageSize is the maximum page size for pagination
	MaxPageSize = 500
)

// DecisionsHandler serves the classification audit trail
type DecisionsHandler struct {
	records database.ClassificationRecordRepositoryInterface
}

// NewDecisionsHandler creates a new decisions handler
func NewDecisionsHandler(records database.ClassificationRecordRepositoryInterface) *DecisionsHandler {
	return &DecisionsHandler{records: records}
}

// RegisterRoutes registers decision routes on the given router
func (h *DecisionsHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/decisions", h.ListDecisions).Methods("GET")
}

// ListDecisionsResponse represents the paginated audit listing
type ListDecisionsResponse struct {
	Decisions  []*models.ClassificationRecord `json:"decisions"`
	Page       int                            `json:"page"`
	PageSize   int                            `json:"page_size"`
	Total      int                            `json:"total"`
	TotalPages int                            `json:"total_pages"`
}

// ListDecisions lists recorded decisions, newest first, with pagination
func (h *DecisionsHandler) ListDecisions(w http.ResponseWriter, r *http.Request) {
	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil && parsed > 0 {
			page = parsed
		}
	}

	pageSize := DefaultPageSize
	if ps := r.URL.Query().Get("page_size"); ps != "" {
		if parsed, err := strconv.Atoi(ps); err == nil && parsed > 0 {
			if parsed > MaxPageSize {
				pageSize = MaxPageSize
			} else {
				pageSize = parsed
			}
		}
	}

	records, total, err := h.records.ListPaginated(r.Context(), page, pageSize)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "failed to list decisions")
		return
	}
	if records == nil {
		records = []*models.ClassificationRecord{}
	}

	totalPages := (total + pageSize - 1) / pageSize
	respondJSON(w, http.StatusOK, ListDecisionsResponse{
		Decisions:  records,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	})
}
