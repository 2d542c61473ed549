package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/okian/edurank/internal/domain/types"
)

// StudentDependencies defines the performance summary operation.
type StudentDependencies interface {
	SummarizeStudent(ctx context.Context, studentID, teacherID uuid.UUID) (types.PerformanceSummary, error)
}

// StudentHandler handles per-student summary requests.
type StudentHandler struct {
	deps StudentDependencies
}

// NewStudentHandler creates a new student handler.
func NewStudentHandler(deps StudentDependencies) *StudentHandler {
	return &StudentHandler{deps: deps}
}

// HandleSummary handles GET /students/{id}/summary. Without teacher_id the
// student is ranked against their own roster.
func (h *StudentHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	studentID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	teacherID, err := queryUUID(r, "teacher_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	summary, err := h.deps.SummarizeStudent(r.Context(), studentID, teacherID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
