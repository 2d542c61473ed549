package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/okian/edurank/internal/domain/model"
	"github.com/okian/edurank/internal/domain/types"
)

// UnitDependencies defines the single-unit read operations.
type UnitDependencies interface {
	RankUnit(ctx context.Context, kind model.UnitKind, unitID, teacherID uuid.UUID) ([]types.RankedEntry, error)
	SummarizeUnitForStudent(ctx context.Context, kind model.UnitKind, unitID, studentID uuid.UUID) (types.UnitSummary, error)
}

// UnitHandler handles exam and activity leaderboard requests.
type UnitHandler struct {
	deps UnitDependencies
}

// NewUnitHandler creates a new unit handler.
func NewUnitHandler(deps UnitDependencies) *UnitHandler {
	return &UnitHandler{deps: deps}
}

type leaderboardResponse struct {
	UnitID    uuid.UUID           `json:"unit_id"`
	UnitKind  string              `json:"unit_kind"`
	TeacherID uuid.UUID           `json:"teacher_id"`
	Entries   []types.RankedEntry `json:"entries"`
}

// HandleLeaderboard handles GET /units/{kind}/{id}/leaderboard?teacher_id=.
func (h *UnitHandler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	kind, unitID, err := unitRef(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	teacherID, err := queryUUID(r, "teacher_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if teacherID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "bad_request", badRequest("missing teacher_id"))
		return
	}

	entries, err := h.deps.RankUnit(r.Context(), kind, unitID, teacherID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, leaderboardResponse{
		UnitID:    unitID,
		UnitKind:  kind.String(),
		TeacherID: teacherID,
		Entries:   entries,
	})
}

// HandleStudentSummary handles GET /units/{kind}/{id}/students/{sid}.
func (h *UnitHandler) HandleStudentSummary(w http.ResponseWriter, r *http.Request) {
	kind, unitID, err := unitRef(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	studentID, err := pathUUID(r, "sid")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	summary, err := h.deps.SummarizeUnitForStudent(r.Context(), kind, unitID, studentID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func unitRef(r *http.Request) (model.UnitKind, uuid.UUID, error) {
	kind, err := model.ParseUnitKind(r.PathValue("kind"))
	if err != nil {
		return 0, uuid.Nil, badRequest("%v", err)
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		return 0, uuid.Nil, err
	}
	return kind, id, nil
}
