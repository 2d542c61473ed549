package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/okian/edurank/internal/domain/types"
)

// TeacherDependencies defines the roster ranking operation.
type TeacherDependencies interface {
	RankRoster(ctx context.Context, teacherID uuid.UUID, track types.Track) (types.RosterRanking, error)
}

// TeacherHandler handles teacher-scoped ranking requests.
type TeacherHandler struct {
	deps TeacherDependencies
}

// NewTeacherHandler creates a new teacher handler.
func NewTeacherHandler(deps TeacherDependencies) *TeacherHandler {
	return &TeacherHandler{deps: deps}
}

// HandleRankings handles GET /teachers/{id}/rankings?track=exam|activity.
func (h *TeacherHandler) HandleRankings(w http.ResponseWriter, r *http.Request) {
	teacherID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	track, err := types.ParseTrack(r.URL.Query().Get("track"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", badRequest("%v", err))
		return
	}

	ranking, err := h.deps.RankRoster(r.Context(), teacherID, track)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ranking)
}
