package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/tkd-tournament/repositories"
	"github.com/Dosada05/tkd-tournament/services"
)

type SyncHandler struct {
	rosterService services.RosterService
}

func NewSyncHandler(rs services.RosterService) *SyncHandler {
	return &SyncHandler{rosterService: rs}
}

// ImportRoster отдаёт отчёт даже при частичном импорте; 502 - только если таблицу не удалось прочитать.
func (h *SyncHandler) ImportRoster(w http.ResponseWriter, r *http.Request) {
	competitionID := strings.TrimSpace(chi.URLParam(r, "competitionID"))
	if competitionID == "" {
		badRequestResponse(w, r, errors.New("missing competitionID in URL path"))
		return
	}

	report, err := h.rosterService.ImportCompetition(r.Context(), competitionID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"report": report}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type transferRequest struct {
	CompetitionID *string `json:"competition_id,omitempty"`
	CategoryID    *int    `json:"category_id,omitempty"`
	PresentOnly   bool    `json:"present_only"`
}

func (h *SyncHandler) TransferAthletes(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if r.ContentLength != 0 {
		if err := readJSON(w, r, &req); err != nil {
			badRequestResponse(w, r, err)
			return
		}
	}

	filter := repositories.AthleteFilter{CompetitionID: req.CompetitionID, CategoryID: req.CategoryID}
	if req.PresentOnly {
		present := true
		filter.IsPresent = &present
	}

	report, err := h.rosterService.TransferAthletes(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"report": report}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
