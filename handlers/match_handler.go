package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/tkd-tournament/models"
	"github.com/Dosada05/tkd-tournament/repositories"
	"github.com/Dosada05/tkd-tournament/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(ms services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: ms}
}

// CreateMatch godoc
// @Summary Начать бой
// @Tags matches
// @Description Оба спортсмена переводятся в статус competing на указанном ринге.
// @Accept json
// @Produce json
// @Param body body services.CreateMatchInput true "Углы, ринг, раунд"
// @Success 201 {object} map[string]interface{} "Бой создан"
// @Failure 400 {object} map[string]string "Ошибка валидации"
// @Failure 409 {object} map[string]string "Спортсмен уже в бою"
// @Router /matches [post]
func (h *MatchHandler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	var input services.CreateMatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.CreateMatch(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type winnerRequest struct {
	WinnerID int `json:"winner_id"`
}

// DeclareWinner godoc
// @Summary Объявить победителя боя
// @Tags matches
// @Description Бой завершается, оба угла возвращаются в статус available.
// @Accept json
// @Produce json
// @Param matchID path int true "Match ID"
// @Param body body winnerRequest true "ID победителя"
// @Success 200 {object} map[string]interface{} "Бой завершён"
// @Failure 404 {object} map[string]string "Бой не найден"
// @Failure 409 {object} map[string]string "Бой уже завершён"
// @Router /matches/{matchID}/winner [post]
func (h *MatchHandler) DeclareWinner(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var req winnerRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if req.WinnerID <= 0 {
		badRequestResponse(w, r, errors.New("winner_id is required"))
		return
	}

	match, err := h.matchService.DeclareWinner(r.Context(), matchID, req.WinnerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.GetMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListMatches: ?status=&ring=&group_id=&athlete_id=
func (h *MatchHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	var filter repositories.MatchFilter
	var err error

	if s := queryString(r, "status"); s != nil {
		status := models.MatchStatus(*s)
		if status != models.MatchPending && status != models.MatchActive && status != models.MatchCompleted {
			badRequestResponse(w, r, errors.New("status must be pending, active or completed"))
			return
		}
		filter.Status = &status
	}
	filter.Ring = queryString(r, "ring")
	if filter.GroupID, err = queryInt(r, "group_id"); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if filter.AthleteID, err = queryInt(r, "athlete_id"); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.matchService.ListMatches(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
