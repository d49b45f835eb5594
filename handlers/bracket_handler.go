package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/tkd-tournament/services"
)

type BracketHandler struct {
	bracketService services.BracketService
}

func NewBracketHandler(bs services.BracketService) *BracketHandler {
	return &BracketHandler{bracketService: bs}
}

// --- Основные категории ---

func (h *BracketHandler) CreateMainCategory(w http.ResponseWriter, r *http.Request) {
	var input services.CreateMainCategoryInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	main, err := h.bracketService.CreateMainCategory(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"main_category": main}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BracketHandler) GetMainCategory(w http.ResponseWriter, r *http.Request) {
	mainID, err := getIDFromURL(r, "mainID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	main, err := h.bracketService.GetMainCategory(r.Context(), mainID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"main_category": main}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BracketHandler) ListMainCategories(w http.ResponseWriter, r *http.Request) {
	mains, err := h.bracketService.ListMainCategories(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"main_categories": mains}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BracketHandler) DeleteMainCategory(w http.ResponseWriter, r *http.Request) {
	mainID, err := getIDFromURL(r, "mainID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.bracketService.DeleteMainCategory(r.Context(), mainID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetBracketTree godoc
// @Summary Дерево категории: подкатегории, группы и их участники
// @Tags brackets
// @Produce json
// @Param mainID path int true "Main category ID"
// @Success 200 {object} map[string]interface{} "Дерево"
// @Failure 404 {object} map[string]string "Категория не найдена"
// @Router /main-categories/{mainID}/tree [get]
func (h *BracketHandler) GetBracketTree(w http.ResponseWriter, r *http.Request) {
	mainID, err := getIDFromURL(r, "mainID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tree, err := h.bracketService.GetBracketTree(r.Context(), mainID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tree": tree}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// --- Подкатегории ---

func (h *BracketHandler) CreateSubCategory(w http.ResponseWriter, r *http.Request) {
	mainID, err := getIDFromURL(r, "mainID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.CreateSubCategoryInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	sub, err := h.bracketService.CreateSubCategory(r.Context(), mainID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"sub_category": sub}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BracketHandler) ListSubCategories(w http.ResponseWriter, r *http.Request) {
	mainID, err := getIDFromURL(r, "mainID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	subs, err := h.bracketService.ListSubCategories(r.Context(), mainID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"sub_categories": subs}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// --- Группы ---

func (h *BracketHandler) CreateAthleteGroup(w http.ResponseWriter, r *http.Request) {
	subID, err := getIDFromURL(r, "subID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.CreateAthleteGroupInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	group, err := h.bracketService.CreateAthleteGroup(r.Context(), subID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"group": group}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BracketHandler) ListAthleteGroups(w http.ResponseWriter, r *http.Request) {
	subID, err := getIDFromURL(r, "subID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	groups, err := h.bracketService.ListAthleteGroups(r.Context(), subID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"groups": groups}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BracketHandler) GetAthleteGroup(w http.ResponseWriter, r *http.Request) {
	groupID, err := getIDFromURL(r, "groupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	group, err := h.bracketService.GetAthleteGroup(r.Context(), groupID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"group": group}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BracketHandler) DeleteAthleteGroup(w http.ResponseWriter, r *http.Request) {
	groupID, err := getIDFromURL(r, "groupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.bracketService.DeleteAthleteGroup(r.Context(), groupID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *BracketHandler) DeleteSubCategory(w http.ResponseWriter, r *http.Request) {
	subID, err := getIDFromURL(r, "subID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.bracketService.DeleteSubCategory(r.Context(), subID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Участники групп ---

// AddAthleteToGroup godoc
// @Summary Добавить спортсмена в группу
// @Tags brackets
// @Description Без position спортсмен занимает красный угол, затем синий, затем конец очереди.
// @Accept json
// @Produce json
// @Param groupID path int true "Group ID"
// @Param body body services.AddGroupAthleteInput true "Спортсмен и (необязательно) позиция"
// @Success 201 {object} map[string]interface{} "Участник добавлен"
// @Failure 400 {object} map[string]string "Ошибка валидации"
// @Failure 404 {object} map[string]string "Группа или спортсмен не найдены"
// @Failure 409 {object} map[string]string "Уже в группе / угол занят / группа заполнена"
// @Router /groups/{groupID}/athletes [post]
func (h *BracketHandler) AddAthleteToGroup(w http.ResponseWriter, r *http.Request) {
	groupID, err := getIDFromURL(r, "groupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.AddGroupAthleteInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.AthleteID <= 0 {
		badRequestResponse(w, r, errors.New("athlete_id is required"))
		return
	}

	member, err := h.bracketService.AddAthleteToGroup(r.Context(), groupID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"group_athlete": member}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListGroupAthletes: ?include_eliminated=true добавляет выбывших.
func (h *BracketHandler) ListGroupAthletes(w http.ResponseWriter, r *http.Request) {
	groupID, err := getIDFromURL(r, "groupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	includeEliminated, err := queryBool(r, "include_eliminated")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	members, err := h.bracketService.ListGroupAthletes(r.Context(), groupID, includeEliminated != nil && *includeEliminated)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"athletes": members}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BracketHandler) ListEliminated(w http.ResponseWriter, r *http.Request) {
	groupID, err := getIDFromURL(r, "groupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	members, err := h.bracketService.ListEliminated(r.Context(), groupID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"athletes": members}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BracketHandler) RemoveAthleteFromGroup(w http.ResponseWriter, r *http.Request) {
	groupID, athleteID, ok := h.memberIDs(w, r)
	if !ok {
		return
	}

	if err := h.bracketService.RemoveAthleteFromGroup(r.Context(), groupID, athleteID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *BracketHandler) UpdateAthletePosition(w http.ResponseWriter, r *http.Request) {
	groupID, athleteID, ok := h.memberIDs(w, r)
	if !ok {
		return
	}

	var input services.UpdatePositionInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	member, err := h.bracketService.UpdateAthletePosition(r.Context(), groupID, athleteID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"group_athlete": member}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BracketHandler) EliminateAthlete(w http.ResponseWriter, r *http.Request) {
	groupID, athleteID, ok := h.memberIDs(w, r)
	if !ok {
		return
	}

	member, err := h.bracketService.EliminateAthlete(r.Context(), groupID, athleteID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"group_athlete": member}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type medalRequest struct {
	HasMedal *bool `json:"has_medal"`
}

func (h *BracketHandler) UpdateAthleteMedal(w http.ResponseWriter, r *http.Request) {
	groupID, athleteID, ok := h.memberIDs(w, r)
	if !ok {
		return
	}

	var req medalRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if req.HasMedal == nil {
		badRequestResponse(w, r, errors.New("has_medal must be a boolean"))
		return
	}

	member, err := h.bracketService.UpdateAthleteMedal(r.Context(), groupID, athleteID, *req.HasMedal)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"group_athlete": member}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BracketHandler) AdvanceQueue(w http.ResponseWriter, r *http.Request) {
	groupID, err := getIDFromURL(r, "groupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	members, err := h.bracketService.AdvanceQueue(r.Context(), groupID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"athletes": members}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BracketHandler) memberIDs(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	groupID, err := getIDFromURL(r, "groupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return 0, 0, false
	}
	athleteID, err := getIDFromURL(r, "athleteID")
	if err != nil {
		badRequestResponse(w, r, err)
		return 0, 0, false
	}
	return groupID, athleteID, true
}
