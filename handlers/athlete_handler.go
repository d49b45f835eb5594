package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/tkd-tournament/models"
	"github.com/Dosada05/tkd-tournament/repositories"
	"github.com/Dosada05/tkd-tournament/services"
)

type AthleteHandler struct {
	athleteService services.AthleteService
}

func NewAthleteHandler(as services.AthleteService) *AthleteHandler {
	return &AthleteHandler{athleteService: as}
}

func (h *AthleteHandler) CreateAthlete(w http.ResponseWriter, r *http.Request) {
	var input services.CreateAthleteInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	athlete, err := h.athleteService.CreateAthlete(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"athlete": athlete}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AthleteHandler) GetAthlete(w http.ResponseWriter, r *http.Request) {
	athleteID, err := getIDFromURL(r, "athleteID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	athlete, err := h.athleteService.GetAthlete(r.Context(), athleteID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"athlete": athlete}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListAthletes поддерживает фильтры ?category_id=&status=&present=&gender=&competition_id=
func (h *AthleteHandler) ListAthletes(w http.ResponseWriter, r *http.Request) {
	var filter repositories.AthleteFilter
	var err error

	if filter.CategoryID, err = queryInt(r, "category_id"); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if filter.IsPresent, err = queryBool(r, "present"); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if s := queryString(r, "status"); s != nil {
		status := models.AthleteStatus(*s)
		if !status.Valid() {
			badRequestResponse(w, r, services.ErrInvalidStatus)
			return
		}
		filter.Status = &status
	}
	if g := queryString(r, "gender"); g != nil {
		gender := models.Gender(*g)
		if gender != models.GenderMale && gender != models.GenderFemale {
			badRequestResponse(w, r, services.ErrInvalidGender)
			return
		}
		filter.Gender = &gender
	}
	filter.CompetitionID = queryString(r, "competition_id")

	athletes, err := h.athleteService.ListAthletes(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"athletes": athletes}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AthleteHandler) UpdateAthlete(w http.ResponseWriter, r *http.Request) {
	athleteID, err := getIDFromURL(r, "athleteID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.UpdateAthleteInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	athlete, err := h.athleteService.UpdateAthlete(r.Context(), athleteID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"athlete": athlete}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AthleteHandler) DeleteAthlete(w http.ResponseWriter, r *http.Request) {
	athleteID, err := getIDFromURL(r, "athleteID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.athleteService.DeleteAthlete(r.Context(), athleteID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type attendanceRequest struct {
	IsPresent *bool `json:"is_present"`
}

func (h *AthleteHandler) SetAttendance(w http.ResponseWriter, r *http.Request) {
	athleteID, err := getIDFromURL(r, "athleteID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var req attendanceRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if req.IsPresent == nil {
		badRequestResponse(w, r, errors.New("is_present must be a boolean"))
		return
	}

	athlete, err := h.athleteService.SetAttendance(r.Context(), athleteID, *req.IsPresent)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"athlete": athlete}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type statusRequest struct {
	Status models.AthleteStatus `json:"status"`
	Ring   *string              `json:"ring,omitempty"`
}

func (h *AthleteHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	athleteID, err := getIDFromURL(r, "athleteID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var req statusRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	athlete, err := h.athleteService.SetStatus(r.Context(), athleteID, req.Status, req.Ring)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"athlete": athlete}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AthleteHandler) StatusHistory(w http.ResponseWriter, r *http.Request) {
	athleteID, err := getIDFromURL(r, "athleteID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	changes, err := h.athleteService.StatusHistory(r.Context(), athleteID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"history": changes}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AthleteHandler) ListCompeting(w http.ResponseWriter, r *http.Request) {
	athletes, err := h.athleteService.ListCompeting(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"athletes": athletes}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AthleteHandler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	athletes, err := h.athleteService.ListAvailable(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"athletes": athletes}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
