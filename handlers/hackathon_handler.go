package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/hackmate/hackathon-system/middleware"
	"github.com/hackmate/hackathon-system/models"
	"github.com/hackmate/hackathon-system/repositories"
	"github.com/hackmate/hackathon-system/services"
)

type HackathonHandler struct {
	hackathonService services.HackathonService
}

func NewHackathonHandler(hs services.HackathonService) *HackathonHandler {
	return &HackathonHandler{
		hackathonService: hs,
	}
}

// CreateHandler обрабатывает POST /hackathons
func (h *HackathonHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to create a hackathon")
		return
	}

	var input services.CreateHackathonInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	hackathon, warnings, err := h.hackathonService.Create(r.Context(), currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"hackathon": hackathon}
	if len(warnings) > 0 {
		response["warnings"] = warnings
	}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateHandler обрабатывает PUT /hackathons/{hackathonID}
func (h *HackathonHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to update a hackathon")
		return
	}

	id, err := getIDFromURL(r, "hackathonID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.CreateHackathonInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	hackathon, warnings, err := h.hackathonService.Update(r.Context(), id, currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"hackathon": hackathon}
	if len(warnings) > 0 {
		response["warnings"] = warnings
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByIDHandler обрабатывает GET /hackathons/{hackathonID}
func (h *HackathonHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "hackathonID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	hackathon, err := h.hackathonService.GetByID(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"hackathon": hackathon}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler обрабатывает GET /hackathons
func (h *HackathonHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	filter := repositories.ListHackathonsFilter{OnlyPublished: true}
	query := r.URL.Query()

	if modeStr := query.Get("mode"); modeStr != "" {
		mode := models.HackathonMode(modeStr)
		if !mode.Valid() {
			badRequestResponse(w, r, errors.New("invalid mode query parameter"))
			return
		}
		filter.Mode = &mode
	}
	if organizerIDStr := query.Get("organizer_id"); organizerIDStr != "" {
		if id, err := strconv.Atoi(organizerIDStr); err == nil && id > 0 {
			filter.OrganizerID = &id
		} else {
			badRequestResponse(w, r, errors.New("invalid organizer_id query parameter"))
			return
		}
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			filter.Limit = limit
		} else {
			badRequestResponse(w, r, errors.New("invalid limit query parameter"))
			return
		}
	}
	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filter.Offset = offset
		} else {
			badRequestResponse(w, r, errors.New("invalid offset query parameter"))
			return
		}
	}

	hackathons, err := h.hackathonService.List(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"hackathons": hackathons}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
