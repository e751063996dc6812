package handlers

import (
	"errors"
	"net/http"

	"github.com/hackmate/hackathon-system/middleware"
	"github.com/hackmate/hackathon-system/models"
	"github.com/hackmate/hackathon-system/services"
)

type ApplicationHandler struct {
	applicationService services.ApplicationService
}

func NewApplicationHandler(as services.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{
		applicationService: as,
	}
}

// ApplyHandler обрабатывает POST /hackathons/{hackathonID}/apply
func (h *ApplicationHandler) ApplyHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to apply")
		return
	}

	hackathonID, err := getIDFromURL(r, "hackathonID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.RegisterApplicationInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	application, err := h.applicationService.Register(r.Context(), hackathonID, currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"application": application}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type paymentRequest struct {
	Amount           int    `json:"amount" validate:"required,gt=0"`
	PaymentReference string `json:"payment_reference"`
}

// ConfirmPaymentHandler обрабатывает POST /applications/{applicationID}/payment
func (h *ApplicationHandler) ConfirmPaymentHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.GetUserIDFromContext(r.Context()); err != nil {
		unauthorizedResponse(w, r, "authentication required to confirm payment")
		return
	}

	applicationID, err := getIDFromURL(r, "applicationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var req paymentRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if violations := validateStruct(req); violations != nil {
		failedValidationResponse(w, r, violations)
		return
	}

	application, err := h.applicationService.ConfirmPayment(r.Context(), applicationID, services.PaymentEvent{
		Amount:           req.Amount,
		PaymentReference: req.PaymentReference,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"application": application}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// WithdrawHandler обрабатывает DELETE /applications/{applicationID}
func (h *ApplicationHandler) WithdrawHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to withdraw an application")
		return
	}

	applicationID, err := getIDFromURL(r, "applicationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	application, err := h.applicationService.Withdraw(r.Context(), applicationID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"application": application}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByIDHandler обрабатывает GET /applications/{applicationID}
func (h *ApplicationHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	applicationID, err := getIDFromURL(r, "applicationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	application, err := h.applicationService.GetByID(r.Context(), applicationID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"application": application}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// MineHandler обрабатывает GET /applications/mine
func (h *ApplicationHandler) MineHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	applications, err := h.applicationService.ListMine(r.Context(), currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"applications": applications}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListByHackathonHandler обрабатывает GET /hackathons/{hackathonID}/applications
func (h *ApplicationHandler) ListByHackathonHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	hackathonID, err := getIDFromURL(r, "hackathonID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var statusFilter *models.ApplicationStatus
	if statusStr := r.URL.Query().Get("status"); statusStr != "" {
		status := models.ApplicationStatus(statusStr)
		if !status.Valid() {
			badRequestResponse(w, r, errors.New("invalid status query parameter"))
			return
		}
		statusFilter = &status
	}

	applications, err := h.applicationService.ListByHackathon(r.Context(), hackathonID, currentUserID, statusFilter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"applications": applications}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type updateStatusRequest struct {
	Status models.ApplicationStatus `json:"status" validate:"required"`
}

// UpdateStatusHandler обрабатывает PATCH /applications/{applicationID}/status.
// Организатору доступен единственный переход — отклонение заявки.
func (h *ApplicationHandler) UpdateStatusHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	applicationID, err := getIDFromURL(r, "applicationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var req updateStatusRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if req.Status != models.StatusRejected {
		badRequestResponse(w, r, errors.New("only the rejected status can be set by the organizer"))
		return
	}

	application, err := h.applicationService.Reject(r.Context(), applicationID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"application": application}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// StatsHandler обрабатывает GET /hackathons/{hackathonID}/applications/stats
func (h *ApplicationHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	hackathonID, err := getIDFromURL(r, "hackathonID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	stats, err := h.applicationService.Stats(r.Context(), hackathonID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"stats": stats}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
