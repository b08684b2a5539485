package controllers

import (
	"log/slog"
	"net/http"

	"eventmanager/internal/delivery/http/helpers"
	"eventmanager/internal/delivery/http/middleware"
	"eventmanager/internal/domain"
)

// CreateRegistrationRequest is the request body for POST /events_register.
type CreateRegistrationRequest struct {
	Event  string                     `json:"event" validate:"required"`
	Status *domain.RegistrationStatus `json:"status" validate:"omitnil,oneof=pending confirmed cancelled"`
}

// ReplaceRegistrationRequest is the request body for PUT /events_register/{registrationID}.
type ReplaceRegistrationRequest struct {
	Status *domain.RegistrationStatus `json:"status" validate:"required,oneof=pending confirmed cancelled"`
}

// PatchRegistrationRequest is the request body for PATCH /events_register/{registrationID}.
// Without a status nothing changes.
type PatchRegistrationRequest struct {
	Status *domain.RegistrationStatus `json:"status" validate:"omitnil,oneof=pending confirmed cancelled"`
}

// RegistrationController serves the caller's own registrations. Rows owned by other users
// answer 404.
type RegistrationController struct {
	Logger  *slog.Logger
	Service domain.RegistrationService
}

func NewRegistrationController(logger *slog.Logger, svc domain.RegistrationService) *RegistrationController {
	return &RegistrationController{
		Logger:  logger,
		Service: svc,
	}
}

// ListMyRegistrations handles GET /events_register.
func (c *RegistrationController) ListMyRegistrations(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	regs, err := c.Service.ListMyRegistrations(r.Context(), userID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if regs == nil {
		regs = []*domain.RegistrationDetail{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, regs)
}

// GetMyRegistration handles GET /events_register/{registrationID}.
func (c *RegistrationController) GetMyRegistration(w http.ResponseWriter, r *http.Request) {
	id, userID, ok := c.pathAndCaller(w, r)
	if !ok {
		return
	}
	reg, err := c.Service.GetMyRegistration(r.Context(), id, userID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, reg)
}

// CreateRegistration handles POST /events_register.
func (c *RegistrationController) CreateRegistration(w http.ResponseWriter, r *http.Request) {
	var req CreateRegistrationRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	reg, err := c.Service.CreateRegistration(r.Context(), req.Event, userID, req.Status)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, reg)
}

// ReplaceRegistration handles PUT /events_register/{registrationID}.
func (c *RegistrationController) ReplaceRegistration(w http.ResponseWriter, r *http.Request) {
	var req ReplaceRegistrationRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	c.updateRegistration(w, r, req.Status)
}

// PatchRegistration handles PATCH /events_register/{registrationID}.
func (c *RegistrationController) PatchRegistration(w http.ResponseWriter, r *http.Request) {
	var req PatchRegistrationRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	c.updateRegistration(w, r, req.Status)
}

func (c *RegistrationController) updateRegistration(w http.ResponseWriter, r *http.Request, status *domain.RegistrationStatus) {
	id, userID, ok := c.pathAndCaller(w, r)
	if !ok {
		return
	}
	reg, err := c.Service.UpdateRegistration(r.Context(), id, userID, status)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, reg)
}

// DeleteRegistration handles DELETE /events_register/{registrationID}.
func (c *RegistrationController) DeleteRegistration(w http.ResponseWriter, r *http.Request) {
	id, userID, ok := c.pathAndCaller(w, r)
	if !ok {
		return
	}
	if err := c.Service.DeleteRegistration(r.Context(), id, userID); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// pathAndCaller reads the registration id and the authenticated caller, writing the error
// response itself when either is missing.
func (c *RegistrationController) pathAndCaller(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	id := r.PathValue("registrationID")
	if id == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing registrationID")
		return "", "", false
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return "", "", false
	}
	return id, userID, true
}
