package controllers

import (
	"log/slog"
	"net/http"
	"time"

	"eventmanager/internal/delivery/http/helpers"
	"eventmanager/internal/delivery/http/middleware"
	"eventmanager/internal/domain"
)

// CreateEventRequest is the request body for POST /events. The organizer is the caller.
type CreateEventRequest struct {
	Title        string     `json:"title" validate:"required,max=255"`
	Description  string     `json:"description" validate:"required"`
	Date         *time.Time `json:"date" validate:"required"`
	Location     string     `json:"location" validate:"required,max=255"`
	InvitedUsers []string   `json:"invited_users"`
}

// ReplaceEventRequest is the request body for PUT /events/{eventID}. Every field is required.
type ReplaceEventRequest struct {
	Title       *string    `json:"title" validate:"required,max=255"`
	Description *string    `json:"description" validate:"required"`
	Date        *time.Time `json:"date" validate:"required"`
	Location    *string    `json:"location" validate:"required,max=255"`
}

// PatchEventRequest is the request body for PATCH /events/{eventID}. Omitted fields are unchanged.
type PatchEventRequest struct {
	Title       *string    `json:"title" validate:"omitnil,min=1,max=255"`
	Description *string    `json:"description" validate:"omitnil,min=1"`
	Date        *time.Time `json:"date"`
	Location    *string    `json:"location" validate:"omitnil,min=1,max=255"`
}

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// ListEvents handles GET /events. Query filters title, date, location and organizer are
// AND-combined; page and page_size opt into pagination.
func (c *EventController) ListEvents(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.UserIDFromContext(r.Context()); !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	q := r.URL.Query()
	filter := domain.EventFilter{
		Title:       q.Get("title"),
		Location:    q.Get("location"),
		OrganizerID: q.Get("organizer"),
		Pagination:  helpers.ParsePagination(r),
	}
	if s := q.Get("date"); s != "" {
		dateRange, err := domain.ParseDateFilter(s)
		if err != nil {
			helpers.WriteServiceError(w, r, c.Logger, err)
			return
		}
		filter.Date = dateRange
	}

	events, total, err := c.Service.ListEvents(r.Context(), filter)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if events == nil {
		events = []*domain.Event{}
	}
	if p := filter.Pagination; p != nil {
		helpers.WriteJSONSuccessWithMeta(w, http.StatusOK, events, helpers.NewPaginationMeta(p.Page, p.PageSize, total))
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}

// GetEvent handles GET /events/{eventID}.
func (c *EventController) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	if _, ok := middleware.UserIDFromContext(r.Context()); !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	event, err := c.Service.GetEvent(r.Context(), eventID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// CreateEvent handles POST /events.
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	event := domain.NewEvent(req.Title, req.Description, req.Location, userID, *req.Date, time.Time{}, time.Time{})
	if err := c.Service.CreateEvent(r.Context(), event, req.InvitedUsers); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// ReplaceEvent handles PUT /events/{eventID}.
func (c *EventController) ReplaceEvent(w http.ResponseWriter, r *http.Request) {
	var req ReplaceEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	c.updateEvent(w, r, domain.EventUpdate{
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		Location:    req.Location,
	})
}

// PatchEvent handles PATCH /events/{eventID}.
func (c *EventController) PatchEvent(w http.ResponseWriter, r *http.Request) {
	var req PatchEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	c.updateEvent(w, r, domain.EventUpdate{
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		Location:    req.Location,
	})
}

func (c *EventController) updateEvent(w http.ResponseWriter, r *http.Request, update domain.EventUpdate) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	event, err := c.Service.UpdateEvent(r.Context(), eventID, userID, update)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// DeleteEvent handles DELETE /events/{eventID}. Only the organizer may delete; registrants
// are told about the cancellation asynchronously.
func (c *EventController) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.DeleteEvent(r.Context(), eventID, userID); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
