package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"bcbevents/internal/delivery/http/helpers"
	"bcbevents/internal/delivery/http/middleware"
	"bcbevents/internal/domain"
)

// emailRegex matches a simple email format (local@domain with at least one dot in domain).
var emailRegex = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)

// SubmitRSVPRequest is the request body for POST /events/{eventID}/rsvps.
type SubmitRSVPRequest struct {
	Name                string  `json:"name"`
	Email               string  `json:"email"`
	Phone               *string `json:"phone"`
	Guests              int     `json:"guests"`
	DietaryRestrictions *string `json:"dietary_restrictions"`
}

// Validate implements Validator.
func (s SubmitRSVPRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(s.Name) == "" {
		errs = append(errs, "name is required")
	}
	email := strings.TrimSpace(s.Email)
	if email == "" {
		errs = append(errs, "email is required")
	} else if !emailRegex.MatchString(email) {
		errs = append(errs, "invalid email format")
	}
	if s.Guests < 1 || s.Guests > domain.MaxGuestsPerRSVP {
		errs = append(errs, "guests must be between 1 and 10")
	}
	return errs
}

// UpdateRSVPStatusRequest is the request body for PATCH /manage/rsvps/{rsvpID}/status.
type UpdateRSVPStatusRequest struct {
	Status string `json:"status"`
}

// Validate implements Validator.
func (u UpdateRSVPStatusRequest) Validate() []string {
	switch domain.RSVPStatus(u.Status) {
	case domain.RSVPStatusApproved, domain.RSVPStatusRejected, domain.RSVPStatusWaitlist:
		return nil
	}
	return []string{"status must be \"approved\", \"rejected\", or \"waitlist\""}
}

// SubmitRSVPSuccessResponse is the success response envelope for POST /events/{eventID}/rsvps (201).
type SubmitRSVPSuccessResponse struct {
	Data  *domain.RSVP      `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ListRSVPsResponse is the data payload for paginated RSVP lists.
type ListRSVPsResponse struct {
	Items      []*domain.RSVP         `json:"items"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// ListRSVPsSuccessResponse is the success response envelope for GET /manage/events/{eventID}/rsvps and GET /manage/rsvps (200).
type ListRSVPsSuccessResponse struct {
	Data  ListRSVPsResponse `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// UpdateRSVPStatusSuccessResponse is the success response envelope for PATCH /manage/rsvps/{rsvpID}/status (200).
type UpdateRSVPStatusSuccessResponse struct {
	Data  *domain.RSVP      `json:"data"`
	Error *helpers.APIError `json:"error"`
}

type RSVPController struct {
	Logger  *slog.Logger
	Service domain.RSVPService
}

func NewRSVPController(logger *slog.Logger, svc domain.RSVPService) *RSVPController {
	return &RSVPController{
		Logger:  logger,
		Service: svc,
	}
}

// SubmitRSVP godoc
// @Summary Submit an RSVP for an event
// @Description Submit an RSVP. Public, no authentication. The returned status is "approved", "waitlist", or "pending" depending on the event's approval mode and remaining capacity. One RSVP per email per event.
// @Tags rsvps
// @Accept json
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Param body body SubmitRSVPRequest true "RSVP data"
// @Success 201 {object} controllers.SubmitRSVPSuccessResponse "data contains the stored RSVP with its decided status"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (validation, or event does not take RSVPs)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (duplicate email for this event)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/rsvps [post]
func (c *RSVPController) SubmitRSVP(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	var req SubmitRSVPRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	rsvp := &domain.RSVP{
		Name:                req.Name,
		Email:               req.Email,
		Phone:               req.Phone,
		Guests:              req.Guests,
		DietaryRestrictions: req.DietaryRestrictions,
	}
	stored, err := c.Service.Submit(r.Context(), eventID, rsvp)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
		case errors.Is(err, domain.ErrDuplicateRSVP):
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, err.Error())
		case errors.Is(err, domain.ErrRSVPNotRequired),
			errors.Is(err, domain.ErrInvalidGuestCount),
			errors.Is(err, domain.ErrInvalidInput):
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		}
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, stored)
}

// ListEventRSVPs godoc
// @Summary List RSVPs for an event
// @Description Returns a paginated list of RSVPs for the event, newest first. Requires the manager or admin role. Use page and page_size query params.
// @Tags manage
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ListRSVPsSuccessResponse "data contains items and pagination"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not a manager)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /manage/events/{eventID}/rsvps [get]
func (c *RSVPController) ListEventRSVPs(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	actorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	params := helpers.ParsePagination(r)
	rsvps, total, err := c.Service.ListByEvent(r.Context(), actorID, eventID, params)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
			return
		}
		if errors.Is(err, domain.ErrForbidden) {
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	if rsvps == nil {
		rsvps = []*domain.RSVP{}
	}
	meta := helpers.NewPaginationMeta(params.Page, params.PageSize, total)
	helpers.WriteJSONSuccess(w, http.StatusOK, ListRSVPsResponse{Items: rsvps, Pagination: meta})
}

// ListRecentRSVPs godoc
// @Summary List recent RSVPs across all events
// @Description Returns a paginated list of RSVPs across all events, newest first. Requires the manager or admin role.
// @Tags manage
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ListRSVPsSuccessResponse "data contains items and pagination"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not a manager)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /manage/rsvps [get]
func (c *RSVPController) ListRecentRSVPs(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	params := helpers.ParsePagination(r)
	rsvps, total, err := c.Service.ListRecent(r.Context(), actorID, params)
	if err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	if rsvps == nil {
		rsvps = []*domain.RSVP{}
	}
	meta := helpers.NewPaginationMeta(params.Page, params.PageSize, total)
	helpers.WriteJSONSuccess(w, http.StatusOK, ListRSVPsResponse{Items: rsvps, Pagination: meta})
}

// UpdateRSVPStatus godoc
// @Summary Update an RSVP's status
// @Description Sets an RSVP to approved, rejected, or waitlist. Approving checks remaining capacity and fails with 409 when the party would not fit. Requires the manager or admin role.
// @Tags manage
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param rsvpID path string true "RSVP ID (UUID)"
// @Param body body UpdateRSVPStatusRequest true "New status"
// @Success 200 {object} controllers.UpdateRSVPStatusSuccessResponse "data contains the updated RSVP"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not a manager)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (would exceed capacity)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /manage/rsvps/{rsvpID}/status [patch]
func (c *RSVPController) UpdateRSVPStatus(w http.ResponseWriter, r *http.Request) {
	rsvpID := r.PathValue("rsvpID")
	if rsvpID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing rsvpID")
		return
	}
	var req UpdateRSVPStatusRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	actorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	rsvp, err := c.Service.SetStatus(r.Context(), actorID, rsvpID, domain.RSVPStatus(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "rsvp not found")
		case errors.Is(err, domain.ErrForbidden):
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
		case errors.Is(err, domain.ErrCapacityExceeded):
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, err.Error())
		case errors.Is(err, domain.ErrInvalidInput):
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		}
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, rsvp)
}
