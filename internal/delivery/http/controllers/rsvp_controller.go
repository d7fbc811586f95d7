package controllers

import (
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"liveparticipation/internal/delivery/http/helpers"
	"liveparticipation/internal/domain"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

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

// RSVPRequest is the request body for POST /events/{eventID}/rsvp.
type RSVPRequest struct {
	Email  string `json:"email"`
	Name   string `json:"name"`
	Status string `json:"status"` // going, maybe, declined
}

// Validate implements helpers.Validator.
func (r *RSVPRequest) Validate() []string {
	var errs []string
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	if r.Email == "" {
		errs = append(errs, "email is required")
	} else if !emailRegex.MatchString(r.Email) {
		errs = append(errs, "invalid email format")
	}
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		errs = append(errs, "name is required")
	}
	if !domain.ValidRSVPStatus(domain.RSVPStatus(r.Status)) {
		errs = append(errs, "status must be \"going\", \"maybe\" or \"declined\"")
	}
	return errs
}

// AdmitRSVP godoc
// @Summary RSVP for an event
// @Description Creates or updates the participant's confirmation. A going RSVP is checked against the participant limit; when the event is full the caller should offer the waitlist.
// @Tags rsvp
// @Accept json
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Param body body controllers.RSVPRequest true "RSVP"
// @Success 200 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: capacity_exceeded"
// @Failure 422 {object} helpers.APIResponse "error.code: deadline_expired"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/rsvp [post]
func (c *RSVPController) AdmitRSVP(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	var req RSVPRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	confirmation, err := c.Service.AdmitRSVP(r.Context(), eventID, req.Email, req.Name, domain.RSVPStatus(req.Status))
	if err != nil {
		respondServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, confirmation)
}

// WaitlistJoinRequest is the request body for POST /events/{eventID}/waitlist.
type WaitlistJoinRequest struct {
	Name     string `json:"name"`
	Whatsapp string `json:"whatsapp"`
}

// Validate implements helpers.Validator.
func (r *WaitlistJoinRequest) Validate() []string {
	var errs []string
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		errs = append(errs, "name is required")
	}
	r.Whatsapp = strings.TrimSpace(r.Whatsapp)
	if r.Whatsapp == "" {
		errs = append(errs, "whatsapp is required")
	}
	return errs
}

// JoinWaitlist godoc
// @Summary Join an event's waitlist
// @Description Appends a waitlist entry for a participant rejected by the capacity gate. Duplicate name or contact for the same event is rejected.
// @Tags rsvp
// @Accept json
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Param body body controllers.WaitlistJoinRequest true "Waitlist entry"
// @Success 201 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: duplicate_entry"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/waitlist [post]
func (c *RSVPController) JoinWaitlist(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	var req WaitlistJoinRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	entry, err := c.Service.JoinWaitlist(r.Context(), eventID, req.Name, req.Whatsapp)
	if err != nil {
		respondServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, entry)
}

// ConfirmationListResponse is the data object for GET /events/{eventID}/confirmations.
type ConfirmationListResponse struct {
	Confirmations []*domain.Confirmation     `json:"confirmations"`
	Counts        *domain.ConfirmationCounts `json:"counts"`
}

// ListConfirmations godoc
// @Summary List an event's confirmations with aggregate counts
// @Tags rsvp
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} helpers.APIResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/confirmations [get]
func (c *RSVPController) ListConfirmations(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	confirmations, counts, err := c.Service.ListConfirmations(r.Context(), eventID)
	if err != nil {
		respondServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ConfirmationListResponse{
		Confirmations: confirmations,
		Counts:        counts,
	})
}

// ListWaitlist godoc
// @Summary List an event's waitlist entries
// @Tags rsvp
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} helpers.APIResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/waitlist [get]
func (c *RSVPController) ListWaitlist(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	entries, err := c.Service.ListWaitlist(r.Context(), eventID)
	if err != nil {
		respondServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, entries)
}
