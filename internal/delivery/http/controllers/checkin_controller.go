package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"liveparticipation/internal/delivery/http/helpers"
	"liveparticipation/internal/domain"
)

type CheckInController struct {
	Logger  *slog.Logger
	Service domain.CheckInService
}

func NewCheckInController(logger *slog.Logger, svc domain.CheckInService) *CheckInController {
	return &CheckInController{
		Logger:  logger,
		Service: svc,
	}
}

// CheckInRequest is the request body for POST /events/{eventID}/check-in.
type CheckInRequest struct {
	Email string `json:"email"`
}

// Validate implements helpers.Validator.
func (r *CheckInRequest) Validate() []string {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	if r.Email == "" {
		return []string{"email is required"}
	}
	if !emailRegex.MatchString(r.Email) {
		return []string{"invalid email format"}
	}
	return nil
}

// CheckIn godoc
// @Summary Self check-in within the event's check-in window
// @Description Marks the participant's going confirmation as checked in. Only valid while the window is open.
// @Tags check-in
// @Accept json
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Param body body controllers.CheckInRequest true "Participant email"
// @Success 200 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found / not_confirmed"
// @Failure 422 {object} helpers.APIResponse "error.code: checkin_disabled / window_not_open / window_closed"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/check-in [post]
func (c *CheckInController) CheckIn(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	var req CheckInRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	confirmation, err := c.Service.CheckIn(r.Context(), eventID, req.Email)
	if err != nil {
		respondServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, confirmation)
}

// ToggleCheckIn godoc
// @Summary Organizer check-in toggle for a confirmation
// @Description Flips the checked-in flag with no window restriction.
// @Tags check-in
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param confirmationID path string true "Confirmation ID (UUID)"
// @Success 200 {object} helpers.APIResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/confirmations/{confirmationID}/check-in [post]
func (c *CheckInController) ToggleCheckIn(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	confirmationID, ok := pathUUID(w, r, "confirmationID")
	if !ok {
		return
	}

	confirmation, err := c.Service.ToggleCheckIn(r.Context(), eventID, confirmationID)
	if err != nil {
		respondServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, confirmation)
}

// ReleaseNoShowsResponse is the data object for POST /events/{eventID}/release-no-shows.
type ReleaseNoShowsResponse struct {
	Released int `json:"released"`
}

// ReleaseNoShows godoc
// @Summary Release no-shows for an event on organizer demand
// @Description Converts every going, not-checked-in confirmation to declined with the no-show flag set, returning the count released. Shares the selection logic of the periodic sweep.
// @Tags check-in
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} helpers.APIResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/release-no-shows [post]
func (c *CheckInController) ReleaseNoShows(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	released, err := c.Service.ManualRelease(r.Context(), eventID)
	if err != nil {
		respondServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ReleaseNoShowsResponse{Released: released})
}
