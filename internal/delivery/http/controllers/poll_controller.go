package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"liveparticipation/internal/delivery/http/helpers"
	"liveparticipation/internal/domain"
)

type PollController struct {
	Logger  *slog.Logger
	Service domain.PollService
}

func NewPollController(logger *slog.Logger, svc domain.PollService) *PollController {
	return &PollController{
		Logger:  logger,
		Service: svc,
	}
}

// CreatePollRequest is the request body for POST /events/{eventID}/polls.
type CreatePollRequest struct {
	Question                 string   `json:"question"`
	Options                  []string `json:"options"`
	AllowMultipleChoice      bool     `json:"allow_multiple_choice"`
	ShowResultsAutomatically bool     `json:"show_results_automatically"`
	TimerDuration            int      `json:"timer_duration"` // seconds, 0 means no timer
}

// Validate implements helpers.Validator.
func (r *CreatePollRequest) Validate() []string {
	var errs []string
	r.Question = strings.TrimSpace(r.Question)
	if r.Question == "" {
		errs = append(errs, "question is required")
	}
	if len(r.Options) < 2 {
		errs = append(errs, "at least two options are required")
	}
	for i := range r.Options {
		r.Options[i] = strings.TrimSpace(r.Options[i])
		if r.Options[i] == "" {
			errs = append(errs, "options must not be empty")
			break
		}
	}
	if r.TimerDuration < 0 {
		errs = append(errs, "timer_duration must not be negative")
	}
	return errs
}

// CreatePoll godoc
// @Summary Create a poll in draft state
// @Tags polls
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body controllers.CreatePollRequest true "Poll"
// @Success 201 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/polls [post]
func (c *PollController) CreatePoll(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	var req CreatePollRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	poll, err := c.Service.CreatePoll(r.Context(), eventID, req.Question, req.Options,
		req.AllowMultipleChoice, req.ShowResultsAutomatically, req.TimerDuration)
	if err != nil {
		respondServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, poll)
}

// SetActiveRequest is the request body for PATCH /polls/{pollID}/active.
type SetActiveRequest struct {
	IsActive bool `json:"is_active"`
}

// SetActive godoc
// @Summary Activate or deactivate a poll
// @Description Activation force-deactivates every other poll of the same event so at most one poll per event is active.
// @Tags polls
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param pollID path string true "Poll ID (UUID)"
// @Param body body controllers.SetActiveRequest true "Desired state"
// @Success 200 {object} helpers.APIResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /polls/{pollID}/active [patch]
func (c *PollController) SetActive(w http.ResponseWriter, r *http.Request) {
	pollID, ok := pathUUID(w, r, "pollID")
	if !ok {
		return
	}
	var req SetActiveRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	poll, err := c.Service.SetActive(r.Context(), pollID, req.IsActive)
	if err != nil {
		respondServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, poll)
}

// DeletePoll godoc
// @Summary Delete a poll with its options and votes
// @Tags polls
// @Produce json
// @Security BearerAuth
// @Param pollID path string true "Poll ID (UUID)"
// @Success 200 {object} helpers.APIResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /polls/{pollID} [delete]
func (c *PollController) DeletePoll(w http.ResponseWriter, r *http.Request) {
	pollID, ok := pathUUID(w, r, "pollID")
	if !ok {
		return
	}
	if err := c.Service.DeletePoll(r.Context(), pollID); err != nil {
		respondServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]bool{"deleted": true})
}

// VoteRequest is the request body for POST /polls/{pollID}/votes.
type VoteRequest struct {
	PollOptionID          string `json:"poll_option_id"`
	ParticipantIdentifier string `json:"participant_identifier"`
}

// Validate implements helpers.Validator.
func (r *VoteRequest) Validate() []string {
	var errs []string
	if r.PollOptionID == "" {
		errs = append(errs, "poll_option_id is required")
	} else if !uuidRegex.MatchString(r.PollOptionID) {
		errs = append(errs, "invalid poll_option_id")
	}
	r.ParticipantIdentifier = strings.TrimSpace(r.ParticipantIdentifier)
	if r.ParticipantIdentifier == "" {
		errs = append(errs, "participant_identifier is required")
	}
	return errs
}

// Vote godoc
// @Summary Cast, transfer, or toggle off a vote
// @Description Re-voting the same option removes the vote. In single-choice polls a vote for a different option transfers the vote.
// @Tags polls
// @Accept json
// @Produce json
// @Param pollID path string true "Poll ID (UUID)"
// @Param body body controllers.VoteRequest true "Vote"
// @Success 200 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 422 {object} helpers.APIResponse "error.code: poll_inactive"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /polls/{pollID}/votes [post]
func (c *PollController) Vote(w http.ResponseWriter, r *http.Request) {
	pollID, ok := pathUUID(w, r, "pollID")
	if !ok {
		return
	}
	var req VoteRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	outcome, err := c.Service.Vote(r.Context(), pollID, req.PollOptionID, req.ParticipantIdentifier)
	if err != nil {
		respondServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, outcome)
}

// ListPolls godoc
// @Summary List an event's polls with options
// @Tags polls
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} helpers.APIResponse
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/polls [get]
func (c *PollController) ListPolls(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	polls, err := c.Service.ListPolls(r.Context(), eventID)
	if err != nil {
		respondServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, polls)
}

// GetActivePoll godoc
// @Summary Get the event's single active poll
// @Description Returns null data when no poll is active.
// @Tags polls
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} helpers.APIResponse
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/polls/active [get]
func (c *PollController) GetActivePoll(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	poll, err := c.Service.GetActivePoll(r.Context(), eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// No active poll is a normal state, not an error.
			helpers.WriteJSONSuccess(w, http.StatusOK, nil)
			return
		}
		respondServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, poll)
}

// GetResults godoc
// @Summary Get a poll's results with percentages
// @Tags polls
// @Produce json
// @Param pollID path string true "Poll ID (UUID)"
// @Success 200 {object} helpers.APIResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /polls/{pollID}/results [get]
func (c *PollController) GetResults(w http.ResponseWriter, r *http.Request) {
	pollID, ok := pathUUID(w, r, "pollID")
	if !ok {
		return
	}
	results, err := c.Service.GetResults(r.Context(), pollID)
	if err != nil {
		respondServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, results)
}

// ListParticipantVotes godoc
// @Summary List a participant's votes for a poll
// @Description Lets a client restore its toggle state after reconnecting.
// @Tags polls
// @Produce json
// @Param pollID path string true "Poll ID (UUID)"
// @Param participantID path string true "Participant identifier"
// @Success 200 {object} helpers.APIResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /polls/{pollID}/votes/{participantID} [get]
func (c *PollController) ListParticipantVotes(w http.ResponseWriter, r *http.Request) {
	pollID, ok := pathUUID(w, r, "pollID")
	if !ok {
		return
	}
	participantID := r.PathValue("participantID")
	if participantID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing participantID")
		return
	}
	votes, err := c.Service.ListParticipantVotes(r.Context(), pollID, participantID)
	if err != nil {
		respondServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, votes)
}
