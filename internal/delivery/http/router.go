package http

import (
	"database/sql"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"liveparticipation/internal/delivery/http/controllers"
	"liveparticipation/internal/delivery/http/helpers"
	"liveparticipation/internal/delivery/http/middleware"
	"liveparticipation/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes
func NewRouter(
	db *sql.DB,
	verifier domain.TokenVerifier,
	rsvpController *controllers.RSVPController,
	checkInController *controllers.CheckInController,
	pollController *controllers.PollController,
	attendanceController *controllers.AttendanceController,
	wsController *controllers.WSController,
) *http.ServeMux {
	mux := http.NewServeMux()
	requireAuth := middleware.RequireAuth(verifier)

	// Participant-facing routes
	mux.HandleFunc("POST /events/{eventID}/rsvp", rsvpController.AdmitRSVP)
	mux.HandleFunc("POST /events/{eventID}/waitlist", rsvpController.JoinWaitlist)
	mux.HandleFunc("POST /events/{eventID}/check-in", checkInController.CheckIn)
	mux.HandleFunc("GET /events/{eventID}/polls", pollController.ListPolls)
	mux.HandleFunc("GET /events/{eventID}/polls/active", pollController.GetActivePoll)
	mux.HandleFunc("POST /polls/{pollID}/votes", pollController.Vote)
	mux.HandleFunc("GET /polls/{pollID}/results", pollController.GetResults)
	mux.HandleFunc("GET /polls/{pollID}/votes/{participantID}", pollController.ListParticipantVotes)

	// Organizer routes
	mux.HandleFunc("POST /events/{eventID}/polls", requireAuth(pollController.CreatePoll))
	mux.HandleFunc("PATCH /polls/{pollID}/active", requireAuth(pollController.SetActive))
	mux.HandleFunc("DELETE /polls/{pollID}", requireAuth(pollController.DeletePoll))
	mux.HandleFunc("POST /events/{eventID}/confirmations/{confirmationID}/check-in", requireAuth(checkInController.ToggleCheckIn))
	mux.HandleFunc("POST /events/{eventID}/release-no-shows", requireAuth(checkInController.ReleaseNoShows))
	mux.HandleFunc("GET /events/{eventID}/confirmations", requireAuth(rsvpController.ListConfirmations))
	mux.HandleFunc("GET /events/{eventID}/waitlist", requireAuth(rsvpController.ListWaitlist))
	mux.HandleFunc("GET /events/{eventID}/attendance", requireAuth(attendanceController.GetEffectiveAttendance))

	// Real-time channel
	mux.HandleFunc("GET /ws", wsController.Serve)

	// Health
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			helpers.WriteJSONError(w, http.StatusServiceUnavailable, helpers.ErrCodeInternalError, "database unreachable")
			return
		}
		helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
