package domain

// Real-time event names published to room subscribers. The suggestion kinds
// originate in the moderation subsystem and pass through the same broadcaster.
const (
	BroadcastRoomJoined      = "room:joined"
	BroadcastRSVPUpdated     = "rsvp:updated"
	BroadcastPollActivated   = "poll:activated"
	BroadcastPollDeactivated = "poll:deactivated"
	BroadcastPollVote        = "poll:vote"
	BroadcastSuggestionNew   = "suggestion:new"
	BroadcastSuggestionVote  = "suggestion:vote"
)

// Broadcaster publishes a named payload to every live subscriber of the
// event's room. Delivery is best-effort: no acknowledgement, no retry, and a
// slow subscriber never blocks the others.
type Broadcaster interface {
	Publish(eventID, name string, payload any)
}
