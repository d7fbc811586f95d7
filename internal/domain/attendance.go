package domain

import "context"

// Threshold (percent) above which poll participation counts as attendance.
const EffectiveAttendanceThreshold = 70

// AttendanceRecord is the derived presence classification for one
// confirmation, cross-referencing poll participation.
type AttendanceRecord struct {
	Confirmation        *Confirmation `json:"confirmation"`
	PollsParticipated   int           `json:"polls_participated"`
	TotalPolls          int           `json:"total_polls"`
	ParticipationRate   int           `json:"participation_rate"` // percent, rounded
	EffectivelyAttended bool          `json:"effectively_attended"`
}

// AttendanceService derives effective attendance from poll participation.
// Read-only; no side effects.
type AttendanceService interface {
	// ComputeEffectiveAttendance classifies every confirmation of the
	// event. With zero polls it falls back to the manual checked-in flag.
	ComputeEffectiveAttendance(ctx context.Context, eventID string) ([]*AttendanceRecord, error)
}
