package realtime

import (
	"fmt"

	"github.com/google/uuid"
)

type SSEEvent string

const (
	SSEEventXPAwarded         SSEEvent = "XPAwarded"
	SSEEventSubmissionPending SSEEvent = "SubmissionPendingReview"
	SSEEventSubmissionVerdict SSEEvent = "SubmissionReviewed"
	SSEEventPvpInvited        SSEEvent = "PvpInvited"
	SSEEventPvpResponded      SSEEvent = "PvpResponded"
	SSEEventPvpResolved       SSEEvent = "PvpResolved"
	SSEEventFamilyLogged      SSEEvent = "FamilyChallengeLogged"
)

type SSEMessage struct {
	Channel string   `json:"channel"`
	Event   SSEEvent `json:"event"`
	Data    any      `json:"data,omitempty"`
}

// StudentChannel is the personal channel every student subscribes to.
func StudentChannel(studentID uuid.UUID) string {
	return studentID.String()
}

// CoachChannel carries review-queue events for a club's coaches.
func CoachChannel(clubID uuid.UUID) string {
	return fmt.Sprintf("club:%s:coaches", clubID)
}
