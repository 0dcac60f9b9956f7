package gamification

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	types "github.com/yungbote/dojoquest-backend/internal/domain"
	"github.com/yungbote/dojoquest-backend/internal/platform/dbctx"
	"github.com/yungbote/dojoquest-backend/internal/realtime"
	"github.com/yungbote/dojoquest-backend/internal/services"
)

func (u Usecases) notify(ctx context.Context, n services.Notification) {
	if u.deps.Notify == nil {
		return
	}
	u.deps.Notify.Notify(ctx, n)
}

func (u Usecases) notifyXPAwarded(ctx context.Context, studentID uuid.UUID, amount, balance int64, source string) {
	if amount <= 0 {
		return
	}
	u.notify(ctx, services.Notification{
		Event:    realtime.SSEEventXPAwarded,
		Channels: []string{realtime.StudentChannel(studentID)},
		Data: map[string]any{
			"student_id": studentID,
			"amount":     amount,
			"balance":    balance,
			"source":     source,
		},
	})
}

// notifyCoaches reaches the student's club: the coach channel and, when the
// club has one, the coach inbox.
func (u Usecases) notifyCoaches(ctx context.Context, student *types.Student, event realtime.SSEEvent, data map[string]any, subject, text string) {
	if student == nil || student.ClubID == nil {
		return
	}
	n := services.Notification{
		Event:    event,
		Channels: []string{realtime.CoachChannel(*student.ClubID)},
		Data:     data,
	}
	if u.deps.Clubs != nil {
		club, err := u.deps.Clubs.GetByID(dbctx.Context{Ctx: ctx}, *student.ClubID)
		if err != nil {
			u.deps.Log.Warn("Coach lookup failed", "club_id", *student.ClubID, "error", err)
		} else if club != nil && club.CoachEmail != "" {
			n.Email = &services.EmailMessage{To: club.CoachEmail, Subject: subject, Text: text, Category: string(event)}
		}
	}
	u.notify(ctx, n)
}

func (u Usecases) notifyParent(ctx context.Context, student *types.Student, event realtime.SSEEvent, data map[string]any, subject, text string) {
	n := services.Notification{
		Event:    event,
		Channels: []string{realtime.StudentChannel(student.ID)},
		Data:     data,
	}
	if student.ParentEmail != "" {
		n.Email = &services.EmailMessage{To: student.ParentEmail, Subject: subject, Text: text, Category: string(event)}
	}
	u.notify(ctx, n)
}

func displayName(s *types.Student) string {
	if s == nil {
		return "A student"
	}
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return fmt.Sprintf("Student %s", s.ID.String()[:8])
}
