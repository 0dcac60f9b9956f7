package gamification

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/yungbote/dojoquest-backend/internal/data/aggregates"
	"github.com/yungbote/dojoquest-backend/internal/data/repos"
	types "github.com/yungbote/dojoquest-backend/internal/domain"
	gamedomain "github.com/yungbote/dojoquest-backend/internal/domain/gamification"
	"github.com/yungbote/dojoquest-backend/internal/observability"
	"github.com/yungbote/dojoquest-backend/internal/platform/ctxutil"
	"github.com/yungbote/dojoquest-backend/internal/platform/dbctx"
	"github.com/yungbote/dojoquest-backend/internal/realtime"
	"github.com/yungbote/dojoquest-backend/internal/services"
)

type SubmissionOutput struct {
	Submission types.Submission `json:"submission"`
	XPAwarded  int64            `json:"xp_awarded"`
	Balance    int64            `json:"balance"`
}

type TrustChallengeInput struct {
	Actor        Actor
	ChallengeKey string `validate:"required,max=64"`
	Score        *int   `validate:"omitempty,gte=0,lte=100000"`
}

// SubmitTrustChallenge pays the catalog XP immediately for a self-reported
// arena challenge.
func (u Usecases) SubmitTrustChallenge(ctx context.Context, in TrustChallengeInput) (SubmissionOutput, error) {
	const op = "submit_trust_challenge"
	if err := u.check(op, in); err != nil {
		return SubmissionOutput{}, err
	}
	challenge, ok := lookupArena(in.ChallengeKey)
	if !ok {
		return SubmissionOutput{}, validationErr(op, "unknown_challenge", fmt.Sprintf("unknown challenge %q", in.ChallengeKey))
	}
	student, err := u.ensureStudent(ctx, op, in.Actor)
	if err != nil {
		return SubmissionOutput{}, err
	}

	row := &types.ChallengeSubmission{
		ID:           uuid.New(),
		StudentID:    student.ID,
		ChallengeKey: challenge.Key,
		Mode:         gamedomain.ModeSoloTrust,
		Status:       gamedomain.StatusCompleted,
		ProofType:    gamedomain.ProofSelfReport,
		XPAmount:     challenge.BaseXP,
		Score:        in.Score,
	}
	var balance int64
	err = u.writer.Execute(ctx, op, func(dbc dbctx.Context) error {
		d, err := u.limiter.CheckAndReserve(dbc, student.ID, challenge.Key, TrustPerChallengePolicy{Limit: u.deps.Policy.TrustDailyLimit})
		if err != nil {
			return err
		}
		if !d.Allowed {
			return rateLimitedErr(op, d.Reason, student.TotalXP)
		}
		row.Day = d.Day
		if err := u.deps.Submissions.Create(dbc, row); err != nil {
			if errors.Is(err, repos.ErrDuplicate) {
				return rateLimitedErr(op, d.Reason, student.TotalXP)
			}
			return err
		}
		balance, err = u.ledger.Award(dbc, student.ID, challenge.BaseXP, gamedomain.SourceTrustChallenge, map[string]any{
			"submission_id": row.ID,
			"challenge_key": challenge.Key,
		})
		return err
	})
	if err != nil {
		return SubmissionOutput{}, writeResult(op, err)
	}
	observability.Current().IncSubmission(row.Mode, row.Status)
	u.notifyXPAwarded(ctx, student.ID, challenge.BaseXP, balance, gamedomain.SourceTrustChallenge)

	sub, err := gamedomain.DecodeSubmission(row)
	if err != nil {
		return SubmissionOutput{}, internalErr(op, err)
	}
	return SubmissionOutput{Submission: sub, XPAwarded: challenge.BaseXP, Balance: balance}, nil
}

type VideoChallengeInput struct {
	Actor        Actor
	ChallengeKey string `validate:"required,max=64"`
	Filename     string `validate:"required,max=255"`
	Body         io.Reader
}

// SubmitVideoChallenge stores the proof and queues it for coach review. The
// pending XP is frozen on the row; nothing is paid until a coach approves.
func (u Usecases) SubmitVideoChallenge(ctx context.Context, in VideoChallengeInput) (SubmissionOutput, error) {
	const op = "submit_video_challenge"
	if err := u.check(op, in); err != nil {
		return SubmissionOutput{}, err
	}
	if in.Body == nil {
		return SubmissionOutput{}, validationErr(op, "missing_video", "video body required")
	}
	challenge, ok := lookupArena(in.ChallengeKey)
	if !ok {
		return SubmissionOutput{}, validationErr(op, "unknown_challenge", fmt.Sprintf("unknown challenge %q", in.ChallengeKey))
	}
	student, err := u.ensureStudent(ctx, op, in.Actor)
	if err != nil {
		return SubmissionOutput{}, err
	}

	entitled := false
	if u.deps.Entitlement != nil {
		entitled, err = u.deps.Entitlement.HasVideoProof(ctx, student)
		if err != nil {
			return SubmissionOutput{}, internalErr(op, err)
		}
	}
	if !entitled {
		return SubmissionOutput{}, entitlementDeniedErr(op, student.TotalXP)
	}
	if u.deps.Videos == nil {
		return SubmissionOutput{}, internalErr(op, fmt.Errorf("video storage not configured"))
	}

	stored, err := u.deps.Videos.Save(ctx, student.ID, challenge.Key, in.Filename, in.Body)
	if err != nil {
		if errors.Is(err, services.ErrUnsupportedVideo) {
			return SubmissionOutput{}, validationErr(op, "unsupported_video", err.Error())
		}
		return SubmissionOutput{}, internalErr(op, err)
	}

	row := &types.ChallengeSubmission{
		ID:           uuid.New(),
		StudentID:    student.ID,
		ChallengeKey: challenge.Key,
		Mode:         gamedomain.ModeSoloVideo,
		Status:       gamedomain.StatusPending,
		ProofType:    gamedomain.ProofVideo,
		XPAmount:     challenge.BaseXP * u.deps.Policy.VideoMultiplier,
		Day:          dayKey(u.deps.Clock.Now()),
		VideoURL:     stored.URL,
		VideoKey:     stored.Key,
	}
	err = u.writer.Execute(ctx, op, func(dbc dbctx.Context) error {
		return u.deps.Submissions.Create(dbc, row)
	})
	if err != nil {
		if rmErr := u.deps.Videos.Remove(context.WithoutCancel(ctx), stored.Key); rmErr != nil {
			u.deps.Log.Warn("Orphaned video proof", "key", stored.Key, "error", rmErr)
		}
		return SubmissionOutput{}, writeResult(op, err)
	}
	observability.Current().IncSubmission(row.Mode, row.Status)

	u.notifyCoaches(ctx, student, realtime.SSEEventSubmissionPending, map[string]any{
		"submission_id": row.ID,
		"student_id":    student.ID,
		"challenge_key": challenge.Key,
		"xp_amount":     row.XPAmount,
	},
		"New video proof to review",
		fmt.Sprintf("%s submitted a %s video for review.", displayName(student), challenge.Title),
	)

	sub, err := gamedomain.DecodeSubmission(row)
	if err != nil {
		return SubmissionOutput{}, internalErr(op, err)
	}
	return SubmissionOutput{Submission: sub, Balance: student.TotalXP}, nil
}

type VerifyInput struct {
	Actor        Actor
	SubmissionID uuid.UUID
	Approve      bool
	Notes        string `validate:"max=1000"`
}

// VerifySubmission settles a PENDING video proof exactly once.
func (u Usecases) VerifySubmission(ctx context.Context, in VerifyInput) (SubmissionOutput, error) {
	const op = "verify_submission"
	if !in.Actor.isStaff() {
		return SubmissionOutput{}, forbiddenErr(op, "coach_role_required")
	}
	if in.SubmissionID == uuid.Nil {
		return SubmissionOutput{}, validationErr(op, "invalid_submission_id", "missing submission id")
	}
	if err := u.check(op, in); err != nil {
		return SubmissionOutput{}, err
	}

	var (
		video   types.VideoSubmission
		awarded int64
		balance int64
	)
	err := u.writer.Execute(ctx, op, func(dbc dbctx.Context) error {
		row, err := u.deps.Submissions.GetByID(dbc, in.SubmissionID)
		if err != nil {
			return err
		}
		if row == nil {
			return notFoundErr(op, "submission_not_found")
		}
		sub, err := gamedomain.DecodeSubmission(row)
		if err != nil {
			return err
		}
		switch v := sub.(type) {
		case types.VideoSubmission:
			video = v
		case types.TrustSubmission, types.PvpMatch, types.QuizCompletion:
			return invalidStateErr(op, "not_verifiable", fmt.Sprintf("%s submissions are not reviewed", row.Mode))
		default:
			return fmt.Errorf("unhandled submission variant %T", v)
		}

		if in.Actor.Role != ctxutil.RoleAdmin {
			student, err := u.deps.Students.GetByID(dbc, video.StudentID)
			if err != nil {
				return err
			}
			if student == nil || !in.Actor.canManage(student.ClubID) {
				return forbiddenErr(op, "submission_outside_club")
			}
		}
		if err := aggregates.RequireStatusAllowed(video.Status, gamedomain.StatusPending); err != nil {
			return guardErr(op, fmt.Sprintf("submission is %s", video.Status), err)
		}

		now := u.deps.Clock.Now()
		status := gamedomain.StatusRejected
		if in.Approve {
			status = gamedomain.StatusVerified
		}
		moved, err := u.deps.Submissions.TransitionStatus(dbc, video.ID, []string{gamedomain.StatusPending}, map[string]any{
			"status":         status,
			"verified_by":    in.Actor.ID,
			"verifier_notes": in.Notes,
			"resolved_at":    now,
		})
		if err != nil {
			return err
		}
		if err := aggregates.RequireCASSuccess(moved, "submission was already reviewed"); err != nil {
			return guardErr(op, "submission was already reviewed", err)
		}
		verifier := in.Actor.ID
		video.Status = status
		video.VerifiedBy = &verifier
		video.VerifierNotes = in.Notes
		video.ResolvedAt = &now

		if !in.Approve || video.XPAmount <= 0 {
			balance, err = u.ledger.Balance(dbc, video.StudentID)
			return err
		}
		awarded = video.XPAmount
		balance, err = u.ledger.Award(dbc, video.StudentID, video.XPAmount, gamedomain.SourceVideoChallenge, map[string]any{
			"submission_id": video.ID,
			"challenge_key": video.ChallengeKey,
			"verified_by":   in.Actor.ID,
		})
		return err
	})
	if err != nil {
		return SubmissionOutput{}, writeResult(op, err)
	}
	observability.Current().IncSubmission(video.Mode, video.Status)

	u.notify(ctx, services.Notification{
		Event:    realtime.SSEEventSubmissionVerdict,
		Channels: []string{realtime.StudentChannel(video.StudentID)},
		Data: map[string]any{
			"submission_id": video.ID,
			"status":        video.Status,
			"xp_awarded":    awarded,
			"notes":         video.VerifierNotes,
		},
	})
	u.notifyXPAwarded(ctx, video.StudentID, awarded, balance, gamedomain.SourceVideoChallenge)
	return SubmissionOutput{Submission: video, XPAwarded: awarded, Balance: balance}, nil
}

type PendingInput struct {
	Actor Actor
	// ClubID narrows an admin's queue. Coaches always see their own club.
	ClubID uuid.UUID
}

func (u Usecases) ListPendingVideoSubmissions(ctx context.Context, in PendingInput) ([]types.VideoSubmission, error) {
	const op = "list_pending_submissions"
	if !in.Actor.isStaff() {
		return nil, forbiddenErr(op, "coach_role_required")
	}
	var clubID *uuid.UUID
	switch {
	case in.Actor.Role == ctxutil.RoleCoach:
		if in.Actor.ClubID == uuid.Nil || (in.ClubID != uuid.Nil && in.ClubID != in.Actor.ClubID) {
			return nil, forbiddenErr(op, "club_outside_scope")
		}
		id := in.Actor.ClubID
		clubID = &id
	case in.ClubID != uuid.Nil:
		id := in.ClubID
		clubID = &id
	}
	rows, err := u.deps.Submissions.ListPendingVideo(dbctx.Context{Ctx: ctx}, clubID, u.deps.Policy.PendingReviewLimit)
	if err != nil {
		return nil, internalErr(op, err)
	}
	out := make([]types.VideoSubmission, 0, len(rows))
	for _, row := range rows {
		sub, err := gamedomain.DecodeSubmission(row)
		if err != nil {
			u.deps.Log.Warn("Skipping undecodable submission", "submission_id", row.ID, "error", err)
			continue
		}
		if v, ok := sub.(types.VideoSubmission); ok {
			out = append(out, v)
		}
	}
	return out, nil
}
