package gamification

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/dojoquest-backend/internal/data/repos"
	types "github.com/yungbote/dojoquest-backend/internal/domain"
	gamedomain "github.com/yungbote/dojoquest-backend/internal/domain/gamification"
	"github.com/yungbote/dojoquest-backend/internal/platform/dbctx"
	"github.com/yungbote/dojoquest-backend/internal/realtime"
)

type FamilyChallengeInput struct {
	Actor        Actor
	ChallengeKey string `validate:"required,max=64"`
	Outcome      string `validate:"required,oneof=won lost"`
}

type FamilyChallengeOutput struct {
	ChallengeKey string `json:"challenge_key"`
	Outcome      string `json:"outcome"`
	Day          string `json:"day"`
	XPAwarded    int64  `json:"xp_awarded"`
	Balance      int64  `json:"balance"`
}

// familyXP is the server-side payout; a loss earns the configured share.
func familyXP(c FamilyChallenge, outcome string, lossPercent int64) int64 {
	if outcome == gamedomain.FamilyOutcomeWon {
		return c.BaseXP
	}
	return c.BaseXP * lossPercent / 100
}

func (u Usecases) SubmitFamilyChallenge(ctx context.Context, in FamilyChallengeInput) (FamilyChallengeOutput, error) {
	const op = "submit_family_challenge"
	in.Outcome = strings.ToLower(strings.TrimSpace(in.Outcome))
	if err := u.check(op, in); err != nil {
		return FamilyChallengeOutput{}, err
	}
	challenge, ok := lookupFamily(in.ChallengeKey)
	if !ok {
		return FamilyChallengeOutput{}, validationErr(op, "unknown_family_challenge", fmt.Sprintf("unknown family challenge %q", in.ChallengeKey))
	}
	student, err := u.ensureStudent(ctx, op, in.Actor)
	if err != nil {
		return FamilyChallengeOutput{}, err
	}

	xp := familyXP(challenge, in.Outcome, u.deps.Policy.FamilyLossPercent)
	out := FamilyChallengeOutput{ChallengeKey: challenge.Key, Outcome: in.Outcome}
	err = u.writer.Execute(ctx, op, func(dbc dbctx.Context) error {
		d, err := u.limiter.CheckAndReserve(dbc, student.ID, challenge.Key, FamilyOncePerDayPolicy{})
		if err != nil {
			return err
		}
		if !d.Allowed {
			return rateLimitedErr(op, d.Reason, student.TotalXP)
		}
		if err := u.deps.FamilyLogs.Create(dbc, &types.FamilyLog{
			ID:           uuid.New(),
			StudentID:    student.ID,
			ChallengeKey: challenge.Key,
			Day:          d.Day,
			Outcome:      in.Outcome,
			XPAwarded:    xp,
		}); err != nil {
			if errors.Is(err, repos.ErrDuplicate) {
				return rateLimitedErr(op, "family_challenge_already_logged", student.TotalXP)
			}
			return err
		}
		out.Day = d.Day
		if xp <= 0 {
			out.Balance, err = u.ledger.Balance(dbc, student.ID)
			return err
		}
		out.Balance, err = u.ledger.Award(dbc, student.ID, xp, gamedomain.SourceFamily, map[string]any{
			"challenge_key": challenge.Key,
			"outcome":       in.Outcome,
		})
		return err
	})
	if err != nil {
		return FamilyChallengeOutput{}, writeResult(op, err)
	}
	out.XPAwarded = xp

	u.notifyParent(ctx, student, realtime.SSEEventFamilyLogged, map[string]any{
		"challenge_key": challenge.Key,
		"outcome":       in.Outcome,
		"xp_awarded":    xp,
		"balance":       out.Balance,
	},
		fmt.Sprintf("%s logged a family challenge", displayName(student)),
		fmt.Sprintf("%s completed %s with you (%s) and earned %d XP.", displayName(student), challenge.Title, in.Outcome, xp),
	)
	return out, nil
}
