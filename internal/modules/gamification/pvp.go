package gamification

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/dojoquest-backend/internal/data/aggregates"
	types "github.com/yungbote/dojoquest-backend/internal/domain"
	gamedomain "github.com/yungbote/dojoquest-backend/internal/domain/gamification"
	"github.com/yungbote/dojoquest-backend/internal/observability"
	"github.com/yungbote/dojoquest-backend/internal/platform/dbctx"
	"github.com/yungbote/dojoquest-backend/internal/realtime"
	"github.com/yungbote/dojoquest-backend/internal/services"
)

type CreatePvpInput struct {
	Actor        Actor
	OpponentID   uuid.UUID
	ChallengeKey string `validate:"required,max=64"`
}

// CreatePvpChallenge opens a duel between two students of the same club.
func (u Usecases) CreatePvpChallenge(ctx context.Context, in CreatePvpInput) (types.PvpMatch, error) {
	const op = "create_pvp_challenge"
	if in.OpponentID == uuid.Nil {
		return types.PvpMatch{}, validationErr(op, "invalid_opponent_id", "missing opponent id")
	}
	if in.OpponentID == in.Actor.ID {
		return types.PvpMatch{}, validationErr(op, "cannot_challenge_self", "challenger and opponent must differ")
	}
	if err := u.check(op, in); err != nil {
		return types.PvpMatch{}, err
	}
	challenge, ok := lookupArena(in.ChallengeKey)
	if !ok {
		return types.PvpMatch{}, validationErr(op, "unknown_challenge", fmt.Sprintf("unknown challenge %q", in.ChallengeKey))
	}
	challenger, err := u.ensureStudent(ctx, op, in.Actor)
	if err != nil {
		return types.PvpMatch{}, err
	}
	opponent, err := u.deps.Students.GetByID(dbctx.Context{Ctx: ctx}, in.OpponentID)
	if err != nil {
		return types.PvpMatch{}, internalErr(op, err)
	}
	if opponent == nil {
		return types.PvpMatch{}, notFoundErr(op, "opponent_not_found")
	}
	if challenger.ClubID == nil || opponent.ClubID == nil || *challenger.ClubID != *opponent.ClubID {
		return types.PvpMatch{}, validationErr(op, "different_club", "both students must belong to the same club")
	}

	opponentID := opponent.ID
	row := &types.ChallengeSubmission{
		ID:           uuid.New(),
		StudentID:    challenger.ID,
		ChallengeKey: challenge.Key,
		Mode:         gamedomain.ModePvp,
		Status:       gamedomain.StatusPendingOpponent,
		ProofType:    gamedomain.ProofScoreExchange,
		Day:          dayKey(u.deps.Clock.Now()),
		OpponentID:   &opponentID,
	}
	err = u.writer.Execute(ctx, op, func(dbc dbctx.Context) error {
		return u.deps.Submissions.Create(dbc, row)
	})
	if err != nil {
		return types.PvpMatch{}, writeResult(op, err)
	}
	observability.Current().IncSubmission(row.Mode, row.Status)

	match, err := decodeMatch(row)
	if err != nil {
		return types.PvpMatch{}, internalErr(op, err)
	}
	u.notify(ctx, services.Notification{
		Event:    realtime.SSEEventPvpInvited,
		Channels: []string{realtime.StudentChannel(opponent.ID)},
		Data: map[string]any{
			"match_id":      match.ID,
			"challenger_id": challenger.ID,
			"challenger":    displayName(challenger),
			"challenge_key": challenge.Key,
		},
	})
	return match, nil
}

type RespondPvpInput struct {
	Actor   Actor
	MatchID uuid.UUID
	Accept  bool
}

// RespondToPvpChallenge lets the invited opponent accept or decline. A
// declined match is terminal and pays nothing.
func (u Usecases) RespondToPvpChallenge(ctx context.Context, in RespondPvpInput) (types.PvpMatch, error) {
	const op = "respond_pvp_challenge"
	if in.MatchID == uuid.Nil {
		return types.PvpMatch{}, validationErr(op, "invalid_match_id", "missing match id")
	}
	if in.Actor.ID == uuid.Nil {
		return types.PvpMatch{}, validationErr(op, "invalid_student_id", "missing student id")
	}

	var match types.PvpMatch
	err := u.writer.Execute(ctx, op, func(dbc dbctx.Context) error {
		m, err := u.loadMatch(dbc, op, in.MatchID)
		if err != nil {
			return err
		}
		if in.Actor.ID != m.OpponentID {
			return forbiddenErr(op, "not_match_opponent")
		}
		if err := aggregates.RequireStatusAllowed(m.Status, gamedomain.StatusPendingOpponent); err != nil {
			return guardErr(op, fmt.Sprintf("match is %s", m.Status), err)
		}
		updates := map[string]any{"status": gamedomain.StatusActive}
		if !in.Accept {
			now := u.deps.Clock.Now()
			updates = map[string]any{"status": gamedomain.StatusRejected, "resolved_at": now}
			m.ResolvedAt = &now
		}
		moved, err := u.deps.Submissions.TransitionStatus(dbc, m.ID, []string{gamedomain.StatusPendingOpponent}, updates)
		if err != nil {
			return err
		}
		if err := aggregates.RequireCASSuccess(moved, "match was already answered"); err != nil {
			return guardErr(op, "match was already answered", err)
		}
		m.Status = updates["status"].(string)
		match = m
		return nil
	})
	if err != nil {
		return types.PvpMatch{}, writeResult(op, err)
	}
	observability.Current().IncSubmission(match.Mode, match.Status)

	u.notify(ctx, services.Notification{
		Event:    realtime.SSEEventPvpResponded,
		Channels: []string{realtime.StudentChannel(match.ChallengerID)},
		Data: map[string]any{
			"match_id": match.ID,
			"accepted": in.Accept,
			"status":   match.Status,
		},
	})
	return match, nil
}

type PvpScoreInput struct {
	Actor   Actor
	MatchID uuid.UUID
	Score   int `validate:"gte=0,lte=100000"`
}

type PvpScoreOutput struct {
	Match       types.PvpMatch `json:"match"`
	Resolved    bool           `json:"resolved"`
	XPAwarded   int64          `json:"xp_awarded"`
	LimitReason string         `json:"limit_reason,omitempty"`
}

type pvpPayout struct {
	studentID uuid.UUID
	amount    int64
	source    string
	balance   int64
}

// SubmitPvpScore records the caller's side. The write that completes the pair
// also resolves the match and pays both sides in the same transaction.
func (u Usecases) SubmitPvpScore(ctx context.Context, in PvpScoreInput) (PvpScoreOutput, error) {
	const op = "submit_pvp_score"
	if in.MatchID == uuid.Nil {
		return PvpScoreOutput{}, validationErr(op, "invalid_match_id", "missing match id")
	}
	if in.Actor.ID == uuid.Nil {
		return PvpScoreOutput{}, validationErr(op, "invalid_student_id", "missing student id")
	}
	if err := u.check(op, in); err != nil {
		return PvpScoreOutput{}, err
	}

	var (
		out     PvpScoreOutput
		payouts []pvpPayout
	)
	err := u.writer.Execute(ctx, op, func(dbc dbctx.Context) error {
		out, payouts = PvpScoreOutput{}, nil
		m, err := u.loadMatch(dbc, op, in.MatchID)
		if err != nil {
			return err
		}
		role, ok := m.Role(in.Actor.ID)
		if !ok {
			return forbiddenErr(op, "not_match_participant")
		}
		set, err := u.deps.Submissions.SetPvpScore(dbc, m.ID, role, in.Score)
		if err != nil {
			return err
		}
		if err := aggregates.RequireCASSuccess(set, "score already recorded"); err != nil {
			return guardErr(op, "match is not active or this side already scored", err)
		}

		m, err = u.loadMatch(dbc, op, in.MatchID)
		if err != nil {
			return err
		}
		out.Match = m
		if m.ChallengerScore == nil || m.OpponentScore == nil {
			return nil
		}

		winner, outcome := pvpWinner(m)
		pending := u.pvpPayouts(m, winner)
		decision, err := u.limiter.CheckAndReserve(dbc, m.ChallengerID, m.ChallengeKey, PvpPairDailyPolicy{
			Limit:      u.deps.Policy.PvpPairDailyLimit,
			OpponentID: m.OpponentID,
		})
		if err != nil {
			return err
		}
		var total int64
		for i := range pending {
			if !decision.Allowed {
				pending[i].amount = 0
			}
			total += pending[i].amount
		}

		now := u.deps.Clock.Now()
		resolved, err := u.deps.Submissions.ResolvePvp(dbc, m.ID, winner, now, total)
		if err != nil {
			return err
		}
		if !resolved {
			return nil
		}
		m.Status = gamedomain.StatusCompleted
		m.WinnerID = winner
		m.ResolvedAt = &now
		out.Match = m
		out.Resolved = true
		if !decision.Allowed {
			out.LimitReason = decision.Reason
			u.deps.Log.Info("PvP match resolved without payout", "match_id", m.ID, "reason", decision.Reason)
		}

		for _, p := range pending {
			if p.amount > 0 {
				p.balance, err = u.ledger.Award(dbc, p.studentID, p.amount, p.source, map[string]any{
					"match_id":      m.ID,
					"challenge_key": m.ChallengeKey,
				})
				if err != nil {
					return err
				}
			}
			if p.studentID == in.Actor.ID {
				out.XPAwarded = p.amount
			}
			payouts = append(payouts, p)
		}
		observability.Current().IncPvpResolved(outcome)
		return nil
	})
	if err != nil {
		return PvpScoreOutput{}, writeResult(op, err)
	}

	if out.Resolved {
		for _, p := range payouts {
			u.notify(ctx, services.Notification{
				Event:    realtime.SSEEventPvpResolved,
				Channels: []string{realtime.StudentChannel(p.studentID)},
				Data: map[string]any{
					"match_id":         out.Match.ID,
					"winner_id":        out.Match.WinnerID,
					"challenger_score": out.Match.ChallengerScore,
					"opponent_score":   out.Match.OpponentScore,
					"xp_awarded":       p.amount,
				},
			})
			u.notifyXPAwarded(ctx, p.studentID, p.amount, p.balance, p.source)
		}
	}
	return out, nil
}

// pvpWinner returns nil on a tie.
func pvpWinner(m types.PvpMatch) (*uuid.UUID, string) {
	c, o := *m.ChallengerScore, *m.OpponentScore
	switch {
	case c > o:
		id := m.ChallengerID
		return &id, "challenger"
	case o > c:
		id := m.OpponentID
		return &id, "opponent"
	default:
		return nil, "tie"
	}
}

func (u Usecases) pvpPayouts(m types.PvpMatch, winner *uuid.UUID) []pvpPayout {
	consolation := pvpPayout{amount: u.deps.Policy.PvpConsolationXP, source: gamedomain.SourcePvpConsolation}
	if winner == nil {
		a, b := consolation, consolation
		a.studentID, b.studentID = m.ChallengerID, m.OpponentID
		return []pvpPayout{a, b}
	}
	loser := m.ChallengerID
	if *winner == m.ChallengerID {
		loser = m.OpponentID
	}
	consolation.studentID = loser
	return []pvpPayout{
		{studentID: *winner, amount: u.deps.Policy.PvpWinXP, source: gamedomain.SourcePvpWin},
		consolation,
	}
}

func (u Usecases) loadMatch(dbc dbctx.Context, op string, id uuid.UUID) (types.PvpMatch, error) {
	row, err := u.deps.Submissions.GetByID(dbc, id)
	if err != nil {
		return types.PvpMatch{}, err
	}
	if row == nil || row.Mode != gamedomain.ModePvp {
		return types.PvpMatch{}, notFoundErr(op, "match_not_found")
	}
	return decodeMatch(row)
}

func decodeMatch(row *types.ChallengeSubmission) (types.PvpMatch, error) {
	sub, err := gamedomain.DecodeSubmission(row)
	if err != nil {
		return types.PvpMatch{}, err
	}
	m, ok := sub.(types.PvpMatch)
	if !ok {
		return types.PvpMatch{}, fmt.Errorf("submission %s is not a pvp match", row.ID)
	}
	return m, nil
}

func (u Usecases) ListPvpMatches(ctx context.Context, a Actor) ([]types.PvpMatch, error) {
	const op = "list_pvp_matches"
	if a.ID == uuid.Nil {
		return nil, validationErr(op, "invalid_student_id", "missing student id")
	}
	rows, err := u.deps.Submissions.ListPvpForStudent(dbctx.Context{Ctx: ctx}, a.ID, 50)
	if err != nil {
		return nil, internalErr(op, err)
	}
	out := make([]types.PvpMatch, 0, len(rows))
	for _, row := range rows {
		m, err := decodeMatch(row)
		if err != nil {
			u.deps.Log.Warn("Skipping undecodable match", "match_id", row.ID, "error", err)
			continue
		}
		out = append(out, m)
	}
	return out, nil
}
