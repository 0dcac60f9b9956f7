package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/dojoquest-backend/internal/domain"
	"github.com/yungbote/dojoquest-backend/internal/http/response"
	"github.com/yungbote/dojoquest-backend/internal/modules/gamification"
	"github.com/yungbote/dojoquest-backend/internal/platform/ctxutil"
)

// Gamification is the usecase surface the handlers call.
type Gamification interface {
	AwardXP(ctx context.Context, in gamification.AwardXPInput) (gamification.AwardXPOutput, error)
	SpendXP(ctx context.Context, in gamification.SpendXPInput) (gamification.SpendXPOutput, error)
	GetBalance(ctx context.Context, in gamification.BalanceInput) (gamification.BalanceOutput, error)
	ListTransactions(ctx context.Context, a gamification.Actor, limit int) ([]*types.XPTransaction, error)

	SubmitTrustChallenge(ctx context.Context, in gamification.TrustChallengeInput) (gamification.SubmissionOutput, error)
	SubmitVideoChallenge(ctx context.Context, in gamification.VideoChallengeInput) (gamification.SubmissionOutput, error)
	VerifySubmission(ctx context.Context, in gamification.VerifyInput) (gamification.SubmissionOutput, error)
	ListPendingVideoSubmissions(ctx context.Context, in gamification.PendingInput) ([]types.VideoSubmission, error)
	Catalog() gamification.CatalogOutput

	GetTodaysDailyChallenge(ctx context.Context, in gamification.DailyChallengeInput) (gamification.DailyChallengeOutput, error)
	SubmitDailyChallengeAnswer(ctx context.Context, in gamification.DailyAnswerInput) (gamification.DailyAnswerOutput, error)

	CheckInHabit(ctx context.Context, in gamification.HabitCheckInInput) (gamification.HabitCheckInOutput, error)
	GetHabitStatus(ctx context.Context, a gamification.Actor) (gamification.HabitStatusOutput, error)
	SubmitFamilyChallenge(ctx context.Context, in gamification.FamilyChallengeInput) (gamification.FamilyChallengeOutput, error)

	CreatePvpChallenge(ctx context.Context, in gamification.CreatePvpInput) (types.PvpMatch, error)
	RespondToPvpChallenge(ctx context.Context, in gamification.RespondPvpInput) (types.PvpMatch, error)
	SubmitPvpScore(ctx context.Context, in gamification.PvpScoreInput) (gamification.PvpScoreOutput, error)
	ListPvpMatches(ctx context.Context, a gamification.Actor) ([]types.PvpMatch, error)

	GetLeaderboard(ctx context.Context, in gamification.LeaderboardInput) (gamification.LeaderboardOutput, error)
}

var _ Gamification = gamification.Usecases{}

// requireActor writes a 401 and returns false when the request carries no caller.
func requireActor(c *gin.Context) (gamification.Actor, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return gamification.Actor{}, false
	}
	return gamification.ActorFromRequest(rd), true
}

// parseUUID reads an id from a path param or query value. Empty is uuid.Nil
// when optional.
func parseUUID(c *gin.Context, raw, code string, optional bool) (uuid.UUID, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" && optional {
		return uuid.Nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, code, err)
		return uuid.Nil, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return false
	}
	return true
}
