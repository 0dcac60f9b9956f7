package handlers

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/dojoquest-backend/internal/domain"
	"github.com/yungbote/dojoquest-backend/internal/modules/gamification"
	"github.com/yungbote/dojoquest-backend/internal/platform/ctxutil"
)

// fakeGamification records the last input it saw and returns err when set.
type fakeGamification struct {
	err error

	award    gamification.AwardXPInput
	balance  gamification.BalanceInput
	trust    gamification.TrustChallengeInput
	video    gamification.VideoChallengeInput
	videoRaw string
	verify   gamification.VerifyInput
	answer   gamification.DailyAnswerInput
	daily    gamification.DailyChallengeInput
	habit    gamification.HabitCheckInInput
	family   gamification.FamilyChallengeInput
	create   gamification.CreatePvpInput
	respond  gamification.RespondPvpInput
	score    gamification.PvpScoreInput
	board    gamification.LeaderboardInput
	pending  gamification.PendingInput
}

func (f *fakeGamification) AwardXP(_ context.Context, in gamification.AwardXPInput) (gamification.AwardXPOutput, error) {
	f.award = in
	return gamification.AwardXPOutput{StudentID: in.StudentID, Awarded: in.Amount, Balance: in.Amount}, f.err
}

func (f *fakeGamification) SpendXP(_ context.Context, in gamification.SpendXPInput) (gamification.SpendXPOutput, error) {
	return gamification.SpendXPOutput{Spent: in.Amount}, f.err
}

func (f *fakeGamification) GetBalance(_ context.Context, in gamification.BalanceInput) (gamification.BalanceOutput, error) {
	f.balance = in
	return gamification.BalanceOutput{StudentID: in.StudentID, Belt: "white", TotalXP: 120}, f.err
}

func (f *fakeGamification) ListTransactions(_ context.Context, _ gamification.Actor, _ int) ([]*types.XPTransaction, error) {
	return nil, f.err
}

func (f *fakeGamification) SubmitTrustChallenge(_ context.Context, in gamification.TrustChallengeInput) (gamification.SubmissionOutput, error) {
	f.trust = in
	return gamification.SubmissionOutput{XPAwarded: 20, Balance: 20}, f.err
}

func (f *fakeGamification) SubmitVideoChallenge(_ context.Context, in gamification.VideoChallengeInput) (gamification.SubmissionOutput, error) {
	f.video = in
	if in.Body != nil {
		raw, _ := io.ReadAll(in.Body)
		f.videoRaw = string(raw)
	}
	return gamification.SubmissionOutput{}, f.err
}

func (f *fakeGamification) VerifySubmission(_ context.Context, in gamification.VerifyInput) (gamification.SubmissionOutput, error) {
	f.verify = in
	return gamification.SubmissionOutput{}, f.err
}

func (f *fakeGamification) ListPendingVideoSubmissions(_ context.Context, in gamification.PendingInput) ([]types.VideoSubmission, error) {
	f.pending = in
	return nil, f.err
}

func (f *fakeGamification) Catalog() gamification.CatalogOutput {
	return gamification.CatalogOutput{HabitDailyCap: 60}
}

func (f *fakeGamification) GetTodaysDailyChallenge(_ context.Context, in gamification.DailyChallengeInput) (gamification.DailyChallengeOutput, error) {
	f.daily = in
	return gamification.DailyChallengeOutput{}, f.err
}

func (f *fakeGamification) SubmitDailyChallengeAnswer(_ context.Context, in gamification.DailyAnswerInput) (gamification.DailyAnswerOutput, error) {
	f.answer = in
	return gamification.DailyAnswerOutput{}, f.err
}

func (f *fakeGamification) CheckInHabit(_ context.Context, in gamification.HabitCheckInInput) (gamification.HabitCheckInOutput, error) {
	f.habit = in
	return gamification.HabitCheckInOutput{HabitKey: in.HabitKey}, f.err
}

func (f *fakeGamification) GetHabitStatus(_ context.Context, _ gamification.Actor) (gamification.HabitStatusOutput, error) {
	return gamification.HabitStatusOutput{}, f.err
}

func (f *fakeGamification) SubmitFamilyChallenge(_ context.Context, in gamification.FamilyChallengeInput) (gamification.FamilyChallengeOutput, error) {
	f.family = in
	return gamification.FamilyChallengeOutput{}, f.err
}

func (f *fakeGamification) CreatePvpChallenge(_ context.Context, in gamification.CreatePvpInput) (types.PvpMatch, error) {
	f.create = in
	return types.PvpMatch{}, f.err
}

func (f *fakeGamification) RespondToPvpChallenge(_ context.Context, in gamification.RespondPvpInput) (types.PvpMatch, error) {
	f.respond = in
	return types.PvpMatch{}, f.err
}

func (f *fakeGamification) SubmitPvpScore(_ context.Context, in gamification.PvpScoreInput) (gamification.PvpScoreOutput, error) {
	f.score = in
	return gamification.PvpScoreOutput{}, f.err
}

func (f *fakeGamification) ListPvpMatches(_ context.Context, _ gamification.Actor) ([]types.PvpMatch, error) {
	return nil, f.err
}

func (f *fakeGamification) GetLeaderboard(_ context.Context, in gamification.LeaderboardInput) (gamification.LeaderboardOutput, error) {
	f.board = in
	return gamification.LeaderboardOutput{ClubID: in.ClubID}, f.err
}

var _ Gamification = (*fakeGamification)(nil)

// withCaller stands in for the auth middleware.
func withCaller(rd *ctxutil.RequestData) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rd != nil {
			c.Request = c.Request.WithContext(ctxutil.WithRequestData(c.Request.Context(), rd))
		}
		c.Next()
	}
}

func studentCaller() *ctxutil.RequestData {
	return &ctxutil.RequestData{UserID: uuid.New(), Role: ctxutil.RoleStudent}
}

func serve(r *gin.Engine, method, path, contentType, body string) *httptest.ResponseRecorder {
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status=%d want %d body=%s", rec.Code, want, rec.Body.String())
	}
}

