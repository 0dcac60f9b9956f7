package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/dojoquest-backend/internal/platform/apierr"
	"github.com/yungbote/dojoquest-backend/internal/platform/ctxutil"
	"github.com/yungbote/dojoquest-backend/internal/platform/logger"
)

func newTestRouter(uc Gamification, rd *ctxutil.RequestData) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logger.Nop()
	xp := NewXPHandler(log, uc)
	ch := NewChallengeHandler(log, uc, 1<<20)
	daily := NewDailyChallengeHandler(log, uc)
	habits := NewHabitHandler(log, uc)
	pvp := NewPvpHandler(log, uc)
	board := NewLeaderboardHandler(log, uc)

	r := gin.New()
	api := r.Group("/api", withCaller(rd))
	api.POST("/xp/award", xp.AwardXP)
	api.GET("/xp/balance", xp.GetBalance)
	api.GET("/students/:id/balance", xp.GetStudentBalance)
	api.POST("/challenges/trust", ch.SubmitTrust)
	api.POST("/challenges/video", ch.SubmitVideo)
	api.POST("/submissions/:id/verify", ch.Verify)
	api.GET("/submissions/pending", ch.ListPending)
	api.GET("/catalog", ch.GetCatalog)
	api.GET("/daily-challenge", daily.GetToday)
	api.POST("/daily-challenge/answer", daily.SubmitAnswer)
	api.POST("/habits/:key/check-in", habits.CheckIn)
	api.POST("/family-challenges/:key", habits.SubmitFamily)
	api.POST("/pvp", pvp.Create)
	api.POST("/pvp/:id/respond", pvp.Respond)
	api.POST("/pvp/:id/score", pvp.SubmitScore)
	api.GET("/leaderboard", board.Get)
	return r
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) (string, map[string]any) {
	t.Helper()
	var env struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return env.Error.Code, env.Error.Details
}

func TestHandlersRequireCaller(t *testing.T) {
	r := newTestRouter(&fakeGamification{}, nil)
	rec := serve(r, http.MethodGet, "/api/xp/balance", "", "")
	expectStatus(t, rec, http.StatusUnauthorized)
}

func TestAwardXPParsesStudentID(t *testing.T) {
	uc := &fakeGamification{}
	coach := &ctxutil.RequestData{UserID: uuid.New(), Role: ctxutil.RoleCoach, ClubID: uuid.New()}
	r := newTestRouter(uc, coach)

	rec := serve(r, http.MethodPost, "/api/xp/award", "application/json", `{"student_id":"nope","amount":10}`)
	expectStatus(t, rec, http.StatusBadRequest)
	if code, _ := decodeError(t, rec); code != "invalid_student_id" {
		t.Fatalf("code=%s", code)
	}

	sid := uuid.New()
	rec = serve(r, http.MethodPost, "/api/xp/award", "application/json", `{"student_id":"`+sid.String()+`","amount":10,"reason":"focus"}`)
	expectStatus(t, rec, http.StatusOK)
	if uc.award.StudentID != sid || uc.award.Amount != 10 || uc.award.Actor.ID != coach.UserID || uc.award.Actor.ClubID != coach.ClubID {
		t.Fatalf("unexpected usecase input %+v", uc.award)
	}
}

func TestUsecaseErrorsRenderWithDetails(t *testing.T) {
	uc := &fakeGamification{
		err: apierr.New(http.StatusTooManyRequests, "rate_limited", errors.New("limit")).
			WithDetails(map[string]any{"balance": int64(40), "reason": "trust_daily_limit_reached"}),
	}
	r := newTestRouter(uc, studentCaller())

	rec := serve(r, http.MethodPost, "/api/challenges/trust", "application/json", `{"challenge_key":"plank_hold"}`)
	expectStatus(t, rec, http.StatusTooManyRequests)
	code, details := decodeError(t, rec)
	if code != "rate_limited" || details["balance"] != float64(40) {
		t.Fatalf("unexpected error %s %+v", code, details)
	}
	if uc.trust.ChallengeKey != "plank_hold" {
		t.Fatalf("challenge key not passed: %+v", uc.trust)
	}

	uc.err = errors.New("boom")
	rec = serve(r, http.MethodGet, "/api/xp/balance", "", "")
	expectStatus(t, rec, http.StatusInternalServerError)
	if code, _ := decodeError(t, rec); code != "get_balance_failed" {
		t.Fatalf("code=%s", code)
	}
}

func TestTrustChallengeCreated(t *testing.T) {
	r := newTestRouter(&fakeGamification{}, studentCaller())
	rec := serve(r, http.MethodPost, "/api/challenges/trust", "application/json", `{"challenge_key":"kick_combo","score":12}`)
	expectStatus(t, rec, http.StatusCreated)

	rec = serve(r, http.MethodPost, "/api/challenges/trust", "application/json", `{}`)
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestVideoUploadStreamsFile(t *testing.T) {
	uc := &fakeGamification{}
	r := newTestRouter(uc, studentCaller())

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("challenge_key", "kata_form")
	fw, err := mw.CreateFormFile("video", "kata.mp4")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	_, _ = fw.Write([]byte("fake-mp4-bytes"))
	_ = mw.Close()

	rec := serve(r, http.MethodPost, "/api/challenges/video", mw.FormDataContentType(), body.String())
	expectStatus(t, rec, http.StatusCreated)
	if uc.video.ChallengeKey != "kata_form" || uc.video.Filename != "kata.mp4" || uc.videoRaw != "fake-mp4-bytes" {
		t.Fatalf("unexpected video input %+v raw=%q", uc.video, uc.videoRaw)
	}

	var empty bytes.Buffer
	mw = multipart.NewWriter(&empty)
	_ = mw.WriteField("challenge_key", "kata_form")
	_ = mw.Close()
	rec = serve(r, http.MethodPost, "/api/challenges/video", mw.FormDataContentType(), empty.String())
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestVerifyRequiresDecision(t *testing.T) {
	uc := &fakeGamification{}
	r := newTestRouter(uc, &ctxutil.RequestData{UserID: uuid.New(), Role: ctxutil.RoleAdmin})
	id := uuid.New()

	rec := serve(r, http.MethodPost, "/api/submissions/"+id.String()+"/verify", "application/json", `{"notes":"x"}`)
	expectStatus(t, rec, http.StatusBadRequest)

	rec = serve(r, http.MethodPost, "/api/submissions/"+id.String()+"/verify", "application/json", `{"approve":false,"notes":"blurry"}`)
	expectStatus(t, rec, http.StatusOK)
	if uc.verify.SubmissionID != id || uc.verify.Approve || uc.verify.Notes != "blurry" {
		t.Fatalf("unexpected verify input %+v", uc.verify)
	}

	rec = serve(r, http.MethodPost, "/api/submissions/123/verify", "application/json", `{"approve":true}`)
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestDailyAnswerFallbackHasNoID(t *testing.T) {
	uc := &fakeGamification{}
	r := newTestRouter(uc, studentCaller())

	rec := serve(r, http.MethodPost, "/api/daily-challenge/answer", "application/json", `{"correct":true}`)
	expectStatus(t, rec, http.StatusOK)
	if uc.answer.ChallengeID != uuid.Nil || !uc.answer.ReportedCorrect {
		t.Fatalf("unexpected answer input %+v", uc.answer)
	}

	id := uuid.New()
	rec = serve(r, http.MethodPost, "/api/daily-challenge/answer", "application/json", `{"challenge_id":"`+id.String()+`","selected_option":2}`)
	expectStatus(t, rec, http.StatusOK)
	if uc.answer.ChallengeID != id || uc.answer.SelectedOption == nil || *uc.answer.SelectedOption != 2 {
		t.Fatalf("unexpected answer input %+v", uc.answer)
	}

	rec = serve(r, http.MethodGet, "/api/daily-challenge?cohort=yellow", "", "")
	expectStatus(t, rec, http.StatusOK)
	if uc.daily.Cohort != "yellow" {
		t.Fatalf("cohort not passed: %+v", uc.daily)
	}
}

func TestHabitAndFamilyRoutesPassKeys(t *testing.T) {
	uc := &fakeGamification{}
	r := newTestRouter(uc, studentCaller())

	expectStatus(t, serve(r, http.MethodPost, "/api/habits/make_bed/check-in", "", ""), http.StatusOK)
	if uc.habit.HabitKey != "make_bed" {
		t.Fatalf("habit key=%q", uc.habit.HabitKey)
	}

	expectStatus(t, serve(r, http.MethodPost, "/api/family-challenges/parent_sparring", "application/json", `{"outcome":"lost"}`), http.StatusOK)
	if uc.family.ChallengeKey != "parent_sparring" || uc.family.Outcome != "lost" {
		t.Fatalf("unexpected family input %+v", uc.family)
	}
	expectStatus(t, serve(r, http.MethodPost, "/api/family-challenges/parent_sparring", "application/json", `{}`), http.StatusBadRequest)
}

func TestPvpRoutes(t *testing.T) {
	uc := &fakeGamification{}
	r := newTestRouter(uc, studentCaller())
	opponent := uuid.New()

	rec := serve(r, http.MethodPost, "/api/pvp", "application/json", `{"opponent_id":"`+opponent.String()+`","challenge_key":"plank_hold"}`)
	expectStatus(t, rec, http.StatusCreated)
	if uc.create.OpponentID != opponent {
		t.Fatalf("opponent not passed: %+v", uc.create)
	}
	rec = serve(r, http.MethodPost, "/api/pvp", "application/json", `{"opponent_id":"bad","challenge_key":"plank_hold"}`)
	expectStatus(t, rec, http.StatusBadRequest)
	if code, _ := decodeError(t, rec); code != "invalid_opponent_id" {
		t.Fatalf("code=%s", code)
	}

	match := uuid.New()
	expectStatus(t, serve(r, http.MethodPost, "/api/pvp/"+match.String()+"/respond", "application/json", `{"accept":false}`), http.StatusOK)
	if uc.respond.MatchID != match || uc.respond.Accept {
		t.Fatalf("unexpected respond input %+v", uc.respond)
	}
	expectStatus(t, serve(r, http.MethodPost, "/api/pvp/"+match.String()+"/score", "application/json", `{"score":0}`), http.StatusOK)
	if uc.score.MatchID != match || uc.score.Score != 0 {
		t.Fatalf("unexpected score input %+v", uc.score)
	}
	expectStatus(t, serve(r, http.MethodPost, "/api/pvp/"+match.String()+"/score", "application/json", `{}`), http.StatusBadRequest)
}

func TestLeaderboardClubQuery(t *testing.T) {
	uc := &fakeGamification{}
	r := newTestRouter(uc, studentCaller())

	expectStatus(t, serve(r, http.MethodGet, "/api/leaderboard", "", ""), http.StatusOK)
	if uc.board.ClubID != uuid.Nil {
		t.Fatalf("expected default club, got %s", uc.board.ClubID)
	}
	club := uuid.New()
	expectStatus(t, serve(r, http.MethodGet, "/api/leaderboard?club_id="+club.String(), "", ""), http.StatusOK)
	if uc.board.ClubID != club {
		t.Fatalf("club not passed")
	}
	expectStatus(t, serve(r, http.MethodGet, "/api/leaderboard?club_id=x", "", ""), http.StatusBadRequest)
}

func TestHealthCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ok", NewHealthHandler().HealthCheck)
	r.GET("/deps", NewHealthHandler(
		HealthCheck{Name: "postgres", Check: func(ctx context.Context) error { return nil }},
		HealthCheck{Name: "redis", Check: func(ctx context.Context) error { return errors.New("down") }},
	).HealthCheck)

	expectStatus(t, serve(r, http.MethodGet, "/ok", "", ""), http.StatusOK)
	rec := serve(r, http.MethodGet, "/deps", "", "")
	expectStatus(t, rec, http.StatusServiceUnavailable)
	var body struct {
		Checks map[string]string `json:"checks"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Checks["postgres"] != "ok" || body.Checks["redis"] != "down" {
		t.Fatalf("unexpected checks %+v", body.Checks)
	}
}
