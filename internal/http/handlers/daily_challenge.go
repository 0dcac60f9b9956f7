package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/dojoquest-backend/internal/http/response"
	"github.com/yungbote/dojoquest-backend/internal/modules/gamification"
	"github.com/yungbote/dojoquest-backend/internal/platform/logger"
)

type DailyChallengeHandler struct {
	log *logger.Logger
	uc  Gamification
}

func NewDailyChallengeHandler(log *logger.Logger, uc Gamification) *DailyChallengeHandler {
	return &DailyChallengeHandler{log: log.With("handler", "DailyChallengeHandler"), uc: uc}
}

// GET /api/daily-challenge?cohort=
func (h *DailyChallengeHandler) GetToday(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	out, err := h.uc.GetTodaysDailyChallenge(c.Request.Context(), gamification.DailyChallengeInput{
		Actor:  actor,
		Cohort: c.Query("cohort"),
	})
	if err != nil {
		response.RespondAPIError(c, err, "get_daily_challenge_failed")
		return
	}
	response.RespondOK(c, out)
}

type dailyAnswerRequest struct {
	// Empty for the fallback challenge.
	ChallengeID     string `json:"challenge_id"`
	SelectedOption  *int   `json:"selected_option"`
	ReportedCorrect bool   `json:"correct"`
}

// POST /api/daily-challenge/answer
func (h *DailyChallengeHandler) SubmitAnswer(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req dailyAnswerRequest
	if !bindJSON(c, &req) {
		return
	}
	challengeID, ok := parseUUID(c, req.ChallengeID, "invalid_challenge_id", true)
	if !ok {
		return
	}
	out, err := h.uc.SubmitDailyChallengeAnswer(c.Request.Context(), gamification.DailyAnswerInput{
		Actor:           actor,
		ChallengeID:     challengeID,
		SelectedOption:  req.SelectedOption,
		ReportedCorrect: req.ReportedCorrect,
	})
	if err != nil {
		response.RespondAPIError(c, err, "submit_daily_answer_failed")
		return
	}
	response.RespondOK(c, out)
}
