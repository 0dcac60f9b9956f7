package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/dojoquest-backend/internal/http/response"
	"github.com/yungbote/dojoquest-backend/internal/modules/gamification"
	"github.com/yungbote/dojoquest-backend/internal/platform/logger"
)

// HabitHandler serves the habit tracker and family challenges.
type HabitHandler struct {
	log *logger.Logger
	uc  Gamification
}

func NewHabitHandler(log *logger.Logger, uc Gamification) *HabitHandler {
	return &HabitHandler{log: log.With("handler", "HabitHandler"), uc: uc}
}

// POST /api/habits/:key/check-in
func (h *HabitHandler) CheckIn(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	out, err := h.uc.CheckInHabit(c.Request.Context(), gamification.HabitCheckInInput{Actor: actor, HabitKey: c.Param("key")})
	if err != nil {
		response.RespondAPIError(c, err, "check_in_habit_failed")
		return
	}
	response.RespondOK(c, out)
}

// GET /api/habits/status
func (h *HabitHandler) Status(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	out, err := h.uc.GetHabitStatus(c.Request.Context(), actor)
	if err != nil {
		response.RespondAPIError(c, err, "get_habit_status_failed")
		return
	}
	response.RespondOK(c, out)
}

type familyChallengeRequest struct {
	Outcome string `json:"outcome" binding:"required"`
}

// POST /api/family-challenges/:key
func (h *HabitHandler) SubmitFamily(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req familyChallengeRequest
	if !bindJSON(c, &req) {
		return
	}
	out, err := h.uc.SubmitFamilyChallenge(c.Request.Context(), gamification.FamilyChallengeInput{
		Actor:        actor,
		ChallengeKey: c.Param("key"),
		Outcome:      req.Outcome,
	})
	if err != nil {
		response.RespondAPIError(c, err, "submit_family_challenge_failed")
		return
	}
	response.RespondOK(c, out)
}
