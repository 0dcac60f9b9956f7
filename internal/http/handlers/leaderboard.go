package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/dojoquest-backend/internal/http/response"
	"github.com/yungbote/dojoquest-backend/internal/modules/gamification"
	"github.com/yungbote/dojoquest-backend/internal/platform/logger"
)

type LeaderboardHandler struct {
	log *logger.Logger
	uc  Gamification
}

func NewLeaderboardHandler(log *logger.Logger, uc Gamification) *LeaderboardHandler {
	return &LeaderboardHandler{log: log.With("handler", "LeaderboardHandler"), uc: uc}
}

// GET /api/leaderboard?club_id=
func (h *LeaderboardHandler) Get(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	clubID, ok := parseUUID(c, c.Query("club_id"), "invalid_club_id", true)
	if !ok {
		return
	}
	out, err := h.uc.GetLeaderboard(c.Request.Context(), gamification.LeaderboardInput{Actor: actor, ClubID: clubID})
	if err != nil {
		response.RespondAPIError(c, err, "get_leaderboard_failed")
		return
	}
	response.RespondOK(c, out)
}
