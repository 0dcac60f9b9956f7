package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/dojoquest-backend/internal/http/response"
	"github.com/yungbote/dojoquest-backend/internal/modules/gamification"
	"github.com/yungbote/dojoquest-backend/internal/platform/logger"
)

type PvpHandler struct {
	log *logger.Logger
	uc  Gamification
}

func NewPvpHandler(log *logger.Logger, uc Gamification) *PvpHandler {
	return &PvpHandler{log: log.With("handler", "PvpHandler"), uc: uc}
}

type createPvpRequest struct {
	OpponentID   string `json:"opponent_id" binding:"required"`
	ChallengeKey string `json:"challenge_key" binding:"required"`
}

// POST /api/pvp
func (h *PvpHandler) Create(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req createPvpRequest
	if !bindJSON(c, &req) {
		return
	}
	opponentID, ok := parseUUID(c, req.OpponentID, "invalid_opponent_id", false)
	if !ok {
		return
	}
	match, err := h.uc.CreatePvpChallenge(c.Request.Context(), gamification.CreatePvpInput{
		Actor:        actor,
		OpponentID:   opponentID,
		ChallengeKey: req.ChallengeKey,
	})
	if err != nil {
		response.RespondAPIError(c, err, "create_pvp_failed")
		return
	}
	response.RespondCreated(c, gin.H{"match": match})
}

// GET /api/pvp
func (h *PvpHandler) List(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	matches, err := h.uc.ListPvpMatches(c.Request.Context(), actor)
	if err != nil {
		response.RespondAPIError(c, err, "list_pvp_failed")
		return
	}
	response.RespondOK(c, gin.H{"matches": matches})
}

type respondPvpRequest struct {
	Accept *bool `json:"accept" binding:"required"`
}

// POST /api/pvp/:id/respond
func (h *PvpHandler) Respond(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	matchID, ok := parseUUID(c, c.Param("id"), "invalid_match_id", false)
	if !ok {
		return
	}
	var req respondPvpRequest
	if !bindJSON(c, &req) {
		return
	}
	match, err := h.uc.RespondToPvpChallenge(c.Request.Context(), gamification.RespondPvpInput{
		Actor:   actor,
		MatchID: matchID,
		Accept:  *req.Accept,
	})
	if err != nil {
		response.RespondAPIError(c, err, "respond_pvp_failed")
		return
	}
	response.RespondOK(c, gin.H{"match": match})
}

type pvpScoreRequest struct {
	Score *int `json:"score" binding:"required"`
}

// POST /api/pvp/:id/score
func (h *PvpHandler) SubmitScore(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	matchID, ok := parseUUID(c, c.Param("id"), "invalid_match_id", false)
	if !ok {
		return
	}
	var req pvpScoreRequest
	if !bindJSON(c, &req) {
		return
	}
	out, err := h.uc.SubmitPvpScore(c.Request.Context(), gamification.PvpScoreInput{
		Actor:   actor,
		MatchID: matchID,
		Score:   *req.Score,
	})
	if err != nil {
		response.RespondAPIError(c, err, "submit_pvp_score_failed")
		return
	}
	response.RespondOK(c, out)
}
