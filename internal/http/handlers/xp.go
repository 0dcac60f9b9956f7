package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/dojoquest-backend/internal/http/response"
	"github.com/yungbote/dojoquest-backend/internal/modules/gamification"
	"github.com/yungbote/dojoquest-backend/internal/platform/logger"
)

type XPHandler struct {
	log *logger.Logger
	uc  Gamification
}

func NewXPHandler(log *logger.Logger, uc Gamification) *XPHandler {
	return &XPHandler{log: log.With("handler", "XPHandler"), uc: uc}
}

type awardXPRequest struct {
	StudentID string `json:"student_id" binding:"required"`
	Amount    int64  `json:"amount" binding:"required"`
	Reason    string `json:"reason"`
}

// POST /api/xp/award
func (h *XPHandler) AwardXP(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req awardXPRequest
	if !bindJSON(c, &req) {
		return
	}
	studentID, ok := parseUUID(c, req.StudentID, "invalid_student_id", false)
	if !ok {
		return
	}
	out, err := h.uc.AwardXP(c.Request.Context(), gamification.AwardXPInput{
		Actor:     actor,
		StudentID: studentID,
		Amount:    req.Amount,
		Reason:    req.Reason,
	})
	if err != nil {
		response.RespondAPIError(c, err, "award_xp_failed")
		return
	}
	response.RespondOK(c, out)
}

type spendXPRequest struct {
	Amount int64  `json:"amount" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

// POST /api/xp/spend
func (h *XPHandler) SpendXP(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req spendXPRequest
	if !bindJSON(c, &req) {
		return
	}
	out, err := h.uc.SpendXP(c.Request.Context(), gamification.SpendXPInput{Actor: actor, Amount: req.Amount, Reason: req.Reason})
	if err != nil {
		response.RespondAPIError(c, err, "spend_xp_failed")
		return
	}
	response.RespondOK(c, out)
}

// GET /api/xp/balance
func (h *XPHandler) GetBalance(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	out, err := h.uc.GetBalance(c.Request.Context(), gamification.BalanceInput{Actor: actor})
	if err != nil {
		response.RespondAPIError(c, err, "get_balance_failed")
		return
	}
	response.RespondOK(c, out)
}

// GET /api/students/:id/balance
func (h *XPHandler) GetStudentBalance(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	studentID, ok := parseUUID(c, c.Param("id"), "invalid_student_id", false)
	if !ok {
		return
	}
	out, err := h.uc.GetBalance(c.Request.Context(), gamification.BalanceInput{Actor: actor, StudentID: studentID})
	if err != nil {
		response.RespondAPIError(c, err, "get_balance_failed")
		return
	}
	response.RespondOK(c, out)
}

// GET /api/xp/transactions?limit=
func (h *XPHandler) ListTransactions(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	rows, err := h.uc.ListTransactions(c.Request.Context(), actor, limit)
	if err != nil {
		response.RespondAPIError(c, err, "list_transactions_failed")
		return
	}
	response.RespondOK(c, gin.H{"transactions": rows})
}
