package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/dojoquest-backend/internal/http/response"
	"github.com/yungbote/dojoquest-backend/internal/modules/gamification"
	"github.com/yungbote/dojoquest-backend/internal/platform/logger"
)

type ChallengeHandler struct {
	log            *logger.Logger
	uc             Gamification
	maxUploadBytes int64
}

func NewChallengeHandler(log *logger.Logger, uc Gamification, maxUploadBytes int64) *ChallengeHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 200 << 20
	}
	return &ChallengeHandler{log: log.With("handler", "ChallengeHandler"), uc: uc, maxUploadBytes: maxUploadBytes}
}

// GET /api/catalog
func (h *ChallengeHandler) GetCatalog(c *gin.Context) {
	response.RespondOK(c, h.uc.Catalog())
}

type trustChallengeRequest struct {
	ChallengeKey string `json:"challenge_key" binding:"required"`
	Score        *int   `json:"score"`
}

// POST /api/challenges/trust
func (h *ChallengeHandler) SubmitTrust(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req trustChallengeRequest
	if !bindJSON(c, &req) {
		return
	}
	out, err := h.uc.SubmitTrustChallenge(c.Request.Context(), gamification.TrustChallengeInput{
		Actor:        actor,
		ChallengeKey: req.ChallengeKey,
		Score:        req.Score,
	})
	if err != nil {
		response.RespondAPIError(c, err, "submit_trust_challenge_failed")
		return
	}
	response.RespondCreated(c, out)
}

// POST /api/challenges/video (multipart: challenge_key, video)
func (h *ChallengeHandler) SubmitVideo(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	key := c.PostForm("challenge_key")
	if key == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_challenge_key", nil)
		return
	}
	fh, err := c.FormFile("video")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "missing_video", err)
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "unreadable_video", err)
		return
	}
	defer f.Close()

	out, err := h.uc.SubmitVideoChallenge(c.Request.Context(), gamification.VideoChallengeInput{
		Actor:        actor,
		ChallengeKey: key,
		Filename:     fh.Filename,
		Body:         f,
	})
	if err != nil {
		response.RespondAPIError(c, err, "submit_video_challenge_failed")
		return
	}
	h.log.Info("Video proof received", "challenge_key", key, "size", fh.Size)
	response.RespondCreated(c, out)
}

type verifyRequest struct {
	Approve *bool  `json:"approve" binding:"required"`
	Notes   string `json:"notes"`
}

// POST /api/submissions/:id/verify
func (h *ChallengeHandler) Verify(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, c.Param("id"), "invalid_submission_id", false)
	if !ok {
		return
	}
	var req verifyRequest
	if !bindJSON(c, &req) {
		return
	}
	out, err := h.uc.VerifySubmission(c.Request.Context(), gamification.VerifyInput{
		Actor:        actor,
		SubmissionID: id,
		Approve:      *req.Approve,
		Notes:        req.Notes,
	})
	if err != nil {
		response.RespondAPIError(c, err, "verify_submission_failed")
		return
	}
	response.RespondOK(c, out)
}

// GET /api/submissions/pending?club_id=
func (h *ChallengeHandler) ListPending(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	clubID, ok := parseUUID(c, c.Query("club_id"), "invalid_club_id", true)
	if !ok {
		return
	}
	rows, err := h.uc.ListPendingVideoSubmissions(c.Request.Context(), gamification.PendingInput{Actor: actor, ClubID: clubID})
	if err != nil {
		response.RespondAPIError(c, err, "list_pending_failed")
		return
	}
	response.RespondOK(c, gin.H{"submissions": rows})
}
