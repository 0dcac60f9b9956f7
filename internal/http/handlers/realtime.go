package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/dojoquest-backend/internal/platform/ctxutil"
	"github.com/yungbote/dojoquest-backend/internal/platform/logger"
	"github.com/yungbote/dojoquest-backend/internal/realtime"
)

type RealtimeHandler struct {
	log *logger.Logger
	hub *realtime.SSEHub
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.SSEHub) *RealtimeHandler {
	return &RealtimeHandler{log: log.With("handler", "RealtimeHandler"), hub: hub}
}

// GET /api/sse/stream
// Every caller gets their personal channel; coaches also get their club's
// review queue.
func (h *RealtimeHandler) SSEStream(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	client := h.hub.NewSSEClient(actor.ID)
	h.hub.AddChannel(client, realtime.StudentChannel(actor.ID))
	if actor.Role == ctxutil.RoleCoach && actor.ClubID != uuid.Nil {
		h.hub.AddChannel(client, realtime.CoachChannel(actor.ClubID))
	}
	h.log.Debug("SSE stream open", "user_id", actor.ID, "client_id", client.ID)

	h.hub.ServeHTTP(c.Writer, c.Request, client)
	h.hub.CloseClient(client)
}
