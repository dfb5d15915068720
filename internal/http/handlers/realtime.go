package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/chadayu1004/smart-apartment-ai/internal/http/response"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/logger"
	"github.com/chadayu1004/smart-apartment-ai/internal/realtime"
	"github.com/chadayu1004/smart-apartment-ai/internal/services"
)

type RealtimeHandler struct {
	Log *logger.Logger
	Hub *realtime.SSEHub
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.SSEHub) *RealtimeHandler {
	return &RealtimeHandler{Log: log.With("handler", "RealtimeHandler"), Hub: hub}
}

// GET /api/sse/stream
// Every stream of a user listens on that user's channel.
func (h *RealtimeHandler) SSEStream(c *gin.Context) {
	id, err := services.IdentityFromContext(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	client := h.Hub.NewSSEClient(id.UserID)
	h.Hub.AddChannel(client, realtime.UserChannel(id.UserID))
	h.Log.Debug("SSE stream open", "user_id", id.UserID, "client_id", client.ID)

	h.Hub.ServeHTTP(c.Writer, c.Request, client)

	h.Hub.CloseClient(client)
	h.Log.Debug("SSE stream closed", "user_id", id.UserID, "client_id", client.ID)
}
