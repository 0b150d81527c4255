package handlers

import (
	"encoding/json"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/veltahq/backoffice-backend/internal/platform/logger"
	"github.com/veltahq/backoffice-backend/internal/platform/requestdata"
	"github.com/veltahq/backoffice-backend/internal/realtime"
)

type SSEHandler struct {
	log *logger.Logger
	hub *realtime.Hub
}

func NewSSEHandler(log *logger.Logger, hub *realtime.Hub) *SSEHandler {
	return &SSEHandler{
		log: log.With("handler", "SSEHandler"),
		hub: hub,
	}
}

// Stream pushes presence changes for the caller's workspace as server-sent
// events until the client goes away.
func (h *SSEHandler) Stream(c *gin.Context) {
	rd := requestdata.Get(c.Request.Context())
	client := h.hub.Subscribe(rd.UserID, rd.WorkspaceID)
	defer h.hub.Unsubscribe(client)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case <-client.Done():
			return false
		case msg := <-client.Outbound:
			raw, err := json.Marshal(msg)
			if err != nil {
				h.log.Warn("presence message marshal failed", "error", err)
				return true
			}
			c.SSEvent(string(msg.Event), string(raw))
			return true
		}
	})
}
