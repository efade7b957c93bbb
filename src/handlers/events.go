package handlers

import (
	"io"

	"github.com/gin-gonic/gin"
	"github.com/ilix/server/src/keyphrase"
	"github.com/ilix/server/src/middleware"
	"github.com/ilix/server/src/response"
	"github.com/ilix/server/src/sse"
	"github.com/ilix/server/src/store"
	"github.com/sirupsen/logrus"
)

// EventsHandler serves GET /events.
type EventsHandler struct {
	pools       store.PoolStore
	broadcaster *sse.Broadcaster
	salt        string
	hashRound   int
	logger      *logrus.Logger
}

func NewEventsHandler(pools store.PoolStore, broadcaster *sse.Broadcaster, salt string, hashRound int, logger *logrus.Logger) *EventsHandler {
	return &EventsHandler{pools: pools, broadcaster: broadcaster, salt: salt, hashRound: hashRound, logger: logger}
}

// Subscribe handles GET /events?device_id=..., validating that the
// authenticated pool exists before opening the stream.
func (h *EventsHandler) Subscribe(c *gin.Context) {
	kp := middleware.KeyPhrase(c)
	deviceID := c.Query("device_id")

	if _, err := h.pools.GetPool(c.Request.Context(), kp); err != nil {
		response.Fail(c, err)
		return
	}

	hashed, err := keyphrase.KeyPhrase(kp).Hash(h.salt, h.hashRound)
	if err != nil {
		response.Fail(c, err)
		return
	}

	ch := h.broadcaster.NewClient(deviceID, hashed)
	defer h.broadcaster.Remove(deviceID, hashed)

	c.Stream(func(w io.Writer) bool {
		msg, ok := <-ch
		if !ok {
			return false
		}
		writeEvent(c, msg)
		return true
	})
}

// writeEvent renders one sse.Message onto the response stream. KindPing
// is written as a bare SSE comment line (": ping\n\n"), never as a
// dispatched event - a client's onmessage must never fire for a
// liveness probe.
func writeEvent(c *gin.Context, msg sse.Message) {
	switch msg.Kind {
	case sse.KindPing:
		c.Writer.WriteString(": ping\n\n")
	case sse.KindConnected:
		c.SSEvent("connected", "client connected")
	case sse.KindPool:
		c.SSEvent("pool", msg.Data)
	case sse.KindTransfer:
		c.SSEvent("transfer", msg.Data)
	case sse.KindLogout:
		c.SSEvent("logout", "")
	}
}
