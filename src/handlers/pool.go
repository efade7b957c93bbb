// Package handlers implements the HTTP surface: request parsing,
// key-phrase extraction (delegated to middleware.KeyPhraseAuth),
// orchestration of the store adapters and broadcaster, and response
// shaping via the response envelope.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ilix/server/src/keyphrase"
	"github.com/ilix/server/src/middleware"
	"github.com/ilix/server/src/models"
	"github.com/ilix/server/src/response"
	"github.com/ilix/server/src/sse"
	"github.com/ilix/server/src/store"
	"github.com/sirupsen/logrus"
)

// PoolHandler groups the /pool endpoints.
type PoolHandler struct {
	pools       store.PoolStore
	broadcaster *sse.Broadcaster
	logger      *logrus.Logger
	salt        string
	hashRound   int
}

func NewPoolHandler(pools store.PoolStore, broadcaster *sse.Broadcaster, salt string, hashRound int, logger *logrus.Logger) *PoolHandler {
	return &PoolHandler{pools: pools, broadcaster: broadcaster, salt: salt, hashRound: hashRound, logger: logger}
}

// CreatePool handles POST /pool/new.
func (h *PoolHandler) CreatePool(c *gin.Context) {
	var req models.NewPoolRequest
	if err := c.ShouldBindJSON(&req); err != nil || !models.ValidNewPool(req) {
		response.FailWithReason(c, http.StatusBadRequest, "Empty Args")
		return
	}

	plaintext, err := h.pools.CreatePool(c.Request.Context(), store.NewPoolArgs{
		Name:       req.Name,
		DeviceID:   req.DeviceID,
		DeviceName: req.DeviceName,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, plaintext)
}

// GetPool handles GET /pool.
func (h *PoolHandler) GetPool(c *gin.Context) {
	kp := middleware.KeyPhrase(c)

	pool, err := h.pools.GetPool(c.Request.Context(), kp)
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, pool)
}

// JoinPool handles PUT /pool/join.
func (h *PoolHandler) JoinPool(c *gin.Context) {
	kp := middleware.KeyPhrase(c)

	var req models.JoinPoolRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.DeviceID == "" || req.DeviceName == "" {
		response.FailWithReason(c, http.StatusBadRequest, "Empty Args")
		return
	}

	pool, err := h.pools.JoinPool(c.Request.Context(), kp, req.DeviceID, req.DeviceName)
	if err != nil {
		response.Fail(c, err)
		return
	}

	h.publishPool(kp, pool)
	response.OK(c, pool)
}

// LeavePool handles DELETE /pool/leave.
func (h *PoolHandler) LeavePool(c *gin.Context) {
	kp := middleware.KeyPhrase(c)

	var req models.LeavePoolRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.DeviceID == "" {
		response.FailWithReason(c, http.StatusBadRequest, "Empty Args")
		return
	}

	pool, err := h.pools.LeavePool(c.Request.Context(), kp, req.DeviceID)
	if err != nil {
		response.Fail(c, err)
		return
	}

	h.publishPool(kp, pool)
	response.OK(c, pool)
}

// DeletePool handles DELETE /pool/{key_phrase}. The key phrase travels in
// the path here (not the Authorization header) since this call destroys
// a pool identified directly by it - there is still no other credential.
func (h *PoolHandler) DeletePool(c *gin.Context) {
	kp, err := keyphrase.Parse(c.Param("key_phrase"))
	if err != nil {
		response.Fail(c, err)
		return
	}

	preImage, err := h.pools.GetPool(c.Request.Context(), string(kp))
	if err != nil {
		response.Fail(c, err)
		return
	}

	hashedKP, hashErr := kp.Hash(h.salt, h.hashRound)
	if hashErr == nil {
		if err := h.broadcaster.BroadcastTo(preImage.DevicesID, hashedKP, sse.KindLogout, nil); err != nil {
			h.logger.WithError(err).Warn("failed to broadcast logout event")
		}
	}

	if _, err := h.pools.DeletePool(c.Request.Context(), string(kp)); err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, nil)
}

// publishPool fans out a Pool SSE event to every current member. Failures
// are logged and swallowed - the pool mutation has already committed.
func (h *PoolHandler) publishPool(kp string, pool models.Pool) {
	hashed, err := keyphrase.KeyPhrase(kp).Hash(h.salt, h.hashRound)
	if err != nil {
		h.logger.WithError(err).Warn("failed to hash key phrase for sse broadcast")
		return
	}
	if err := h.broadcaster.BroadcastTo(pool.DevicesID, hashed, sse.KindPool, pool); err != nil {
		h.logger.WithError(err).Warn("failed to broadcast pool event")
	}
}
