// File: internal/coach/handler.go
package coach

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shareaplate_backend/internal/common"
)

// Handler serves coaching messages. It owns the message cache.
type Handler struct {
	service Service
	cache   *MessageCache
	logger  *zap.Logger
}

// NewHandler creates a new coach handler.
func NewHandler(service Service, cache *MessageCache, logger *zap.Logger) *Handler {
	return &Handler{service: service, cache: cache, logger: logger}
}

// RegisterRoutes sets up the routes for coaching.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc) {
	coach := router.Group("/coach")
	coach.Use(authMW)
	{
		coach.GET("/message", h.getMessage)
		coach.POST("/message", h.postMessage)
	}
}

// getMessage answers from the cache, generating from stored stats on a miss.
// ?refresh=true discards the cached entry first.
func (h *Handler) getMessage(c *gin.Context) {
	userID := common.GetUserIDFromContext(c)
	role := common.GetUserRoleFromContext(c)
	key := Key(userID.String(), role)

	if refresh, _ := strconv.ParseBool(c.Query("refresh")); refresh {
		h.cache.Invalidate(key)
	}

	msg, err := h.cache.GetOrGenerate(c.Request.Context(), key, func(ctx context.Context) (string, error) {
		req, err := h.service.StatsFor(ctx, userID, role)
		if err != nil {
			return "", err
		}
		return h.service.GenerateMessage(ctx, req)
	})
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Coach message generated.", msg)
}

// postMessage generates from the stats in the body and refreshes the cache.
func (h *Handler) postMessage(c *gin.Context) {
	var req CoachRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Coach message: invalid request body", zap.Error(err))
		common.RespondWithError(c, common.NewBindingError(err))
		return
	}
	key := Key(common.GetUserIDFromContext(c).String(), req.Role)
	h.cache.Invalidate(key)

	msg, err := h.cache.GetOrGenerate(c.Request.Context(), key, func(ctx context.Context) (string, error) {
		return h.service.GenerateMessage(ctx, req)
	})
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Coach message generated.", msg)
}
