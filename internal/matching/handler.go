// File: internal/matching/handler.go
package matching

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shareaplate_backend/internal/common"
)

// Handler exposes the matching pipeline over HTTP.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new matching handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes sets up the routes for matching operations.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW, donorMW gin.HandlerFunc) {
	match := router.Group("/match")
	match.Use(authMW)
	{
		match.POST("/recommend", h.recommend)
		match.POST("/outcome", h.outcome)
		match.POST("/listings/:id", donorMW, h.matchListing)
	}
}

func (h *Handler) recommend(c *gin.Context) {
	var req MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Match recommend: invalid request body", zap.Error(err))
		common.RespondWithError(c, common.NewBindingError(err))
		return
	}
	result, err := h.service.MatchFood(c.Request.Context(), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, result.Message, result)
}

func (h *Handler) matchListing(c *gin.Context) {
	listingID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	result, err := h.service.MatchListing(c.Request.Context(), listingID,
		common.GetUserIDFromContext(c), common.GetUserRoleFromContext(c))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, result.Message, result)
}

func (h *Handler) outcome(c *gin.Context) {
	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.NewBindingError(err))
		return
	}
	if err := h.service.LogMatchOutcome(c.Request.Context(), common.GetUserIDFromContext(c), req); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Match outcome recorded.", gin.H{"success": true})
}
