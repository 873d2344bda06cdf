package outcome

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shareaplate_backend/internal/common"
)

// Handler exposes outcome recording and metrics.
type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc) {
	group := router.Group("/outcomes")
	group.Use(authMW)
	{
		group.POST("/claim", h.recordClaim)
		group.POST("/expire", h.recordExpiration)
		group.GET("/metrics", h.metrics)
	}
}

func (h *Handler) recordClaim(c *gin.Context) {
	var req RecordClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.NewBindingError(err))
		return
	}
	o, err := h.service.RecordClaim(c.Request.Context(), req.FoodListingID, req.ClaimTime)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Claim outcome recorded.", o)
}

func (h *Handler) recordExpiration(c *gin.Context) {
	var req RecordExpirationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.NewBindingError(err))
		return
	}
	o, err := h.service.RecordExpiration(c.Request.Context(), req.FoodListingID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Expiration outcome recorded.", o)
}

func (h *Handler) metrics(c *gin.Context) {
	var q MetricsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		common.RespondWithError(c, common.NewBindingError(err))
		return
	}
	m, err := h.service.Metrics(c.Request.Context(), q.Timeframe)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Outcome metrics retrieved successfully.", m)
}
