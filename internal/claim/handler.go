// File: internal/claim/handler.go
package claim

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shareaplate_backend/internal/common"
)

// Handler handles HTTP requests for claims.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new claim handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes sets up the routes for claim operations.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW, donorMW, recipientMW gin.HandlerFunc) {
	claims := router.Group("/claims")
	claims.Use(authMW)
	{
		claims.POST("", recipientMW, h.createClaim)
		claims.GET("/mine", recipientMW, h.listMine)
		claims.GET("/donor", donorMW, h.listForDonor)
		claims.GET("/listing/:listingId", donorMW, h.listForListing)
		claims.GET("/:id", h.getClaim)

		claims.PATCH("/:id/approve", donorMW, h.transition(ActionApprove))
		claims.PATCH("/:id/reject", donorMW, h.transition(ActionReject))
		claims.PATCH("/:id/complete", donorMW, h.transition(ActionComplete))
		claims.PATCH("/:id/cancel", recipientMW, h.transition(ActionCancel))
	}
}

func (h *Handler) createClaim(c *gin.Context) {
	var req CreateClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Create claim: invalid request body", zap.Error(err))
		common.RespondWithError(c, common.NewBindingError(err))
		return
	}
	claim, err := h.service.CreateClaim(c.Request.Context(), common.GetUserIDFromContext(c), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Claim created successfully.", claim)
}

func (h *Handler) transition(action Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		claimID, err := common.ParseUUIDParam(c, "id")
		if err != nil {
			common.RespondWithError(c, err)
			return
		}
		actorID := common.GetUserIDFromContext(c)
		ctx := c.Request.Context()

		var claim *Claim
		switch action {
		case ActionApprove:
			claim, err = h.service.ApproveClaim(ctx, claimID, actorID)
		case ActionReject:
			claim, err = h.service.RejectClaim(ctx, claimID, actorID)
		case ActionComplete:
			claim, err = h.service.CompleteClaim(ctx, claimID, actorID)
		case ActionCancel:
			claim, err = h.service.CancelClaim(ctx, claimID, actorID)
		}
		if err != nil {
			common.RespondWithError(c, err)
			return
		}
		common.RespondOK(c, "Claim updated successfully.", claim)
	}
}

func (h *Handler) getClaim(c *gin.Context) {
	claimID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	claim, err := h.service.GetClaim(c.Request.Context(), claimID, common.GetUserIDFromContext(c))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Claim retrieved successfully.", claim)
}

func paginationQuery(c *gin.Context) common.PaginationQuery {
	page, pageSize := common.GetPaginationParams(c)
	return common.PaginationQuery{Page: page, PageSize: pageSize}
}

func nonNil(claims []Claim) []Claim {
	if claims == nil {
		return []Claim{}
	}
	return claims
}

func (h *Handler) listMine(c *gin.Context) {
	claims, pagination, err := h.service.ListForRecipient(c.Request.Context(), common.GetUserIDFromContext(c), paginationQuery(c))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Claims retrieved successfully.", nonNil(claims), pagination)
}

func (h *Handler) listForDonor(c *gin.Context) {
	claims, pagination, err := h.service.ListForDonor(c.Request.Context(), common.GetUserIDFromContext(c), paginationQuery(c))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Claims retrieved successfully.", nonNil(claims), pagination)
}

func (h *Handler) listForListing(c *gin.Context) {
	listingID, err := common.ParseUUIDParam(c, "listingId")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	claims, err := h.service.ListForListing(c.Request.Context(), listingID, common.GetUserIDFromContext(c))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Claims retrieved successfully.", nonNil(claims))
}
