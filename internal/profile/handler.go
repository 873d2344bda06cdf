// File: internal/profile/handler.go
package profile

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"shareaplate_backend/internal/common"
)

// Handler struct holds dependencies for profile handlers.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new profile handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes sets up the routes for profile operations.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc) {
	group := router.Group("/profiles")
	group.Use(authMW)
	{
		group.GET("/me", h.getMe)
		group.PUT("/me", h.updateMe)
		group.GET("/recipients", h.listRecipients)
	}
}

func (h *Handler) getMe(c *gin.Context) {
	userID := common.GetUserIDFromContext(c)
	if userID == uuid.Nil {
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("User identifier missing."))
		return
	}
	p, err := h.service.GetProfile(c.Request.Context(), userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Profile retrieved successfully.", ToProfileResponse(p))
}

func (h *Handler) updateMe(c *gin.Context) {
	userID := common.GetUserIDFromContext(c)
	if userID == uuid.Nil {
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("User identifier missing."))
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Update profile: invalid request body", zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	p, err := h.service.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Profile updated successfully.", ToProfileResponse(p))
}

func (h *Handler) listRecipients(c *gin.Context) {
	profiles, err := h.service.ListRecipients(c.Request.Context(), c.Query("location"))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	out := make([]RecipientResponse, len(profiles))
	for i := range profiles {
		out[i] = ToRecipientResponse(&profiles[i])
	}
	common.RespondOK(c, "Recipients retrieved successfully.", out)
}
