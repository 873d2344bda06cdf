// File: internal/goal/handler.go
package goal

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"shareaplate_backend/internal/common"
)

// Handler handles HTTP requests for goals.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new goal handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes sets up the routes for goal operations. The :id segment is a
// user id (or "me") on reads and a goal id on writes.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc) {
	goals := router.Group("/goals")
	goals.Use(authMW)
	{
		goals.POST("", h.createGoal)
		goals.GET("/:id", h.listGoals)
		goals.GET("/:id/progress", h.progress)
		goals.PUT("/:id", h.updateGoal)
		goals.DELETE("/:id", h.deleteGoal)
	}
}

// targetUser resolves the user a read is for; only the user or an admin may read.
func targetUser(c *gin.Context) (uuid.UUID, error) {
	callerID := common.GetUserIDFromContext(c)
	if c.Param("id") == "me" {
		return callerID, nil
	}
	userID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		return uuid.Nil, err
	}
	if userID != callerID && common.GetUserRoleFromContext(c) != common.RoleAdmin {
		return uuid.Nil, common.ErrForbidden.WithDetails("You can only view your own goals.")
	}
	return userID, nil
}

func (h *Handler) listGoals(c *gin.Context) {
	userID, err := targetUser(c)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	goals, err := h.service.ListGoals(c.Request.Context(), userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	if goals == nil {
		goals = []Goal{}
	}
	common.RespondOK(c, "Goals retrieved successfully.", goals)
}

func (h *Handler) progress(c *gin.Context) {
	userID, err := targetUser(c)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	progress, err := h.service.ComputeProgress(c.Request.Context(), userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Goal progress calculated successfully.", progress)
}

func (h *Handler) createGoal(c *gin.Context) {
	var req CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Create goal: invalid request body", zap.Error(err))
		common.RespondWithError(c, common.NewBindingError(err))
		return
	}
	g, err := h.service.CreateGoal(c.Request.Context(), common.GetUserIDFromContext(c), common.GetUserRoleFromContext(c), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Goal created successfully.", g)
}

func (h *Handler) updateGoal(c *gin.Context) {
	goalID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	var req UpdateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.NewBindingError(err))
		return
	}
	g, err := h.service.UpdateGoal(c.Request.Context(), goalID, common.GetUserIDFromContext(c), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Goal updated successfully.", g)
}

func (h *Handler) deleteGoal(c *gin.Context) {
	goalID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	if err := h.service.DeleteGoal(c.Request.Context(), goalID, common.GetUserIDFromContext(c)); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondNoContent(c)
}
