package notification

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"shareaplate_backend/internal/common"
)

// Handler serves the caller's in-app notifications.
type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger.Named("notification_handler")}
}

// RegisterRoutes mounts /notifications; every route needs authMW.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc) {
	group := router.Group("/notifications", authMW)
	group.GET("", h.withUser(h.list))
	group.GET("/unread-count", h.withUser(h.unreadCount))
	group.POST("/:notification_id/mark-read", h.withUser(h.markRead))
	group.POST("/mark-all-read", h.withUser(h.markAllRead))
}

// withUser rejects requests that reached the handler without a profile id.
func (h *Handler) withUser(next func(*gin.Context, uuid.UUID)) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := common.GetUserIDFromContext(c)
		if userID == uuid.Nil {
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("User ID not found in token."))
			return
		}
		next(c, userID)
	}
}

func (h *Handler) list(c *gin.Context, userID uuid.UUID) {
	page, pageSize := common.GetPaginationParams(c)
	notifications, pagination, err := h.service.GetNotificationsForUser(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	if notifications == nil {
		notifications = []Notification{}
	}
	common.RespondPaginated(c, "Notifications retrieved successfully.", notifications, pagination)
}

func (h *Handler) unreadCount(c *gin.Context, userID uuid.UUID) {
	count, err := h.service.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Unread notification count retrieved successfully.", gin.H{"unread_count": count})
}

func (h *Handler) markRead(c *gin.Context, userID uuid.UUID) {
	notificationID, err := common.ParseUUIDParam(c, "notification_id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	if err := h.service.MarkNotificationAsRead(c.Request.Context(), notificationID, userID); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Notification marked as read successfully.", nil)
}

func (h *Handler) markAllRead(c *gin.Context, userID uuid.UUID) {
	count, err := h.service.MarkAllUserNotificationsAsRead(c.Request.Context(), userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "All notifications marked as read successfully.", gin.H{"updated": count})
}
