package notification

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shareaplate_backend/internal/common"
)

// Service defines in-app notification operations.
type Service interface {
	CreateNotification(ctx context.Context, in CreateInput) (*Notification, error)
	CreateBatch(ctx context.Context, inputs []CreateInput) ([]Notification, error)
	GetNotificationsForUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]Notification, *common.Pagination, error)
	MarkNotificationAsRead(ctx context.Context, notificationID uuid.UUID, userID uuid.UUID) error
	MarkAllUserNotificationsAsRead(ctx context.Context, userID uuid.UUID) (int64, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

// ServiceImplementation implements Service on top of a Repository.
type ServiceImplementation struct {
	repo   Repository
	logger *zap.Logger
}

// NewService creates a new notification service.
func NewService(repo Repository, logger *zap.Logger) Service {
	return &ServiceImplementation{repo: repo, logger: logger.Named("notification_service")}
}

// passThrough keeps API errors from the repository and hides everything else
// behind an internal error with the given detail.
func (s *ServiceImplementation) passThrough(err error, detail string) error {
	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return common.ErrInternalServer.WithDetails(detail)
}

func (s *ServiceImplementation) CreateNotification(ctx context.Context, in CreateInput) (*Notification, error) {
	n := in.toModel()
	if err := s.repo.Create(ctx, n); err != nil {
		s.logger.Error("Failed to create notification",
			zap.String("recipientID", in.RecipientID.String()),
			zap.String("type", string(in.Type)),
			zap.Error(err),
		)
		return nil, s.passThrough(err, "Could not create notification.")
	}
	return n, nil
}

func (s *ServiceImplementation) CreateBatch(ctx context.Context, inputs []CreateInput) ([]Notification, error) {
	rows := make([]Notification, 0, len(inputs))
	for _, in := range inputs {
		rows = append(rows, *in.toModel())
	}
	if err := s.repo.CreateBatch(ctx, rows); err != nil {
		s.logger.Error("Failed to create notification batch", zap.Int("count", len(rows)), zap.Error(err))
		return nil, s.passThrough(err, "Could not create notifications.")
	}
	return rows, nil
}

func (s *ServiceImplementation) GetNotificationsForUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]Notification, *common.Pagination, error) {
	notifications, pagination, err := s.repo.GetByRecipientID(ctx, userID, page, pageSize)
	if err != nil {
		s.logger.Error("Failed to fetch notifications", zap.String("userID", userID.String()), zap.Error(err))
		return nil, nil, s.passThrough(err, "Could not retrieve notifications.")
	}
	if notifications == nil {
		notifications = []Notification{}
	}
	return notifications, pagination, nil
}

func (s *ServiceImplementation) MarkNotificationAsRead(ctx context.Context, notificationID uuid.UUID, userID uuid.UUID) error {
	if err := s.repo.MarkAsRead(ctx, notificationID, userID); err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			s.logger.Error("Failed to mark notification as read", zap.String("notificationID", notificationID.String()), zap.Error(err))
		}
		return s.passThrough(err, "Could not mark notification as read.")
	}
	return nil
}

func (s *ServiceImplementation) MarkAllUserNotificationsAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := s.repo.MarkAllAsRead(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to mark all notifications as read", zap.String("userID", userID.String()), zap.Error(err))
		return 0, s.passThrough(err, "Could not mark all notifications as read.")
	}
	return count, nil
}

func (s *ServiceImplementation) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to count unread notifications", zap.String("userID", userID.String()), zap.Error(err))
		return 0, s.passThrough(err, "Could not count notifications.")
	}
	return count, nil
}
