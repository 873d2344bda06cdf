package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"shareaplate_backend/internal/common"
)

type Repository interface {
	Create(ctx context.Context, notification *Notification) error
	// CreateBatch inserts all rows in one statement; either all are stored or none.
	CreateBatch(ctx context.Context, notifications []Notification) error
	GetByRecipientID(ctx context.Context, recipientID uuid.UUID, page, pageSize int) ([]Notification, *common.Pagination, error)
	FindByID(ctx context.Context, notificationID uuid.UUID, recipientID uuid.UUID) (*Notification, error) // recipientID for ownership check
	MarkAsRead(ctx context.Context, notificationID uuid.UUID, recipientID uuid.UUID) error
	MarkAllAsRead(ctx context.Context, recipientID uuid.UUID) (int64, error) // Return count of marked notifications
	CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error)
}

// GORMRepository implements the Repository interface using GORM.
type GORMRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM notification repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &GORMRepository{db: db}
}

// Create inserts a new notification into the database.
func (r *GORMRepository) Create(ctx context.Context, notification *Notification) error {
	if err := r.db.WithContext(ctx).Create(notification).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *GORMRepository) CreateBatch(ctx context.Context, notifications []Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&notifications).Error; err != nil {
		return fmt.Errorf("failed to create %d notifications: %w", len(notifications), err)
	}
	return nil
}

// GetByRecipientID retrieves a paginated list of notifications for a profile, newest first.
func (r *GORMRepository) GetByRecipientID(ctx context.Context, recipientID uuid.UUID, page, pageSize int) ([]Notification, *common.Pagination, error) {
	var notifications []Notification
	var total int64

	query := r.db.WithContext(ctx).Model(&Notification{}).Where("recipient_id = ?", recipientID)
	if err := query.Count(&total).Error; err != nil {
		return nil, nil, fmt.Errorf("counting notifications for recipient %s failed: %w", recipientID, err)
	}

	pq := common.PaginationQuery{Page: page, PageSize: pageSize}
	err := r.db.WithContext(ctx).Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Scopes(pq.Scope()).
		Find(&notifications).Error
	if err != nil {
		return nil, nil, fmt.Errorf("fetching notifications for recipient %s failed: %w", recipientID, err)
	}
	return notifications, pq.Paginate(total), nil
}

// FindByID retrieves a specific notification by its ID, ensuring it belongs to recipientID.
func (r *GORMRepository) FindByID(ctx context.Context, notificationID uuid.UUID, recipientID uuid.UUID) (*Notification, error) {
	var notification Notification
	err := r.db.WithContext(ctx).Where("id = ? AND recipient_id = ?", notificationID, recipientID).First(&notification).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Notification not found or not owned by user.")
		}
		return nil, fmt.Errorf("failed to find notification %s for recipient %s: %w", notificationID, recipientID, err)
	}
	return &notification, nil
}

// MarkAsRead marks a specific notification as read. Marking an already read
// notification is not an error.
func (r *GORMRepository) MarkAsRead(ctx context.Context, notificationID uuid.UUID, recipientID uuid.UUID) error {
	if _, err := r.FindByID(ctx, notificationID, recipientID); err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Model(&Notification{}).
		Where("id = ? AND recipient_id = ?", notificationID, recipientID).
		Update("is_read", true)
	if result.Error != nil {
		return fmt.Errorf("failed to mark notification %s as read: %w", notificationID, result.Error)
	}
	return nil
}

// MarkAllAsRead marks all unread notifications for a profile as read and
// returns how many were updated.
func (r *GORMRepository) MarkAllAsRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Model(&Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Updates(map[string]interface{}{"is_read": true})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark all notifications as read for recipient %s: %w", recipientID, result.Error)
	}
	return result.RowsAffected, nil
}

func (r *GORMRepository) CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications for recipient %s: %w", recipientID, err)
	}
	return count, nil
}
