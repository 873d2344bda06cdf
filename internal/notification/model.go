package notification

import (
	"github.com/google/uuid"

	"shareaplate_backend/internal/common"
)

// NotificationType defines the type of notification.
type NotificationType string

const (
	TypeRecommendation NotificationType = "recommendation"
	TypeClaimCreated   NotificationType = "claim_created"
	TypeClaimApproved  NotificationType = "claim_approved"
	TypeClaimRejected  NotificationType = "claim_rejected"
	TypeClaimCompleted NotificationType = "claim_completed"
	TypeClaimCancelled NotificationType = "claim_cancelled"
)

// Notification represents an in-app notification for a profile.
type Notification struct {
	common.BaseModel
	RecipientID      uuid.UUID        `gorm:"type:uuid;not null;index:idx_notification_recipient_read" json:"recipient_id"`
	ListingID        *uuid.UUID       `gorm:"type:uuid;index" json:"listing_id,omitempty"`
	RecommendationID *uuid.UUID       `gorm:"type:uuid" json:"recommendation_id,omitempty"`
	Type             NotificationType `gorm:"type:varchar(50);not null" json:"type"`
	Title            string           `gorm:"type:varchar(255);not null" json:"title"`
	Message          string           `gorm:"type:text;not null" json:"message"`
	IsRead           bool             `gorm:"not null;default:false;index:idx_notification_recipient_read" json:"is_read"`
}

// TableName specifies the table name for GORM.
func (Notification) TableName() string {
	return "notifications"
}

// CreateInput carries the fields callers set on a new notification.
type CreateInput struct {
	RecipientID      uuid.UUID
	ListingID        *uuid.UUID
	RecommendationID *uuid.UUID
	Type             NotificationType
	Title            string
	Message          string
}

func (in CreateInput) toModel() *Notification {
	return &Notification{
		RecipientID:      in.RecipientID,
		ListingID:        in.ListingID,
		RecommendationID: in.RecommendationID,
		Type:             in.Type,
		Title:            in.Title,
		Message:          in.Message,
	}
}
