package recommendation

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"shareaplate_backend/internal/common"
)

// Status of a stored recommendation.
type Status string

const (
	StatusPending  Status = "pending"
	StatusNotified Status = "notified"
)

// Recommendation is one ranked recipient suggested for a listing.
type Recommendation struct {
	common.BaseModel
	ListingID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"listing_id"`
	RecipientID uuid.UUID  `gorm:"type:uuid;not null;index" json:"recipient_id"`
	Rank        int        `gorm:"not null" json:"rank"`
	MatchScore  float64    `gorm:"not null" json:"match_score"`
	Reasoning   string     `gorm:"type:text" json:"reasoning"`
	Status      Status     `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	NotifiedAt  *time.Time `json:"notified_at,omitempty"`

	// Filled from the candidate list; not stored.
	RecipientName     string `gorm:"-" json:"recipient_name,omitempty"`
	RecipientLocation string `gorm:"-" json:"recipient_location,omitempty"`
}

// TableName specifies the table name for the Recommendation model.
func (Recommendation) TableName() string {
	return "ai_recommendations"
}

// FeedbackOutcome is what a recipient eventually did with a recommendation.
type FeedbackOutcome string

const (
	FeedbackClaimed FeedbackOutcome = "claimed"
	FeedbackExpired FeedbackOutcome = "expired"
	FeedbackIgnored FeedbackOutcome = "ignored"
)

// MatchFeedback records the outcome of a single recommendation.
type MatchFeedback struct {
	common.BaseModel
	RecommendationID    uuid.UUID         `gorm:"type:uuid;not null;index" json:"recommendation_id"`
	Outcome             FeedbackOutcome   `gorm:"type:varchar(20);not null" json:"outcome"`
	TimeToActionSeconds *int              `json:"time_to_action_seconds,omitempty"`
	Metadata            datatypes.JSONMap `json:"metadata,omitempty"`
}

// TableName specifies the table name for the MatchFeedback model.
func (MatchFeedback) TableName() string {
	return "ai_match_feedback"
}
