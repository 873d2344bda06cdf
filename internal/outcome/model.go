package outcome

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"shareaplate_backend/internal/common"
)

// Outcome tracks what happened to one food listing after matching. There is
// at most one row per listing.
type Outcome struct {
	common.BaseModel
	FoodListingID uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex" json:"food_listing_id"`
	StrategyUsed  string            `gorm:"type:varchar(50);not null" json:"strategy_used"`
	PromptVersion string            `gorm:"type:varchar(50)" json:"prompt_version"`
	NotifiedCount int               `gorm:"not null;default:0" json:"notified_count"`
	Claimed       bool              `gorm:"not null;default:false" json:"claimed"`
	TimeToClaim   *int              `json:"time_to_claim,omitempty"` // minutes
	Expired       bool              `gorm:"not null;default:false;index" json:"expired"`
	Metadata      datatypes.JSONMap `json:"metadata,omitempty"`
}

// TableName specifies the table name for the Outcome model.
func (Outcome) TableName() string {
	return "ai_outcomes"
}

// Timeframe selects the metrics window.
type Timeframe string

const (
	TimeframeWeek  Timeframe = "week"
	TimeframeMonth Timeframe = "month"
	TimeframeAll   Timeframe = "all"
)

// Since returns the window start for tf, or the zero time for "all".
func (tf Timeframe) Since(now time.Time) (time.Time, bool) {
	switch tf {
	case TimeframeWeek:
		return now.AddDate(0, 0, -7), true
	case TimeframeMonth:
		return now.AddDate(0, -1, 0), true
	case TimeframeAll:
		return time.Time{}, true
	}
	return time.Time{}, false
}

// Metrics aggregates outcomes over a timeframe.
type Metrics struct {
	Timeframe              Timeframe `json:"timeframe"`
	TotalOutcomes          int64     `json:"total_outcomes"`
	Claimed                int64     `json:"claimed"`
	Expired                int64     `json:"expired"`
	ClaimRate              int       `json:"claim_rate"`
	AvgTimeToClaimMinutes  int       `json:"avg_time_to_claim_minutes"`
	OutcomesWithClaimTimes int64     `json:"outcomes_with_claim_times"`
}

// --- DTOs ---

type RecordClaimRequest struct {
	FoodListingID uuid.UUID  `json:"food_listing_id" binding:"required"`
	ClaimTime     *time.Time `json:"claim_time"`
}

type RecordExpirationRequest struct {
	FoodListingID uuid.UUID `json:"food_listing_id" binding:"required"`
}

type MetricsQuery struct {
	Timeframe string `form:"timeframe" binding:"omitempty,oneof=week month all"`
}
