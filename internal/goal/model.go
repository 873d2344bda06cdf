// File: internal/goal/model.go
package goal

import (
	"github.com/google/uuid"

	"shareaplate_backend/internal/common"
)

// Timeframe is the rolling window a goal is measured over.
type Timeframe string

const (
	TimeframeWeekly  Timeframe = "weekly"
	TimeframeMonthly Timeframe = "monthly"
)

// GoalType names what a goal measures.
type GoalType string

const (
	TypeDonateTimes  GoalType = "donate_times"
	TypePreventItems GoalType = "prevent_items"
	TypeClaimSpeed   GoalType = "claim_speed"
	TypeClaimMinutes GoalType = "claim_minutes"
	TypeServeMeals   GoalType = "serve_meals"
)

type metricKind int

const (
	metricListingsCreated metricKind = iota
	metricAvgClaimMinutes
	metricServedClaims
)

type metric struct {
	role string
	unit string
	kind metricKind
}

var metrics = map[GoalType]metric{
	TypeDonateTimes:  {role: common.RoleDonor, unit: "times", kind: metricListingsCreated},
	TypePreventItems: {role: common.RoleDonor, unit: "items", kind: metricListingsCreated},
	TypeClaimSpeed:   {role: common.RoleRecipient, unit: "minutes", kind: metricAvgClaimMinutes},
	TypeClaimMinutes: {role: common.RoleRecipient, unit: "minutes", kind: metricAvgClaimMinutes},
	TypeServeMeals:   {role: common.RoleRecipient, unit: "meals", kind: metricServedClaims},
}

// metricFor reports how a goal type is measured for a role.
func metricFor(t GoalType, role string) (metric, bool) {
	m, ok := metrics[t]
	if !ok || m.role != role {
		return metric{}, false
	}
	return m, true
}

// Goal is a user's self-set target.
type Goal struct {
	common.BaseModel
	UserID      uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Role        string    `gorm:"type:varchar(20);not null" json:"role"`
	GoalType    GoalType  `gorm:"type:varchar(50);not null" json:"goal_type"`
	TargetValue int       `gorm:"not null" json:"target_value"`
	Timeframe   Timeframe `gorm:"type:varchar(20);not null" json:"timeframe"`
}

// TableName specifies the table name for the Goal model.
func (Goal) TableName() string {
	return "user_goals"
}

// Progress is a goal with its measured value over the current window.
type Progress struct {
	Goal
	CurrentValue       int    `json:"current_value"`
	ProgressPercentage int    `json:"progress_percentage"`
	Unit               string `json:"unit,omitempty"`
	Supported          bool   `json:"supported"`
	Note               string `json:"note,omitempty"`
}

// --- DTOs ---

// CreateGoalRequest is the body of POST /goals. Role defaults to the caller's role.
type CreateGoalRequest struct {
	Role        string `json:"role" binding:"omitempty,oneof=donor recipient"`
	GoalType    string `json:"goal_type" binding:"required,max=50"`
	TargetValue int    `json:"target_value" binding:"required,min=1"`
	Timeframe   string `json:"timeframe" binding:"required,oneof=weekly monthly"`
}

// UpdateGoalRequest is the body of PUT /goals/:id. Omitted fields are left unchanged.
type UpdateGoalRequest struct {
	GoalType    *string `json:"goal_type" binding:"omitempty,max=50"`
	TargetValue *int    `json:"target_value" binding:"omitempty,min=1"`
	Timeframe   *string `json:"timeframe" binding:"omitempty,oneof=weekly monthly"`
}
