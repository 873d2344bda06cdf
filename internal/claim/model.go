// File: internal/claim/model.go
package claim

import (
	"time"

	"github.com/google/uuid"

	"shareaplate_backend/internal/common"
	"shareaplate_backend/internal/notification"
)

// ClaimStatus is the lifecycle state of a claim.
type ClaimStatus string

const (
	StatusPending   ClaimStatus = "pending"
	StatusConfirmed ClaimStatus = "confirmed"
	StatusCompleted ClaimStatus = "completed"
	StatusCancelled ClaimStatus = "cancelled"
)

// Active claims hold their listing in the claimed state.
func (s ClaimStatus) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Claim is a recipient's reservation of a food listing.
type Claim struct {
	common.BaseModel
	ListingID   uuid.UUID   `gorm:"type:uuid;not null;index" json:"listing_id"`
	RecipientID uuid.UUID   `gorm:"type:uuid;not null;index" json:"recipient_id"`
	Status      ClaimStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	PickupTime  *time.Time  `json:"pickup_time,omitempty"`
	Notes       string      `gorm:"type:text" json:"notes,omitempty"`
}

// TableName specifies the table name for the Claim model.
func (Claim) TableName() string {
	return "claims"
}

// Action is a requested claim status change.
type Action string

const (
	ActionApprove  Action = "approve"
	ActionReject   Action = "reject"
	ActionComplete Action = "complete"
	ActionCancel   Action = "cancel"
)

type actorKind int

const (
	actorDonor actorKind = iota
	actorRecipient
)

type transition struct {
	from            []ClaimStatus
	to              ClaimStatus
	actor           actorKind
	releasesListing bool
	notifyType      notification.NotificationType
}

// transitions is the claim state machine. completed and cancelled are terminal.
var transitions = map[Action]transition{
	ActionApprove: {
		from:       []ClaimStatus{StatusPending},
		to:         StatusConfirmed,
		actor:      actorDonor,
		notifyType: notification.TypeClaimApproved,
	},
	ActionReject: {
		from:            []ClaimStatus{StatusPending, StatusConfirmed},
		to:              StatusCancelled,
		actor:           actorDonor,
		releasesListing: true,
		notifyType:      notification.TypeClaimRejected,
	},
	ActionComplete: {
		from:       []ClaimStatus{StatusConfirmed},
		to:         StatusCompleted,
		actor:      actorDonor,
		notifyType: notification.TypeClaimCompleted,
	},
	ActionCancel: {
		from:            []ClaimStatus{StatusPending, StatusConfirmed},
		to:              StatusCancelled,
		actor:           actorRecipient,
		releasesListing: true,
		notifyType:      notification.TypeClaimCancelled,
	},
}

func (t transition) allowedFrom(s ClaimStatus) bool {
	for _, f := range t.from {
		if f == s {
			return true
		}
	}
	return false
}

// --- DTOs ---

// CreateClaimRequest defines the body for claiming a listing.
type CreateClaimRequest struct {
	ListingID  uuid.UUID  `json:"listing_id" binding:"required"`
	PickupTime *time.Time `json:"pickup_time"`
	Notes      string     `json:"notes" binding:"omitempty,max=1000"`
}
