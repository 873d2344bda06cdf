// File: internal/profile/model.go
package profile

import (
	"time"

	"github.com/google/uuid"

	"shareaplate_backend/internal/common"
)

// Profile is the local record for a Firebase-authenticated user.
type Profile struct {
	common.BaseModel
	FirebaseUID    string  `gorm:"type:varchar(128);uniqueIndex;not null"`
	Name           string  `gorm:"type:varchar(150)"`
	Email          *string `gorm:"type:varchar(255);index"`
	Role           string  `gorm:"type:varchar(20);not null;default:'recipient';index"`
	Location       string  `gorm:"type:varchar(50);index"`
	FCMToken       *string `gorm:"type:text"`
	TelegramChatID *int64
}

// TableName specifies the table name for the Profile model.
func (Profile) TableName() string {
	return "profiles"
}

// DisplayName falls back to the email local part when no name is set.
func (p *Profile) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	if p.Email != nil {
		return *p.Email
	}
	return "Neighbor"
}

// --- DTOs ---

// UpdateProfileRequest is the body of PUT /profiles/me. Omitted fields are left unchanged.
type UpdateProfileRequest struct {
	Name           *string `json:"name" binding:"omitempty,min=1,max=150"`
	Role           *string `json:"role" binding:"omitempty,oneof=donor recipient"`
	Location       *string `json:"location" binding:"omitempty,neighborhood"`
	FCMToken       *string `json:"fcm_token" binding:"omitempty,max=4096"`
	TelegramChatID *int64  `json:"telegram_chat_id"`
}

// ProfileResponse defines the structure for profile data sent in API responses.
type ProfileResponse struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Email          *string   `json:"email,omitempty"`
	Role           string    `json:"role"`
	Location       string    `json:"location,omitempty"`
	PushEnabled    bool      `json:"push_enabled"`
	TelegramLinked bool      `json:"telegram_linked"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ToProfileResponse converts a Profile model to a ProfileResponse DTO.
func ToProfileResponse(p *Profile) ProfileResponse {
	return ProfileResponse{
		ID:             p.ID,
		Name:           p.Name,
		Email:          p.Email,
		Role:           p.Role,
		Location:       p.Location,
		PushEnabled:    p.FCMToken != nil && *p.FCMToken != "",
		TelegramLinked: p.TelegramChatID != nil,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// RecipientResponse is the public view of a recipient used by donors when
// requesting a match.
type RecipientResponse struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Location string    `json:"location"`
	Role     string    `json:"role"`
}

// ToRecipientResponse converts a Profile model to a RecipientResponse DTO.
func ToRecipientResponse(p *Profile) RecipientResponse {
	return RecipientResponse{ID: p.ID, Name: p.DisplayName(), Location: p.Location, Role: p.Role}
}
