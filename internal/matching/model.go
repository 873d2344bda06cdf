// File: internal/matching/model.go
package matching

import (
	"time"

	"github.com/google/uuid"

	"shareaplate_backend/internal/prompt"
	"shareaplate_backend/internal/recommendation"
)

// ListingPayload is the listing being matched.
type ListingPayload struct {
	ID          string    `json:"id" binding:"required,uuid"`
	DonorID     string    `json:"donor_id" binding:"omitempty,uuid"`
	Title       string    `json:"title" binding:"required"`
	FoodType    string    `json:"food_type"`
	Quantity    string    `json:"quantity"`
	Description string    `json:"description"`
	ExpiryDate  time.Time `json:"expiry_date" binding:"required"`
	Location    string    `json:"location"`
	DietaryTags []string  `json:"dietary_tags"`
}

// RecipientPayload is one candidate recipient.
type RecipientPayload struct {
	ID       string `json:"id" binding:"required,uuid"`
	Name     string `json:"name"`
	Email    string `json:"email" binding:"omitempty,email"`
	Location string `json:"location"`
	Role     string `json:"role"`
}

// MatchRequest is the body of POST /match/recommend.
type MatchRequest struct {
	Listing    *ListingPayload    `json:"listing" binding:"required"`
	Recipients []RecipientPayload `json:"recipients" binding:"required,min=1,dive"`
}

// MatchResult is what a matching run durably produced.
type MatchResult struct {
	Recommendations []recommendation.Recommendation `json:"recommendations"`
	NotifiedCount   int                             `json:"notifiedCount"`
	Message         string                          `json:"message"`
}

// FeedbackRequest is the body of POST /match/outcome.
type FeedbackRequest struct {
	RecommendationID uuid.UUID `json:"recommendation_id" binding:"required"`
	Outcome          string    `json:"outcome" binding:"required,oneof=claimed expired ignored"`
	// TimeToAction is in seconds.
	TimeToAction *int `json:"time_to_action" binding:"omitempty,min=0"`
}

func (l *ListingPayload) promptInput() prompt.ListingInput {
	return prompt.ListingInput{
		ID:          l.ID,
		Title:       l.Title,
		FoodType:    l.FoodType,
		Quantity:    l.Quantity,
		Description: l.Description,
		ExpiryDate:  l.ExpiryDate,
		Location:    l.Location,
		DietaryTags: l.DietaryTags,
	}
}

func candidates(recipients []RecipientPayload) []prompt.Candidate {
	out := make([]prompt.Candidate, 0, len(recipients))
	for _, r := range recipients {
		out = append(out, prompt.Candidate{ID: r.ID, Name: r.Name, Location: r.Location, Role: r.Role})
	}
	return out
}
