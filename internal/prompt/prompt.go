// Package prompt renders the natural-language instructions sent to the
// language model. Everything here is pure: the same inputs and clock produce
// the same text.
package prompt

import (
	"fmt"
	"math"
	"strings"
	"text/template"
	"time"
)

// ListingInput is the slice of a food listing the matching prompt needs.
type ListingInput struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	FoodType    string    `json:"food_type"`
	Quantity    string    `json:"quantity"`
	Description string    `json:"description"`
	ExpiryDate  time.Time `json:"expiry_date"`
	Location    string    `json:"location"`
	DietaryTags []string  `json:"dietary_tags"`
}

// Candidate is a recipient the model may rank.
type Candidate struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Role     string `json:"role"`
}

// CoachStats are the activity counters quoted in a coaching prompt.
type CoachStats struct {
	ActiveListings int `json:"activeListings"`
	TotalListings  int `json:"totalListings"`
	Claims         int `json:"claims"`
}

// GoalSummary is one goal line of a coaching prompt.
type GoalSummary struct {
	GoalType     string `json:"goal_type"`
	CurrentValue int    `json:"current_value"`
	TargetValue  int    `json:"target_value"`
	Timeframe    string `json:"timeframe"`
}

// HoursUntil returns the whole hours between now and expiry, rounded to the
// nearest hour. Past expiries give a negative number.
func HoursUntil(expiry, now time.Time) int {
	return int(math.Round(expiry.Sub(now).Hours()))
}

var matchingTmpl = template.Must(template.New("matching").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(`You are an AI assistant for a community food rescue platform in Lagos, Nigeria. Donors post surplus food and recipients (individuals, shelters and community kitchens) collect it before it spoils.

FOOD LISTING:
- Title: {{.Title}}
- Type: {{.FoodType}}
- Quantity: {{.Quantity}}
- Expires in: {{.Hours}} hours
- Location: {{.Location}}
- Dietary tags: {{.Dietary}}
- Description: {{.Description}}

POTENTIAL RECIPIENTS:
{{range $i, $c := .Candidates}}{{inc $i}}. {{$c.Name}}
   - Location: {{$c.Location}}
   - Role: {{$c.Role}}
   - ID: {{$c.ID}}
{{end}}
TASK: Rank the top 3 recipients who should be notified about this listing.

RANKING CRITERIA (in order of importance):
1. LOCATION PROXIMITY (highest priority): a recipient in the same location as the listing must score between 0.90 and 1.00; a recipient in a different location scores between 0.60 and 0.85.
2. URGENCY: food expiring sooner favours the closest recipients.
3. DIETARY COMPATIBILITY: prefer recipients whose needs fit the dietary tags.
4. RECIPIENT TYPE: organizations serving many people break remaining ties.

SCORING GUIDELINES:
- 0.90-1.00: same location, strong fit
- 0.75-0.89: nearby location, good fit
- 0.60-0.74: different location, acceptable fit

OUTPUT FORMAT (respond with JSON only, no other text):
{
  "recommendations": [
    {
      "recipient_id": "<ID from the list above>",
      "rank": 1,
      "match_score": 0.95,
      "reasoning": "<one sentence>"
    }
  ]
}

Provide exactly 3 recommendations with ranks 1, 2 and 3, using only recipient IDs from the list above. Each reasoning must mention location proximity first.`))

type matchingView struct {
	Title       string
	FoodType    string
	Quantity    string
	Hours       int
	Location    string
	Dietary     string
	Description string
	Candidates  []Candidate
}

// BuildMatchingPrompt renders the ranking instructions for one listing and
// its candidate recipients. Candidates are listed in the order given.
func BuildMatchingPrompt(listing ListingInput, candidates []Candidate, now time.Time) string {
	view := matchingView{
		Title:       listing.Title,
		FoodType:    orDefault(listing.FoodType, "Not specified"),
		Quantity:    orDefault(listing.Quantity, "Not specified"),
		Hours:       HoursUntil(listing.ExpiryDate, now),
		Location:    orDefault(listing.Location, "Not specified"),
		Dietary:     "None",
		Description: orDefault(listing.Description, "N/A"),
		Candidates:  make([]Candidate, len(candidates)),
	}
	if len(listing.DietaryTags) > 0 {
		view.Dietary = strings.Join(listing.DietaryTags, ", ")
	}
	for i, c := range candidates {
		c.Name = orDefault(c.Name, "Unnamed recipient")
		c.Location = orDefault(c.Location, "Not specified")
		c.Role = orDefault(c.Role, "recipient")
		view.Candidates[i] = c
	}

	var b strings.Builder
	if err := matchingTmpl.Execute(&b, view); err != nil {
		// The template is static and the view is fully populated.
		panic(fmt.Sprintf("prompt: matching template: %v", err))
	}
	return b.String()
}

// BuildCoachPrompt renders the one-sentence coaching instruction for a user.
func BuildCoachPrompt(role string, stats CoachStats, goals []GoalSummary) string {
	var b strings.Builder
	b.WriteString("You are a friendly coach for a community food rescue app in Lagos, Nigeria.\n")
	fmt.Fprintf(&b, "The user is a %s.\n\n", role)

	b.WriteString("ACTIVITY:\n")
	if role == "donor" {
		fmt.Fprintf(&b, "- Active listings: %d\n", stats.ActiveListings)
		fmt.Fprintf(&b, "- Total listings: %d\n", stats.TotalListings)
	} else {
		fmt.Fprintf(&b, "- Claims made: %d\n", stats.Claims)
	}

	b.WriteString("\nGOALS:\n")
	if len(goals) == 0 {
		b.WriteString("User has no active goals set.\n")
	}
	for _, g := range goals {
		fmt.Fprintf(&b, "- %s: %d/%d (%s)\n", g.GoalType, g.CurrentValue, g.TargetValue, g.Timeframe)
	}

	b.WriteString("\nWrite ONE motivational sentence of at most 15 words. ")
	if len(goals) > 0 {
		b.WriteString("Focus on how close the user is to reaching a goal. ")
	} else {
		b.WriteString("Encourage the user based on their activity. ")
	}
	b.WriteString("Do not use emojis. Do not use quotation marks. Reply with the sentence only.")
	return b.String()
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
