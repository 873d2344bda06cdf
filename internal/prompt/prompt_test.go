package prompt

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func testListing() ListingInput {
	return ListingInput{
		ID:          "listing-1",
		Title:       "Jollof rice trays",
		FoodType:    "Cooked meal",
		Quantity:    "12 trays",
		ExpiryDate:  fixedNow.Add(6 * time.Hour),
		Location:    "Yaba",
		DietaryTags: []string{"halal", "vegetarian"},
	}
}

func TestBuildMatchingPrompt_ListingAttributes(t *testing.T) {
	p := BuildMatchingPrompt(testListing(), []Candidate{{ID: "r1", Name: "Ada", Location: "Yaba", Role: "recipient"}}, fixedNow)

	assert.Contains(t, p, "Lagos")
	assert.Contains(t, p, "- Title: Jollof rice trays")
	assert.Contains(t, p, "- Quantity: 12 trays")
	assert.Contains(t, p, "- Expires in: 6 hours")
	assert.Contains(t, p, "- Dietary tags: halal, vegetarian")
	assert.Contains(t, p, "- Description: N/A")
	assert.Contains(t, p, "\"recommendations\"")
	assert.Contains(t, p, "exactly 3 recommendations")
}

func TestBuildMatchingPrompt_CandidatesEnumeratedInOrder(t *testing.T) {
	candidates := []Candidate{
		{ID: "r1", Name: "Ada", Location: "Yaba"},
		{ID: "r2", Name: "Bayo", Location: ""},
		{ID: "r3", Name: "Chi", Location: "Lekki", Role: "recipient"},
	}
	p := BuildMatchingPrompt(testListing(), candidates, fixedNow)

	first := strings.Index(p, "1. Ada")
	second := strings.Index(p, "2. Bayo")
	third := strings.Index(p, "3. Chi")
	assert.True(t, first > 0 && second > first && third > second, "candidates must be 1-based and in input order")
	assert.Contains(t, p, "- ID: r2")
	assert.Contains(t, p, "- Location: Not specified")
}

func TestBuildMatchingPrompt_Deterministic(t *testing.T) {
	c := []Candidate{{ID: "r1", Name: "Ada", Location: "Yaba"}}
	assert.Equal(t, BuildMatchingPrompt(testListing(), c, fixedNow), BuildMatchingPrompt(testListing(), c, fixedNow))
}

func TestBuildMatchingPrompt_NoDietaryTags(t *testing.T) {
	l := testListing()
	l.DietaryTags = nil
	p := BuildMatchingPrompt(l, []Candidate{{ID: "r1"}}, fixedNow)
	assert.Contains(t, p, "- Dietary tags: None")
}

func TestHoursUntil(t *testing.T) {
	assert.Equal(t, 6, HoursUntil(fixedNow.Add(6*time.Hour), fixedNow))
	assert.Equal(t, 3, HoursUntil(fixedNow.Add(150*time.Minute), fixedNow))
	assert.Equal(t, -2, HoursUntil(fixedNow.Add(-2*time.Hour), fixedNow))
}

func TestBuildCoachPrompt_DonorWithGoals(t *testing.T) {
	p := BuildCoachPrompt("donor", CoachStats{ActiveListings: 2, TotalListings: 9}, []GoalSummary{
		{GoalType: "donate_times", CurrentValue: 3, TargetValue: 5, Timeframe: "weekly"},
	})

	assert.Contains(t, p, "- Active listings: 2")
	assert.Contains(t, p, "- Total listings: 9")
	assert.Contains(t, p, "- donate_times: 3/5 (weekly)")
	assert.Contains(t, p, "at most 15 words")
	assert.Contains(t, p, "Do not use emojis")
	assert.Contains(t, p, "close the user is to reaching a goal")
}

func TestBuildCoachPrompt_RecipientWithoutGoals(t *testing.T) {
	p := BuildCoachPrompt("recipient", CoachStats{Claims: 4}, nil)

	assert.Contains(t, p, "- Claims made: 4")
	assert.Contains(t, p, "User has no active goals set.")
	assert.NotContains(t, p, "Active listings")
}
