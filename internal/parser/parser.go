// Package parser turns raw model output into validated recommendations.
package parser

import (
	"encoding/json"
	"regexp"
	"strings"

	"shareaplate_backend/internal/prompt"
)

// MaxRecommendations is the number of ranked recipients kept per listing.
const MaxRecommendations = 3

// Recommendation is one ranked candidate, enriched with what we know about it.
type Recommendation struct {
	RecipientID       string  `json:"recipient_id"`
	Rank              int     `json:"rank"`
	MatchScore        float64 `json:"match_score"`
	Reasoning         string  `json:"reasoning"`
	RecipientName     string  `json:"recipient_name"`
	RecipientLocation string  `json:"recipient_location"`
}

type rawRecommendation struct {
	RecipientID string  `json:"recipient_id"`
	Rank        int     `json:"rank"`
	MatchScore  float64 `json:"match_score"`
	Reasoning   string  `json:"reasoning"`
}

type rawResponse struct {
	Recommendations []rawRecommendation `json:"recommendations"`
}

var fencedJSON = regexp.MustCompile("(?s)```json\\s*\\n(.*?)\\n\\s*```")

// bracedSpan returns the text from the first '{' to the last '}'.
func bracedSpan(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}

// ExtractJSON finds the JSON object in a model reply: a ```json fenced block
// when present, otherwise the span from the first '{' to the last '}'.
func ExtractJSON(raw string) (string, bool) {
	if m := fencedJSON.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	return bracedSpan(raw)
}

// decodeReply unmarshals the extracted object. When a fenced body does not
// decode, the braced span of the whole reply is tried before giving up.
func decodeReply(raw string) (rawResponse, bool) {
	var parsed rawResponse
	body, ok := ExtractJSON(raw)
	if !ok {
		return parsed, false
	}
	if err := json.Unmarshal([]byte(body), &parsed); err == nil {
		return parsed, true
	}
	span, ok := bracedSpan(raw)
	if !ok || span == body {
		return parsed, false
	}
	parsed = rawResponse{}
	if err := json.Unmarshal([]byte(span), &parsed); err != nil {
		return parsed, false
	}
	return parsed, true
}

// ParseRecommendations never fails: unparseable text yields an empty slice.
// Entries are dropped when the recipient is not a candidate, the score is
// outside [0,1], the rank is outside 1..3, or the recipient or rank repeats an
// earlier entry. At most MaxRecommendations are returned, in reply order.
func ParseRecommendations(raw string, candidates []prompt.Candidate) []Recommendation {
	out := []Recommendation{}

	parsed, ok := decodeReply(raw)
	if !ok {
		return out
	}

	byID := make(map[string]prompt.Candidate, len(candidates))
	for _, c := range candidates {
		byID[c.ID] = c
	}

	seenRecipient := make(map[string]bool)
	seenRank := make(map[int]bool)
	for _, r := range parsed.Recommendations {
		if len(out) == MaxRecommendations {
			break
		}
		c, known := byID[r.RecipientID]
		if !known || r.RecipientID == "" {
			continue
		}
		if r.MatchScore < 0 || r.MatchScore > 1 {
			continue
		}
		if r.Rank < 1 || r.Rank > MaxRecommendations {
			continue
		}
		if seenRecipient[r.RecipientID] || seenRank[r.Rank] {
			continue
		}
		seenRecipient[r.RecipientID] = true
		seenRank[r.Rank] = true

		location := c.Location
		if location == "" {
			location = "Unknown"
		}
		out = append(out, Recommendation{
			RecipientID:       r.RecipientID,
			Rank:              r.Rank,
			MatchScore:        r.MatchScore,
			Reasoning:         strings.TrimSpace(r.Reasoning),
			RecipientName:     c.Name,
			RecipientLocation: location,
		})
	}
	return out
}
