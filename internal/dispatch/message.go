package dispatch

import (
	"bytes"
	"fmt"
	"html/template"
	"math"
	"strings"
)

var matchEmailTmpl = template.Must(template.New("match_email").Parse(`<html>
<body style="font-family: sans-serif;">
<h2>New food available near you</h2>
<p>Hi {{.Name}},</p>
<p><strong>{{.Title}}</strong> was just posted in {{.Location}}.</p>
<p>Match: <strong>{{.Percent}}%</strong></p>
{{if .Reasoning}}<p>{{.Reasoning}}</p>{{end}}
<p><a href="{{.URL}}">Open your dashboard to claim it</a></p>
</body>
</html>`))

// MatchDetails describes a recommended listing for one recipient.
type MatchDetails struct {
	ListingID    string
	ListingTitle string
	Location     string
	Score        float64
	Reasoning    string
	AppURL       string
}

// MatchMessage builds the "New Food Available" message sent to a top match.
func MatchMessage(to Contact, d MatchDetails) Message {
	pct := int(math.Round(d.Score * 100))
	url := strings.TrimRight(d.AppURL, "/") + "/dashboard"
	location := d.Location
	if location == "" {
		location = "your area"
	}

	var text strings.Builder
	fmt.Fprintf(&text, "%s is available in %s. %d%% match.", d.ListingTitle, location, pct)
	if d.Reasoning != "" {
		text.WriteString(" ")
		text.WriteString(d.Reasoning)
	}
	fmt.Fprintf(&text, "\nClaim it at %s", url)

	var html bytes.Buffer
	name := to.Name
	if name == "" {
		name = "there"
	}
	// Rendering only fails on a broken template; fall back to the plain body.
	if err := matchEmailTmpl.Execute(&html, map[string]interface{}{
		"Name":      name,
		"Title":     d.ListingTitle,
		"Location":  location,
		"Percent":   pct,
		"Reasoning": d.Reasoning,
		"URL":       url,
	}); err != nil {
		html.Reset()
	}

	return Message{
		To:       to,
		Subject:  "New Food Available: " + d.ListingTitle,
		Body:     text.String(),
		HTMLBody: html.String(),
		Data: map[string]string{
			"type":        "food_match",
			"listing_id":  d.ListingID,
			"match_score": fmt.Sprintf("%d", pct),
			"url":         url,
		},
	}
}
