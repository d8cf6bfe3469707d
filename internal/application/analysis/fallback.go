package analysis

import (
	"net/url"
	"strings"

	"github.com/bryanwahyu/linkhealth/internal/domain/links"
)

// Fallback fixed strings. The purpose/reasoning wording tells readers of the
// stored record that no model was involved.
const (
	fallbackPurpose   = "Could not determine specific purpose (AI analysis unavailable)"
	fallbackReasoning = "Rule-based scoring from link text and URL keywords; AI analysis was not available for this link"

	impactCritical = "Visitors are blocked from completing a key action such as donating, contacting, or registering"
	impactGeneral  = "Broken navigation degrades the visitor experience and the site's credibility"
)

// fallbackRule maps keywords to an importance tier and score. First match wins.
type fallbackRule struct {
	keywords   []string
	textOnly   bool // keywords match link text only, not the URL
	urlMarkers []string
	importance links.Importance
	score      int
}

var fallbackRules = []fallbackRule{
	{keywords: []string{"donate", "donation"}, urlMarkers: []string{"/donate"}, importance: links.ImportanceCritical, score: 95},
	{keywords: []string{"contact", "apply", "register"}, importance: links.ImportanceCritical, score: 90},
	{keywords: []string{"program", "service", "about"}, importance: links.ImportanceHigh, score: 70},
	{keywords: []string{"archive"}, textOnly: true, urlMarkers: []string{"/archive/", "/old/"}, importance: links.ImportanceLow, score: 25},
}

// Fallback produces a deterministic analysis from the input alone. It is a
// pure function: same input, same output, no model call, no randomness.
func Fallback(in links.AnalysisInput) *links.AnalysisResult {
	text := strings.ToLower(in.LinkText)
	lowURL := strings.ToLower(in.URL)

	importance := links.ImportanceMedium
	score := 50
	for _, rule := range fallbackRules {
		if rule.matches(text, lowURL) {
			importance = rule.importance
			score = rule.score
			break
		}
	}

	subject := in.LinkText
	if subject == "" {
		subject = "unknown content"
	}

	impact := impactGeneral
	if importance == links.ImportanceCritical {
		impact = impactCritical
	}

	return &links.AnalysisResult{
		IntendedDestination: "Page or resource related to: " + subject,
		LinkPurpose:         fallbackPurpose,
		Importance:          importance,
		BusinessImpact:      impact,
		SuggestedFixes: []string{
			stripLastSegment(in.FoundOn),
			strings.TrimSuffix(in.URL, "/"),
		},
		Reasoning:     fallbackReasoning,
		PriorityScore: score,
	}
}

func (r fallbackRule) matches(text, lowURL string) bool {
	for _, kw := range r.keywords {
		if strings.Contains(text, kw) {
			return true
		}
		if !r.textOnly && strings.Contains(lowURL, kw) {
			return true
		}
	}
	for _, m := range r.urlMarkers {
		if strings.Contains(lowURL, m) {
			return true
		}
	}
	return false
}

// stripLastSegment drops the final path segment, yielding the parent page.
func stripLastSegment(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" || u.Path == "/" {
		return raw
	}
	path := strings.TrimSuffix(u.Path, "/")
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return raw
	}
	u.Path = path[:idx]
	return u.String()
}
