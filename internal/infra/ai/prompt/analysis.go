package prompt

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/linkhealth/internal/domain/links"
)

// SystemPrompt provides strict directions and the schema for JSON output.
func SystemPrompt() string {
	return `You are a web content analyst helping a site owner triage broken links. You must produce one valid JSON object only (no markdown, no commentary, no code fences) that follows the schema below.

Requirements:
- Output must be a single JSON object.
- importance must be one of: critical, high, medium, low.
- priorityScore must be an integer between 0 and 100.
- suggestedFixes is an array of at most 3 replacement URL candidates.
- Judge importance by business impact: links that block donations, contact, applications or registrations are critical; programs, services and about pages are high; archived or outdated material is low.

Schema (example with empty values):
{
  "intendedDestination": "<string>",
  "linkPurpose": "<string>",
  "importance": "<critical|high|medium|low>",
  "businessImpact": "<string>",
  "suggestedFixes": ["<string>"],
  "reasoning": "<string>",
  "priorityScore": 0
}`
}

// UserPrompt embeds everything known about one broken link.
func UserPrompt(in links.AnalysisInput) string {
	var b strings.Builder
	b.WriteString("Analyze this broken link and respond with the JSON per schema.\n\n")
	fmt.Fprintf(&b, "Broken URL: %s\n", in.URL)
	if in.StatusCode != nil {
		fmt.Fprintf(&b, "HTTP status: %d\n", *in.StatusCode)
	} else {
		b.WriteString("HTTP status: none (connection failed)\n")
	}
	fmt.Fprintf(&b, "Found on page: %s\n", in.FoundOn)
	if in.PageTitle != "" {
		fmt.Fprintf(&b, "Page title: %s\n", in.PageTitle)
	}
	if in.LinkText != "" {
		fmt.Fprintf(&b, "Link text: %s\n", in.LinkText)
	}
	if in.HTMLContext != "" {
		fmt.Fprintf(&b, "HTML context: %s\n", in.HTMLContext)
	}
	b.WriteString("\nReturn only the JSON object.")
	return b.String()
}
