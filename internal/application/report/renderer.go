package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bryanwahyu/linkhealth/internal/domain/links"
	domain "github.com/bryanwahyu/linkhealth/internal/domain/scans"
)

// Render formats a finished scan as plain text. Pure: no I/O, deterministic
// for a given input. Findings are ordered by priority score descending; ties
// keep their incoming order.
func Render(scan *domain.Scan, findings []*links.BrokenLinkFinding) string {
	sorted := make([]*links.BrokenLinkFinding, len(findings))
	copy(sorted, findings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PriorityScore() > sorted[j].PriorityScore()
	})

	var b strings.Builder
	b.WriteString("LINK HEALTH REPORT\n")
	b.WriteString("==================\n\n")
	fmt.Fprintf(&b, "Scan:         %s\n", scan.ID)
	fmt.Fprintf(&b, "Website:      %s\n", scan.WebsiteID)
	fmt.Fprintf(&b, "Status:       %s\n", scan.Status)
	fmt.Fprintf(&b, "Started:      %s\n", scan.StartedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Total links:  %d\n", scan.TotalLinks)
	fmt.Fprintf(&b, "Broken links: %d\n", scan.BrokenLinks)
	fmt.Fprintf(&b, "Health score: %d/100\n", scan.HealthScore)
	if scan.ErrorMessage != "" {
		fmt.Fprintf(&b, "Error:        %s\n", scan.ErrorMessage)
	}

	for i, f := range sorted {
		fmt.Fprintf(&b, "\n--- Broken link %d of %d ---\n", i+1, len(sorted))
		fmt.Fprintf(&b, "URL:        %s\n", f.URL)
		if f.StatusCode != nil {
			fmt.Fprintf(&b, "Status:     %d\n", *f.StatusCode)
		} else {
			b.WriteString("Status:     unreachable\n")
		}
		fmt.Fprintf(&b, "Found on:   %s\n", f.FoundOn)
		if f.LinkText != "" {
			fmt.Fprintf(&b, "Link text:  %s\n", f.LinkText)
		}
		if a := f.Analysis; a != nil {
			fmt.Fprintf(&b, "Priority:   %d/100\n", a.PriorityScore)
			fmt.Fprintf(&b, "Importance: %s\n", a.Importance)
			fmt.Fprintf(&b, "Intended:   %s\n", a.IntendedDestination)
			fmt.Fprintf(&b, "Purpose:    %s\n", a.LinkPurpose)
			fmt.Fprintf(&b, "Impact:     %s\n", a.BusinessImpact)
			for _, fix := range a.SuggestedFixes {
				fmt.Fprintf(&b, "Fix:        %s\n", fix)
			}
			fmt.Fprintf(&b, "Reasoning:  %s\n", a.Reasoning)
		}
	}
	return b.String()
}
