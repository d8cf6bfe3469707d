package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/linkhealth/internal/domain/links"
	domain "github.com/bryanwahyu/linkhealth/internal/domain/scans"
)

func sampleScan() *domain.Scan {
	return &domain.Scan{
		ID:          "scan-1",
		WebsiteID:   "site-1",
		Status:      domain.StatusCompleted,
		StartedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		TotalLinks:  10,
		BrokenLinks: 3,
		HealthScore: 70,
	}
}

func finding(url string, score int, importance links.Importance) *links.BrokenLinkFinding {
	return &links.BrokenLinkFinding{
		URL:     url,
		FoundOn: "https://example.org/",
		Analysis: &links.AnalysisResult{
			IntendedDestination: "somewhere",
			LinkPurpose:         "something",
			Importance:          importance,
			BusinessImpact:      "impact",
			Reasoning:           "because",
			PriorityScore:       score,
		},
	}
}

func TestRenderSortsByPriorityDescending(t *testing.T) {
	findings := []*links.BrokenLinkFinding{
		finding("https://example.org/low", 25, links.ImportanceLow),
		finding("https://example.org/critical", 95, links.ImportanceCritical),
		finding("https://example.org/medium", 50, links.ImportanceMedium),
	}
	out := Render(sampleScan(), findings)

	critical := strings.Index(out, "https://example.org/critical")
	medium := strings.Index(out, "https://example.org/medium")
	low := strings.Index(out, "https://example.org/low")
	require.NotEqual(t, -1, critical)
	assert.Less(t, critical, medium)
	assert.Less(t, medium, low)
}

func TestRenderTiesKeepInputOrder(t *testing.T) {
	findings := []*links.BrokenLinkFinding{
		finding("https://example.org/first", 50, links.ImportanceMedium),
		finding("https://example.org/second", 50, links.ImportanceMedium),
	}
	out := Render(sampleScan(), findings)
	assert.Less(t, strings.Index(out, "/first"), strings.Index(out, "/second"))
}

func TestRenderIsDeterministicAndPure(t *testing.T) {
	findings := []*links.BrokenLinkFinding{
		finding("https://example.org/a", 25, links.ImportanceLow),
		finding("https://example.org/b", 95, links.ImportanceCritical),
	}
	first := Render(sampleScan(), findings)
	second := Render(sampleScan(), findings)
	assert.Equal(t, first, second)
	// Input slice order is untouched.
	assert.Equal(t, "https://example.org/a", findings[0].URL)
}

func TestRenderSummaryBlock(t *testing.T) {
	out := Render(sampleScan(), nil)
	assert.Contains(t, out, "Total links:  10")
	assert.Contains(t, out, "Broken links: 3")
	assert.Contains(t, out, "Health score: 70/100")
	assert.Contains(t, out, "Status:       completed")
}

func TestRenderUnreachableLink(t *testing.T) {
	f := finding("https://example.org/gone", 50, links.ImportanceMedium)
	f.StatusCode = nil
	out := Render(sampleScan(), []*links.BrokenLinkFinding{f})
	assert.Contains(t, out, "Status:     unreachable")
}
