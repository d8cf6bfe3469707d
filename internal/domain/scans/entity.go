package scans

import (
	"math"
	"time"
)

// ID tipe untuk Scan
type ScanID string

// TriggerKind enum
type TriggerKind string

const (
	TriggerScheduled TriggerKind = "scheduled"
	TriggerManual    TriggerKind = "manual"
)

// Status enum. Running is the only non-terminal state; a scan always ends
// completed or failed, never stays running.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Aggregate Root: Scan
type Scan struct {
	ID           ScanID      `json:"id"`
	TenantID     string      `json:"tenant_id"`
	WebsiteID    string      `json:"website_id"`
	Trigger      TriggerKind `json:"trigger"`
	TriggeredBy  string      `json:"triggered_by,omitempty"`
	Status       Status      `json:"status"`
	StartedAt    time.Time   `json:"started_at"`
	CompletedAt  *time.Time  `json:"completed_at,omitempty"`
	TotalLinks   int         `json:"total_links"`
	BrokenLinks  int         `json:"broken_links"`
	HealthScore  int         `json:"health_score"`
	ErrorMessage string      `json:"error_message,omitempty"`
	ArtifactURL  string      `json:"artifact_url,omitempty"`
}

// HealthScore summarizes the fraction of links that resolve, 0..100.
// An empty crawl counts as perfectly healthy.
func HealthScore(totalLinks, brokenLinks int) int {
	if totalLinks == 0 {
		return 100
	}
	score := int(math.Round((1 - float64(brokenLinks)/float64(totalLinks)) * 100))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
