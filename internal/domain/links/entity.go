package links

// Importance enum
type Importance string

const (
	ImportanceCritical Importance = "critical"
	ImportanceHigh     Importance = "high"
	ImportanceMedium   Importance = "medium"
	ImportanceLow      Importance = "low"
)

// Valid reports whether the importance is one of the four known tiers.
func (i Importance) Valid() bool {
	switch i {
	case ImportanceCritical, ImportanceHigh, ImportanceMedium, ImportanceLow:
		return true
	}
	return false
}

// MaxSuggestedFixes caps the fix list on every analysis result.
const MaxSuggestedFixes = 3

// LinkResult is one link as reported by the crawler. The core only reads it.
type LinkResult struct {
	URL      string `json:"url"`
	Parent   string `json:"parent"`
	Status   *int   `json:"status,omitempty"`
	Broken   bool   `json:"broken"`
	LinkText string `json:"link_text,omitempty"`
}

// AnalysisInput is everything the analyzer gets to look at for one broken link.
type AnalysisInput struct {
	URL         string
	StatusCode  *int
	FoundOn     string
	PageTitle   string
	LinkText    string
	HTMLContext string
}

// AnalysisResult is the AI response contract and the persisted shape.
type AnalysisResult struct {
	IntendedDestination string     `json:"intendedDestination"`
	LinkPurpose         string     `json:"linkPurpose"`
	Importance          Importance `json:"importance"`
	BusinessImpact      string     `json:"businessImpact"`
	SuggestedFixes      []string   `json:"suggestedFixes"`
	Reasoning           string     `json:"reasoning"`
	PriorityScore       int        `json:"priorityScore"`
}

// Normalize forces the invariants: importance in the enum, score in [0,100],
// at most MaxSuggestedFixes fixes.
func (a *AnalysisResult) Normalize() {
	if !a.Importance.Valid() {
		a.Importance = ImportanceMedium
	}
	a.PriorityScore = ClampScore(a.PriorityScore)
	if len(a.SuggestedFixes) > MaxSuggestedFixes {
		a.SuggestedFixes = a.SuggestedFixes[:MaxSuggestedFixes]
	}
}

// ClampScore bounds a priority score to [0,100].
func ClampScore(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

// Aggregate: BrokenLinkFinding
type BrokenLinkFinding struct {
	ID          int64           `json:"id"`
	ScanID      string          `json:"scan_id"`
	URL         string          `json:"url"`
	FoundOn     string          `json:"found_on"`
	StatusCode  *int            `json:"status_code,omitempty"`
	LinkText    string          `json:"link_text,omitempty"`
	HTMLContext string          `json:"html_context,omitempty"`
	Analysis    *AnalysisResult `json:"analysis,omitempty"`
	IsCritical  bool            `json:"is_critical"`
}

// PriorityScore is the score of the attached analysis, 0 when not analyzed yet.
func (f *BrokenLinkFinding) PriorityScore() int {
	if f.Analysis == nil {
		return 0
	}
	return f.Analysis.PriorityScore
}
