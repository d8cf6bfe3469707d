package links

import "context"

// Repository port (interface untuk persistence of findings)
type Repository interface {
	CreateBrokenLink(ctx context.Context, f *BrokenLinkFinding) error
	UpdateWithAnalysis(ctx context.Context, id int64, a *AnalysisResult, priorityScore int, isCritical bool) error
	ListByScan(ctx context.Context, scanID string) ([]*BrokenLinkFinding, error)
}
