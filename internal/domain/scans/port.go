package scans

import (
	"context"
	"time"

	"github.com/bryanwahyu/linkhealth/internal/domain/links"
)

// Repository port (interface untuk persistence)
type Repository interface {
	Create(ctx context.Context, s *Scan) error
	Complete(ctx context.Context, tenant string, id ScanID, totalLinks, brokenLinks, healthScore int, completedAt time.Time) error
	Fail(ctx context.Context, tenant string, id ScanID, message string) error
	SetArtifact(ctx context.Context, tenant string, id ScanID, url string) error
	Get(ctx context.Context, tenant string, id ScanID) (*Scan, error)
	Latest(ctx context.Context, tenant string, limit int) ([]*Scan, error)
}

// CrawlOptions untuk Crawler. Timeout is handed to the crawler verbatim.
type CrawlOptions struct {
	StartURL string
	Recurse  bool
	Timeout  time.Duration
}

// Crawler port (the external link-discovery collaborator)
type Crawler interface {
	Check(ctx context.Context, opts CrawlOptions) ([]links.LinkResult, error)
}

// Analyzer port. AnalyzeOne never fails: a degraded analysis is still an analysis.
type Analyzer interface {
	AnalyzeOne(ctx context.Context, in links.AnalysisInput) *links.AnalysisResult
}

// ArchiveLookup port. False means "no suggestion", whatever the reason.
type ArchiveLookup interface {
	Lookup(ctx context.Context, url string) (string, bool)
}

// ArtifactStore port (interface untuk penyimpanan laporan)
type ArtifactStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
