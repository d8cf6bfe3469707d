package scans

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/linkhealth/internal/application"
	"github.com/bryanwahyu/linkhealth/internal/application/analysis"
	"github.com/bryanwahyu/linkhealth/internal/application/report"
	"github.com/bryanwahyu/linkhealth/internal/domain/links"
	domain "github.com/bryanwahyu/linkhealth/internal/domain/scans"
)

// LinkDelay paces the per-link unit of work (analysis + lookup + persistence).
// Shared budget with the analyzer's own batch delay: the orchestrator calls
// AnalyzeOne inside its paced loop, so only one delay applies per link.
const LinkDelay = 1000 * time.Millisecond

// Service implements the scan use-cases. One Run owns its scan row and
// finding rows exclusively until it returns; there is no concurrent writer.
type Service struct {
	Repo      domain.Repository
	Links     links.Repository
	Crawler   domain.Crawler
	Analyzer  domain.Analyzer
	Archive   domain.ArchiveLookup // optional, nil disables lookups
	Artifacts domain.ArtifactStore // optional, nil disables report upload
	Clock     application.Clock
	Pacer     *application.Pacer
}

// Command untuk trigger scan
type TriggerScanCommand struct {
	TenantID      string
	WebsiteID     string
	StartURL      string
	Recurse       bool
	Timeout       time.Duration
	Trigger       domain.TriggerKind
	TriggeredBy   string
	ArchiveLookup bool
}

type TriggerScanResult struct {
	ScanID      domain.ScanID              `json:"scan_id"`
	TotalLinks  int                        `json:"total_links"`
	BrokenLinks int                        `json:"broken_links"`
	HealthScore int                        `json:"health_score"`
	Duration    time.Duration              `json:"duration_ms"`
	Findings    []*links.BrokenLinkFinding `json:"findings"`
}

// RunUntilDone executes a scan on context.Background(), for callers that hand
// the work to a goroutine and must not inherit a request context.
func (s *Service) RunUntilDone(cmd TriggerScanCommand) (TriggerScanResult, error) {
	return s.Run(context.Background(), cmd)
}

// Run drives one full scan: create row → crawl → analyze each broken link →
// health score → complete. Per-link failures are skipped; bootstrap and
// finalization failures propagate.
func (s *Service) Run(ctx context.Context, cmd TriggerScanCommand) (TriggerScanResult, error) {
	start := s.Clock.Now()

	scan := &domain.Scan{
		ID:          domain.ScanID(uuid.New().String()),
		TenantID:    cmd.TenantID,
		WebsiteID:   cmd.WebsiteID,
		Trigger:     cmd.Trigger,
		TriggeredBy: cmd.TriggeredBy,
		Status:      domain.StatusRunning,
		StartedAt:   start,
	}
	if err := s.Repo.Create(ctx, scan); err != nil {
		// No row exists yet, nothing to mark failed.
		return TriggerScanResult{}, fmt.Errorf("creating scan record: %w", err)
	}

	results, err := s.Crawler.Check(ctx, domain.CrawlOptions{
		StartURL: cmd.StartURL,
		Recurse:  cmd.Recurse,
		Timeout:  cmd.Timeout,
	})
	if err != nil {
		if ferr := s.Repo.Fail(context.Background(), cmd.TenantID, scan.ID, err.Error()); ferr != nil {
			log.Printf("marking scan failed scan=%s err=%v", scan.ID, ferr)
		}
		return TriggerScanResult{}, fmt.Errorf("crawling %s: %w", cmd.StartURL, err)
	}

	var broken []links.LinkResult
	for _, lr := range results {
		if lr.Broken {
			broken = append(broken, lr)
		}
	}

	findings := make([]*links.BrokenLinkFinding, 0, len(broken))
	pacer := s.Pacer
	if pacer == nil {
		pacer = application.NewPacer(LinkDelay)
	}
	for _, lr := range broken {
		if err := pacer.Wait(ctx); err != nil {
			log.Printf("scan pacing interrupted scan=%s err=%v", scan.ID, err)
			break
		}
		f, err := s.processLink(ctx, scan, lr, cmd.ArchiveLookup)
		if err != nil {
			// Isolation boundary: one bad link never aborts the batch.
			log.Printf("skipping broken link scan=%s url=%s err=%v", scan.ID, lr.URL, err)
			continue
		}
		findings = append(findings, f)
	}

	total := len(results)
	health := domain.HealthScore(total, len(broken))
	completedAt := s.Clock.Now()
	if err := s.Repo.Complete(ctx, cmd.TenantID, scan.ID, total, len(broken), health, completedAt); err != nil {
		return TriggerScanResult{}, fmt.Errorf("completing scan %s: %w", scan.ID, err)
	}
	scan.Status = domain.StatusCompleted
	scan.CompletedAt = &completedAt
	scan.TotalLinks = total
	scan.BrokenLinks = len(broken)
	scan.HealthScore = health

	s.uploadReport(ctx, scan, findings)

	return TriggerScanResult{
		ScanID:      scan.ID,
		TotalLinks:  total,
		BrokenLinks: len(broken),
		HealthScore: health,
		Duration:    completedAt.Sub(start),
		Findings:    findings,
	}, nil
}

// processLink is the per-link unit of work behind the isolation boundary.
func (s *Service) processLink(ctx context.Context, scan *domain.Scan, lr links.LinkResult, archive bool) (*links.BrokenLinkFinding, error) {
	linkText := lr.LinkText
	htmlContext := ""
	if linkText == "" {
		linkText, htmlContext = analysis.ExtractContext(lr.URL)
	}

	res := s.Analyzer.AnalyzeOne(ctx, links.AnalysisInput{
		URL:         lr.URL,
		StatusCode:  lr.Status,
		FoundOn:     lr.Parent,
		LinkText:    linkText,
		HTMLContext: htmlContext,
	})

	if archive && s.Archive != nil {
		if snapshot, ok := s.Archive.Lookup(ctx, lr.URL); ok {
			res.SuggestedFixes = append([]string{snapshot}, res.SuggestedFixes...)
			if len(res.SuggestedFixes) > links.MaxSuggestedFixes {
				res.SuggestedFixes = res.SuggestedFixes[:links.MaxSuggestedFixes]
			}
		}
	}

	f := &links.BrokenLinkFinding{
		ScanID:      string(scan.ID),
		URL:         lr.URL,
		FoundOn:     lr.Parent,
		StatusCode:  lr.Status,
		LinkText:    linkText,
		HTMLContext: htmlContext,
	}
	if err := s.Links.CreateBrokenLink(ctx, f); err != nil {
		return nil, fmt.Errorf("persisting broken link: %w", err)
	}

	isCritical := res.Importance == links.ImportanceCritical
	if err := s.Links.UpdateWithAnalysis(ctx, f.ID, res, res.PriorityScore, isCritical); err != nil {
		return nil, fmt.Errorf("persisting analysis: %w", err)
	}
	f.Analysis = res
	f.IsCritical = isCritical
	return f, nil
}

// uploadReport stores the rendered report as a scan artifact. Best effort:
// the report is derivable from the rows, so a failed upload only logs.
func (s *Service) uploadReport(ctx context.Context, scan *domain.Scan, findings []*links.BrokenLinkFinding) {
	if s.Artifacts == nil {
		return
	}
	key := fmt.Sprintf("%s/%s/report.txt", scan.TenantID, scan.ID)
	url, err := s.Artifacts.Upload(ctx, key, []byte(report.Render(scan, findings)), "text/plain")
	if err != nil {
		log.Printf("report upload failed scan=%s err=%v", scan.ID, err)
		return
	}
	if err := s.Repo.SetArtifact(ctx, scan.TenantID, scan.ID, url); err != nil {
		log.Printf("saving artifact url failed scan=%s err=%v", scan.ID, err)
		return
	}
	scan.ArtifactURL = url
}

// Latest ambil N scan terakhir
func (s *Service) Latest(ctx context.Context, tenant string, limit int) ([]*domain.Scan, error) {
	return s.Repo.Latest(ctx, tenant, limit)
}

// Get ambil 1 scan by id
func (s *Service) Get(ctx context.Context, tenant string, id domain.ScanID) (*domain.Scan, error) {
	return s.Repo.Get(ctx, tenant, id)
}

// Findings lists the persisted broken links for a scan.
func (s *Service) Findings(ctx context.Context, tenant string, id domain.ScanID) ([]*links.BrokenLinkFinding, error) {
	// Ownership check happens via the scan lookup; findings are keyed by scan only.
	if _, err := s.Repo.Get(ctx, tenant, id); err != nil {
		return nil, err
	}
	return s.Links.ListByScan(ctx, string(id))
}

// Report renders the stored scan as text.
func (s *Service) Report(ctx context.Context, tenant string, id domain.ScanID) (string, error) {
	scan, err := s.Repo.Get(ctx, tenant, id)
	if err != nil {
		return "", err
	}
	findings, err := s.Links.ListByScan(ctx, string(id))
	if err != nil {
		return "", err
	}
	return report.Render(scan, findings), nil
}
