package scans

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/linkhealth/internal/application"
	"github.com/bryanwahyu/linkhealth/internal/application/analysis"
	"github.com/bryanwahyu/linkhealth/internal/domain/links"
	domain "github.com/bryanwahyu/linkhealth/internal/domain/scans"
)

//
// ==== FAKES ====
//

type fakeScanRepo struct {
	created     *domain.Scan
	createErr   error
	completed   bool
	completeErr error
	total       int
	broken      int
	health      int
	failed      bool
	failMsg     string
	artifactURL string
}

func (r *fakeScanRepo) Create(_ context.Context, s *domain.Scan) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.created = s
	return nil
}

func (r *fakeScanRepo) Complete(_ context.Context, _ string, _ domain.ScanID, total, broken, health int, _ time.Time) error {
	if r.completeErr != nil {
		return r.completeErr
	}
	r.completed = true
	r.total, r.broken, r.health = total, broken, health
	return nil
}

func (r *fakeScanRepo) Fail(_ context.Context, _ string, _ domain.ScanID, message string) error {
	r.failed = true
	r.failMsg = message
	return nil
}

func (r *fakeScanRepo) SetArtifact(_ context.Context, _ string, _ domain.ScanID, url string) error {
	r.artifactURL = url
	return nil
}

func (r *fakeScanRepo) Get(_ context.Context, _ string, _ domain.ScanID) (*domain.Scan, error) {
	return r.created, nil
}

func (r *fakeScanRepo) Latest(_ context.Context, _ string, _ int) ([]*domain.Scan, error) {
	return nil, nil
}

type fakeLinkRepo struct {
	nextID      int64
	createCalls int
	failCreate  int // 1-based call index that errors, 0 disables
	created     []*links.BrokenLinkFinding
	updated     map[int64]*links.AnalysisResult
}

func (r *fakeLinkRepo) CreateBrokenLink(_ context.Context, f *links.BrokenLinkFinding) error {
	r.createCalls++
	if r.failCreate != 0 && r.createCalls == r.failCreate {
		return errors.New("insert failed")
	}
	r.nextID++
	f.ID = r.nextID
	r.created = append(r.created, f)
	return nil
}

func (r *fakeLinkRepo) UpdateWithAnalysis(_ context.Context, id int64, a *links.AnalysisResult, _ int, _ bool) error {
	if r.updated == nil {
		r.updated = map[int64]*links.AnalysisResult{}
	}
	r.updated[id] = a
	return nil
}

func (r *fakeLinkRepo) ListByScan(_ context.Context, _ string) ([]*links.BrokenLinkFinding, error) {
	return r.created, nil
}

type fakeCrawler struct {
	results []links.LinkResult
	err     error
}

func (c *fakeCrawler) Check(_ context.Context, _ domain.CrawlOptions) ([]links.LinkResult, error) {
	return c.results, c.err
}

type fakeArchive struct {
	url string
	ok  bool
}

func (a *fakeArchive) Lookup(_ context.Context, _ string) (string, bool) { return a.url, a.ok }

type fakeArtifacts struct {
	key string
	err error
}

func (a *fakeArtifacts) Upload(_ context.Context, key string, _ []byte, _ string) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	a.key = key
	return "http://minio.local/reports/" + key, nil
}

// erroringAI always fails the model call so every analysis lands on the fallback.
type erroringAI struct{}

func (erroringAI) Generate(context.Context, string) (string, error) {
	return "", errors.New("connection reset")
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

//
// ==== HELPERS ====
//

func status(code int) *int { return &code }

func crawlResults() []links.LinkResult {
	return []links.LinkResult{
		{URL: "https://example.org/", Parent: "https://example.org/home", Status: status(200)},
		{URL: "https://example.org/ok", Parent: "https://example.org/", Status: status(200)},
		{URL: "https://example.org/donate", Parent: "https://example.org/", Status: status(404), Broken: true, LinkText: "Donate Now"},
		{URL: "https://example.org/archive/2019", Parent: "https://example.org/events", Status: status(410), Broken: true},
		{URL: "https://example.org/team", Parent: "https://example.org/about", Broken: true},
	}
}

func newService(repo *fakeScanRepo, linkRepo *fakeLinkRepo, crawler *fakeCrawler) *Service {
	return &Service{
		Repo:     repo,
		Links:    linkRepo,
		Crawler:  crawler,
		Analyzer: analysis.New(erroringAI{}, func(links.AnalysisInput) string { return "" }),
		Clock:    fixedClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
		Pacer:    application.NewPacer(0),
	}
}

//
// ==== TESTS ====
//

func TestRunCompletesWithFallbackWhenAIFails(t *testing.T) {
	repo := &fakeScanRepo{}
	linkRepo := &fakeLinkRepo{}
	svc := newService(repo, linkRepo, &fakeCrawler{results: crawlResults()})

	res, err := svc.Run(context.Background(), TriggerScanCommand{
		TenantID:  "acme",
		WebsiteID: "site-1",
		StartURL:  "https://example.org",
		Trigger:   domain.TriggerManual,
	})
	require.NoError(t, err)

	// Every broken link yields a finding even though the model never answered.
	require.Len(t, res.Findings, 3)
	for _, f := range res.Findings {
		require.NotNil(t, f.Analysis)
		assert.True(t, f.Analysis.Importance.Valid())
		assert.GreaterOrEqual(t, f.Analysis.PriorityScore, 0)
		assert.LessOrEqual(t, f.Analysis.PriorityScore, 100)
	}
	// Donate link took the critical fallback rule.
	assert.Equal(t, links.ImportanceCritical, res.Findings[0].Analysis.Importance)
	assert.Equal(t, 95, res.Findings[0].Analysis.PriorityScore)
	assert.True(t, res.Findings[0].IsCritical)

	assert.True(t, repo.completed)
	assert.False(t, repo.failed)
	assert.Equal(t, 5, repo.total)
	assert.Equal(t, 3, repo.broken)
	assert.Equal(t, domain.HealthScore(5, 3), repo.health)
	assert.Equal(t, 5, res.TotalLinks)
	assert.Equal(t, 3, res.BrokenLinks)
}

func TestRunExtractsContextWhenCrawlerGaveNone(t *testing.T) {
	repo := &fakeScanRepo{}
	linkRepo := &fakeLinkRepo{}
	svc := newService(repo, linkRepo, &fakeCrawler{results: []links.LinkResult{
		{URL: "https://example.org/our-programs/youth-services.html", Parent: "https://example.org/", Status: status(404), Broken: true},
	}})

	res, err := svc.Run(context.Background(), TriggerScanCommand{TenantID: "acme", StartURL: "https://example.org"})
	require.NoError(t, err)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, "Youth Services", res.Findings[0].LinkText)
}

func TestRunPersistFailureSkipsOnlyThatLink(t *testing.T) {
	repo := &fakeScanRepo{}
	linkRepo := &fakeLinkRepo{failCreate: 2}
	svc := newService(repo, linkRepo, &fakeCrawler{results: crawlResults()})

	res, err := svc.Run(context.Background(), TriggerScanCommand{TenantID: "acme", StartURL: "https://example.org"})
	require.NoError(t, err)

	require.Len(t, res.Findings, 2)
	assert.Equal(t, "https://example.org/donate", res.Findings[0].URL)
	assert.Equal(t, "https://example.org/team", res.Findings[1].URL)

	// The skip is invisible to the aggregate outcome.
	assert.True(t, repo.completed)
	assert.Equal(t, 3, repo.broken)
}

func TestRunCrawlFailureMarksScanFailed(t *testing.T) {
	repo := &fakeScanRepo{}
	svc := newService(repo, &fakeLinkRepo{}, &fakeCrawler{err: errors.New("dns lookup failed")})

	_, err := svc.Run(context.Background(), TriggerScanCommand{TenantID: "acme", StartURL: "https://example.org"})
	require.Error(t, err)
	assert.True(t, repo.failed)
	assert.Contains(t, repo.failMsg, "dns lookup failed")
	assert.False(t, repo.completed)
}

func TestRunCreateFailurePropagates(t *testing.T) {
	repo := &fakeScanRepo{createErr: errors.New("db down")}
	crawler := &fakeCrawler{results: crawlResults()}
	svc := newService(repo, &fakeLinkRepo{}, crawler)

	_, err := svc.Run(context.Background(), TriggerScanCommand{TenantID: "acme", StartURL: "https://example.org"})
	require.Error(t, err)
	// No row exists, so nothing may be marked failed.
	assert.False(t, repo.failed)
}

func TestRunCompleteFailurePropagates(t *testing.T) {
	repo := &fakeScanRepo{completeErr: errors.New("db down")}
	svc := newService(repo, &fakeLinkRepo{}, &fakeCrawler{results: crawlResults()})

	_, err := svc.Run(context.Background(), TriggerScanCommand{TenantID: "acme", StartURL: "https://example.org"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "completing scan")
}

func TestRunNoLinksIsPerfectlyHealthy(t *testing.T) {
	repo := &fakeScanRepo{}
	svc := newService(repo, &fakeLinkRepo{}, &fakeCrawler{})

	res, err := svc.Run(context.Background(), TriggerScanCommand{TenantID: "acme", StartURL: "https://example.org"})
	require.NoError(t, err)
	assert.Equal(t, 100, res.HealthScore)
	assert.Empty(t, res.Findings)
	assert.True(t, repo.completed)
}

func TestRunArchiveSnapshotPrepended(t *testing.T) {
	repo := &fakeScanRepo{}
	linkRepo := &fakeLinkRepo{}
	svc := newService(repo, linkRepo, &fakeCrawler{results: crawlResults()})
	svc.Archive = &fakeArchive{url: "https://web.archive.org/web/2024/https://example.org/donate", ok: true}

	res, err := svc.Run(context.Background(), TriggerScanCommand{
		TenantID:      "acme",
		StartURL:      "https://example.org",
		ArchiveLookup: true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.Findings)
	fixes := res.Findings[0].Analysis.SuggestedFixes
	require.NotEmpty(t, fixes)
	assert.Equal(t, "https://web.archive.org/web/2024/https://example.org/donate", fixes[0])
	assert.LessOrEqual(t, len(fixes), links.MaxSuggestedFixes)
}

func TestRunArchiveMissSameAsDisabled(t *testing.T) {
	run := func(archive domain.ArchiveLookup, enabled bool) []string {
		repo := &fakeScanRepo{}
		svc := newService(repo, &fakeLinkRepo{}, &fakeCrawler{results: crawlResults()})
		svc.Archive = archive
		res, err := svc.Run(context.Background(), TriggerScanCommand{
			TenantID:      "acme",
			StartURL:      "https://example.org",
			ArchiveLookup: enabled,
		})
		require.NoError(t, err)
		require.NotEmpty(t, res.Findings)
		return res.Findings[0].Analysis.SuggestedFixes
	}

	// A lookup failure (ok=false covers transport errors and "no snapshot"
	// alike) must produce the same fixes as no lookup at all.
	withFailedLookup := run(&fakeArchive{ok: false}, true)
	withDisabled := run(nil, false)
	assert.Equal(t, withDisabled, withFailedLookup)
}

func TestRunUploadsReportArtifact(t *testing.T) {
	repo := &fakeScanRepo{}
	artifacts := &fakeArtifacts{}
	svc := newService(repo, &fakeLinkRepo{}, &fakeCrawler{results: crawlResults()})
	svc.Artifacts = artifacts

	res, err := svc.Run(context.Background(), TriggerScanCommand{TenantID: "acme", StartURL: "https://example.org"})
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("acme/%s/report.txt", res.ScanID), artifacts.key)
	assert.Contains(t, repo.artifactURL, "report.txt")
}

func TestRunArtifactUploadFailureIsNotFatal(t *testing.T) {
	repo := &fakeScanRepo{}
	svc := newService(repo, &fakeLinkRepo{}, &fakeCrawler{results: crawlResults()})
	svc.Artifacts = &fakeArtifacts{err: errors.New("bucket gone")}

	_, err := svc.Run(context.Background(), TriggerScanCommand{TenantID: "acme", StartURL: "https://example.org"})
	require.NoError(t, err)
	assert.True(t, repo.completed)
}

func TestRunPersistedAnalysisRoundTrips(t *testing.T) {
	repo := &fakeScanRepo{}
	linkRepo := &fakeLinkRepo{}
	svc := newService(repo, linkRepo, &fakeCrawler{results: crawlResults()})

	res, err := svc.Run(context.Background(), TriggerScanCommand{TenantID: "acme", StartURL: "https://example.org"})
	require.NoError(t, err)

	for _, f := range res.Findings {
		stored, ok := linkRepo.updated[f.ID]
		require.True(t, ok, "finding %d was never updated with its analysis", f.ID)
		assert.Equal(t, f.Analysis, stored)
	}
}
