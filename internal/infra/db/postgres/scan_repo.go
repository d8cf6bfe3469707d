package postgres

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/bryanwahyu/linkhealth/internal/domain/scans"
)

type ScanRepository struct {
	db *sql.DB
}

func NewScanRepository(db *sql.DB) *ScanRepository {
	return &ScanRepository{db: db}
}

func (r *ScanRepository) Create(ctx context.Context, s *domain.Scan) error {
	const q = `
INSERT INTO link_scans
(id, tenant_id, website_id, trigger_kind, triggered_by, status, started_at,
 total_links, broken_links, health_score, error_message, artifact_url)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12);
`
	started := s.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		s.ID, s.TenantID, s.WebsiteID, s.Trigger, s.TriggeredBy, s.Status, started,
		s.TotalLinks, s.BrokenLinks, s.HealthScore, s.ErrorMessage, s.ArtifactURL,
	)
	return err
}

func (r *ScanRepository) Complete(ctx context.Context, tenant string, id domain.ScanID, totalLinks, brokenLinks, healthScore int, completedAt time.Time) error {
	const q = `
UPDATE link_scans
SET status = $1, total_links = $2, broken_links = $3, health_score = $4, completed_at = $5
WHERE tenant_id = $6 AND id = $7;`
	_, err := r.db.ExecContext(ctx, q,
		domain.StatusCompleted, totalLinks, brokenLinks, healthScore, completedAt, tenant, id,
	)
	return err
}

func (r *ScanRepository) Fail(ctx context.Context, tenant string, id domain.ScanID, message string) error {
	const q = `
UPDATE link_scans
SET status = $1, error_message = $2, completed_at = $3
WHERE tenant_id = $4 AND id = $5;`
	_, err := r.db.ExecContext(ctx, q, domain.StatusFailed, message, time.Now(), tenant, id)
	return err
}

func (r *ScanRepository) SetArtifact(ctx context.Context, tenant string, id domain.ScanID, url string) error {
	const q = `UPDATE link_scans SET artifact_url = $1 WHERE tenant_id = $2 AND id = $3;`
	_, err := r.db.ExecContext(ctx, q, url, tenant, id)
	return err
}

func (r *ScanRepository) Get(ctx context.Context, tenant string, id domain.ScanID) (*domain.Scan, error) {
	const q = `
SELECT id, tenant_id, website_id, trigger_kind, triggered_by, status, started_at,
       completed_at, total_links, broken_links, health_score, error_message, artifact_url
FROM link_scans
WHERE tenant_id=$1 AND id=$2 LIMIT 1;
`
	return scanRow(r.db.QueryRowContext(ctx, q, tenant, id))
}

func (r *ScanRepository) Latest(ctx context.Context, tenant string, limit int) ([]*domain.Scan, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, tenant_id, website_id, trigger_kind, triggered_by, status, started_at,
       completed_at, total_links, broken_links, health_score, error_message, artifact_url
FROM link_scans
WHERE tenant_id=$1 ORDER BY started_at DESC LIMIT $2;
`
	rows, err := r.db.QueryContext(ctx, q, tenant, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Scan
	for rows.Next() {
		s, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRow(row rowScanner) (*domain.Scan, error) {
	var s domain.Scan
	var completed sql.NullTime
	var errMsg, artifact sql.NullString
	if err := row.Scan(
		&s.ID, &s.TenantID, &s.WebsiteID, &s.Trigger, &s.TriggeredBy, &s.Status, &s.StartedAt,
		&completed, &s.TotalLinks, &s.BrokenLinks, &s.HealthScore, &errMsg, &artifact,
	); err != nil {
		return nil, err
	}
	if completed.Valid {
		t := completed.Time
		s.CompletedAt = &t
	}
	s.ErrorMessage = errMsg.String
	s.ArtifactURL = artifact.String
	return &s, nil
}
