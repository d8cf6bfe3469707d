package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/bryanwahyu/linkhealth/internal/domain/links"
)

type LinkRepository struct {
	db *sql.DB
}

func NewLinkRepository(db *sql.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

func (r *LinkRepository) CreateBrokenLink(ctx context.Context, f *links.BrokenLinkFinding) error {
	const q = `
INSERT INTO broken_links
(scan_id, url, status_code, found_on, link_text, html_context, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING id;
`
	return r.db.QueryRowContext(ctx, q,
		f.ScanID, f.URL, f.StatusCode, f.FoundOn, f.LinkText, f.HTMLContext, time.Now(),
	).Scan(&f.ID)
}

func (r *LinkRepository) UpdateWithAnalysis(ctx context.Context, id int64, a *links.AnalysisResult, priorityScore int, isCritical bool) error {
	fixes, err := json.Marshal(a.SuggestedFixes)
	if err != nil {
		return err
	}
	const q = `
UPDATE broken_links
SET intended_destination = $1,
    link_purpose = $2,
    importance = $3,
    business_impact = $4,
    suggested_fixes = $5,
    reasoning = $6,
    priority_score = $7,
    is_critical = $8
WHERE id = $9;`
	_, err = r.db.ExecContext(ctx, q,
		a.IntendedDestination, a.LinkPurpose, a.Importance, a.BusinessImpact,
		string(fixes), a.Reasoning, priorityScore, isCritical, id,
	)
	return err
}

func (r *LinkRepository) ListByScan(ctx context.Context, scanID string) ([]*links.BrokenLinkFinding, error) {
	const q = `
SELECT id, scan_id, url, status_code, found_on, link_text, html_context,
       intended_destination, link_purpose, importance, business_impact,
       suggested_fixes, reasoning, priority_score, is_critical
FROM broken_links
WHERE scan_id = $1
ORDER BY priority_score DESC, id ASC;
`
	rows, err := r.db.QueryContext(ctx, q, scanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*links.BrokenLinkFinding
	for rows.Next() {
		f, err := scanFinding(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func scanFinding(rows *sql.Rows) (*links.BrokenLinkFinding, error) {
	var (
		f          links.BrokenLinkFinding
		status     sql.NullInt64
		dest       sql.NullString
		purpose    sql.NullString
		importance sql.NullString
		impact     sql.NullString
		fixes      sql.NullString
		reasoning  sql.NullString
		priority   sql.NullInt64
	)
	if err := rows.Scan(
		&f.ID, &f.ScanID, &f.URL, &status, &f.FoundOn, &f.LinkText, &f.HTMLContext,
		&dest, &purpose, &importance, &impact, &fixes, &reasoning, &priority, &f.IsCritical,
	); err != nil {
		return nil, err
	}
	if status.Valid {
		code := int(status.Int64)
		f.StatusCode = &code
	}
	if importance.Valid && importance.String != "" {
		a := &links.AnalysisResult{
			IntendedDestination: dest.String,
			LinkPurpose:         purpose.String,
			Importance:          links.Importance(importance.String),
			BusinessImpact:      impact.String,
			Reasoning:           reasoning.String,
			PriorityScore:       int(priority.Int64),
			SuggestedFixes:      []string{},
		}
		if fixes.Valid && fixes.String != "" {
			_ = json.Unmarshal([]byte(fixes.String), &a.SuggestedFixes)
		}
		f.Analysis = a
	}
	return &f, nil
}
