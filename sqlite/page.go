package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/fwojciec/seoaudit"
	"github.com/google/uuid"
)

var _ seoaudit.PageService = (*PageService)(nil)

// PageService implements seoaudit.PageService using SQLite.
type PageService struct {
	db *DB
}

// NewPageService creates a new PageService.
func NewPageService(db *DB) *PageService {
	return &PageService{db: db}
}

const pageColumns = `id, audit_id, position, url, status, depth, final_url, redirects,
	canonical, canonical_status, robots_meta, noindex, nofollow, x_noindex, x_nofollow,
	title, title_issue, description, description_issue, h1_count, images, images_missing_alt,
	internal_links, external_links, broken_internal_links, word_count, is_html, content_hash,
	tokens, metrics, advice, advice_error, fetch_error, created_at`

// CreatePage saves a page report and assigns its ID.
func (s *PageService) CreatePage(ctx context.Context, page *seoaudit.PageReport) error {
	return s.CreatePages(ctx, []*seoaudit.PageReport{page})
}

// CreatePages saves page reports in a single transaction and assigns their
// IDs. Either every page is saved or none is.
func (s *PageService) CreatePages(ctx context.Context, pages []*seoaudit.PageReport) error {
	for _, page := range pages {
		if page.AuditID == "" {
			return seoaudit.Errorf(seoaudit.EINVALID, "audit ID required")
		}
		if page.URL == "" {
			return seoaudit.Errorf(seoaudit.EINVALID, "page URL required")
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, page := range pages {
		if err := insertPage(ctx, tx, page, now); err != nil {
			for _, p := range pages {
				p.ID = ""
				p.CreatedAt = time.Time{}
			}
			return err
		}
	}
	return tx.Commit()
}

func insertPage(ctx context.Context, tx *sql.Tx, page *seoaudit.PageReport, now time.Time) error {
	page.ID = uuid.New().String()
	page.CreatedAt = now

	metrics, err := marshalJSON(page.Metrics, "metrics")
	if err != nil {
		return err
	}
	var advice sql.NullString
	if page.Advice != nil {
		encoded, err := marshalJSON(page.Advice, "advice")
		if err != nil {
			return err
		}
		advice = sql.NullString{String: encoded, Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO pages (`+pageColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, page.ID, page.AuditID, page.Position, page.URL, page.Status, page.Depth, page.FinalURL, page.Redirects,
		page.Canonical, page.CanonicalStatus, page.RobotsMeta, page.Noindex, page.Nofollow, page.XNoindex, page.XNofollow,
		page.Title, page.TitleIssue, page.Description, page.DescriptionIssue, page.H1Count, page.Images, page.ImagesMissingAlt,
		page.InternalLinks, page.ExternalLinks, page.BrokenInternalLinks, page.WordCount, page.IsHTML, page.ContentHash,
		page.Tokens, metrics, advice, page.AdviceError, page.FetchError, formatTime(page.CreatedAt))
	if err != nil && strings.Contains(err.Error(), "FOREIGN KEY") {
		return seoaudit.Errorf(seoaudit.ENOTFOUND, "audit not found")
	}
	return err
}

// FindPages retrieves pages matching the filter, ordered by position.
func (s *PageService) FindPages(ctx context.Context, filter seoaudit.PageFilter) ([]*seoaudit.PageReport, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT " + pageColumns + " FROM pages WHERE 1=1")

	if filter.AuditID != nil {
		query.WriteString(" AND audit_id = ?")
		args = append(args, *filter.AuditID)
	}
	if filter.URL != nil {
		query.WriteString(" AND url = ?")
		args = append(args, *filter.URL)
	}

	query.WriteString(" ORDER BY audit_id, position")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []*seoaudit.PageReport
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}
	return pages, rows.Err()
}

// DeletePagesByAudit removes all pages of an audit.
func (s *PageService) DeletePagesByAudit(ctx context.Context, auditID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM pages WHERE audit_id = ?", auditID)
	return err
}

func scanPage(row scanner) (*seoaudit.PageReport, error) {
	var p seoaudit.PageReport
	var metrics, createdAt string
	var advice sql.NullString

	if err := row.Scan(&p.ID, &p.AuditID, &p.Position, &p.URL, &p.Status, &p.Depth, &p.FinalURL, &p.Redirects,
		&p.Canonical, &p.CanonicalStatus, &p.RobotsMeta, &p.Noindex, &p.Nofollow, &p.XNoindex, &p.XNofollow,
		&p.Title, &p.TitleIssue, &p.Description, &p.DescriptionIssue, &p.H1Count, &p.Images, &p.ImagesMissingAlt,
		&p.InternalLinks, &p.ExternalLinks, &p.BrokenInternalLinks, &p.WordCount, &p.IsHTML, &p.ContentHash,
		&p.Tokens, &metrics, &advice, &p.AdviceError, &p.FetchError, &createdAt); err != nil {
		return nil, err
	}

	if err := unmarshalJSON(metrics, &p.Metrics, "metrics"); err != nil {
		return nil, err
	}
	if advice.Valid {
		p.Advice = &seoaudit.Advice{}
		if err := unmarshalJSON(advice.String, p.Advice, "advice"); err != nil {
			return nil, err
		}
	}

	var err error
	if p.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return nil, err
	}
	return &p, nil
}
