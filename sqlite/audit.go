package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/fwojciec/seoaudit"
	"github.com/google/uuid"
)

var _ seoaudit.AuditService = (*AuditService)(nil)

// AuditService implements seoaudit.AuditService using SQLite.
type AuditService struct {
	db *DB

	// Now defaults to time.Now.
	Now func() time.Time
}

// NewAuditService creates a new AuditService.
func NewAuditService(db *DB) *AuditService {
	return &AuditService{db: db, Now: time.Now}
}

const auditColumns = "id, start_url, options, status, error, stats, created_at, updated_at, finished_at"

// CreateAudit stores a new pending audit and assigns its ID and timestamps.
func (s *AuditService) CreateAudit(ctx context.Context, audit *seoaudit.Audit) error {
	if err := audit.Validate(); err != nil {
		return err
	}

	audit.ID = uuid.New().String()
	audit.Status = seoaudit.AuditPending
	now := s.Now().UTC()
	audit.CreatedAt = now
	audit.UpdatedAt = now

	options, err := marshalJSON(audit.Options, "options")
	if err != nil {
		return err
	}
	stats, err := marshalJSON(audit.Stats, "stats")
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audits (id, start_url, options, status, error, stats, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, audit.ID, audit.StartURL, options, string(audit.Status), audit.Error, stats,
		formatTime(audit.CreatedAt), formatTime(audit.UpdatedAt))

	return err
}

// FindAuditByID retrieves an audit by ID.
func (s *AuditService) FindAuditByID(ctx context.Context, id string) (*seoaudit.Audit, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+auditColumns+" FROM audits WHERE id = ?", id)
	audit, err := scanAudit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, seoaudit.Errorf(seoaudit.ENOTFOUND, "audit not found")
	}
	return audit, err
}

// FindAudits retrieves audits matching the filter, newest first.
func (s *AuditService) FindAudits(ctx context.Context, filter seoaudit.AuditFilter) ([]*seoaudit.Audit, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT " + auditColumns + " FROM audits WHERE 1=1")

	if filter.ID != nil {
		query.WriteString(" AND id = ?")
		args = append(args, *filter.ID)
	}
	if filter.Status != nil {
		query.WriteString(" AND status = ?")
		args = append(args, string(*filter.Status))
	}

	query.WriteString(" ORDER BY created_at DESC, rowid DESC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var audits []*seoaudit.Audit
	for rows.Next() {
		audit, err := scanAudit(rows)
		if err != nil {
			return nil, err
		}
		audits = append(audits, audit)
	}
	return audits, rows.Err()
}

// UpdateAudit applies upd to an existing audit.
func (s *AuditService) UpdateAudit(ctx context.Context, id string, upd seoaudit.AuditUpdate) (*seoaudit.Audit, error) {
	audit, err := s.FindAuditByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Status != nil {
		audit.Status = *upd.Status
	}
	if upd.Error != nil {
		audit.Error = *upd.Error
	}
	if upd.Stats != nil {
		audit.Stats = *upd.Stats
	}
	if upd.FinishedAt != nil {
		finished := upd.FinishedAt.UTC()
		audit.FinishedAt = &finished
	}
	audit.UpdatedAt = s.Now().UTC()

	stats, err := marshalJSON(audit.Stats, "stats")
	if err != nil {
		return nil, err
	}
	var finishedAt sql.NullString
	if audit.FinishedAt != nil {
		finishedAt = sql.NullString{String: formatTime(*audit.FinishedAt), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE audits
		SET status = ?, error = ?, stats = ?, updated_at = ?, finished_at = ?
		WHERE id = ?
	`, string(audit.Status), audit.Error, stats, formatTime(audit.UpdatedAt), finishedAt, id)
	if err != nil {
		return nil, err
	}

	return audit, nil
}

// DeleteAudit removes an audit; its pages go with it.
func (s *AuditService) DeleteAudit(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM audits WHERE id = ?", id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return seoaudit.Errorf(seoaudit.ENOTFOUND, "audit not found")
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAudit(row scanner) (*seoaudit.Audit, error) {
	var audit seoaudit.Audit
	var status, options, stats, createdAt, updatedAt string
	var finishedAt sql.NullString

	if err := row.Scan(&audit.ID, &audit.StartURL, &options, &status, &audit.Error, &stats,
		&createdAt, &updatedAt, &finishedAt); err != nil {
		return nil, err
	}
	audit.Status = seoaudit.AuditStatus(status)

	if err := unmarshalJSON(options, &audit.Options, "options"); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(stats, &audit.Stats, "stats"); err != nil {
		return nil, err
	}

	var err error
	if audit.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return nil, err
	}
	if audit.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
		return nil, err
	}
	if audit.FinishedAt, err = parseNullTime(finishedAt, "finished_at"); err != nil {
		return nil, err
	}
	return &audit, nil
}
