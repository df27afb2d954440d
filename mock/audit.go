package mock

import (
	"context"

	"github.com/fwojciec/seoaudit"
)

var _ seoaudit.AuditService = (*AuditService)(nil)

// AuditService is a mock implementation of seoaudit.AuditService.
type AuditService struct {
	CreateAuditFn   func(ctx context.Context, audit *seoaudit.Audit) error
	FindAuditByIDFn func(ctx context.Context, id string) (*seoaudit.Audit, error)
	FindAuditsFn    func(ctx context.Context, filter seoaudit.AuditFilter) ([]*seoaudit.Audit, error)
	UpdateAuditFn   func(ctx context.Context, id string, upd seoaudit.AuditUpdate) (*seoaudit.Audit, error)
	DeleteAuditFn   func(ctx context.Context, id string) error
}

func (s *AuditService) CreateAudit(ctx context.Context, audit *seoaudit.Audit) error {
	return s.CreateAuditFn(ctx, audit)
}

func (s *AuditService) FindAuditByID(ctx context.Context, id string) (*seoaudit.Audit, error) {
	return s.FindAuditByIDFn(ctx, id)
}

func (s *AuditService) FindAudits(ctx context.Context, filter seoaudit.AuditFilter) ([]*seoaudit.Audit, error) {
	return s.FindAuditsFn(ctx, filter)
}

func (s *AuditService) UpdateAudit(ctx context.Context, id string, upd seoaudit.AuditUpdate) (*seoaudit.Audit, error) {
	return s.UpdateAuditFn(ctx, id, upd)
}

func (s *AuditService) DeleteAudit(ctx context.Context, id string) error {
	return s.DeleteAuditFn(ctx, id)
}

var _ seoaudit.PageService = (*PageService)(nil)

// PageService is a mock implementation of seoaudit.PageService.
type PageService struct {
	CreatePageFn         func(ctx context.Context, page *seoaudit.PageReport) error
	CreatePagesFn        func(ctx context.Context, pages []*seoaudit.PageReport) error
	FindPagesFn          func(ctx context.Context, filter seoaudit.PageFilter) ([]*seoaudit.PageReport, error)
	DeletePagesByAuditFn func(ctx context.Context, auditID string) error
}

func (s *PageService) CreatePage(ctx context.Context, page *seoaudit.PageReport) error {
	return s.CreatePageFn(ctx, page)
}

func (s *PageService) CreatePages(ctx context.Context, pages []*seoaudit.PageReport) error {
	return s.CreatePagesFn(ctx, pages)
}

func (s *PageService) FindPages(ctx context.Context, filter seoaudit.PageFilter) ([]*seoaudit.PageReport, error) {
	return s.FindPagesFn(ctx, filter)
}

func (s *PageService) DeletePagesByAudit(ctx context.Context, auditID string) error {
	return s.DeletePagesByAuditFn(ctx, auditID)
}
