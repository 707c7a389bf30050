package service

import (
	"context"

	dErrors "squadlink/pkg/domain-errors"
	"squadlink/pkg/platform/audit"
)

// QueryAudit returns audit entries in append order. A zero limit means the
// default page size; larger limits are capped.
func (s *Service) QueryAudit(ctx context.Context, q audit.Query) ([]*audit.Entry, error) {
	if !q.Since.IsZero() && !q.Until.IsZero() && !q.Until.After(q.Since) {
		return nil, dErrors.New(dErrors.CodeValidation, "until must be after since")
	}
	switch {
	case q.Limit < 0:
		return nil, dErrors.New(dErrors.CodeValidation, "limit must not be negative")
	case q.Limit == 0:
		q.Limit = defaultAuditLimit
	case q.Limit > maxAuditLimit:
		q.Limit = maxAuditLimit
	}

	entries, err := s.auditLog.List(ctx, q)
	if err != nil {
		return nil, translate(err, "query audit")
	}
	return entries, nil
}
