package ports

import (
	"context"

	"github.com/identitylab/account-service/internal/core/domain"
)

// AuditSink accepts audit events for asynchronous persistence. Record must
// not block the request path.
type AuditSink interface {
	Record(event domain.AuditEvent)
}

// AuditRepository persists audit events.
type AuditRepository interface {
	Insert(ctx context.Context, event domain.AuditEvent) error
}
