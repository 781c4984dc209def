package ports

import "context"

// Mailer is the out-of-band notification channel. Delivery failures are
// returned to the caller, never swallowed.
type Mailer interface {
	Send(ctx context.Context, subject, body, recipient string) error
}
