package ports

import "context"

// EmailMessage is the payload handed to the mail dispatcher.
type EmailMessage struct {
	To      string
	Subject string
	Body    string
}

// EmailDispatcher delivers transactional mail. A returned error is how callers
// distinguish fatal dispatch failures (registration rollback) from non-fatal
// ones (confirmation mails).
type EmailDispatcher interface {
	Send(ctx context.Context, msg EmailMessage) error
}
