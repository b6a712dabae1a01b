package botstate

import "context"

// Repository is a persistent key->value map for cross-restart cursors,
// e.g. the inbound-mail poller's last-seen position.
type Repository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// CursorKeyInbox is where the mail-intake collaborator keeps its cursor.
const CursorKeyInbox = "last_inbox_cursor"
