package intake

import "context"

// Message is one inbound submission email, already parsed by the mail
// collaborator. ExternalID must be stable per source message so the core
// can deduplicate at-least-once delivery.
type Message struct {
	ExternalID  string
	ThreadID    string
	AuthorName  string
	AuthorEmail string
	Title       string
	SourceURL   string
	Body        string
}

// Source is the inbound-mail collaborator boundary. Poll returns messages
// newer than the opaque cursor plus the cursor to persist for the next
// poll. An empty cursor means no previous poll; implementations choose
// their initial look-back window. OAuth, MIME parsing and transport
// retries live behind this interface, not in the core.
type Source interface {
	Poll(ctx context.Context, cursor string) ([]Message, string, error)
}
