package submission

import (
	"database/sql"
	"time"
)

// Submission is one article proposal tracked through the review workflow.
// Corresponds to the 'submissions' table.
type Submission struct {
	ID                int64
	ExternalMessageID string         // stable inbound-mail identifier, used for intake dedup
	ExternalThreadID  sql.NullString // mail thread, kept so replies land in the same thread
	Title             string
	AuthorName        string
	AuthorEmail       string
	SourceURL         sql.NullString
	Content           sql.NullString // pasted article text, if the operator supplied it
	Status            Status
	PublishDate       sql.NullTime
	AcceptedAt        sql.NullTime
	RejectedAt        sql.NullTime
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// AssignmentContext returns the article text the ranking call should see:
// the pasted content when present, empty otherwise. The title travels
// separately in the request.
func (s *Submission) AssignmentContext() string {
	if s.Content.Valid && s.Content.String != "" {
		return s.Content.String
	}
	return ""
}
