package database

import (
	"context"
	"database/sql"
	"fmt"
)

// EnsureSchema creates all tables if they do not exist yet. Submissions are
// never deleted, only state-transitioned, so there are no cascading deletes.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS submissions (
    id                  BIGSERIAL PRIMARY KEY,
    external_message_id TEXT UNIQUE NOT NULL,
    external_thread_id  TEXT,
    title               TEXT NOT NULL,
    author_name         TEXT NOT NULL DEFAULT '',
    author_email        TEXT NOT NULL,
    source_url          TEXT,
    content             TEXT,
    status              TEXT NOT NULL DEFAULT 'NEW',
    publish_date        TIMESTAMPTZ,
    accepted_at         TIMESTAMPTZ,
    rejected_at         TIMESTAMPTZ,
    created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS assignments (
    id              BIGSERIAL PRIMARY KEY,
    submission_id   BIGINT NOT NULL REFERENCES submissions(id),
    reviewer_handle TEXT NOT NULL,
    status          TEXT NOT NULL DEFAULT 'PROPOSED',
    assigned_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    responded_at    TIMESTAMPTZ,
    done_at         TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS assignment_history (
    id              BIGSERIAL PRIMARY KEY,
    submission_id   BIGINT NOT NULL REFERENCES submissions(id),
    reviewer_handle TEXT NOT NULL,
    assigned_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS followups (
    id               BIGSERIAL PRIMARY KEY,
    submission_id    BIGINT UNIQUE NOT NULL REFERENCES submissions(id),
    due_at           TIMESTAMPTZ NOT NULL,
    interval_seconds BIGINT NOT NULL,
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS rejections (
    id            BIGSERIAL PRIMARY KEY,
    submission_id BIGINT NOT NULL REFERENCES submissions(id),
    proposed_by   TEXT NOT NULL,
    reason        TEXT NOT NULL,
    seconders     TEXT[] NOT NULL DEFAULT '{}',
    status        TEXT NOT NULL DEFAULT 'PROPOSED',
    proposed_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    resolved_at   TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS content_requests (
    id            BIGSERIAL PRIMARY KEY,
    submission_id BIGINT UNIQUE NOT NULL REFERENCES submissions(id),
    deadline_at   TIMESTAMPTZ NOT NULL,
    status        TEXT NOT NULL DEFAULT 'PENDING',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    resolved_at   TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS bot_state (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_assignments_submission ON assignments(submission_id);
CREATE INDEX IF NOT EXISTS idx_assignment_history_assigned_at ON assignment_history(assigned_at);
CREATE INDEX IF NOT EXISTS idx_followups_due_at ON followups(due_at);
CREATE INDEX IF NOT EXISTS idx_content_requests_deadline ON content_requests(deadline_at) WHERE status = 'PENDING';
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensuring database schema: %w", err)
	}
	return nil
}
