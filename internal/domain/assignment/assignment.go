package assignment

import (
	"database/sql"
	"time"
)

// Status tracks one reviewer's relationship to one submission.
type Status string

const (
	StatusProposed Status = "PROPOSED"
	StatusAccepted Status = "ACCEPTED"
	StatusDeclined Status = "DECLINED"
	StatusDone     Status = "DONE"
)

// Assignment pairs a submission with a reviewer handle.
// A submission carries one or two assignments at a time.
type Assignment struct {
	ID             int64
	SubmissionID   int64
	ReviewerHandle string
	Status         Status
	AssignedAt     time.Time
	RespondedAt    sql.NullTime
	DoneAt         sql.NullTime
}

// HistoryEntry is the append-only workload record behind the trailing-90-day
// reviewer balancing. Never mutated, only appended and range-queried.
type HistoryEntry struct {
	ID             int64
	SubmissionID   int64
	ReviewerHandle string
	AssignedAt     time.Time
}

// AllAccepted reports whether every non-declined assignment in the set is
// ACCEPTED (or further). An empty active set never satisfies the check.
func AllAccepted(assignments []*Assignment) bool {
	active := 0
	for _, a := range assignments {
		if a.Status == StatusDeclined {
			continue
		}
		active++
		if a.Status == StatusProposed {
			return false
		}
	}
	return active > 0
}

// AllDone reports whether every active (accepted or done) assignment is DONE.
func AllDone(assignments []*Assignment) bool {
	active := 0
	for _, a := range assignments {
		switch a.Status {
		case StatusAccepted:
			return false
		case StatusDone:
			active++
		}
	}
	return active > 0
}
