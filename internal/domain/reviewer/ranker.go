package reviewer

import "context"

// RankRequest is everything the external ranking call gets to see.
type RankRequest struct {
	Title    string
	Content  string         // optional article text
	Roster   *Roster        // the full reviewer list
	Workload map[string]int // handle -> assignments in the trailing window
	// Excluded handles must not be proposed (already assigned or declined).
	Excluded []string
	// WantReplacement asks for exactly one reviewer instead of 1-2.
	WantReplacement bool
	// Strict marks the second attempt after a malformed result.
	Strict bool
}

// RankResult is the ranking call's answer. The ranker is advisory: the
// assigner validates handles against the roster before applying them.
type RankResult struct {
	Reviewers []string // 1-2 handles
	Category  string
	Reason    string
}

// Ranker proposes reviewers for a submission. Implementations are expected
// to be slow and fallible; callers must validate the result and survive an
// explicit failure.
type Ranker interface {
	Rank(ctx context.Context, req RankRequest) (*RankResult, error)
}
