// internal/app/assigner_service.go
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tem_review_bot/internal/domain/assignment"
	"tem_review_bot/internal/domain/reviewer"
	"tem_review_bot/internal/domain/submission"

	"github.com/sirupsen/logrus"
)

// workloadWindow is the trailing period over which reviewer assignment
// counts are balanced.
const workloadWindow = 90 * 24 * time.Hour

// Proposal is a validated assigner answer: 1-2 roster handles plus the
// ranking call's stated category and reason, for the group announcement.
type Proposal struct {
	Reviewers []string
	Category  string
	Reason    string
}

// AssignerService orchestrates the external ranking call. The call is
// advisory: results are validated against the roster and the submission's
// existing assignments, retried once with a stricter context on a
// malformed answer, and given up on with an explicit error so the engine
// can escalate to the operator instead of leaving the submission stuck.
type AssignerService struct {
	ranker      reviewer.Ranker
	assigns     assignment.Repository
	rosterPath  string
	logger      *logrus.Entry
	now         func() time.Time
}

func NewAssignerService(ranker reviewer.Ranker, assigns assignment.Repository, rosterPath string, logger *logrus.Entry) *AssignerService {
	return &AssignerService{
		ranker:     ranker,
		assigns:    assigns,
		rosterPath: rosterPath,
		logger:     logger,
		now:        time.Now,
	}
}

// Propose picks 1-2 reviewers for the submission.
func (s *AssignerService) Propose(ctx context.Context, sub *submission.Submission, excluded []string) (*Proposal, error) {
	return s.propose(ctx, sub, excluded, false)
}

// ProposeReplacement picks exactly one reviewer after a decline, excluding
// everyone already attached to the submission.
func (s *AssignerService) ProposeReplacement(ctx context.Context, sub *submission.Submission, declined string, excluded []string) (*Proposal, error) {
	if !contains(excluded, declined) {
		excluded = append(excluded, declined)
	}
	return s.propose(ctx, sub, excluded, true)
}

func (s *AssignerService) propose(ctx context.Context, sub *submission.Submission, excluded []string, replacement bool) (*Proposal, error) {
	roster, err := reviewer.LoadRoster(s.rosterPath)
	if err != nil {
		return nil, fmt.Errorf("loading roster: %w", err)
	}

	workload, err := s.assigns.CountByReviewerSince(ctx, s.now().Add(-workloadWindow))
	if err != nil {
		// Workload balancing is a soft preference; a failed read degrades
		// the ranking context, it doesn't block assignment.
		s.logger.WithError(err).Warn("Could not load workload history, ranking without it")
		workload = map[string]int{}
	}

	req := reviewer.RankRequest{
		Title:           sub.Title,
		Content:         sub.AssignmentContext(),
		Roster:          roster,
		Workload:        workload,
		Excluded:        excluded,
		WantReplacement: replacement,
	}

	proposal, firstErr := s.rankOnce(ctx, req)
	if firstErr == nil {
		return proposal, nil
	}

	s.logger.WithError(firstErr).WithField("submission_id", sub.ID).Warn("Ranking attempt rejected, retrying with strict context")
	req.Strict = true
	proposal, retryErr := s.rankOnce(ctx, req)
	if retryErr != nil {
		return nil, fmt.Errorf("ranking failed twice: %w (first attempt: %v)", retryErr, firstErr)
	}
	return proposal, nil
}

// rankOnce runs one ranking call and validates its answer.
func (s *AssignerService) rankOnce(ctx context.Context, req reviewer.RankRequest) (*Proposal, error) {
	result, err := s.ranker.Rank(ctx, req)
	if err != nil {
		return nil, err
	}

	handles := dedupe(result.Reviewers)
	if len(handles) == 0 {
		return nil, fmt.Errorf("ranking returned no reviewers")
	}
	want := 2
	if req.WantReplacement {
		want = 1
	}
	if len(handles) > want {
		handles = handles[:want]
	}
	for _, h := range handles {
		if !req.Roster.Contains(h) {
			return nil, fmt.Errorf("ranking returned handle %q not in roster", h)
		}
		if contains(req.Excluded, h) {
			return nil, fmt.Errorf("ranking returned excluded handle %q", h)
		}
	}

	return &Proposal{Reviewers: handles, Category: result.Category, Reason: result.Reason}, nil
}

func dedupe(handles []string) []string {
	seen := make(map[string]struct{}, len(handles))
	out := make([]string, 0, len(handles))
	for _, h := range handles {
		h = strings.TrimSpace(strings.TrimPrefix(h, "@"))
		if h == "" {
			continue
		}
		key := strings.ToLower(h)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, h)
	}
	return out
}

func contains(list []string, target string) bool {
	for _, v := range list {
		if strings.EqualFold(v, target) {
			return true
		}
	}
	return false
}
