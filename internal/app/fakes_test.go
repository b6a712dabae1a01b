package app

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"tem_review_bot/internal/domain/assignment"
	"tem_review_bot/internal/domain/contentreq"
	"tem_review_bot/internal/domain/followup"
	"tem_review_bot/internal/domain/notify"
	"tem_review_bot/internal/domain/rejection"
	"tem_review_bot/internal/domain/reviewer"
	"tem_review_bot/internal/domain/submission"
	idb "tem_review_bot/internal/infra/database"

	"github.com/sirupsen/logrus"
)

// --- submission repository ---

type fakeSubmissionRepo struct {
	mu     sync.Mutex
	nextID int64
	subs   map[int64]*submission.Submission
}

func newFakeSubmissionRepo() *fakeSubmissionRepo {
	return &fakeSubmissionRepo{subs: make(map[int64]*submission.Submission)}
}

func (r *fakeSubmissionRepo) Create(_ context.Context, sub *submission.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.subs {
		if existing.ExternalMessageID == sub.ExternalMessageID {
			return idb.ErrDuplicateSubmission
		}
	}
	r.nextID++
	sub.ID = r.nextID
	sub.CreatedAt = time.Now()
	r.subs[sub.ID] = sub
	return nil
}

func (r *fakeSubmissionRepo) GetByID(_ context.Context, id int64) (*submission.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[id]
	if !ok {
		return nil, idb.ErrSubmissionNotFound
	}
	return sub, nil
}

func (r *fakeSubmissionRepo) GetByExternalMessageID(_ context.Context, externalID string) (*submission.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sub := range r.subs {
		if sub.ExternalMessageID == externalID {
			return sub, nil
		}
	}
	return nil, idb.ErrSubmissionNotFound
}

func (r *fakeSubmissionRepo) FindActiveByKeyword(_ context.Context, keyword string) ([]*submission.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kw := strings.ToLower(keyword)
	var out []*submission.Submission
	for _, sub := range r.subs {
		if sub.Status.Terminal() {
			continue
		}
		if strings.Contains(strings.ToLower(sub.Title), kw) || strings.Contains(strings.ToLower(sub.AuthorName), kw) {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (r *fakeSubmissionRepo) ListActive(_ context.Context) ([]*submission.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*submission.Submission
	for _, sub := range r.subs {
		if !sub.Status.Terminal() {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (r *fakeSubmissionRepo) UpdateStatus(_ context.Context, id int64, status submission.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[id]
	if !ok {
		return idb.ErrSubmissionNotFound
	}
	sub.Status = status
	return nil
}

func (r *fakeSubmissionRepo) SetContent(_ context.Context, id int64, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[id]
	if !ok {
		return idb.ErrSubmissionNotFound
	}
	sub.Content.String = content
	sub.Content.Valid = true
	return nil
}

func (r *fakeSubmissionRepo) MarkReviewDone(_ context.Context, id int64, publishDate time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[id]
	if !ok {
		return idb.ErrSubmissionNotFound
	}
	sub.Status = submission.StatusReviewDone
	sub.PublishDate.Time = publishDate
	sub.PublishDate.Valid = true
	return nil
}

func (r *fakeSubmissionRepo) MarkPublished(_ context.Context, id int64) error {
	return r.UpdateStatus(nil, id, submission.StatusPublished)
}

func (r *fakeSubmissionRepo) MarkRejected(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[id]
	if !ok {
		return idb.ErrSubmissionNotFound
	}
	sub.Status = submission.StatusRejected
	sub.RejectedAt.Time = time.Now()
	sub.RejectedAt.Valid = true
	return nil
}

// --- assignment repository ---

type fakeAssignmentRepo struct {
	mu          sync.Mutex
	nextID      int64
	assignments []*assignment.Assignment
	history     []*assignment.HistoryEntry
	getErr      error // injected failure for Get
}

func newFakeAssignmentRepo() *fakeAssignmentRepo {
	return &fakeAssignmentRepo{}
}

func (r *fakeAssignmentRepo) Create(_ context.Context, a *assignment.Assignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	a.ID = r.nextID
	a.Status = assignment.StatusProposed
	a.AssignedAt = time.Now()
	r.assignments = append(r.assignments, a)
	r.history = append(r.history, &assignment.HistoryEntry{
		ID:             a.ID,
		SubmissionID:   a.SubmissionID,
		ReviewerHandle: a.ReviewerHandle,
		AssignedAt:     a.AssignedAt,
	})
	return nil
}

func (r *fakeAssignmentRepo) Get(_ context.Context, submissionID int64, handle string) (*assignment.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	for i := len(r.assignments) - 1; i >= 0; i-- {
		a := r.assignments[i]
		if a.SubmissionID == submissionID && a.ReviewerHandle == handle {
			return a, nil
		}
	}
	return nil, idb.ErrAssignmentNotFound
}

func (r *fakeAssignmentRepo) ListBySubmission(_ context.Context, submissionID int64) ([]*assignment.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*assignment.Assignment
	for _, a := range r.assignments {
		if a.SubmissionID == submissionID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAssignmentRepo) UpdateStatus(ctx context.Context, submissionID int64, handle string, status assignment.Status) error {
	a, err := r.Get(ctx, submissionID, handle)
	if err != nil {
		return err
	}
	a.Status = status
	a.RespondedAt.Time = time.Now()
	a.RespondedAt.Valid = true
	return nil
}

func (r *fakeAssignmentRepo) MarkDone(ctx context.Context, submissionID int64, handle string) error {
	a, err := r.Get(ctx, submissionID, handle)
	if err != nil {
		return err
	}
	a.Status = assignment.StatusDone
	a.DoneAt.Time = time.Now()
	a.DoneAt.Valid = true
	return nil
}

func (r *fakeAssignmentRepo) DeleteUnaccepted(_ context.Context, submissionID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.assignments[:0]
	for _, a := range r.assignments {
		if a.SubmissionID == submissionID && a.Status != assignment.StatusAccepted && a.Status != assignment.StatusDone {
			continue
		}
		kept = append(kept, a)
	}
	r.assignments = kept
	return nil
}

func (r *fakeAssignmentRepo) CountByReviewerSince(_ context.Context, cutoff time.Time) (map[string]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int)
	for _, h := range r.history {
		if h.AssignedAt.After(cutoff) {
			counts[h.ReviewerHandle]++
		}
	}
	return counts, nil
}

// --- followup repository ---

type fakeFollowupRepo struct {
	nextID    int64
	followups map[int64]*followup.Followup // keyed by submission ID
}

func newFakeFollowupRepo() *fakeFollowupRepo {
	return &fakeFollowupRepo{followups: make(map[int64]*followup.Followup)}
}

func (r *fakeFollowupRepo) Upsert(_ context.Context, f *followup.Followup) error {
	if existing, ok := r.followups[f.SubmissionID]; ok {
		existing.DueAt = f.DueAt
		existing.Interval = f.Interval
		f.ID = existing.ID
		return nil
	}
	r.nextID++
	f.ID = r.nextID
	f.CreatedAt = time.Now()
	r.followups[f.SubmissionID] = f
	return nil
}

func (r *fakeFollowupRepo) ListDue(_ context.Context, now time.Time) ([]*followup.Followup, error) {
	var out []*followup.Followup
	for _, f := range r.followups {
		if !f.DueAt.After(now) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *fakeFollowupRepo) Reschedule(_ context.Context, id int64, nextDue time.Time) error {
	for _, f := range r.followups {
		if f.ID == id {
			f.DueAt = nextDue
			return nil
		}
	}
	return idb.ErrFollowupNotFound
}

func (r *fakeFollowupRepo) DeleteBySubmission(_ context.Context, submissionID int64) error {
	delete(r.followups, submissionID)
	return nil
}

// --- rejection repository ---

type fakeRejectionRepo struct {
	nextID    int64
	proposals map[int64]*rejection.Rejection
}

func newFakeRejectionRepo() *fakeRejectionRepo {
	return &fakeRejectionRepo{proposals: make(map[int64]*rejection.Rejection)}
}

func (r *fakeRejectionRepo) Create(_ context.Context, rej *rejection.Rejection) error {
	r.nextID++
	rej.ID = r.nextID
	rej.Status = rejection.StatusProposed
	rej.ProposedAt = time.Now()
	r.proposals[rej.ID] = rej
	return nil
}

func (r *fakeRejectionRepo) GetActive(_ context.Context, submissionID int64) (*rejection.Rejection, error) {
	for _, rej := range r.proposals {
		if rej.SubmissionID == submissionID && rej.Active() {
			return rej, nil
		}
	}
	return nil, idb.ErrRejectionNotFound
}

func (r *fakeRejectionRepo) AddSeconder(_ context.Context, id int64, identity string) (*rejection.Rejection, error) {
	rej, ok := r.proposals[id]
	if !ok {
		return nil, idb.ErrRejectionNotFound
	}
	if !rej.HasSeconder(identity) {
		rej.Seconders = append(rej.Seconders, identity)
	}
	return rej, nil
}

func (r *fakeRejectionRepo) MarkQuorumReached(_ context.Context, id int64) (bool, error) {
	rej, ok := r.proposals[id]
	if !ok || rej.Status != rejection.StatusProposed {
		return false, nil
	}
	rej.Status = rejection.StatusQuorumReached
	return true, nil
}

func (r *fakeRejectionRepo) UpdateStatus(_ context.Context, id int64, status rejection.Status) error {
	rej, ok := r.proposals[id]
	if !ok {
		return idb.ErrRejectionNotFound
	}
	rej.Status = status
	return nil
}

// --- content request repository ---

type fakeContentReqRepo struct {
	nextID   int64
	requests map[int64]*contentreq.Request // keyed by submission ID
}

func newFakeContentReqRepo() *fakeContentReqRepo {
	return &fakeContentReqRepo{requests: make(map[int64]*contentreq.Request)}
}

func (r *fakeContentReqRepo) Create(_ context.Context, req *contentreq.Request) error {
	r.nextID++
	req.ID = r.nextID
	req.Status = contentreq.StatusPending
	req.CreatedAt = time.Now()
	r.requests[req.SubmissionID] = req
	return nil
}

func (r *fakeContentReqRepo) GetBySubmission(_ context.Context, submissionID int64) (*contentreq.Request, error) {
	req, ok := r.requests[submissionID]
	if !ok {
		return nil, idb.ErrContentRequestNotFound
	}
	return req, nil
}

func (r *fakeContentReqRepo) Resolve(_ context.Context, submissionID int64, status contentreq.Status) (bool, error) {
	req, ok := r.requests[submissionID]
	if !ok || req.Status != contentreq.StatusPending {
		return false, nil
	}
	req.Status = status
	req.ResolvedAt.Time = time.Now()
	req.ResolvedAt.Valid = true
	return true, nil
}

func (r *fakeContentReqRepo) ListExpired(_ context.Context, now time.Time) ([]*contentreq.Request, error) {
	var out []*contentreq.Request
	for _, req := range r.requests {
		if req.Status == contentreq.StatusPending && req.DeadlineAt.Before(now) {
			out = append(out, req)
		}
	}
	return out, nil
}

// --- notification gateway ---

type fakeGateway struct {
	mu      sync.Mutex
	intents []notify.Intent
}

func (g *fakeGateway) Send(_ context.Context, intent notify.Intent) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.intents = append(g.intents, intent)
	return nil
}

func (g *fakeGateway) byKind(kind notify.Kind) []notify.Intent {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []notify.Intent
	for _, i := range g.intents {
		if i.Kind == kind {
			out = append(out, i)
		}
	}
	return out
}

func (g *fakeGateway) reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.intents = nil
}

// --- ranker ---

type rankAnswer struct {
	result *reviewer.RankResult
	err    error
}

type fakeRanker struct {
	answers  []rankAnswer
	requests []reviewer.RankRequest
}

func (f *fakeRanker) Rank(_ context.Context, req reviewer.RankRequest) (*reviewer.RankResult, error) {
	f.requests = append(f.requests, req)
	if len(f.answers) == 0 {
		return &reviewer.RankResult{Reviewers: []string{"alice", "bob"}, Category: "defi", Reason: "test"}, nil
	}
	ans := f.answers[0]
	f.answers = f.answers[1:]
	return ans.result, ans.err
}

func (f *fakeRanker) queue(result *reviewer.RankResult, err error) {
	f.answers = append(f.answers, rankAnswer{result: result, err: err})
}

// --- test harness ---

const testRosterYAML = `categories:
  defi:
    description: DeFi protocols and tokenomics
    reviewers:
      - alice
      - bob
  infra:
    description: Clients, nodes and infrastructure
    reviewers:
      - carol
      - dave
`

type testEnv struct {
	subs        *fakeSubmissionRepo
	assigns     *fakeAssignmentRepo
	followups   *fakeFollowupRepo
	rejections  *fakeRejectionRepo
	contentReqs *fakeContentReqRepo
	gateway     *fakeGateway
	ranker      *fakeRanker

	workflow  *WorkflowService
	assigner  *AssignerService
	rejection *RejectionService
	intake    *IntakeService
	router    *CommandRouter

	now time.Time
}

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func newTestEnv(t *testing.T, operatorConfigured bool) *testEnv {
	t.Helper()

	rosterPath := filepath.Join(t.TempDir(), "reviewers.yaml")
	if err := os.WriteFile(rosterPath, []byte(testRosterYAML), 0o644); err != nil {
		t.Fatalf("writing roster fixture: %v", err)
	}

	env := &testEnv{
		subs:        newFakeSubmissionRepo(),
		assigns:     newFakeAssignmentRepo(),
		followups:   newFakeFollowupRepo(),
		rejections:  newFakeRejectionRepo(),
		contentReqs: newFakeContentReqRepo(),
		gateway:     &fakeGateway{},
		ranker:      &fakeRanker{},
		now:         time.Date(2025, time.March, 12, 10, 0, 0, 0, time.UTC), // a Wednesday
	}

	logger := testLogger()
	env.assigner = NewAssignerService(env.ranker, env.assigns, rosterPath, logger)
	env.assigner.now = func() time.Time { return env.now }

	loc, err := time.LoadLocation("Asia/Taipei")
	if err != nil {
		t.Fatalf("loading test timezone: %v", err)
	}
	env.workflow = NewWorkflowService(
		env.subs, env.assigns, env.followups, env.contentReqs,
		env.assigner, env.gateway, logger,
		WorkflowConfig{
			FollowupInterval:   3 * 24 * time.Hour,
			ContentRequestTTL:  24 * time.Hour,
			PublishLocation:    loc,
			PublishTime:        "09:30",
			OperatorConfigured: operatorConfigured,
		},
	)
	env.workflow.now = func() time.Time { return env.now }

	env.rejection = NewRejectionService(env.rejections, env.subs, env.workflow, env.gateway, logger)
	env.intake = NewIntakeService(env.subs, env.workflow, logger)

	operatorID := int64(0)
	if operatorConfigured {
		operatorID = 999
	}
	env.router = NewCommandRouter(env.subs, env.assigns, env.workflow, env.rejection, operatorID, logger)
	return env
}

// addSubmission seeds a submission directly in the given status.
func (env *testEnv) addSubmission(t *testing.T, title string, status submission.Status) *submission.Submission {
	t.Helper()
	sub := &submission.Submission{
		ExternalMessageID: "msg-" + strings.ReplaceAll(strings.ToLower(title), " ", "-"),
		Title:             title,
		AuthorName:        "Ada Author",
		AuthorEmail:       "ada@example.com",
		Status:            submission.StatusNew,
	}
	if err := env.subs.Create(context.Background(), sub); err != nil {
		t.Fatalf("seeding submission: %v", err)
	}
	sub.Status = status
	return sub
}

// addAssignment seeds an assignment in the given status.
func (env *testEnv) addAssignment(t *testing.T, subID int64, handle string, status assignment.Status) *assignment.Assignment {
	t.Helper()
	a := &assignment.Assignment{SubmissionID: subID, ReviewerHandle: handle}
	if err := env.assigns.Create(context.Background(), a); err != nil {
		t.Fatalf("seeding assignment: %v", err)
	}
	a.Status = status
	return a
}
