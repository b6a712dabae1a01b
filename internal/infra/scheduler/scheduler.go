// internal/infra/scheduler/scheduler.go
package scheduler

import (
	"context"
	"time"

	"tem_review_bot/internal/domain/botstate"
	"tem_review_bot/internal/domain/contentreq"
	"tem_review_bot/internal/domain/followup"
	"tem_review_bot/internal/domain/intake"
	idb "tem_review_bot/internal/infra/database" // For ErrStateKeyNotFound

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const pollConcurrency = 4

// WorkflowTimers is what the scheduler needs from the workflow engine.
type WorkflowTimers interface {
	SendFollowup(ctx context.Context, f *followup.Followup) error
	ExpireContent(ctx context.Context, submissionID int64) error
}

// InboundHandler consumes polled inbound messages.
type InboundHandler interface {
	HandleInbound(ctx context.Context, msg intake.Message) error
}

// ReviewScheduler owns the periodic jobs: dispatching due follow-up
// reminders, expiring stale content requests, and polling the inbound mail
// source. Each job is idempotent, so an overlapping or repeated run is
// harmless.
type ReviewScheduler struct {
	cronEngine            *cron.Cron
	workflow              WorkflowTimers
	intakeService         InboundHandler
	followups             followup.Repository
	contentReqs           contentreq.Repository
	state                 botstate.Repository
	source                intake.Source // nil disables the mail poll job
	logger                *logrus.Entry
	cronSpecFollowupCheck string
	cronSpecContentExpiry string
	cronSpecMailPoll      string
}

func NewReviewScheduler(
	workflow WorkflowTimers,
	intakeService InboundHandler,
	followups followup.Repository,
	contentReqs contentreq.Repository,
	state botstate.Repository,
	source intake.Source,
	logger *logrus.Entry,
	cronSpecFollowupCheck string, // e.g. "0 * * * *" (hourly)
	cronSpecContentExpiry string, // e.g. "*/15 * * * *"
	cronSpecMailPoll string, // e.g. "*/5 * * * *"
) *ReviewScheduler {
	return &ReviewScheduler{
		cronEngine:            cron.New(cron.WithLocation(time.Local)),
		workflow:              workflow,
		intakeService:         intakeService,
		followups:             followups,
		contentReqs:           contentReqs,
		state:                 state,
		source:                source,
		logger:                logger,
		cronSpecFollowupCheck: cronSpecFollowupCheck,
		cronSpecContentExpiry: cronSpecContentExpiry,
		cronSpecMailPoll:      cronSpecMailPoll,
	}
}

func (s *ReviewScheduler) Start() {
	s.logger.Info("Starting review scheduler...")

	_, err := s.cronEngine.AddFunc(s.cronSpecFollowupCheck, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		s.dispatchDueFollowups(ctx)
	})
	if err != nil {
		s.logger.WithError(err).Fatal("Could not add follow-up check cron job")
	}

	_, err = s.cronEngine.AddFunc(s.cronSpecContentExpiry, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		s.expireContentRequests(ctx)
	})
	if err != nil {
		s.logger.WithError(err).Fatal("Could not add content expiry cron job")
	}

	if s.source != nil {
		_, err = s.cronEngine.AddFunc(s.cronSpecMailPoll, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			s.pollInbox(ctx)
		})
		if err != nil {
			s.logger.WithError(err).Fatal("Could not add mail poll cron job")
		}
	} else {
		s.logger.Info("No inbound mail source configured; mail poll job disabled")
	}

	s.cronEngine.Start()
	s.logger.Info("Review scheduler started with jobs")
}

// dispatchDueFollowups sends a reminder for every follow-up whose due time
// has passed. The workflow reschedules before sending, so a crash between
// rows at worst delays one reminder.
func (s *ReviewScheduler) dispatchDueFollowups(ctx context.Context) {
	due, err := s.followups.ListDue(ctx, time.Now())
	if err != nil {
		s.logger.WithError(err).Error("Failed to list due follow-ups")
		return
	}
	for _, f := range due {
		if err := s.workflow.SendFollowup(ctx, f); err != nil {
			s.logger.WithError(err).WithField("submission_id", f.SubmissionID).Error("Failed to send follow-up")
		}
	}
	if len(due) > 0 {
		s.logger.WithField("count", len(due)).Info("Dispatched due follow-ups")
	}
}

func (s *ReviewScheduler) expireContentRequests(ctx context.Context) {
	expired, err := s.contentReqs.ListExpired(ctx, time.Now())
	if err != nil {
		s.logger.WithError(err).Error("Failed to list expired content requests")
		return
	}
	for _, req := range expired {
		if err := s.workflow.ExpireContent(ctx, req.SubmissionID); err != nil {
			s.logger.WithError(err).WithField("submission_id", req.SubmissionID).Error("Failed to expire content request")
		}
	}
	if len(expired) > 0 {
		s.logger.WithField("count", len(expired)).Info("Expired stale content requests")
	}
}

// pollInbox fetches new messages past the persisted cursor and feeds them
// to intake. The cursor only advances after the whole batch is handled;
// replayed messages are deduplicated by their external ID.
func (s *ReviewScheduler) pollInbox(ctx context.Context) {
	cursor, err := s.state.Get(ctx, botstate.CursorKeyInbox)
	if err != nil && err != idb.ErrStateKeyNotFound {
		s.logger.WithError(err).Error("Failed to load inbox cursor")
		return
	}

	messages, nextCursor, err := s.source.Poll(ctx, cursor)
	if err != nil {
		s.logger.WithError(err).Error("Inbox poll failed")
		return
	}
	if len(messages) == 0 {
		return
	}
	s.logger.WithField("count", len(messages)).Info("Fetched inbound messages")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(pollConcurrency)
	for _, msg := range messages {
		msg := msg
		g.Go(func() error {
			return s.intakeService.HandleInbound(gctx, msg)
		})
	}
	if err := g.Wait(); err != nil {
		// Keep the old cursor so the failed batch is retried next tick.
		s.logger.WithError(err).Error("Inbound batch failed, cursor not advanced")
		return
	}

	if nextCursor != "" && nextCursor != cursor {
		if err := s.state.Set(ctx, botstate.CursorKeyInbox, nextCursor); err != nil {
			s.logger.WithError(err).Error("Failed to persist inbox cursor")
		}
	}
}

func (s *ReviewScheduler) Stop() {
	s.logger.Info("Stopping review scheduler...")
	ctx := s.cronEngine.Stop() // Waits for running jobs.
	<-ctx.Done()
	s.logger.Info("Review scheduler gracefully stopped")
}
