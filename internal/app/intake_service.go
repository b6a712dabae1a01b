// internal/app/intake_service.go
package app

import (
	"context"
	"database/sql"
	"fmt"

	"tem_review_bot/internal/domain/intake"
	"tem_review_bot/internal/domain/submission"

	idb "tem_review_bot/internal/infra/database"

	"github.com/sirupsen/logrus"
)

// IntakeService turns inbound submission mail into tracked submissions.
// Delivery from the mail collaborator is at-least-once; the stable
// external message ID is the dedup key, so a replayed message yields
// exactly one submission.
type IntakeService struct {
	subs     submission.Repository
	workflow *WorkflowService
	logger   *logrus.Entry
}

func NewIntakeService(subs submission.Repository, workflow *WorkflowService, logger *logrus.Entry) *IntakeService {
	return &IntakeService{subs: subs, workflow: workflow, logger: logger}
}

// HandleInbound creates a submission for the message unless one already
// exists, then runs the intake transition (content request or straight to
// assignment).
func (s *IntakeService) HandleInbound(ctx context.Context, msg intake.Message) error {
	if msg.ExternalID == "" {
		return fmt.Errorf("inbound message has no external ID")
	}
	if msg.Title == "" || msg.AuthorEmail == "" {
		return fmt.Errorf("inbound message %s is missing title or author email", msg.ExternalID)
	}

	existing, err := s.subs.GetByExternalMessageID(ctx, msg.ExternalID)
	if err == nil {
		s.logger.WithFields(logrus.Fields{
			"external_id":   msg.ExternalID,
			"submission_id": existing.ID,
		}).Info("Inbound message already processed, skipping")
		return nil
	}
	if err != idb.ErrSubmissionNotFound {
		return fmt.Errorf("checking for existing submission: %w", err)
	}

	sub := &submission.Submission{
		ExternalMessageID: msg.ExternalID,
		ExternalThreadID:  nullString(msg.ThreadID),
		Title:             msg.Title,
		AuthorName:        msg.AuthorName,
		AuthorEmail:       msg.AuthorEmail,
		SourceURL:         nullString(msg.SourceURL),
		Content:           nullString(msg.Body),
		Status:            submission.StatusNew,
	}
	if err := s.subs.Create(ctx, sub); err != nil {
		// A concurrent delivery of the same message may have won the insert.
		if err == idb.ErrDuplicateSubmission {
			s.logger.WithField("external_id", msg.ExternalID).Info("Duplicate inbound message lost the insert race, skipping")
			return nil
		}
		return fmt.Errorf("creating submission: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"submission_id": sub.ID,
		"title":         sub.Title,
	}).Info("New submission created")

	return s.workflow.AdmitSubmission(ctx, sub.ID)
}

func nullString(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}
