// internal/app/command_router.go
package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"tem_review_bot/internal/domain/assignment"
	"tem_review_bot/internal/domain/rejection"
	"tem_review_bot/internal/domain/submission"

	"github.com/sirupsen/logrus"
)

// Verb is a workflow command arriving from chat or timer transports.
type Verb string

const (
	VerbContentProvide Verb = "content-provide"
	VerbContentSkip    Verb = "content-skip"
	VerbMarkDone       Verb = "mark-done"
	VerbRejectPropose  Verb = "reject-propose"
	VerbRejectSecond   Verb = "reject-second"
	VerbOverrideAssign Verb = "override-assign"
	VerbStatusQuery    Verb = "status-query"
)

// Command is the transport-independent command intake contract.
type Command struct {
	Issuer   string // handle of the person issuing the command
	IssuerID int64  // transport identity, used for operator gating
	Verb     Verb
	Keyword  string // free-text keyword or numeric submission ID
	Args     string // remaining argument text (reason, reviewers, content)
}

// CommandRouter resolves commands to exactly one active submission and
// dispatches them. Every path is idempotent: at-least-once delivery from
// the transport yields an informational reply, never a second mutation.
type CommandRouter struct {
	subs       submission.Repository
	assigns    assignment.Repository
	workflow   *WorkflowService
	rejections *RejectionService
	operatorID int64
	logger     *logrus.Entry
}

func NewCommandRouter(
	subs submission.Repository,
	assigns assignment.Repository,
	workflow *WorkflowService,
	rejections *RejectionService,
	operatorID int64,
	logger *logrus.Entry,
) *CommandRouter {
	return &CommandRouter{
		subs:       subs,
		assigns:    assigns,
		workflow:   workflow,
		rejections: rejections,
		operatorID: operatorID,
		logger:     logger,
	}
}

// Execute runs one command and returns the reply to show the issuer.
// Validation problems and benign conflicts come back as replies; the error
// return is reserved for infrastructure failures.
func (r *CommandRouter) Execute(ctx context.Context, cmd Command) (string, error) {
	logCtx := r.logger.WithFields(logrus.Fields{
		"verb":   cmd.Verb,
		"issuer": cmd.Issuer,
	})
	logCtx.Info("Command received")

	switch cmd.Verb {
	case VerbStatusQuery:
		return r.statusReply(ctx)
	case VerbMarkDone:
		return r.withResolved(ctx, cmd, func(sub *submission.Submission) (string, error) {
			err := r.workflow.MarkDone(ctx, sub.ID, cmd.Issuer)
			switch err {
			case nil:
				return "✅ Review marked as done!", nil
			case ErrAlreadyRecorded:
				return "Already recorded!", nil
			case ErrAlreadyFinalized:
				return fmt.Sprintf("《%s》 is already finalized.", sub.Title), nil
			case ErrNotUnderReview:
				return "This submission is not currently under review.", nil
			case ErrNotAssigned:
				return fmt.Sprintf("You (@%s) are not assigned to this submission.", cmd.Issuer), nil
			default:
				return "", err
			}
		})
	case VerbRejectPropose:
		if strings.TrimSpace(cmd.Args) == "" {
			return "Usage: /reject <keyword> <reason>", nil
		}
		return r.withResolved(ctx, cmd, func(sub *submission.Submission) (string, error) {
			err := r.rejections.Propose(ctx, sub.ID, cmd.Issuer, strings.TrimSpace(cmd.Args))
			switch err {
			case nil:
				return "Rejection proposal opened.", nil
			case ErrProposalOpen:
				return "A rejection proposal is already open for this submission.", nil
			case ErrAlreadyFinalized:
				return fmt.Sprintf("《%s》 is already finalized.", sub.Title), nil
			default:
				return "", err
			}
		})
	case VerbRejectSecond:
		return r.withResolved(ctx, cmd, func(sub *submission.Submission) (string, error) {
			count, err := r.rejections.Second(ctx, sub.ID, cmd.Issuer)
			switch err {
			case nil:
				return fmt.Sprintf("Second recorded (%d/%d).", count, rejection.QuorumSeconders), nil
			case ErrAlreadyRecorded:
				return "You already seconded this proposal.", nil
			case ErrOwnProposal:
				return "You can't second your own rejection proposal.", nil
			case ErrNoActiveProposal:
				return "No active rejection proposal for this submission.", nil
			case ErrAlreadyFinalized:
				return fmt.Sprintf("《%s》 is already finalized.", sub.Title), nil
			default:
				return "", err
			}
		})
	case VerbContentProvide, VerbContentSkip, VerbOverrideAssign:
		if !r.issuerIsOperator(cmd) {
			return "Only the operator can use this command.", nil
		}
		return r.executeOperator(ctx, cmd)
	default:
		return fmt.Sprintf("Unknown command %q.", cmd.Verb), nil
	}
}

func (r *CommandRouter) executeOperator(ctx context.Context, cmd Command) (string, error) {
	return r.withResolved(ctx, cmd, func(sub *submission.Submission) (string, error) {
		switch cmd.Verb {
		case VerbContentProvide:
			content := strings.TrimSpace(cmd.Args)
			if content == "" {
				return "Article content cannot be empty.", nil
			}
			err := r.workflow.ProvideContent(ctx, sub.ID, content)
			switch err {
			case nil:
				return fmt.Sprintf("✅ Content received for 《%s》. Assigning reviewers now…", sub.Title), nil
			case ErrNoPendingContent:
				return fmt.Sprintf("No pending content request for submission #%d.", sub.ID), nil
			case ErrAlreadyFinalized:
				return fmt.Sprintf("《%s》 is already finalized.", sub.Title), nil
			default:
				return "", err
			}
		case VerbContentSkip:
			err := r.workflow.SkipContent(ctx, sub.ID)
			switch err {
			case nil:
				return fmt.Sprintf("⏭ Skipped content for 《%s》. Assigning reviewers based on title…", sub.Title), nil
			case ErrNoPendingContent:
				return fmt.Sprintf("No pending content request for submission #%d.", sub.ID), nil
			case ErrAlreadyFinalized:
				return fmt.Sprintf("《%s》 is already finalized.", sub.Title), nil
			default:
				return "", err
			}
		case VerbOverrideAssign:
			handles := parseHandles(cmd.Args)
			if len(handles) == 0 || len(handles) > 2 {
				return "Usage: /override <keyword_or_id> @user1 [@user2]", nil
			}
			err := r.workflow.Override(ctx, sub.ID, handles)
			switch err {
			case nil:
				return fmt.Sprintf("Override applied. New reviewers: %s", mentionList(handles)), nil
			case ErrOverrideTooLate:
				return "Review already started; override is no longer possible.", nil
			case ErrAlreadyFinalized:
				return fmt.Sprintf("《%s》 is already finalized.", sub.Title), nil
			default:
				return "", err
			}
		}
		return "", fmt.Errorf("unreachable operator verb %q", cmd.Verb)
	})
}

// withResolved looks up the target submission and runs the handler on a
// unique match. Ambiguity and absence are reported back, never guessed.
func (r *CommandRouter) withResolved(ctx context.Context, cmd Command, fn func(*submission.Submission) (string, error)) (string, error) {
	keyword := strings.TrimSpace(strings.Trim(cmd.Keyword, `"'`))
	if keyword == "" {
		return "Please name the submission: use a word from its title or its ID.", nil
	}

	sub, err := r.Resolve(ctx, keyword)
	if err != nil {
		if err == ErrNoMatch {
			return fmt.Sprintf("No active submission found matching '%s'.", keyword), nil
		}
		var amb *AmbiguousMatchError
		if errors.As(err, &amb) {
			lines := make([]string, len(amb.Matches))
			for i, m := range amb.Matches {
				lines[i] = fmt.Sprintf("#%d: 《%s》", m.ID, m.Title)
			}
			return fmt.Sprintf("Multiple submissions match '%s':\n%s\n\nPlease be more specific.",
				keyword, strings.Join(lines, "\n")), nil
		}
		return "", err
	}
	return fn(sub)
}

// AmbiguousMatchError reports a keyword that matched several active
// submissions.
type AmbiguousMatchError struct {
	Keyword string
	Matches []*submission.Submission
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("keyword %q matches %d active submissions", e.Keyword, len(e.Matches))
}

// Resolve maps a keyword or numeric ID to exactly one active submission.
func (r *CommandRouter) Resolve(ctx context.Context, keyword string) (*submission.Submission, error) {
	if id, err := strconv.ParseInt(keyword, 10, 64); err == nil {
		sub, err := r.subs.GetByID(ctx, id)
		if err != nil {
			return nil, ErrNoMatch
		}
		return sub, nil
	}

	matches, err := r.subs.FindActiveByKeyword(ctx, keyword)
	if err != nil {
		return nil, fmt.Errorf("searching submissions by keyword: %w", err)
	}
	switch len(matches) {
	case 0:
		return nil, ErrNoMatch
	case 1:
		return matches[0], nil
	default:
		return nil, &AmbiguousMatchError{Keyword: keyword, Matches: matches}
	}
}

func (r *CommandRouter) statusReply(ctx context.Context) (string, error) {
	active, err := r.subs.ListActive(ctx)
	if err != nil {
		return "", fmt.Errorf("listing active submissions: %w", err)
	}
	if len(active) == 0 {
		return "No active submissions right now.", nil
	}

	var b strings.Builder
	b.WriteString("Active Submissions:\n")
	for _, sub := range active {
		assignments, err := r.assigns.ListBySubmission(ctx, sub.ID)
		if err != nil {
			return "", fmt.Errorf("listing assignments for submission %d: %w", sub.ID, err)
		}
		parts := make([]string, len(assignments))
		for i, a := range assignments {
			parts[i] = fmt.Sprintf("@%s (%s)", a.ReviewerHandle, strings.ToLower(string(a.Status)))
		}
		reviewers := strings.Join(parts, ", ")
		if reviewers == "" {
			reviewers = "none"
		}
		b.WriteString(fmt.Sprintf("\n#%d — 《%s》\nStatus: %s\nReviewers: %s\n", sub.ID, sub.Title, sub.Status, reviewers))
	}
	return b.String(), nil
}

func (r *CommandRouter) issuerIsOperator(cmd Command) bool {
	// With no operator configured the operator-only commands are open;
	// small groups run without a dedicated operator.
	return r.operatorID == 0 || cmd.IssuerID == r.operatorID
}

func parseHandles(args string) []string {
	fields := strings.Fields(args)
	handles := make([]string, 0, len(fields))
	for _, f := range fields {
		h := strings.TrimPrefix(f, "@")
		if h != "" {
			handles = append(handles, h)
		}
	}
	return handles
}
