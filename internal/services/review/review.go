package review

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eventreg/backend/internal/database"
	"github.com/eventreg/backend/internal/services/audit"
	"github.com/eventreg/backend/internal/services/submission"
)

// Outcome is the decision applied by a reviewing admin
type Outcome string

const (
	OutcomeApprove Outcome = "approve"
	OutcomeReject  Outcome = "reject"
)

var (
	// ErrReasonRequired is returned when a rejection carries no reason
	ErrReasonRequired = errors.New("rejection reason is required")

	// ErrInvalidOutcome is returned for an unknown review outcome
	ErrInvalidOutcome = errors.New("invalid review outcome")
)

// Actor identifies the reviewing admin
type Actor struct {
	Email string
	Name  string
}

// Store is the conditional-transition primitive the state machine relies on.
// The implementation must apply the transition atomically at the storage
// layer, not via read-then-write.
type Store interface {
	ConditionalTransition(ctx context.Context, id uuid.UUID, expected database.SubmissionStatus, fields submission.TransitionFields) (*database.Submission, error)
}

// Recorder appends audit entries for state-changing actions
type Recorder interface {
	Record(ctx context.Context, entry audit.Entry) error
}

// Notifier schedules outcome notifications off the request path
type Notifier interface {
	Enqueue(sub *database.Submission, status database.SubmissionStatus, reason string) bool
}

// Service is the submission review state machine. A submission moves from
// pending to exactly one terminal state, once, no matter how many reviews
// race for it.
type Service struct {
	store    Store
	recorder Recorder
	notifier Notifier
}

// NewService creates a review service with its collaborators injected
func NewService(store Store, recorder Recorder, notifier Notifier) *Service {
	return &Service{
		store:    store,
		recorder: recorder,
		notifier: notifier,
	}
}

// ReviewSubmission applies the admin's decision to a pending submission.
//
// The transition is attempted as a single conditional write guarded on the
// stored status still being pending; a concurrent review that already won
// surfaces as submission.ErrAlreadyProcessed. On success an audit entry is
// recorded synchronously and the outcome notification is scheduled in the
// background, then the updated submission is returned immediately.
func (s *Service) ReviewSubmission(ctx context.Context, id uuid.UUID, outcome Outcome, actor Actor, reason string, origin audit.Origin) (*database.Submission, error) {
	var target database.SubmissionStatus
	var action database.AuditAction

	switch outcome {
	case OutcomeApprove:
		target = database.StatusApproved
		action = database.ActionApproveSubmission
	case OutcomeReject:
		reason = strings.TrimSpace(reason)
		if reason == "" {
			return nil, ErrReasonRequired
		}
		target = database.StatusRejected
		action = database.ActionRejectSubmission
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidOutcome, outcome)
	}

	fields := submission.TransitionFields{
		Status:     target,
		ReviewedAt: time.Now().UTC(),
		ReviewedBy: actor.Email,
	}
	if outcome == OutcomeReject {
		fields.RejectionReason = reason
	}

	updated, err := s.store.ConditionalTransition(ctx, id, database.StatusPending, fields)
	if err != nil {
		return nil, err
	}

	// The transition is authoritative once the conditional write lands; an
	// audit insert failure is logged, not rolled back.
	if err := s.recorder.Record(ctx, audit.Entry{
		AdminEmail:   actor.Email,
		Action:       action,
		SubmissionID: &updated.ID,
		ReferenceID:  updated.ReferenceID,
		Details:      auditDetail(updated, outcome, reason),
		Origin:       origin,
	}); err != nil {
		log.Printf("Failed to record audit entry for %s: %v", updated.ReferenceID, err)
	}

	s.notifier.Enqueue(updated, target, reason)

	return updated, nil
}

func auditDetail(sub *database.Submission, outcome Outcome, reason string) string {
	fullName := sub.FirstName + " " + sub.LastName
	if outcome == OutcomeReject {
		return fmt.Sprintf("Rejected submission for %s (%s): %s", fullName, sub.ReferenceID, reason)
	}
	return fmt.Sprintf("Approved submission for %s (%s)", fullName, sub.ReferenceID)
}
