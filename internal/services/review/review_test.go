package review

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventreg/backend/internal/database"
	"github.com/eventreg/backend/internal/services/audit"
	"github.com/eventreg/backend/internal/services/submission"
)

// fakeStore applies conditional transitions against an in-memory record with
// the same atomicity guarantee the SQL guard provides.
type fakeStore struct {
	mu   sync.Mutex
	subs map[uuid.UUID]*database.Submission
	err  error
}

func newFakeStore(subs ...*database.Submission) *fakeStore {
	fs := &fakeStore{subs: make(map[uuid.UUID]*database.Submission)}
	for _, s := range subs {
		fs.subs[s.ID] = s
	}
	return fs
}

func (f *fakeStore) ConditionalTransition(ctx context.Context, id uuid.UUID, expected database.SubmissionStatus, fields submission.TransitionFields) (*database.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}

	sub, ok := f.subs[id]
	if !ok {
		return nil, submission.ErrNotFound
	}
	if sub.Status != expected {
		return nil, submission.ErrAlreadyProcessed
	}

	sub.Status = fields.Status
	reviewedAt := fields.ReviewedAt
	sub.ReviewedAt = &reviewedAt
	sub.ReviewedBy = fields.ReviewedBy
	sub.RejectionReason = fields.RejectionReason

	copied := *sub
	return &copied, nil
}

type fakeRecorder struct {
	mu      sync.Mutex
	entries []audit.Entry
	err     error
}

func (f *fakeRecorder) Record(ctx context.Context, entry audit.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, entry)
	return nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	enqueued []database.SubmissionStatus
	accept   bool
}

func (f *fakeNotifier) Enqueue(sub *database.Submission, status database.SubmissionStatus, reason string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enqueued = append(f.enqueued, status)
	return f.accept
}

func pendingSubmission() *database.Submission {
	return &database.Submission{
		ID:          uuid.New(),
		ReferenceID: "REF1750000000000ABCDE",
		FirstName:   "Ama",
		LastName:    "Mensah",
		Email:       "ama@example.com",
		Status:      database.StatusPending,
		SubmittedAt: time.Now().UTC(),
	}
}

func TestApproveTransitionsAndAudits(t *testing.T) {
	sub := pendingSubmission()
	store := newFakeStore(sub)
	recorder := &fakeRecorder{}
	notifier := &fakeNotifier{accept: true}
	svc := NewService(store, recorder, notifier)

	actor := Actor{Email: "admin@example.com", Name: "Admin"}
	origin := audit.Origin{IPAddress: "10.0.0.1", UserAgent: "test-agent"}

	updated, err := svc.ReviewSubmission(context.Background(), sub.ID, OutcomeApprove, actor, "", origin)
	require.NoError(t, err)

	assert.Equal(t, database.StatusApproved, updated.Status)
	assert.Equal(t, "admin@example.com", updated.ReviewedBy)
	require.NotNil(t, updated.ReviewedAt)

	require.Len(t, recorder.entries, 1)
	entry := recorder.entries[0]
	assert.Equal(t, database.ActionApproveSubmission, entry.Action)
	assert.Equal(t, "admin@example.com", entry.AdminEmail)
	assert.Equal(t, sub.ReferenceID, entry.ReferenceID)
	assert.Equal(t, "10.0.0.1", entry.Origin.IPAddress)
	assert.Contains(t, entry.Details, "Ama Mensah")

	require.Len(t, notifier.enqueued, 1)
	assert.Equal(t, database.StatusApproved, notifier.enqueued[0])
}

func TestRejectRequiresReason(t *testing.T) {
	sub := pendingSubmission()
	store := newFakeStore(sub)
	recorder := &fakeRecorder{}
	notifier := &fakeNotifier{accept: true}
	svc := NewService(store, recorder, notifier)

	_, err := svc.ReviewSubmission(context.Background(), sub.ID, OutcomeReject, Actor{Email: "admin@example.com"}, "   ", audit.Origin{})
	assert.ErrorIs(t, err, ErrReasonRequired)

	// Validation failures must not reach storage, audit or notification.
	assert.Equal(t, database.StatusPending, sub.Status)
	assert.Empty(t, recorder.entries)
	assert.Empty(t, notifier.enqueued)
}

func TestRejectRecordsReason(t *testing.T) {
	sub := pendingSubmission()
	store := newFakeStore(sub)
	recorder := &fakeRecorder{}
	notifier := &fakeNotifier{accept: true}
	svc := NewService(store, recorder, notifier)

	updated, err := svc.ReviewSubmission(context.Background(), sub.ID, OutcomeReject, Actor{Email: "admin@example.com"}, "Receipt unreadable", audit.Origin{})
	require.NoError(t, err)

	assert.Equal(t, database.StatusRejected, updated.Status)
	assert.Equal(t, "Receipt unreadable", updated.RejectionReason)

	require.Len(t, recorder.entries, 1)
	assert.Equal(t, database.ActionRejectSubmission, recorder.entries[0].Action)
	assert.Contains(t, recorder.entries[0].Details, "Receipt unreadable")
}

func TestInvalidOutcome(t *testing.T) {
	sub := pendingSubmission()
	svc := NewService(newFakeStore(sub), &fakeRecorder{}, &fakeNotifier{accept: true})

	_, err := svc.ReviewSubmission(context.Background(), sub.ID, Outcome("escalate"), Actor{Email: "admin@example.com"}, "", audit.Origin{})
	assert.ErrorIs(t, err, ErrInvalidOutcome)
}

func TestTransitionFailureSkipsAuditAndNotify(t *testing.T) {
	sub := pendingSubmission()
	sub.Status = database.StatusApproved
	store := newFakeStore(sub)
	recorder := &fakeRecorder{}
	notifier := &fakeNotifier{accept: true}
	svc := NewService(store, recorder, notifier)

	_, err := svc.ReviewSubmission(context.Background(), sub.ID, OutcomeApprove, Actor{Email: "admin@example.com"}, "", audit.Origin{})
	assert.ErrorIs(t, err, submission.ErrAlreadyProcessed)
	assert.Empty(t, recorder.entries)
	assert.Empty(t, notifier.enqueued)
}

func TestAuditFailureDoesNotFailReview(t *testing.T) {
	sub := pendingSubmission()
	store := newFakeStore(sub)
	recorder := &fakeRecorder{err: errors.New("audit insert failed")}
	notifier := &fakeNotifier{accept: true}
	svc := NewService(store, recorder, notifier)

	updated, err := svc.ReviewSubmission(context.Background(), sub.ID, OutcomeApprove, Actor{Email: "admin@example.com"}, "", audit.Origin{})
	require.NoError(t, err)
	assert.Equal(t, database.StatusApproved, updated.Status)

	// The notification is still scheduled even when the audit write failed.
	assert.Len(t, notifier.enqueued, 1)
}

func TestNotifierRejectionIsInvisibleToCaller(t *testing.T) {
	sub := pendingSubmission()
	svc := NewService(newFakeStore(sub), &fakeRecorder{}, &fakeNotifier{accept: false})

	updated, err := svc.ReviewSubmission(context.Background(), sub.ID, OutcomeApprove, Actor{Email: "admin@example.com"}, "", audit.Origin{})
	require.NoError(t, err)
	assert.Equal(t, database.StatusApproved, updated.Status)
}

func TestConcurrentReviewsHaveExactlyOneWinner(t *testing.T) {
	sub := pendingSubmission()
	store := newFakeStore(sub)
	recorder := &fakeRecorder{}
	notifier := &fakeNotifier{accept: true}
	svc := NewService(store, recorder, notifier)

	const attempts = 16
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		outcome := OutcomeApprove
		reason := ""
		if i%2 == 1 {
			outcome = OutcomeReject
			reason = "Receipt unreadable"
		}
		wg.Add(1)
		go func(o Outcome, r string) {
			defer wg.Done()
			_, err := svc.ReviewSubmission(context.Background(), sub.ID, o, Actor{Email: "admin@example.com"}, r, audit.Origin{})
			results <- err
		}(outcome, reason)
	}
	wg.Wait()
	close(results)

	var wins, losses int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, submission.ErrAlreadyProcessed):
			losses++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, wins)
	assert.Equal(t, attempts-1, losses)
	assert.Len(t, recorder.entries, 1)
	assert.Len(t, notifier.enqueued, 1)
}
