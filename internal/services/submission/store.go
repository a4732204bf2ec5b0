package submission

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventreg/backend/internal/database"
	"github.com/eventreg/backend/internal/utils"
)

var (
	phonePattern = regexp.MustCompile(`^[+]?[0-9]{10,15}$`)
	emailPattern = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,})+$`)
)

// Store persists submission records. All review-time mutation goes through
// ConditionalTransition so that concurrent reviews stay race-free.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new submission store
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Draft holds the applicant-supplied fields for a new submission
type Draft struct {
	FirstName   string
	LastName    string
	PhoneNumber string
	Email       string
	ReferredBy  string

	ReceiptImage        string // base64 payload
	ReceiptMimeType     string
	ReceiptOriginalName string
	ReceiptSize         int64

	Amount int64
}

// TransitionFields holds the review metadata applied by a conditional transition
type TransitionFields struct {
	Status          database.SubmissionStatus
	ReviewedAt      time.Time
	ReviewedBy      string
	RejectionReason string
}

// ListParams controls filtering and pagination for List
type ListParams struct {
	Status string // empty means all statuses
	Page   int
	Limit  int
}

// Create validates the draft, assigns a reference code and persists the
// submission in pending state. A second submission with the same email fails
// with DuplicateEmailError carrying the existing reference code.
func (s *Store) Create(ctx context.Context, draft Draft) (*database.Submission, error) {
	if err := validateDraft(&draft); err != nil {
		return nil, err
	}

	// Pre-check gives a friendly error with the existing reference code;
	// the unique index catches the race between check and insert.
	var existing database.Submission
	err := s.db.WithContext(ctx).Where("email = ?", draft.Email).First(&existing).Error
	if err == nil {
		return nil, &DuplicateEmailError{Email: draft.Email, ExistingReferenceID: existing.ReferenceID}
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storageError("checking existing email", err)
	}

	sub := database.Submission{
		ReferenceID:         utils.GenerateReferenceID(),
		FirstName:           draft.FirstName,
		LastName:            draft.LastName,
		PhoneNumber:         draft.PhoneNumber,
		Email:               draft.Email,
		ReferredBy:          draft.ReferredBy,
		ReceiptImage:        draft.ReceiptImage,
		ReceiptMimeType:     draft.ReceiptMimeType,
		ReceiptOriginalName: draft.ReceiptOriginalName,
		ReceiptSize:         draft.ReceiptSize,
		Amount:              draft.Amount,
		Status:              database.StatusPending,
		SubmittedAt:         time.Now().UTC(),
	}

	if err := s.db.WithContext(ctx).Create(&sub).Error; err != nil {
		if isUniqueViolation(err, "email") {
			if ferr := s.db.WithContext(ctx).Where("email = ?", draft.Email).First(&existing).Error; ferr == nil {
				return nil, &DuplicateEmailError{Email: draft.Email, ExistingReferenceID: existing.ReferenceID}
			}
			return nil, &DuplicateEmailError{Email: draft.Email}
		}
		if isUniqueViolation(err, "reference_id") {
			// Never overwrite on a reference collision, surface it
			return nil, fmt.Errorf("reference code collision for %s: %w", sub.ReferenceID, err)
		}
		return nil, storageError("creating submission", err)
	}

	sub.FullName = sub.FirstName + " " + sub.LastName
	return &sub, nil
}

// FindByID looks up a submission by its internal id
func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (*database.Submission, error) {
	var sub database.Submission
	if err := s.db.WithContext(ctx).First(&sub, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageError("finding submission", err)
	}
	return &sub, nil
}

// FindByReferenceID looks up a submission by its human-readable reference code
func (s *Store) FindByReferenceID(ctx context.Context, referenceID string) (*database.Submission, error) {
	var sub database.Submission
	if err := s.db.WithContext(ctx).Where("reference_id = ?", referenceID).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageError("finding submission", err)
	}
	return &sub, nil
}

// List returns submissions ordered by submission time descending, optionally
// filtered by status, with the total count for pagination.
func (s *Store) List(ctx context.Context, params ListParams) ([]database.Submission, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 {
		params.Limit = 10
	}
	if params.Limit > 100 {
		params.Limit = 100
	}

	query := s.db.WithContext(ctx).Model(&database.Submission{})
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, storageError("counting submissions", err)
	}

	var subs []database.Submission
	offset := (params.Page - 1) * params.Limit
	if err := query.Order("submitted_at DESC").Limit(params.Limit).Offset(offset).Find(&subs).Error; err != nil {
		return nil, 0, storageError("listing submissions", err)
	}

	return subs, total, nil
}

// ConditionalTransition atomically applies the review fields iff the stored
// status still equals expected. The guard lives in the UPDATE's WHERE clause,
// so it is race-free across processes. A zero-row update is disambiguated
// into ErrNotFound or ErrAlreadyProcessed by a follow-up lookup.
func (s *Store) ConditionalTransition(ctx context.Context, id uuid.UUID, expected database.SubmissionStatus, fields TransitionFields) (*database.Submission, error) {
	updates := map[string]interface{}{
		"status":      fields.Status,
		"reviewed_at": fields.ReviewedAt,
		"reviewed_by": fields.ReviewedBy,
		"updated_at":  time.Now().UTC(),
	}
	if fields.RejectionReason != "" {
		updates["rejection_reason"] = fields.RejectionReason
	}

	result := s.db.WithContext(ctx).Model(&database.Submission{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(updates)
	if result.Error != nil {
		return nil, storageError("applying transition", result.Error)
	}

	if result.RowsAffected == 0 {
		var current database.Submission
		err := s.db.WithContext(ctx).First(&current, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, storageError("checking submission after failed transition", err)
		}
		return nil, ErrAlreadyProcessed
	}

	var updated database.Submission
	if err := s.db.WithContext(ctx).First(&updated, "id = ?", id).Error; err != nil {
		return nil, storageError("reloading submission", err)
	}
	return &updated, nil
}

func validateDraft(draft *Draft) error {
	draft.FirstName = strings.TrimSpace(draft.FirstName)
	draft.LastName = strings.TrimSpace(draft.LastName)
	draft.PhoneNumber = strings.TrimSpace(draft.PhoneNumber)
	draft.Email = strings.ToLower(strings.TrimSpace(draft.Email))
	draft.ReferredBy = strings.TrimSpace(draft.ReferredBy)

	required := []struct {
		field string
		value string
	}{
		{"first_name", draft.FirstName},
		{"last_name", draft.LastName},
		{"phone_number", draft.PhoneNumber},
		{"email", draft.Email},
		{"receipt", draft.ReceiptImage},
	}
	for _, r := range required {
		if r.value == "" {
			return &ValidationError{Field: r.field, Message: "is required"}
		}
	}

	if !phonePattern.MatchString(draft.PhoneNumber) {
		return &ValidationError{Field: "phone_number", Message: "must be 10-15 digits, optionally starting with +"}
	}
	if !emailPattern.MatchString(draft.Email) {
		return &ValidationError{Field: "email", Message: "must be a valid email address"}
	}
	if draft.Amount <= 0 {
		return &ValidationError{Field: "amount", Message: "must be positive"}
	}

	return nil
}

func isUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") && strings.Contains(msg, column)
}

func storageError(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrStorageUnavailable, err)
}
