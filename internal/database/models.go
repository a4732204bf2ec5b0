package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SubmissionStatus represents the review state of a submission
type SubmissionStatus string

const (
	StatusPending  SubmissionStatus = "pending"
	StatusApproved SubmissionStatus = "approved"
	StatusRejected SubmissionStatus = "rejected"
)

// AuditAction represents the kind of action recorded in the audit log
type AuditAction string

const (
	ActionLogin             AuditAction = "login"
	ActionApproveSubmission AuditAction = "approve_submission"
	ActionRejectSubmission  AuditAction = "reject_submission"
)

// Submission represents one registration attempt. It is created once in
// pending state and mutated at most once by the review action.
type Submission struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ReferenceID string    `gorm:"uniqueIndex;not null" json:"reference_id"`

	FirstName   string `gorm:"not null" json:"first_name"`
	LastName    string `gorm:"not null" json:"last_name"`
	PhoneNumber string `gorm:"not null" json:"phone_number"`
	Email       string `gorm:"uniqueIndex;not null" json:"email"`
	ReferredBy  string `json:"referred_by,omitempty"`

	// Receipt payload stored as base64; the system never interprets it
	ReceiptImage        string `gorm:"type:text;not null" json:"-"`
	ReceiptMimeType     string `gorm:"not null" json:"receipt_mime_type"`
	ReceiptOriginalName string `gorm:"not null" json:"receipt_original_name"`
	ReceiptSize         int64  `gorm:"not null" json:"receipt_size"`

	// Fee amount fixed at creation, immutable for the life of the record
	Amount int64 `gorm:"not null" json:"amount"`

	Status SubmissionStatus `gorm:"not null;default:'pending'" json:"status"`

	SubmittedAt     time.Time  `gorm:"not null" json:"submitted_at"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	ReviewedBy      string     `json:"reviewed_by,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`

	// Derived at read time, never stored
	FullName string `gorm:"-" json:"full_name"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AfterFind computes derived fields on every read
func (s *Submission) AfterFind(tx *gorm.DB) error {
	s.FullName = s.FirstName + " " + s.LastName
	return nil
}

// IsTerminal reports whether the submission has reached a final state
func (s *Submission) IsTerminal() bool {
	return s.Status != StatusPending
}

// AuditLog is an immutable record of a state-changing or security-relevant
// action. Rows are only ever inserted.
type AuditLog struct {
	ID           uuid.UUID   `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	AdminEmail   string      `gorm:"not null;index" json:"admin_email"`
	Action       AuditAction `gorm:"not null;index" json:"action"`
	SubmissionID *uuid.UUID  `gorm:"type:uuid;index" json:"submission_id,omitempty"`
	ReferenceID  string      `json:"reference_id,omitempty"`
	Details      string      `gorm:"type:text" json:"details,omitempty"`
	IPAddress    string      `json:"ip_address,omitempty"`
	UserAgent    string      `json:"user_agent,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// Admin represents a reviewing administrator account
type Admin struct {
	ID               uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Email            string     `gorm:"uniqueIndex;not null" json:"email"`
	Name             string     `gorm:"not null" json:"name"`
	Password         string     `gorm:"not null" json:"-"`
	TwoFactorEnabled bool       `gorm:"default:false" json:"two_factor_enabled"`
	TwoFactorSecret  string     `json:"-"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
