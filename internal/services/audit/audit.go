package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventreg/backend/internal/database"
)

// Origin carries the request metadata attached to an audit entry
type Origin struct {
	IPAddress string
	UserAgent string
}

// Entry describes one auditable action
type Entry struct {
	AdminEmail   string
	Action       database.AuditAction
	SubmissionID *uuid.UUID
	ReferenceID  string
	Details      string
	Origin       Origin
}

// Recorder appends immutable audit log entries. Entries are never updated
// or deleted through this package.
type Recorder struct {
	db *gorm.DB
}

// NewRecorder creates a new audit recorder
func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

// Record appends one audit log entry
func (r *Recorder) Record(ctx context.Context, entry Entry) error {
	row := database.AuditLog{
		AdminEmail:   entry.AdminEmail,
		Action:       entry.Action,
		SubmissionID: entry.SubmissionID,
		ReferenceID:  entry.ReferenceID,
		Details:      entry.Details,
		IPAddress:    entry.Origin.IPAddress,
		UserAgent:    entry.Origin.UserAgent,
	}

	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to create audit log entry: %w", err)
	}
	return nil
}

// List returns audit log entries newest first with the total count
func (r *Recorder) List(ctx context.Context, page, limit int) ([]database.AuditLog, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&database.AuditLog{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	var logs []database.AuditLog
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}

	return logs, total, nil
}
