package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/eventreg/backend/internal/config"
	"github.com/eventreg/backend/internal/database"
	"github.com/eventreg/backend/internal/services/submission"
)

// SubmissionStore is the storage surface the HTTP layer needs
type SubmissionStore interface {
	Create(ctx context.Context, draft submission.Draft) (*database.Submission, error)
	FindByID(ctx context.Context, id uuid.UUID) (*database.Submission, error)
	FindByReferenceID(ctx context.Context, referenceID string) (*database.Submission, error)
	List(ctx context.Context, params submission.ListParams) ([]database.Submission, int64, error)
}

// SubmissionHandler handles the public registration endpoints
type SubmissionHandler struct {
	store SubmissionStore
	cfg   config.RegistrationConfig
}

// NewSubmissionHandler creates a new submission handler
func NewSubmissionHandler(store SubmissionStore, cfg config.RegistrationConfig) *SubmissionHandler {
	return &SubmissionHandler{store: store, cfg: cfg}
}

// Create handles a new registration submission with a receipt upload
func (h *SubmissionHandler) Create(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(h.cfg.MaxReceiptBytes); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse form data"})
		return
	}

	file, header, err := c.Request.FormFile("receipt")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Receipt file is required",
			"details": "Please upload a receipt image (JPG, PNG) or PDF file.",
		})
		return
	}
	defer file.Close()

	if header.Size > h.cfg.MaxReceiptBytes {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":    "File too large",
			"details":  fmt.Sprintf("Maximum file size is %d bytes.", h.cfg.MaxReceiptBytes),
			"max_size": h.cfg.MaxReceiptBytes,
		})
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if !h.mimeAllowed(mimeType) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":         "Invalid file type",
			"details":       "Only JPG, PNG, and PDF files are allowed.",
			"allowed_types": h.cfg.AllowedMimeTypes,
		})
		return
	}

	payload, err := io.ReadAll(io.LimitReader(file, h.cfg.MaxReceiptBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read receipt file"})
		return
	}
	if int64(len(payload)) > h.cfg.MaxReceiptBytes {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":    "File too large",
			"max_size": h.cfg.MaxReceiptBytes,
		})
		return
	}

	draft := submission.Draft{
		FirstName:           c.PostForm("firstName"),
		LastName:            c.PostForm("lastName"),
		PhoneNumber:         c.PostForm("phoneNumber"),
		Email:               c.PostForm("email"),
		ReferredBy:          c.PostForm("referredBy"),
		ReceiptImage:        base64.StdEncoding.EncodeToString(payload),
		ReceiptMimeType:     mimeType,
		ReceiptOriginalName: header.Filename,
		ReceiptSize:         int64(len(payload)),
		Amount:              h.cfg.FeeAmount,
	}

	sub, err := h.store.Create(c.Request.Context(), draft)
	if err != nil {
		var dupErr *submission.DuplicateEmailError
		var valErr *submission.ValidationError
		switch {
		case errors.As(err, &dupErr):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":                 "Email already registered",
				"details":               "This email address has already been used for registration. Each email can only be used once.",
				"existing_reference_id": dupErr.ExistingReferenceID,
			})
		case errors.As(err, &valErr):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Validation failed",
				"field":   valErr.Field,
				"details": valErr.Message,
			})
		case errors.Is(err, submission.ErrStorageUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error":   "Database connection error",
				"details": "Unable to reach storage. Please try again later.",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit registration"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":       "Registration submitted successfully",
		"reference_id":  sub.ReferenceID,
		"submission_id": sub.ID,
	})
}

// Status returns the public status view of a submission by reference code
func (h *SubmissionHandler) Status(c *gin.Context) {
	referenceID := c.Param("referenceId")

	sub, err := h.store.FindByReferenceID(c.Request.Context(), referenceID)
	if err != nil {
		if errors.Is(err, submission.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to retrieve status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reference_id": sub.ReferenceID,
		"status":       sub.Status,
		"submitted_at": sub.SubmittedAt,
		"full_name":    sub.FullName,
	})
}

func (h *SubmissionHandler) mimeAllowed(mimeType string) bool {
	for _, allowed := range h.cfg.AllowedMimeTypes {
		if mimeType == allowed {
			return true
		}
	}
	return false
}
