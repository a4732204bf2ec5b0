package handlers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/eventreg/backend/internal/database"
	"github.com/eventreg/backend/internal/services/audit"
	"github.com/eventreg/backend/internal/services/review"
	"github.com/eventreg/backend/internal/services/submission"
)

// Reviewer is the review state machine surface used by the admin endpoints
type Reviewer interface {
	ReviewSubmission(ctx context.Context, id uuid.UUID, outcome review.Outcome, actor review.Actor, reason string, origin audit.Origin) (*database.Submission, error)
}

// AuditReader reads the audit log for the admin endpoints
type AuditReader interface {
	List(ctx context.Context, page, limit int) ([]database.AuditLog, int64, error)
}

// AdminHandler handles the authenticated admin endpoints
type AdminHandler struct {
	store    SubmissionStore
	reviewer Reviewer
	auditLog AuditReader
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(store SubmissionStore, reviewer Reviewer, auditLog AuditReader) *AdminHandler {
	return &AdminHandler{store: store, reviewer: reviewer, auditLog: auditLog}
}

// ListSubmissions returns submissions with optional status filter and pagination
func (h *AdminHandler) ListSubmissions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	params := submission.ListParams{
		Status: c.Query("status"),
		Page:   page,
		Limit:  limit,
	}
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 {
		params.Limit = 10
	}

	subs, total, err := h.store.List(c.Request.Context(), params)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to fetch submissions"})
		return
	}

	totalPages := int(math.Ceil(float64(total) / float64(params.Limit)))

	c.JSON(http.StatusOK, gin.H{
		"submissions": subs,
		"pagination": gin.H{
			"current_page": params.Page,
			"total_pages":  totalPages,
			"total_items":  total,
			"has_next":     params.Page < totalPages,
			"has_prev":     params.Page > 1,
		},
	})
}

// GetSubmission returns a single submission by id
func (h *AdminHandler) GetSubmission(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission ID"})
		return
	}

	sub, err := h.store.FindByID(c.Request.Context(), id)
	if err != nil {
		h.writeStoreError(c, err, "Failed to fetch submission")
		return
	}

	c.JSON(http.StatusOK, sub)
}

// GetReceipt returns the receipt payload for a submission as a data URL
func (h *AdminHandler) GetReceipt(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission ID"})
		return
	}

	sub, err := h.store.FindByID(c.Request.Context(), id)
	if err != nil {
		h.writeStoreError(c, err, "Failed to fetch receipt")
		return
	}

	if sub.ReceiptImage == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Receipt image not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data_url":      fmt.Sprintf("data:%s;base64,%s", sub.ReceiptMimeType, sub.ReceiptImage),
		"mime_type":     sub.ReceiptMimeType,
		"original_name": sub.ReceiptOriginalName,
		"size":          sub.ReceiptSize,
	})
}

// Approve approves a pending submission
func (h *AdminHandler) Approve(c *gin.Context) {
	h.reviewSubmission(c, review.OutcomeApprove, "")
}

// Reject rejects a pending submission with a mandatory reason
func (h *AdminHandler) Reject(c *gin.Context) {
	var req struct {
		Reason string `json:"reason"`
	}
	// An empty body is tolerated here; the state machine enforces the reason
	_ = c.ShouldBindJSON(&req)

	h.reviewSubmission(c, review.OutcomeReject, req.Reason)
}

func (h *AdminHandler) reviewSubmission(c *gin.Context, outcome review.Outcome, reason string) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission ID"})
		return
	}

	actor := review.Actor{
		Email: c.GetString("admin_email"),
		Name:  c.GetString("admin_name"),
	}
	origin := audit.Origin{
		IPAddress: c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	}

	sub, err := h.reviewer.ReviewSubmission(c.Request.Context(), id, outcome, actor, reason, origin)
	if err != nil {
		switch {
		case errors.Is(err, review.ErrReasonRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Rejection reason is required"})
		case errors.Is(err, review.ErrInvalidOutcome):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid review outcome"})
		case errors.Is(err, submission.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
		case errors.Is(err, submission.ErrAlreadyProcessed):
			c.JSON(http.StatusConflict, gin.H{"error": "Submission already processed"})
		case errors.Is(err, submission.ErrStorageUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Storage unavailable, please retry"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to review submission"})
		}
		return
	}

	message := "Submission approved successfully"
	if outcome == review.OutcomeReject {
		message = "Submission rejected successfully"
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    message,
		"submission": sub,
	})
}

// AuditLogs returns the audit log, paginated, newest first
func (h *AdminHandler) AuditLogs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	logs, total, err := h.auditLog.List(c.Request.Context(), page, limit)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to fetch audit logs"})
		return
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	totalPages := int(math.Ceil(float64(total) / float64(limit)))

	c.JSON(http.StatusOK, gin.H{
		"logs": logs,
		"pagination": gin.H{
			"current_page": page,
			"total_pages":  totalPages,
			"total_items":  total,
		},
	})
}

func (h *AdminHandler) writeStoreError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, submission.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
	case errors.Is(err, submission.ErrStorageUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": fallback})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
