package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/eventreg/backend/internal/config"
	"github.com/eventreg/backend/internal/database"
	"github.com/eventreg/backend/internal/services/audit"
	"github.com/eventreg/backend/internal/utils"
)

// AuditRecorder records security-relevant actions
type AuditRecorder interface {
	Record(ctx context.Context, entry audit.Entry) error
}

// AuthHandler handles admin authentication
type AuthHandler struct {
	db       *gorm.DB
	jwtCfg   config.JWTConfig
	recorder AuditRecorder
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(db *gorm.DB, jwtCfg config.JWTConfig, recorder AuditRecorder) *AuthHandler {
	return &AuthHandler{db: db, jwtCfg: jwtCfg, recorder: recorder}
}

// LoginRequest represents the request body for admin login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	TOTPCode string `json:"totp_code"` // required only when 2FA is enabled
}

// Login authenticates an admin and issues a JWT
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var admin database.Admin
	if err := h.db.Where("email = ?", req.Email).First(&admin).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Login failed"})
		return
	}

	if !utils.CheckPasswordHash(req.Password, admin.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if admin.TwoFactorEnabled {
		if req.TOTPCode == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "TOTP code required"})
			return
		}
		if !utils.ValidateTOTPCode(admin.TwoFactorSecret, req.TOTPCode) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid TOTP code"})
			return
		}
	}

	token, err := utils.GenerateToken(h.jwtCfg.Secret, admin.ID, admin.Email, admin.Name, h.jwtCfg.Expiration)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	now := time.Now().UTC()
	if err := h.db.Model(&admin).Update("last_login_at", now).Error; err != nil {
		log.Printf("Failed to update last login for %s: %v", admin.Email, err)
	}

	if err := h.recorder.Record(c.Request.Context(), audit.Entry{
		AdminEmail: admin.Email,
		Action:     database.ActionLogin,
		Origin: audit.Origin{
			IPAddress: c.ClientIP(),
			UserAgent: c.GetHeader("User-Agent"),
		},
	}); err != nil {
		log.Printf("Failed to record login audit entry for %s: %v", admin.Email, err)
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"admin": gin.H{
			"id":    admin.ID,
			"email": admin.Email,
			"name":  admin.Name,
		},
	})
}

// Verify is a lightweight token validation probe for the frontend
func (h *AuthHandler) Verify(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"admin": gin.H{
			"id":    c.GetString("admin_id"),
			"email": c.GetString("admin_email"),
			"name":  c.GetString("admin_name"),
		},
	})
}

// SetupTwoFactor provisions a TOTP secret for the logged-in admin. The
// secret only takes effect after EnableTwoFactor confirms a valid code.
func (h *AuthHandler) SetupTwoFactor(c *gin.Context) {
	email := c.GetString("admin_email")

	var admin database.Admin
	if err := h.db.Where("email = ?", email).First(&admin).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Admin not found"})
		return
	}

	secret, url, err := utils.GenerateTOTPSecret(admin.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate TOTP secret"})
		return
	}

	if err := h.db.Model(&admin).Update("two_factor_secret", secret).Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to store TOTP secret"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"secret": secret,
		"url":    url,
	})
}

// EnableTwoFactor turns on 2FA after the admin confirms a valid code
func (h *AuthHandler) EnableTwoFactor(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "TOTP code is required"})
		return
	}

	email := c.GetString("admin_email")

	var admin database.Admin
	if err := h.db.Where("email = ?", email).First(&admin).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Admin not found"})
		return
	}

	if admin.TwoFactorSecret == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "TOTP has not been set up"})
		return
	}

	if !utils.ValidateTOTPCode(admin.TwoFactorSecret, req.Code) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid TOTP code"})
		return
	}

	if err := h.db.Model(&admin).Update("two_factor_enabled", true).Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to enable TOTP"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Two-factor authentication enabled"})
}
