package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"skillswap/internal/service"
)

// OnboardingHandler mantiene dependencias para los endpoints de onboarding.
type OnboardingHandler struct {
	logger     *zap.Logger
	onboarding *service.OnboardingService
}

// NewOnboardingHandler crea una instancia de OnboardingHandler.
func NewOnboardingHandler(logger *zap.Logger, onboarding *service.OnboardingService) *OnboardingHandler {
	return &OnboardingHandler{
		logger:     logger,
		onboarding: onboarding,
	}
}

// Submit maneja POST /api/onboard.
func (h *OnboardingHandler) Submit(c *gin.Context) {
	subject, ok := GetAuthSubject(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		h.logger.Warn("invalid onboard request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, err := h.onboarding.Submit(c.Request.Context(), subject, body)
	if err != nil {
		var validationErr *service.ValidationFailedError
		switch {
		case errors.As(err, &validationErr):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":  "Validation failed",
				"code":   "VALIDATION_ERROR",
				"errors": validationErr.Errors,
			})
		case errors.Is(err, service.ErrProfileNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "User not found. Please try signing up again.",
				"code":  "USER_NOT_FOUND",
			})
		case errors.Is(err, service.ErrAlreadyOnboarded):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "User has already completed onboarding",
				"code":  "ALREADY_ONBOARDED",
			})
		case errors.Is(err, service.ErrUsernameTaken):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Username is already taken",
				"code":  "USERNAME_TAKEN",
			})
		case errors.Is(err, service.ErrWalletConnected):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "This wallet is already connected to another account",
				"code":  "WALLET_ALREADY_CONNECTED",
			})
		case errors.Is(err, service.ErrRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
		default:
			h.logger.Error("onboarding failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete onboarding"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Onboarding completed successfully",
		"user":    user,
	})
}

// Status maneja GET /api/onboard.
func (h *OnboardingHandler) Status(c *gin.Context) {
	subject, ok := GetAuthSubject(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	status, err := h.onboarding.Status(c.Request.Context(), subject)
	if err != nil {
		h.logger.Error("onboarding status check failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check user status"})
		return
	}

	var user any
	if status.Profile != nil {
		user = status.Profile
	}
	c.JSON(http.StatusOK, gin.H{
		"exists":    status.Exists,
		"onboarded": status.Onboarded,
		"user":      user,
	})
}
