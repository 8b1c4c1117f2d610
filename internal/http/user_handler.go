package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"skillswap/internal/domain"
	"skillswap/internal/repository"
	"skillswap/internal/service"
)

// UserHandler expone la creación de usuarios de prueba para desarrollo
// local, cuando el proveedor de identidad real no está configurado. El
// signup real es responsabilidad del servicio de identidad.
type UserHandler struct {
	logger   *zap.Logger
	profiles repository.ProfileRepository
	tokens   *service.TokenService
}

// NewUserHandler crea una instancia de UserHandler.
func NewUserHandler(logger *zap.Logger, profiles repository.ProfileRepository, tokens *service.TokenService) *UserHandler {
	return &UserHandler{
		logger:   logger,
		profiles: profiles,
		tokens:   tokens,
	}
}

// CreateTestUser maneja POST /api/users (solo DEV_MODE): crea la fila de
// perfil con onboarded=false, como haría el signup, y devuelve un bearer
// token para recorrer el flujo.
func (h *UserHandler) CreateTestUser(c *gin.Context) {
	var req struct {
		Name    string `json:"name"`
		Subject string `json:"subject"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create test user request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	subject := req.Subject
	if subject == "" {
		subject = fmt.Sprintf("test_%d", time.Now().UnixMilli())
	}
	name := req.Name
	if name == "" {
		name = "Test User"
	}

	profile := domain.UserProfile{
		ID:        uuid.NewString(),
		Subject:   subject,
		Name:      name,
		Onboarded: false,
		CreatedAt: time.Now().UTC(),
	}

	if err := h.profiles.Create(c.Request.Context(), profile); err != nil {
		h.logger.Error("create test user failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create user"})
		return
	}

	token, err := h.tokens.MintAccessToken(subject, name)
	if err != nil {
		h.logger.Error("mint test token failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": profile, "token": token})
}
