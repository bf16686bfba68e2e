package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/OldStager01/dpf-rul/internal/auth"
	"github.com/OldStager01/dpf-rul/internal/logger"
	"github.com/OldStager01/dpf-rul/pkg/config"
	"github.com/OldStager01/dpf-rul/pkg/database/queries"
	"github.com/OldStager01/dpf-rul/pkg/models"
)

type UserStore interface {
	GetByUsername(ctx context.Context, username string) (*models.Analyst, error)
}

type AuthHandler struct {
	users       UserStore
	authService *auth.Service
	config      config.APIConfig
}

func NewAuthHandler(users UserStore, authService *auth.Service, cfg config.APIConfig) *AuthHandler {
	if cfg.CookieName == "" {
		cfg.CookieName = "auth_token"
	}
	if cfg.CookiePath == "" {
		cfg.CookiePath = "/"
	}
	if cfg.CookieMaxAge == 0 {
		cfg.CookieMaxAge = int(authService.Duration().Seconds())
	}
	return &AuthHandler{
		users:       users,
		authService: authService,
		config:      cfg,
	}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"analyst"`
	Password string `json:"password" binding:"required" example:"S3cure!pass"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in" example:"86400"`
	Username  string `json:"username" example:"analyst"`
}

// Login godoc
// @Summary Log in
// @Description Exchange analyst credentials for a bearer token. The token is also set as an HTTP-only cookie.
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Analyst credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	user, err := h.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, queries.ErrUserNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		logger.ErrorCtxf(ctx, "Failed to load analyst %q: %v", req.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	if !auth.CheckPassword(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := h.authService.GenerateToken(user.ID, user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(
		h.config.CookieName,
		token,
		h.config.CookieMaxAge,
		h.config.CookiePath,
		"",
		h.config.CookieSecure,
		h.config.CookieHTTPOnly,
	)

	c.JSON(http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresIn: int(h.authService.Duration().Seconds()),
		Username:  user.Username,
	})
}
