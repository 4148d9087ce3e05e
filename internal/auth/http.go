package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RegisterRoutes mounts authentication endpoints under /auth.
func RegisterRoutes(router *gin.RouterGroup, service *Service, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	handler := &httpHandler{service: service, logger: logger}
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", handler.register)
		authGroup.POST("/login", handler.login)
		authGroup.POST("/refresh", handler.refresh)
		authGroup.POST("/password/forgot", handler.forgotPassword)
		authGroup.POST("/password/reset", handler.resetPassword)
	}
}

type httpHandler struct {
	service *Service
	logger  *zap.Logger
}

type registerRequest struct {
	Email       string  `json:"email" binding:"required,email"`
	Password    string  `json:"password" binding:"required,min=8,max=72"`
	DisplayName *string `json:"display_name" binding:"omitempty,max=128"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type authResponse struct {
	User struct {
		ID          string     `json:"id"`
		Email       string     `json:"email"`
		DisplayName *string    `json:"display_name,omitempty"`
		IsAdmin     bool       `json:"is_admin"`
		LastLogin   *time.Time `json:"last_login,omitempty"`
		CreatedAt   *time.Time `json:"created_at,omitempty"`
	} `json:"user"`
	Tokens struct {
		AccessToken        string `json:"access_token"`
		AccessTokenExpiry  int64  `json:"access_token_expires_at"`
		RefreshToken       string `json:"refresh_token"`
		RefreshTokenExpiry int64  `json:"refresh_token_expires_at"`
	} `json:"tokens"`
}

func (h *httpHandler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.Register(c.Request.Context(), RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		switch err {
		case ErrEmailAlreadyExists:
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		case ErrInvalidCredentials:
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid credentials"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register user"})
		}
		return
	}

	c.JSON(http.StatusCreated, marshalAuthResponse(result))
}

func (h *httpHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.Login(c.Request.Context(), LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch err {
		case ErrInvalidCredentials:
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to authenticate"})
		}
		return
	}

	c.JSON(http.StatusOK, marshalAuthResponse(result))
}

func (h *httpHandler) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		switch err {
		case ErrInvalidRefreshToken:
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to refresh tokens"})
		}
		return
	}

	c.JSON(http.StatusOK, marshalAuthResponse(result))
}

// forgotPassword always answers 202: whether the address exists must not be
// observable. The token travels over the configured delivery channel.
func (h *httpHandler) forgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, expiresAt, err := h.service.IssueResetToken(c.Request.Context(), req.Email)
	if err != nil && err != ErrUserNotFound {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue reset token"})
		return
	}
	if err == nil {
		h.logger.Info("password reset token issued",
			zap.String("email", req.Email),
			zap.Time("expires_at", expiresAt),
			zap.Int("token_length", len(token)),
		)
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "if the account exists, reset instructions have been sent"})
}

func (h *httpHandler) resetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		switch err {
		case ErrInvalidResetToken:
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired reset token"})
		case ErrInvalidCredentials:
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid password"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reset password"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

func marshalAuthResponse(result AuthResult) authResponse {
	resp := authResponse{}
	resp.User.ID = result.User.ID.String()
	resp.User.Email = result.User.Email
	resp.User.DisplayName = result.User.DisplayName
	resp.User.IsAdmin = result.User.IsAdmin
	resp.User.LastLogin = result.User.LastLogin
	if !result.User.CreatedAt.IsZero() {
		created := result.User.CreatedAt.UTC()
		resp.User.CreatedAt = &created
	}
	resp.Tokens.AccessToken = result.Tokens.AccessToken
	resp.Tokens.RefreshToken = result.Tokens.RefreshToken
	resp.Tokens.AccessTokenExpiry = result.Tokens.AccessTokenExpiry.Unix()
	resp.Tokens.RefreshTokenExpiry = result.Tokens.RefreshTokenExpiry.Unix()
	return resp
}
