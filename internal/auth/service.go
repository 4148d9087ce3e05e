package auth

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/openbeelab/beemon/internal/config"
)

const (
	refreshTokenLength = 48
	resetTokenLength   = 32
	maxPasswordLength  = 72 // bcrypt limit
)

// userStore abstracts the persistence layer.
type userStore interface {
	CreateUser(ctx context.Context, email, passwordHash string, displayName *string) (User, error)
	FindUserByEmail(ctx context.Context, email string) (User, error)
	FindUserByID(ctx context.Context, userID uuid.UUID) (User, error)
	RecordLogin(ctx context.Context, userID uuid.UUID) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
	StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	FindRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, time.Time, error)
	RevokeToken(ctx context.Context, userID uuid.UUID, tokenHash string) error
	StoreResetToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	ConsumeResetToken(ctx context.Context, tokenHash string) (uuid.UUID, error)
}

// Service encapsulates authentication use cases.
type Service struct {
	store    userStore
	cfg      config.AuthConfig
	logger   *zap.Logger
	nowFunc  func() time.Time
	idIssuer string
	parser   *jwt.Parser
}

// NewService creates a Service with dependencies.
func NewService(store userStore, cfg config.AuthConfig, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		cfg:      cfg,
		logger:   logger,
		nowFunc:  time.Now,
		idIssuer: "beemon",
		parser:   jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name})),
	}
}

// RegisterInput carries data for user registration.
type RegisterInput struct {
	Email       string
	Password    string
	DisplayName *string
}

// LoginInput carries login credentials.
type LoginInput struct {
	Email    string
	Password string
}

// AuthResult contains user and token information.
type AuthResult struct {
	User   User
	Tokens TokenPair
}

// UserClaims describes the validated identity extracted from an access token.
type UserClaims struct {
	UserID    uuid.UUID
	Email     string
	IsAdmin   bool
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// Register creates a new user, hashing the password and issuing tokens.
func (s *Service) Register(ctx context.Context, input RegisterInput) (AuthResult, error) {
	if err := validateCredentials(input.Email, input.Password); err != nil {
		return AuthResult{}, err
	}

	hashedPassword, err := hashPassword(input.Password, s.cfg.BcryptCost)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, strings.ToLower(input.Email), hashedPassword, input.DisplayName)
	if err != nil {
		if errors.Is(err, ErrEmailAlreadyExists) {
			return AuthResult{}, ErrEmailAlreadyExists
		}
		return AuthResult{}, fmt.Errorf("create user: %w", err)
	}

	return s.issueTokens(ctx, user)
}

// Login authenticates credentials, stamps the login time and issues a fresh
// token pair.
func (s *Service) Login(ctx context.Context, input LoginInput) (AuthResult, error) {
	if err := validateCredentials(input.Email, input.Password); err != nil {
		return AuthResult{}, ErrInvalidCredentials
	}

	user, err := s.store.FindUserByEmail(ctx, strings.ToLower(input.Email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return AuthResult{}, ErrInvalidCredentials
	}

	// login succeeds even when the stamp cannot be written
	if err := s.store.RecordLogin(ctx, user.ID); err != nil {
		s.logger.Warn("record login failed", zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	return s.issueTokens(ctx, user)
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued for its user.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (AuthResult, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return AuthResult{}, ErrInvalidRefreshToken
	}

	tokenHash := hashToken(refreshToken, s.cfg.RefreshTokenSecret)
	userID, expiresAt, err := s.store.FindRefreshToken(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, ErrInvalidRefreshToken) {
			return AuthResult{}, ErrInvalidRefreshToken
		}
		return AuthResult{}, fmt.Errorf("find refresh token: %w", err)
	}
	if expiresAt.Before(s.nowFunc()) {
		return AuthResult{}, ErrInvalidRefreshToken
	}

	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return AuthResult{}, ErrInvalidRefreshToken
		}
		return AuthResult{}, fmt.Errorf("find user: %w", err)
	}

	if err := s.store.RevokeToken(ctx, userID, tokenHash); err != nil {
		return AuthResult{}, fmt.Errorf("revoke refresh token: %w", err)
	}

	return s.issueTokens(ctx, user)
}

// IssueResetToken creates a password reset token for the account. The raw
// token is handed to the delivery channel, never stored.
func (s *Service) IssueResetToken(ctx context.Context, email string) (string, time.Time, error) {
	user, err := s.store.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", time.Time{}, ErrUserNotFound
		}
		return "", time.Time{}, fmt.Errorf("find user: %w", err)
	}

	raw := make([]byte, resetTokenLength)
	if _, err := rand.Read(raw); err != nil {
		return "", time.Time{}, fmt.Errorf("generate reset token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(raw)
	expiresAt := s.nowFunc().Add(s.cfg.ResetTokenTTL)

	if err := s.store.StoreResetToken(ctx, user.ID, hashToken(token, s.cfg.RefreshTokenSecret), expiresAt); err != nil {
		return "", time.Time{}, fmt.Errorf("store reset token: %w", err)
	}

	return token, expiresAt, nil
}

// ResetPassword consumes a reset token and replaces the account password.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if strings.TrimSpace(token) == "" {
		return ErrInvalidResetToken
	}
	if len(newPassword) < 8 || len(newPassword) > maxPasswordLength {
		return ErrInvalidCredentials
	}

	userID, err := s.store.ConsumeResetToken(ctx, hashToken(token, s.cfg.RefreshTokenSecret))
	if err != nil {
		if errors.Is(err, ErrInvalidResetToken) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("consume reset token: %w", err)
	}

	hashedPassword, err := hashPassword(newPassword, s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.store.UpdatePassword(ctx, userID, hashedPassword); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.logger.Info("password reset", zap.String("user_id", userID.String()))
	return nil
}

// ValidateAccessToken verifies the token signature and extracts user claims.
func (s *Service) ValidateAccessToken(tokenString string) (UserClaims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return UserClaims{}, ErrUnauthorized
	}

	parsed, err := s.parser.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.AccessTokenSecret), nil
	})
	if err != nil || !parsed.Valid {
		return UserClaims{}, ErrUnauthorized
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return UserClaims{}, ErrUnauthorized
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return UserClaims{}, ErrUnauthorized
	}

	userID, err := uuid.Parse(sub)
	if err != nil {
		return UserClaims{}, ErrUnauthorized
	}

	email, _ := claims["email"].(string)
	isAdmin, _ := claims["is_admin"].(bool)

	expFloat, okExp := claims["exp"].(float64)
	if !okExp {
		return UserClaims{}, ErrUnauthorized
	}
	exp := time.Unix(int64(expFloat), 0)

	iat := time.Time{}
	if iatFloat, ok := claims["iat"].(float64); ok {
		iat = time.Unix(int64(iatFloat), 0)
	}

	if exp.Before(s.nowFunc()) {
		return UserClaims{}, ErrUnauthorized
	}

	return UserClaims{
		UserID:    userID,
		Email:     email,
		IsAdmin:   isAdmin,
		ExpiresAt: exp,
		IssuedAt:  iat,
	}, nil
}

func (s *Service) issueTokens(ctx context.Context, user User) (AuthResult, error) {
	now := s.nowFunc()

	accessToken, accessExpiry, err := s.generateAccessToken(user, now)
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate access token: %w", err)
	}

	refreshToken, refreshExpiry, err := s.generateRefreshToken(now)
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate refresh token: %w", err)
	}

	refreshHash := hashToken(refreshToken, s.cfg.RefreshTokenSecret)
	if err := s.store.StoreRefreshToken(ctx, user.ID, refreshHash, refreshExpiry); err != nil {
		return AuthResult{}, fmt.Errorf("store refresh token: %w", err)
	}

	return AuthResult{
		User: user.SafeUser(),
		Tokens: TokenPair{
			AccessToken:        accessToken,
			AccessTokenExpiry:  accessExpiry,
			RefreshToken:       refreshToken,
			RefreshTokenExpiry: refreshExpiry,
		},
	}, nil
}

func (s *Service) generateAccessToken(user User, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(s.cfg.AccessTokenTTL)
	claims := jwt.MapClaims{
		"sub":      user.ID.String(),
		"iss":      s.idIssuer,
		"aud":      "beemon-api",
		"iat":      now.Unix(),
		"exp":      expiresAt.Unix(),
		"email":    user.Email,
		"is_admin": user.IsAdmin,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.AccessTokenSecret))
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

func (s *Service) generateRefreshToken(now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(s.cfg.RefreshTokenTTL)

	raw := make([]byte, refreshTokenLength)
	if _, err := rand.Read(raw); err != nil {
		return "", time.Time{}, err
	}

	token := base64.RawURLEncoding.EncodeToString(raw)
	return token, expiresAt, nil
}

func hashPassword(password string, cost int) (string, error) {
	if len(password) > maxPasswordLength {
		return "", fmt.Errorf("password exceeds maximum length of %d characters", maxPasswordLength)
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func hashToken(token, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

func validateCredentials(email, password string) error {
	if len(strings.TrimSpace(email)) == 0 || len(strings.TrimSpace(password)) == 0 {
		return ErrInvalidCredentials
	}

	if len(password) < 8 || len(password) > maxPasswordLength {
		return ErrInvalidCredentials
	}
	return nil
}
