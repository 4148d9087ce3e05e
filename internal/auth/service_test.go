package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/openbeelab/beemon/internal/config"
)

func testConfig() config.AuthConfig {
	return config.AuthConfig{
		AccessTokenSecret:  "access-secret",
		RefreshTokenSecret: "refresh-secret",
		AccessTokenTTL:     time.Minute,
		RefreshTokenTTL:    time.Hour,
		ResetTokenTTL:      30 * time.Minute,
		BcryptCost:         4,
	}
}

func TestRegisterSuccess(t *testing.T) {
	store := newMemoryStore()
	service := NewService(store, testConfig(), nil)

	result, err := service.Register(context.Background(), RegisterInput{
		Email:    "user@example.com",
		Password: "StrongPass1!",
	})
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	if result.User.PasswordHash != "" {
		t.Fatalf("expected password hash to be stripped from response")
	}
	if result.Tokens.AccessToken == "" || result.Tokens.RefreshToken == "" {
		t.Fatalf("expected tokens to be issued")
	}
	if len(store.users) != 1 {
		t.Fatalf("expected user stored; got %d", len(store.users))
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := newMemoryStore()
	service := NewService(store, testConfig(), nil)

	_, err := service.Register(context.Background(), RegisterInput{
		Email:    "user@example.com",
		Password: "StrongPass1!",
	})
	if err != nil {
		t.Fatalf("initial registration returned error: %v", err)
	}

	_, err = service.Register(context.Background(), RegisterInput{
		Email:    "user@example.com",
		Password: "AnotherPass2!",
	})
	if err == nil || err != ErrEmailAlreadyExists {
		t.Fatalf("expected ErrEmailAlreadyExists, got %v", err)
	}
}

func TestLoginStampsLastLogin(t *testing.T) {
	store := newMemoryStore()
	service := NewService(store, testConfig(), nil)

	_, err := service.Register(context.Background(), RegisterInput{
		Email:    "user@example.com",
		Password: "StrongPass1!",
	})
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	result, err := service.Login(context.Background(), LoginInput{
		Email:    "user@example.com",
		Password: "StrongPass1!",
	})
	if err != nil {
		t.Fatalf("login returned error: %v", err)
	}

	if result.Tokens.AccessToken == "" || result.Tokens.RefreshToken == "" {
		t.Fatalf("expected tokens to be issued")
	}
	if store.users["user@example.com"].LastLogin == nil {
		t.Fatalf("expected last login to be stamped")
	}
}

func TestLoginInvalidPassword(t *testing.T) {
	store := newMemoryStore()
	service := NewService(store, testConfig(), nil)

	_, err := service.Register(context.Background(), RegisterInput{
		Email:    "user@example.com",
		Password: "StrongPass1!",
	})
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	_, err = service.Login(context.Background(), LoginInput{
		Email:    "user@example.com",
		Password: "WrongPass",
	})
	if err == nil || err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	store := newMemoryStore()
	service := NewService(store, testConfig(), nil)

	registered, err := service.Register(context.Background(), RegisterInput{
		Email:    "user@example.com",
		Password: "StrongPass1!",
	})
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	refreshed, err := service.Refresh(context.Background(), registered.Tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh returned error: %v", err)
	}
	if refreshed.Tokens.RefreshToken == registered.Tokens.RefreshToken {
		t.Fatalf("expected a new refresh token")
	}

	// the old token was revoked by the rotation
	if _, err := service.Refresh(context.Background(), registered.Tokens.RefreshToken); err != ErrInvalidRefreshToken {
		t.Fatalf("expected ErrInvalidRefreshToken for rotated token, got %v", err)
	}
}

func TestRefreshUnknownToken(t *testing.T) {
	service := NewService(newMemoryStore(), testConfig(), nil)

	if _, err := service.Refresh(context.Background(), "no-such-token"); err != ErrInvalidRefreshToken {
		t.Fatalf("expected ErrInvalidRefreshToken, got %v", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	store := newMemoryStore()
	service := NewService(store, testConfig(), nil)

	_, err := service.Register(context.Background(), RegisterInput{
		Email:    "user@example.com",
		Password: "StrongPass1!",
	})
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	token, expiresAt, err := service.IssueResetToken(context.Background(), "user@example.com")
	if err != nil {
		t.Fatalf("issue reset token returned error: %v", err)
	}
	if token == "" || expiresAt.Before(time.Now()) {
		t.Fatalf("expected a live reset token")
	}

	if err := service.ResetPassword(context.Background(), token, "FreshPass2!"); err != nil {
		t.Fatalf("reset password returned error: %v", err)
	}

	if _, err := service.Login(context.Background(), LoginInput{Email: "user@example.com", Password: "StrongPass1!"}); err != ErrInvalidCredentials {
		t.Fatalf("old password must be rejected, got %v", err)
	}
	if _, err := service.Login(context.Background(), LoginInput{Email: "user@example.com", Password: "FreshPass2!"}); err != nil {
		t.Fatalf("new password must work, got %v", err)
	}

	// the token is single-use
	if err := service.ResetPassword(context.Background(), token, "ThirdPass3!"); err != ErrInvalidResetToken {
		t.Fatalf("expected ErrInvalidResetToken on reuse, got %v", err)
	}
}

func TestResetPasswordUnknownToken(t *testing.T) {
	service := NewService(newMemoryStore(), testConfig(), nil)

	if err := service.ResetPassword(context.Background(), "bogus", "FreshPass2!"); err != ErrInvalidResetToken {
		t.Fatalf("expected ErrInvalidResetToken, got %v", err)
	}
}

// memoryStore implements userStore for tests.
type memoryStore struct {
	users         map[string]User
	refreshTokens map[string]refreshRecord
	resetTokens   map[string]resetRecord
}

type refreshRecord struct {
	userID    uuid.UUID
	expiresAt time.Time
}

type resetRecord struct {
	userID    uuid.UUID
	expiresAt time.Time
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users:         make(map[string]User),
		refreshTokens: make(map[string]refreshRecord),
		resetTokens:   make(map[string]resetRecord),
	}
}

func (m *memoryStore) CreateUser(ctx context.Context, email, passwordHash string, displayName *string) (User, error) {
	if _, ok := m.users[email]; ok {
		return User{}, ErrEmailAlreadyExists
	}
	user := User{
		ID:           uuid.New(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	m.users[email] = user
	return user, nil
}

func (m *memoryStore) FindUserByEmail(ctx context.Context, email string) (User, error) {
	user, ok := m.users[email]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (m *memoryStore) FindUserByID(ctx context.Context, userID uuid.UUID) (User, error) {
	for _, user := range m.users {
		if user.ID == userID {
			return user, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (m *memoryStore) RecordLogin(ctx context.Context, userID uuid.UUID) error {
	for email, user := range m.users {
		if user.ID == userID {
			now := time.Now()
			user.LastLogin = &now
			m.users[email] = user
		}
	}
	return nil
}

func (m *memoryStore) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	for email, user := range m.users {
		if user.ID == userID {
			user.PasswordHash = passwordHash
			m.users[email] = user
		}
	}
	return nil
}

func (m *memoryStore) StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	m.refreshTokens[tokenHash] = refreshRecord{userID: userID, expiresAt: expiresAt}
	return nil
}

func (m *memoryStore) FindRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, time.Time, error) {
	rec, ok := m.refreshTokens[tokenHash]
	if !ok {
		return uuid.Nil, time.Time{}, ErrInvalidRefreshToken
	}
	return rec.userID, rec.expiresAt, nil
}

func (m *memoryStore) RevokeToken(ctx context.Context, userID uuid.UUID, tokenHash string) error {
	delete(m.refreshTokens, tokenHash)
	return nil
}

func (m *memoryStore) StoreResetToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	m.resetTokens[tokenHash] = resetRecord{userID: userID, expiresAt: expiresAt}
	return nil
}

func (m *memoryStore) ConsumeResetToken(ctx context.Context, tokenHash string) (uuid.UUID, error) {
	rec, ok := m.resetTokens[tokenHash]
	if !ok || rec.expiresAt.Before(time.Now()) {
		return uuid.Nil, ErrInvalidResetToken
	}
	delete(m.resetTokens, tokenHash)
	return rec.userID, nil
}
