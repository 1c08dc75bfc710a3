// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/micropost/micropost/internal/auth"
	"github.com/micropost/micropost/internal/metrics"
	"github.com/micropost/micropost/internal/model"
	"github.com/micropost/micropost/internal/repository"
)

// dummyPassword is hashed once so unknown emails cost one verification.
const dummyPassword = "not-a-real-password"

// CredentialService sets and verifies user passwords.
type CredentialService struct {
	store   CredentialRepository
	hasher  *auth.Hasher
	limiter LoginLimiter
	logger  *slog.Logger
	metrics metrics.Recorder
	now     func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewCredentialService creates a new CredentialService.
// A nil limiter disables login throttling.
func NewCredentialService(store CredentialRepository, hasher *auth.Hasher, limiter LoginLimiter, logger *slog.Logger, recorder metrics.Recorder) *CredentialService {
	if hasher == nil {
		hasher = auth.NewHasher(auth.DefaultParams)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &CredentialService{
		store:   store,
		hasher:  hasher,
		limiter: limiter,
		logger:  logger.With("component", "credential"),
		metrics: recorder,
		now:     time.Now,
	}
}

// SetPassword validates plaintext against its confirmation and replaces the
// user's stored hash. Nothing is written when validation fails.
func (s *CredentialService) SetPassword(ctx context.Context, userID, plaintext, confirmation string) error {
	if err := validatePassword(plaintext, confirmation); err != nil {
		return err
	}

	hash, err := s.hash(plaintext)
	if err != nil {
		return err
	}

	if err := s.store.UpdatePasswordHash(ctx, userID, hash, s.now().UTC()); err != nil {
		return wrapRepo("update_password_hash", err)
	}

	s.metrics.IncPasswordChanged()
	s.logger.Info("password_changed", "user_id", userID)
	return nil
}

// Verify reports whether plaintext matches the user's stored hash.
// A missing or malformed hash never verifies.
func (s *CredentialService) Verify(user *model.User, plaintext string) bool {
	if user == nil || !user.HasPassword() {
		return false
	}

	ok, err := auth.VerifyPassword(plaintext, user.PasswordHash)
	if err != nil {
		s.logger.Warn("password_hash_invalid", "user_id", user.ID, "error", err)
		return false
	}
	return ok
}

// Authenticate looks the email up case-insensitively and verifies the
// password. Unknown email and wrong password both yield (nil, false, nil).
func (s *CredentialService) Authenticate(ctx context.Context, email, plaintext string) (*model.User, bool, error) {
	key := auth.QuickHash(model.NormalizeEmail(email))

	if s.limiter != nil {
		allowed, retryAfter, err := s.limiter.AllowLogin(ctx, key)
		switch {
		case err != nil:
			// Fail open
			s.logger.Warn("login_limiter_unavailable", "error", err)
		case !allowed:
			s.metrics.IncLoginAttempt(metrics.LoginThrottled)
			s.logger.Warn("login_throttled", "email_hash", key, "retry_after", retryAfter)
			return nil, false, ErrLoginThrottled
		}
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, false, wrapRepo("find_user_by_email", err)
		}
		s.burnVerification(plaintext)
		s.loginFailed(key)
		return nil, false, nil
	}

	if !s.Verify(user, plaintext) {
		s.loginFailed(key)
		return nil, false, nil
	}

	s.metrics.IncLoginAttempt(metrics.LoginSuccess)
	s.logger.Info("login_succeeded", "user_id", user.ID)
	return user, true, nil
}

// hash creates a hash for a password that already passed validation.
func (s *CredentialService) hash(plaintext string) (string, error) {
	hash, err := s.hasher.Hash(plaintext)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return hash, nil
}

func (s *CredentialService) loginFailed(key string) {
	s.metrics.IncLoginAttempt(metrics.LoginFailure)
	s.logger.Info("login_failed", "email_hash", key)
}

// burnVerification runs one verification against a fixed hash so that an
// unknown email takes as long as a wrong password.
func (s *CredentialService) burnVerification(plaintext string) {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash(dummyPassword)
		if err != nil {
			s.logger.Error("dummy_hash_failed", "error", err)
			return
		}
		s.dummyHash = hash
	})
	if s.dummyHash != "" {
		_, _ = auth.VerifyPassword(plaintext, s.dummyHash)
	}
}
