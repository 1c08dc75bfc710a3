package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/micropost/micropost/internal/model"
	"github.com/micropost/micropost/internal/repository"
)

// UserService is the user directory.
type UserService struct {
	users  UserStore
	creds  *CredentialService
	cache  FollowCache
	logger *slog.Logger
	now    func() time.Time
}

// NewUserService creates a new UserService. A nil cache skips invalidation
// on delete.
func NewUserService(users UserStore, creds *CredentialService, followCache FollowCache, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{
		users:  users,
		creds:  creds,
		cache:  followCache,
		logger: logger.With("component", "user"),
		now:    time.Now,
	}
}

// RegisterInput defines input for registering a user.
type RegisterInput struct {
	Name                 string `json:"name" validate:"required,max=50"`
	Email                string `json:"email" validate:"required,email"`
	Password             string `json:"password" validate:"required,min=6,max=40"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

// Register creates a user with a hashed password.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)

	if err := validateStruct(input); err != nil {
		return nil, err
	}

	hash, err := s.creds.hash(input.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &model.User{
		ID:           ulid.Make().String(),
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailTaken
		}
		return nil, wrapRepo("create_user", err)
	}

	s.logger.Info("user_registered", "user_id", user.ID)
	return user, nil
}

// FindByEmail looks a user up by email, ignoring case.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, wrapRepo("find_user_by_email", err)
	}
	return user, nil
}

// FindByID looks a user up by ID.
func (s *UserService) FindByID(ctx context.Context, id string) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, wrapRepo("find_user_by_id", err)
	}
	return user, nil
}

// SetAdmin grants or revokes the admin flag.
func (s *UserService) SetAdmin(ctx context.Context, id string, admin bool) error {
	if err := s.users.SetAdmin(ctx, id, admin, s.now().UTC()); err != nil {
		return wrapRepo("set_admin", err)
	}
	s.logger.Info("user_admin_changed", "user_id", id, "admin", admin)
	return nil
}

// Delete removes a user with all their follow edges and posts.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.users.DeleteUser(ctx, id); err != nil {
		return wrapRepo("delete_user", err)
	}

	if s.cache != nil {
		if err := s.cache.InvalidateUser(ctx, id); err != nil {
			s.logger.Warn("follow_cache_invalidate_failed", "user_id", id, "error", err)
		}
	}

	s.logger.Info("user_deleted", "user_id", id)
	return nil
}
