package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/micropost/micropost/internal/repository"
)

// Service errors.
var (
	ErrValidation       = errors.New("validation failed")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrSelfFollow       = fmt.Errorf("%w: user cannot follow themselves", ErrInvalidOperation)
	ErrRepository       = errors.New("repository error")
	ErrEmailTaken       = fmt.Errorf("%w: email has already been taken", ErrValidation)
	ErrLoginThrottled   = errors.New("too many login attempts")

	// ErrUserNotFound is returned when an operation names an unknown user.
	ErrUserNotFound = repository.ErrUserNotFound
)

// FieldError describes one failed rule on one input field.
// It never carries the rejected value.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

func (f FieldError) String() string {
	if f.Param != "" {
		return f.Field + ": " + f.Rule + "=" + f.Param
	}
	return f.Field + ": " + f.Rule
}

// ValidationError reports malformed input. It matches ErrValidation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.String()
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, ", ")
}

// Is makes errors.Is(err, ErrValidation) hold.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Has reports whether field failed any rule.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// RepositoryError wraps a storage failure. It matches ErrRepository and
// unwraps to the storage cause. It is never retried here.
type RepositoryError struct {
	Op  string
	Err error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrRepository, e.Op, e.Err)
}

func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrRepository) hold.
func (e *RepositoryError) Is(target error) bool {
	return target == ErrRepository
}

// wrapRepo classifies a storage error. Domain sentinels pass through,
// everything else becomes a RepositoryError.
func wrapRepo(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrUserNotFound) {
		return err
	}
	return &RepositoryError{Op: op, Err: err}
}
