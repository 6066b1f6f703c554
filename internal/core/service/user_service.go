package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/martijn/userboard/internal/core/domain"
	"github.com/martijn/userboard/internal/core/repository"
)

// UserInput carries already-validated form values. An empty Password on
// update keeps the current credential.
type UserInput struct {
	Username string
	Name     string
	Email    string
	Role     string
	Password string
}

type UserService struct {
	users repository.UserRepository
	codec *CredentialCodec
}

func NewUserService(users repository.UserRepository, codec *CredentialCodec) *UserService {
	return &UserService{
		users: users,
		codec: codec,
	}
}

// List returns every user ordered by creation time.
func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, storeError("list users", err)
	}
	return users, nil
}

// Get loads a user by id.
func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, storeError("find user", err)
	}
	return user, nil
}

// Create adds a user after checking that neither email nor username is
// taken. The password is hashed before anything is written.
func (s *UserService) Create(ctx context.Context, in UserInput) (*domain.User, error) {
	if err := s.ensureUnique(ctx, "email", in.Email, s.users.FindByEmail); err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, "username", in.Username, s.users.FindByUsername); err != nil {
		return nil, err
	}

	user := domain.NewUser(in.Username, in.Name, in.Email, in.Role)
	if err := user.SetCredential(s.codec, in.Password); err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		// Lost a race against a concurrent insert
		if dup, ok := duplicateFromConstraint(err); ok {
			return nil, dup
		}
		return nil, storeError("create user", err)
	}
	return user, nil
}

// Update replaces every field of user id. Store failures, including unique
// index violations, leave the stored row untouched.
func (s *UserService) Update(ctx context.Context, id int64, in UserInput) (*domain.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Username = in.Username
	user.Name = in.Name
	user.Email = in.Email
	user.Role = in.Role
	if in.Password != "" {
		if err := user.SetCredential(s.codec, in.Password); err != nil {
			return nil, err
		}
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
		}
		return nil, storeError("update user", err)
	}
	return user, nil
}

// ChangePassword re-issues the credential of the named user.
func (s *UserService) ChangePassword(ctx context.Context, username, password string) error {
	user, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("user %s: %w", username, ErrNotFound)
	}
	if err != nil {
		return storeError("find user", err)
	}

	if err := user.SetCredential(s.codec, password); err != nil {
		return err
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.users.Update(ctx, user); err != nil {
		return storeError("update user", err)
	}
	return nil
}

// Delete removes user id and returns the removed record.
func (s *UserService) Delete(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
		}
		return nil, storeError("delete user", err)
	}
	return user, nil
}

func (s *UserService) ensureUnique(
	ctx context.Context,
	field, value string,
	find func(context.Context, string) (*domain.User, error),
) error {
	_, err := find(ctx, value)
	switch {
	case err == nil:
		return &DuplicateKeyError{Field: field}
	case errors.Is(err, repository.ErrNotFound):
		return nil
	default:
		return storeError("check "+field, err)
	}
}
