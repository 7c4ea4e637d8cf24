package service

import (
	"context"
	"errors"
	"strings"

	"riskregister/models"
	"riskregister/policy"
	"riskregister/store"
	"riskregister/utils"
)

// Hash of a throwaway password, compared against when the email does not
// resolve so that lookup failures cost the same as password failures.
const dummyHash = "$2a$14$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

type RegisterInput struct {
	FirstName  string
	LastName   string
	Email      string
	Password   string
	Role       string // defaults to risk_owner
	Department string
}

// Register creates a user account. Email uniqueness is enforced by the
// store; a duplicate surfaces as a validation error.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if in.FirstName == "" || in.LastName == "" {
		return nil, invalidf("first_name and last_name are required")
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, invalidf("a valid email is required")
	}
	if len(in.Password) < 8 {
		return nil, invalidf("password must be at least 8 characters")
	}
	role := in.Role
	if role == "" {
		role = policy.RoleRiskOwner
	}
	if !policy.ValidRole(role) {
		return nil, invalidf("invalid role %q", role)
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Department:   in.Department,
		CreatedAt:    s.now(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			return nil, invalidf("email is already registered")
		}
		return nil, err
	}
	s.audit(ctx, user, "user_register", "user", user.ID, map[string]interface{}{"role": user.Role})
	return user, nil
}

// Authenticate resolves a user by email and verifies the password. Both
// failure modes return ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			utils.CheckPasswordHash(password, dummyHash)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// GetUser loads a user by id.
func (s *Service) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.store.GetUser(ctx, id)
}
