package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskregister/policy"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	f := newFixture()

	user, err := f.svc.Register(ctx, RegisterInput{
		FirstName: "Dana",
		LastName:  "Cole",
		Email:     "  Dana.Cole@Example.com ",
		Password:  "correct-horse-battery",
		Role:      policy.RoleRiskManager,
	})
	require.NoError(t, err)
	assert.Equal(t, "dana.cole@example.com", user.Email, "email is normalized")
	assert.Equal(t, "Dana Cole", user.FullName())
	assert.NotEqual(t, "correct-horse-battery", user.PasswordHash)

	authed, err := f.svc.Authenticate(ctx, "dana.cole@example.com", "correct-horse-battery")
	require.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)

	_, err = f.svc.Authenticate(ctx, "dana.cole@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.Authenticate(ctx, "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "unknown email is indistinguishable from a bad password")
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Register(ctx, RegisterInput{
		FirstName: "Dana", LastName: "Cole", Email: "not-an-email", Password: "longenough",
	})
	assert.True(t, IsValidation(err))

	_, err = f.svc.Register(ctx, RegisterInput{
		FirstName: "Dana", LastName: "Cole", Email: "d@example.com", Password: "short",
	})
	assert.True(t, IsValidation(err))

	_, err = f.svc.Register(ctx, RegisterInput{
		FirstName: "Dana", LastName: "Cole", Email: "d@example.com",
		Password: "longenough", Role: "superuser",
	})
	assert.True(t, IsValidation(err))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Register(ctx, RegisterInput{
		FirstName: "Dana", LastName: "Cole", Email: "d@example.com", Password: "longenough",
	})
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, RegisterInput{
		FirstName: "Other", LastName: "Dana", Email: "D@Example.com", Password: "longenough",
	})
	assert.True(t, IsValidation(err))
}

func TestRegisterDefaultsToRiskOwner(t *testing.T) {
	f := newFixture()
	user, err := f.svc.Register(ctx, RegisterInput{
		FirstName: "Dana", LastName: "Cole", Email: "d@example.com", Password: "longenough",
	})
	require.NoError(t, err)
	assert.Equal(t, policy.RoleRiskOwner, user.Role)
}
