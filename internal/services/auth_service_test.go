package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/tripmate-api/internal/constants"
	"github.com/yukikurage/tripmate-api/internal/models"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func TestAuthService_Signup(t *testing.T) {
	env := newTestEnv(t)

	result, err := env.auth.Signup(SignupInput{Name: " Alice ", Email: "Alice@Example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "Alice", result.User.Name)
	assert.Equal(t, "alice@example.com", result.User.Email)
	assert.NotEqual(t, "secret1", result.User.PasswordHash)
	assert.NotEmpty(t, result.Token)

	_, err = env.auth.Signup(SignupInput{Name: "Other", Email: "ALICE@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestAuthService_SignupValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name  string
		input SignupInput
		want  error
	}{
		{"missing name", SignupInput{Email: "a@example.com", Password: "secret1"}, ErrNameRequired},
		{"missing email", SignupInput{Name: "A", Password: "secret1"}, ErrEmailRequired},
		{"short password", SignupInput{Name: "A", Email: "a@example.com", Password: "12345"}, ErrPasswordTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Signup(tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.auth.Signup(SignupInput{Name: "Bob", Email: "bob@example.com", Password: "hunter22"})
	require.NoError(t, err)

	result, err := env.auth.Login(LoginInput{Email: "BOB@example.com", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", result.User.Email)

	_, err = env.auth.Login(LoginInput{Email: "bob@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.auth.Login(LoginInput{Email: "nobody@example.com", Password: "hunter22"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_GetUser(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "carol")

	found, err := env.auth.GetUser(user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, found.Email)

	_, err = env.auth.GetUser("missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAuthService_PasswordResetExpiryBoundary(t *testing.T) {
	issued := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	expiry := issued.Add(constants.OTPTTL)

	tests := []struct {
		name    string
		at      time.Time
		wantErr error
	}{
		{"one millisecond before expiry", expiry.Add(-time.Millisecond), nil},
		{"exactly at expiry", expiry, ErrInvalidOrExpiredOTP},
		{"one millisecond after expiry", expiry.Add(time.Millisecond), ErrInvalidOrExpiredOTP},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &testClock{now: issued}
			env := newTestEnv(t, WithClock(clock.Now))
			_, err := env.auth.Signup(SignupInput{Name: "Dana", Email: "dana@example.com", Password: "oldpass"})
			require.NoError(t, err)

			require.NoError(t, env.auth.RequestPasswordReset(context.Background(), "dana@example.com"))
			code := env.mailer.lastCode(t)
			assert.Len(t, code, constants.OTPDigits)

			clock.Set(tt.at)
			err = env.auth.ConfirmPasswordReset(ConfirmResetInput{Email: "dana@example.com", Code: code, NewPassword: "newpass"})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				_, err = env.auth.Login(LoginInput{Email: "dana@example.com", Password: "oldpass"})
				assert.NoError(t, err)
				return
			}

			require.NoError(t, err)
			_, err = env.auth.Login(LoginInput{Email: "dana@example.com", Password: "newpass"})
			assert.NoError(t, err)
		})
	}
}

func TestAuthService_PasswordResetCodeIsSingleUse(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.auth.Signup(SignupInput{Name: "Eve", Email: "eve@example.com", Password: "oldpass"})
	require.NoError(t, err)

	require.NoError(t, env.auth.RequestPasswordReset(context.Background(), "eve@example.com"))
	code := env.mailer.lastCode(t)

	require.NoError(t, env.auth.ConfirmPasswordReset(ConfirmResetInput{Email: "eve@example.com", Code: code, NewPassword: "newpass"}))
	err = env.auth.ConfirmPasswordReset(ConfirmResetInput{Email: "eve@example.com", Code: code, NewPassword: "otherpass"})
	assert.ErrorIs(t, err, ErrInvalidOrExpiredOTP)
}

func TestAuthService_LatestResetCodeWins(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.auth.Signup(SignupInput{Name: "Finn", Email: "finn@example.com", Password: "oldpass"})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, env.auth.RequestPasswordReset(ctx, "finn@example.com"))
	first := env.mailer.lastCode(t)

	second := first
	for i := 0; i < 5 && second == first; i++ {
		require.NoError(t, env.auth.RequestPasswordReset(ctx, "finn@example.com"))
		second = env.mailer.lastCode(t)
	}
	require.NotEqual(t, first, second)

	err = env.auth.ConfirmPasswordReset(ConfirmResetInput{Email: "finn@example.com", Code: first, NewPassword: "newpass"})
	assert.ErrorIs(t, err, ErrInvalidOrExpiredOTP)

	require.NoError(t, env.auth.ConfirmPasswordReset(ConfirmResetInput{Email: "finn@example.com", Code: second, NewPassword: "newpass"}))
	assert.Equal(t, int64(0), env.count(t, &models.PasswordReset{}, "1 = 1"))
}

func TestAuthService_PasswordResetErrors(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.auth.Signup(SignupInput{Name: "Gus", Email: "gus@example.com", Password: "oldpass"})
	require.NoError(t, err)
	ctx := context.Background()

	err = env.auth.RequestPasswordReset(ctx, "unknown@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)

	err = env.auth.ConfirmPasswordReset(ConfirmResetInput{Email: "gus@example.com", Code: "123456", NewPassword: "newpass"})
	assert.ErrorIs(t, err, ErrInvalidOrExpiredOTP, "no pending reset")

	err = env.auth.ConfirmPasswordReset(ConfirmResetInput{Email: "unknown@example.com", Code: "123456", NewPassword: "newpass"})
	assert.ErrorIs(t, err, ErrInvalidOrExpiredOTP, "unknown email")

	err = env.auth.ConfirmPasswordReset(ConfirmResetInput{Email: "gus@example.com", Code: "123456", NewPassword: "123"})
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	env.mailer.err = errors.New("smtp: connection refused")
	err = env.auth.RequestPasswordReset(ctx, "gus@example.com")
	assert.ErrorIs(t, err, ErrEmailDeliveryFailed)
}
