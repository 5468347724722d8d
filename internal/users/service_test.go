package users

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"docsort-backend/internal/shared/auth"
)

func TestMain(m *testing.M) {
	auth.HashCost = bcrypt.MinCost
	os.Exit(m.Run())
}

func newTestService(t *testing.T) (*Service, *auth.Issuer) {
	t.Helper()
	issuer, err := auth.NewIssuer("test-secret", time.Hour)
	require.NoError(t, err)
	return NewService(NewMemoryRepo(), issuer), issuer
}

func TestSignupThenLogin(t *testing.T) {
	svc, issuer := newTestService(t)
	ctx := context.Background()

	user, err := svc.Signup(ctx, "a@example.com", "pw-1")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "pw-1", user.PasswordHash)

	token, err := svc.Login(ctx, "a@example.com", "pw-1")
	require.NoError(t, err)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.Subject)
	assert.Equal(t, "a@example.com", claims.Email)
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "a@example.com", "pw-1")
	require.NoError(t, err)

	_, err = svc.Signup(ctx, "a@example.com", "pw-2")
	assert.ErrorIs(t, err, ErrAlreadyExists)

	// Emails are stored as given, so a different case is a different account.
	_, err = svc.Signup(ctx, "A@example.com", "pw-2")
	assert.NoError(t, err)
}

func TestSignupRequiresFields(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Signup(context.Background(), "", "pw")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Signup(context.Background(), "a@example.com", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSignupRejectsOverlongPassword(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "long@example.com", strings.Repeat("x", auth.MaxPasswordBytes+28))
	require.ErrorIs(t, err, ErrPasswordTooLong)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Repo.GetByEmail(ctx, "long@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Signup(ctx, "edge@example.com", strings.Repeat("x", auth.MaxPasswordBytes))
	assert.NoError(t, err)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "a@example.com", "pw-1")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "a@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "pw-1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestFindOrCreateByEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.FindOrCreateByEmail(ctx, "g@example.com")
	require.NoError(t, err)
	second, err := svc.FindOrCreateByEmail(ctx, "g@example.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	// Password login never succeeds for an account without a password.
	_, err = svc.Login(ctx, "g@example.com", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Login(ctx, "g@example.com", "anything")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestFindOrCreateByEmailConcurrent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	const workers = 8
	ids := make([]string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user, err := svc.FindOrCreateByEmail(ctx, "race@example.com")
			if err == nil {
				ids[i] = user.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	assert.NotEmpty(t, ids[0])
}

func TestGetByIDMalformed(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)
}
