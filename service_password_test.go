package accounts_test

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/classmate-dev/go-accounts"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedWithPassword(repo *fakeRepo, email, password string) *accounts.Account {
	hash, err := accounts.HashPassword(password)
	if err != nil {
		panic(err)
	}
	return repo.accountsRepo.seed(&accounts.Account{
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Ada",
		LastName:     "Obi",
	})
}

func TestService_ChangePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("rotates the hash when the old password matches", func(t *testing.T) {
		service, repo, _ := newTestService()
		account := seedWithPassword(repo, "ada@example.com", "old-password-1")

		result, err := service.ChangePassword(ctx, account.ID.String(), "old-password-1", "new-password-2")
		require.NoError(t, err)
		assert.Equal(t, "Password change successful", result.Message)

		stored := repo.accountsRepo.get(account.ID)
		require.NotNil(t, stored)
		assert.NoError(t, accounts.ComparePasswordAndHash("new-password-2", stored.PasswordHash))
		assert.Error(t, accounts.ComparePasswordAndHash("old-password-1", stored.PasswordHash))
	})

	t.Run("wrong old password is rejected without mutation", func(t *testing.T) {
		service, repo, _ := newTestService()
		account := seedWithPassword(repo, "ada@example.com", "old-password-1")
		before := repo.accountsRepo.get(account.ID).PasswordHash

		result, err := service.ChangePassword(ctx, account.ID.String(), "not-it", "new-password-2")
		assert.Nil(t, result)
		assert.ErrorIs(t, err, accounts.ErrWrongOldPassword)
		assert.Equal(t, before, repo.accountsRepo.get(account.ID).PasswordHash)
	})

	t.Run("invalid account id maps to bad input", func(t *testing.T) {
		service, _, _ := newTestService()

		_, err := service.ChangePassword(ctx, "not-a-uuid", "a", "b")
		require.Error(t, err)

		var rich *goerrors.Error
		require.True(t, goerrors.As(err, &rich))
		assert.Equal(t, goerrors.CategoryBadInput, rich.Category)
	})
}

func TestService_RequestPasswordReset(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown email surfaces not found", func(t *testing.T) {
		service, _, notifier := newTestService()

		result, err := service.RequestPasswordReset(ctx, "nobody@example.com")
		assert.Nil(t, result)
		assert.ErrorIs(t, err, accounts.ErrAccountNotFound)
		assert.Empty(t, notifier.all())
	})

	t.Run("sends a reset link carrying a usable token", func(t *testing.T) {
		service, repo, notifier := newTestService()
		account := seedWithPassword(repo, "ada@example.com", "old-password-1")

		result, err := service.RequestPasswordReset(ctx, "ADA@example.com")
		require.NoError(t, err)
		assert.Contains(t, result.Message, "Reset password link has been sent")

		messages := notifier.all()
		require.Len(t, messages, 1)
		assert.Equal(t, "ada@example.com", messages[0].To)
		assert.Contains(t, messages[0].ActionLink, "https://app.test/auth/reset-password?emailToken=")

		// The emailed token completes the reset for that account.
		token := tokenFromLink(t, messages[0].ActionLink)
		done, err := service.CompletePasswordReset(ctx, account.ID.String(), token, "fresh-password-3")
		require.NoError(t, err)
		assert.Equal(t, "Your password has been changed", done.Message)

		stored := repo.accountsRepo.get(account.ID)
		require.NotNil(t, stored)
		assert.NoError(t, accounts.ComparePasswordAndHash("fresh-password-3", stored.PasswordHash))
		assert.True(t, stored.Verified, "a completed reset proves mailbox ownership")
	})
}

func TestService_CompletePasswordReset(t *testing.T) {
	ctx := context.Background()

	t.Run("expired token fails as link expired", func(t *testing.T) {
		service, repo, _ := newTestService()
		account := seedWithPassword(repo, "ada@example.com", "old-password-1")

		expired := tokenFor(t, account, -time.Minute)

		result, err := service.CompletePasswordReset(ctx, account.ID.String(), expired, "fresh-password-3")
		assert.Nil(t, result)
		assert.ErrorIs(t, err, accounts.ErrLinkExpired)

		stored := repo.accountsRepo.get(account.ID)
		assert.NoError(t, accounts.ComparePasswordAndHash("old-password-1", stored.PasswordHash))
	})

	t.Run("token bound to a different account fails", func(t *testing.T) {
		service, repo, _ := newTestService()
		victim := seedWithPassword(repo, "victim@example.com", "old-password-1")
		attacker := seedWithPassword(repo, "attacker@example.com", "old-password-1")

		token := tokenFor(t, attacker, time.Minute)

		result, err := service.CompletePasswordReset(ctx, victim.ID.String(), token, "fresh-password-3")
		assert.Nil(t, result)
		assert.ErrorIs(t, err, accounts.ErrLinkExpired)
	})

	t.Run("unknown or invalid id is unauthorized, not not-found", func(t *testing.T) {
		service, repo, _ := newTestService()
		account := seedWithPassword(repo, "ada@example.com", "old-password-1")
		token := tokenFor(t, account, time.Minute)

		for _, id := range []string{"not-a-uuid", "11111111-2222-3333-4444-555555555555"} {
			result, err := service.CompletePasswordReset(ctx, id, token, "fresh-password-3")
			assert.Nil(t, result)

			var rich *goerrors.Error
			require.True(t, goerrors.As(err, &rich))
			assert.Equal(t, goerrors.CategoryAuth, rich.Category)
		}
	})

	t.Run("garbage token fails as link expired", func(t *testing.T) {
		service, repo, _ := newTestService()
		account := seedWithPassword(repo, "ada@example.com", "old-password-1")

		result, err := service.CompletePasswordReset(ctx, account.ID.String(), "garbage", "fresh-password-3")
		assert.Nil(t, result)
		assert.ErrorIs(t, err, accounts.ErrLinkExpired)
	})
}

// tokenFor mints a reset token directly, bypassing the email round trip.
func tokenFor(t *testing.T, account *accounts.Account, ttl time.Duration) string {
	t.Helper()
	cfg := newTestConfig()
	ts := accounts.NewTokenService([]byte(cfg.GetSigningKey()), cfg.GetIssuer(), nil)
	token, err := ts.Generate(account.ID.String(), account.Email, ttl)
	require.NoError(t, err)
	return token
}

func tokenFromLink(t *testing.T, link string) string {
	t.Helper()
	u, err := url.Parse(link)
	require.NoError(t, err)
	token := u.Query().Get("emailToken")
	require.NotEmpty(t, token, "link %q carries no token", link)
	require.False(t, strings.Contains(token, " "))
	return token
}
