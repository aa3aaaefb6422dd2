package accounts_test

import (
	"context"
	"testing"
	"time"

	"github.com/classmate-dev/go-accounts"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_VerifyEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("valid token flips the verified flag", func(t *testing.T) {
		service, repo, _ := newTestService()
		account := repo.accountsRepo.seed(&accounts.Account{Email: "ada@example.com"})
		token := tokenFor(t, account, time.Hour)

		result, err := service.VerifyEmail(ctx, account.ID.String(), token)
		require.NoError(t, err)
		assert.Equal(t, "Email verified successfully", result.Message)

		stored := repo.accountsRepo.get(account.ID)
		require.NotNil(t, stored)
		assert.True(t, stored.Verified)
	})

	t.Run("token claim must match the supplied id", func(t *testing.T) {
		service, repo, _ := newTestService()
		target := repo.accountsRepo.seed(&accounts.Account{Email: "target@example.com"})
		other := repo.accountsRepo.seed(&accounts.Account{Email: "other@example.com"})

		// Token minted for one account, id naming another: neither side
		// may end up verified.
		token := tokenFor(t, other, time.Hour)

		result, err := service.VerifyEmail(ctx, target.ID.String(), token)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, accounts.ErrVerificationFailed)

		assert.False(t, repo.accountsRepo.get(target.ID).Verified)
		assert.False(t, repo.accountsRepo.get(other.ID).Verified)
	})

	t.Run("expired token fails generically", func(t *testing.T) {
		service, repo, _ := newTestService()
		account := repo.accountsRepo.seed(&accounts.Account{Email: "ada@example.com"})
		token := tokenFor(t, account, -time.Minute)

		result, err := service.VerifyEmail(ctx, account.ID.String(), token)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, accounts.ErrVerificationFailed)
		assert.False(t, repo.accountsRepo.get(account.ID).Verified)
	})

	t.Run("token for a deleted account fails", func(t *testing.T) {
		service, repo, _ := newTestService()
		ghost := &accounts.Account{Email: "ghost@example.com"}
		repo.accountsRepo.seed(ghost)
		token := tokenFor(t, ghost, time.Hour)
		delete(repo.accountsRepo.records, ghost.ID.String())

		result, err := service.VerifyEmail(ctx, ghost.ID.String(), token)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, accounts.ErrVerificationFailed)
	})
}

func TestService_ResendVerification(t *testing.T) {
	ctx := context.Background()

	t.Run("dispatches a fresh link", func(t *testing.T) {
		service, repo, notifier := newTestService()
		account := repo.accountsRepo.seed(&accounts.Account{
			Email:     "ada@example.com",
			FirstName: "Ada",
		})

		result, err := service.ResendVerification(ctx, account.ID.String())
		require.NoError(t, err)
		assert.Equal(t, "Verification link has been sent to your email", result.Message)

		messages := notifier.all()
		require.Len(t, messages, 1)
		assert.Equal(t, "ada@example.com", messages[0].To)
		assert.Contains(t, messages[0].ActionLink, "emailToken=")

		// The re-issued link verifies the account.
		token := tokenFromLink(t, messages[0].ActionLink)
		_, err = service.VerifyEmail(ctx, account.ID.String(), token)
		require.NoError(t, err)
		assert.True(t, repo.accountsRepo.get(account.ID).Verified)
	})

	t.Run("unknown account fails as bad request", func(t *testing.T) {
		service, _, notifier := newTestService()

		for _, id := range []string{"not-a-uuid", "11111111-2222-3333-4444-555555555555"} {
			result, err := service.ResendVerification(ctx, id)
			assert.Nil(t, result)

			var rich *goerrors.Error
			require.True(t, goerrors.As(err, &rich))
			assert.Equal(t, goerrors.CategoryBadInput, rich.Category)
			assert.Equal(t, "Unable to send verification email", rich.Message)
		}

		assert.Empty(t, notifier.all())
	})
}
