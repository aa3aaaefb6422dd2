package accounts_test

import (
	"context"
	"testing"

	"github.com/classmate-dev/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionManager_IssueAndParse(t *testing.T) {
	ctx := context.Background()
	manager := accounts.NewSessionManager(newTestConfig())

	snapshot := accounts.AccountView{
		ID:        "11111111-2222-3333-4444-555555555555",
		Email:     "ada@example.com",
		Role:      accounts.RoleTrainer,
		FirstName: "Ada",
		Status:    accounts.StatusActive,
	}

	t.Run("round trip preserves the snapshot", func(t *testing.T) {
		token, err := manager.Issue(ctx, accounts.RoleTrainer, snapshot)
		require.NoError(t, err)
		require.NotEmpty(t, token)

		session, err := manager.Parse(token)
		require.NoError(t, err)
		assert.Equal(t, snapshot.ID, session.GetAccountID())
		assert.Equal(t, accounts.RoleTrainer, session.Role)
		assert.Equal(t, "test-issuer", session.Issuer)
		assert.Equal(t, snapshot.Email, session.Account.Email)
		assert.False(t, session.IsAdmin())

		uid, err := session.GetAccountUUID()
		require.NoError(t, err)
		assert.Equal(t, snapshot.ID, uid.String())
	})

	t.Run("admin sessions report IsAdmin", func(t *testing.T) {
		token, err := manager.Issue(ctx, accounts.RoleAdmin, snapshot)
		require.NoError(t, err)

		session, err := manager.Parse(token)
		require.NoError(t, err)
		assert.True(t, session.IsAdmin())
	})

	t.Run("cancelled context refuses issuance", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		token, err := manager.Issue(cancelled, accounts.RoleStudent, snapshot)
		assert.Empty(t, token)
		assert.Error(t, err)
	})

	t.Run("foreign token is rejected", func(t *testing.T) {
		other := accounts.NewSessionManager(&testConfig{
			signingKey:   "a-different-key",
			issuer:       "test-issuer",
			sessionHours: 1,
		})

		token, err := other.Issue(ctx, accounts.RoleStudent, snapshot)
		require.NoError(t, err)

		session, err := manager.Parse(token)
		assert.Nil(t, session)
		assert.True(t, accounts.IsMalformedError(err))
	})

	t.Run("garbage is malformed", func(t *testing.T) {
		session, err := manager.Parse("garbage")
		assert.Nil(t, session)
		assert.True(t, accounts.IsMalformedError(err))
	})
}
