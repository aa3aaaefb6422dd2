package accounts_test

import (
	"encoding/json"
	"testing"

	"github.com/classmate-dev/go-accounts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccount_Sanitize(t *testing.T) {
	account := &accounts.Account{
		ID:           uuid.New(),
		Role:         accounts.RoleStudent,
		Email:        "ada@example.com",
		PasswordHash: "$2a$14$secret",
		ProviderID:   "google.com",
		SocialUID:    "uid-123",
		FirstName:    "Ada",
		LastName:     "Obi",
	}

	view := account.Sanitize()

	assert.Equal(t, account.ID.String(), view.ID)
	assert.Equal(t, "ada@example.com", view.Email)
	assert.Equal(t, accounts.StatusActive, view.Status, "missing status defaults to active")

	// Credential material must not survive serialization of the view.
	raw, err := json.Marshal(view)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")
	assert.NotContains(t, string(raw), "uid-123")
	assert.NotContains(t, string(raw), "google.com")
}

func TestAccount_FullName(t *testing.T) {
	tests := []struct {
		name     string
		account  accounts.Account
		expected string
	}{
		{name: "both names", account: accounts.Account{FirstName: "Ada", LastName: "Obi"}, expected: "Ada Obi"},
		{name: "first only", account: accounts.Account{FirstName: "Ada"}, expected: "Ada"},
		{name: "last only", account: accounts.Account{LastName: "Obi"}, expected: "Obi"},
		{name: "neither", account: accounts.Account{}, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.account.FullName())
		})
	}
}

func TestAccount_HasSocialIdentity(t *testing.T) {
	assert.False(t, (&accounts.Account{}).HasSocialIdentity())
	assert.False(t, (&accounts.Account{ProviderID: "google.com"}).HasSocialIdentity())
	assert.True(t, (&accounts.Account{ProviderID: "google.com", SocialUID: "uid"}).HasSocialIdentity())
}

func TestIsValidRole(t *testing.T) {
	assert.True(t, accounts.IsValidRole(accounts.RoleStudent))
	assert.True(t, accounts.IsValidRole(accounts.RoleTrainer))
	assert.True(t, accounts.IsValidRole(accounts.RoleAdmin))
	assert.False(t, accounts.IsValidRole("superuser"))
	assert.False(t, accounts.IsValidRole(""))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ada@example.com", accounts.NormalizeEmail("  Ada@Example.COM "))
	assert.Equal(t, "", accounts.NormalizeEmail("   "))
}
