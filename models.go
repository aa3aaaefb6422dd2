package accounts

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AccountRole is the account's role
type AccountRole = string

const (
	// RoleStudent is the default role assigned on self-service signup
	RoleStudent AccountRole = "student"
	// RoleTrainer is a course facilitator
	RoleTrainer AccountRole = "trainer"
	// RoleAdmin can provision and manage accounts
	RoleAdmin AccountRole = "admin"
)

// AccountStatus tracks whether an account may authenticate
type AccountStatus = string

const (
	// StatusActive is the default status
	StatusActive AccountStatus = "active"
	// StatusInactive blocks authentication until an admin re-activates
	StatusInactive AccountStatus = "inactive"
)

// Account is the account model
type Account struct {
	bun.BaseModel  `bun:"table:accounts,alias:acc"`
	ID             uuid.UUID     `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role           AccountRole   `bun:"account_role,notnull" json:"account_role,omitempty"`
	Email          string        `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash   string        `bun:"password_hash" json:"password_hash,omitempty"`
	ProviderID     string        `bun:"provider_id" json:"provider_id,omitempty"`
	SocialUID      string        `bun:"social_uid" json:"social_uid,omitempty"`
	FirstName      string        `bun:"first_name" json:"first_name,omitempty"`
	LastName       string        `bun:"last_name" json:"last_name,omitempty"`
	Occupation     string        `bun:"occupation" json:"occupation,omitempty"`
	Region         string        `bun:"region" json:"region,omitempty"`
	Phone          string        `bun:"phone_number" json:"phone_number,omitempty"`
	ProfilePicture string        `bun:"profile_picture" json:"profile_picture,omitempty"`
	Status         AccountStatus `bun:"status,notnull" json:"status,omitempty"`
	Verified       bool          `bun:"is_verified" json:"is_verified"`
	CreatedByAdmin bool          `bun:"created_by_admin" json:"created_by_admin"`
	FirstEntry     bool          `bun:"first_entry" json:"first_entry"`
	ProfileUpdated bool          `bun:"profile_updated" json:"profile_updated"`
	CreatedAt      *time.Time    `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time    `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time    `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// EnsureStatus backfills the default status on records created before the
// column existed.
func (a *Account) EnsureStatus() {
	if a.Status == "" {
		a.Status = StatusActive
	}
}

// FullName joins first and last name for display and email salutations.
func (a *Account) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// HasSocialIdentity reports whether the account carries a federated
// identity pair.
func (a *Account) HasSocialIdentity() bool {
	return a.ProviderID != "" && a.SocialUID != ""
}

// IsValidRole checks the role against the predefined set
func IsValidRole(role string) bool {
	switch role {
	case RoleStudent, RoleTrainer, RoleAdmin:
		return true
	default:
		return false
	}
}

// AccountView is the sanitized projection returned to callers. It never
// carries the password hash or social credential material.
type AccountView struct {
	ID             string        `json:"id"`
	Email          string        `json:"email"`
	Role           AccountRole   `json:"role"`
	FirstName      string        `json:"first_name"`
	LastName       string        `json:"last_name"`
	Occupation     string        `json:"occupation,omitempty"`
	Region         string        `json:"region,omitempty"`
	Phone          string        `json:"phone_number,omitempty"`
	ProfilePicture string        `json:"profile_picture,omitempty"`
	Status         AccountStatus `json:"status"`
	Verified       bool          `json:"verified"`
	FirstEntry     bool          `json:"first_entry"`
	ProfileUpdated bool          `json:"profile_updated"`
	CreatedAt      *time.Time    `json:"created_at,omitempty"`
}

// Sanitize strips credential material from the record.
func (a *Account) Sanitize() AccountView {
	a.EnsureStatus()
	return AccountView{
		ID:             a.ID.String(),
		Email:          a.Email,
		Role:           a.Role,
		FirstName:      a.FirstName,
		LastName:       a.LastName,
		Occupation:     a.Occupation,
		Region:         a.Region,
		Phone:          a.Phone,
		ProfilePicture: a.ProfilePicture,
		Status:         a.Status,
		Verified:       a.Verified,
		FirstEntry:     a.FirstEntry,
		ProfileUpdated: a.ProfileUpdated,
		CreatedAt:      a.CreatedAt,
	}
}

// NormalizeEmail lowercases and trims an email for storage and lookup.
// Email uniqueness is case-insensitive across accounts.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
