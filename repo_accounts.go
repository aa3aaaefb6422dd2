package accounts

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var ResetAccountPasswordSQL = `UPDATE "accounts" AS "acc"
SET
	"is_verified" = TRUE,
	"password_hash" = ?
WHERE
	"acc"."deleted_at" IS NULL
AND (
	"acc"."id" = ?
) RETURNING *;`

// Accounts is the store adapter for account records.
type Accounts interface {
	repository.Repository[*Account]

	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error)
	GetBySocial(ctx context.Context, email, providerID, socialUID string) (*Account, error)
	GetBySocialTx(ctx context.Context, tx bun.IDB, email, providerID, socialUID string) (*Account, error)

	Create(ctx context.Context, record *Account, criteria ...repository.InsertCriteria) (*Account, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Account, criteria ...repository.InsertCriteria) (*Account, error)

	UpdateStatus(ctx context.Context, id uuid.UUID, status AccountStatus) (*Account, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role AccountRole) (*Account, error)
	MarkVerified(ctx context.Context, id uuid.UUID) (*Account, error)

	ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) (*Account, error)

	ListPage(ctx context.Context, page, pageSize int) ([]*Account, int, error)
	Search(ctx context.Context, query string) ([]*Account, error)
}

type accountsRepo struct {
	repository.Repository[*Account]
	db *bun.DB
}

var (
	_ Accounts                        = (*accountsRepo)(nil)
	_ repository.Repository[*Account] = (*accountsRepo)(nil)
)

func NewAccountsRepository(db *bun.DB) Accounts {
	repo := repository.NewRepository[*Account](db, repository.ModelHandlers[*Account]{
		NewRecord: func() *Account { return &Account{} },
		GetID: func(a *Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &accountsRepo{
		Repository: repo,
		db:         db,
	}
}

func (a *accountsRepo) GetByEmail(ctx context.Context, email string) (*Account, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *accountsRepo) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error) {
	record := &Account{}
	err := tx.NewSelect().Model(record).
		Where("LOWER(?TableAlias.email) = ?", NormalizeEmail(email)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"email": email})
		}
		return nil, err
	}

	return record, nil
}

// GetBySocial matches the exact (email, providerId, socialUid) triple. A
// social login must never resolve an account by guessed email alone.
func (a *accountsRepo) GetBySocial(ctx context.Context, email, providerID, socialUID string) (*Account, error) {
	return a.GetBySocialTx(ctx, a.db, email, providerID, socialUID)
}

func (a *accountsRepo) GetBySocialTx(ctx context.Context, tx bun.IDB, email, providerID, socialUID string) (*Account, error) {
	record := &Account{}
	err := tx.NewSelect().Model(record).
		Where("LOWER(?TableAlias.email) = ?", NormalizeEmail(email)).
		Where("?TableAlias.provider_id = ?", providerID).
		Where("?TableAlias.social_uid = ?", socialUID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"email": email, "provider_id": providerID})
		}
		return nil, err
	}

	return record, nil
}

func (a *accountsRepo) Create(ctx context.Context, record *Account, criteria ...repository.InsertCriteria) (*Account, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *accountsRepo) CreateTx(ctx context.Context, tx bun.IDB, record *Account, criteria ...repository.InsertCriteria) (*Account, error) {
	prepareAccountDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *accountsRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status AccountStatus) (*Account, error) {
	record := &Account{
		ID:     id,
		Status: status,
	}
	return a.Repository.Update(ctx, record, repository.UpdateByID(id.String()))
}

func (a *accountsRepo) UpdateRole(ctx context.Context, id uuid.UUID, role AccountRole) (*Account, error) {
	record := &Account{
		ID:   id,
		Role: role,
	}
	return a.Repository.Update(ctx, record, repository.UpdateByID(id.String()))
}

func (a *accountsRepo) MarkVerified(ctx context.Context, id uuid.UUID) (*Account, error) {
	// NOTE: updating through the ORM skips zero values, so flipping a bool
	// needs a raw statement the same way password resets do.
	res, err := a.Repository.Raw(ctx, `UPDATE "accounts" AS "acc"
SET "is_verified" = TRUE
WHERE "acc"."deleted_at" IS NULL AND ("acc"."id" = ?) RETURNING *;`, id.String())
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id.String()})
	}

	return res[0], nil
}

// UpdatePassword replaces the stored hash without touching the verified
// flag. Used for authenticated self-service password changes.
func (a *accountsRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) (*Account, error) {
	record := &Account{
		ID:           id,
		PasswordHash: passwordHash,
	}
	return a.Repository.Update(ctx, record, repository.UpdateByID(id.String()))
}

func (a *accountsRepo) ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return a.ResetPasswordTx(ctx, a.db, id, passwordHash)
}

func (a *accountsRepo) ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	res, err := a.Repository.RawTx(ctx, tx, ResetAccountPasswordSQL, passwordHash, id.String())
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id.String()})
	}

	return nil
}

// ListPage returns one page of accounts plus the total count. Offset is
// derived as (page-1)*pageSize; page and pageSize are clamped to sane
// minimums rather than rejected.
func (a *accountsRepo) ListPage(ctx context.Context, page, pageSize int) ([]*Account, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	var records []*Account
	count, err := a.db.NewSelect().Model(&records).
		Order("created_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, err
	}

	return records, count, nil
}

// Search matches the query case-insensitively as a substring against the
// account's text columns, OR'd together. LOWER + LIKE rather than ILIKE
// so the same predicates run on SQLite and Postgres.
func (a *accountsRepo) Search(ctx context.Context, query string) ([]*Account, error) {
	pattern := "%" + strings.ToLower(query) + "%"

	var records []*Account
	err := a.db.NewSelect().Model(&records).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("LOWER(?TableAlias.first_name) LIKE ?", pattern).
				WhereOr("LOWER(?TableAlias.last_name) LIKE ?", pattern).
				WhereOr("LOWER(?TableAlias.region) LIKE ?", pattern).
				WhereOr("LOWER(?TableAlias.email) LIKE ?", pattern).
				WhereOr("LOWER(?TableAlias.occupation) LIKE ?", pattern).
				WhereOr("LOWER(?TableAlias.account_role) LIKE ?", pattern)
		}).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return records, nil
}

func prepareAccountDefaults(record *Account) {
	if record == nil {
		return
	}

	if record.Role == "" {
		record.Role = RoleStudent
	}

	record.Email = NormalizeEmail(record.Email)
	record.EnsureStatus()

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	if record.CreatedAt == nil {
		now := time.Now()
		record.CreatedAt = &now
	}
}
