package accounts

import (
	"context"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
)

// AdminCreateInput provisions an account on someone's behalf.
type AdminCreateInput struct {
	Email      string      `json:"email"`
	FirstName  string      `json:"first_name"`
	LastName   string      `json:"last_name"`
	Role       AccountRole `json:"role"`
	Occupation string      `json:"occupation"`
	Region     string      `json:"region"`
	Phone      string      `json:"phone_number"`
}

// AdminCreate provisions an account with a generated password. The
// password is never returned to the calling admin; it is emailed to the
// account holder together with a login link, the same way quick checkout
// delivers credentials.
func (s *Service) AdminCreate(ctx context.Context, in AdminCreateInput) (*AuthResult, error) {
	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	email := NormalizeEmail(in.Email)

	if _, err := s.repo.Accounts().GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !repository.IsRecordNotFound(err) {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check for existing account")
	}

	role := in.Role
	if role == "" {
		role = RoleStudent
	}
	if !IsValidRole(role) {
		return nil, goerrors.New("unknown role", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"role": role})
	}

	password, err := GeneratePassword(GeneratedPasswordLength, false)
	if err != nil {
		return nil, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash generated password")
	}

	account := &Account{
		Role:           role,
		Email:          email,
		PasswordHash:   hash,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Occupation:     in.Occupation,
		Region:         in.Region,
		Phone:          in.Phone,
		CreatedByAdmin: true,
		FirstEntry:     true,
		ProfileUpdated: false,
	}

	// Provisioned ids are derived from the email so re-running an import
	// is idempotent at the id level.
	if id, err := hashid.NewUUID(email); err == nil {
		account.ID = id
	}

	account, err = s.repo.Accounts().Create(ctx, account)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryConflict, "could not create account").
			WithCode(goerrors.CodeConflict)
	}

	s.notifier.Enqueue(credentialsEmail(account.Email, account.FirstName, password, s.loginLink()))

	return &AuthResult{
		Account: account.Sanitize(),
		Message: "User Created",
	}, nil
}

// Activate flips an account to active. Re-activating an active account is
// a no-op success.
func (s *Service) Activate(ctx context.Context, accountID string) (*StatusResult, error) {
	return s.setStatus(ctx, accountID, StatusActive, "activated")
}

// Deactivate flips an account to inactive. Idempotent like Activate.
func (s *Service) Deactivate(ctx context.Context, accountID string) (*StatusResult, error) {
	return s.setStatus(ctx, accountID, StatusInactive, "deactivated")
}

func (s *Service) setStatus(ctx context.Context, accountID string, status AccountStatus, verb string) (*StatusResult, error) {
	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	account, err := s.getAccount(ctx, accountID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account")
	}

	message := fmt.Sprintf("%s successfully %s", account.FullName(), verb)

	account.EnsureStatus()
	if account.Status == status {
		return &StatusResult{Message: message}, nil
	}

	if _, err := s.repo.Accounts().UpdateStatus(ctx, account.ID, status); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update account status")
	}

	return &StatusResult{Message: message}, nil
}

// ChangeRole persists a new role for an existing account.
func (s *Service) ChangeRole(ctx context.Context, accountID string, role AccountRole) (*StatusResult, error) {
	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	if !IsValidRole(role) {
		return nil, goerrors.New("unknown role", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"role": role})
	}

	account, err := s.getAccount(ctx, accountID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrAccountNotFound
		}
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) && richErr.Category == goerrors.CategoryBadInput {
			return nil, ErrAccountNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account")
	}

	if _, err := s.repo.Accounts().UpdateRole(ctx, account.ID, role); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update account role")
	}

	return &StatusResult{Message: "Successfully Updated"}, nil
}

// List returns one page of sanitized accounts.
func (s *Service) List(ctx context.Context, page, pageSize int) (*AccountPage, error) {
	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	records, total, err := s.repo.Accounts().ListPage(ctx, page, pageSize)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list accounts")
	}

	pageCount := total / pageSize
	if total%pageSize != 0 {
		pageCount++
	}

	return &AccountPage{
		Meta: PaginationMeta{
			CurrentPage: page,
			PageSize:    pageSize,
			PageCount:   pageCount,
			TotalCount:  total,
		},
		Rows: sanitizeAll(records),
	}, nil
}

// Search matches accounts by name, region, email, occupation or role.
func (s *Service) Search(ctx context.Context, query string) ([]AccountView, error) {
	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	records, err := s.repo.Accounts().Search(ctx, query)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to search accounts")
	}

	return sanitizeAll(records), nil
}
