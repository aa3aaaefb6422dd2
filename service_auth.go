package accounts

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// SignupInput is the self-service registration payload.
type SignupInput struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Occupation string `json:"occupation"`
	Region     string `json:"region"`
	Phone      string `json:"phone_number"`
}

// Signup registers a new student account, establishes a session and
// dispatches the verification email out of band.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	email := NormalizeEmail(in.Email)

	if _, err := s.repo.Accounts().GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !repository.IsRecordNotFound(err) {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check for existing account")
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	account := &Account{
		Role:         RoleStudent,
		Email:        email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Occupation:   in.Occupation,
		Region:       in.Region,
		Phone:        in.Phone,
	}

	account, err = s.repo.Accounts().Create(ctx, account)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryConflict, "could not create account").
			WithCode(goerrors.CodeConflict)
	}

	s.sendVerification(account)

	token, err := s.establishSession(ctx, account)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		Account: account.Sanitize(),
		Token:   token,
		Message: "Registration is successful",
	}, nil
}

// LoginInput covers both login modes. Social mode requires the provider
// pair and may carry profile fields for first-time account creation.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`

	Social         bool   `json:"-"`
	ProviderID     string `json:"provider_id"`
	SocialUID      string `json:"social_uid"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	ProfilePicture string `json:"profile_picture"`
}

// Login authenticates an account and establishes a session.
//
// Local mode deliberately returns the same Unauthorized error for an
// unknown email and a wrong password so responses do not reveal which
// accounts exist.
func (s *Service) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	if in.Social {
		return s.socialLogin(ctx, in)
	}

	account, err := s.repo.Accounts().GetByEmail(ctx, NormalizeEmail(in.Email))
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrIncorrectLogin
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account during login")
	}

	if err := ComparePasswordAndHash(in.Password, account.PasswordHash); err != nil {
		return nil, ErrIncorrectLogin
	}

	if err := ensureAuthenticatable(account); err != nil {
		return nil, err
	}

	token, err := s.establishSession(ctx, account)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		Account: account.Sanitize(),
		Token:   token,
		Message: "Login successful",
	}, nil
}

// socialLogin resolves a federated identity. Accounts are matched by the
// exact (email, providerId, socialUid) triple, never by email alone; an
// email-only match links the provider pair onto the existing account, and
// a complete miss creates a passwordless account from the profile.
func (s *Service) socialLogin(ctx context.Context, in LoginInput) (*AuthResult, error) {
	if in.ProviderID == "" || in.SocialUID == "" {
		return nil, ErrIncorrectLogin
	}

	email := NormalizeEmail(in.Email)
	repo := s.repo.Accounts()

	account, err := repo.GetBySocial(ctx, email, in.ProviderID, in.SocialUID)
	if err != nil && !repository.IsRecordNotFound(err) {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account during social login")
	}

	if account == nil || err != nil {
		account, err = repo.GetByEmail(ctx, email)
		switch {
		case err == nil:
			// Existing local account: link the federated identity onto it.
			account.ProviderID = in.ProviderID
			account.SocialUID = in.SocialUID
			if account, err = repo.Update(ctx, account, repository.UpdateByID(account.ID.String())); err != nil {
				return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to link social identity")
			}
		case repository.IsRecordNotFound(err):
			account = &Account{
				Role:           RoleStudent,
				Email:          email,
				ProviderID:     in.ProviderID,
				SocialUID:      in.SocialUID,
				FirstName:      in.FirstName,
				LastName:       in.LastName,
				ProfilePicture: in.ProfilePicture,
			}
			if account, err = repo.Create(ctx, account); err != nil {
				return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create social account")
			}
		default:
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account during social login")
		}
	}

	if err := ensureAuthenticatable(account); err != nil {
		return nil, err
	}

	token, err := s.establishSession(ctx, account)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		Account: account.Sanitize(),
		Token:   token,
		Message: "Login successful",
	}, nil
}

// QuickCheckoutInput provisions an account inline during payment.
type QuickCheckoutInput struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// QuickCheckout creates an account from just an email and a display name.
// The generated password is emailed in plaintext together with a login
// link; no session is established, the user must log in explicitly.
//
// Only the first two words of the full name are kept: the first becomes
// the first name, the second the last name, anything after is dropped.
// Lossy for multi word names, kept as-is to match the checkout form's
// labeling.
func (s *Service) QuickCheckout(ctx context.Context, in QuickCheckoutInput) (*AuthResult, error) {
	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	email := NormalizeEmail(in.Email)

	if _, err := s.repo.Accounts().GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !repository.IsRecordNotFound(err) {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check for existing account")
	}

	password, err := GeneratePassword(GeneratedPasswordLength, false)
	if err != nil {
		return nil, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash generated password")
	}

	firstName, lastName := splitFullName(in.FullName)

	account := &Account{
		Role:           RoleStudent,
		Email:          email,
		PasswordHash:   hash,
		FirstName:      firstName,
		LastName:       lastName,
		FirstEntry:     true,
		ProfileUpdated: false,
	}

	account, err = s.repo.Accounts().Create(ctx, account)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryConflict, "could not create account").
			WithCode(goerrors.CodeConflict)
	}

	s.notifier.Enqueue(credentialsEmail(account.Email, account.FirstName, password, s.loginLink()))

	return &AuthResult{
		Account: account.Sanitize(),
		Message: "Registration is successful",
	}, nil
}

func (s *Service) sendVerification(account *Account) {
	token, err := s.tokens.Generate(account.ID.String(), account.Email, VerificationTokenTTL)
	if err != nil {
		s.logger.Error("failed to generate verification token", "error", err, "account", account.ID.String())
		return
	}

	link := s.verificationLink(token, account.ID.String())
	s.notifier.Enqueue(verificationEmail(account.Email, account.FirstName, link))
}

func splitFullName(fullName string) (string, string) {
	parts := strings.Split(strings.TrimSpace(fullName), " ")
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}

func ensureAuthenticatable(account *Account) error {
	if account == nil {
		return ErrIncorrectLogin
	}

	account.EnsureStatus()
	if account.Status == StatusInactive {
		return ErrAccountInactive
	}

	return nil
}
