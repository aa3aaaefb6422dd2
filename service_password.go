package accounts

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// ChangePassword rotates the password of an already authenticated
// account. The old password must match the stored hash; no token is
// involved.
func (s *Service) ChangePassword(ctx context.Context, accountID, oldPassword, newPassword string) (*StatusResult, error) {
	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	account, err := s.getAccount(ctx, accountID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrIncorrectLogin
		}
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) && richErr.Category == goerrors.CategoryBadInput {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account")
	}

	if err := ComparePasswordAndHash(oldPassword, account.PasswordHash); err != nil {
		return nil, ErrWrongOldPassword
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	if _, err := s.repo.Accounts().UpdatePassword(ctx, account.ID, hash); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist new password")
	}

	return &StatusResult{Message: "Password change successful"}, nil
}

// RequestPasswordReset issues a short-lived reset token bound to the
// account and emails a reset link. Email delivery is best-effort: the
// operation succeeds as soon as the message is queued.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (*StatusResult, error) {
	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	account, err := s.repo.Accounts().GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account")
	}

	token, err := s.tokens.Generate(account.ID.String(), account.Email, ResetTokenTTL)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate reset token")
	}

	link := s.resetLink(token, account.ID.String())
	s.notifier.Enqueue(passwordResetEmail(account.Email, link))

	return &StatusResult{
		Message: "Reset password link has been sent to your email, click the link to reset your password",
	}, nil
}

// CompletePasswordReset consumes a reset token and persists the new hash.
//
// Every token failure (bad signature, expiry, claim mismatch) surfaces as
// the same "Link expired" Unauthorized so the response does not reveal
// which check failed; the precise cause is logged.
func (s *Service) CompletePasswordReset(ctx context.Context, accountID, token, newPassword string) (*StatusResult, error) {
	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	account, err := s.getAccount(ctx, accountID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, goerrors.New("Password reset unsuccessful", goerrors.CategoryAuth).
				WithCode(goerrors.CodeUnauthorized)
		}
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) && richErr.Category == goerrors.CategoryBadInput {
			return nil, goerrors.New("Password reset unsuccessful", goerrors.CategoryAuth).
				WithCode(goerrors.CodeUnauthorized)
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account")
	}

	claims, err := s.tokens.Verify(token)
	if err != nil {
		s.logger.Info("password reset token rejected", "error", err, "account", accountID)
		return nil, ErrLinkExpired
	}

	// The token alone is not authoritative: it must agree with the id
	// supplied alongside it.
	if claims.AccountID != account.ID.String() {
		s.logger.Warn("password reset token claim does not match supplied account id",
			"claim", claims.AccountID, "supplied", accountID)
		return nil, ErrLinkExpired
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	if err := s.repo.Accounts().ResetPassword(ctx, account.ID, hash); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist new password")
	}

	return &StatusResult{Message: "Your password has been changed"}, nil
}
