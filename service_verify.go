package accounts

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// VerifyEmail consumes a verification token and flips the account's
// verified flag. Once set the flag is terminal; there is no un-verify.
//
// The account is identified twice: by the id travelling next to the token
// and by the token's own claim. Both must name the same account before
// anything is mutated, so a replayed token cannot verify a different
// account. Any failure surfaces as the same generic BadRequest.
func (s *Service) VerifyEmail(ctx context.Context, accountID, token string) (*StatusResult, error) {
	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	claims, err := s.tokens.Verify(token)
	if err != nil {
		s.logger.Info("verification token rejected", "error", err, "account", accountID)
		return nil, ErrVerificationFailed
	}

	if claims.AccountID != accountID {
		s.logger.Warn("verification token claim does not match supplied account id",
			"claim", claims.AccountID, "supplied", accountID)
		return nil, ErrVerificationFailed
	}

	if _, err := s.getAccount(ctx, claims.AccountID); err != nil {
		s.logger.Info("verification target not found", "error", err, "account", claims.AccountID)
		return nil, ErrVerificationFailed
	}

	if _, err := s.repo.Accounts().MarkVerified(ctx, mustParseUUID(claims.AccountID)); err != nil {
		s.logger.Error("failed to mark account verified", "error", err, "account", claims.AccountID)
		return nil, ErrVerificationFailed
	}

	return &StatusResult{Message: "Email verified successfully"}, nil
}

// ResendVerification re-dispatches the verification email for an existing
// account.
func (s *Service) ResendVerification(ctx context.Context, accountID string) (*StatusResult, error) {
	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	account, err := s.getAccount(ctx, accountID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, goerrors.New("Unable to send verification email", goerrors.CategoryBadInput).
				WithCode(goerrors.CodeBadRequest)
		}
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) && richErr.Category == goerrors.CategoryBadInput {
			return nil, goerrors.New("Unable to send verification email", goerrors.CategoryBadInput).
				WithCode(goerrors.CodeBadRequest)
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account")
	}

	s.sendVerification(account)

	return &StatusResult{Message: "Verification link has been sent to your email"}, nil
}
