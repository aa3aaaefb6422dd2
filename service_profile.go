package accounts

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// UpdateProfileInput is a sparse patch: empty fields are left untouched.
type UpdateProfileInput struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Occupation string `json:"occupation"`
	Region     string `json:"region"`
	Phone      string `json:"phone_number"`

	// ProfilePicture is either an inline base64 image payload or an
	// already-stored media location.
	ProfilePicture string `json:"profile_picture"`
	Mime           string `json:"mime"`
}

// UpdateProfile applies a profile patch. Inline images are uploaded to the
// media gateway first, synchronously, since the returned location must be
// persisted in the same update. The session snapshot is refreshed
// afterwards.
func (s *Service) UpdateProfile(ctx context.Context, accountID string, patch UpdateProfileInput) (*AuthResult, error) {
	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	account, err := s.getAccount(ctx, accountID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account")
	}

	if patch.ProfilePicture != "" && !isStoredMediaRef(patch.ProfilePicture) {
		if s.media == nil {
			return nil, goerrors.New("media storage is not configured", goerrors.CategoryInternal)
		}

		location, err := s.media.Upload(ctx, patch.ProfilePicture, mediaKeyFor(account), patch.Mime)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return nil, richErr
			}
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to upload profile image")
		}

		patch.ProfilePicture = location
	}

	applyProfilePatch(account, patch)
	account.ProfileUpdated = true

	account, err = s.repo.Accounts().Update(ctx, account, repository.UpdateByID(account.ID.String()))
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist profile update")
	}

	token, err := s.establishSession(ctx, account)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		Account: account.Sanitize(),
		Token:   token,
		Message: "Profile updated",
	}, nil
}

func applyProfilePatch(account *Account, patch UpdateProfileInput) {
	if patch.FirstName != "" {
		account.FirstName = patch.FirstName
	}
	if patch.LastName != "" {
		account.LastName = patch.LastName
	}
	if patch.Occupation != "" {
		account.Occupation = patch.Occupation
	}
	if patch.Region != "" {
		account.Region = patch.Region
	}
	if patch.Phone != "" {
		account.Phone = patch.Phone
	}
	if patch.ProfilePicture != "" {
		account.ProfilePicture = patch.ProfilePicture
	}
}

// isStoredMediaRef distinguishes an already-uploaded location from an
// inline payload.
func isStoredMediaRef(value string) bool {
	return strings.Contains(value, "/media/")
}

// mediaKeyFor reuses the key of the existing stored picture so uploads
// replace instead of accumulate; first uploads key off the local part of
// the email address.
func mediaKeyFor(account *Account) string {
	if account.ProfilePicture != "" {
		if _, after, found := strings.Cut(account.ProfilePicture, "/media/"); found && after != "" {
			return "media/" + after
		}
	}

	local := account.Email
	if at := strings.Index(local, "@"); at > 0 {
		local = local[:at]
	}

	return "media/" + local
}
