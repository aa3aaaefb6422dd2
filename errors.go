package accounts

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// TextCodeTokenExpired marks expired reset or verification tokens.
const TextCodeTokenExpired = "TOKEN_EXPIRED"

// ErrEmailTaken is returned when signup or provisioning hits an existing email.
var ErrEmailTaken = errors.New("User Already Exist", errors.CategoryConflict).
	WithCode(errors.CodeConflict).
	WithTextCode("EMAIL_TAKEN")

// ErrIncorrectLogin covers both unknown email and wrong password so the
// response does not leak which accounts exist.
var ErrIncorrectLogin = errors.New("Incorrect Login information", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("INCORRECT_LOGIN")

// ErrAccountInactive blocks authentication on deactivated accounts.
var ErrAccountInactive = errors.New("account is inactive", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("ACCOUNT_INACTIVE")

// ErrAccountNotFound is returned for role changes and reset requests against
// unknown accounts.
var ErrAccountNotFound = errors.New("User does not exist", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound).
	WithTextCode("ACCOUNT_NOT_FOUND")

// ErrLinkExpired is the coarsened, user-visible failure for the password
// reset completion path. Signature and expiry failures both map here.
var ErrLinkExpired = errors.New("Link expired", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("LINK_EXPIRED")

// ErrWrongOldPassword is returned when a password change supplies a
// non-matching current password.
var ErrWrongOldPassword = errors.New("Password is Incorrect please try again", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("WRONG_OLD_PASSWORD")

// ErrVerificationFailed is the generic failure for the email verification
// flow. The precise cause stays in logs.
var ErrVerificationFailed = errors.New("Unable to verify email", errors.CategoryBadInput).
	WithCode(errors.CodeBadRequest).
	WithTextCode("VERIFICATION_FAILED")

// ErrTokenExpired is returned by token verification when exp has passed.
var ErrTokenExpired = errors.New("token has expired", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenExpired)

// ErrTokenMalformed is returned when a token's signature or shape is invalid.
var ErrTokenMalformed = errors.New("token is malformed or has an invalid signature", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("TOKEN_MALFORMED")

// ErrMismatchedHashAndPassword is the bcrypt mismatch sentinel.
var ErrMismatchedHashAndPassword = errors.New("password does not match", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("PASSWORD_MISMATCH")

// ErrNoEmptyString rejects empty passwords before hashing.
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest).
	WithTextCode("EMPTY_PASSWORD")

// ErrInvalidImagePayload rejects profile pictures that are not valid base64
// image payloads.
var ErrInvalidImagePayload = errors.New("invalid base64 image payload", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest).
	WithTextCode("INVALID_IMAGE_PAYLOAD")

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	var rich *errors.Error
	if errors.As(err, &rich) && rich.TextCode == TextCodeTokenExpired {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	var rich *errors.Error
	if errors.As(err, &rich) && rich.TextCode == "TOKEN_MALFORMED" {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// IsConflictError reports whether err is the duplicate email conflict.
func IsConflictError(err error) bool {
	var rich *errors.Error
	return errors.As(err, &rich) && rich.Category == errors.CategoryConflict
}
