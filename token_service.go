package accounts

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// TokenClaims is the signed claim embedded in reset and verification
// links: the account it was minted for plus issuance and expiry.
type TokenClaims struct {
	jwt.RegisteredClaims
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
}

// TokenService issues and verifies the signed, short-lived tokens used by
// the password reset and email verification flows.
type TokenService interface {
	Generate(accountID, email string, ttl time.Duration) (string, error)
	Verify(token string) (*TokenClaims, error)
}

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	signingKey []byte
	issuer     string
	logger     Logger
}

// NewTokenService creates a new TokenService instance
func NewTokenService(signingKey []byte, issuer string, logger Logger) TokenService {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenServiceImpl{
		signingKey: signingKey,
		issuer:     issuer,
		logger:     logger,
	}
}

// Generate creates a signed token bound to the account id and email with
// an absolute expiry derived from ttl.
func (ts *TokenServiceImpl) Generate(accountID, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		AccountID: accountID,
		Email:     email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign token")
	}

	return signed, nil
}

// Verify parses and validates a token string, returning its claims.
// Expired tokens fail with ErrTokenExpired; any signature or shape
// problem fails with ErrTokenMalformed so callers can tell the two apart.
func (ts *TokenServiceImpl) Verify(tokenString string) (*TokenClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 1)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService verify encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	if claims, ok := token.Claims.(*TokenClaims); ok && token.Valid {
		return claims, nil
	}

	ts.logger.Error("TokenService verify could not decode claims")
	return nil, ErrTokenMalformed
}
