package accounts

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// SessionClaims is the JWT payload minted when a session is established.
// The sanitized account snapshot rides along so handlers can render the
// current profile without a store round trip.
type SessionClaims struct {
	jwt.RegisteredClaims
	UID      string      `json:"uid"`
	UserRole AccountRole `json:"user_role"`
	Account  AccountView `json:"account"`
}

// SessionObject is the server-side view of an authenticated session.
type SessionObject struct {
	AccountID      string      `json:"account_id,omitempty"`
	Role           AccountRole `json:"role,omitempty"`
	Issuer         string      `json:"issuer,omitempty"`
	IssuedAt       *time.Time  `json:"issued_at,omitempty"`
	ExpirationDate *time.Time  `json:"expiration_date,omitempty"`
	Account        AccountView `json:"account,omitempty"`
}

func (s *SessionObject) GetAccountID() string {
	return s.AccountID
}

func (s *SessionObject) GetAccountUUID() (uuid.UUID, error) {
	return uuid.Parse(s.AccountID)
}

// IsAdmin reports whether the session is bound to the admin role.
func (s *SessionObject) IsAdmin() bool {
	return s.Role == RoleAdmin
}

func (s SessionObject) String() string {
	issuedAt := "<nil>"
	if s.IssuedAt != nil {
		issuedAt = s.IssuedAt.Format(time.RFC1123)
	}
	return fmt.Sprintf("account=%s role=%s iss=%s iat=%s", s.AccountID, s.Role, s.Issuer, issuedAt)
}

// SessionManager issues and parses session tokens. Issue is called after
// every successful authentication and after profile mutations that change
// the cached snapshot; it must complete before the response is returned.
type SessionManager struct {
	signingKey []byte
	issuer     string
	expiration time.Duration
	logger     Logger
}

var _ SessionIssuer = (*SessionManager)(nil)

// NewSessionManager returns a new SessionManager
func NewSessionManager(cfg Config) *SessionManager {
	expiration := 24 * time.Hour
	if cfg.GetSessionTokenExpiration() > 0 {
		expiration = time.Duration(cfg.GetSessionTokenExpiration()) * time.Hour
	}

	return &SessionManager{
		signingKey: []byte(cfg.GetSigningKey()),
		issuer:     cfg.GetIssuer(),
		expiration: expiration,
		logger:     defLogger{},
	}
}

func (m *SessionManager) WithLogger(logger Logger) *SessionManager {
	if logger != nil {
		m.logger = logger
	}
	return m
}

// Issue mints a session token bound to the role and snapshot.
func (m *SessionManager) Issue(ctx context.Context, role AccountRole, snapshot AccountView) (string, error) {
	select {
	case <-ctx.Done():
		return "", errors.Wrap(ctx.Err(), errors.CategoryOperation, "context cancelled during session issuance")
	default:
	}

	now := time.Now()
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   snapshot.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiration)),
		},
		UID:      snapshot.ID,
		UserRole: role,
		Account:  snapshot,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign session token")
	}

	return signed, nil
}

// Parse validates a session token and returns the session it encodes.
func (m *SessionManager) Parse(raw string) (*SessionObject, error) {
	token, err := jwt.ParseWithClaims(raw, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			m.logger.Error("SessionManager parse encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.signingKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenMalformed
	}

	session := &SessionObject{
		AccountID: claims.UID,
		Role:      claims.UserRole,
		Issuer:    claims.Issuer,
		Account:   claims.Account,
	}

	if claims.IssuedAt != nil {
		session.IssuedAt = &claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		session.ExpirationDate = &claims.ExpiresAt.Time
	}

	return session, nil
}
