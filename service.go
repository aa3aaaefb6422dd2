package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

const (
	// ResetTokenTTL bounds password reset links.
	ResetTokenTTL = 15 * time.Minute
	// VerificationTokenTTL bounds email verification links.
	VerificationTokenTTL = 72 * time.Hour

	// GeneratedPasswordLength is used for provisioned accounts.
	GeneratedPasswordLength = 10

	operationTimeout = 10 * time.Second
)

// Service orchestrates the account lifecycle: signup, login, password
// reset, email verification and admin provisioning. It composes the store
// adapter, the notification and media gateways and the session boundary;
// it never talks to network transport directly.
type Service struct {
	repo     RepositoryManager
	tokens   TokenService
	sessions SessionIssuer
	notifier Notifier
	media    Uploader
	baseURL  string
	logger   Logger
}

// NewService returns a new account lifecycle Service
func NewService(repo RepositoryManager, cfg Config) *Service {
	return &Service{
		repo:     repo,
		tokens:   NewTokenService([]byte(cfg.GetSigningKey()), cfg.GetIssuer(), nil),
		sessions: NewSessionManager(cfg),
		notifier: noopNotifier{},
		media:    nil,
		baseURL:  cfg.GetAppBaseURL(),
		logger:   defLogger{},
	}
}

func (s *Service) WithLogger(logger Logger) *Service {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithNotifier configures the notification gateway used for outbound email.
func (s *Service) WithNotifier(n Notifier) *Service {
	if n != nil {
		s.notifier = n
	}
	return s
}

// WithMedia configures the media gateway used for profile images.
func (s *Service) WithMedia(u Uploader) *Service {
	s.media = u
	return s
}

// WithSessionIssuer overrides the session boundary.
func (s *Service) WithSessionIssuer(issuer SessionIssuer) *Service {
	if issuer != nil {
		s.sessions = issuer
	}
	return s
}

// WithTokenService overrides the reset/verification token service.
func (s *Service) WithTokenService(ts TokenService) *Service {
	if ts != nil {
		s.tokens = ts
	}
	return s
}

// AuthResult is returned by every operation that establishes or refreshes
// a session.
type AuthResult struct {
	Account AccountView `json:"account"`
	Token   string      `json:"token,omitempty"`
	Message string      `json:"message"`
}

// StatusResult is returned by operations that only produce a message.
type StatusResult struct {
	Message string `json:"message"`
}

// PaginationMeta describes one page of a listing.
type PaginationMeta struct {
	CurrentPage int `json:"current_page"`
	PageSize    int `json:"page_size"`
	PageCount   int `json:"page_count"`
	TotalCount  int `json:"total_count"`
}

// AccountPage is one page of sanitized accounts.
type AccountPage struct {
	Meta PaginationMeta `json:"pagination_meta"`
	Rows []AccountView  `json:"rows"`
}

func (s *Service) establishSession(ctx context.Context, account *Account) (string, error) {
	token, err := s.sessions.Issue(ctx, account.Role, account.Sanitize())
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to establish session")
	}
	return token, nil
}

func (s *Service) getAccount(ctx context.Context, accountID string) (*Account, error) {
	if _, err := uuid.Parse(accountID); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid account id").
			WithCode(goerrors.CodeBadRequest)
	}

	account, err := s.repo.Accounts().GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return account, nil
}

func sanitizeAll(records []*Account) []AccountView {
	views := make([]AccountView, 0, len(records))
	for _, r := range records {
		views = append(views, r.Sanitize())
	}
	return views
}

type noopNotifier struct{}

func (noopNotifier) Enqueue(Message) {}
