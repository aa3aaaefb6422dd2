package accounts_test

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/classmate-dev/go-accounts"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// testConfig implements accounts.Config.
type testConfig struct {
	signingKey       string
	encryptionSecret string
	issuer           string
	baseURL          string
	sessionHours     int
}

func newTestConfig() *testConfig {
	return &testConfig{
		signingKey:       "test-signing-key",
		encryptionSecret: "test-encryption-secret",
		issuer:           "test-issuer",
		baseURL:          "https://app.test",
		sessionHours:     1,
	}
}

func (c *testConfig) GetSigningKey() string          { return c.signingKey }
func (c *testConfig) GetEncryptionSecret() string    { return c.encryptionSecret }
func (c *testConfig) GetIssuer() string              { return c.issuer }
func (c *testConfig) GetAppBaseURL() string          { return c.baseURL }
func (c *testConfig) GetSessionTokenExpiration() int { return c.sessionHours }

// captureNotifier records enqueued messages for assertions.
type captureNotifier struct {
	mu       sync.Mutex
	messages []accounts.Message
}

func (n *captureNotifier) Enqueue(msg accounts.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
}

func (n *captureNotifier) all() []accounts.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]accounts.Message, len(n.messages))
	copy(out, n.messages)
	return out
}

// fakeUploader records uploads and returns a deterministic location.
type fakeUploader struct {
	uploads map[string]string // key -> payload
	deleted []string
	err     error
}

func (u *fakeUploader) Upload(ctx context.Context, payload, key, mime string) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	if u.uploads == nil {
		u.uploads = map[string]string{}
	}
	u.uploads[key] = payload
	return "https://cdn.test/" + key, nil
}

func (u *fakeUploader) Delete(ctx context.Context, key string) error {
	u.deleted = append(u.deleted, key)
	return nil
}

// fakeAccounts is an in-memory store adapter. The embedded interface is
// nil: anything outside the methods stubbed below panics, which is what a
// test hitting an unexpected path should do.
type fakeAccounts struct {
	repository.Repository[*accounts.Account]

	mu      sync.Mutex
	records map[string]*accounts.Account
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{records: map[string]*accounts.Account{}}
}

func (f *fakeAccounts) seed(record *accounts.Account) *accounts.Account {
	f.mu.Lock()
	defer f.mu.Unlock()
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Role == "" {
		record.Role = accounts.RoleStudent
	}
	record.Email = accounts.NormalizeEmail(record.Email)
	record.EnsureStatus()
	f.records[record.ID.String()] = record
	return record
}

func clone(record *accounts.Account) *accounts.Account {
	cp := *record
	return &cp
}

func notFound() error {
	return repository.NewRecordNotFound()
}

func (f *fakeAccounts) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*accounts.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[id]
	if !ok {
		return nil, notFound()
	}
	return clone(record), nil
}

func (f *fakeAccounts) GetByEmail(ctx context.Context, email string) (*accounts.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email = accounts.NormalizeEmail(email)
	for _, record := range f.records {
		if record.Email == email {
			return clone(record), nil
		}
	}
	return nil, notFound()
}

func (f *fakeAccounts) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*accounts.Account, error) {
	return f.GetByEmail(ctx, email)
}

func (f *fakeAccounts) GetBySocial(ctx context.Context, email, providerID, socialUID string) (*accounts.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email = accounts.NormalizeEmail(email)
	for _, record := range f.records {
		if record.Email == email && record.ProviderID == providerID && record.SocialUID == socialUID {
			return clone(record), nil
		}
	}
	return nil, notFound()
}

func (f *fakeAccounts) GetBySocialTx(ctx context.Context, tx bun.IDB, email, providerID, socialUID string) (*accounts.Account, error) {
	return f.GetBySocial(ctx, email, providerID, socialUID)
}

func (f *fakeAccounts) Create(ctx context.Context, record *accounts.Account, criteria ...repository.InsertCriteria) (*accounts.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email := accounts.NormalizeEmail(record.Email)
	for _, existing := range f.records {
		if existing.Email == email {
			return nil, fmt.Errorf("UNIQUE constraint failed: accounts.email")
		}
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Role == "" {
		record.Role = accounts.RoleStudent
	}
	record.Email = email
	record.EnsureStatus()
	f.records[record.ID.String()] = clone(record)
	return clone(record), nil
}

func (f *fakeAccounts) CreateTx(ctx context.Context, tx bun.IDB, record *accounts.Account, criteria ...repository.InsertCriteria) (*accounts.Account, error) {
	return f.Create(ctx, record, criteria...)
}

func (f *fakeAccounts) Update(ctx context.Context, record *accounts.Account, criteria ...repository.UpdateCriteria) (*accounts.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[record.ID.String()]; !ok {
		return nil, notFound()
	}
	f.records[record.ID.String()] = clone(record)
	return clone(record), nil
}

func (f *fakeAccounts) UpdateStatus(ctx context.Context, id uuid.UUID, status accounts.AccountStatus) (*accounts.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[id.String()]
	if !ok {
		return nil, notFound()
	}
	record.Status = status
	return clone(record), nil
}

func (f *fakeAccounts) UpdateRole(ctx context.Context, id uuid.UUID, role accounts.AccountRole) (*accounts.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[id.String()]
	if !ok {
		return nil, notFound()
	}
	record.Role = role
	return clone(record), nil
}

func (f *fakeAccounts) MarkVerified(ctx context.Context, id uuid.UUID) (*accounts.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[id.String()]
	if !ok {
		return nil, notFound()
	}
	record.Verified = true
	return clone(record), nil
}

func (f *fakeAccounts) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) (*accounts.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[id.String()]
	if !ok {
		return nil, notFound()
	}
	record.PasswordHash = passwordHash
	return clone(record), nil
}

func (f *fakeAccounts) ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[id.String()]
	if !ok {
		return notFound()
	}
	record.PasswordHash = passwordHash
	record.Verified = true
	return nil
}

func (f *fakeAccounts) ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	return f.ResetPassword(ctx, id, passwordHash)
}

func (f *fakeAccounts) ListPage(ctx context.Context, page, pageSize int) ([]*accounts.Account, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := make([]*accounts.Account, 0, len(f.records))
	for _, record := range f.records {
		all = append(all, clone(record))
	}

	total := len(all)
	start := (page - 1) * pageSize
	if start >= total {
		return nil, total, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (f *fakeAccounts) Search(ctx context.Context, query string) ([]*accounts.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*accounts.Account
	for _, record := range f.records {
		if containsFold(record.FirstName, query) ||
			containsFold(record.LastName, query) ||
			containsFold(record.Region, query) ||
			containsFold(record.Email, query) ||
			containsFold(record.Occupation, query) ||
			containsFold(record.Role, query) {
			out = append(out, clone(record))
		}
	}
	return out, nil
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func (f *fakeAccounts) get(id uuid.UUID) *accounts.Account {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[id.String()]
	if !ok {
		return nil
	}
	return clone(record)
}

// fakeRepo implements accounts.RepositoryManager over the in-memory store.
type fakeRepo struct {
	accountsRepo *fakeAccounts
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{accountsRepo: newFakeAccounts()}
}

func (r *fakeRepo) Validate() error { return nil }
func (r *fakeRepo) MustValidate()   {}

func (r *fakeRepo) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

func (r *fakeRepo) Accounts() accounts.Accounts {
	return r.accountsRepo
}

// newTestService wires a Service against the in-memory store with real
// token and session implementations and a capturing notifier.
func newTestService() (*accounts.Service, *fakeRepo, *captureNotifier) {
	repo := newFakeRepo()
	notifier := &captureNotifier{}

	service := accounts.NewService(repo, newTestConfig()).
		WithNotifier(notifier)

	return service, repo, notifier
}
