//go:build !integration

package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"page-auth-service/internal/domain"
	"page-auth-service/internal/domain/model"
	"page-auth-service/internal/domain/ports/repository"
)

// --- In-memory mock repositories (ports) ---

type MockAccountRepo struct {
	mu      sync.Mutex
	byID    map[string]*model.Account // keyed by identity_id
	SaveErr error
	FindErr error
}

func NewMockAccountRepo() *MockAccountRepo {
	return &MockAccountRepo{byID: map[string]*model.Account{}}
}

var _ repository.AccountRepository = (*MockAccountRepo)(nil)

func (m *MockAccountRepo) EnsureByIdentity(ctx context.Context, tx repository.Tx, a *model.Account) (*model.Account, error) {
	if m.SaveErr != nil {
		return nil, m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.byID[a.IdentityID]; ok {
		cp := *existing
		return &cp, nil
	}
	cp := *a
	m.byID[a.IdentityID] = &cp
	out := cp
	return &out, nil
}

func (m *MockAccountRepo) FindByIdentityID(ctx context.Context, tx repository.Tx, identityID string) (*model.Account, error) {
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[identityID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *MockAccountRepo) Save(ctx context.Context, tx repository.Tx, a *model.Account) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.byID[a.IdentityID] = &cp
	return nil
}

func (m *MockAccountRepo) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

type MockRedeemCodeRepo struct {
	mu       sync.Mutex
	byCode   map[string]*model.RedeemCode
	ClaimErr error
	FindErr  error

	// Accounts, when set, lets ListOrphanClaims apply the same predicate
	// the SQL version does: a used code is an orphan only while the
	// redeemer's account lacks a matching page assignment.
	Accounts *MockAccountRepo
}

func NewMockRedeemCodeRepo() *MockRedeemCodeRepo {
	return &MockRedeemCodeRepo{byCode: map[string]*model.RedeemCode{}}
}

var _ repository.RedeemCodeRepository = (*MockRedeemCodeRepo)(nil)

func (m *MockRedeemCodeRepo) Save(ctx context.Context, tx repository.Tx, code *model.RedeemCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if code.ID == "" {
		code.ID = "code-" + code.Code
	}
	cp := *code
	m.byCode[code.Code] = &cp
	return nil
}

func (m *MockRedeemCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.RedeemCode, error) {
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rc, ok := m.byCode[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *rc
	return &cp, nil
}

// Claim mirrors the store's conditional write: the predicate is evaluated
// under the same lock that guards the mutation, so concurrent callers get
// exactly-once semantics just like the SQL version.
func (m *MockRedeemCodeRepo) Claim(ctx context.Context, tx repository.Tx, code, identityID string, at time.Time) (bool, error) {
	if m.ClaimErr != nil {
		return false, m.ClaimErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rc, ok := m.byCode[code]
	if !ok || !rc.Redeemable(at) {
		return false, nil
	}
	used := at
	rc.UsedAt = &used
	rc.UsedByIdentityID = &identityID
	return true, nil
}

func (m *MockRedeemCodeRepo) ListOrphanClaims(ctx context.Context, tx repository.Tx, limit int) ([]*model.RedeemCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.RedeemCode
	for _, rc := range m.byCode {
		if rc.UsedAt == nil || rc.UsedByIdentityID == nil {
			continue
		}
		if m.Accounts != nil {
			if acc, err := m.Accounts.FindByIdentityID(ctx, tx, *rc.UsedByIdentityID); err == nil &&
				acc.Provisioned() && rc.PageID != nil && *acc.PageID == *rc.PageID {
				continue
			}
		}
		cp := *rc
		out = append(out, &cp)
	}
	return out, nil
}

type MockServiceAccountRepo struct {
	mu        sync.Mutex
	byID      map[string]*model.ServiceAccount
	UpsertErr error
}

func NewMockServiceAccountRepo() *MockServiceAccountRepo {
	return &MockServiceAccountRepo{byID: map[string]*model.ServiceAccount{}}
}

var _ repository.ServiceAccountRepository = (*MockServiceAccountRepo)(nil)

func (m *MockServiceAccountRepo) Upsert(ctx context.Context, tx repository.Tx, sa *model.ServiceAccount) error {
	if m.UpsertErr != nil {
		return m.UpsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *sa
	m.byID[sa.IdentityID] = &cp
	return nil
}

func (m *MockServiceAccountRepo) FindByIdentityID(ctx context.Context, tx repository.Tx, identityID string) (*model.ServiceAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sa, ok := m.byID[identityID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *sa
	return &cp, nil
}

func (m *MockServiceAccountRepo) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

type MockPageConfigRepo struct {
	mu        sync.Mutex
	byPage    map[string]*model.PageConfig
	UpsertErr error
}

func NewMockPageConfigRepo() *MockPageConfigRepo {
	return &MockPageConfigRepo{byPage: map[string]*model.PageConfig{}}
}

var _ repository.PageConfigRepository = (*MockPageConfigRepo)(nil)

func (m *MockPageConfigRepo) Upsert(ctx context.Context, tx repository.Tx, pc *model.PageConfig) error {
	if m.UpsertErr != nil {
		return m.UpsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.byPage[pc.PageID]; ok {
		existing.Title = pc.Title
		existing.OwnerName = pc.OwnerName
		existing.Greeting = pc.Greeting
		existing.UpdatedAt = pc.UpdatedAt
		return nil
	}
	cp := *pc
	m.byPage[pc.PageID] = &cp
	return nil
}

func (m *MockPageConfigRepo) FindByPageID(ctx context.Context, tx repository.Tx, pageID string) (*model.PageConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pc, ok := m.byPage[pageID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *pc
	return &cp, nil
}

func (m *MockPageConfigRepo) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byPage)
}

// MockTxManager invokes the callback directly; the in-memory repos commit
// every write immediately.
type MockTxManager struct{}

func NewMockTxManager() *MockTxManager { return &MockTxManager{} }

var _ repository.TransactionManager = (*MockTxManager)(nil)

func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, repository.NoTX)
}

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(nil)
	return &logger
}
