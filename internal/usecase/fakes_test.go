// internal/usecase/fakes_test.go
package usecase

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"deposit-service/internal/domain"
	"deposit-service/internal/repository"
)

// ============================================================================
// WALLETS
// ============================================================================

type memWallets struct {
	mu      sync.Mutex
	wallets map[int64]*domain.Wallet
	nextID  int64
	err     error
}

func newMemWallets() *memWallets {
	return &memWallets{wallets: make(map[int64]*domain.Wallet)}
}

func (m *memWallets) add(userID string, network domain.Network, address string) *domain.Wallet {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	w := &domain.Wallet{ID: m.nextID, UserID: userID, Network: network, PublicKey: address, Balance: decimal.Zero}
	m.wallets[w.ID] = w
	return w
}

func (m *memWallets) balance(id int64) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.wallets[id].Balance
}

func (m *memWallets) GetByID(_ context.Context, id int64) (*domain.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	w, ok := m.wallets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (m *memWallets) GetUserWallet(_ context.Context, userID string, network domain.Network) (*domain.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, w := range m.wallets {
		if w.UserID == userID && w.Network == network {
			cp := *w
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memWallets) GetUserWallets(_ context.Context, userID string) ([]*domain.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]*domain.Wallet, 0)
	for _, w := range m.wallets {
		if w.UserID == userID {
			cp := *w
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ============================================================================
// DEPOSITS
// ============================================================================

// memDeposits mirrors the repository: txid uniqueness among live (not
// rejected) deposits and atomic credits
type memDeposits struct {
	mu        sync.Mutex
	wallets   *memWallets
	byID      map[string]*domain.Deposit
	byTx      map[string]string
	users     map[string]decimal.Decimal
	seq       int
	commitErr error
	existsErr error
	commits   int
}

func newMemDeposits(wallets *memWallets) *memDeposits {
	return &memDeposits{
		wallets: wallets,
		byID:    make(map[string]*domain.Deposit),
		byTx:    make(map[string]string),
		users:   make(map[string]decimal.Decimal),
	}
}

func (m *memDeposits) userBalance(userID string) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[userID]
}

func (m *memDeposits) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

func (m *memDeposits) ExistsByTransactionID(_ context.Context, txID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.existsErr != nil {
		return false, m.existsErr
	}
	_, ok := m.byTx[txID]
	return ok, nil
}

func (m *memDeposits) insertLocked(d *domain.Deposit) error {
	if _, ok := m.byTx[d.TransactionID]; ok {
		return repository.ErrDuplicateTransaction
	}
	if d.ID == "" {
		m.seq++
		d.ID = fmt.Sprintf("dep_%04d", m.seq)
	}
	now := time.Now()
	d.CreatedAt, d.UpdatedAt = now, now
	m.byID[d.ID] = d
	m.byTx[d.TransactionID] = d.ID
	return nil
}

func (m *memDeposits) creditLocked(d *domain.Deposit) {
	m.users[d.UserID] = m.users[d.UserID].Add(d.Amount)
	m.wallets.mu.Lock()
	w := m.wallets.wallets[d.WalletID]
	w.Balance = w.Balance.Add(d.Amount)
	m.wallets.mu.Unlock()
}

func (m *memDeposits) CommitVerified(_ context.Context, res *domain.VerificationResult) (*domain.Deposit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.commitErr != nil {
		return nil, m.commitErr
	}
	d := &domain.Deposit{
		UserID:        res.UserID,
		WalletID:      res.WalletID,
		TransactionID: res.TransactionID,
		Network:       res.Network,
		Amount:        res.Amount,
		Token:         res.Token,
		FromAddress:   res.FromAddress,
		Status:        domain.DepositStatusCompleted,
	}
	if err := m.insertLocked(d); err != nil {
		return nil, err
	}
	m.creditLocked(d)
	m.commits++
	cp := *d
	return &cp, nil
}

func (m *memDeposits) CreatePending(_ context.Context, d *domain.Deposit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.commitErr != nil {
		return m.commitErr
	}
	d.Status = domain.DepositStatusPending
	stored := *d
	if err := m.insertLocked(&stored); err != nil {
		return err
	}
	d.ID, d.CreatedAt, d.UpdatedAt = stored.ID, stored.CreatedAt, stored.UpdatedAt
	return nil
}

func (m *memDeposits) pendingLocked(id string) (*domain.Deposit, error) {
	d, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if d.Status != domain.DepositStatusPending {
		return nil, repository.ErrNotPending
	}
	return d, nil
}

func (m *memDeposits) ConfirmPending(_ context.Context, id, reviewer string) (*domain.Deposit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, err := m.pendingLocked(id)
	if err != nil {
		return nil, err
	}
	d.Status = domain.DepositStatusCompleted
	d.ReviewedBy = reviewer
	m.creditLocked(d)
	m.commits++
	cp := *d
	return &cp, nil
}

func (m *memDeposits) CompletePending(_ context.Context, id string, res *domain.VerificationResult) (*domain.Deposit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, err := m.pendingLocked(id)
	if err != nil {
		return nil, err
	}
	d.Status = domain.DepositStatusCompleted
	d.Amount = res.Amount
	d.Token = res.Token
	d.FromAddress = res.FromAddress
	d.ReviewedBy = SystemReviewer
	m.creditLocked(d)
	m.commits++
	cp := *d
	return &cp, nil
}

func (m *memDeposits) RejectPending(_ context.Context, id, reviewer, note string) (*domain.Deposit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, err := m.pendingLocked(id)
	if err != nil {
		return nil, err
	}
	d.Status = domain.DepositStatusRejected
	d.ReviewedBy = reviewer
	d.Note = note
	delete(m.byTx, d.TransactionID)
	cp := *d
	return &cp, nil
}

func (m *memDeposits) GetByID(_ context.Context, id string) (*domain.Deposit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *memDeposits) GetUserDeposits(_ context.Context, userID string, limit, offset int) ([]*domain.Deposit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Deposit, 0)
	for _, d := range m.byID {
		if d.UserID == userID {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if offset >= len(out) {
		return []*domain.Deposit{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memDeposits) GetPendingDeposits(_ context.Context, limit int) ([]*domain.Deposit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Deposit, 0)
	for _, d := range m.byID {
		if d.Status == domain.DepositStatusPending {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ============================================================================
// ADAPTER AND PUBLISHER
// ============================================================================

type fakeAdapter struct {
	network domain.Network
	fact    *domain.TransferFact
	err     error
	block   bool
	calls   atomic.Int32
}

func (a *fakeAdapter) Network() domain.Network { return a.network }

func (a *fakeAdapter) FetchTransfer(ctx context.Context, txID string) (*domain.TransferFact, error) {
	a.calls.Add(1)
	if a.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if a.err != nil {
		return nil, a.err
	}
	fact := *a.fact
	fact.Network = a.network
	fact.TransactionID = txID
	return &fact, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*domain.DepositCompletedEvent
	err    error
}

func (p *recordingPublisher) PublishDepositCompleted(_ context.Context, e *domain.DepositCompletedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

// ============================================================================
// FIXTURES
// ============================================================================

var (
	baseTxID   = "0x" + strings.Repeat("ab", 32)
	tronTxID   = strings.Repeat("cd", 32)
	solanaTxID = strings.Repeat("5", 88)

	baseWalletAddr = "0xabc0000000000000000000000000000000000001"
)

func usdc(raw int64) *big.Int { return big.NewInt(raw) }

func baseFact(recipient string, raw int64) *domain.TransferFact {
	return &domain.TransferFact{
		Recipient:     recipient,
		TokenContract: domain.DefaultTokenContracts[domain.NetworkBase].USDC,
		RawAmount:     usdc(raw),
		Decimals:      domain.StablecoinDecimals,
		FromAddress:   "0xsender",
		Confirmed:     true,
	}
}
