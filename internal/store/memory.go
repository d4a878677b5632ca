package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/dmelnik/openbanking/internal/domain"
)

// Memory is an in-process ledger with the same contract and commit semantics
// as the Postgres store. It backs the test suites and dependency-free local
// runs. Writes inside Transact are staged and applied only when the callback
// returns nil, so a failing unit leaves the base state untouched.
type Memory struct {
	mu            sync.Mutex
	accounts      map[string]domain.Account
	payments      []domain.Payment
	transactions  []domain.Transaction
	apiKeys       map[string]string
	nextPaymentID int64
	nextTxnID     int64
}

func NewMemory() *Memory {
	return &Memory{
		accounts: make(map[string]domain.Account),
		apiKeys:  make(map[string]string),
	}
}

func (m *Memory) GetAccount(ctx context.Context, iban string) (domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[iban]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	return acc, nil
}

func (m *Memory) LastTransactions(ctx context.Context, iban string, limit int) ([]domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	txns := []domain.Transaction{}
	for _, t := range m.transactions {
		if t.AccountIBAN == iban {
			txns = append(txns, t)
		}
	}
	sort.Slice(txns, func(i, j int) bool {
		if !txns[i].Timestamp.Equal(txns[j].Timestamp) {
			return txns[i].Timestamp.After(txns[j].Timestamp)
		}
		return txns[i].ID > txns[j].ID
	})
	if len(txns) > limit {
		txns = txns[:limit]
	}
	return txns, nil
}

func (m *Memory) Transact(ctx context.Context, fn func(tx domain.LedgerTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	staged := &memLedgerTx{base: m, accounts: make(map[string]domain.Account)}
	if err := fn(staged); err != nil {
		return err
	}

	for iban, acc := range staged.accounts {
		m.accounts[iban] = acc
	}
	m.payments = append(m.payments, staged.payments...)
	m.transactions = append(m.transactions, staged.transactions...)
	return nil
}

// CreateAccount inserts a new account outside any atomic unit.
func (m *Memory) CreateAccount(ctx context.Context, iban string, balance decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[iban]; ok {
		return fmt.Errorf("account %s already exists", iban)
	}
	m.accounts[iban] = domain.Account{IBAN: iban, Balance: balance}
	return nil
}

func (m *Memory) SaveAPIKey(ctx context.Context, keyHash, subject string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apiKeys[keyHash] = subject
	return nil
}

func (m *Memory) ResolveAPIKey(ctx context.Context, keyHash string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	subject, ok := m.apiKeys[keyHash]
	if !ok {
		return "", fmt.Errorf("unknown api key")
	}
	return subject, nil
}

// Payments returns a copy of all persisted payments, oldest first.
func (m *Memory) Payments() []domain.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Payment, len(m.payments))
	copy(out, m.payments)
	return out
}

// Transactions returns a copy of all persisted transactions, oldest first.
func (m *Memory) Transactions() []domain.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Transaction, len(m.transactions))
	copy(out, m.transactions)
	return out
}

// memLedgerTx overlays staged writes on the base store. The base mutex is
// held for the whole unit, which serializes concurrent payments.
type memLedgerTx struct {
	base         *Memory
	accounts     map[string]domain.Account
	payments     []domain.Payment
	transactions []domain.Transaction
}

func (t *memLedgerTx) AccountForUpdate(ctx context.Context, iban string) (domain.Account, error) {
	if acc, ok := t.accounts[iban]; ok {
		return acc, nil
	}
	acc, ok := t.base.accounts[iban]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	return acc, nil
}

func (t *memLedgerTx) SaveAccount(ctx context.Context, acc domain.Account) error {
	if _, ok := t.accounts[acc.IBAN]; !ok {
		if _, ok := t.base.accounts[acc.IBAN]; !ok {
			return domain.ErrAccountNotFound
		}
	}
	t.accounts[acc.IBAN] = acc
	return nil
}

func (t *memLedgerTx) InsertPayment(ctx context.Context, p *domain.Payment) error {
	t.base.nextPaymentID++
	p.ID = t.base.nextPaymentID
	t.payments = append(t.payments, *p)
	return nil
}

func (t *memLedgerTx) InsertTransaction(ctx context.Context, txn *domain.Transaction) error {
	t.base.nextTxnID++
	txn.ID = t.base.nextTxnID
	t.transactions = append(t.transactions, *txn)
	return nil
}
