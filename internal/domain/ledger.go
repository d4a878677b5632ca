package domain

import "context"

// Ledger is the storage contract the services run against. Implementations
// must return ErrAccountNotFound for unknown IBANs.
type Ledger interface {
	// GetAccount resolves an IBAN to its current account snapshot.
	GetAccount(ctx context.Context, iban string) (Account, error)

	// LastTransactions returns up to limit transactions for the account,
	// newest first. An unknown IBAN yields an empty slice, not an error.
	LastTransactions(ctx context.Context, iban string, limit int) ([]Transaction, error)

	// Transact runs fn inside one atomic unit. Every write issued through
	// the LedgerTx is committed if fn returns nil and discarded otherwise;
	// no partially-applied state is ever observable.
	Transact(ctx context.Context, fn func(tx LedgerTx) error) error
}

// LedgerTx is the write surface available inside an atomic unit.
type LedgerTx interface {
	// AccountForUpdate reads an account and holds it for exclusive update
	// until the surrounding atomic unit ends.
	AccountForUpdate(ctx context.Context, iban string) (Account, error)

	SaveAccount(ctx context.Context, acc Account) error

	// InsertPayment persists p and fills in its storage-assigned ID.
	InsertPayment(ctx context.Context, p *Payment) error

	// InsertTransaction persists t and fills in its storage-assigned ID.
	InsertTransaction(ctx context.Context, t *Transaction) error
}
