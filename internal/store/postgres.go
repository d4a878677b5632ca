package store

import (
	"context"
	"errors"
	"fmt"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/dmelnik/openbanking/internal/domain"
)

// Store is the Postgres-backed ledger. Numeric columns are scanned straight
// into decimal.Decimal via the pgx shopspring codec registered on every
// connection.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, connString string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// Migrate creates the schema if it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			iban TEXT PRIMARY KEY,
			balance NUMERIC NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS payments (
			id BIGSERIAL PRIMARY KEY,
			sender_iban TEXT NOT NULL,
			receiver_iban TEXT NOT NULL,
			amount NUMERIC NOT NULL,
			currency TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id BIGSERIAL PRIMARY KEY,
			account_iban TEXT NOT NULL,
			amount NUMERIC NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_account
			ON transactions (account_iban, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS api_keys (
			key_hash TEXT PRIMARY KEY,
			subject TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// GetAccount retrieves a single account by IBAN.
func (s *Store) GetAccount(ctx context.Context, iban string) (domain.Account, error) {
	var acc domain.Account
	err := s.pool.QueryRow(ctx,
		"SELECT iban, balance FROM accounts WHERE iban = $1", iban,
	).Scan(&acc.IBAN, &acc.Balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	if err != nil {
		return domain.Account{}, err
	}
	return acc, nil
}

// LastTransactions retrieves up to limit transactions for an account, newest
// first. Ties on created_at break on the higher ID.
func (s *Store) LastTransactions(ctx context.Context, iban string, limit int) ([]domain.Transaction, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, account_iban, amount, created_at FROM transactions
		 WHERE account_iban = $1 ORDER BY created_at DESC, id DESC LIMIT $2`,
		iban, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txns := []domain.Transaction{}
	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(&t.ID, &t.AccountIBAN, &t.Amount, &t.Timestamp); err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

// Transact runs fn inside one database transaction at RepeatableRead. A nil
// return from fn commits; anything else rolls the whole write-set back.
func (s *Store) Transact(ctx context.Context, fn func(tx domain.LedgerTx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("tx begin failed: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgLedgerTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("tx commit failed: %w", err)
	}
	return nil
}

// CreateAccount inserts a new account. Used by seeding, never by the engine.
func (s *Store) CreateAccount(ctx context.Context, iban string, balance decimal.Decimal) error {
	_, err := s.pool.Exec(ctx,
		"INSERT INTO accounts (iban, balance) VALUES ($1, $2)", iban, balance)
	return err
}

// SaveAPIKey stores the hashed bearer key for a caller subject.
func (s *Store) SaveAPIKey(ctx context.Context, keyHash, subject string) error {
	_, err := s.pool.Exec(ctx,
		"INSERT INTO api_keys (key_hash, subject) VALUES ($1, $2)", keyHash, subject)
	return err
}

// ResolveAPIKey maps a hashed bearer key to its subject.
func (s *Store) ResolveAPIKey(ctx context.Context, keyHash string) (string, error) {
	var subject string
	err := s.pool.QueryRow(ctx,
		"SELECT subject FROM api_keys WHERE key_hash = $1", keyHash,
	).Scan(&subject)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("unknown api key")
	}
	return subject, err
}

type pgLedgerTx struct {
	tx pgx.Tx
}

func (t *pgLedgerTx) AccountForUpdate(ctx context.Context, iban string) (domain.Account, error) {
	var acc domain.Account
	err := t.tx.QueryRow(ctx,
		"SELECT iban, balance FROM accounts WHERE iban = $1 FOR UPDATE", iban,
	).Scan(&acc.IBAN, &acc.Balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	if err != nil {
		return domain.Account{}, err
	}
	return acc, nil
}

func (t *pgLedgerTx) SaveAccount(ctx context.Context, acc domain.Account) error {
	tag, err := t.tx.Exec(ctx,
		"UPDATE accounts SET balance = $1 WHERE iban = $2", acc.Balance, acc.IBAN)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (t *pgLedgerTx) InsertPayment(ctx context.Context, p *domain.Payment) error {
	return t.tx.QueryRow(ctx,
		`INSERT INTO payments (sender_iban, receiver_iban, amount, currency, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		p.SenderIBAN, p.ReceiverIBAN, p.Amount, p.Currency, p.Status, p.CreatedAt,
	).Scan(&p.ID)
}

func (t *pgLedgerTx) InsertTransaction(ctx context.Context, txn *domain.Transaction) error {
	return t.tx.QueryRow(ctx,
		`INSERT INTO transactions (account_iban, amount, created_at)
		 VALUES ($1, $2, $3) RETURNING id`,
		txn.AccountIBAN, txn.Amount, txn.Timestamp,
	).Scan(&txn.ID)
}
