package service

import (
	"context"

	"github.com/dmelnik/openbanking/internal/domain"
)

// historyLimit caps how many transactions a history query returns.
const historyLimit = 10

// TransactionService answers transaction history queries.
type TransactionService struct {
	ledger domain.Ledger
}

func NewTransactionService(ledger domain.Ledger) *TransactionService {
	return &TransactionService{ledger: ledger}
}

// GetLastTransactions returns the most recent transactions for iban, newest
// first, at most ten. An unknown IBAN yields an empty history.
func (s *TransactionService) GetLastTransactions(ctx context.Context, iban string) ([]domain.Transaction, error) {
	return s.ledger.LastTransactions(ctx, iban, historyLimit)
}
