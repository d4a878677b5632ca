package service

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/dmelnik/openbanking/internal/domain"
)

// AccountService answers balance queries.
type AccountService struct {
	ledger domain.Ledger
}

func NewAccountService(ledger domain.Ledger) *AccountService {
	return &AccountService{ledger: ledger}
}

// GetBalance returns the stored balance for iban, or exactly zero when the
// account is unknown. Absence is deliberately not an error.
func (s *AccountService) GetBalance(ctx context.Context, iban string) (decimal.Decimal, error) {
	acc, err := s.ledger.GetAccount(ctx, iban)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return acc.Balance, nil
}
