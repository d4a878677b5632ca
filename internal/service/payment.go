package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmelnik/openbanking/internal/auth"
	"github.com/dmelnik/openbanking/internal/domain"
)

var (
	ErrMissingParty        = errors.New("sender and receiver IBANs must be provided")
	ErrSameParty           = errors.New("sender and receiver accounts cannot be the same")
	ErrInvalidAmount       = errors.New("invalid payment amount")
	ErrMissingCurrency     = errors.New("currency must be provided")
	ErrSenderNotFound      = errors.New("sender account not found")
	ErrReceiverNotFound    = errors.New("receiver account not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// SuccessMessage is returned to the caller once a payment has been fully
// committed.
const SuccessMessage = "Payment completed successfully"

// PaymentService moves money between two accounts. Validation happens
// entirely before any storage write; the debit, credit, payment record and
// both transaction legs are committed as one atomic unit.
type PaymentService struct {
	ledger domain.Ledger
	now    func() time.Time
}

func NewPaymentService(ledger domain.Ledger) *PaymentService {
	return &PaymentService{ledger: ledger, now: time.Now}
}

// InitiatePayment validates req, debits the sender, credits the receiver and
// records the payment with its two ledger legs. The first failing check wins
// and leaves storage untouched. Storage errors after validation surface as-is
// with the whole write-set rolled back; a money movement is never retried.
func (s *PaymentService) InitiatePayment(ctx context.Context, req domain.PaymentRequest) (string, error) {
	caller, _ := auth.FromContext(ctx)
	slog.Info("initiating payment",
		"caller", caller.Subject,
		"sender", req.SenderIBAN,
		"receiver", req.ReceiverIBAN,
		"amount", req.Amount,
		"currency", req.Currency,
	)

	if err := validateRequest(req); err != nil {
		return "", err
	}

	err := s.ledger.Transact(ctx, func(tx domain.LedgerTx) error {
		// Lock both parties in IBAN order so two concurrent payments
		// between the same accounts cannot deadlock, and so the balance
		// check cannot race past a concurrent debit.
		first, second := req.SenderIBAN, req.ReceiverIBAN
		if first > second {
			first, second = second, first
		}

		accounts := make(map[string]domain.Account, 2)
		missing := make(map[string]bool, 2)
		for _, iban := range []string{first, second} {
			acc, err := tx.AccountForUpdate(ctx, iban)
			switch {
			case errors.Is(err, domain.ErrAccountNotFound):
				missing[iban] = true
			case err != nil:
				return fmt.Errorf("account lock failed: %w", err)
			default:
				accounts[iban] = acc
			}
		}
		if missing[req.SenderIBAN] {
			return ErrSenderNotFound
		}
		if missing[req.ReceiverIBAN] {
			return ErrReceiverNotFound
		}

		sender := accounts[req.SenderIBAN]
		receiver := accounts[req.ReceiverIBAN]

		if sender.Balance.LessThan(req.Amount) {
			slog.Warn("insufficient balance for sender", "sender", sender.IBAN)
			return ErrInsufficientBalance
		}

		sender.Balance = sender.Balance.Sub(req.Amount)
		receiver.Balance = receiver.Balance.Add(req.Amount)
		if err := tx.SaveAccount(ctx, sender); err != nil {
			return fmt.Errorf("sender update failed: %w", err)
		}
		if err := tx.SaveAccount(ctx, receiver); err != nil {
			return fmt.Errorf("receiver update failed: %w", err)
		}

		now := s.now()
		payment := &domain.Payment{
			SenderIBAN:   req.SenderIBAN,
			ReceiverIBAN: req.ReceiverIBAN,
			Amount:       req.Amount,
			Currency:     req.Currency,
			Status:       domain.StatusCompleted,
			CreatedAt:    now,
		}
		if err := tx.InsertPayment(ctx, payment); err != nil {
			return fmt.Errorf("payment insert failed: %w", err)
		}

		debit := &domain.Transaction{AccountIBAN: req.SenderIBAN, Amount: req.Amount.Neg(), Timestamp: now}
		credit := &domain.Transaction{AccountIBAN: req.ReceiverIBAN, Amount: req.Amount, Timestamp: now}
		if err := tx.InsertTransaction(ctx, debit); err != nil {
			return fmt.Errorf("debit leg insert failed: %w", err)
		}
		if err := tx.InsertTransaction(ctx, credit); err != nil {
			return fmt.Errorf("credit leg insert failed: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	slog.Info("payment completed", "sender", req.SenderIBAN, "receiver", req.ReceiverIBAN)
	return SuccessMessage, nil
}

// validateRequest runs the fail-fast checks in their mandated order; no
// storage is touched before all of them pass.
func validateRequest(req domain.PaymentRequest) error {
	if req.SenderIBAN == "" || req.ReceiverIBAN == "" {
		return ErrMissingParty
	}
	if req.SenderIBAN == req.ReceiverIBAN {
		return ErrSameParty
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if req.Currency == "" {
		return ErrMissingCurrency
	}
	return nil
}
