package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment statuses. Only StatusCompleted is ever persisted: a payment that
// fails any check is rejected before it reaches storage.
const (
	StatusPending   = "PENDING"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)

// Account holds the current balance for one IBAN. Accounts are created
// out-of-band (seeder); only the payment engine mutates the balance.
type Account struct {
	IBAN    string          `json:"iban"`
	Balance decimal.Decimal `json:"balance"`
}

// PaymentRequest is the DTO for incoming payment initiations. Amount accepts
// both JSON numbers and numeric strings.
type PaymentRequest struct {
	SenderIBAN   string          `json:"senderIban"`
	ReceiverIBAN string          `json:"receiverIban"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
}

// Payment is the immutable record of a completed transfer between two
// accounts. CreatedAt is stamped by the engine at the moment of completion.
type Payment struct {
	ID           int64           `json:"id"`
	SenderIBAN   string          `json:"senderIban"`
	ReceiverIBAN string          `json:"receiverIban"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// Transaction is one leg of a completed payment: negative amount for the
// debit leg, positive for the credit leg. The two legs of a payment always
// sum to zero.
type Transaction struct {
	ID          int64           `json:"id"`
	AccountIBAN string          `json:"accountIban"`
	Amount      decimal.Decimal `json:"amount"`
	Timestamp   time.Time       `json:"timestamp"`
}
