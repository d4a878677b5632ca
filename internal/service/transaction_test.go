package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmelnik/openbanking/internal/domain"
	"github.com/dmelnik/openbanking/internal/store"
)

func TestGetLastTransactions_CapsAtTenNewestFirst(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	if err := mem.CreateAccount(ctx, "DE123456", decimal.NewFromInt(1000)); err != nil {
		t.Fatal(err)
	}

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	err := mem.Transact(ctx, func(tx domain.LedgerTx) error {
		for i := 0; i < 15; i++ {
			txn := &domain.Transaction{
				AccountIBAN: "DE123456",
				Amount:      decimal.NewFromInt(int64(i + 1)),
				Timestamp:   base.Add(time.Duration(i) * time.Minute),
			}
			if err := tx.InsertTransaction(ctx, txn); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	svc := NewTransactionService(mem)
	txns, err := svc.GetLastTransactions(ctx, "DE123456")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txns) != 10 {
		t.Fatalf("history length = %d, want 10", len(txns))
	}
	for i := range txns {
		// Newest entry (amount 15) first, descending from there.
		want := decimal.NewFromInt(int64(15 - i))
		if !txns[i].Amount.Equal(want) {
			t.Errorf("entry %d amount = %s, want %s", i, txns[i].Amount, want)
		}
		if i > 0 && txns[i].Timestamp.After(txns[i-1].Timestamp) {
			t.Errorf("entry %d is newer than entry %d", i, i-1)
		}
	}
}

func TestGetLastTransactions_UnknownAccountIsEmpty(t *testing.T) {
	svc := NewTransactionService(store.NewMemory())

	txns, err := svc.GetLastTransactions(context.Background(), "DE000000")
	if err != nil {
		t.Fatalf("absence must not be an error, got: %v", err)
	}
	if len(txns) != 0 {
		t.Errorf("history length = %d, want 0", len(txns))
	}
}

func TestGetLastTransactions_OnlyOwnEntries(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	if err := mem.CreateAccount(ctx, "DE123456", decimal.NewFromInt(1000)); err != nil {
		t.Fatal(err)
	}
	if err := mem.CreateAccount(ctx, "DE654321", decimal.NewFromInt(500)); err != nil {
		t.Fatal(err)
	}

	pay := NewPaymentService(mem)
	if _, err := pay.InitiatePayment(ctx, domain.PaymentRequest{
		SenderIBAN:   "DE123456",
		ReceiverIBAN: "DE654321",
		Amount:       decimal.NewFromInt(50),
		Currency:     "EUR",
	}); err != nil {
		t.Fatal(err)
	}

	svc := NewTransactionService(mem)
	senderHist, err := svc.GetLastTransactions(ctx, "DE123456")
	if err != nil {
		t.Fatal(err)
	}
	if len(senderHist) != 1 || !senderHist[0].Amount.Equal(decimal.NewFromInt(-50)) {
		t.Errorf("sender history = %+v, want single -50 entry", senderHist)
	}

	receiverHist, err := svc.GetLastTransactions(ctx, "DE654321")
	if err != nil {
		t.Fatal(err)
	}
	if len(receiverHist) != 1 || !receiverHist[0].Amount.Equal(decimal.NewFromInt(50)) {
		t.Errorf("receiver history = %+v, want single +50 entry", receiverHist)
	}
}
