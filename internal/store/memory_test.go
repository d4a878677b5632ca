package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmelnik/openbanking/internal/domain"
)

func TestMemory_GetAccount(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	if _, err := mem.GetAccount(ctx, "DE1"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("error = %v, want ErrAccountNotFound", err)
	}

	if err := mem.CreateAccount(ctx, "DE1", decimal.NewFromInt(42)); err != nil {
		t.Fatal(err)
	}
	acc, err := mem.GetAccount(ctx, "DE1")
	if err != nil {
		t.Fatal(err)
	}
	if !acc.Balance.Equal(decimal.NewFromInt(42)) {
		t.Errorf("balance = %s, want 42", acc.Balance)
	}

	if err := mem.CreateAccount(ctx, "DE1", decimal.Zero); err == nil {
		t.Error("duplicate IBAN must be rejected")
	}
}

func TestMemory_TransactCommitsAllWrites(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()
	if err := mem.CreateAccount(ctx, "DE1", decimal.NewFromInt(100)); err != nil {
		t.Fatal(err)
	}

	var payment domain.Payment
	err := mem.Transact(ctx, func(tx domain.LedgerTx) error {
		acc, err := tx.AccountForUpdate(ctx, "DE1")
		if err != nil {
			return err
		}
		acc.Balance = acc.Balance.Sub(decimal.NewFromInt(30))
		if err := tx.SaveAccount(ctx, acc); err != nil {
			return err
		}
		payment = domain.Payment{SenderIBAN: "DE1", ReceiverIBAN: "DE2", Amount: decimal.NewFromInt(30), Status: domain.StatusCompleted, CreatedAt: time.Now()}
		return tx.InsertPayment(ctx, &payment)
	})
	if err != nil {
		t.Fatal(err)
	}

	if payment.ID == 0 {
		t.Error("payment ID not assigned")
	}
	acc, _ := mem.GetAccount(ctx, "DE1")
	if !acc.Balance.Equal(decimal.NewFromInt(70)) {
		t.Errorf("balance = %s, want 70", acc.Balance)
	}
	if len(mem.Payments()) != 1 {
		t.Errorf("payments = %d, want 1", len(mem.Payments()))
	}
}

func TestMemory_TransactDiscardsOnError(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()
	if err := mem.CreateAccount(ctx, "DE1", decimal.NewFromInt(100)); err != nil {
		t.Fatal(err)
	}

	fail := errors.New("unit failed")
	err := mem.Transact(ctx, func(tx domain.LedgerTx) error {
		acc, err := tx.AccountForUpdate(ctx, "DE1")
		if err != nil {
			return err
		}
		acc.Balance = decimal.Zero
		if err := tx.SaveAccount(ctx, acc); err != nil {
			return err
		}
		if err := tx.InsertTransaction(ctx, &domain.Transaction{AccountIBAN: "DE1", Amount: decimal.NewFromInt(-100), Timestamp: time.Now()}); err != nil {
			return err
		}
		return fail
	})
	if !errors.Is(err, fail) {
		t.Fatalf("error = %v, want the unit's own failure", err)
	}

	// Nothing staged may have leaked into the base state.
	acc, _ := mem.GetAccount(ctx, "DE1")
	if !acc.Balance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("balance = %s, want 100", acc.Balance)
	}
	if len(mem.Transactions()) != 0 {
		t.Errorf("transactions = %d, want 0", len(mem.Transactions()))
	}
}

func TestMemory_StagedReadsSeeOwnWrites(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()
	if err := mem.CreateAccount(ctx, "DE1", decimal.NewFromInt(100)); err != nil {
		t.Fatal(err)
	}

	err := mem.Transact(ctx, func(tx domain.LedgerTx) error {
		acc, err := tx.AccountForUpdate(ctx, "DE1")
		if err != nil {
			return err
		}
		acc.Balance = decimal.NewFromInt(60)
		if err := tx.SaveAccount(ctx, acc); err != nil {
			return err
		}
		again, err := tx.AccountForUpdate(ctx, "DE1")
		if err != nil {
			return err
		}
		if !again.Balance.Equal(decimal.NewFromInt(60)) {
			t.Errorf("staged read = %s, want 60", again.Balance)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestMemory_SaveAccountUnknownIBAN(t *testing.T) {
	mem := NewMemory()
	err := mem.Transact(context.Background(), func(tx domain.LedgerTx) error {
		return tx.SaveAccount(context.Background(), domain.Account{IBAN: "DE404", Balance: decimal.Zero})
	})
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("error = %v, want ErrAccountNotFound", err)
	}
}

func TestMemory_APIKeys(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	if _, err := mem.ResolveAPIKey(ctx, "deadbeef"); err == nil {
		t.Error("unknown key must not resolve")
	}

	if err := mem.SaveAPIKey(ctx, "deadbeef", "demo@openbanking.local"); err != nil {
		t.Fatal(err)
	}
	subject, err := mem.ResolveAPIKey(ctx, "deadbeef")
	if err != nil {
		t.Fatal(err)
	}
	if subject != "demo@openbanking.local" {
		t.Errorf("subject = %q", subject)
	}
}
