// Package mockbank simulates an external bank API. Every account reports the
// same fixed balance and transaction history, which is enough for exercising
// the extbank client end to end.
package mockbank

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

var fixedBalance = decimal.NewFromFloat(1000.00)

var fixedTransactions = []string{
	"TXN001: -50.00",
	"TXN002: -20.00",
	"TXN003: +200.00",
}

// Router returns the mock bank's route set.
func Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/mock-bank/accounts/{iban}/balance", getBalance).Methods("GET")
	r.HandleFunc("/mock-bank/accounts/{iban}/transactions", getTransactions).Methods("GET")
	return r
}

func getBalance(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(fixedBalance)
}

func getTransactions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(fixedTransactions)
}
