package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dmelnik/openbanking/internal/domain"
	"github.com/dmelnik/openbanking/internal/extbank"
	"github.com/dmelnik/openbanking/internal/service"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "openbanking_http_requests_total",
		Help: "Total HTTP requests processed, labeled by status code",
	}, []string{"method", "endpoint", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "openbanking_http_request_duration_seconds",
		Help:    "Latency distribution of HTTP requests",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"method", "endpoint"})

	paymentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "openbanking_payments_total",
		Help: "Payment initiations by outcome",
	}, []string{"outcome"})
)

type Handler struct {
	accounts     *service.AccountService
	payments     *service.PaymentService
	transactions *service.TransactionService
	bank         *extbank.Client
}

func NewHandler(accounts *service.AccountService, payments *service.PaymentService, transactions *service.TransactionService, bank *extbank.Client) *Handler {
	return &Handler{
		accounts:     accounts,
		payments:     payments,
		transactions: transactions,
		bank:         bank,
	}
}

func (h *Handler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) GetBalanceHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("GET", "/accounts/{iban}/balance"))
	defer timer.ObserveDuration()

	iban := mux.Vars(r)["iban"]
	balance, err := h.accounts.GetBalance(r.Context(), iban)
	if err != nil {
		h.respond(w, "GET", "/accounts/{iban}/balance", http.StatusInternalServerError,
			map[string]string{"error": "Internal server error"})
		return
	}
	h.respond(w, "GET", "/accounts/{iban}/balance", http.StatusOK,
		map[string]any{"iban": iban, "balance": balance})
}

func (h *Handler) GetTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("GET", "/accounts/{iban}/transactions"))
	defer timer.ObserveDuration()

	iban := mux.Vars(r)["iban"]
	txns, err := h.transactions.GetLastTransactions(r.Context(), iban)
	if err != nil {
		h.respond(w, "GET", "/accounts/{iban}/transactions", http.StatusInternalServerError,
			map[string]string{"error": "Internal server error"})
		return
	}
	h.respond(w, "GET", "/accounts/{iban}/transactions", http.StatusOK, txns)
}

func (h *Handler) InitiatePaymentHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", "/payments"))
	defer timer.ObserveDuration()

	var req domain.PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond(w, "POST", "/payments", http.StatusBadRequest,
			map[string]string{"error": "Malformed JSON body"})
		return
	}

	message, err := h.payments.InitiatePayment(r.Context(), req)
	if err != nil {
		code, msg := paymentErrorStatus(err)
		if code == http.StatusInternalServerError {
			paymentsTotal.WithLabelValues("storage_failure").Inc()
		} else {
			paymentsTotal.WithLabelValues("rejected").Inc()
		}
		h.respond(w, "POST", "/payments", code, map[string]string{"error": msg})
		return
	}

	paymentsTotal.WithLabelValues("completed").Inc()
	h.respond(w, "POST", "/payments", http.StatusOK, map[string]string{"message": message})
}

func (h *Handler) ExternalBalanceHandler(w http.ResponseWriter, r *http.Request) {
	iban := mux.Vars(r)["iban"]
	balance, err := h.bank.Balance(r.Context(), iban)
	if err != nil {
		h.respond(w, "GET", "/external/accounts/{iban}/balance", http.StatusBadGateway,
			map[string]string{"error": "External bank unavailable"})
		return
	}
	h.respond(w, "GET", "/external/accounts/{iban}/balance", http.StatusOK,
		map[string]any{"iban": iban, "balance": balance})
}

func (h *Handler) ExternalTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	iban := mux.Vars(r)["iban"]
	txns, err := h.bank.Transactions(r.Context(), iban)
	if err != nil {
		h.respond(w, "GET", "/external/accounts/{iban}/transactions", http.StatusBadGateway,
			map[string]string{"error": "External bank unavailable"})
		return
	}
	h.respond(w, "GET", "/external/accounts/{iban}/transactions", http.StatusOK, txns)
}

// paymentErrorStatus maps engine error kinds onto HTTP statuses: validation
// failures to 400, unknown parties to 404, insufficient balance to 422 and
// everything else (storage) to 500.
func paymentErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrMissingParty):
		return http.StatusBadRequest, "Sender and receiver IBANs must be provided"
	case errors.Is(err, service.ErrSameParty):
		return http.StatusBadRequest, "Sender and receiver accounts cannot be the same"
	case errors.Is(err, service.ErrInvalidAmount):
		return http.StatusBadRequest, "Invalid payment amount"
	case errors.Is(err, service.ErrMissingCurrency):
		return http.StatusBadRequest, "Currency must be provided"
	case errors.Is(err, service.ErrSenderNotFound):
		return http.StatusNotFound, "Sender account not found"
	case errors.Is(err, service.ErrReceiverNotFound):
		return http.StatusNotFound, "Receiver account not found"
	case errors.Is(err, service.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity, "Insufficient balance"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func (h *Handler) respond(w http.ResponseWriter, method, endpoint string, code int, payload any) {
	httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(code)).Inc()
	respondWithJSON(w, code, payload)
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}
