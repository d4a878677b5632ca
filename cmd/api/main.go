package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmelnik/openbanking/internal/api"
	"github.com/dmelnik/openbanking/internal/config"
	"github.com/dmelnik/openbanking/internal/extbank"
	"github.com/dmelnik/openbanking/internal/service"
	"github.com/dmelnik/openbanking/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	ledger, err := store.NewStore(ctx, cfg.DBSource)
	if err != nil {
		slog.Error("unable to connect to database", "error", err)
		os.Exit(1)
	}
	if err := ledger.Migrate(ctx); err != nil {
		slog.Error("schema migration failed", "error", err)
		os.Exit(1)
	}

	accounts := service.NewAccountService(ledger)
	payments := service.NewPaymentService(ledger)
	transactions := service.NewTransactionService(ledger)
	bank := extbank.New(cfg.MockBankURL)
	handler := api.NewHandler(accounts, payments, transactions, bank)

	r := mux.NewRouter()
	r.Use(api.RequestLogger)
	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/health", handler.HealthCheckHandler).Methods("GET")

	apiV1 := r.PathPrefix("/api/v1").Subrouter()
	apiV1.Use(api.BearerAuth(ledger))
	apiV1.HandleFunc("/accounts/{iban}/balance", handler.GetBalanceHandler).Methods("GET")
	apiV1.HandleFunc("/accounts/{iban}/transactions", handler.GetTransactionsHandler).Methods("GET")
	apiV1.HandleFunc("/payments", handler.InitiatePaymentHandler).Methods("POST")
	apiV1.HandleFunc("/external/accounts/{iban}/balance", handler.ExternalBalanceHandler).Methods("GET")
	apiV1.HandleFunc("/external/accounts/{iban}/transactions", handler.ExternalTransactionsHandler).Methods("GET")

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "env", cfg.Env, "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", "error", err)
	}
	ledger.Close()
	slog.Info("server exited")
}
