package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/dmelnik/openbanking/internal/auth"
)

// KeyResolver maps a hashed bearer key to the caller subject it belongs to.
type KeyResolver interface {
	ResolveAPIKey(ctx context.Context, keyHash string) (string, error)
}

// BearerAuth authenticates requests by their Authorization bearer token. The
// raw key is never stored or compared: only its sha256 hash is looked up. On
// success the caller principal is placed in the request context.
func BearerAuth(resolver KeyResolver) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondWithJSON(w, http.StatusUnauthorized, map[string]string{"error": "Missing bearer token"})
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondWithJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid Authorization header"})
				return
			}

			hash := sha256.Sum256([]byte(parts[1]))
			subject, err := resolver.ResolveAPIKey(r.Context(), hex.EncodeToString(hash[:]))
			if err != nil {
				respondWithJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid bearer token"})
				return
			}

			ctx := auth.NewContext(r.Context(), auth.Principal{Subject: subject})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// RequestLogger logs one line per request with a generated request id.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		requestID := uuid.NewString()

		next.ServeHTTP(rec, r)

		slog.Info("request handled",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
