// Package middleware resolves the request owner and applies common HTTP
// middleware. Authentication itself happens upstream: the engine trusts
// the owner identity the gateway injects into these headers.
package middleware

import (
	"context"
	"net/http"

	"github.com/rumor-ml/ledgerecon/internal/domain"
)

type contextKey string

const ownerKey contextKey = "owner"

// Header names populated by the upstream auth layer.
const (
	HeaderOwnerType = "X-Owner-Type"
	HeaderOwnerID   = "X-Owner-Id"
)

// RequireOwner extracts the owner from the request headers and rejects
// requests without a valid one.
func RequireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner := domain.Owner{
			Type: domain.OwnerType(r.Header.Get(HeaderOwnerType)),
			ID:   r.Header.Get(HeaderOwnerID),
		}
		if err := owner.Validate(); err != nil {
			http.Error(w, "Missing or invalid owner identity", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ownerKey, owner)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetOwner returns the owner resolved for this request.
func GetOwner(ctx context.Context) (domain.Owner, bool) {
	owner, ok := ctx.Value(ownerKey).(domain.Owner)
	return owner, ok
}

// CORS applies permissive CORS headers for browser clients.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+HeaderOwnerType+", "+HeaderOwnerID)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
