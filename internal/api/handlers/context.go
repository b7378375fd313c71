// Package handlers implements the HTTP endpoint handlers.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/felixgeelhaar/codequest/internal/domain"
)

type contextKey string

// ContextKeyUser carries the authenticated *domain.User set by the router's
// auth wrapper.
const ContextKeyUser contextKey = "user"

// UserFrom returns the authenticated user from the request context. Handlers
// behind requireAuth can rely on it being present.
func UserFrom(ctx context.Context) *domain.User {
	user, _ := ctx.Value(ContextKeyUser).(*domain.User)
	return user
}

func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}
