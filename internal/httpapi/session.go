package httpapi

import (
	"context"
	"errors"
	"net/http"

	"budget-advisor/internal/auth"
	"budget-advisor/internal/logging"
	"budget-advisor/internal/models"
)

type identityKey struct{}

func withIdentity(ctx context.Context, identity models.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

func identityFromContext(ctx context.Context) (models.Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(models.Identity)
	return identity, ok
}

// sessionGuard trusts the token claims without a store lookup.
func (h *Handler) sessionGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := h.sessions.Authorize(r.Header.Get("Authorization"))
		if err != nil {
			if errors.Is(err, auth.ErrMissingToken) {
				writeError(w, http.StatusUnauthorized, "Access token required")
				return
			}
			logging.FromContext(r.Context()).Debug("token rejected", "error", err)
			writeError(w, http.StatusForbidden, "Invalid token")
			return
		}
		ctx := withIdentity(r.Context(), identity)
		ctx = logging.WithContext(ctx, logging.FromContext(ctx).With("user_id", identity.UserID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
