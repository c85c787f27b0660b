package authapi

import (
	"context"
	"net/http"
	"strings"

	"usersvc/cmd/security/token"
)

type subjectKey struct{}

// SubjectFromContext returns the authenticated user id attached by RequireBearer.
func SubjectFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(subjectKey{}).(int64)
	return id, ok && id > 0
}

func withSubject(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, subjectKey{}, userID)
}

// RequireBearer admits requests carrying "Authorization: Bearer <token>" with a valid token.
// Every rejection is the same 401; only the server log records the reason.
func (h *Handler) RequireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, reason := bearerToken(r)
		if reason != "" {
			h.rejectUnauthorized(w, r, reason, nil)
			return
		}

		claims, err := h.tokens.Verify(raw, h.now())
		if err != nil {
			reason := string(token.KindOf(err))
			if reason == "" {
				reason = "verify_error"
			}
			h.rejectUnauthorized(w, r, reason, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withSubject(r.Context(), claims.UserID)))
	})
}

func (h *Handler) rejectUnauthorized(w http.ResponseWriter, r *http.Request, reason string, err error) {
	attrs := []any{"reason", reason, "method", r.Method, "path", r.URL.Path}
	if err != nil {
		attrs = append(attrs, "err", err)
	}
	h.log.Info("auth.unauthorized", attrs...)
	writeError(w, http.StatusUnauthorized, msgUnauthorized)
}

// bearerToken splits the Authorization header on its first space.
// The scheme must be exactly "Bearer". A non-empty reason means rejection.
func bearerToken(r *http.Request) (string, string) {
	raw := r.Header.Get("Authorization")
	if raw == "" {
		return "", "missing_header"
	}
	scheme, tok, found := strings.Cut(raw, " ")
	if scheme != "Bearer" {
		return "", "bad_scheme"
	}
	if !found || tok == "" {
		return "", "missing_token"
	}
	return tok, ""
}
