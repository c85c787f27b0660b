package authapi

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"
)

func (h *Handler) auditLoginFailed(ctx context.Context, userID *int64, r *http.Request, reason string) {
	h.insertAudit(ctx, "audit.login.failed", userID, r, map[string]any{
		"reason": reason,
	})
}

func (h *Handler) auditLoginSuccess(ctx context.Context, userID int64, r *http.Request) {
	h.insertAudit(ctx, "audit.login.success", &userID, r, nil)
}

func (h *Handler) auditUserCreated(ctx context.Context, userID int64, r *http.Request) {
	h.insertAudit(ctx, "audit.user.created", &userID, r, nil)
}

func (h *Handler) auditUserUpdated(ctx context.Context, userID int64, r *http.Request) {
	h.insertAudit(ctx, "audit.user.updated", &userID, r, h.actorMeta(r))
}

func (h *Handler) auditUserDeleted(ctx context.Context, userID int64, r *http.Request) {
	h.insertAudit(ctx, "audit.user.deleted", &userID, r, h.actorMeta(r))
}

func (h *Handler) actorMeta(r *http.Request) map[string]any {
	if actor, ok := SubjectFromContext(r.Context()); ok {
		return map[string]any{"actor_id": actor}
	}
	return nil
}

// insertAudit logs the event and, when an audit pool is configured, persists it.
// Persistence is best effort: a failed insert is logged and never fails the request.
func (h *Handler) insertAudit(ctx context.Context, action string, userID *int64, r *http.Request, meta map[string]any) {
	if h == nil {
		return
	}

	action = strings.TrimSpace(action)
	if action == "" {
		return
	}

	ip := clientIP(r, h.cfg.TrustProxy)
	ua := strings.TrimSpace(r.UserAgent())

	attrs := []any{"ip", ipString(ip)}
	if userID != nil {
		attrs = append(attrs, "user_id", *userID)
	}
	for k, v := range meta {
		attrs = append(attrs, k, v)
	}
	h.log.Info(action, attrs...)

	if h.auditPool == nil {
		return
	}

	var ipVal any
	if ip != nil {
		ipVal = ip.String()
	}

	var metaVal *string
	if len(meta) > 0 {
		if b, err := json.Marshal(meta); err == nil {
			s := string(b)
			metaVal = &s
		}
	}

	_, err := h.auditPool.Exec(ctx, `
		INSERT INTO `+pgx.Identifier{h.auditSchema, "audit_log"}.Sanitize()+` (
			user_id, action, created_at, ip, user_agent, meta
		) VALUES ($1, $2, now(), $3, $4, $5::jsonb)
	`, userID, action, ipVal, trimOrNil(ua), metaVal)
	if err != nil {
		h.log.Error("audit.insert.fail", "err", err, "action", action)
	}
}

func ipString(ip net.IP) string {
	if ip == nil {
		return ""
	}
	return ip.String()
}

func trimOrNil(s string) any {
	v := strings.TrimSpace(s)
	if v == "" {
		return nil
	}
	return v
}
