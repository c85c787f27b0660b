package authapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"usersvc/cmd/identity"
	"usersvc/cmd/security/password"
	"usersvc/cmd/security/token"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Client-facing messages. Wording is part of the public contract.
const (
	msgUserNotFound    = "Utilisateur non trouvé"
	msgWrongPassword   = "Mot de passe incorrect"
	msgCreateFailed    = "Erreur lors de la création de l'utilisateur"
	msgLoginFailed     = "Erreur lors de la connexion"
	msgUnauthorized    = "unauthorized"
	msgInvalidBody     = "invalid request body"
	msgInvalidUserID   = "invalid user id"
	msgPasswordMissing = "password is required"
	msgPasswordTooLong = "password too long"
	msgInternal        = "internal error"
)

// Login outcomes reported to a LoginObserver.
const (
	LoginSuccess      = "success"
	LoginUnknownEmail = "unknown_email"
	LoginBadPassword  = "bad_password"
	LoginError        = "error"
)

// Hasher runs password hashing off the request goroutine. *password.Pool satisfies it.
type Hasher interface {
	Hash(ctx context.Context, plain string) (string, error)
	Verify(ctx context.Context, encodedHash, plain string) (bool, error)
}

// Tokens issues and verifies bearer tokens. *token.Manager satisfies it.
type Tokens interface {
	Issue(userID int64, now time.Time) (string, error)
	Verify(tokenStr string, now time.Time) (token.Claims, error)
}

// LoginObserver is told the outcome of every login attempt (metrics).
type LoginObserver func(outcome string)

// Handler wires the user and login endpoints to the store, hasher and token manager.
type Handler struct {
	log *slog.Logger
	cfg Config

	users  identity.Store
	hasher Hasher
	tokens Tokens

	// Optional audit sink; nil keeps audit events in the log only.
	auditPool   *pgxpool.Pool
	auditSchema string

	observeLogin LoginObserver
	now          func() time.Time
}

// HandlerOption configures optional handler dependencies.
type HandlerOption func(*Handler)

// WithAuditPool persists audit events to <schema>.audit_log in addition to the log.
func WithAuditPool(pool *pgxpool.Pool, schema string) HandlerOption {
	return func(h *Handler) {
		if h == nil || pool == nil {
			return
		}
		h.auditPool = pool
		if s := strings.TrimSpace(schema); s != "" {
			h.auditSchema = s
		}
	}
}

// WithLoginObserver installs a callback for login outcomes.
func WithLoginObserver(o LoginObserver) HandlerOption {
	return func(h *Handler) {
		if h == nil || o == nil {
			return
		}
		h.observeLogin = o
	}
}

// WithClock overrides the time source used for token issuance and verification.
func WithClock(now func() time.Time) HandlerOption {
	return func(h *Handler) {
		if h == nil || now == nil {
			return
		}
		h.now = now
	}
}

// NewHandler constructs a Handler. All three collaborators are required.
func NewHandler(log *slog.Logger, cfg Config, users identity.Store, hasher Hasher, tokens Tokens, opts ...HandlerOption) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if users == nil {
		return nil, errors.New("authapi: nil user store")
	}
	if hasher == nil {
		return nil, errors.New("authapi: nil hasher")
	}
	if tokens == nil {
		return nil, errors.New("authapi: nil token manager")
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}

	h := &Handler{
		log:          log,
		cfg:          cfg,
		users:        users,
		hasher:       hasher,
		tokens:       tokens,
		auditSchema:  identity.DefaultSchema,
		observeLogin: func(string) {},
		now:          func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(h)
	}

	return h, nil
}

// Register wires the user API routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("GET /{$}", h.handleRoot)
	mux.HandleFunc("GET /users", h.handleListUsers)
	mux.HandleFunc("GET /users/{id}", h.handleGetUser)
	mux.HandleFunc("POST /users", h.handleCreateUser)
	mux.HandleFunc("POST /login", h.handleLogin)

	mux.Handle("PUT /users/{id}", h.RequireBearer(http.HandlerFunc(h.handleUpdateUser)))
	mux.Handle("PATCH /users/{id}", h.RequireBearer(http.HandlerFunc(h.handleUpdateUser)))
	mux.Handle("DELETE /users/{id}", h.RequireBearer(http.HandlerFunc(h.handleDeleteUser)))
}

// ---- handlers ----

func (h *Handler) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, "hello world")
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		h.log.Error("users.list.fail", "err", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponses(users))
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUserID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, msgInvalidUserID)
		return
	}

	u, err := h.users.FindByID(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, "users.get.fail", err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if req.Password == nil {
		writeError(w, http.StatusBadRequest, msgPasswordMissing)
		return
	}

	ctx := r.Context()
	hash, err := h.hasher.Hash(ctx, *req.Password)
	if err != nil {
		h.writeHashError(w, "users.create.hash.fail", msgCreateFailed, err)
		return
	}

	u, err := h.users.Insert(ctx, identity.InsertUserInput{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Now:          h.now(),
	})
	if err != nil {
		h.log.Error("users.create.fail", "err", err)
		writeError(w, http.StatusInternalServerError, msgCreateFailed)
		return
	}

	h.auditUserCreated(ctx, u.ID, r)
	writeJSON(w, http.StatusCreated, toUserResponse(u))
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	ctx := r.Context()
	u, err := h.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if identity.IsNotFound(err) {
			h.observeLogin(LoginUnknownEmail)
			h.auditLoginFailed(ctx, nil, r, "unknown_email")
			writeError(w, http.StatusNotFound, msgUserNotFound)
			return
		}
		h.observeLogin(LoginError)
		h.log.Error("auth.login.lookup.fail", "err", err)
		writeError(w, http.StatusInternalServerError, msgLoginFailed)
		return
	}

	ok, err := h.hasher.Verify(ctx, u.PasswordHash, req.Password)
	if err != nil {
		h.observeLogin(LoginError)
		h.log.Error("auth.login.verify.fail", "err", err, "user_id", u.ID)
		writeError(w, http.StatusInternalServerError, msgLoginFailed)
		return
	}
	if !ok {
		h.observeLogin(LoginBadPassword)
		h.auditLoginFailed(ctx, &u.ID, r, "bad_password")
		writeError(w, http.StatusUnauthorized, msgWrongPassword)
		return
	}

	tok, err := h.tokens.Issue(u.ID, h.now())
	if err != nil {
		h.observeLogin(LoginError)
		h.log.Error("auth.login.issue.fail", "err", err, "user_id", u.ID)
		writeError(w, http.StatusInternalServerError, msgLoginFailed)
		return
	}

	h.observeLogin(LoginSuccess)
	h.auditLoginSuccess(ctx, u.ID, r)
	writeJSON(w, http.StatusCreated, loginResponse{Token: tok, UserID: u.ID})
}

// handleUpdateUser serves both PUT and PATCH: the body is merged onto the stored record.
func (h *Handler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUserID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, msgInvalidUserID)
		return
	}

	var req updateUserRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	ctx := r.Context()

	// Resolve 404 before spending a hash on a missing record.
	if _, err := h.users.FindByID(ctx, id); err != nil {
		h.writeStoreError(w, "users.update.fail", err)
		return
	}

	patch := identity.UserPatch{
		Name:  req.Name,
		Email: req.Email,
		Now:   h.now(),
	}
	if req.Password != nil {
		hash, err := h.hasher.Hash(ctx, *req.Password)
		if err != nil {
			h.writeHashError(w, "users.update.hash.fail", msgInternal, err)
			return
		}
		patch.PasswordHash = &hash
	}

	u, err := h.users.Update(ctx, id, patch)
	if err != nil {
		h.writeStoreError(w, "users.update.fail", err)
		return
	}

	h.auditUserUpdated(ctx, u.ID, r)
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

func (h *Handler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUserID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, msgInvalidUserID)
		return
	}

	ctx := r.Context()
	if err := h.users.Delete(ctx, id); err != nil {
		h.writeStoreError(w, "users.delete.fail", err)
		return
	}

	h.auditUserDeleted(ctx, id, r)
	w.WriteHeader(http.StatusOK)
}

// ---- error mapping ----

func (h *Handler) writeStoreError(w http.ResponseWriter, event string, err error) {
	switch {
	case identity.IsNotFound(err):
		writeError(w, http.StatusNotFound, msgUserNotFound)
	case identity.IsInvalidInput(err):
		writeError(w, http.StatusBadRequest, msgInvalidBody)
	default:
		h.log.Error(event, "err", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
	}
}

func (h *Handler) writeHashError(w http.ResponseWriter, event, msg string, err error) {
	switch {
	case errors.Is(err, password.ErrInputTooLong):
		writeError(w, http.StatusBadRequest, msgPasswordTooLong)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// Client went away or the server is shutting down; nobody reads the body.
		h.log.Info(event, "err", err)
		writeError(w, http.StatusServiceUnavailable, msg)
	default:
		h.log.Error(event, "err", err)
		writeError(w, http.StatusInternalServerError, msg)
	}
}
