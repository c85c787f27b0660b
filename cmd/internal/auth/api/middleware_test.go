package authapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"usersvc/cmd/security/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBearerToken(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		header     string
		wantToken  string
		wantReason string
	}{
		{name: "missing", header: "", wantReason: "missing_header"},
		{name: "ok", header: "Bearer abc.def.ghi", wantToken: "abc.def.ghi"},
		{name: "lowercase scheme", header: "bearer abc", wantReason: "bad_scheme"},
		{name: "uppercase scheme", header: "BEARER abc", wantReason: "bad_scheme"},
		{name: "other scheme", header: "Token abc", wantReason: "bad_scheme"},
		{name: "scheme only", header: "Bearer", wantReason: "missing_token"},
		{name: "empty token", header: "Bearer ", wantReason: "missing_token"},
		{name: "split on first space", header: "Bearer a b", wantToken: "a b"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}
			tok, reason := bearerToken(r)
			assert.Equal(t, tc.wantToken, tok)
			assert.Equal(t, tc.wantReason, reason)
		})
	}
}

func TestRequireBearer_AttachesSubject(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	tok, err := env.tokens.Issue(42, time.Now())
	require.NoError(t, err)

	var gotID int64
	var gotOK bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, gotOK = SubjectFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	r := httptest.NewRequest(http.MethodDelete, "/users/1", nil)
	r.Header.Set("Authorization", "Bearer "+tok)
	rr := httptest.NewRecorder()
	env.h.RequireBearer(next).ServeHTTP(rr, r)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.True(t, gotOK)
	assert.Equal(t, int64(42), gotID)
}

func TestRequireBearer_DoesNotCallNextOnFailure(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	called := false
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })

	r := httptest.NewRequest(http.MethodDelete, "/users/1", nil)
	r.Header.Set("Authorization", "Bearer not.a.token")
	rr := httptest.NewRecorder()
	env.h.RequireBearer(next).ServeHTTP(rr, r)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.False(t, called)
}

func TestRequireBearer_ExpiredToken(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(t)

	cfg := token.DefaultConfig()
	cfg.Secret = []byte(testSecret)
	cfg.TTL = time.Minute
	short, err := token.NewManager(cfg)
	require.NoError(t, err)

	tok, err := short.Issue(7, now.Add(-time.Hour))
	require.NoError(t, err)

	h, err := NewHandler(env.h.log, env.h.cfg, env.store, env.h.hasher, short, WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodDelete, "/users/7", nil)
	r.Header.Set("Authorization", "Bearer "+tok)
	rr := httptest.NewRecorder()
	h.RequireBearer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatalf("next must not run for an expired token")
	})).ServeHTTP(rr, r)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestSubjectFromContext_Absent(t *testing.T) {
	t.Parallel()

	_, ok := SubjectFromContext(context.Background())
	assert.False(t, ok)
}
