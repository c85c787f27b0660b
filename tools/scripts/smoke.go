// Package main provides a CI-friendly HTTP smoke test for a running usersvc.
//
// It validates:
//   - register returns 201 with a hashed password
//   - login returns 201 with a bearer token
//   - protected routes reject missing and malformed credentials with 401
//   - update with the token merges fields
//   - delete with the token succeeds and the user is gone afterwards
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const maxReadBytes = 1 << 20 // 1MiB

type smokeClient struct {
	base    string
	http    *http.Client
	timeout time.Duration
	verbose bool
}

type smokeUser struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type smokeLogin struct {
	Token  string `json:"token"`
	UserID int64  `json:"userId"`
}

func main() {
	var (
		baseURL  = flag.String("url", "http://127.0.0.1:3000", "usersvc base URL")
		name     = flag.String("name", "Smoke", "Name of the throwaway user")
		password = flag.String("password", "smoke-pw-123", "Password of the throwaway user")
		timeout  = flag.Duration("timeout", 7*time.Second, "Per-step timeout")
		verbose  = flag.Bool("v", false, "Verbose output")
	)
	flag.Parse()

	if err := validateBaseURL(*baseURL); err != nil {
		fatalf("invalid -url: %v", err)
	}

	c := &smokeClient{
		base:    strings.TrimRight(*baseURL, "/"),
		http:    &http.Client{},
		timeout: *timeout,
		verbose: *verbose,
	}
	root := context.Background()

	email := fmt.Sprintf("smoke-%d@example.invalid", time.Now().UnixNano())

	u := mustRegister(root, c, *name, email, *password)
	tok := mustLogin(root, c, email, *password, u.ID)

	userPath := fmt.Sprintf("/users/%d", u.ID)
	for _, header := range []string{"", "bearer " + tok, "Bearer not.a.token"} {
		status, _ := c.do(root, http.MethodDelete, userPath, nil, header)
		if status != http.StatusUnauthorized {
			fatalf("delete with Authorization=%q: status=%d want=401", redact(header), status)
		}
	}

	mustRename(root, c, userPath, tok, *name+" (renamed)", email)

	status, body := c.do(root, http.MethodDelete, userPath, nil, "Bearer "+tok)
	if status != http.StatusOK {
		fatalf("delete: status=%d body=%s", status, body)
	}
	status, _ = c.do(root, http.MethodGet, userPath, nil, "")
	if status != http.StatusNotFound {
		fatalf("get after delete: status=%d want=404", status)
	}

	fmt.Printf("OK: user_id=%d email=%s\n", u.ID, email)
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	if strings.TrimSpace(u.Host) == "" {
		return errors.New("missing host")
	}
	return nil
}

func mustRegister(parent context.Context, c *smokeClient, name, email, password string) smokeUser {
	status, body := c.do(parent, http.MethodPost, "/users", map[string]string{
		"name": name, "email": email, "password": password,
	}, "")
	if status != http.StatusCreated {
		fatalf("register: status=%d body=%s", status, body)
	}

	var u smokeUser
	if err := json.Unmarshal(body, &u); err != nil {
		fatalf("unmarshal register response: %v", err)
	}
	if u.ID <= 0 {
		fatalf("register: invalid id %d", u.ID)
	}
	if u.Password == password || len(u.Password) < 40 {
		fatalf("register: password field is not a hash")
	}
	return u
}

func mustLogin(parent context.Context, c *smokeClient, email, password string, wantID int64) string {
	status, body := c.do(parent, http.MethodPost, "/login", map[string]string{
		"email": email, "password": password,
	}, "")
	if status != http.StatusCreated {
		fatalf("login: status=%d body=%s", status, body)
	}

	var lr smokeLogin
	if err := json.Unmarshal(body, &lr); err != nil {
		fatalf("unmarshal login response: %v", err)
	}
	if strings.Count(lr.Token, ".") != 2 {
		fatalf("login: token is not a three-segment JWT")
	}
	if lr.UserID != wantID {
		fatalf("login: userId mismatch: got=%d want=%d", lr.UserID, wantID)
	}
	return lr.Token
}

func mustRename(parent context.Context, c *smokeClient, path, tok, newName, wantEmail string) {
	status, body := c.do(parent, http.MethodPatch, path, map[string]string{"name": newName}, "Bearer "+tok)
	if status != http.StatusOK {
		fatalf("patch: status=%d body=%s", status, body)
	}

	var u smokeUser
	if err := json.Unmarshal(body, &u); err != nil {
		fatalf("unmarshal patch response: %v", err)
	}
	if u.Name != newName {
		fatalf("patch: name mismatch: got=%q want=%q", u.Name, newName)
	}
	if u.Email != wantEmail {
		fatalf("patch: email not preserved: got=%q want=%q", u.Email, wantEmail)
	}
}

func (c *smokeClient) do(parent context.Context, method, path string, body any, authorization string) (int, []byte) {
	ctx, cancel := context.WithTimeout(parent, c.timeout)
	defer cancel()

	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(mustJSON(body))
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rdr)
	if err != nil {
		fatalf("build %s %s: %v", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	res, err := c.http.Do(req)
	if err != nil {
		fatalf("%s %s: %v", method, path, err)
	}
	defer func() { _ = res.Body.Close() }()

	out, err := io.ReadAll(io.LimitReader(res.Body, maxReadBytes))
	if err != nil {
		fatalf("read %s %s: %v", method, path, err)
	}
	if c.verbose {
		fmt.Printf("%s %s -> %d request_id=%s\n", method, path, res.StatusCode, res.Header.Get("X-Request-Id"))
	}
	return res.StatusCode, out
}

func redact(header string) string {
	scheme, _, found := strings.Cut(header, " ")
	if !found {
		return header
	}
	return scheme + " <redacted>"
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "FAIL: "+format+"\n", args...)
	os.Exit(1)
}
