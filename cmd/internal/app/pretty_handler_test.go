package app

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestStripANSI(t *testing.T) {
	t.Parallel()

	in := ansiBlue + "INFO" + ansiReset + " plain " + ansiRed + "ERR" + ansiReset
	got := stripANSI(in)
	want := "INFO plain ERR"
	if got != want {
		t.Fatalf("stripANSI()=%q want=%q", got, want)
	}
	if visualLen(in) != len(want) {
		t.Fatalf("visualLen()=%d want=%d", visualLen(in), len(want))
	}
}

func TestPrettyHandler_RequestLine(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(newPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}, false))

	log.Warn("http.request",
		"method", "delete",
		"path", "/users/1",
		"status", 401,
		"status_class", "4xx",
		"duration_ms", int64(3),
		"result", "client_error",
		"user_agent", "curl/8.0 test",
	)

	out := buf.String()
	for _, want := range []string{
		"lvl=[WARN]",
		"msg=http.request",
		"method=DELETE",
		"path=/users/1",
		"status=401",
		"class=4xx",
		"duration=3ms",
		"result=client_error",
		`user_agent="curl/8.0 test"`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("color disabled but output has escapes: %q", out)
	}
}

func TestPrettyHandler_ColorAndGroups(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := newPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}, true)
	log := slog.New(h).With("component", "store").WithGroup("db")

	log.Error("db.ping.fail", "err", errors.New("dial tcp: refused"))

	out := buf.String()
	if !strings.Contains(out, ansiRed+"[ERROR]"+ansiReset) {
		t.Fatalf("expected colored level tag in %q", out)
	}
	plain := stripANSI(out)
	if !strings.Contains(plain, "component=store") {
		t.Fatalf("missing pre-group attr in %q", plain)
	}
	if !strings.Contains(plain, `db.err="dial tcp: refused"`) {
		t.Fatalf("missing grouped attr in %q", plain)
	}
}

func TestPrettyHandler_Enabled(t *testing.T) {
	t.Parallel()

	h := newPrettyHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn}, false)
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatalf("info must be disabled at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Fatalf("error must be enabled at warn level")
	}
}
