package shared

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

func TestLogger(t *testing.T) {
	t.Run("writes to provided writer", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		WithLogger(logger, "component", "test").Info("hello")

		out := buf.String()
		if !strings.Contains(out, "hello") || !strings.Contains(out, "component=test") {
			t.Errorf("unexpected log output %q", out)
		}
	})

	t.Run("SetLogLevel filters", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		SetLogLevel(logger, log.WarnLevel)
		logger.Info("quiet")

		if buf.Len() != 0 {
			t.Errorf("expected info to be filtered, got %q", buf.String())
		}
	})

	t.Run("NewFileLogger creates parent directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "tui.log")
		if _, err := NewFileLogger(path); err != nil {
			t.Fatalf("expected file logger, got %v", err)
		}
	})
}

func TestGenerateID(t *testing.T) {
	id := GenerateID()
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("expected valid uuid, got %q: %v", id, err)
	}
	if id == GenerateID() {
		t.Error("expected unique ids")
	}
}

func TestBrowserCommand(t *testing.T) {
	tc := []struct {
		goos    string
		want    string
		wantErr bool
	}{
		{goos: "darwin", want: "open"},
		{goos: "linux", want: "xdg-open"},
		{goos: "windows", want: "rundll32"},
		{goos: "plan9", wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.goos, func(t *testing.T) {
			cmd, err := browserCommand(tt.goos, "https://example.com")
			if tt.wantErr {
				if err == nil {
					t.Error("expected error for unsupported platform")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if filepath.Base(cmd.Path) != tt.want && cmd.Args[0] != tt.want {
				t.Errorf("expected %s, got %v", tt.want, cmd.Args)
			}
			if cmd.Args[len(cmd.Args)-1] != "https://example.com" {
				t.Errorf("expected url as last argument, got %v", cmd.Args)
			}
		})
	}
}

func TestUpstreamRequestError(t *testing.T) {
	t.Run("uses upstream message verbatim", func(t *testing.T) {
		err := &UpstreamRequestError{Service: "gemini", Path: "/v1/models", StatusCode: 400, Message: "API key not valid."}
		if err.Error() != "API key not valid." {
			t.Errorf("unexpected message %q", err.Error())
		}
	})

	t.Run("falls back to status and path", func(t *testing.T) {
		err := &UpstreamRequestError{Service: "spotify", Path: "/me", StatusCode: 503}
		if !strings.Contains(err.Error(), "/me") || !strings.Contains(err.Error(), "503") {
			t.Errorf("expected path and status in %q", err.Error())
		}
	})

	t.Run("unwraps to sentinel", func(t *testing.T) {
		var err error = fmt.Errorf("wrapped: %w", &UpstreamRequestError{Path: "/me"})
		if !errors.Is(err, ErrUpstreamRequest) {
			t.Error("expected errors.Is to match ErrUpstreamRequest")
		}
		var target *UpstreamRequestError
		if !errors.As(err, &target) || target.Path != "/me" {
			t.Error("expected errors.As to recover the path")
		}
	})

	t.Run("IsAuthError", func(t *testing.T) {
		if !IsAuthError(fmt.Errorf("%w: /me", ErrTokenExpired)) {
			t.Error("expected token expired to be an auth error")
		}
		if IsAuthError(ErrUpstreamRequest) {
			t.Error("upstream failure is not an auth error")
		}
	})
}
