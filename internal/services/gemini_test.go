package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/tunesmith/internal/shared"
)

type failingTransport struct{ err error }

func (f failingTransport) RoundTrip(*http.Request) (*http.Response, error) { return nil, f.err }

func newTestGemini(t *testing.T, handler http.HandlerFunc) *GeminiService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewGeminiService(shared.GeminiConfig{APIKey: "secret-key", BaseURL: server.URL}, server.Client())
}

func TestGeminiService(t *testing.T) {
	ctx := context.Background()

	t.Run("NewGeminiService", func(t *testing.T) {
		svc := NewGeminiService(shared.GeminiConfig{APIKey: " key "}, nil)
		if svc.Model() != DefaultGeminiModel {
			t.Errorf("expected default model, got %s", svc.Model())
		}
		if svc.baseURL != geminiBaseURL {
			t.Errorf("expected default base URL, got %s", svc.baseURL)
		}
		if !svc.Configured() {
			t.Error("expected service to be configured")
		}
		if svc.Name() != "Gemini" {
			t.Errorf("unexpected name %s", svc.Name())
		}
	})

	t.Run("GenerateContent", func(t *testing.T) {
		t.Run("posts prompt and returns first candidate text", func(t *testing.T) {
			svc := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST, got %s", r.Method)
				}
				if r.URL.Path != "/v1beta/models/gemini-2.5-flash:generateContent" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				if r.URL.Query().Get("key") != "secret-key" {
					t.Errorf("expected key query param")
				}

				var body generateRequest
				if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
					t.Fatalf("failed to decode body: %v", err)
				}
				if len(body.Contents) != 1 || len(body.Contents[0].Parts) != 1 || body.Contents[0].Parts[0].Text != "hello" {
					t.Errorf("unexpected payload %+v", body)
				}

				writeJSON(t, w, http.StatusOK, map[string]any{
					"candidates": []any{
						map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": "first"}}}},
						map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": "second"}}}},
					},
				})
			})

			text, err := svc.GenerateContent(ctx, "hello")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if text != "first" {
				t.Errorf("expected first candidate, got %q", text)
			}
		})

		t.Run("empty reply", func(t *testing.T) {
			tests := []struct {
				name string
				body string
			}{
				{"no candidates", `{"candidates":[]}`},
				{"no parts", `{"candidates":[{"content":{"parts":[]}}]}`},
				{"blank text", `{"candidates":[{"content":{"parts":[{"text":"  "}]}}]}`},
			}

			for _, tc := range tests {
				t.Run(tc.name, func(t *testing.T) {
					svc := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
						_, _ = w.Write([]byte(tc.body))
					})
					if _, err := svc.GenerateContent(ctx, "p"); !errors.Is(err, shared.ErrGenerationEmpty) {
						t.Errorf("expected ErrGenerationEmpty, got %v", err)
					}
				})
			}
		})

		t.Run("upstream error keeps message and hides key", func(t *testing.T) {
			svc := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(t, w, http.StatusBadRequest, map[string]any{
					"error": map[string]any{"code": 400, "message": "API key not valid. Please pass a valid API key."},
				})
			})

			_, err := svc.GenerateContent(ctx, "p")
			var upstream *shared.UpstreamRequestError
			if !errors.As(err, &upstream) {
				t.Fatalf("expected UpstreamRequestError, got %v", err)
			}
			if upstream.Message != "API key not valid. Please pass a valid API key." {
				t.Errorf("unexpected message %q", upstream.Message)
			}
			if strings.Contains(upstream.Path, "secret-key") || strings.Contains(err.Error(), "secret-key") {
				t.Errorf("API key leaked into error: %v", err)
			}
		})

		t.Run("upstream error without message", func(t *testing.T) {
			svc := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			})

			_, err := svc.GenerateContent(ctx, "p")
			if err == nil || err.Error() != "Request to Google API failed" {
				t.Errorf("expected fallback message, got %v", err)
			}
		})

		t.Run("transport error hides key", func(t *testing.T) {
			client := &http.Client{Transport: failingTransport{errors.New("connection refused")}}
			svc := NewGeminiService(shared.GeminiConfig{APIKey: "secret-key"}, client)

			_, err := svc.GenerateContent(ctx, "p")
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Fatalf("expected ErrAPIRequest, got %v", err)
			}
			if strings.Contains(err.Error(), "secret-key") {
				t.Errorf("API key leaked into error: %v", err)
			}
		})

		t.Run("missing key sends no request", func(t *testing.T) {
			client := &http.Client{Transport: failingTransport{errors.New("should not be called")}}
			svc := NewGeminiService(shared.GeminiConfig{}, client)

			if _, err := svc.GenerateContent(ctx, "p"); !errors.Is(err, shared.ErrUpstreamConfig) {
				t.Errorf("expected ErrUpstreamConfig, got %v", err)
			}
		})
	})

	t.Run("ListModels", func(t *testing.T) {
		t.Run("returns listing verbatim", func(t *testing.T) {
			svc := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet || r.URL.Path != "/v1/models" {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				_, _ = w.Write([]byte(`{"models":[{"name":"models/gemini-2.5-flash"}]}`))
			})

			raw, err := svc.ListModels(ctx)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if string(raw) != `{"models":[{"name":"models/gemini-2.5-flash"}]}` {
				t.Errorf("unexpected listing %s", raw)
			}
		})

		t.Run("upstream error", func(t *testing.T) {
			svc := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
			})

			_, err := svc.ListModels(ctx)
			if err == nil || err.Error() != "Failed to list models" {
				t.Errorf("expected fallback message, got %v", err)
			}
		})

		t.Run("invalid JSON", func(t *testing.T) {
			svc := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("<html>"))
			})
			if _, err := svc.ListModels(ctx); !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})
	})
}
