// Gemini generative-text client
//
// See https://ai.google.dev/api/generate-content
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/tunesmith/internal/shared"
)

const (
	geminiBaseURL      = "https://generativelanguage.googleapis.com"
	DefaultGeminiModel = "gemini-2.5-flash"
)

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type generateRequest struct {
	Contents []geminiContent `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// text returns the first part of the first candidate, or "" when there is none.
func (r generateResponse) text() string {
	if len(r.Candidates) == 0 || len(r.Candidates[0].Content.Parts) == 0 {
		return ""
	}
	return r.Candidates[0].Content.Parts[0].Text
}

// GeminiService calls the Gemini REST API with an API key.
//
// The key travels as a query parameter, so it is kept out of every error this client returns.
type GeminiService struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewGeminiService creates a client from cfg. Empty model and base URL select the defaults; a nil client uses [http.DefaultClient].
func NewGeminiService(cfg shared.GeminiConfig, client *http.Client) *GeminiService {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultGeminiModel
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = geminiBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &GeminiService{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		model:      model,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

func (g *GeminiService) Name() string {
	return "Gemini"
}

// Model returns the model used by [GeminiService.GenerateContent].
func (g *GeminiService) Model() string {
	return g.model
}

// Configured reports whether an API key is set.
func (g *GeminiService) Configured() bool {
	return g.apiKey != ""
}

func (g *GeminiService) doRequest(ctx context.Context, method, endpoint string, body any, fallback string) ([]byte, error) {
	if !g.Configured() {
		return nil, fmt.Errorf("%w: Gemini API key not configured", shared.ErrUpstreamConfig)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	apiURL := g.baseURL + endpoint + "?key=" + url.QueryEscape(g.apiKey)
	req, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s", endpoint)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, fmt.Errorf("%w: %s %s: %v", shared.ErrAPIRequest, method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := upstreamMessage(resp.Body)
		if msg == "" {
			msg = fallback
		}
		return nil, &shared.UpstreamRequestError{
			Service:    g.Name(),
			Path:       endpoint,
			StatusCode: resp.StatusCode,
			Message:    msg,
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", endpoint, err)
	}
	return data, nil
}

// GenerateContent sends prompt as a single text part and returns the first candidate's text.
//
// It returns [shared.ErrGenerationEmpty] when the reply carries no text.
func (g *GeminiService) GenerateContent(ctx context.Context, prompt string) (string, error) {
	payload := generateRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	}

	endpoint := fmt.Sprintf("/v1beta/models/%s:generateContent", url.PathEscape(g.model))
	data, err := g.doRequest(ctx, http.MethodPost, endpoint, payload, "Request to Google API failed")
	if err != nil {
		return "", err
	}

	var result generateResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	text := result.text()
	if strings.TrimSpace(text) == "" {
		return "", shared.ErrGenerationEmpty
	}
	return text, nil
}

// ListModels returns the model listing of the v1 API as received.
func (g *GeminiService) ListModels(ctx context.Context) (json.RawMessage, error) {
	data, err := g.doRequest(ctx, http.MethodGet, "/v1/models", nil, "Failed to list models")
	if err != nil {
		return nil, err
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: model listing is not valid JSON", shared.ErrAPIRequest)
	}
	return json.RawMessage(data), nil
}
