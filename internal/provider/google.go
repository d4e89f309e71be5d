package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody caps how much of an upstream error body ends up in an APIError.
const maxErrorBody = 512

// GoogleProvider talks to the Gemini generateContent REST endpoint directly.
type GoogleProvider struct {
	apiKey  string       // sent as x-goog-api-key, never in the URL
	baseURL string       // e.g. "https://generativelanguage.googleapis.com/v1beta"
	client  *http.Client // reusable HTTP client (manages connection pooling)
}

// NewGoogleProvider creates a GoogleProvider ready to make API calls.
// The *http.Client is injected so tests can swap in a replaying transport
// and main.go can tune timeouts and pooling.
func NewGoogleProvider(apiKey, baseURL string, client *http.Client) *GoogleProvider {
	return &GoogleProvider{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// Name returns the provider identifier.
func (g *GoogleProvider) Name() string {
	return "google"
}

// geminiRequest is the request body for generateContent. Only the response
// side is left untyped; what we send is fully under our control.
type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

// GenerateContent sends one user turn to {baseURL}/models/{model}:generateContent
// and decodes the reply into a generic Response tree.
func (g *GoogleProvider) GenerateContent(ctx context.Context, model, prompt string) (Response, error) {
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: prompt}},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, model)

	// The request is tied to ctx, so the per-attempt deadline set by the
	// caller aborts the HTTP call as well.
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)

	httpResp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending request to gemini: %w", err)
	}
	// Close the body or the connection can't go back to the pool.
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(httpResp.Body, maxErrorBody))
		return nil, &APIError{
			Provider:   g.Name(),
			Model:      model,
			StatusCode: httpResp.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
		}
	}

	// Decode into a map rather than a struct. Gemini has changed field
	// layouts between API versions, and the extractor downstream decides
	// what counts as usable text.
	var resp Response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decoding gemini response: %w", err)
	}
	return resp, nil
}
