package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// GenAIProvider calls Gemini through the official Go SDK.
type GenAIProvider struct {
	client *genai.Client
}

// NewGenAIProvider builds an SDK client for the Gemini API backend.
//
// baseURL may carry an API version suffix ("/v1beta") to stay
// interchangeable with the REST adapter's setting; the SDK wants the host
// and version separately, so the suffix is split off here.
func NewGenAIProvider(ctx context.Context, apiKey, baseURL string, client *http.Client) (*GenAIProvider, error) {
	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: client,
	}
	if baseURL != "" {
		host, version := splitAPIVersion(baseURL)
		cfg.HTTPOptions.BaseURL = host
		if version != "" {
			cfg.HTTPOptions.APIVersion = version
		}
	}

	c, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &GenAIProvider{client: c}, nil
}

// Name returns the provider identifier.
func (p *GenAIProvider) Name() string {
	return "genai"
}

// GenerateContent runs a single-turn generation and flattens the SDK
// response back into a Response tree. The SDK's Text accessor is exposed as
// a top-level "text" field; the candidates stay in place underneath it.
func (p *GenAIProvider) GenerateContent(ctx context.Context, model, prompt string) (Response, error) {
	resp, err := p.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return nil, fmt.Errorf("genai generate content: %w", err)
	}
	if resp == nil {
		return Response{}, nil
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("encoding genai response: %w", err)
	}
	var tree Response
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("decoding genai response: %w", err)
	}
	if tree == nil {
		tree = Response{}
	}
	if text := resp.Text(); text != "" {
		tree["text"] = text
	}
	return tree, nil
}

// splitAPIVersion turns "https://host/v1beta" into ("https://host/", "v1beta").
// URLs without a trailing version segment are returned unchanged.
func splitAPIVersion(baseURL string) (string, string) {
	trimmed := strings.TrimRight(baseURL, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 {
		return baseURL, ""
	}
	last := trimmed[idx+1:]
	if !strings.HasPrefix(last, "v1") {
		return baseURL, ""
	}
	return trimmed[:idx+1], last
}
