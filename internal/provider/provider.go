// Package provider defines the Provider interface and the Gemini adapters
// that sit behind it.
//
// The chat core never sees a provider-specific struct. Every adapter hands
// back a Response, which is just the decoded JSON tree of whatever the
// upstream returned. Its shape is treated as untrusted: the core probes it
// step by step instead of assuming a fixed layout.
package provider

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Provider is the interface that every generative model backend must satisfy.
type Provider interface {
	// Name returns the provider identifier, e.g. "google" or "genai".
	// Used for logging and metrics labels.
	Name() string

	// GenerateContent submits a single prompt to the named model and
	// returns the raw response tree. The caller owns the deadline: ctx is
	// expected to carry the per-attempt timeout.
	GenerateContent(ctx context.Context, model, prompt string) (Response, error)
}

// Response is a decoded provider payload. Depending on the adapter it may
// carry a top-level "text" field, a "candidates" list, both, or neither.
type Response map[string]any

// Settings is the subset of configuration needed to build a provider.
type Settings struct {
	Client  string // "rest" or "genai"
	APIKey  string
	BaseURL string
}

// Factory builds a Provider from settings. Construction must not make
// network calls; it only wires credentials and transport together.
type Factory func(ctx context.Context, s Settings, client *http.Client) (Provider, error)

// constructors maps client names (from config) to the function that builds
// them. Adding a backend means adding an entry here.
var constructors = map[string]Factory{
	"rest": func(_ context.Context, s Settings, client *http.Client) (Provider, error) {
		return NewGoogleProvider(s.APIKey, s.BaseURL, client), nil
	},
	"genai": func(ctx context.Context, s Settings, client *http.Client) (Provider, error) {
		return NewGenAIProvider(ctx, s.APIKey, s.BaseURL, client)
	},
}

// Clients lists the recognised client names in stable order.
func Clients() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the provider named by s.Client. An error here means the
// provider capability is unavailable in this process.
func New(ctx context.Context, s Settings, client *http.Client) (Provider, error) {
	factory, ok := constructors[strings.ToLower(strings.TrimSpace(s.Client))]
	if !ok {
		return nil, fmt.Errorf("unknown provider client %q (want one of %s)",
			s.Client, strings.Join(Clients(), ", "))
	}
	if client == nil {
		client = http.DefaultClient
	}
	return factory(ctx, s, client)
}
