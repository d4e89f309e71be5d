// Package chat resolves a user message into a reply.
//
// The flow for one request is:
//
//	Validate → Capability gate → (fallback if gated)
//	         → candidate models in order, first usable text wins
//	         → fallback if every candidate failed
//
// Provider-side failures never escape this package. The only error Reply
// returns is a *ValidationError for malformed input.
package chat

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"

	"github.com/howard-nolan/chatrelay/internal/metrics"
	"github.com/howard-nolan/chatrelay/internal/provider"
)

const (
	// MaxReplyLength caps provider replies, in characters.
	MaxReplyLength = 2000

	// DefaultAttemptTimeout bounds a single candidate attempt.
	DefaultAttemptTimeout = 15 * time.Second

	promptTemplate = "Provide a concise helpful reply to the user message:\n\n%s"
)

// Source says which path produced a reply. It is for logs and metrics only;
// clients just see the text.
type Source string

const (
	SourceProvider Source = "provider"
	SourceEcho     Source = "echo"
	SourceFallback Source = "fallback"
)

// Reply is the resolved answer for one message.
type Reply struct {
	Text   string
	Source Source
	Model  string // candidate that produced the text; empty for local replies
}

// Options configures a Service.
type Options struct {
	Models         []string // tried in order, never reordered
	AttemptTimeout time.Duration
	Capability     Capability
}

// Service resolves chat replies. It is safe for concurrent use: all fields
// are read-only after construction.
type Service struct {
	provider   provider.Provider
	models     []string
	timeout    time.Duration
	capability Capability
	metrics    *metrics.Metrics
}

// NewService wires a Service. A nil provider marks the client capability
// as unavailable regardless of opts.
func NewService(p provider.Provider, opts Options, m *metrics.Metrics) *Service {
	timeout := opts.AttemptTimeout
	if timeout <= 0 {
		timeout = DefaultAttemptTimeout
	}
	capability := opts.Capability
	if p == nil {
		capability.ClientAvailable = false
	}
	return &Service{
		provider:   p,
		models:     append([]string(nil), opts.Models...),
		timeout:    timeout,
		capability: capability,
		metrics:    m,
	}
}

// Capability returns the gate facts the service was built with.
func (s *Service) Capability() Capability {
	return s.capability
}

// Reply validates message and resolves a reply for it.
func (s *Service) Reply(ctx context.Context, message string) (reply Reply, err error) {
	if err := Validate(message); err != nil {
		s.metrics.ObserveInvalidRequest()
		return Reply{}, err
	}

	log := zerolog.Ctx(ctx)

	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("panic", fmt.Sprint(r)).
				Bytes("stack", debug.Stack()).
				Msg("chat: unexpected failure, using fallback")
			reply, err = ResolveFallback(message, s.capability.AllowFake), nil
		}
		if err == nil {
			s.metrics.ObserveReply(string(reply.Source))
		}
	}()

	log.Debug().
		Bool("credential_present", s.capability.CredentialPresent).
		Bool("client_available", s.capability.ClientAvailable).
		Bool("allow_fake", s.capability.AllowFake).
		Msg("chat: provider capability")

	if s.capability.Gated() {
		return ResolveFallback(message, s.capability.AllowFake), nil
	}
	return s.invoke(ctx, message), nil
}

// invoke walks the candidate models in order and stops at the first one
// that yields text. It always returns a reply.
func (s *Service) invoke(ctx context.Context, message string) Reply {
	log := zerolog.Ctx(ctx)
	prompt := fmt.Sprintf(promptTemplate, message)

	for i, model := range s.models {
		out := s.attempt(ctx, model, prompt)

		switch out.kind {
		case outcomeSuccess:
			log.Info().Str("model", model).Int("attempt", i+1).Msg("chat: provider replied")
			return Reply{Text: out.text, Source: SourceProvider, Model: model}
		case outcomeEmpty:
			log.Warn().Str("model", model).Int("attempt", i+1).Msg("chat: model returned empty response")
		case outcomeError:
			log.Warn().
				Str("model", model).
				Int("attempt", i+1).
				Str("error_type", string(provider.Classify(out.err))).
				Err(out.err).
				Msg("chat: model attempt failed")
		}
	}

	log.Warn().Int("candidates", len(s.models)).Msg("chat: all candidate models failed, using fallback")
	return ResolveFallback(message, s.capability.AllowFake)
}

type outcomeKind int

const (
	outcomeSuccess outcomeKind = iota
	outcomeEmpty
	outcomeError
)

func (k outcomeKind) String() string {
	switch k {
	case outcomeSuccess:
		return "success"
	case outcomeEmpty:
		return "empty"
	default:
		return "error"
	}
}

// attemptOutcome is the result of one candidate attempt.
type attemptOutcome struct {
	kind outcomeKind
	text string
	err  error
}

// attempt runs one candidate under its own deadline and classifies the result.
func (s *Service) attempt(ctx context.Context, model, prompt string) attemptOutcome {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	resp, err := s.call(ctx, model, prompt)

	var out attemptOutcome
	if err != nil {
		out = attemptOutcome{kind: outcomeError, err: err}
	} else if text, ok := Extract(resp); ok {
		out = attemptOutcome{kind: outcomeSuccess, text: truncate(text, MaxReplyLength)}
	} else {
		out = attemptOutcome{kind: outcomeEmpty}
	}

	s.metrics.ObserveAttempt(model, out.kind.String(), time.Since(start))
	return out
}

// call invokes the provider but returns as soon as ctx expires, even if the
// provider ignores its context. A panicking provider counts as a failed
// attempt.
func (s *Service) call(ctx context.Context, model, prompt string) (provider.Response, error) {
	type result struct {
		resp provider.Response
		err  error
	}
	// Buffered so the goroutine can always finish after we stop listening.
	ch := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- result{err: fmt.Errorf("provider panic: %v", r)}
			}
		}()
		resp, err := s.provider.GenerateContent(ctx, model, prompt)
		ch <- result{resp: resp, err: err}
	}()

	select {
	case res := <-ch:
		return res.resp, res.err
	case <-ctx.Done():
		return nil, fmt.Errorf("model %q: %w", model, ctx.Err())
	}
}
