package chat

import "strings"

// FallbackReply is returned whenever the provider path can't produce text
// and fake mode is off. It is identical for every call.
const FallbackReply = "Sorry, I'm having trouble responding right now. Please try again."

// echoPrefix marks stub replies produced in fake mode.
const echoPrefix = "Echo: "

// Capability holds the deployment facts that decide whether the provider
// may be called at all. It is resolved once at startup and never changes.
type Capability struct {
	CredentialPresent bool
	ClientAvailable   bool
	AllowFake         bool
}

// NewCapability derives a Capability from raw settings. A blank key counts
// as absent.
func NewCapability(apiKey string, clientAvailable, allowFake bool) Capability {
	return Capability{
		CredentialPresent: strings.TrimSpace(apiKey) != "",
		ClientAvailable:   clientAvailable,
		AllowFake:         allowFake,
	}
}

// Gated reports whether the provider path must be skipped.
func (c Capability) Gated() bool {
	return !c.CredentialPresent || !c.ClientAvailable
}

// ResolveFallback builds the locally produced reply: a deterministic echo
// in fake mode, the fixed apology otherwise.
func ResolveFallback(message string, allowFake bool) Reply {
	if allowFake {
		return Reply{
			Text:   echoPrefix + strings.TrimSpace(message),
			Source: SourceEcho,
		}
	}
	return Reply{Text: FallbackReply, Source: SourceFallback}
}
