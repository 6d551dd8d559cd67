// Package provider defines the uniform capability contract that every AI
// vendor adapter must satisfy, together with the value types exchanged
// through it: conversation messages, per-call options, and the standardized
// [Response].
//
// Adapters wrap one vendor SDK each (e.g., OpenAI, Google Gemini) and expose
// the same four operations. Operations never return a Go error and never
// panic for vendor faults: every failure, whether a vendor error body, a
// transport fault, or an unrecognised payload shape, is converted into a
// failure [Response] before it crosses the adapter boundary.
//
// Implementors must be safe for concurrent use; adapters hold no mutable
// state beyond the API key and the vendor client handle.
package provider

import "context"

// Message represents a single turn in a conversation history.
type Message struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the text content of the message.
	Content string
}

// Options carries per-call settings for any operation. The zero value asks
// the adapter for its defaults.
type Options struct {
	// Provider overrides the configured default provider. It is consumed by
	// the dispatching client and is never seen by adapters.
	Provider string

	// Model overrides the adapter's default model for the operation.
	Model string

	// MaxTokens caps the number of tokens the model may generate.
	// Zero means use the provider default.
	MaxTokens int

	// Temperature controls output randomness. Zero means provider default.
	Temperature float64

	// Extra holds vendor-specific keys forwarded verbatim where the vendor
	// request shape allows it. Adapters ignore keys their SDK cannot express.
	Extra map[string]any
}

// Provider is the capability contract for a single AI vendor.
//
// All four operations return a [Response] and only a Response: adapters
// convert every fault into a failure Response rather than surfacing errors
// or panicking. Construction, by contrast, fails fast with a Go error on
// programmer misuse such as a missing API key.
type Provider interface {
	// Chat sends a conversation history to the vendor's chat endpoint and
	// returns the assistant's reply.
	Chat(ctx context.Context, messages []Message, opts Options) *Response

	// GenerateText produces a completion for a single prompt. Adapters that
	// distinguish chat-class from legacy completion models route accordingly.
	GenerateText(ctx context.Context, prompt string, opts Options) *Response

	// Embed converts text into an embedding vector.
	Embed(ctx context.Context, text string, opts Options) *Response

	// GenerateImage is part of the contract but unimplemented by every
	// current adapter; calling it yields a not-implemented failure Response.
	GenerateImage(ctx context.Context, prompt string, opts Options) *Response

	// Name returns the provider's identifier string (e.g., "openai").
	Name() string
}

// Ptr returns a pointer to v. Convenience for optional token counts.
func Ptr[T any](v T) *T {
	return &v
}
