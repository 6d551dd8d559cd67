// Package mock provides a test double for the provider.Provider interface.
//
// Use Provider in unit tests to feed controlled Responses without a live
// vendor backend and to verify the arguments the dispatcher forwards.
// All fields are safe to set before calling any method; mutating them during
// a concurrent call is the caller's responsibility.
//
// Example:
//
//	p := &mock.Provider{
//	    ChatResponse: provider.NewTextResponse("Hello!", nil, nil),
//	}
//	resp := p.Chat(ctx, msgs, provider.Options{})
package mock

import (
	"context"
	"sync"

	"github.com/dautroc/synapse-ai/pkg/provider"
)

// ChatCall records a single invocation of Chat.
type ChatCall struct {
	// Messages is the conversation passed to Chat.
	Messages []provider.Message
	// Opts is the Options value passed to Chat.
	Opts provider.Options
}

// TextCall records a single invocation of GenerateText or GenerateImage.
type TextCall struct {
	// Prompt is the prompt passed to the operation.
	Prompt string
	// Opts is the Options value passed to the operation.
	Opts provider.Options
}

// EmbedCall records a single invocation of Embed.
type EmbedCall struct {
	// Text is the input passed to Embed.
	Text string
	// Opts is the Options value passed to Embed.
	Opts provider.Options
}

// Provider is a mock implementation of provider.Provider.
// Nil response fields fall back to a generic success; set the Fn fields to
// script behavior per call (including panics, for backstop tests).
type Provider struct {
	mu sync.Mutex

	// NameValue is returned by Name. Defaults to "mock".
	NameValue string

	// --- Configurable responses ---

	// ChatResponse is returned by Chat when ChatFn is nil.
	ChatResponse *provider.Response

	// GenerateTextResponse is returned by GenerateText when nil Fn.
	GenerateTextResponse *provider.Response

	// EmbedResponse is returned by Embed when nil Fn.
	EmbedResponse *provider.Response

	// GenerateImageResponse is returned by GenerateImage when nil Fn.
	GenerateImageResponse *provider.Response

	// ChatFn, when set, handles Chat calls entirely.
	ChatFn func(ctx context.Context, messages []provider.Message, opts provider.Options) *provider.Response

	// GenerateTextFn, when set, handles GenerateText calls entirely.
	GenerateTextFn func(ctx context.Context, prompt string, opts provider.Options) *provider.Response

	// EmbedFn, when set, handles Embed calls entirely.
	EmbedFn func(ctx context.Context, text string, opts provider.Options) *provider.Response

	// --- Call records (read after test) ---

	// ChatCalls records every invocation of Chat in order.
	ChatCalls []ChatCall

	// GenerateTextCalls records every invocation of GenerateText in order.
	GenerateTextCalls []TextCall

	// EmbedCalls records every invocation of Embed in order.
	EmbedCalls []EmbedCall

	// GenerateImageCalls records every invocation of GenerateImage in order.
	GenerateImageCalls []TextCall
}

// Chat records the call and returns the scripted response.
func (p *Provider) Chat(ctx context.Context, messages []provider.Message, opts provider.Options) *provider.Response {
	p.mu.Lock()
	p.ChatCalls = append(p.ChatCalls, ChatCall{Messages: messages, Opts: opts})
	fn, resp := p.ChatFn, p.ChatResponse
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, messages, opts)
	}
	return orDefault(resp)
}

// GenerateText records the call and returns the scripted response.
func (p *Provider) GenerateText(ctx context.Context, prompt string, opts provider.Options) *provider.Response {
	p.mu.Lock()
	p.GenerateTextCalls = append(p.GenerateTextCalls, TextCall{Prompt: prompt, Opts: opts})
	fn, resp := p.GenerateTextFn, p.GenerateTextResponse
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, prompt, opts)
	}
	return orDefault(resp)
}

// Embed records the call and returns the scripted response.
func (p *Provider) Embed(ctx context.Context, text string, opts provider.Options) *provider.Response {
	p.mu.Lock()
	p.EmbedCalls = append(p.EmbedCalls, EmbedCall{Text: text, Opts: opts})
	fn, resp := p.EmbedFn, p.EmbedResponse
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, text, opts)
	}
	return orDefault(resp)
}

// GenerateImage records the call and returns the scripted response.
func (p *Provider) GenerateImage(ctx context.Context, prompt string, opts provider.Options) *provider.Response {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.GenerateImageCalls = append(p.GenerateImageCalls, TextCall{Prompt: prompt, Opts: opts})
	return orDefault(p.GenerateImageResponse)
}

// Name returns NameValue, defaulting to "mock".
func (p *Provider) Name() string {
	if p.NameValue == "" {
		return "mock"
	}
	return p.NameValue
}

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ChatCalls = nil
	p.GenerateTextCalls = nil
	p.EmbedCalls = nil
	p.GenerateImageCalls = nil
}

func orDefault(r *provider.Response) *provider.Response {
	if r == nil {
		return provider.NewTextResponse("", nil, nil)
	}
	return r
}

// Ensure Provider implements provider.Provider at compile time.
var _ provider.Provider = (*Provider)(nil)
