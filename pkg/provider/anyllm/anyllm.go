// Package anyllm provides Provider adapters for the long tail of vendors
// reachable through github.com/mozilla-ai/any-llm-go: Anthropic, Ollama,
// DeepSeek, Mistral, and Groq. Chat and text generation are supported;
// embeddings and image generation are not part of the wrapped surface and
// yield failure Responses.
package anyllm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/mozilla-ai/any-llm-go/providers/anthropic"
	"github.com/mozilla-ai/any-llm-go/providers/deepseek"
	"github.com/mozilla-ai/any-llm-go/providers/groq"
	"github.com/mozilla-ai/any-llm-go/providers/mistral"
	"github.com/mozilla-ai/any-llm-go/providers/ollama"

	"github.com/dautroc/synapse-ai/pkg/provider"
)

// SupportedProviders lists the provider names this package can back.
var SupportedProviders = []string{"anthropic", "ollama", "deepseek", "mistral", "groq"}

// defaultModels maps each supported provider to the model used when the
// caller does not pick one.
var defaultModels = map[string]string{
	"anthropic": "claude-3-5-sonnet-latest",
	"ollama":    "llama3.2",
	"deepseek":  "deepseek-chat",
	"mistral":   "mistral-small-latest",
	"groq":      "llama-3.3-70b-versatile",
}

// Ensure Adapter implements the provider interface.
var _ provider.Provider = (*Adapter)(nil)

// Adapter implements provider.Provider by wrapping an any-llm-go backend.
type Adapter struct {
	backend anyllmlib.Provider
	name    string
}

// New creates an Adapter for the given provider name. opts are any-llm-go
// configuration options (e.g., anyllmlib.WithAPIKey, anyllmlib.WithBaseURL);
// without an API key option the backend falls back to the provider's
// environment variable.
func New(providerName string, opts ...anyllmlib.Option) (*Adapter, error) {
	if providerName == "" {
		return nil, fmt.Errorf("anyllm: providerName must not be empty")
	}

	backend, err := createBackend(providerName, opts...)
	if err != nil {
		return nil, fmt.Errorf("anyllm: create %q backend: %w", providerName, err)
	}
	return &Adapter{backend: backend, name: strings.ToLower(providerName)}, nil
}

// createBackend creates the underlying any-llm-go provider.
func createBackend(providerName string, opts ...anyllmlib.Option) (anyllmlib.Provider, error) {
	switch strings.ToLower(providerName) {
	case "anthropic":
		return anthropic.New(opts...)
	case "ollama":
		return ollama.New(opts...)
	case "deepseek":
		return deepseek.New(opts...)
	case "mistral":
		return mistral.New(opts...)
	case "groq":
		return groq.New(opts...)
	default:
		return nil, fmt.Errorf("unsupported provider %q; supported: %s",
			providerName, strings.Join(SupportedProviders, ", "))
	}
}

// Name implements provider.Provider.
func (a *Adapter) Name() string {
	return a.name
}

// Chat implements provider.Provider.
func (a *Adapter) Chat(ctx context.Context, messages []provider.Message, opts provider.Options) *provider.Response {
	resp, err := a.backend.Completion(ctx, a.buildParams(messages, opts))
	if err != nil {
		return provider.NewFailure(a.name+" error: "+err.Error(), nil)
	}
	if len(resp.Choices) == 0 {
		return provider.NewFailure(a.name+" returned a malformed response: no choices", rawJSON(resp))
	}

	var usage *provider.TokenUsage
	if resp.Usage != nil {
		usage = &provider.TokenUsage{
			PromptTokens:     provider.Ptr(int64(resp.Usage.PromptTokens)),
			CompletionTokens: provider.Ptr(int64(resp.Usage.CompletionTokens)),
			TotalTokens:      provider.Ptr(int64(resp.Usage.TotalTokens)),
		}
	}
	return provider.NewTextResponse(resp.Choices[0].Message.ContentString(), usage, rawJSON(resp))
}

// GenerateText implements provider.Provider by delegating to Chat.
func (a *Adapter) GenerateText(ctx context.Context, prompt string, opts provider.Options) *provider.Response {
	return a.Chat(ctx, []provider.Message{{Role: "user", Content: prompt}}, opts)
}

// Embed implements provider.Provider. The wrapped surface has no embeddings
// call, so this is always a failure.
func (a *Adapter) Embed(ctx context.Context, text string, opts provider.Options) *provider.Response {
	return provider.NewFailure(fmt.Sprintf("provider %q does not support embeddings", a.name), nil)
}

// GenerateImage implements provider.Provider.
func (a *Adapter) GenerateImage(ctx context.Context, prompt string, opts provider.Options) *provider.Response {
	return provider.NewFailureFromError(provider.ErrNotImplemented)
}

// buildParams converts uniform messages and options into any-llm params.
func (a *Adapter) buildParams(messages []provider.Message, opts provider.Options) anyllmlib.CompletionParams {
	model := opts.Model
	if model == "" {
		model = defaultModels[a.name]
	}

	msgs := make([]anyllmlib.Message, 0, len(messages))
	for _, m := range messages {
		msgs = append(msgs, anyllmlib.Message{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	params := anyllmlib.CompletionParams{
		Model:    model,
		Messages: msgs,
	}
	if opts.Temperature != 0 {
		t := opts.Temperature
		params.Temperature = &t
	}
	if opts.MaxTokens > 0 {
		mt := opts.MaxTokens
		params.MaxTokens = &mt
	}
	return params
}

// rawJSON marshals the backend response for opaque passthrough.
func rawJSON(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}
