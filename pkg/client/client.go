// Package client is the entry point of the module: a provider-agnostic
// facade that routes chat, text generation, embedding, and image calls to
// the configured adapter and always hands back a uniform Response.
//
// Operations never return a Go error. Resolution failures, vendor errors,
// and even adapter panics all surface as failure Responses, so callers can
// branch on Response.Success alone.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/dautroc/synapse-ai/internal/config"
	"github.com/dautroc/synapse-ai/internal/observe"
	"github.com/dautroc/synapse-ai/pkg/provider"
	"github.com/dautroc/synapse-ai/pkg/provider/anyllm"
	"github.com/dautroc/synapse-ai/pkg/provider/gemini"
	"github.com/dautroc/synapse-ai/pkg/provider/openai"
)

// Factory constructs a provider adapter on first use. Construction errors
// are remembered per call site as failure Responses, not cached, so a later
// call can succeed once the underlying problem (say, a missing key) is fixed.
type Factory func(ctx context.Context) (provider.Provider, error)

// Client routes calls to provider adapters by name.
// Safe for concurrent use.
type Client struct {
	cfg     *config.Config
	metrics *observe.Metrics
	logger  *slog.Logger

	mu        sync.Mutex
	factories map[string]Factory
	providers map[string]provider.Provider
}

// Option configures the Client.
type Option func(*Client)

// WithLogger sets the logger used for call diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithMetrics overrides the instrument set, e.g. to bind a test meter.
func WithMetrics(m *observe.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New creates a Client with factories registered for every built-in
// provider. Adapters are constructed lazily on first use, so a missing API
// key for a provider that is never called costs nothing.
func New(cfg *config.Config, opts ...Option) *Client {
	if cfg == nil {
		cfg = config.Default()
	}

	c := &Client{
		cfg:       cfg,
		metrics:   observe.DefaultMetrics(),
		logger:    slog.Default(),
		factories: make(map[string]Factory),
		providers: make(map[string]provider.Provider),
	}
	for _, o := range opts {
		o(c)
	}
	c.registerBuiltins()
	return c
}

// Register adds or replaces the factory for name. Use it to plug in custom
// providers; calls naming them route like any built-in.
func (c *Client) Register(name string, f Factory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.factories[strings.ToLower(name)] = f
	delete(c.providers, strings.ToLower(name))
}

func (c *Client) registerBuiltins() {
	cfg := c.cfg

	c.factories[config.ProviderOpenAI] = func(ctx context.Context) (provider.Provider, error) {
		var opts []openai.Option
		if cfg.OpenAIBaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.OpenAIBaseURL))
		}
		return openai.New(cfg.OpenAIAPIKey, opts...)
	}

	geminiFactory := func(ctx context.Context) (provider.Provider, error) {
		var opts []gemini.Option
		if cfg.GeminiBaseURL != "" {
			opts = append(opts, gemini.WithBaseURL(cfg.GeminiBaseURL))
		}
		opts = append(opts, gemini.WithHTTPClient(&http.Client{Timeout: cfg.Timeout()}))
		return gemini.New(ctx, cfg.GoogleGeminiAPIKey, opts...)
	}
	c.factories[config.ProviderGoogleGemini] = geminiFactory
	c.factories["gemini"] = geminiFactory

	for _, name := range anyllm.SupportedProviders {
		c.factories[name] = func(ctx context.Context) (provider.Provider, error) {
			var opts []anyllmlib.Option
			if key := cfg.ProviderAPIKeys[name]; key != "" {
				opts = append(opts, anyllmlib.WithAPIKey(key))
			}
			return anyllm.New(name, opts...)
		}
	}
}

// Resolve returns the adapter for name, constructing it on first use.
// An empty name resolves to the configured default provider. Unknown names
// and failed constructions come back as a *provider.ConfigError.
func (c *Client) Resolve(ctx context.Context, name string) (provider.Provider, error) {
	if name == "" {
		name = c.cfg.Provider
	}
	name = strings.ToLower(name)

	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.providers[name]; ok {
		return p, nil
	}
	f, ok := c.factories[name]
	if !ok {
		return nil, &provider.ConfigError{
			Provider: name,
			Err:      fmt.Errorf("unknown provider %q", name),
		}
	}

	p, err := f(ctx)
	if err != nil {
		return nil, &provider.ConfigError{Provider: name, Err: err}
	}
	c.providers[name] = p
	return p, nil
}

// Chat sends a conversation to the selected provider.
func (c *Client) Chat(ctx context.Context, messages []provider.Message, opts provider.Options) *provider.Response {
	return c.do(ctx, "chat", opts, func(ctx context.Context, p provider.Provider) *provider.Response {
		return p.Chat(ctx, messages, opts)
	})
}

// GenerateText sends a single prompt to the selected provider.
func (c *Client) GenerateText(ctx context.Context, prompt string, opts provider.Options) *provider.Response {
	return c.do(ctx, "generate_text", opts, func(ctx context.Context, p provider.Provider) *provider.Response {
		return p.GenerateText(ctx, prompt, opts)
	})
}

// Embed computes an embedding vector for text via the selected provider.
func (c *Client) Embed(ctx context.Context, text string, opts provider.Options) *provider.Response {
	return c.do(ctx, "embed", opts, func(ctx context.Context, p provider.Provider) *provider.Response {
		return p.Embed(ctx, text, opts)
	})
}

// GenerateImage requests an image from the selected provider. No built-in
// adapter implements it yet, so this fails unless a custom provider does.
func (c *Client) GenerateImage(ctx context.Context, prompt string, opts provider.Options) *provider.Response {
	return c.do(ctx, "generate_image", opts, func(ctx context.Context, p provider.Provider) *provider.Response {
		return p.GenerateImage(ctx, prompt, opts)
	})
}

// do resolves the provider, bounds the call with the configured timeout,
// and records metrics. A panicking adapter is converted into a failure
// Response rather than crashing the caller.
func (c *Client) do(ctx context.Context, op string, opts provider.Options, fn func(context.Context, provider.Provider) *provider.Response) (resp *provider.Response) {
	providerName := opts.Provider
	if providerName == "" {
		providerName = c.cfg.Provider
	}
	providerName = strings.ToLower(providerName)

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("provider panicked", "provider", providerName, "op", op, "panic", r)
			resp = provider.NewFailure(fmt.Sprintf("%s provider panicked: %v", providerName, r), nil)
		}
		c.metrics.RecordRequest(ctx, providerName, op, time.Since(start), resp.IsFailure())
		if resp.Usage != nil {
			c.metrics.RecordTokens(ctx, providerName, op, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
		}
	}()

	p, err := c.Resolve(ctx, providerName)
	if err != nil {
		c.logger.Warn("provider resolution failed", "provider", providerName, "op", op, "error", err)
		return provider.NewFailureFromError(err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout())
	defer cancel()

	c.logger.Debug("dispatching call", "provider", providerName, "op", op, "model", opts.Model)
	resp = fn(ctx, p)
	if resp == nil {
		// Adapters must not return nil; treat it like a misbehaving vendor.
		resp = provider.NewFailure(providerName+" provider returned no response", nil)
	}
	if resp.IsFailure() {
		c.logger.Warn("call failed", "provider", providerName, "op", op, "error", resp.ErrorMessage)
	}
	return resp
}
