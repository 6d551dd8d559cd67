// Package openai provides the Provider adapter backed by the OpenAI API.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/dautroc/synapse-ai/pkg/provider"
)

const (
	// Name is the provider identifier for this adapter.
	Name = "openai"

	// DefaultChatModel is used when the caller does not pick a model.
	DefaultChatModel = "gpt-3.5-turbo"

	// DefaultEmbeddingModel is the default OpenAI embeddings model.
	DefaultEmbeddingModel = oai.EmbeddingModelTextEmbedding3Small

	// DefaultMaxTokens caps GenerateText output when the caller sets no limit.
	DefaultMaxTokens = 150
)

// Ensure Adapter implements the provider interface.
var _ provider.Provider = (*Adapter)(nil)

// Adapter implements provider.Provider using the OpenAI API.
type Adapter struct {
	client oai.Client
}

// config holds optional configuration for the adapter.
type config struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// Option is a functional option for Adapter.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) {
		c.httpClient = client
	}
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// New constructs an OpenAI Adapter. The API key is required; construction
// fails with provider.ErrAPIKeyMissing before any network activity when it
// is empty.
func New(apiKey string, opts ...Option) (*Adapter, error) {
	if apiKey == "" {
		return nil, provider.ErrAPIKeyMissing
	}

	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.httpClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(cfg.httpClient))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(cfg.timeout))
	}

	return &Adapter{client: oai.NewClient(reqOpts...)}, nil
}

// Name implements provider.Provider.
func (a *Adapter) Name() string {
	return Name
}

// Chat implements provider.Provider. It sends the message list to the chat
// completions endpoint and normalizes the first choice into a Response.
func (a *Adapter) Chat(ctx context.Context, messages []provider.Message, opts provider.Options) *provider.Response {
	model := opts.Model
	if model == "" {
		model = DefaultChatModel
	}

	params := oai.ChatCompletionNewParams{
		Model:    shared.ChatModel(model),
		Messages: convertMessages(messages),
	}
	if opts.MaxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(opts.MaxTokens))
	}
	if opts.Temperature != 0 {
		params.Temperature = param.NewOpt(opts.Temperature)
	}

	completion, err := a.client.Chat.Completions.New(ctx, params, extraOptions(opts)...)
	if err != nil {
		return failureFromError(err)
	}
	if len(completion.Choices) == 0 {
		return provider.NewFailure("OpenAI returned a malformed response: no choices", json.RawMessage(completion.RawJSON()))
	}

	var usage *provider.TokenUsage
	if completion.JSON.Usage.Valid() {
		usage = &provider.TokenUsage{
			PromptTokens:     provider.Ptr(completion.Usage.PromptTokens),
			CompletionTokens: provider.Ptr(completion.Usage.CompletionTokens),
			TotalTokens:      provider.Ptr(completion.Usage.TotalTokens),
		}
	}
	return provider.NewTextResponse(completion.Choices[0].Message.Content, usage, json.RawMessage(completion.RawJSON()))
}

// GenerateText implements provider.Provider. Chat-class models delegate to
// Chat with the prompt wrapped as a single user message; everything else
// goes through the legacy completions endpoint.
func (a *Adapter) GenerateText(ctx context.Context, prompt string, opts provider.Options) *provider.Response {
	model := opts.Model
	if model == "" {
		model = DefaultChatModel
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = DefaultMaxTokens
	}

	if isChatModel(model) {
		opts.Model = model
		return a.Chat(ctx, []provider.Message{{Role: "user", Content: prompt}}, opts)
	}

	params := oai.CompletionNewParams{
		Model:     oai.CompletionNewParamsModel(model),
		Prompt:    oai.CompletionNewParamsPromptUnion{OfString: oai.String(prompt)},
		MaxTokens: oai.Int(int64(opts.MaxTokens)),
	}
	if opts.Temperature != 0 {
		params.Temperature = oai.Float(opts.Temperature)
	}

	completion, err := a.client.Completions.New(ctx, params, extraOptions(opts)...)
	if err != nil {
		return failureFromError(err)
	}
	if len(completion.Choices) == 0 {
		return provider.NewFailure("OpenAI returned a malformed response: no choices", json.RawMessage(completion.RawJSON()))
	}

	var usage *provider.TokenUsage
	if completion.JSON.Usage.Valid() {
		usage = &provider.TokenUsage{
			PromptTokens:     provider.Ptr(completion.Usage.PromptTokens),
			CompletionTokens: provider.Ptr(completion.Usage.CompletionTokens),
			TotalTokens:      provider.Ptr(completion.Usage.TotalTokens),
		}
	}
	return provider.NewTextResponse(completion.Choices[0].Text, usage, json.RawMessage(completion.RawJSON()))
}

// Embed implements provider.Provider. The returned usage never carries a
// completion token count; the vendor does not report one for embeddings.
func (a *Adapter) Embed(ctx context.Context, text string, opts provider.Options) *provider.Response {
	model := opts.Model
	if model == "" {
		model = DefaultEmbeddingModel
	}

	resp, err := a.client.Embeddings.New(ctx, oai.EmbeddingNewParams{
		Model: model,
		Input: oai.EmbeddingNewParamsInputUnion{
			OfString: param.NewOpt(text),
		},
	}, extraOptions(opts)...)
	if err != nil {
		return failureFromError(err)
	}
	if len(resp.Data) == 0 {
		return provider.NewFailure("OpenAI returned a malformed response: no embedding data", json.RawMessage(resp.RawJSON()))
	}

	var usage *provider.TokenUsage
	if resp.JSON.Usage.Valid() {
		usage = &provider.TokenUsage{
			PromptTokens: provider.Ptr(resp.Usage.PromptTokens),
			TotalTokens:  provider.Ptr(resp.Usage.TotalTokens),
		}
	}
	return provider.NewEmbeddingResponse(resp.Data[0].Embedding, usage, json.RawMessage(resp.RawJSON()))
}

// GenerateImage implements provider.Provider.
func (a *Adapter) GenerateImage(ctx context.Context, prompt string, opts provider.Options) *provider.Response {
	return provider.NewFailureFromError(provider.ErrNotImplemented)
}

// convertMessages converts uniform messages to OpenAI SDK message params.
// Unknown roles are forwarded as user messages rather than dropped.
func convertMessages(messages []provider.Message) []oai.ChatCompletionMessageParamUnion {
	out := make([]oai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			out = append(out, oai.SystemMessage(m.Content))
		case "assistant":
			out = append(out, oai.AssistantMessage(m.Content))
		default:
			out = append(out, oai.UserMessage(m.Content))
		}
	}
	return out
}

// extraOptions turns Options.Extra into per-request body overrides.
func extraOptions(opts provider.Options) []option.RequestOption {
	if len(opts.Extra) == 0 {
		return nil
	}
	reqOpts := make([]option.RequestOption, 0, len(opts.Extra))
	for k, v := range opts.Extra {
		reqOpts = append(reqOpts, option.WithJSONSet(k, v))
	}
	return reqOpts
}

// failureFromError converts an SDK error into a failure Response. Vendor
// error bodies keep an "API error" prefix and their raw payload so callers
// can tell a refusal by the API from a client-side fault.
func failureFromError(err error) *provider.Response {
	var apierr *oai.Error
	if errors.As(err, &apierr) {
		msg := apierr.Message
		if msg == "" {
			msg = apierr.Error()
		}
		return provider.NewFailure("OpenAI API error: "+msg, json.RawMessage(apierr.RawJSON()))
	}
	return provider.NewFailure("OpenAI client error: "+err.Error(), nil)
}

// chatModelPrefixes marks model families that require the chat-style request
// shape rather than the legacy completion shape.
var chatModelPrefixes = []string{"gpt-", "chatgpt-", "o1", "o3", "o4"}

// isChatModel reports whether model must be routed to the chat endpoint.
func isChatModel(model string) bool {
	lower := strings.ToLower(model)
	for _, p := range chatModelPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}
