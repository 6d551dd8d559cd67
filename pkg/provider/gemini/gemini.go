// Package gemini provides the Provider adapter backed by the Google Gemini
// API through google.golang.org/genai.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"google.golang.org/genai"

	"github.com/dautroc/synapse-ai/pkg/provider"
)

const (
	// Name is the provider identifier for this adapter.
	Name = "google_gemini"

	// DefaultChatModel is used when the caller does not pick a model.
	DefaultChatModel = "gemini-2.0-flash"

	// DefaultEmbeddingModel is the default Gemini embeddings model.
	DefaultEmbeddingModel = "text-embedding-004"
)

// Ensure Adapter implements the provider interface.
var _ provider.Provider = (*Adapter)(nil)

// Adapter implements provider.Provider using the Gemini API. The genai
// client takes the model per call, so one client serves chat, text, and
// embedding operations alike.
type Adapter struct {
	client *genai.Client
}

// config holds optional configuration for the adapter.
type config struct {
	baseURL    string
	httpClient *http.Client
}

// Option is a functional option for Adapter.
type Option func(*config)

// WithBaseURL overrides the default Gemini API base URL.
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

// New constructs a Gemini Adapter. The API key is required; a failed vendor
// client initialization is rewrapped into a provider.ConfigError so the
// vendor's own error type never escapes.
func New(ctx context.Context, apiKey string, opts ...Option) (*Adapter, error) {
	if apiKey == "" {
		return nil, provider.ErrAPIKeyMissing
	}

	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.baseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.baseURL}
	}
	if cfg.httpClient != nil {
		clientCfg.HTTPClient = cfg.httpClient
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, &provider.ConfigError{Provider: Name, Err: err}
	}
	return &Adapter{client: client}, nil
}

// Name implements provider.Provider.
func (a *Adapter) Name() string {
	return Name
}

// Chat implements provider.Provider. The uniform message list is translated
// into Gemini contents; the reply is the first candidate's concatenated text
// parts, with usageMetadata re-keyed into canonical token counts.
func (a *Adapter) Chat(ctx context.Context, messages []provider.Message, opts provider.Options) *provider.Response {
	model := opts.Model
	if model == "" {
		model = DefaultChatModel
	}

	completion, err := a.client.Models.GenerateContent(ctx, model, convertMessages(messages), generationConfig(opts))
	if err != nil {
		return failureFromError(err)
	}
	if len(completion.Candidates) == 0 {
		return provider.NewFailure("Gemini returned a malformed response: no candidates", rawJSON(completion))
	}

	return provider.NewTextResponse(completion.Text(), usageFromMetadata(completion.UsageMetadata), rawJSON(completion))
}

// GenerateText implements provider.Provider by delegating to Chat with the
// prompt wrapped as a single user message.
func (a *Adapter) GenerateText(ctx context.Context, prompt string, opts provider.Options) *provider.Response {
	return a.Chat(ctx, []provider.Message{{Role: "user", Content: prompt}}, opts)
}

// Embed implements provider.Provider. Usage stays nil: the vendor does not
// report token counts for this endpoint.
func (a *Adapter) Embed(ctx context.Context, text string, opts provider.Options) *provider.Response {
	model := opts.Model
	if model == "" {
		model = DefaultEmbeddingModel
	}

	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}
	resp, err := a.client.Models.EmbedContent(ctx, model, contents, nil)
	if err != nil {
		return failureFromError(err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return provider.NewFailure("Gemini returned a malformed response: no embedding values", rawJSON(resp))
	}

	values := resp.Embeddings[0].Values
	vec := make([]float64, len(values))
	for i, v := range values {
		vec[i] = float64(v)
	}
	return provider.NewEmbeddingResponse(vec, nil, rawJSON(resp))
}

// GenerateImage implements provider.Provider.
func (a *Adapter) GenerateImage(ctx context.Context, prompt string, opts provider.Options) *provider.Response {
	return provider.NewFailureFromError(provider.ErrNotImplemented)
}

// convertMessages maps uniform roles onto Gemini's user/model pair.
// Assistant and system turns both become model content; Gemini has no
// dedicated system role in the conversation list.
func convertMessages(messages []provider.Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "assistant", "system", "model":
			out = append(out, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			out = append(out, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	return out
}

// generationConfig builds the per-call generation settings. Extra keys the
// typed SDK config cannot express are dropped; only top_p and top_k pass
// through.
func generationConfig(opts provider.Options) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	set := false

	if opts.Temperature != 0 {
		cfg.Temperature = genai.Ptr(float32(opts.Temperature))
		set = true
	}
	if opts.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(opts.MaxTokens)
		set = true
	}
	if v, ok := opts.Extra["top_p"].(float64); ok {
		cfg.TopP = genai.Ptr(float32(v))
		set = true
	}
	if v, ok := opts.Extra["top_k"].(float64); ok {
		cfg.TopK = genai.Ptr(float32(v))
		set = true
	}

	if !set {
		return nil
	}
	return cfg
}

// usageFromMetadata re-keys Gemini usageMetadata into canonical counts.
// Returns nil when the vendor reported no usage block.
func usageFromMetadata(md *genai.GenerateContentResponseUsageMetadata) *provider.TokenUsage {
	if md == nil {
		return nil
	}
	return &provider.TokenUsage{
		PromptTokens:     provider.Ptr(int64(md.PromptTokenCount)),
		CompletionTokens: provider.Ptr(int64(md.CandidatesTokenCount)),
		TotalTokens:      provider.Ptr(int64(md.TotalTokenCount)),
	}
}

// failureFromError converts a genai error into a failure Response, keeping
// the API-vs-client distinction in the message prefix.
func failureFromError(err error) *provider.Response {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		raw, _ := json.Marshal(apiErr)
		return provider.NewFailure("Gemini API error: "+apiErr.Message, raw)
	}
	return provider.NewFailure("Gemini client error: "+err.Error(), nil)
}

// rawJSON marshals a vendor response for opaque passthrough. Diagnostics
// only, so a marshal failure degrades to a nil payload.
func rawJSON(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}
