package gemini

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/genai"

	"github.com/dautroc/synapse-ai/pkg/provider"
)

// newTestAdapter returns an Adapter pointed at a stub API server.
func newTestAdapter(t *testing.T, handler http.HandlerFunc) *Adapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	a, err := New(context.Background(), "gm-test",
		WithBaseURL(srv.URL),
		WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestNew_MissingAPIKey(t *testing.T) {
	_, err := New(context.Background(), "")
	if !errors.Is(err, provider.ErrAPIKeyMissing) {
		t.Fatalf("New(\"\") error = %v, want ErrAPIKeyMissing", err)
	}
}

func TestChat_Success(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "generateContent") {
			t.Errorf("request path = %q, want generateContent", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"candidates": [{"content": {"parts": [{"text": "Hello"}], "role": "model"}, "finishReason": "STOP"}],
			"usageMetadata": {"promptTokenCount": 5, "candidatesTokenCount": 2, "totalTokenCount": 7}
		}`))
	})

	resp := a.Chat(context.Background(), []provider.Message{{Role: "user", Content: "Hi"}}, provider.Options{})
	if !resp.IsSuccess() {
		t.Fatalf("Chat failed: %s", resp.ErrorMessage)
	}
	if resp.Text != "Hello" {
		t.Errorf("Text = %q, want %q", resp.Text, "Hello")
	}
	if resp.Usage == nil {
		t.Fatal("Usage is nil")
	}
	if got := *resp.Usage.PromptTokens; got != 5 {
		t.Errorf("PromptTokens = %d, want 5", got)
	}
	if got := *resp.Usage.CompletionTokens; got != 2 {
		t.Errorf("CompletionTokens = %d, want 2", got)
	}
	if got := *resp.Usage.TotalTokens; got != 7 {
		t.Errorf("TotalTokens = %d, want 7", got)
	}
	if len(resp.Raw) == 0 {
		t.Error("Raw payload is empty")
	}
}

func TestChat_APIError(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"code": 400, "message": "API key not valid", "status": "INVALID_ARGUMENT"}}`))
	})

	resp := a.Chat(context.Background(), []provider.Message{{Role: "user", Content: "Hi"}}, provider.Options{})
	if !resp.IsFailure() {
		t.Fatal("expected failure for 400 response")
	}
	if !strings.HasPrefix(resp.ErrorMessage, "Gemini API error: ") {
		t.Errorf("ErrorMessage = %q, want API error prefix", resp.ErrorMessage)
	}
	if !strings.Contains(resp.ErrorMessage, "API key not valid") {
		t.Errorf("ErrorMessage = %q, want vendor message included", resp.ErrorMessage)
	}
}

func TestChat_MalformedResponse(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	})

	resp := a.Chat(context.Background(), []provider.Message{{Role: "user", Content: "Hi"}}, provider.Options{})
	if !resp.IsFailure() {
		t.Fatal("expected failure for response without candidates")
	}
	if !strings.Contains(resp.ErrorMessage, "malformed") {
		t.Errorf("ErrorMessage = %q, want it to flag the malformed body", resp.ErrorMessage)
	}
}

func TestGenerateText_DelegatesToChat(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "generateContent") {
			t.Errorf("request path = %q, want generateContent", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates": [{"content": {"parts": [{"text": "Once upon a time"}], "role": "model"}}]}`))
	})

	resp := a.GenerateText(context.Background(), "Tell a story", provider.Options{})
	if !resp.IsSuccess() {
		t.Fatalf("GenerateText failed: %s", resp.ErrorMessage)
	}
	if resp.Text != "Once upon a time" {
		t.Errorf("Text = %q, want %q", resp.Text, "Once upon a time")
	}
}

func TestEmbed_Success(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		// Both the single and batch response shapes carry the values so the
		// stub works regardless of which endpoint the SDK picks.
		w.Write([]byte(`{
			"embedding": {"values": [0.1, -0.2, 0.3]},
			"embeddings": [{"values": [0.1, -0.2, 0.3]}]
		}`))
	})

	resp := a.Embed(context.Background(), "hello", provider.Options{})
	if !resp.IsSuccess() {
		t.Fatalf("Embed failed: %s", resp.ErrorMessage)
	}
	if len(resp.Embedding) != 3 {
		t.Fatalf("Embedding length = %d, want 3", len(resp.Embedding))
	}
	if resp.Embedding[2] != float64(float32(0.3)) {
		t.Errorf("Embedding[2] = %f, want 0.3", resp.Embedding[2])
	}
	if resp.Usage != nil {
		t.Errorf("Usage = %+v, want nil: the vendor reports no counts here", resp.Usage)
	}
}

func TestGenerateImage_NotImplemented(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	resp := a.GenerateImage(context.Background(), "a cat", provider.Options{})
	if !resp.IsFailure() {
		t.Fatal("expected failure for unimplemented operation")
	}
}

func TestConvertMessages_RoleMapping(t *testing.T) {
	contents := convertMessages([]provider.Message{
		{Role: "system", Content: "Be brief."},
		{Role: "user", Content: "Hi"},
		{Role: "assistant", Content: "Hello"},
		{Role: "unknown", Content: "?"},
	})

	wantRoles := []genai.Role{genai.RoleModel, genai.RoleUser, genai.RoleModel, genai.RoleUser}
	if len(contents) != len(wantRoles) {
		t.Fatalf("got %d contents, want %d", len(contents), len(wantRoles))
	}
	for i, c := range contents {
		if genai.Role(c.Role) != wantRoles[i] {
			t.Errorf("contents[%d].Role = %q, want %q", i, c.Role, wantRoles[i])
		}
	}
}

func TestGenerationConfig(t *testing.T) {
	if cfg := generationConfig(provider.Options{}); cfg != nil {
		t.Errorf("generationConfig(zero) = %+v, want nil", cfg)
	}

	cfg := generationConfig(provider.Options{
		Temperature: 0.7,
		MaxTokens:   100,
		Extra:       map[string]any{"top_p": 0.9, "top_k": 40.0},
	})
	if cfg == nil {
		t.Fatal("generationConfig returned nil")
	}
	if cfg.Temperature == nil || *cfg.Temperature != float32(0.7) {
		t.Errorf("Temperature = %v, want 0.7", cfg.Temperature)
	}
	if cfg.MaxOutputTokens != 100 {
		t.Errorf("MaxOutputTokens = %d, want 100", cfg.MaxOutputTokens)
	}
	if cfg.TopP == nil || *cfg.TopP != float32(0.9) {
		t.Errorf("TopP = %v, want 0.9", cfg.TopP)
	}
	if cfg.TopK == nil || *cfg.TopK != 40 {
		t.Errorf("TopK = %v, want 40", cfg.TopK)
	}
}

func TestUsageFromMetadata_Nil(t *testing.T) {
	if got := usageFromMetadata(nil); got != nil {
		t.Errorf("usageFromMetadata(nil) = %+v, want nil", got)
	}
}
