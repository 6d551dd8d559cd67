package fallback

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dautroc/synapse-ai/pkg/provider"
	"github.com/dautroc/synapse-ai/pkg/provider/mock"
)

func TestPrimarySuccessShortCircuits(t *testing.T) {
	primary := &mock.Provider{
		NameValue:    "primary",
		ChatResponse: provider.NewTextResponse("from primary", nil, nil),
	}
	backup := &mock.Provider{NameValue: "backup"}
	g := New(BreakerConfig{}, primary, backup)

	resp := g.Chat(context.Background(), nil, provider.Options{})
	if !resp.IsSuccess() {
		t.Fatalf("Chat failed: %s", resp.ErrorMessage)
	}
	if resp.Text != "from primary" {
		t.Errorf("Text = %q, want %q", resp.Text, "from primary")
	}
	if len(backup.ChatCalls) != 0 {
		t.Errorf("backup called %d times, want 0", len(backup.ChatCalls))
	}
}

func TestFallbackOnPrimaryFailure(t *testing.T) {
	primary := &mock.Provider{
		NameValue:    "primary",
		ChatResponse: provider.NewFailure("primary down", nil),
	}
	backup := &mock.Provider{
		NameValue:    "backup",
		ChatResponse: provider.NewTextResponse("from backup", nil, nil),
	}
	g := New(BreakerConfig{}, primary, backup)

	resp := g.Chat(context.Background(), nil, provider.Options{})
	if !resp.IsSuccess() {
		t.Fatalf("Chat failed: %s", resp.ErrorMessage)
	}
	if resp.Text != "from backup" {
		t.Errorf("Text = %q, want %q", resp.Text, "from backup")
	}
	if len(primary.ChatCalls) != 1 {
		t.Errorf("primary called %d times, want 1", len(primary.ChatCalls))
	}
}

func TestAllProvidersFailed(t *testing.T) {
	primary := &mock.Provider{
		NameValue:    "primary",
		ChatResponse: provider.NewFailure("primary down", nil),
	}
	backup := &mock.Provider{
		NameValue:    "backup",
		ChatResponse: provider.NewFailure("backup down", nil),
	}
	g := New(BreakerConfig{}, primary, backup)

	resp := g.Chat(context.Background(), nil, provider.Options{})
	if !resp.IsFailure() {
		t.Fatal("expected failure when every provider fails")
	}
	if !strings.HasPrefix(resp.ErrorMessage, "all providers failed: ") {
		t.Errorf("ErrorMessage = %q, want the aggregate prefix", resp.ErrorMessage)
	}
	if !strings.Contains(resp.ErrorMessage, "backup down") {
		t.Errorf("ErrorMessage = %q, want the last failure included", resp.ErrorMessage)
	}
}

func TestBreakerOpensAndSkipsProvider(t *testing.T) {
	primary := &mock.Provider{
		NameValue:    "primary",
		ChatResponse: provider.NewFailure("primary down", nil),
	}
	backup := &mock.Provider{
		NameValue:    "backup",
		ChatResponse: provider.NewTextResponse("from backup", nil, nil),
	}
	g := New(BreakerConfig{MaxFailures: 2, ResetTimeout: time.Hour}, primary, backup)

	ctx := context.Background()
	for range 3 {
		if resp := g.Chat(ctx, nil, provider.Options{}); !resp.IsSuccess() {
			t.Fatalf("Chat failed: %s", resp.ErrorMessage)
		}
	}

	// Two failures open the primary's breaker, so the third call skips it.
	if got := len(primary.ChatCalls); got != 2 {
		t.Errorf("primary called %d times, want 2", got)
	}
	if got := len(backup.ChatCalls); got != 3 {
		t.Errorf("backup called %d times, want 3", got)
	}
}

func TestAllBreakersOpen(t *testing.T) {
	failing := &mock.Provider{
		NameValue:    "primary",
		ChatResponse: provider.NewFailure("down", nil),
	}
	g := New(BreakerConfig{MaxFailures: 1, ResetTimeout: time.Hour}, failing)

	ctx := context.Background()
	g.Chat(ctx, nil, provider.Options{})

	resp := g.Chat(ctx, nil, provider.Options{})
	if !resp.IsFailure() {
		t.Fatal("expected failure with all breakers open")
	}
	if !strings.Contains(resp.ErrorMessage, "circuit breaker is open") {
		t.Errorf("ErrorMessage = %q, want the open-breaker note", resp.ErrorMessage)
	}
	if got := len(failing.ChatCalls); got != 1 {
		t.Errorf("provider called %d times, want 1", got)
	}
}

func TestBreakerRecoversAfterResetTimeout(t *testing.T) {
	calls := 0
	flaky := &mock.Provider{
		NameValue: "flaky",
		ChatFn: func(ctx context.Context, messages []provider.Message, opts provider.Options) *provider.Response {
			calls++
			if calls == 1 {
				return provider.NewFailure("transient", nil)
			}
			return provider.NewTextResponse("recovered", nil, nil)
		},
	}
	g := New(BreakerConfig{MaxFailures: 1, ResetTimeout: 10 * time.Millisecond}, flaky)

	ctx := context.Background()
	g.Chat(ctx, nil, provider.Options{})

	time.Sleep(20 * time.Millisecond)

	resp := g.Chat(ctx, nil, provider.Options{})
	if !resp.IsSuccess() {
		t.Fatalf("Chat after reset failed: %s", resp.ErrorMessage)
	}
	if resp.Text != "recovered" {
		t.Errorf("Text = %q, want %q", resp.Text, "recovered")
	}
}

func TestAddFallbackExtendsRotation(t *testing.T) {
	primary := &mock.Provider{
		NameValue:            "primary",
		GenerateTextResponse: provider.NewFailure("down", nil),
	}
	g := New(BreakerConfig{}, primary)
	late := &mock.Provider{
		NameValue:            "late",
		GenerateTextResponse: provider.NewTextResponse("late wins", nil, nil),
	}
	g.AddFallback(late)

	resp := g.GenerateText(context.Background(), "prompt", provider.Options{})
	if !resp.IsSuccess() {
		t.Fatalf("GenerateText failed: %s", resp.ErrorMessage)
	}
	if resp.Text != "late wins" {
		t.Errorf("Text = %q, want %q", resp.Text, "late wins")
	}
}

func TestGroupName(t *testing.T) {
	g := New(BreakerConfig{}, &mock.Provider{})
	if g.Name() != "fallback" {
		t.Errorf("Name() = %q, want %q", g.Name(), "fallback")
	}
}
