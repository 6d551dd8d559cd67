// Command synapse is a one-shot CLI for the provider-agnostic AI client:
// it sends a single prompt to the configured provider and prints the
// standardized response.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dautroc/synapse-ai/internal/config"
	"github.com/dautroc/synapse-ai/pkg/client"
	"github.com/dautroc/synapse-ai/pkg/provider"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "", "path to the YAML configuration file (optional)")
	providerName := flag.String("provider", "", "provider to call (default from config)")
	model := flag.String("model", "", "model to use (provider default when empty)")
	op := flag.String("op", "generate_text", "operation: chat, generate_text, embed, or generate_image")
	maxTokens := flag.Int("max-tokens", 0, "response token cap (0 = provider default)")
	temperature := flag.Float64("temperature", 0, "sampling temperature (0 = provider default)")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	var cfg *config.Config
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "synapse: %v\n", err)
			return 1
		}
		cfg = loaded
	} else {
		// No file given: defaults plus API keys from the environment.
		cfg = config.Default()
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	// ── Prompt ────────────────────────────────────────────────────────────────
	prompt, err := readPrompt(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "synapse: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Dispatch ──────────────────────────────────────────────────────────────
	c := client.New(cfg, client.WithLogger(logger))
	opts := provider.Options{
		Provider:    *providerName,
		Model:       *model,
		MaxTokens:   *maxTokens,
		Temperature: *temperature,
	}

	var resp *provider.Response
	switch *op {
	case "chat":
		resp = c.Chat(ctx, []provider.Message{{Role: "user", Content: prompt}}, opts)
	case "generate_text":
		resp = c.GenerateText(ctx, prompt, opts)
	case "embed":
		resp = c.Embed(ctx, prompt, opts)
	case "generate_image":
		resp = c.GenerateImage(ctx, prompt, opts)
	default:
		fmt.Fprintf(os.Stderr, "synapse: unknown operation %q (want chat, generate_text, embed, or generate_image)\n", *op)
		return 1
	}

	return printResponse(resp)
}

// readPrompt takes the prompt from the remaining arguments, falling back to
// stdin so the command composes in pipelines.
func readPrompt(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read prompt from stdin: %w", err)
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", errors.New("no prompt given (pass it as arguments or on stdin)")
	}
	return prompt, nil
}

// printResponse writes the response to stdout and maps failure onto the
// process exit code.
func printResponse(resp *provider.Response) int {
	if resp.IsFailure() {
		fmt.Fprintf(os.Stderr, "synapse: %s\n", resp.ErrorMessage)
		return 1
	}

	if len(resp.Embedding) > 0 {
		fmt.Printf("embedding: %d dimensions\n", len(resp.Embedding))
		for i, v := range resp.Embedding {
			if i == 8 {
				fmt.Println("  …")
				break
			}
			fmt.Printf("  [%d] %f\n", i, v)
		}
	} else {
		fmt.Println(resp.Text)
	}

	if u := resp.Usage; u != nil {
		parts := make([]string, 0, 3)
		if u.PromptTokens != nil {
			parts = append(parts, fmt.Sprintf("prompt=%d", *u.PromptTokens))
		}
		if u.CompletionTokens != nil {
			parts = append(parts, fmt.Sprintf("completion=%d", *u.CompletionTokens))
		}
		if u.TotalTokens != nil {
			parts = append(parts, fmt.Sprintf("total=%d", *u.TotalTokens))
		}
		if len(parts) > 0 {
			fmt.Fprintf(os.Stderr, "tokens: %s\n", strings.Join(parts, " "))
		}
	}
	return 0
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level.SlogLevel()}))
}
