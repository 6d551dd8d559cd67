// Package fallback composes multiple providers behind the uniform contract.
// A [Group] tries each configured provider in order and returns the first
// successful Response; a per-provider circuit breaker takes repeatedly
// failing providers out of rotation for a cool-down period.
//
// Failure here means a failure Response, not a Go error: the adapters never
// surface errors, so the breaker watches Response.IsFailure instead.
//
// All types are safe for concurrent use.
package fallback

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dautroc/synapse-ai/pkg/provider"
)

// BreakerConfig holds tuning knobs for the per-provider circuit breakers.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failure Responses in the
	// closed state before the breaker opens. Default: 5.
	MaxFailures int

	// ResetTimeout is how long the breaker stays open before allowing
	// probe calls again. Default: 30s.
	ResetTimeout time.Duration

	// HalfOpenMax is the number of probe calls allowed while recovering
	// before the breaker decides whether to close or re-open. Default: 3.
	HalfOpenMax int
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	if c.MaxFailures <= 0 {
		c.MaxFailures = 5
	}
	if c.ResetTimeout <= 0 {
		c.ResetTimeout = 30 * time.Second
	}
	if c.HalfOpenMax <= 0 {
		c.HalfOpenMax = 3
	}
	return c
}

// breakerState is the classic three-state breaker mode.
type breakerState int

const (
	stateClosed breakerState = iota
	stateOpen
	stateHalfOpen
)

// breaker is a Response-driven circuit breaker. Callers ask Allow before a
// provider call and Record the outcome after it.
type breaker struct {
	cfg BreakerConfig

	mu              sync.Mutex
	state           breakerState
	consecutiveFail int
	lastFailure     time.Time
	probeCalls      int
	probeFails      int
}

// allow reports whether a call may proceed, handling the open → half-open
// transition when the reset timeout has elapsed.
func (b *breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case stateOpen:
		if time.Since(b.lastFailure) < b.cfg.ResetTimeout {
			return false
		}
		b.state = stateHalfOpen
		b.probeCalls = 0
		b.probeFails = 0
	case stateHalfOpen:
		if b.probeCalls >= b.cfg.HalfOpenMax {
			return false
		}
	}

	if b.state == stateHalfOpen {
		b.probeCalls++
	}
	return true
}

// record feeds the outcome of an allowed call back into the breaker.
func (b *breaker) record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == stateHalfOpen {
		if !success {
			// Any probe failure immediately re-opens.
			b.probeFails++
			b.lastFailure = time.Now()
			b.state = stateOpen
			b.consecutiveFail = b.cfg.MaxFailures
			return
		}
		if b.probeCalls-b.probeFails >= b.cfg.HalfOpenMax {
			b.state = stateClosed
			b.consecutiveFail = 0
		}
		return
	}

	if !success {
		b.lastFailure = time.Now()
		b.consecutiveFail++
		if b.consecutiveFail >= b.cfg.MaxFailures {
			b.state = stateOpen
		}
		return
	}
	b.consecutiveFail = 0
}

// entry pairs a provider with its dedicated breaker.
type entry struct {
	p       provider.Provider
	breaker *breaker
}

// Ensure Group implements the provider interface.
var _ provider.Provider = (*Group)(nil)

// Group is a provider.Provider that delegates to a primary and zero or more
// fallbacks in registration order.
type Group struct {
	cfg     BreakerConfig
	entries []*entry
}

// New creates a Group with primary first and the given fallbacks after it.
func New(cfg BreakerConfig, primary provider.Provider, fallbacks ...provider.Provider) *Group {
	g := &Group{cfg: cfg.withDefaults()}
	g.add(primary)
	for _, p := range fallbacks {
		g.add(p)
	}
	return g
}

// AddFallback appends another fallback provider to the rotation.
func (g *Group) AddFallback(p provider.Provider) {
	g.add(p)
}

func (g *Group) add(p provider.Provider) {
	g.entries = append(g.entries, &entry{p: p, breaker: &breaker{cfg: g.cfg}})
}

// Name implements provider.Provider.
func (g *Group) Name() string {
	return "fallback"
}

// Chat implements provider.Provider.
func (g *Group) Chat(ctx context.Context, messages []provider.Message, opts provider.Options) *provider.Response {
	return g.do("chat", func(p provider.Provider) *provider.Response {
		return p.Chat(ctx, messages, opts)
	})
}

// GenerateText implements provider.Provider.
func (g *Group) GenerateText(ctx context.Context, prompt string, opts provider.Options) *provider.Response {
	return g.do("generate_text", func(p provider.Provider) *provider.Response {
		return p.GenerateText(ctx, prompt, opts)
	})
}

// Embed implements provider.Provider.
func (g *Group) Embed(ctx context.Context, text string, opts provider.Options) *provider.Response {
	return g.do("embed", func(p provider.Provider) *provider.Response {
		return p.Embed(ctx, text, opts)
	})
}

// GenerateImage implements provider.Provider.
func (g *Group) GenerateImage(ctx context.Context, prompt string, opts provider.Options) *provider.Response {
	return g.do("generate_image", func(p provider.Provider) *provider.Response {
		return p.GenerateImage(ctx, prompt, opts)
	})
}

// do tries fn against each entry in order until one returns a success
// Response. Open-breaker entries are skipped. When every entry fails or is
// skipped, the last failure is returned, annotated so the caller can tell no
// provider was left to try.
func (g *Group) do(op string, fn func(provider.Provider) *provider.Response) *provider.Response {
	var last *provider.Response
	for _, e := range g.entries {
		if !e.breaker.allow() {
			slog.Debug("skipping provider, circuit open", "provider", e.p.Name(), "op", op)
			continue
		}
		resp := fn(e.p)
		e.breaker.record(resp.IsSuccess())
		if resp.IsSuccess() {
			return resp
		}
		slog.Warn("provider failed, trying next",
			"provider", e.p.Name(), "op", op, "error", resp.ErrorMessage)
		last = resp
	}

	if last == nil {
		return provider.NewFailure("all providers failed: every circuit breaker is open", nil)
	}
	return provider.NewFailure("all providers failed: "+last.ErrorMessage, last.Raw)
}
