package provider

import "encoding/json"

// TokenUsage is the canonical token accounting shape. Adapters re-key
// whatever the vendor returned into these three counts. A nil pointer means
// the dimension does not apply to the operation (embeddings have no
// completion tokens); a nil *TokenUsage on the Response means the vendor
// reported no usage at all.
type TokenUsage struct {
	PromptTokens     *int64
	CompletionTokens *int64
	TotalTokens      *int64
}

// Response is the standardized result value returned by every operation,
// success or failure. It is constructed once per call and must be treated
// as read-only thereafter.
//
// Invariant: Success implies ErrorMessage == ""; !Success implies a
// non-empty ErrorMessage. The constructors enforce this.
type Response struct {
	// Success reports whether the operation completed normally.
	Success bool

	// Text is the generated text content. Empty for embeddings and failures.
	Text string

	// Embedding is the embedding vector. Nil for text operations and failures.
	Embedding []float64

	// ErrorMessage describes the failure. Empty on success.
	ErrorMessage string

	// Usage holds re-keyed token accounting, nil when the vendor reported none.
	Usage *TokenUsage

	// Raw is the vendor payload passed through opaquely for diagnostics.
	// It is never parsed further by callers.
	Raw json.RawMessage
}

// NewTextResponse returns a successful Response carrying generated text.
func NewTextResponse(text string, usage *TokenUsage, raw json.RawMessage) *Response {
	return &Response{Success: true, Text: text, Usage: usage, Raw: raw}
}

// NewEmbeddingResponse returns a successful Response carrying an embedding vector.
func NewEmbeddingResponse(vec []float64, usage *TokenUsage, raw json.RawMessage) *Response {
	return &Response{Success: true, Embedding: vec, Usage: usage, Raw: raw}
}

// NewFailure returns a failed Response with the given error message and
// optional raw vendor payload. An empty message is replaced so the
// failure-implies-message invariant holds.
func NewFailure(msg string, raw json.RawMessage) *Response {
	if msg == "" {
		msg = "unknown error"
	}
	return &Response{Success: false, ErrorMessage: msg, Raw: raw}
}

// NewFailureFromError returns a failed Response carrying err's message.
func NewFailureFromError(err error) *Response {
	if err == nil {
		return NewFailure("", nil)
	}
	return NewFailure(err.Error(), nil)
}

// IsSuccess reports whether the operation succeeded.
func (r *Response) IsSuccess() bool {
	return r.Success
}

// IsFailure is the logical negation of IsSuccess.
func (r *Response) IsFailure() bool {
	return !r.Success
}
