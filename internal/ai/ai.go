// Package ai defines the boundary to the remote AI service. Providers
// implement Client; everything above this package treats the service as a
// black box that accepts a prompt plus configuration and returns either a
// terminal result or an ordered stream of text fragments.
package ai

import "context"

// Request carries a prompt and the per-call configuration understood by the
// remote service.
type Request struct {
	Prompt string
	// Model is the model/service identifier.
	Model string
	// System is the system instruction, empty for provider default.
	System string
	// Tools lists the capability names the call is allowed to use.
	Tools []string
	// MaxTurns bounds the conversation length for agentic calls.
	MaxTurns int
	// WorkDir is the working-directory context passed to the service.
	WorkDir string
}

// Usage is the terminal usage/cost record emitted by the remote service.
type Usage struct {
	InputTokens  int
	OutputTokens int
	CostUSD      float64
	SessionID    string
}

// Result is a terminal response. Usage is nil when the service completed
// without emitting a usage record.
type Result struct {
	Text  string
	Usage *Usage
}

// Stream is an ordered sequence of text fragments. Recv returns io.EOF when
// the sequence is complete. Close releases the underlying channel and must
// be called on every exit path, including early abandonment.
type Stream interface {
	Recv() (string, error)
	Close() error
}

// Session is an open multi-turn conversational channel. Callers own exactly
// one session at a time and must not use it concurrently.
type Session interface {
	// Send submits a prompt on the open channel and collects the terminal
	// response for this turn.
	Send(ctx context.Context, prompt string) (*Result, error)
	// SendStream submits a prompt and returns this turn's fragments as they
	// arrive.
	SendStream(ctx context.Context, prompt string) (Stream, error)
	// ID reports the provider-assigned session identifier, empty when the
	// provider does not expose one.
	ID() string
	// Close disconnects the channel. Implementations must tolerate repeated
	// calls.
	Close() error
}

// Client is implemented by remote AI providers.
type Client interface {
	// Generate performs a single-shot blocking call.
	Generate(ctx context.Context, req Request) (*Result, error)
	// GenerateStream performs a single-shot streaming call.
	GenerateStream(ctx context.Context, req Request) (Stream, error)
	// OpenSession establishes a new conversational channel. When the request
	// carries a non-empty Prompt it is sent as the opening turn.
	OpenSession(ctx context.Context, req Request) (Session, error)
}
