// Package agent orchestrates calls to the remote AI service. It composes
// the retry layer with the ai.Client boundary across four call shapes:
// blocking calls, streaming calls, session opening, and in-session turns.
// In-session turns are never retried, since a stateful channel could resend
// prompts or corrupt conversational state on a blind retry.
//
// An Agent owns at most one session at a time. Callers must not invoke two
// operations concurrently against the same Agent; that is a documented
// precondition, not enforced internally.
package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/groundedcv/groundedcv/internal/ai"
	"github.com/groundedcv/groundedcv/internal/logger"
	"github.com/groundedcv/groundedcv/internal/retry"
)

// DefaultMaxTurns bounds agentic conversation length unless overridden.
const DefaultMaxTurns = 10

// DefaultTools lists the capability names agents may use unless overridden.
var DefaultTools = []string{"websearch", "code_execution"}

// Agent is a named orchestrator bound to a model, a capability set, and a
// retry configuration, all resolved once at construction.
type Agent struct {
	name     string
	model    string
	system   string
	tools    []string
	maxTurns int
	workDir  string

	client  ai.Client
	retry   retry.Config
	logger  *zap.Logger
	session ai.Session
}

// Option configures an Agent at construction.
type Option func(*Agent)

// WithModel sets the default model identifier.
func WithModel(model string) Option {
	return func(a *Agent) { a.model = model }
}

// WithSystemPrompt sets the default system instruction.
func WithSystemPrompt(system string) Option {
	return func(a *Agent) { a.system = system }
}

// WithTools replaces the default allowed-capability set.
func WithTools(tools ...string) Option {
	return func(a *Agent) { a.tools = tools }
}

// WithMaxTurns bounds conversation length for agentic calls.
func WithMaxTurns(n int) Option {
	return func(a *Agent) { a.maxTurns = n }
}

// WithWorkDir sets the working-directory context passed to the service.
func WithWorkDir(dir string) Option {
	return func(a *Agent) { a.workDir = dir }
}

// WithRetry replaces the default retry configuration.
func WithRetry(cfg retry.Config) Option {
	return func(a *Agent) { a.retry = cfg }
}

// WithLogger attaches a logger. Defaults to a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(a *Agent) { a.logger = log }
}

// New constructs an Agent. The retry configuration is validated here so an
// invalid one fails at construction, not at the first failed call.
func New(name string, client ai.Client, opts ...Option) (*Agent, error) {
	if name == "" {
		return nil, errors.New("agent name is required")
	}
	if client == nil {
		return nil, errors.New("ai client is required")
	}

	a := &Agent{
		name:     name,
		tools:    DefaultTools,
		maxTurns: DefaultMaxTurns,
		client:   client,
		retry:    retry.DefaultConfig(),
		logger:   zap.NewNop(),
	}

	for _, opt := range opts {
		opt(a)
	}

	if err := a.retry.Validate(); err != nil {
		return nil, fmt.Errorf("retry configuration: %w", err)
	}

	a.logger = logger.WithFields(a.logger, logger.StringFields(
		logger.StringField{Key: logger.FieldAgent, Value: a.name},
		logger.StringField{Key: logger.FieldModel, Value: a.model},
	)...)

	return a, nil
}

// Name returns the agent's stable name.
func (a *Agent) Name() string { return a.name }

// HasSession reports whether a session is currently open.
func (a *Agent) HasSession() bool { return a.session != nil }

// SessionID returns the open session's identifier, empty when none is open.
func (a *Agent) SessionID() string {
	if a.session == nil {
		return ""
	}
	return a.session.ID()
}

// callSettings are the per-call overrides of the agent defaults.
type callSettings struct {
	model    string
	system   string
	tools    []string
	maxTurns int
}

// CallOption overrides agent defaults for a single call.
type CallOption func(*callSettings)

// Model overrides the model for this call.
func Model(model string) CallOption {
	return func(s *callSettings) { s.model = model }
}

// System overrides the system instruction for this call.
func System(system string) CallOption {
	return func(s *callSettings) { s.system = system }
}

// Tools overrides the allowed capabilities for this call.
func Tools(tools ...string) CallOption {
	return func(s *callSettings) { s.tools = tools }
}

// MaxTurns overrides the conversation bound for this call.
func MaxTurns(n int) CallOption {
	return func(s *callSettings) { s.maxTurns = n }
}

// request resolves the effective request for one call.
func (a *Agent) request(prompt string, opts ...CallOption) ai.Request {
	settings := callSettings{
		model:    a.model,
		system:   a.system,
		tools:    a.tools,
		maxTurns: a.maxTurns,
	}
	for _, opt := range opts {
		opt(&settings)
	}

	return ai.Request{
		Prompt:   prompt,
		Model:    settings.model,
		System:   settings.system,
		Tools:    settings.tools,
		MaxTurns: settings.maxTurns,
		WorkDir:  a.workDir,
	}
}

// Call performs a single-shot blocking call and returns the response text
// with its execution metadata. Transient transport failures are retried per
// the agent's retry configuration; all other errors surface immediately as
// *OperationError. When the service completes without a usage record the
// returned Metadata carries zeroed counters and a warning is logged; that is
// a degraded success, not a failure.
func (a *Agent) Call(ctx context.Context, prompt string, opts ...CallOption) (string, Metadata, error) {
	const op = "call"

	req := a.request(prompt, opts...)
	startedAt := time.Now()

	result, err := retry.Do(ctx, a.retry, a.logger, ai.IsTransient, func(ctx context.Context) (*ai.Result, error) {
		return a.client.Generate(ctx, req)
	})
	if err != nil {
		return "", Metadata{}, a.classify(op, err)
	}

	meta := a.metadata(req.Model, result.Usage, startedAt)
	a.logger.Debug("call completed",
		zap.Int("tokens_out", meta.TokensOut),
		zap.Int64("latency_ms", meta.LatencyMS),
		zap.Float64("cost_usd", meta.CostUSD),
	)

	return result.Text, meta, nil
}

// Stream performs a single-shot streaming call. Transport failures are
// retried only until the first fragment reaches the consumer; afterwards
// they surface as *ConnectionError with no retry. The returned stream must
// be closed by the consumer.
func (a *Agent) Stream(ctx context.Context, prompt string, opts ...CallOption) (ai.Stream, error) {
	const op = "stream"

	req := a.request(prompt, opts...)
	inner := retry.NewStream(ctx, a.retry, a.logger, ai.IsTransient, func(ctx context.Context) (retry.Producer, error) {
		return a.client.GenerateStream(ctx, req)
	})

	return &classifiedStream{op: op, agent: a, inner: inner}, nil
}

// StartSession opens a conversational channel, optionally sending an
// initial prompt. Transient failures during opening are retried; a failed
// attempt never leaves a partial handle behind. After exhaustion the handle
// stays absent and a *ConnectionError is returned.
func (a *Agent) StartSession(ctx context.Context, initialPrompt string, opts ...CallOption) error {
	const op = "open session"

	if a.session != nil {
		return fmt.Errorf("%s: %w", op, ErrSessionOpen)
	}

	req := a.request(initialPrompt, opts...)

	session, err := retry.Do(ctx, a.retry, a.logger, ai.IsTransient, func(ctx context.Context) (ai.Session, error) {
		return a.client.OpenSession(ctx, req)
	})
	if err != nil {
		return a.classify(op, err)
	}

	a.session = session
	a.logger.Debug("session opened", zap.String("session_id", session.ID()))
	return nil
}

// Ask sends one turn on the open session and collects the response. The
// session channel is stateful, so this performs exactly one attempt:
// transport failures are reported as *ConnectionError but never retried.
// The returned metadata is nil when the service emitted no usage record for
// the turn.
func (a *Agent) Ask(ctx context.Context, prompt string) (string, *Metadata, error) {
	const op = "session turn"

	if a.session == nil {
		return "", nil, fmt.Errorf("%s: %w", op, ErrNoSession)
	}

	startedAt := time.Now()
	result, err := a.session.Send(ctx, prompt)
	if err != nil {
		return "", nil, a.classify(op, err)
	}

	var meta *Metadata
	if result.Usage != nil {
		m := a.metadata(a.model, result.Usage, startedAt)
		meta = &m
	}

	return result.Text, meta, nil
}

// AskStream sends one turn on the open session and streams the response.
// Like Ask it performs exactly one attempt; mid-session retries are unsafe.
func (a *Agent) AskStream(ctx context.Context, prompt string) (ai.Stream, error) {
	const op = "session stream"

	if a.session == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrNoSession)
	}

	stream, err := a.session.SendStream(ctx, prompt)
	if err != nil {
		return nil, a.classify(op, err)
	}

	return &classifiedStream{op: op, agent: a, inner: stream}, nil
}

// CloseSession disconnects the open session and clears the handle. It is
// idempotent: with no session open it is a no-op.
func (a *Agent) CloseSession() error {
	if a.session == nil {
		return nil
	}

	session := a.session
	a.session = nil

	if err := session.Close(); err != nil {
		return fmt.Errorf("close session: %w", err)
	}

	a.logger.Debug("session closed")
	return nil
}

// WithSession opens a session, runs fn, and always closes the session
// afterwards. When fn fails, a close failure is logged rather than
// returned, so it never masks fn's error. When fn succeeds, a close failure
// is returned.
func (a *Agent) WithSession(ctx context.Context, fn func(context.Context) error, opts ...CallOption) error {
	if err := a.StartSession(ctx, "", opts...); err != nil {
		return err
	}

	fnErr := fn(ctx)
	closeErr := a.CloseSession()

	if fnErr != nil {
		if closeErr != nil {
			a.logger.Warn("closing session after failure", zap.Error(closeErr))
		}
		return fnErr
	}

	return closeErr
}

// classify maps a boundary error onto the agent error taxonomy. Context
// cancellation passes through unchanged.
func (a *Agent) classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case ai.IsTransient(err):
		return &ConnectionError{Op: op, Agent: a.name, Err: err}
	default:
		return &OperationError{Op: op, Agent: a.name, Err: err}
	}
}

// metadata builds the execution record for a completed call. A nil usage
// produces the zero-valued fallback with a warning.
func (a *Agent) metadata(model string, usage *ai.Usage, startedAt time.Time) Metadata {
	completedAt := time.Now()
	meta := Metadata{
		Agent:       a.name,
		Model:       model,
		StartedAt:   startedAt,
		CompletedAt: completedAt,
		LatencyMS:   completedAt.Sub(startedAt).Milliseconds(),
	}

	if usage == nil {
		a.logger.Warn("no usage record received, reporting zero usage")
		return meta
	}

	meta.TokensIn = usage.InputTokens
	meta.TokensOut = usage.OutputTokens
	meta.CostUSD = usage.CostUSD
	meta.SessionID = usage.SessionID

	if meta.CostUSD == 0 {
		meta.CostUSD = estimateCost(model, meta.TokensIn, meta.TokensOut)
	}

	return meta
}

// classifiedStream maps stream errors onto the agent error taxonomy while
// passing fragments through untouched.
type classifiedStream struct {
	op    string
	agent *Agent
	inner ai.Stream
}

func (s *classifiedStream) Recv() (string, error) {
	fragment, err := s.inner.Recv()
	if err != nil && !errors.Is(err, io.EOF) {
		return "", s.agent.classify(s.op, err)
	}
	return fragment, err
}

func (s *classifiedStream) Close() error {
	return s.inner.Close()
}
