// Package gemini implements the ai.Client boundary on top of the Google
// GenAI API. It normalizes transport-level failures with ai.MarkTransient so
// upper layers can classify retries without knowing genai error types.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/groundedcv/groundedcv/internal/ai"
	"github.com/groundedcv/groundedcv/internal/logger"
)

const (
	// DefaultModel is used when a request does not name a model.
	DefaultModel = "gemini-2.5-pro"

	// maxQuotaDelay is the longest server-advertised quota delay worth
	// waiting out. Anything above it is surfaced as a fatal error.
	maxQuotaDelay = 30 * time.Second
)

// modelCaller is the single-shot surface of the genai client.
type modelCaller interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
}

// chatCreator opens conversational channels.
type chatCreator interface {
	Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error)
}

// chatSession is one open conversational channel.
type chatSession interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
	SendMessageStream(ctx context.Context, parts ...genai.Part) iter.Seq2[*genai.GenerateContentResponse, error]
}

// Client implements ai.Client for the Gemini API backend.
type Client struct {
	models modelCaller
	chats  chatCreator
	logger *zap.Logger
}

// New creates a Client configured for the Gemini API backend.
func New(ctx context.Context, apiKey string, log *zap.Logger) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Client{
		models: client.Models,
		chats:  &chatAdapter{chats: client.Chats},
		logger: logger.WithCommonFields(log, "gemini", ""),
	}, nil
}

// chatAdapter narrows *genai.Chats to the chatCreator interface.
type chatAdapter struct {
	chats *genai.Chats
}

func (a *chatAdapter) Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error) {
	return a.chats.Create(ctx, model, config, history)
}

// Generate performs a single-shot blocking call.
func (c *Client) Generate(ctx context.Context, req ai.Request) (*ai.Result, error) {
	if c == nil || c.models == nil {
		return nil, errors.New("gemini client is not initialized")
	}

	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, errors.New("prompt must not be empty")
	}

	resp, err := c.models.GenerateContent(ctx, model(req), genai.Text(prompt), buildConfig(req))
	if err != nil {
		return nil, classify(fmt.Errorf("generate content: %w", err))
	}

	return resultFrom(resp), nil
}

// GenerateStream performs a single-shot streaming call.
func (c *Client) GenerateStream(ctx context.Context, req ai.Request) (ai.Stream, error) {
	if c == nil || c.models == nil {
		return nil, errors.New("gemini client is not initialized")
	}

	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, errors.New("prompt must not be empty")
	}

	seq := c.models.GenerateContentStream(ctx, model(req), genai.Text(prompt), buildConfig(req))
	return newStream(seq), nil
}

// OpenSession establishes a conversational channel. A non-empty req.Prompt
// is sent as the opening turn; its response text is discarded.
func (c *Client) OpenSession(ctx context.Context, req ai.Request) (ai.Session, error) {
	if c == nil || c.chats == nil {
		return nil, errors.New("gemini client is not initialized")
	}

	chat, err := c.chats.Create(ctx, model(req), buildConfig(req), nil)
	if err != nil {
		return nil, classify(fmt.Errorf("create chat session: %w", err))
	}

	sess := &session{
		id:     uuid.NewString(),
		chat:   chat,
		logger: c.logger,
	}

	if prompt := strings.TrimSpace(req.Prompt); prompt != "" {
		if _, err := sess.Send(ctx, prompt); err != nil {
			return nil, err
		}
	}

	return sess, nil
}

// session implements ai.Session over one genai chat.
type session struct {
	id     string
	chat   chatSession
	logger *zap.Logger
	closed bool
}

func (s *session) ID() string { return s.id }

func (s *session) Send(ctx context.Context, prompt string) (*ai.Result, error) {
	if s.closed {
		return nil, errors.New("session is closed")
	}

	resp, err := s.chat.SendMessage(ctx, genai.Part{Text: prompt})
	if err != nil {
		return nil, classify(fmt.Errorf("send message: %w", err))
	}

	result := resultFrom(resp)
	if result.Usage != nil {
		result.Usage.SessionID = s.id
	}

	return result, nil
}

func (s *session) SendStream(ctx context.Context, prompt string) (ai.Stream, error) {
	if s.closed {
		return nil, errors.New("session is closed")
	}

	seq := s.chat.SendMessageStream(ctx, genai.Part{Text: prompt})
	return newStream(seq), nil
}

// Close marks the session unusable. The genai chat holds no connection of
// its own, so there is nothing to disconnect remotely.
func (s *session) Close() error {
	s.closed = true
	return nil
}

// stream adapts a genai response sequence to ai.Stream.
type stream struct {
	next    func() (*genai.GenerateContentResponse, error, bool)
	stop    func()
	pending []string
	done    bool
}

func newStream(seq iter.Seq2[*genai.GenerateContentResponse, error]) *stream {
	next, stop := iter.Pull2(seq)
	return &stream{next: next, stop: stop}
}

func (s *stream) Recv() (string, error) {
	for {
		if len(s.pending) > 0 {
			fragment := s.pending[0]
			s.pending = s.pending[1:]
			return fragment, nil
		}

		if s.done {
			return "", io.EOF
		}

		resp, err, ok := s.next()
		if !ok {
			s.done = true
			return "", io.EOF
		}
		if err != nil {
			s.done = true
			return "", classify(fmt.Errorf("stream content: %w", err))
		}

		s.pending = append(s.pending, textParts(resp)...)
	}
}

func (s *stream) Close() error {
	s.done = true
	s.stop()
	return nil
}

// model picks the requested model, falling back to the default.
func model(req ai.Request) string {
	if m := strings.TrimSpace(req.Model); m != "" {
		return m
	}
	return DefaultModel
}

// buildConfig translates the request configuration into genai settings.
// MaxTurns and WorkDir have no Gemini API equivalent and are ignored here;
// they stay on the request for providers that honor them.
func buildConfig(req ai.Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}

	if system := strings.TrimSpace(req.System); system != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		}
	}

	for _, tool := range req.Tools {
		switch strings.ToLower(strings.TrimSpace(tool)) {
		case "websearch", "google_search":
			cfg.Tools = append(cfg.Tools, &genai.Tool{GoogleSearch: &genai.GoogleSearch{}})
		case "code_execution":
			cfg.Tools = append(cfg.Tools, &genai.Tool{CodeExecution: &genai.ToolCodeExecution{}})
		}
	}

	return cfg
}

// resultFrom flattens a terminal response into text plus its usage record.
func resultFrom(resp *genai.GenerateContentResponse) *ai.Result {
	result := &ai.Result{}
	if resp == nil {
		return result
	}

	var builder strings.Builder
	for _, fragment := range textParts(resp) {
		builder.WriteString(fragment)
	}
	result.Text = builder.String()

	if meta := resp.UsageMetadata; meta != nil {
		result.Usage = &ai.Usage{
			InputTokens:  int(meta.PromptTokenCount),
			OutputTokens: int(meta.CandidatesTokenCount),
		}
	}

	return result
}

// textParts extracts the textual parts of a response, in order.
func textParts(resp *genai.GenerateContentResponse) []string {
	if resp == nil {
		return nil
	}

	var out []string
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Text == "" {
				continue
			}
			out = append(out, part.Text)
		}
	}

	return out
}

var retryAfterPattern = regexp.MustCompile(`retry(?:\s+in|\s+after)?\s+(\d+(?:\.\d+)?)\s*s`)

// classify wraps transport-level genai failures with ai.MarkTransient.
// Quota errors advertising a delay longer than maxQuotaDelay are left fatal:
// waiting them out inside a retry loop would stall the caller.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		// Non-API failures reaching this boundary are network-level.
		return ai.MarkTransient(err)
	}

	switch apiErr.Code {
	case http.StatusTooManyRequests:
		if delay, ok := quotaDelay(apiErr.Message); ok && delay > maxQuotaDelay {
			return err
		}
		return ai.MarkTransient(err)
	case http.StatusRequestTimeout,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return ai.MarkTransient(err)
	default:
		return err
	}
}

// quotaDelay extracts a server-advertised retry delay from a quota error
// message, e.g. "quota exhausted, retry after 60 seconds".
func quotaDelay(message string) (time.Duration, bool) {
	match := retryAfterPattern.FindStringSubmatch(strings.ToLower(message))
	if match == nil {
		return 0, false
	}

	seconds, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, false
	}

	return time.Duration(seconds * float64(time.Second)), true
}
