package gemini

import (
	"context"
	"errors"
	"io"
	"iter"
	"net/http"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/groundedcv/groundedcv/internal/ai"
)

type streamItem struct {
	resp *genai.GenerateContentResponse
	err  error
}

type fakeModels struct {
	resp   *genai.GenerateContentResponse
	err    error
	stream []streamItem

	calls      int
	lastModel  string
	lastConfig *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, _ []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls++
	f.lastModel = model
	f.lastConfig = config
	return f.resp, f.err
}

func (f *fakeModels) GenerateContentStream(_ context.Context, model string, _ []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error] {
	f.calls++
	f.lastModel = model
	f.lastConfig = config
	return func(yield func(*genai.GenerateContentResponse, error) bool) {
		for _, item := range f.stream {
			if !yield(item.resp, item.err) {
				return
			}
		}
	}
}

type fakeChat struct {
	response *genai.GenerateContentResponse
	err      error
	messages []string
}

func (f *fakeChat) SendMessage(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	for _, part := range parts {
		f.messages = append(f.messages, part.Text)
	}
	return f.response, f.err
}

func (f *fakeChat) SendMessageStream(_ context.Context, parts ...genai.Part) iter.Seq2[*genai.GenerateContentResponse, error] {
	for _, part := range parts {
		f.messages = append(f.messages, part.Text)
	}
	return func(yield func(*genai.GenerateContentResponse, error) bool) {
		yield(f.response, f.err)
	}
}

type fakeChatCreator struct {
	chat  *fakeChat
	err   error
	calls int
}

func (f *fakeChatCreator) Create(_ context.Context, _ string, _ *genai.GenerateContentConfig, _ []*genai.Content) (chatSession, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.chat, nil
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{}
	for _, text := range parts {
		content.Parts = append(content.Parts, &genai.Part{Text: text})
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: content}},
	}
}

func TestGenerateCollectsTextAndUsage(t *testing.T) {
	t.Parallel()

	resp := textResponse("hello ", "world")
	resp.UsageMetadata = &genai.GenerateContentResponseUsageMetadata{
		PromptTokenCount:     10,
		CandidatesTokenCount: 5,
	}

	models := &fakeModels{resp: resp}
	c := &Client{models: models, logger: zap.NewNop()}

	result, err := c.Generate(context.Background(), ai.Request{Prompt: "hi", Model: "gemini-pro"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Text != "hello world" {
		t.Fatalf("unexpected text: %q", result.Text)
	}
	if result.Usage == nil || result.Usage.InputTokens != 10 || result.Usage.OutputTokens != 5 {
		t.Fatalf("unexpected usage: %+v", result.Usage)
	}
	if models.lastModel != "gemini-pro" {
		t.Fatalf("unexpected model: %q", models.lastModel)
	}
}

func TestGenerateWithoutUsageRecord(t *testing.T) {
	t.Parallel()

	models := &fakeModels{resp: textResponse("ok")}
	c := &Client{models: models, logger: zap.NewNop()}

	result, err := c.Generate(context.Background(), ai.Request{Prompt: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Usage != nil {
		t.Fatalf("expected nil usage, got %+v", result.Usage)
	}
	if models.lastModel != DefaultModel {
		t.Fatalf("expected default model, got %q", models.lastModel)
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		err       error
		transient bool
	}{
		{
			name:      "server error",
			err:       genai.APIError{Code: http.StatusServiceUnavailable, Status: "UNAVAILABLE"},
			transient: true,
		},
		{
			name:      "quota with short delay",
			err:       genai.APIError{Code: http.StatusTooManyRequests, Status: "RESOURCE_EXHAUSTED", Message: "quota exceeded, retry after 5 seconds"},
			transient: true,
		},
		{
			name:      "quota with long delay",
			err:       genai.APIError{Code: http.StatusTooManyRequests, Status: "RESOURCE_EXHAUSTED", Message: "quota exhausted, retry after 60 seconds"},
			transient: false,
		},
		{
			name:      "bad request",
			err:       genai.APIError{Code: http.StatusBadRequest, Status: "INVALID_ARGUMENT"},
			transient: false,
		},
		{
			name:      "plain network error",
			err:       errors.New("connection reset by peer"),
			transient: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ai.IsTransient(classify(tt.err)); got != tt.transient {
				t.Fatalf("expected transient=%v, got %v", tt.transient, got)
			}
		})
	}
}

func TestQuotaDelay(t *testing.T) {
	t.Parallel()

	delay, ok := quotaDelay("Quota exhausted, retry after 42 seconds")
	if !ok || delay != 42*time.Second {
		t.Fatalf("expected 42s, got %s (ok=%v)", delay, ok)
	}

	if _, ok := quotaDelay("no hint here"); ok {
		t.Fatal("expected no delay extracted")
	}
}

func TestOpenSessionSendsInitialPrompt(t *testing.T) {
	t.Parallel()

	chat := &fakeChat{response: textResponse("welcome")}
	chats := &fakeChatCreator{chat: chat}
	c := &Client{chats: chats, logger: zap.NewNop()}

	sess, err := c.OpenSession(context.Background(), ai.Request{Prompt: "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if chats.calls != 1 {
		t.Fatalf("expected 1 chat creation, got %d", chats.calls)
	}
	if len(chat.messages) != 1 || chat.messages[0] != "hello" {
		t.Fatalf("unexpected opening messages: %v", chat.messages)
	}
	if sess.ID() == "" {
		t.Fatal("expected a session id")
	}
}

func TestSessionSendAttachesSessionID(t *testing.T) {
	t.Parallel()

	resp := textResponse("answer")
	resp.UsageMetadata = &genai.GenerateContentResponseUsageMetadata{
		PromptTokenCount:     3,
		CandidatesTokenCount: 7,
	}
	chat := &fakeChat{response: resp}
	sess := &session{id: "sess-1", chat: chat, logger: zap.NewNop()}

	result, err := sess.Send(context.Background(), "question")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "answer" {
		t.Fatalf("unexpected text: %q", result.Text)
	}
	if result.Usage == nil || result.Usage.SessionID != "sess-1" {
		t.Fatalf("expected session id on usage, got %+v", result.Usage)
	}
}

func TestSessionRejectsUseAfterClose(t *testing.T) {
	t.Parallel()

	sess := &session{id: "sess-1", chat: &fakeChat{}, logger: zap.NewNop()}
	if err := sess.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}

	if _, err := sess.Send(context.Background(), "late"); err == nil {
		t.Fatal("expected error after close")
	}
}

func TestStreamDeliversFragmentsInOrder(t *testing.T) {
	t.Parallel()

	models := &fakeModels{stream: []streamItem{
		{resp: textResponse("a")},
		{resp: textResponse("b", "c")},
	}}
	c := &Client{models: models, logger: zap.NewNop()}

	stream, err := c.GenerateStream(context.Background(), ai.Request{Prompt: "go"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer stream.Close()

	var received []string
	for {
		fragment, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		received = append(received, fragment)
	}

	if len(received) != 3 || received[0] != "a" || received[1] != "b" || received[2] != "c" {
		t.Fatalf("unexpected fragments: %v", received)
	}
}

func TestStreamSurfacesClassifiedError(t *testing.T) {
	t.Parallel()

	models := &fakeModels{stream: []streamItem{
		{resp: textResponse("a")},
		{err: genai.APIError{Code: http.StatusBadGateway, Status: "BAD_GATEWAY"}},
	}}
	c := &Client{models: models, logger: zap.NewNop()}

	stream, err := c.GenerateStream(context.Background(), ai.Request{Prompt: "go"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer stream.Close()

	if _, err := stream.Recv(); err != nil {
		t.Fatalf("unexpected error on first fragment: %v", err)
	}

	_, err = stream.Recv()
	if err == nil || errors.Is(err, io.EOF) {
		t.Fatalf("expected stream error, got %v", err)
	}
	if !ai.IsTransient(err) {
		t.Fatalf("expected transient classification, got %v", err)
	}
}

func TestBuildConfigTools(t *testing.T) {
	t.Parallel()

	cfg := buildConfig(ai.Request{
		System: "be helpful",
		Tools:  []string{"WebSearch", "code_execution", "unknown"},
	})

	if cfg.SystemInstruction == nil || cfg.SystemInstruction.Parts[0].Text != "be helpful" {
		t.Fatalf("unexpected system instruction: %+v", cfg.SystemInstruction)
	}
	if len(cfg.Tools) != 2 {
		t.Fatalf("expected 2 tools, got %d", len(cfg.Tools))
	}
	if cfg.Tools[0].GoogleSearch == nil {
		t.Fatal("expected google search tool first")
	}
	if cfg.Tools[1].CodeExecution == nil {
		t.Fatal("expected code execution tool second")
	}
}
