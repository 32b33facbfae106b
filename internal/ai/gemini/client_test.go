package gemini

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

type fakeChatCreator struct {
	mu    sync.Mutex
	calls []chatCallRecord
	queue map[string][]fakeChatResponse
}

type chatCallRecord struct {
	model  string
	config *genai.GenerateContentConfig
	chat   *fakeChat
}

type fakeChatResponse struct {
	resp *genai.GenerateContentResponse
	err  error
}

type fakeChat struct {
	mu       sync.Mutex
	response fakeChatResponse
	messages []string
}

func (f *fakeChat) SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, part := range parts {
		f.messages = append(f.messages, part.Text)
	}
	return f.response.resp, f.response.err
}

func newFakeChatCreator() *fakeChatCreator {
	return &fakeChatCreator{queue: make(map[string][]fakeChatResponse)}
}

func (f *fakeChatCreator) enqueue(model string, resp *genai.GenerateContentResponse, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue[model] = append(f.queue[model], fakeChatResponse{resp: resp, err: err})
}

func (f *fakeChatCreator) Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	responses := f.queue[model]
	if len(responses) == 0 {
		return nil, errors.New("unexpected call")
	}
	res := responses[0]
	f.queue[model] = responses[1:]
	chat := &fakeChat{response: res}
	f.calls = append(f.calls, chatCallRecord{model: model, config: config, chat: chat})
	return chat, nil
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func noWait(t *testing.T) {
	t.Helper()
	originalWait := waitFor
	waitFor = func(context.Context, time.Duration) error { return nil }
	t.Cleanup(func() { waitFor = originalWait })
}

func TestGeneratorRetryPolicy(t *testing.T) {
	noWait(t)

	internal := genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"}
	tests := []struct {
		name       string
		maxRetries int
		responses  []fakeChatResponse
		expect     string
		wantErr    bool
		calls      int
	}{
		{
			name:       "temporary error then success",
			maxRetries: 2,
			responses:  []fakeChatResponse{{err: internal}, {resp: textResponse("retry ok")}},
			expect:     "retry ok",
			calls:      2,
		},
		{
			name:       "retries exhausted",
			maxRetries: 2,
			responses:  []fakeChatResponse{{err: internal}, {err: internal}},
			wantErr:    true,
			calls:      2,
		},
		{
			name:       "long quota delay is not retried",
			maxRetries: 3,
			responses: []fakeChatResponse{{err: genai.APIError{
				Code:    http.StatusTooManyRequests,
				Status:  "RESOURCE_EXHAUSTED",
				Message: "quota exhausted, retry after 60 seconds",
			}}},
			wantErr: true,
			calls:   1,
		},
		{
			name:       "client error is not retried",
			maxRetries: 3,
			responses:  []fakeChatResponse{{err: genai.APIError{Code: http.StatusBadRequest, Status: "INVALID_ARGUMENT"}}},
			wantErr:    true,
			calls:      1,
		},
		{
			name:       "pointer api error is retried",
			maxRetries: 2,
			responses:  []fakeChatResponse{{err: &genai.APIError{Code: http.StatusBadGateway}}, {resp: textResponse("ok")}},
			expect:     "ok",
			calls:      2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chats := newFakeChatCreator()
			for _, r := range tt.responses {
				chats.enqueue("gemini-pro", r.resp, r.err)
			}

			g := &Generator{chats: chats, model: "gemini-pro", maxRetries: tt.maxRetries, logger: zap.NewNop()}
			output, err := g.GenerateContent(context.Background(), "system", "message")
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if output != tt.expect {
				t.Fatalf("unexpected output: %q", output)
			}
			if len(chats.calls) != tt.calls {
				t.Fatalf("expected %d calls, got %d", tt.calls, len(chats.calls))
			}

			for _, call := range chats.calls {
				if call.config == nil || call.config.SystemInstruction == nil {
					t.Fatalf("expected system instruction to be set")
				}
				if got := call.config.SystemInstruction.Parts[0].Text; got != "system" {
					t.Fatalf("unexpected system instruction: %q", got)
				}
				if len(call.chat.messages) != 1 || call.chat.messages[0] != "message" {
					t.Fatalf("unexpected chat message: %+v", call.chat.messages)
				}
			}
		})
	}
}

func TestGeneratorWaitsLinearlyBetweenAttempts(t *testing.T) {
	var delays []time.Duration
	originalWait := waitFor
	waitFor = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	defer func() { waitFor = originalWait }()

	chats := newFakeChatCreator()
	chats.enqueue("gemini-pro", nil, genai.APIError{Code: http.StatusServiceUnavailable})
	chats.enqueue("gemini-pro", nil, genai.APIError{Code: http.StatusTooManyRequests, Message: "retry in 5s"})
	chats.enqueue("gemini-pro", textResponse("done"), nil)

	g := &Generator{
		chats:      chats,
		model:      "gemini-pro",
		maxRetries: 3,
		retryDelay: time.Second,
		logger:     zap.NewNop(),
	}

	if _, err := g.GenerateContent(context.Background(), "", "msg"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(delays) != 2 || delays[0] != time.Second || delays[1] != 5*time.Second {
		t.Fatalf("unexpected delays: %v", delays)
	}
	if chats.calls[0].config.SystemInstruction != nil {
		t.Fatalf("expected no system instruction for empty system prompt")
	}
}

func TestGeneratorStopsWhenContextCancelled(t *testing.T) {
	originalWait := waitFor
	waitFor = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	defer func() { waitFor = originalWait }()

	chats := newFakeChatCreator()
	chats.enqueue("gemini-pro", nil, genai.APIError{Code: http.StatusInternalServerError})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := &Generator{chats: chats, model: "gemini-pro", maxRetries: 3, logger: zap.NewNop()}
	if _, err := g.GenerateContent(ctx, "sys", "msg"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}

func TestGeneratorRejectsEmptyMessage(t *testing.T) {
	g := &Generator{chats: newFakeChatCreator(), model: "gemini-pro", maxRetries: 1}
	if _, err := g.GenerateContent(context.Background(), "sys", "  "); err == nil {
		t.Fatal("expected error for empty message")
	}
}
