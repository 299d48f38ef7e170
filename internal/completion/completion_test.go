package completion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// TestNew tests provider selection.
func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "anthropic",
			cfg:     Config{Provider: "anthropic", APIKey: "sk-ant-test123"},
			wantErr: false,
		},
		{
			name:    "openai",
			cfg:     Config{Provider: "openai", APIKey: "sk-test123"},
			wantErr: false,
		},
		{
			name:    "empty provider defaults to anthropic",
			cfg:     Config{APIKey: "sk-ant-test123"},
			wantErr: false,
		},
		{
			name:    "mixed case provider",
			cfg:     Config{Provider: "Anthropic", APIKey: "sk-ant-test123"},
			wantErr: false,
		},
		{
			name:    "unknown provider",
			cfg:     Config{Provider: "cohere", APIKey: "key"},
			wantErr: true,
		},
		{
			name:    "missing API key",
			cfg:     Config{Provider: "anthropic"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && client == nil {
				t.Error("New() returned nil client")
			}
		})
	}
}

// TestAnthropicClient_Invoke tests the Anthropic client with a mock server.
func TestAnthropicClient_Invoke(t *testing.T) {
	tests := []struct {
		name           string
		serverResponse string
		statusCode     int
		wantErr        bool
		wantText       string
	}{
		{
			name: "successful completion",
			serverResponse: `{
				"id": "msg_123",
				"type": "message",
				"role": "assistant",
				"content": [{
					"type": "text",
					"text": "{\"score\": 7}"
				}],
				"usage": {"input_tokens": 120, "output_tokens": 14},
				"stop_reason": "end_turn"
			}`,
			statusCode: http.StatusOK,
			wantErr:    false,
			wantText:   `{"score": 7}`,
		},
		{
			name: "unauthorized error",
			serverResponse: `{
				"type": "error",
				"error": {
					"type": "authentication_error",
					"message": "Invalid API key"
				}
			}`,
			statusCode: http.StatusUnauthorized,
			wantErr:    true,
		},
		{
			name: "empty content",
			serverResponse: `{
				"id": "msg_123",
				"type": "message",
				"role": "assistant",
				"content": []
			}`,
			statusCode: http.StatusOK,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("X-API-Key") == "" {
					t.Error("Missing X-API-Key header")
				}
				if r.Header.Get("Content-Type") != "application/json" {
					t.Error("Missing Content-Type header")
				}
				if r.Header.Get("Anthropic-Version") != anthropicVersion {
					t.Error("Missing or incorrect Anthropic-Version header")
				}

				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.serverResponse))
			}))
			defer server.Close()

			client, err := newAnthropicClient(Config{
				APIKey:  "sk-ant-test123",
				BaseURL: server.URL,
			})
			if err != nil {
				t.Fatalf("Failed to create client: %v", err)
			}

			res, err := client.Invoke(context.Background(), Prompt{System: "reviewer", User: "paper"}, Options{})
			if (err != nil) != tt.wantErr {
				t.Errorf("Invoke() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr {
				if res.Text != tt.wantText {
					t.Errorf("Invoke() text = %q, want %q", res.Text, tt.wantText)
				}
				if res.InputTokens != 120 || res.OutputTokens != 14 {
					t.Errorf("Invoke() tokens = %d/%d, want 120/14", res.InputTokens, res.OutputTokens)
				}
			}
		})
	}
}

// TestAnthropicClient_RequestShape verifies the outgoing payload carries the
// system prompt, the user content and per-call option overrides.
func TestAnthropicClient_RequestShape(t *testing.T) {
	var got anthropicRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"ok"}],"usage":{"input_tokens":1,"output_tokens":1}}`))
	}))
	defer server.Close()

	client, err := newAnthropicClient(Config{
		APIKey:  "sk-ant-test123",
		BaseURL: server.URL,
		Model:   "claude-3-5-sonnet-20241022",
	})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	_, err = client.Invoke(context.Background(),
		Prompt{System: "You are the Theorist.", User: "## Abstract\n..."},
		Options{MaxTokens: 700, Temperature: 0.1})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}

	if got.Model != "claude-3-5-sonnet-20241022" {
		t.Errorf("model = %q", got.Model)
	}
	if got.System != "You are the Theorist." {
		t.Errorf("system = %q", got.System)
	}
	if got.MaxTokens != 700 {
		t.Errorf("max_tokens = %d, want 700", got.MaxTokens)
	}
	if got.Temperature != 0.1 {
		t.Errorf("temperature = %v, want 0.1", got.Temperature)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" {
		t.Fatalf("messages = %+v, want single user message", got.Messages)
	}
	if !strings.Contains(got.Messages[0].Content, "## Abstract") {
		t.Errorf("user content missing prompt body: %q", got.Messages[0].Content)
	}
}

// TestAnthropicClient_RateLimited verifies 429 maps to ErrRateLimited.
func TestAnthropicClient_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"quota exhausted"}}`))
	}))
	defer server.Close()

	client, err := newAnthropicClient(Config{APIKey: "sk-ant-test123", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	_, err = client.Invoke(context.Background(), Prompt{User: "hi"}, Options{})
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("Invoke() error = %v, want ErrRateLimited", err)
	}
	if err == nil || !strings.Contains(err.Error(), "quota exhausted") {
		t.Errorf("Invoke() error %v should carry the API message", err)
	}
}

// TestAnthropicClient_Timeout verifies slow upstreams map to ErrTimeout.
func TestAnthropicClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"late"}]}`))
	}))
	defer server.Close()

	client, err := newAnthropicClient(Config{
		APIKey:  "sk-ant-test123",
		BaseURL: server.URL,
		Timeout: 50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	_, err = client.Invoke(context.Background(), Prompt{User: "hi"}, Options{})
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("Invoke() error = %v, want ErrTimeout", err)
	}
}

// TestAnthropicClient_NoRetries verifies a failed call makes exactly one
// upstream attempt.
func TestAnthropicClient_NoRetries(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"api_error","message":"overloaded"}}`))
	}))
	defer server.Close()

	client, err := newAnthropicClient(Config{APIKey: "sk-ant-test123", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	_, err = client.Invoke(context.Background(), Prompt{User: "hi"}, Options{})
	if err == nil {
		t.Fatal("Invoke() expected error for 500 response")
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrRateLimited) {
		t.Errorf("Invoke() error = %v, want generic upstream error", err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("upstream attempts = %d, want 1", n)
	}
}

// TestOpenAIClient_Invoke tests the OpenAI client with a mock server.
func TestOpenAIClient_Invoke(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			t.Error("Missing Authorization bearer header")
		}
		var req openAIRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
			t.Errorf("messages = %+v, want system then user", req.Messages)
		}

		_, _ = w.Write([]byte(`{
			"choices": [{"message": {"content": "{\"isInformal\": false}"}}],
			"usage": {"prompt_tokens": 42, "completion_tokens": 7}
		}`))
	}))
	defer server.Close()

	client, err := newOpenAIClient(Config{APIKey: "sk-test123", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	res, err := client.Invoke(context.Background(), Prompt{System: "editor", User: "check this"}, Options{})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if res.Text != `{"isInformal": false}` {
		t.Errorf("Invoke() text = %q", res.Text)
	}
	if res.InputTokens != 42 || res.OutputTokens != 7 {
		t.Errorf("Invoke() tokens = %d/%d, want 42/7", res.InputTokens, res.OutputTokens)
	}
}

// TestOpenAIClient_RateLimited verifies 429 maps to ErrRateLimited.
func TestOpenAIClient_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached","type":"tokens"}}`))
	}))
	defer server.Close()

	client, err := newOpenAIClient(Config{APIKey: "sk-test123", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	_, err = client.Invoke(context.Background(), Prompt{User: "hi"}, Options{})
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("Invoke() error = %v, want ErrRateLimited", err)
	}
}

// TestOpenAIClient_OmitsEmptySystemMessage verifies prompts without a system
// section send a single user message.
func TestOpenAIClient_OmitsEmptySystemMessage(t *testing.T) {
	var req openAIRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer server.Close()

	client, err := newOpenAIClient(Config{APIKey: "sk-test123", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	if _, err := client.Invoke(context.Background(), Prompt{User: "just this"}, Options{}); err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
		t.Errorf("messages = %+v, want single user message", req.Messages)
	}
}

// TestClassifyTransport tests the transport error taxonomy.
func TestClassifyTransport(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "context deadline",
			err:  fmt.Errorf("do request: %w", context.DeadlineExceeded),
			want: ErrTimeout,
		},
		{
			name: "context canceled passes through",
			err:  fmt.Errorf("do request: %w", context.Canceled),
			want: context.Canceled,
		},
		{
			name: "plain transport failure",
			err:  errors.New("connection refused"),
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyTransport(tt.err)
			if got == nil {
				t.Fatal("classifyTransport() returned nil")
			}
			if tt.want != nil && !errors.Is(got, tt.want) {
				t.Errorf("classifyTransport() = %v, want %v", got, tt.want)
			}
			if tt.want == nil {
				if errors.Is(got, ErrTimeout) || errors.Is(got, ErrRateLimited) {
					t.Errorf("classifyTransport() = %v, want generic error", got)
				}
			}
		})
	}
}

// TestOutcomeLabel tests metric label bucketing.
func TestOutcomeLabel(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{fmt.Errorf("call: %w", ErrTimeout), "timeout"},
		{fmt.Errorf("call: %w", ErrRateLimited), "rate_limited"},
		{errors.New("boom"), "error"},
	}

	for _, tt := range tests {
		if got := outcomeLabel(tt.err); got != tt.want {
			t.Errorf("outcomeLabel(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
