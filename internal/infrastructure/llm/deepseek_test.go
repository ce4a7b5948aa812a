package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"NewsPipeline/internal/config"
)

func testConfig(endpoint string) config.DeepSeekConfig {
	return config.DeepSeekConfig{
		Endpoint:    endpoint,
		Model:       "deepseek-chat",
		APIKey:      "secret",
		Temperature: 0.3,
	}
}

func TestSummarizeSendsChatCompletion(t *testing.T) {
	t.Parallel()

	var captured struct {
		auth    string
		payload map[string]any
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.auth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured.payload); err != nil {
			t.Errorf("unmarshal request: %v", err)
		}
		io.WriteString(w, `{"choices":[{"message":{"content":"  今日要闻摘要  "}}]}`)
	}))
	t.Cleanup(srv.Close)

	client := NewDeepSeekClient(testConfig(srv.URL))
	summary, err := client.Summarize(context.Background(), "20250408-0101.md", []byte("# 标题\n\n正文"))
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}

	if string(summary) != "今日要闻摘要\n" {
		t.Fatalf("expected trimmed summary with trailing newline, got %q", summary)
	}
	if captured.auth != "Bearer secret" {
		t.Fatalf("expected bearer auth, got %q", captured.auth)
	}
	if captured.payload["model"] != "deepseek-chat" {
		t.Fatalf("unexpected model %v", captured.payload["model"])
	}
	if captured.payload["stream"] != false {
		t.Fatalf("streaming must be disabled, got %v", captured.payload["stream"])
	}
	messages, ok := captured.payload["messages"].([]any)
	if !ok || len(messages) != 2 {
		t.Fatalf("expected system+user messages, got %v", captured.payload["messages"])
	}
}

func TestSummarizeAPIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"insufficient quota"}`, http.StatusPaymentRequired)
	}))
	t.Cleanup(srv.Close)

	client := NewDeepSeekClient(testConfig(srv.URL))
	_, err := client.Summarize(context.Background(), "20250408-0101.md", []byte("正文"))
	if err == nil || !strings.Contains(err.Error(), "insufficient quota") {
		t.Fatalf("expected API error detail, got %v", err)
	}
}

func TestSummarizeEmptyChoices(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `{"choices":[]}`)
	}))
	t.Cleanup(srv.Close)

	client := NewDeepSeekClient(testConfig(srv.URL))
	if _, err := client.Summarize(context.Background(), "20250408-0101.md", []byte("正文")); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestSummarizeMisconfigured(t *testing.T) {
	t.Parallel()

	client := NewDeepSeekClient(config.DeepSeekConfig{Endpoint: "http://example.invalid"})
	if _, err := client.Summarize(context.Background(), "20250408-0101.md", []byte("正文")); err == nil {
		t.Fatal("expected error without an API key")
	}
}
