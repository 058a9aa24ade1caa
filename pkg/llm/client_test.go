package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestChatCompletion(t *testing.T) {
	var gotReq chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "full answer"}},
			},
		})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: server.URL, Model: "test-model"})
	temp := 0.7
	answer, err := client.ChatCompletion(context.Background(), []Message{
		{Role: "system", Content: "be helpful"},
		{Role: "user", Content: "hi"},
	}, &GenerationParams{Temperature: &temp})
	if err != nil {
		t.Fatalf("ChatCompletion returned error: %v", err)
	}
	if answer != "full answer" {
		t.Fatalf("unexpected answer: %q", answer)
	}
	if gotReq.Stream {
		t.Fatal("blocking call must not set stream")
	}
	if gotReq.Model != "test-model" || len(gotReq.Messages) != 2 {
		t.Fatalf("request not forwarded: %+v", gotReq)
	}
	if gotReq.Temperature == nil || *gotReq.Temperature != 0.7 {
		t.Fatalf("temperature not forwarded: %v", gotReq.Temperature)
	}
}

func TestStreamChatCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if !req.Stream {
			t.Error("stream call must set stream=true")
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, delta := range []string{"Hello", ", ", "world"} {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", delta)
		}
		// 空增量应被跳过
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL, Model: "m"})
	var got []string
	err := client.StreamChatCompletion(context.Background(), []Message{{Role: "user", Content: "hi"}}, nil, func(delta string) error {
		got = append(got, delta)
		return nil
	})
	if err != nil {
		t.Fatalf("StreamChatCompletion returned error: %v", err)
	}
	if strings.Join(got, "") != "Hello, world" {
		t.Fatalf("unexpected deltas: %v", got)
	}
}

func TestStreamHandlerErrorAborts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for i := 0; i < 10; i++ {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":\"x\"}}]}\n\n")
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL, Model: "m"})
	abort := errors.New("client gone")
	calls := 0
	err := client.StreamChatCompletion(context.Background(), nil, nil, func(delta string) error {
		calls++
		if calls == 2 {
			return abort
		}
		return nil
	})
	if err == nil || !errors.Is(err, abort) {
		t.Fatalf("expected wrapped handler error, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("stream should stop after handler error, got %d calls", calls)
	}
}

func TestNon200Surfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL, Model: "m"})
	if _, err := client.ChatCompletion(context.Background(), nil, nil); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}
