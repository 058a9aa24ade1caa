package tika

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestExtractText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/tika" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if accept := r.Header.Get("Accept"); accept != "text/plain" {
			t.Errorf("unexpected Accept header: %s", accept)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != "%PDF-1.7 raw bytes" {
			t.Errorf("file body not forwarded: %q", body)
		}
		io.WriteString(w, "extracted text")
	}))
	defer server.Close()

	client := NewClient(server.URL)
	text, err := client.ExtractText(strings.NewReader("%PDF-1.7 raw bytes"))
	if err != nil {
		t.Fatalf("ExtractText returned error: %v", err)
	}
	if text != "extracted text" {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestExtractTextServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unprocessable", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.ExtractText(strings.NewReader("broken")); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}
