package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestUpsertPointsRequestShape(t *testing.T) {
	var gotPath string
	var gotBody struct {
		Points []Point `json:"points"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(Config{URL: server.URL, Collection: "document_chunks"})
	points := []Point{{
		ID:     "11111111-2222-3333-4444-555555555555",
		Vector: []float32{0.1, 0.2},
		Payload: Payload{DocumentID: 42, ChunkNumber: 0, Content: "hello"},
	}}
	if err := client.UpsertPoints(context.Background(), points); err != nil {
		t.Fatalf("UpsertPoints returned error: %v", err)
	}

	if gotPath != "/collections/document_chunks/points?wait=true" {
		t.Fatalf("unexpected request path: %s", gotPath)
	}
	if len(gotBody.Points) != 1 || gotBody.Points[0].Payload.DocumentID != 42 {
		t.Fatalf("unexpected upsert body: %+v", gotBody)
	}
}

func TestSearchSendsDocumentFilter(t *testing.T) {
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/document_chunks/points/search" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"result": []map[string]interface{}{
				{"id": "v1", "score": 0.93, "payload": map[string]interface{}{
					"document_id": 7, "chunk_number": 2, "content": "match",
				}},
			},
		})
	}))
	defer server.Close()

	client := NewClient(Config{URL: server.URL, Collection: "document_chunks"})
	hits, err := client.Search(context.Background(), []float32{1, 0}, 7, 3)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "v1" || hits[0].Score != 0.93 {
		t.Fatalf("unexpected hits: %+v", hits)
	}
	if hits[0].Payload.Content != "match" || hits[0].Payload.ChunkNumber != 2 {
		t.Fatalf("payload not decoded: %+v", hits[0].Payload)
	}

	if gotBody["limit"].(float64) != 3 {
		t.Fatalf("limit not sent: %v", gotBody["limit"])
	}
	filter := gotBody["filter"].(map[string]interface{})
	must := filter["must"].([]interface{})[0].(map[string]interface{})
	if must["key"] != "document_id" {
		t.Fatalf("filter key missing: %v", must)
	}
	if must["match"].(map[string]interface{})["value"].(float64) != 7 {
		t.Fatalf("filter value missing: %v", must)
	}
}

func TestSearchAPIKeyHeader(t *testing.T) {
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("api-key")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"result": []interface{}{}})
	}))
	defer server.Close()

	client := NewClient(Config{URL: server.URL, APIKey: "secret", Collection: "c"})
	if _, err := client.Search(context.Background(), []float32{1}, 1, 1); err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if gotKey != "secret" {
		t.Fatalf("api-key header not set, got %q", gotKey)
	}
}

func TestDeletePointsEmptyIsNoop(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := NewClient(Config{URL: server.URL, Collection: "c"})
	if err := client.DeletePoints(context.Background(), nil); err != nil {
		t.Fatalf("DeletePoints returned error: %v", err)
	}
	if called {
		t.Fatal("no request should be sent for empty id list")
	}
}

func TestEnsureCollectionRejectsInvalidDimension(t *testing.T) {
	client := NewClient(Config{URL: "http://127.0.0.1:1", Collection: "c"})
	if err := client.EnsureCollection(context.Background(), 0); err == nil {
		t.Fatal("expected error for zero dimension")
	}
}

func TestErrorStatusSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad collection", http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(Config{URL: server.URL, Collection: "c"})
	if err := client.UpsertPoints(context.Background(), []Point{{ID: "x"}}); err == nil {
		t.Fatal("expected error for 400 response")
	}
}
