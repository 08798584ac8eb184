package vision

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestAnnotateParsesRelayResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Image string `json:"image"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Image == "" {
			t.Error("image field missing from relay request")
		}

		resp := map[string]any{
			"success": true,
			"result": map[string]any{
				"textAnnotations": []map[string]any{
					{"description": "BATMAN\nVOL 1\nCOURT OF OWLS"},
				},
				"webDetection": map[string]any{
					"fullMatchingImages": []map[string]any{
						{"url": "https://images.example.com/dp/0785190217"},
					},
					"webEntities": []map[string]any{
						{"description": "Batman", "score": 0.92},
					},
				},
			},
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	annotation, err := client.Annotate(context.Background(), []byte("fake-image"))
	if err != nil {
		t.Fatalf("Annotate: %v", err)
	}

	if got := annotation.FullText(); !strings.HasPrefix(got, "BATMAN") {
		t.Errorf("unexpected full text: %q", got)
	}
	if annotation.WebDetection == nil || len(annotation.WebDetection.FullMatchingImages) != 1 {
		t.Fatalf("web detection not parsed: %+v", annotation.WebDetection)
	}
	if annotation.WebDetection.WebEntities[0].Score != 0.92 {
		t.Errorf("entity score not parsed: %+v", annotation.WebDetection.WebEntities[0])
	}
}

func TestAnnotateRelayFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"error":   "missing credentials",
		}); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	if _, err := client.Annotate(context.Background(), []byte("fake-image")); err == nil {
		t.Fatal("expected error on relay failure envelope")
	}
}

func TestAnnotateHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	if _, err := client.Annotate(context.Background(), []byte("fake-image")); err == nil {
		t.Fatal("expected error on HTTP 502")
	}
}

func TestFullTextEmptyAnnotation(t *testing.T) {
	var a *Annotation
	if a.FullText() != "" {
		t.Error("nil annotation should yield empty text")
	}
	if (&Annotation{}).FullText() != "" {
		t.Error("empty annotation should yield empty text")
	}
}
