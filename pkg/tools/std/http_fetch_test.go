package std

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTTPFetchTool(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	tool := NewHTTPFetchTool()
	out, err := tool.Execute(context.Background(), `{"url":"`+server.URL+`"}`)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out != `{"status":"ok"}` {
		t.Errorf("unexpected body: %q", out)
	}
}

func TestHTTPFetchToolRejectsBadScheme(t *testing.T) {
	tool := NewHTTPFetchTool()
	if _, err := tool.Execute(context.Background(), `{"url":"ftp://example.com/file"}`); err == nil {
		t.Fatal("expected error for non-http scheme")
	}
}

func TestHTTPFetchToolHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	tool := NewHTTPFetchTool()
	_, err := tool.Execute(context.Background(), `{"url":"`+server.URL+`"}`)
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected HTTP 404 error, got %v", err)
	}
}

func TestHTTPFetchToolTruncatesLargeBody(t *testing.T) {
	big := strings.Repeat("x", defaultFetchLimit+100)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(big))
	}))
	defer server.Close()

	tool := NewHTTPFetchTool()
	out, err := tool.Execute(context.Background(), `{"url":"`+server.URL+`"}`)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !strings.Contains(out, "TRUNCATED") {
		t.Error("expected truncation marker in oversized response")
	}
	if len(out) > defaultFetchLimit+200 {
		t.Errorf("response not truncated: %d bytes", len(out))
	}
}

func TestHTTPFetchToolRejectsBinaryContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte{0x89, 0x50, 0x4e, 0x47})
	}))
	defer server.Close()

	tool := NewHTTPFetchTool()
	if _, err := tool.Execute(context.Background(), `{"url":"`+server.URL+`"}`); err == nil {
		t.Fatal("expected error for binary content type")
	}
}
