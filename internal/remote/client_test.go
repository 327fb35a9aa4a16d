package remote_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/markvista/markvista/internal/remote"
	"github.com/rs/zerolog"
)

func TestRenderPostsSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/mermaid/svg" {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		body, _ := io.ReadAll(r.Body)
		if string(body) != "graph TD\nA-->B" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		_, _ = w.Write([]byte("<svg>ok</svg>"))
	}))
	defer server.Close()

	client := remote.New(server.URL, zerolog.Nop())

	svg, err := client.Render(context.Background(), "mermaid", "graph TD\nA-->B")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if svg != "<svg>ok</svg>" {
		t.Errorf("Render() = %q", svg)
	}
}

func TestRenderNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := remote.New(server.URL, zerolog.Nop())
	if _, err := client.Render(context.Background(), "mermaid", "x"); err == nil {
		t.Error("Render() should fail on a non-200 status")
	}
}

func TestRenderUnconfigured(t *testing.T) {
	client := remote.New("", zerolog.Nop())

	if client.Available() {
		t.Error("Available() = true for an empty base URL")
	}

	if _, err := client.Render(context.Background(), "mermaid", "x"); err == nil {
		t.Error("Render() should fail when no service is configured")
	}
}

func TestFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bundle.js" {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		_, _ = w.Write([]byte("/*! engine */"))
	}))
	defer server.Close()

	client := remote.New("", zerolog.Nop())

	bundle, err := client.Fetch(context.Background(), server.URL+"/bundle.js")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if string(bundle) != "/*! engine */" {
		t.Errorf("Fetch() = %q", bundle)
	}

	if _, err := client.Fetch(context.Background(), server.URL+"/missing.js"); err == nil {
		t.Error("Fetch() should fail on 404")
	}
}
