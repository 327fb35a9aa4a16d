package hostsvc_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/markvista/markvista/internal/hostsvc"
	"github.com/rs/zerolog"
)

func TestTypesetSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/typeset" {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		var req hostsvc.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		if req.Variant != "tikz" || !strings.Contains(req.Source, "tikzpicture") {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		_, _ = w.Write([]byte(`{"success":true,"content":"<svg>done</svg>"}`))
	}))
	defer server.Close()

	client := hostsvc.New(server.URL, zerolog.Nop())

	content, err := client.Typeset(context.Background(), `\begin{tikzpicture}\end{tikzpicture}`, "tikz")
	if err != nil {
		t.Fatalf("Typeset() error = %v", err)
	}

	if content != "<svg>done</svg>" {
		t.Errorf("Typeset() = %q", content)
	}
}

func TestTypesetReportedFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error":"pdflatex exited 1"}`))
	}))
	defer server.Close()

	client := hostsvc.New(server.URL, zerolog.Nop())

	_, err := client.Typeset(context.Background(), "x", "tikz")
	if err == nil {
		t.Fatal("Typeset() should surface the host-reported failure")
	}

	if !strings.Contains(err.Error(), "pdflatex exited 1") {
		t.Errorf("error %q does not carry the host message", err)
	}
}

func TestTypesetTransportFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := hostsvc.New(server.URL, zerolog.Nop())
	if _, err := client.Typeset(context.Background(), "x", "tikz"); err == nil {
		t.Error("Typeset() should fail on a non-200 status")
	}
}

func TestTypesetUnavailable(t *testing.T) {
	client := hostsvc.New("", zerolog.Nop())

	if client.Available() {
		t.Error("Available() = true for an empty address")
	}

	if _, err := client.Typeset(context.Background(), "x", "tikz"); err == nil {
		t.Error("Typeset() should fail fast when no host service is configured")
	}
}
