// Package remote calls out to a kroki-compatible rendering service.
package remote

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/oops"
	"resty.dev/v3"
)

const defaultTimeout = 15 * time.Second

// Client renders diagram sources into SVG through a remote service.
type Client struct {
	base   string
	client *resty.Client
	log    zerolog.Logger
}

// New creates a Client for the given service base URL. An empty base
// URL yields a client whose calls fail with TRANSPORT_FAILED, which
// keeps adapter fallback chains uniform.
func New(baseURL string, log zerolog.Logger) *Client {
	client := resty.New().SetTimeout(defaultTimeout)

	return &Client{
		base:   strings.TrimRight(baseURL, "/"),
		client: client,
		log:    log,
	}
}

// Available reports whether a service endpoint is configured.
func (c *Client) Available() bool {
	return c.base != ""
}

// Render posts source to the service and returns the SVG body.
// kind is the service-side diagram grammar, e.g. "mermaid" or "tikz".
func (c *Client) Render(ctx context.Context, kind, source string) (string, error) {
	if !c.Available() {
		return "", oops.
			Code("TRANSPORT_FAILED").
			With("kind", kind).
			Hint("Set remote.render_url in markvista.toml").
			Errorf("no remote render service configured")
	}

	response, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "text/plain").
		SetHeader("Accept", "image/svg+xml").
		SetBody(source).
		Post(c.base + "/" + kind + "/svg")
	if err != nil {
		return "", oops.
			Code("TRANSPORT_FAILED").
			With("kind", kind).
			With("url", c.base).
			Wrapf(err, "calling remote render service")
	}

	if response.StatusCode() != http.StatusOK {
		c.log.Debug().
			Str("kind", kind).
			Int("status", response.StatusCode()).
			Msg("remote render rejected")

		return "", oops.
			Code("TRANSPORT_FAILED").
			With("kind", kind).
			With("status", response.StatusCode()).
			Errorf("remote render service returned status %d", response.StatusCode())
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return "", oops.
			Code("TRANSPORT_FAILED").
			With("kind", kind).
			Wrapf(err, "reading remote render response")
	}

	return string(body), nil
}

// Fetch downloads an engine bundle from a plain URL.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	response, err := c.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, oops.
			Code("TRANSPORT_FAILED").
			With("url", url).
			Wrapf(err, "downloading engine bundle")
	}

	if response.StatusCode() != http.StatusOK {
		return nil, oops.
			Code("TRANSPORT_FAILED").
			With("url", url).
			With("status", response.StatusCode()).
			Errorf("bundle download returned status %d", response.StatusCode())
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, oops.
			Code("TRANSPORT_FAILED").
			With("url", url).
			Wrapf(err, "reading engine bundle")
	}

	return body, nil
}
