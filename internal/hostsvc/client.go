// Package hostsvc talks to the privileged typesetting service exposed
// by the host application process. The boundary carries only document
// source and rendered markup; content coming back is sanitized by the
// adapters exactly like content from the remote path.
package hostsvc

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/oops"
	"github.com/tidwall/gjson"
	"resty.dev/v3"
)

const defaultTimeout = 30 * time.Second

// Request is the wire form of one typeset call.
type Request struct {
	Source  string `json:"source"`
	Variant string `json:"variant"`
}

// Client invokes the host typeset service over its local endpoint.
type Client struct {
	address string
	client  *resty.Client
	log     zerolog.Logger
}

// New creates a Client for the host service address. An empty address
// means the host did not expose a service; Typeset then fails fast so
// adapters move on to their fallback.
func New(address string, log zerolog.Logger) *Client {
	client := resty.New().SetTimeout(defaultTimeout)

	return &Client{
		address: strings.TrimRight(address, "/"),
		client:  client,
		log:     log,
	}
}

// Available reports whether a host service endpoint is configured.
func (c *Client) Available() bool {
	return c.address != ""
}

// Typeset submits source with a variant flag and returns the rendered
// markup produced by the host process.
func (c *Client) Typeset(ctx context.Context, source, variant string) (string, error) {
	if !c.Available() {
		return "", oops.
			Code("TRANSPORT_FAILED").
			With("variant", variant).
			Errorf("host typeset service is not available")
	}

	response, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(Request{Source: source, Variant: variant}).
		Post(c.address + "/typeset")
	if err != nil {
		return "", oops.
			Code("TRANSPORT_FAILED").
			With("variant", variant).
			Wrapf(err, "calling host typeset service")
	}

	if response.StatusCode() != http.StatusOK {
		return "", oops.
			Code("TRANSPORT_FAILED").
			With("variant", variant).
			With("status", response.StatusCode()).
			Errorf("host typeset service returned status %d", response.StatusCode())
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return "", oops.
			Code("TRANSPORT_FAILED").
			With("variant", variant).
			Wrapf(err, "reading host typeset response")
	}

	parsed := gjson.ParseBytes(body)
	if !parsed.Get("success").Bool() {
		message := parsed.Get("error").String()
		if message == "" {
			message = "host typeset service reported failure"
		}

		c.log.Debug().Str("variant", variant).Str("error", message).Msg("host typeset failed")

		return "", oops.
			Code("TRANSPORT_FAILED").
			With("variant", variant).
			Errorf("%s", message)
	}

	return parsed.Get("content").String(), nil
}
