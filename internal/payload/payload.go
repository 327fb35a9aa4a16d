// Package payload provides the reversible text-safe encoding used to
// carry verbatim block bodies inside markup attributes.
package payload

import (
	"net/url"

	"github.com/samber/oops"
)

// Encode percent-encodes a block body so it survives embedding as a
// markup attribute value. Decode(Encode(x)) == x for every valid body,
// including embedded quotes and newlines.
func Encode(body string) string {
	return url.QueryEscape(body)
}

// Decode reverses Encode.
func Decode(encoded string) (string, error) {
	decoded, err := url.QueryUnescape(encoded)
	if err != nil {
		return "", oops.
			Code("CONTENT_INVALID").
			With("encoded", encoded).
			Wrapf(err, "decoding placeholder payload")
	}

	return decoded, nil
}
