package dispatch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// HTTPTransport POSTs each command to base + escaped command path.
// "sounds/Hey, geh weg!/play" becomes ".../sounds/Hey%2C%20geh%20weg%21/play".
// Any status other than 200 is a failure.
type HTTPTransport struct {
	base   string
	client *http.Client
}

// NewHTTPTransport creates a transport posting below base
// (for example "http://127.0.0.1:3000/api/v0/").
func NewHTTPTransport(base string) *HTTPTransport {
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return &HTTPTransport{base: base, client: &http.Client{}}
}

// Send delivers one command.
func (h *HTTPTransport) Send(ctx context.Context, command string) error {
	target := h.base + EscapePath(command)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", target, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned %s", ErrNotAcknowledged, target, resp.Status)
	}
	return nil
}

// EscapePath percent-encodes every segment of a command and keeps the
// slashes between them.
func EscapePath(command string) string {
	segments := strings.Split(command, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
