package fallback

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/consultorios/booking-chat/internal/funnel"
)

// ErrBackendUnavailable covers transport failures and non-2xx responses
// from the conversational backend.
var ErrBackendUnavailable = errors.New("fallback chat backend unavailable")

// Request is the wire body sent to the backend.
type Request struct {
	Mensaje  string         `json:"mensaje"`
	Contexto funnel.Context `json:"contexto"`
}

// Response is what the backend answers with. ContextoActualizado is
// optional; when present it replaces the caller's context.
type Response struct {
	Respuesta           string          `json:"respuesta"`
	Sugerencias         []string        `json:"sugerencias,omitempty"`
	ContextoActualizado *funnel.Context `json:"contexto_actualizado,omitempty"`
}

// Client forwards utterances the funnel could not interpret to the
// external conversational backend. Pure pass-through, single attempt.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Send posts the utterance and current context to the backend.
func (c *Client) Send(ctx context.Context, mensaje string, conv funnel.Context) (*Response, error) {
	body, err := json.Marshal(Request{Mensaje: mensaje, Contexto: conv})
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrBackendUnavailable, resp.StatusCode)
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrBackendUnavailable, err)
	}

	return &out, nil
}
