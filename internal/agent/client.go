package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	sendPromptPath = "/send_prompt"
	defaultTimeout = 20 * time.Second
	maxOutputBytes = 1 << 20
)

// HTTPClient talks to agents over their /send_prompt endpoint.
type HTTPClient struct {
	httpClient *http.Client
	timeout    time.Duration
}

type HTTPClientConfig struct {
	// Timeout bounds each call, including reading the reply.
	Timeout time.Duration
	// Transport is optional; nil uses http.DefaultTransport.
	Transport http.RoundTripper
}

func NewHTTPClient(cfg HTTPClientConfig) *HTTPClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPClient{
		httpClient: &http.Client{Transport: cfg.Transport},
		timeout:    timeout,
	}
}

type sendPromptRequest struct {
	Prompt string `json:"prompt"`
}

func (c *HTTPClient) Invoke(ctx context.Context, endpoint string, in Instruction) PhaseResult {
	logger := zerolog.Ctx(ctx).With().
		Str("action", string(in.Action)).
		Str("chain", in.Chain).
		Str("endpoint", endpoint).
		Logger()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, truncated, err := c.send(ctx, endpoint, in)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("agent call timed out after %s: %w", c.timeout, err)
		}
		logger.Warn().Err(err).Msg("agent call failed")
		return PhaseResult{Success: false, ErrorMessage: err.Error()}
	}

	if truncated {
		logger.Warn().Bool("truncated", true).Int("output_bytes", len(out)).Msg("agent output cut at size limit")
	} else {
		logger.Debug().Int("output_bytes", len(out)).Msg("agent call completed")
	}
	return PhaseResult{Success: true, RawOutput: out}
}

// send reports whether the reply was cut at maxOutputBytes.
func (c *HTTPClient) send(ctx context.Context, endpoint string, in Instruction) (string, bool, error) {
	body, err := json.Marshal(sendPromptRequest{Prompt: in.Prompt()})
	if err != nil {
		return "", false, fmt.Errorf("encode prompt: %w", err)
	}

	url := strings.TrimRight(endpoint, "/") + sendPromptPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("build agent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if id := RequestIDFrom(ctx); id != "" {
		req.Header.Set("X-Request-Id", id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("call agent %s: %w", url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxOutputBytes+1))
	if err != nil {
		return "", false, fmt.Errorf("read agent response: %w", err)
	}
	truncated := len(raw) > maxOutputBytes
	if truncated {
		raw = raw[:maxOutputBytes]
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := strings.TrimSpace(string(raw))
		if len(snippet) > 256 {
			snippet = snippet[:256] + "..."
		}
		return "", false, fmt.Errorf("agent %s returned status %d: %s", url, resp.StatusCode, snippet)
	}
	return string(raw), truncated, nil
}
