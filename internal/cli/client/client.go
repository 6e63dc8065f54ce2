package client

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Rauks/Minecraft-RCON-Console/internal/console"
	"github.com/Rauks/Minecraft-RCON-Console/internal/consoleconfig"
	"github.com/Rauks/Minecraft-RCON-Console/internal/server/eventbus"
)

// Client wraps REST access to the rcond API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

var _ console.Transport = (*Client)(nil)

// New creates a client with the provided base URL (e.g. http://127.0.0.1:8000).
func New(rawURL string) (*Client, error) {
	if rawURL == "" {
		rawURL = "http://127.0.0.1:8000"
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("client: parse url: %w", err)
	}
	return &Client{
		baseURL: parsed,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// HTTPError is a non-2xx answer of the API.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("client: http %d", e.StatusCode)
	}
	return fmt.Sprintf("client: http %d: %s", e.StatusCode, e.Message)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

// CommandResponse is the reply to one command.
type CommandResponse struct {
	ID      int32  `json:"id"`
	Payload string `json:"payload"`
}

// CommandEvent is one relayed command streamed by the server.
type CommandEvent = eventbus.CommandEvent

// SendCommand runs command on the game server.
func (c *Client) SendCommand(ctx context.Context, command string) (*CommandResponse, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/rcon", strings.NewReader(command))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	var resp CommandResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Send implements console.Transport.
func (c *Client) Send(ctx context.Context, command string) (string, error) {
	resp, err := c.SendCommand(ctx, command)
	if err != nil {
		return "", err
	}
	return resp.Payload, nil
}

// ConsoleConfig fetches the status rules, code tables and shortcuts.
func (c *Client) ConsoleConfig(ctx context.Context) (*consoleconfig.Config, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/console/config", nil)
	if err != nil {
		return nil, err
	}
	var cfg consoleconfig.Config
	if err := c.do(req, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("client: console config: %w", err)
	}
	return &cfg, nil
}

// Health checks that the daemon answers.
func (c *Client) Health(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// WatchCommands streams command events and invokes handler for each payload until
// the context is cancelled or the server closes the connection.
func (c *Client) WatchCommands(ctx context.Context, handler func(CommandEvent)) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/rcon/events", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	// The stream outlives the request timeout of httpClient.
	streaming := &http.Client{Transport: c.httpClient.Transport}
	resp, err := streaming.Do(req)
	if err != nil {
		return fmt.Errorf("client: watch commands: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" {
			continue
		}

		var event CommandEvent
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			return fmt.Errorf("client: decode event: %w", err)
		}
		if handler != nil {
			handler(event)
		}
	}

	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("client: event stream error: %w", err)
	}
	return ctx.Err()
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	resolved := c.baseURL.ResolveReference(&url.URL{Path: strings.TrimRight(c.baseURL.Path, "/") + path})
	if body == nil {
		body = http.NoBody
	}
	req, err := http.NewRequestWithContext(ctx, method, resolved.String(), body)
	if err != nil {
		return nil, fmt.Errorf("client: new request: %w", err)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("client: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: decode response: %w", err)
	}
	return nil
}

// decodeError reads the {"error": ...} body, falling back to the status text.
func decodeError(resp *http.Response) error {
	httpErr := &HTTPError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	var apiErr struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&apiErr); err == nil && apiErr.Error != "" {
		httpErr.Message = apiErr.Error
	}
	return httpErr
}
