package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jmahrt/portfolio/internal/domain"
)

const defaultRemoteTimeout = 30 * time.Second

// RemoteClient talks to a running portfolio server over HTTP.
type RemoteClient struct {
	baseURL string
	http    *http.Client
}

// NewRemoteClient targets baseURL, e.g. "http://localhost:8080". A nil client
// gets a 30 second timeout.
func NewRemoteClient(baseURL string, client *http.Client) *RemoteClient {
	if client == nil {
		client = &http.Client{Timeout: defaultRemoteTimeout}
	}
	return &RemoteClient{baseURL: strings.TrimRight(baseURL, "/"), http: client}
}

type chatRequest struct {
	Messages []domain.Message `json:"messages"`
}

type chatResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

// Respond posts conv to /api/chat. The endpoint replies in one piece so
// onPartial is not used.
func (c *RemoteClient) Respond(ctx context.Context, conv []domain.Message, _ PartialFunc) (string, error) {
	body, err := json.Marshal(chatRequest{Messages: conv})
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out chatResponse
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	if out.Response == "" {
		return "", fmt.Errorf("chat endpoint returned no response")
	}
	return out.Response, nil
}

// Projects fetches the public project list.
func (c *RemoteClient) Projects(ctx context.Context) ([]domain.Project, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/projects", nil)
	if err != nil {
		return nil, fmt.Errorf("build projects request: %w", err)
	}
	var out []domain.Project
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RemoteClient) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}
