// Package faq asks the retrieval service product questions on behalf of
// the agent.
package faq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/muzaffarq/paygent/internal/logging"
)

const defaultTimeout = 30 * time.Second

// Client calls the retrieval service's question endpoint.
type Client struct {
	baseURL   string
	token     string
	projectID string
	http      *http.Client
	log       *logging.Logger
}

// NewClient creates a FAQ client. The token and project id identify this
// deployment to the retrieval service.
func NewClient(baseURL, token, projectID string, timeout time.Duration, log *logging.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:   baseURL,
		token:     token,
		projectID: projectID,
		http:      &http.Client{Timeout: timeout},
		log:       log.Sub("faq"),
	}
}

// Ask sends the question and returns the service's answer payload as-is.
func (c *Client) Ask(ctx context.Context, question string) (json.RawMessage, error) {
	payload, err := json.Marshal(map[string]string{
		"project_id": c.projectID,
		"question":   question,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rag/ask_question", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("faq service error (%d): %s", resp.StatusCode, string(body))
	}

	c.log.Debug().Int("answer_bytes", len(body)).Msg("faq answered")
	return json.RawMessage(body), nil
}
