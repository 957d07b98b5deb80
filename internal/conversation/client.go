// Package conversation talks to the conversation service to open a channel
// between a traveler and an agent after a match is accepted. The call is
// best-effort: the caller logs failures and never retries or rolls back.
package conversation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/howweplan/matchd/internal/config"
	"github.com/howweplan/matchd/internal/observability/tracing"
)

// Client creates conversations in the communication subsystem.
type Client interface {
	CreateConversation(ctx context.Context, requesterID, agentID, requestID snowflake.ID) error
}

type httpClient struct {
	baseURL string
	secret  string
	client  *http.Client
}

// NewHTTPClient builds the production client with a bounded timeout.
func NewHTTPClient(cfg config.Config) Client {
	timeout := cfg.Conversation.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &httpClient{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.Conversation.BaseURL), "/"),
		secret:  cfg.Conversation.SharedSecret,
		client:  tracing.WrapHTTPClient(&http.Client{Timeout: timeout}),
	}
}

type createRequest struct {
	RequesterID string `json:"requester_id"`
	AgentID     string `json:"agent_id"`
	RequestID   string `json:"request_id"`
}

func (c *httpClient) CreateConversation(ctx context.Context, requesterID, agentID, requestID snowflake.ID) error {
	if c.baseURL == "" {
		return fmt.Errorf("conversation base url not configured")
	}

	body, err := json.Marshal(createRequest{
		RequesterID: requesterID.String(),
		AgentID:     agentID.String(),
		RequestID:   requestID.String(),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/internal/v1/conversations", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.secret != "" {
		req.Header.Set("Authorization", "Bearer "+c.secret)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("conversation service returned %d", resp.StatusCode)
	}
	return nil
}

// NoopClient ignores all calls. Used when the conversation service is not
// configured and in tests.
type NoopClient struct{}

func (NoopClient) CreateConversation(context.Context, snowflake.ID, snowflake.ID, snowflake.ID) error {
	return nil
}

// Provide selects the HTTP client when a base URL is configured.
func Provide(cfg config.Config) Client {
	if strings.TrimSpace(cfg.Conversation.BaseURL) == "" {
		return NoopClient{}
	}
	return NewHTTPClient(cfg)
}
