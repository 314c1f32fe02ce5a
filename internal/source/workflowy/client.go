// Package workflowy is the HTTP transport for the outline content source:
// authenticate once, then download the node tree of a shared document.
package workflowy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"brainlift_tracker/internal/domain"
)

// Config holds content source configuration.
type Config struct {
	BaseURL        string
	Username       string
	Password       string
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Client downloads outline trees with bounded retry and exponential backoff.
type Client struct {
	httpClient *http.Client
	baseURL    string
	username   string
	password   string

	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:        cfg.BaseURL,
		username:       cfg.Username,
		password:       cfg.Password,
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		logger:         logger.With("component", "workflowy"),
	}
}

// Authenticate logs in and returns an opaque session token for subsequent
// tree fetches.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"username": c.username,
		"password": c.password,
	})
	if err != nil {
		return "", fmt.Errorf("marshal credentials: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("auth failed with status %d", resp.StatusCode)
	}

	var auth authResponse
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return "", fmt.Errorf("decode auth response: %w", err)
	}
	if auth.SessionID == "" {
		return "", fmt.Errorf("auth response missing session id: %s", auth.Error)
	}
	return auth.SessionID, nil
}

// FetchTree downloads the full node list of one shared document.
func (c *Client) FetchTree(ctx context.Context, session, shareID string) ([]domain.Node, error) {
	endpoint := fmt.Sprintf("%s/get_tree_data?share_id=%s", c.baseURL, url.QueryEscape(shareID))

	var tree treeDataResponse
	if err := c.getWithRetry(ctx, session, endpoint, &tree); err != nil {
		return nil, fmt.Errorf("fetch tree %s: %w", shareID, err)
	}

	nodes := make([]domain.Node, 0, len(tree.Items))
	for _, item := range tree.Items {
		if item.ID == "" {
			c.logger.Warn("skipping tree item without id", "share_id", shareID, "name", item.Name)
			continue
		}
		nodes = append(nodes, domain.Node{
			ID:       item.ID,
			Name:     item.Name,
			ParentID: item.ParentID,
			Note:     item.Note,
			Order:    item.Priority,
		})
	}
	return nodes, nil
}

// ResolveAuxShareID resolves the auxiliary/nested project share id referenced
// by the root document, returning the root share id itself when none exists.
func (c *Client) ResolveAuxShareID(ctx context.Context, session, rootShareID string) (string, error) {
	endpoint := fmt.Sprintf("%s/get_initialization_data?share_id=%s", c.baseURL, url.QueryEscape(rootShareID))

	var init initializationResponse
	if err := c.getWithRetry(ctx, session, endpoint, &init); err != nil {
		return "", fmt.Errorf("resolve aux share id for %s: %w", rootShareID, err)
	}
	if len(init.AuxiliaryShareIDs) == 0 {
		return rootShareID, nil
	}
	return init.AuxiliaryShareIDs[0], nil
}

func (c *Client) getWithRetry(ctx context.Context, session, endpoint string, out any) error {
	var err error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		err = c.doGet(ctx, session, endpoint, out)
		if err == nil {
			return nil
		}

		if attempt == c.maxAttempts {
			break
		}

		backoff := c.calculateBackoff(attempt)
		c.logger.Warn("request failed, retrying",
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("after %d attempts: %w", c.maxAttempts, err)
}

func (c *Client) doGet(ctx context.Context, session, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cookie", "sessionid="+session)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := c.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if backoff > c.maxBackoff {
		backoff = c.maxBackoff
	}
	return backoff
}
