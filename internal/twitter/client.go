// Package twitter is the HTTP client for the posting backend. Every call
// carries the API key header; non-2xx responses are decoded into an APIError
// with the body detail. Retry policy is deliberately absent here: a rejected
// call is a posting failure, handled by the sequencer's state machine.
package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Config holds posting backend configuration.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// APIError is a non-2xx response from the posting backend.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("posting api status %d: %s", e.StatusCode, e.Detail)
}

// Client implements the posting API contract.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		logger:  logger.With("component", "twitter"),
	}
}

type createTweetRequest struct {
	Text      string `json:"text"`
	AccountID string `json:"account_id"`
}

type createTweetResponse struct {
	ID string `json:"id"`
}

type createThreadRequest struct {
	Texts     []string `json:"texts"`
	AccountID string   `json:"account_id"`
}

type createThreadResponse struct {
	ThreadID string   `json:"thread_id"`
	TweetIDs []string `json:"tweet_ids"`
}

type postThreadResponse struct {
	Posted int `json:"posted"`
	Failed int `json:"failed"`
}

// CreateTweet stores a single tweet and returns its id.
func (c *Client) CreateTweet(ctx context.Context, text, accountID string) (string, error) {
	var resp createTweetResponse
	err := c.do(ctx, http.MethodPost, "/api/tweets", createTweetRequest{
		Text:      text,
		AccountID: accountID,
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("create tweet: %w", err)
	}
	return resp.ID, nil
}

// PostTweet publishes a previously created tweet.
func (c *Client) PostTweet(ctx context.Context, tweetID string) error {
	path := fmt.Sprintf("/api/tweets/%s/post", url.PathEscape(tweetID))
	if err := c.do(ctx, http.MethodPost, path, nil, nil); err != nil {
		return fmt.Errorf("post tweet %s: %w", tweetID, err)
	}
	return nil
}

// CreateThread stores a reply chain as one unit and returns the thread
// handle plus per-part tweet ids in order.
func (c *Client) CreateThread(ctx context.Context, texts []string, accountID string) (string, []string, error) {
	var resp createThreadResponse
	err := c.do(ctx, http.MethodPost, "/api/threads", createThreadRequest{
		Texts:     texts,
		AccountID: accountID,
	}, &resp)
	if err != nil {
		return "", nil, fmt.Errorf("create thread: %w", err)
	}
	return resp.ThreadID, resp.TweetIDs, nil
}

// PostThread publishes a created thread in reply order. The backend stops at
// the first failing reply and reports how far it got.
func (c *Client) PostThread(ctx context.Context, threadID string) (int, int, error) {
	path := fmt.Sprintf("/api/threads/%s/post", url.PathEscape(threadID))
	var resp postThreadResponse
	if err := c.do(ctx, http.MethodPost, path, nil, &resp); err != nil {
		return 0, 0, fmt.Errorf("post thread %s: %w", threadID, err)
	}
	return resp.Posted, resp.Failed, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.apiError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) apiError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var detail struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	message := string(bytes.TrimSpace(raw))
	if err := json.Unmarshal(raw, &detail); err == nil {
		if detail.Detail != "" {
			message = detail.Detail
		} else if detail.Error != "" {
			message = detail.Error
		}
	}
	return &APIError{StatusCode: resp.StatusCode, Detail: message}
}
