package metabase

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

	"github.com/juju/clock"
	"github.com/juju/retry"
	"go.uber.org/zap"

	"github.com/metasync-tools/metasync/internal/content"
)

const sessionHeader = "X-Metabase-Session"

// Config carries everything the client needs to talk to one instance.
// Credentials are passed in explicitly; the client holds no global state.
type Config struct {
	URL      string
	Username string
	Password string

	// Timeout bounds each HTTP request. Defaults to 20s.
	Timeout time.Duration
	// RetryAttempts bounds retries of transient failures. Defaults to 3.
	RetryAttempts int
	// RetryDelay is the initial backoff delay, doubled per attempt.
	// Defaults to 500ms.
	RetryDelay time.Duration
}

// Client talks to a single Metabase instance over its HTTP API.
type Client struct {
	baseURL  string
	username string
	password string
	session  string

	http     *http.Client
	logger   *zap.Logger
	clock    clock.Clock
	attempts int
	delay    time.Duration
}

// NewClient builds a client for the instance described by cfg. The logger
// may be nil; pass a development logger to see request-level debug output.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	attempts := cfg.RetryAttempts
	if attempts == 0 {
		attempts = 3
	}
	delay := cfg.RetryDelay
	if delay == 0 {
		delay = 500 * time.Millisecond
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.URL, "/"),
		username: cfg.Username,
		password: cfg.Password,
		http:     &http.Client{Timeout: timeout},
		logger:   logger,
		clock:    clock.WallClock,
		attempts: attempts,
		delay:    delay,
	}
}

// Login opens a session and stores the session token for later calls.
func (c *Client) Login(ctx context.Context) error {
	var res struct {
		ID string `json:"id"`
	}
	body := map[string]string{"username": c.username, "password": c.password}
	if err := c.call(ctx, http.MethodPost, "/api/session", body, &res); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if res.ID == "" {
		return fmt.Errorf("login failed: no session id in response")
	}
	c.session = res.ID
	c.logger.Debug("session opened", zap.String("url", c.baseURL), zap.String("user", c.username))
	return nil
}

// ListCards returns every card on the instance.
func (c *Client) ListCards(ctx context.Context) ([]content.Card, error) {
	var cards []content.Card
	if err := c.callList(ctx, "/api/card", &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

// ListDashboards returns dashboard summaries (no placements).
func (c *Client) ListDashboards(ctx context.Context) ([]content.Dashboard, error) {
	var dashes []content.Dashboard
	if err := c.callList(ctx, "/api/dashboard", &dashes); err != nil {
		return nil, err
	}
	return dashes, nil
}

// GetDashboard fetches one dashboard with its placements.
func (c *Client) GetDashboard(ctx context.Context, id int64) (content.Dashboard, error) {
	var d content.Dashboard
	err := c.call(ctx, http.MethodGet, fmt.Sprintf("/api/dashboard/%d", id), nil, &d)
	return d, err
}

// ListDatabases returns the data sources configured on the instance.
func (c *Client) ListDatabases(ctx context.Context) ([]Database, error) {
	var dbs []Database
	if err := c.callList(ctx, "/api/database", &dbs); err != nil {
		return nil, err
	}
	return dbs, nil
}

// ListUsers returns the instance's accounts.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.callList(ctx, "/api/user", &users); err != nil {
		return nil, err
	}
	return users, nil
}

// CreateCard creates a card and returns its id on this instance. The card's
// own id is not sent; collections are out of scope, so the card lands in the
// instance root.
func (c *Client) CreateCard(ctx context.Context, card content.Card) (int64, error) {
	var res struct {
		ID int64 `json:"id"`
	}
	if err := c.call(ctx, http.MethodPost, "/api/card", cardPayload(card), &res); err != nil {
		return 0, err
	}
	return res.ID, nil
}

// UpdateCard overwrites the card with the given id on this instance.
func (c *Client) UpdateCard(ctx context.Context, id int64, card content.Card) error {
	return c.call(ctx, http.MethodPut, fmt.Sprintf("/api/card/%d", id), cardPayload(card), nil)
}

// CreateDashboard creates an empty dashboard and returns its id.
func (c *Client) CreateDashboard(ctx context.Context, name, description string) (int64, error) {
	var res struct {
		ID int64 `json:"id"`
	}
	body := map[string]any{"name": name, "description": description}
	if err := c.call(ctx, http.MethodPost, "/api/dashboard", body, &res); err != nil {
		return 0, err
	}
	return res.ID, nil
}

// UpdateDashboardCards replaces a dashboard's layout via the bulk endpoint.
// Entries with negative ids are created; non-negative ids update in place.
func (c *Client) UpdateDashboardCards(ctx context.Context, id int64, cards []DashcardPayload) error {
	if cards == nil {
		cards = []DashcardPayload{}
	}
	body := map[string]any{"cards": cards}
	return c.call(ctx, http.MethodPut, fmt.Sprintf("/api/dashboard/%d/cards", id), body, nil)
}

// Version returns the instance's release tag.
func (c *Client) Version(ctx context.Context) (string, error) {
	var props struct {
		Version struct {
			Tag string `json:"tag"`
		} `json:"version"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/session/properties", nil, &props); err != nil {
		return "", err
	}
	return props.Version.Tag, nil
}

// Stats gathers the overview the inspect command prints.
func (c *Client) Stats(ctx context.Context) (InstanceStats, error) {
	version, err := c.Version(ctx)
	if err != nil {
		return InstanceStats{}, err
	}
	cards, err := c.ListCards(ctx)
	if err != nil {
		return InstanceStats{}, err
	}
	dashes, err := c.ListDashboards(ctx)
	if err != nil {
		return InstanceStats{}, err
	}
	dbs, err := c.ListDatabases(ctx)
	if err != nil {
		return InstanceStats{}, err
	}
	return InstanceStats{
		Version:    version,
		Cards:      len(cards),
		Dashboards: len(dashes),
		Databases:  len(dbs),
	}, nil
}

func cardPayload(card content.Card) map[string]any {
	return map[string]any{
		"name":                   card.Name,
		"description":            card.Description,
		"display":                card.Display,
		"dataset_query":          card.DatasetQuery,
		"visualization_settings": card.VisualizationSettings,
		"collection_id":          nil,
	}
}

// callList fetches a collection endpoint, unwrapping the paginated
// {"data": [...]} envelope newer Metabase versions use.
func (c *Client) callList(ctx context.Context, path string, out any) error {
	var raw json.RawMessage
	if err := c.call(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return err
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return fmt.Errorf("failed to decode %s response: %w", path, err)
		}
		trimmed = envelope.Data
	}
	if len(trimmed) == 0 {
		return nil
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

// call performs one API call, retrying transient failures with doubling
// backoff. Client errors (4xx) are surfaced immediately.
func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	err := retry.Call(retry.CallArgs{
		Func: func() error {
			return c.doOnce(ctx, method, path, body, out)
		},
		IsFatalError: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return !apiErr.Transient()
			}
			return ctx.Err() != nil
		},
		NotifyFunc: func(err error, attempt int) {
			c.logger.Debug("retrying request",
				zap.String("method", method),
				zap.String("path", path),
				zap.Int("attempt", attempt),
				zap.Error(err))
		},
		Attempts:    c.attempts,
		Delay:       c.delay,
		BackoffFunc: retry.DoubleDelay,
		Clock:       c.clock,
		Stop:        ctx.Done(),
	})
	if retry.IsAttemptsExceeded(err) || retry.IsRetryStopped(err) {
		return retry.LastError(err)
	}
	return err
}

func (c *Client) doOnce(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.session != "" {
		req.Header.Set(sessionHeader, c.session)
	}

	c.logger.Debug("request", zap.String("method", method), zap.String("path", path))
	res, err := c.http.Do(req)
	if err != nil {
		// Network-level failures (refused, timeout) are treated as
		// transient and retried.
		return &APIError{StatusCode: http.StatusServiceUnavailable, Path: path, Message: err.Error()}
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return &APIError{StatusCode: http.StatusServiceUnavailable, Path: path, Message: err.Error()}
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return &APIError{StatusCode: res.StatusCode, Path: path, Message: apiMessage(data)}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

// apiMessage pulls a human-readable message out of an error response body.
func apiMessage(data []byte) string {
	var payload struct {
		Message string         `json:"message"`
		Errors  map[string]any `json:"errors"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if len(payload.Errors) > 0 {
			parts := make([]string, 0, len(payload.Errors))
			for field, msg := range payload.Errors {
				parts = append(parts, fmt.Sprintf("%s: %v", field, msg))
			}
			return strings.Join(parts, "; ")
		}
	}
	const max = 200
	s := strings.TrimSpace(string(data))
	if len(s) > max {
		s = s[:max] + "..."
	}
	return s
}
