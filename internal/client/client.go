// Package client talks to the snapshot backend over HTTP.
//
// Every call makes a single attempt. There is no retry and no built-in
// timeout; callers bound a call through its context.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sakif/fitness-tracker/internal/model"
)

// DefaultBaseURL is where a locally started backend listens.
const DefaultBaseURL = "http://localhost:5000/api"

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// Client is a snapshot backend client. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client for the API rooted at baseURL (".../api").
// A nil httpClient uses http.DefaultClient.
func New(baseURL string, httpClient *http.Client) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

// BaseURL returns the API root the client sends requests to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SaveUserData posts the full state of one user as a new snapshot.
func (c *Client) SaveUserData(ctx context.Context, req model.SaveRequest) (*model.SaveResponse, error) {
	req.UserData.Normalize()
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("client: encoding save request: %w", err)
	}

	var resp model.SaveResponse
	if err := c.do(ctx, http.MethodPost, "/save-data", bytes.NewReader(payload), "", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetUserData fetches the current state of username.
func (c *Client) GetUserData(ctx context.Context, username string) (*model.UserData, error) {
	var data model.UserData
	if err := c.do(ctx, http.MethodGet, "/get-data/"+url.PathEscape(username), nil, "Failed to get data", &data); err != nil {
		return nil, err
	}
	data.Normalize()
	return &data, nil
}

// GetUserDataHistory lists the snapshots of username, newest first.
func (c *Client) GetUserDataHistory(ctx context.Context, username string) (*model.HistoryResponse, error) {
	var resp model.HistoryResponse
	if err := c.do(ctx, http.MethodGet, "/get-data-history/"+url.PathEscape(username), nil, "Failed to get data history", &resp); err != nil {
		return nil, err
	}
	if resp.History == nil {
		resp.History = []model.SnapshotSummary{}
	}
	return &resp, nil
}

// GetUserDataSnapshot fetches one snapshot of username by record id.
func (c *Client) GetUserDataSnapshot(ctx context.Context, username string, id int64) (*model.Snapshot, error) {
	path := "/get-data-snapshot/" + url.PathEscape(username) + "/" + strconv.FormatInt(id, 10)
	var snap model.Snapshot
	if err := c.do(ctx, http.MethodGet, path, nil, "Failed to get data snapshot", &snap); err != nil {
		return nil, err
	}
	snap.Normalize()
	return &snap, nil
}

// Status reports whether the backend is up.
func (c *Client) Status(ctx context.Context) (*model.StatusResponse, error) {
	var resp model.StatusResponse
	if err := c.do(ctx, http.MethodGet, "/status", nil, "Failed to get status", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// do sends one request and decodes a 2xx JSON body into out.
//
// ERROR MESSAGES:
// A non-2xx response becomes an *APIError. Its message is the "error" field of
// a JSON body, else fallback, else "Server error: <status>". A body that is not
// JSON always gives "Server error: <status>".
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, fallback string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("client: creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("client: reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, raw, fallback)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("client: decoding response: %w", err)
	}
	return nil
}

func newAPIError(status int, raw []byte, fallback string) *APIError {
	generic := fmt.Sprintf("Server error: %d", status)

	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return &APIError{StatusCode: status, Message: generic}
	}
	switch {
	case body.Error != "":
		return &APIError{StatusCode: status, Message: body.Error}
	case fallback != "":
		return &APIError{StatusCode: status, Message: fallback}
	default:
		return &APIError{StatusCode: status, Message: generic}
	}
}
