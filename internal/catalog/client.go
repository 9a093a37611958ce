package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"cardfetch/internal"
	"cardfetch/internal/config"
)

var (
	ErrNotFound      = errors.New("no matching card")
	ErrBadStatus     = errors.New("unexpected http status")
	ErrMalformedBody = errors.New("malformed response body")
)

// FetchError carries the card name that was looked up alongside the cause.
type FetchError struct {
	Name  string
	Cause error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %q: %v", e.Name, e.Cause)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

type Client struct {
	cfg        config.Config
	httpClient *http.Client
}

type apiResponse struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.APITimeout()},
	}
}

func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// Fetch looks up name and returns the first card in the result set.
func (c *Client) Fetch(ctx context.Context, name string) (internal.RawCard, error) {
	card, err := c.fetchFirst(ctx, name)
	if err != nil {
		return nil, &FetchError{Name: name, Cause: err}
	}
	return card, nil
}

func (c *Client) fetchFirst(ctx context.Context, name string) (internal.RawCard, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: empty name", ErrNotFound)
	}

	baseURL := strings.TrimRight(c.cfg.APIBaseURL, "/") + "/"
	u, err := url.Parse(baseURL + "cardinfo.php")
	if err != nil {
		return nil, err
	}
	q := u.Query()
	if c.cfg.FuzzyLookup {
		q.Set("fname", name)
	} else {
		q.Set("name", name)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, err
	}

	var apiResp apiResponse
	decodeErr := json.Unmarshal(body, &apiResp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// The API answers unknown names with 400 and an error message.
		if resp.StatusCode == http.StatusBadRequest && decodeErr == nil && apiResp.Error != "" {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, apiResp.Error)
		}
		return nil, fmt.Errorf("%w: status=%d body=%s", ErrBadStatus, resp.StatusCode, truncate(string(body), 200))
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBody, decodeErr)
	}
	if apiResp.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, apiResp.Error)
	}
	if len(apiResp.Data) == 0 || string(apiResp.Data) == "null" {
		return nil, fmt.Errorf("%w: missing data", ErrMalformedBody)
	}

	var cards []map[string]any
	if err := json.Unmarshal(apiResp.Data, &cards); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	if len(cards) == 0 {
		return nil, ErrNotFound
	}
	if cards[0] == nil {
		return nil, fmt.Errorf("%w: null card", ErrMalformedBody)
	}
	return internal.RawCard(cards[0]), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
