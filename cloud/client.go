package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the Roblox Open Cloud API root.
	DefaultBaseURL = "https://apis.roblox.com"
	// DefaultRequestsPerSecond paces outgoing requests.
	DefaultRequestsPerSecond = 5.0
	// DefaultTimeout is the per-request HTTP timeout.
	DefaultTimeout = 30 * time.Second
	// defaultRetryAfter is used for 429 responses without a Retry-After header.
	defaultRetryAfter = time.Second

	tablesPath = "/legacy-localization-tables/v1/localization-table/tables/"
)

// Client is an HTTP client for localization tables. It is safe for
// concurrent use; requests share one token-bucket pacer.
type Client struct {
	http      *http.Client
	apiKey    string
	baseURL   string
	gameID    string
	userAgent string
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at another API root (tests, proxies).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout. A client passed through
// WithHTTPClient is copied, not modified.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		hc := *c.http
		hc.Timeout = d
		c.http = &hc
	}
}

// WithGameID adds the gameId query parameter to table requests.
func WithGameID(id string) ClientOption {
	return func(c *Client) { c.gameID = id }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) { c.userAgent = ua }
}

// WithRequestsPerSecond limits the outgoing request rate. Zero or negative
// disables pacing.
func WithRequestsPerSecond(rps float64) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithLogger sets the logger for request tracing.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client authenticating with apiKey. The key is not
// validated here; the API rejects bad keys with an authentication error.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		http:      &http.Client{Timeout: DefaultTimeout},
		apiKey:    apiKey,
		baseURL:   DefaultBaseURL,
		userAgent: "locsync",
		limiter:   rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// GetTableEntries fetches every entry of a table, following page cursors.
func (c *Client) GetTableEntries(ctx context.Context, tableID string) ([]Entry, error) {
	var all []Entry
	seen := make(map[string]bool)
	cursor := ""

	for {
		q := c.query()
		if cursor != "" {
			q.Set("cursor", cursor)
		}
		body, err := c.do(ctx, http.MethodGet, tablesPath+url.PathEscape(tableID)+"/entries", q, nil)
		if err != nil {
			return nil, err
		}

		page, err := parseEntriesPage(body)
		if err != nil {
			return nil, err
		}
		all = append(all, page.entries()...)

		if page.NextCursor == "" {
			return all, nil
		}
		if seen[page.NextCursor] {
			return nil, NewAPIError(0, fmt.Sprintf("pagination cursor %q repeated", page.NextCursor))
		}
		seen[page.NextCursor] = true
		cursor = page.NextCursor
	}
}

// UpdateTableEntries patches entries into a table. Entries not listed are
// left untouched by the API.
func (c *Client) UpdateTableEntries(ctx context.Context, tableID string, entries []Entry) (*UpdateResult, error) {
	payload, err := json.Marshal(updateRequest{Entries: entries})
	if err != nil {
		return nil, fmt.Errorf("marshaling entries: %w", err)
	}

	body, err := c.do(ctx, http.MethodPatch, tablesPath+url.PathEscape(tableID), c.query(), payload)
	if err != nil {
		return nil, err
	}

	var resp updateResponse
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, NewAPIError(0, fmt.Sprintf("parsing update response: %v", err))
		}
	}
	if len(resp.Failed) > 0 {
		c.logger.Warn("table update rejected some entries", "table", tableID, "failed", len(resp.Failed))
	}
	return &UpdateResult{Failed: len(resp.Failed), Modified: len(resp.Modified)}, nil
}

// GetTableMetadata returns the id and name of a table.
func (c *Client) GetTableMetadata(ctx context.Context, tableID string) (*TableMetadata, error) {
	body, err := c.do(ctx, http.MethodGet, tablesPath+url.PathEscape(tableID), nil, nil)
	if err != nil {
		return nil, err
	}
	var meta TableMetadata
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, NewAPIError(0, fmt.Sprintf("parsing table metadata: %v", err))
	}
	return &meta, nil
}

// ListTables returns the localization tables of a universe.
func (c *Client) ListTables(ctx context.Context, universeID string) ([]TableInfo, error) {
	body, err := c.do(ctx, http.MethodGet, "/cloud/v2/universes/"+url.PathEscape(universeID)+"/localization-tables", nil, nil)
	if err != nil {
		return nil, err
	}
	var resp listTablesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, NewAPIError(0, fmt.Sprintf("parsing table list: %v", err))
	}
	return resp.Data, nil
}

// ResolveTableID accepts a table UUID or a numeric universe id. A universe
// id resolves to its first localization table.
func (c *Client) ResolveTableID(ctx context.Context, id string) (string, error) {
	if IsTableUUID(id) {
		return id, nil
	}
	if !IsUniverseID(id) {
		return "", NewConfigError(fmt.Sprintf("invalid table ID or universe ID format: %q", id))
	}

	tables, err := c.ListTables(ctx, id)
	if err != nil {
		return "", fmt.Errorf("listing tables for universe %s: %w", id, err)
	}
	if len(tables) == 0 {
		return "", NewConfigError(fmt.Sprintf("no localization tables found for universe %s", id))
	}
	return tables[0].ID, nil
}

// IsTableUUID reports whether id is a canonical 36-character UUID.
func IsTableUUID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

// IsUniverseID reports whether id is a positive decimal number.
func IsUniverseID(id string) bool {
	n, err := strconv.ParseUint(id, 10, 64)
	return err == nil && n > 0
}

func (c *Client) query() url.Values {
	q := url.Values{}
	if c.gameID != "" {
		q.Set("gameId", c.gameID)
	}
	return q
}

// do sends one request and classifies non-2xx responses into *Error.
func (c *Client) do(ctx context.Context, method, path string, q url.Values, payload []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := c.baseURL + path
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("User-Agent", c.userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("cloud request", "method", method, "path", path)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, NewNetworkError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewNetworkError(fmt.Errorf("reading response body: %w", err))
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}
	return nil, classifyResponse(resp, body)
}

// classifyResponse maps an HTTP status to an error kind.
func classifyResponse(resp *http.Response, body []byte) error {
	msg := truncate(strings.TrimSpace(string(body)), 500)
	status := resp.StatusCode

	switch {
	case status == http.StatusUnauthorized:
		return NewAuthenticationError("invalid or expired API key: " + msg)
	case status == http.StatusForbidden:
		return NewAuthenticationError("insufficient permissions for this table: " + msg)
	case status == http.StatusTooManyRequests:
		return NewRateLimitError(parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()), 1)
	case status >= 500 && status <= 599:
		return NewServerError(status, msg)
	default:
		return NewAPIError(status, msg)
	}
}

// parseRetryAfter reads a Retry-After header given either as delay seconds
// or as an HTTP date. Missing or unparsable values fall back to one second.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return defaultRetryAfter
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil && secs >= 0 {
		return time.Duration(secs * float64(time.Second))
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
		return 0
	}
	return defaultRetryAfter
}

// parseEntriesPage accepts a paged object or a bare array of entries.
func parseEntriesPage(body []byte) (*entriesPage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var entries []Entry
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, NewAPIError(0, fmt.Sprintf("parsing entries: %v", err))
		}
		return &entriesPage{Entries: entries}, nil
	}

	var page entriesPage
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return nil, NewAPIError(0, fmt.Sprintf("failed to parse response: %v. Body: %s", err, truncate(string(body), 200)))
	}
	return &page, nil
}

func (p *entriesPage) entries() []Entry {
	if len(p.Entries) > 0 {
		return p.Entries
	}
	return p.Data
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
