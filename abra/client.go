package abra

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/abrachat/abrachat", "abra")

// DefaultTimeout bounds every request when no client override is given.
const DefaultTimeout = 30 * time.Second

// DefaultCollections is the default allowed set of business-object
// collections. Queries against anything else fail validation before a
// request is made.
var DefaultCollections = []string{
	"accounts",
	"firms",
	"issuedinvoices",
	"issuedorders",
	"receivedinvoices",
	"receivedorders",
	"storecards",
}

// Client issues requests against an ABRA Gen API instance. It is
// stateless and safe for concurrent use; each call opens its own HTTP
// request and carries no cross-call memory.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	allowed    map[string]bool
}

// NewClient creates a client for {host}/{database}.
func NewClient(host, database, username, password string, opts ...ClientOption) (*Client, error) {
	if host == "" {
		return nil, errors.New("abra: host is required")
	}
	if database == "" {
		return nil, errors.New("abra: database is required")
	}

	c := &Client{
		baseURL: strings.TrimRight(host, "/") + "/" + database,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		username: username,
		password: password,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.allowed == nil {
		c.allowed = toSet(DefaultCollections)
	}
	return c, nil
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithCollections replaces the allowed collection set.
func WithCollections(collections []string) ClientOption {
	return func(c *Client) {
		c.allowed = toSet(collections)
	}
}

func toSet(list []string) map[string]bool {
	m := make(map[string]bool, len(list))
	for _, s := range list {
		m[strings.ToLower(s)] = true
	}
	return m
}

// Collections returns the allowed collection names, sorted.
func (c *Client) Collections() []string {
	list := make([]string, 0, len(c.allowed))
	for name := range c.allowed {
		list = append(list, name)
	}
	// deterministic for prompts and tests
	for i := 1; i < len(list); i++ {
		for j := i; j > 0 && list[j] < list[j-1]; j-- {
			list[j], list[j-1] = list[j-1], list[j]
		}
	}
	return list
}

func (c *Client) checkCollection(collection string) error {
	if collection == "" {
		return NewValidationError("collection is required")
	}
	if !c.allowed[strings.ToLower(collection)] {
		return NewValidationError("collection %q is not allowed; use one of: %s",
			collection, strings.Join(c.Collections(), ", "))
	}
	return nil
}

// constructURL builds the request URL in the ABRA API format:
// {base}/{collection}[/{id}[/{subcollection}]]?{params}.
// This grammar is an external contract; keep it exact.
func (c *Client) constructURL(collection, resourceID, subcollection string, params url.Values) string {
	parts := []string{c.baseURL, collection}
	if resourceID != "" {
		parts = append(parts, resourceID)
	}
	if subcollection != "" {
		parts = append(parts, subcollection)
	}
	u := strings.Join(parts, "/")
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

// get performs one GET and decodes the JSON response. Error mapping:
// network failure -> TransportError, 404 -> NotFoundError, any other
// non-2xx -> RemoteError with status and body.
func (c *Client) get(ctx context.Context, reqURL string) (any, error) {
	logger.ContextKV(ctx, xlog.DEBUG, "method", "GET", "url", reqURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, NewValidationError("invalid request URL: %s", err.Error())
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, &NotFoundError{URL: reqURL}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RemoteError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	if len(body) == 0 {
		return nil, nil
	}
	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, &RemoteError{
			StatusCode: resp.StatusCode,
			Body:       "malformed JSON response: " + err.Error(),
		}
	}
	return data, nil
}
