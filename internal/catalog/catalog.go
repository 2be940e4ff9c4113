// Package catalog queries the public character catalog API.
package catalog

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/iiroan/herodex/internal/metrics"
)

const (
	DefaultBaseURL = "https://gateway.marvel.com"
	DefaultLimit   = 50
	DefaultTimeout = 15 * time.Second

	charactersPath = "/v1/public/characters"
)

// ErrMissingCredentials is returned when no API key pair is configured.
var ErrMissingCredentials = errors.New("catalog API keys are not configured")

// APIError is a non-2xx response from the catalog.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("catalog request failed: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("catalog request failed: HTTP %d: %s", e.StatusCode, e.Message)
}

// Image is a thumbnail reference split into path and extension.
type Image struct {
	Path      string `json:"path"`
	Extension string `json:"extension"`
}

// URL returns the image at the given variant, served over https.
func (i Image) URL(variant string) string {
	if i.Path == "" {
		return ""
	}
	p := strings.Replace(i.Path, "http://", "https://", 1)
	return p + "/" + variant + "." + i.Extension
}

// Summary names one related comic, series or story.
type Summary struct {
	Name        string `json:"name"`
	ResourceURI string `json:"resourceURI,omitempty"`
}

// List is a capped list of related resources.
type List struct {
	Available int       `json:"available"`
	Items     []Summary `json:"items"`
}

// Link is an external page about a character.
type Link struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// Character is one catalog entry.
type Character struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Modified    string `json:"modified,omitempty"`
	Thumbnail   Image  `json:"thumbnail"`
	Comics      List   `json:"comics"`
	Series      List   `json:"series"`
	Stories     List   `json:"stories"`
	URLs        []Link `json:"urls"`
}

// ImageURL returns the large portrait thumbnail.
func (c Character) ImageURL() string {
	return c.Thumbnail.URL("standard_xlarge")
}

// Page is the data member of a search response.
type Page struct {
	Offset  int         `json:"offset"`
	Limit   int         `json:"limit"`
	Total   int         `json:"total"`
	Count   int         `json:"count"`
	Results []Character `json:"results"`
}

type envelope struct {
	Code   json.RawMessage `json:"code"`
	Status string          `json:"status"`
	// errors come back with message instead of status
	Message string `json:"message"`
	Data    Page   `json:"data"`
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	PublicKey  string
	PrivateKey string
	Limit      int
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *log.Logger
	Metrics    *metrics.Metrics
}

// Client searches characters.
type Client struct {
	baseURL    string
	publicKey  string
	privateKey string
	limit      int
	timeout    time.Duration
	http       *http.Client
	logger     *log.Logger
	metrics    *metrics.Metrics
	now        func() time.Time

	group singleflight.Group
}

// New creates a Client. Missing values fall back to the defaults.
func New(opts Options) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		publicKey:  opts.PublicKey,
		privateKey: opts.PrivateKey,
		limit:      opts.Limit,
		timeout:    opts.Timeout,
		http:       opts.HTTPClient,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
		now:        time.Now,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.limit <= 0 {
		c.limit = DefaultLimit
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: c.timeout}
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}
	return c
}

// Search returns characters whose name starts with query, or the first page
// of the catalog when query is empty. Identical concurrent searches share
// one request. The shared request outlives a caller that gives up; only
// that caller returns ctx.Err().
func (c *Client) Search(ctx context.Context, query string) (*Page, error) {
	query = strings.TrimSpace(query)
	if c.publicKey == "" || c.privateKey == "" {
		return nil, ErrMissingCredentials
	}

	ch := c.group.DoChan(query, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		page, err := c.fetch(fetchCtx, query)
		c.metrics.ObserveCatalogRequest(err)
		return page, err
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.Err != nil {
		return nil, res.Err
	}
	if res.Shared {
		c.logger.Debug("catalog search shared", "query", query)
	}
	page := *res.Val.(*Page)
	page.Results = append([]Character(nil), page.Results...)
	return &page, nil
}

// Character looks up one character by id.
func (c *Client) Character(ctx context.Context, id int) (*Character, error) {
	if c.publicKey == "" || c.privateKey == "" {
		return nil, ErrMissingCredentials
	}
	page, err := c.get(ctx, charactersPath+"/"+strconv.Itoa(id), nil)
	c.metrics.ObserveCatalogRequest(err)
	if err != nil {
		return nil, err
	}
	if len(page.Results) == 0 {
		return nil, &APIError{StatusCode: http.StatusNotFound, Message: "character not found"}
	}
	return &page.Results[0], nil
}

func (c *Client) fetch(ctx context.Context, query string) (*Page, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(c.limit))
	if query != "" {
		params.Set("nameStartsWith", query)
	}
	return c.get(ctx, charactersPath, params)
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (*Page, error) {
	if params == nil {
		params = url.Values{}
	}
	ts := strconv.FormatInt(c.now().UnixMilli(), 10)
	params.Set("ts", ts)
	params.Set("apikey", c.publicKey)
	params.Set("hash", Signature(ts, c.privateKey, c.publicKey))

	endpoint := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	c.logger.Debug("catalog request", "path", path, "status", resp.StatusCode, "elapsed", time.Since(start))

	var env envelope
	decodeErr := json.Unmarshal(body, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if decodeErr == nil {
			apiErr.Code = strings.Trim(string(env.Code), `"`)
			apiErr.Message = env.Message
			if apiErr.Message == "" {
				apiErr.Message = env.Status
			}
		}
		return nil, apiErr
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decoding response: %w", decodeErr)
	}
	return &env.Data, nil
}

// Signature is the request hash: hex md5 of ts, private key and public key.
func Signature(ts, privateKey, publicKey string) string {
	sum := md5.Sum([]byte(ts + privateKey + publicKey))
	return hex.EncodeToString(sum[:])
}
