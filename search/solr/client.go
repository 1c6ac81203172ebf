package solr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/trc-platform/trc/repository"
	"github.com/trc-platform/trc/search"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	defaultTimeout      = 10 * time.Second
	defaultCommitWithin = time.Second

	contentTypeJSON = "application/json"
	maxErrorBody    = 4096

	logMsgRequestFailed = "solr request failed"
	logMsgRequestDone   = "solr request completed"

	logAttrCore       = "core"
	logAttrPath       = "path"
	logAttrStatus     = "status"
	logAttrDurationMS = "duration_ms"
	logAttrError      = "error"
)

var (
	// ErrEmptyBaseURL is returned when the client is created without a Solr URL.
	ErrEmptyBaseURL = errors.New("solr base url must not be empty")

	// ErrEmptyCore is returned when a request names no core.
	ErrEmptyCore = errors.New("solr core must not be empty")

	// ErrSolrRequestFailed is returned for transport failures and non-2xx responses.
	ErrSolrRequestFailed = errors.New("solr request failed")

	// ErrEncodingRequestFailed is returned when a request body cannot be encoded.
	ErrEncodingRequestFailed = errors.New("encoding solr request failed")

	// ErrDecodingResponseFailed is returned when a response body cannot be decoded.
	ErrDecodingResponseFailed = errors.New("decoding solr response failed")
)

// Option configures a Client.
type Option func(*Client) error

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) error {
		if httpClient != nil {
			c.httpClient = httpClient
		}

		return nil
	}
}

// WithTimeout sets the timeout of the default http.Client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) error {
		c.httpClient.Timeout = timeout
		return nil
	}
}

// WithCommitWithin sets the commitWithin hint sent with every update. Zero disables the hint.
func WithCommitWithin(commitWithin time.Duration) Option {
	return func(c *Client) error {
		c.commitWithin = commitWithin
		return nil
	}
}

// WithLogger sets a logger for request outcomes.
func WithLogger(logger repository.Logger) Option {
	return func(c *Client) error {
		c.logger = logger
		return nil
	}
}

// Client talks to one Solr server. It is safe for concurrent use.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	commitWithin time.Duration
	logger       repository.Logger
}

// New creates a client for the Solr server at baseURL, e.g. "http://localhost:8983/solr".
func New(baseURL string, options ...Option) (*Client, error) {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		return nil, ErrEmptyBaseURL
	}

	c := &Client{
		baseURL:      baseURL,
		httpClient:   &http.Client{Timeout: defaultTimeout},
		commitWithin: defaultCommitWithin,
	}

	for _, option := range options {
		if err := option(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Index implements search.Indexer by adding (or replacing) docs in core.
func (c *Client) Index(ctx context.Context, core string, docs []search.Document) error {
	if len(docs) == 0 {
		return nil
	}

	return c.update(ctx, core, docs)
}

// Delete implements search.Indexer by deleting the documents with the given ids from core.
func (c *Client) Delete(ctx context.Context, core string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	return c.update(ctx, core, map[string]any{"delete": ids})
}

// Commit issues an explicit hard commit on core.
func (c *Client) Commit(ctx context.Context, core string) error {
	return c.update(ctx, core, map[string]any{"commit": map[string]any{}})
}

// Ping checks that core is up.
func (c *Client) Ping(ctx context.Context, core string) error {
	return c.do(ctx, http.MethodGet, core, "/admin/ping", url.Values{"wt": {"json"}}, nil, nil)
}

func (c *Client) update(ctx context.Context, core string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Join(ErrEncodingRequestFailed, err)
	}

	params := url.Values{"wt": {"json"}}
	if c.commitWithin > 0 {
		params.Set("commitWithin", strconv.FormatInt(c.commitWithin.Milliseconds(), 10))
	}

	return c.do(ctx, http.MethodPost, core, "/update", params, body, nil)
}

// do sends one request to <baseURL>/<core><path> and decodes a 2xx JSON response into out, if given.
func (c *Client) do(ctx context.Context, method, core, path string, params url.Values, body []byte, out any) error {
	if core == "" {
		return ErrEmptyCore
	}

	start := time.Now()
	endpoint := c.baseURL + "/" + url.PathEscape(core) + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return errors.Join(ErrSolrRequestFailed, err)
	}
	req.Header.Set("Accept", contentTypeJSON)
	if body != nil {
		req.Header.Set("Content-Type", contentTypeJSON)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logError(logMsgRequestFailed, err, logAttrCore, core, logAttrPath, path)
		return errors.Join(ErrSolrRequestFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := responseError(resp)
		c.logError(logMsgRequestFailed, err, logAttrCore, core, logAttrPath, path, logAttrStatus, resp.StatusCode)
		return errors.Join(ErrSolrRequestFailed, err)
	}

	c.logDebug(logMsgRequestDone,
		logAttrCore, core,
		logAttrPath, path,
		logAttrStatus, resp.StatusCode,
		logAttrDurationMS, time.Since(start).Milliseconds())

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Join(ErrDecodingResponseFailed, err)
	}

	return nil
}

type errorResponse struct {
	Error struct {
		Msg  string `json:"msg"`
		Code int    `json:"code"`
	} `json:"error"`
}

// responseError prefers Solr's error message over the raw body.
func responseError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var decoded errorResponse
	if err := json.Unmarshal(raw, &decoded); err == nil && decoded.Error.Msg != "" {
		return fmt.Errorf("status %d: %s", resp.StatusCode, decoded.Error.Msg)
	}

	return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
}

func (c *Client) logDebug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

func (c *Client) logError(msg string, err error, args ...any) {
	if c.logger != nil {
		c.logger.Error(msg, append(args, logAttrError, err.Error())...)
	}
}
