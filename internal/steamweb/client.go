// Package steamweb talks to the Steam Web API using either a web api key or an access token,
// hiding the differences between the two behind a single set of calls.
package steamweb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/leighmacdonald/steamid/v4/steamid"
)

const (
	DefaultBaseURL = "https://api.steampowered.com"
	// LevelTrace is used for logging raw response bodies.
	LevelTrace = slog.Level(-8)
	maskedValue = "***"
)

// HTTPDoer defines a common interface for HTTP clients.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Request describes a single api call. Build one with NewRequest.
type Request struct {
	method         Method
	params         []Param
	allowFailure   bool
	errorOverrides map[int]error
}

func NewRequest(method Method) *Request {
	return &Request{method: method, errorOverrides: map[int]error{}}
}

// Param appends a call specific query parameter. Nil values are skipped when the query is built.
func (r *Request) Param(key string, value any) *Request {
	r.params = append(r.params, Param{Key: key, Value: value})

	return r
}

// AllowFailure makes a non 2xx response or transport failure return no data instead of an error.
func (r *Request) AllowFailure() *Request {
	r.allowFailure = true

	return r
}

// OnStatus maps a response status code to a specific error. It takes precedence over AllowFailure.
func (r *Request) OnStatus(status int, err error) *Request {
	r.errorOverrides[status] = err

	return r
}

func (r *Request) Method() Method {
	return r.method
}

// Client executes requests against the Web API.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
	logger     *slog.Logger
}

func New(baseURL string, httpClient HTTPDoer, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger.With(slog.String("module", "steamweb")),
	}
}

// Execute performs the request using the supplied credential. The attrs are only used for logging.
//
// A nil result with a nil error means the request failed but was marked with AllowFailure.
func (c *Client) Execute(ctx context.Context, req *Request, credential string, attrs ...slog.Attr) (json.RawMessage, error) {
	mode := Classify(credential)

	endpoint, errEndpoint := Resolve(req.method, mode)
	if errEndpoint != nil {
		return nil, errEndpoint
	}

	fullURL := c.baseURL + endpoint.Path + "?" + buildQuery(mode, credential, endpoint.Defaults, req.params)
	logURL := MaskURL(fullURL)

	c.logger.LogAttrs(ctx, slog.LevelDebug, "Request started",
		append([]slog.Attr{slog.String("method", string(req.method)), slog.String("url", logURL)}, attrs...)...)

	httpReq, errReq := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if errReq != nil {
		return nil, errors.Join(maskError(errReq, logURL), errCreateRequest)
	}

	resp, errResp := c.httpClient.Do(httpReq)
	if errResp != nil {
		errResp = maskError(errResp, logURL)

		c.logger.Error("Request failed", slog.String("url", logURL),
			slog.String("error", errResp.Error()))
		if req.allowFailure {
			return nil, nil
		}

		return nil, errors.Join(errResp, ErrNetwork)
	}

	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			c.logger.Error("Failed to close response body", slog.String("error", err.Error()))
		}
	}(resp.Body)

	body, errBody := io.ReadAll(resp.Body)
	if errBody != nil {
		c.logger.Error("Failed to read response body", slog.String("url", logURL),
			slog.String("error", errBody.Error()))
		if req.allowFailure {
			return nil, nil
		}

		return nil, errors.Join(errBody, errReadBody, ErrNetwork)
	}

	c.logger.LogAttrs(ctx, LevelTrace, "Response received", slog.String("url", logURL),
		slog.Int("status_code", resp.StatusCode), slog.String("body", string(body)))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		if override, found := req.errorOverrides[resp.StatusCode]; found {
			return nil, override
		}

		if req.allowFailure {
			c.logger.Warn("Ignoring failed request", slog.String("url", logURL),
				slog.Int("status_code", resp.StatusCode))

			return nil, nil
		}

		return nil, &APIError{Status: resp.StatusCode}
	}

	if !json.Valid(body) {
		return nil, ErrMalformedResponse
	}

	return body, nil
}

// maskError replaces the url carried by a *url.Error with its masked form. Errors that are not
// url errors are returned as is.
func maskError(err error, logURL string) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = logURL
	}

	return err
}

// buildQuery writes the auth parameter first, then endpoint defaults, then call parameters.
func buildQuery(mode Mode, credential string, defaults []Param, params []Param) string {
	var parts []string //nolint:prealloc

	parts = append(parts, mode.authParam()+"="+url.QueryEscape(credential))
	for _, param := range append(append([]Param{}, defaults...), params...) {
		value, ok := formatValue(param.Value)
		if !ok {
			continue
		}

		parts = append(parts, param.Key+"="+url.QueryEscape(value))
	}

	return strings.Join(parts, "&")
}

func formatValue(value any) (string, bool) {
	switch typed := value.(type) {
	case nil:
		return "", false
	case *string:
		if typed == nil {
			return "", false
		}

		return *typed, true
	case string:
		return typed, true
	case steamid.SteamID:
		return typed.String(), true
	case fmt.Stringer:
		return typed.String(), true
	default:
		return fmt.Sprint(typed), true
	}
}

var reCredential = regexp.MustCompile(`((?:^|[?&])(?:key|access_token)=)[^&\s"]*`)

// MaskURL replaces any credential values in the query with a placeholder.
func MaskURL(rawURL string) string {
	return reCredential.ReplaceAllString(rawURL, "${1}"+maskedValue)
}
