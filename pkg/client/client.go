// Package client talks to the job board REST backend.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/schema"
	"github.com/matst80/jobboard/pkg/common/jsoncompat"
	"github.com/matst80/jobboard/pkg/types"
	"golang.org/x/oauth2"
)

var encoder = schema.NewEncoder()

const RequestIdHeader = "X-Request-ID"

var sourcePaths = map[types.Source]string{
	types.SourcePrimary:   "/jobs",
	types.SourceSecondary: "/jobs/top-cv",
}

var facetPaths = map[types.FacetKey]string{
	types.FacetLevels:            "/levels",
	types.FacetWorkingModels:     "/working-models",
	types.FacetJobDomains:        "/job-domains",
	types.FacetCompanyIndustries: "/company-industries",
}

// StatusError is returned for every non 2xx response.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Code)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

type Client struct {
	baseUrl    string
	httpClient *http.Client
}

type Option func(*Client)

func WithHttpClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithToken sends a static bearer token with every request.
func WithToken(token string) Option {
	return func(cl *Client) {
		if token == "" {
			return
		}
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, cl.httpClient)
		cl.httpClient = oauth2.NewClient(ctx, src)
	}
}

func New(baseUrl string, opts ...Option) *Client {
	c := &Client{
		baseUrl:    strings.TrimSuffix(baseUrl, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, out any) error {
	u := c.baseUrl + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIdHeader, uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := jsoncompat.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error decoding %s response: %w", path, err)
	}
	return nil
}

// Fetch loads one page of a job source.
func (c *Client) Fetch(ctx context.Context, source types.Source, params types.FetchParams) (types.JobCollection, error) {
	path, ok := sourcePaths[source]
	if !ok {
		return types.JobCollection{}, fmt.Errorf("unknown source %q", source)
	}
	query := url.Values{}
	if err := encoder.Encode(params, query); err != nil {
		return types.JobCollection{}, fmt.Errorf("error encoding params: %w", err)
	}
	var result types.JobCollection
	if err := c.do(ctx, http.MethodGet, path, query, &result); err != nil {
		return types.JobCollection{}, err
	}
	return result, nil
}

func (c *Client) FacetOptions(ctx context.Context, key types.FacetKey) ([]types.Option, error) {
	path, ok := facetPaths[key]
	if !ok {
		return nil, fmt.Errorf("unknown facet %q", key)
	}
	var options []types.Option
	if err := c.do(ctx, http.MethodGet, path, nil, &options); err != nil {
		return nil, err
	}
	return options, nil
}

func (c *Client) AddSaved(ctx context.Context, jobId string) error {
	return c.do(ctx, http.MethodPost, "/saved-jobs/"+url.PathEscape(jobId), nil, nil)
}

func (c *Client) RemoveSaved(ctx context.Context, jobId string) error {
	return c.do(ctx, http.MethodDelete, "/saved-jobs/"+url.PathEscape(jobId), nil, nil)
}

func (c *Client) ListSaved(ctx context.Context) ([]types.SavedJobRef, error) {
	var refs []types.SavedJobRef
	if err := c.do(ctx, http.MethodGet, "/saved-jobs", nil, &refs); err != nil {
		return nil, err
	}
	return refs, nil
}
