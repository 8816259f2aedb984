package sanity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pluscode-backend/internal/richtext"
)

var ErrNotConfigured = errors.New("sanity project is not configured")

type Options struct {
	ProjectID  string
	Dataset    string
	APIVersion string
	UseCDN     bool
	Token      string
	// BaseURL replaces https://<project>.api(cdn).sanity.io, mainly for tests.
	BaseURL    string
	HTTPClient *http.Client
}

type Client struct {
	projectID  string
	dataset    string
	apiVersion string
	useCDN     bool
	token      string
	baseURL    string
	httpClient *http.Client
}

func New(opts Options) *Client {
	apiVersion := strings.TrimPrefix(strings.TrimSpace(opts.APIVersion), "v")
	if apiVersion == "" {
		apiVersion = "2024-01-01"
	}
	dataset := strings.TrimSpace(opts.Dataset)
	if dataset == "" {
		dataset = "production"
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		projectID:  strings.TrimSpace(opts.ProjectID),
		dataset:    dataset,
		apiVersion: apiVersion,
		useCDN:     opts.UseCDN,
		token:      opts.Token,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: httpClient,
	}
}

func (c *Client) ProjectID() string { return c.projectID }
func (c *Client) Dataset() string   { return c.dataset }

// ImageResolver returns a function turning asset refs into CDN URLs for this project.
func (c *Client) ImageResolver() func(ref string) string {
	return func(ref string) string {
		return richtext.ImageURL(c.projectID, c.dataset, ref)
	}
}

type queryResponse struct {
	Result json.RawMessage `json:"result"`
}

type errorResponse struct {
	Error struct {
		Description string `json:"description"`
		Type        string `json:"type"`
	} `json:"error"`
}

// Query runs a GROQ query and decodes its result into out. Params are passed as
// $name query parameters, so values never need to be spliced into the query text.
// A null result leaves out untouched.
func (c *Client) Query(ctx context.Context, groq string, params map[string]any, out any) error {
	if c == nil || c.projectID == "" {
		return ErrNotConfigured
	}

	endpoint, err := c.queryURL(groq, params)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("sanity create request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	if c.token != "" {
		req.Header.Set("authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sanity request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var apiErr errorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Description != "" {
			return fmt.Errorf("sanity query failed: status=%d %s", resp.StatusCode, apiErr.Error.Description)
		}
		return fmt.Errorf("sanity query failed: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var qr queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&qr); err != nil {
		return fmt.Errorf("sanity decode response: %w", err)
	}
	if len(qr.Result) == 0 || string(qr.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(qr.Result, out); err != nil {
		return fmt.Errorf("sanity decode result: %w", err)
	}
	return nil
}

func (c *Client) queryURL(groq string, params map[string]any) (string, error) {
	base := c.baseURL
	if base == "" {
		host := "api"
		if c.useCDN {
			host = "apicdn"
		}
		base = fmt.Sprintf("https://%s.%s.sanity.io", c.projectID, host)
	}

	values := url.Values{}
	values.Set("query", groq)
	for name, value := range params {
		encoded, err := json.Marshal(value)
		if err != nil {
			return "", fmt.Errorf("sanity encode param %s: %w", name, err)
		}
		values.Set("$"+name, string(encoded))
	}
	return fmt.Sprintf("%s/v%s/data/query/%s?%s", base, c.apiVersion, url.PathEscape(c.dataset), values.Encode()), nil
}
