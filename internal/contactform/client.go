package contactform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pluscode-backend/internal/contact"
)

// ServerError carries the error text of a non-2xx contact response.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("contact endpoint returned %d", e.Status)
	}
	return e.Message
}

// Client posts submissions to a running contact endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient takes the site origin, e.g. "https://pluscode.dev".
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	return &Client{
		endpoint:   strings.TrimRight(baseURL, "/") + "/api/contact",
		httpClient: httpClient,
	}
}

func (c *Client) Submit(ctx context.Context, sub contact.Submission) (string, error) {
	raw, err := json.Marshal(sub)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("contact request: %w", err)
	}
	defer resp.Body.Close()

	var out struct {
		Success   bool   `json:"success"`
		MessageID string `json:"messageId"`
		Error     string `json:"error"`
	}
	decodeErr := json.NewDecoder(resp.Body).Decode(&out)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &ServerError{Status: resp.StatusCode, Message: out.Error}
	}
	if decodeErr != nil {
		return "", fmt.Errorf("contact decode response: %w", decodeErr)
	}
	return out.MessageID, nil
}
