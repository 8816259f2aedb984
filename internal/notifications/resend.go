package notifications

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/resendlabs/resend-go"
)

// ResendClient delivers contact notifications through the Resend API.
type ResendClient struct {
	client *resend.Client
	from   string
	to     string
}

// NewResendClient returns nil when apiKey is empty so callers can fall back to
// another provider.
func NewResendClient(apiKey, from, to string) *ResendClient {
	if strings.TrimSpace(apiKey) == "" {
		return nil
	}
	return &ResendClient{
		client: resend.NewClient(apiKey),
		from:   from,
		to:     to,
	}
}

// WithBaseURL points the client at another API host, e.g. a local mock.
func (c *ResendClient) WithBaseURL(raw string) (*ResendClient, error) {
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("resend base url: %w", err)
	}
	c.client.BaseURL = u
	return c, nil
}

func (c *ResendClient) SendContact(ctx context.Context, msg ContactMessage) (string, error) {
	if c == nil {
		return "", errors.New("resend client is nil")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	htmlBody, err := BuildContactHTML(msg)
	if err != nil {
		return "", fmt.Errorf("render contact email: %w", err)
	}

	resp, err := c.client.Emails.Send(&resend.SendEmailRequest{
		From:    c.from,
		To:      []string{c.to},
		ReplyTo: msg.Email,
		Subject: msg.Subject(),
		Html:    htmlBody,
	})
	if err != nil {
		return "", fmt.Errorf("resend send failed: %w", err)
	}
	if strings.TrimSpace(resp.Id) == "" {
		return "", errors.New("resend response missing id")
	}
	return resp.Id, nil
}
