// Package captcha verifies reCAPTCHA v3 tokens server side.
package captcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultEndpoint = "https://www.google.com/recaptcha/api/siteverify"
	DefaultMinScore = 0.5
)

var (
	ErrNotConfigured = errors.New("recaptcha secret not configured")
	ErrRejected      = errors.New("recaptcha verification rejected")
)

// Response mirrors the siteverify payload. Score is nil for v2 keys.
type Response struct {
	Success     bool     `json:"success"`
	Score       *float64 `json:"score,omitempty"`
	Action      string   `json:"action,omitempty"`
	ChallengeTS string   `json:"challenge_ts,omitempty"`
	Hostname    string   `json:"hostname,omitempty"`
	ErrorCodes  []string `json:"error-codes,omitempty"`
}

type Options struct {
	Secret   string
	MinScore float64
	// Action, when set, must match the action the token was issued for.
	Action     string
	Endpoint   string
	HTTPClient *http.Client
}

type Verifier struct {
	secret   string
	minScore float64
	action   string
	endpoint string
	client   *http.Client
}

func NewVerifier(opts Options) *Verifier {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.MinScore <= 0 {
		opts.MinScore = DefaultMinScore
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Verifier{
		secret:   opts.Secret,
		minScore: opts.MinScore,
		action:   opts.Action,
		endpoint: opts.Endpoint,
		client:   opts.HTTPClient,
	}
}

// Verify checks token with the provider and applies Evaluate. Any failure,
// including transport errors, is returned as an error; callers treat all of them
// as a failed verification.
func (v *Verifier) Verify(ctx context.Context, token, remoteIP string) (*Response, error) {
	if v.secret == "" {
		return nil, ErrNotConfigured
	}

	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("siteverify request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("siteverify status %d", resp.StatusCode)
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("siteverify decode: %w", err)
	}
	if err := v.Evaluate(out); err != nil {
		return &out, err
	}
	return &out, nil
}

// Evaluate applies the acceptance policy: the provider must report success, and a
// reported score must reach the threshold. A successful response without a score
// is accepted.
func (v *Verifier) Evaluate(r Response) error {
	if !r.Success {
		if len(r.ErrorCodes) > 0 {
			return fmt.Errorf("%w: %s", ErrRejected, strings.Join(r.ErrorCodes, ","))
		}
		return ErrRejected
	}
	if r.Score != nil && *r.Score < v.minScore {
		return fmt.Errorf("%w: score %.2f below %.2f", ErrRejected, *r.Score, v.minScore)
	}
	if v.action != "" && r.Action != "" && r.Action != v.action {
		return fmt.Errorf("%w: action %q", ErrRejected, r.Action)
	}
	return nil
}
