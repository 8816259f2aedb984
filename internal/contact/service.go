package contact

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pluscode-backend/internal/captcha"
	"pluscode-backend/internal/notifications"
)

// User-facing messages. Provider details never reach the response.
const (
	MsgMissingFields      = "Missing required fields"
	MsgVerificationFailed = "Security verification failed. Please try again."
	MsgSendFailed         = "Failed to send email. Please try again later."
	MsgUnexpected         = "An unexpected error occurred. Please try again later."
)

var (
	ErrMissingFields      = errors.New("missing required fields")
	ErrVerificationFailed = errors.New("captcha verification failed")
	ErrSendFailed         = errors.New("email dispatch failed")
)

type Submission struct {
	Fields
	CaptchaToken string `json:"captchaToken"`
	// BotToken is accepted as an alias of CaptchaToken.
	BotToken string `json:"botToken,omitempty"`
}

func (s Submission) token() string {
	if t := strings.TrimSpace(s.CaptchaToken); t != "" {
		return t
	}
	return strings.TrimSpace(s.BotToken)
}

type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) (*captcha.Response, error)
}

type Notifier interface {
	SendContact(ctx context.Context, msg notifications.ContactMessage) (string, error)
}

type Service struct {
	verifier Verifier
	notifier Notifier
}

func NewService(verifier Verifier, notifier Notifier) *Service {
	return &Service{verifier: verifier, notifier: notifier}
}

// Submit checks presence of the required fields, re-verifies the captcha token and
// dispatches the notification. It returns the provider message id.
func (s *Service) Submit(ctx context.Context, sub Submission, remoteIP string) (string, error) {
	msg := notifications.ContactMessage{
		Name:    strings.TrimSpace(sub.Name),
		Email:   strings.TrimSpace(sub.Email),
		Company: strings.TrimSpace(sub.Company),
		Message: strings.TrimSpace(sub.Message),
	}
	token := sub.token()
	if msg.Name == "" || msg.Email == "" || msg.Message == "" || token == "" {
		return "", ErrMissingFields
	}

	if s.verifier == nil {
		return "", fmt.Errorf("%w: %w", ErrVerificationFailed, captcha.ErrNotConfigured)
	}
	if _, err := s.verifier.Verify(ctx, token, remoteIP); err != nil {
		return "", fmt.Errorf("%w: %w", ErrVerificationFailed, err)
	}

	if s.notifier == nil {
		return "", fmt.Errorf("%w: mail provider not configured", ErrSendFailed)
	}
	id, err := s.notifier.SendContact(ctx, msg)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSendFailed, err)
	}
	return id, nil
}
