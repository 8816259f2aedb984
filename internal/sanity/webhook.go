package sanity

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"
)

const SignatureHeader = "sanity-webhook-signature"

var ErrInvalidSignature = errors.New("invalid webhook signature")

// Sign builds a signature header value for payload: t=<unix ms>,v1=<digest>.
func Sign(payload []byte, secret string, t time.Time) string {
	ts := strconv.FormatInt(t.UnixMilli(), 10)
	return "t=" + ts + ",v1=" + digest(ts, payload, secret)
}

// VerifySignature checks a signature header against payload. An empty secret never
// verifies.
func VerifySignature(payload []byte, header, secret string) error {
	if secret == "" {
		return ErrInvalidSignature
	}
	ts, sig, ok := parseSignatureHeader(header)
	if !ok {
		return ErrInvalidSignature
	}
	expected := digest(ts, payload, secret)
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return ErrInvalidSignature
	}
	return nil
}

func digest(ts string, payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func parseSignatureHeader(header string) (string, string, bool) {
	var ts, sig string
	for _, part := range strings.Split(strings.TrimSpace(header), ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			ts = value
		case "v1":
			sig = value
		}
	}
	if ts == "" || sig == "" {
		return "", "", false
	}
	if _, err := strconv.ParseInt(ts, 10, 64); err != nil {
		return "", "", false
	}
	return ts, sig, true
}
