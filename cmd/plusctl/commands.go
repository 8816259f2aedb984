package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"pluscode-backend/internal/auth"
	"pluscode-backend/internal/contactform"
	"pluscode-backend/internal/sanity"
)

type staticToken string

func (s staticToken) Token(ctx context.Context, action string) (string, error) {
	if s == "" {
		return "", errors.New("no captcha token given")
	}
	return string(s), nil
}

func contactAction(c *cli.Context) error {
	httpClient := &http.Client{Timeout: 20 * time.Second}
	form := contactform.New(
		staticToken(c.String("captcha-token")),
		contactform.NewClient(c.String("server"), httpClient),
		contactform.Options{Locale: c.String("locale"), AfterFunc: func(time.Duration, func()) {}},
	)
	form.Change(contactform.FieldName, c.String("name"))
	form.Change(contactform.FieldEmail, c.String("email"))
	form.Change(contactform.FieldCompany, c.String("company"))
	form.Change(contactform.FieldMessage, c.String("message"))

	err := form.Submit(c.Context)
	snap := form.Snapshot()
	if errors.Is(err, contactform.ErrInvalid) {
		for _, field := range []contactform.Field{contactform.FieldName, contactform.FieldEmail, contactform.FieldMessage} {
			if msg := form.ErrorText(field); msg != "" {
				fmt.Fprintf(c.App.ErrWriter, "%s: %s\n", field, msg)
			}
		}
		return cli.Exit("contact: invalid input", 1)
	}
	if err != nil {
		return cli.Exit(fmt.Sprintf("contact: %s", snap.Message), 1)
	}

	fmt.Fprintf(c.App.Writer, "%s (message id %s)\n", snap.Message, snap.MessageID)
	return nil
}

func revalidateAction(c *cli.Context) error {
	secret := c.String("secret")
	if secret == "" {
		return cli.Exit("revalidate: --secret or SANITY_REVALIDATE_SECRET is required", 1)
	}

	doc := map[string]interface{}{"_type": c.String("type")}
	if slug := c.String("slug"); slug != "" {
		doc["slug"] = map[string]string{"_type": "slug", "current": slug}
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context, 15*time.Second)
	defer cancel()

	endpoint := strings.TrimRight(c.String("server"), "/") + "/api/revalidate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(sanity.SignatureHeader, sanity.Sign(payload, secret, time.Now()))

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	fmt.Fprintf(c.App.Writer, "%d %s\n", resp.StatusCode, strings.TrimSpace(string(body)))
	if resp.StatusCode != http.StatusOK {
		return cli.Exit("revalidate: server rejected the webhook", 1)
	}
	return nil
}

func hashPasswordAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("hash-password: expected exactly one password argument", 1)
	}
	hash, err := auth.HashPassword(c.Args().First())
	if err != nil {
		return cli.Exit(fmt.Sprintf("hash-password: %v (minimum %d characters)", err, auth.MinPasswordLength), 1)
	}
	fmt.Fprintln(c.App.Writer, hash)
	return nil
}
