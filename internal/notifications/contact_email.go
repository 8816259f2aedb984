package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// ContactMessage is a verified contact form submission.
type ContactMessage struct {
	Name    string
	Email   string
	Company string
	Message string
}

// Subject is the line the team sees in its inbox.
func (m ContactMessage) Subject() string {
	return fmt.Sprintf("New Contact Form Submission from %s", strings.TrimSpace(m.Name))
}

const contactNotificationTemplate = `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #1a1a1a; border-bottom: 2px solid #8b5cf6; padding-bottom: 10px;">
    New Contact Form Submission
  </h2>
  <div style="margin: 20px 0;">
    <p style="margin: 10px 0;"><strong>Name:</strong> {{.Name}}</p>
    <p style="margin: 10px 0;"><strong>Email:</strong> <a href="mailto:{{.Email}}">{{.Email}}</a></p>
    {{- if .Company}}
    <p style="margin: 10px 0;"><strong>Company:</strong> {{.Company}}</p>
    {{- end}}
  </div>
  <div style="background-color: #f5f5f5; padding: 20px; border-radius: 8px; margin: 20px 0;">
    <h3 style="color: #1a1a1a; margin-top: 0;">Message:</h3>
    <p style="white-space: pre-wrap; color: #333;">{{.Message}}</p>
  </div>
  <hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;" />
  <p style="color: #666; font-size: 12px;">
    This email was sent from the PlusCode website contact form.
  </p>
</div>`

var contactNotificationTmpl = template.Must(template.New("contact_notification").Parse(contactNotificationTemplate))

// BuildContactHTML renders the team notification. Submitter input is escaped.
func BuildContactHTML(msg ContactMessage) (string, error) {
	var buf bytes.Buffer
	if err := contactNotificationTmpl.Execute(&buf, msg); err != nil {
		return "", err
	}
	return buf.String(), nil
}
