// Package contactform is the client side of the contact pipeline: per-field
// validation state, captcha token acquisition and submission.
package contactform

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"pluscode-backend/internal/catalog"
	"pluscode-backend/internal/contact"
)

const (
	// Action is the captcha action the token is requested for.
	Action = "contact_form"

	SuccessDuration = 5 * time.Second

	keyRecaptchaNotLoaded = "contact.recaptchaNotLoaded"
	keySendFailed         = "contact.sendFailed"
)

type Field string

const (
	FieldName    Field = "name"
	FieldEmail   Field = "email"
	FieldCompany Field = "company"
	FieldMessage Field = "message"
)

var validatedFields = []Field{FieldName, FieldEmail, FieldMessage}

type Status string

const (
	StatusIdle       Status = "idle"
	StatusSubmitting Status = "submitting"
	StatusSuccess    Status = "success"
	StatusError      Status = "error"
)

var (
	ErrInvalid          = errors.New("form has invalid fields")
	ErrTokenUnavailable = errors.New("captcha token unavailable")
	ErrBusy             = errors.New("submission already in progress")
)

// TokenSource issues captcha tokens for an action.
type TokenSource interface {
	Token(ctx context.Context, action string) (string, error)
}

type Submitter interface {
	Submit(ctx context.Context, sub contact.Submission) (string, error)
}

type Options struct {
	Locale  string
	Catalog *catalog.Catalog
	// AfterFunc schedules the success reset; defaults to time.AfterFunc.
	AfterFunc func(d time.Duration, f func())
}

// Form holds the state of one contact form. It is safe for concurrent use.
type Form struct {
	mu sync.Mutex

	values  contact.Fields
	focused Field
	touched map[Field]bool
	errors  map[Field]string

	status    Status
	message   string
	messageID string
	// generation invalidates pending success resets when a new submission starts.
	generation int

	tokens    TokenSource
	submitter Submitter
	cat       *catalog.Catalog
	locale    string
	afterFunc func(d time.Duration, f func())
}

func New(tokens TokenSource, submitter Submitter, opts Options) *Form {
	if opts.Catalog == nil {
		opts.Catalog = catalog.Default()
	}
	if opts.Locale == "" {
		opts.Locale = catalog.DefaultLocale
	}
	if opts.AfterFunc == nil {
		opts.AfterFunc = func(d time.Duration, f func()) { time.AfterFunc(d, f) }
	}
	return &Form{
		touched:   map[Field]bool{},
		errors:    map[Field]string{},
		status:    StatusIdle,
		tokens:    tokens,
		submitter: submitter,
		cat:       opts.Catalog,
		locale:    opts.Locale,
		afterFunc: opts.AfterFunc,
	}
}

func (f *Form) Focus(field Field) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.focused = field
}

// Blur marks field touched and validates it.
func (f *Form) Blur(field Field) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.focused == field {
		f.focused = ""
	}
	f.touched[field] = true
	f.validateLocked(field)
}

// Change updates a value. Fields already touched are revalidated immediately.
func (f *Form) Change(field Field, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch field {
	case FieldName:
		f.values.Name = value
	case FieldEmail:
		f.values.Email = value
	case FieldCompany:
		f.values.Company = value
	case FieldMessage:
		f.values.Message = value
	}
	if f.touched[field] {
		f.validateLocked(field)
	}
}

func (f *Form) validateLocked(field Field) {
	var key string
	switch field {
	case FieldName:
		key = contact.CheckName(f.values.Name)
	case FieldEmail:
		key = contact.CheckEmail(f.values.Email)
	case FieldMessage:
		key = contact.CheckMessage(f.values.Message)
	default:
		return
	}
	if key == "" {
		delete(f.errors, field)
		return
	}
	f.errors[field] = key
}

// Submit runs the submission sequence. Validation failures return ErrInvalid
// without any network call; other failures leave the form in StatusError with a
// user-facing message.
func (f *Form) Submit(ctx context.Context) error {
	f.mu.Lock()
	if f.status == StatusSubmitting {
		f.mu.Unlock()
		return ErrBusy
	}
	for _, field := range validatedFields {
		f.touched[field] = true
		f.validateLocked(field)
	}
	if len(f.errors) > 0 {
		f.mu.Unlock()
		return ErrInvalid
	}
	if f.tokens == nil {
		f.failLocked(f.cat.String(f.locale, keyRecaptchaNotLoaded))
		f.mu.Unlock()
		return ErrTokenUnavailable
	}
	f.generation++
	f.status = StatusSubmitting
	f.message = ""
	values := f.values
	f.mu.Unlock()

	token, err := f.tokens.Token(ctx, Action)
	if err != nil || token == "" {
		f.mu.Lock()
		f.failLocked(f.cat.String(f.locale, keyRecaptchaNotLoaded))
		f.mu.Unlock()
		if err == nil {
			return ErrTokenUnavailable
		}
		return fmt.Errorf("%w: %w", ErrTokenUnavailable, err)
	}

	id, err := f.submitter.Submit(ctx, contact.Submission{Fields: values, CaptchaToken: token})

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		var serverErr *ServerError
		msg := f.cat.String(f.locale, keySendFailed)
		if errors.As(err, &serverErr) && serverErr.Message != "" {
			msg = serverErr.Message
		}
		f.failLocked(msg)
		return err
	}

	f.values = contact.Fields{}
	f.touched = map[Field]bool{}
	f.errors = map[Field]string{}
	f.status = StatusSuccess
	f.message = f.cat.String(f.locale, "contact.success")
	f.messageID = id

	gen := f.generation
	f.afterFunc(SuccessDuration, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.generation == gen && f.status == StatusSuccess {
			f.status = StatusIdle
			f.message = ""
		}
	})
	return nil
}

func (f *Form) failLocked(msg string) {
	f.status = StatusError
	f.message = msg
}

// Snapshot is a read-only view of the form for rendering.
type Snapshot struct {
	Values    contact.Fields
	Focused   Field
	Touched   map[Field]bool
	Errors    map[Field]string
	Status    Status
	Message   string
	MessageID string
}

func (f *Form) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	touched := make(map[Field]bool, len(f.touched))
	for k, v := range f.touched {
		touched[k] = v
	}
	errs := make(map[Field]string, len(f.errors))
	for k, v := range f.errors {
		errs[k] = v
	}
	return Snapshot{
		Values:    f.values,
		Focused:   f.focused,
		Touched:   touched,
		Errors:    errs,
		Status:    f.status,
		Message:   f.message,
		MessageID: f.messageID,
	}
}

// ErrorText returns the localized inline error for field. Errors are only shown
// once the field has been touched.
func (f *Form) ErrorText(field Field) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	key, ok := f.errors[field]
	if !ok || !f.touched[field] {
		return ""
	}
	return f.cat.String(f.locale, key)
}
