package config

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	ContentSourceSanity = "sanity"
	ContentSourceMongo  = "mongo"

	MailProviderResend = "resend"
	MailProviderBrevo  = "brevo"
)

type Config struct {
	Env            string `envconfig:"APP_ENV" default:"development"`
	ServerAddr     string `envconfig:"SERVER_ADDR" default:":8080"`
	SiteURL        string `envconfig:"SITE_URL" default:"https://pluscode.dev"`
	FrontendOrigin string `envconfig:"FRONTEND_ORIGIN" default:"http://localhost:3000"`

	ContentSource    string `envconfig:"CONTENT_SOURCE" default:"sanity"`
	SanityProjectID  string `envconfig:"SANITY_PROJECT_ID"`
	SanityDataset    string `envconfig:"SANITY_DATASET" default:"production"`
	SanityAPIVersion string `envconfig:"SANITY_API_VERSION" default:"2024-01-01"`
	SanityUseCDN     bool   `envconfig:"SANITY_USE_CDN" default:"true"`
	SanityToken      string `envconfig:"SANITY_TOKEN"`
	RevalidateSecret string `envconfig:"SANITY_REVALIDATE_SECRET"`

	MongoURI string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017/pluscode"`
	MongoDB  string `envconfig:"MONGO_DB"`

	RedisURL               string `envconfig:"REDIS_URL"`
	RedisAddr              string `envconfig:"REDIS_ADDR"`
	RedisPassword          string `envconfig:"REDIS_PASSWORD"`
	RedisDB                int    `envconfig:"REDIS_DB" default:"0"`
	CacheTTLSeconds        int    `envconfig:"CACHE_TTL_SECONDS" default:"3600"`
	AnnouncementTTLSeconds int    `envconfig:"ANNOUNCEMENT_TTL_SECONDS" default:"300"`

	RecaptchaSecretKey string  `envconfig:"RECAPTCHA_SECRET_KEY"`
	RecaptchaMinScore  float64 `envconfig:"RECAPTCHA_MIN_SCORE" default:"0.5"`
	RecaptchaAction    string  `envconfig:"RECAPTCHA_ACTION" default:"contact_form"`

	MailProvider string `envconfig:"MAIL_PROVIDER" default:"resend"`
	ResendAPIKey string `envconfig:"RESEND_API_KEY"`
	BrevoAPIKey  string `envconfig:"BREVO_API_KEY"`
	BrevoSandbox bool   `envconfig:"BREVO_SANDBOX" default:"false"`
	MailFrom     string `envconfig:"MAIL_FROM" default:"PlusCode Contact Form <noreply@pluscode.io>"`
	ContactEmail string `envconfig:"CONTACT_EMAIL" default:"contact@pluscode.io"`

	RateLimitContact   int `envconfig:"RATE_LIMIT_CONTACT" default:"5"`
	RateLimitWindowSec int `envconfig:"RATE_LIMIT_WINDOW_SEC" default:"60"`

	AdminAPIKey       string `envconfig:"ADMIN_API_KEY"`
	AdminUser         string `envconfig:"ADMIN_USER" default:"admin"`
	AdminPasswordHash string `envconfig:"ADMIN_PASSWORD_HASH"`
	JWTSecret         string `envconfig:"JWT_SECRET"`
	AccessTTLMinutes  int    `envconfig:"ACCESS_TTL_MINUTES" default:"15"`
	RefreshTTLMinutes int    `envconfig:"REFRESH_TTL_MINUTES" default:"43200"`
	CookieSecure      bool   `envconfig:"COOKIE_SECURE" default:"false"`
}

func Load() (*Config, error) {
	// A missing .env is fine; variables already in the environment take precedence.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	cfg.ContentSource = strings.ToLower(strings.TrimSpace(cfg.ContentSource))
	if cfg.ContentSource != ContentSourceSanity && cfg.ContentSource != ContentSourceMongo {
		return nil, errors.New("CONTENT_SOURCE must be sanity or mongo")
	}
	cfg.MailProvider = strings.ToLower(strings.TrimSpace(cfg.MailProvider))
	if cfg.MailProvider != MailProviderResend && cfg.MailProvider != MailProviderBrevo {
		return nil, errors.New("MAIL_PROVIDER must be resend or brevo")
	}
	if cfg.RecaptchaMinScore <= 0 || cfg.RecaptchaMinScore > 1 {
		return nil, errors.New("RECAPTCHA_MIN_SCORE must be greater than 0 and at most 1")
	}

	if cfg.MongoDB == "" {
		cfg.MongoDB = mongoDBFromURI(cfg.MongoURI)
	}
	if cfg.MongoDB == "" {
		cfg.MongoDB = "pluscode"
	}
	cfg.SiteURL = strings.TrimRight(cfg.SiteURL, "/")

	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ContentTTL is zero in development so every page render sees fresh content.
func (c *Config) ContentTTL() time.Duration {
	if c.IsDevelopment() {
		return 0
	}
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

func (c *Config) AnnouncementTTL() time.Duration {
	if c.IsDevelopment() {
		return 0
	}
	return time.Duration(c.AnnouncementTTLSeconds) * time.Second
}

func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSec) * time.Second
}

func mongoDBFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	db := strings.Trim(u.Path, "/")
	if db == "" {
		return ""
	}
	// mongodb URIs sometimes include extra path segments; we only support the first one as db name.
	if idx := strings.Index(db, "/"); idx >= 0 {
		db = db[:idx]
	}
	return db
}
