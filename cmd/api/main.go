package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pluscode-backend/internal/admin"
	"pluscode-backend/internal/auth"
	"pluscode-backend/internal/cache"
	"pluscode-backend/internal/captcha"
	"pluscode-backend/internal/catalog"
	"pluscode-backend/internal/config"
	"pluscode-backend/internal/contact"
	"pluscode-backend/internal/content"
	"pluscode-backend/internal/db"
	"pluscode-backend/internal/locale"
	"pluscode-backend/internal/metrics"
	"pluscode-backend/internal/middleware"
	"pluscode-backend/internal/notifications"
	"pluscode-backend/internal/revalidate"
	"pluscode-backend/internal/sanity"
	"pluscode-backend/internal/sitemap"
	"pluscode-backend/internal/validation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	cacheStore, closeCache, err := newCacheStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("redis connection failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeCache()

	source, closeSource, err := newContentSource(ctx, cfg, logger)
	if err != nil {
		logger.Error("content source failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeSource()

	val := validation.New()
	cat := catalog.Default()

	contentService := content.NewService(source, cat, cache.NewTagged(cacheStore, "content:"), logger, content.Options{
		ContentTTL:      cfg.ContentTTL(),
		AnnouncementTTL: cfg.AnnouncementTTL(),
		Metrics:         m,
	})
	contentHandler := content.NewHandler(contentService, cat, logger)

	verifier := captcha.NewVerifier(captcha.Options{
		Secret:   cfg.RecaptchaSecretKey,
		MinScore: cfg.RecaptchaMinScore,
		Action:   cfg.RecaptchaAction,
	})
	if cfg.RecaptchaSecretKey == "" {
		logger.Warn("recaptcha secret missing: contact submissions will be rejected")
	}
	contactHandler := contact.NewHandler(contact.NewService(verifier, newNotifier(cfg, logger)), m, logger)

	if cfg.RevalidateSecret == "" {
		logger.Warn("revalidate secret missing: webhook calls will be rejected")
	}
	revalidateHandler := revalidate.NewHandler(contentService, cfg.RevalidateSecret, val, m, logger)

	jwtManager := auth.NewManager(cfg.JWTSecret,
		time.Duration(cfg.AccessTTLMinutes)*time.Minute,
		time.Duration(cfg.RefreshTTLMinutes)*time.Minute,
	)
	adminHandler := admin.NewHandler(admin.Credentials{User: cfg.AdminUser, PasswordHash: cfg.AdminPasswordHash}, jwtManager, cfg.CookieSecure, val, logger)
	requireAdmin := middleware.AdminAuth(cfg.AdminAPIKey, jwtManager)

	localeHandler := locale.NewHandler(val, logger)
	sitemapHandler := sitemap.NewHandler(sitemap.NewBuilder(cfg.SiteURL, contentService), logger)

	contactLimiter := middleware.NewRateLimiter(cfg.RateLimitContact, cfg.RateLimitWindow())

	r := chi.NewRouter()
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger, m))
	r.Use(middleware.CORS(cfg.FrontendOrigin))
	r.Use(chiMiddleware.Timeout(30 * time.Second))
	r.Use(locale.Middleware(cfg.CookieSecure))

	r.Get("/sitemap.xml", sitemapHandler.Sitemap)
	r.Get("/robots.txt", sitemapHandler.Robots)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	// Paths the site and the CMS already call.
	r.Post("/api/revalidate", revalidateHandler.Webhook)
	r.With(contactLimiter.Middleware).Post("/api/contact", contactHandler.Submit)

	r.Route("/api/v1", func(api chi.Router) {
		api.Get("/case-studies", contentHandler.ListCaseStudies)
		api.Get("/case-studies/featured", contentHandler.FeaturedCaseStudies)
		api.Get("/case-studies/paths", contentHandler.CaseStudyPaths)
		api.Get("/case-studies/{slug}", contentHandler.GetCaseStudy)
		api.Get("/case-studies/{slug}/related", contentHandler.RelatedCaseStudies)

		api.Get("/insights", contentHandler.ListInsights)
		api.Get("/insights/featured", contentHandler.FeaturedInsight)
		api.Get("/insights/recent", contentHandler.RecentInsights)
		api.Get("/insights/paths", contentHandler.InsightPaths)
		api.Get("/insights/{slug}", contentHandler.GetInsight)
		api.Get("/insights/{slug}/related", contentHandler.RelatedInsights)

		api.Get("/announcement", contentHandler.Announcement)

		api.Get("/locale", localeHandler.Get)
		api.Post("/locale", localeHandler.Set)

		api.With(contactLimiter.Middleware).Post("/contact", contactHandler.Submit)

		api.Route("/admin", func(adm chi.Router) {
			adm.Post("/login", adminHandler.Login)
			adm.Post("/refresh", adminHandler.Refresh)
			adm.Post("/logout", adminHandler.Logout)

			adm.Group(func(protected chi.Router) {
				protected.Use(requireAdmin)
				protected.Post("/revalidate", revalidateHandler.Admin)
			})
		})
	})

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: r,
	}

	go func() {
		logger.Info("server started", slog.String("addr", cfg.ServerAddr), slog.String("content_source", cfg.ContentSource))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
}

func newCacheStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (cache.Cache, func(), error) {
	if cfg.RedisURL == "" && cfg.RedisAddr == "" {
		logger.Info("redis not configured, using in-memory cache")
		memory := cache.NewMemory()
		cleanupCtx, stopCleanup := context.WithCancel(context.Background())
		memory.StartCleanup(cleanupCtx, 5*time.Minute)
		return memory, stopCleanup, nil
	}

	var redisCache *cache.RedisCache
	if cfg.RedisURL != "" {
		var err error
		if redisCache, err = cache.NewRedisFromURL(cfg.RedisURL); err != nil {
			return nil, nil, err
		}
	} else {
		redisCache = cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	}
	if err := redisCache.Ping(ctx); err != nil {
		return nil, nil, err
	}
	logger.Info("redis connected")
	return redisCache, func() { _ = redisCache.Close() }, nil
}

func newContentSource(ctx context.Context, cfg *config.Config, logger *slog.Logger) (content.Source, func(), error) {
	if cfg.ContentSource == config.ContentSourceMongo {
		client, cols, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, nil, err
		}
		if err := db.EnsureIndexes(ctx, cols); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		logger.Info("mongo connected", slog.String("db", cfg.MongoDB))
		return content.NewMongoSource(cols), func() { _ = client.Disconnect(context.Background()) }, nil
	}

	if cfg.SanityProjectID == "" {
		logger.Warn("sanity project id missing: serving fallback content only")
	}
	client := sanity.New(sanity.Options{
		ProjectID:  cfg.SanityProjectID,
		Dataset:    cfg.SanityDataset,
		APIVersion: cfg.SanityAPIVersion,
		UseCDN:     cfg.SanityUseCDN,
		Token:      cfg.SanityToken,
	})
	return content.NewSanitySource(client, logger), func() {}, nil
}

// newNotifier returns an untyped nil when the provider is not configured, which
// the contact service reports as a send failure.
func newNotifier(cfg *config.Config, logger *slog.Logger) contact.Notifier {
	switch cfg.MailProvider {
	case config.MailProviderBrevo:
		if c := notifications.NewBrevoClient(cfg.BrevoAPIKey, cfg.MailFrom, cfg.ContactEmail, cfg.BrevoSandbox); c != nil {
			logger.Info("brevo mailer enabled", slog.Bool("sandbox", cfg.BrevoSandbox))
			return c
		}
	default:
		if c := notifications.NewResendClient(cfg.ResendAPIKey, cfg.MailFrom, cfg.ContactEmail); c != nil {
			logger.Info("resend mailer enabled")
			return c
		}
	}
	logger.Warn("mailer disabled", slog.String("provider", cfg.MailProvider))
	return nil
}
