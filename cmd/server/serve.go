package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/jmahrt/portfolio/internal/api"
	"github.com/jmahrt/portfolio/internal/auth"
	"github.com/jmahrt/portfolio/internal/chat"
	"github.com/jmahrt/portfolio/internal/config"
	"github.com/jmahrt/portfolio/internal/contact"
	"github.com/jmahrt/portfolio/internal/domain"
	"github.com/jmahrt/portfolio/internal/llm"
	"github.com/jmahrt/portfolio/internal/mail"
	"github.com/jmahrt/portfolio/internal/middleware"
	"github.com/jmahrt/portfolio/internal/service"
	"github.com/jmahrt/portfolio/internal/store"
	"github.com/jmahrt/portfolio/web"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := slog.Default()
	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment(), "store", cfg.Store.Driver)

	// Initialize dependencies.
	repo, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if cfg.Admin.Username != "" {
		if _, created, err := auth.EnsureAdmin(ctx, repo, cfg.Admin.Username, cfg.Admin.Password); err != nil {
			slog.Error("Failed to bootstrap admin", "error", err)
			return err
		} else if created {
			slog.Info("Admin account created", "username", cfg.Admin.Username)
		}
	}

	authSvc, err := newAuthService(cfg, repo, logger)
	if err != nil {
		return err
	}

	contactSvc, err := newContactService(cfg, logger)
	if err != nil {
		return err
	}

	pipeline, err := newPipeline(cfg, repo, logger)
	if err != nil {
		return err
	}

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	r.Use(middleware.CORS(middleware.Origins(cfg.FrontendURL, cfg.IsDevelopment())))

	api.Mount(r, api.Handlers{
		Health:   api.NewHealthHandler(repo, cfg.ChatEnabled(), contactSvc.Enabled()),
		Chat:     api.NewChatHandler(pipeline, logger),
		Contact:  api.NewContactHandler(contactSvc),
		Projects: api.NewProjectHandler(repo),
		Resume:   api.NewResumeHandler(repo),
		Admin:    api.NewAdminHandler(authSvc, !cfg.IsDevelopment()),
		Auth:     authSvc,
	})

	// Serve embedded frontend (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	// The chat socket streams for as long as inference takes, so no WriteTimeout.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	group := service.Group{
		service.NewHTTPServer(srv, logger),
		auth.NewSweeper(repo, cfg.Session.SweepInterval),
	}
	if cfg.GRPCHealthPort != "" {
		group = append(group, service.NewGRPCHealth(":"+cfg.GRPCHealthPort, repo, logger))
	}

	if err := group.Run(ctx); err != nil {
		slog.Error("Server failed", "error", err)
		return err
	}
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (store.Repository, error) {
	repo, err := store.Open(cfg.Store.Driver, cfg.Store.DataDir, cfg.Store.SQLitePath)
	if err != nil {
		slog.Error("Failed to initialize store", "error", err)
		return nil, err
	}
	if err := repo.Ping(ctx); err != nil {
		_ = repo.Close()
		slog.Error("Store health check failed", "error", err)
		return nil, err
	}
	if err := store.Seed(ctx, repo); err != nil {
		_ = repo.Close()
		slog.Error("Failed to seed store", "error", err)
		return nil, err
	}
	slog.Info("Store ready", "driver", cfg.Store.Driver)
	return repo, nil
}

func newAuthService(cfg *config.Config, repo store.Repository, logger *slog.Logger) (*auth.Service, error) {
	secret := cfg.Session.Secret
	if secret == "" {
		var err error
		if secret, err = auth.RandomSecret(); err != nil {
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
		slog.Warn("SESSION_SECRET not set, admin sessions will not survive a restart")
	}
	signer, err := auth.NewSigner([]byte(secret))
	if err != nil {
		return nil, err
	}
	return auth.NewService(repo, signer, cfg.Session.TTL, logger), nil
}

func newContactService(cfg *config.Config, logger *slog.Logger) (*contact.Service, error) {
	if !cfg.MailEnabled() {
		slog.Info("Contact form disabled (SMTP_PASS, SENDER_EMAIL or RECIPIENT_EMAIL not set)")
		return contact.NewService(nil, "", "", logger), nil
	}
	sender, err := mail.NewSMTPSender(mail.SMTPConfig{
		Host: cfg.Mail.SMTP.Host,
		Port: cfg.Mail.SMTP.Port,
		User: cfg.Mail.SMTP.User,
		Pass: cfg.Mail.SMTP.Pass,
	})
	if err != nil {
		return nil, fmt.Errorf("create smtp sender: %w", err)
	}
	return contact.NewService(sender, cfg.Mail.SenderEmail, cfg.Mail.RecipientEmail, logger), nil
}

type projectLister interface {
	ListProjects(ctx context.Context) ([]domain.Project, error)
}

// newPipeline builds the local inference pipeline. Without an API key every
// request is answered with the generic apology.
func newPipeline(cfg *config.Config, projects projectLister, logger *slog.Logger) (*chat.Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var gen chat.Generator
	if cfg.ChatEnabled() {
		opts := llm.DefaultOptions()
		opts.Model = cfg.Chat.Model
		opts.BaseURL = cfg.Chat.BaseURL
		client, err := llm.NewClient(cfg.HuggingFaceAPIKey, opts)
		if err != nil {
			return nil, fmt.Errorf("create inference client: %w", err)
		}
		gen = client
	} else {
		slog.Info("Chat inference disabled (HUGGINGFACE_API_KEY not set)")
	}

	clock := chat.SystemClock{}
	inferCfg := chat.DefaultInferenceConfig()
	inferCfg.MaxAttempts = cfg.Chat.MaxAttempts
	inferCfg.WordDelay = cfg.Chat.WordDelay
	inferCfg.Persona = cfg.Chat.Persona

	return chat.NewPipeline(
		chat.NewRateLimiter(cfg.Chat.Cooldown, clock),
		chat.NewResponseCache(cfg.Chat.CacheTTL, clock),
		chat.NewFormatter(cfg.Chat.Persona),
		chat.NewInferenceClient(gen, inferCfg, clock, logger),
		clock,
		logger,
		chat.WithSystemPrompt(func(ctx context.Context) string {
			list, err := projects.ListProjects(ctx)
			if err != nil {
				logger.Warn("Failed to load projects for system prompt", "error", err)
			}
			return chat.BuildSystemPrompt(list)
		}),
	), nil
}
