package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/andressep95/realty-core/internal/authz"
	"github.com/andressep95/realty-core/internal/config"
	"github.com/andressep95/realty-core/internal/domain"
	"github.com/andressep95/realty-core/internal/handler"
	"github.com/andressep95/realty-core/internal/handler/middleware"
	"github.com/andressep95/realty-core/internal/repository"
	"github.com/andressep95/realty-core/internal/repository/memory"
	"github.com/andressep95/realty-core/internal/repository/postgres"
	"github.com/andressep95/realty-core/internal/service"
	"github.com/andressep95/realty-core/pkg/blacklist"
	"github.com/andressep95/realty-core/pkg/email"
	"github.com/andressep95/realty-core/pkg/hash"
	"github.com/andressep95/realty-core/pkg/jwt"
	"github.com/andressep95/realty-core/pkg/logger"
	"github.com/andressep95/realty-core/pkg/metrics"
	"github.com/andressep95/realty-core/pkg/validator"
)

// storage is the system of record selected by STORAGE_DRIVER
type storage struct {
	accounts  repository.AccountRepository
	listings  repository.ListingRepository
	leads     repository.LeadRepository
	inquiries repository.InquiryRepository
	quota     repository.QuotaStore
	ping      handler.HealthCheck
	close     func() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.InitLogger(&logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Environment,
		ServiceName: cfg.Log.ServiceName,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	// The role matrix must be total before anything is served
	catalog := authz.DefaultCatalog()
	if err := catalog.Validate(domain.AllRoles()); err != nil {
		return fmt.Errorf("invalid role catalog: %w", err)
	}
	resolver := authz.NewResolver(catalog)
	log.Info("role catalog loaded", zap.String("version", catalog.Version()))

	store, err := initStorage(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.close(); err != nil {
			log.Warn("error closing storage", zap.Error(err))
		}
	}()

	checks := map[string]handler.HealthCheck{"database": store.ping}

	var tokenBlacklist *blacklist.TokenBlacklist
	if cfg.Redis.Enabled {
		redisClient, err := initRedis(cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Warn("error closing Redis connection", zap.Error(err))
			}
		}()
		tokenBlacklist = blacklist.NewTokenBlacklist(redisClient)
		checks["cache"] = tokenBlacklist.Ping
		log.Info("redis connection established", zap.String("addr", cfg.Redis.Addr()))
	} else {
		log.Warn("redis disabled, logout and deactivation will not revoke issued tokens")
	}

	privateKey, publicKey, err := loadRSAKeys(cfg)
	if err != nil {
		return err
	}
	tokenService, err := jwt.NewTokenService(privateKey, publicKey, cfg.JWT.AccessTokenExpiry, cfg.JWT.Issuer)
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}

	notifier, err := initEmail(cfg, log)
	if err != nil {
		return err
	}

	hasher, err := hash.NewHasher(hash.Params{
		Memory:      uint32(cfg.Password.MemoryKiB),
		Iterations:  uint32(cfg.Password.Iterations),
		Parallelism: uint8(cfg.Password.Parallelism),
		SaltLength:  hash.DefaultParams.SaltLength,
		KeyLength:   hash.DefaultParams.KeyLength,
	})
	if err != nil {
		return fmt.Errorf("invalid password hashing settings: %w", err)
	}

	m := metrics.New(cfg.Log.ServiceName)
	validate := validator.NewValidator()

	// nil interfaces, not typed nil pointers, when Redis is off
	var (
		accountRevoker service.TokenRevoker
		tokenRevoker   service.AccessTokenRevoker
	)
	if tokenBlacklist != nil {
		accountRevoker = tokenBlacklist
		tokenRevoker = tokenBlacklist
	}

	quotaService := service.NewQuotaService(store.accounts, store.listings, store.leads, store.quota, m, log)
	accountService := service.NewAccountService(store.accounts, store.quota, accountRevoker, cfg.JWT.AccessTokenExpiry, hasher, log)
	authService := service.NewAuthService(store.accounts, tokenService, tokenRevoker, hasher, log)
	listingService := service.NewListingService(store.listings, store.inquiries, quotaService, resolver)
	leadService := service.NewLeadService(store.leads, quotaService, resolver)
	catalogService := service.NewCatalogService(store.listings)
	inquiryService := service.NewInquiryService(store.listings, store.inquiries, store.accounts, quotaService, notifier, m, log)

	if cfg.Admin.Email != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		admin, err := accountService.BootstrapAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password)
		cancel()
		if err != nil {
			return fmt.Errorf("failed to bootstrap platform admin: %w", err)
		}
		log.Info("platform admin ready", zap.String("account_id", admin.ID.String()))
	}

	app := fiber.New(fiber.Config{
		AppName:      "Realty Core v1.0",
		ErrorHandler: handler.ErrorHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	})

	app.Use(middleware.LoggerMiddleware(log))
	app.Use(middleware.RecoveryMiddleware())
	app.Use(middleware.MetricsMiddleware(m))
	app.Use(middleware.CORSMiddleware(cfg.Server.CORSOrigins))

	handler.SetupRoutes(
		app,
		handler.Handlers{
			Auth:    handler.NewAuthHandler(authService, validate),
			Me:      handler.NewMeHandler(accountService, quotaService, resolver),
			Listing: handler.NewListingHandler(listingService, validate),
			Lead:    handler.NewLeadHandler(leadService, validate),
			Company: handler.NewCompanyHandler(accountService, validate),
			Quota:   handler.NewQuotaHandler(quotaService),
			Admin:   handler.NewAdminHandler(accountService, quotaService, validate),
			Public:  handler.NewPublicHandler(catalogService, inquiryService, validate),
			Health:  handler.NewHealthHandler(cfg.Log.ServiceName, checks),
		},
		resolver,
		middleware.AuthMiddleware(tokenService, tokenBlacklist),
		adaptor.HTTPHandler(promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{})),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		log.Info("server starting",
			zap.String("addr", addr),
			zap.String("environment", cfg.Server.Environment),
			zap.String("storage", cfg.Storage.Driver),
		)
		serverErr <- app.Listen(addr)
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down server gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}

func initStorage(cfg *config.Config, log *zap.Logger) (*storage, error) {
	if cfg.Storage.Driver == config.StorageDriverMemory {
		log.Warn("using in-memory storage, data is lost on restart")
		s := memory.NewStore()
		return &storage{
			accounts:  s.Accounts(),
			listings:  s.Listings(),
			leads:     s.Leads(),
			inquiries: s.Inquiries(),
			quota:     s,
			ping:      func(context.Context) error { return nil },
			close:     func() error { return nil },
		}, nil
	}

	db, err := initDB(cfg, log)
	if err != nil {
		return nil, err
	}
	log.Info("database connection established")

	return &storage{
		accounts:  postgres.NewAccountRepository(db),
		listings:  postgres.NewListingRepository(db),
		leads:     postgres.NewLeadRepository(db),
		inquiries: postgres.NewInquiryRepository(db),
		quota:     postgres.NewQuotaStore(db),
		ping:      db.PingContext,
		close:     db.Close,
	}, nil
}

// initDB initializes PostgreSQL database connection with retry logic
func initDB(cfg *config.Config, log *zap.Logger) (*sqlx.DB, error) {
	dsn := cfg.Database.DSN()

	var db *sqlx.DB
	var err error

	maxRetries := 5
	retryInterval := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = sqlx.Connect("postgres", dsn)
		if err == nil {
			break
		}

		log.Warn("failed to connect to database",
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", maxRetries),
			zap.Error(err),
		)
		if i < maxRetries-1 {
			time.Sleep(retryInterval)
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpen)
	db.SetMaxIdleConns(cfg.Database.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// initRedis initializes Redis client and verifies connection
func initRedis(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}

func initEmail(cfg *config.Config, log *zap.Logger) (email.EmailService, error) {
	emailConfig := &email.EmailConfig{
		APIKey:       cfg.Email.APIKey,
		FromEmail:    cfg.Email.FromEmail,
		FromName:     cfg.Email.FromName,
		BaseURL:      cfg.Email.RelayURL,
		DashboardURL: cfg.Email.DashboardURL,
		Timeout:      cfg.Email.Timeout,
	}

	switch cfg.Email.Provider {
	case config.EmailProviderResend:
		svc, err := email.NewResendEmailService(emailConfig, log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize email service: %w", err)
		}
		log.Info("email service initialized", zap.String("provider", "resend"))
		return svc, nil
	case config.EmailProviderRelay:
		svc, err := email.NewRelayEmailService(emailConfig, log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize email service: %w", err)
		}
		log.Info("email service initialized", zap.String("provider", "relay"), zap.String("url", cfg.Email.RelayURL))
		return svc, nil
	}

	log.Info("email notifications disabled (set EMAIL_PROVIDER to enable)")
	return nil, nil
}

// loadRSAKeys loads RSA private and public keys from files
func loadRSAKeys(cfg *config.Config) ([]byte, []byte, error) {
	privateKey, err := os.ReadFile(cfg.JWT.PrivateKeyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read private key file: %w", err)
	}

	publicKey, err := os.ReadFile(cfg.JWT.PublicKeyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read public key file: %w", err)
	}

	if len(privateKey) == 0 {
		return nil, nil, fmt.Errorf("private key file is empty")
	}
	if len(publicKey) == 0 {
		return nil, nil, fmt.Errorf("public key file is empty")
	}

	return privateKey, publicKey, nil
}
