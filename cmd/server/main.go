package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/example/vitecommerce/internal/config"
	"github.com/example/vitecommerce/internal/database"
	"github.com/example/vitecommerce/internal/logging"
	"github.com/example/vitecommerce/internal/mailer"
	"github.com/example/vitecommerce/internal/middleware"
	"github.com/example/vitecommerce/internal/repository"
	"github.com/example/vitecommerce/internal/repository/gormstore"
	"github.com/example/vitecommerce/internal/repository/redisstore"
	"github.com/example/vitecommerce/internal/routes"
	"github.com/example/vitecommerce/internal/services"
	"github.com/example/vitecommerce/internal/storage"
	"github.com/example/vitecommerce/internal/utils"
)

func main() {
	cfg := config.Load()
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	db := database.Connect(cfg.DatabaseURL, !cfg.IsProduction())

	users := gormstore.NewUserStore(db)
	otps := otpStore(cfg, db)

	images, err := imageStore(cfg)
	if err != nil {
		logging.Fatal().Err(err).Str("driver", cfg.StorageDriver).Msg("failed to initialise image storage")
	}

	smtp := mailer.NewSMTPMailer(mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		Timeout:  cfg.RequestTimeout,
	})
	mail := mailer.NewBreakerMailer(smtp, 5, time.Minute)

	tokens := &utils.TokenIssuer{
		AccessSecret:  cfg.JWTSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
	}

	otpService := services.NewOTPService(otps, users, mail, cfg.OTPTTL)
	products := gormstore.NewProductStore(db)
	svc := routes.Services{
		Auth:      services.NewAuthService(users, otpService, tokens),
		OTP:       otpService,
		Users:     services.NewUserService(users, otps, images),
		Addresses: services.NewAddressService(gormstore.NewAddressStore(db)),
		Catalog:   services.NewCatalogService(gormstore.NewCategoryStore(db), products, images),
		Carts:     services.NewCartService(gormstore.NewCartStore(db), products),
	}

	app := fiber.New(fiber.Config{
		AppName:      "Vite Ecommerce Backend",
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		ErrorHandler: middleware.ErrorHandler(cfg.IsProduction()),
		BodyLimit:    30 << 20,
	})

	app.Use(recover.New())
	app.Use(logger.New())

	routes.Register(app, cfg, svc)

	go func() {
		logging.Info().Str("port", cfg.AppPort).Str("env", cfg.AppEnv).Msg("starting server")
		if err := app.Listen(":" + cfg.AppPort); err != nil {
			logging.Fatal().Err(err).Msg("fiber.Listen error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Info().Msg("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logging.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// otpStore keeps codes in Redis when REDIS_URL is set and in PostgreSQL
// otherwise.
func otpStore(cfg *config.Config, db *gorm.DB) repository.OTPRepository {
	if cfg.RedisURL == "" {
		return gormstore.NewOTPStore(db, cfg.OTPTTL)
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logging.Fatal().Err(err).Msg("invalid REDIS_URL")
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to redis")
	}

	logging.Info().Str("addr", opts.Addr).Msg("storing OTP codes in redis")
	return redisstore.NewOTPStore(client, cfg.OTPTTL)
}

func imageStore(cfg *config.Config) (storage.Store, error) {
	if cfg.StorageDriver == config.StorageS3 {
		return storage.NewS3Store(cfg.S3Region, cfg.S3Bucket)
	}
	return storage.NewLocalStore(cfg.LocalStorageDir, cfg.PublicBaseURL)
}
