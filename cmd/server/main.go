package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "dsas/docs" // swagger docs

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"dsas/internal/audit"
	"dsas/internal/auth"
	"dsas/internal/cache"
	"dsas/internal/config"
	"dsas/internal/db"
	"dsas/internal/handler"
	"dsas/internal/repository"
	"dsas/internal/router"
	"dsas/internal/service"
	"dsas/internal/vault"
)

// @title Secure Health Record API
// @version 1.0
// @description Encrypted health records with role-based access for patients, doctors and admins.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	rootCmd := &cobra.Command{
		Use:   "dsas-server",
		Short: "Secure health record API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(keygenCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			reset, _ := cmd.Flags().GetBool("reset")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN)
			if err != nil {
				return err
			}

			if reset {
				if cfg.IsProduction() {
					return fmt.Errorf("refusing to reset the database in production")
				}
				if err := db.Reset(gormDB); err != nil {
					return err
				}
				fmt.Println("Tables dropped")
			}

			if err := db.Migrate(gormDB); err != nil {
				return err
			}
			fmt.Println("Schema is up to date.")
			return nil
		},
	}
	cmd.Flags().Bool("reset", false, "Drop all tables before migrating")
	return cmd
}

func keygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Print a fresh RECORD_ENCRYPTION_KEY",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := vault.GenerateKey()
			if err != nil {
				return err
			}
			fmt.Println(key)
			return nil
		},
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	key, err := cfg.EncryptionKey()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid encryption key")
	}
	recordVault, err := vault.New(key)
	if err != nil {
		logger.Fatal().Err(err).Msg("vault init")
	}

	gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("database init")
	}
	if err := db.Migrate(gormDB); err != nil {
		logger.Fatal().Err(err).Msg("auto-migrate")
	}
	logger.Info().Str("driver", cfg.DBDriver).Msg("connected to database")

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()
	if err := cacheClient.Ping(context.Background()); err != nil {
		// sessions cannot be refreshed or revoked without redis
		logger.Warn().Err(err).Msg("redis unavailable, continuing without cache")
	}

	security := audit.NewSecurity(logger)

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	assignmentRepo := repository.NewAssignmentRepository(gormDB)
	recordRepo := repository.NewRecordRepository(gormDB)
	accessLogRepo := repository.NewAccessLogRepository(gormDB)

	accessWriter := audit.NewAccessWriter(accessLogRepo, logger)
	defer accessWriter.Close()

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.AccessTokenTTL)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Initialize services
	userService := service.NewUserService(userRepo, cacheClient)
	credentialStore, err := service.NewCredentialStore(userRepo, cfg.BcryptCost)
	if err != nil {
		logger.Fatal().Err(err).Msg("credential store init")
	}
	approvalGate := service.NewApprovalGate(userRepo, userService, security)
	registry := service.NewAssignmentRegistry(assignmentRepo, userRepo, userService, security)
	guard := service.NewAccessGuard(approvalGate, registry, accessWriter, security)
	recordService := service.NewRecordService(recordRepo, guard, approvalGate, registry, recordVault, security)
	doctorService := service.NewDoctorService(approvalGate, registry)
	adminService := service.NewAdminService(recordRepo, userRepo, accessLogRepo, accessWriter)
	authService := service.NewAuthService(credentialStore, approvalGate, userService, jwtService, tokenStore, security)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Register routes
	router.Register(e, router.Deps{
		Config:     cfg,
		Logger:     logger,
		Cache:      cacheClient,
		Security:   security,
		JWTService: jwtService,
		TokenStore: tokenStore,
		Auth:       handler.NewAuthHandler(authService),
		Admin:      handler.NewAdminHandler(approvalGate, registry, adminService),
		Patient:    handler.NewPatientHandler(recordService),
		Doctor:     handler.NewDoctorHandler(doctorService, recordService),
	})

	logger.Info().Str("url", swaggerURL(cfg)).Msg("swagger documentation available")

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.ServerPort
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

func swaggerURL(cfg *config.Config) string {
	host := cfg.SwaggerHost
	if host == "" {
		host = "localhost:" + cfg.ServerPort
	}
	// SwaggerHost may already include scheme (http:// or https://)
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return host + "/swagger/index.html"
}
