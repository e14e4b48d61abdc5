package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/edflow/edflow/internal/config"
	"github.com/edflow/edflow/internal/domain/admin"
	"github.com/edflow/edflow/internal/domain/consultation"
	"github.com/edflow/edflow/internal/domain/identity"
	"github.com/edflow/edflow/internal/domain/payment"
	"github.com/edflow/edflow/internal/domain/reports"
	"github.com/edflow/edflow/internal/domain/triage"
	"github.com/edflow/edflow/internal/platform/auth"
	"github.com/edflow/edflow/internal/platform/db"
	"github.com/edflow/edflow/internal/platform/events"
	"github.com/edflow/edflow/internal/platform/middleware"
	"github.com/edflow/edflow/internal/platform/ws"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "edflow-server",
		Short: "Pediatric emergency department patient flow API",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

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
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

// seedCmd creates the initial staff directory so a fresh deployment has
// someone to log in as.
func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create initial staff users",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := identity.NewService(identity.NewRepoPG(pool))
			cedula := "0000000"
			staff := []identity.CreateUserInput{
				{Name: "Admin", Email: "admin@edflow.local", Role: auth.RoleAdmin},
				{Name: "Enfermeria Triage", Email: "triage@edflow.local", Role: auth.RoleNurse},
				{Name: "Caja", Email: "caja@edflow.local", Role: auth.RoleCashier},
				{Name: "Medico de Guardia", Email: "medico@edflow.local", Role: auth.RoleDoctor, Cedula: &cedula},
			}
			for _, in := range staff {
				u, err := svc.CreateUser(ctx, in)
				if err != nil {
					fmt.Printf("skip %s: %v\n", in.Email, err)
					continue
				}
				fmt.Printf("created %s (%s) id=%s\n", u.Email, u.Role, u.ID)
			}
			return nil
		},
	}
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}
	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid department timezone")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	runner := db.NewRunner(pool)

	hub := ws.NewHub(logger)
	pub := events.NewHubPublisher(hub, logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// The websocket upgrade authenticates through its token query param,
	// so it registers before the header-based auth middleware.
	e.GET("/ws", ws.Handler(hub, func(token string) (*auth.Identity, error) {
		return auth.VerifyToken(cfg.JWTSecret, token)
	}))
	e.GET("/health", db.HealthHandler(pool))

	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(cfg.JWTSecret))
	}

	apiV1 := e.Group("/api/v1")

	// Repositories
	patientRepo := triage.NewPatientRepoPG(pool)
	visitRepo := triage.NewVisitRepoPG(pool)
	paymentRepo := payment.NewRepoPG(pool)
	noteRepo := consultation.NewRepoPG(pool)
	userRepo := identity.NewRepoPG(pool)
	reportRepo := reports.NewRepoPG(pool)

	// Services and handlers
	triageSvc := triage.NewService(patientRepo, visitRepo, runner, pub, loc)
	triage.NewHandler(triageSvc).RegisterRoutes(apiV1)

	paymentSvc := payment.NewService(paymentRepo, visitRepo, runner, pub)
	payment.NewHandler(paymentSvc).RegisterRoutes(apiV1)

	consultSvc := consultation.NewService(noteRepo, visitRepo, runner, pub, loc)
	consultation.NewHandler(consultSvc).RegisterRoutes(apiV1)

	identitySvc := identity.NewService(userRepo)
	identity.NewHandler(identitySvc).RegisterRoutes(apiV1)

	reportSvc := reports.NewService(reportRepo, loc)
	reports.NewHandler(reportSvc).RegisterRoutes(apiV1)

	adminSvc := admin.NewService(patientRepo, visitRepo, noteRepo, paymentRepo, runner, pub)
	admin.NewHandler(adminSvc).RegisterRoutes(apiV1)

	// Start server
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
	}
	hub.Close()
	logger.Info().Msg("server stopped")
	return nil
}
