package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hms/hms/internal/config"
	"github.com/hms/hms/internal/domain/clinical"
	"github.com/hms/hms/internal/domain/directory"
	"github.com/hms/hms/internal/domain/doctors"
	"github.com/hms/hms/internal/domain/identity"
	"github.com/hms/hms/internal/domain/patients"
	"github.com/hms/hms/internal/domain/scheduling"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/internal/platform/httperr"
	"github.com/hms/hms/internal/platform/middleware"
	"github.com/hms/hms/internal/platform/reporting"
	"github.com/hms/hms/internal/web"
)

// profileResolver maps a session user to its doctor or patient profile row.
// Admin accounts carry no profile and resolve to uuid.Nil. Lives here to
// avoid an import cycle between the identity, doctors and patients packages.
type profileResolver struct {
	doctors  doctors.Repository
	patients patients.Repository
}

func (r *profileResolver) ProfileIDFor(ctx context.Context, userID uuid.UUID, role string) (uuid.UUID, error) {
	switch role {
	case auth.RoleDoctor:
		d, err := r.doctors.GetByUserID(ctx, userID)
		if err != nil {
			return uuid.Nil, err
		}
		return d.ID, nil
	case auth.RolePatient:
		p, err := r.patients.GetByUserID(ctx, userID)
		if err != nil {
			return uuid.Nil, err
		}
		return p.ID, nil
	default:
		return uuid.Nil, nil
	}
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "hms-server",
		Short: "Hospital Management System server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(adminCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HMS web and API server",
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
			if dir == "" {
				dir = cfg.MigrationsDir
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
	upCmd.Flags().String("dir", "", "Path to migrations directory (defaults to MIGRATIONS_DIR)")
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
			if dir == "" {
				dir = cfg.MigrationsDir
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
	statusCmd.Flags().String("dir", "", "Path to migrations directory (defaults to MIGRATIONS_DIR)")
	cmd.AddCommand(statusCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Rollback last migration (not supported)",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("WARNING: migrate down is destructive and not supported by the built-in runner.")
			fmt.Println("Roll back by applying a new forward migration instead.")
			return nil
		},
	})

	return cmd
}

func adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage administrator accounts",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			if username == "" || email == "" || password == "" {
				return fmt.Errorf("--username, --email and --password are required")
			}

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

			usersRepo := identity.NewRepoPG(pool)
			patientsRepo := patients.NewRepoPG(pool)
			identitySvc := identity.NewService(usersRepo, patientsRepo, db.RunnerFor(pool))

			user, err := identitySvc.CreateAccount(ctx, username, email, password, auth.RoleAdmin)
			if err != nil {
				return err
			}
			fmt.Printf("Administrator %q created (id %s).\n", user.Username, user.ID)
			return nil
		},
	}
	createCmd.Flags().String("username", "", "Administrator login name")
	createCmd.Flags().String("email", "", "Administrator email address")
	createCmd.Flags().String("password", "", "Administrator password")

	cmd.AddCommand(createCmd)
	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = httperr.ErrorHandler(logger)
	e.Renderer = web.NewRenderer()

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Sessions
	sessions := auth.NewSessions(
		[]byte(cfg.SessionSecret),
		time.Duration(cfg.SessionTTLHours)*time.Hour,
		cfg.IsProduction(),
	)

	// Repositories
	usersRepo := identity.NewRepoPG(pool)
	deptRepo := directory.NewRepoPG(pool)
	doctorsRepo := doctors.NewRepoPG(pool)
	patientsRepo := patients.NewRepoPG(pool)
	apptRepo := scheduling.NewRepoPG(pool)
	treatmentRepo := clinical.NewRepoPG(pool)

	runner := db.RunnerFor(pool)

	// Services
	identitySvc := identity.NewService(usersRepo, patientsRepo, runner)
	directorySvc := directory.NewService(deptRepo)
	doctorSvc := doctors.NewService(doctorsRepo, identitySvc, directorySvc, runner)
	patientSvc := patients.NewService(patientsRepo, identitySvc, runner)
	schedulingSvc := scheduling.NewService(apptRepo, doctorsRepo, patientsRepo, runner)
	clinicalSvc := clinical.NewService(treatmentRepo, apptRepo, runner)

	resolver := &profileResolver{doctors: doctorsRepo, patients: patientsRepo}

	// JSON API
	apiV1 := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	identity.NewHandler(identitySvc, sessions, resolver).RegisterRoutes(apiV1)

	protected := apiV1.Group("", auth.RequireSession(sessions, identitySvc))
	directory.NewHandler(directorySvc).RegisterRoutes(protected)
	doctors.NewHandler(doctorSvc).RegisterRoutes(protected)
	patients.NewHandler(patientSvc).RegisterRoutes(protected)
	scheduling.NewHandler(schedulingSvc).RegisterRoutes(protected)
	clinical.NewHandler(clinicalSvc).RegisterRoutes(protected)
	reporting.NewHandler(pool).RegisterRoutes(protected)

	// Browser UI
	web.NewHandler(
		sessions,
		identitySvc,
		resolver,
		directorySvc,
		doctorSvc,
		patientSvc,
		schedulingSvc,
		clinicalSvc,
	).RegisterRoutes(e)

	// DB health check endpoint
	e.GET("/health", db.HealthHandler(pool))

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
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
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
