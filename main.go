package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"healthcare-booking-server/internal/middleware"
	"healthcare-booking-server/internal/reminder"
	"healthcare-booking-server/internal/routes"
)

const shutdownTimeout = 15 * time.Second

func main() {
	rootCmd := &cobra.Command{
		Use:   "healthcare-booking-server",
		Short: "Healthcare appointment booking API",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(seedAdminCmd())
	rootCmd.AddCommand(remindCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server, the side-effect workers and the reminder schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

func seedAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create an approved admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			name, _ := cmd.Flags().GetString("name")
			password, _ := cmd.Flags().GetString("password")

			ctx := cmd.Context()
			a, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			user, err := a.accounts.SeedAdmin(ctx, name, email, password)
			if err != nil {
				return err
			}
			fmt.Printf("Admin %s created with id %s\n", user.Email, user.ID)
			return nil
		},
	}
	cmd.Flags().String("email", "", "Admin email address")
	cmd.Flags().String("name", "Administrator", "Admin display name")
	cmd.Flags().String("password", "", "Admin password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func remindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remind",
		Short: "Run one reminder scan and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			a.queue.Start()

			result, err := a.scanner.Scan(ctx, time.Now())

			drain, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			a.close(drain)

			for hours, n := range result {
				fmt.Printf("%dh reminders: %d\n", hours, n)
			}
			return err
		},
	}
}

func runServer(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	log := a.log
	cfg := a.cfg

	a.queue.Start()
	scheduler, err := reminder.NewScheduler(cfg.ReminderSchedule, a.scanner, log)
	if err != nil {
		a.close(ctx)
		return err
	}
	scheduler.Start()

	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	if cfg.MetricsEnabled {
		router.Use(middleware.Metrics(a.metrics))
	}

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Origin}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	deps := routes.Deps{
		Accounts:      a.accounts,
		Bookings:      a.bookings,
		Reviews:       a.reviews,
		Policy:        a.policy,
		ICS:           a.ics,
		RefreshTTL:    time.Duration(cfg.RefreshExpirationDays) * 24 * time.Hour,
		SecureCookies: !cfg.IsDev(),
	}
	if cfg.MetricsEnabled {
		deps.Metrics = a.metrics
	}
	routes.SetupRoutes(router, deps)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Environment).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
		if serveErr != nil {
			log.Error().Err(serveErr).Msg("server error")
		}
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	scheduler.Stop(shutdownCtx)
	a.close(shutdownCtx)
	log.Info().Msg("server stopped")
	return serveErr
}
