package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/clinic/clinic-admin/internal/config"
	"github.com/clinic/clinic-admin/internal/platform/apiclient"
	"github.com/clinic/clinic-admin/internal/platform/session"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var envFile string
	root := &cobra.Command{
		Use:   "clinic-admin",
		Short: "Clinic administration console",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if envFile == "" {
				return nil
			}
			if err := godotenv.Load(envFile); err != nil {
				return fmt.Errorf("load %s: %w", envFile, err)
			}
			return nil
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "read environment variables from this file before loading config")

	root.AddCommand(serveCmd())
	root.AddCommand(loginCmd())
	root.AddCommand(logoutCmd())
	root.AddCommand(sessionCmd())
	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the console web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServer() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, pool, err := openStorage(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to open session storage")
		return err
	}
	if pool != nil {
		defer pool.Close()
	}

	client, err := newAPIClient(cfg, logger)
	if err != nil {
		return err
	}
	store := newSession(ctx, storage, client, logger)

	go func() {
		if err := store.Watch(ctx); err != nil {
			logger.Warn().Err(err).Msg("session watch stopped")
		}
	}()

	e, err := newServer(cfg, store, client, pingerFor(pool), logger)
	if err != nil {
		return err
	}

	go func() {
		addr := cfg.Addr()
		logger.Info().Str("addr", addr).Str("api", client.BaseURL()).Str("session_store", cfg.SessionStore).Msg("starting console")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()

	logger.Info().Msg("shutting down console")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("console shutdown failed")
		return err
	}
	logger.Info().Msg("console stopped")
	return nil
}

// withSession runs fn against the persisted session without starting the
// server. A running console watching the same file picks up the change.
func withSession(fn func(ctx context.Context, store *session.Store) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	ctx := context.Background()

	storage, pool, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
	}
	client, err := newAPIClient(cfg, logger)
	if err != nil {
		return err
	}
	return fn(ctx, newSession(ctx, storage, client, logger))
}

func loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and persist the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" || password == "" {
				return errors.New("--email and --password are required")
			}
			return withSession(func(ctx context.Context, store *session.Store) error {
				if err := store.SignIn(ctx, email, password); err != nil {
					return fmt.Errorf("login failed: %s", apiclient.Message(err))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", email)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the persisted session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(func(ctx context.Context, store *session.Store) error {
				store.SignOut(ctx)
				fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
				return nil
			})
		},
	}
}

func sessionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Show the persisted session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(func(ctx context.Context, store *session.Store) error {
				describeSession(cmd.OutOrStdout(), store, time.Now())
				return nil
			})
		},
	}
}

func describeSession(w io.Writer, store *session.Store, now time.Time) {
	if !store.HasToken() {
		fmt.Fprintln(w, "Not signed in.")
		return
	}
	if u := store.CurrentUser(); u != nil {
		fmt.Fprintf(w, "User:    %s (id %d)\n", u.Email, u.ID)
	} else {
		fmt.Fprintln(w, "User:    unknown")
	}
	claims, ok := store.Claims()
	if !ok {
		fmt.Fprintln(w, "Token:   opaque")
		return
	}
	if claims.Subject != "" {
		fmt.Fprintf(w, "Subject: %s\n", claims.Subject)
	}
	switch {
	case claims.ExpiresAt.IsZero():
		fmt.Fprintln(w, "Expires: never")
	case claims.Expired(now):
		fmt.Fprintf(w, "Expires: %s (expired)\n", claims.ExpiresAt.Format(time.RFC3339))
	default:
		fmt.Fprintf(w, "Expires: %s\n", claims.ExpiresAt.Format(time.RFC3339))
	}
}
