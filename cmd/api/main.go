// @title Pet Registry API
// @version 1.0
// @description Registro de gatos geolocalizados con dueños y administración.
// @BasePath /api/v1
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

	"pet-registry/internal/adapters/auth/jwt"
	"pet-registry/internal/adapters/auth/remote"
	"pet-registry/internal/adapters/password/bcrypt"
	"pet-registry/internal/adapters/storage/mongodb"
	pg "pet-registry/internal/adapters/storage/postgres"
	"pet-registry/internal/adapters/uploads/local"
	"pet-registry/internal/config"
	"pet-registry/internal/platform/logger"
	"pet-registry/internal/platform/tracing"
	"pet-registry/internal/ports/auth"
	"pet-registry/internal/router"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const appName = "pet-registry"

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "API de registro de gatos",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.RegisterFlags(root.PersistentFlags())

	v, err := config.NewViper(root.PersistentFlags())
	if err != nil {
		panic(err)
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), v)
		},
	}

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones de Postgres",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(v)
		},
	}

	root.AddCommand(serve, migrate)
	root.RunE = serve.RunE
	return root
}

func loadConfig(v *viper.Viper) (config.Config, logger.Logger, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return config.Config{}, nil, err
	}
	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    appName,
	})
	return cfg, log, nil
}

func runMigrate(v *viper.Viper) error {
	cfg, log, err := loadConfig(v)
	if err != nil {
		return err
	}
	if cfg.Store != config.StorePostgres {
		return fmt.Errorf("migrate requires store=postgres (got %q)", cfg.Store)
	}
	return pg.Migrate(cfg.PostgresDSN, log)
}

func runServe(ctx context.Context, v *viper.Viper) error {
	cfg, log, err := loadConfig(v)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, log, cfg.OTLPEndpoint, appName, cfg.Environment)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	opts := router.Options{
		Hasher:     bcrypt.NewHasher(0),
		DefaultLon: cfg.DefaultLon,
		DefaultLat: cfg.DefaultLat,
		Logger:     log,
	}

	verifier, err := newVerifier(cfg)
	if err != nil {
		return err
	}
	opts.AuthVerifier = verifier

	uploads, err := local.NewStore(cfg.UploadDir)
	if err != nil {
		return err
	}
	opts.Uploads = uploads

	closeStore, err := openStore(ctx, cfg, log, &opts)
	if err != nil {
		return err
	}
	defer closeStore()

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router.NewRouter(opts),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{
			"addr":      cfg.HTTPAddr,
			"store":     cfg.Store,
			"auth_mode": cfg.AuthMode,
		})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down", nil)
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(sctx)
}

func newVerifier(cfg config.Config) (auth.AuthVerifier, error) {
	switch cfg.AuthMode {
	case config.AuthJWT:
		return jwt.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer)
	case config.AuthRemote:
		return remote.NewVerifier(remote.Config{BaseURL: cfg.AuthURL, APIKey: cfg.AuthAPIKey})
	default:
		// modo dev: headers X-Debug-*
		return nil, nil
	}
}

// openStore completa opts con los repos del store elegido y devuelve cómo cerrarlo.
func openStore(ctx context.Context, cfg config.Config, log logger.Logger, opts *router.Options) (func(), error) {
	switch cfg.Store {
	case config.StorePostgres:
		if err := pg.Migrate(cfg.PostgresDSN, log); err != nil {
			return nil, err
		}
		db, err := pg.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		opts.CatsRepo = pg.NewCatsRepo(db)
		opts.UsersRepo = pg.NewUsersRepo(db)
		return func() { _ = db.Close() }, nil

	case config.StoreMongo:
		client, db, err := mongodb.Open(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("mongo: %w", err)
		}
		if err := mongodb.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		opts.CatsRepo = mongodb.NewCatsRepo(db)
		opts.UsersRepo = mongodb.NewUsersRepo(db)
		return func() { _ = client.Disconnect(context.Background()) }, nil

	default:
		// nil => router usa in-memory
		return func() {}, nil
	}
}
