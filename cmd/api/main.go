package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-userdir-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-userdir-go/internal/config"
	"github.com/ovaphlow/pitchfork/service-userdir-go/internal/router"
	"github.com/ovaphlow/pitchfork/service-userdir-go/internal/setting"
	"github.com/ovaphlow/pitchfork/service-userdir-go/internal/storage"
	storagerepo "github.com/ovaphlow/pitchfork/service-userdir-go/internal/storage/repo"
	"github.com/ovaphlow/pitchfork/service-userdir-go/internal/user"
	"github.com/ovaphlow/pitchfork/service-userdir-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-userdir-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-userdir-go/pkg/utilities"
)

func main() {
	// load .env file if present so os.Getenv picks values from it
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	lg, err := utilities.Init(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Infow("starting service-userdir-go", "driver", cfg.Database.Driver, "addr", cfg.App.HTTPAddr)

	sqlDB, err := database.Connect(cfg.Database)
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer sqlDB.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(ctx, sqlDB, cfg.Database.Driver, sugar); err != nil {
		sugar.Fatalf("db migrate: %v", err)
	}

	sqlxDB := sqlx.NewDb(sqlDB, cfg.Database.Driver)
	kv := storagerepo.NewRepo(sqlxDB)
	store := storage.NewAdapter(kv, sugar.Named("storage"))

	dir := user.NewDirectory(ctx, store, nil, sugar.Named("directory"))
	if cfg.App.SeedSampleUsers {
		dir.SeedIfEmpty(ctx, seedUsers(cfg.App.SeedFile, sugar))
	}
	sessions := auth.NewService(ctx, store, cfg.Auth, nil, sugar.Named("auth"))

	handler := router.RegisterRoutes(sugar, router.Deps{
		Users:    user.NewHandler(dir, sugar),
		Auth:     auth.NewHandler(sessions, sugar),
		Settings: setting.NewHandler(setting.NewService(kv, setting.Categories(cfg.Auth.AccountsKey)), sugar),
		Sessions: sessions,
		DB:       sqlDB,
	})
	srv := &http.Server{
		Addr:              cfg.App.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()
	sugar.Info("service is running; press Ctrl+C to stop")

	<-ctx.Done()

	sugar.Info("shutting down")

	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}

	sugar.Info("goodbye")
}

// seedUsers prefers the configured seed file and falls back to the samples.
func seedUsers(path string, logger *zap.SugaredLogger) []entity.User {
	now := time.Now().UTC()
	if path == "" {
		return user.SampleUsers(now)
	}
	users, err := user.LoadSeedFile(afero.NewOsFs(), path, now)
	if err != nil {
		logger.Warnw("seed file unusable, using samples", "path", path, "err", err)
		return user.SampleUsers(now)
	}
	return users
}
