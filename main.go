package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"

	"github.com/ovaphlow/pitchfork/service-userdir-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-userdir-go/internal/config"
	"github.com/ovaphlow/pitchfork/service-userdir-go/internal/storage"
	storagerepo "github.com/ovaphlow/pitchfork/service-userdir-go/internal/storage/repo"
	"github.com/ovaphlow/pitchfork/service-userdir-go/internal/user"
	"github.com/ovaphlow/pitchfork/service-userdir-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-userdir-go/pkg/utilities"
)

// Storage bootstrap: applies migrations, optionally seeds the directory and
// reports what the store holds.
func main() {
	seed := flag.Bool("seed", false, "seed the directory when it is empty")
	seedFile := flag.String("seed-file", "", "JSON file of user records to seed from")
	signOut := flag.Bool("sign-out", false, "clear the stored session")
	flag.Parse()

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sqlDB, err := database.Connect(cfg.Database)
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer sqlDB.Close()

	if err := database.Migrate(ctx, sqlDB, cfg.Database.Driver, sugar); err != nil {
		sugar.Fatalf("db migrate: %v", err)
	}

	kv := storagerepo.NewRepo(sqlx.NewDb(sqlDB, cfg.Database.Driver))
	store := storage.NewAdapter(kv, sugar)

	if *seed {
		now := time.Now().UTC()
		samples := user.SampleUsers(now)
		if *seedFile != "" {
			if samples, err = user.LoadSeedFile(afero.NewOsFs(), *seedFile, now); err != nil {
				sugar.Fatalf("seed: %v", err)
			}
		}
		dir := user.NewDirectory(ctx, store, nil, sugar)
		if !dir.SeedIfEmpty(ctx, samples) {
			sugar.Infow("directory not empty, seed skipped", "count", len(dir.Users()))
		}
	}

	if *signOut {
		auth.NewService(ctx, store, cfg.Auth, nil, sugar).SignOut(ctx)
	}

	keys, err := kv.Keys(ctx)
	if err != nil {
		sugar.Fatalf("list keys: %v", err)
	}
	for _, k := range keys {
		raw, _, err := kv.Get(ctx, k)
		if err != nil {
			sugar.Warnw("read key failed", "key", k, "err", err)
			continue
		}
		sugar.Infow("stored key", "key", k, "bytes", len(raw))
	}
}
