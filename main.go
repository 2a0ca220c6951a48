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
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"kopi-store/bot"
	"kopi-store/config"
	"kopi-store/db"
	"kopi-store/httpapi"
	"kopi-store/logging"
	"kopi-store/seed"
	"kopi-store/services"
	"kopi-store/storage/memory"
	"kopi-store/storage/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	flags := pflag.NewFlagSet("kopi-store", pflag.ExitOnError)
	flags.StringVar(&cfg.HTTP.Addr, "http-addr", cfg.HTTP.Addr, "address the staff HTTP API listens on")
	flags.StringVar(&cfg.Store.SeedFile, "seed", cfg.Store.SeedFile, "YAML seed file (default: built-in Kopi 渋谷店 data)")
	flags.StringVar(&cfg.Store.Storage, "storage", cfg.Store.Storage, "storage backend: postgres or memory")
	noBot := flags.Bool("no-bot", false, "do not start the Telegram staff bot")
	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: kopi-store [flags] [migrate]")
		flags.PrintDefaults()
	}
	_ = flags.Parse(os.Args[1:])

	logging.Setup(cfg.Log)

	// Check for migrate subcommand
	if flags.Arg(0) == "migrate" {
		runMigrate(cfg)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("storage", cfg.Store.Storage).Msg("open storage")
	}
	defer db.Close()
	svc := services.New(store.deps)

	seedFile, err := seed.Load(cfg.Store.SeedFile)
	if err != nil {
		log.Fatal().Err(err).Msg("load seed")
	}
	if _, err := seed.Apply(ctx, svc, seedFile, cfg.Store.ID, cfg.Store.TimeZone); err != nil {
		log.Fatal().Err(err).Msg("apply seed")
	}

	if log.Logger.GetLevel() > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           gzhttp.GzipHandler(httpapi.NewRouter(svc, cfg.Store.ID)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTP.Addr).Str("store_id", cfg.Store.ID).Msg("http api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server")
			stop()
		}
	}()

	switch {
	case *noBot:
	case cfg.Telegram.Token == "" || cfg.Telegram.StaffChatID == 0:
		log.Warn().Msg("TOKEN or STAFF_CHAT_ID not set, staff bot disabled")
	default:
		b, err := bot.New(cfg, svc, store.pointers)
		if err != nil {
			log.Fatal().Err(err).Msg("bot")
		}
		go b.Start(ctx)
	}

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
}

type storage struct {
	deps     services.Deps
	pointers services.MessagePointerRepository
}

// openStorage builds the repositories for the configured backend. The
// PostgreSQL pool is kept in db.Pool and closed by db.Close.
func openStorage(ctx context.Context, cfg *config.Config) (storage, error) {
	if cfg.Store.Storage == config.StorageMemory {
		log.Warn().Msg("using in-memory storage, data is lost on exit")
		return storage{
			deps: services.Deps{
				Orders:   memory.NewOrderRepository(),
				Menu:     memory.NewMenuRepository(),
				Settings: memory.NewSettingsRepository(),
			},
			pointers: memory.NewMessagePointerRepository(),
		}, nil
	}
	if err := db.Init(ctx, cfg.DB); err != nil {
		return storage{}, fmt.Errorf("db: %w", err)
	}
	// Optional auto-migration (useful in production and for fresh DBs).
	if cfg.DB.AutoMigrate {
		if err := applyMigrations(ctx, db.Pool); err != nil {
			return storage{}, fmt.Errorf("migrate: %w", err)
		}
	}
	return storage{
		deps: services.Deps{
			Orders:   postgres.NewOrderRepository(db.Pool),
			Menu:     postgres.NewMenuRepository(db.Pool),
			Settings: postgres.NewSettingsRepository(db.Pool),
			Tx:       postgres.NewTxRunner(db.Pool),
		},
		pointers: postgres.NewMessagePointerRepository(db.Pool),
	}, nil
}

func runMigrate(cfg *config.Config) {
	ctx := context.Background()
	if err := db.Init(ctx, cfg.DB); err != nil {
		fmt.Fprintln(os.Stderr, "db:", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := applyMigrations(ctx, db.Pool); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}
