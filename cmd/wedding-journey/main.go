package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"wedding-journey/internal/admin"
	"wedding-journey/internal/blob"
	"wedding-journey/internal/config"
	"wedding-journey/internal/handler"
	"wedding-journey/internal/journey"
	"wedding-journey/internal/models"
	"wedding-journey/internal/realtime"
	"wedding-journey/internal/roster"
	"wedding-journey/internal/session"
	"wedding-journey/internal/storage"
	"wedding-journey/internal/whatsapp"
)

func main() {
	console := flag.Bool("console", false, "read operator commands from stdin")
	flag.Parse()

	fmt.Println("💍 Manoj & Pooja: The Journey")
	fmt.Println("=============================")

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, stop, cfg, logger, *console); err != nil {
		logger.Fatal().Err(err).Msg("Server stopped")
	}
	fmt.Println("Goodbye! 👋")
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.LogPretty {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	}
	return logger
}

func run(ctx context.Context, quit func(), cfg *config.Config, logger zerolog.Logger, console bool) error {
	feed, closeFeed := newFeed(cfg, logger)
	defer closeFeed()

	// Initialize storage
	dsn := cfg.MySQLDSN
	if cfg.DBDriver == config.DriverSQLite {
		dsn = storage.SQLiteDSN(cfg.DBPath)
	}
	store, err := storage.NewStore(ctx, cfg.DBDriver, dsn, feed, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	bucket, mediaDir, err := newBucket(ctx, cfg)
	if err != nil {
		return err
	}

	r := roster.New(
		roster.Participant{ID: models.Manoj, DisplayName: cfg.ManojName, Phones: cfg.ManojPhones},
		roster.Participant{ID: models.Pooja, DisplayName: cfg.PoojaName, Phones: cfg.PoojaPhones},
	)

	sessions := session.NewRegistry(func() *journey.Machine {
		return journey.NewMachine(store, logger)
	}, logger)
	go sweepSessions(ctx, sessions, cfg.SessionIdleTTL, logger.With().Str("component", "Sweeper").Logger())

	auth, err := admin.NewAuth(cfg.AdminPasswordHash, cfg.AdminPassword, cfg.AdminTokenSecret, cfg.AdminTokenTTL)
	if err != nil {
		return err
	}
	adminService := admin.NewService(store, bucket, sessions, logger)

	var sender whatsapp.Sender = whatsapp.Noop{}
	if cfg.WhatsAppEnabled {
		wa, err := whatsapp.NewService(ctx, &whatsapp.Config{DataDir: cfg.WhatsAppDataDir}, logger)
		if err != nil {
			return err
		}
		defer wa.Disconnect()

		go func() {
			fmt.Println("Connecting to WhatsApp...")
			if err := wa.Connect(ctx); err != nil {
				logger.Error().Err(err).Msg("WhatsApp unavailable, nudges will fail")
				return
			}
			fmt.Println("✅ Connected to WhatsApp!")
		}()
		sender = wa
	}
	nudger := whatsapp.NewNudger(sender, cfg.NudgeInterval, logger)

	opts := handler.Options{
		WaitingLongPoll: cfg.WaitingLongPoll,
		GateRateLimit:   cfg.GateRateLimit,
		StaticDir:       cfg.StaticDir,
		MediaDir:        mediaDir,
		MediaPrefix:     cfg.BlobBaseURL,
	}
	app := handler.NewApp(
		handler.NewJourneyHandler(r, sessions, store, feed, bucket, nudger, opts, logger),
		handler.NewAdminHandler(auth, adminService, logger),
		opts,
		logger,
	)

	errc := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.Port).Msg("Listening")
		errc <- app.Listen(":" + cfg.Port)
	}()

	if console {
		go startCLI(os.Stdin, adminService, sessions, quit)
	}

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	fmt.Println("\n\nShutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}

func newFeed(cfg *config.Config, logger zerolog.Logger) (realtime.Feed, func()) {
	if cfg.Feed != config.FeedRedis {
		return realtime.NewHub(), func() {}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	return realtime.NewRedisFeed(client, logger), func() { client.Close() }
}

// newBucket returns the photo bucket and, for local storage, the directory
// the HTTP layer serves it from
func newBucket(ctx context.Context, cfg *config.Config) (blob.Bucket, string, error) {
	if cfg.Blob == config.BlobGCS {
		b, err := blob.NewGCSBucket(ctx, cfg.GCSBucket, cfg.GCSCredentialsFile)
		if err != nil {
			return nil, "", err
		}
		return b, "", nil
	}
	b, err := blob.NewDirBucket(cfg.BlobDir, cfg.BlobBaseURL)
	if err != nil {
		return nil, "", err
	}
	return b, b.Root(), nil
}

func sweepSessions(ctx context.Context, sessions *session.Registry, ttl time.Duration, logger zerolog.Logger) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Sweep(ttl); n > 0 {
				logger.Debug().Int("sessions", n).Msg("Dropped idle sessions")
			}
		}
	}
}
