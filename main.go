package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	_ "time/tzdata"

	"chimbori.dev/squeeze/conf"
	"chimbori.dev/squeeze/core"
	"chimbori.dev/squeeze/dashboard"
	"chimbori.dev/squeeze/db"
	"chimbori.dev/squeeze/images"
	"chimbori.dev/squeeze/slogdb"
	"github.com/lmittmann/tint"
)

func main() {
	tintHandler := tint.NewHandler(os.Stderr, &tint.Options{TimeFormat: "2006-01-02 15:04:05.000"})
	slog.SetDefault(slog.New(tintHandler))
	slog.Info(conf.AppName, "build-timestamp", conf.BuildTimestamp)

	bcryptFlag := flag.Bool("bcrypt", false, "print bcrypt hash for given password & exit")
	healthCheckFlag := flag.Bool("healthcheck", false, "verify health of running service & exit")
	configYmlFlag := flag.String("config", "squeeze.yml", "path to squeeze.yml")
	inFlag := flag.String("in", "", "compress a single local image & exit")
	outFlag := flag.String("out", "", "output path for --in; defaults to NAME.min.EXT next to the input")
	qualityFlag := flag.String("quality", "", "JPEG & WEBP quality for --in, 1 to 100")
	presetFlag := flag.String("preset", "", "PNG optimization preset for --in, 1 to 6")
	flag.Parse()

	// If run with “--bcrypt”, read a password via the terminal, output a bcrypt hash, and exit.
	if *bcryptFlag {
		password := core.ReadPassword()
		hash, err := core.HashPassword(password)
		if err != nil {
			slog.Error("Failed to generate password hash", tint.Err(err))
			os.Exit(1)
		}
		fmt.Println(hash)
		os.Exit(0)
	}

	// Read config before any routine maintenance is performed.
	var err error
	if conf.Config, err = conf.ReadConfig(*configYmlFlag); err != nil {
		// A local one-shot compression can run on defaults alone.
		if *inFlag == "" || !errors.Is(err, fs.ErrNotExist) {
			slog.Error("Failed to parse config", tint.Err(err))
			os.Exit(1)
		}
	}

	if *healthCheckFlag {
		os.Exit(core.VerifyHealthCheck(conf.Config.Web.Host, conf.Config.Web.Port))
	}

	// If debug mode was turned on in the config file, print logs at DEBUG or above.
	if conf.Config.Debug {
		tintHandler = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: "2006-01-02 15:04:05.000",
		})
		slog.SetDefault(slog.New(tintHandler))
	}

	if *inFlag != "" {
		message, err := compressFile(context.Background(), *inFlag, *outFlag, *qualityFlag, *presetFlag)
		if err != nil {
			slog.Error("Failed to compress "+*inFlag, tint.Err(err))
			os.Exit(1)
		}
		fmt.Println(message)
		os.Exit(0)
	}

	// The database is optional: without one, history, error logs & dashboard data are unavailable.
	var healthChecks []core.HealthCheck
	if conf.Config.Database.Url != "" {
		// Run migrations using [database/sql] before connecting to the DB using [pgxpool.Pool].
		if err := core.RunMigrations(conf.Config.Database.Url, db.EmbedMigrations); err != nil {
			slog.Error("Error running critical migrations", tint.Err(err))
			os.Exit(1)
		}
		db.Pool, err = core.ConnectPool(context.Background(), conf.Config.Database.Url)
		if err != nil {
			slog.Error("Unable to connect to database", tint.Err(err))
			os.Exit(1)
		}
		defer db.Pool.Close()
		slog.Info("Connected to database successfully")

		// Now that the database is connected, wrap the console handler with the DB handler
		// so that all error-level logs are also written to the database.
		slog.SetDefault(slog.New(slogdb.NewDBHandler(tintHandler, db.Pool)))
		slog.Info("Database error logging enabled")

		healthChecks = append(healthChecks, func(ctx context.Context) error {
			return db.Pool.Ping(ctx)
		})
	}

	// Set up the Web server before maintenance, so the compressed image cache exists when it is pruned.
	mux := http.NewServeMux()
	core.SetupHealthCheck(mux, healthChecks...)
	images.InitHistory()
	images.Init(mux)
	dashboard.Init(mux)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go runMaintenance(ctx)

	// Set up a graceful cleanup for when the process is terminated.
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-signalCh
		fmt.Println()
		stop()
		if db.Pool != nil {
			db.Pool.Close()
		}
		slog.Info("Shutdown successfully!")
		os.Exit(0)
	}()

	addr := net.JoinHostPort("", strconv.Itoa(conf.Config.Web.Port))
	slog.Info("Listening", "url", "http://"+net.JoinHostPort(conf.Config.Web.Host, strconv.Itoa(conf.Config.Web.Port))) // Not "https://", since this app does not terminate SSL.
	server := &http.Server{
		Addr:              addr,
		Handler:           core.SecurityHeaders(mux),
		ReadHeaderTimeout: conf.Config.Compression.Timeout,
	}
	log.Fatal(server.ListenAndServe())
}
