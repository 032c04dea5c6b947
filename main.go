package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gazefront/attention.report/internal/api"
	"github.com/gazefront/attention.report/internal/config"
	"github.com/gazefront/attention.report/internal/db"
	"github.com/gazefront/attention.report/internal/pipeline"
	"github.com/gazefront/attention.report/internal/sink"
	"github.com/gazefront/attention.report/internal/track"
	"github.com/gazefront/attention.report/internal/version"
	"github.com/gazefront/attention.report/internal/zone"
)

var (
	listen        = flag.String("listen", ":8080", "Listen address")
	configPath    = flag.String("config", "", "Path to JSON tuning config (optional)")
	replayPath    = flag.String("replay", "", "Path to a JSONL detection capture to replay")
	migrationsDir = flag.String("migrations", "internal/db/migrations", "Path to database migrations")
)

func loadConfig() *config.Config {
	if *configPath == "" {
		return config.LoadEnv()
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func buildMapper(cfg *config.Config) zone.Mapper {
	if path := cfg.GetZoneConfigPath(); path != "" {
		m, err := zone.LoadBoundsMapper(path)
		if err != nil {
			log.Fatalf("failed to load zone config: %v", err)
		}
		return m
	}
	return zone.NewLayoutMapper()
}

func buildSinks(cfg *config.Config) (sink.Sink, *db.DB) {
	var sinks []sink.Sink
	var database *db.DB

	if cfg.GetConsoleOutput() {
		sinks = append(sinks, sink.NewConsole(cfg.GetVerbose()))
	}
	if cfg.GetDatabaseOutput() {
		var err error
		database, err = db.New(cfg.GetDBPath())
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		if err := database.MigrateUp(*migrationsDir); err != nil {
			log.Printf("database migration failed: %v", err)
		}
		sinks = append(sinks, database)
	}
	if cfg.GetJSONOutput() {
		j, err := sink.NewJSONFiles(cfg.GetJSONOutputDir())
		if err != nil {
			log.Fatalf("failed to create JSON output dir: %v", err)
		}
		sinks = append(sinks, j)
	}

	return sink.NewComposite(sinks...), database
}

func main() {
	flag.Parse()

	if *listen == "" {
		log.Fatal("Listen address is required")
	}
	if *replayPath == "" {
		log.Fatal("A detection capture is required; pass -replay <file.jsonl>")
	}

	log.Printf("attention.report %s (%s)", version.Version, version.GitSHA)

	cfg := loadConfig()

	source, err := pipeline.OpenReplay(*replayPath)
	if err != nil {
		log.Fatalf("failed to open detection capture: %v", err)
	}
	defer source.Close()

	out, database := buildSinks(cfg)
	defer out.Close()

	tracker := track.NewTracker(track.Config{
		IoUThreshold:       cfg.GetIoUThreshold(),
		MaxMissingFrames:   cfg.GetMaxMissingFrames(),
		MinSessionDuration: cfg.GetMinSessionDuration(),
		FPS:                cfg.GetFPS(),
	})

	mapper := buildMapper(cfg)
	runner := pipeline.NewRunner(tracker, source, mapper, out, cfg.GetFrameSkip())

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// pipeline goroutine: replay the capture through the tracker
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := runner.Run(ctx); err != nil {
			log.Printf("pipeline failed: %v", err)
		}
		log.Print("pipeline routine terminated")
	}()

	apiServer := api.NewServer(runner, mapper, database)

	// live feed broadcast goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		apiServer.Hub().RunBroadcast(ctx, runner, time.Second)
		log.Print("broadcast routine terminated")
	}()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(apiServer.ServeMux()),
		}

		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
