package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	videosummarizer "video-summarizer/agents/video-summarizer"
	"video-summarizer/agents/video-summarizer/transcript"
	"video-summarizer/agents/video-summarizer/youtube"
	"video-summarizer/shared/ai"
	"video-summarizer/shared/config"
	"video-summarizer/shared/logger"
	"video-summarizer/shared/metrics"
	"video-summarizer/shared/monitoring"
	"video-summarizer/shared/proxy"
	"video-summarizer/shared/scheduler"
	"video-summarizer/shared/storage"

	"github.com/gin-gonic/gin"
)

const (
	transcriptTimeout = 30 * time.Second
	proxyCheckTimeout = 15 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLog, err := logger.New(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer appLog.Sync()

	// Create context that responds to signals
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if len(os.Args) > 1 && os.Args[1] == "--init-db" {
		if err := initDB(ctx, cfg); err != nil {
			appLog.Fatal("Failed to initialize database", logger.Error(err))
		}
		fmt.Println("Database initialized.")
		return
	}

	if err := run(ctx, cfg, appLog); err != nil {
		appLog.Fatal("Server failed", logger.Error(err))
	}
}

func initDB(ctx context.Context, cfg *config.Config) error {
	store, err := storage.Open(&cfg.Database)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Init(ctx)
}

func run(ctx context.Context, cfg *config.Config, appLog logger.Logger) error {
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := storage.Open(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	if err := store.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	videos, err := youtube.NewClient(ctx, &cfg.YouTube)
	if err != nil {
		return err
	}

	summarizer, err := ai.NewSummarizer(ctx, &cfg.AI)
	if err != nil {
		return err
	}

	m := metrics.New()

	var proxyClient *http.Client
	if cfg.Proxy.Enabled() {
		proxyURL, err := proxy.URL(&cfg.Proxy)
		if err != nil {
			return fmt.Errorf("invalid proxy configuration: %w", err)
		}
		proxyClient = proxy.NewHTTPClient(proxyURL, transcriptTimeout)
		appLog.Info("Transcript proxy enabled", logger.String("proxy_host", proxyURL.Host))
	}

	transcripts := transcript.NewClient(&transcript.WatchPageProvider{}, transcript.Options{
		Proxy:  proxyClient,
		Direct: proxy.NewHTTPClient(nil, transcriptTimeout),
		Logger: appLog.With(logger.String("component", "transcript")),
		OnFallback: func(error) {
			m.ProxyFallbacks.Inc()
		},
	})

	deps := videosummarizer.Deps{
		Videos:      videos,
		Transcripts: transcripts,
		Summarizer:  summarizer,
		Store:       store,
		Metrics:     m,
		Logger:      appLog,
		StaticDir:   cfg.Server.StaticDir,
	}

	var wg sync.WaitGroup
	var monitors []*monitoring.Monitor

	tester, err := proxy.NewTester(&cfg.Proxy, proxyCheckTimeout)
	if err != nil {
		return err
	}
	if tester != nil {
		deps.Proxy = tester

		if cfg.Proxy.CheckSchedule != "" {
			monitor := monitoring.NewMonitor("proxy", appLog)
			monitors = append(monitors, monitor)

			s := scheduler.New(cfg.Proxy.CheckSchedule, videosummarizer.NewProxyCheck(tester, m), monitor, appLog)
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := s.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
					appLog.Error("Proxy check scheduler failed", logger.Error(err))
				}
			}()
		}
	}
	deps.Health = monitoring.NewHealthHandler(monitors...).
		WithDependency("database", store)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           videosummarizer.NewServer(deps).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("HTTP server starting", logger.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	appLog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownSeconds)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	wg.Wait()

	appLog.Info("Server stopped")
	return nil
}
