package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/freshframe/freshframe/internal/capture"
	"github.com/freshframe/freshframe/internal/config"
	"github.com/freshframe/freshframe/internal/pipeline"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg := config.Load()

	format, err := capture.ParsePixelFormat(cfg.PixelFormat)
	if err != nil {
		logger.Fatal("invalid pixel format", zap.Error(err))
	}
	shape := capture.StreamShape{Width: cfg.Width, Height: cfg.Height, Format: format}

	var src capture.Source
	switch cfg.Source {
	case config.SourceV4L2:
		src, err = capture.NewV4L2Source(cfg.Device, shape)
		if err != nil {
			logger.Fatal("failed to create v4l2 source", zap.Error(err))
		}
	case config.SourceSynthetic:
		src = capture.NewSyntheticSource(shape, cfg.SynthFPS)
	default:
		logger.Fatal("unknown source kind", zap.String("source", cfg.Source))
	}

	logger.Info("freshframed starting",
		zap.String("source", cfg.Source),
		zap.String("device", cfg.Device),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
		zap.String("format", cfg.PixelFormat),
		zap.Int("poolSize", cfg.PoolSize),
		zap.String("internalAPI", cfg.InternalAddr),
	)

	p, err := pipeline.New(src, pipeline.Options{Shape: shape, PoolSize: cfg.PoolSize}, logger)
	if err != nil {
		logger.Fatal("failed to create pipeline", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := p.Start(ctx); err != nil {
		logger.Fatal("failed to start pipeline", zap.Error(err))
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/internal/pipeline", p.InternalHandler())

	srv := &http.Server{
		Addr:         cfg.InternalAddr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 20 * time.Second,
	}

	go func() {
		logger.Info("internal API listening", zap.String("addr", cfg.InternalAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("internal API failed", zap.Error(err))
		}
	}()

	// Stand-in consumer: drains the freshest frame at a fixed tick and
	// releases it, the way a render loop would after a texture upload.
	consumerStop := make(chan struct{})
	if cfg.ConsumeHz > 0 {
		go consumeLoop(p, cfg.ConsumeHz, consumerStop)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("shutting down")
	case <-p.Done():
		logger.Warn("capture worker exited, shutting down",
			zap.String("lastError", p.Status().Worker.LastError))
	}

	close(consumerStop)
	p.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("internal API shutdown failed", zap.Error(err))
	}
}

func consumeLoop(p *pipeline.Pipeline, hz int, stop <-chan struct{}) {
	ticker := time.NewTicker(time.Second / time.Duration(hz))
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if f, ok := p.TryTakeLatestFrame(); ok {
				_ = f.Bytes()
				p.ReleaseFrame(f)
			}
		}
	}
}
