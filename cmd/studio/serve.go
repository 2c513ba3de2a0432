package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/inovacaoentalhe/estudio-imagem-v6/internal/config"
	"github.com/inovacaoentalhe/estudio-imagem-v6/internal/gemini"
	"github.com/inovacaoentalhe/estudio-imagem-v6/internal/httpclient"
	"github.com/inovacaoentalhe/estudio-imagem-v6/internal/metrics"
	"github.com/inovacaoentalhe/estudio-imagem-v6/internal/queue"
	"github.com/inovacaoentalhe/estudio-imagem-v6/internal/server"
	"github.com/inovacaoentalhe/estudio-imagem-v6/internal/store"
	"github.com/inovacaoentalhe/estudio-imagem-v6/internal/studio"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the studio HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer st.Close()

	session, err := loadSession(st)
	if err != nil {
		return err
	}

	saver := store.NewSaver(logger, cfg.DraftDebounce, cfg.GalleryDebounce,
		func() error { return st.SaveDraft(session.Draft()) },
		func() error { return st.SaveGallery(session.Items()) },
	)
	defer saver.Stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	gen := gemini.New(gemini.Options{
		APIKey:     cfg.GeminiAPIKey,
		BaseURL:    cfg.GeminiBaseURL,
		APIVersion: cfg.GeminiAPIVersion,
		TextModel:  cfg.TextModel,
		ImageModel: cfg.ImageModel,
		HTTPClient: httpclient.New(httpclient.Options{
			PreferIPv4: cfg.PreferIPv4,
			Timeout:    cfg.HTTPTimeout,
		}),
		Logger:  logger.With("component", "gemini"),
		OnRetry: m.ProviderRetry,
	})

	srv := server.New(server.Options{
		Session:        session,
		Store:          st,
		Saver:          saver,
		Generator:      gen,
		Logger:         logger.With("component", "server"),
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	controller := queue.New(queue.Options{
		Session:       session,
		Generator:     gen,
		History:       historyStore{st},
		Logger:        logger.With("component", "queue"),
		Ceiling:       int64(cfg.MaxConcurrentRenders),
		RenderTimeout: cfg.RequestTimeout,
		Notify:        srv.Notify,
		Observer:      m,
	})

	// Render completions must reach disk even without API traffic.
	session.Subscribe(saver.GalleryChanged)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := controller.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		logger.Info("studio listening", "addr", cfg.ListenAddr, "db", cfg.DatabasePath)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	saver.Flush()
	logger.Info("studio stopped")
	return err
}

func newLogger(cfg config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if cfg.Debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// loadSession rebuilds the in-memory session from persisted state.
func loadSession(st *store.Store) (*studio.Session, error) {
	draft, err := st.LoadDraft()
	if err != nil {
		return nil, err
	}
	form := studio.InitialFormData()
	if draft != nil {
		form = *draft
	}

	ambiences, err := st.ListAmbiences()
	if err != nil {
		return nil, err
	}
	if len(ambiences) > 0 && len(form.CustomAmbiences) == 0 {
		form.CustomAmbiences = ambiences
	}

	session := studio.NewSession(form)

	items, err := st.LoadGallery()
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		session.ReplaceItems(items)
	}
	return session, nil
}

// historyStore adapts the store to the queue history sink.
type historyStore struct {
	st *store.Store
}

func (h historyStore) Append(entry studio.HistoryMetadata) error {
	return h.st.AppendHistory(entry)
}
