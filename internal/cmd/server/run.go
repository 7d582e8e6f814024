package serverrun

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	cfgpkg "github.com/rzbill/serialflo/internal/config"
	"github.com/rzbill/serialflo/internal/drain"
	"github.com/rzbill/serialflo/internal/runtime"
	httpserver "github.com/rzbill/serialflo/internal/server/http"
	logpkg "github.com/rzbill/serialflo/pkg/log"
)

type Options struct {
	// ConfigPath selects a JSON or YAML file. Empty falls back to
	// config.DefaultConfigPath, then to built-in defaults.
	ConfigPath string
	// HTTPAddr overrides http.addr when set.
	HTTPAddr string
	// LogLevel and LogFormat override log.level/log.format when set.
	LogLevel  string
	LogFormat string
	// Elements processes list elements; nil logs them.
	Elements drain.ElementHandler
	Entries  drain.EntryHandler
}

// LoadConfig resolves the effective configuration: file, then SERIALFLO_*
// environment, then explicit overrides from opts.
func LoadConfig(opts Options) (cfgpkg.Config, error) {
	path := opts.ConfigPath
	if path == "" {
		path = cfgpkg.DefaultConfigPath()
	}
	cfg, err := cfgpkg.Load(path)
	if err != nil {
		return cfgpkg.Config{}, err
	}
	cfgpkg.FromEnv(&cfg)
	if opts.HTTPAddr != "" {
		cfg.HTTP.Addr = opts.HTTPAddr
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if opts.LogFormat != "" {
		cfg.Log.Format = opts.LogFormat
	}
	return cfg, cfg.Validate()
}

// Run starts the runtime, its consumers and the admin HTTP server, and
// blocks until ctx is cancelled or a termination signal arrives.
func Run(ctx context.Context, opts Options) error {
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := LoadConfig(opts)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	procLogger, err := logpkg.ApplyConfig(&logpkg.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		lvl := logpkg.InfoLevel
		if l, e := logpkg.ParseLevel(cfg.Log.Level); e == nil {
			lvl = l
		}
		procLogger = logpkg.NewLogger(logpkg.WithLevel(lvl), logpkg.WithFormatter(&logpkg.TextFormatter{}))
	}
	logpkg.RedirectStdLog(procLogger)

	procLogger.Info("Starting serialflo",
		logpkg.Str("http", cfg.HTTP.Addr),
		logpkg.Str("group", cfg.Group.Name),
		logpkg.Str("type", cfg.Serial.Type),
		logpkg.Int("consumers", cfg.Group.Consumers),
		logpkg.Str("level", cfg.Log.Level),
		logpkg.Str("format", cfg.Log.Format),
	)

	rt, err := runtime.Open(sctx, runtime.Options{
		Config:   cfg,
		Logger:   procLogger,
		Elements: opts.Elements,
		Entries:  opts.Entries,
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.Start(sctx); err != nil {
		return err
	}

	hsrv := httpserver.New(rt, procLogger)
	errCh := make(chan error, 1)
	go func() { errCh <- hsrv.ListenAndServe(sctx, cfg.HTTP.Addr) }()

	select {
	case <-sctx.Done():
		// ListenAndServe shuts down on sctx; wait so the runtime closes last.
		<-errCh
	case err := <-errCh:
		if err != nil && sctx.Err() == nil {
			procLogger.Error("http server failed", logpkg.Err(err))
			return err
		}
	}
	procLogger.Info("serialflo stopped")
	return nil
}
