// Package main is the entry point for the mail event appender CLI. It reads
// log lines from stdin (or -message) and emails each one through the appender.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/shineum/mail-event-appender/internal/appender"
	"github.com/shineum/mail-event-appender/internal/config"
	"github.com/shineum/mail-event-appender/internal/layout"
	"github.com/shineum/mail-event-appender/internal/metrics"
	"github.com/shineum/mail-event-appender/internal/provider"
	"github.com/shineum/mail-event-appender/internal/provider/ses"
	"github.com/shineum/mail-event-appender/internal/provider/smtp"
	"github.com/shineum/mail-event-appender/internal/provider/stdout"
	smtptls "github.com/shineum/mail-event-appender/internal/tls"
	"github.com/shineum/mail-event-appender/internal/transport"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file (optional)")
	message := flag.String("message", "", "send a single event with this message instead of reading stdin")
	level := flag.String("level", "error", "level of the emitted events (debug, info, warn, error)")
	loggerName := flag.String("logger", "", "logger name reported in the events (default: appender name)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	closeLog := setupLogger(cfg.Logging)
	defer closeLog()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	if cfg.Metrics.Listen != "" {
		srv := serveMetrics(cfg.Metrics.Listen, reg)
		defer func() {
			shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	prov, err := selectProvider(ctx, cfg)
	if err != nil {
		slog.Error("failed to create provider", "provider", cfg.Provider, "error", err)
		os.Exit(1)
	}

	app, err := buildAppender(cfg, prov, m)
	if err != nil {
		slog.Error("failed to build appender", "error", err)
		os.Exit(1)
	}
	app.ActivateOptions()
	defer app.Close()

	slog.Info("starting mail-event",
		"appender", app.Name(),
		"provider", prov.Name(),
		"to", app.To(),
		"dry", app.Dry(),
		"ambient", transport.Default.Settings().Addr(),
	)

	eventLevel := parseLevel(*level)
	events := slog.New(eventHandler(app, parseLevel(cfg.Appender.Threshold), *loggerName))

	if *message != "" {
		events.Log(ctx, eventLevel, *message)
		return
	}

	if err := forwardLines(ctx, os.Stdin, events, eventLevel); err != nil {
		slog.Error("failed to read input", "error", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration from the specified path (YAML + env override)
// or from environment variables only if no path is given.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// setupLogger configures the global slog logger with JSON output and the
// specified log level. When a log file is configured, output goes to a
// rotating file instead of stderr. The returned func closes the file.
func setupLogger(cfg config.LoggingConfig) func() {
	var out io.Writer = os.Stderr
	closeFn := func() {}

	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		}
		out = rotator
		closeFn = func() { _ = rotator.Close() }
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	})
	slog.SetDefault(slog.New(handler))
	return closeFn
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// selectProvider chooses the email delivery backend based on configuration.
func selectProvider(ctx context.Context, cfg *config.Config) (provider.Provider, error) {
	switch cfg.Provider {
	case "ses":
		slog.Info("using AWS SES provider", "region", cfg.SES.Region)
		return ses.New(ctx, ses.SESProviderConfig{
			Region:           cfg.SES.Region,
			AccessKeyID:      cfg.SES.AccessKeyID,
			SecretAccessKey:  cfg.SES.SecretAccessKey,
			UseRelayEndpoint: cfg.SES.UseRelayEndpoint,
		})

	case "stdout":
		slog.Info("using stdout provider")
		return stdout.New(), nil

	case "smtp":
		serverName := cfg.Appender.SMTPHost
		if serverName == "" {
			serverName = cfg.Transport.Host
		}
		tlsConfig, err := smtptls.ClientConfig(serverName, cfg.SMTP.CAFile, cfg.SMTP.InsecureSkipVerify)
		if err != nil {
			return nil, err
		}
		slog.Info("using smtp provider",
			"encryption", cfg.SMTP.Encryption,
			"auth_enabled", cfg.SMTP.Username != "",
		)
		return smtp.New(smtp.Config{
			Username:   cfg.SMTP.Username,
			Password:   cfg.SMTP.Password,
			Encryption: cfg.SMTP.Encryption,
			TLSConfig:  tlsConfig,
			Timeout:    cfg.SMTP.Timeout,
		}), nil

	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownProvider, cfg.Provider)
	}
}

// buildAppender applies the ambient transport defaults and creates the
// configured, still closed appender.
func buildAppender(cfg *config.Config, prov provider.Provider, m *metrics.Metrics) (*appender.MailEvent, error) {
	l, err := layout.New(cfg.Appender.Layout)
	if err != nil {
		return nil, err
	}

	transport.Default.Set(transport.Settings{Host: cfg.Transport.Host, Port: cfg.Transport.Port})

	app := appender.NewMailEvent(cfg.Appender.Name,
		appender.WithProvider(prov),
		appender.WithLayout(l),
		appender.WithMetrics(m),
		appender.WithLogger(slog.Default()),
	)
	for _, opt := range cfg.Appender.Options() {
		if err := app.SetOption(opt.Name, opt.Value); err != nil {
			return nil, err
		}
	}

	if app.From() == "" || app.To() == "" {
		slog.Warn("from or to is not set, events will be dropped")
	}
	return app, nil
}

// eventHandler bridges slog to app. Events carry the appender name as their
// logger unless loggerName is set.
func eventHandler(app *appender.MailEvent, threshold slog.Leveler, loggerName string) *appender.Handler {
	h := appender.NewHandler(app, threshold)
	if loggerName != "" {
		h = h.Named(loggerName)
	}
	return h
}

// forwardLines logs every non-empty line of r at level until EOF or ctx is done.
func forwardLines(ctx context.Context, r io.Reader, events *slog.Logger, level slog.Level) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		events.Log(ctx, level, line)
	}
	return scanner.Err()
}

func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server error", "error", err)
		}
	}()
	slog.Info("serving metrics", "addr", addr)
	return srv
}
