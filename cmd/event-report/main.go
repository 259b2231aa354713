// Command event-report loads events through the event API and prints their
// aggregated financial KPIs and cost breakdown as JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/prohmpiriya/event-planner/internal/analytics"
	"github.com/prohmpiriya/event-planner/internal/apiclient"
	"github.com/prohmpiriya/event-planner/internal/domain"
	"github.com/prohmpiriya/event-planner/internal/store"
	"github.com/prohmpiriya/event-planner/pkg/config"
	"github.com/prohmpiriya/event-planner/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Logs go to stderr, the report to stdout
	if err := logger.Init(&logger.Config{
		Level:       cfg.App.LogLevel,
		ServiceName: "event-report",
		Development: cfg.IsDevelopment(),
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], cfg.API, os.Stdout, logger.Get()); err != nil {
		logger.Get().Error("report failed", zap.Error(err))
		os.Exit(1)
	}
}

type options struct {
	baseURL string
	timeout time.Duration
	eventID string
	compact bool
}

func parseFlags(args []string, defaults config.APIConfig) (*options, error) {
	opts := &options{}
	fs := pflag.NewFlagSet("event-report", pflag.ContinueOnError)
	fs.StringVar(&opts.baseURL, "base-url", defaults.BaseURL, "event API base URL")
	fs.DurationVar(&opts.timeout, "timeout", defaults.Timeout, "request timeout")
	fs.StringVarP(&opts.eventID, "event", "e", "", "report a single event by id")
	fs.BoolVar(&opts.compact, "compact", false, "print JSON without indentation")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.baseURL == "" {
		return nil, fmt.Errorf("--base-url is required")
	}
	return opts, nil
}

func run(ctx context.Context, args []string, defaults config.APIConfig, out io.Writer, log *logger.Logger) error {
	opts, err := parseFlags(args, defaults)
	if err != nil {
		return err
	}

	client := apiclient.New(&apiclient.Config{BaseURL: opts.baseURL, Timeout: opts.timeout}, nil, apiclient.WithLogger(log))

	events, err := loadEvents(ctx, client, opts.eventID, log)
	if err != nil {
		return err
	}
	log.Info("events loaded", zap.Int("count", len(events)))

	enc := json.NewEncoder(out)
	if !opts.compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(analytics.BuildReport(events, time.Now().UTC()))
}

// loadEvents lists every event, or loads one through the event store
func loadEvents(ctx context.Context, client *apiclient.Client, id string, log *logger.Logger) ([]*domain.Event, error) {
	if id == "" {
		return client.List(ctx)
	}

	notices := store.NotifierFunc(func(n store.Notice) {
		log.Warn(n.Title, zap.String("kind", string(n.Kind)), zap.String("message", n.Message))
	})
	st := store.New(client, store.WithNotifier(notices), store.WithLogger(log)).Load(ctx, id)
	if st.NotFound() {
		return nil, fmt.Errorf("event %s: %w", id, domain.ErrNotFound)
	}
	if st.Err != nil {
		return nil, st.Err
	}
	return []*domain.Event{st.Event}, nil
}
