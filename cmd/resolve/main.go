package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/hjhkhvffsd/movie-web-app/internal/cache"
	"github.com/hjhkhvffsd/movie-web-app/internal/config"
	"github.com/hjhkhvffsd/movie-web-app/internal/metrics"
	"github.com/hjhkhvffsd/movie-web-app/internal/models"
	"github.com/hjhkhvffsd/movie-web-app/internal/resolver"
	"github.com/hjhkhvffsd/movie-web-app/internal/transport"
)

// cacheLogger adapts the global zerolog logger to the cache error sink.
type cacheLogger struct{}

func (cacheLogger) Error(msg string, err error) {
	logger := config.GetLogger()
	logger.Error().Err(err).Msg(msg)
}

func main() {
	cfg := config.GetConfig()
	logger := config.GetLogger()

	translatorID := flag.Int("translator", 0, "translator id to activate (default: first in document order)")
	season := flag.Int("season", 0, "season to land on (series only)")
	episode := flag.Int("episode", 0, "episode to land on (series only)")
	details := flag.Bool("details", false, "also fetch thumbnail sheet and per-quality download sizes")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <item-page-path>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	path := flag.Arg(0)

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN}); err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize Sentry, continuing without error reporting")
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	fatal := func(msg string, err error) {
		sentry.CaptureException(err)
		sentry.Flush(2 * time.Second)
		logger.Fatal().Err(err).Msg(msg)
	}

	logger.Info().
		Str("provider_domain", cfg.ProviderDomain).
		Str("cache_provider", cfg.Cache.Provider).
		Str("path", path).
		Msg("Starting resolve")

	ttl, err := time.ParseDuration(cfg.Cache.TTL)
	if err != nil {
		logger.Warn().Err(err).Str("ttl", cfg.Cache.TTL).Msg("Invalid cache TTL, using 1h")
		ttl = time.Hour
	}

	store, err := cache.New(cfg.Cache.Provider, cache.ProviderConfig{
		Size:          cfg.Cache.Size,
		TTL:           ttl,
		Logger:        cacheLogger{},
		RedisAddress:  cfg.Cache.RedisAddress,
		RedisPassword: cfg.Cache.RedisPassword,
		RedisDB:       cfg.Cache.RedisDB,
		Group:         "resolver",
	})
	if err != nil {
		fatal("Failed to create cache", err)
	}
	memo := cache.NewMemoizer(store)
	defer func() {
		if err := memo.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close cache")
		}
	}()

	client, err := transport.New(cfg)
	if err != nil {
		fatal("Failed to create transport", err)
	}

	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewHTTPServer(cfg.Metrics.Address, cfg.Metrics.Port)
		go func() {
			logger.Info().Str("address", metricsServer.Addr).Msg("Starting Prometheus metrics HTTP server")
			if err := metricsServer.ListenAndServe(); err != nil && err.Error() != "http: Server closed" {
				logger.Error().Err(err).Msg("Failed to serve metrics")
			}
		}()
		defer func() {
			if err := metricsServer.Shutdown(context.Background()); err != nil {
				logger.Error().Err(err).Msg("Failed to shutdown metrics server")
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res := resolver.New(client, memo, cfg)

	item, err := res.Assemble(ctx, path, resolver.AssembleOptions{
		TranslatorID: *translatorID,
		Season:       *season,
		Episode:      *episode,
	})
	if err != nil {
		fatal("Failed to assemble item", err)
	}

	out := struct {
		Item    models.Item           `json:"item"`
		Details *models.StreamDetails `json:"details,omitempty"`
	}{Item: item}

	if *details {
		if stream := activeStream(item); stream != nil {
			d, err := res.StreamDetails(ctx, stream)
			if err != nil {
				fatal("Failed to fetch stream details", err)
			}
			out.Details = d
		}
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(out); err != nil {
		fatal("Failed to encode output", err)
	}
}

// activeStream finds the single resolved stream of a freshly assembled
// item.
func activeStream(item models.Item) *models.Stream {
	for _, s := range item.MovieStreams {
		if s != nil {
			return s
		}
	}
	for _, tree := range item.SeasonTrees {
		for _, season := range tree {
			for _, ep := range season.Episodes {
				if ep.Stream != nil {
					return ep.Stream
				}
			}
		}
	}
	return nil
}
