package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/NaqibL/mcf/internal/config"
	"github.com/NaqibL/mcf/internal/crawler"
	"github.com/NaqibL/mcf/internal/db"
	"github.com/NaqibL/mcf/internal/scheduler"
	"github.com/NaqibL/mcf/internal/source"
	"github.com/NaqibL/mcf/internal/store"
)

// boardSource adapts the MCF client to the crawler's Source interface,
// producing a fresh stream per run.
type boardSource struct {
	client     *source.Client
	categories []string
	pageLimit  int
}

func (b boardSource) Listings() crawler.Stream {
	return b.client.Listings(b.categories, b.pageLimit)
}

func newCrawlCmd(log zerolog.Logger) *cobra.Command {
	var (
		daemon     bool
		categories []string
		pageLimit  int
	)

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Run an incremental crawl against the configured store",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			st := store.New(pool, log)
			if err := st.EnsureSchema(ctx); err != nil {
				return err
			}

			var events *redis.Client
			if cfg.RedisURL != "" {
				events, err = db.NewRedisClient(ctx, cfg.RedisURL)
				if err != nil {
					return err
				}
				defer events.Close()
			}

			if len(categories) == 0 {
				categories = source.Categories
			}
			client := source.NewClient(cfg.BaseURL, cfg.PageSize, cfg.RatePerSec, log)
			runner := crawler.New(st, boardSource{client, categories, pageLimit}, events, categories, log)

			if !daemon {
				_, err := runner.Run(ctx)
				return err
			}

			sched := scheduler.New(cfg.CrawlIntervalHours, func(ctx context.Context) {
				if _, err := runner.Run(ctx); err != nil {
					log.Error().Err(err).Msg("scheduled crawl failed")
				}
			}, log)
			if err := sched.Start(ctx); err != nil {
				return err
			}
			defer sched.Stop()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit
			log.Info().Msg("shutting down")
			return nil
		},
	}

	cmd.Flags().BoolVar(&daemon, "daemon", false, "keep running, crawling on the configured interval")
	cmd.Flags().StringSliceVar(&categories, "categories", nil, "categories to crawl (default: all)")
	cmd.Flags().IntVar(&pageLimit, "page-limit", 0, "max pages per category, 0 for no limit (for testing)")
	return cmd
}
