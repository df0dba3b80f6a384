package main

import (
	"context"
	"log"
	"os"
	"sync/atomic"

	"github.com/robfig/cron/v3"

	"github.com/shopgraph/shop-graph-backend/config"
	"github.com/shopgraph/shop-graph-backend/internal/bootstrap"
	"github.com/shopgraph/shop-graph-backend/internal/etl"
	"github.com/shopgraph/shop-graph-backend/internal/storage/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	if err := waitForStores(ctx, cfg); err != nil {
		log.Fatalf("readiness: %v", err)
	}

	pool, err := bootstrap.OpenDB(ctx, &cfg.Postgres, bootstrap.DBOptions{})
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	graph, err := bootstrap.OpenGraph(ctx, &cfg.Neo4j)
	if err != nil {
		log.Fatalf("neo4j: %v", err)
	}
	defer func() {
		if err := graph.Close(ctx); err != nil {
			log.Printf("[warn] closing graph driver: %v", err)
		}
	}()

	pipeline := &etl.Pipeline{
		Source:    postgres.NewExtractor(pool),
		Graph:     graph,
		ChunkSize: cfg.ETL.ChunkSize,
	}

	if cfg.ETL.Schedule == "" {
		if _, err := pipeline.Run(ctx); err != nil {
			log.Printf("[error] etl run: %v", err)
			os.Exit(1)
		}
		return
	}

	runOnSchedule(ctx, cfg.ETL.Schedule, pipeline)
}

// runOnSchedule reruns the full reload on a cron spec. Two runs must never
// execute concurrently against the same graph, so a tick that fires while a
// run is still in flight is skipped.
func runOnSchedule(ctx context.Context, spec string, pipeline *etl.Pipeline) {
	var running atomic.Bool

	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if !running.CompareAndSwap(false, true) {
			log.Printf("[warn] previous etl run still in flight, skipping tick")
			return
		}
		defer running.Store(false)

		if _, err := pipeline.Run(ctx); err != nil {
			log.Printf("[error] scheduled etl run: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("invalid ETL_SCHEDULE %q: %v", spec, err)
	}

	log.Printf("[info] etl scheduler started, spec=%q", spec)
	c.Run()
}

func waitForStores(ctx context.Context, cfg *config.Config) error {
	err := bootstrap.WaitFor(ctx, "postgres", cfg.ETL.ReadyMaxAttempts, cfg.ETL.ReadyDelay,
		func(ctx context.Context) error {
			pool, err := bootstrap.OpenDB(ctx, &cfg.Postgres, bootstrap.DBOptions{})
			if err != nil {
				return err
			}
			pool.Close()
			return nil
		})
	if err != nil {
		return err
	}

	return bootstrap.WaitFor(ctx, "neo4j", cfg.ETL.ReadyMaxAttempts, cfg.ETL.ReadyDelay,
		func(ctx context.Context) error {
			graph, err := bootstrap.OpenGraph(ctx, &cfg.Neo4j)
			if err != nil {
				return err
			}
			return graph.Close(ctx)
		})
}
