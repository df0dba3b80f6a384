package main

import (
	"context"
	"log"

	"github.com/shopgraph/shop-graph-backend/config"
	"github.com/shopgraph/shop-graph-backend/internal/bootstrap"
	"github.com/shopgraph/shop-graph-backend/internal/cache"
	"github.com/shopgraph/shop-graph-backend/internal/recs"
)

const (
	serviceName = "shop-graph-api"
	version     = "1.0.0"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	graph, err := bootstrap.OpenGraph(ctx, &cfg.Neo4j)
	if err != nil {
		log.Fatalf("neo4j: %v", err)
	}
	defer func() {
		if err := graph.Close(ctx); err != nil {
			log.Printf("[warn] closing graph driver: %v", err)
		}
	}()

	recsCache := cache.New(&cfg.Cache)
	defer recsCache.Close()

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: serviceName,
		Version:     version,
		Graph:       graph,
		Recs:        recs.NewService(graph, recsCache),
		RateLimit:   cfg.Server.RateLimit,
		Burst:       cfg.Server.RateBurst,
	})

	log.Printf("[info] %s listening on :%s", serviceName, cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}
