package bootstrap

import (
	"context"
	"fmt"

	"github.com/shopgraph/shop-graph-backend/config"
	"github.com/shopgraph/shop-graph-backend/internal/storage/graphdb"
)

// OpenGraph creates a graph store client and verifies it is reachable.
func OpenGraph(ctx context.Context, cfg *config.Neo4jConfig) (*graphdb.Client, error) {
	client, err := graphdb.New(cfg)
	if err != nil {
		return nil, err
	}

	if err := client.VerifyConnectivity(ctx); err != nil {
		_ = client.Close(ctx)
		return nil, fmt.Errorf("graph connect: %w", err)
	}

	return client, nil
}
