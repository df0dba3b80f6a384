package graphdb

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/shopgraph/shop-graph-backend/config"
)

// Client wraps the official Neo4j driver behind the small Run/Query surface
// the loader and the read API need.
type Client struct {
	driver   neo4j.DriverWithContext
	database string
}

func New(cfg *config.Neo4jConfig) (*Client, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	return &Client{driver: driver, database: cfg.Database}, nil
}

// VerifyConnectivity checks that the graph store is reachable.
func (c *Client) VerifyConnectivity(ctx context.Context) error {
	return c.driver.VerifyConnectivity(ctx)
}

// Run executes a write statement and discards the result. ExecuteQuery
// manages session and transaction lifecycle.
func (c *Client) Run(ctx context.Context, query string, params map[string]any) error {
	_, err := neo4j.ExecuteQuery(
		ctx,
		c.driver,
		query,
		params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(c.database),
	)
	if err != nil {
		return fmt.Errorf("neo4j write: %w", err)
	}
	return nil
}

// Query executes a read statement and returns every record as a map keyed by
// its return aliases.
func (c *Client) Query(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	result, err := neo4j.ExecuteQuery(
		ctx,
		c.driver,
		query,
		params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(c.database),
	)
	if err != nil {
		return nil, fmt.Errorf("neo4j read: %w", err)
	}

	rows := make([]map[string]any, 0, len(result.Records))
	for _, record := range result.Records {
		rows = append(rows, record.AsMap())
	}
	return rows, nil
}

func (c *Client) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}
