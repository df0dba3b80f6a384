package etl

import (
	"context"
	"fmt"
)

// Graph is the write/read surface of the graph store the loader needs. The
// concrete implementation lives in internal/storage/graphdb; tests substitute
// an in-memory double.
type Graph interface {
	Run(ctx context.Context, query string, params map[string]any) error
	Query(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)
}

const resetQuery = `MATCH (n) DETACH DELETE n`

// Loader applies transformed payloads against the graph store. It is agnostic
// to entity and relationship kinds: every payload arrives as a uniform
// Mutation and ordering is the orchestrator's responsibility.
type Loader struct {
	graph Graph
}

func NewLoader(graph Graph) *Loader {
	return &Loader{graph: graph}
}

// Bootstrap executes the idempotent constraint/index script statement by
// statement.
func (l *Loader) Bootstrap(ctx context.Context, script string) error {
	for _, statement := range SplitStatements(script) {
		if err := l.graph.Run(ctx, statement, nil); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}

// Reset detach-deletes every node and relationship, returning the graph to
// empty so the subsequent load is a total replacement.
func (l *Loader) Reset(ctx context.Context) error {
	if err := l.graph.Run(ctx, resetQuery, nil); err != nil {
		return fmt.Errorf("graph reset failed: %w", err)
	}
	return nil
}

// Apply executes mutations in order. Empty batches are skipped without a
// round trip.
func (l *Loader) Apply(ctx context.Context, muts ...Mutation) error {
	for _, mut := range muts {
		if len(mut.Batch) == 0 {
			continue
		}
		if err := l.graph.Run(ctx, mut.Query, map[string]any{"batch": mut.Batch}); err != nil {
			return err
		}
	}
	return nil
}

// Counts holds the post-load verification numbers. They are reported, not
// asserted against expected values.
type Counts struct {
	Categories    int64
	Products      int64
	Customers     int64
	Orders        int64
	Relationships int64
}

var countQueries = []struct {
	query string
	field func(*Counts) *int64
}{
	{`MATCH (c:Category) RETURN count(c) AS count`, func(c *Counts) *int64 { return &c.Categories }},
	{`MATCH (p:Product) RETURN count(p) AS count`, func(c *Counts) *int64 { return &c.Products }},
	{`MATCH (c:Customer) RETURN count(c) AS count`, func(c *Counts) *int64 { return &c.Customers }},
	{`MATCH (o:Order) RETURN count(o) AS count`, func(c *Counts) *int64 { return &c.Orders }},
	{`MATCH ()-[r]->() RETURN count(r) AS count`, func(c *Counts) *int64 { return &c.Relationships }},
}

// Counts queries node counts per label and the total relationship count.
func (l *Loader) Counts(ctx context.Context) (Counts, error) {
	var counts Counts
	for _, cq := range countQueries {
		rows, err := l.graph.Query(ctx, cq.query, nil)
		if err != nil {
			return Counts{}, fmt.Errorf("count query failed: %w", err)
		}
		if len(rows) == 0 {
			continue
		}
		*cq.field(&counts) = asInt64(rows[0]["count"])
	}
	return counts, nil
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}
