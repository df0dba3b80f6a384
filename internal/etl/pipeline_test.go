package etl

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	tables map[string][]Row
}

func (s *fakeSource) Table(_ context.Context, name string) (Table, error) {
	rows, ok := s.tables[name]
	if !ok {
		return Table{}, fmt.Errorf("relation %q does not exist", name)
	}
	return Table{Name: name, Rows: rows}, nil
}

// fakeGraph models the store-side semantics the pipeline relies on: CREATE
// always writes the node, a failed MATCH silently drops the edge for that
// row, and DETACH DELETE empties everything.
type fakeGraph struct {
	failQuery string

	categories map[any]bool
	products   map[any]bool
	customers  map[any]bool
	orders     map[any]bool
	inCategory int
	placed     int
	contains   int
	events     map[RelKind]int
}

func newFakeGraph() *fakeGraph {
	return &fakeGraph{
		categories: make(map[any]bool),
		products:   make(map[any]bool),
		customers:  make(map[any]bool),
		orders:     make(map[any]bool),
		events:     make(map[RelKind]int),
	}
}

func (g *fakeGraph) relationships() int {
	total := g.inCategory + g.placed + g.contains
	for _, n := range g.events {
		total += n
	}
	return total
}

func (g *fakeGraph) Run(_ context.Context, query string, params map[string]any) error {
	if g.failQuery != "" && query == g.failQuery {
		return errors.New("write failed")
	}

	batch, _ := params["batch"].([]map[string]any)

	switch {
	case strings.HasPrefix(query, "CREATE CONSTRAINT"), strings.HasPrefix(query, "CREATE INDEX"):
		return nil
	case query == resetQuery:
		fail := g.failQuery
		*g = *newFakeGraph()
		g.failQuery = fail
		return nil
	case query == createCategoriesQuery:
		for _, row := range batch {
			g.categories[row["id"]] = true
		}
	case query == createProductsQuery:
		for _, row := range batch {
			g.products[row["id"]] = true
			if g.categories[row["category_id"]] {
				g.inCategory++
			}
		}
	case query == createCustomersQuery:
		for _, row := range batch {
			g.customers[row["id"]] = true
		}
	case query == createOrdersQuery:
		for _, row := range batch {
			g.orders[row["id"]] = true
			if g.customers[row["customer_id"]] {
				g.placed++
			}
		}
	case query == createOrderItemsQuery:
		for _, row := range batch {
			if g.orders[row["order_id"]] && g.products[row["product_id"]] {
				g.contains++
			}
		}
	default:
		for _, kind := range []RelKind{RelViewed, RelClicked, RelAddedToCart, RelInteractedWith} {
			if query != EventQueryForKind(kind) {
				continue
			}
			for _, row := range batch {
				if g.customers[row["customer_id"]] && g.products[row["product_id"]] {
					g.events[kind]++
				}
			}
			return nil
		}
		return fmt.Errorf("unexpected query: %s", query)
	}
	return nil
}

func (g *fakeGraph) Query(_ context.Context, query string, _ map[string]any) ([]map[string]any, error) {
	count := func(n int) []map[string]any {
		return []map[string]any{{"count": int64(n)}}
	}
	switch {
	case strings.Contains(query, "(c:Category)"):
		return count(len(g.categories)), nil
	case strings.Contains(query, "(p:Product)"):
		return count(len(g.products)), nil
	case strings.Contains(query, "(c:Customer)"):
		return count(len(g.customers)), nil
	case strings.Contains(query, "(o:Order)"):
		return count(len(g.orders)), nil
	case strings.Contains(query, "()-[r]->()"):
		return count(g.relationships()), nil
	}
	return nil, fmt.Errorf("unexpected query: %s", query)
}

// scenarioSource is the end-to-end dataset: 2 categories, 3 products (2 in
// category A, 1 in B), 2 customers, 2 orders of 1 product each, 1 view event.
func scenarioSource() *fakeSource {
	joined := time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)
	placed := time.Date(2024, 2, 10, 9, 30, 0, 0, time.UTC)
	return &fakeSource{tables: map[string][]Row{
		TableCategories: {
			{"id": "cat-a", "name": "Books"},
			{"id": "cat-b", "name": "Games"},
		},
		TableProducts: {
			{"id": "p1", "name": "Novel", "price": 12.5, "category_id": "cat-a"},
			{"id": "p2", "name": "Atlas", "price": 30.0, "category_id": "cat-a"},
			{"id": "p3", "name": "Chess", "price": 40.0, "category_id": "cat-b"},
		},
		TableCustomers: {
			{"id": "u1", "name": "Ada", "join_date": joined},
			{"id": "u2", "name": "Bob", "join_date": joined},
		},
		TableOrders: {
			{"id": "o1", "customer_id": "u1", "ts": placed},
			{"id": "o2", "customer_id": "u2", "ts": placed},
		},
		TableOrderItems: {
			{"order_id": "o1", "product_id": "p1", "quantity": int64(1)},
			{"order_id": "o2", "product_id": "p2", "quantity": int64(1)},
		},
		TableEvents: {
			{"id": "e1", "customer_id": "u1", "product_id": "p2", "event_type": "view", "ts": placed},
		},
	}}
}

func TestPipelineEndToEnd(t *testing.T) {
	graph := newFakeGraph()
	pipeline := &Pipeline{Source: scenarioSource(), Graph: graph, ChunkSize: 2}

	report, err := pipeline.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.NotEmpty(t, report.RunID)

	assert.Equal(t, int64(2), report.Counts.Categories)
	assert.Equal(t, int64(3), report.Counts.Products)
	assert.Equal(t, int64(2), report.Counts.Customers)
	assert.Equal(t, int64(2), report.Counts.Orders)
	assert.Equal(t, int64(8), report.Counts.Relationships)

	assert.Equal(t, 3, graph.inCategory)
	assert.Equal(t, 2, graph.placed)
	assert.Equal(t, 2, graph.contains)
	assert.Equal(t, 1, graph.events[RelViewed])

	assert.Equal(t, 3, report.Extracted[TableProducts])
	assert.Equal(t, 1, report.Extracted[TableEvents])
}

func TestPipelineIdempotent(t *testing.T) {
	graph := newFakeGraph()
	pipeline := &Pipeline{Source: scenarioSource(), Graph: graph, ChunkSize: 2}

	first, err := pipeline.Run(context.Background())
	require.NoError(t, err)
	second, err := pipeline.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.Counts, second.Counts, "replay must produce the same end state")
	assert.Equal(t, int64(8), second.Counts.Relationships)
}

func TestPipelineReferentialGapSkipsEdge(t *testing.T) {
	src := scenarioSource()
	src.tables[TableOrderItems] = []Row{
		{"order_id": "o-missing", "product_id": "p1", "quantity": int64(2)},
	}

	graph := newFakeGraph()
	pipeline := &Pipeline{Source: src, Graph: graph, ChunkSize: 2}

	report, err := pipeline.Run(context.Background())
	require.NoError(t, err, "a dangling foreign key must not abort the run")
	assert.Equal(t, 0, graph.contains)
	assert.Equal(t, int64(6), report.Counts.Relationships)
}

func TestPipelineAbortsOnLoadFailure(t *testing.T) {
	graph := newFakeGraph()
	graph.failQuery = createOrdersQuery
	pipeline := &Pipeline{Source: scenarioSource(), Graph: graph, ChunkSize: 2}

	_, err := pipeline.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), string(StepLoadOrders))
	assert.Equal(t, 0, graph.contains, "downstream steps never run after a failure")
	assert.Empty(t, graph.events)
}

func TestPipelineAbortsOnExtractionFailure(t *testing.T) {
	src := scenarioSource()
	delete(src.tables, TableOrders)

	pipeline := &Pipeline{Source: src, Graph: newFakeGraph(), ChunkSize: 2}
	_, err := pipeline.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extract orders")
}

func TestPipelineWaitReady(t *testing.T) {
	waited := false
	pipeline := &Pipeline{
		Source:    scenarioSource(),
		Graph:     newFakeGraph(),
		ChunkSize: 2,
		WaitReady: func(context.Context) error {
			waited = true
			return nil
		},
	}
	_, err := pipeline.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, waited)

	pipeline.WaitReady = func(context.Context) error { return errors.New("still down") }
	_, err = pipeline.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), string(StepWaitDependencies))
}
