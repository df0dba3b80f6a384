package recs

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopgraph/shop-graph-backend/internal/cache"
)

type stubQuerier struct {
	rows    []map[string]any
	err     error
	queries []string
	params  []map[string]any
}

func (s *stubQuerier) Query(_ context.Context, query string, params map[string]any) ([]map[string]any, error) {
	s.queries = append(s.queries, query)
	s.params = append(s.params, params)
	if s.err != nil {
		return nil, s.err
	}
	return s.rows, nil
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, ClampLimit(0))
	assert.Equal(t, DefaultLimit, ClampLimit(-3))
	assert.Equal(t, 1, ClampLimit(1))
	assert.Equal(t, 12, ClampLimit(12))
	assert.Equal(t, MaxLimit, ClampLimit(MaxLimit))
	assert.Equal(t, MaxLimit, ClampLimit(500))
}

func TestCollaborativeMapsRows(t *testing.T) {
	stub := &stubQuerier{rows: []map[string]any{
		{"product_id": "p9", "product_name": "Atlas", "price": 29.95, "score": int64(4)},
		{"product_id": "p2", "product_name": "Novel", "price": int64(12), "score": 2},
	}}
	svc := NewService(stub, nil)

	recs, err := svc.Collaborative(context.Background(), "u1", 0)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, Recommendation{ProductID: "p9", ProductName: "Atlas", Price: 29.95, Score: 4}, recs[0])
	assert.Equal(t, Recommendation{ProductID: "p2", ProductName: "Novel", Price: 12, Score: 2}, recs[1])

	require.Len(t, stub.params, 1)
	assert.Equal(t, "u1", stub.params[0]["customer_id"])
	assert.Equal(t, DefaultLimit, stub.params[0]["limit"])
}

func TestSimilarIncludesCategory(t *testing.T) {
	stub := &stubQuerier{rows: []map[string]any{
		{"product_id": "p3", "product_name": "Chess", "price": 40.0, "category": "Games", "score": int64(7)},
	}}
	svc := NewService(stub, nil)

	recs, err := svc.Similar(context.Background(), "p1", 3)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Games", recs[0].Category)
	assert.Equal(t, 3, stub.params[0]["limit"])
}

func TestTrendingCacheHitSkipsStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := cache.NewWithClient(client, time.Minute)
	t.Cleanup(func() { _ = c.Close() })

	stub := &stubQuerier{rows: []map[string]any{
		{"product_id": "p3", "product_name": "Chess", "price": 40.0, "category": "Games", "score": int64(9)},
	}}
	svc := NewService(stub, c)
	ctx := context.Background()

	first, err := svc.Trending(ctx, 5)
	require.NoError(t, err)
	second, err := svc.Trending(ctx, 5)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, stub.queries, 1, "second call must be served from cache")

	// A different limit is a different cache key.
	_, err = svc.Trending(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, stub.queries, 2)
}

func TestCategoryPropagatesStoreError(t *testing.T) {
	stub := &stubQuerier{err: errors.New("connection reset")}
	svc := NewService(stub, nil)

	_, err := svc.Category(context.Background(), "cat-a", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestStatsSumsNodeCounts(t *testing.T) {
	stub := &statsQuerier{counts: map[string]int64{
		"(c:Customer)":   2,
		"(p:Product)":    3,
		"(o:Order)":      2,
		"(cat:Category)": 2,
		"()-[r]->()":     8,
	}}
	svc := NewService(stub, nil)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Nodes.Customers)
	assert.Equal(t, int64(3), stats.Nodes.Products)
	assert.Equal(t, int64(9), stats.Nodes.Total)
	assert.Equal(t, int64(8), stats.Relationships.Total)
}

type statsQuerier struct {
	counts map[string]int64
}

func (s *statsQuerier) Query(_ context.Context, query string, _ map[string]any) ([]map[string]any, error) {
	for pattern, n := range s.counts {
		if strings.Contains(query, pattern) {
			return []map[string]any{{"count": n}}, nil
		}
	}
	return nil, nil
}

func TestCustomersAndProducts(t *testing.T) {
	stub := &stubQuerier{rows: []map[string]any{
		{"customer_id": "u1", "name": "Ada", "join_date": "2022-06-01", "order_count": int64(2)},
	}}
	svc := NewService(stub, nil)

	customers, err := svc.Customers(context.Background())
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, CustomerSummary{CustomerID: "u1", Name: "Ada", JoinDate: "2022-06-01", OrderCount: 2}, customers[0])

	stub.rows = []map[string]any{
		{"product_id": "p1", "name": "Novel", "price": 12.5, "category": "Books", "order_count": int64(1)},
	}
	products, err := svc.Products(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, ProductSummary{ProductID: "p1", Name: "Novel", Price: 12.5, Category: "Books", OrderCount: 1}, products[0])
}
