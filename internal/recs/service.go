package recs

import (
	"context"
	"fmt"

	"github.com/shopgraph/shop-graph-backend/internal/cache"
)

// Querier is the read surface of the graph store. Implemented by
// graphdb.Client; tests substitute a stub.
type Querier interface {
	Query(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)
}

// Limit bounds for the recommendation endpoints.
const (
	DefaultLimit = 5
	MaxLimit     = 20
)

// ClampLimit forces a requested result size into [1, MaxLimit], substituting
// DefaultLimit for anything non-positive.
func ClampLimit(limit int) int {
	if limit < 1 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

type Recommendation struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Price       float64 `json:"price"`
	Category    string  `json:"category,omitempty"`
	Score       int64   `json:"score"`
}

type NodeStats struct {
	Customers  int64 `json:"customers"`
	Products   int64 `json:"products"`
	Orders     int64 `json:"orders"`
	Categories int64 `json:"categories"`
	Total      int64 `json:"total"`
}

type RelationshipStats struct {
	Total int64 `json:"total"`
}

type Stats struct {
	Nodes         NodeStats         `json:"nodes"`
	Relationships RelationshipStats `json:"relationships"`
}

type CustomerSummary struct {
	CustomerID string `json:"customer_id"`
	Name       string `json:"name"`
	JoinDate   string `json:"join_date"`
	OrderCount int64  `json:"order_count"`
}

type ProductSummary struct {
	ProductID  string  `json:"product_id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Category   string  `json:"category"`
	OrderCount int64   `json:"order_count"`
}

// Service issues the fixed graph-analytics read queries. It owns no state
// beyond its store handle and optional cache.
type Service struct {
	graph Querier
	cache *cache.Cache
}

func NewService(graph Querier, c *cache.Cache) *Service {
	return &Service{graph: graph, cache: c}
}

const collaborativeQuery = `
MATCH (target:Customer {id: $customer_id})-[:PLACED]->(:Order)-[:CONTAINS]->(p:Product)
WITH target, collect(p) AS targetProducts

MATCH (other:Customer)-[:PLACED]->(:Order)-[:CONTAINS]->(p:Product)
WHERE other <> target AND p IN targetProducts
WITH target, other, targetProducts, count(p) AS commonProducts
ORDER BY commonProducts DESC
LIMIT 10

MATCH (other)-[:PLACED]->(:Order)-[:CONTAINS]->(rec:Product)
WHERE NOT rec IN targetProducts
WITH rec, count(DISTINCT other) AS score
ORDER BY score DESC
LIMIT $limit

RETURN rec.id AS product_id, rec.name AS product_name, rec.price AS price, score`

// Collaborative recommends products bought by customers with overlapping
// purchase history, excluding what the target already bought.
func (s *Service) Collaborative(ctx context.Context, customerID string, limit int) ([]Recommendation, error) {
	limit = ClampLimit(limit)
	key := fmt.Sprintf("recs:collaborative:%s:%d", customerID, limit)

	var cached []Recommendation
	if s.cache.GetJSON(ctx, key, &cached) {
		return cached, nil
	}

	rows, err := s.graph.Query(ctx, collaborativeQuery, map[string]any{
		"customer_id": customerID,
		"limit":       limit,
	})
	if err != nil {
		return nil, err
	}

	out := recommendationsFrom(rows)
	s.cache.SetJSON(ctx, key, out)
	return out, nil
}

const similarQuery = `
MATCH (p:Product {id: $product_id})<-[:CONTAINS]-(:Order)-[:CONTAINS]->(rec:Product)
WHERE rec <> p
WITH rec, count(*) AS co_occurrence
ORDER BY co_occurrence DESC
LIMIT $limit

MATCH (rec)-[:IN_CATEGORY]->(cat:Category)
RETURN rec.id AS product_id, rec.name AS product_name,
       rec.price AS price, cat.name AS category, co_occurrence AS score`

// Similar recommends products that co-occur with the target in orders.
func (s *Service) Similar(ctx context.Context, productID string, limit int) ([]Recommendation, error) {
	limit = ClampLimit(limit)
	key := fmt.Sprintf("recs:similar:%s:%d", productID, limit)

	var cached []Recommendation
	if s.cache.GetJSON(ctx, key, &cached) {
		return cached, nil
	}

	rows, err := s.graph.Query(ctx, similarQuery, map[string]any{
		"product_id": productID,
		"limit":      limit,
	})
	if err != nil {
		return nil, err
	}

	out := recommendationsFrom(rows)
	s.cache.SetJSON(ctx, key, out)
	return out, nil
}

const categoryQuery = `
MATCH (cat:Category {id: $category_id})<-[:IN_CATEGORY]-(p:Product)
OPTIONAL MATCH (p)<-[:CONTAINS]-(o:Order)
WITH p, count(DISTINCT o) AS order_count
ORDER BY order_count DESC
LIMIT $limit

RETURN p.id AS product_id, p.name AS product_name,
       p.price AS price, order_count AS score`

// Category ranks a category's products by order frequency.
func (s *Service) Category(ctx context.Context, categoryID string, limit int) ([]Recommendation, error) {
	limit = ClampLimit(limit)
	key := fmt.Sprintf("recs:category:%s:%d", categoryID, limit)

	var cached []Recommendation
	if s.cache.GetJSON(ctx, key, &cached) {
		return cached, nil
	}

	rows, err := s.graph.Query(ctx, categoryQuery, map[string]any{
		"category_id": categoryID,
		"limit":       limit,
	})
	if err != nil {
		return nil, err
	}

	out := recommendationsFrom(rows)
	s.cache.SetJSON(ctx, key, out)
	return out, nil
}

const trendingQuery = `
MATCH (c:Customer)-[r]->(p:Product)
WHERE type(r) IN ['VIEWED', 'CLICKED', 'ADDED_TO_CART']
WITH p, count(r) AS interaction_count
ORDER BY interaction_count DESC
LIMIT $limit

MATCH (p)-[:IN_CATEGORY]->(cat:Category)
RETURN p.id AS product_id, p.name AS product_name,
       p.price AS price, cat.name AS category, interaction_count AS score`

// Trending ranks products by behavioral-event interaction counts.
func (s *Service) Trending(ctx context.Context, limit int) ([]Recommendation, error) {
	limit = ClampLimit(limit)
	key := fmt.Sprintf("recs:trending:%d", limit)

	var cached []Recommendation
	if s.cache.GetJSON(ctx, key, &cached) {
		return cached, nil
	}

	rows, err := s.graph.Query(ctx, trendingQuery, map[string]any{"limit": limit})
	if err != nil {
		return nil, err
	}

	out := recommendationsFrom(rows)
	s.cache.SetJSON(ctx, key, out)
	return out, nil
}

var statsQueries = []struct {
	query string
	field func(*Stats) *int64
}{
	{`MATCH (c:Customer) RETURN count(c) AS count`, func(s *Stats) *int64 { return &s.Nodes.Customers }},
	{`MATCH (p:Product) RETURN count(p) AS count`, func(s *Stats) *int64 { return &s.Nodes.Products }},
	{`MATCH (o:Order) RETURN count(o) AS count`, func(s *Stats) *int64 { return &s.Nodes.Orders }},
	{`MATCH (cat:Category) RETURN count(cat) AS count`, func(s *Stats) *int64 { return &s.Nodes.Categories }},
	{`MATCH ()-[r]->() RETURN count(r) AS count`, func(s *Stats) *int64 { return &s.Relationships.Total }},
}

// Stats reports node counts by label and the total relationship count.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	for _, sq := range statsQueries {
		rows, err := s.graph.Query(ctx, sq.query, nil)
		if err != nil {
			return Stats{}, err
		}
		if len(rows) > 0 {
			*sq.field(&stats) = asInt64(rows[0]["count"])
		}
	}
	stats.Nodes.Total = stats.Nodes.Customers + stats.Nodes.Products + stats.Nodes.Orders + stats.Nodes.Categories
	return stats, nil
}

const customersQuery = `
MATCH (c:Customer)
OPTIONAL MATCH (c)-[:PLACED]->(o:Order)
WITH c, count(DISTINCT o) AS order_count
RETURN c.id AS customer_id, c.name AS name,
       toString(c.join_date) AS join_date, order_count
ORDER BY c.name`

// Customers lists every customer with their order counts.
func (s *Service) Customers(ctx context.Context) ([]CustomerSummary, error) {
	rows, err := s.graph.Query(ctx, customersQuery, nil)
	if err != nil {
		return nil, err
	}

	out := make([]CustomerSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, CustomerSummary{
			CustomerID: asString(row["customer_id"]),
			Name:       asString(row["name"]),
			JoinDate:   asString(row["join_date"]),
			OrderCount: asInt64(row["order_count"]),
		})
	}
	return out, nil
}

const productsQuery = `
MATCH (p:Product)-[:IN_CATEGORY]->(cat:Category)
OPTIONAL MATCH (p)<-[:CONTAINS]-(o:Order)
WITH p, cat, count(DISTINCT o) AS order_count
RETURN p.id AS product_id, p.name AS name,
       p.price AS price, cat.name AS category, order_count
ORDER BY p.name`

// Products lists every product with category and order counts.
func (s *Service) Products(ctx context.Context) ([]ProductSummary, error) {
	rows, err := s.graph.Query(ctx, productsQuery, nil)
	if err != nil {
		return nil, err
	}

	out := make([]ProductSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, ProductSummary{
			ProductID:  asString(row["product_id"]),
			Name:       asString(row["name"]),
			Price:      asFloat64(row["price"]),
			Category:   asString(row["category"]),
			OrderCount: asInt64(row["order_count"]),
		})
	}
	return out, nil
}

func recommendationsFrom(rows []map[string]any) []Recommendation {
	out := make([]Recommendation, 0, len(rows))
	for _, row := range rows {
		rec := Recommendation{
			ProductID:   asString(row["product_id"]),
			ProductName: asString(row["product_name"]),
			Price:       asFloat64(row["price"]),
			Score:       asInt64(row["score"]),
		}
		if category, ok := row["category"]; ok {
			rec.Category = asString(category)
		}
		out = append(out, rec)
	}
	return out
}
