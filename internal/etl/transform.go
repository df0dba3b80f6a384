package etl

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Mutation is one parameterized bulk write against the graph store. Query
// unwinds the $batch parameter and applies its template to every record, so
// one Mutation costs one round trip regardless of batch length.
type Mutation struct {
	Query string
	Batch []map[string]any
}

// RelKind is the relationship type a behavioral event is written as.
type RelKind string

const (
	RelViewed         RelKind = "VIEWED"
	RelClicked        RelKind = "CLICKED"
	RelAddedToCart    RelKind = "ADDED_TO_CART"
	RelInteractedWith RelKind = "INTERACTED_WITH"
)

// relKindByEventType is the closed event-type mapping. Anything outside it
// falls back to INTERACTED_WITH so no event row is ever dropped.
var relKindByEventType = map[string]RelKind{
	"VIEW":        RelViewed,
	"CLICK":       RelClicked,
	"ADD_TO_CART": RelAddedToCart,
}

// KindForEventType maps a raw event_type value to its relationship kind,
// case-insensitively.
func KindForEventType(eventType string) RelKind {
	if kind, ok := relKindByEventType[strings.ToUpper(strings.TrimSpace(eventType))]; ok {
		return kind
	}
	return RelInteractedWith
}

const (
	createCategoriesQuery = `
UNWIND $batch AS row
CREATE (c:Category {id: row.id, name: row.name})`

	createProductsQuery = `
UNWIND $batch AS row
CREATE (p:Product {id: row.id, name: row.name, price: row.price})
WITH p, row
MATCH (c:Category {id: row.category_id})
CREATE (p)-[:IN_CATEGORY]->(c)`

	createCustomersQuery = `
UNWIND $batch AS row
CREATE (c:Customer {id: row.id, name: row.name, join_date: date(row.join_date)})`

	createOrdersQuery = `
UNWIND $batch AS row
CREATE (o:Order {id: row.id, ts: datetime(row.ts)})
WITH o, row
MATCH (c:Customer {id: row.customer_id})
CREATE (c)-[:PLACED]->(o)`

	createOrderItemsQuery = `
UNWIND $batch AS row
MATCH (o:Order {id: row.order_id})
MATCH (p:Product {id: row.product_id})
CREATE (o)-[:CONTAINS {quantity: row.quantity}]->(p)`

	// The relationship type cannot be a query parameter, so the event query is
	// instantiated per kind. Kinds come from the closed RelKind set only.
	createEventsQueryFormat = `
UNWIND $batch AS row
MATCH (c:Customer {id: row.customer_id})
MATCH (p:Product {id: row.product_id})
CREATE (c)-[:%s {event_id: row.event_id, ts: datetime(row.ts)}]->(p)`
)

// EventQueryForKind returns the bulk event-edge query for one relationship kind.
func EventQueryForKind(kind RelKind) string {
	return fmt.Sprintf(createEventsQueryFormat, kind)
}

// CategoryMutation shapes one chunk of categories rows into a bulk node write.
func CategoryMutation(rows []Row) Mutation {
	batch := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		batch = append(batch, map[string]any{
			"id":   row["id"],
			"name": row["name"],
		})
	}
	return Mutation{Query: createCategoriesQuery, Batch: batch}
}

// ProductMutation shapes one chunk of products rows into a bulk node write
// plus the IN_CATEGORY edge resolved from the category_id foreign key.
func ProductMutation(rows []Row) Mutation {
	batch := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		batch = append(batch, map[string]any{
			"id":          row["id"],
			"name":        row["name"],
			"price":       row["price"],
			"category_id": row["category_id"],
		})
	}
	return Mutation{Query: createProductsQuery, Batch: batch}
}

// CustomerMutation shapes one chunk of customers rows. join_date is reduced
// to a plain ISO calendar date before it reaches the graph store.
func CustomerMutation(rows []Row) Mutation {
	batch := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		batch = append(batch, map[string]any{
			"id":        row["id"],
			"name":      row["name"],
			"join_date": NormalizeDate(row["join_date"]),
		})
	}
	return Mutation{Query: createCustomersQuery, Batch: batch}
}

// OrderMutation shapes one chunk of orders rows plus the PLACED edge resolved
// from the customer_id foreign key. ts is normalized to UTC with a Z suffix.
func OrderMutation(rows []Row) Mutation {
	batch := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		batch = append(batch, map[string]any{
			"id":          row["id"],
			"ts":          NormalizeTimestamp(row["ts"]),
			"customer_id": row["customer_id"],
		})
	}
	return Mutation{Query: createOrdersQuery, Batch: batch}
}

// OrderItemMutation shapes one chunk of order_items rows into CONTAINS edges.
// A row whose order or product id matches no node creates no edge.
func OrderItemMutation(rows []Row) Mutation {
	batch := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		batch = append(batch, map[string]any{
			"order_id":   row["order_id"],
			"product_id": row["product_id"],
			"quantity":   row["quantity"],
		})
	}
	return Mutation{Query: createOrderItemsQuery, Batch: batch}
}

// EventMutations shapes one chunk of events rows into edge writes, one
// Mutation per relationship kind present in the chunk. The kind is selected
// per row at transform time; rows keep their input order within each kind.
func EventMutations(rows []Row) []Mutation {
	byKind := make(map[RelKind][]map[string]any)
	for _, row := range rows {
		kind := KindForEventType(stringOf(row["event_type"]))
		byKind[kind] = append(byKind[kind], map[string]any{
			"customer_id": row["customer_id"],
			"product_id":  row["product_id"],
			"event_id":    row["id"],
			"ts":          NormalizeTimestamp(row["ts"]),
		})
	}

	kinds := make([]RelKind, 0, len(byKind))
	for kind := range byKind {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	muts := make([]Mutation, 0, len(kinds))
	for _, kind := range kinds {
		muts = append(muts, Mutation{
			Query: EventQueryForKind(kind),
			Batch: byKind[kind],
		})
	}
	return muts
}

// naiveTimestampLayouts cover source timestamps carrying no explicit offset.
// Such values denote UTC instants.
var naiveTimestampLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// NormalizeTimestamp renders a zoned instant as an ISO-8601 string with an
// explicit Z designator, regardless of how the source represented the offset.
func NormalizeTimestamp(v any) string {
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	case string:
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed.UTC().Format(time.RFC3339)
		}
		for _, layout := range naiveTimestampLayouts {
			if parsed, err := time.ParseInLocation(layout, t, time.UTC); err == nil {
				return parsed.Format(time.RFC3339)
			}
		}
		return t
	default:
		return stringOf(v)
	}
}

// NormalizeDate renders a calendar date as a plain ISO date string with no
// time component.
func NormalizeDate(v any) string {
	switch t := v.(type) {
	case time.Time:
		return t.Format("2006-01-02")
	case string:
		if len(t) >= 10 {
			if parsed, err := time.Parse("2006-01-02", t[:10]); err == nil {
				return parsed.Format("2006-01-02")
			}
		}
		return t
	default:
		return stringOf(v)
	}
}

func stringOf(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
