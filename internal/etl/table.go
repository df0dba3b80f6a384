package etl

import "context"

// Row is one relational record keyed by column name. Values are plain Go
// types (string, int64, float64, bool, time.Time) as decoded by the source.
type Row = map[string]any

// Table is a fully materialized result set for one source table.
type Table struct {
	Name string
	Rows []Row
}

// Source pulls complete tables out of the relational store.
type Source interface {
	Table(ctx context.Context, name string) (Table, error)
}

// Source table names. These are part of the contract with the relational
// schema and must match exactly.
const (
	TableCategories = "categories"
	TableProducts   = "products"
	TableCustomers  = "customers"
	TableOrders     = "orders"
	TableOrderItems = "order_items"
	TableEvents     = "events"
)

// SourceTables lists every table the pipeline extracts, in load order.
var SourceTables = []string{
	TableCategories,
	TableProducts,
	TableCustomers,
	TableOrders,
	TableOrderItems,
	TableEvents,
}
