package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopgraph/shop-graph-backend/internal/etl"
)

// allowedTables restricts extraction to the fixed six-table contract. Table
// names are interpolated into SQL, so nothing outside this set is accepted.
var allowedTables = func() map[string]bool {
	m := make(map[string]bool, len(etl.SourceTables))
	for _, name := range etl.SourceTables {
		m[name] = true
	}
	return m
}()

// Extractor reads source tables fully into memory. The dataset is batch
// sized; a future scale-up would need cursor-based streaming instead.
type Extractor struct {
	pool *pgxpool.Pool
}

func NewExtractor(pool *pgxpool.Pool) *Extractor {
	return &Extractor{pool: pool}
}

// Table returns the complete row set of one source table with column names
// preserved. Row order is whatever the store returns; nothing downstream
// relies on it.
func (e *Extractor) Table(ctx context.Context, name string) (etl.Table, error) {
	if !allowedTables[name] {
		return etl.Table{}, fmt.Errorf("unknown source table %q", name)
	}

	rows, err := e.pool.Query(ctx, "SELECT * FROM "+name)
	if err != nil {
		return etl.Table{}, fmt.Errorf("query %s: %w", name, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, field := range fields {
		columns[i] = field.Name
	}

	var out []etl.Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return etl.Table{}, fmt.Errorf("read %s row: %w", name, err)
		}
		row := make(etl.Row, len(columns))
		for i, col := range columns {
			row[col] = plainValue(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return etl.Table{}, fmt.Errorf("scan %s: %w", name, err)
	}

	return etl.Table{Name: name, Rows: out}, nil
}

// plainValue decodes driver-specific values into plain Go types so the
// transformer never sees pgx internals. Fixed-point numerics become float64;
// the precision loss at this boundary is accepted.
func plainValue(v any) any {
	switch t := v.(type) {
	case pgtype.Numeric:
		f, err := t.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case [16]byte:
		return uuid.UUID(t).String()
	default:
		return v
	}
}
