package etl

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// Step names the states of the pipeline's linear run. There is no branching
// or retry within a run; any failure moves straight to StepFailed.
type Step string

const (
	StepWaitDependencies Step = "WAIT_DEPENDENCIES"
	StepSchemaSetup      Step = "SCHEMA_SETUP"
	StepReset            Step = "RESET"
	StepLoadCategories   Step = "LOAD_CATEGORIES"
	StepLoadProducts     Step = "LOAD_PRODUCTS"
	StepLoadCustomers    Step = "LOAD_CUSTOMERS"
	StepLoadOrders       Step = "LOAD_ORDERS"
	StepLoadOrderItems   Step = "LOAD_ORDER_ITEMS"
	StepLoadEvents       Step = "LOAD_EVENTS"
	StepVerify           Step = "VERIFY"
	StepDone             Step = "DONE"
	StepFailed           Step = "FAILED"
)

// Report summarizes one completed run.
type Report struct {
	RunID     string
	Extracted map[string]int
	Counts    Counts
	Duration  time.Duration
}

// Pipeline sequences schema setup, destructive reset, per-entity load, and
// verification. One run is fully sequential; callers own the two store
// connections and release them whatever Run returns.
type Pipeline struct {
	Source    Source
	Graph     Graph
	ChunkSize int

	// WaitReady blocks until both backing stores are reachable. Nil skips the
	// readiness phase (tests, or callers that already probed).
	WaitReady func(ctx context.Context) error
}

// entityLoads maps each batched entity to its transform, in hard dependency
// order: categories before products, customers before orders, products and
// orders before order items.
var entityLoads = []struct {
	step      Step
	table     string
	transform func([]Row) Mutation
}{
	{StepLoadCategories, TableCategories, CategoryMutation},
	{StepLoadProducts, TableProducts, ProductMutation},
	{StepLoadCustomers, TableCustomers, CustomerMutation},
	{StepLoadOrders, TableOrders, OrderMutation},
	{StepLoadOrderItems, TableOrderItems, OrderItemMutation},
}

// Run executes the full extract-transform-load sequence once. A failed run
// leaves the graph genuinely incomplete (the reset already cleared prior
// state) and must be retried from the top.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	started := time.Now()
	report := &Report{
		RunID:     uuid.New().String(),
		Extracted: make(map[string]int, len(SourceTables)),
	}

	chunkSize := p.ChunkSize
	if chunkSize < 1 {
		chunkSize = DefaultChunkSize
	}

	if p.WaitReady != nil {
		p.logStep(report, StepWaitDependencies)
		if err := p.WaitReady(ctx); err != nil {
			return nil, p.fail(report, StepWaitDependencies, err)
		}
	}

	loader := NewLoader(p.Graph)

	p.logStep(report, StepSchemaSetup)
	if err := loader.Bootstrap(ctx, SchemaScript); err != nil {
		return nil, p.fail(report, StepSchemaSetup, err)
	}

	p.logStep(report, StepReset)
	if err := loader.Reset(ctx); err != nil {
		return nil, p.fail(report, StepReset, err)
	}

	// Extract every source table up front. Any extraction failure is fatal
	// before the first node is written.
	tables := make(map[string]Table, len(SourceTables))
	for _, name := range SourceTables {
		table, err := p.Source.Table(ctx, name)
		if err != nil {
			return nil, p.fail(report, StepReset, fmt.Errorf("extract %s: %w", name, err))
		}
		tables[name] = table
		report.Extracted[name] = len(table.Rows)
		log.Printf("[info] run_id=%s extracted table=%s rows=%d", report.RunID, name, len(table.Rows))
	}

	for _, load := range entityLoads {
		p.logStep(report, load.step)
		for _, group := range Chunk(tables[load.table].Rows, chunkSize) {
			if err := loader.Apply(ctx, load.transform(group)); err != nil {
				return nil, p.fail(report, load.step, err)
			}
		}
	}

	p.logStep(report, StepLoadEvents)
	for _, group := range Chunk(tables[TableEvents].Rows, chunkSize) {
		if err := loader.Apply(ctx, EventMutations(group)...); err != nil {
			return nil, p.fail(report, StepLoadEvents, err)
		}
	}

	p.logStep(report, StepVerify)
	counts, err := loader.Counts(ctx)
	if err != nil {
		return nil, p.fail(report, StepVerify, err)
	}
	report.Counts = counts
	report.Duration = time.Since(started)

	p.logStep(report, StepDone)
	log.Printf("[info] run_id=%s done categories=%d products=%d customers=%d orders=%d relationships=%d duration=%s",
		report.RunID, counts.Categories, counts.Products, counts.Customers, counts.Orders,
		counts.Relationships, report.Duration.Round(time.Millisecond))
	return report, nil
}

func (p *Pipeline) logStep(report *Report, step Step) {
	log.Printf("[info] run_id=%s step=%s", report.RunID, step)
}

func (p *Pipeline) fail(report *Report, step Step, err error) error {
	log.Printf("[error] run_id=%s step=%s -> %s error=%v", report.RunID, step, StepFailed, err)
	return fmt.Errorf("pipeline step %s: %w", step, err)
}
