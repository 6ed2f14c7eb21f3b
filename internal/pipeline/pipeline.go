// Package pipeline implements the industry fluctuation analytics as a
// sequence of stateless transformations over immutable in-memory
// datasets: reconcile the order and customer feeds, enrich orders with
// customer industries, aggregate revenue over two time windows anchored
// on the latest observed timestamp, and rank industries by fluctuation.
//
// Every stage takes explicit input datasets and returns a new output
// dataset; there is no shared session and no in-place mutation. A stage
// error aborts the whole run and no partial report is produced.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"industry-pulse/internal/models"
	"industry-pulse/internal/util"
)

// Default analytics parameters, matching the source feeds' cadence
const (
	DefaultShortWindow = 24 * time.Hour
	DefaultLongWindow  = 30 * 24 * time.Hour
	DefaultTopN        = 3
)

// Options configures one analytics pipeline
type Options struct {
	ShortWindow time.Duration
	LongWindow  time.Duration
	TopN        int
	TieBreak    TieBreak
	Ranking     RankingMode
}

// Inputs are the three source datasets of a run. Historical and recent
// are two captures of the same order stream and may overlap by
// order_id.
type Inputs struct {
	Historical []models.Order
	Recent     []models.Order
	Customers  []models.Customer
}

// Pipeline runs the full analytics sequence over in-memory datasets
type Pipeline struct {
	opts   Options
	logger *zap.Logger
}

// New creates a pipeline, filling unset options with defaults
func New(opts Options) *Pipeline {
	if opts.ShortWindow <= 0 {
		opts.ShortWindow = DefaultShortWindow
	}
	if opts.LongWindow <= 0 {
		opts.LongWindow = DefaultLongWindow
	}
	if opts.TopN == 0 {
		opts.TopN = DefaultTopN
	}
	if opts.TieBreak == "" {
		opts.TieBreak = FirstWins
	}
	if opts.Ranking == "" {
		opts.Ranking = SignedRanking
	}
	return &Pipeline{
		opts:   opts,
		logger: util.NamedLogger("pipeline"),
	}
}

// Run executes all stages and produces the fluctuation report. Empty
// inputs are not an error: a run over no orders yields a report with no
// rows. A schema violation in any input aborts the run.
func (p *Pipeline) Run(ctx context.Context, in Inputs) (*models.FluctuationReport, error) {
	ctx, span := util.StartSpan(ctx, "Pipeline.Run")
	defer span.End()

	util.PipelineRunsTotal.Inc()
	start := time.Now()
	defer func() {
		util.PipelineRunDuration.Observe(time.Since(start).Seconds())
	}()

	report := &models.FluctuationReport{
		RunID:       uuid.New().String(),
		GeneratedAt: time.Now().UTC(),
	}

	orders, orderDups, err := p.reconcileOrders(ctx, in.Historical, in.Recent)
	if err != nil {
		util.PipelineRunsFailedTotal.WithLabelValues("schema_violation").Inc()
		return nil, fmt.Errorf("reconcile orders: %w", err)
	}
	customers, customerDups, err := p.reconcileCustomers(ctx, in.Customers)
	if err != nil {
		util.PipelineRunsFailedTotal.WithLabelValues("schema_violation").Inc()
		return nil, fmt.Errorf("reconcile customers: %w", err)
	}
	report.DuplicateOrders = orderDups

	exploded, joinMisses := p.enrich(ctx, orders, customers)
	report.DroppedOrders = joinMisses

	p.logger.Info("Datasets reconciled and enriched",
		zap.String("run_id", report.RunID),
		zap.Int("orders", len(orders)),
		zap.Int("customers", len(customers)),
		zap.Int("duplicate_orders", orderDups),
		zap.Int("duplicate_customers", customerDups),
		zap.Int("join_misses", joinMisses),
		zap.Int("exploded_rows", len(exploded)))

	ref, ok := ReferenceInstant(exploded)
	if !ok {
		p.logger.Warn("No enriched rows, producing empty report",
			zap.String("run_id", report.RunID))
		report.Rows = []models.IndustryFluctuation{}
		util.ReportRows.Set(0)
		return report, nil
	}
	report.ReferenceInstant = ref

	report.Rows = p.aggregateAndRank(ctx, exploded, ref)
	util.ReportRows.Set(float64(len(report.Rows)))

	p.logger.Info("Fluctuation report ready",
		zap.String("run_id", report.RunID),
		zap.Time("reference_instant", ref),
		zap.Int("rows", len(report.Rows)))
	return report, nil
}

func (p *Pipeline) reconcileOrders(ctx context.Context, historical, recent []models.Order) ([]models.Order, int, error) {
	_, span := util.StartSpan(ctx, "Pipeline.ReconcileOrders")
	defer span.End()
	defer observeStage("reconcile_orders")()

	orders, dropped, err := ReconcileOrders(historical, recent, p.opts.TieBreak)
	if err != nil {
		return nil, 0, err
	}
	util.SpanRowCount(span, "orders.deduplicated", len(orders))
	util.DuplicateRowsDropped.WithLabelValues("orders").Add(float64(dropped))
	return orders, dropped, nil
}

func (p *Pipeline) reconcileCustomers(ctx context.Context, customers []models.Customer) ([]models.Customer, int, error) {
	_, span := util.StartSpan(ctx, "Pipeline.ReconcileCustomers")
	defer span.End()
	defer observeStage("reconcile_customers")()

	out, dropped, err := ReconcileCustomers(customers, p.opts.TieBreak)
	if err != nil {
		return nil, 0, err
	}
	util.DuplicateRowsDropped.WithLabelValues("customers").Add(float64(dropped))
	return out, dropped, nil
}

func (p *Pipeline) enrich(ctx context.Context, orders []models.Order, customers []models.Customer) ([]models.OrderWithIndustry, int) {
	_, span := util.StartSpan(ctx, "Pipeline.Enrich")
	defer span.End()
	defer observeStage("enrich")()

	joined, joinMisses := JoinCustomers(orders, customers)
	util.JoinMissesTotal.Add(float64(joinMisses))

	exploded := ExplodeIndustries(joined)
	util.SpanRowCount(span, "rows.exploded", len(exploded))
	util.ExplodedRowsTotal.Add(float64(len(exploded)))
	return exploded, joinMisses
}

func (p *Pipeline) aggregateAndRank(ctx context.Context, exploded []models.OrderWithIndustry, ref time.Time) []models.IndustryFluctuation {
	_, span := util.StartSpan(ctx, "Pipeline.AggregateAndRank")
	defer span.End()
	defer observeStage("aggregate_and_rank")()

	rev := AggregateRevenue(exploded, ref, p.opts.ShortWindow, p.opts.LongWindow)
	return RankFluctuations(rev, p.opts.Ranking, p.opts.TopN)
}

func observeStage(stage string) func() {
	start := time.Now()
	return func() {
		util.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}
