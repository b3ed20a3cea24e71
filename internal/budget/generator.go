package budget

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"budget-advisor/internal/logging"
	"budget-advisor/internal/metrics"
	"budget-advisor/internal/models"
	"budget-advisor/internal/store"
)

const (
	MessageGenerated = "Budget plan generated successfully"
	MessageFallback  = "Budget plan generated successfully (fallback)"
)

// Request carries the submitted fields as raw JSON, whatever their shape.
type Request struct {
	UserID             int64
	Salary             json.RawMessage
	SpendingCategories json.RawMessage
	SavingOptions      json.RawMessage
	Notes              json.RawMessage
}

type Plan struct {
	Text     string
	Fallback bool
	// Record is nil when a fallback plan could not be saved.
	Record *models.BudgetRecord
}

func (p Plan) Message() string {
	if p.Fallback {
		return MessageFallback
	}
	return MessageGenerated
}

type Options struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	Now     func() time.Time
}

type Generator struct {
	provider Provider
	budgets  store.BudgetStore
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewGenerator(provider Provider, budgets store.BudgetStore, opts Options) *Generator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Generator{
		provider: provider,
		budgets:  budgets,
		logger:   logger.With("component", logging.ComponentBudget),
		metrics:  opts.Metrics,
		now:      now,
	}
}

// Generate only fails on validation; provider and storage failures yield a fallback plan.
func (g *Generator) Generate(ctx context.Context, req Request) (Plan, error) {
	in, err := ParseRequest(req)
	if err != nil {
		return Plan{}, err
	}

	text, err := g.callProvider(ctx, BuildPrompt(in))
	if err != nil {
		g.logger.WarnContext(ctx, "budget provider failed, using fallback plan", "user_id", in.UserID, "error", err)
		return g.fallback(ctx, in), nil
	}

	record, err := g.save(ctx, in, text)
	if err != nil {
		g.logger.ErrorContext(ctx, "save generated plan failed, using fallback plan", "user_id", in.UserID, "error", err)
		return g.fallback(ctx, in), nil
	}
	g.metrics.PlanReturned(metrics.OutcomeGenerated)
	return Plan{Text: text, Record: &record}, nil
}

func (g *Generator) History(ctx context.Context, userID int64) ([]models.BudgetRecord, error) {
	records, err := g.budgets.ListBudgetRecords(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list budget records: %w", err)
	}
	if records == nil {
		records = []models.BudgetRecord{}
	}
	return records, nil
}

func (g *Generator) callProvider(ctx context.Context, prompt string) (text string, err error) {
	start := g.now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("provider panic: %v", r)
		}
		g.metrics.ObserveProvider(err == nil, g.now().Sub(start))
	}()
	return g.provider.Generate(ctx, prompt)
}

func (g *Generator) fallback(ctx context.Context, in Input) Plan {
	g.metrics.PlanReturned(metrics.OutcomeFallback)
	plan := Plan{Text: FallbackPlan(in.Salary), Fallback: true}
	record, err := g.save(ctx, in, plan.Text)
	if err != nil {
		g.metrics.FallbackPersistFailed()
		g.logger.ErrorContext(ctx, "save fallback plan failed", "user_id", in.UserID, "error", err)
		return plan
	}
	plan.Record = &record
	return plan
}

func (g *Generator) save(ctx context.Context, in Input, text string) (models.BudgetRecord, error) {
	if !in.Salary.Storable() {
		return models.BudgetRecord{}, fmt.Errorf("%w: %q", ErrSalaryNotNumeric, in.Salary.Text)
	}
	return g.budgets.CreateBudgetRecord(ctx, store.BudgetRecordInput{
		UserID:             in.UserID,
		Salary:             in.Salary.Value,
		SpendingCategories: in.SpendingCategories,
		SavingOptions:      in.SavingOptions,
		Notes:              in.Notes,
		AIResponse:         text,
		CreatedAt:          g.now().UTC(),
	})
}
