package services

import (
	"context"
	"sort"
	"strings"

	"fintrack/internal/core"
)

// AggregationService computes the three derived dashboard views over a
// user's ledger: the scalar summary, the per-category breakdown and the
// daily trend series. It is read-only and recomputes from scratch on every
// call; results for identical inputs are identical.
type AggregationService struct {
	ledger LedgerReader
}

func NewAggregationService(ledger LedgerReader) *AggregationService {
	return &AggregationService{ledger: ledger}
}

// nullCategoryKey buckets transactions without a category. \x00 sorts ahead
// of every printable category name, so the null bucket comes first.
const nullCategoryKey = "\x00"

// Aggregate filters the ledger by owner and optional inclusive date bounds,
// then groups the matched records by category and by calendar day. All sums
// stay in cents until the output boundary.
func (s *AggregationService) Aggregate(ctx context.Context, userID string, start, end *core.Date) (core.Report, error) {
	if strings.TrimSpace(userID) == "" {
		return core.Report{}, core.ErrMissingUser
	}

	txs, err := s.ledger.Matching(ctx, userID, core.Filter{Start: start, End: end})
	if err != nil {
		return core.Report{}, err
	}

	report := core.Report{
		CategoryBreakdown: []core.CategoryTotal{},
		TrendData:         []core.TrendPoint{},
	}

	type categoryBucket struct {
		category *string
		cents    int64
		count    int
	}
	categories := make(map[string]*categoryBucket)
	days := make(map[string]*core.TrendPoint)

	for _, tx := range txs {
		switch tx.Type {
		case core.Income:
			report.Summary.TotalIncome.Cents += tx.Amount.Cents
		case core.Expense:
			report.Summary.TotalExpense.Cents += tx.Amount.Cents
		}

		// Category amounts sum both income and expense magnitudes, with no
		// split by type. That conflation is deliberate: it matches the
		// breakdown callers already chart against.
		key := nullCategoryKey
		if tx.Category != nil {
			key = *tx.Category
		}
		bucket := categories[key]
		if bucket == nil {
			bucket = &categoryBucket{category: tx.Category}
			categories[key] = bucket
		}
		bucket.cents += tx.Amount.Cents
		bucket.count++

		day := tx.Date.String()
		point := days[day]
		if point == nil {
			point = &core.TrendPoint{Date: tx.Date}
			days[day] = point
		}
		if tx.Type == core.Income {
			point.Income.Cents += tx.Amount.Cents
		} else {
			point.Expense.Cents += tx.Amount.Cents
		}
	}

	report.Summary.NetAmount.Cents = report.Summary.TotalIncome.Cents - report.Summary.TotalExpense.Cents

	categoryKeys := make([]string, 0, len(categories))
	for key := range categories {
		categoryKeys = append(categoryKeys, key)
	}
	sort.Strings(categoryKeys)
	for _, key := range categoryKeys {
		bucket := categories[key]
		report.CategoryBreakdown = append(report.CategoryBreakdown, core.CategoryTotal{
			Category: bucket.category,
			Amount:   core.Money{Cents: bucket.cents},
			Count:    bucket.count,
		})
	}

	dayKeys := make([]string, 0, len(days))
	for key := range days {
		dayKeys = append(dayKeys, key)
	}
	sort.Strings(dayKeys)
	for _, key := range dayKeys {
		point := days[key]
		point.Net.Cents = point.Income.Cents - point.Expense.Cents
		report.TrendData = append(report.TrendData, *point)
	}

	return report, nil
}
