// Package forecast implements the scenario forecast engine: a pure,
// deterministic overlay of what-if adjustments onto a baseline monthly
// forecast. It performs no I/O, never mutates its inputs and never
// returns an error: malformed rows and items degrade to "skip" or
// "treat as zero" so a preview can always be rendered.
package forecast

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/BizNestAI/backoffice/internal/models"
)

// Options control forecast generation.
type Options struct {
	// StartingCash overrides the balance otherwise inferred from the
	// first baseline row (endingCash minus net cash, falling back to 0).
	StartingCash *float64
}

// Item types accepted by the engine. Anything else invalidates the item.
const (
	TypeRevenue    = "revenue"
	TypeExpense    = "expense"
	TypeInvestment = "investment"
	TypeLoan       = "loan"
	TypeOneTime    = "one_time"
	TypeRevenuePct = "revenue_pct"
	TypeExpensePct = "expense_pct"
)

// adjustment is a scenario item after sanitization: resolved month keys,
// safe amount, recurrence defaulted per type.
type adjustment struct {
	id          string
	itemType    string
	amount      decimal.Decimal
	rawAmount   float64
	startKey    string
	endKey      string // empty when absent or unresolvable
	recurring   bool
	description string
}

// workRow is the mutable working copy of a baseline row. Presence of the
// cash fields is fixed at normalize time: rows that came in with cash
// flows compute net cash from them, rows that only carry revenue and
// expenses keep doing so even after adjustments mirror into the (absent)
// cash fields.
type workRow struct {
	month      string
	revenue    decimal.Decimal
	expenses   decimal.Decimal
	cashIn     decimal.Decimal
	cashOut    decimal.Decimal
	hasCashIn  bool
	hasCashOut bool
	origNet    decimal.Decimal // pre-adjustment net, for starting-cash inference
	endingIn   *float64        // caller-provided ending cash, same purpose
	effects    []models.ScenarioEffect
}

// Generate overlays scenario items onto a baseline monthly forecast and
// returns the adjusted series with net and ending cash recomputed and a
// per-row audit trail. Rows without a resolvable month and items with an
// unknown type or unresolvable start month are silently dropped.
//
// Rows are returned in input order after filtering; callers are expected
// to pass a chronologically sorted baseline. Percentage amounts are
// fractional rates (0.10 = +10%); normalizing UI input such as "10" is
// the caller's job.
func Generate(baseline []models.BaselineRow, items []models.ScenarioItem, opts Options) []models.AdjustedRow {
	rows, index := normalize(baseline)

	for _, raw := range items {
		adj, ok := sanitizeItem(raw)
		if !ok {
			continue
		}
		start, ok := index[adj.startKey]
		if !ok {
			// Start month outside the horizon: no partial application.
			continue
		}
		end := start
		if adj.recurring {
			end = len(rows) - 1
			if adj.endKey != "" {
				if i, ok := index[adj.endKey]; ok {
					end = i
				}
			}
		}
		for i := start; i <= end; i++ {
			apply(rows[i], adj)
		}
	}

	running := resolveStartingCash(rows, opts)
	out := make([]models.AdjustedRow, len(rows))
	for i, row := range rows {
		var net decimal.Decimal
		if row.hasCashIn || row.hasCashOut {
			net = row.cashIn.Sub(row.cashOut)
		} else {
			net = row.revenue.Sub(row.expenses)
		}
		net = net.Round(0)
		running = running.Add(net).Round(0)

		adj := models.AdjustedRow{
			Month:           row.month,
			Revenue:         roundedFloat(row.revenue, 2),
			Expenses:        roundedFloat(row.expenses, 2),
			NetCash:         roundedFloat(net, 0),
			EndingCash:      roundedFloat(running, 0),
			ScenarioEffects: row.effects,
		}
		if row.hasCashIn {
			v := roundedFloat(row.cashIn, 2)
			adj.CashIn = &v
		}
		if row.hasCashOut {
			v := roundedFloat(row.cashOut, 2)
			adj.CashOut = &v
		}
		out[i] = adj
	}
	return out
}

// normalize filters baseline rows down to those with a resolvable month,
// coerces all numeric fields and builds the month->index lookup.
func normalize(baseline []models.BaselineRow) ([]*workRow, map[string]int) {
	rows := make([]*workRow, 0, len(baseline))
	index := make(map[string]int, len(baseline))
	for _, in := range baseline {
		key, ok := resolveMonthKey(in.Month)
		if !ok {
			continue
		}
		row := &workRow{
			month:      key,
			revenue:    decimalFromPtr(in.Revenue),
			expenses:   decimalFromPtr(in.Expenses),
			cashIn:     decimalFromPtr(in.CashIn),
			cashOut:    decimalFromPtr(in.CashOut),
			hasCashIn:  in.CashIn != nil,
			hasCashOut: in.CashOut != nil,
			endingIn:   in.EndingCash,
			effects:    []models.ScenarioEffect{},
		}
		switch {
		case in.NetCash != nil && isFinite(*in.NetCash):
			row.origNet = decimal.NewFromFloat(*in.NetCash)
		case row.hasCashIn || row.hasCashOut:
			row.origNet = row.cashIn.Sub(row.cashOut)
		default:
			row.origNet = row.revenue.Sub(row.expenses)
		}
		if _, dup := index[key]; !dup {
			index[key] = len(rows)
		}
		rows = append(rows, row)
	}
	return rows, index
}

// sanitizeItem validates and resolves a scenario item. Unknown types are
// rejected here rather than falling back to expense treatment at apply
// time, so apply only ever sees the allowed set.
func sanitizeItem(item models.ScenarioItem) (adjustment, bool) {
	switch item.Type {
	case TypeRevenue, TypeExpense, TypeInvestment, TypeLoan, TypeOneTime, TypeRevenuePct, TypeExpensePct:
	default:
		return adjustment{}, false
	}
	start, ok := resolveMonthKey(item.StartMonth)
	if !ok {
		return adjustment{}, false
	}

	adj := adjustment{
		id:          item.ID,
		itemType:    item.Type,
		rawAmount:   safeNumber(item.Amount),
		startKey:    start,
		description: item.Description,
	}
	adj.amount = decimal.NewFromFloat(adj.rawAmount)
	if end, ok := resolveMonthKey(item.EndMonth); ok {
		adj.endKey = end
	}
	switch {
	case item.Type == TypeOneTime:
		adj.recurring = false
	case item.Recurring != nil:
		adj.recurring = *item.Recurring
	default:
		adj.recurring = true
	}
	return adj, true
}

// apply mutates one working row with one adjustment and records the
// effect. Percentage items operate on the row's current running values,
// so multiple percentage items on the same row compound sequentially.
func apply(row *workRow, adj adjustment) {
	switch adj.itemType {
	case TypeRevenue, TypeInvestment:
		row.revenue = row.revenue.Add(adj.amount)
		row.cashIn = row.cashIn.Add(adj.amount)
	case TypeExpense, TypeLoan, TypeOneTime:
		row.expenses = row.expenses.Add(adj.amount)
		row.cashOut = row.cashOut.Add(adj.amount)
	case TypeRevenuePct:
		row.revenue = row.revenue.Add(row.revenue.Mul(adj.amount)).Round(2)
		row.cashIn = row.cashIn.Add(row.cashIn.Mul(adj.amount)).Round(2)
	case TypeExpensePct:
		row.expenses = row.expenses.Add(row.expenses.Mul(adj.amount)).Round(2)
		row.cashOut = row.cashOut.Add(row.cashOut.Mul(adj.amount)).Round(2)
	}
	row.effects = append(row.effects, models.ScenarioEffect{
		ID:          adj.id,
		Type:        adj.itemType,
		Amount:      adj.rawAmount,
		Description: adj.description,
		Month:       row.month,
	})
}

// resolveStartingCash picks the seed for the running balance: the explicit
// option when finite, else endingCash minus pre-adjustment net cash from
// the first baseline row, else 0.
func resolveStartingCash(rows []*workRow, opts Options) decimal.Decimal {
	if opts.StartingCash != nil && isFinite(*opts.StartingCash) {
		return decimal.NewFromFloat(*opts.StartingCash)
	}
	if len(rows) == 0 {
		return decimal.Zero
	}
	first := rows[0]
	if first.endingIn == nil || !isFinite(*first.endingIn) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*first.endingIn).Sub(first.origNet)
}

func decimalFromPtr(p *float64) decimal.Decimal {
	if p == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(safeNumber(*p))
}

// safeNumber coerces non-finite values to 0 so NaN/Inf never reaches the
// decimal layer or the output.
func safeNumber(f float64) float64 {
	if !isFinite(f) {
		return 0
	}
	return f
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func roundedFloat(d decimal.Decimal, places int32) float64 {
	f, _ := d.Round(places).Float64()
	return f
}
