package models

// BaselineRow is one calendar month of the unadjusted forecast. Optional
// fields are pointers so the engine can tell "absent" from "zero": when
// either cash field is present it takes precedence over revenue/expenses
// for net-cash computation.
type BaselineRow struct {
	Month      string   `json:"month"`
	Revenue    *float64 `json:"revenue,omitempty"`
	Expenses   *float64 `json:"expenses,omitempty"`
	CashIn     *float64 `json:"cashIn,omitempty"`
	CashOut    *float64 `json:"cashOut,omitempty"`
	NetCash    *float64 `json:"netCash,omitempty"`
	EndingCash *float64 `json:"endingCash,omitempty"`
}

// AdjustedRow is a baseline row after scenario adjustments, with net and
// ending cash recomputed and the audit trail of applied items.
type AdjustedRow struct {
	Month           string           `json:"month"`
	Revenue         float64          `json:"revenue"`
	Expenses        float64          `json:"expenses"`
	CashIn          *float64         `json:"cashIn,omitempty"`
	CashOut         *float64         `json:"cashOut,omitempty"`
	NetCash         float64          `json:"netCash"`
	EndingCash      float64          `json:"endingCash"`
	ScenarioEffects []ScenarioEffect `json:"scenarioEffects"`
}

// ScenarioEffect records one scenario item applied to one month.
type ScenarioEffect struct {
	ID          string  `json:"id,omitempty"`
	Type        string  `json:"type"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description,omitempty"`
	Month       string  `json:"month"`
}
