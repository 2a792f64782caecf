package repository

import (
	"database/sql"
	"fmt"

	"github.com/BizNestAI/backoffice/internal/models"
)

// BaselineForecast returns the stored baseline series for a business,
// ordered by month. Nullable columns map to absent fields so the forecast
// engine can tell zero from missing.
func (r *Repository) BaselineForecast(businessID string) ([]models.BaselineRow, error) {
	query := `
		SELECT month, revenue, expenses, cash_in, cash_out, net_cash, ending_cash
		FROM backoffice.baseline_forecasts
		WHERE business_id = $1
		ORDER BY month`
	rows, err := r.db.Query(query, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to load baseline forecast: %w", err)
	}
	defer rows.Close()

	var baseline []models.BaselineRow
	for rows.Next() {
		var row models.BaselineRow
		var revenue, expenses, cashIn, cashOut, netCash, endingCash sql.NullFloat64
		if err := rows.Scan(&row.Month, &revenue, &expenses, &cashIn, &cashOut, &netCash, &endingCash); err != nil {
			return nil, fmt.Errorf("failed to scan baseline row: %w", err)
		}
		row.Revenue = nullableFloat(revenue)
		row.Expenses = nullableFloat(expenses)
		row.CashIn = nullableFloat(cashIn)
		row.CashOut = nullableFloat(cashOut)
		row.NetCash = nullableFloat(netCash)
		row.EndingCash = nullableFloat(endingCash)
		baseline = append(baseline, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load baseline forecast: %w", err)
	}
	return baseline, nil
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
