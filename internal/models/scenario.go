package models

import "time"

// ScenarioItem is one what-if adjustment within a scenario. For the
// percentage types the amount is a fractional rate (0.10 = +10%); for the
// absolute types it is a monetary delta. Recurring defaults to true when
// absent, except for one_time items which are always single-month.
type ScenarioItem struct {
	ID          string  `json:"id,omitempty"`
	Type        string  `json:"type"`
	Amount      float64 `json:"amount"`
	StartMonth  string  `json:"startMonth"`
	EndMonth    string  `json:"endMonth,omitempty"`
	Recurring   *bool   `json:"recurring,omitempty"`
	Description string  `json:"description,omitempty"`
}

// Scenario is a named, persisted set of adjustments owned by a user.
type Scenario struct {
	ID         string         `json:"id"`
	UserID     int64          `json:"user_id"`
	BusinessID string         `json:"business_id"`
	Name       string         `json:"name"`
	Items      []ScenarioItem `json:"items"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// ScenarioSummary is the list-view projection of a scenario.
type ScenarioSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
