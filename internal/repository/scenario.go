package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/BizNestAI/backoffice/internal/models"
)

// CreateScenario inserts a scenario with its items serialized as JSONB
func (r *Repository) CreateScenario(scenario *models.Scenario) error {
	items, err := json.Marshal(scenario.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal scenario items: %w", err)
	}
	query := `
		INSERT INTO backoffice.scenarios (id, user_id, business_id, name, items, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING created_at, updated_at`
	err = r.db.QueryRow(query, scenario.ID, scenario.UserID, scenario.BusinessID, scenario.Name, items).
		Scan(&scenario.CreatedAt, &scenario.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create scenario: %w", err)
	}
	return nil
}

// UpdateScenarioItems replaces the item list of a scenario owned by the user
func (r *Repository) UpdateScenarioItems(id string, userID int64, items []models.ScenarioItem) error {
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal scenario items: %w", err)
	}
	query := `
		UPDATE backoffice.scenarios
		SET items = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND user_id = $2`
	result, err := r.db.Exec(query, id, userID, payload)
	if err != nil {
		return fmt.Errorf("failed to update scenario: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update scenario: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// ListScenarios returns id/name summaries for a user's business
func (r *Repository) ListScenarios(userID int64, businessID string) ([]models.ScenarioSummary, error) {
	query := `
		SELECT id, name
		FROM backoffice.scenarios
		WHERE user_id = $1 AND business_id = $2
		ORDER BY created_at DESC`
	rows, err := r.db.Query(query, userID, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	defer rows.Close()

	summaries := []models.ScenarioSummary{}
	for rows.Next() {
		var s models.ScenarioSummary
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, fmt.Errorf("failed to scan scenario: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	return summaries, nil
}

// FindScenarioByID loads a full scenario owned by the user
func (r *Repository) FindScenarioByID(id string, userID int64) (*models.Scenario, error) {
	scenario := &models.Scenario{}
	var items []byte
	query := `
		SELECT id, user_id, business_id, name, items, created_at, updated_at
		FROM backoffice.scenarios
		WHERE id = $1 AND user_id = $2`
	err := r.db.QueryRow(query, id, userID).
		Scan(&scenario.ID, &scenario.UserID, &scenario.BusinessID, &scenario.Name,
			&items, &scenario.CreatedAt, &scenario.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find scenario: %w", err)
	}
	if err := json.Unmarshal(items, &scenario.Items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scenario items: %w", err)
	}
	return scenario, nil
}

// DeleteScenario removes a scenario owned by the user
func (r *Repository) DeleteScenario(id string, userID int64) error {
	query := `DELETE FROM backoffice.scenarios WHERE id = $1 AND user_id = $2`
	result, err := r.db.Exec(query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete scenario: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete scenario: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
