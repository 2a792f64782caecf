package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/BizNestAI/backoffice/internal/models"
)

// ErrNotFound is returned when a requested record does not exist or is
// not visible to the requesting user.
var ErrNotFound = errors.New("record not found")

// Repository provides database operations
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser creates a new user in the database
func (r *Repository) CreateUser(user *models.User) error {
	query := `
		INSERT INTO backoffice.users (username, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(query, user.Username, user.Email, user.PasswordHash).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindUserByEmail retrieves a user by email
func (r *Repository) FindUserByEmail(email string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, username, email, password_hash, created_at, updated_at
		FROM backoffice.users
		WHERE email = $1`
	err := r.db.QueryRow(query, email).
		Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// FindBusinessByID retrieves a business owned by the given user
func (r *Repository) FindBusinessByID(id string, userID int64) (*models.Business, error) {
	business := &models.Business{}
	var feedToken, feedHMAC sql.NullString
	query := `
		SELECT id, user_id, name, owner_email, feed_token, feed_hmac, created_at, updated_at
		FROM backoffice.businesses
		WHERE id = $1 AND user_id = $2`
	err := r.db.QueryRow(query, id, userID).
		Scan(&business.ID, &business.UserID, &business.Name, &business.OwnerEmail,
			&feedToken, &feedHMAC, &business.CreatedAt, &business.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find business: %w", err)
	}
	business.FeedToken = feedToken.String
	business.FeedHMAC = feedHMAC.String
	return business, nil
}

// UpdateBusinessFeedToken stores the encrypted bank-feed token and its
// integrity tag on a business record
func (r *Repository) UpdateBusinessFeedToken(id string, userID int64, encryptedToken, hmac string) error {
	query := `
		UPDATE backoffice.businesses
		SET feed_token = $3, feed_hmac = $4, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND user_id = $2`
	result, err := r.db.Exec(query, id, userID, encryptedToken, hmac)
	if err != nil {
		return fmt.Errorf("failed to update feed token: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update feed token: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// ListBusinessesWithBaseline returns every business that has at least one
// baseline forecast row, for the digest job
func (r *Repository) ListBusinessesWithBaseline() ([]models.Business, error) {
	query := `
		SELECT DISTINCT b.id, b.user_id, b.name, b.owner_email, b.created_at, b.updated_at
		FROM backoffice.businesses b
		JOIN backoffice.baseline_forecasts f ON f.business_id = b.id
		ORDER BY b.id`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list businesses: %w", err)
	}
	defer rows.Close()

	var businesses []models.Business
	for rows.Next() {
		var b models.Business
		if err := rows.Scan(&b.ID, &b.UserID, &b.Name, &b.OwnerEmail, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan business: %w", err)
		}
		businesses = append(businesses, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list businesses: %w", err)
	}
	return businesses, nil
}
