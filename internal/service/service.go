package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/BizNestAI/backoffice/internal/config"
	"github.com/BizNestAI/backoffice/internal/forecast"
	"github.com/BizNestAI/backoffice/internal/models"
	"github.com/BizNestAI/backoffice/internal/utils"
)

// Store is the persistence surface the service depends on, implemented by
// the Postgres repository.
type Store interface {
	CreateUser(user *models.User) error
	FindUserByEmail(email string) (*models.User, error)

	FindBusinessByID(id string, userID int64) (*models.Business, error)
	UpdateBusinessFeedToken(id string, userID int64, encryptedToken, hmac string) error

	CreateScenario(scenario *models.Scenario) error
	UpdateScenarioItems(id string, userID int64, items []models.ScenarioItem) error
	ListScenarios(userID int64, businessID string) ([]models.ScenarioSummary, error)
	FindScenarioByID(id string, userID int64) (*models.Scenario, error)
	DeleteScenario(id string, userID int64) error

	BaselineForecast(businessID string) ([]models.BaselineRow, error)
}

// BalanceSource supplies a starting-cash hint from the bank feed.
type BalanceSource interface {
	AvailableBalance(accessToken string) (float64, error)
}

// Service handles business logic
type Service struct {
	store  Store
	feed   BalanceSource
	log    *logrus.Logger
	config *config.Config
}

// NewService initializes a new service
func NewService(store Store, feed BalanceSource, log *logrus.Logger, cfg *config.Config) *Service {
	return &Service{store: store, feed: feed, log: log, config: cfg}
}

// Register creates a new user with hashed password
func (s *Service) Register(username, email, password string) (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
	}

	if err := s.store.CreateUser(user); err != nil {
		return nil, err
	}

	s.log.Infof("User registered: %s", user.Email)
	return user, nil
}

// Login authenticates a user and returns a JWT token
func (s *Service) Login(email, password string) (string, error) {
	user, err := s.store.FindUserByEmail(email)
	if err != nil {
		return "", fmt.Errorf("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", fmt.Errorf("invalid credentials")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   fmt.Sprintf("%d", user.ID),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
	})
	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Infof("User logged in: %s", user.Email)
	return tokenString, nil
}

// PreviewScenario runs the forecast engine over the given items. When no
// inline baseline is supplied the stored baseline for the business is
// used, and the bank feed is consulted for a starting-cash hint; a failed
// hint lookup degrades to the engine's own inference rather than failing
// the preview.
func (s *Service) PreviewScenario(ctx context.Context, businessID string, items []models.ScenarioItem, baseline []models.BaselineRow, startingCash *float64) ([]models.AdjustedRow, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if len(baseline) == 0 {
		baseline, err = s.store.BaselineForecast(businessID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch baseline forecast: %w", err)
		}
		if startingCash == nil {
			if hint, ok := s.startingCashHint(userID, businessID); ok {
				startingCash = &hint
			}
		}
	}

	return forecast.Generate(baseline, items, forecast.Options{StartingCash: startingCash}), nil
}

// startingCashHint fetches the latest available balance for the business
// from the bank feed. Any failure is logged and absorbed.
func (s *Service) startingCashHint(userID int64, businessID string) (float64, bool) {
	business, err := s.store.FindBusinessByID(businessID, userID)
	if err != nil || business.FeedToken == "" {
		return 0, false
	}

	token, err := utils.Decrypt(business.FeedToken, s.config.EncryptionKey)
	if err != nil {
		s.log.Warnf("Failed to decrypt feed token for business %s: %v", businessID, err)
		return 0, false
	}
	if !utils.VerifyHMAC(token, s.config.HMACSecret, business.FeedHMAC) {
		s.log.Warnf("Feed token integrity check failed for business %s", businessID)
		return 0, false
	}

	balance, err := s.feed.AvailableBalance(token)
	if err != nil {
		s.log.Warnf("Failed to fetch balance snapshot for business %s: %v", businessID, err)
		return 0, false
	}
	return balance, true
}

// CreateScenario persists a named scenario for the user's business
func (s *Service) CreateScenario(ctx context.Context, businessID, name string, items []models.ScenarioItem) (*models.Scenario, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	scenario := &models.Scenario{
		ID:         uuid.NewString(),
		UserID:     userID,
		BusinessID: businessID,
		Name:       name,
		Items:      items,
	}
	if scenario.Items == nil {
		scenario.Items = []models.ScenarioItem{}
	}

	if err := s.store.CreateScenario(scenario); err != nil {
		return nil, err
	}

	s.log.Infof("Scenario created: %s (%s)", scenario.Name, scenario.ID)
	return scenario, nil
}

// UpdateScenario replaces the item list of a scenario owned by the user
func (s *Service) UpdateScenario(ctx context.Context, id string, items []models.ScenarioItem) error {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return err
	}
	if items == nil {
		items = []models.ScenarioItem{}
	}
	return s.store.UpdateScenarioItems(id, userID, items)
}

// ListScenarios returns the user's scenarios for a business
func (s *Service) ListScenarios(ctx context.Context, businessID string) ([]models.ScenarioSummary, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.ListScenarios(userID, businessID)
}

// LoadScenario loads a full scenario owned by the user
func (s *Service) LoadScenario(ctx context.Context, id string) (*models.Scenario, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.FindScenarioByID(id, userID)
}

// DeleteScenario removes a scenario owned by the user
func (s *Service) DeleteScenario(ctx context.Context, id string) error {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return err
	}
	return s.store.DeleteScenario(id, userID)
}

// ConnectFeed stores an encrypted bank-feed access token on the business
func (s *Service) ConnectFeed(ctx context.Context, businessID, accessToken string) error {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return err
	}
	if _, err := s.store.FindBusinessByID(businessID, userID); err != nil {
		return err
	}

	encrypted, err := utils.Encrypt(accessToken, s.config.EncryptionKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt feed token: %w", err)
	}
	hmac := utils.GenerateHMAC(accessToken, s.config.HMACSecret)

	if err := s.store.UpdateBusinessFeedToken(businessID, userID, encrypted, hmac); err != nil {
		return err
	}

	s.log.Infof("Bank feed connected for business %s", businessID)
	return nil
}

func userIDFromContext(ctx context.Context) (int64, error) {
	userIDStr, ok := ctx.Value("userID").(string)
	if !ok || userIDStr == "" {
		return 0, fmt.Errorf("user ID not found in context")
	}

	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user ID: %w", err)
	}
	return userID, nil
}
