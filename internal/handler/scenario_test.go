package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BizNestAI/backoffice/internal/config"
	"github.com/BizNestAI/backoffice/internal/models"
	"github.com/BizNestAI/backoffice/internal/repository"
	"github.com/BizNestAI/backoffice/internal/service"
	"github.com/BizNestAI/backoffice/internal/utils"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

type fakeStore struct {
	baseline    []models.BaselineRow
	baselineErr error
	business    *models.Business
	scenarios   map[string]*models.Scenario
	deleted     []string
}

func (f *fakeStore) CreateUser(user *models.User) error { return nil }

func (f *fakeStore) FindUserByEmail(email string) (*models.User, error) {
	return nil, repository.ErrNotFound
}

func (f *fakeStore) FindBusinessByID(id string, userID int64) (*models.Business, error) {
	if f.business == nil || f.business.ID != id || f.business.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return f.business, nil
}

func (f *fakeStore) UpdateBusinessFeedToken(id string, userID int64, encryptedToken, hmac string) error {
	if f.business == nil || f.business.ID != id {
		return repository.ErrNotFound
	}
	f.business.FeedToken = encryptedToken
	f.business.FeedHMAC = hmac
	return nil
}

func (f *fakeStore) CreateScenario(scenario *models.Scenario) error {
	if f.scenarios == nil {
		f.scenarios = map[string]*models.Scenario{}
	}
	f.scenarios[scenario.ID] = scenario
	return nil
}

func (f *fakeStore) UpdateScenarioItems(id string, userID int64, items []models.ScenarioItem) error {
	s, ok := f.scenarios[id]
	if !ok || s.UserID != userID {
		return repository.ErrNotFound
	}
	s.Items = items
	return nil
}

func (f *fakeStore) ListScenarios(userID int64, businessID string) ([]models.ScenarioSummary, error) {
	summaries := []models.ScenarioSummary{}
	for _, s := range f.scenarios {
		if s.UserID == userID && s.BusinessID == businessID {
			summaries = append(summaries, models.ScenarioSummary{ID: s.ID, Name: s.Name})
		}
	}
	return summaries, nil
}

func (f *fakeStore) FindScenarioByID(id string, userID int64) (*models.Scenario, error) {
	s, ok := f.scenarios[id]
	if !ok || s.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return s, nil
}

func (f *fakeStore) DeleteScenario(id string, userID int64) error {
	s, ok := f.scenarios[id]
	if !ok || s.UserID != userID {
		return repository.ErrNotFound
	}
	delete(f.scenarios, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeStore) BaselineForecast(businessID string) ([]models.BaselineRow, error) {
	if f.baselineErr != nil {
		return nil, f.baselineErr
	}
	return f.baseline, nil
}

type fakeFeed struct {
	balance float64
	err     error
}

func (f *fakeFeed) AvailableBalance(accessToken string) (float64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.balance, nil
}

func newTestHandler(store *fakeStore, feed *fakeFeed) *Handler {
	log := logrus.New()
	log.SetOutput(io.Discard)
	cfg := &config.Config{
		JWTSecret:     "secret",
		HMACSecret:    "hmacsecret",
		EncryptionKey: testKey,
	}
	svc := service.NewService(store, feed, log, cfg)
	return NewHandler(svc, log)
}

func authedRequest(method, target string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	r := httptest.NewRequest(method, target, &buf)
	return r.WithContext(context.WithValue(r.Context(), "userID", "1"))
}

func fp(v float64) *float64 { return &v }

func TestPreviewScenarioInlineBaseline(t *testing.T) {
	h := newTestHandler(&fakeStore{}, &fakeFeed{})

	req := authedRequest("POST", "/scenarios/preview", map[string]interface{}{
		"businessId": "biz-1",
		"scenarioItems": []models.ScenarioItem{
			{Type: "revenue", Amount: 500, StartMonth: "2025-02"},
		},
		"baselineForecast": []models.BaselineRow{
			{Month: "2025-01", Revenue: fp(1000), Expenses: fp(600)},
			{Month: "2025-02", Revenue: fp(1000), Expenses: fp(600)},
		},
	})
	w := httptest.NewRecorder()
	h.PreviewScenario(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Forecast []models.AdjustedRow `json:"forecast"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.Forecast, 2)
	assert.Equal(t, 1000.0, resp.Forecast[0].Revenue)
	assert.Equal(t, 1500.0, resp.Forecast[1].Revenue)
	require.Len(t, resp.Forecast[1].ScenarioEffects, 1)
}

func TestPreviewScenarioMissingBusinessID(t *testing.T) {
	h := newTestHandler(&fakeStore{}, &fakeFeed{})

	req := authedRequest("POST", "/scenarios/preview", map[string]interface{}{
		"scenarioItems": []models.ScenarioItem{},
	})
	w := httptest.NewRecorder()
	h.PreviewScenario(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPreviewScenarioInvalidBody(t *testing.T) {
	h := newTestHandler(&fakeStore{}, &fakeFeed{})

	r := httptest.NewRequest("POST", "/scenarios/preview", bytes.NewBufferString("{nope"))
	r = r.WithContext(context.WithValue(r.Context(), "userID", "1"))
	w := httptest.NewRecorder()
	h.PreviewScenario(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPreviewScenarioStoredBaselineWithFeedHint(t *testing.T) {
	encrypted, err := utils.Encrypt("tok-xyz", testKey)
	require.NoError(t, err)
	store := &fakeStore{
		baseline: []models.BaselineRow{{Month: "2025-01", Revenue: fp(100)}},
		business: &models.Business{
			ID:        "biz-1",
			UserID:    1,
			FeedToken: encrypted,
			FeedHMAC:  utils.GenerateHMAC("tok-xyz", "hmacsecret"),
		},
	}
	h := newTestHandler(store, &fakeFeed{balance: 1000})

	req := authedRequest("POST", "/scenarios/preview", map[string]interface{}{"businessId": "biz-1"})
	w := httptest.NewRecorder()
	h.PreviewScenario(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Forecast []models.AdjustedRow `json:"forecast"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.Forecast, 1)
	// Feed balance seeds the running cash: 1000 + 100.
	assert.Equal(t, 1100.0, resp.Forecast[0].EndingCash)
}

func TestPreviewScenarioFeedFailureDegrades(t *testing.T) {
	encrypted, err := utils.Encrypt("tok-xyz", testKey)
	require.NoError(t, err)
	store := &fakeStore{
		baseline: []models.BaselineRow{{Month: "2025-01", Revenue: fp(100)}},
		business: &models.Business{
			ID:        "biz-1",
			UserID:    1,
			FeedToken: encrypted,
			FeedHMAC:  utils.GenerateHMAC("tok-xyz", "hmacsecret"),
		},
	}
	h := newTestHandler(store, &fakeFeed{err: fmt.Errorf("feed down")})

	req := authedRequest("POST", "/scenarios/preview", map[string]interface{}{"businessId": "biz-1"})
	w := httptest.NewRecorder()
	h.PreviewScenario(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Forecast []models.AdjustedRow `json:"forecast"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.Forecast, 1)
	// No hint: starting cash falls back to the engine's inference (0).
	assert.Equal(t, 100.0, resp.Forecast[0].EndingCash)
}

func TestPreviewScenarioBaselineFetchFailure(t *testing.T) {
	store := &fakeStore{baselineErr: fmt.Errorf("db down")}
	h := newTestHandler(store, &fakeFeed{})

	req := authedRequest("POST", "/scenarios/preview", map[string]interface{}{"businessId": "biz-1"})
	w := httptest.NewRecorder()
	h.PreviewScenario(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCreateScenario(t *testing.T) {
	store := &fakeStore{}
	h := newTestHandler(store, &fakeFeed{})

	req := authedRequest("POST", "/scenarios", map[string]interface{}{
		"businessId": "biz-1",
		"name":       "hire in Q2",
		"items": []models.ScenarioItem{
			{Type: "expense", Amount: 4000, StartMonth: "2025-04"},
		},
	})
	w := httptest.NewRecorder()
	h.CreateScenario(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	var scenario models.Scenario
	require.NoError(t, json.NewDecoder(w.Body).Decode(&scenario))
	assert.NotEmpty(t, scenario.ID)
	assert.Equal(t, "hire in Q2", scenario.Name)
	assert.Len(t, store.scenarios, 1)
}

func TestCreateScenarioMissingName(t *testing.T) {
	h := newTestHandler(&fakeStore{}, &fakeFeed{})

	req := authedRequest("POST", "/scenarios", map[string]interface{}{"businessId": "biz-1"})
	w := httptest.NewRecorder()
	h.CreateScenario(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetScenarioNotFound(t *testing.T) {
	h := newTestHandler(&fakeStore{}, &fakeFeed{})

	req := authedRequest("GET", "/scenarios/missing", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "missing"})
	w := httptest.NewRecorder()
	h.GetScenario(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateAndDeleteScenario(t *testing.T) {
	store := &fakeStore{scenarios: map[string]*models.Scenario{
		"sc-1": {ID: "sc-1", UserID: 1, BusinessID: "biz-1", Name: "base", Items: []models.ScenarioItem{}},
	}}
	h := newTestHandler(store, &fakeFeed{})

	req := authedRequest("PUT", "/scenarios/sc-1", map[string]interface{}{
		"items": []models.ScenarioItem{{Type: "loan", Amount: 1500, StartMonth: "2025-06"}},
	})
	req = mux.SetURLVars(req, map[string]string{"id": "sc-1"})
	w := httptest.NewRecorder()
	h.UpdateScenario(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, store.scenarios["sc-1"].Items, 1)

	req = authedRequest("DELETE", "/scenarios/sc-1", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "sc-1"})
	w = httptest.NewRecorder()
	h.DeleteScenario(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"sc-1"}, store.deleted)
}

func TestListScenariosRequiresBusinessID(t *testing.T) {
	h := newTestHandler(&fakeStore{}, &fakeFeed{})

	req := authedRequest("GET", "/scenarios", nil)
	w := httptest.NewRecorder()
	h.ListScenarios(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConnectFeedStoresEncryptedToken(t *testing.T) {
	store := &fakeStore{business: &models.Business{ID: "biz-1", UserID: 1}}
	h := newTestHandler(store, &fakeFeed{})

	req := authedRequest("POST", "/businesses/biz-1/feed", map[string]string{"accessToken": "tok-new"})
	req = mux.SetURLVars(req, map[string]string{"id": "biz-1"})
	w := httptest.NewRecorder()
	h.ConnectFeed(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, store.business.FeedToken)
	assert.NotEqual(t, "tok-new", store.business.FeedToken)

	decrypted, err := utils.Decrypt(store.business.FeedToken, testKey)
	require.NoError(t, err)
	assert.Equal(t, "tok-new", decrypted)
	assert.True(t, utils.VerifyHMAC("tok-new", "hmacsecret", store.business.FeedHMAC))
}
