package service

import (
	"fmt"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BizNestAI/backoffice/internal/models"
)

type digestStore struct {
	businesses []models.Business
	baselines  map[string][]models.BaselineRow
}

func (d *digestStore) ListBusinessesWithBaseline() ([]models.Business, error) {
	return d.businesses, nil
}

func (d *digestStore) BaselineForecast(businessID string) ([]models.BaselineRow, error) {
	rows, ok := d.baselines[businessID]
	if !ok {
		return nil, fmt.Errorf("no baseline for %s", businessID)
	}
	return rows, nil
}

type digestMailer struct {
	alerts  []string
	digests []string
}

func (m *digestMailer) SendRunwayAlert(to, businessName, month string, endingCash, threshold float64) error {
	m.alerts = append(m.alerts, fmt.Sprintf("%s:%s", businessName, month))
	return nil
}

func (m *digestMailer) SendWeeklyDigest(to, businessName, lastMonth string, endingCash float64) error {
	m.digests = append(m.digests, fmt.Sprintf("%s:%s:%.0f", businessName, lastMonth, endingCash))
	return nil
}

func fptr(v float64) *float64 { return &v }

func TestDigestRunSplitsAlertsAndDigests(t *testing.T) {
	store := &digestStore{
		businesses: []models.Business{
			{ID: "healthy", Name: "Healthy Co", OwnerEmail: "a@x.test"},
			{ID: "tight", Name: "Tight LLC", OwnerEmail: "b@x.test"},
			{ID: "broken", Name: "No Baseline", OwnerEmail: "c@x.test"},
		},
		baselines: map[string][]models.BaselineRow{
			"healthy": {
				{Month: "2025-01", Revenue: fptr(1000), Expenses: fptr(400)},
				{Month: "2025-02", Revenue: fptr(1000), Expenses: fptr(400)},
			},
			"tight": {
				{Month: "2025-01", Revenue: fptr(100), Expenses: fptr(600)},
				{Month: "2025-02", Revenue: fptr(100), Expenses: fptr(600)},
			},
		},
	}
	mailer := &digestMailer{}
	log := logrus.New()
	log.SetOutput(io.Discard)

	NewDigest(store, mailer, log, 0).Run()

	// Tight LLC dips below 0 in its first month; Healthy Co gets the
	// end-of-horizon digest; the business with a failing baseline load is
	// skipped without aborting the run.
	require.Len(t, mailer.alerts, 1)
	assert.Equal(t, "Tight LLC:2025-01", mailer.alerts[0])
	require.Len(t, mailer.digests, 1)
	assert.Equal(t, "Healthy Co:2025-02:1200", mailer.digests[0])
}

func TestDigestSkipsOwnersWithoutEmail(t *testing.T) {
	store := &digestStore{
		businesses: []models.Business{{ID: "anon", Name: "Anon"}},
		baselines: map[string][]models.BaselineRow{
			"anon": {{Month: "2025-01", Revenue: fptr(100)}},
		},
	}
	mailer := &digestMailer{}
	log := logrus.New()
	log.SetOutput(io.Discard)

	NewDigest(store, mailer, log, 0).Run()

	assert.Empty(t, mailer.alerts)
	assert.Empty(t, mailer.digests)
}
