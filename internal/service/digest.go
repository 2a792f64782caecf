package service

import (
	"github.com/sirupsen/logrus"

	"github.com/BizNestAI/backoffice/internal/forecast"
	"github.com/BizNestAI/backoffice/internal/models"
)

// DigestStore is the persistence surface the digest job depends on.
type DigestStore interface {
	ListBusinessesWithBaseline() ([]models.Business, error)
	BaselineForecast(businessID string) ([]models.BaselineRow, error)
}

// DigestMailer sends the weekly digest and runway alert emails.
type DigestMailer interface {
	SendRunwayAlert(to, businessName, month string, endingCash, threshold float64) error
	SendWeeklyDigest(to, businessName, lastMonth string, endingCash float64) error
}

// Digest runs the weekly cash-runway digest over every business with a
// stored baseline.
type Digest struct {
	store     DigestStore
	mailer    DigestMailer
	log       *logrus.Logger
	threshold float64
}

// NewDigest initializes the digest job
func NewDigest(store DigestStore, mailer DigestMailer, log *logrus.Logger, threshold float64) *Digest {
	return &Digest{store: store, mailer: mailer, log: log, threshold: threshold}
}

// Run projects each business's baseline with no adjustments and emails
// the owner: a runway alert when ending cash dips below the threshold,
// otherwise a summary digest. Per-business failures are logged and the
// job moves on.
func (d *Digest) Run() {
	businesses, err := d.store.ListBusinessesWithBaseline()
	if err != nil {
		d.log.Errorf("Digest: failed to list businesses: %v", err)
		return
	}

	for _, business := range businesses {
		baseline, err := d.store.BaselineForecast(business.ID)
		if err != nil {
			d.log.Errorf("Digest: failed to load baseline for %s: %v", business.ID, err)
			continue
		}

		rows := forecast.Generate(baseline, nil, forecast.Options{})
		if len(rows) == 0 || business.OwnerEmail == "" {
			continue
		}

		if alert, ok := firstBelowThreshold(rows, d.threshold); ok {
			if err := d.mailer.SendRunwayAlert(business.OwnerEmail, business.Name, alert.Month, alert.EndingCash, d.threshold); err != nil {
				d.log.Errorf("Digest: alert for %s failed: %v", business.ID, err)
			}
			continue
		}

		last := rows[len(rows)-1]
		if err := d.mailer.SendWeeklyDigest(business.OwnerEmail, business.Name, last.Month, last.EndingCash); err != nil {
			d.log.Errorf("Digest: digest for %s failed: %v", business.ID, err)
		}
	}
}

func firstBelowThreshold(rows []models.AdjustedRow, threshold float64) (models.AdjustedRow, bool) {
	for _, row := range rows {
		if row.EndingCash < threshold {
			return row, true
		}
	}
	return models.AdjustedRow{}, false
}
