package email

import (
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"

	"github.com/BizNestAI/backoffice/internal/config"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
	}
}

// SendRunwayAlert warns the owner that projected ending cash drops below
// the configured threshold in the given month
func (s *Sender) SendRunwayAlert(to, businessName, month string, endingCash, threshold float64) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = fmt.Sprintf("Cash runway alert for %s", businessName)

	body := fmt.Sprintf(
		"Hello,\n\n"+
			"Based on the current baseline forecast for %s, projected ending cash\n"+
			"falls to %.0f in %s, below your alert threshold of %.0f.\n"+
			"Review your forecast and scenarios in the back office to plan ahead.\n",
		businessName, endingCash, month, threshold,
	)
	body += "\nBest regards,\nBizNest Back Office"
	e.Text = []byte(body)

	if err := s.send(e); err != nil {
		s.logger.Errorf("Failed to send runway alert to %s: %v", to, err)
		return fmt.Errorf("failed to send runway alert: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}

// SendWeeklyDigest summarizes the forecast horizon for the owner
func (s *Sender) SendWeeklyDigest(to, businessName, lastMonth string, endingCash float64) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = fmt.Sprintf("Weekly cash-flow digest for %s", businessName)

	body := fmt.Sprintf(
		"Hello,\n\n"+
			"Your baseline forecast for %s projects ending cash of %.0f by %s.\n"+
			"Open the back office to explore what-if scenarios against this baseline.\n",
		businessName, endingCash, lastMonth,
	)
	body += "\nBest regards,\nBizNest Back Office"
	e.Text = []byte(body)

	if err := s.send(e); err != nil {
		s.logger.Errorf("Failed to send weekly digest to %s: %v", to, err)
		return fmt.Errorf("failed to send weekly digest: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}

func (s *Sender) send(e *email.Email) error {
	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	return e.Send(addr, auth)
}
