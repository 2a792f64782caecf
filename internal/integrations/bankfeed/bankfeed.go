// Package bankfeed fetches balance snapshots from the external bank-feed
// aggregator. The feed speaks a small XML protocol; only the latest
// available balance is consumed, as a starting-cash hint for forecasts.
package bankfeed

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/beevik/etree"
	"github.com/sirupsen/logrus"

	"github.com/BizNestAI/backoffice/internal/config"
)

// Client handles integration with the bank-feed aggregator
type Client struct {
	url    string
	client *http.Client
	log    *logrus.Logger
}

// NewClient initializes a new bank-feed client
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	return &Client{
		url: cfg.FeedURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// buildRequest creates the XML request for a balance snapshot
func (c *Client) buildRequest(accessToken string) string {
	asOf := time.Now().Format("2006-01-02")
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
		<FeedRequest xmlns="http://feed.biznest.dev/v1">
			<AccessToken>%s</AccessToken>
			<Report>BalanceSnapshot</Report>
			<AsOf>%s</AsOf>
		</FeedRequest>`, accessToken, asOf)
}

// sendRequest posts the XML request to the feed
func (c *Client) sendRequest(xmlRequest string) ([]byte, error) {
	req, err := http.NewRequest("POST", c.url, bytes.NewBuffer([]byte(xmlRequest)))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/xml; charset=utf-8")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %v", err)
	}

	// Log the raw XML response for debugging
	c.log.Debugf("bank feed XML response: %s", string(body))

	return body, nil
}

// parseResponse parses the XML response to extract the available balance
func (c *Client) parseResponse(rawBody []byte) (float64, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(rawBody); err != nil {
		return 0, fmt.Errorf("failed to parse XML: %v", err)
	}

	snapshots := doc.FindElements("//BalanceSnapshotResult/Snapshot")
	if len(snapshots) == 0 {
		return 0, fmt.Errorf("no snapshot data found in XML")
	}

	// The feed orders snapshots newest first
	latest := snapshots[0]
	availableElement := latest.FindElement("./Available")
	if availableElement == nil {
		return 0, fmt.Errorf("available element not found in XML")
	}

	var balance float64
	if _, err := fmt.Sscanf(availableElement.Text(), "%f", &balance); err != nil {
		return 0, fmt.Errorf("failed to parse balance: %v", err)
	}

	return balance, nil
}

// AvailableBalance retrieves the latest available balance for the account
// behind the given access token
func (c *Client) AvailableBalance(accessToken string) (float64, error) {
	xmlRequest := c.buildRequest(accessToken)
	body, err := c.sendRequest(xmlRequest)
	if err != nil {
		return 0, err
	}

	balance, err := c.parseResponse(body)
	if err != nil {
		return 0, err
	}

	c.log.Infof("Retrieved balance snapshot: %.2f", balance)
	return balance, nil
}
