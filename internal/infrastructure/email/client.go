// Package email provides the email client for high-value-lead alerts.
package email

import (
	"fmt"
	"os"
	"strings"

	"github.com/resendlabs/resend-go"
)

// LeadAlert carries the qualification summary emailed when a visitor
// crosses the qualified threshold.
type LeadAlert struct {
	VisitorID string        `json:"visitorId"`
	Score     int           `json:"score"`
	Level     string        `json:"level"`
	Signals   []string      `json:"signals"`
	TopPages  []PageSummary `json:"topPages"`
}

// PageSummary is one of the visitor's most-engaged pages.
type PageSummary struct {
	Path      string `json:"path"`
	Title     string `json:"title"`
	TimeSpent int    `json:"timeSpent"` // seconds
}

// Service defines the interface for sending alert emails, allowing for mock
// implementations in tests.
type Service interface {
	SendLeadAlertEmail(alert LeadAlert) error
}

// ResendClient is the concrete implementation of the email Service using the Resend API.
type ResendClient struct {
	client    *resend.Client
	fromEmail string
	fromName  string
	toEmail   string
}

// NewService creates a new email service client, returning the Service interface.
func NewService() (Service, error) {
	apiKey := os.Getenv("RESEND_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("RESEND_API_KEY environment variable is required")
	}

	toEmail := os.Getenv("LEAD_ALERT_EMAIL_TO")
	if toEmail == "" {
		return nil, fmt.Errorf("LEAD_ALERT_EMAIL_TO environment variable is required")
	}

	fromEmail := os.Getenv("LEAD_ALERT_EMAIL_FROM")
	if fromEmail == "" {
		fromEmail = "noreply@leadpulse.dev"
	}

	fromName := os.Getenv("LEAD_ALERT_EMAIL_FROM_NAME")
	if fromName == "" {
		fromName = "LeadPulse"
	}

	return &ResendClient{
		client:    resend.NewClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
		toEmail:   toEmail,
	}, nil
}

// SendLeadAlertEmail composes and sends the qualified-lead alert.
func (c *ResendClient) SendLeadAlertEmail(alert LeadAlert) error {
	subject := fmt.Sprintf("Qualified lead: %s (%d points)", alert.VisitorID, alert.Score)

	var pages strings.Builder
	for _, p := range alert.TopPages {
		title := p.Title
		if title == "" {
			title = p.Path
		}
		fmt.Fprintf(&pages, "<li><strong>%s</strong> (%s) &mdash; %ds</li>", title, p.Path, p.TimeSpent)
	}

	htmlContent := fmt.Sprintf(`<h2>New qualified lead</h2>
<p>Visitor <code>%s</code> reached <strong>%s</strong> with %d points.</p>
<p>Signals: %s</p>
<h3>Top pages by time</h3>
<ul>%s</ul>`,
		alert.VisitorID, alert.Level, alert.Score,
		strings.Join(alert.Signals, ", "), pages.String())

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", c.fromName, c.fromEmail),
		To:      []string{c.toEmail},
		Subject: subject,
		Html:    htmlContent,
	}

	_, err := c.client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("failed to send lead alert email via Resend: %w", err)
	}

	return nil
}
