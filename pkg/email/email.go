package email

import (
	"context"
	"time"
)

// EmailService sends transactional mail to brokers
type EmailService interface {
	// SendNewInquiryEmail tells a broker that a prospect asked about one of
	// their listings
	SendNewInquiryEmail(ctx context.Context, to, brokerName string, n InquiryNotification) error
}

// InquiryNotification is the content of a new-inquiry email
type InquiryNotification struct {
	ListingID     string
	ListingTitle  string
	ProspectName  string
	ProspectEmail string
	ProspectPhone string
	Message       string
	// LeadCreated is false when the broker's customer quota was full
	LeadCreated bool
}

// EmailConfig holds email service configuration
type EmailConfig struct {
	APIKey       string
	FromEmail    string
	FromName     string
	BaseURL      string        // relay endpoint
	DashboardURL string        // linked from the email body
	Timeout      time.Duration // HTTP request timeout
}
