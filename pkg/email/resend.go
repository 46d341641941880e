package email

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
)

// ResendEmailService implements EmailService using Resend
type ResendEmailService struct {
	client *resend.Client
	config *EmailConfig
	log    *zap.Logger
}

func NewResendEmailService(config *EmailConfig, log *zap.Logger) (*ResendEmailService, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("resend API key is required")
	}

	if config.FromEmail == "" {
		return nil, fmt.Errorf("from email is required")
	}

	return &ResendEmailService{
		client: resend.NewClient(config.APIKey),
		config: config,
		log:    log,
	}, nil
}

func (s *ResendEmailService) SendNewInquiryEmail(ctx context.Context, to, brokerName string, n InquiryNotification) error {
	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromEmail),
		To:      []string{to},
		Subject: NewInquirySubject(n),
		Html:    NewInquiryEmailTemplate(brokerName, s.config.DashboardURL, n),
	}
	if n.ProspectEmail != "" {
		params.ReplyTo = n.ProspectEmail
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to send inquiry email: %w", err)
	}

	s.log.Debug("inquiry email sent", zap.String("to", to), zap.String("email_id", sent.Id))
	return nil
}
