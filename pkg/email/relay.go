package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// RelayEmailService posts notifications to an internal mail relay that owns
// templating and delivery.
type RelayEmailService struct {
	client     *http.Client
	serviceURL string
	log        *zap.Logger
}

type relayRequest struct {
	Type string              `json:"type"`
	To   string              `json:"to"`
	Name string              `json:"name"`
	Data InquiryNotification `json:"data"`
}

type relayResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func NewRelayEmailService(config *EmailConfig, log *zap.Logger) (*RelayEmailService, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("email relay URL is required")
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &RelayEmailService{
		client:     &http.Client{Timeout: timeout},
		serviceURL: config.BaseURL,
		log:        log,
	}, nil
}

func (s *RelayEmailService) SendNewInquiryEmail(ctx context.Context, to, brokerName string, n InquiryNotification) error {
	req := &relayRequest{Type: "new_inquiry", To: to, Name: brokerName, Data: n}
	if err := s.send(ctx, req); err != nil {
		return fmt.Errorf("failed to send inquiry email: %w", err)
	}

	s.log.Debug("inquiry email relayed", zap.String("to", to))
	return nil
}

func (s *RelayEmailService) send(ctx context.Context, req *relayRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.serviceURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to reach email relay: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	var out relayResponse
	if resp.StatusCode != http.StatusOK {
		if err := json.Unmarshal(body, &out); err != nil || out.Error == "" {
			return fmt.Errorf("email relay returned status %d: %s", resp.StatusCode, string(body))
		}
		return fmt.Errorf("email relay error: %s", out.Error)
	}

	if err := json.Unmarshal(body, &out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if !out.Success {
		return fmt.Errorf("email relay returned success=false: %s", out.Error)
	}

	return nil
}
