package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Gateway delivers one-time codes by email
type Gateway interface {
	SendOTP(ctx context.Context, to, fullName, otpCode string, expiryMinutes int) error
}

// SendGridConfig holds configuration for the SendGrid v3 mail API
type SendGridConfig struct {
	APIURL      string
	APIKey      string
	SenderEmail string
	SenderName  string
}

// SendGridGateway implements Gateway via the SendGrid v3 mail/send endpoint
type SendGridGateway struct {
	config SendGridConfig
	client *http.Client
}

// NewSendGridGateway creates a new SendGrid client
func NewSendGridGateway(config SendGridConfig) *SendGridGateway {
	return &SendGridGateway{
		config: config,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type personalization struct {
	To []address `json:"to"`
}

type content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// sendRequest is the body of POST /v3/mail/send
type sendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             address           `json:"from"`
	Subject          string            `json:"subject"`
	Content          []content         `json:"content"`
}

type errorResponse struct {
	Errors []struct {
		Message string `json:"message"`
		Field   string `json:"field"`
	} `json:"errors"`
}

// SendOTP emails a verification code. SendGrid answers 202 on acceptance.
func (g *SendGridGateway) SendOTP(ctx context.Context, to, fullName, otpCode string, expiryMinutes int) error {
	payload := sendRequest{
		Personalizations: []personalization{{To: []address{{Email: to, Name: fullName}}}},
		From:             address{Email: g.config.SenderEmail, Name: g.config.SenderName},
		Subject:          fmt.Sprintf("Your %s verification code", g.config.SenderName),
		Content: []content{
			{Type: "text/plain", Value: otpText(fullName, otpCode, expiryMinutes)},
			{Type: "text/html", Value: otpHTML(fullName, otpCode, expiryMinutes)},
		},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.config.APIURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create email request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", g.config.APIKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("email sending failed with status %d", resp.StatusCode)
	}

	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && len(errResp.Errors) > 0 {
		return fmt.Errorf("email sending failed with status %d: %s", resp.StatusCode, errResp.Errors[0].Message)
	}
	return fmt.Errorf("email sending failed with status %d", resp.StatusCode)
}

// LogGateway writes codes to the log instead of sending them. Used in dev mode.
type LogGateway struct {
	logger *logrus.Logger
}

// NewLogGateway creates a gateway that only logs
func NewLogGateway(logger *logrus.Logger) *LogGateway {
	return &LogGateway{logger: logger}
}

// SendOTP logs the code
func (g *LogGateway) SendOTP(_ context.Context, to, _, otpCode string, expiryMinutes int) error {
	g.logger.WithFields(logrus.Fields{
		"to":             to,
		"otp":            otpCode,
		"expiry_minutes": expiryMinutes,
	}).Info("DEV MODE: verification email not sent")
	return nil
}

func otpText(fullName, otpCode string, expiryMinutes int) string {
	return fmt.Sprintf("Hi %s,\n\nYour verification code is %s. It expires in %d minutes.\n\nIf you did not sign up, ignore this email.",
		fullName, otpCode, expiryMinutes)
}

func otpHTML(fullName, otpCode string, expiryMinutes int) string {
	return fmt.Sprintf(`<p>Hi %s,</p><p>Your verification code is <strong style="font-size:24px;letter-spacing:4px">%s</strong>.</p><p>It expires in %d minutes.</p><p>If you did not sign up, ignore this email.</p>`,
		fullName, otpCode, expiryMinutes)
}
