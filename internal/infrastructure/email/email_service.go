package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"

	"github.com/reviewdeck/reviewdeck/internal/core/ports"
)

// EmailConfig holds email service configuration
type EmailConfig struct {
	SendGridAPIKey string
	FromEmail      string
	FromName       string
	CompanyName    string
	BaseURL        string
}

// EmailService implements the EmailService interface
type EmailService struct {
	config   *EmailConfig
	logger   *logrus.Logger
	client   *sendgrid.Client
	verified *template.Template
}

const verificationTemplate = `<html>
<body>
	<p>Hi {{.BusinessName}},</p>
	<p>Welcome to {{.CompanyName}}. Please confirm your email address to activate your account:</p>
	<p><a href="{{.VerificationURL}}">Verify my email</a></p>
	<p>If you did not sign up, you can safely ignore this message.</p>
</body>
</html>`

// NewEmailService creates a new email service instance
func NewEmailService(config *EmailConfig, logger *logrus.Logger) (ports.EmailService, error) {
	client := sendgrid.NewSendClient(config.SendGridAPIKey)

	tmpl, err := template.New("verification").Parse(verificationTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse verification template: %w", err)
	}

	return &EmailService{
		config:   config,
		logger:   logger,
		client:   client,
		verified: tmpl,
	}, nil
}

// sendEmail sends an email using SendGrid
func (e *EmailService) sendEmail(to, subject, htmlContent string) error {
	from := mail.NewEmail(e.config.FromName, e.config.FromEmail)
	recipient := mail.NewEmail("", to)

	message := mail.NewSingleEmail(from, subject, recipient, "", htmlContent)

	response, err := e.client.Send(message)
	if err != nil {
		e.logger.WithFields(logrus.Fields{
			"to":      to,
			"subject": subject,
			"error":   err,
		}).Error("Failed to send email")
		return fmt.Errorf("failed to send email: %w", err)
	}

	e.logger.WithFields(logrus.Fields{
		"to":          to,
		"subject":     subject,
		"status_code": response.StatusCode,
	}).Info("Email sent successfully")

	return nil
}

// VerificationEmailData holds data for the email verification template
type VerificationEmailData struct {
	CompanyName     string
	BusinessName    string
	VerificationURL string
}

// SendVerificationEmail sends an email verification email
func (e *EmailService) SendVerificationEmail(ctx context.Context, email, token, businessName string) error {
	data := VerificationEmailData{
		CompanyName:     e.config.CompanyName,
		BusinessName:    businessName,
		VerificationURL: fmt.Sprintf("%s/api/v1/auth/verify-email?token=%s", e.config.BaseURL, token),
	}

	var buf bytes.Buffer
	if err := e.verified.Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to render verification email template: %w", err)
	}

	subject := fmt.Sprintf("Verify Your Email Address - %s", e.config.CompanyName)

	return e.sendEmail(email, subject, buf.String())
}
