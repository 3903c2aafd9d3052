package notifx

import (
	"context"
	"time"
)

// Template names registered by NewOTPMailer.
const (
	TemplateOTPHTML = "otp_code_html"
	TemplateOTPText = "otp_code_text"
)

const defaultOTPHTML = `<p>Your sign-in code is</p>
<p style="font-size:28px;letter-spacing:6px"><strong>{{.Code}}</strong></p>
<p>It expires in {{.ValidFor}}. If you did not request it, ignore this email.</p>`

const defaultOTPText = `Your sign-in code is {{.Code}}.
It expires in {{.ValidFor}}. If you did not request it, ignore this email.`

// OTPMailConfig configures the OTP email.
type OTPMailConfig struct {
	From     string
	Subject  string
	ValidFor time.Duration
	ConfigID string

	// Optional template overrides.
	HTMLTemplate string
	TextTemplate string
}

// OTPMailer delivers one-time codes by email. It satisfies the
// authsession Delivery port.
type OTPMailer struct {
	client *Client
	cfg    OTPMailConfig
}

type otpTemplateData struct {
	Identifier string
	Code       string
	ValidFor   string
}

// NewOTPMailer registers the OTP templates on client.
func NewOTPMailer(client *Client, cfg OTPMailConfig) (*OTPMailer, error) {
	if cfg.Subject == "" {
		cfg.Subject = "Your sign-in code"
	}
	if cfg.HTMLTemplate == "" {
		cfg.HTMLTemplate = defaultOTPHTML
	}
	if cfg.TextTemplate == "" {
		cfg.TextTemplate = defaultOTPText
	}

	if err := client.RegisterTemplate(TemplateOTPHTML, cfg.HTMLTemplate); err != nil {
		return nil, err
	}
	if err := client.RegisterTemplate(TemplateOTPText, cfg.TextTemplate); err != nil {
		return nil, err
	}

	return &OTPMailer{client: client, cfg: cfg}, nil
}

// DeliverOTP renders and sends the code to identifier.
func (m *OTPMailer) DeliverOTP(ctx context.Context, identifier, code string) error {
	data := otpTemplateData{
		Identifier: identifier,
		Code:       code,
		ValidFor:   m.cfg.ValidFor.Round(time.Second).String(),
	}

	html, err := m.client.Render(TemplateOTPHTML, data)
	if err != nil {
		return err
	}
	text, err := m.client.Render(TemplateOTPText, data)
	if err != nil {
		return err
	}

	opts := []Option{WithTags(map[string]string{"purpose": "otp"})}
	if m.cfg.ConfigID != "" {
		opts = append(opts, WithConfigID(m.cfg.ConfigID))
	}

	return m.client.SendEmail(ctx, EmailMessage{
		From:     m.cfg.From,
		To:       []string{identifier},
		Subject:  m.cfg.Subject,
		TextBody: text,
		HTMLBody: html,
	}, opts...)
}
