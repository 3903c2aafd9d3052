package config

import "time"

// Email providers.
const (
	ProviderConsole = "console"
	ProviderSES     = "ses"
)

// NotifxConfig configures OTP email delivery.
type NotifxConfig struct {
	Provider    string        `env:"PROVIDER" envDefault:"console"`
	FromAddress string        `env:"FROM_ADDRESS" envDefault:"noreply@otpauth.local"`
	Subject     string        `env:"SUBJECT" envDefault:"Your sign-in code"`
	AWSRegion   string        `env:"AWS_REGION" envDefault:"us-east-1"`
	ConfigSet   string        `env:"SES_CONFIGURATION_SET"`
	SendTimeout time.Duration `env:"SEND_TIMEOUT" envDefault:"10s"`
}
