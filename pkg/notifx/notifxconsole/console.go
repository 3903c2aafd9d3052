package notifxconsole

import (
	"context"
	"strings"

	"github.com/Abraxas-365/otpauth/pkg/logx"
	"github.com/Abraxas-365/otpauth/pkg/notifx"
)

// ConsoleProvider prints emails through logx instead of sending them.
// Intended for development: the text body, and so the code, is logged at info.
type ConsoleProvider struct {
	logger *logx.Logger
}

// NewConsoleProvider logs through logger, or the default logger when nil.
func NewConsoleProvider(logger *logx.Logger) *ConsoleProvider {
	return &ConsoleProvider{logger: logger}
}

// SendEmail logs the email details instead of sending it.
func (p *ConsoleProvider) SendEmail(_ context.Context, msg notifx.EmailMessage, opts ...notifx.Option) error {
	logger := p.logger
	if logger == nil {
		logger = logx.GetDefaultLogger()
	}
	so := notifx.ApplySendOptions(opts)

	fields := logx.Fields{
		"from":    msg.From,
		"to":      strings.Join(msg.To, ", "),
		"subject": msg.Subject,
		"body":    msg.TextBody,
	}
	for k, v := range so.Tags {
		fields["tag."+k] = v
	}
	logger.WithFields(fields).Info("notifx/console: email sent (dev mode)")

	if msg.HTMLBody != "" {
		logger.WithField("html", msg.HTMLBody).Debug("notifx/console: html body")
	}

	return nil
}
