package notify

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/amitbh/stockscope/internal/triggers"
	"github.com/amitbh/stockscope/pkg/config"
	"github.com/amitbh/stockscope/pkg/logger"
)

// Sender delivers a composed message. The SMTP implementation is the only
// production one; tests substitute a recording fake.
type Sender interface {
	Send(to []string, subject, body string) error
}

// SMTPSender sends mail over plain-auth SMTP.
type SMTPSender struct {
	host     string
	port     string
	username string
	password string
	from     string
}

// NewSMTPSender creates a sender from config.
func NewSMTPSender(cfg *config.Config) *SMTPSender {
	return &SMTPSender{
		host:     cfg.SMTP.Host,
		port:     cfg.SMTP.Port,
		username: cfg.SMTP.User,
		password: cfg.SMTP.Password,
		from:     cfg.SMTP.From,
	}
}

// Send delivers one message to all recipients.
func (s *SMTPSender) Send(to []string, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + s.from,
		"To: " + strings.Join(to, ", "),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")

	addr := s.host + ":" + s.port
	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	if err := smtp.SendMail(addr, auth, s.from, to, []byte(msg)); err != nil {
		return fmt.Errorf("send mail via %s: %w", addr, err)
	}
	return nil
}

// Digest composes and sends the sell-trigger digest email.
type Digest struct {
	sender Sender
	to     []string
	logger *logger.Logger
}

// NewDigest creates a digest notifier. Recipients come from the
// comma-separated SMTP_TO value.
func NewDigest(sender Sender, cfg *config.Config, log *logger.Logger) *Digest {
	var to []string
	for _, addr := range strings.Split(cfg.SMTP.To, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			to = append(to, addr)
		}
	}
	return &Digest{sender: sender, to: to, logger: log}
}

// SendAlerts formats the alerts as a text table and mails them. No alerts
// means no email; silence is the steady-state signal.
func (d *Digest) SendAlerts(alerts []triggers.Alert) error {
	if len(alerts) == 0 {
		d.logger.Debug("No sell triggers fired, skipping digest")
		return nil
	}

	subject := fmt.Sprintf("Sell triggers: %d position(s) flagged", len(alerts))
	if err := d.sender.Send(d.to, subject, FormatAlerts(alerts)); err != nil {
		return fmt.Errorf("send digest: %w", err)
	}

	d.logger.WithFields(map[string]interface{}{
		"alerts":     len(alerts),
		"recipients": len(d.to),
	}).Info("Sell-trigger digest sent")
	return nil
}

// FormatAlerts renders alerts as an aligned plain-text table.
func FormatAlerts(alerts []triggers.Alert) string {
	tickerWidth, triggerWidth := len("TICKER"), len("TRIGGER")
	for _, a := range alerts {
		if len(a.Ticker) > tickerWidth {
			tickerWidth = len(a.Ticker)
		}
		if len(a.Trigger) > triggerWidth {
			triggerWidth = len(a.Trigger)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-*s  %-*s  %s\n", tickerWidth, "TICKER", triggerWidth, "TRIGGER", "DETAIL")
	for _, a := range alerts {
		fmt.Fprintf(&b, "%-*s  %-*s  %s\n", tickerWidth, a.Ticker, triggerWidth, a.Trigger, a.Detail)
	}
	return b.String()
}
