package notify

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amitbh/stockscope/internal/triggers"
	"github.com/amitbh/stockscope/pkg/config"
	"github.com/amitbh/stockscope/pkg/logger"
)

type fakeSender struct {
	to      []string
	subject string
	body    string
	calls   int
	err     error
}

func (f *fakeSender) Send(to []string, subject, body string) error {
	f.calls++
	f.to, f.subject, f.body = to, subject, body
	return f.err
}

func digestConfig() *config.Config {
	return &config.Config{
		SMTP: config.SMTPConfig{To: "one@example.com, two@example.com"},
	}
}

func TestSendAlerts(t *testing.T) {
	sender := &fakeSender{}
	digest := NewDigest(sender, digestConfig(), logger.Nop())

	alerts := []triggers.Alert{
		{Ticker: "INFY", Company: "Infosys Limited", Trigger: "20 EMA and 50 SMA", Detail: "spread 1.40%"},
		{Ticker: "TCS", Company: "TCS Limited", Trigger: "Near 52 Week High", Detail: "current diff: -0.80%"},
	}

	require.NoError(t, digest.SendAlerts(alerts))
	require.Equal(t, 1, sender.calls)

	assert.Equal(t, []string{"one@example.com", "two@example.com"}, sender.to)
	assert.Contains(t, sender.subject, "2 position(s)")
	assert.Contains(t, sender.body, "INFY")
	assert.Contains(t, sender.body, "Near 52 Week High")
}

func TestSendAlertsEmptyIsSilent(t *testing.T) {
	sender := &fakeSender{}
	digest := NewDigest(sender, digestConfig(), logger.Nop())

	require.NoError(t, digest.SendAlerts(nil))
	assert.Equal(t, 0, sender.calls, "no alerts means no email")
}

func TestSendAlertsPropagatesSenderError(t *testing.T) {
	sender := &fakeSender{err: errors.New("smtp down")}
	digest := NewDigest(sender, digestConfig(), logger.Nop())

	err := digest.SendAlerts([]triggers.Alert{{Ticker: "INFY", Trigger: "x"}})
	assert.Error(t, err)
}

func TestFormatAlertsAligned(t *testing.T) {
	body := FormatAlerts([]triggers.Alert{
		{Ticker: "INFY", Trigger: "20 EMA and 50 SMA"},
		{Ticker: "RELIANCE", Trigger: "Downtrend after high", Detail: "x"},
	})

	lines := strings.Split(strings.TrimRight(body, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "TICKER"))

	// Trigger column starts at the same offset on every line
	offset := strings.Index(lines[0], "TRIGGER")
	assert.Equal(t, "20 EMA and 50 SMA", lines[1][offset:offset+len("20 EMA and 50 SMA")])
}
