package mailer

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildMessage(t *testing.T) {
	date := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	msg := string(BuildMessage("alerts@example.com", "user@example.com", "Stock Alert: AAPL rose 5.25%", "<p>hi</p>", date))

	headers, body, found := strings.Cut(msg, "\r\n\r\n")
	assert.True(t, found)
	assert.Equal(t, "<p>hi</p>", body)
	assert.Contains(t, headers, "From: alerts@example.com\r\n")
	assert.Contains(t, headers, "To: user@example.com\r\n")
	assert.Contains(t, headers, "Subject: Stock Alert: AAPL rose 5.25%\r\n")
	assert.Contains(t, headers, "Content-Type: text/html; charset=\"UTF-8\"")
	assert.Contains(t, headers, "Date: Wed, 01 May 2024 09:30:00 +0000")
}
