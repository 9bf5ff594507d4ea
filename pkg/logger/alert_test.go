package logger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type chanSender struct {
	sent chan string
}

func (c *chanSender) SendOpsAlert(ctx context.Context, text string) error {
	c.sent <- text
	return nil
}

func TestAlertCore_Write(t *testing.T) {
	tests := []struct {
		name     string
		level    zapcore.Level
		fields   []zap.Field
		wantSend bool
	}{
		{
			name:     "error with alert flag is forwarded",
			level:    zapcore.ErrorLevel,
			fields:   []zap.Field{zap.Bool(KeySendAlert, true), zap.String("job", "alert_rules")},
			wantSend: true,
		},
		{
			name:     "error without alert flag stays local",
			level:    zapcore.ErrorLevel,
			fields:   []zap.Field{zap.String("job", "alert_rules")},
			wantSend: false,
		},
		{
			name:     "warn below threshold stays local",
			level:    zapcore.WarnLevel,
			fields:   []zap.Field{zap.Bool(KeySendAlert, true)},
			wantSend: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obsCore, logs := observer.New(zapcore.DebugLevel)
			sender := &chanSender{sent: make(chan string, 1)}
			log := zap.New(NewAlertCore(obsCore, sender, zapcore.ErrorLevel))

			if ce := log.Check(tt.level, "job failed"); ce != nil {
				ce.Write(tt.fields...)
			}

			assert.Equal(t, 1, logs.Len())
			select {
			case msg := <-sender.sent:
				require.True(t, tt.wantSend, "unexpected alert: %s", msg)
				assert.Contains(t, msg, "job failed")
				assert.Contains(t, msg, "alert_rules")
				assert.NotContains(t, msg, KeySendAlert)
			case <-time.After(200 * time.Millisecond):
				assert.False(t, tt.wantSend, "expected alert to be sent")
			}
		})
	}
}

func TestFormatAlertMessage_EscapesHTML(t *testing.T) {
	entry := zapcore.Entry{Level: zapcore.ErrorLevel, Message: "bad <input>", Time: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}
	msg := FormatAlertMessage(entry, []zapcore.Field{zap.String("symbol", "A&B")})

	assert.Contains(t, msg, "bad &lt;input&gt;")
	assert.Contains(t, msg, "symbol: A&amp;B")
	assert.Contains(t, msg, "2024-01-02 03:04:05 UTC")
}
