package logger

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
)

// KeySendAlert marks a log entry for the operator alert channel.
const KeySendAlert = "send_alert"

// AlertSender delivers an operator alert, typically to a Telegram chat.
type AlertSender interface {
	SendOpsAlert(ctx context.Context, text string) error
}

// AlertCore tees entries at or above minLevel that carry KeySendAlert=true to an AlertSender.
type AlertCore struct {
	core     zapcore.Core
	sender   AlertSender
	minLevel zapcore.Level
	timeout  time.Duration
}

func NewAlertCore(core zapcore.Core, sender AlertSender, minLevel zapcore.Level) *AlertCore {
	return &AlertCore{
		core:     core,
		sender:   sender,
		minLevel: minLevel,
		timeout:  10 * time.Second,
	}
}

func (a *AlertCore) Enabled(lvl zapcore.Level) bool {
	return a.core.Enabled(lvl)
}

func (a *AlertCore) With(fields []zapcore.Field) zapcore.Core {
	return &AlertCore{
		core:     a.core.With(fields),
		sender:   a.sender,
		minLevel: a.minLevel,
		timeout:  a.timeout,
	}
}

func (a *AlertCore) Check(entry zapcore.Entry, checkedEntry *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if a.Enabled(entry.Level) {
		return checkedEntry.AddCore(entry, a)
	}
	return checkedEntry
}

func (a *AlertCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	if entry.Level >= a.minLevel && shouldSendAlert(fields) {
		message := FormatAlertMessage(entry, fields)
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
			defer cancel()
			_ = a.sender.SendOpsAlert(ctx, message)
		}()
	}
	return a.core.Write(entry, fields)
}

func (a *AlertCore) Sync() error {
	return a.core.Sync()
}

func shouldSendAlert(fields []zapcore.Field) bool {
	for _, f := range fields {
		if f.Key == KeySendAlert && f.Type == zapcore.BoolType && f.Integer == 1 {
			return true
		}
	}
	return false
}

// FormatAlertMessage renders an entry and its fields as an HTML Telegram message.
func FormatAlertMessage(entry zapcore.Entry, fields []zapcore.Field) string {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		if f.Key == KeySendAlert {
			continue
		}
		f.AddTo(enc)
	}

	keys := make([]string, 0, len(enc.Fields))
	for k := range enc.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "🚨 <b>%s Alert</b>\n\n<b>Message:</b> %s\n", entry.Level.CapitalString(), html.EscapeString(entry.Message))
	if len(keys) > 0 {
		b.WriteString("\n<b>Fields:</b>\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "• %s: %s\n", k, html.EscapeString(fmt.Sprint(enc.Fields[k])))
		}
	}
	fmt.Fprintf(&b, "\n<b>Time:</b> %s", entry.Time.UTC().Format("2006-01-02 15:04:05 MST"))
	return b.String()
}
