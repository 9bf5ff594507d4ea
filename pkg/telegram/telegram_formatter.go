package telegram

import (
	"fmt"
	"html"
	"math"
	"strings"
	"time"
)

// PriceAlert is the content of a triggered price alert.
type PriceAlert struct {
	Symbol        string
	Message       string
	Reason        string
	Priority      string
	Price         float64
	Change        float64
	ChangePercent float64
	Time          time.Time
}

// FormatPriceAlert renders a price alert as Telegram HTML.
func FormatPriceAlert(a PriceAlert) string {
	arrow := "🔺"
	if a.Change < 0 {
		arrow = "🔻"
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("🔔 <b>%s</b> [%s]\n", html.EscapeString(a.Symbol), html.EscapeString(a.Priority)))
	builder.WriteString(html.EscapeString(a.Message) + "\n\n")
	builder.WriteString(fmt.Sprintf("💰 Price: <b>$%.2f</b>\n", a.Price))
	builder.WriteString(fmt.Sprintf("%s Change: %.2f (%.2f%%)\n", arrow, math.Abs(a.Change), math.Abs(a.ChangePercent)))
	if a.Reason != "" {
		builder.WriteString(fmt.Sprintf("📄 <i>%s</i>\n", html.EscapeString(a.Reason)))
	}
	builder.WriteString(a.Time.UTC().Format("2006-01-02 15:04:05 UTC"))
	return builder.String()
}
