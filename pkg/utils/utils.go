package utils

import (
	"context"
	"regexp"
	"runtime"
	"strings"

	"golang-stock-tracker/pkg/logger"
)

var symbolPattern = regexp.MustCompile(`^\^?[A-Z0-9][A-Z0-9.\-=]{0,11}$`)

// NormalizeSymbol trims and upper-cases a ticker symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// IsValidSymbolFormat reports whether a normalized symbol looks like a ticker
// (letters, digits and the . - ^ = separators used by index and class symbols).
func IsValidSymbolFormat(symbol string) bool {
	return symbolPattern.MatchString(symbol)
}

// GoSafe runs the given function in a new goroutine and recovers from any panic.
func GoSafe(log *logger.Logger, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("Panic recovered in goroutine", logger.Field("panic", r))
			}
		}()
		fn()
	}()
}

func ToPointer[T any](value T) *T {
	return &value
}

func ShouldContinue(ctx context.Context, log *logger.Logger) bool {
	select {
	case <-ctx.Done():
		pc, _, _, ok := runtime.Caller(1)
		funcName := "unknown"
		if ok {
			fn := runtime.FuncForPC(pc)
			if fn != nil {
				parts := strings.Split(fn.Name(), "/")
				funcName = parts[len(parts)-1]
			}
		}

		log.Warn("Context cancelled",
			logger.StringField("caller", funcName),
		)
		return false
	default:
		return true
	}
}
