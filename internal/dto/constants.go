package dto

// History ranges accepted by the stock and portfolio history endpoints.
const (
	Range1Day   = "1d"
	Range5Day   = "5d"
	Range1Month = "1mo"
	Range3Month = "3mo"
	RangeYTD    = "ytd"
	Range1Year  = "1y"
	RangeMax    = "max"
)

const (
	Interval5Min  = "5m"
	Interval15Min = "15m"
	Interval1Day  = "1d"
	Interval1Mo   = "1mo"
)

func IsValidRange(r string) bool {
	switch r {
	case Range1Day, Range5Day, Range1Month, Range3Month, RangeYTD, Range1Year, RangeMax:
		return true
	}
	return false
}

const (
	DefaultAlertLimit = 50
	MaxAlertLimit     = 200
	DefaultJobRuns    = 20
)
