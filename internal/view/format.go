package view

import (
	"math"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.Indonesian)

// DateLayout renders dates as D-Mon-YYYY.
const DateLayout = "2-Jan-2006"

// FormatCurrency renders v as Indonesian rupiah with two decimals.
func FormatCurrency(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = math.Abs(v)
	}
	return sign + "Rp " + printer.Sprintf("%.2f", v)
}

// FormatNumber renders quantities and percentages with up to two decimals.
func FormatNumber(v float64) string {
	return printer.Sprint(number.Decimal(v, number.MaxFractionDigits(2)))
}

// FormatDate renders t in UTC as D-Mon-YYYY; the zero time renders empty.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(DateLayout)
}

// FormatDateString accepts the YYYY-MM-DD values used by date inputs and
// RFC 3339 timestamps. Unparseable input is returned unchanged.
func FormatDateString(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return FormatDate(t)
		}
	}
	return s
}

type floater interface {
	Float64() float64
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case floater:
		return n.Float64()
	default:
		return 0
	}
}
