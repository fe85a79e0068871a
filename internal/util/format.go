package util

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"tasteit/internal/model"
)

// NotAvailable is shown when a value could not be computed.
const NotAvailable = "N/A"

// FormatRating formats a 0-5 rating as "4.5", dropping a trailing ".0".
func FormatRating(rating float64) string {
	return formatRatingNumber(rating)
}

// FormatRatingStars formats a 0-5 rating as stars (e.g., "★★★★☆").
func FormatRatingStars(rating float64) string {
	stars := int(math.Round(rating))
	if stars < 0 {
		stars = 0
	}
	if stars > 5 {
		stars = 5
	}
	return strings.Repeat("★", stars) + strings.Repeat("☆", 5-stars)
}

// FormatCount formats a count with thousands separators.
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}

// FormatEuros renders a 1-5 price ceiling as "€€€".
func FormatEuros(level int) string {
	if level < model.MinPrice {
		level = model.MinPrice
	}
	if level > model.MaxPrice {
		level = model.MaxPrice
	}
	return strings.Repeat("€", level)
}

// FormatPriceLevel renders a provider price level (0-4) as euros.
func FormatPriceLevel(level int) string {
	return FormatEuros(level + 1)
}

// FormatCheck formats a boolean as ✅ or ❌.
func FormatCheck(v bool) string {
	if v {
		return "✅"
	}
	return "❌"
}

// FormatDistance formats meters as "850 m" or "1.2 km". The unknown-route
// sentinel renders as N/A.
func FormatDistance(meters float64) string {
	if meters < 0 || meters >= model.UnknownTravel {
		return NotAvailable
	}
	if meters < 1000 {
		return fmt.Sprintf("%d m", int(math.Round(meters)))
	}
	return formatRatingNumber(meters/1000) + " km"
}

// FormatDuration formats seconds as "12 min" or "1 h 5 min". The
// unknown-route sentinel renders as N/A.
func FormatDuration(seconds float64) string {
	if seconds < 0 || seconds >= model.UnknownTravel {
		return NotAvailable
	}
	d := time.Duration(math.Round(seconds)) * time.Second
	if d < time.Minute {
		return "< 1 min"
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h == 0 {
		return fmt.Sprintf("%d min", m)
	}
	if m == 0 {
		return fmt.Sprintf("%d h", h)
	}
	return fmt.Sprintf("%d h %d min", h, m)
}

// FormatDate formats a review date for display, or "—" if unknown.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return t.Format("Jan 02, 2006")
}

func formatRatingNumber(v float64) string {
	// Keep one decimal at most, but avoid trailing .0 for whole values.
	s := strconv.FormatFloat(v, 'f', 1, 64)
	s = strings.TrimSuffix(s, ".0")
	return s
}

// TruncateString truncates a string to maxLen and adds "..." if needed.
func TruncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
