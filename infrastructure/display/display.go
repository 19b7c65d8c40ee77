// Package display turns queue values into the strings shown on screens.
package display

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/dustin/go-humanize"
)

const (
	// DefaultServiceLabel is shown for service codes nobody recognises.
	DefaultServiceLabel = "General Service"

	maxWait      = 240 * time.Minute
	clockLayout  = "Monday, January 2, 2006 - 15:04:05"
	unknownToken = "T???"
)

// ProgressPercent is a presentation heuristic for the token progress bar. The
// backend does not report a queue total per token, so a synthetic total of
// max(position+5, 10) is used and the result is kept between 10 and 90.
func ProgressPercent(position int) int {
	if position < 0 {
		position = 0
	}
	total := position + 5
	if total < 10 {
		total = 10
	}
	pct := (total - position) * 100 / total
	switch {
	case pct < 10:
		return 10
	case pct > 90:
		return 90
	}
	return pct
}

// FormatWait renders a wait estimate as "45m", "2h 5m" or "4h".
func FormatWait(d time.Duration) string {
	if d <= 0 {
		return "0m"
	}
	if d > maxWait {
		d = maxWait
	}
	minutes := int(d.Round(time.Minute) / time.Minute)
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	h, m := minutes/60, minutes%60
	if m == 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}

// ShortToken abbreviates a token number for large displays.
// "QT-20250929-0002" becomes "T002"; tokens without a hyphen are unchanged.
func ShortToken(token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return unknownToken
	}
	idx := strings.LastIndex(token, "-")
	if idx < 0 {
		return token
	}
	last := token[idx+1:]
	if last == "" {
		return unknownToken
	}
	if !isDigits(last) {
		return last
	}
	if len(last) > 3 {
		last = last[len(last)-3:]
	}
	return "T" + last
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

var serviceLabels = map[string]string{
	"new_connection":  "New Connections",
	"new_connections": "New Connections",
	"newconnection":   "New Connections",
	"newconnections":  "New Connections",
	"connection":      "New Connections",

	"bill_payment":  "Bill Payments",
	"bill_payments": "Bill Payments",
	"billpayment":   "Bill Payments",
	"billpayments":  "Bill Payments",
	"payment":       "Bill Payments",
	"payments":      "Bill Payments",

	"technical_support": "Technical Support",
	"technicalsupport":  "Technical Support",
	"tech_support":      "Technical Support",
	"techsupport":       "Technical Support",
	"support":           "Technical Support",

	"account_services": "Account Services",
	"account_service":  "Account Services",
	"account_update":   "Account Services",
	"accountservices":  "Account Services",
	"accountupdate":    "Account Services",
	"account":          "Account Services",

	"device_sim_issues": "Device/SIM Issues",
	"device_sim":        "Device/SIM Issues",
	"devicesimissues":   "Device/SIM Issues",
	"sim_issues":        "Device/SIM Issues",
	"device_issues":     "Device/SIM Issues",
}

// ServiceLabel maps the many spellings of a service code to one display label.
func ServiceLabel(code string) string {
	key := strings.ToLower(strings.TrimSpace(code))
	if key == "" {
		return DefaultServiceLabel
	}
	key = strings.NewReplacer("-", "_", " ", "_", "/", "_").Replace(key)
	if label, ok := serviceLabels[key]; ok {
		return label
	}
	if label, ok := serviceLabels[strings.ReplaceAll(key, "_", "")]; ok {
		return label
	}

	switch {
	case strings.Contains(key, "connection"):
		return "New Connections"
	case strings.Contains(key, "bill"), strings.Contains(key, "payment"):
		return "Bill Payments"
	case strings.Contains(key, "tech"), strings.Contains(key, "support"):
		return "Technical Support"
	case strings.Contains(key, "account"):
		return "Account Services"
	case strings.Contains(key, "device"), strings.Contains(key, "sim"), strings.Contains(key, "mobile"):
		return "Device/SIM Issues"
	}
	return DefaultServiceLabel
}

// FormatClock is the status board header clock.
func FormatClock(t time.Time) string {
	return t.Format(clockLayout)
}

// Ago renders "3 seconds ago" style labels; the zero time renders as "never".
func Ago(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}
