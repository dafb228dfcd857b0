package http

import (
	"strings"

	"expenseadvisor/internal/core"
)

// lineBreaks folds line breaks and tabs into single spaces; every input is
// a single-line field.
var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ", "\t", " ")

// sanitizeInput flattens line breaks, drops other control characters and
// trims whitespace.
func sanitizeInput(s string) string {
	s = lineBreaks.Replace(s)
	s = strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// formatMoney prefixes the two-decimal amount with the currency symbol,
// e.g. "₹250.00" or "₹-50.00".
func formatMoney(symbol string, m core.Money) string {
	return symbol + m.String()
}

// routeLabel maps a request path to a bounded set of metric labels.
func routeLabel(path string) string {
	switch path {
	case "/", "/expenses", "/settings", "/ui/ledger", "/ui/summary", "/ui/charts",
		"/export.csv", "/healthz", "/readyz", "/metrics":
		return path
	}
	if strings.HasPrefix(path, "/static/") {
		return "/static/"
	}
	return "other"
}
