package services

import "strings"

// currencySymbols maps target countries onto the symbol used for price ranges.
var currencySymbols = map[string]string{
	"united states":  "$",
	"usa":            "$",
	"united kingdom": "£",
	"uk":             "£",
	"germany":        "€",
	"france":         "€",
	"canada":         "C$",
	"australia":      "A$",
	"japan":          "¥",
	"south korea":    "₩",
	"turkey":         "₺",
	"türkiye":        "₺",
	"brazil":         "R$",
}

var knownSymbols = []string{"$", "£", "€", "¥", "₩", "₺", "R$", "TL", "USD", "EUR", "GBP"}

// FormatCurrencyRange prefixes a price range with the target country's
// currency symbol unless it already carries one. Unknown countries get "$".
func FormatCurrencyRange(priceRange, country string) string {
	priceRange = strings.TrimSpace(priceRange)
	if priceRange == "" {
		return ""
	}
	for _, s := range knownSymbols {
		if strings.Contains(priceRange, s) {
			return priceRange
		}
	}

	symbol, ok := currencySymbols[strings.ToLower(strings.TrimSpace(country))]
	if !ok {
		symbol = "$"
	}
	return symbol + priceRange
}
