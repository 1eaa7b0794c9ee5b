package importer

import (
	"strings"
)

// SchwabAdapter handles Charles Schwab transaction history exports
type SchwabAdapter struct {
	columnAdapter
}

// NewSchwabAdapter creates a new Schwab adapter
func NewSchwabAdapter() *SchwabAdapter {
	return &SchwabAdapter{columnAdapter{
		id:              "schwab",
		signatures:      [][]string{{"Date", "Action", "Symbol", "Description", "Quantity", "Price", "Fees & Comm"}},
		date:            []string{"Date"},
		ticker:          []string{"Symbol"},
		action:          []string{"Action"},
		quantity:        []string{"Quantity"},
		price:           []string{"Price"},
		fees:            []string{"Fees & Comm"},
		defaultCurrency: "USD",
		cleanDate:       schwabDate,
	}}
}

// schwabDate keeps the trade date of "01/02/2024 as of 01/01/2024"
func schwabDate(v string) string {
	if i := strings.Index(strings.ToLower(v), " as of "); i >= 0 {
		return strings.TrimSpace(v[:i])
	}
	return v
}
