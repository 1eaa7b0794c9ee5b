package importer

// FidelityAdapter handles Fidelity account history exports.
// Sells carry a negative quantity and an action like "YOU SOLD APPLE INC (AAPL)".
type FidelityAdapter struct {
	columnAdapter
}

// NewFidelityAdapter creates a new Fidelity adapter
func NewFidelityAdapter() *FidelityAdapter {
	return &FidelityAdapter{columnAdapter{
		id:              "fidelity",
		signatures:      [][]string{{"Run Date", "Action", "Symbol", "Price ($)"}},
		date:            []string{"Run Date"},
		ticker:          []string{"Symbol"},
		action:          []string{"Action"},
		quantity:        []string{"Quantity"},
		price:           []string{"Price ($)"},
		fees:            []string{"Commission ($)", "Fees ($)"},
		defaultCurrency: "USD",
		signedQty:       true,
	}}
}
