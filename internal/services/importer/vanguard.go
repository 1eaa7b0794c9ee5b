package importer

// VanguardAdapter handles Vanguard brokerage transaction downloads
type VanguardAdapter struct {
	columnAdapter
}

// NewVanguardAdapter creates a new Vanguard adapter
func NewVanguardAdapter() *VanguardAdapter {
	return &VanguardAdapter{columnAdapter{
		id:              "vanguard",
		signatures:      [][]string{{"Trade Date", "Transaction Type", "Investment Name", "Symbol", "Shares", "Share Price"}},
		date:            []string{"Trade Date"},
		ticker:          []string{"Symbol", "Investment Name"},
		action:          []string{"Transaction Type"},
		quantity:        []string{"Shares"},
		price:           []string{"Share Price"},
		fees:            []string{"Commissions and Fees", "Commission Fees"},
		defaultCurrency: "USD",
		signedQty:       true,
	}}
}
