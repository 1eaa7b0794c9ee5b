package models

// Canonical field names used by header mappings
const (
	FieldDate     = "date"
	FieldTicker   = "ticker"
	FieldAction   = "action"
	FieldQuantity = "quantity"
	FieldPrice    = "price"
	FieldCurrency = "currency"
	FieldFees     = "fees"
)

// RequiredFields lists the fields a mapping must cover, in priority order
var RequiredFields = []string{FieldDate, FieldTicker, FieldAction, FieldQuantity, FieldPrice}

// Mapping links canonical fields to source header labels
type Mapping struct {
	Date     string `json:"date,omitempty"`
	Ticker   string `json:"ticker,omitempty"`
	Action   string `json:"action,omitempty"`
	Quantity string `json:"quantity,omitempty"`
	Price    string `json:"price,omitempty"`
	Currency string `json:"currency,omitempty"`
	Fees     string `json:"fees,omitempty"`
}

// Get returns the header mapped to a canonical field
func (m *Mapping) Get(field string) string {
	switch field {
	case FieldDate:
		return m.Date
	case FieldTicker:
		return m.Ticker
	case FieldAction:
		return m.Action
	case FieldQuantity:
		return m.Quantity
	case FieldPrice:
		return m.Price
	case FieldCurrency:
		return m.Currency
	case FieldFees:
		return m.Fees
	}
	return ""
}

// Set assigns a header to a canonical field
func (m *Mapping) Set(field, header string) {
	switch field {
	case FieldDate:
		m.Date = header
	case FieldTicker:
		m.Ticker = header
	case FieldAction:
		m.Action = header
	case FieldQuantity:
		m.Quantity = header
	case FieldPrice:
		m.Price = header
	case FieldCurrency:
		m.Currency = header
	case FieldFees:
		m.Fees = header
	}
}

// Missing returns the required fields that have no header
func (m *Mapping) Missing() []string {
	var missing []string
	for _, f := range RequiredFields {
		if m.Get(f) == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

// Complete returns true if every required field is mapped
func (m *Mapping) Complete() bool {
	return len(m.Missing()) == 0
}
