package models

import (
	"github.com/shopspring/decimal"
)

// RealizedPL is the FIFO realized profit/loss for one ticker
type RealizedPL struct {
	Ticker       string          `json:"ticker"`
	RealizedBase decimal.Decimal `json:"realizedBase"`
	FeesBase     decimal.Decimal `json:"feesBase"`
	Explain      []string        `json:"explain"`
}

// Net returns realized P&L after fees
func (r *RealizedPL) Net() decimal.Decimal {
	return r.RealizedBase.Sub(r.FeesBase)
}
