package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrMissingTicker = errors.New("ticker is required")
	ErrMissingDate   = errors.New("date is required")
	ErrNonPositive   = errors.New("quantity and price must be positive")
	ErrNegativeFees  = errors.New("fees must not be negative")
	ErrBadTradeType  = errors.New("trade type must be BUY or SELL")
	ErrBadRawHash    = errors.New("raw hash must be 64 hex characters")
)

// TradeType is the direction of a normalized trade
type TradeType string

const (
	TradeBuy  TradeType = "BUY"
	TradeSell TradeType = "SELL"
)

// AllTradeTypes returns all valid trade types for iteration
func AllTradeTypes() []TradeType {
	return []TradeType{TradeBuy, TradeSell}
}

// Valid reports whether t is BUY or SELL
func (t TradeType) Valid() bool {
	return t == TradeBuy || t == TradeSell
}

// DisplayName returns human-readable name for the trade type
func (t TradeType) DisplayName() string {
	switch t {
	case TradeBuy:
		return "Buy"
	case TradeSell:
		return "Sell"
	default:
		return string(t)
	}
}

// Trade is the canonical record every broker row is normalized into
type Trade struct {
	Date     time.Time       `json:"date"`
	Ticker   string          `json:"ticker"`
	Type     TradeType       `json:"type"`
	Qty      decimal.Decimal `json:"qty"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency,omitempty"`
	Fees     decimal.Decimal `json:"fees"`
	Source   string          `json:"source"` // adapter id, e.g. "trading212", "generic"
	RawHash  string          `json:"rawHash"`
}

// Validate checks the canonical trade invariants
func (t *Trade) Validate() error {
	if t.Date.IsZero() {
		return ErrMissingDate
	}
	if t.Ticker == "" {
		return ErrMissingTicker
	}
	if !t.Type.Valid() {
		return ErrBadTradeType
	}
	if !t.Qty.IsPositive() || !t.Price.IsPositive() {
		return ErrNonPositive
	}
	if t.Fees.IsNegative() {
		return ErrNegativeFees
	}
	if !isHex64(t.RawHash) {
		return ErrBadRawHash
	}
	return nil
}

// Value returns the gross value of the trade (qty * price)
func (t *Trade) Value() decimal.Decimal {
	return t.Qty.Mul(t.Price)
}

// IsBuy returns true for opening trades
func (t *Trade) IsBuy() bool {
	return t.Type == TradeBuy
}

func isHex64(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
