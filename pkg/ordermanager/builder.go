// Package ordermanager provides a fluent builder for order requests. The
// builder accumulates the first error and validates the assembled request
// on Build, so call sites stay readable without sprinkling parse checks.
package ordermanager

import (
	"fmt"

	"github.com/cockroachdb/apd/v3"

	"uexgo/pkg/core"
	"uexgo/pkg/exchange"
)

// OrderBuilder constructs a validated exchange.OrderRequest.
//
// Example:
//
//	req, err := ordermanager.NewOrderBuilder("ETH/BTC").
//	    Buy().
//	    Limit().
//	    Price("0.058").
//	    Amount("2.5").
//	    Build()
type OrderBuilder struct {
	req *exchange.OrderRequest
	err error
}

// NewOrderBuilder creates a builder for the given canonical symbol.
func NewOrderBuilder(symbol string) *OrderBuilder {
	return &OrderBuilder{
		req: &exchange.OrderRequest{Symbol: symbol},
	}
}

// Side sets the order side.
func (b *OrderBuilder) Side(side core.OrderSide) *OrderBuilder {
	if b.err != nil {
		return b
	}
	b.req.Side = side
	return b
}

// Buy sets the order side to buy.
func (b *OrderBuilder) Buy() *OrderBuilder {
	return b.Side(core.SideBuy)
}

// Sell sets the order side to sell.
func (b *OrderBuilder) Sell() *OrderBuilder {
	return b.Side(core.SideSell)
}

// Type sets the order type.
func (b *OrderBuilder) Type(orderType core.OrderType) *OrderBuilder {
	if b.err != nil {
		return b
	}
	b.req.Type = orderType
	return b
}

// Market sets the order type to market.
func (b *OrderBuilder) Market() *OrderBuilder {
	return b.Type(core.TypeMarket)
}

// Limit sets the order type to limit.
func (b *OrderBuilder) Limit() *OrderBuilder {
	return b.Type(core.TypeLimit)
}

// Price sets the limit price from a string representation.
func (b *OrderBuilder) Price(price string) *OrderBuilder {
	if b.err != nil {
		return b
	}
	if _, _, err := b.req.Price.SetString(price); err != nil {
		b.err = fmt.Errorf("parse price: %w", err)
	}
	return b
}

// PriceDecimal sets the limit price from an apd.Decimal value.
func (b *OrderBuilder) PriceDecimal(price apd.Decimal) *OrderBuilder {
	if b.err != nil {
		return b
	}
	b.req.Price.Set(&price)
	return b
}

// Amount sets the order amount from a string representation.
func (b *OrderBuilder) Amount(amount string) *OrderBuilder {
	if b.err != nil {
		return b
	}
	if _, _, err := b.req.Amount.SetString(amount); err != nil {
		b.err = fmt.Errorf("parse amount: %w", err)
	}
	return b
}

// AmountDecimal sets the order amount from an apd.Decimal value.
func (b *OrderBuilder) AmountDecimal(amount apd.Decimal) *OrderBuilder {
	if b.err != nil {
		return b
	}
	b.req.Amount.Set(&amount)
	return b
}

// Build validates and returns the constructed order request. It returns an
// error if any required field is missing or invalid.
func (b *OrderBuilder) Build() (*exchange.OrderRequest, error) {
	if b.err != nil {
		return nil, b.err
	}
	if err := validateRequest(b.req); err != nil {
		return nil, err
	}
	return b.req, nil
}

func validateRequest(req *exchange.OrderRequest) error {
	if req.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}

	if req.Amount.IsZero() || req.Amount.Negative {
		return fmt.Errorf("amount must be positive")
	}

	if req.Type == core.TypeLimit && (req.Price.IsZero() || req.Price.Negative) {
		return fmt.Errorf("price must be positive for limit orders")
	}

	if req.Side != core.SideBuy && req.Side != core.SideSell {
		return fmt.Errorf("invalid order side")
	}

	if req.Type != core.TypeLimit && req.Type != core.TypeMarket {
		return fmt.Errorf("invalid order type")
	}

	return nil
}
