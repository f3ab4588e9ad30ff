package core

import (
	"time"

	"github.com/cockroachdb/apd/v3"
)

// OrderSide represents the direction of an order (buy or sell).
type OrderSide int

// Order side constants define the direction of a trade.
const (
	// SideBuy indicates an order to purchase an asset.
	SideBuy OrderSide = iota
	// SideSell indicates an order to sell an asset.
	SideSell
)

// String returns the string representation of the order side ("buy" or "sell").
func (s OrderSide) String() string {
	return [...]string{"buy", "sell"}[s]
}

// MarshalJSON implements json.Marshaler for OrderSide.
func (s OrderSide) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for OrderSide.
// It accepts both uppercase and lowercase formats.
func (s *OrderSide) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"BUY"`, `"buy"`:
		*s = SideBuy
	case `"SELL"`, `"sell"`:
		*s = SideSell
	}
	return nil
}

// OrderType represents the type of order to place on an exchange.
type OrderType int

// Order type constants define how an order is executed.
const (
	// TypeLimit executes at a specified price or better.
	TypeLimit OrderType = iota
	// TypeMarket executes immediately at the best available price.
	TypeMarket
)

// String returns the string representation of the order type.
func (t OrderType) String() string {
	return [...]string{"limit", "market"}[t]
}

// MarshalJSON implements json.Marshaler for OrderType.
func (t OrderType) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for OrderType.
// It accepts both uppercase and lowercase formats.
func (t *OrderType) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"LIMIT"`, `"limit"`:
		*t = TypeLimit
	case `"MARKET"`, `"market"`:
		*t = TypeMarket
	}
	return nil
}

// OrderStatus is the canonical lifecycle state of an order.
//
// It is a string rather than an enum so that status codes the upstream
// exchange introduces after this adapter was written pass through verbatim
// instead of being rejected.
type OrderStatus string

// Canonical order states. Anything else is an unrecognized upstream code
// carried through unchanged.
const (
	StatusOpen     OrderStatus = "open"
	StatusClosed   OrderStatus = "closed"
	StatusCanceled OrderStatus = "canceled"
)

// IsTerminal returns true if the order can no longer change on the exchange.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusClosed || s == StatusCanceled
}

// Market describes one tradable instrument: the exchange-native identifier,
// the canonical BASE/QUOTE symbol, and per-market precision. Markets are
// value objects created once per registry load and never mutated.
type Market struct {
	// ID is the exchange-native market identifier (e.g., "btcusdt").
	ID string `json:"id"`
	// Symbol is the canonical pair notation (e.g., "BTC/USDT").
	Symbol string `json:"symbol"`
	// Base is the canonical base currency code.
	Base string `json:"base"`
	// Quote is the canonical quote currency code.
	Quote string `json:"quote"`
	// BaseID is the exchange-native base currency identifier.
	BaseID string `json:"base_id"`
	// QuoteID is the exchange-native quote currency identifier.
	QuoteID string `json:"quote_id"`
	// PricePrecision is the number of decimal places for prices.
	PricePrecision int `json:"price_precision"`
	// AmountPrecision is the number of decimal places for amounts.
	AmountPrecision int `json:"amount_precision"`
	// Active reports whether the market is currently tradable.
	Active bool `json:"active"`
}

// Fee is a trading fee amount denominated in a single currency.
type Fee struct {
	Cost     apd.Decimal `json:"cost"`
	Currency string      `json:"currency"`
}

// Ticker represents a 24h market statistics snapshot for a trading pair.
type Ticker struct {
	// Symbol is the canonical trading pair (e.g., "ETH/BTC").
	Symbol string `json:"symbol"`
	// Timestamp is the server time carried in the upstream payload. It
	// stays zero when the upstream omits it; it is never defaulted to the
	// local clock.
	Timestamp time.Time   `json:"timestamp"`
	High      apd.Decimal `json:"high"`
	Low       apd.Decimal `json:"low"`
	Bid       apd.Decimal `json:"bid"`
	Ask       apd.Decimal `json:"ask"`
	Last      apd.Decimal `json:"last"`
	// BaseVolume is the 24h traded volume in base currency.
	BaseVolume apd.Decimal `json:"base_volume"`
	// Percentage is the 24h change in percentage units (upstream reports a
	// fraction; 0.0344 upstream becomes 3.44 here). Nil when absent.
	Percentage *apd.Decimal `json:"percentage,omitempty"`
	// Raw is the upstream payload the ticker was derived from.
	Raw []byte `json:"-"`
}

// Trade represents a single executed trade, public or private.
type Trade struct {
	ID        string      `json:"id"`
	OrderID   string      `json:"order_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Symbol    string      `json:"symbol"`
	Side      OrderSide   `json:"side"`
	Price     apd.Decimal `json:"price"`
	Amount    apd.Decimal `json:"amount"`
	// Cost is always Price multiplied by Amount, computed locally rather
	// than read from upstream so the identity holds exactly.
	Cost apd.Decimal `json:"cost"`
	Fee  *Fee        `json:"fee,omitempty"`
	Raw  []byte      `json:"-"`
}

// Kline represents one OHLCV candle. Batches are ordered by open time
// ascending.
type Kline struct {
	Symbol   string      `json:"symbol"`
	OpenTime time.Time   `json:"open_time"`
	Open     apd.Decimal `json:"open"`
	High     apd.Decimal `json:"high"`
	Low      apd.Decimal `json:"low"`
	Close    apd.Decimal `json:"close"`
	Volume   apd.Decimal `json:"volume"`
}

// Order represents an exchange order. Orders are created open on submission
// and only change through re-fetching from the exchange; the adapter never
// infers a transition locally.
type Order struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	// Timestamp is resolved from the upstream payload with a fixed
	// precedence: explicit open time, then creation time, then the time of
	// the last trade against the order.
	Timestamp          time.Time    `json:"timestamp"`
	LastTradeTimestamp time.Time    `json:"last_trade_timestamp"`
	Side               OrderSide    `json:"side"`
	Type               OrderType    `json:"type"`
	Price              *apd.Decimal `json:"price,omitempty"`
	Average            *apd.Decimal `json:"average,omitempty"`
	Cost               *apd.Decimal `json:"cost,omitempty"`
	Amount             apd.Decimal  `json:"amount"`
	Filled             apd.Decimal  `json:"filled"`
	Remaining          apd.Decimal  `json:"remaining"`
	Status             OrderStatus  `json:"status"`
	Fee                *Fee         `json:"fee,omitempty"`
	Raw                []byte       `json:"-"`
}

// OrderBookLevel is a single (price, volume) depth level.
type OrderBookLevel struct {
	Price  apd.Decimal `json:"price"`
	Volume apd.Decimal `json:"volume"`
}

// OrderBook represents a depth snapshot for a trading pair. Asks are sorted
// ascending by price and bids descending, regardless of upstream order.
type OrderBook struct {
	Symbol string           `json:"symbol"`
	Bids   []OrderBookLevel `json:"bids"`
	Asks   []OrderBookLevel `json:"asks"`
	// Timestamp is the server time reported in the depth payload, not the
	// local clock.
	Timestamp time.Time `json:"timestamp"`
	Raw       []byte    `json:"-"`
}

// Balance represents the account balance for a single currency.
type Balance struct {
	// Currency is the canonical currency code.
	Currency string `json:"currency"`
	// Free is the balance available for trading.
	Free apd.Decimal `json:"free"`
	// Used is the balance locked in open orders.
	Used apd.Decimal `json:"used"`
	// Total is always Free plus Used, computed locally.
	Total apd.Decimal `json:"total"`
}

// DepositAddress is a funding address for one currency.
type DepositAddress struct {
	Currency string `json:"currency"`
	Address  string `json:"address"`
	Tag      string `json:"tag,omitempty"`
}

// Withdrawal is the exchange's acknowledgment of a withdrawal request.
type Withdrawal struct {
	ID       string      `json:"id"`
	Currency string      `json:"currency"`
	Amount   apd.Decimal `json:"amount"`
	Address  string      `json:"address"`
}
