package exchange

import (
	"context"

	"github.com/cockroachdb/apd/v3"

	"uexgo/pkg/core"
)

// Exchange defines the unified, vendor-neutral interface for interacting
// with a cryptocurrency exchange over REST. Implementations translate
// between the exchange's native payloads and the canonical core types.
type Exchange interface {
	Name() string
	Version() string

	// LoadMarkets fetches the tradable symbol list and (re)builds the
	// market registry. It must be called before any symbol-based operation.
	LoadMarkets(ctx context.Context) ([]core.Market, error)

	GetTicker(ctx context.Context, symbol string, opts ...Option) (*core.Ticker, error)
	GetOrderBook(ctx context.Context, symbol string, opts ...Option) (*core.OrderBook, error)
	GetTrades(ctx context.Context, symbol string, opts ...Option) ([]core.Trade, error)
	GetKlines(ctx context.Context, symbol string, opts ...Option) ([]core.Kline, error)

	GetBalance(ctx context.Context, opts ...Option) ([]core.Balance, error)

	PlaceOrder(ctx context.Context, req *OrderRequest, opts ...Option) (*core.Order, error)
	// CancelOrder requests cancellation. It returns no order: order state
	// changes only through re-fetching from the exchange.
	CancelOrder(ctx context.Context, req *CancelRequest, opts ...Option) error
	GetOrder(ctx context.Context, req *OrderQuery, opts ...Option) (*core.Order, error)
	GetOpenOrders(ctx context.Context, symbol string, opts ...Option) ([]core.Order, error)
	GetOrderHistory(ctx context.Context, symbol string, opts ...Option) ([]core.Order, error)
	GetMyTrades(ctx context.Context, symbol string, opts ...Option) ([]core.Trade, error)

	GetDepositAddress(ctx context.Context, currency string, opts ...Option) (*core.DepositAddress, error)
	Withdraw(ctx context.Context, req *WithdrawRequest, opts ...Option) (*core.Withdrawal, error)
}

// OrderRequest contains the parameters required to place a new order.
type OrderRequest struct {
	Symbol string
	Side   core.OrderSide
	Type   core.OrderType
	// Price is required for limit orders and ignored for market orders.
	Price  apd.Decimal
	Amount apd.Decimal
}

// CancelRequest contains the parameters required to cancel an existing order.
type CancelRequest struct {
	Symbol  string
	OrderID string
}

// OrderQuery contains the parameters required to query order status.
type OrderQuery struct {
	Symbol  string
	OrderID string
}

// WithdrawRequest contains the parameters required to request a withdrawal.
type WithdrawRequest struct {
	Currency string
	Amount   apd.Decimal
	Address  string
	Tag      string
}
