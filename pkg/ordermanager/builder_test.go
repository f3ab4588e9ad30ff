package ordermanager

import (
	"testing"

	"github.com/cockroachdb/apd/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uexgo/pkg/core"
	"uexgo/pkg/exchange"
)

func TestOrderBuilder_Build(t *testing.T) {
	tests := []struct {
		name       string
		build      func() (*exchange.OrderRequest, error)
		wantErr    bool
		errContain string
	}{
		{
			name: "valid limit buy order",
			build: func() (*exchange.OrderRequest, error) {
				return NewOrderBuilder("ETH/BTC").
					Buy().
					Limit().
					Price("0.058").
					Amount("2.5").
					Build()
			},
		},
		{
			name: "valid market sell order",
			build: func() (*exchange.OrderRequest, error) {
				return NewOrderBuilder("BTC/USDT").
					Sell().
					Market().
					Amount("1.5").
					Build()
			},
		},
		{
			name: "valid order with decimal values",
			build: func() (*exchange.OrderRequest, error) {
				var price, amount apd.Decimal
				price.SetInt64(50000)
				amount.SetInt64(1)
				return NewOrderBuilder("BTC/USDT").
					Buy().
					Limit().
					PriceDecimal(price).
					AmountDecimal(amount).
					Build()
			},
		},
		{
			name: "missing symbol",
			build: func() (*exchange.OrderRequest, error) {
				return NewOrderBuilder("").
					Buy().
					Limit().
					Price("0.058").
					Amount("1").
					Build()
			},
			wantErr:    true,
			errContain: "symbol",
		},
		{
			name: "missing amount",
			build: func() (*exchange.OrderRequest, error) {
				return NewOrderBuilder("ETH/BTC").
					Buy().
					Limit().
					Price("0.058").
					Build()
			},
			wantErr:    true,
			errContain: "amount",
		},
		{
			name: "negative amount",
			build: func() (*exchange.OrderRequest, error) {
				return NewOrderBuilder("ETH/BTC").
					Buy().
					Market().
					Amount("-1").
					Build()
			},
			wantErr:    true,
			errContain: "amount",
		},
		{
			name: "limit order without price",
			build: func() (*exchange.OrderRequest, error) {
				return NewOrderBuilder("ETH/BTC").
					Buy().
					Limit().
					Amount("1").
					Build()
			},
			wantErr:    true,
			errContain: "price",
		},
		{
			name: "market order without price is fine",
			build: func() (*exchange.OrderRequest, error) {
				return NewOrderBuilder("ETH/BTC").
					Sell().
					Market().
					Amount("1").
					Build()
			},
		},
		{
			name: "unparseable price",
			build: func() (*exchange.OrderRequest, error) {
				return NewOrderBuilder("ETH/BTC").
					Buy().
					Limit().
					Price("not-a-number").
					Amount("1").
					Build()
			},
			wantErr:    true,
			errContain: "parse price",
		},
		{
			name: "unparseable amount",
			build: func() (*exchange.OrderRequest, error) {
				return NewOrderBuilder("ETH/BTC").
					Buy().
					Market().
					Amount("one").
					Build()
			},
			wantErr:    true,
			errContain: "parse amount",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := tt.build()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContain)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, req)
		})
	}
}

func TestOrderBuilder_FirstErrorWins(t *testing.T) {
	_, err := NewOrderBuilder("ETH/BTC").
		Buy().
		Limit().
		Price("bad").
		Amount("also-bad").
		Build()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse price", "the first accumulated error is reported")
}

func TestOrderBuilder_Fields(t *testing.T) {
	req, err := NewOrderBuilder("ETH/BTC").
		Sell().
		Limit().
		Price("0.06").
		Amount("3").
		Build()
	require.NoError(t, err)

	assert.Equal(t, "ETH/BTC", req.Symbol)
	assert.Equal(t, core.SideSell, req.Side)
	assert.Equal(t, core.TypeLimit, req.Type)
	assert.Equal(t, "0.06", req.Price.String())
	assert.Equal(t, "3", req.Amount.String())
}
