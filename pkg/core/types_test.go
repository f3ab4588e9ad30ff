package core

import (
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderSideJSON(t *testing.T) {
	data, err := sonic.Marshal(SideSell)
	require.NoError(t, err)
	assert.Equal(t, `"sell"`, string(data))

	var side OrderSide
	require.NoError(t, sonic.Unmarshal([]byte(`"BUY"`), &side))
	assert.Equal(t, SideBuy, side)
}

func TestOrderTypeJSON(t *testing.T) {
	data, err := sonic.Marshal(TypeMarket)
	require.NoError(t, err)
	assert.Equal(t, `"market"`, string(data))

	var typ OrderType
	require.NoError(t, sonic.Unmarshal([]byte(`"LIMIT"`), &typ))
	assert.Equal(t, TypeLimit, typ)
}

func TestOrderStatusIsTerminal(t *testing.T) {
	tests := []struct {
		status   OrderStatus
		terminal bool
	}{
		{StatusOpen, false},
		{StatusClosed, true},
		{StatusCanceled, true},
		{OrderStatus("7"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.terminal, tt.status.IsTerminal())
		})
	}
}

func TestRequestChaining(t *testing.T) {
	req := NewRequest("GET", "/open/api/get_ticker").
		SetQuery("symbol", "ethbtc").
		SetHeader("Accept", "application/json").
		SetRequireAuth(false)

	assert.Equal(t, "GET", req.Method)
	assert.Equal(t, "/open/api/get_ticker", req.Path)
	assert.Equal(t, "ethbtc", req.Query["symbol"])
	assert.Equal(t, "application/json", req.Headers["Accept"])
	assert.False(t, req.RequireAuth)

	req.SetQueryParams(map[string]string{"type": "step0", "symbol": "btcusdt"})
	assert.Equal(t, "btcusdt", req.Query["symbol"])
	assert.Equal(t, "step0", req.Query["type"])
}
