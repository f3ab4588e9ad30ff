package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uexgo/pkg/core"
)

func sampleMarkets() []core.Market {
	return []core.Market{
		{ID: "btcusdt", Symbol: "BTC/USDT", Base: "BTC", Quote: "USDT", BaseID: "btc", QuoteID: "usdt", PricePrecision: 2, AmountPrecision: 4, Active: true},
		{ID: "ethbtc", Symbol: "ETH/BTC", Base: "ETH", Quote: "BTC", BaseID: "eth", QuoteID: "btc", PricePrecision: 6, AmountPrecision: 3, Active: true},
	}
}

func TestBuildAndLookup(t *testing.T) {
	reg, err := Build(sampleMarkets())
	require.NoError(t, err)
	require.Equal(t, 2, reg.Len())

	byID, ok := reg.ByID("ethbtc")
	require.True(t, ok)

	bySymbol, ok := reg.BySymbol("ETH/BTC")
	require.True(t, ok)

	// Both indices resolve to the same market.
	assert.Equal(t, byID, bySymbol)
	assert.Equal(t, "ETH", byID.Base)
	assert.Equal(t, "BTC", byID.Quote)
}

func TestBuildRejectsDuplicates(t *testing.T) {
	markets := sampleMarkets()
	markets = append(markets, core.Market{ID: "btcusdt", Symbol: "XBT/USDT"})
	_, err := Build(markets)
	assert.ErrorContains(t, err, "duplicate market id")

	markets = sampleMarkets()
	markets = append(markets, core.Market{ID: "xbtusdt", Symbol: "BTC/USDT"})
	_, err = Build(markets)
	assert.ErrorContains(t, err, "duplicate market symbol")
}

func TestBuildRejectsInvalidMarkets(t *testing.T) {
	_, err := Build([]core.Market{{ID: "", Symbol: "BTC/USDT"}})
	assert.Error(t, err)

	_, err = Build([]core.Market{{ID: "btcusdt", Symbol: "BTC/USDT", PricePrecision: -1}})
	assert.ErrorContains(t, err, "negative precision")
}

func TestSymbolsAndMarketsAreCopies(t *testing.T) {
	reg, err := Build(sampleMarkets())
	require.NoError(t, err)

	symbols := reg.Symbols()
	assert.Equal(t, []string{"BTC/USDT", "ETH/BTC"}, symbols)

	markets := reg.Markets()
	markets[0].ID = "mutated"
	again, ok := reg.ByID("btcusdt")
	require.True(t, ok)
	assert.Equal(t, "btcusdt", again.ID)
}

func TestHolderReplace(t *testing.T) {
	h := NewHolder()
	assert.False(t, h.Loaded())
	assert.Nil(t, h.Load())

	first, err := Build(sampleMarkets()[:1])
	require.NoError(t, err)
	h.Replace(first)
	require.True(t, h.Loaded())
	assert.Equal(t, 1, h.Load().Len())

	second, err := Build(sampleMarkets())
	require.NoError(t, err)
	h.Replace(second)

	reg := h.Load()
	assert.Equal(t, 2, reg.Len())
	_, ok := reg.BySymbol("ETH/BTC")
	assert.True(t, ok)
}

func TestCurrencyCode(t *testing.T) {
	aliases := map[string]string{"BCC": "BCH", "XBT": "BTC"}

	tests := []struct {
		input    string
		expected string
	}{
		{"btc", "BTC"},
		{"usdt", "USDT"},
		{"bcc", "BCH"},
		{"XBT", "BTC"},
		{" eth ", "ETH"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, CurrencyCode(tt.input, aliases))
		})
	}
}
