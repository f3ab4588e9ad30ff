package uex

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uexgo/pkg/core"
)

var _ core.Protocol = (*Protocol)(nil)

func fullCredentials() *core.Credentials {
	return &core.Credentials{
		APIKey:        "testkey",
		SecretKey:     "testsecret",
		TradePassword: "tradepass",
		CountryCode:   "86",
		PhoneNumber:   "13800000000",
	}
}

func pinnedProtocol(unix int64) *Protocol {
	p := NewProtocol()
	p.clock = func() time.Time { return time.Unix(unix, 0) }
	return p
}

func TestProtocol_Identity(t *testing.T) {
	p := NewProtocol()

	assert.Equal(t, "uex", p.Name())
	assert.Equal(t, "1.0", p.Version())
	assert.Equal(t, ProductionURL, p.BaseURL())
	assert.Len(t, p.SupportedOperations(), 14)
}

func TestBuildRequest_PublicEndpoints(t *testing.T) {
	p := NewProtocol()

	tests := []struct {
		name   string
		op     core.Operation
		params core.Params
		path   string
		query  map[string]string
	}{
		{
			name: "symbols",
			op:   core.OpLoadMarkets,
			path: "/open/api/common/symbols",
		},
		{
			name:   "ticker",
			op:     core.OpGetTicker,
			params: core.Params{"symbol": "ethbtc"},
			path:   "/open/api/get_ticker",
			query:  map[string]string{"symbol": "ethbtc"},
		},
		{
			name:   "depth",
			op:     core.OpGetOrderBook,
			params: core.Params{"symbol": "ethbtc"},
			path:   "/open/api/market_dept",
			query:  map[string]string{"symbol": "ethbtc", "type": "step0"},
		},
		{
			name:   "klines default period",
			op:     core.OpGetKlines,
			params: core.Params{"symbol": "ethbtc"},
			path:   "/open/api/get_records",
			query:  map[string]string{"symbol": "ethbtc", "period": "1"},
		},
		{
			name:   "klines explicit period",
			op:     core.OpGetKlines,
			params: core.Params{"symbol": "ethbtc", "period": "60"},
			path:   "/open/api/get_records",
			query:  map[string]string{"symbol": "ethbtc", "period": "60"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := p.BuildRequest(tt.op, tt.params)
			require.NoError(t, err)

			assert.Equal(t, http.MethodGet, req.Method)
			assert.Equal(t, tt.path, req.Path)
			assert.False(t, req.RequireAuth)
			if tt.query != nil {
				assert.Equal(t, tt.query, req.Query)
			}
		})
	}
}

func TestBuildRequest_PrivateEndpoints(t *testing.T) {
	p := NewProtocol()

	req, err := p.BuildRequest(core.OpGetBalance, nil)
	require.NoError(t, err)
	assert.Equal(t, "/open/api/user/account", req.Path)
	assert.True(t, req.RequireAuth)

	req, err = p.BuildRequest(core.OpPlaceOrder, core.Params{
		"symbol": "ethbtc", "side": "BUY", "type": "1", "volume": "2.5", "price": "0.058",
	})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/open/api/create_order", req.Path)
	assert.True(t, req.RequireAuth)
	assert.Equal(t, "0.058", req.Query["price"])

	req, err = p.BuildRequest(core.OpGetOpenOrders, core.Params{
		"symbol": "ethbtc", "pageSize": "20", "page": "2",
	})
	require.NoError(t, err)
	assert.Equal(t, "/open/api/new_order", req.Path)
	assert.Equal(t, "20", req.Query["pageSize"])
	assert.Equal(t, "2", req.Query["page"])
}

func TestBuildRequest_MissingParams(t *testing.T) {
	p := NewProtocol()

	_, err := p.BuildRequest(core.OpGetTicker, nil)
	assert.Error(t, err)

	_, err = p.BuildRequest(core.OpPlaceOrder, core.Params{"symbol": "ethbtc", "side": "BUY"})
	assert.Error(t, err)

	_, err = p.BuildRequest(core.OpCancelOrder, core.Params{"order_id": "42"})
	assert.Error(t, err)

	_, err = p.BuildRequest(core.Operation(99), nil)
	assert.Error(t, err)
}

func TestCanonicalString(t *testing.T) {
	got := canonicalString(map[string]string{
		"time":    "1529163000",
		"api_key": "testkey",
		"symbol":  "ethbtc",
	}, "testsecret")

	assert.Equal(t, "api_keytestkeysymbolethbtctime1529163000testsecret", got,
		"keys sorted, each concatenated with its value, secret appended")
}

func TestSign(t *testing.T) {
	p := pinnedProtocol(1529163000)

	req := core.NewRequest(http.MethodGet, "/open/api/get_ticker")
	req.SetQuery("symbol", "ethbtc")
	req.SetRequireAuth(true)

	require.NoError(t, p.Sign(req, fullCredentials()))

	assert.Equal(t, "testkey", req.Query["api_key"])
	assert.Equal(t, "1529163000", req.Query["time"])
	assert.Equal(t, "cdf323b260dd8b6fda72e58c8e8a4a5c", req.Query["sign"])
}

func TestSign_Deterministic(t *testing.T) {
	creds := fullCredentials()

	sign := func() string {
		req := core.NewRequest(http.MethodGet, "/open/api/get_ticker")
		req.SetQuery("symbol", "ethbtc")
		require.NoError(t, pinnedProtocol(1529163000).Sign(req, creds))
		return req.Query["sign"]
	}

	first := sign()
	assert.Equal(t, first, sign(), "same parameters and timestamp must produce the same signature")
}

func TestSign_ParameterChangesSignature(t *testing.T) {
	creds := fullCredentials()

	signFor := func(symbol string) string {
		req := core.NewRequest(http.MethodGet, "/open/api/get_ticker")
		req.SetQuery("symbol", symbol)
		require.NoError(t, pinnedProtocol(1529163000).Sign(req, creds))
		return req.Query["sign"]
	}

	assert.NotEqual(t, signFor("ethbtc"), signFor("btcusdt"),
		"changing any parameter value must change the signature")
}

func TestSign_FormContentTypeOnPost(t *testing.T) {
	p := pinnedProtocol(1529163000)

	req := core.NewRequest(http.MethodPost, "/open/api/create_order")
	req.SetQuery("symbol", "ethbtc")
	require.NoError(t, p.Sign(req, fullCredentials()))

	assert.Equal(t, "application/x-www-form-urlencoded", req.Headers["Content-Type"])
}

func TestSign_MissingCredentials(t *testing.T) {
	p := NewProtocol()
	creds := fullCredentials()
	creds.TradePassword = ""

	req := core.NewRequest(http.MethodGet, "/open/api/user/account")
	err := p.Sign(req, creds)

	require.Error(t, err)
	assert.True(t, core.IsAuthenticationError(err))
	assert.Contains(t, err.Error(), "trade_password")
	assert.Empty(t, req.Query["sign"], "no signature is produced for incomplete credentials")
}

func TestClassify(t *testing.T) {
	p := NewProtocol()

	tests := []struct {
		name     string
		body     string
		wantType core.ErrorType
		wantNil  bool
	}{
		{
			name:    "success code string",
			body:    `{"code":"0","msg":"suc","data":{"symbol":"ethbtc"}}`,
			wantNil: true,
		},
		{
			name:    "success code number",
			body:    `{"code":0,"msg":"suc","data":null}`,
			wantNil: true,
		},
		{
			name:    "short body",
			body:    `x`,
			wantNil: true,
		},
		{
			name:    "non json body",
			body:    `<html>502 Bad Gateway</html>`,
			wantNil: true,
		},
		{
			name:     "order not found",
			body:     `{"code":"22","msg":"not found","data":null}`,
			wantType: core.ErrorTypeOrderNotFound,
		},
		{
			name:     "insufficient funds",
			body:     `{"code":"110005","msg":"insufficient balance","data":null}`,
			wantType: core.ErrorTypeInsufficientFunds,
		},
		{
			name:     "signature mismatch",
			body:     `{"code":"100005","msg":"sign error","data":null}`,
			wantType: core.ErrorTypeAuthentication,
		},
		{
			name:     "maintenance",
			body:     `{"code":"100002","msg":"system upgrading","data":null}`,
			wantType: core.ErrorTypeExchangeNotAvailable,
		},
		{
			name:     "unknown code",
			body:     `{"code":"424242","msg":"mystery","data":null}`,
			wantType: core.ErrorTypeExchange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.Classify([]byte(tt.body))
			if tt.wantNil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, core.IsErrorType(err, tt.wantType), "got %v", err)
		})
	}
}

func TestClassify_CarriesRawBody(t *testing.T) {
	body := []byte(`{"code":"22","msg":"not found","data":null}`)
	err := NewProtocol().Classify(body)

	var exchErr *core.ExchangeError
	require.ErrorAs(t, err, &exchErr)
	assert.Equal(t, "22", exchErr.Code)
	assert.Equal(t, "not found", exchErr.Message)
	assert.Equal(t, body, exchErr.Raw, "errors carry the full response body")
}

func TestClassify_Retryability(t *testing.T) {
	p := NewProtocol()

	maintenance := p.Classify([]byte(`{"code":"100002","msg":"upgrading","data":null}`))
	assert.True(t, core.IsRetryable(maintenance))

	notFound := p.Classify([]byte(`{"code":"22","msg":"not found","data":null}`))
	assert.False(t, core.IsRetryable(notFound))
}
