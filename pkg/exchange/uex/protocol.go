package uex

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"uexgo/pkg/core"
)

const (
	exchangeName = "uex"
	apiVersion   = "1.0"

	// ProductionURL is the base URL for the UEX open API.
	ProductionURL = "https://open-api.uex.com"
)

// Protocol implements core.Protocol for the UEX exchange: endpoint routing,
// request signing, and response classification.
type Protocol struct {
	// clock supplies the request timestamp for signing; injectable so
	// tests can pin it.
	clock func() time.Time
}

// NewProtocol creates a new UEX protocol instance.
func NewProtocol() *Protocol {
	return &Protocol{clock: time.Now}
}

// Name returns the protocol identifier "uex".
func (p *Protocol) Name() string {
	return exchangeName
}

// Version returns the UEX open API version string.
func (p *Protocol) Version() string {
	return apiVersion
}

// BaseURL returns the production base URL for the UEX open API.
func (p *Protocol) BaseURL() string {
	return ProductionURL
}

// SupportedOperations returns the list of operations supported by this
// protocol.
func (p *Protocol) SupportedOperations() []core.Operation {
	return []core.Operation{
		core.OpLoadMarkets,
		core.OpGetTicker,
		core.OpGetOrderBook,
		core.OpGetTrades,
		core.OpGetKlines,
		core.OpGetBalance,
		core.OpPlaceOrder,
		core.OpCancelOrder,
		core.OpGetOrder,
		core.OpGetOpenOrders,
		core.OpGetOrderHistory,
		core.OpGetMyTrades,
		core.OpGetDepositAddress,
		core.OpWithdraw,
	}
}

// BuildRequest constructs the request descriptor for the given operation.
// Private endpoints are marked RequireAuth and signed later via Sign.
func (p *Protocol) BuildRequest(op core.Operation, params core.Params) (*core.Request, error) {
	switch op {
	case core.OpLoadMarkets:
		return core.NewRequest(http.MethodGet, "/open/api/common/symbols"), nil

	case core.OpGetTicker:
		return p.publicSymbolRequest("/open/api/get_ticker", params)

	case core.OpGetOrderBook:
		req, err := p.publicSymbolRequest("/open/api/market_dept", params)
		if err != nil {
			return nil, err
		}
		// step0 is the full-precision depth view.
		req.SetQuery("type", "step0")
		return req, nil

	case core.OpGetTrades:
		return p.publicSymbolRequest("/open/api/get_trades", params)

	case core.OpGetKlines:
		req, err := p.publicSymbolRequest("/open/api/get_records", params)
		if err != nil {
			return nil, err
		}
		req.SetQuery("period", stringParam(params, "period", "1"))
		return req, nil

	case core.OpGetBalance:
		req := core.NewRequest(http.MethodGet, "/open/api/user/account")
		req.SetRequireAuth(true)
		return req, nil

	case core.OpPlaceOrder:
		req := core.NewRequest(http.MethodPost, "/open/api/create_order")
		req.SetRequireAuth(true)
		for _, key := range []string{"symbol", "side", "type", "volume"} {
			v, err := requiredParam(params, key)
			if err != nil {
				return nil, err
			}
			req.SetQuery(key, v)
		}
		if price := stringParam(params, "price", ""); price != "" {
			req.SetQuery("price", price)
		}
		return req, nil

	case core.OpCancelOrder:
		req := core.NewRequest(http.MethodPost, "/open/api/cancel_order")
		req.SetRequireAuth(true)
		for _, key := range []string{"order_id", "symbol"} {
			v, err := requiredParam(params, key)
			if err != nil {
				return nil, err
			}
			req.SetQuery(key, v)
		}
		return req, nil

	case core.OpGetOrder:
		req := core.NewRequest(http.MethodGet, "/open/api/order_info")
		req.SetRequireAuth(true)
		for _, key := range []string{"order_id", "symbol"} {
			v, err := requiredParam(params, key)
			if err != nil {
				return nil, err
			}
			req.SetQuery(key, v)
		}
		return req, nil

	case core.OpGetOpenOrders:
		return p.pagedPrivateRequest("/open/api/new_order", params)

	case core.OpGetOrderHistory:
		return p.pagedPrivateRequest("/open/api/all_order", params)

	case core.OpGetMyTrades:
		return p.pagedPrivateRequest("/open/api/all_trade", params)

	case core.OpGetDepositAddress:
		req := core.NewRequest(http.MethodGet, "/open/api/deposit_address_list")
		req.SetRequireAuth(true)
		coin, err := requiredParam(params, "coin")
		if err != nil {
			return nil, err
		}
		req.SetQuery("coin", coin)
		return req, nil

	case core.OpWithdraw:
		req := core.NewRequest(http.MethodPost, "/open/api/create_withdraw")
		req.SetRequireAuth(true)
		for _, key := range []string{"coin", "amount", "address"} {
			v, err := requiredParam(params, key)
			if err != nil {
				return nil, err
			}
			req.SetQuery(key, v)
		}
		if tag := stringParam(params, "tag", ""); tag != "" {
			req.SetQuery("tag", tag)
		}
		return req, nil

	default:
		return nil, fmt.Errorf("unsupported operation: %s", op)
	}
}

func (p *Protocol) publicSymbolRequest(path string, params core.Params) (*core.Request, error) {
	symbol, err := requiredParam(params, "symbol")
	if err != nil {
		return nil, err
	}
	req := core.NewRequest(http.MethodGet, path)
	req.SetQuery("symbol", symbol)
	return req, nil
}

func (p *Protocol) pagedPrivateRequest(path string, params core.Params) (*core.Request, error) {
	symbol, err := requiredParam(params, "symbol")
	if err != nil {
		return nil, err
	}
	req := core.NewRequest(http.MethodGet, path)
	req.SetRequireAuth(true)
	req.SetQuery("symbol", symbol)
	if size := stringParam(params, "pageSize", ""); size != "" {
		req.SetQuery("pageSize", size)
	}
	if page := stringParam(params, "page", ""); page != "" {
		req.SetQuery("page", page)
	}
	return req, nil
}

// Sign authenticates a private request in place. The signature base string
// is every request parameter plus api_key and the epoch-second timestamp,
// sorted by key, each key concatenated directly with its value, with the
// shared secret appended; the signature is the MD5 hex digest of that
// string. GET requests carry sign in the query; non-GET requests carry the
// signed parameters as a form-encoded body.
//
// Missing credentials are rejected here, before any request is sent.
func (p *Protocol) Sign(req *core.Request, creds *core.Credentials) error {
	if !creds.Complete() {
		return core.NewExchangeError(exchangeName, core.ErrorTypeAuthentication,
			fmt.Sprintf("missing credentials: %s", strings.Join(creds.MissingFields(), ", ")))
	}

	params := make(map[string]string, len(req.Query)+2)
	for k, v := range req.Query {
		params[k] = v
	}
	params["api_key"] = creds.APIKey
	params["time"] = strconv.FormatInt(p.clock().Unix(), 10)

	params["sign"] = signature(params, creds.SecretKey)
	req.Query = params

	if req.Method != http.MethodGet {
		req.SetHeader("Content-Type", "application/x-www-form-urlencoded")
	}

	return nil
}

// signature computes the MD5 hex digest over the canonical parameter
// string. Deterministic: identical parameters and secret always produce an
// identical signature.
func signature(params map[string]string, secret string) string {
	sum := md5.Sum([]byte(canonicalString(params, secret)))
	return hex.EncodeToString(sum[:])
}

// canonicalString sorts the parameters by key and concatenates each key
// immediately followed by its value, with no separators, then appends the
// secret.
func canonicalString(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(params[k])
	}
	b.WriteString(secret)
	return b.String()
}

// envelope is the fixed response wrapper of every UEX endpoint. The code
// is documented as a string but tolerates a bare number.
type envelope struct {
	Code numeric `json:"code"`
	Msg  string  `json:"msg"`
}

// errorCodes is the static taxonomy table mapping upstream error codes to
// error kinds. Loaded once, immutable.
var errorCodes = map[string]core.ErrorType{
	"5":      core.ErrorTypeInvalidOrder,     // order quantity out of bounds
	"6":      core.ErrorTypeInvalidOrder,     // quantity below minimum
	"7":      core.ErrorTypeInvalidOrder,     // price out of bounds
	"22":     core.ErrorTypeOrderNotFound,    // order does not exist
	"23":     core.ErrorTypeInvalidOrder,     // missing order quantity
	"24":     core.ErrorTypeInvalidOrder,     // missing order price
	"100001": core.ErrorTypeExchange,         // parameter validation failure
	"100002": core.ErrorTypeExchangeNotAvailable, // system upgrading
	"100004": core.ErrorTypeExchange,         // malformed request
	"100005": core.ErrorTypeAuthentication,   // signature mismatch
	"100007": core.ErrorTypePermissionDenied, // IP not on the whitelist
	"110002": core.ErrorTypeExchange,         // unknown currency
	"110003": core.ErrorTypeAuthentication,   // trading password error
	"110004": core.ErrorTypeAuthentication,   // withdrawals frozen
	"110005": core.ErrorTypeInsufficientFunds,
	"110020": core.ErrorTypeAuthentication,   // account does not exist
	"110025": core.ErrorTypePermissionDenied, // account locked by admin
	"110032": core.ErrorTypePermissionDenied, // insufficient rights
}

// Classify inspects a response body before any normalization happens. A
// body that is too short or not a JSON object is not this component's
// concern and classifies as nil so the transport-level handler can report
// it. Code "0" means success. Any other code maps through the taxonomy
// table, falling back to a generic exchange error; either way the full body
// travels with the error for diagnostics.
func (p *Protocol) Classify(body []byte) error {
	if len(body) < 2 {
		return nil
	}
	trimmed := strings.TrimSpace(string(body))
	if len(trimmed) == 0 || (trimmed[0] != '{' && trimmed[0] != '[') {
		return nil
	}

	var env envelope
	if err := sonic.Unmarshal(body, &env); err != nil {
		return nil
	}
	code := string(env.Code)
	if code == "" || code == "0" {
		return nil
	}

	errType, known := errorCodes[code]
	if !known {
		errType = core.ErrorTypeExchange
	}
	return core.NewExchangeErrorWithCode(exchangeName, errType, code, env.Msg).WithRaw(body)
}

func requiredParam(params core.Params, key string) (string, error) {
	val, ok := params[key]
	if !ok {
		return "", fmt.Errorf("missing required parameter: %s", key)
	}
	str, ok := val.(string)
	if !ok || str == "" {
		return "", fmt.Errorf("parameter %s must be a non-empty string", key)
	}
	return str, nil
}

func stringParam(params core.Params, key, def string) string {
	if val, ok := params[key]; ok {
		if str, ok := val.(string); ok && str != "" {
			return str
		}
	}
	return def
}
