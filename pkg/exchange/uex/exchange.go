package uex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"

	"uexgo/internal/circuitbreaker"
	httpClient "uexgo/internal/http"
	"uexgo/internal/keyring"
	"uexgo/internal/ratelimit"
	"uexgo/pkg/core"
	"uexgo/pkg/exchange"
	"uexgo/pkg/registry"
)

// Rate limit buckets. Public market data and signed account calls draw
// from separate budgets under the shared global limit.
const (
	bucketPublic  = "public"
	bucketPrivate = "private"
)

// UEXExchange implements the Exchange interface for the UEX spot market.
// It provides rate limiting, circuit breaker, and API key rotation
// capabilities.
type UEXExchange struct {
	config         *core.Config
	keyRing        *keyring.KeyRing
	httpClient     *httpClient.Client
	rateLimiter    *ratelimit.Limiter
	circuitBreaker *circuitbreaker.Breaker
	logger         zerolog.Logger
	normalizer     *Normalizer
	protocol       *Protocol
	markets        *registry.Holder
}

// Option is a functional option for configuring the UEXExchange.
type Option func(*Options)

// Options holds configuration options for the UEXExchange.
type Options struct {
	KeyRing *keyring.KeyRing
	Logger  zerolog.Logger
}

// WithKeyRing returns an option that sets the API key ring for key rotation.
func WithKeyRing(kr *keyring.KeyRing) Option {
	return func(o *Options) {
		o.KeyRing = kr
	}
}

// WithLogger returns an option that sets the logger for the exchange.
func WithLogger(l zerolog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// New creates a new UEXExchange instance with the given configuration and
// options. It initializes the HTTP client, rate limiter, and circuit
// breaker based on the config.
func New(config *core.Config, opts ...Option) (*UEXExchange, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	options := &Options{
		Logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(options)
	}

	protocol := NewProtocol()

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = protocol.BaseURL()
	}

	client, err := httpClient.NewClient(&httpClient.Config{
		BaseURL:      baseURL,
		Timeout:      config.Timeout,
		MaxRetries:   config.MaxRetries,
		RetryWaitMin: config.RetryWaitMin,
		RetryWaitMax: config.RetryWaitMax,
	}, options.Logger)
	if err != nil {
		return nil, fmt.Errorf("create http client: %w", err)
	}

	var rl *ratelimit.Limiter
	if config.RateLimitRequests > 0 {
		rl = ratelimit.New(config.RateLimitRequests, config.RateLimitPeriod)
	}

	var cb *circuitbreaker.Breaker
	if config.CircuitBreakerEnabled {
		cb = circuitbreaker.New(circuitbreaker.Config{
			FailThreshold:    config.CircuitBreakerFailThreshold,
			SuccessThreshold: config.CircuitBreakerSuccessThreshold,
			Timeout:          config.CircuitBreakerTimeout,
		})
	}

	return &UEXExchange{
		config:         config,
		keyRing:        options.KeyRing,
		httpClient:     client,
		rateLimiter:    rl,
		circuitBreaker: cb,
		logger:         options.Logger,
		normalizer:     NewNormalizer(),
		protocol:       protocol,
		markets:        registry.NewHolder(),
	}, nil
}

// Name returns the exchange identifier "uex".
func (e *UEXExchange) Name() string {
	return e.protocol.Name()
}

// Version returns the UEX open API version.
func (e *UEXExchange) Version() string {
	return e.protocol.Version()
}

// Close releases resources used by the exchange, including the HTTP client.
func (e *UEXExchange) Close() error {
	if e.httpClient != nil {
		return e.httpClient.Close()
	}
	return nil
}

// LoadMarkets fetches the tradable symbol list and rebuilds the market
// registry. The new registry replaces the old one atomically, so both
// lookup indices change together.
func (e *UEXExchange) LoadMarkets(ctx context.Context) ([]core.Market, error) {
	data, err := e.call(ctx, core.OpLoadMarkets, nil, bucketPublic)
	if err != nil {
		return nil, err
	}

	var symbols []uexSymbol
	if err := sonic.Unmarshal(data, &symbols); err != nil {
		return nil, fmt.Errorf("decode symbols: %w", err)
	}

	markets, err := e.normalizer.NormalizeMarkets(symbols)
	if err != nil {
		return nil, err
	}

	reg, err := registry.Build(markets)
	if err != nil {
		return nil, fmt.Errorf("build registry: %w", err)
	}
	e.markets.Replace(reg)

	e.logger.Info().Int("markets", reg.Len()).Msg("markets loaded")
	return reg.Markets(), nil
}

// Markets returns the currently loaded market list.
func (e *UEXExchange) Markets() ([]core.Market, error) {
	reg := e.markets.Load()
	if reg == nil {
		return nil, core.ErrMarketsNotLoaded
	}
	return reg.Markets(), nil
}

// GetTicker retrieves the current ticker for the specified symbol.
func (e *UEXExchange) GetTicker(ctx context.Context, symbol string, opts ...exchange.Option) (*core.Ticker, error) {
	market, err := e.market(symbol)
	if err != nil {
		return nil, err
	}

	data, err := e.call(ctx, core.OpGetTicker, core.Params{"symbol": market.ID}, bucketPublic)
	if err != nil {
		return nil, err
	}

	var ticker uexTicker
	if err := sonic.Unmarshal(data, &ticker); err != nil {
		return nil, fmt.Errorf("decode ticker: %w", err)
	}

	return e.normalizer.NormalizeTicker(&ticker, market, data)
}

// GetOrderBook retrieves the order book for the specified symbol. Depth
// levels come back sorted: asks ascending, bids descending, regardless of
// upstream ordering.
func (e *UEXExchange) GetOrderBook(ctx context.Context, symbol string, opts ...exchange.Option) (*core.OrderBook, error) {
	market, err := e.market(symbol)
	if err != nil {
		return nil, err
	}

	data, err := e.call(ctx, core.OpGetOrderBook, core.Params{"symbol": market.ID}, bucketPublic)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Tick uexDepthTick `json:"tick"`
	}
	if err := sonic.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode depth: %w", err)
	}

	book, err := e.normalizer.NormalizeOrderBook(&payload.Tick, market, data)
	if err != nil {
		return nil, err
	}

	options := exchange.ApplyOptions(opts...)
	if options.Limit > 0 {
		if len(book.Asks) > options.Limit {
			book.Asks = book.Asks[:options.Limit]
		}
		if len(book.Bids) > options.Limit {
			book.Bids = book.Bids[:options.Limit]
		}
	}
	return book, nil
}

// GetTrades retrieves recent public trades for the specified symbol.
func (e *UEXExchange) GetTrades(ctx context.Context, symbol string, opts ...exchange.Option) ([]core.Trade, error) {
	market, err := e.market(symbol)
	if err != nil {
		return nil, err
	}

	data, err := e.call(ctx, core.OpGetTrades, core.Params{"symbol": market.ID}, bucketPublic)
	if err != nil {
		return nil, err
	}

	var trades []uexTrade
	if err := sonic.Unmarshal(data, &trades); err != nil {
		return nil, fmt.Errorf("decode trades: %w", err)
	}

	result, err := e.normalizer.NormalizeTrades(trades, market)
	if err != nil {
		return nil, err
	}

	options := exchange.ApplyOptions(opts...)
	if options.Limit > 0 && len(result) > options.Limit {
		result = result[:options.Limit]
	}
	return result, nil
}

// GetKlines retrieves candlestick data for the specified symbol. The batch
// is returned as-is apart from timestamp rescaling; an out-of-order batch
// fails with core.ErrKlinesOutOfOrder.
func (e *UEXExchange) GetKlines(ctx context.Context, symbol string, opts ...exchange.Option) ([]core.Kline, error) {
	market, err := e.market(symbol)
	if err != nil {
		return nil, err
	}

	options := exchange.ApplyOptions(opts...)
	params := core.Params{"symbol": market.ID}
	if options.Interval != "" {
		params["period"] = options.Interval
	}

	data, err := e.call(ctx, core.OpGetKlines, params, bucketPublic)
	if err != nil {
		return nil, err
	}

	var rows [][]numeric
	if err := sonic.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode klines: %w", err)
	}

	klines, err := e.normalizer.NormalizeKlines(rows, market.Symbol)
	if err != nil {
		return nil, err
	}
	if options.Limit > 0 && len(klines) > options.Limit {
		klines = klines[len(klines)-options.Limit:]
	}
	return klines, nil
}

// GetBalance retrieves the full account balance snapshot.
func (e *UEXExchange) GetBalance(ctx context.Context, opts ...exchange.Option) ([]core.Balance, error) {
	data, err := e.call(ctx, core.OpGetBalance, nil, bucketPrivate)
	if err != nil {
		return nil, err
	}

	var account uexAccount
	if err := sonic.Unmarshal(data, &account); err != nil {
		return nil, fmt.Errorf("decode account: %w", err)
	}

	return e.normalizer.NormalizeBalances(&account)
}

// PlaceOrder submits a new order. The upstream acknowledgment carries only
// the order id, so the returned order reflects the request with status open
// and no timestamp; callers needing live state re-fetch via GetOrder.
func (e *UEXExchange) PlaceOrder(ctx context.Context, req *exchange.OrderRequest, opts ...exchange.Option) (*core.Order, error) {
	market, err := e.market(req.Symbol)
	if err != nil {
		return nil, err
	}

	params := core.Params{
		"symbol": market.ID,
		"side":   strings.ToUpper(req.Side.String()),
		"type":   orderTypeCode(req.Type),
		"volume": req.Amount.Text('f'),
	}
	if req.Type == core.TypeLimit {
		params["price"] = req.Price.Text('f')
	}

	data, err := e.call(ctx, core.OpPlaceOrder, params, bucketPrivate)
	if err != nil {
		return nil, err
	}

	var ack struct {
		OrderID numeric `json:"order_id"`
	}
	if err := sonic.Unmarshal(data, &ack); err != nil {
		return nil, fmt.Errorf("decode order ack: %w", err)
	}
	if ack.OrderID.empty() {
		return nil, core.NewExchangeError(e.Name(), core.ErrorTypeExchange,
			"order acknowledgment missing order id").WithRaw(data)
	}

	order := &core.Order{
		ID:     string(ack.OrderID),
		Symbol: market.Symbol,
		Side:   req.Side,
		Type:   req.Type,
		Amount: req.Amount,
		Status: core.StatusOpen,
		Raw:    data,
	}
	order.Remaining = req.Amount
	if req.Type == core.TypeLimit {
		price := req.Price
		order.Price = &price
	}
	return order, nil
}

// CancelOrder requests cancellation of an existing order. No order is
// returned: the next GetOrder reflects whatever state the exchange settled
// on.
func (e *UEXExchange) CancelOrder(ctx context.Context, req *exchange.CancelRequest, opts ...exchange.Option) error {
	market, err := e.market(req.Symbol)
	if err != nil {
		return err
	}

	_, err = e.call(ctx, core.OpCancelOrder, core.Params{
		"symbol":   market.ID,
		"order_id": req.OrderID,
	}, bucketPrivate)
	return err
}

// GetOrder retrieves the current state of a single order.
func (e *UEXExchange) GetOrder(ctx context.Context, req *exchange.OrderQuery, opts ...exchange.Option) (*core.Order, error) {
	market, err := e.market(req.Symbol)
	if err != nil {
		return nil, err
	}

	data, err := e.call(ctx, core.OpGetOrder, core.Params{
		"symbol":   market.ID,
		"order_id": req.OrderID,
	}, bucketPrivate)
	if err != nil {
		return nil, err
	}

	var payload struct {
		OrderInfo *uexOrder `json:"order_info"`
	}
	if err := sonic.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode order: %w", err)
	}
	if payload.OrderInfo == nil {
		return nil, core.NewExchangeErrorWithCode(e.Name(), core.ErrorTypeOrderNotFound,
			"22", fmt.Sprintf("order %s not found", req.OrderID)).WithRaw(data)
	}

	return e.normalizer.NormalizeOrder(payload.OrderInfo, market, data)
}

// GetOpenOrders retrieves the open orders for the specified symbol.
func (e *UEXExchange) GetOpenOrders(ctx context.Context, symbol string, opts ...exchange.Option) ([]core.Order, error) {
	return e.listOrders(ctx, core.OpGetOpenOrders, symbol, opts...)
}

// GetOrderHistory retrieves past orders for the specified symbol.
func (e *UEXExchange) GetOrderHistory(ctx context.Context, symbol string, opts ...exchange.Option) ([]core.Order, error) {
	return e.listOrders(ctx, core.OpGetOrderHistory, symbol, opts...)
}

func (e *UEXExchange) listOrders(ctx context.Context, op core.Operation, symbol string, opts ...exchange.Option) ([]core.Order, error) {
	market, err := e.market(symbol)
	if err != nil {
		return nil, err
	}

	data, err := e.call(ctx, op, pagedParams(market.ID, opts...), bucketPrivate)
	if err != nil {
		return nil, err
	}

	var payload struct {
		ResultList []uexOrder `json:"resultList"`
	}
	if err := sonic.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}

	return e.normalizer.NormalizeOrders(payload.ResultList, market)
}

// GetMyTrades retrieves the account's own trade history for the specified
// symbol.
func (e *UEXExchange) GetMyTrades(ctx context.Context, symbol string, opts ...exchange.Option) ([]core.Trade, error) {
	market, err := e.market(symbol)
	if err != nil {
		return nil, err
	}

	data, err := e.call(ctx, core.OpGetMyTrades, pagedParams(market.ID, opts...), bucketPrivate)
	if err != nil {
		return nil, err
	}

	var payload struct {
		ResultList []uexTrade `json:"resultList"`
	}
	if err := sonic.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode trades: %w", err)
	}

	return e.normalizer.NormalizeTrades(payload.ResultList, market)
}

// GetDepositAddress retrieves the deposit address for a currency. An
// address the exchange has not generated yet surfaces as a retryable
// AddressPending error.
func (e *UEXExchange) GetDepositAddress(ctx context.Context, currency string, opts ...exchange.Option) (*core.DepositAddress, error) {
	code := registry.CurrencyCode(currency, currencyAliases)

	data, err := e.call(ctx, core.OpGetDepositAddress, core.Params{
		"coin": strings.ToLower(code),
	}, bucketPrivate)
	if err != nil {
		return nil, err
	}

	var payload struct {
		AddressList []uexAddress `json:"addressList"`
	}
	if err := sonic.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode addresses: %w", err)
	}

	var match *uexAddress
	for i := range payload.AddressList {
		if strings.EqualFold(payload.AddressList[i].Coin, code) {
			match = &payload.AddressList[i]
			break
		}
	}
	return e.normalizer.NormalizeDepositAddress(match, code, data)
}

// Withdraw submits a withdrawal request and returns the upstream
// acknowledgment.
func (e *UEXExchange) Withdraw(ctx context.Context, req *exchange.WithdrawRequest, opts ...exchange.Option) (*core.Withdrawal, error) {
	code := registry.CurrencyCode(req.Currency, currencyAliases)

	params := core.Params{
		"coin":    strings.ToLower(code),
		"amount":  req.Amount.Text('f'),
		"address": req.Address,
	}
	if req.Tag != "" {
		params["tag"] = req.Tag
	}

	data, err := e.call(ctx, core.OpWithdraw, params, bucketPrivate)
	if err != nil {
		return nil, err
	}

	var ack struct {
		ID numeric `json:"id"`
	}
	if err := sonic.Unmarshal(data, &ack); err != nil {
		return nil, fmt.Errorf("decode withdrawal ack: %w", err)
	}

	return &core.Withdrawal{
		ID:       string(ack.ID),
		Currency: code,
		Amount:   req.Amount,
		Address:  req.Address,
	}, nil
}

// market resolves a canonical symbol against the loaded registry.
func (e *UEXExchange) market(symbol string) (*core.Market, error) {
	reg := e.markets.Load()
	if reg == nil {
		return nil, core.ErrMarketsNotLoaded
	}
	m, ok := reg.BySymbol(symbol)
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrSymbolNotFound, symbol)
	}
	return &m, nil
}

// call runs the full request pipeline for one operation: build, sign if
// private, rate limit, circuit-break, send, classify, and unwrap the data
// envelope.
func (e *UEXExchange) call(ctx context.Context, op core.Operation, params core.Params, bucket string) ([]byte, error) {
	req, err := e.protocol.BuildRequest(op, params)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	if req.RequireAuth {
		creds, err := e.credentials()
		if err != nil {
			return nil, err
		}
		if err := e.protocol.Sign(req, creds); err != nil {
			return nil, err
		}
		if e.keyRing != nil {
			e.keyRing.MarkUsed()
		}
	}

	if e.rateLimiter != nil {
		if err := e.rateLimiter.WaitBucket(ctx, bucket); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	if e.circuitBreaker != nil && !e.circuitBreaker.Allow() {
		return nil, core.NewExchangeError(e.Name(), core.ErrorTypeExchangeNotAvailable,
			"circuit breaker open")
	}

	resp, err := e.send(ctx, req)
	if err != nil {
		e.recordOutcome(false)
		return nil, core.NewExchangeError(e.Name(), core.ErrorTypeNetwork, err.Error())
	}

	body := resp.Bytes()
	if err := e.protocol.Classify(body); err != nil {
		e.recordOutcome(!core.IsErrorType(err, core.ErrorTypeExchangeNotAvailable))
		if req.RequireAuth && core.IsAuthenticationError(err) && e.keyRing != nil {
			e.keyRing.OnError(err)
		}
		return nil, err
	}
	if resp.StatusCode() >= http.StatusInternalServerError {
		e.recordOutcome(false)
		return nil, core.NewExchangeErrorWithCode(e.Name(), core.ErrorTypeExchangeNotAvailable,
			strconv.Itoa(resp.StatusCode()), "upstream server error").WithRaw(body)
	}
	e.recordOutcome(true)

	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := sonic.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	return env.Data, nil
}

func (e *UEXExchange) send(ctx context.Context, req *core.Request) (httpResponse, error) {
	switch req.Method {
	case http.MethodGet:
		return e.httpClient.Get(ctx, req.Path, req.Query, req.Headers)
	case http.MethodPost:
		return e.httpClient.PostForm(ctx, req.Path, req.Query, req.Headers)
	default:
		return nil, fmt.Errorf("unsupported method: %s", req.Method)
	}
}

// httpResponse is the slice of the resty response the call pipeline needs.
type httpResponse interface {
	Bytes() []byte
	StatusCode() int
}

func (e *UEXExchange) recordOutcome(success bool) {
	if e.circuitBreaker != nil {
		e.circuitBreaker.Record(success)
	}
}

// credentials resolves the credential set: the key ring takes precedence
// over the static config credentials.
func (e *UEXExchange) credentials() (*core.Credentials, error) {
	if e.keyRing != nil {
		if creds := e.keyRing.Current(); creds != nil {
			return creds, nil
		}
	}
	if e.config.Credentials != nil {
		return e.config.Credentials, nil
	}
	return nil, core.NewExchangeError(e.Name(), core.ErrorTypeAuthentication,
		"no credentials configured")
}

func pagedParams(marketID string, opts ...exchange.Option) core.Params {
	options := exchange.ApplyOptions(opts...)
	params := core.Params{"symbol": marketID}
	if options.Limit > 0 {
		params["pageSize"] = strconv.Itoa(options.Limit)
	}
	if options.Page > 0 {
		params["page"] = strconv.Itoa(options.Page)
	}
	return params
}

// Register constructs a UEXExchange from config and registers it in the
// container under its exchange name.
func Register(container *exchange.Container, config *core.Config, opts ...Option) error {
	e, err := New(config, opts...)
	if err != nil {
		return fmt.Errorf("create uex exchange: %w", err)
	}
	container.Register(e.Name(), e)
	return nil
}

func orderTypeCode(t core.OrderType) string {
	if t == core.TypeMarket {
		return "2"
	}
	return "1"
}
