package uex

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"

	"uexgo/pkg/core"
	"uexgo/pkg/registry"
)

// decCtx is the shared decimal context for all normalizer arithmetic.
var decCtx = apd.BaseContext.WithPrecision(34)

var hundred = apd.New(100, 0)

// currencyAliases maps UEX-native currency codes onto standard ticker
// symbols. Applied to base/quote codes and fee currencies alike.
var currencyAliases = map[string]string{
	"BCC": "BCH",
	"XBT": "BTC",
}

// numeric is a JSON field that UEX serves sometimes as a number and
// sometimes as a quoted string, depending on the endpoint. All numeric
// parsing in the normalizers goes through this one type.
type numeric string

// UnmarshalJSON accepts a JSON number, string, or null.
func (n *numeric) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*n = ""
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	*n = numeric(s)
	return nil
}

func (n numeric) empty() bool {
	return n == ""
}

// decimal parses the field into dest. Empty input leaves dest zero.
func (n numeric) decimal(dest *apd.Decimal) error {
	if n.empty() {
		*dest = apd.Decimal{}
		return nil
	}
	if _, _, err := apd.BaseContext.SetString(dest, string(n)); err != nil {
		return fmt.Errorf("parse decimal %q: %w", string(n), err)
	}
	return nil
}

// optional parses the field into a fresh decimal, or returns nil when the
// upstream omitted it.
func (n numeric) optional() (*apd.Decimal, error) {
	if n.empty() {
		return nil, nil
	}
	var d apd.Decimal
	if err := n.decimal(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (n numeric) int64() (int64, bool) {
	if n.empty() {
		return 0, false
	}
	var v int64
	if _, err := fmt.Sscanf(string(n), "%d", &v); err != nil {
		return 0, false
	}
	return v, true
}

// firstNonEmpty resolves a logical attribute served under alternate field
// names: the first present value wins, in declaration order.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstMillis(values ...int64) time.Time {
	for _, v := range values {
		if v != 0 {
			return time.UnixMilli(v)
		}
	}
	return time.Time{}
}

// uexSymbol is one entry of the /open/api/common/symbols response.
type uexSymbol struct {
	Symbol          string `json:"symbol"`
	BaseCoin        string `json:"base_coin"`
	CountCoin       string `json:"count_coin"`
	PricePrecision  int    `json:"price_precision"`
	AmountPrecision int    `json:"amount_precision"`
}

// uexTicker is the /open/api/get_ticker payload. Prices arrive as numbers
// except buy/sell, which the exchange quotes as strings.
type uexTicker struct {
	Symbol string  `json:"symbol"`
	High   numeric `json:"high"`
	Low    numeric `json:"low"`
	Last   numeric `json:"last"`
	Change numeric `json:"change"`
	Buy    numeric `json:"buy"`
	Sell   numeric `json:"sell"`
	Vol    numeric `json:"vol"`
	Time   int64   `json:"time"`
}

// uexTrade is one public or private trade record. The side arrives under
// "side" on the private history endpoint and under "type" on the public
// one.
type uexTrade struct {
	ID         numeric `json:"id"`
	TradeID    numeric `json:"trade_id"`
	BidID      numeric `json:"bid_id"`
	AskID      numeric `json:"ask_id"`
	Price      numeric `json:"price"`
	Amount     numeric `json:"amount"`
	Volume     numeric `json:"volume"`
	Side       string  `json:"side"`
	Type       string  `json:"type"`
	Ctime      int64   `json:"ctime"`
	CreateTime int64   `json:"create_time"`
	Fee        numeric `json:"fee"`
	FeeCoin    string  `json:"fee_coin"`
}

// uexDepthTick is the tick object of the /open/api/market_dept response.
type uexDepthTick struct {
	Asks [][]numeric `json:"asks"`
	Bids [][]numeric `json:"bids"`
	Time int64       `json:"time"`
}

// uexOrderTrade is one fill inside an order's tradeList.
type uexOrderTrade struct {
	Price   numeric `json:"price"`
	Volume  numeric `json:"volume"`
	Fee     numeric `json:"fee"`
	FeeCoin string  `json:"fee_coin"`
	Ctime   int64   `json:"ctime"`
}

// uexOrder is an order record as returned by order_info, new_order and
// all_order.
type uexOrder struct {
	ID      numeric `json:"id"`
	OrderID numeric `json:"order_id"`
	Side    string  `json:"side"`
	// Type carries the LIMIT_BUY-style enumeration on some endpoints and
	// the numeric order kind (1 limit, 2 market) on others.
	Type         numeric         `json:"type"`
	Price        numeric         `json:"price"`
	AvgPrice     numeric         `json:"avg_price"`
	Volume       numeric         `json:"volume"`
	DealVolume   numeric         `json:"deal_volume"`
	RemainVolume numeric         `json:"remain_volume"`
	TotalPrice   numeric         `json:"total_price"`
	CreatedAt    int64           `json:"created_at"`
	Ctime        int64           `json:"ctime"`
	Status       numeric         `json:"status"`
	TradeList    []uexOrderTrade `json:"tradeList"`
}

// uexCoinBalance is one entry of the user/account coin_list.
type uexCoinBalance struct {
	Coin   string  `json:"coin"`
	Normal numeric `json:"normal"`
	Locked numeric `json:"locked"`
}

// uexAccount is the user/account payload.
type uexAccount struct {
	TotalAsset numeric          `json:"total_asset"`
	CoinList   []uexCoinBalance `json:"coin_list"`
}

// uexAddress is one entry of the deposit_address_list payload.
type uexAddress struct {
	Coin    string `json:"coin"`
	Address string `json:"address"`
	Tag     string `json:"tag"`
}

// Normalizer converts UEX payload shapes into canonical core records. All
// methods are pure functions over their inputs.
type Normalizer struct{}

// NewNormalizer creates a new Normalizer instance.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// NormalizeMarkets converts the symbol list into canonical markets.
func (n *Normalizer) NormalizeMarkets(symbols []uexSymbol) ([]core.Market, error) {
	markets := make([]core.Market, 0, len(symbols))
	for _, s := range symbols {
		if s.Symbol == "" || s.BaseCoin == "" || s.CountCoin == "" {
			return nil, fmt.Errorf("symbol entry missing identifiers: %+v", s)
		}
		base := registry.CurrencyCode(s.BaseCoin, currencyAliases)
		quote := registry.CurrencyCode(s.CountCoin, currencyAliases)
		markets = append(markets, core.Market{
			ID:              s.Symbol,
			Symbol:          base + "/" + quote,
			Base:            base,
			Quote:           quote,
			BaseID:          strings.ToLower(s.BaseCoin),
			QuoteID:         strings.ToLower(s.CountCoin),
			PricePrecision:  s.PricePrecision,
			AmountPrecision: s.AmountPrecision,
			Active:          true,
		})
	}
	return markets, nil
}

// NormalizeTicker converts a ticker payload. The upstream change value is a
// fraction and is rescaled by 100 into percentage units; the timestamp is
// left zero when the payload omits it rather than defaulted to the local
// clock.
func (n *Normalizer) NormalizeTicker(data *uexTicker, market *core.Market, raw []byte) (*core.Ticker, error) {
	ticker := &core.Ticker{
		Timestamp: firstMillis(data.Time),
		Raw:       raw,
	}
	if market != nil {
		ticker.Symbol = market.Symbol
	}

	if err := data.High.decimal(&ticker.High); err != nil {
		return nil, fmt.Errorf("high: %w", err)
	}
	if err := data.Low.decimal(&ticker.Low); err != nil {
		return nil, fmt.Errorf("low: %w", err)
	}
	if err := data.Last.decimal(&ticker.Last); err != nil {
		return nil, fmt.Errorf("last: %w", err)
	}
	if err := data.Buy.decimal(&ticker.Bid); err != nil {
		return nil, fmt.Errorf("buy: %w", err)
	}
	if err := data.Sell.decimal(&ticker.Ask); err != nil {
		return nil, fmt.Errorf("sell: %w", err)
	}
	if err := data.Vol.decimal(&ticker.BaseVolume); err != nil {
		return nil, fmt.Errorf("vol: %w", err)
	}

	change, err := data.Change.optional()
	if err != nil {
		return nil, fmt.Errorf("change: %w", err)
	}
	if change != nil {
		var pct apd.Decimal
		if _, err := decCtx.Mul(&pct, change, hundred); err != nil {
			return nil, fmt.Errorf("rescale change: %w", err)
		}
		ticker.Percentage = &pct
	}

	return ticker, nil
}

// NormalizeTrade converts a trade record. The side is read from "side" or
// "type" (first present wins) and lower-cased; cost is computed locally as
// price times amount, never read from upstream.
func (n *Normalizer) NormalizeTrade(data *uexTrade, market *core.Market, raw []byte) (*core.Trade, error) {
	side, err := parseSide(firstNonEmpty(data.Side, data.Type))
	if err != nil {
		return nil, err
	}

	trade := &core.Trade{
		ID:        firstNonEmpty(string(data.ID), string(data.TradeID)),
		Side:      side,
		Timestamp: firstMillis(data.Ctime, data.CreateTime),
		Raw:       raw,
	}
	if market != nil {
		trade.Symbol = market.Symbol
	}

	amount := firstNonEmpty(string(data.Amount), string(data.Volume))
	if data.Price.empty() || amount == "" {
		return nil, fmt.Errorf("trade %s: missing price or amount", trade.ID)
	}
	if err := data.Price.decimal(&trade.Price); err != nil {
		return nil, fmt.Errorf("price: %w", err)
	}
	if err := numeric(amount).decimal(&trade.Amount); err != nil {
		return nil, fmt.Errorf("amount: %w", err)
	}
	if _, err := decCtx.Mul(&trade.Cost, &trade.Price, &trade.Amount); err != nil {
		return nil, fmt.Errorf("compute cost: %w", err)
	}

	if !data.Fee.empty() {
		fee := &core.Fee{Currency: registry.CurrencyCode(data.FeeCoin, currencyAliases)}
		if err := data.Fee.decimal(&fee.Cost); err != nil {
			return nil, fmt.Errorf("fee: %w", err)
		}
		trade.Fee = fee
	}

	return trade, nil
}

// NormalizeTrades converts a batch of trade records.
func (n *Normalizer) NormalizeTrades(data []uexTrade, market *core.Market) ([]core.Trade, error) {
	trades := make([]core.Trade, 0, len(data))
	for i := range data {
		trade, err := n.NormalizeTrade(&data[i], market, nil)
		if err != nil {
			return nil, fmt.Errorf("normalize trade: %w", err)
		}
		trades = append(trades, *trade)
	}
	return trades, nil
}

// NormalizeOrderBook converts a depth tick. Sorting is this function's
// responsibility: asks ascending and bids descending by price, whatever
// order the upstream returned. The timestamp comes from the depth payload's
// own server-time field.
func (n *Normalizer) NormalizeOrderBook(data *uexDepthTick, market *core.Market, raw []byte) (*core.OrderBook, error) {
	book := &core.OrderBook{
		Timestamp: firstMillis(data.Time),
		Raw:       raw,
	}
	if market != nil {
		book.Symbol = market.Symbol
	}

	asks, err := normalizeLevels(data.Asks)
	if err != nil {
		return nil, fmt.Errorf("asks: %w", err)
	}
	bids, err := normalizeLevels(data.Bids)
	if err != nil {
		return nil, fmt.Errorf("bids: %w", err)
	}

	sort.Slice(asks, func(i, j int) bool {
		return asks[i].Price.Cmp(&asks[j].Price) < 0
	})
	sort.Slice(bids, func(i, j int) bool {
		return bids[i].Price.Cmp(&bids[j].Price) > 0
	})

	book.Asks = asks
	book.Bids = bids
	return book, nil
}

func normalizeLevels(levels [][]numeric) ([]core.OrderBookLevel, error) {
	result := make([]core.OrderBookLevel, 0, len(levels))
	for _, level := range levels {
		if len(level) < 2 {
			continue
		}
		var obl core.OrderBookLevel
		if err := level[0].decimal(&obl.Price); err != nil {
			return nil, fmt.Errorf("price: %w", err)
		}
		if err := level[1].decimal(&obl.Volume); err != nil {
			return nil, fmt.Errorf("volume: %w", err)
		}
		result = append(result, obl)
	}
	return result, nil
}

// NormalizeKlines converts a candle batch. Upstream timestamps are epoch
// seconds and are rescaled to milliseconds. The batch is passed through
// without resampling or gap-filling, but ascending order is verified: a
// violation returns core.ErrKlinesOutOfOrder so the caller can detect the
// integrity condition instead of silently trusting upstream ordering.
func (n *Normalizer) NormalizeKlines(rows [][]numeric, symbol string) ([]core.Kline, error) {
	klines := make([]core.Kline, 0, len(rows))
	var prev int64

	for i, row := range rows {
		if len(row) < 6 {
			return nil, fmt.Errorf("kline row %d: expected 6 fields, got %d", i, len(row))
		}

		sec, ok := row[0].int64()
		if !ok {
			return nil, fmt.Errorf("kline row %d: bad timestamp %q", i, string(row[0]))
		}
		if i > 0 && sec <= prev {
			return nil, core.ErrKlinesOutOfOrder
		}
		prev = sec

		k := core.Kline{
			Symbol:   symbol,
			OpenTime: time.UnixMilli(sec * 1000),
		}
		if err := row[1].decimal(&k.Open); err != nil {
			return nil, fmt.Errorf("kline row %d open: %w", i, err)
		}
		if err := row[2].decimal(&k.High); err != nil {
			return nil, fmt.Errorf("kline row %d high: %w", i, err)
		}
		if err := row[3].decimal(&k.Low); err != nil {
			return nil, fmt.Errorf("kline row %d low: %w", i, err)
		}
		if err := row[4].decimal(&k.Close); err != nil {
			return nil, fmt.Errorf("kline row %d close: %w", i, err)
		}
		if err := row[5].decimal(&k.Volume); err != nil {
			return nil, fmt.Errorf("kline row %d volume: %w", i, err)
		}
		klines = append(klines, k)
	}

	return klines, nil
}

// NormalizeOrder converts an order record. The timestamp precedence is
// fixed: explicit open time (created_at), then creation time (ctime), then
// the time of the newest fill. Status codes outside the known table pass
// through verbatim.
func (n *Normalizer) NormalizeOrder(data *uexOrder, market *core.Market, raw []byte) (*core.Order, error) {
	side, err := parseOrderSide(firstNonEmpty(data.Side, string(data.Type)))
	if err != nil {
		return nil, err
	}

	order := &core.Order{
		ID:     firstNonEmpty(string(data.ID), string(data.OrderID)),
		Side:   side,
		Type:   parseOrderType(firstNonEmpty(string(data.Type), data.Side)),
		Status: statusFromCode(string(data.Status)),
		Raw:    raw,
	}
	if market != nil {
		order.Symbol = market.Symbol
	}

	if err := data.Volume.decimal(&order.Amount); err != nil {
		return nil, fmt.Errorf("volume: %w", err)
	}
	if err := data.DealVolume.decimal(&order.Filled); err != nil {
		return nil, fmt.Errorf("deal_volume: %w", err)
	}
	if err := data.RemainVolume.decimal(&order.Remaining); err != nil {
		return nil, fmt.Errorf("remain_volume: %w", err)
	}

	if order.Price, err = data.Price.optional(); err != nil {
		return nil, fmt.Errorf("price: %w", err)
	}
	if order.Average, err = data.AvgPrice.optional(); err != nil {
		return nil, fmt.Errorf("avg_price: %w", err)
	}

	if order.Average != nil && !data.DealVolume.empty() {
		var cost apd.Decimal
		if _, err := decCtx.Mul(&cost, order.Average, &order.Filled); err != nil {
			return nil, fmt.Errorf("compute cost: %w", err)
		}
		order.Cost = &cost
	} else if order.Cost, err = data.TotalPrice.optional(); err != nil {
		return nil, fmt.Errorf("total_price: %w", err)
	}

	var lastTrade int64
	for i := range data.TradeList {
		if data.TradeList[i].Ctime > lastTrade {
			lastTrade = data.TradeList[i].Ctime
		}
	}
	order.LastTradeTimestamp = firstMillis(lastTrade)
	order.Timestamp = firstMillis(data.CreatedAt, data.Ctime, lastTrade)

	if fee, err := n.aggregateFees(data.TradeList); err != nil {
		return nil, err
	} else if fee != nil {
		order.Fee = fee
	}

	return order, nil
}

// aggregateFees sums fill fees when each fill charged the same currency.
// Mixed-currency fee lists produce no aggregate fee.
func (n *Normalizer) aggregateFees(trades []uexOrderTrade) (*core.Fee, error) {
	var fee *core.Fee
	for i := range trades {
		if trades[i].Fee.empty() {
			continue
		}
		currency := registry.CurrencyCode(trades[i].FeeCoin, currencyAliases)
		var cost apd.Decimal
		if err := trades[i].Fee.decimal(&cost); err != nil {
			return nil, fmt.Errorf("fill fee: %w", err)
		}
		if fee == nil {
			fee = &core.Fee{Cost: cost, Currency: currency}
			continue
		}
		if fee.Currency != currency {
			return nil, nil
		}
		if _, err := decCtx.Add(&fee.Cost, &fee.Cost, &cost); err != nil {
			return nil, fmt.Errorf("sum fees: %w", err)
		}
	}
	return fee, nil
}

// NormalizeOrders converts a batch of order records.
func (n *Normalizer) NormalizeOrders(data []uexOrder, market *core.Market) ([]core.Order, error) {
	orders := make([]core.Order, 0, len(data))
	for i := range data {
		order, err := n.NormalizeOrder(&data[i], market, nil)
		if err != nil {
			return nil, fmt.Errorf("normalize order: %w", err)
		}
		orders = append(orders, *order)
	}
	return orders, nil
}

// NormalizeBalances converts the account snapshot. Total is computed as
// free plus used; the snapshot replaces any previous one wholesale.
func (n *Normalizer) NormalizeBalances(account *uexAccount) ([]core.Balance, error) {
	balances := make([]core.Balance, 0, len(account.CoinList))
	for _, c := range account.CoinList {
		b := core.Balance{
			Currency: registry.CurrencyCode(c.Coin, currencyAliases),
		}
		if err := c.Normal.decimal(&b.Free); err != nil {
			return nil, fmt.Errorf("%s free: %w", c.Coin, err)
		}
		if err := c.Locked.decimal(&b.Used); err != nil {
			return nil, fmt.Errorf("%s locked: %w", c.Coin, err)
		}
		if _, err := decCtx.Add(&b.Total, &b.Free, &b.Used); err != nil {
			return nil, fmt.Errorf("%s total: %w", c.Coin, err)
		}
		balances = append(balances, b)
	}
	return balances, nil
}

// NormalizeDepositAddress converts an address entry. An entry whose address
// has not been generated yet raises AddressPending, which callers should
// treat as retryable.
func (n *Normalizer) NormalizeDepositAddress(data *uexAddress, currency string, raw []byte) (*core.DepositAddress, error) {
	if data == nil || data.Address == "" {
		return nil, core.NewExchangeError(exchangeName, core.ErrorTypeAddressPending,
			fmt.Sprintf("deposit address for %s not generated yet", currency)).WithRaw(raw)
	}
	return &core.DepositAddress{
		Currency: currency,
		Address:  data.Address,
		Tag:      data.Tag,
	}, nil
}

// parseSide maps a trade side value ("buy"/"sell" in either case) onto the
// canonical side.
func parseSide(s string) (core.OrderSide, error) {
	switch strings.ToLower(s) {
	case "buy":
		return core.SideBuy, nil
	case "sell":
		return core.SideSell, nil
	default:
		return 0, fmt.Errorf("unrecognized trade side %q", s)
	}
}

// parseOrderSide maps the order side enumeration: both the plain and the
// LIMIT_-prefixed variants appear upstream depending on the endpoint.
func parseOrderSide(s string) (core.OrderSide, error) {
	switch strings.ToUpper(s) {
	case "BUY", "LIMIT_BUY", "MARKET_BUY":
		return core.SideBuy, nil
	case "SELL", "LIMIT_SELL", "MARKET_SELL":
		return core.SideSell, nil
	default:
		return 0, fmt.Errorf("unrecognized order side %q", s)
	}
}

func parseOrderType(s string) core.OrderType {
	switch strings.ToUpper(s) {
	case "2", "MARKET_BUY", "MARKET_SELL", "MARKET":
		return core.TypeMarket
	default:
		return core.TypeLimit
	}
}

// statusFromCode is the fixed order status table. The upstream system is
// the sole authority on order lifecycle, so this is a pure lookup with no
// transition validation; unknown codes are returned verbatim.
func statusFromCode(code string) core.OrderStatus {
	switch code {
	case "0", "1", "3":
		return core.StatusOpen
	case "2":
		return core.StatusClosed
	case "4", "5", "6":
		return core.StatusCanceled
	default:
		return core.OrderStatus(code)
	}
}
