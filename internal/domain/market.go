package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TokenInfo describe un token del chain tal como lo reporta el gateway.
// Decimals solo gobierna el escalado de cantidades en el transporte;
// el core siempre opera con decimal.Decimal, nunca floats.
type TokenInfo struct {
	ID       string
	Name     string
	Symbol   string
	Decimals int
}

// Market is the venue-side identity and trading rules for one trading pair.
// Instances are immutable: the registry replaces the whole set on refresh,
// never mutates one in place.
type Market struct {
	ID          string // on-chain contract address of the market
	Name        string // venue name, e.g. "KUJI/USK"
	TradingPair string // engine name, e.g. "KUJI-USK"

	BaseToken  TokenInfo
	QuoteToken TokenInfo

	MinOrderSize            decimal.Decimal
	MinPriceIncrement       decimal.Decimal
	MinBaseAmountIncrement  decimal.Decimal
	MinQuoteAmountIncrement decimal.Decimal

	MakerFee           decimal.Decimal
	TakerFee           decimal.Decimal
	ServiceProviderFee decimal.Decimal

	Deprecated bool
}

// MarketSet es un snapshot inmutable de mercados indexado por trading pair.
// Se construye completo y se swapea atómicamente — los lectores nunca ven
// un índice a medio poblar.
type MarketSet struct {
	byPair    map[string]Market
	fetchedAt time.Time
}

// NewMarketSet builds a snapshot from the given markets, indexed by TradingPair.
func NewMarketSet(markets []Market) *MarketSet {
	byPair := make(map[string]Market, len(markets))
	for _, m := range markets {
		byPair[m.TradingPair] = m
	}
	return &MarketSet{byPair: byPair, fetchedAt: time.Now().UTC()}
}

// Resolve looks up a market by trading pair name.
func (s *MarketSet) Resolve(tradingPair string) (Market, bool) {
	m, ok := s.byPair[tradingPair]
	return m, ok
}

// Len returns the number of markets in the snapshot.
func (s *MarketSet) Len() int {
	return len(s.byPair)
}

// TradingPairs returns the trading pair names in the snapshot.
func (s *MarketSet) TradingPairs() []string {
	names := make([]string, 0, len(s.byPair))
	for name := range s.byPair {
		names = append(names, name)
	}
	return names
}

// FetchedAt returns when this snapshot was built.
func (s *MarketSet) FetchedAt() time.Time {
	return s.fetchedAt
}
