package gateway

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/kujibot/internal/domain"
	"github.com/alejandrodnm/kujibot/internal/ports"
)

// mapMarkets convierte el map de mercados del gateway a domain.Market.
// La key del map es el trading pair del engine ("KUJI-USK").
func mapMarkets(raw map[string]marketDTO) ([]domain.Market, error) {
	markets := make([]domain.Market, 0, len(raw))
	for tradingPair, dto := range raw {
		m, err := mapMarket(tradingPair, dto)
		if err != nil {
			return nil, fmt.Errorf("market %q: %w", tradingPair, err)
		}
		markets = append(markets, m)
	}
	return markets, nil
}

// mapMarket convierte un marketDTO a domain.Market.
func mapMarket(tradingPair string, dto marketDTO) (domain.Market, error) {
	minOrder, err := parseDecimal("minimumOrderSize", dto.MinimumOrderSize)
	if err != nil {
		return domain.Market{}, err
	}
	minPrice, err := parseDecimal("minimumPriceIncrement", dto.MinimumPriceIncrement)
	if err != nil {
		return domain.Market{}, err
	}
	minBase, err := parseDecimal("minimumBaseAmountIncrement", dto.MinimumBaseAmountIncrement)
	if err != nil {
		return domain.Market{}, err
	}
	minQuote, err := parseDecimal("minimumQuoteAmountIncrement", dto.MinimumQuoteAmountIncrement)
	if err != nil {
		return domain.Market{}, err
	}
	maker, err := parseDecimal("fees.maker", dto.Fees.Maker)
	if err != nil {
		return domain.Market{}, err
	}
	taker, err := parseDecimal("fees.taker", dto.Fees.Taker)
	if err != nil {
		return domain.Market{}, err
	}
	serviceProvider, err := parseDecimal("fees.serviceProvider", dto.Fees.ServiceProvider)
	if err != nil {
		return domain.Market{}, err
	}

	return domain.Market{
		ID:                      dto.ID,
		Name:                    dto.Name,
		TradingPair:             tradingPair,
		BaseToken:               mapToken(dto.BaseToken),
		QuoteToken:              mapToken(dto.QuoteToken),
		MinOrderSize:            minOrder,
		MinPriceIncrement:       minPrice,
		MinBaseAmountIncrement:  minBase,
		MinQuoteAmountIncrement: minQuote,
		MakerFee:                maker,
		TakerFee:                taker,
		ServiceProviderFee:      serviceProvider,
		Deprecated:              dto.Deprecated,
	}, nil
}

func mapToken(dto tokenDTO) domain.TokenInfo {
	return domain.TokenInfo{
		ID:       dto.ID,
		Name:     dto.Name,
		Symbol:   dto.Symbol,
		Decimals: dto.Decimals,
	}
}

// mapOrderRecord convierte la respuesta de GET /order a ports.OrderRecord.
func mapOrderRecord(dto orderResponseDTO) (ports.OrderRecord, error) {
	price, err := parseDecimal("price", dto.Price)
	if err != nil {
		return ports.OrderRecord{}, err
	}
	amount, err := parseDecimal("amount", dto.Amount)
	if err != nil {
		return ports.OrderRecord{}, err
	}

	filled := decimal.Zero
	if dto.FilledAmount != "" {
		filled, err = parseDecimal("filledAmount", dto.FilledAmount)
		if err != nil {
			return ports.OrderRecord{}, err
		}
	}

	return ports.OrderRecord{
		ExchangeOrderID:    dto.ID,
		MarketID:           dto.MarketID,
		Status:             domain.VenueOrderStatus(strings.ToUpper(dto.Status)),
		Price:              price,
		Amount:             amount,
		FilledAmount:       filled,
		CreationTxHash:     dto.Hashes.Creation,
		CancellationTxHash: dto.Hashes.Cancellation,
		TimestampMillis:    dto.Timestamp,
	}, nil
}

// mapBalances convierte la respuesta de balances, parseando cada componente.
func mapBalances(dto balancesResponseDTO) (ports.BalancesResponse, error) {
	tokens := make(map[string]domain.TokenBalance, len(dto.Tokens))
	for symbol, raw := range dto.Tokens {
		free, err := parseDecimal("free", raw.Free)
		if err != nil {
			return ports.BalancesResponse{}, fmt.Errorf("token %q: %w", symbol, err)
		}
		locked, err := parseDecimal("lockedInOrders", raw.LockedInOrders)
		if err != nil {
			return ports.BalancesResponse{}, fmt.Errorf("token %q: %w", symbol, err)
		}
		unsettled, err := parseDecimal("unsettled", raw.Unsettled)
		if err != nil {
			return ports.BalancesResponse{}, fmt.Errorf("token %q: %w", symbol, err)
		}
		tokens[symbol] = domain.TokenBalance{
			Free:           free,
			LockedInOrders: locked,
			Unsettled:      unsettled,
		}
	}
	return ports.BalancesResponse{Tokens: tokens}, nil
}

// mapOrderBook convierte el book raw, descartando niveles no parseables.
func mapOrderBook(dto orderBookResponseDTO) domain.OrderBook {
	return domain.OrderBook{
		MarketID: dto.MarketID,
		Bids:     mapLevels(dto.Bids),
		Asks:     mapLevels(dto.Asks),
	}
}

func mapLevels(raw []levelDTO) []domain.BookLevel {
	levels := make([]domain.BookLevel, 0, len(raw))
	for _, l := range raw {
		price, errP := decimal.NewFromString(l.Price)
		amount, errA := decimal.NewFromString(l.Amount)
		if errP != nil || errA != nil || price.IsNegative() || amount.Sign() <= 0 {
			continue
		}
		levels = append(levels, domain.BookLevel{Price: price, Amount: amount})
	}
	return levels
}

// mapTicker convierte la respuesta del ticker.
func mapTicker(dto tickerResponseDTO) (domain.Ticker, error) {
	price, err := parseDecimal("price", dto.Price)
	if err != nil {
		return domain.Ticker{}, err
	}
	return domain.Ticker{
		MarketID:  dto.MarketID,
		Price:     price,
		Timestamp: time.UnixMilli(dto.Timestamp).UTC(),
	}, nil
}

// mapPayload convierte el payload tipado del port al DTO del wire.
func mapPayload(p ports.OrderPayload) orderPayloadDTO {
	return orderPayloadDTO{
		ClientID:  p.ClientOrderID,
		MarketID:  p.MarketID,
		Side:      string(p.Side),
		OrderType: string(p.Type),
		Price:     p.Price.String(),
		Amount:    p.Amount.String(),
	}
}

// parseDecimal parsea un string numérico del wire, con el nombre del campo
// en el error para poder diagnosticar respuestas malformadas del gateway.
func parseDecimal(field, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse %s %q: %w", field, value, err)
	}
	return d, nil
}
