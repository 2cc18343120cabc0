package gateway

// DTOs raw del gateway service. Solo se usan dentro de este paquete; la
// conversión a domain entities vive en mapping.go. Los campos numéricos
// llegan como strings — se parsean a decimal en el mapping, nunca a float.

// --- markets ---

// marketsResponse es la respuesta de GET /<connector>/markets.
type marketsResponse struct {
	Network   string               `json:"network"`
	Timestamp int64                `json:"timestamp"`
	Latency   float64              `json:"latency"`
	Markets   map[string]marketDTO `json:"markets"`
}

// marketDTO es un mercado con sus trading rules y fees.
type marketDTO struct {
	ID                          string   `json:"id"`
	Name                        string   `json:"name"`
	BaseToken                   tokenDTO `json:"baseToken"`
	QuoteToken                  tokenDTO `json:"quoteToken"`
	Precision                   int      `json:"precision"`
	MinimumOrderSize            string   `json:"minimumOrderSize"`
	MinimumPriceIncrement       string   `json:"minimumPriceIncrement"`
	MinimumBaseAmountIncrement  string   `json:"minimumBaseAmountIncrement"`
	MinimumQuoteAmountIncrement string   `json:"minimumQuoteAmountIncrement"`
	Fees                        feesDTO  `json:"fees"`
	Deprecated                  bool     `json:"deprecated"`
}

type tokenDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

type feesDTO struct {
	Maker           string `json:"maker"`
	Taker           string `json:"taker"`
	ServiceProvider string `json:"serviceProvider"`
}

// --- orders ---

// hashesDTO agrupa los hashes de settlement de una respuesta de mutación.
type hashesDTO struct {
	Creation     string `json:"creation"`
	Cancellation string `json:"cancellation"`
}

// orderPayloadDTO es una orden dentro de un POST /order(s).
type orderPayloadDTO struct {
	ClientID  string `json:"clientId"`
	MarketID  string `json:"marketId"`
	Side      string `json:"side"`
	OrderType string `json:"orderType"`
	Price     string `json:"price"`
	Amount    string `json:"amount"`
}

// placeOrderRequestDTO es el body de POST /<connector>/order.
type placeOrderRequestDTO struct {
	Chain        string          `json:"chain"`
	Network      string          `json:"network"`
	Connector    string          `json:"connector"`
	OwnerAddress string          `json:"ownerAddress"`
	Order        orderPayloadDTO `json:"order"`
}

// placeOrderResponseDTO es la respuesta de POST /<connector>/order.
type placeOrderResponseDTO struct {
	ID     string    `json:"id"`
	Hashes hashesDTO `json:"hashes"`
}

// placeOrdersRequestDTO es el body de POST /<connector>/orders (batch).
type placeOrdersRequestDTO struct {
	Chain        string            `json:"chain"`
	Network      string            `json:"network"`
	Connector    string            `json:"connector"`
	OwnerAddress string            `json:"ownerAddress"`
	Orders       []orderPayloadDTO `json:"orders"`
}

// placeOrdersResponseDTO devuelve los ids alineados con el request y el hash
// único del batch.
type placeOrdersResponseDTO struct {
	IDs    []string  `json:"ids"`
	Hashes hashesDTO `json:"hashes"`
}

// cancelOrderRequestDTO es el body de DELETE /<connector>/order.
type cancelOrderRequestDTO struct {
	Chain        string `json:"chain"`
	Network      string `json:"network"`
	Connector    string `json:"connector"`
	OwnerAddress string `json:"ownerAddress"`
	MarketID     string `json:"marketId"`
	OrderID      string `json:"orderId"`
}

// cancelOrdersRequestDTO es el body de DELETE /<connector>/orders.
type cancelOrdersRequestDTO struct {
	Chain        string   `json:"chain"`
	Network      string   `json:"network"`
	Connector    string   `json:"connector"`
	OwnerAddress string   `json:"ownerAddress"`
	MarketID     string   `json:"marketId"`
	OrderIDs     []string `json:"orderIds"`
}

// cancelAllRequestDTO es el body de DELETE /<connector>/orders/all.
type cancelAllRequestDTO struct {
	Chain        string `json:"chain"`
	Network      string `json:"network"`
	Connector    string `json:"connector"`
	OwnerAddress string `json:"ownerAddress"`
	MarketID     string `json:"marketId"`
}

// cancelResponseDTO es la respuesta de cualquier variante de cancelación.
type cancelResponseDTO struct {
	Hashes hashesDTO `json:"hashes"`
}

// orderResponseDTO es la respuesta de GET /<connector>/order.
type orderResponseDTO struct {
	ID           string    `json:"id"`
	MarketID     string    `json:"marketId"`
	OwnerAddress string    `json:"ownerAddress"`
	Price        string    `json:"price"`
	Amount       string    `json:"amount"`
	FilledAmount string    `json:"filledAmount"`
	Status       string    `json:"status"`
	Hashes       hashesDTO `json:"hashes"`
	Timestamp    int64     `json:"timestamp"`
}

// --- balances ---

// balancesResponseDTO es la respuesta de GET /<connector>/balances.
type balancesResponseDTO struct {
	Tokens map[string]balanceDTO `json:"tokens"`
}

// balanceDTO descompone el balance de un token.
type balanceDTO struct {
	Free           string `json:"free"`
	LockedInOrders string `json:"lockedInOrders"`
	Unsettled      string `json:"unsettled"`
}

// --- market data ---

// orderBookResponseDTO es la respuesta de GET /<connector>/orderBook.
type orderBookResponseDTO struct {
	MarketID string     `json:"marketId"`
	Bids     []levelDTO `json:"bids"`
	Asks     []levelDTO `json:"asks"`
}

// levelDTO es un nivel de precio raw (strings para no perder precisión).
type levelDTO struct {
	Price  string `json:"price"`
	Amount string `json:"amount"`
}

// tickerResponseDTO es la respuesta de GET /<connector>/ticker.
type tickerResponseDTO struct {
	MarketID  string `json:"marketId"`
	Price     string `json:"price"`
	Timestamp int64  `json:"timestamp"`
}

// --- settle ---

// settleRequestDTO es el body de POST /<connector>/market/withdraw.
type settleRequestDTO struct {
	Chain        string `json:"chain"`
	Network      string `json:"network"`
	Connector    string `json:"connector"`
	OwnerAddress string `json:"ownerAddress"`
	MarketID     string `json:"marketId"`
}

// settleResponseDTO es la respuesta del withdraw.
type settleResponseDTO struct {
	Hash string `json:"hash"`
}
