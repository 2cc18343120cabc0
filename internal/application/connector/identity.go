package connector

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/kujibot/internal/domain"
)

// NewSalt returns a fresh salt for one logical order. The salt is assigned
// once, before the first network call, and survives retries — es la parte
// aleatoria de la idempotency key.
func NewSalt() string {
	return uuid.NewString()
}

// ClientOrderID derives the client-side order identifier from stable order
// attributes plus the salt. Pure function: the same inputs always produce the
// same 64-hex token, so a retried placement reuses its identifier and the
// venue's replace-if-exists semantics apply instead of duplicating the order.
func ClientOrderID(tradingPair string, side domain.OrderSide, price, amount decimal.Decimal, salt string) string {
	payload := strings.Join([]string{
		tradingPair,
		string(side),
		price.String(),
		amount.String(),
		salt,
	}, "|")
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// ensureClientOrderID assigns the order's identity if it does not have one
// yet. Collision entre ids es un bug de programación, no una condición de
// runtime — no se chequea ni se recupera.
func ensureClientOrderID(order *domain.InFlightOrder) {
	if order.ClientOrderID != "" {
		return
	}
	if order.Salt == "" {
		order.Salt = NewSalt()
	}
	order.ClientOrderID = ClientOrderID(order.TradingPair, order.Side, order.Price, order.Amount, order.Salt)
}
