package domain

import "github.com/shopspring/decimal"

// TokenBalance is the raw per-asset balance breakdown the gateway reports.
type TokenBalance struct {
	Free           decimal.Decimal
	LockedInOrders decimal.Decimal
	Unsettled      decimal.Decimal
}

// Total devuelve free + locked + unsettled.
func (b TokenBalance) Total() decimal.Decimal {
	return b.Free.Add(b.LockedInOrders).Add(b.Unsettled)
}

// Balance is the engine-facing normalized balance for one asset.
type Balance struct {
	Total     decimal.Decimal
	Available decimal.Decimal
}

// BalanceSnapshot maps asset symbol → normalized balance.
type BalanceSnapshot map[string]Balance
