package connector

import (
	"context"
	"fmt"

	"github.com/alejandrodnm/kujibot/internal/domain"
	"github.com/alejandrodnm/kujibot/internal/ports"
)

// GetBalances fetches all token balances for the owner address and normalizes
// them to total/available per asset: total = free + locked + unsettled,
// available = free. Siempre fetch fresco — la copia cacheada es solo para
// diagnóstico, nunca sustituye una llamada.
func (c *Connector) GetBalances(ctx context.Context) (domain.BalanceSnapshot, error) {
	req := ports.BalancesRequest{
		Venue:        c.cfg.Venue,
		OwnerAddress: c.cfg.OwnerAddress,
	}
	resp, err := runWithRetry(ctx, c.cfg.Retry, "GetBalances", func(ctx context.Context) (ports.BalancesResponse, error) {
		return c.gateway.GetBalances(ctx, req)
	})
	if err != nil {
		return nil, fmt.Errorf("connector.GetBalances: %w", err)
	}

	c.balancesMu.Lock()
	c.lastBalances = resp
	c.balancesMu.Unlock()

	snapshot := make(domain.BalanceSnapshot, len(resp.Tokens))
	for symbol, raw := range resp.Tokens {
		snapshot[symbol] = domain.Balance{
			Total:     raw.Total(),
			Available: raw.Free,
		}
	}
	return snapshot, nil
}

// LastRawBalances returns the last raw gateway snapshot, for diagnostics.
func (c *Connector) LastRawBalances() ports.BalancesResponse {
	c.balancesMu.Lock()
	defer c.balancesMu.Unlock()
	return c.lastBalances
}
