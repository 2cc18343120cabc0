package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/kujibot/internal/domain"
)

// Console implementa ports.EventPublisher escribiendo cada evento a stdout.
// Pensado para operar el adapter a mano o para la demo del harness; el
// engine real consume los eventos por su propio tracker.
type Console struct {
	out io.Writer
}

// NewConsole crea un publisher que escribe a stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout}
}

// NewConsoleWriter crea un publisher para tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

// PublishOrderUpdate imprime una transición de estado en una línea.
func (c *Console) PublishOrderUpdate(_ context.Context, u domain.OrderUpdate) error {
	tx := u.TransactionHash
	if len(tx) > 12 {
		tx = tx[:12] + "…"
	}
	fmt.Fprintf(c.out, "[%s] %s %s → %s tx:%s\n",
		u.Timestamp.Format("15:04:05"), u.TradingPair, shortID(u.ClientOrderID), u.NewState, tx)
	return nil
}

// PublishTradeUpdate imprime un fill en una línea.
func (c *Console) PublishTradeUpdate(_ context.Context, u domain.TradeUpdate) error {
	fmt.Fprintf(c.out, "[%s] FILL %s %s price:%s amount:%s fee:%s %s\n",
		u.Timestamp.Format("15:04:05"), u.TradingPair, shortID(u.ClientOrderID),
		u.FillPrice.String(), u.FillBaseAmount.String(), u.Fee.String(), u.FeeAsset)
	return nil
}

// PrintBalances imprime el snapshot de balances como tabla.
func (c *Console) PrintBalances(snapshot domain.BalanceSnapshot) {
	if len(snapshot) == 0 {
		fmt.Fprintf(c.out, "[%s] no balances\n", time.Now().Format("15:04:05"))
		return
	}

	assets := make([]string, 0, len(snapshot))
	for asset := range snapshot {
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	table := tablewriter.NewWriter(c.out)
	table.Header("Asset", "Total", "Available")
	for _, asset := range assets {
		b := snapshot[asset]
		table.Append(asset, b.Total.String(), b.Available.String())
	}
	table.Render()
}

// PrintMarkets imprime el snapshot de mercados con sus trading rules.
func (c *Console) PrintMarkets(set *domain.MarketSet) {
	if set == nil || set.Len() == 0 {
		fmt.Fprintf(c.out, "[%s] no markets cached\n", time.Now().Format("15:04:05"))
		return
	}

	pairs := set.TradingPairs()
	sort.Strings(pairs)

	table := tablewriter.NewWriter(c.out)
	table.Header("Pair", "Min size", "Tick", "Maker", "Taker")
	for _, pair := range pairs {
		m, _ := set.Resolve(pair)
		table.Append(pair, m.MinOrderSize.String(), m.MinPriceIncrement.String(),
			m.MakerFee.String(), m.TakerFee.String())
	}
	table.Render()
}

// shortID trunca un client order id de 64 chars para logs legibles.
func shortID(id string) string {
	if len(id) > 10 {
		return id[:10]
	}
	return id
}
