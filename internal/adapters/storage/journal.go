package storage

// journal.go — registro de eventos de órdenes en SQLite.
//
// El adapter no persiste órdenes (el order tracker del engine es el dueño del
// estado); esto es un journal de diagnóstico: cada OrderUpdate/TradeUpdate
// publicado queda registrado con su transaction hash para poder correlacionar
// logs con el explorer del chain. Append-only, con prune al arrancar.

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/alejandrodnm/kujibot/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS order_events (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    kind             TEXT     NOT NULL,             -- 'order' | 'trade'
    client_order_id  TEXT     NOT NULL,
    exchange_order_id TEXT    NOT NULL DEFAULT '',
    trading_pair     TEXT     NOT NULL,
    state            TEXT     NOT NULL DEFAULT '',  -- solo eventos 'order'
    trade_id         TEXT     NOT NULL DEFAULT '',  -- solo eventos 'trade'
    price            TEXT     NOT NULL DEFAULT '',
    amount           TEXT     NOT NULL DEFAULT '',
    fee              TEXT     NOT NULL DEFAULT '',
    tx_hash          TEXT     NOT NULL DEFAULT '',
    recorded_at      DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_client ON order_events(client_order_id);
CREATE INDEX IF NOT EXISTS idx_events_at     ON order_events(recorded_at DESC);
`

// retentionEvents: los eventos solo sirven para diagnóstico reciente.
const retentionEvents = 30 * 24 * time.Hour

// Journal implementa ports.EventPublisher persistiendo cada evento.
type Journal struct {
	db *sql.DB
}

// JournalEntry es una fila del journal, para inspección.
type JournalEntry struct {
	Kind            string
	ClientOrderID   string
	ExchangeOrderID string
	TradingPair     string
	State           string
	TradeID         string
	TxHash          string
	RecordedAt      time.Time
}

// NewJournal abre (o crea) la base en la ruta dada, aplica el schema y
// limpia eventos antiguos.
func NewJournal(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewJournal: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewJournal: apply schema: %w", err)
	}

	j := &Journal{db: db}
	j.pruneOld(context.Background())
	return j, nil
}

// PublishOrderUpdate registra una transición de estado.
func (j *Journal) PublishOrderUpdate(ctx context.Context, u domain.OrderUpdate) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO order_events (kind, client_order_id, exchange_order_id, trading_pair, state, tx_hash, recorded_at)
		VALUES ('order', ?, ?, ?, ?, ?, ?)`,
		u.ClientOrderID, u.ExchangeOrderID, u.TradingPair, string(u.NewState), u.TransactionHash, u.Timestamp.UTC(),
	)
	if err != nil {
		return fmt.Errorf("storage.Journal: record order update: %w", err)
	}
	return nil
}

// PublishTradeUpdate registra un fill sintetizado.
func (j *Journal) PublishTradeUpdate(ctx context.Context, u domain.TradeUpdate) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO order_events (kind, client_order_id, exchange_order_id, trading_pair, trade_id, price, amount, fee, recorded_at)
		VALUES ('trade', ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ClientOrderID, u.ExchangeOrderID, u.TradingPair, u.TradeID,
		u.FillPrice.String(), u.FillBaseAmount.String(), u.Fee.String(), u.Timestamp.UTC(),
	)
	if err != nil {
		return fmt.Errorf("storage.Journal: record trade update: %w", err)
	}
	return nil
}

// RecentEvents devuelve los últimos limit eventos, más recientes primero.
func (j *Journal) RecentEvents(ctx context.Context, limit int) ([]JournalEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT kind, client_order_id, exchange_order_id, trading_pair, state, trade_id, tx_hash, recorded_at
		FROM order_events ORDER BY recorded_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.Journal: recent events: %w", err)
	}
	defer rows.Close()

	var entries []JournalEntry
	for rows.Next() {
		var e JournalEntry
		if err := rows.Scan(&e.Kind, &e.ClientOrderID, &e.ExchangeOrderID, &e.TradingPair, &e.State, &e.TradeID, &e.TxHash, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("storage.Journal: scan event: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close cierra la base.
func (j *Journal) Close() error {
	return j.db.Close()
}

// pruneOld borra eventos fuera de la ventana de retención.
func (j *Journal) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retentionEvents)
	res, err := j.db.ExecContext(ctx, `DELETE FROM order_events WHERE recorded_at < ?`, cutoff)
	if err != nil {
		slog.Warn("storage: prune failed", "err", err)
		return
	}
	if n, _ := res.RowsAffected(); n > 0 {
		slog.Debug("storage: pruned old events", "rows", n)
	}
}
