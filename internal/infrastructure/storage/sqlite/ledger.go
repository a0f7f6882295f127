package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"stockpulse/internal/application/port"
	"stockpulse/internal/domain"
)

// Ledger is the embedded single-node ledger backend.
type Ledger struct {
	db *sql.DB
}

func New(path string) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	l := &Ledger{db: db}
	if err := l.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

func (l *Ledger) Close() error { return l.db.Close() }

func (l *Ledger) migrate(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS trigger_orders (
  id TEXT PRIMARY KEY,
  user_id INTEGER NOT NULL,
  stock_id INTEGER NOT NULL,
  side TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  target_price REAL NOT NULL,
  status TEXT NOT NULL,
  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_orders_status ON trigger_orders(status);
CREATE INDEX IF NOT EXISTS idx_orders_stock ON trigger_orders(stock_id);

CREATE TABLE IF NOT EXISTS positions (
  user_id INTEGER NOT NULL,
  stock_id INTEGER NOT NULL,
  quantity INTEGER NOT NULL,
  entry_price REAL NOT NULL,
  updated_at INTEGER NOT NULL,
  PRIMARY KEY (user_id, stock_id)
);

CREATE TABLE IF NOT EXISTS transactions (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id INTEGER NOT NULL,
  stock_id INTEGER NOT NULL,
  quantity INTEGER NOT NULL,
  price REAL NOT NULL,
  side TEXT NOT NULL,
  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tx_user ON transactions(user_id);
`)
	return err
}

func (l *Ledger) LoadPendingOrders(ctx context.Context) ([]*domain.TriggerOrder, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, user_id, stock_id, side, quantity, target_price, status, created_at
		FROM trigger_orders WHERE status = ? ORDER BY created_at`, string(domain.StatusPending))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*domain.TriggerOrder
	for rows.Next() {
		var o domain.TriggerOrder
		var side, status string
		var createdAt int64
		if err := rows.Scan(&o.ID, &o.UserID, &o.InstrumentID, &side, &o.Quantity, &o.TargetPrice, &status, &createdAt); err != nil {
			return nil, err
		}
		if o.Side, err = domain.ParseSide(side); err != nil {
			return nil, err
		}
		if o.Status, err = domain.ParseOrderStatus(status); err != nil {
			return nil, err
		}
		o.CreatedAt = time.UnixMilli(createdAt).UTC()
		orders = append(orders, &o)
	}
	return orders, rows.Err()
}

func (l *Ledger) CreateOrder(ctx context.Context, o *domain.TriggerOrder) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO trigger_orders(id, user_id, stock_id, side, quantity, target_price, status, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.UserID, o.InstrumentID, string(o.Side), o.Quantity, o.TargetPrice, string(o.Status), o.CreatedAt.UnixMilli())
	return err
}

func (l *Ledger) UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	res, err := l.db.ExecContext(ctx,
		`UPDATE trigger_orders SET status = ? WHERE id = ?`, string(status), orderID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("order %s not found", orderID)
	}
	return nil
}

// ApplyBuy upserts the position, averaging the entry price across the old
// and new lots, and records a transaction row. All inside one transaction.
func (l *Ledger) ApplyBuy(ctx context.Context, userID int64, instrumentID int, quantity int64, price float64) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var heldQty int64
	var entryPrice float64
	err = tx.QueryRowContext(ctx,
		`SELECT quantity, entry_price FROM positions WHERE user_id = ? AND stock_id = ?`,
		userID, instrumentID).Scan(&heldQty, &entryPrice)

	now := time.Now().UnixMilli()
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx, `
			INSERT INTO positions(user_id, stock_id, quantity, entry_price, updated_at)
			VALUES(?, ?, ?, ?, ?)`, userID, instrumentID, quantity, price, now)
	case err == nil:
		totalQty := heldQty + quantity
		avg := (float64(heldQty)*entryPrice + float64(quantity)*price) / float64(totalQty)
		_, err = tx.ExecContext(ctx, `
			UPDATE positions SET quantity = ?, entry_price = ?, updated_at = ?
			WHERE user_id = ? AND stock_id = ?`, totalQty, avg, now, userID, instrumentID)
	}
	if err != nil {
		return err
	}

	if err := insertTransaction(ctx, tx, userID, instrumentID, quantity, price, domain.SideBuy, now); err != nil {
		return err
	}
	return tx.Commit()
}

// ApplySell decrements the position, deleting it when it reaches zero.
// Selling more than held fails closed with ErrInsufficientHoldings.
func (l *Ledger) ApplySell(ctx context.Context, userID int64, instrumentID int, quantity int64, price float64) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var heldQty int64
	var entryPrice float64
	err = tx.QueryRowContext(ctx,
		`SELECT quantity, entry_price FROM positions WHERE user_id = ? AND stock_id = ?`,
		userID, instrumentID).Scan(&heldQty, &entryPrice)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && heldQty < quantity) {
		return port.ErrInsufficientHoldings
	}
	if err != nil {
		return err
	}

	now := time.Now().UnixMilli()
	remaining := heldQty - quantity
	if remaining == 0 {
		_, err = tx.ExecContext(ctx,
			`DELETE FROM positions WHERE user_id = ? AND stock_id = ?`, userID, instrumentID)
	} else {
		_, err = tx.ExecContext(ctx, `
			UPDATE positions SET quantity = ?, updated_at = ?
			WHERE user_id = ? AND stock_id = ?`, remaining, now, userID, instrumentID)
	}
	if err != nil {
		return err
	}

	if err := insertTransaction(ctx, tx, userID, instrumentID, quantity, price, domain.SideSell, now); err != nil {
		return err
	}
	return tx.Commit()
}

func insertTransaction(ctx context.Context, tx *sql.Tx, userID int64, instrumentID int, quantity int64, price float64, side domain.Side, ts int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO transactions(user_id, stock_id, quantity, price, side, created_at)
		VALUES(?, ?, ?, ?, ?, ?)`, userID, instrumentID, quantity, price, string(side), ts)
	return err
}

func (l *Ledger) ListPositions(ctx context.Context, userID int64) ([]port.Position, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT user_id, stock_id, quantity, entry_price FROM positions
		WHERE user_id = ? ORDER BY stock_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []port.Position
	for rows.Next() {
		var p port.Position
		if err := rows.Scan(&p.UserID, &p.InstrumentID, &p.Quantity, &p.EntryPrice); err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

var _ port.Ledger = (*Ledger)(nil)
