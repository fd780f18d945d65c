// Package sqlite stores the board in a SQLite file. The schema is embedded
// and migrated on Open.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/jcmexdev/comanda/internal/board-service/app"
	"github.com/jcmexdev/comanda/internal/board-service/domain"
)

//go:embed migrations/*.sql
var migrations embed.FS

var _ app.Store = (*Store)(nil)

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.runMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) runMigrations() error {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("could not open migration source: %w", err)
	}

	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CreateOrder(ctx context.Context, o domain.Order) error {
	const q = `
		INSERT INTO orders (id, ts, item, quantity, notes, price)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, q,
		o.ID, formatTime(o.TS), o.Item, o.Quantity, o.Notes, o.Price.String())
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

const orderColumns = `id, ts, item, quantity, notes, price, delivered, delivered_at`

func (s *Store) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, domain.ErrNotFound
	}
	return o, err
}

func (s *Store) ListPending(ctx context.Context) ([]domain.Order, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE delivered = 0 ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}
	return orders, nil
}

func (s *Store) MarkDelivered(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE orders SET delivered = 1, delivered_at = ? WHERE id = ? AND delivered = 0`,
		formatTime(at), id)
	if err != nil {
		return fmt.Errorf("failed to mark delivered: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to mark delivered: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) SavePayment(ctx context.Context, p domain.Payment) error {
	const q = `
		INSERT INTO payments
			(id, order_id, method, with_invoice, nit, razon_social, amount, status,
			 voucher_code, voucher_expires_at, created_at, paid_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			method = excluded.method,
			with_invoice = excluded.with_invoice,
			nit = excluded.nit,
			razon_social = excluded.razon_social,
			amount = excluded.amount,
			status = excluded.status,
			voucher_code = excluded.voucher_code,
			voucher_expires_at = excluded.voucher_expires_at,
			paid_at = excluded.paid_at`

	var code, expires sql.NullString
	if p.Voucher != nil {
		code = sql.NullString{String: p.Voucher.Code, Valid: true}
		expires = sql.NullString{String: formatTime(p.Voucher.ExpiresAt), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, q,
		p.ID, p.OrderID, string(p.Method), p.WithInvoice, p.NIT, p.RazonSocial,
		p.Amount.String(), string(p.Status), code, expires,
		formatTime(p.CreatedAt), nullTime(p.PaidAt))
	if err != nil {
		return fmt.Errorf("failed to save payment: %w", err)
	}
	return nil
}

func (s *Store) GetPayment(ctx context.Context, id string) (domain.Payment, error) {
	const q = `
		SELECT id, order_id, method, with_invoice, nit, razon_social, amount, status,
		       voucher_code, voucher_expires_at, created_at, paid_at
		FROM payments WHERE id = ?`

	var (
		p                      domain.Payment
		method, status, amount string
		code, expires, paidAt  sql.NullString
		createdAt              string
	)
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&p.ID, &p.OrderID, &method, &p.WithInvoice, &p.NIT, &p.RazonSocial, &amount, &status,
		&code, &expires, &createdAt, &paidAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Payment{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Payment{}, fmt.Errorf("failed to scan payment: %w", err)
	}

	p.Method = domain.PaymentMethod(method)
	p.Status = domain.PaymentStatus(status)
	if p.Amount, err = decimal.NewFromString(amount); err != nil {
		return domain.Payment{}, fmt.Errorf("failed to parse amount: %w", err)
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return domain.Payment{}, err
	}
	if paidAt.Valid {
		if p.PaidAt, err = parseTime(paidAt.String); err != nil {
			return domain.Payment{}, err
		}
	}
	if code.Valid {
		v := &domain.Voucher{Code: code.String}
		if v.ExpiresAt, err = parseTime(expires.String); err != nil {
			return domain.Payment{}, err
		}
		p.Voucher = v
	}
	return p, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(row scanner) (domain.Order, error) {
	var (
		o           domain.Order
		ts, price   string
		deliveredAt sql.NullString
	)
	if err := row.Scan(&o.ID, &ts, &o.Item, &o.Quantity, &o.Notes, &price, &o.Delivered, &deliveredAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, err
		}
		return domain.Order{}, fmt.Errorf("failed to scan order: %w", err)
	}

	var err error
	if o.TS, err = parseTime(ts); err != nil {
		return domain.Order{}, err
	}
	if o.Price, err = decimal.NewFromString(price); err != nil {
		return domain.Order{}, fmt.Errorf("failed to parse price: %w", err)
	}
	if deliveredAt.Valid {
		if o.DeliveredAt, err = parseTime(deliveredAt.String); err != nil {
			return domain.Order{}, err
		}
	}
	return o, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func nullTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(t), Valid: true}
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse time %q: %w", s, err)
	}
	return t, nil
}
