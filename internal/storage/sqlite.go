package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"subrecommend/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunSQLiteMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// CreateSpending implements ports.SpendingWriter
func (r *SQLiteRepository) CreateSpending(ctx context.Context, rec core.SpendingRecord) (core.SpendingRecord, error) {
	if err := rec.Validate(); err != nil {
		return core.SpendingRecord{}, err
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO spendings (id, user_id, category, amount, spent_on, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.Category, rec.Amount.String(), rec.Date.String(), rec.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return core.SpendingRecord{}, fmt.Errorf("insert spending: %w", err)
	}

	slog.InfoContext(ctx, "Spending saved to SQLite",
		"id", rec.ID,
		"user_id", rec.UserID,
		"category", rec.Category,
		"amount", core.FormatAmount(rec.Amount),
		"date", rec.Date.String())

	return rec, nil
}

// ListSpendingByUser implements ports.SpendingReader
func (r *SQLiteRepository) ListSpendingByUser(ctx context.Context, userID string) ([]core.SpendingRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, category, amount, spent_on, created_at FROM spendings
		 WHERE user_id = ? ORDER BY spent_on, created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("query spendings for user %s: %w", userID, err)
	}
	defer rows.Close()

	records := make([]core.SpendingRecord, 0)
	for rows.Next() {
		rec, err := scanSQLiteSpending(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate spendings: %w", err)
	}
	return records, nil
}

// GetSpending implements ports.SpendingReader
func (r *SQLiteRepository) GetSpending(ctx context.Context, id string) (core.SpendingRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, category, amount, spent_on, created_at FROM spendings WHERE id = ?`, id)
	rec, err := scanSQLiteSpending(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.SpendingRecord{}, core.ErrNotFound
	}
	return rec, err
}

// GetTopSpending implements ports.ViewReader
func (r *SQLiteRepository) GetTopSpending(ctx context.Context, userID string) (core.TopSpendingView, error) {
	var (
		view              core.TopSpendingView
		total, updatedRaw string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, top_category, total_spending, updated_at FROM top_spending_view WHERE user_id = ?`, userID).
		Scan(&view.UserID, &view.TopCategory, &total, &updatedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return core.TopSpendingView{}, core.ErrNotFound
	}
	if err != nil {
		return core.TopSpendingView{}, fmt.Errorf("get top spending for user %s: %w", userID, err)
	}
	if view.TotalSpending, err = decimal.NewFromString(total); err != nil {
		return core.TopSpendingView{}, fmt.Errorf("parse total spending %q: %w", total, err)
	}
	view.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedRaw)
	return view, nil
}

// UpsertTopSpending implements ports.ViewWriter
func (r *SQLiteRepository) UpsertTopSpending(ctx context.Context, view core.TopSpendingView) error {
	if view.UpdatedAt.IsZero() {
		view.UpdatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO top_spending_view (user_id, top_category, total_spending, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
		     top_category = excluded.top_category,
		     total_spending = excluded.total_spending,
		     updated_at = excluded.updated_at`,
		view.UserID, view.TopCategory, view.TotalSpending.String(), view.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert top spending for user %s: %w", view.UserID, err)
	}
	return nil
}

// ListCategories implements ports.CategoryReader
func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, image FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	categories := make([]core.Category, 0)
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.Name, &c.Image); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// ListSubscriptionsByCategory implements ports.SubscriptionReader
func (r *SQLiteRepository) ListSubscriptionsByCategory(ctx context.Context, category string) ([]core.Subscription, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, category, description, price, logo, max_sharing FROM subscriptions
		 WHERE category = ? ORDER BY id`, category)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions for category %s: %w", category, err)
	}
	defer rows.Close()

	subs := make([]core.Subscription, 0)
	for rows.Next() {
		sub, err := scanSQLiteSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// GetSubscription implements ports.SubscriptionReader
func (r *SQLiteRepository) GetSubscription(ctx context.Context, id string) (core.Subscription, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, category, description, price, logo, max_sharing FROM subscriptions WHERE id = ?`, id)
	sub, err := scanSQLiteSubscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Subscription{}, core.ErrNotFound
	}
	return sub, err
}

// ReplaceCatalog implements ports.CatalogWriter
func (r *SQLiteRepository) ReplaceCatalog(ctx context.Context, catalog core.Catalog) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin catalog transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"subscriptions", "categories", "subscription_categories"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	for _, c := range catalog.Categories {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO categories (name, image) VALUES (?, ?)`, c.Name, c.Image); err != nil {
			return fmt.Errorf("insert category %s: %w", c.Name, err)
		}
	}
	for _, c := range catalog.SubscriptionCategories {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO subscription_categories (name, image) VALUES (?, ?)`, c.Name, c.Image); err != nil {
			return fmt.Errorf("insert subscription category %s: %w", c.Name, err)
		}
	}
	for _, s := range catalog.Subscriptions {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO subscriptions (id, name, category, description, price, logo, max_sharing) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			s.ID, s.Name, s.Category, s.Description, s.Price.String(), s.Logo, s.MaxSharing); err != nil {
			return fmt.Errorf("insert subscription %s: %w", s.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit catalog: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteSpending(row rowScanner) (core.SpendingRecord, error) {
	var (
		rec                          core.SpendingRecord
		amount, spentOn, createdRaw string
	)
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.Category, &amount, &spentOn, &createdRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("scan spending: %w", err)
	}
	var err error
	if rec.Amount, err = decimal.NewFromString(amount); err != nil {
		return rec, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	if rec.Date, err = core.ParseDate(spentOn); err != nil {
		return rec, fmt.Errorf("parse date %q: %w", spentOn, err)
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdRaw)
	return rec, nil
}

func scanSQLiteSubscription(row rowScanner) (core.Subscription, error) {
	var (
		sub   core.Subscription
		price string
	)
	if err := row.Scan(&sub.ID, &sub.Name, &sub.Category, &sub.Description, &price, &sub.Logo, &sub.MaxSharing); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sub, err
		}
		return sub, fmt.Errorf("scan subscription: %w", err)
	}
	var err error
	if sub.Price, err = decimal.NewFromString(price); err != nil {
		return sub, fmt.Errorf("parse price %q: %w", price, err)
	}
	return sub, nil
}
