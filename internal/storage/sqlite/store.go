// Package sqlite provides a SQLite-backed coupon store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/muurk/couponwiz/internal/coupon"
	"github.com/muurk/couponwiz/internal/storage"
	"github.com/muurk/couponwiz/internal/storage/sqlite/migrations"
)

// Store persists coupons in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

var _ storage.CouponStore = (*Store)(nil)

const couponColumns = `id, status, name, code, description, type, value, sku,
	start_date, end_date, min_spend, max_discount, per_member_limit, stackable,
	eligible_tiers, total_quota, unlimited, channels, segment, auto_issue,
	issue_count, created_at, updated_at`

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func nullMillis(value time.Time) sql.NullInt64 {
	if value.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(value), Valid: true}
}

func fromNullMillis(value sql.NullInt64) time.Time {
	if !value.Valid {
		return time.Time{}
	}
	return fromMillis(value.Int64)
}

// Open opens a SQLite coupon store at path, creating the file and its parent
// directory as needed, and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0700); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Save upserts c with the given status.
func (s *Store) Save(ctx context.Context, c *coupon.Coupon, status coupon.Status) (*coupon.Coupon, error) {
	return s.write(ctx, c, status)
}

// Publish validates c and upserts it as live.
func (s *Store) Publish(ctx context.Context, c *coupon.Coupon) (*coupon.Coupon, error) {
	if c == nil {
		return nil, coupon.NewValidationError("coupon", "coupon is required")
	}
	if err := storage.CheckPublishable(c); err != nil {
		return nil, err
	}
	return s.write(ctx, c, coupon.StatusLive)
}

func (s *Store) write(ctx context.Context, c *coupon.Coupon, status coupon.Status) (*coupon.Coupon, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, coupon.NewStorageError("begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	var existing *coupon.Coupon
	if c != nil && strings.TrimSpace(c.ID) != "" {
		existing, err = scanCoupon(tx.QueryRowContext(ctx,
			"SELECT "+couponColumns+" FROM coupons WHERE id = ?", strings.TrimSpace(c.ID)))
		if errors.Is(err, sql.ErrNoRows) {
			existing = nil
		} else if err != nil {
			return nil, coupon.NewStorageError("load existing coupon", err)
		}
	}

	out, err := storage.Prepare(c, existing, status, s.now())
	if err != nil {
		return nil, err
	}

	tiers, err := encodeList(out.EligibleTiers)
	if err != nil {
		return nil, err
	}
	channels, err := encodeList(out.Channels)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO coupons (`+couponColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   status = excluded.status,
		   name = excluded.name,
		   code = excluded.code,
		   description = excluded.description,
		   type = excluded.type,
		   value = excluded.value,
		   sku = excluded.sku,
		   start_date = excluded.start_date,
		   end_date = excluded.end_date,
		   min_spend = excluded.min_spend,
		   max_discount = excluded.max_discount,
		   per_member_limit = excluded.per_member_limit,
		   stackable = excluded.stackable,
		   eligible_tiers = excluded.eligible_tiers,
		   total_quota = excluded.total_quota,
		   unlimited = excluded.unlimited,
		   channels = excluded.channels,
		   segment = excluded.segment,
		   auto_issue = excluded.auto_issue,
		   issue_count = excluded.issue_count,
		   updated_at = excluded.updated_at`,
		out.ID,
		string(out.Status),
		out.Name,
		out.Code,
		out.Description,
		string(out.Type),
		out.Value,
		out.SKU,
		nullMillis(out.StartDate),
		nullMillis(out.EndDate),
		out.MinSpend,
		out.MaxDiscount,
		out.PerMemberLimit,
		out.Stackable,
		tiers,
		out.TotalQuota,
		out.Unlimited,
		channels,
		out.Segment,
		out.AutoIssue,
		out.IssueCount,
		toMillis(out.CreatedAt),
		toMillis(out.UpdatedAt),
	)
	if err != nil {
		if isCodeUniqueViolation(err) {
			return nil, coupon.NewConflictError(out.ID, "coupon code "+out.Code+" is already in use")
		}
		return nil, coupon.NewStorageError("write coupon", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, coupon.NewStorageError("commit coupon", err)
	}

	// Round to the stored precision so callers see what Get will return.
	out.CreatedAt = fromMillis(toMillis(out.CreatedAt))
	out.UpdatedAt = fromMillis(toMillis(out.UpdatedAt))
	if !out.StartDate.IsZero() {
		out.StartDate = fromMillis(toMillis(out.StartDate))
	}
	if !out.EndDate.IsZero() {
		out.EndDate = fromMillis(toMillis(out.EndDate))
	}
	return out, nil
}

// Get returns one coupon by id.
func (s *Store) Get(ctx context.Context, id string) (*coupon.Coupon, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, coupon.NewValidationError("id", "coupon id is required")
	}

	c, err := scanCoupon(s.sqlDB.QueryRowContext(ctx,
		"SELECT "+couponColumns+" FROM coupons WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.NotFound(id)
	}
	if err != nil {
		return nil, coupon.NewStorageError("get coupon", err)
	}
	return c, nil
}

// List returns every coupon, most recently updated first.
func (s *Store) List(ctx context.Context) ([]*coupon.Coupon, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		"SELECT "+couponColumns+" FROM coupons ORDER BY updated_at DESC, id ASC")
	if err != nil {
		return nil, coupon.NewStorageError("list coupons", err)
	}
	defer rows.Close()

	var out []*coupon.Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, coupon.NewStorageError("scan coupon", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, coupon.NewStorageError("iterate coupons", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCoupon(row rowScanner) (*coupon.Coupon, error) {
	var (
		c                    coupon.Coupon
		status, couponType   string
		start, end           sql.NullInt64
		tiers, channels      string
		createdAt, updatedAt int64
	)
	if err := row.Scan(
		&c.ID,
		&status,
		&c.Name,
		&c.Code,
		&c.Description,
		&couponType,
		&c.Value,
		&c.SKU,
		&start,
		&end,
		&c.MinSpend,
		&c.MaxDiscount,
		&c.PerMemberLimit,
		&c.Stackable,
		&tiers,
		&c.TotalQuota,
		&c.Unlimited,
		&channels,
		&c.Segment,
		&c.AutoIssue,
		&c.IssueCount,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	c.Status = coupon.Status(status)
	c.Type = coupon.Type(couponType)
	c.StartDate = fromNullMillis(start)
	c.EndDate = fromNullMillis(end)
	c.CreatedAt = fromMillis(createdAt)
	c.UpdatedAt = fromMillis(updatedAt)

	if err := decodeList(tiers, &c.EligibleTiers); err != nil {
		return nil, fmt.Errorf("decode eligible tiers: %w", err)
	}
	if err := decodeList(channels, &c.Channels); err != nil {
		return nil, fmt.Errorf("decode channels: %w", err)
	}
	return &c, nil
}

func encodeList[T any](values []T) (string, error) {
	if len(values) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("encode list column: %w", err)
	}
	return string(data), nil
}

// decodeList leaves dst nil for an empty list.
func decodeList[T any](raw string, dst *[]T) error {
	var values []T
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return err
	}
	if len(values) == 0 {
		*dst = nil
		return nil
	}
	*dst = values
	return nil
}

func isCodeUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		if sqliteErr.Code() == sqlite3lib.SQLITE_CONSTRAINT_UNIQUE {
			return true
		}
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique constraint failed") &&
		strings.Contains(message, "coupons.code")
}
