package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	// Catalog drivers: postgres for production, sqlite for development.
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Common errors.
var (
	ErrNotFound    = errors.New("item not found")
	ErrUnavailable = errors.New("catalog unavailable")
)

// Source is the read-only query surface the matching engine consumes.
type Source interface {
	// RecentItems returns up to limit items ordered by report time descending.
	RecentItems(ctx context.Context, limit int) ([]Item, error)
	// FindItems returns items matching the filter.
	FindItems(ctx context.Context, f Filter) ([]Item, error)
	// GetItem returns a single item by ID.
	GetItem(ctx context.Context, id uuid.UUID) (*Item, error)
}

// DB is the minimal database handle the repository needs.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Repository implements Source against a SQL catalog database.
type Repository struct {
	db DB
}

// Open opens a catalog database connection for the given driver and DSN.
func Open(driver, dsn string, maxOpen, maxIdle int, connLifetime time.Duration) (*sql.DB, error) {
	name := driver
	if driver == "sqlite" {
		name = "sqlite3"
	}

	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("open catalog db: %w", err)
	}
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		db.SetMaxIdleConns(maxIdle)
	}
	if connLifetime > 0 {
		db.SetConnMaxLifetime(connLifetime)
	}
	return db, nil
}

// NewRepository creates a read-only catalog repository.
func NewRepository(db DB) *Repository {
	return &Repository{db: db}
}

const itemColumns = `id, name, description, category, location, image_url, features, status, latitude, longitude, reported_at, created_at`

// RecentItems returns up to limit items ordered by report time descending.
func (r *Repository) RecentItems(ctx context.Context, limit int) ([]Item, error) {
	if limit <= 0 {
		limit = 200
	}
	query := `
		SELECT ` + itemColumns + `
		FROM items
		ORDER BY reported_at DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// FindItems returns items matching the filter.
func (r *Repository) FindItems(ctx context.Context, f Filter) ([]Item, error) {
	var (
		conds []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Category != "" {
		conds = append(conds, "category = "+arg(string(f.Category)))
	}
	if f.Status != "" {
		conds = append(conds, "status = "+arg(string(f.Status)))
	}
	if f.Location != "" {
		conds = append(conds, "LOWER(location) LIKE "+arg("%"+strings.ToLower(f.Location)+"%"))
	}
	if f.Text != "" {
		p := arg("%" + strings.ToLower(f.Text) + "%")
		conds = append(conds, "(LOWER(name) LIKE "+p+" OR LOWER(description) LIKE "+p+")")
	}
	if f.From != nil {
		conds = append(conds, "reported_at >= "+arg(*f.From))
	}
	if f.To != nil {
		conds = append(conds, "reported_at <= "+arg(*f.To))
	}

	query := `SELECT ` + itemColumns + ` FROM items`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY reported_at DESC"

	limit := f.Limit
	if limit <= 0 {
		limit = 200
	}
	query += " LIMIT " + arg(limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// GetItem returns a single item by ID.
func (r *Repository) GetItem(ctx context.Context, id uuid.UUID) (*Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`

	item, err := scanItem(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return item, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row rowScanner) (*Item, error) {
	var (
		item        Item
		featuresRaw sql.NullString
		imageURL    sql.NullString
		lat, lng    sql.NullFloat64
	)

	err := row.Scan(
		&item.ID, &item.Name, &item.Description, &item.Category,
		&item.Location, &imageURL, &featuresRaw, &item.Status,
		&lat, &lng, &item.ReportedAt, &item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.ImageURL = imageURL.String
	if lat.Valid {
		item.Latitude = &lat.Float64
	}
	if lng.Valid {
		item.Longitude = &lng.Float64
	}

	// Feature vectors are stored as JSON arrays. A malformed or missing
	// vector degrades to nil rather than failing the whole page.
	if featuresRaw.Valid && featuresRaw.String != "" {
		var features []float64
		if err := json.Unmarshal([]byte(featuresRaw.String), &features); err == nil {
			item.Features = features
		}
	}

	return &item, nil
}

func scanItems(rows *sql.Rows) ([]Item, error) {
	items := []Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return items, nil
}
