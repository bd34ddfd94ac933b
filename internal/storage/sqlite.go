package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/tenpo/internal/models"
	"github.com/hyperjump/tenpo/pkg/utils"
)

// driverName is go-sqlite3 with a Unicode-aware lower() registered as tenpo_lower.
// SQLite's built-in LOWER only folds ASCII.
const driverName = "sqlite3_tenpo"

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("tenpo_lower", strings.ToLower, true)
		},
	})
}

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open(driverName, dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS categories (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE COLLATE NOCASE,
		slug TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		sku TEXT,
		name TEXT NOT NULL,
		description TEXT,
		category_id TEXT,
		price_cents INTEGER NOT NULL DEFAULT 0,
		active INTEGER NOT NULL DEFAULT 1,
		source_path TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_products_category_id ON products(category_id);
	CREATE INDEX IF NOT EXISTS idx_products_source_path ON products(source_path);
	CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at);

	CREATE TABLE IF NOT EXISTS catalog_sources (
		path TEXT PRIMARY KEY,
		mtime INTEGER NOT NULL,
		size INTEGER NOT NULL,
		products INTEGER NOT NULL DEFAULT 0,
		imported_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := db.Exec(schema)
	return err
}

const productColumns = `
	p.id, COALESCE(p.sku, ''), p.name, COALESCE(p.description, ''), p.price_cents, p.active,
	COALESCE(p.source_path, ''), p.created_at, p.updated_at,
	c.id, c.name, c.slug, c.created_at
	FROM products p LEFT JOIN categories c ON c.id = p.category_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*models.Product, error) {
	var (
		p         models.Product
		catID     sql.NullString
		catName   sql.NullString
		catSlug   sql.NullString
		catCreate sql.NullTime
	)
	if err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.PriceCents, &p.Active,
		&p.Source, &p.CreatedAt, &p.UpdatedAt,
		&catID, &catName, &catSlug, &catCreate); err != nil {
		return nil, err
	}
	if catID.Valid {
		p.Category = &models.Category{
			ID:        catID.String,
			Name:      catName.String,
			Slug:      catSlug.String,
			CreatedAt: catCreate.Time,
		}
	}
	return &p, nil
}

func scanProducts(rows *sql.Rows) ([]*models.Product, error) {
	defer rows.Close()
	products := make([]*models.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// UpsertProduct inserts a product or updates it in place, keeping its original
// creation time and insertion order. The product's Category must already exist
// (see EnsureCategory) or be nil.
func (s *SQLiteStorage) UpsertProduct(ctx context.Context, p *models.Product) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	timestamps(p, time.Now())

	var categoryID sql.NullString
	if p.Category != nil && p.Category.ID != "" {
		categoryID = sql.NullString{String: p.Category.ID, Valid: true}
	}
	description := sql.NullString{String: p.Description, Valid: p.Description != ""}
	source := sql.NullString{String: p.Source, Valid: p.Source != ""}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO products (id, sku, name, description, category_id, price_cents, active, source_path, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		 	sku = excluded.sku,
		 	name = excluded.name,
		 	description = excluded.description,
		 	category_id = excluded.category_id,
		 	price_cents = excluded.price_cents,
		 	active = excluded.active,
		 	source_path = excluded.source_path,
		 	updated_at = excluded.updated_at`,
		p.ID, p.SKU, p.Name, description, categoryID, p.PriceCents, p.Active, source, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert product %s: %w", p.ID, err)
	}
	return nil
}

// GetProduct returns a product by ID.
func (s *SQLiteStorage) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	p, err := scanProduct(s.db.QueryRowContext(ctx, `SELECT `+productColumns+` WHERE p.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetProductsByIDs returns the products for ids in the order given. Unknown IDs are skipped.
func (s *SQLiteStorage) GetProductsByIDs(ctx context.Context, ids []string) ([]*models.Product, error) {
	if len(ids) == 0 {
		return []*models.Product{}, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+productColumns+` WHERE p.id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	found, err := scanProducts(rows)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*models.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	ordered := make([]*models.Product, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
			delete(byID, id)
		}
	}
	return ordered, nil
}

// ListProducts returns products newest first with offset and limit.
func (s *SQLiteStorage) ListProducts(ctx context.Context, offset, limit int) ([]*models.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+productColumns+` ORDER BY p.created_at DESC, p.rowid DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	return scanProducts(rows)
}

// DeleteProduct removes a product by ID.
func (s *SQLiteStorage) DeleteProduct(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListProductIDsBySource returns the IDs of products imported from source.
func (s *SQLiteStorage) ListProductIDsBySource(ctx context.Context, source string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM products WHERE source_path = ? ORDER BY rowid`, source)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SourceState returns the last recorded import of a catalog file.
func (s *SQLiteStorage) SourceState(ctx context.Context, source string) (*SourceState, error) {
	st := &SourceState{Path: source}
	err := s.db.QueryRowContext(ctx,
		`SELECT mtime, size, products FROM catalog_sources WHERE path = ?`, source,
	).Scan(&st.ModTime, &st.Size, &st.Products)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("catalog source %s: %w", source, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return st, nil
}

// MarkSource records a completed import of a catalog file.
func (s *SQLiteStorage) MarkSource(ctx context.Context, st *SourceState) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO catalog_sources (path, mtime, size, products, imported_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET mtime = excluded.mtime, size = excluded.size,
		 	products = excluded.products, imported_at = excluded.imported_at`,
		st.Path, st.ModTime, st.Size, st.Products, time.Now(),
	)
	return err
}

// DeleteSource removes every product imported from source and forgets the source.
func (s *SQLiteStorage) DeleteSource(ctx context.Context, source string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM products WHERE source_path = ?`, source); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM catalog_sources WHERE path = ?`, source); err != nil {
		return err
	}
	return tx.Commit()
}

// EnsureCategory returns the category with the given name (case-insensitive),
// creating it when missing.
func (s *SQLiteStorage) EnsureCategory(ctx context.Context, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.ErrEmptyName
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (id, name, slug, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO NOTHING`,
		uuid.New().String(), name, utils.Slugify(name), time.Now(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create category %q: %w", name, err)
	}
	var c models.Category
	err = s.db.QueryRowContext(ctx,
		`SELECT id, name, slug, created_at FROM categories WHERE name = ?`, name,
	).Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCategories returns all categories by name with their active product counts.
func (s *SQLiteStorage) ListCategories(ctx context.Context) ([]*models.CategoryStats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.name, c.slug, c.created_at, COUNT(p.id)
		 FROM categories c LEFT JOIN products p ON p.category_id = c.id AND p.active = 1
		 GROUP BY c.id ORDER BY c.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make([]*models.CategoryStats, 0)
	for rows.Next() {
		var cs models.CategoryStats
		if err := rows.Scan(&cs.ID, &cs.Name, &cs.Slug, &cs.CreatedAt, &cs.ProductCount); err != nil {
			return nil, err
		}
		stats = append(stats, &cs)
	}
	return stats, rows.Err()
}

// DeleteCategory removes a category; its products become uncategorized.
func (s *SQLiteStorage) DeleteCategory(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE products SET category_id = NULL WHERE category_id = ?`, id); err != nil {
		return err
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("category %s: %w", id, ErrNotFound)
	}
	return tx.Commit()
}

// FindCandidates returns up to limit active products whose name, description, or
// category name contains query, case-insensitively, in insertion order.
func (s *SQLiteStorage) FindCandidates(ctx context.Context, query string, limit int) ([]*models.Product, error) {
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+productColumns+`
		 WHERE p.active = 1 AND (
		 	tenpo_lower(p.name) LIKE ? ESCAPE '\'
		 	OR tenpo_lower(COALESCE(p.description, '')) LIKE ? ESCAPE '\'
		 	OR tenpo_lower(COALESCE(c.name, '')) LIKE ? ESCAPE '\'
		 )
		 ORDER BY p.rowid LIMIT ?`,
		pattern, pattern, pattern, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("candidate query failed: %w", err)
	}
	return scanProducts(rows)
}

// escapeLike escapes LIKE wildcards so the query matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// CountProducts returns the total number of products.
func (s *SQLiteStorage) CountProducts(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&count)
	return count, err
}

// CountCategories returns the total number of categories.
func (s *SQLiteStorage) CountCategories(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
