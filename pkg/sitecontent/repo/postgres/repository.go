package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-site/pkg/sitecontent"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements sitecontent.Repository using PostgreSQL. Every
// collection lives in one site_documents table with JSONB attrs and body.
type Repository struct {
	db   DBTX
	pool *pgxpool.Pool
}

// New creates a new PostgreSQL repository
func New(db DBTX) sitecontent.Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool.
// Close releases the pool.
func NewWithPool(pool *pgxpool.Pool) sitecontent.Repository {
	return &Repository{db: pool, pool: pool}
}

// Connect opens a pool for databaseURL, optionally pinned to schema.
func Connect(ctx context.Context, databaseURL, schema string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}
	if schema != "" {
		cfg.ConnConfig.RuntimeParams["search_path"] = schema
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return pool, nil
}

// Schema creates the documents table and its indexes.
const Schema = `
CREATE TABLE IF NOT EXISTS site_documents (
	id UUID PRIMARY KEY,
	collection VARCHAR(64) NOT NULL,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	sort_order INTEGER NOT NULL DEFAULT 0,
	attrs JSONB NOT NULL DEFAULT '{}'::jsonb,
	body JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS site_documents_collection_order_idx
	ON site_documents (collection, is_active, sort_order, created_at);
CREATE INDEX IF NOT EXISTS site_documents_attrs_idx
	ON site_documents USING GIN (attrs);
CREATE UNIQUE INDEX IF NOT EXISTS site_documents_newsletter_email_key
	ON site_documents ((attrs->>'email')) WHERE collection = 'newsletter_signups';
`

// Migrate applies Schema.
func Migrate(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("migrate site_documents: %w", err)
	}
	return nil
}

// Error handling helper
func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%s: %w", operation, sitecontent.ErrDuplicate)
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return sitecontent.ErrNotFound
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

func (r *Repository) Insert(ctx context.Context, doc *sitecontent.Document) error {
	attrs, err := json.Marshal(doc.Attrs)
	if err != nil {
		return fmt.Errorf("encode attrs: %w", err)
	}
	query := `
		INSERT INTO site_documents (
			id, collection, is_active, sort_order, attrs, body, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = r.db.Exec(ctx, query,
		doc.ID, string(doc.Collection), doc.IsActive, doc.Order,
		attrs, doc.Body, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("insert document", err)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, collection sitecontent.Collection, id uuid.UUID) (*sitecontent.Document, error) {
	query := `
		SELECT id, collection, is_active, sort_order, attrs, body, created_at, updated_at
		FROM site_documents WHERE collection = $1 AND id = $2`

	doc, err := scanDocument(r.db.QueryRow(ctx, query, string(collection), id))
	if err != nil {
		return nil, r.handlePostgresError("get document", err)
	}
	return doc, nil
}

func (r *Repository) Update(ctx context.Context, doc *sitecontent.Document) error {
	attrs, err := json.Marshal(doc.Attrs)
	if err != nil {
		return fmt.Errorf("encode attrs: %w", err)
	}
	query := `
		UPDATE site_documents SET
			is_active = $3, sort_order = $4, attrs = $5, body = $6, updated_at = $7
		WHERE collection = $1 AND id = $2`

	tag, err := r.db.Exec(ctx, query,
		string(doc.Collection), doc.ID, doc.IsActive, doc.Order, attrs, doc.Body, doc.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("update document", err)
	}
	if tag.RowsAffected() == 0 {
		return sitecontent.ErrNotFound
	}
	return nil
}

func (r *Repository) Find(ctx context.Context, q sitecontent.Query) ([]*sitecontent.Document, error) {
	query, args := buildFind(q)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, r.handlePostgresError("find documents", err)
	}
	defer rows.Close()

	var docs []*sitecontent.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, r.handlePostgresError("scan document", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("find documents", err)
	}
	return docs, nil
}

func (r *Repository) Close() error {
	if r.pool != nil {
		r.pool.Close()
	}
	return nil
}

// buildFind renders q as SQL. Filter names are bound as parameters.
func buildFind(q sitecontent.Query) (string, []interface{}) {
	var b strings.Builder
	b.WriteString(`
		SELECT id, collection, is_active, sort_order, attrs, body, created_at, updated_at
		FROM site_documents WHERE collection = $1`)
	args := []interface{}{string(q.Collection)}

	if q.ActiveOnly {
		b.WriteString(" AND is_active")
	}

	names := make([]string, 0, len(q.Filters))
	for k := range q.Filters {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		args = append(args, k, q.Filters[k])
		fmt.Fprintf(&b, " AND attrs->>$%d = $%d", len(args)-1, len(args))
	}

	switch q.Sort {
	case sitecontent.SortNewest:
		b.WriteString(" ORDER BY created_at DESC, id")
	default:
		b.WriteString(" ORDER BY sort_order ASC, created_at ASC, id")
	}
	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	return b.String(), args
}

func scanDocument(row pgx.Row) (*sitecontent.Document, error) {
	var (
		doc        sitecontent.Document
		collection string
		attrs      []byte
	)
	err := row.Scan(&doc.ID, &collection, &doc.IsActive, &doc.Order,
		&attrs, &doc.Body, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	doc.Collection = sitecontent.Collection(collection)
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &doc.Attrs); err != nil {
			return nil, fmt.Errorf("decode attrs: %w", err)
		}
	}
	doc.CreatedAt = doc.CreatedAt.UTC()
	doc.UpdatedAt = doc.UpdatedAt.UTC()
	return &doc, nil
}
