package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/tendant/simple-site/pkg/sitecontent"
)

const schema = `
CREATE TABLE IF NOT EXISTS site_documents (
    id TEXT PRIMARY KEY,
    collection TEXT NOT NULL,
    is_active INTEGER NOT NULL DEFAULT 1,
    sort_order INTEGER NOT NULL DEFAULT 0,
    attrs TEXT NOT NULL DEFAULT '{}',
    body TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_site_documents_collection
    ON site_documents(collection, is_active, sort_order, created_at);
CREATE UNIQUE INDEX IF NOT EXISTS idx_site_documents_newsletter_email
    ON site_documents(json_extract(attrs, '$.email')) WHERE collection = 'newsletter_signups';
`

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Repository implements sitecontent.Repository on SQLite
type Repository struct {
	db *sql.DB
}

// Open opens (creating if needed) the database file at path and applies the
// schema. ":memory:" gives a private in-memory database.
func Open(path string) (*Repository, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection keeps ":memory:" a single database and serializes writers
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Insert(ctx context.Context, doc *sitecontent.Document) error {
	attrs, err := json.Marshal(doc.Attrs)
	if err != nil {
		return fmt.Errorf("encode attrs: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO site_documents (id, collection, is_active, sort_order, attrs, body, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID.String(), string(doc.Collection), doc.IsActive, doc.Order,
		string(attrs), string(doc.Body), formatTime(doc.CreatedAt), formatTime(doc.UpdatedAt))
	if err != nil {
		var sqlErr sqlite3.Error
		if errors.As(err, &sqlErr) && (sqlErr.ExtendedCode == sqlite3.ErrConstraintUnique || sqlErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey) {
			return fmt.Errorf("insert document: %w", sitecontent.ErrDuplicate)
		}
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, collection sitecontent.Collection, id uuid.UUID) (*sitecontent.Document, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, collection, is_active, sort_order, attrs, body, created_at, updated_at
		FROM site_documents WHERE collection = ? AND id = ?`,
		string(collection), id.String())
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sitecontent.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

func (r *Repository) Update(ctx context.Context, doc *sitecontent.Document) error {
	attrs, err := json.Marshal(doc.Attrs)
	if err != nil {
		return fmt.Errorf("encode attrs: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE site_documents SET is_active = ?, sort_order = ?, attrs = ?, body = ?, updated_at = ?
		WHERE collection = ? AND id = ?`,
		doc.IsActive, doc.Order, string(attrs), string(doc.Body), formatTime(doc.UpdatedAt),
		string(doc.Collection), doc.ID.String())
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if n == 0 {
		return sitecontent.ErrNotFound
	}
	return nil
}

func (r *Repository) Find(ctx context.Context, q sitecontent.Query) ([]*sitecontent.Document, error) {
	var b strings.Builder
	b.WriteString(`SELECT id, collection, is_active, sort_order, attrs, body, created_at, updated_at
		FROM site_documents WHERE collection = ?`)
	args := []interface{}{string(q.Collection)}
	if q.ActiveOnly {
		b.WriteString(" AND is_active = 1")
	}

	names := make([]string, 0, len(q.Filters))
	for k := range q.Filters {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		b.WriteString(" AND json_extract(attrs, ?) = ?")
		args = append(args, "$."+k, q.Filters[k])
	}

	switch q.Sort {
	case sitecontent.SortNewest:
		b.WriteString(" ORDER BY created_at DESC, id")
	default:
		b.WriteString(" ORDER BY sort_order ASC, created_at ASC, id")
	}
	if q.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, q.Limit)
	}

	rows, err := r.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("find documents: %w", err)
	}
	defer rows.Close()

	var docs []*sitecontent.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *Repository) Close() error {
	return r.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row scanner) (*sitecontent.Document, error) {
	var (
		doc                  sitecontent.Document
		id, collection       string
		attrs, body          string
		createdAt, updatedAt string
	)
	if err := row.Scan(&id, &collection, &doc.IsActive, &doc.Order, &attrs, &body, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if doc.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse id: %w", err)
	}
	if doc.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if doc.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	if err := json.Unmarshal([]byte(attrs), &doc.Attrs); err != nil {
		return nil, fmt.Errorf("decode attrs: %w", err)
	}
	doc.Collection = sitecontent.Collection(collection)
	doc.Body = []byte(body)
	return &doc, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
