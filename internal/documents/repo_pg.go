package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const documentColumns = `id, user_id, text, pages, tags, document_type, file_name, storage_key, created_at`

// Create inserts a new document.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (
    id,
    user_id,
    text,
    pages,
    tags,
    document_type,
    file_name,
    storage_key,
    created_at
) VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $8, $9)`

	tags, err := encodeTags(doc.Tags)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.UserID,
		doc.Text,
		doc.Pages,
		tags,
		doc.DocumentType,
		nullableString(doc.FileName),
		nullableString(doc.StorageKey),
		doc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// GetByID fetches a document by ID for its owner.
func (r *PGRepo) GetByID(ctx context.Context, userID, documentID string) (Document, error) {
	const query = `
SELECT ` + documentColumns + `
FROM documents
WHERE id = $1 AND user_id = $2
LIMIT 1`
	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, documentID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// List returns one page of the owner's documents in insertion order.
func (r *PGRepo) List(ctx context.Context, userID string, q ListQuery) ([]Document, error) {
	var (
		where = []string{"user_id = $1"}
		args  = []any{userID}
	)
	if q.Tag != "" {
		args = append(args, "%"+escapeLike(q.Tag)+"%")
		where = append(where, fmt.Sprintf(
			`EXISTS (SELECT 1 FROM jsonb_array_elements_text(tags) AS tag WHERE tag ILIKE $%d ESCAPE '\')`, len(args)))
	}
	args = append(args, q.PerPage, q.Offset())
	query := `
SELECT ` + documentColumns + `
FROM documents
WHERE ` + strings.Join(where, " AND ") + fmt.Sprintf(`
ORDER BY created_at ASC, id ASC
LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	out := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// UpdateTags replaces the tags of the owner's document.
func (r *PGRepo) UpdateTags(ctx context.Context, userID, documentID string, tags []string) error {
	const query = `
UPDATE documents
SET tags = $1::jsonb
WHERE id = $2 AND user_id = $3`
	encoded, err := encodeTags(tags)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, query, encoded, documentID, userID)
	if err != nil {
		return fmt.Errorf("update document tags: %w", err)
	}
	return requireAffected(res)
}

// Delete removes the owner's document and returns its storage key.
func (r *PGRepo) Delete(ctx context.Context, userID, documentID string) (string, error) {
	const query = `
DELETE FROM documents
WHERE id = $1 AND user_id = $2
RETURNING storage_key`
	var storageKey sql.NullString
	err := r.DB.QueryRowContext(ctx, query, documentID, userID).Scan(&storageKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("delete document: %w", err)
	}
	return storageKey.String, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var tags []byte
	var fileName sql.NullString
	var storageKey sql.NullString
	if err := row.Scan(
		&doc.ID,
		&doc.UserID,
		&doc.Text,
		&doc.Pages,
		&tags,
		&doc.DocumentType,
		&fileName,
		&storageKey,
		&doc.CreatedAt,
	); err != nil {
		return Document{}, err
	}
	decoded, err := decodeTags(tags)
	if err != nil {
		return Document{}, fmt.Errorf("decode tags for document %s: %w", doc.ID, err)
	}
	doc.Tags = decoded
	if fileName.Valid {
		doc.FileName = fileName.String
	}
	if storageKey.Valid {
		doc.StorageKey = storageKey.String
	}
	return doc, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(raw), nil
}

func decodeTags(raw []byte) ([]string, error) {
	tags := []string{}
	if len(raw) == 0 {
		return tags, nil
	}
	if err := json.Unmarshal(raw, &tags); err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

var _ Repo = (*PGRepo)(nil)
