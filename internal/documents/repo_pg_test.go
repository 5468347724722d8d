package documents

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var documentColumnNames = []string{"id", "user_id", "text", "pages", "tags", "document_type", "file_name", "storage_key", "created_at"}

func newPGRepoWithMock(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func TestPGRepoCreateEncodesTags(t *testing.T) {
	repo, mock := newPGRepoWithMock(t)
	doc := Document{
		ID:           "11111111-1111-1111-1111-111111111111",
		UserID:       "22222222-2222-2222-2222-222222222222",
		Text:         "ID Number 1",
		Pages:        2,
		Tags:         []string{"identity", "id card"},
		DocumentType: "ID Card",
		CreatedAt:    time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO documents").
		WithArgs(doc.ID, doc.UserID, doc.Text, doc.Pages, `["identity","id card"]`, doc.DocumentType, nil, nil, doc.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), doc); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDScopesToOwner(t *testing.T) {
	repo, mock := newPGRepoWithMock(t)
	created := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(documentColumnNames).
		AddRow("doc-1", "owner-1", "Passport Number 9", 1, []byte(`["travel"]`), "Passport", "scan.pdf", "k/scan.pdf", created)
	mock.ExpectQuery(`WHERE id = \$1 AND user_id = \$2`).
		WithArgs("doc-1", "owner-1").
		WillReturnRows(rows)

	doc, err := repo.GetByID(context.Background(), "owner-1", "doc-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if doc.DocumentType != "Passport" || doc.FileName != "scan.pdf" || doc.StorageKey != "k/scan.pdf" {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if len(doc.Tags) != 1 || doc.Tags[0] != "travel" {
		t.Fatalf("unexpected tags: %v", doc.Tags)
	}

	mock.ExpectQuery(`WHERE id = \$1 AND user_id = \$2`).
		WithArgs("doc-1", "owner-2").
		WillReturnError(sql.ErrNoRows)
	if _, err := repo.GetByID(context.Background(), "owner-2", "doc-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoListWithoutTagFilter(t *testing.T) {
	repo, mock := newPGRepoWithMock(t)
	created := time.Now().UTC()

	rows := sqlmock.NewRows(documentColumnNames).
		AddRow("doc-1", "owner-1", "a", 1, []byte(`[]`), "Unknown", nil, nil, created).
		AddRow("doc-2", "owner-1", "b", 3, nil, "Unknown", nil, nil, created)
	mock.ExpectQuery(`(?s)WHERE user_id = \$1\s+ORDER BY created_at ASC, id ASC\s+LIMIT \$2 OFFSET \$3`).
		WithArgs("owner-1", 10, 20).
		WillReturnRows(rows)

	docs, err := repo.List(context.Background(), "owner-1", ListQuery{Page: 3, PerPage: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[1].Tags == nil || len(docs[1].Tags) != 0 {
		t.Fatalf("expected empty non-nil tags, got %#v", docs[1].Tags)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoListEscapesTagFilter(t *testing.T) {
	repo, mock := newPGRepoWithMock(t)

	mock.ExpectQuery(`(?s)WHERE user_id = \$1 AND EXISTS \(SELECT 1 FROM jsonb_array_elements_text\(tags\) AS tag WHERE tag ILIKE \$2 ESCAPE '\\'\).*LIMIT \$3 OFFSET \$4`).
		WithArgs("owner-1", `%100\%\_id%`, 5, 0).
		WillReturnRows(sqlmock.NewRows(documentColumnNames))

	docs, err := repo.List(context.Background(), "owner-1", ListQuery{Page: 1, PerPage: 5, Tag: "100%_id"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("expected no documents, got %d", len(docs))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateTagsNotFound(t *testing.T) {
	repo, mock := newPGRepoWithMock(t)

	mock.ExpectExec(`UPDATE documents\s+SET tags = \$1::jsonb\s+WHERE id = \$2 AND user_id = \$3`).
		WithArgs(`["updated tag"]`, "doc-1", "owner-2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateTags(context.Background(), "owner-2", "doc-1", []string{"updated tag"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoDeleteReturnsStorageKey(t *testing.T) {
	repo, mock := newPGRepoWithMock(t)

	mock.ExpectQuery(`DELETE FROM documents\s+WHERE id = \$1 AND user_id = \$2\s+RETURNING storage_key`).
		WithArgs("doc-1", "owner-1").
		WillReturnRows(sqlmock.NewRows([]string{"storage_key"}).AddRow("k/scan.pdf"))
	mock.ExpectQuery(`DELETE FROM documents`).
		WithArgs("doc-1", "owner-1").
		WillReturnError(sql.ErrNoRows)

	key, err := repo.Delete(context.Background(), "owner-1", "doc-1")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if key != "k/scan.pdf" {
		t.Fatalf("unexpected storage key %q", key)
	}
	if _, err := repo.Delete(context.Background(), "owner-1", "doc-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
