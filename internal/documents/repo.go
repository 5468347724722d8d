package documents

import "context"

// Repo defines persistence operations for documents. Every lookup and
// mutation is scoped to the owner in a single predicate.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, userID, documentID string) (Document, error)
	List(ctx context.Context, userID string, q ListQuery) ([]Document, error)
	UpdateTags(ctx context.Context, userID, documentID string, tags []string) error
	// Delete removes the document and returns its storage key, if any.
	Delete(ctx context.Context, userID, documentID string) (string, error)
}
