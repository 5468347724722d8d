package documents

import (
	"context"
	"strings"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo. Documents are kept in
// insertion order.
type MemoryRepo struct {
	mu   sync.RWMutex
	docs []Document
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

// Create appends a document.
func (r *MemoryRepo) Create(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc.Tags = cloneTags(doc.Tags)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs = append(r.docs, doc)
	return nil
}

// GetByID returns a document by ID for its owner.
func (r *MemoryRepo) GetByID(ctx context.Context, userID, documentID string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.indexOf(userID, documentID); i >= 0 {
		doc := r.docs[i]
		doc.Tags = cloneTags(doc.Tags)
		return doc, nil
	}
	return Document{}, ErrNotFound
}

// List returns one page of the owner's documents matching the tag filter.
func (r *MemoryRepo) List(ctx context.Context, userID string, q ListQuery) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tag := strings.ToLower(q.Tag)
	offset := q.Offset()

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []Document{}
	skipped := 0
	for _, doc := range r.docs {
		if doc.UserID != userID || !hasTagContaining(doc.Tags, tag) {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		if q.PerPage > 0 && len(out) >= q.PerPage {
			break
		}
		doc.Tags = cloneTags(doc.Tags)
		out = append(out, doc)
	}
	return out, nil
}

// UpdateTags replaces the tags of the owner's document.
func (r *MemoryRepo) UpdateTags(ctx context.Context, userID, documentID string, tags []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(userID, documentID)
	if i < 0 {
		return ErrNotFound
	}
	r.docs[i].Tags = cloneTags(tags)
	return nil
}

// Delete removes the owner's document.
func (r *MemoryRepo) Delete(ctx context.Context, userID, documentID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(userID, documentID)
	if i < 0 {
		return "", ErrNotFound
	}
	key := r.docs[i].StorageKey
	r.docs = append(r.docs[:i], r.docs[i+1:]...)
	return key, nil
}

func (r *MemoryRepo) indexOf(userID, documentID string) int {
	for i := range r.docs {
		if r.docs[i].ID == documentID && r.docs[i].UserID == userID {
			return i
		}
	}
	return -1
}

// hasTagContaining expects needle to be lower-cased already.
func hasTagContaining(tags []string, needle string) bool {
	if needle == "" {
		return true
	}
	for _, t := range tags {
		if strings.Contains(strings.ToLower(t), needle) {
			return true
		}
	}
	return false
}

func cloneTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return append([]string{}, tags...)
}

var _ Repo = (*MemoryRepo)(nil)
