package documents

import (
	"math"
	"time"
)

// Document is a piece of text owned by an account and labelled by the classifier.
type Document struct {
	ID           string
	UserID       string
	Text         string
	Pages        int
	Tags         []string
	DocumentType string
	FileName     string
	StorageKey   string
	CreatedAt    time.Time
}

// ListQuery selects one page of an owner's documents.
type ListQuery struct {
	Page    int
	PerPage int
	// Tag filters to documents having a tag that contains it, ignoring case.
	Tag string
}

// Offset is the number of matching documents skipped before the page starts.
// It saturates at math.MaxInt instead of wrapping.
func (q ListQuery) Offset() int {
	if q.Page < 1 || q.PerPage < 1 {
		return 0
	}
	if q.Page-1 > math.MaxInt/q.PerPage {
		return math.MaxInt
	}
	return (q.Page - 1) * q.PerPage
}

// fitsOffset reports whether the page start can be computed without overflow.
func (q ListQuery) fitsOffset() bool {
	return q.PerPage > 0 && q.Page-1 <= math.MaxInt/q.PerPage
}
