package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"docsort-backend/internal/classify"
	"docsort-backend/internal/extract"
	"docsort-backend/internal/shared/metrics"
	"docsort-backend/internal/shared/storage/object"
	"docsort-backend/internal/shared/telemetry"
	"docsort-backend/internal/shared/util"
)

// UploadInput carries the caller-supplied fields of a new document.
type UploadInput struct {
	Text  string
	Pages int
	Tags  []string
}

// FileInput describes an uploaded file whose text is extracted before classification.
type FileInput struct {
	FileName string
	Pages    int
	Tags     []string
	Body     io.Reader
}

// StoredFileInput registers a file the client already uploaded to object
// storage through a presigned URL.
type StoredFileInput struct {
	StorageKey string
	FileName   string
	Pages      int
	Tags       []string
}

// Service contains business logic for documents.
type Service struct {
	Repo  Repo
	Store object.ObjectStore
	now   func() time.Time
}

// NewService constructs a Service. store may be nil when file uploads are disabled.
func NewService(repo Repo, store object.ObjectStore) *Service {
	return &Service{Repo: repo, Store: store, now: time.Now}
}

// Upload classifies the text and records a new document for the owner.
func (s *Service) Upload(ctx context.Context, userID string, in UploadInput) (Document, error) {
	if userID == "" {
		return Document{}, errors.New("user id required")
	}
	if err := validateUpload(in.Text, in.Pages); err != nil {
		return Document{}, err
	}
	return s.create(ctx, Document{
		UserID: userID,
		Text:   in.Text,
		Pages:  in.Pages,
		Tags:   normalizeTags(in.Tags),
	})
}

// UploadFile stores the raw file, extracts its text and records a new document.
func (s *Service) UploadFile(ctx context.Context, userID string, in FileInput) (Document, error) {
	if userID == "" {
		return Document{}, errors.New("user id required")
	}
	if s.Store == nil {
		return Document{}, errors.New("object store not configured")
	}
	if strings.TrimSpace(in.FileName) == "" || in.Body == nil {
		return Document{}, fmt.Errorf("%w: file is required", ErrInvalidInput)
	}
	if in.Pages < 1 {
		return Document{}, fmt.Errorf("%w: pages must be a positive integer", ErrInvalidInput)
	}

	storageKey, _, mimeType, err := s.Store.Save(ctx, userID, in.FileName, in.Body)
	if err != nil {
		if errors.Is(err, util.ErrInvalidFileName) {
			return Document{}, fmt.Errorf("%w: invalid file name", ErrInvalidInput)
		}
		return Document{}, fmt.Errorf("save file: %w", err)
	}
	return s.createFromObject(ctx, userID, storageKey, mimeType, in.FileName, in.Pages, in.Tags)
}

// CreateFromStorage extracts and classifies a file already present in object
// storage. The key must sit under the caller's own prefix.
func (s *Service) CreateFromStorage(ctx context.Context, userID string, in StoredFileInput) (Document, error) {
	if userID == "" {
		return Document{}, errors.New("user id required")
	}
	if s.Store == nil {
		return Document{}, errors.New("object store not configured")
	}
	key := strings.TrimSpace(in.StorageKey)
	if key == "" || strings.Contains(key, "..") || !strings.HasPrefix(key, object.OwnerPrefix(userID)) {
		return Document{}, fmt.Errorf("%w: storage key is not owned by caller", ErrInvalidInput)
	}
	if strings.TrimSpace(in.FileName) == "" {
		in.FileName = path.Base(key)
	}
	if in.Pages < 1 {
		return Document{}, fmt.Errorf("%w: pages must be a positive integer", ErrInvalidInput)
	}
	return s.createFromObject(ctx, userID, key, "", in.FileName, in.Pages, in.Tags)
}

func (s *Service) createFromObject(ctx context.Context, userID, storageKey, mimeType, fileName string, pages int, tags []string) (Document, error) {
	text, err := extract.ExtractText(ctx, s.Store, storageKey, mimeType, fileName)
	if err == nil && strings.TrimSpace(text) == "" {
		err = fmt.Errorf("%w: no text found in file", ErrInvalidInput)
	}
	if err != nil {
		s.removeObjects(ctx, storageKey)
		if errors.Is(err, extract.ErrUnsupported) {
			return Document{}, fmt.Errorf("%w: %s", ErrUnsupportedFile, fileName)
		}
		if errors.Is(err, object.ErrNotFound) {
			return Document{}, fmt.Errorf("%w: stored file not found", ErrInvalidInput)
		}
		return Document{}, err
	}

	doc, err := s.create(ctx, Document{
		UserID:     userID,
		Text:       text,
		Pages:      pages,
		Tags:       normalizeTags(tags),
		FileName:   fileName,
		StorageKey: storageKey,
	})
	if err != nil {
		s.removeObjects(ctx, storageKey)
		return Document{}, err
	}
	return doc, nil
}

func (s *Service) create(ctx context.Context, doc Document) (Document, error) {
	doc.ID = uuid.NewString()
	doc.DocumentType = classify.Classify(doc.Text)
	doc.CreatedAt = s.clock().UTC()

	if err := s.Repo.Create(ctx, doc); err != nil {
		return Document{}, err
	}
	metrics.IncDocumentUploaded(doc.DocumentType)
	return doc, nil
}

// List returns one page of the owner's documents.
func (s *Service) List(ctx context.Context, userID string, q ListQuery) ([]Document, error) {
	if userID == "" {
		return nil, errors.New("user id required")
	}
	if q.Page < 1 || q.PerPage < 1 {
		return nil, fmt.Errorf("%w: page and per_page must be positive integers", ErrInvalidInput)
	}
	if !q.fitsOffset() {
		return nil, fmt.Errorf("%w: page is out of range", ErrInvalidInput)
	}
	return s.Repo.List(ctx, userID, q)
}

// Get returns one of the owner's documents.
func (s *Service) Get(ctx context.Context, userID, documentID string) (Document, error) {
	if !validID(documentID) {
		return Document{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, userID, documentID)
}

// UpdateTags replaces the tags of one of the owner's documents.
func (s *Service) UpdateTags(ctx context.Context, userID, documentID string, tags []string) error {
	if !validID(documentID) {
		return ErrNotFound
	}
	if err := s.Repo.UpdateTags(ctx, userID, documentID, normalizeTags(tags)); err != nil {
		return err
	}
	metrics.IncDocumentUpdated()
	return nil
}

// Delete removes one of the owner's documents along with any stored file.
func (s *Service) Delete(ctx context.Context, userID, documentID string) error {
	if !validID(documentID) {
		return ErrNotFound
	}
	storageKey, err := s.Repo.Delete(ctx, userID, documentID)
	if err != nil {
		return err
	}
	metrics.IncDocumentDeleted()
	if storageKey != "" {
		s.removeObjects(ctx, storageKey)
	}
	return nil
}

// removeObjects is best effort; failures are logged and the record stays authoritative.
func (s *Service) removeObjects(ctx context.Context, storageKey string) {
	if s.Store == nil {
		return
	}
	for _, key := range []string{storageKey, storageKey + extract.ExtractedSuffix} {
		if err := s.Store.Delete(ctx, key); err != nil {
			telemetry.Warn("documents.object_delete_failed", map[string]any{
				"storage_key": key,
				"error":       err,
			})
		}
	}
}

func (s *Service) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

func validateUpload(text string, pages int) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: text must not be empty", ErrInvalidInput)
	}
	if pages < 1 {
		return fmt.Errorf("%w: pages must be a positive integer", ErrInvalidInput)
	}
	return nil
}

func normalizeTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return append([]string{}, tags...)
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
