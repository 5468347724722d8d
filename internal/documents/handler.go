package documents

import (
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"docsort-backend/internal/classify"
	"docsort-backend/internal/shared/server/middleware"
	"docsort-backend/internal/shared/server/respond"
	"docsort-backend/internal/shared/telemetry"
)

const (
	defaultPage    = 1
	defaultPerPage = 10
	maxPerPage     = 100
	maxPage        = math.MaxInt / maxPerPage

	defaultMaxUploadSize = 10 << 20 // 10MB

	msgUploaded      = "Document uploaded successfully"
	msgUpdated       = "Document updated successfully"
	msgDeleted       = "Document deleted successfully"
	msgNotFound      = "Document not found"
	msgMissingFields = "Missing required fields"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc           *Service
	MaxUploadSize int64
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, maxUploadSize int64) *Handler {
	if maxUploadSize <= 0 {
		maxUploadSize = defaultMaxUploadSize
	}
	return &Handler{Svc: svc, MaxUploadSize: maxUploadSize}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/upload_document", h.upload)
	rg.POST("/upload_document/file", h.uploadFile)
	rg.POST("/upload_document/from_storage", h.uploadFromStorage)
	rg.GET("/list_documents", h.list)
	rg.GET("/documents/:id", h.get)
	rg.PUT("/update_document/:id", h.update)
	rg.DELETE("/delete_document/:id", h.delete)
	rg.GET("/document_types", h.types)
}

func (h *Handler) upload(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req uploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if errors.Is(err, io.EOF) {
			respond.Error(c, http.StatusBadRequest, "validation_error", msgMissingFields, nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if req.Text == nil || req.Pages == nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", msgMissingFields, nil)
		return
	}

	doc, err := h.Svc.Upload(c.Request.Context(), userID, UploadInput{
		Text:  *req.Text,
		Pages: *req.Pages,
		Tags:  req.Tags,
	})
	if err != nil {
		writeError(c, err, "failed to upload document")
		return
	}

	c.Set("documentId", doc.ID)
	c.Set("documentType", doc.DocumentType)
	respond.JSON(c, http.StatusCreated, UploadResponse{
		Message: msgUploaded,
		Type:    doc.DocumentType,
		ID:      doc.ID,
	})
}

func (h *Handler) uploadFile(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", "file exceeds upload limit", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	pages, err := strconv.Atoi(strings.TrimSpace(c.PostForm("pages")))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "pages must be an integer", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	doc, err := h.Svc.UploadFile(c.Request.Context(), userID, FileInput{
		FileName: fileHeader.Filename,
		Pages:    pages,
		Tags:     c.PostFormArray("tags"),
		Body:     file,
	})
	if err != nil {
		writeError(c, err, "failed to upload document")
		return
	}

	c.Set("documentId", doc.ID)
	c.Set("documentType", doc.DocumentType)
	respond.JSON(c, http.StatusCreated, UploadResponse{
		Message: msgUploaded,
		Type:    doc.DocumentType,
		ID:      doc.ID,
	})
}

func (h *Handler) uploadFromStorage(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req storedFileRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if strings.TrimSpace(req.StorageKey) == "" || req.Pages == nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", msgMissingFields, nil)
		return
	}

	doc, err := h.Svc.CreateFromStorage(c.Request.Context(), userID, StoredFileInput{
		StorageKey: req.StorageKey,
		FileName:   req.FileName,
		Pages:      *req.Pages,
		Tags:       req.Tags,
	})
	if err != nil {
		writeError(c, err, "failed to register document")
		return
	}

	c.Set("documentId", doc.ID)
	c.Set("documentType", doc.DocumentType)
	respond.JSON(c, http.StatusCreated, UploadResponse{
		Message: msgUploaded,
		Type:    doc.DocumentType,
		ID:      doc.ID,
	})
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	page, ok := positiveQueryInt(c, "page", defaultPage)
	if !ok || page > maxPage {
		respond.Error(c, http.StatusBadRequest, "validation_error", "page must be a positive integer", nil)
		return
	}
	perPage, ok := positiveQueryInt(c, "per_page", defaultPerPage)
	if !ok || perPage > maxPerPage {
		respond.Error(c, http.StatusBadRequest, "validation_error", "per_page must be an integer between 1 and 100", nil)
		return
	}

	docs, err := h.Svc.List(c.Request.Context(), userID, ListQuery{
		Page:    page,
		PerPage: perPage,
		Tag:     c.Query("tags"),
	})
	if err != nil {
		writeError(c, err, "failed to list documents")
		return
	}

	resp := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		resp = append(resp, toResponse(doc))
	}
	respond.OK(c, resp)
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	documentID := c.Param("id")
	c.Set("documentId", documentID)

	doc, err := h.Svc.Get(c.Request.Context(), userID, documentID)
	if err != nil {
		writeError(c, err, "failed to fetch document")
		return
	}
	c.Set("documentType", doc.DocumentType)
	respond.OK(c, toResponse(doc))
}

func (h *Handler) update(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	documentID := c.Param("id")
	c.Set("documentId", documentID)

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if req.Tags == nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", msgMissingFields, nil)
		return
	}

	if err := h.Svc.UpdateTags(c.Request.Context(), userID, documentID, *req.Tags); err != nil {
		writeError(c, err, "failed to update document")
		return
	}
	respond.Message(c, http.StatusOK, msgUpdated)
}

func (h *Handler) delete(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	documentID := c.Param("id")
	c.Set("documentId", documentID)

	if err := h.Svc.Delete(c.Request.Context(), userID, documentID); err != nil {
		writeError(c, err, "failed to delete document")
		return
	}
	respond.Message(c, http.StatusOK, msgDeleted)
}

func (h *Handler) types(c *gin.Context) {
	rules := classify.Rules()
	resp := make([]gin.H, 0, len(rules)+1)
	for _, rule := range rules {
		resp = append(resp, gin.H{"type": rule.Label, "keywords": rule.Keywords})
	}
	resp = append(resp, gin.H{"type": classify.TypeUnknown, "keywords": []string{}})
	respond.OK(c, resp)
}

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", msgNotFound, nil)
	case errors.Is(err, ErrUnsupportedFile):
		respond.Error(c, http.StatusUnsupportedMediaType, "unsupported_file", err.Error(), nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		telemetry.Error("documents.request_failed", map[string]any{
			"request_id": middleware.RequestIDFromContext(c),
			"error":      err,
		})
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}

// positiveQueryInt reads an optional integer query parameter. ok is false
// when the value is present but not an integer of at least 1.
func positiveQueryInt(c *gin.Context, key string, def int) (int, bool) {
	raw, present := c.GetQuery(key)
	if !present || strings.TrimSpace(raw) == "" {
		return def, true
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
