package documents

import "time"

// DocumentResponse is the outward-facing representation of a document.
type DocumentResponse struct {
	ID           string    `json:"_id"`
	UserID       string    `json:"user_id"`
	Text         string    `json:"text"`
	Pages        int       `json:"pages"`
	Tags         []string  `json:"tags"`
	DocumentType string    `json:"type"`
	FileName     string    `json:"file_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// UploadResponse acknowledges a stored document with its derived label.
type UploadResponse struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	ID      string `json:"id"`
}

type uploadRequest struct {
	Text  *string  `json:"text"`
	Pages *int     `json:"pages"`
	Tags  []string `json:"tags"`
}

type storedFileRequest struct {
	StorageKey string   `json:"storage_key"`
	FileName   string   `json:"file_name"`
	Pages      *int     `json:"pages"`
	Tags       []string `json:"tags"`
}

type updateRequest struct {
	Tags *[]string `json:"tags"`
}

func toResponse(doc Document) DocumentResponse {
	tags := doc.Tags
	if tags == nil {
		tags = []string{}
	}
	return DocumentResponse{
		ID:           doc.ID,
		UserID:       doc.UserID,
		Text:         doc.Text,
		Pages:        doc.Pages,
		Tags:         tags,
		DocumentType: doc.DocumentType,
		FileName:     doc.FileName,
		CreatedAt:    doc.CreatedAt,
	}
}
