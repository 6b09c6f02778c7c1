package models

import (
	"time"
)

type FileType string

const (
	PDFFile  FileType = "pdf"
	TextFile FileType = "txt"
)

// Document is an uploaded file with its extracted text.
type Document struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"-"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	Content      string    `json:"content,omitempty"`
	FileType     FileType  `json:"file_type"`
	FileSize     int64     `json:"file_size"`
	CreatedAt    time.Time `json:"uploaded_at"`
}
