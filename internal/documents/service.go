package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
	"github.com/xaenox/docdesk/internal/metrics"
	"github.com/xaenox/docdesk/internal/models"
	"github.com/xaenox/docdesk/internal/storage"
	"go.uber.org/zap"
)

const DefaultMaxSize int64 = 10 << 20

var (
	ErrUnsupportedType = errors.New("only PDF and TXT files are allowed")
	ErrEmptyContent    = errors.New("no text content found in file")
	ErrTooLarge        = errors.New("file exceeds the upload size limit")
	ErrUnreadable      = errors.New("file could not be read")
	ErrNotFound        = errors.New("document not found")
)

type Service struct {
	store   storage.DocumentStore
	maxSize int64
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

func NewService(store storage.DocumentStore, maxSize int64, m *metrics.Metrics, logger *zap.Logger) *Service {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Service{
		store:   store,
		maxSize: maxSize,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// MaxSize is the largest accepted upload in bytes.
func (s *Service) MaxSize() int64 {
	return s.maxSize
}

// Upload extracts the text of a PDF or plain-text file and stores it for
// ownerID. contentType may be empty, in which case the extension decides.
func (s *Service) Upload(ctx context.Context, ownerID, filename, contentType string, data []byte) (*models.Document, error) {
	if int64(len(data)) > s.maxSize {
		return nil, ErrTooLarge
	}

	fileType, err := detectType(filename, contentType)
	if err != nil {
		return nil, err
	}

	var content string
	switch fileType {
	case models.PDFFile:
		content, err = extractPDF(data)
		if err != nil {
			s.logger.Warn("Failed to parse PDF", zap.Error(err), zap.String("filename", filename))
			return nil, ErrUnreadable
		}
	case models.TextFile:
		content = strings.ToValidUTF8(string(data), "")
	}

	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	name := filepath.Base(filename)
	doc := &models.Document{
		ID:           uuid.New().String(),
		OwnerID:      ownerID,
		Filename:     name,
		OriginalName: name,
		Content:      content,
		FileType:     fileType,
		FileSize:     int64(len(data)),
		CreatedAt:    s.now(),
	}
	if err := s.store.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to save document: %w", err)
	}

	s.metrics.DocumentsUploaded.WithLabelValues(string(fileType)).Inc()
	s.logger.Info("Document uploaded",
		zap.String("document_id", doc.ID),
		zap.String("owner_id", ownerID),
		zap.String("file_type", string(fileType)),
		zap.Int64("size", doc.FileSize))
	return doc, nil
}

// List returns the owner's documents, newest first, without their content.
func (s *Service) List(ctx context.Context, ownerID string) ([]*models.Document, error) {
	docs, err := s.store.GetDocuments(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get documents: %w", err)
	}
	for _, d := range docs {
		d.Content = ""
	}
	return docs, nil
}

func (s *Service) Delete(ctx context.Context, ownerID, id string) (*models.Document, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	doc, err := s.store.DeleteDocument(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to delete document: %w", err)
	}
	if doc == nil {
		return nil, ErrNotFound
	}
	s.logger.Info("Document deleted", zap.String("document_id", id), zap.String("owner_id", ownerID))
	doc.Content = ""
	return doc, nil
}

func detectType(filename, contentType string) (models.FileType, error) {
	if contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err == nil {
			switch mediaType {
			case "application/pdf":
				return models.PDFFile, nil
			case "text/plain":
				return models.TextFile, nil
			case "application/octet-stream":
			default:
				return "", ErrUnsupportedType
			}
		}
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return models.PDFFile, nil
	case ".txt":
		return models.TextFile, nil
	}
	return "", ErrUnsupportedType
}

func extractPDF(data []byte) (text string, err error) {
	// the pdf reader panics on some malformed xref tables
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
