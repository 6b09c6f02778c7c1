package storage

import (
	"context"
	"errors"

	"github.com/xaenox/docdesk/internal/models"
)

// ErrDuplicate is returned when a write collides with a unique key.
var ErrDuplicate = errors.New("storage: duplicate key")

// Lookups return nil, nil when nothing matches.
type Storage interface {
	UserStore
	DocumentStore
	LeadStore
	Close() error
}

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type DocumentStore interface {
	SaveDocument(ctx context.Context, doc *models.Document) error
	// GetDocuments returns the owner's documents newest first, with content.
	GetDocuments(ctx context.Context, ownerID string) ([]*models.Document, error)
	DeleteDocument(ctx context.Context, ownerID, id string) (*models.Document, error)
}

type LeadStore interface {
	FindLead(ctx context.Context, ownerID, conversationID, email string) (*models.Lead, error)
	// InsertLead fails with ErrDuplicate if the owner/conversation/email key exists.
	InsertLead(ctx context.Context, lead *models.Lead) error
	UpdateLead(ctx context.Context, id string, patch models.LeadPatch) (*models.Lead, error)
	GetOwnerLeads(ctx context.Context, ownerID string, limit int) ([]*models.Lead, error)
	QueryLeads(ctx context.Context, filter models.LeadFilter, page models.Page) ([]*models.LeadWithOwner, int, error)
}
