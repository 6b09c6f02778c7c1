package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/xaenox/docdesk/internal/models"
)

type leadKey struct {
	ownerID        string
	conversationID string
	email          string
}

func keyOf(l *models.Lead) leadKey {
	return leadKey{ownerID: l.OwnerID, conversationID: l.ConversationID, email: l.Email}
}

type MemoryStorage struct {
	mu        sync.RWMutex
	users     map[string]*models.User
	emails    map[string]string
	documents map[string]*models.Document
	leads     map[string]*models.Lead
	leadKeys  map[leadKey]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		users:     make(map[string]*models.User),
		emails:    make(map[string]string),
		documents: make(map[string]*models.Document),
		leads:     make(map[string]*models.Lead),
		leadKeys:  make(map[leadKey]string),
	}
}

// User methods
func (s *MemoryStorage) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.emails[user.Email]; exists {
		return ErrDuplicate
	}
	u := *user
	s.users[user.ID] = &u
	s.emails[user.Email] = user.ID
	return nil
}

func (s *MemoryStorage) GetUser(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if user, exists := s.users[id]; exists {
		u := *user
		return &u, nil
	}
	return nil, nil
}

func (s *MemoryStorage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	id, exists := s.emails[email]
	s.mu.RUnlock()

	if !exists {
		return nil, nil
	}
	return s.GetUser(ctx, id)
}

// Document methods
func (s *MemoryStorage) SaveDocument(ctx context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := *doc
	s.documents[doc.ID] = &d
	return nil
}

func (s *MemoryStorage) GetDocuments(ctx context.Context, ownerID string) ([]*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]*models.Document, 0)
	for _, doc := range s.documents {
		if doc.OwnerID == ownerID {
			d := *doc
			docs = append(docs, &d)
		}
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})
	return docs, nil
}

func (s *MemoryStorage) DeleteDocument(ctx context.Context, ownerID, id string) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, exists := s.documents[id]
	if !exists || doc.OwnerID != ownerID {
		return nil, nil
	}
	delete(s.documents, id)
	return doc, nil
}

// Lead methods
func (s *MemoryStorage) FindLead(ctx context.Context, ownerID, conversationID, email string) (*models.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.leadKeys[leadKey{ownerID: ownerID, conversationID: conversationID, email: email}]
	if !exists {
		return nil, nil
	}
	l := *s.leads[id]
	return &l, nil
}

func (s *MemoryStorage) InsertLead(ctx context.Context, lead *models.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := keyOf(lead)
	if _, exists := s.leadKeys[key]; exists {
		return ErrDuplicate
	}
	l := *lead
	s.leads[lead.ID] = &l
	s.leadKeys[key] = lead.ID
	return nil
}

func (s *MemoryStorage) UpdateLead(ctx context.Context, id string, patch models.LeadPatch) (*models.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lead, exists := s.leads[id]
	if !exists {
		return nil, nil
	}
	lead.Status = patch.Status
	lead.Notes = patch.Notes
	if patch.ContactedAt != nil {
		t := *patch.ContactedAt
		lead.ContactedAt = &t
	}
	lead.UpdatedAt = patch.UpdatedAt

	l := *lead
	return &l, nil
}

func (s *MemoryStorage) GetOwnerLeads(ctx context.Context, ownerID string, limit int) ([]*models.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	leads := make([]*models.Lead, 0)
	for _, lead := range s.leads {
		if lead.OwnerID == ownerID {
			l := *lead
			leads = append(leads, &l)
		}
	}
	sortNewestFirst(leads)
	if limit > 0 && len(leads) > limit {
		leads = leads[:limit]
	}
	return leads, nil
}

func (s *MemoryStorage) QueryLeads(ctx context.Context, filter models.LeadFilter, page models.Page) ([]*models.LeadWithOwner, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*models.Lead, 0)
	for _, lead := range s.leads {
		if filter.Status != "" && lead.Status != filter.Status {
			continue
		}
		if filter.Priority != "" && lead.Priority != filter.Priority {
			continue
		}
		matched = append(matched, lead)
	}
	sortNewestFirst(matched)

	total := len(matched)
	start := page.Offset()
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end := start + page.Size
	if end > total || end < start {
		end = total
	}

	result := make([]*models.LeadWithOwner, 0, end-start)
	for _, lead := range matched[start:end] {
		row := &models.LeadWithOwner{Lead: *lead, Owner: models.Owner{ID: lead.OwnerID}}
		if owner, exists := s.users[lead.OwnerID]; exists {
			row.Owner = models.Owner{ID: owner.ID, Name: owner.Name, Email: owner.Email}
		}
		result = append(result, row)
	}
	return result, total, nil
}

func sortNewestFirst(leads []*models.Lead) {
	sort.Slice(leads, func(i, j int) bool {
		if !leads[i].CreatedAt.Equal(leads[j].CreatedAt) {
			return leads[i].CreatedAt.After(leads[j].CreatedAt)
		}
		return leads[i].ID > leads[j].ID
	})
}

func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	return nil
}
