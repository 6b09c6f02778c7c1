package leads

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"github.com/xaenox/docdesk/internal/metrics"
	"github.com/xaenox/docdesk/internal/models"
	"github.com/xaenox/docdesk/internal/notify"
	"github.com/xaenox/docdesk/internal/storage"
	"github.com/xaenox/docdesk/internal/validation"
	"go.uber.org/zap"
)

const (
	DefaultMineLimit   = 10
	DefaultPageSize    = 20
	DefaultMaxPageSize = 100
)

// CallbackRequest is what a user fills in after accepting a callback prompt.
type CallbackRequest struct {
	ConversationID string          `json:"conversation_id"`
	Name           string          `json:"name" validate:"required"`
	Email          string          `json:"email" validate:"required"`
	Phone          string          `json:"phone" validate:"required"`
	Company        string          `json:"company"`
	Question       string          `json:"question" validate:"required"`
	Interest       models.Interest `json:"interest" validate:"oneof=pricing demo technical general other"`
	BestTimeToCall models.CallTime `json:"best_time_to_call" validate:"oneof=morning afternoon evening anytime"`
	Timezone       string          `json:"timezone"`
}

func (r *CallbackRequest) normalize() {
	r.ConversationID = strings.TrimSpace(r.ConversationID)
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Phone = strings.TrimSpace(r.Phone)
	r.Company = strings.TrimSpace(r.Company)
	r.Question = strings.TrimSpace(r.Question)
	r.Interest = models.Interest(strings.TrimSpace(string(r.Interest)))
	r.BestTimeToCall = models.CallTime(strings.TrimSpace(string(r.BestTimeToCall)))
	r.Timezone = strings.TrimSpace(r.Timezone)

	if r.Interest == "" {
		r.Interest = models.InterestGeneral
	}
	if r.BestTimeToCall == "" {
		r.BestTimeToCall = models.CallAnytime
	}
	if r.Timezone == "" {
		r.Timezone = "UTC"
	}
}

// Receipt is returned for an accepted callback request. EstimatedCallTime
// is not persisted.
type Receipt struct {
	Lead              *models.Lead
	EstimatedCallTime time.Time
}

// LeadPage is one page of the administrative listing.
type LeadPage struct {
	Leads []*models.LeadWithOwner
	Page  int
	Limit int
	Total int
	Pages int
}

// Config holds listing limits. Zero values fall back to the Default constants.
type Config struct {
	MineLimit   int
	PageSize    int
	MaxPageSize int
}

// Service accepts callback requests and lets admins work through them.
type Service struct {
	store     storage.LeadStore
	notifiers []notify.Notifier
	metrics   *metrics.Metrics
	logger    *zap.Logger
	cfg       Config
	now       func() time.Time
}

// NewService returns a service with no notifiers; see AddNotifier.
func NewService(store storage.LeadStore, cfg Config, m *metrics.Metrics, logger *zap.Logger) *Service {
	if cfg.MineLimit <= 0 {
		cfg.MineLimit = DefaultMineLimit
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = DefaultMaxPageSize
	}
	return &Service{
		store:   store,
		metrics: m,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}
}

// AddNotifier registers n for every lead accepted afterwards. It must be
// called before the service starts taking requests.
func (s *Service) AddNotifier(n notify.Notifier) {
	s.notifiers = append(s.notifiers, n)
}

// Submit normalizes and stores a callback request, then runs the registered
// notifiers. It returns a *validation.Error for bad input and ErrDuplicate
// when the owner already submitted the same email for the conversation.
// Notifier failures are logged and do not fail the call.
func (s *Service) Submit(ctx context.Context, ownerID string, req CallbackRequest) (*Receipt, error) {
	req.normalize()
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(req.Timezone)
	if err != nil {
		return nil, validation.Errorf("timezone %q is invalid", req.Timezone)
	}

	existing, err := s.store.FindLead(ctx, ownerID, req.ConversationID, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing contact: %w", err)
	}
	if existing != nil {
		s.metrics.DuplicateLeads.Inc()
		return nil, ErrDuplicate
	}

	now := s.now()
	lead := &models.Lead{
		ID:             uuid.New().String(),
		OwnerID:        ownerID,
		ConversationID: req.ConversationID,
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Company:        req.Company,
		Question:       req.Question,
		Interest:       req.Interest,
		BestTimeToCall: req.BestTimeToCall,
		Timezone:       req.Timezone,
		Priority:       PriorityFor(req.Interest),
		Status:         models.StatusNew,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.store.InsertLead(ctx, lead); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			s.metrics.DuplicateLeads.Inc()
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to save contact: %w", err)
	}

	s.metrics.LeadsSubmitted.WithLabelValues(string(lead.Interest), string(lead.Priority)).Inc()
	s.logger.Info("New callback request",
		zap.String("lead_id", lead.ID),
		zap.String("owner_id", ownerID),
		zap.String("interest", string(lead.Interest)),
		zap.String("priority", string(lead.Priority)))

	s.notify(ctx, lead)

	return &Receipt{
		Lead:              lead,
		EstimatedCallTime: EstimateCallTime(now, lead.BestTimeToCall, loc),
	}, nil
}

func (s *Service) notify(ctx context.Context, lead *models.Lead) {
	for _, n := range s.notifiers {
		if err := n.LeadSubmitted(ctx, lead); err != nil {
			s.metrics.NotificationsFailed.WithLabelValues(n.Name()).Inc()
			s.logger.Error("Failed to send lead notification",
				zap.Error(err),
				zap.String("channel", n.Name()),
				zap.String("lead_id", lead.ID))
		}
	}
}

// ListMine returns the owner's most recent callback requests, newest first.
func (s *Service) ListMine(ctx context.Context, ownerID string) ([]*models.Lead, error) {
	leads, err := s.store.GetOwnerLeads(ctx, ownerID, s.cfg.MineLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get contact requests: %w", err)
	}
	return leads, nil
}

// ListAll pages through every lead. page and limit fall back to 1 and the
// configured page size when non-positive; limit is capped, and page is capped
// so the row offset cannot overflow.
func (s *Service) ListAll(ctx context.Context, actor *models.User, filter models.LeadFilter, page, limit int) (*LeadPage, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, validation.Errorf("status %q is invalid", filter.Status)
	}
	if filter.Priority != "" && !validPriority(filter.Priority) {
		return nil, validation.Errorf("priority %q is invalid", filter.Priority)
	}

	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = s.cfg.PageSize
	}
	if limit > s.cfg.MaxPageSize {
		limit = s.cfg.MaxPageSize
	}
	if maxPage := math.MaxInt/limit + 1; page > maxPage {
		page = maxPage
	}

	leads, total, err := s.store.QueryLeads(ctx, filter, models.Page{Number: page, Size: limit})
	if err != nil {
		return nil, fmt.Errorf("failed to get contacts: %w", err)
	}

	return &LeadPage{
		Leads: leads,
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: (total + limit - 1) / limit,
	}, nil
}

// UpdateStatus sets status and notes on a lead. Any status may replace any
// other; contactedAt is stamped only when moving to contacted.
func (s *Service) UpdateStatus(ctx context.Context, actor *models.User, id string, status models.LeadStatus, notes string) (*models.Lead, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if !status.Valid() {
		return nil, validation.Errorf("status must be one of: new, contacted, scheduled, completed, no_response")
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	now := s.now()
	patch := models.LeadPatch{
		Status:    status,
		Notes:     strings.TrimSpace(notes),
		UpdatedAt: now,
	}
	if status == models.StatusContacted {
		patch.ContactedAt = &now
	}

	lead, err := s.store.UpdateLead(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update contact status: %w", err)
	}
	if lead == nil {
		return nil, ErrNotFound
	}

	s.metrics.LeadStatusUpdates.WithLabelValues(string(status)).Inc()
	s.logger.Info("Lead status updated",
		zap.String("lead_id", id),
		zap.String("status", string(status)),
		zap.String("actor_id", actor.ID))
	return lead, nil
}

func validPriority(p models.Priority) bool {
	switch p {
	case models.PriorityLow, models.PriorityMedium, models.PriorityHigh, models.PriorityUrgent:
		return true
	}
	return false
}
