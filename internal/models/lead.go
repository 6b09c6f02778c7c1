package models

import (
	"math"
	"time"
)

type Interest string

const (
	InterestPricing   Interest = "pricing"
	InterestDemo      Interest = "demo"
	InterestTechnical Interest = "technical"
	InterestGeneral   Interest = "general"
	InterestOther     Interest = "other"
)

type CallTime string

const (
	CallMorning   CallTime = "morning"
	CallAfternoon CallTime = "afternoon"
	CallEvening   CallTime = "evening"
	CallAnytime   CallTime = "anytime"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

type LeadStatus string

const (
	StatusNew        LeadStatus = "new"
	StatusContacted  LeadStatus = "contacted"
	StatusScheduled  LeadStatus = "scheduled"
	StatusCompleted  LeadStatus = "completed"
	StatusNoResponse LeadStatus = "no_response"
)

// Valid reports whether s is one of the known lead statuses.
func (s LeadStatus) Valid() bool {
	switch s {
	case StatusNew, StatusContacted, StatusScheduled, StatusCompleted, StatusNoResponse:
		return true
	}
	return false
}

// Lead is a persisted callback request. OwnerID, ConversationID and Email
// together identify a lead; storage rejects a second row with the same key.
type Lead struct {
	ID             string     `json:"id"`
	OwnerID        string     `json:"-"`
	ConversationID string     `json:"conversation_id,omitempty"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone"`
	Company        string     `json:"company,omitempty"`
	Question       string     `json:"question"`
	Interest       Interest   `json:"interest"`
	BestTimeToCall CallTime   `json:"best_time_to_call"`
	Timezone       string     `json:"timezone"`
	Priority       Priority   `json:"priority"`
	Status         LeadStatus `json:"status"`
	Notes          string     `json:"notes,omitempty"`
	ContactedAt    *time.Time `json:"contacted_at,omitempty"`
	ScheduledAt    *time.Time `json:"scheduled_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// LeadWithOwner is a lead as shown in the administrative listing.
type LeadWithOwner struct {
	Lead
	Owner Owner `json:"owner"`
}

// LeadFilter narrows the administrative listing; empty fields match all.
type LeadFilter struct {
	Status   LeadStatus
	Priority Priority
}

// LeadPatch is applied by UpdateLead. ContactedAt is only written when set.
type LeadPatch struct {
	Status      LeadStatus
	Notes       string
	ContactedAt *time.Time
	UpdatedAt   time.Time
}

// Page selects a window of a listing, 1-based.
type Page struct {
	Number int
	Size   int
}

// Offset returns the number of rows skipped before this page. It saturates
// at math.MaxInt instead of overflowing.
func (p Page) Offset() int {
	if p.Number <= 1 || p.Size <= 0 {
		return 0
	}
	if p.Number-1 > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return (p.Number - 1) * p.Size
}
