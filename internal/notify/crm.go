package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/xaenox/docdesk/internal/models"
)

const EventLeadCreated = "lead.created"

// LeadEvent is the payload published for the CRM.
type LeadEvent struct {
	Type       string       `json:"type"`
	OccurredAt time.Time    `json:"occurred_at"`
	OwnerID    string       `json:"owner_id"`
	Lead       *models.Lead `json:"lead"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// CRM publishes lead events to a Kafka topic, keyed by lead id.
type CRM struct {
	writer messageWriter
	now    func() time.Time
}

func NewCRM(brokers []string, topic string) *CRM {
	return &CRM{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
		now: time.Now,
	}
}

func (c *CRM) Name() string { return "crm" }

func (c *CRM) LeadSubmitted(ctx context.Context, lead *models.Lead) error {
	data, err := json.Marshal(LeadEvent{
		Type:       EventLeadCreated,
		OccurredAt: c.now().UTC(),
		OwnerID:    lead.OwnerID,
		Lead:       lead,
	})
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(lead.ID),
		Value: data,
	}
	if err := c.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("error publishing lead event: %w", err)
	}
	return nil
}

func (c *CRM) Close() error {
	return c.writer.Close()
}
