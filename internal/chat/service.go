package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xaenox/docdesk/internal/assistant"
	"github.com/xaenox/docdesk/internal/classifier"
	"github.com/xaenox/docdesk/internal/metrics"
	"github.com/xaenox/docdesk/internal/models"
	"github.com/xaenox/docdesk/internal/storage"
	"go.uber.org/zap"
)

var ErrEmptyQuestion = errors.New("question is required")

// NoDocumentsAnswer is returned while the owner has nothing uploaded.
const NoDocumentsAnswer = "You haven't uploaded any documents yet. Please upload some documents first so I can answer your questions!"

type Service struct {
	docs       storage.DocumentStore
	assistant  assistant.Answerer
	classifier *classifier.Classifier
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

func NewService(docs storage.DocumentStore, a assistant.Answerer, c *classifier.Classifier, m *metrics.Metrics, logger *zap.Logger) *Service {
	if c == nil {
		c = classifier.NewDefault()
	}
	return &Service{
		docs:       docs,
		assistant:  a,
		classifier: c,
		metrics:    m,
		logger:     logger,
	}
}

// Ask answers question from the owner's documents and decides whether to
// offer a callback. conversationLength is the number of prior turns.
//
// When no answer can be generated the returned reply carries the
// technical_issue escalation alongside a non-nil error wrapping
// assistant.ErrUnconfigured or assistant.ErrCompletion.
func (s *Service) Ask(ctx context.Context, ownerID, question string, conversationLength int) (*models.ChatReply, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}
	if conversationLength < 0 {
		conversationLength = 0
	}

	docs, err := s.docs.GetDocuments(ctx, ownerID)
	if err != nil {
		s.metrics.ChatRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to get documents: %w", err)
	}

	if len(docs) == 0 {
		s.metrics.ChatRequests.WithLabelValues("no_documents").Inc()
		return &models.ChatReply{
			Question: question,
			Answer:   NoDocumentsAnswer,
		}, nil
	}

	s.logger.Debug("Chat request",
		zap.String("owner_id", ownerID),
		zap.Int("documents", len(docs)),
		zap.Int("conversation_length", conversationLength))

	answer, err := s.assistant.Answer(ctx, question, docs)
	if err != nil {
		s.metrics.ChatRequests.WithLabelValues("failed").Inc()
		s.logger.Error("Failed to generate answer", zap.Error(err), zap.String("owner_id", ownerID))

		d := classifier.TechnicalIssue()
		s.metrics.Escalations.WithLabelValues(string(d.Reason)).Inc()
		reply := &models.ChatReply{
			Question:          question,
			DocumentsUsed:     len(docs),
			ShouldShowContact: true,
			ContactReason:     string(d.Reason),
			ContactSuggestion: &d.Suggestion,
			Error:             failureMessage(err),
		}
		return reply, fmt.Errorf("chat: %w", err)
	}

	d := s.classifier.Classify(question, answer, conversationLength)
	reply := &models.ChatReply{
		Question:          question,
		Answer:            answer,
		DocumentsUsed:     len(docs),
		ShouldShowContact: d.ShouldEscalate,
		ContactReason:     string(d.Reason),
	}
	if d.ShouldEscalate {
		reply.ContactSuggestion = &d.Suggestion
		s.metrics.Escalations.WithLabelValues(string(d.Reason)).Inc()
		s.logger.Info("Callback offered",
			zap.String("owner_id", ownerID),
			zap.String("reason", string(d.Reason)))
	}

	s.metrics.ChatRequests.WithLabelValues("answered").Inc()
	return reply, nil
}

func failureMessage(err error) string {
	if errors.Is(err, assistant.ErrUnconfigured) {
		return "AI service not configured. Please contact administrator."
	}
	return "Failed to generate response"
}
