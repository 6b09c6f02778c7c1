package chat

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaenox/docdesk/internal/assistant"
	"github.com/xaenox/docdesk/internal/classifier"
	"github.com/xaenox/docdesk/internal/metrics"
	"github.com/xaenox/docdesk/internal/models"
	"github.com/xaenox/docdesk/internal/storage"
	"go.uber.org/zap"
)

type stubAnswerer struct {
	answer string
	err    error
	calls  int
	docs   int
}

func (s *stubAnswerer) Answer(_ context.Context, _ string, docs []*models.Document) (string, error) {
	s.calls++
	s.docs = len(docs)
	return s.answer, s.err
}

func newTestService(t *testing.T, a *stubAnswerer, withDocs bool) (*Service, *metrics.Metrics) {
	t.Helper()
	store := storage.NewMemoryStorage()
	if withDocs {
		ctx := context.Background()
		require.NoError(t, store.SaveDocument(ctx, &models.Document{ID: "d1", OwnerID: "owner-1", Content: "Plans start at $10.", CreatedAt: time.Now()}))
		require.NoError(t, store.SaveDocument(ctx, &models.Document{ID: "d2", OwnerID: "owner-1", Content: "Support is 24/7.", CreatedAt: time.Now()}))
	}
	m := metrics.New(prometheus.NewRegistry())
	return NewService(store, a, nil, m, zap.NewNop()), m
}

func TestAsk_EmptyQuestion(t *testing.T) {
	svc, _ := newTestService(t, &stubAnswerer{}, true)
	_, err := svc.Ask(context.Background(), "owner-1", "  \n", 0)
	assert.ErrorIs(t, err, ErrEmptyQuestion)
}

func TestAsk_NoDocuments(t *testing.T) {
	a := &stubAnswerer{answer: "unused"}
	svc, _ := newTestService(t, a, false)

	reply, err := svc.Ask(context.Background(), "owner-1", "what is the pricing?", 9)
	require.NoError(t, err)
	assert.Equal(t, NoDocumentsAnswer, reply.Answer)
	assert.False(t, reply.ShouldShowContact)
	assert.Nil(t, reply.ContactSuggestion)
	assert.Zero(t, a.calls)
}

func TestAsk_Escalates(t *testing.T) {
	a := &stubAnswerer{answer: "Plans start at $10."}
	svc, m := newTestService(t, a, true)

	reply, err := svc.Ask(context.Background(), "owner-1", "What is the pricing for 10 seats?", 1)
	require.NoError(t, err)
	assert.Equal(t, "Plans start at $10.", reply.Answer)
	assert.Equal(t, 2, reply.DocumentsUsed)
	assert.Equal(t, 2, a.docs)
	assert.True(t, reply.ShouldShowContact)
	assert.Equal(t, string(classifier.ReasonPricingInquiry), reply.ContactReason)
	require.NotNil(t, reply.ContactSuggestion)
	assert.Equal(t, classifier.Suggestion(classifier.ReasonPricingInquiry), *reply.ContactSuggestion)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Escalations.WithLabelValues("pricing_inquiry")))
}

func TestAsk_NoEscalation(t *testing.T) {
	a := &stubAnswerer{answer: "Support is available around the clock."}
	svc, m := newTestService(t, a, true)

	reply, err := svc.Ask(context.Background(), "owner-1", "When is support open?", -3)
	require.NoError(t, err)
	assert.False(t, reply.ShouldShowContact)
	assert.Equal(t, string(classifier.ReasonGeneralInquiry), reply.ContactReason)
	assert.Nil(t, reply.ContactSuggestion)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChatRequests.WithLabelValues("answered")))
}

func TestAsk_CompletionFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{"unconfigured", assistant.ErrUnconfigured, "AI service not configured. Please contact administrator."},
		{"failed", assistant.ErrCompletion, "Failed to generate response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t, &stubAnswerer{err: tt.err}, true)

			reply, err := svc.Ask(context.Background(), "owner-1", "hello", 0)
			assert.ErrorIs(t, err, tt.err)
			require.NotNil(t, reply)
			assert.True(t, reply.ShouldShowContact)
			assert.Equal(t, string(classifier.ReasonTechnicalIssue), reply.ContactReason)
			require.NotNil(t, reply.ContactSuggestion)
			assert.Equal(t, classifier.Suggestion(classifier.ReasonTechnicalIssue), *reply.ContactSuggestion)
			assert.Equal(t, tt.msg, reply.Error)
			assert.Empty(t, reply.Answer)
		})
	}
}
