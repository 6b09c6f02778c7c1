package bot

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaenox/docdesk/internal/leads"
	"github.com/xaenox/docdesk/internal/metrics"
	"github.com/xaenox/docdesk/internal/models"
	"github.com/xaenox/docdesk/internal/storage"
	"go.uber.org/zap"
)

const (
	salesChat    int64 = -100
	operatorChat int64 = 42
	strangerChat int64 = 7
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, f.err
}

func (f *fakeSender) last() tgbotapi.MessageConfig {
	return f.sent[len(f.sent)-1]
}

func newTestBot(t *testing.T) (*Bot, *fakeSender, *leads.Service) {
	t.Helper()
	svc := leads.NewService(storage.NewMemoryStorage(), leads.Config{}, metrics.New(prometheus.NewRegistry()), zap.NewNop())
	api := &fakeSender{}
	b := newBot(api, Config{SalesChatID: salesChat, OperatorChatIDs: []int64{operatorChat}}, svc, zap.NewNop())
	return b, api, svc
}

func command(chatID int64, text string) *tgbotapi.Message {
	length := len(text)
	for i, r := range text {
		if r == ' ' {
			length = i
			break
		}
	}
	return &tgbotapi.Message{
		Text:     text,
		Chat:     &tgbotapi.Chat{ID: chatID},
		From:     &tgbotapi.User{ID: chatID},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: length}},
	}
}

func submit(t *testing.T, svc *leads.Service, conversationID string) *models.Lead {
	t.Helper()
	receipt, err := svc.Submit(context.Background(), "owner-1", leads.CallbackRequest{
		ConversationID: conversationID,
		Name:           "Ada Lovelace",
		Email:          "ada@example.com",
		Phone:          "+15550100",
		Question:       "Can we get a demo?",
		Interest:       models.InterestDemo,
	})
	require.NoError(t, err)
	return receipt.Lead
}

func TestLeadSubmitted(t *testing.T) {
	b, api, svc := newTestBot(t)
	svc.AddNotifier(b)

	lead := submit(t, svc, "conv-1")

	require.Len(t, api.sent, 1)
	msg := api.last()
	assert.Equal(t, salesChat, msg.ChatID)
	assert.Equal(t, tgbotapi.ModeMarkdownV2, msg.ParseMode)
	assert.Contains(t, msg.Text, "🔥 New callback request")
	assert.Contains(t, msg.Text, "ada@example\\.com")
	assert.Contains(t, msg.Text, "`"+lead.ID+"`")

	api.err = errors.New("flood wait")
	assert.Error(t, b.LeadSubmitted(context.Background(), lead))
}

func TestLeadSubmitted_NoSalesChat(t *testing.T) {
	api := &fakeSender{}
	b := newBot(api, Config{}, nil, zap.NewNop())
	assert.NoError(t, b.LeadSubmitted(context.Background(), &models.Lead{}))
	assert.Empty(t, api.sent)
}

func TestCommands_RequireOperatorChat(t *testing.T) {
	b, api, _ := newTestBot(t)

	b.handleMessage(context.Background(), command(strangerChat, "/leads"))
	assert.Equal(t, "This chat is not allowed to manage leads.", api.last().Text)

	b.handleMessage(context.Background(), command(strangerChat, "/help"))
	assert.Contains(t, api.last().Text, "/status <id> <status> [notes]")
}

func TestCommands_LeadsAndStatus(t *testing.T) {
	b, api, svc := newTestBot(t)
	ctx := context.Background()

	b.handleMessage(ctx, command(operatorChat, "/leads"))
	assert.Equal(t, "No leads found.", api.last().Text)

	lead := submit(t, svc, "conv-1")

	b.handleMessage(ctx, command(operatorChat, "/leads new"))
	assert.Contains(t, api.last().Text, "Ada Lovelace")
	assert.Contains(t, api.last().Text, lead.ID)

	b.handleMessage(ctx, command(operatorChat, "/leads archived"))
	assert.Contains(t, api.last().Text, "is invalid")

	b.handleMessage(ctx, command(operatorChat, "/status "+lead.ID+" contacted left a voicemail"))
	assert.Contains(t, api.last().Text, "is now *contacted*")

	page, err := svc.ListAll(ctx, &models.User{Role: models.RoleAdmin}, models.LeadFilter{}, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Leads, 1)
	assert.Equal(t, models.StatusContacted, page.Leads[0].Status)
	assert.Equal(t, "left a voicemail", page.Leads[0].Notes)
	assert.NotNil(t, page.Leads[0].ContactedAt)

	b.handleMessage(ctx, command(operatorChat, "/status 00000000-0000-4000-8000-000000000000 completed"))
	assert.Equal(t, "⚠️ Lead not found.", api.last().Text)

	b.handleMessage(ctx, command(operatorChat, "/status "+lead.ID))
	assert.Contains(t, api.last().Text, "usage:")
}

func TestParseStatusCommand(t *testing.T) {
	id, status, notes, err := parseStatusCommand("  abc   Scheduled   call on Friday ")
	require.NoError(t, err)
	assert.Equal(t, "abc", id)
	assert.Equal(t, models.StatusScheduled, status)
	assert.Equal(t, "call on Friday", notes)

	_, _, notes, err = parseStatusCommand("abc completed")
	require.NoError(t, err)
	assert.Empty(t, notes)

	_, _, _, err = parseStatusCommand("abc archived")
	assert.Error(t, err)
}

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, `a\_b\*c\.d\!e\\f`, escapeMarkdown(`a_b*c.d!e\f`))
	assert.Equal(t, `\(x\) \- \[y\]`, escapeMarkdown(`(x) - [y]`))
}
