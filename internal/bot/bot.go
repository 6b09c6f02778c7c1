package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xaenox/docdesk/internal/leads"
	"github.com/xaenox/docdesk/internal/models"
	"github.com/xaenox/docdesk/internal/validation"
	"go.uber.org/zap"
)

const listLimit = 10

// LeadConsole is the part of the lead service operators reach from chat.
type LeadConsole interface {
	ListAll(ctx context.Context, actor *models.User, filter models.LeadFilter, page, limit int) (*leads.LeadPage, error)
	UpdateStatus(ctx context.Context, actor *models.User, id string, status models.LeadStatus, notes string) (*models.Lead, error)
}

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Config struct {
	Token           string
	SalesChatID     int64
	OperatorChatIDs []int64
}

// Bot posts new leads to the sales chat and lets operators list and
// update leads with commands.
type Bot struct {
	api         sender
	updates     *tgbotapi.BotAPI
	leads       LeadConsole
	operator    *models.User
	salesChatID int64
	operators   map[int64]bool
	logger      *zap.Logger
}

func New(cfg Config, console LeadConsole, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := newBot(api, cfg, console, logger)
	b.updates = api
	return b, nil
}

func newBot(api sender, cfg Config, console LeadConsole, logger *zap.Logger) *Bot {
	operators := make(map[int64]bool, len(cfg.OperatorChatIDs))
	for _, id := range cfg.OperatorChatIDs {
		operators[id] = true
	}
	return &Bot{
		api:         api,
		leads:       console,
		salesChatID: cfg.SalesChatID,
		operators:   operators,
		operator: &models.User{
			ID:   "telegram-operator",
			Name: "Telegram operator",
			Role: models.RoleAdmin,
		},
		logger: logger,
	}
}

func (b *Bot) Name() string { return "telegram" }

// LeadSubmitted posts lead to the sales chat.
func (b *Bot) LeadSubmitted(ctx context.Context, lead *models.Lead) error {
	if b.salesChatID == 0 {
		return nil
	}
	msg := tgbotapi.NewMessage(b.salesChatID, formatLead(lead))
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	return nil
}

// Start polls for updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	if b.updates == nil {
		return errors.New("bot: not connected")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.updates.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.updates.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			go b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if !message.IsCommand() {
		return
	}

	switch message.Command() {
	case "start":
		b.handleStart(message)
		return
	case "help":
		b.handleHelp(message)
		return
	}

	if !b.operators[message.Chat.ID] {
		b.logger.Warn("Rejected command from unknown chat",
			zap.Int64("chat_id", message.Chat.ID),
			zap.String("command", message.Command()))
		b.sendMessage(message.Chat.ID, "This chat is not allowed to manage leads.")
		return
	}

	switch message.Command() {
	case "leads":
		b.handleLeads(ctx, message)
	case "status":
		b.handleStatus(ctx, message)
	default:
		b.sendMessage(message.Chat.ID, "Unknown command. Use /help to see available commands.")
	}
}

func (b *Bot) handleStart(message *tgbotapi.Message) {
	welcome := `Welcome to the docdesk lead console!
New callback requests are posted to the sales chat as they arrive.

Use /help to see all available commands.`

	b.sendMessage(message.Chat.ID, welcome)
}

func (b *Bot) handleHelp(message *tgbotapi.Message) {
	help := `Available commands:
/start - Start the bot
/help - Show this help message
/leads [status] - Show the latest leads, optionally by status
/status <id> <status> [notes] - Update a lead

Statuses: new, contacted, scheduled, completed, no_response`

	b.sendMessage(message.Chat.ID, help)
}

func (b *Bot) handleLeads(ctx context.Context, message *tgbotapi.Message) {
	filter := models.LeadFilter{Status: models.LeadStatus(strings.TrimSpace(message.CommandArguments()))}

	page, err := b.leads.ListAll(ctx, b.operator, filter, 1, listLimit)
	if err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			b.sendErrorMessage(message.Chat.ID, verr.Message)
			return
		}
		b.logger.Error("Failed to list leads", zap.Error(err), zap.Int64("chat_id", message.Chat.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't retrieve the leads.")
		return
	}

	if len(page.Leads) == 0 {
		b.sendMessage(message.Chat.ID, "No leads found.")
		return
	}

	b.sendMarkdown(message.Chat.ID, formatLeadList(page))
}

func (b *Bot) handleStatus(ctx context.Context, message *tgbotapi.Message) {
	id, status, notes, err := parseStatusCommand(message.CommandArguments())
	if err != nil {
		b.sendErrorMessage(message.Chat.ID, err.Error())
		return
	}

	lead, err := b.leads.UpdateStatus(ctx, b.operator, id, status, notes)
	if err != nil {
		var verr *validation.Error
		switch {
		case errors.As(err, &verr):
			b.sendErrorMessage(message.Chat.ID, verr.Message)
		case errors.Is(err, leads.ErrNotFound):
			b.sendErrorMessage(message.Chat.ID, "Lead not found.")
		default:
			b.logger.Error("Failed to update lead status",
				zap.Error(err),
				zap.String("lead_id", id),
				zap.Int64("chat_id", message.Chat.ID))
			b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't update the lead.")
		}
		return
	}

	b.sendMarkdown(message.Chat.ID, fmt.Sprintf("Lead *%s* is now *%s*",
		escapeMarkdown(lead.Name), escapeMarkdown(string(lead.Status))))
}

// parseStatusCommand splits "<id> <status> [notes...]".
func parseStatusCommand(args string) (string, models.LeadStatus, string, error) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return "", "", "", errors.New("usage: /status <id> <status> [notes]")
	}

	status := models.LeadStatus(strings.ToLower(fields[1]))
	if !status.Valid() {
		return "", "", "", fmt.Errorf("unknown status %q", fields[1])
	}

	notes := strings.TrimSpace(args)
	notes = strings.TrimSpace(strings.TrimPrefix(notes, fields[0]))
	notes = strings.TrimSpace(strings.TrimPrefix(notes, fields[1]))
	return fields[0], status, notes, nil
}

func formatLead(lead *models.Lead) string {
	var sb strings.Builder

	title := "New callback request"
	if lead.Priority == models.PriorityHigh || lead.Priority == models.PriorityUrgent {
		title = "🔥 " + title
	}
	fmt.Fprintf(&sb, "*%s*\n\n", escapeMarkdown(title))
	fmt.Fprintf(&sb, "*Name:* %s\n", escapeMarkdown(lead.Name))
	fmt.Fprintf(&sb, "*Email:* %s\n", escapeMarkdown(lead.Email))
	fmt.Fprintf(&sb, "*Phone:* %s\n", escapeMarkdown(lead.Phone))
	if lead.Company != "" {
		fmt.Fprintf(&sb, "*Company:* %s\n", escapeMarkdown(lead.Company))
	}
	fmt.Fprintf(&sb, "*Interest:* %s \\(%s\\)\n", escapeMarkdown(string(lead.Interest)), escapeMarkdown(string(lead.Priority)))
	fmt.Fprintf(&sb, "*Best time:* %s \\(%s\\)\n", escapeMarkdown(string(lead.BestTimeToCall)), escapeMarkdown(lead.Timezone))
	fmt.Fprintf(&sb, "\n_%s_\n\n", escapeMarkdown(lead.Question))
	fmt.Fprintf(&sb, "`%s`", lead.ID)
	return sb.String()
}

func formatLeadList(page *leads.LeadPage) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "*Latest leads* \\(%d of %d\\)\n\n", len(page.Leads), page.Total)
	for _, l := range page.Leads {
		fmt.Fprintf(&sb, "*%s* \\- %s \\- %s\n",
			escapeMarkdown(l.Name),
			escapeMarkdown(string(l.Interest)+"/"+string(l.Priority)),
			escapeMarkdown(string(l.Status)))
		if l.Owner.Email != "" {
			fmt.Fprintf(&sb, "for %s\n", escapeMarkdown(l.Owner.Email))
		}
		fmt.Fprintf(&sb, "`%s`\n\n", l.ID)
	}
	return sb.String()
}

// escapeMarkdown escapes every character MarkdownV2 treats as markup.
func escapeMarkdown(text string) string {
	specialChars := []string{"\\", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!"}
	escaped := text
	for _, char := range specialChars {
		escaped = strings.ReplaceAll(escaped, char, "\\"+char)
	}
	return escaped
}

func (b *Bot) sendMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendErrorMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, "⚠️ "+text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send error message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}
