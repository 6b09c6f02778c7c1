package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/xaenox/docdesk/internal/models"
	"go.uber.org/zap"
)

var (
	// ErrUnconfigured is returned when no usable API key is set.
	ErrUnconfigured = errors.New("assistant: OpenAI API key not configured")
	// ErrCompletion is returned for any other completion failure.
	ErrCompletion = errors.New("assistant: failed to generate response")
)

const placeholderKey = "your-openai-key-here"

const systemPrompt = "You are a helpful AI assistant that answers questions based on provided documents."

// NoInformation is the reply the model is told to give when the documents
// don't cover the question.
const NoInformation = "I don't have that information in the provided documents."

// Answerer produces an answer to a question from the owner's documents.
type Answerer interface {
	Answer(ctx context.Context, question string, docs []*models.Document) (string, error)
}

type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Config struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
}

type OpenAIAssistant struct {
	client      chatClient
	model       string
	maxTokens   int
	temperature float64
	configured  bool
	logger      *zap.Logger
}

func NewOpenAIAssistant(cfg Config, logger *zap.Logger) *OpenAIAssistant {
	a := newAssistant(nil, cfg, logger)
	if a.configured {
		a.client = openai.NewClient(cfg.APIKey)
	}
	return a
}

func newAssistant(client chatClient, cfg Config, logger *zap.Logger) *OpenAIAssistant {
	model := cfg.Model
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}
	return &OpenAIAssistant{
		client:      client,
		model:       model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		configured:  cfg.APIKey != "" && cfg.APIKey != placeholderKey,
		logger:      logger,
	}
}

func (a *OpenAIAssistant) Answer(ctx context.Context, question string, docs []*models.Document) (string, error) {
	if !a.configured {
		return "", ErrUnconfigured
	}

	resp, err := a.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: a.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: systemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: buildPrompt(question, docs),
				},
			},
			MaxTokens:   a.maxTokens,
			Temperature: float32(a.temperature),
		},
	)
	if err != nil {
		a.logger.Error("Failed to get GPT response", zap.Error(err))
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == 401 {
			return "", fmt.Errorf("%w: %v", ErrUnconfigured, err)
		}
		return "", fmt.Errorf("%w: %v", ErrCompletion, err)
	}
	if len(resp.Choices) == 0 {
		a.logger.Error("GPT response has no choices", zap.String("model", a.model))
		return "", fmt.Errorf("%w: empty response", ErrCompletion)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func buildPrompt(question string, docs []*models.Document) string {
	contents := make([]string, len(docs))
	for i, doc := range docs {
		contents[i] = doc.Content
	}

	return fmt.Sprintf(`You are a helpful AI assistant. Answer the user's question based on the following documents. If the answer is not in the documents, say "%s"

Documents:
%s

Question: %s

Answer:`, NoInformation, strings.Join(contents, "\n\n"), question)
}
