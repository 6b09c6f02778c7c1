package assistant

import (
	"context"
	"errors"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaenox/docdesk/internal/models"
	"go.uber.org/zap"
)

type fakeClient struct {
	req  openai.ChatCompletionRequest
	resp openai.ChatCompletionResponse
	err  error
}

func (f *fakeClient) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.req = req
	return f.resp, f.err
}

func reply(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}},
		},
	}
}

func TestAnswer(t *testing.T) {
	client := &fakeClient{resp: reply("  Plans start at $10.  ")}
	a := newAssistant(client, Config{APIKey: "sk-test", MaxTokens: 500, Temperature: 0.7}, zap.NewNop())

	docs := []*models.Document{{Content: "Plans start at $10."}, {Content: "Support is 24/7."}}
	answer, err := a.Answer(context.Background(), "How much?", docs)
	require.NoError(t, err)
	assert.Equal(t, "Plans start at $10.", answer)

	assert.Equal(t, openai.GPT3Dot5Turbo, client.req.Model)
	assert.Equal(t, 500, client.req.MaxTokens)
	require.Len(t, client.req.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, client.req.Messages[0].Role)
	prompt := client.req.Messages[1].Content
	assert.Contains(t, prompt, "Plans start at $10.\n\nSupport is 24/7.")
	assert.Contains(t, prompt, "Question: How much?")
	assert.Contains(t, prompt, NoInformation)
}

func TestAnswer_Unconfigured(t *testing.T) {
	for _, key := range []string{"", placeholderKey} {
		a := NewOpenAIAssistant(Config{APIKey: key}, zap.NewNop())
		_, err := a.Answer(context.Background(), "hi", nil)
		assert.ErrorIs(t, err, ErrUnconfigured)
	}
}

func TestAnswer_Failures(t *testing.T) {
	client := &fakeClient{err: errors.New("connection reset")}
	a := newAssistant(client, Config{APIKey: "sk-test"}, zap.NewNop())
	_, err := a.Answer(context.Background(), "hi", nil)
	assert.ErrorIs(t, err, ErrCompletion)

	client.err = &openai.APIError{HTTPStatusCode: 401, Message: "Incorrect API key provided"}
	_, err = a.Answer(context.Background(), "hi", nil)
	assert.ErrorIs(t, err, ErrUnconfigured)

	client.err = nil
	client.resp = openai.ChatCompletionResponse{}
	_, err = a.Answer(context.Background(), "hi", nil)
	assert.ErrorIs(t, err, ErrCompletion)
}
