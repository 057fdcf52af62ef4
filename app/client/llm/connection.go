package llm

import (
	"context"
	"courtchat/app/config"
	"courtchat/app/model"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/tmc/langchaingo/llms"
)

const (
	defaultTimeout = 60 * time.Second

	// per-message framing overhead of chat prompts, as counted by OpenAI
	tokensPerMessage = 4
	tokensPerReply   = 3
)

var invalidNameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

var _ Generator = (*Connection)(nil)

// Connection talks to an OpenAI compatible endpoint either through chat completions or plain
// completions, depending on its configuration.
type Connection struct {
	cfg         config.ConnectionConfig
	client      *openai.Client
	contextSize int
	countTokens func(text string) int
}

func NewConnection(cfg config.ConnectionConfig) *Connection {
	clientConfig := openai.DefaultConfig(cfg.Token)
	clientConfig.BaseURL = cfg.BaseURL

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	clientConfig.HTTPClient = &http.Client{
		Timeout: timeout,
	}

	contextSize := cfg.ContextSize
	if contextSize == 0 {
		contextSize = llms.GetModelContextSize(cfg.Model)
	}

	return &Connection{
		cfg:         cfg,
		client:      openai.NewClientWithConfig(clientConfig),
		contextSize: contextSize,
		countTokens: func(text string) int {
			return llms.CountTokens(cfg.Model, text)
		},
	}
}

func (c *Connection) ContextSize() int {
	return c.contextSize
}

func (c *Connection) IsChat() bool {
	return c.cfg.Chat
}

func (c *Connection) Model() string {
	return c.cfg.Model
}

func (c *Connection) Tokens(prompt Prompt) int {
	if !prompt.IsChat() {
		return c.countTokens(prompt.Text())
	}

	total := tokensPerReply
	for _, msg := range prompt.Messages() {
		total += c.MessageTokens(msg)
	}

	return total
}

func (c *Connection) MessageTokens(msg model.Message) int {
	text := msg.Content
	if msg.Name != "" {
		text = msg.Name + ": " + text
	}

	return tokensPerMessage + c.countTokens(text)
}

func (c *Connection) Complete(
	ctx context.Context,
	prompt Prompt,
	stream bool,
	opts Options,
	onChunk ChunkFunc,
) (string, error) {
	start := time.Now()

	var (
		result string
		err    error
	)

	switch {
	case prompt.IsChat() && stream:
		result, err = c.streamChat(ctx, prompt.Messages(), opts, onChunk)
	case prompt.IsChat():
		result, err = c.completeChat(ctx, prompt.Messages(), opts)
	case stream:
		result, err = c.streamText(ctx, prompt.Text(), opts, onChunk)
	default:
		result, err = c.completeText(ctx, prompt.Text(), opts)
	}
	if err != nil {
		return "", err
	}

	slog.Debug("Completion finished",
		"model", c.cfg.Model,
		"chat", prompt.IsChat(),
		"stream", stream,
		"duration", time.Since(start),
	)

	return result, nil
}

func (c *Connection) chatRequest(messages []model.Message, opts Options) openai.ChatCompletionRequest {
	params := c.cfg.Parameters

	converted := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		converted = append(converted, openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Name:    sanitizeName(msg.Name),
			Content: msg.Content,
		})
	}

	return openai.ChatCompletionRequest{
		Model:            c.cfg.Model,
		Messages:         converted,
		MaxTokens:        opts.MaxTokens,
		Stop:             opts.Stop,
		Temperature:      params.Temperature,
		TopP:             params.TopP,
		FrequencyPenalty: params.FrequencyPenalty,
		PresencePenalty:  params.PresencePenalty,
	}
}

func (c *Connection) textRequest(text string, opts Options) openai.CompletionRequest {
	params := c.cfg.Parameters

	return openai.CompletionRequest{
		Model:            c.cfg.Model,
		Prompt:           text,
		MaxTokens:        opts.MaxTokens,
		Stop:             opts.Stop,
		Temperature:      params.Temperature,
		TopP:             params.TopP,
		FrequencyPenalty: params.FrequencyPenalty,
		PresencePenalty:  params.PresencePenalty,
	}
}

func (c *Connection) completeChat(ctx context.Context, messages []model.Message, opts Options) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, c.chatRequest(messages, opts))
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no chat completion found")
	}

	return resp.Choices[0].Message.Content, nil
}

func (c *Connection) completeText(ctx context.Context, text string, opts Options) (string, error) {
	resp, err := c.client.CreateCompletion(ctx, c.textRequest(text, opts))
	if err != nil {
		return "", fmt.Errorf("failed to create completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion found")
	}

	return resp.Choices[0].Text, nil
}

func (c *Connection) streamChat(
	ctx context.Context,
	messages []model.Message,
	opts Options,
	onChunk ChunkFunc,
) (string, error) {
	stream, err := c.client.CreateChatCompletionStream(ctx, c.chatRequest(messages, opts))
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion stream: %w", err)
	}
	defer stream.Close()

	var builder strings.Builder

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return builder.String(), nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to receive chat completion chunk: %w", err)
		}

		if len(resp.Choices) == 0 {
			continue
		}

		relay(&builder, resp.Choices[0].Delta.Content, onChunk)
	}
}

func (c *Connection) streamText(ctx context.Context, text string, opts Options, onChunk ChunkFunc) (string, error) {
	stream, err := c.client.CreateCompletionStream(ctx, c.textRequest(text, opts))
	if err != nil {
		return "", fmt.Errorf("failed to create completion stream: %w", err)
	}
	defer stream.Close()

	var builder strings.Builder

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return builder.String(), nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to receive completion chunk: %w", err)
		}

		if len(resp.Choices) == 0 {
			continue
		}

		relay(&builder, resp.Choices[0].Text, onChunk)
	}
}

func relay(builder *strings.Builder, delta string, onChunk ChunkFunc) {
	if delta == "" {
		return
	}

	builder.WriteString(delta)

	if onChunk != nil {
		onChunk(model.MessageChunk{Content: delta})
	}
}

// sanitizeName fits a display name into the characters accepted by the name field.
func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	return strings.Trim(invalidNameChars.ReplaceAllString(name, "_"), "_")
}
