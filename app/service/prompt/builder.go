package prompt

import (
	"courtchat/app/config"
	"courtchat/app/model"
	"fmt"
	"strings"

	_ "embed"
)

//go:embed chat_prompt_template.txt
var chatPromptTemplate string

//go:embed next_turn_template.txt
var nextTurnTemplate string

//go:embed resummarize_prompt_template.txt
var resummarizePromptTemplate string

//go:embed summarize_prompt_template.txt
var summarizePromptTemplate string

const (
	summaryMaxWords = 250
	noneYet         = "Nothing yet."
)

// ChatInput is the conversation state a turn prompt is built from.
type ChatInput struct {
	Character       string
	PlayerName      string
	Description     string
	ExampleMessages []model.Message
	Summaries       []model.Summary
	RunningSummary  string
	Messages        []model.Message
}

type Builder struct {
	inputSequence  string
	outputSequence string
}

func New(cfg config.Conversation) *Builder {
	return &Builder{
		inputSequence:  cfg.InputSequence,
		outputSequence: cfg.OutputSequence,
	}
}

// Chat builds the chat-structured prompt for the next turn of in.Character.
func (b *Builder) Chat(in ChatInput) []model.Message {
	result := make([]model.Message, 0, len(in.ExampleMessages)+len(in.Messages)+2)

	result = append(result, model.Message{
		Role: model.RoleSystem,
		Content: render(chatPromptTemplate, map[string]any{
			"description": strings.TrimSpace(in.Description),
			"player":      in.PlayerName,
			"character":   in.Character,
			"summaries":   formatSummaries(in.Summaries),
			"summary":     orNone(in.RunningSummary),
		}),
	})

	result = append(result, in.ExampleMessages...)
	result = append(result, in.Messages...)

	result = append(result, model.Message{
		Role: model.RoleSystem,
		Content: render(nextTurnTemplate, map[string]any{
			"character": in.Character,
			"player":    in.PlayerName,
		}),
	})

	return result
}

// Resummarize builds the prompt folding evicted messages into the running summary. The
// previous summary is always part of the prompt, so the answer can replace it.
func (b *Builder) Resummarize(runningSummary string, evicted []model.Message) []model.Message {
	return []model.Message{
		{
			Role: model.RoleSystem,
			Content: render(resummarizePromptTemplate, map[string]any{
				"summary":   orNone(runningSummary),
				"max_words": summaryMaxWords,
			}),
		},
		{
			Role:    model.RoleUser,
			Content: Transcript(evicted),
		},
	}
}

// Summarize builds the closing summary prompt over the whole conversation.
func (b *Builder) Summarize(in SummarizeInput) []model.Message {
	return []model.Message{
		{
			Role: model.RoleSystem,
			Content: render(summarizePromptTemplate, map[string]any{
				"player":     in.PlayerName,
				"characters": strings.Join(in.Characters, ", "),
				"date":       in.Date,
				"summary":    orNone(in.RunningSummary),
				"max_words":  summaryMaxWords,
			}),
		},
		{
			Role:    model.RoleUser,
			Content: Transcript(in.Messages),
		},
	}
}

type SummarizeInput struct {
	PlayerName     string
	Characters     []string
	Date           string
	RunningSummary string
	Messages       []model.Message
}

// ToText flattens a chat prompt for completion-only connections. The text ends with the
// output sequence and the speaker tag, so the model continues as character.
func (b *Builder) ToText(chat []model.Message, character string) string {
	var builder strings.Builder

	for _, msg := range chat {
		b.writeTurn(&builder, msg, true)
	}

	builder.WriteString(b.outputSequence)
	builder.WriteString("\n")
	builder.WriteString(character)
	builder.WriteString(":")

	return builder.String()
}

// ToTextNoNames flattens a chat prompt without speaker tags, used for summaries.
func (b *Builder) ToTextNoNames(chat []model.Message) string {
	var builder strings.Builder

	for _, msg := range chat {
		b.writeTurn(&builder, msg, false)
	}

	builder.WriteString(b.outputSequence)
	builder.WriteString("\n")

	return builder.String()
}

// StopSequences are the stop sequences of completion mode.
func (b *Builder) StopSequences() []string {
	var result []string
	for _, seq := range []string{b.inputSequence, b.outputSequence} {
		if seq != "" {
			result = append(result, seq)
		}
	}

	return result
}

func (b *Builder) writeTurn(builder *strings.Builder, msg model.Message, withNames bool) {
	switch msg.Role {
	case model.RoleUser:
		builder.WriteString(b.inputSequence)
		builder.WriteString("\n")
	case model.RoleAssistant:
		builder.WriteString(b.outputSequence)
		builder.WriteString("\n")
	}

	if withNames && msg.Name != "" && msg.Role != model.RoleSystem {
		builder.WriteString(msg.Name)
		builder.WriteString(": ")
	}

	builder.WriteString(msg.Content)
	builder.WriteString("\n")
}

// Transcript renders messages as "Name: content" lines.
func Transcript(messages []model.Message) string {
	var builder strings.Builder

	for _, msg := range messages {
		if msg.Name != "" {
			builder.WriteString(msg.Name)
			builder.WriteString(": ")
		}
		builder.WriteString(msg.Content)
		builder.WriteString("\n")
	}

	return strings.TrimSpace(builder.String())
}

func formatSummaries(summaries []model.Summary) string {
	if len(summaries) == 0 {
		return "None, this is their first conversation."
	}

	var builder strings.Builder
	for _, s := range summaries {
		builder.WriteString(fmt.Sprintf("%s: %s\n", s.Date, s.Content))
	}

	return strings.TrimSpace(builder.String())
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return noneYet
	}

	return s
}

// render fills every {key} in one pass, substituted values are never expanded again.
func render(template string, values map[string]any) string {
	pairs := make([]string, 0, len(values)*2)
	for key, value := range values {
		pairs = append(pairs, "{"+key+"}", fmt.Sprint(value))
	}

	return strings.TrimSpace(strings.NewReplacer(pairs...).Replace(template))
}
