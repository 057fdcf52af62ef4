package actions

import (
	"context"
	"courtchat/app/client/game"
	"courtchat/app/client/llm"
	"courtchat/app/model"
	"courtchat/app/service/prompt"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	_ "embed"
)

//go:embed check_prompt_template.txt
var checkPromptTemplate string

const (
	recentMessages   = 6
	maxCheckTokens   = 200
	defaultChatClass = "neutral-action-message"
)

// Bridge receives the effects of executed actions.
type Bridge interface {
	Append(line string) error
}

// State is the part of a conversation action extraction looks at.
type State struct {
	Game           *game.Data
	Messages       []model.Message
	RunningSummary string
	Actions        []Action
}

type checkResponse struct {
	Actions []struct {
		Name string   `json:"name"`
		Args []string `json:"args"`
	} `json:"actions"`
}

type Extractor struct {
	conn    llm.Generator
	builder *prompt.Builder
	bridge  Bridge
}

func NewExtractor(conn llm.Generator, builder *prompt.Builder, bridge Bridge) *Extractor {
	return &Extractor{
		conn:    conn,
		builder: builder,
		bridge:  bridge,
	}
}

// Check asks the actions connection which of the enabled actions the primary counterpart
// took in the latest turns and executes them through the bridge.
func (e *Extractor) Check(ctx context.Context, st State) ([]model.ActionResponse, error) {
	result := []model.ActionResponse{}
	if len(st.Actions) == 0 || len(st.Messages) == 0 {
		return result, nil
	}

	character := st.Game.AI()
	player := st.Game.Player()

	chat := e.buildPrompt(st, character.FullName, player.FullName)

	var (
		p    llm.Prompt
		opts = llm.Options{MaxTokens: maxCheckTokens}
	)
	if e.conn.IsChat() {
		p = llm.ChatPrompt(chat)
	} else {
		p = llm.TextPrompt(e.builder.ToTextNoNames(chat))
		opts.Stop = e.builder.StopSequences()
	}

	answer, err := e.conn.Complete(ctx, p, false, opts, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check actions: %w", err)
	}

	var response checkResponse
	if err = json.Unmarshal([]byte(trimJSON(answer)), &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal actions response: %w", err)
	}

	// effects reach the run file only after every matched action rendered
	var effects []string

	for _, item := range response.Actions {
		action, ok := findAction(st.Actions, item.Name)
		if !ok {
			slog.Debug("Ignoring unknown action", "action", item.Name)
			continue
		}

		if len(item.Args) != len(action.Args) {
			slog.Debug("Ignoring action with wrong arguments",
				"action", action.Name,
				"args", item.Args,
				"expected", action.Args,
			)
			continue
		}

		data := templateData{
			Args:      item.Args,
			Game:      st.Game,
			Character: character,
			Player:    player,
		}

		effect, resp, err := render(action, data)
		if err != nil {
			return nil, fmt.Errorf("failed to render action %s: %w", action.Name, err)
		}

		if effect != "" {
			effects = append(effects, effect)
		}
		result = append(result, resp)
	}

	if len(effects) > 0 {
		if err = e.bridge.Append(strings.Join(effects, "\n")); err != nil {
			return nil, fmt.Errorf("failed to write action effects: %w", err)
		}
	}

	for _, resp := range result {
		slog.Info("Action taken", "action", resp.ActionName)
	}

	return result, nil
}

func (e *Extractor) buildPrompt(st State, character, player string) []model.Message {
	var actionsList strings.Builder
	for _, a := range st.Actions {
		actionsList.WriteString(fmt.Sprintf("- %s: %s\n", a.Signature(), a.Description))
	}

	instructions := strings.NewReplacer(
		"{player}", player,
		"{character}", character,
		"{actions}", strings.TrimSpace(actionsList.String()),
	).Replace(checkPromptTemplate)

	messages := st.Messages
	if len(messages) > recentMessages {
		messages = messages[len(messages)-recentMessages:]
	}

	transcript := prompt.Transcript(messages)
	if st.RunningSummary != "" {
		transcript = "Earlier: " + st.RunningSummary + "\n\n" + transcript
	}

	return []model.Message{
		{Role: model.RoleSystem, Content: strings.TrimSpace(instructions)},
		{Role: model.RoleUser, Content: transcript},
	}
}

func render(action Action, data templateData) (string, model.ActionResponse, error) {
	effect, err := action.render(action.effect, data)
	if err != nil {
		return "", model.ActionResponse{}, fmt.Errorf("failed to render effect: %w", err)
	}

	chatMessage, err := action.render(action.chatMessage, data)
	if err != nil {
		return "", model.ActionResponse{}, fmt.Errorf("failed to render chat message: %w", err)
	}

	class := action.ChatMessageClass
	if class == "" {
		class = defaultChatClass
	}

	return effect, model.ActionResponse{
		ActionName:       action.Name,
		ChatMessage:      chatMessage,
		ChatMessageClass: class,
	}, nil
}

func findAction(list []Action, name string) (Action, bool) {
	for _, a := range list {
		if strings.EqualFold(a.Name, strings.TrimSpace(name)) {
			return a, true
		}
	}

	return Action{}, false
}

func trimJSON(s string) string {
	s = strings.Trim(strings.TrimSpace(s), "`")
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "json")

	return strings.TrimSpace(s)
}
