package actions

import (
	"context"
	"courtchat/app/client/game"
	"courtchat/app/client/llm/llmtest"
	"courtchat/app/config"
	"courtchat/app/model"
	"courtchat/app/service/prompt"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingBridge struct {
	lines []string
}

func (b *recordingBridge) Append(line string) error {
	b.lines = append(b.lines, line)
	return nil
}

func testGame() *game.Data {
	return &game.Data{
		PlayerID: 1,
		AIID:     2,
		Date:     "1066.9.15",
		Characters: []game.Character{
			{ID: 1, FullName: "Count Robert"},
			{ID: 2, FullName: "Duchess Matilda"},
		},
	}
}

func mustParse(t *testing.T, yaml, name string) Action {
	t.Helper()

	action, err := Parse([]byte(yaml), name)
	require.NoError(t, err)

	return action
}

func testActions(t *testing.T) []Action {
	return []Action{
		mustParse(t, `
description: Give gold to the player
args: [amount]
effect: "add_gold = {{ index .Args 0 }}"
chat_message: "{{ .Character.FullName }} gave {{ .Player.FullName }} {{ index .Args 0 }} gold."
chat_message_class: positive-action-message
`, "giveGold"),
		mustParse(t, `
description: Become friends with the player
effect: set_relation_friend = yes
`, "becomeFriends"),
	}
}

func testState(t *testing.T) State {
	return State{
		Game:     testGame(),
		Messages: []model.Message{{Role: model.RoleAssistant, Name: "Duchess Matilda", Content: "Take this purse."}},
		Actions:  testActions(t),
	}
}

func TestCheckExecutesMatchedActions(t *testing.T) {
	conn := &llmtest.Fake{Chat: true, Responses: []llmtest.Response{
		{Text: "```json\n{\"actions\":[{\"name\":\"giveGold\",\"args\":[\"50\"]},{\"name\":\"fly\",\"args\":[]}]}\n```"},
	}}
	bridge := &recordingBridge{}
	extractor := NewExtractor(conn, prompt.New(config.Conversation{}), bridge)

	result, err := extractor.Check(context.Background(), testState(t))
	require.NoError(t, err)

	require.Len(t, result, 1)
	assert.Equal(t, model.ActionResponse{
		ActionName:       "giveGold",
		ChatMessage:      "Duchess Matilda gave Count Robert 50 gold.",
		ChatMessageClass: "positive-action-message",
	}, result[0])
	assert.Equal(t, []string{"add_gold = 50"}, bridge.lines)

	calls := conn.Calls()
	require.Len(t, calls, 1)
	assert.False(t, calls[0].Stream)
	assert.True(t, calls[0].Prompt.IsChat())
	assert.Contains(t, calls[0].Prompt.Messages()[0].Content, "giveGold(amount): Give gold to the player")
}

func TestCheckSkipsWrongArity(t *testing.T) {
	conn := &llmtest.Fake{Chat: true, Responses: []llmtest.Response{
		{Text: `{"actions":[{"name":"giveGold","args":[]},{"name":"becomeFriends","args":[]}]}`},
	}}
	bridge := &recordingBridge{}

	result, err := NewExtractor(conn, prompt.New(config.Conversation{}), bridge).Check(context.Background(), testState(t))
	require.NoError(t, err)

	require.Len(t, result, 1)
	assert.Equal(t, "becomeFriends", result[0].ActionName)
	assert.Equal(t, "neutral-action-message", result[0].ChatMessageClass)
	assert.Equal(t, []string{"set_relation_friend = yes"}, bridge.lines)
}

func TestCheckCompletionModeUsesFlattenedPrompt(t *testing.T) {
	conn := &llmtest.Fake{Responses: []llmtest.Response{{Text: `{"actions":[]}`}}}
	builder := prompt.New(config.Conversation{InputSequence: "<in>", OutputSequence: "<out>"})

	result, err := NewExtractor(conn, builder, &recordingBridge{}).Check(context.Background(), testState(t))
	require.NoError(t, err)
	assert.Empty(t, result)

	calls := conn.Calls()
	require.Len(t, calls, 1)
	assert.False(t, calls[0].Prompt.IsChat())
	assert.Equal(t, []string{"<in>", "<out>"}, calls[0].Opts.Stop)
}

func TestCheckErrors(t *testing.T) {
	builder := prompt.New(config.Conversation{})

	conn := &llmtest.Fake{Chat: true, Responses: []llmtest.Response{{Err: errors.New("unavailable")}}}
	_, err := NewExtractor(conn, builder, &recordingBridge{}).Check(context.Background(), testState(t))
	assert.Error(t, err)

	conn = &llmtest.Fake{Chat: true, Responses: []llmtest.Response{{Text: "I think she gave gold"}}}
	_, err = NewExtractor(conn, builder, &recordingBridge{}).Check(context.Background(), testState(t))
	assert.Error(t, err)
}

func TestCheckWithoutActionsSkipsCall(t *testing.T) {
	conn := &llmtest.Fake{Chat: true}
	st := testState(t)
	st.Actions = nil

	result, err := NewExtractor(conn, prompt.New(config.Conversation{}), &recordingBridge{}).Check(context.Background(), st)
	require.NoError(t, err)
	assert.Empty(t, result)
	assert.Empty(t, conn.Calls())
}

func TestParse(t *testing.T) {
	action := mustParse(t, "name: custom\nargs: [a, b]\n", "file")
	assert.Equal(t, "custom", action.Name)
	assert.Equal(t, "custom(a, b)", action.Signature())

	_, err := Parse([]byte("effect: \"{{ .Args \""), "broken")
	assert.Error(t, err)

	_, err = Parse([]byte("args: ["), "broken")
	assert.Error(t, err)
}

func TestCheckWritesNothingWhenAnActionFailsToRender(t *testing.T) {
	st := testState(t)
	st.Actions = append(st.Actions, mustParse(t, `
description: Breaks while rendering
effect: broken_effect = yes
chat_message: "{{ .Nope }}"
`, "broken"))

	conn := &llmtest.Fake{Chat: true, Responses: []llmtest.Response{
		{Text: `{"actions":[{"name":"giveGold","args":["50"]},{"name":"broken","args":[]}]}`},
	}}
	bridge := &recordingBridge{}

	result, err := NewExtractor(conn, prompt.New(config.Conversation{}), bridge).Check(context.Background(), st)

	require.Error(t, err)
	assert.Empty(t, result)
	assert.Empty(t, bridge.lines)
}

func TestCheckWritesAllEffectsTogether(t *testing.T) {
	conn := &llmtest.Fake{Chat: true, Responses: []llmtest.Response{
		{Text: `{"actions":[{"name":"giveGold","args":["50"]},{"name":"becomeFriends","args":[]}]}`},
	}}
	bridge := &recordingBridge{}

	result, err := NewExtractor(conn, prompt.New(config.Conversation{}), bridge).Check(context.Background(), testState(t))

	require.NoError(t, err)
	assert.Len(t, result, 2)
	assert.Equal(t, []string{"add_gold = 50\nset_relation_friend = yes"}, bridge.lines)
}
