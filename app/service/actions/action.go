package actions

import (
	"bytes"
	"courtchat/app/client/game"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// Action is something the primary counterpart can do in the game as a consequence of what
// was said. Effect and ChatMessage are text/templates rendered with the action arguments.
type Action struct {
	Name             string   `yaml:"name"`
	Description      string   `yaml:"description"`
	Args             []string `yaml:"args"`
	Effect           string   `yaml:"effect"`
	ChatMessage      string   `yaml:"chat_message"`
	ChatMessageClass string   `yaml:"chat_message_class"`

	effect      *template.Template
	chatMessage *template.Template
}

type templateData struct {
	Args      []string
	Game      *game.Data
	Character game.Character
	Player    game.Character
}

// Parse decodes one action definition, name is used when the file does not set one.
func Parse(data []byte, name string) (Action, error) {
	errb := oops.In("actions").With("action", name)

	var action Action
	if err := yaml.Unmarshal(data, &action); err != nil {
		return Action{}, errb.Wrapf(err, "failed to parse action")
	}

	if action.Name == "" {
		action.Name = name
	}
	if action.Name == "" {
		return Action{}, errb.Errorf("action has no name")
	}
	if action.ChatMessageClass == "" {
		action.ChatMessageClass = "neutral-action-message"
	}

	var err error
	if action.effect, err = parseTemplate(action.Name+".effect", action.Effect); err != nil {
		return Action{}, errb.Wrapf(err, "invalid effect template")
	}
	if action.chatMessage, err = parseTemplate(action.Name+".chat_message", action.ChatMessage); err != nil {
		return Action{}, errb.Wrapf(err, "invalid chat message template")
	}

	return action, nil
}

// Signature renders the action as name(arg, ...) for prompts.
func (a Action) Signature() string {
	return a.Name + "(" + strings.Join(a.Args, ", ") + ")"
}

func (a Action) render(tmpl *template.Template, data templateData) (string, error) {
	if tmpl == nil {
		return "", nil
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return strings.TrimSpace(buf.String()), nil
}

func parseTemplate(name, text string) (*template.Template, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	return template.New(name).Funcs(sprig.TxtFuncMap()).Option("missingkey=error").Parse(text)
}
