// Package scripts resolves the user-editable parts of a conversation: the character
// description, the example turns and the set of enabled actions.
package scripts

import (
	"bytes"
	"courtchat/app/client/game"
	"courtchat/app/config"
	"courtchat/app/model"
	"courtchat/app/service/actions"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/elliotchance/pie/v2"
	"gopkg.in/yaml.v3"
)

// ErrScript marks a broken script. It is fatal for a config (re)load.
var ErrScript = errors.New("script error")

var actionGroups = []string{"standard", "custom"}

type exampleMessage struct {
	Role    model.Role `yaml:"role"`
	Name    string     `yaml:"name"`
	Content string     `yaml:"content"`
}

type exampleTemplate struct {
	role    model.Role
	name    *template.Template
	content *template.Template
}

type Registry struct {
	description *template.Template
	examples    []exampleTemplate
	actionsDir  string
}

func Load(cfg config.Scripts) (*Registry, error) {
	descriptionPath := filepath.Join(cfg.Dir, "prompts", "description", cfg.Description)
	description, err := loadTemplate(descriptionPath)
	if err != nil {
		return nil, fmt.Errorf("%w: description script %s is not valid: %w", ErrScript, descriptionPath, err)
	}

	examplesPath := filepath.Join(cfg.Dir, "prompts", "example messages", cfg.ExampleMessages)
	examples, err := loadExamples(examplesPath)
	if err != nil {
		return nil, fmt.Errorf("%w: example messages script %s is not valid: %w", ErrScript, examplesPath, err)
	}

	return &Registry{
		description: description,
		examples:    examples,
		actionsDir:  filepath.Join(cfg.Dir, "actions"),
	}, nil
}

func (r *Registry) Description(gd *game.Data) (string, error) {
	var buf bytes.Buffer
	if err := r.description.Execute(&buf, gd); err != nil {
		return "", fmt.Errorf("%w: description script failed: %w", ErrScript, err)
	}

	return strings.TrimSpace(buf.String()), nil
}

func (r *Registry) ExampleMessages(gd *game.Data) ([]model.Message, error) {
	result := make([]model.Message, 0, len(r.examples))

	for i, ex := range r.examples {
		var name, content bytes.Buffer

		if err := ex.name.Execute(&name, gd); err != nil {
			return nil, fmt.Errorf("%w: example message %d name: %w", ErrScript, i, err)
		}
		if err := ex.content.Execute(&content, gd); err != nil {
			return nil, fmt.Errorf("%w: example message %d content: %w", ErrScript, i, err)
		}

		result = append(result, model.Message{
			Role:    ex.role,
			Name:    strings.TrimSpace(name.String()),
			Content: strings.TrimSpace(content.String()),
		})
	}

	return result, nil
}

// EnabledActions loads standard and custom actions, skipping the disabled ones.
func (r *Registry) EnabledActions(disabled []string) ([]actions.Action, error) {
	var result []actions.Action

	for _, group := range actionGroups {
		dir := filepath.Join(r.actionsDir, group)

		entries, err := os.ReadDir(dir)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: failed to list %s actions: %w", ErrScript, group, err)
		}

		for _, entry := range entries {
			ext := filepath.Ext(entry.Name())
			if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
				continue
			}

			name := strings.TrimSuffix(entry.Name(), ext)
			if pie.Contains(disabled, name) {
				continue
			}

			data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
			if err != nil {
				return nil, fmt.Errorf("%w: failed to read action %s: %w", ErrScript, name, err)
			}

			action, err := actions.Parse(data, name)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrScript, err)
			}

			slog.Debug("Loaded action", "group", group, "action", action.Name)
			result = append(result, action)
		}
	}

	return result, nil
}

func loadTemplate(path string) (*template.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return newTemplate(filepath.Base(path), string(data))
}

func loadExamples(path string) ([]exampleTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw []exampleMessage
	if err = yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	result := make([]exampleTemplate, 0, len(raw))
	for i, ex := range raw {
		role := ex.Role
		if role == "" {
			role = model.RoleUser
		}

		name, err := newTemplate(fmt.Sprintf("example.%d.name", i), ex.Name)
		if err != nil {
			return nil, err
		}

		content, err := newTemplate(fmt.Sprintf("example.%d.content", i), ex.Content)
		if err != nil {
			return nil, err
		}

		result = append(result, exampleTemplate{role: role, name: name, content: content})
	}

	return result, nil
}

func newTemplate(name, text string) (*template.Template, error) {
	return template.New(name).Funcs(sprig.TxtFuncMap()).Parse(text)
}
