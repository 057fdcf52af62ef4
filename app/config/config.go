package config

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

const defaultPath = "config.yaml"

type Config struct {
	Log          Log          `yaml:"log"`
	Connections  Connections  `yaml:"connections"`
	Conversation Conversation `yaml:"conversation"`
	Scripts      Scripts      `yaml:"scripts"`
	Game         Game         `yaml:"game"`
	Storage      Storage      `yaml:"storage"`
	Server       Server       `yaml:"server"`
}

type Connections struct {
	TextGeneration ConnectionConfig `yaml:"text_generation" validate:"required"`
	// Optional override, text generation connection is reused when empty
	Summarization *ConnectionConfig `yaml:"summarization"`
	// Optional override, text generation connection is reused when empty
	Actions *ConnectionConfig `yaml:"actions"`
}

type ConnectionConfig struct {
	// OpenAI compatible base url
	BaseURL string `yaml:"base_url" example:"https://openrouter.ai/api/v1" validate:"required"`
	// API token
	Token string `yaml:"token" example:"sk-or-v1-abc123"`
	// Model name
	Model string `yaml:"model" example:"deepseek/deepseek-chat-v3-0324:free" validate:"required"`
	// Chat completions endpoint is used when true, plain completions otherwise
	Chat bool `yaml:"chat" example:"true"`
	// Context window size in tokens, guessed from the model name when zero
	ContextSize int `yaml:"context_size" example:"8192" validate:"gte=0"`
	// Request timeout
	Timeout time.Duration `yaml:"timeout" example:"60s"`
	// Sampling parameters
	Parameters Parameters `yaml:"parameters"`
}

type Parameters struct {
	Temperature      float32 `yaml:"temperature" example:"0.8"`
	TopP             float32 `yaml:"top_p" example:"0.9"`
	FrequencyPenalty float32 `yaml:"frequency_penalty"`
	PresencePenalty  float32 `yaml:"presence_penalty"`
}

type Conversation struct {
	// Stream responses chunk by chunk to the display
	Stream bool `yaml:"stream" example:"true"`
	// Maximum tokens of a single generated turn
	MaxTokens int `yaml:"max_tokens" example:"300" validate:"gt=0"`
	// Share of the context window folded into the running summary when the limit is hit
	PercentOfContextToSummarize int `yaml:"percent_of_context_to_summarize" example:"40" validate:"gt=0,lte=100"`
	// Run the content cleaner over generated turns
	CleanMessages bool `yaml:"clean_messages" example:"true"`
	// Extract actions from the primary counterpart's turns
	ActionsEnableAll bool `yaml:"actions_enable_all" example:"true"`
	// Action names that are never loaded
	DisabledActions []string `yaml:"disabled_actions"`
	// Sequence preceding player turns in completion mode
	InputSequence string `yaml:"input_sequence" example:"### Instruction:"`
	// Sequence preceding character turns in completion mode
	OutputSequence string `yaml:"output_sequence" example:"### Response:"`
	// Event written to the run file when a conversation closes
	CloseEvent string `yaml:"close_event" example:"talk_event.9002"`
	// Delay before the run file is cleared after the close event
	ClearDelay time.Duration `yaml:"clear_delay" example:"500ms"`
	// Conversations shorter than this are not summarized on close
	MinMessagesToSummarize int `yaml:"min_messages_to_summarize" example:"6" validate:"gt=0"`
}

type Scripts struct {
	// Directory with prompts/description, prompts/example messages and actions/{standard,custom}
	Dir string `yaml:"dir" example:"data/scripts" validate:"required"`
	// Description template file name
	Description string `yaml:"description" example:"default.tmpl" validate:"required"`
	// Example messages file name
	ExampleMessages string `yaml:"example_messages" example:"default.yaml" validate:"required"`
}

type Game struct {
	// Game user folder, run file and game data are resolved relative to it
	UserFolderPath string `yaml:"user_folder_path" example:"/home/user/.local/share/Paradox Interactive/Crusader Kings III" validate:"required"`
	// Game state written by the game for the current conversation
	DataFile string `yaml:"data_file" example:"logs/conversation.yaml"`
	// File polled by the game for trigger events
	RunFile string `yaml:"run_file" example:"run/courtchat.txt"`
}

type Storage struct {
	// Summary store driver
	Driver string `yaml:"driver" example:"file" validate:"oneof=file sqlite"`
	// Directory of the file driver
	Dir string `yaml:"dir" example:"data/conversation_summaries"`
	// Database path of the sqlite driver
	SQLitePath string `yaml:"sqlite_path" example:"data/summaries.db"`
}

type Server struct {
	// HTTP listen address, server is disabled when empty
	Listen string `yaml:"listen" example:"127.0.0.1:8080"`
}

type Log struct {
	// Minimal level of console records
	Level string `yaml:"level" example:"debug" validate:"omitempty,oneof=debug info warn error"`
	// Telegram logging config
	Telegram TelegramLog `yaml:"telegram"`
}

type TelegramLog struct {
	// Chat bot token, obtain it via BotFather
	Token string `yaml:"token" example:"1234567890:ABCdefGHIjklMNopQRstUVwxyZ-123456789"`
	// Chat ID to send messages to
	ChatID string `yaml:"chat_id" example:"1001234567890"`
}

func Load() (*Config, error) {
	path := os.Getenv("COURTCHAT_CONFIG")
	if path == "" {
		path = defaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var result Config

	if err := yaml.Unmarshal(data, &result); err != nil {
		return nil, oops.Errorf("failed to parse YAML config: %w", err)
	}

	applyDefaults(&result)

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(result); err != nil {
		return nil, oops.Errorf("failed to validate config: %w", err)
	}

	return &result, nil
}

func applyDefaults(cfg *Config) {
	conv := &cfg.Conversation
	if conv.MaxTokens == 0 {
		conv.MaxTokens = 300
	}
	if conv.PercentOfContextToSummarize == 0 {
		conv.PercentOfContextToSummarize = 40
	}
	if conv.CloseEvent == "" {
		conv.CloseEvent = "talk_event.9002"
	}
	if conv.ClearDelay == 0 {
		conv.ClearDelay = 500 * time.Millisecond
	}
	if conv.MinMessagesToSummarize == 0 {
		conv.MinMessagesToSummarize = 6
	}

	if cfg.Game.DataFile == "" {
		cfg.Game.DataFile = "conversation.yaml"
	}
	if cfg.Game.RunFile == "" {
		cfg.Game.RunFile = "run/courtchat.txt"
	}

	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "file"
	}
	if cfg.Storage.Dir == "" {
		cfg.Storage.Dir = "data/conversation_summaries"
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "data/summaries.db"
	}
}
