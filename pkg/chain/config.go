// Package chain предоставляет Chain Pattern для AI агента.
package chain

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ilkoid/serape-ai/pkg/events"
	"github.com/ilkoid/serape-ai/pkg/tools"
)

// DefaultMaxIterations — стандартный лимит итераций ReAct цикла.
const DefaultMaxIterations = 10

// DefaultChainTimeout — стандартный таймаут для выполнения chain.
const DefaultChainTimeout = 5 * time.Minute

// DefaultSystemPrompt — базовый системный промпт по умолчанию.
const DefaultSystemPrompt = `You are a helpful AI assistant with access to tools.

When a tool can help answer the question, call it through the function calling API.
After receiving tool results, analyze them and determine if you need more information or can provide a final answer.
Be concise and helpful in your responses.`

// ReActCycleConfig — конфигурация ReAct цикла.
//
// Используется при создании ReActCycle через NewReActCycle.
// Конфигурация может быть загружена из YAML или создана программно.
type ReActCycleConfig struct {
	// SystemPrompt — базовый системный промпт для ReAct агента.
	SystemPrompt string

	// MaxIterations — максимальное количество итераций ReAct цикла.
	// По умолчанию: 10.
	MaxIterations int

	// Timeout — таймаут выполнения всей цепочки.
	// По умолчанию: 5 минут.
	Timeout time.Duration

	// ToolChoice — дефолтная политика выбора инструментов.
	// Переопределяется через ChainInput.ToolChoice.
	ToolChoice tools.Choice

	// Debug — конфигурация debug логирования.
	Debug DebugConfig

	// DefaultEmitter — emitter по умолчанию для событий UI.
	// Mutable: защищён mutex в ReActCycle.
	DefaultEmitter events.Emitter

	// DefaultDebugRecorder — debug recorder по умолчанию.
	// Mutable: защищён mutex в ReActCycle.
	DefaultDebugRecorder *ChainDebugRecorder

	// StreamingEnabled — включён ли streaming режим.
	// Mutable: защищён mutex в ReActCycle.
	StreamingEnabled bool
}

// NewReActCycleConfig создаёт конфигурацию ReAct цикла с дефолтными значениями.
func NewReActCycleConfig() ReActCycleConfig {
	return ReActCycleConfig{
		SystemPrompt:  DefaultSystemPrompt,
		MaxIterations: DefaultMaxIterations,
		Timeout:       DefaultChainTimeout,
		ToolChoice:    tools.Auto(),
	}
}

// Validate проверяет конфигурацию на валидность.
//
// Rule 7: Возвращает ошибку вместо panic.
func (c *ReActCycleConfig) Validate() error {
	if c.SystemPrompt == "" {
		return fmt.Errorf("system_prompt is required")
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("max_iterations must be positive, got %d", c.MaxIterations)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	return nil
}

// ChainYAMLConfig — структура для загрузки chain конфигурации из YAML.
//
// Используется в config.yaml для определения цепочек.
type ChainYAMLConfig struct {
	// Type — тип цепочки ("react")
	Type string `yaml:"type"`

	// Description — описание цепочки (для документации)
	Description string `yaml:"description,omitempty"`

	// SystemPrompt — системный промпт (для ReAct)
	SystemPrompt string `yaml:"system_prompt,omitempty"`

	// Model — модель по умолчанию
	Model string `yaml:"model,omitempty"`

	// Temperature — температура по умолчанию
	Temperature float64 `yaml:"temperature,omitempty"`

	// MaxTokens — максимальное количество токенов
	MaxTokens int `yaml:"max_tokens,omitempty"`

	// MaxIterations — максимальное количество итераций (для ReAct)
	MaxIterations int `yaml:"max_iterations,omitempty"`

	// Timeout — таймаут выполнения (например: "30s", "5m")
	Timeout string `yaml:"timeout,omitempty"`

	// ToolChoice — политика выбора инструментов:
	// "auto", "required", "none" или "tool:<name>"
	ToolChoice string `yaml:"tool_choice,omitempty"`

	// Debug — конфигурация debug логирования
	Debug DebugConfig `yaml:"debug,omitempty"`
}

// ToReActConfig конвертирует YAML конфигурацию в ReActCycleConfig.
//
// Rule 2: Конфигурация через YAML с дефолтными значениями.
func (y *ChainYAMLConfig) ToReActConfig() (ReActCycleConfig, error) {
	cfg := NewReActCycleConfig()

	if y.SystemPrompt != "" {
		cfg.SystemPrompt = y.SystemPrompt
	}
	if y.MaxIterations > 0 {
		cfg.MaxIterations = y.MaxIterations
	}
	if y.Timeout != "" {
		timeout, err := time.ParseDuration(y.Timeout)
		if err != nil {
			return ReActCycleConfig{}, fmt.Errorf("invalid timeout format: %w", err)
		}
		cfg.Timeout = timeout
	}
	if y.ToolChoice != "" {
		choice, err := tools.ParseChoice(y.ToolChoice)
		if err != nil {
			return ReActCycleConfig{}, fmt.Errorf("invalid tool_choice: %w", err)
		}
		cfg.ToolChoice = choice
	}
	cfg.Debug = y.Debug

	return cfg, cfg.Validate()
}

// LoadChainFromYAML загружает конфигурацию цепочки из YAML bytes.
//
// Rule 2: Конфигурация через YAML.
// Rule 7: Возвращает ошибку вместо panic (никаких Must* функций).
func LoadChainFromYAML(data []byte) (ChainYAMLConfig, error) {
	var cfg ChainYAMLConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return ChainYAMLConfig{}, fmt.Errorf("failed to parse chain config: %w", err)
	}
	return cfg, nil
}
