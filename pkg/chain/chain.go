// Package chain предоставляет Chain Pattern для AI агента.
//
// Chain позволяет компоновать сложное поведение из простых шагов (Step).
// Каждый Step является изолированным, тестируемым и переиспользуемым.
//
// Правила из dev_manifest.md:
//   - Rule 1: Работает с Tool interface ("Raw In, String Out")
//   - Rule 2: Конфигурируется через YAML
//   - Rule 3: Tools вызываются через Registry и Dispatcher
//   - Rule 4: LLM вызывается через llm.Provider
//   - Rule 5: Thread-safe через ChainContext
//   - Rule 7: Все ошибки возвращаются, нет panic
//   - Rule 10: Godoc на всех public API
package chain

import (
	"context"
	"time"

	"github.com/ilkoid/serape-ai/pkg/llm"
	"github.com/ilkoid/serape-ai/pkg/state"
	"github.com/ilkoid/serape-ai/pkg/tools"
)

// Chain представляет последовательность шагов для выполнения запроса.
//
// Chain является иммутабельным после создания и thread-safe для выполнения.
type Chain interface {
	// Execute выполняет цепочку и возвращает результат.
	Execute(ctx context.Context, input ChainInput) (ChainOutput, error)
}

// ChainInput — входные данные для выполнения цепочки.
type ChainInput struct {
	// UserQuery — запрос пользователя
	UserQuery string

	// State — framework core состояние (thread-safe)
	State *state.CoreState

	// Registry — реестр инструментов (Rule 3)
	Registry *tools.Registry

	// Dispatcher — диспетчер tool calls. Если nil, создаётся
	// дефолтный над Registry.
	Dispatcher *tools.Dispatcher

	// ToolChoice — политика выбора инструментов для этого запуска.
	// Zero value трактуется как auto.
	ToolChoice tools.Choice
}

// ChainOutput — результат выполнения цепочки.
type ChainOutput struct {
	// Result — финальный ответ агента
	Result string

	// Iterations — количество выполненных итераций
	Iterations int

	// Duration — общее время выполнения
	Duration time.Duration

	// FinalState — финальное состояние истории сообщений
	FinalState []llm.Message

	// ToolResults — результаты всех выполненных tool calls в порядке
	// выполнения. Каждый результат несёт ToolCallID исходного вызова.
	ToolResults []tools.ToolResult

	// DebugPath — путь к сохраненному debug логу (если включен)
	DebugPath string

	// Signal — типизированный сигнал завершения
	Signal ExecutionSignal
}

// DebugConfig — конфигурация debug логирования для Chain.
type DebugConfig struct {
	// Enabled — включено ли debug логирование
	Enabled bool `yaml:"enabled"`

	// LogsDir — директория для логов
	LogsDir string `yaml:"logs_dir"`

	// IncludeToolArgs — включать аргументы инструментов
	IncludeToolArgs bool `yaml:"include_tool_args"`

	// IncludeToolResults — включать результаты инструментов
	IncludeToolResults bool `yaml:"include_tool_results"`

	// MaxResultSize — максимальный размер результата (символов)
	MaxResultSize int `yaml:"max_result_size"`
}
