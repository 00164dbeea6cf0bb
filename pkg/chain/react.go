// Package chain предоставляет Chain Pattern для AI агента.
package chain

import (
	"context"
	"fmt"
	"sync"

	"github.com/ilkoid/serape-ai/pkg/events"
	"github.com/ilkoid/serape-ai/pkg/llm"
	"github.com/ilkoid/serape-ai/pkg/models"
	"github.com/ilkoid/serape-ai/pkg/state"
	"github.com/ilkoid/serape-ai/pkg/tools"
)

// ReActCycle — реализация ReAct (Reasoning + Acting) паттерна.
//
// ReActCycle выполняет цикл:
//  1. LLM анализирует контекст и решает что делать (Reasoning)
//  2. Если нужны инструменты — выполняет их через Dispatcher (Acting)
//  3. Повторяет пока не получен финальный ответ или не достигнут лимит
//
// Политика tool choice управляет первой итерацией:
//   - auto: модель решает сама
//   - required: модель обязана вызвать хотя бы один инструмент
//   - none: вызовы инструментов запрещены
//   - tool:<name>: модель обязана вызвать именно этот инструмент
//
// После итерации, удовлетворившей required/tool политику, цикл
// понижает её до auto — иначе модель не сможет дать финальный ответ.
//
// Rule 1: Работает с Tool interface ("Raw In, String Out")
// Rule 2: Конфигурация через YAML
// Rule 3: Tools вызываются через Registry и Dispatcher
// Rule 4: LLM вызывается через llm.Provider
// Rule 5: Thread-safe через immutability (шаблон + execution)
// Rule 7: Все ошибки возвращаются, нет panic
// Rule 10: Godoc на всех public API
//
// ReActCycle — immutable template. Runtime состояние живёт в
// ReActExecution (execution.go), поэтому конкурентные Execute()
// безопасны: каждый вызов создаёт свой execution.
type ReActCycle struct {
	// Dependencies (immutable)
	modelRegistry *models.Registry
	registry      *tools.Registry
	dispatcher    *tools.Dispatcher
	state         *state.CoreState

	// Default model name для fallback
	defaultModel string

	// Configuration (immutable после создания, кроме runtime defaults)
	config ReActCycleConfig

	// Runtime defaults protection — только для mutable полей config
	// (DefaultEmitter, DefaultDebugRecorder, StreamingEnabled)
	mu sync.RWMutex

	// Steps (immutable template — клонируются в execution)
	llmStep  *LLMInvocationStep
	toolStep *ToolExecutionStep
}

// NewReActCycle создаёт новый ReActCycle.
//
// Невалидная конфигурация заменяется дефолтной, чтобы конструктор
// не возвращал ошибку.
func NewReActCycle(config ReActCycleConfig) *ReActCycle {
	if err := config.Validate(); err != nil {
		config = NewReActCycleConfig()
	}

	cycle := &ReActCycle{
		config: config,
	}

	// Шаблоны шагов — будут клонироваться в execution
	cycle.llmStep = &LLMInvocationStep{
		systemPrompt: config.SystemPrompt,
	}
	cycle.toolStep = &ToolExecutionStep{}

	return cycle
}

// SetModelRegistry устанавливает реестр моделей и дефолтную модель.
//
// Rule 3: Registry pattern для моделей.
// Thread-safe: устанавливает immutable dependencies до Execute().
func (c *ReActCycle) SetModelRegistry(registry *models.Registry, defaultModel string) {
	c.modelRegistry = registry
	c.defaultModel = defaultModel
	c.llmStep.modelRegistry = registry
	c.llmStep.defaultModel = defaultModel
}

// SetRegistry устанавливает реестр инструментов.
//
// Rule 3: Tools вызываются через Registry.
func (c *ReActCycle) SetRegistry(registry *tools.Registry) {
	c.registry = registry
	c.llmStep.registry = registry
}

// SetDispatcher устанавливает диспетчер tool calls.
//
// Если не вызван, Execute создаст дефолтный Dispatcher над Registry.
func (c *ReActCycle) SetDispatcher(dispatcher *tools.Dispatcher) {
	c.dispatcher = dispatcher
	c.toolStep.dispatcher = dispatcher
}

// SetState устанавливает framework core состояние.
func (c *ReActCycle) SetState(st *state.CoreState) {
	c.state = st
}

// AttachDebug присоединяет debug recorder к ReActCycle.
//
// Thread-safe: использует mutex для защиты config.DefaultDebugRecorder.
func (c *ReActCycle) AttachDebug(recorder *ChainDebugRecorder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config.DefaultDebugRecorder = recorder
}

// SetEmitter устанавливает emitter для отправки событий в UI.
//
// Port & Adapter pattern: ReActCycle зависит от абстракции events.Emitter.
// Thread-safe: использует mutex для защиты config.DefaultEmitter.
func (c *ReActCycle) SetEmitter(emitter events.Emitter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config.DefaultEmitter = emitter
}

// SetStreamingEnabled включает или выключает streaming режим.
//
// Thread-safe: использует mutex для защиты config.StreamingEnabled.
func (c *ReActCycle) SetStreamingEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config.StreamingEnabled = enabled
}

// Execute выполняет ReAct цикл.
//
// Порядок:
//  1. Валидация зависимостей (read-only, без блокировки)
//  2. Применение дефолтов к input (registry, dispatcher, tool choice)
//  3. Чтение runtime defaults с RWMutex
//  4. Создание ReActExecution (runtime state) и ReActExecutor
//  5. Запуск исполнителя с таймаутом из конфигурации
//
// Thread-safe: несколько Execute() могут работать параллельно.
//
// Rule 7: Возвращает ошибку вместо panic.
// Rule 11: Уважает context.Context.
func (c *ReActCycle) Execute(ctx context.Context, input ChainInput) (ChainOutput, error) {
	if err := c.validateDependencies(); err != nil {
		return ChainOutput{}, fmt.Errorf("invalid dependencies: %w", err)
	}

	// Дефолты для input
	if input.Registry == nil {
		input.Registry = c.registry
	}
	if input.Dispatcher == nil {
		input.Dispatcher = c.dispatcher
	}
	if input.Dispatcher == nil {
		input.Dispatcher = tools.NewDispatcher(input.Registry)
	}
	if input.ToolChoice.IsZero() {
		input.ToolChoice = c.config.ToolChoice
	}
	if input.State == nil {
		input.State = c.state
	}

	// Runtime defaults с RLock
	c.mu.RLock()
	defaultEmitter := c.config.DefaultEmitter
	defaultDebugRecorder := c.config.DefaultDebugRecorder
	streamingEnabled := c.config.StreamingEnabled
	c.mu.RUnlock()

	// Таймаут всей цепочки
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	execution := NewReActExecution(
		input,
		c.llmStep,
		c.toolStep,
		defaultEmitter,
		defaultDebugRecorder,
		streamingEnabled,
		&c.config,
	)

	executor := NewReActExecutor()
	if defaultDebugRecorder != nil {
		executor.AddObserver(defaultDebugRecorder)
	}
	if defaultEmitter != nil {
		executor.AddObserver(NewEmitterObserver(defaultEmitter))
		executor.SetIterationObserver(NewEmitterIterationObserver(defaultEmitter))
	}

	output, err := executor.Execute(ctx, execution)
	if err != nil {
		return ChainOutput{}, err
	}

	// Синхронизируем историю с CoreState
	if input.State != nil {
		input.State.SetHistory(output.FinalState)
	}

	return output, nil
}

// validateDependencies проверяет что все зависимости установлены.
//
// Rule 7: Возвращает ошибку вместо panic.
func (c *ReActCycle) validateDependencies() error {
	if c.modelRegistry == nil {
		return fmt.Errorf("model registry is not set (call SetModelRegistry)")
	}
	if c.defaultModel == "" {
		return fmt.Errorf("default model is not set")
	}
	if c.registry == nil {
		return fmt.Errorf("tools registry is not set (call SetRegistry)")
	}
	// dispatcher и state опциональны
	return nil
}

// Run выполняет ReAct цикл для запроса пользователя.
//
// Реализует Agent interface для прямого использования агента.
// Удобно для простых случаев когда не нужен полный контроль ChainInput.
func (c *ReActCycle) Run(ctx context.Context, query string) (string, error) {
	if err := c.validateDependencies(); err != nil {
		return "", err
	}

	input := ChainInput{
		UserQuery:  query,
		State:      c.state,
		Registry:   c.registry,
		Dispatcher: c.dispatcher,
	}

	output, err := c.Execute(ctx, input)
	if err != nil {
		return "", err
	}

	return output.Result, nil
}

// GetHistory возвращает историю диалога.
//
// Реализует Agent interface. CoreState thread-safe (RWMutex),
// дополнительная блокировка не нужна.
func (c *ReActCycle) GetHistory() []llm.Message {
	if c.state == nil {
		return []llm.Message{}
	}
	return c.state.GetHistory()
}

// Ensure ReActCycle implements Chain
var _ Chain = (*ReActCycle)(nil)

// Ensure ReActCycle implements Agent
var _ Agent = (*ReActCycle)(nil)
