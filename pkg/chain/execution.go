// Package chain предоставляет Chain Pattern для AI агента.
package chain

import (
	"context"
	"time"

	"github.com/ilkoid/serape-ai/pkg/events"
)

// ReActExecution — runtime состояние выполнения ReAct цикла.
//
// Чистый контейнер данных: логика исполнения живёт в ReActExecutor.
// Создаётся на каждый вызов Execute(), не разделяется между
// goroutine — поэтому не нуждается в синхронизации.
//
// ReActCycle (template) → создаёт → ReActExecution (runtime data)
// ReActExecution → исполняется → ReActExecutor
type ReActExecution struct {
	// Context
	chainCtx *ChainContext

	// Steps (локальные экземпляры для этого выполнения)
	llmStep  *LLMInvocationStep
	toolStep *ToolExecutionStep

	// Cross-cutting concerns (локальные)
	emitter       events.Emitter
	debugRecorder *ChainDebugRecorder

	// Configuration
	streamingEnabled bool
	startTime        time.Time

	// Configuration reference (не создаём копию, читаем только)
	config *ReActCycleConfig

	// Финальный сигнал выполнения
	finalSignal ExecutionSignal
}

// NewReActExecution создаёт execution для одного вызова Execute().
//
// Клонирует шаги из шаблона для изоляции состояния между выполнениями.
func NewReActExecution(
	input ChainInput,
	llmStepTemplate *LLMInvocationStep,
	toolStepTemplate *ToolExecutionStep,
	emitter events.Emitter,
	debugRecorder *ChainDebugRecorder,
	streamingEnabled bool,
	config *ReActCycleConfig,
) *ReActExecution {
	chainCtx := NewChainContext(input)

	// Per-call overrides: input может принести собственный registry
	// и dispatcher, иначе берём из шаблона.
	registry := llmStepTemplate.registry
	if input.Registry != nil {
		registry = input.Registry
	}
	dispatcher := toolStepTemplate.dispatcher
	if input.Dispatcher != nil {
		dispatcher = input.Dispatcher
	}

	// Клонируем LLM шаг для этого выполнения (изолируем emitter, debugRecorder)
	llmStep := &LLMInvocationStep{
		modelRegistry: llmStepTemplate.modelRegistry,
		defaultModel:  llmStepTemplate.defaultModel,
		registry:      registry,
		systemPrompt:  llmStepTemplate.systemPrompt,
		emitter:       emitter,
		debugRecorder: debugRecorder,
	}

	// Клонируем Tool шаг для этого выполнения
	toolStep := &ToolExecutionStep{
		dispatcher: dispatcher,
	}

	return &ReActExecution{
		chainCtx:         chainCtx,
		llmStep:          llmStep,
		toolStep:         toolStep,
		emitter:          emitter,
		debugRecorder:    debugRecorder,
		streamingEnabled: streamingEnabled,
		startTime:        time.Now(),
		config:           config,
	}
}

// emitEvent отправляет событие если emitter установлен.
func (e *ReActExecution) emitEvent(ctx context.Context, event events.Event) {
	if e.emitter == nil {
		return
	}
	e.emitter.Emit(ctx, event)
}
