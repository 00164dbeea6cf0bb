// Package chain предоставляет Chain Pattern для AI агента.
package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/ilkoid/serape-ai/pkg/llm"
	"github.com/ilkoid/serape-ai/pkg/utils"
)

// StepExecutor — интерфейс для исполнителей шагов в ReAct цикле.
//
// StepExecutor отделяет логику исполнения от данных (ReActExecution):
//   - новые стратегии исполнения добавляются без изменения ReActCycle
//   - исполнители тестируются в изоляции
//
// Реализации получают изолированные ReActExecution, поэтому
// конкурентные вызовы безопасны.
type StepExecutor interface {
	// Execute выполняет пайплайн шагов и возвращает результат.
	//
	// Принимает ReActExecution как контейнер runtime состояния,
	// но не создаёт его — этим занимается ReActCycle.Execute().
	Execute(ctx context.Context, exec *ReActExecution) (ChainOutput, error)
}

// ExecutionObserver — интерфейс для наблюдения за выполнением.
//
// Изолирует cross-cutting concerns от оркестрации: вместо прямых
// вызовов debug/emit исполнитель уведомляет наблюдателей о событиях
// жизненного цикла.
//
// Реализации:
//   - ChainDebugRecorder: пишет debug лог выполнения
//   - EmitterObserver: отправляет финальные события в UI
//
// Контракт жизненного цикла:
//  1. OnStart вызывается один раз в начале
//  2. OnIterationStart/OnIterationEnd — на каждую итерацию
//  3. OnFinish вызывается один раз в конце (успех или ошибка)
//
// Реализации должны быть thread-safe: наблюдатель может получать
// уведомления от конкурентных Execute() с изолированными execution.
type ExecutionObserver interface {
	OnStart(ctx context.Context, exec *ReActExecution)
	OnIterationStart(iteration int)
	OnIterationEnd(iteration int)
	OnFinish(result ChainOutput, err error)
}

// ReActExecutor — базовая реализация StepExecutor для классического
// ReAct цикла (LLM → Tools → Repeat).
//
// Итерация:
//   ├─ LLMInvocationStep (с tool choice политикой текущей итерации)
//   ├─ Отправка событий через iterationObserver (EventThinking, EventToolCall)
//   ├─ Проверка сигнала (SignalFinalAnswer → break)
//   ├─ Если tool calls:
//   │  ├─ ToolExecutionStep (через Dispatcher)
//   │  └─ Понижение required/tool политики до auto
//   └─ Иначе: break
type ReActExecutor struct {
	// observers — список наблюдателей за выполнением
	observers []ExecutionObserver

	// iterationObserver — наблюдатель для событий внутри итерации
	iterationObserver *EmitterIterationObserver
}

// NewReActExecutor создаёт новый ReActExecutor.
func NewReActExecutor() *ReActExecutor {
	return &ReActExecutor{
		observers: make([]ExecutionObserver, 0),
	}
}

// AddObserver добавляет наблюдателя за выполнением.
//
// Thread-safe: вызывается до Execute(), не требует синхронизации.
func (e *ReActExecutor) AddObserver(observer ExecutionObserver) {
	e.observers = append(e.observers, observer)
}

// SetIterationObserver устанавливает наблюдатель для событий внутри итерации.
//
// Thread-safe: вызывается до Execute(), не требует синхронизации.
func (e *ReActExecutor) SetIterationObserver(observer *EmitterIterationObserver) {
	e.iterationObserver = observer
}

// Execute выполняет ReAct цикл.
//
// Thread-safe: использует изолированный ReActExecution.
func (e *ReActExecutor) Execute(ctx context.Context, exec *ReActExecution) (ChainOutput, error) {
	e.initializeExecution(ctx, exec)

	// completed считает завершённые итерации: оба пути выхода (break и
	// исчерпание лимита) дают одинаковое значение.
	completed := 0
	for i := 0; i < exec.config.MaxIterations; i++ {
		completed = i + 1
		e.notifyIterationStart(i)

		// LLM step
		llmResult, lastMsg, err := e.executeLLMStep(ctx, exec)
		if err != nil {
			return e.notifyFinishWithError(exec, err)
		}

		// Финальный ответ — политика удовлетворена или auto/none
		if llmResult.Signal == SignalFinalAnswer {
			exec.finalSignal = SignalFinalAnswer
			e.notifyIterationEnd(i)
			break
		}

		if len(lastMsg.ToolCalls) == 0 {
			exec.finalSignal = SignalFinalAnswer
			e.notifyIterationEnd(i)
			break
		}

		// Tool execution
		if err := e.handleToolExecution(ctx, exec, i); err != nil {
			return e.notifyFinishWithError(exec, err)
		}

		// Политика required/tool выполнена этой итерацией — следующие
		// итерации работают в режиме auto, иначе цикл не завершится.
		exec.chainCtx.RelaxToolChoice()

		e.notifyIterationEnd(i)
	}

	if exec.finalSignal == SignalNone {
		exec.finalSignal = SignalMaxIterations
	}

	return e.finalizeExecution(ctx, exec, completed)
}

// initializeExecution инициализирует выполнение ReAct цикла.
//
// Уведомляет наблюдателей и добавляет user message в историю.
func (e *ReActExecutor) initializeExecution(ctx context.Context, exec *ReActExecution) {
	for _, obs := range e.observers {
		obs.OnStart(ctx, exec)
	}

	exec.chainCtx.AppendMessage(llm.UserMessage(exec.chainCtx.Input.UserQuery))
}

// executeLLMStep выполняет LLM шаг итерации.
//
// Возвращает (llmResult, lastMessage, error).
func (e *ReActExecutor) executeLLMStep(ctx context.Context, exec *ReActExecution) (StepResult, *llm.Message, error) {
	llmResult := exec.llmStep.Execute(ctx, exec.chainCtx)

	if llmResult.Action == ActionError || llmResult.Error != nil {
		err := llmResult.Error
		if err == nil {
			err = fmt.Errorf("LLM step failed")
		}
		return StepResult{}, nil, err
	}

	lastMsg := exec.chainCtx.GetLastMessage()

	// В streaming режиме контент уже ушёл чанками
	shouldSendThinking := !(exec.emitter != nil && exec.streamingEnabled)

	if shouldSendThinking && e.iterationObserver != nil {
		e.iterationObserver.EmitThinking(ctx, lastMsg.Content)
	}

	if e.iterationObserver != nil {
		for _, tc := range lastMsg.ToolCalls {
			e.iterationObserver.EmitToolCall(ctx, tc)
		}
	}

	return llmResult, lastMsg, nil
}

// handleToolExecution выполняет tool execution шаг.
func (e *ReActExecutor) handleToolExecution(ctx context.Context, exec *ReActExecution, iteration int) error {
	toolResult := exec.toolStep.Execute(ctx, exec.chainCtx)

	utils.Debug("Tool execution completed",
		"iteration", iteration+1,
		"action", toolResult.Action,
		"results", len(exec.toolStep.GetToolResults()))

	if toolResult.Action == ActionError || toolResult.Error != nil {
		err := toolResult.Error
		if err == nil {
			err = fmt.Errorf("tool execution failed")
		}
		return err
	}

	// Отправляем EventToolResult через iterationObserver
	if e.iterationObserver != nil {
		for _, tr := range exec.toolStep.GetToolResults() {
			e.iterationObserver.EmitToolResult(ctx, tr)
		}
	}

	return nil
}

// finalizeExecution финализирует выполнение и возвращает результат.
//
// Формирует ChainOutput и уведомляет наблюдателей.
func (e *ReActExecutor) finalizeExecution(ctx context.Context, exec *ReActExecution, iterations int) (ChainOutput, error) {
	lastMsg := exec.chainCtx.GetLastMessage()
	result := ""
	if lastMsg != nil {
		result = lastMsg.Content
	}

	utils.Debug("ReAct cycle completed",
		"iterations", iterations,
		"result_length", len(result),
		"duration_ms", time.Since(exec.startTime).Milliseconds())

	if e.iterationObserver != nil {
		e.iterationObserver.EmitMessage(ctx, result)
	}

	output := ChainOutput{
		Result:      result,
		Iterations:  iterations,
		Duration:    time.Since(exec.startTime),
		FinalState:  exec.chainCtx.GetMessages(),
		ToolResults: exec.chainCtx.GetToolResults(),
		Signal:      exec.finalSignal,
	}

	// Notify observers: OnFinish
	for _, obs := range e.observers {
		obs.OnFinish(output, nil)
	}

	// Fill DebugPath from ChainDebugRecorder
	for _, obs := range e.observers {
		if debugRec, ok := obs.(*ChainDebugRecorder); ok {
			output.DebugPath = debugRec.GetLogPath()
			break
		}
	}

	return output, nil
}

// Helper methods for observer notifications

func (e *ReActExecutor) notifyIterationStart(iteration int) {
	for _, obs := range e.observers {
		obs.OnIterationStart(iteration + 1)
	}
}

func (e *ReActExecutor) notifyIterationEnd(iteration int) {
	for _, obs := range e.observers {
		obs.OnIterationEnd(iteration + 1)
	}
}

// notifyFinishWithError завершает выполнение с ошибкой и уведомляет наблюдателей.
func (e *ReActExecutor) notifyFinishWithError(exec *ReActExecution, err error) (ChainOutput, error) {
	for _, obs := range e.observers {
		obs.OnFinish(ChainOutput{}, err)
	}

	return ChainOutput{}, err
}

// Ensure ReActExecutor implements StepExecutor
var _ StepExecutor = (*ReActExecutor)(nil)
