// Package chain предоставляет Chain Pattern для AI агента.
package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/ilkoid/serape-ai/pkg/llm"
	"github.com/ilkoid/serape-ai/pkg/tools"
	"github.com/ilkoid/serape-ai/pkg/utils"
)

// ToolExecutionStep — Step для выполнения инструментов.
//
// Используется в ReAct цикле после LLM вызова с tool calls.
// Выполнение делегируется tools.Dispatcher: валидация аргументов,
// timeout, запись в рекордеры — всё происходит там. Шаг отвечает
// только за перенос результатов в историю сообщений.
//
// Rule 1: Работает с Tool interface ("Raw In, String Out").
// Rule 3: Tools вызываются через Dispatcher над Registry.
// Rule 5: Thread-safe через ChainContext.
// Rule 7: Возвращает ошибку вместо panic.
type ToolExecutionStep struct {
	// dispatcher — диспетчер tool calls (Rule 3)
	dispatcher *tools.Dispatcher

	// startTime — время начала выполнения step
	startTime time.Time

	// lastResults — результаты последнего выполнения (для событий)
	lastResults []tools.ToolResult
}

// Name возвращает имя Step (для логирования).
func (s *ToolExecutionStep) Name() string {
	return "tool_execution"
}

// Execute выполняет все tool calls из последнего LLM ответа.
//
// Каждый результат добавляется в историю как tool message с
// ToolCallID исходного вызова — инвариант пары call/result.
// Неудачные вызовы (невалидные аргументы, ошибка инструмента,
// timeout) НЕ прерывают цикл: их текст уходит модели для
// самокоррекции. Прерывает только отмена контекста.
func (s *ToolExecutionStep) Execute(ctx context.Context, chainCtx *ChainContext) StepResult {
	s.startTime = time.Now()
	s.lastResults = nil

	// 1. Получаем последнее сообщение (должен быть assistant с tool calls)
	lastMsg := chainCtx.GetLastMessage()
	if lastMsg == nil || lastMsg.Role != llm.RoleAssistant {
		return StepResult{}.WithError(fmt.Errorf("no assistant message found"))
	}

	if len(lastMsg.ToolCalls) == 0 {
		// Нет tool calls - это нормально для финальной итерации
		return StepResult{
			Action: ActionContinue,
			Signal: SignalNone,
		}
	}

	// 2. Конвертируем в вызовы диспетчера
	calls := make([]tools.ToolCall, len(lastMsg.ToolCalls))
	for i, tc := range lastMsg.ToolCalls {
		calls[i] = tools.ToolCall{
			ID:   tc.ID,
			Name: tc.Name,
			Args: tc.Args,
		}
	}

	// 3. Выполняем через диспетчер
	results, err := s.dispatcher.DispatchAll(ctx, calls)

	// 4. Переносим полученные результаты в историю даже при отмене —
	// частично выполненная итерация должна остаться консистентной
	for _, result := range results {
		chainCtx.AppendMessage(llm.ToolMessage(result.ToolCallID, result.Result))
	}
	s.lastResults = results
	chainCtx.AppendToolResults(results)

	if err != nil {
		utils.Warn("Tool dispatch interrupted", "error", err)
		return StepResult{}.WithError(fmt.Errorf("tool execution cancelled: %w", err))
	}

	return StepResult{
		Action: ActionContinue,
		Signal: SignalNone,
	}
}

// GetToolResults возвращает результаты последнего выполнения.
func (s *ToolExecutionStep) GetToolResults() []tools.ToolResult {
	return s.lastResults
}

// GetDuration возвращает длительность выполнения step.
func (s *ToolExecutionStep) GetDuration() time.Duration {
	return time.Since(s.startTime)
}
