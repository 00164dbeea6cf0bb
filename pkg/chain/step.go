// Package chain предоставляет Chain Pattern для AI агента.
package chain

import (
	"context"
	"fmt"
)

// NextAction определяет поведение Chain после выполнения Step.
type NextAction int

const (
	// ActionContinue — продолжить выполнение следующего Step (или следующей итерации).
	ActionContinue NextAction = iota

	// ActionBreak — прервать выполнение Chain и вернуть результат.
	// Используется для завершения ReAct цикла.
	ActionBreak

	// ActionError — прервать выполнение с ошибкой.
	ActionError
)

// String возвращает строковое представление NextAction (для дебага).
func (a NextAction) String() string {
	switch a {
	case ActionContinue:
		return "Continue"
	case ActionBreak:
		return "Break"
	case ActionError:
		return "Error"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// ExecutionSignal — типизированный сигнал завершения шага или цепочки.
type ExecutionSignal int

const (
	// SignalNone — нормальное продолжение, особых условий нет.
	SignalNone ExecutionSignal = iota

	// SignalFinalAnswer — модель дала финальный ответ, цикл завершается.
	SignalFinalAnswer

	// SignalMaxIterations — достигнут лимит итераций без финального ответа.
	SignalMaxIterations

	// SignalError — ошибка выполнения.
	SignalError
)

// String возвращает строковое представление ExecutionSignal (для дебага).
func (s ExecutionSignal) String() string {
	switch s {
	case SignalNone:
		return "None"
	case SignalFinalAnswer:
		return "FinalAnswer"
	case SignalMaxIterations:
		return "MaxIterations"
	case SignalError:
		return "Error"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// StepResult — результат выполнения Step.
type StepResult struct {
	// Action — что делать дальше (continue/break/error)
	Action NextAction

	// Signal — типизированный сигнал для цикла
	Signal ExecutionSignal

	// Error — ошибка выполнения (для ActionError)
	Error error
}

// WithError возвращает StepResult с ошибкой.
//
// Rule 7: ошибки возвращаются, нет panic.
func (r StepResult) WithError(err error) StepResult {
	r.Action = ActionError
	r.Signal = SignalError
	r.Error = err
	return r
}

// Step представляет атомарный шаг выполнения Chain.
//
// Step является изолированным, тестируемым и переиспользуемым компонентом.
// Каждый Step работает с ChainContext через thread-safe методы.
//
// Примеры Step:
//   - LLMInvocationStep — вызывает LLM
//   - ToolExecutionStep — выполняет tool calls через Dispatcher
type Step interface {
	// Name возвращает уникальное имя Step (для логирования).
	Name() string

	// Execute выполняет Step и возвращает StepResult.
	//
	// Step НЕ должен модифицировать ChainInput напрямую.
	// Все изменения состояния должны проходить через ChainContext методы.
	Execute(ctx context.Context, chainCtx *ChainContext) StepResult
}

// StepFunc — функциональная обёртка для простых Step.
//
// Позволяет создавать Step на лету без структур.
type StepFunc struct {
	name string
	fn   func(context.Context, *ChainContext) StepResult
}

// Name возвращает имя StepFunc.
func (s StepFunc) Name() string {
	return s.name
}

// Execute выполняет функцию StepFunc.
func (s StepFunc) Execute(ctx context.Context, chainCtx *ChainContext) StepResult {
	return s.fn(ctx, chainCtx)
}

// NewStepFunc создаёт новый StepFunc из функции.
func NewStepFunc(name string, fn func(context.Context, *ChainContext) StepResult) Step {
	return StepFunc{
		name: name,
		fn:   fn,
	}
}
