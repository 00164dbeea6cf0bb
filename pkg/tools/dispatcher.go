// Диспетчер tool calls: валидация аргументов и выполнение с timeout.
package tools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ilkoid/serape-ai/pkg/utils"
)

// DefaultToolTimeout — защитный timeout выполнения инструмента.
//
// Если tool не завершится за это время, он будет отменён.
const DefaultToolTimeout = 30 * time.Second

// Recorder получает результат каждого выполненного tool call.
//
// Реализуется debug рекордером и audit журналом. Разделён в интерфейс
// для возможности мокинга в тестах (Rule 9).
type Recorder interface {
	RecordDispatch(call ToolCall, result ToolResult)
}

// Dispatcher выполняет tool calls через Registry.
//
// Pipeline одного вызова:
//  1. Санитизация JSON аргументов (LLM любит markdown-обёртки)
//  2. Поиск инструмента в реестре
//  3. Валидация аргументов против схемы инструмента
//  4. Выполнение с timeout в отдельной goroutine
//
// Ошибки валидации и выполнения НЕ являются ошибками диспетчера:
// они возвращаются в ToolResult с OK=false и человекочитаемым текстом
// в Result — цикл агента отдаёт этот текст модели для самокоррекции.
// Ошибку Dispatch возвращает только при отмене контекста вызывающего.
//
// Rule 5: Thread-safe после конфигурации — Dispatch можно вызывать
// из нескольких goroutine, SetToolTimeout только до начала работы.
type Dispatcher struct {
	registry *Registry

	defaultTimeout time.Duration
	toolTimeouts   map[string]time.Duration

	recorders []Recorder
}

// NewDispatcher создает диспетчер над реестром.
func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{
		registry:       registry,
		defaultTimeout: DefaultToolTimeout,
	}
}

// SetDefaultTimeout устанавливает защитный timeout для всех инструментов.
//
// Вызывать до начала Dispatch.
func (d *Dispatcher) SetDefaultTimeout(timeout time.Duration) {
	if timeout > 0 {
		d.defaultTimeout = timeout
	}
}

// SetToolTimeout устанавливает индивидуальный timeout для инструмента.
//
// Переопределяет default для указанного имени. Полезно для медленных
// API (batch операции) и интерактивных инструментов.
// Вызывать до начала Dispatch.
func (d *Dispatcher) SetToolTimeout(toolName string, timeout time.Duration) {
	if d.toolTimeouts == nil {
		d.toolTimeouts = make(map[string]time.Duration)
	}
	d.toolTimeouts[toolName] = timeout
}

// AddRecorder подключает получателя результатов (debug, audit).
//
// Вызывать до начала Dispatch.
func (d *Dispatcher) AddRecorder(rec Recorder) {
	if rec != nil {
		d.recorders = append(d.recorders, rec)
	}
}

// Dispatch выполняет один tool call.
//
// Инвариант: возвращённый ToolResult всегда несёт ToolCallID и ToolName
// исходного вызова. Пустой ID заменяется на сгенерированный uuid —
// некоторые OpenAI-совместимые backend'ы не присылают tool_call_id.
func (d *Dispatcher) Dispatch(ctx context.Context, call ToolCall) (ToolResult, error) {
	if call.ID == "" {
		call.ID = uuid.NewString()
	}

	start := time.Now()
	result := ToolResult{
		ToolCallID: call.ID,
		ToolName:   call.Name,
		Args:       call.Args,
	}

	// Отмена контекста вызывающего — инфраструктурная ошибка, не tool error.
	if err := ctx.Err(); err != nil {
		result.Err = err
		result.Result = "Tool execution was cancelled"
		return result, err
	}

	// 1. Санитизируем JSON аргументы
	cleanArgs := utils.CleanJsonBlock(call.Args)
	result.Args = cleanArgs

	// 2. Получаем tool из registry (Rule 3)
	e, err := d.registry.lookup(call.Name)
	if err != nil {
		result.Err = err
		result.Result = fmt.Sprintf("Error: tool not found: %s", call.Name)
		result.Duration = time.Since(start).Milliseconds()
		d.record(call, result)
		return result, nil
	}

	// 3. Валидируем аргументы против схемы ДО выполнения
	if err := validateArgs(e.resolved, cleanArgs); err != nil {
		result.Err = err
		result.Result = fmt.Sprintf(
			"Error: arguments for tool %q do not match its schema: %v. "+
				"Fix the arguments and call the tool again.",
			call.Name, errors.Unwrap(err),
		)
		result.Duration = time.Since(start).Milliseconds()

		utils.Warn("Tool arguments rejected",
			"tool", call.Name,
			"call_id", call.ID,
			"error", err)

		d.record(call, result)
		return result, nil
	}

	// 4. Выполняем с timeout
	output, execErr := d.execute(ctx, e.tool, call, cleanArgs)
	result.Duration = time.Since(start).Milliseconds()

	if execErr != nil {
		result.Err = execErr
		result.Result = fmt.Sprintf("Error: %v", execErr)
	} else {
		result.OK = true
		result.Result = output
	}

	d.record(call, result)

	// Отмена родительского контекста пробрасывается как ошибка диспетчера.
	if execErr != nil && errors.Is(execErr, context.Canceled) && ctx.Err() != nil {
		return result, execErr
	}
	return result, nil
}

// DispatchAll выполняет все tool calls последовательно.
//
// Порядок результатов совпадает с порядком вызовов. Ошибки отдельных
// инструментов не останавливают обработку остальных — каждый результат
// несёт свой OK/Err. Останавливается только на отмене контекста.
func (d *Dispatcher) DispatchAll(ctx context.Context, calls []ToolCall) ([]ToolResult, error) {
	results := make([]ToolResult, 0, len(calls))
	for _, call := range calls {
		res, err := d.Dispatch(ctx, call)
		results = append(results, res)
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// execute выполняет инструмент в отдельной goroutine с timeout.
//
// Timeout Protection: при зависании инструмента select срабатывает по
// toolCtx.Done() и агент не блокируется.
func (d *Dispatcher) execute(ctx context.Context, tool Tool, call ToolCall, args string) (string, error) {
	timeout := d.defaultTimeout
	if custom, exists := d.toolTimeouts[call.Name]; exists {
		timeout = custom
	}

	toolCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type execResult struct {
		output string
		err    error
	}
	resultChan := make(chan execResult, 1)

	go func() {
		output, err := tool.Execute(toolCtx, args)
		resultChan <- execResult{output, err}
	}()

	select {
	case <-toolCtx.Done():
		if errors.Is(toolCtx.Err(), context.DeadlineExceeded) {
			utils.Warn("Tool execution timeout",
				"tool", call.Name,
				"call_id", call.ID,
				"timeout", timeout)
			return "", fmt.Errorf(
				"tool %q exceeded timeout of %v: either the tool is stuck or the API response is slow",
				call.Name, timeout)
		}
		return "", fmt.Errorf("tool execution cancelled: %w", toolCtx.Err())

	case res := <-resultChan:
		return res.output, res.err
	}
}

// record отправляет результат всем подключённым рекордерам.
func (d *Dispatcher) record(call ToolCall, result ToolResult) {
	for _, rec := range d.recorders {
		rec.RecordDispatch(call, result)
	}
}
