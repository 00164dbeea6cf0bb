// Интерфейс Tool и структуры определений.

package tools

import (
	"context"
	"encoding/json"
)

// ToolDefinition описывает инструмент для LLM (Function Calling API format).
//
// Parameters — это JSON Schema объекта аргументов. Схема отправляется
// модели как часть определения функции и используется диспетчером для
// валидации аргументов перед выполнением.
type ToolDefinition struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Parameters  *Schema `json:"parameters"`
}

// Tool — контракт, который должен реализовать любой инструмент.
//
// Rule 1: "Raw In, String Out" — Execute получает сырой JSON аргументов
// от LLM и возвращает строку результата (обычно JSON).
type Tool interface {
	// Definition возвращает описание инструмента для LLM.
	Definition() ToolDefinition

	// Execute выполняет логику инструмента.
	// argsJSON — это сырой JSON с аргументами, который прислала LLM.
	// Аргументы уже провалидированы диспетчером против схемы.
	Execute(ctx context.Context, argsJSON string) (string, error)
}

// Handler — функциональная форма инструмента.
//
// Удобна для регистрации инструмента без отдельного типа:
//
//	tool := tools.NewFuncTool("weather", "Погода в городе", schema,
//	    func(ctx context.Context, args json.RawMessage) (string, error) { ... })
type Handler func(ctx context.Context, args json.RawMessage) (string, error)

// FuncTool оборачивает Handler в Tool.
//
// Инструмент без Handler (handler == nil) является definition-only:
// он отправляется модели, но его вызовы возвращаются вызывающему
// без выполнения (OK=false, ErrNoHandler).
type FuncTool struct {
	def     ToolDefinition
	handler Handler
}

// NewFuncTool создает инструмент из определения и функции-обработчика.
//
// handler может быть nil — тогда инструмент definition-only.
func NewFuncTool(name, description string, params *Schema, handler Handler) *FuncTool {
	return &FuncTool{
		def: ToolDefinition{
			Name:        name,
			Description: description,
			Parameters:  params,
		},
		handler: handler,
	}
}

// Definition возвращает определение инструмента.
func (t *FuncTool) Definition() ToolDefinition {
	return t.def
}

// Execute вызывает обработчик.
//
// Rule 7: возвращает ошибку вместо panic; nil handler — это ErrNoHandler.
func (t *FuncTool) Execute(ctx context.Context, argsJSON string) (string, error) {
	if t.handler == nil {
		return "", ErrNoHandler
	}
	return t.handler(ctx, json.RawMessage(argsJSON))
}

// HasHandler сообщает, есть ли у инструмента обработчик.
func (t *FuncTool) HasHandler() bool {
	return t.handler != nil
}

// ToolCall — запрос модели на вызов конкретного инструмента.
//
// ID приходит от LLM (tool_call_id); если backend его не прислал,
// диспетчер генерирует uuid, чтобы пара call/result всегда сходилась.
type ToolCall struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Args string `json:"args"` // Сырой JSON аргументов
}

// ToolResult — результат выполнения одного tool call.
//
// Инвариант: ToolCallID и ToolName всегда совпадают с исходным ToolCall.
// OK=false означает что аргументы не прошли валидацию, инструмент
// вернул ошибку или истёк timeout — текст в Result отдаётся модели
// для самокоррекции.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	ToolName   string `json:"tool_name"`
	Args       string `json:"args"`
	Result     string `json:"result"`
	OK         bool   `json:"ok"`
	Duration   int64  `json:"duration_ms"`
	Err        error  `json:"-"`
}
