// Package chain предоставляет Chain Pattern для AI агента.
package chain

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ilkoid/serape-ai/pkg/llm"
	"github.com/ilkoid/serape-ai/pkg/tools"
)

// ChainContext содержит состояние выполнения цепочки.
//
// Thread-safe через sync.RWMutex (Rule 5).
// Все изменения состояния должны проходить через методы этого типа.
type ChainContext struct {
	mu sync.RWMutex

	// Входные данные (неизменяемые после создания)
	Input *ChainInput

	// Текущее состояние
	currentIteration int
	messages         []llm.Message

	// Политика выбора инструментов для текущей итерации.
	// required/tool после первой удовлетворённой итерации понижаются
	// до auto — иначе модель обязана звать инструменты вечно.
	currentChoice tools.Choice

	// Результаты выполненных tool calls (накапливаются за весь запуск)
	toolResults []tools.ToolResult

	// LLM параметры текущей итерации (определяются в runtime)
	actualModel       string
	actualTemperature float64
	actualMaxTokens   int
}

// NewChainContext создаёт новый контекст выполнения цепочки.
func NewChainContext(input ChainInput) *ChainContext {
	choice := input.ToolChoice
	if choice.IsZero() {
		choice = tools.Auto()
	}
	return &ChainContext{
		Input:         &input,
		messages:      make([]llm.Message, 0, 10),
		currentChoice: choice,
	}
}

// GetInput возвращает входные данные (thread-safe).
func (c *ChainContext) GetInput() *ChainInput {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Input
}

// GetCurrentIteration возвращает номер текущей итерации (thread-safe).
func (c *ChainContext) GetCurrentIteration() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentIteration
}

// IncrementIteration увеличивает счётчик итераций (thread-safe).
func (c *ChainContext) IncrementIteration() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentIteration++
	return c.currentIteration
}

// GetMessages возвращает копию сообщений (thread-safe).
func (c *ChainContext) GetMessages() []llm.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]llm.Message, len(c.messages))
	copy(result, c.messages)
	return result
}

// GetLastMessage возвращает последнее сообщение (thread-safe).
func (c *ChainContext) GetLastMessage() *llm.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.messages) == 0 {
		return nil
	}
	msg := c.messages[len(c.messages)-1]
	return &msg
}

// AppendMessage добавляет сообщение в историю (thread-safe).
func (c *ChainContext) AppendMessage(msg llm.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages = append(c.messages, msg)
}

// SetMessages заменяет список сообщений (thread-safe).
// Используется для восстановления состояния.
func (c *ChainContext) SetMessages(msgs []llm.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages = make([]llm.Message, len(msgs))
	copy(c.messages, msgs)
}

// GetToolChoice возвращает политику выбора инструментов текущей итерации.
func (c *ChainContext) GetToolChoice() tools.Choice {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentChoice
}

// RelaxToolChoice понижает политику до auto.
//
// Вызывается после итерации, удовлетворившей required/tool политику.
// Инвариант: при forced-tool политике модель обязана позвать инструмент
// РОВНО один раз, а не на каждой итерации.
func (c *ChainContext) RelaxToolChoice() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.currentChoice.Demands() {
		c.currentChoice = tools.Auto()
	}
}

// AppendToolResults накапливает результаты выполненных tool calls.
func (c *ChainContext) AppendToolResults(results []tools.ToolResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.toolResults = append(c.toolResults, results...)
}

// GetToolResults возвращает копию накопленных результатов (thread-safe).
func (c *ChainContext) GetToolResults() []tools.ToolResult {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]tools.ToolResult, len(c.toolResults))
	copy(result, c.toolResults)
	return result
}

// GetActualModel возвращает модель для текущей итерации (thread-safe).
func (c *ChainContext) GetActualModel() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.actualModel
}

// SetActualModel устанавливает модель для текущей итерации (thread-safe).
func (c *ChainContext) SetActualModel(model string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.actualModel = model
}

// GetActualTemperature возвращает температуру для текущей итерации (thread-safe).
func (c *ChainContext) GetActualTemperature() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.actualTemperature
}

// SetActualTemperature устанавливает температуру для текущей итерации (thread-safe).
func (c *ChainContext) SetActualTemperature(temp float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.actualTemperature = temp
}

// GetActualMaxTokens возвращает max_tokens для текущей итерации (thread-safe).
func (c *ChainContext) GetActualMaxTokens() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.actualMaxTokens
}

// SetActualMaxTokens устанавливает max_tokens для текущей итерации (thread-safe).
func (c *ChainContext) SetActualMaxTokens(tokens int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.actualMaxTokens = tokens
}

// BuildContextMessages формирует сообщения для LLM на основе текущего состояния (thread-safe).
func (c *ChainContext) BuildContextMessages(systemPrompt string) []llm.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()

	messages := make([]llm.Message, 0, len(c.messages)+1)

	if systemPrompt != "" {
		messages = append(messages, llm.Message{
			Role:    llm.RoleSystem,
			Content: systemPrompt,
		})
	}

	messages = append(messages, c.messages...)

	return messages
}

// String возвращает строковое представление контекста (для дебага).
func (c *ChainContext) String() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var sb strings.Builder
	sb.WriteString("ChainContext{")
	sb.WriteString(fmt.Sprintf("Iteration: %d, ", c.currentIteration))
	sb.WriteString(fmt.Sprintf("Messages: %d, ", len(c.messages)))
	sb.WriteString(fmt.Sprintf("Choice: %s, ", c.currentChoice))
	sb.WriteString(fmt.Sprintf("Model: %s", c.actualModel))
	sb.WriteString("}")

	return sb.String()
}
