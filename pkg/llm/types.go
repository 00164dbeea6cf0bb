// Базовые типы - определяем универсальный язык общения с моделями
package llm

// Message — одно сообщение диалога.
//
// Унифицированный формат для всех провайдеров. Assistant-сообщение
// может нести ToolCalls; tool-сообщение несёт ToolCallID исходного
// вызова и результат в Content.
type Message struct {
	Role    string // "system", "user", "assistant", "tool"
	Content string // Текстовое содержимое (для tool — результат)

	// ToolCalls — вызовы инструментов, запрошенные моделью.
	// Заполнено только для Role == "assistant".
	ToolCalls []ToolCall

	// ToolCallID — идентификатор исходного tool call.
	// Заполнено только для Role == "tool".
	ToolCallID string
}

// ToolCall — намерение модели вызвать инструмент.
//
// Args — сырой JSON аргументов как его прислала модель.
// Валидация против схемы — ответственность диспетчера (pkg/tools).
type ToolCall struct {
	ID   string
	Name string
	Args string
}

// Константы ролей для удобства
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// SystemMessage создает системное сообщение.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage создает сообщение пользователя.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage создает сообщение ассистента.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// ToolMessage создает tool-сообщение с результатом вызова.
//
// Инвариант: toolCallID должен совпадать с ID исходного ToolCall —
// иначе провайдер отвергнет историю.
func ToolMessage(toolCallID, content string) Message {
	return Message{Role: RoleTool, ToolCallID: toolCallID, Content: content}
}

// HasToolCalls сообщает, содержит ли сообщение вызовы инструментов.
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}
