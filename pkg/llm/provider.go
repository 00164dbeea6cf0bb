// Интерфейс Провайдера через который работает всё приложение.

package llm

import "context"

// Provider — контракт для любого AI-сервиса.
//
// Rule 4: весь SDK работает только через этот интерфейс, конкретные
// реализации (OpenAI-совместимые API и т.д.) скрыты за ним.
type Provider interface {
	// Generate отправляет историю сообщений и возвращает ответ модели.
	//
	// opts — функциональные опции GenerateOption: модель, температура,
	// инструменты (WithTools) и политика tool choice (WithToolChoice).
	// Если модель решила вызвать инструменты, ответ несёт ToolCalls.
	Generate(ctx context.Context, messages []Message, opts ...GenerateOption) (Message, error)
}
