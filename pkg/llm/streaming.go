// Package llm предоставляет типы и интерфейсы для работы с LLM провайдерами.
//
// Этот файл определяет абстракции для потоковой передачи (streaming) ответов от LLM.
package llm

import "context"

// StreamingProvider — интерфейс для LLM провайдеров с поддержкой стриминга.
//
// Отдельный интерфейс от Provider для обратной совместимости.
// Провайдеры могут реализовать оба интерфейса или только Provider.
//
// # Rule 11: Context Propagation
//
// Все методы уважают context.Context и прерывают операцию при отмене.
type StreamingProvider interface {
	Provider

	// GenerateStream выполняет запрос к API с потоковой передачей ответа.
	//
	// Callback вызывается для каждой порции данных:
	//   - ChunkContent: текстовый контент ответа
	//   - ChunkToolCall: инкремент аргументов tool call (модель стримит
	//     аргументы функции кусками; финальные ToolCalls — в ответе)
	//   - ChunkError: ошибка стриминга
	//   - ChunkDone: завершение стриминга
	//
	// Возвращает финальное собранное сообщение (включая ToolCalls)
	// после завершения стриминга.
	//
	// # Thread Safety
	//
	// Callback может вызываться из разных goroutine, должен быть thread-safe.
	GenerateStream(
		ctx context.Context,
		messages []Message,
		callback func(StreamChunk),
		opts ...GenerateOption,
	) (Message, error)
}

// StreamChunk представляет одну порцию данных из потокового ответа.
//
// Содержит как инкрементальные изменения (Delta), так и накопленное
// состояние (Content) — UI может использовать любое из них.
type StreamChunk struct {
	// Type определяет тип чанка
	Type ChunkType

	// Content содержит накопленный текстовый контент на данный момент
	Content string

	// Delta — инкрементальные изменения (для UI обновлений в реальном времени)
	Delta string

	// ToolCallID и ToolName идентифицируют tool call, чьи аргументы
	// стримятся (только когда Type == ChunkToolCall)
	ToolCallID string
	ToolName   string

	// Done — флаг завершения стриминга
	Done bool

	// Error — ошибка если произошла (только когда Type == ChunkError)
	Error error
}

// ChunkType определяет тип стримингового чанка.
type ChunkType string

const (
	// ChunkContent — обычный контент ответа.
	// Накапливается по мере поступления от LLM.
	ChunkContent ChunkType = "content"

	// ChunkToolCall — инкремент аргументов вызова инструмента.
	// Для каждого tool call модель стримит имя один раз, затем
	// аргументы кусками.
	ChunkToolCall ChunkType = "tool_call"

	// ChunkError — ошибка стриминга.
	// Содержит ошибку в поле Error.
	ChunkError ChunkType = "error"

	// ChunkDone — завершение стриминга.
	// Отправляется когда все данные получены.
	ChunkDone ChunkType = "done"
)
