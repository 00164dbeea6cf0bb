// Sentinel ошибки пакета tools.
//
// Сравнивать через errors.Is: диспетчер оборачивает их с контекстом
// (имя инструмента, причина) через fmt.Errorf("%w: ...").
package tools

import "errors"

var (
	// ErrToolNotFound — инструмент с таким именем не зарегистрирован.
	ErrToolNotFound = errors.New("tool not found")

	// ErrEmptyName — определение инструмента без имени.
	ErrEmptyName = errors.New("tool name cannot be empty")

	// ErrAlreadyRegistered — инструмент с таким именем уже есть в реестре.
	// Для обновления используется Registry.Replace.
	ErrAlreadyRegistered = errors.New("tool already registered")

	// ErrInvalidSchema — схема параметров отсутствует или не компилируется.
	ErrInvalidSchema = errors.New("invalid parameters schema")

	// ErrInvalidArguments — аргументы tool call не прошли валидацию схемы.
	ErrInvalidArguments = errors.New("invalid tool arguments")

	// ErrNoHandler — у инструмента нет обработчика (definition-only tool).
	ErrNoHandler = errors.New("tool has no execution handler")

	// ErrNoToolCall — политика required, но модель не вызвала ни одного
	// инструмента.
	ErrNoToolCall = errors.New("model produced no tool call")

	// ErrToolCallForbidden — политика none, но модель прислала tool call.
	ErrToolCallForbidden = errors.New("tool calls are disabled by tool choice")

	// ErrWrongTool — форсированный выбор инструмента, но модель вызвала
	// другой.
	ErrWrongTool = errors.New("tool call does not match forced tool choice")

	// ErrUnknownChoice — нераспознанное значение tool choice.
	ErrUnknownChoice = errors.New("unknown tool choice")
)
