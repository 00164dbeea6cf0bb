// JSON Schema для параметров инструментов.
//
// Пакет не реализует собственную валидацию: схемы описываются и
// проверяются через github.com/google/jsonschema-go (draft 2020-12).
// Для генерации схемы из Go структуры используется invopop/jsonschema.
package tools

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	invopop "github.com/invopop/jsonschema"
)

// Schema — JSON Schema аргументов инструмента.
//
// Алиас на jsonschema.Schema: одна и та же схема отправляется модели
// (как часть определения функции) и используется для валидации её
// аргументов. Single Source of Truth.
type Schema = jsonschema.Schema

// Object создает схему объекта с указанными свойствами.
//
// Типичная схема параметров инструмента:
//
//	tools.Object(map[string]*tools.Schema{
//	    "location": tools.String("Город, например 'San Francisco'"),
//	}, "location")
func Object(properties map[string]*Schema, required ...string) *Schema {
	return &Schema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}

// String создает схему строкового свойства.
func String(description string) *Schema {
	return &Schema{Type: "string", Description: description}
}

// Number создает схему числового свойства.
func Number(description string) *Schema {
	return &Schema{Type: "number", Description: description}
}

// Integer создает схему целочисленного свойства.
func Integer(description string) *Schema {
	return &Schema{Type: "integer", Description: description}
}

// Boolean создает схему булевого свойства.
func Boolean(description string) *Schema {
	return &Schema{Type: "boolean", Description: description}
}

// ArrayOf создает схему массива с элементами указанной схемы.
func ArrayOf(items *Schema, description string) *Schema {
	return &Schema{Type: "array", Items: items, Description: description}
}

// StringEnum создает схему строки с фиксированным набором значений.
func StringEnum(description string, values ...string) *Schema {
	enum := make([]any, len(values))
	for i, v := range values {
		enum[i] = v
	}
	return &Schema{Type: "string", Description: description, Enum: enum}
}

// ReflectStruct выводит схему параметров из Go структуры.
//
// Использует invopop/jsonschema для рефлексии (теги json, jsonschema),
// затем перечитывает результат в наш тип Schema.
//
// Пример:
//
//	type WeatherArgs struct {
//	    Location string `json:"location" jsonschema:"description=Город"`
//	}
//	schema, err := tools.ReflectStruct(WeatherArgs{})
func ReflectStruct(v any) (*Schema, error) {
	reflector := invopop.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}

	raw, err := json.Marshal(reflector.Reflect(v))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal reflected schema: %w", err)
	}

	var schema Schema
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, fmt.Errorf("failed to decode reflected schema: %w", err)
	}
	return &schema, nil
}

// compileSchema проверяет и компилирует схему параметров инструмента.
//
// Валидирует:
//   - Parameters не nil
//   - Корневой тип — "object" (требование Function Calling API)
//   - Схема резолвится (корректные $ref, ключевые слова и т.д.)
//
// Возвращает скомпилированную схему, готовую к валидации аргументов.
func compileSchema(def ToolDefinition) (*jsonschema.Resolved, error) {
	if def.Parameters == nil {
		return nil, fmt.Errorf("%w: tool %q: parameters cannot be nil", ErrInvalidSchema, def.Name)
	}

	if def.Parameters.Type != "object" {
		return nil, fmt.Errorf("%w: tool %q: parameters.type must be 'object', got %q",
			ErrInvalidSchema, def.Name, def.Parameters.Type)
	}

	resolved, err := def.Parameters.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: tool %q: %v", ErrInvalidSchema, def.Name, err)
	}
	return resolved, nil
}

// validateArgs проверяет сырой JSON аргументов против скомпилированной схемы.
//
// Возвращает ErrInvalidArguments (wrapped) если JSON не парсится или
// не соответствует схеме. Текст ошибки человекочитаемый — он уходит
// модели для самокоррекции.
func validateArgs(resolved *jsonschema.Resolved, argsJSON string) error {
	// Пустые аргументы трактуем как пустой объект — LLM часто присылает
	// "" для инструментов без параметров.
	if argsJSON == "" {
		argsJSON = "{}"
	}

	var value any
	if err := json.Unmarshal([]byte(argsJSON), &value); err != nil {
		return fmt.Errorf("%w: arguments are not valid JSON: %v", ErrInvalidArguments, err)
	}

	if err := resolved.Validate(value); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	return nil
}
