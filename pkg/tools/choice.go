// Tool choice — политика использования инструментов моделью.
package tools

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ChoiceMode — режим политики tool choice.
type ChoiceMode string

const (
	// ChoiceAuto — модель сама решает, вызывать ли инструменты. Дефолт.
	ChoiceAuto ChoiceMode = "auto"

	// ChoiceRequired — модель обязана вызвать хотя бы один инструмент
	// (любой зарегистрированный).
	ChoiceRequired ChoiceMode = "required"

	// ChoiceNone — модель не должна вызывать инструменты.
	ChoiceNone ChoiceMode = "none"

	// ChoiceTool — модель обязана вызвать конкретный инструмент
	// (имя в Choice.ToolName).
	ChoiceTool ChoiceMode = "tool"
)

// Choice — настройка tool choice для одного запроса к модели.
//
// Нулевое значение эквивалентно Auto().
//
// JSON форма (конфиг и API поверхность SDK):
//   - строки "auto" | "required" | "none"
//   - объект {"type": "tool", "toolName": "weather"} для форсированного
//     выбора конкретного инструмента
//
// Маппинг на провайдерский wire-формат (OpenAI: строка либо
// {"type":"function","function":{"name":...}}) делает адаптер провайдера.
type Choice struct {
	Mode     ChoiceMode `json:"type"`
	ToolName string     `json:"toolName,omitempty"`
}

// Auto возвращает дефолтную политику: модель решает сама.
func Auto() Choice { return Choice{Mode: ChoiceAuto} }

// Required возвращает политику: модель обязана вызвать какой-то инструмент.
func Required() Choice { return Choice{Mode: ChoiceRequired} }

// None возвращает политику: вызовы инструментов запрещены.
func None() Choice { return Choice{Mode: ChoiceNone} }

// ForceTool возвращает политику: модель обязана вызвать инструмент name.
func ForceTool(name string) Choice {
	return Choice{Mode: ChoiceTool, ToolName: name}
}

// IsZero сообщает, что политика не задана (трактуется как auto).
func (c Choice) IsZero() bool {
	return c.Mode == "" && c.ToolName == ""
}

// Normalize приводит незаданную политику к auto.
func (c Choice) Normalize() Choice {
	if c.IsZero() {
		return Auto()
	}
	return c
}

// Validate проверяет корректность политики против реестра.
//
// Форсированный выбор должен ссылаться на зарегистрированный инструмент.
// registry может быть nil — тогда проверяется только сама политика.
func (c Choice) Validate(registry *Registry) error {
	c = c.Normalize()

	switch c.Mode {
	case ChoiceAuto, ChoiceRequired, ChoiceNone:
		if c.ToolName != "" {
			return fmt.Errorf("%w: mode %q does not take a tool name", ErrUnknownChoice, c.Mode)
		}
		return nil
	case ChoiceTool:
		if c.ToolName == "" {
			return fmt.Errorf("%w: forced choice requires a tool name", ErrUnknownChoice)
		}
		if registry != nil && !registry.Has(c.ToolName) {
			return fmt.Errorf("%w: %s (forced by tool choice)", ErrToolNotFound, c.ToolName)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownChoice, c.Mode)
	}
}

// Allows проверяет, разрешает ли политика вызов инструмента name.
func (c Choice) Allows(name string) bool {
	switch c.Normalize().Mode {
	case ChoiceNone:
		return false
	case ChoiceTool:
		return name == c.ToolName
	default:
		return true
	}
}

// Demands сообщает, требует ли политика хотя бы одного tool call.
func (c Choice) Demands() bool {
	mode := c.Normalize().Mode
	return mode == ChoiceRequired || mode == ChoiceTool
}

// String возвращает каноничное строковое представление политики.
func (c Choice) String() string {
	c = c.Normalize()
	if c.Mode == ChoiceTool {
		return fmt.Sprintf("tool:%s", c.ToolName)
	}
	return string(c.Mode)
}

// ParseChoice разбирает строковую форму политики.
//
// Принимает "auto", "required", "none" или "tool:<name>" — формат
// конфигурационных файлов и CLI флагов. Пустая строка — auto.
func ParseChoice(s string) (Choice, error) {
	switch ChoiceMode(s) {
	case "":
		return Auto(), nil
	case ChoiceAuto, ChoiceRequired, ChoiceNone:
		return Choice{Mode: ChoiceMode(s)}, nil
	}
	if name, ok := strings.CutPrefix(s, "tool:"); ok && name != "" {
		return ForceTool(name), nil
	}
	return Choice{}, fmt.Errorf("%w: %q", ErrUnknownChoice, s)
}

// MarshalJSON сериализует политику в JSON форму SDK.
func (c Choice) MarshalJSON() ([]byte, error) {
	c = c.Normalize()
	if c.Mode == ChoiceTool {
		return json.Marshal(struct {
			Type     string `json:"type"`
			ToolName string `json:"toolName"`
		}{Type: string(ChoiceTool), ToolName: c.ToolName})
	}
	return json.Marshal(string(c.Mode))
}

// UnmarshalJSON принимает обе формы: строку и объект.
func (c *Choice) UnmarshalJSON(data []byte) error {
	var mode string
	if err := json.Unmarshal(data, &mode); err == nil {
		switch ChoiceMode(mode) {
		case ChoiceAuto, ChoiceRequired, ChoiceNone:
			*c = Choice{Mode: ChoiceMode(mode)}
			return nil
		case "":
			*c = Auto()
			return nil
		default:
			return fmt.Errorf("%w: %q", ErrUnknownChoice, mode)
		}
	}

	var obj struct {
		Type     string `json:"type"`
		ToolName string `json:"toolName"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("%w: %s", ErrUnknownChoice, string(data))
	}
	if ChoiceMode(obj.Type) != ChoiceTool || obj.ToolName == "" {
		return fmt.Errorf("%w: %s", ErrUnknownChoice, string(data))
	}
	*c = ForceTool(obj.ToolName)
	return nil
}
