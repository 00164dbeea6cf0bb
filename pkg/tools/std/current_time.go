package std

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ilkoid/serape-ai/pkg/tools"
)

// --- Tool: current_time ---
// Отдает модели текущее время. LLM не знает "сейчас" — этот инструмент
// закрывает вопросы вида "сколько времени в Токио".

type CurrentTimeTool struct {
	// now подменяется в тестах
	now func() time.Time
}

func NewCurrentTimeTool() *CurrentTimeTool {
	return &CurrentTimeTool{now: time.Now}
}

func (t *CurrentTimeTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:        "current_time",
		Description: "Возвращает текущие дату и время. Опционально принимает IANA timezone (например 'Asia/Tokyo'); без него возвращает UTC.",
		Parameters: tools.Object(map[string]*tools.Schema{
			"timezone": tools.String("IANA имя зоны, например 'Europe/Moscow'. По умолчанию UTC."),
		}),
	}
}

func (t *CurrentTimeTool) Execute(_ context.Context, argsJSON string) (string, error) {
	var args struct {
		Timezone string `json:"timezone"`
	}
	// Аргументы опциональны — кривой JSON трактуем как UTC
	if argsJSON != "" {
		_ = json.Unmarshal([]byte(argsJSON), &args)
	}

	loc := time.UTC
	if args.Timezone != "" {
		var err error
		loc, err = time.LoadLocation(args.Timezone)
		if err != nil {
			return "", fmt.Errorf("unknown timezone %q: %w", args.Timezone, err)
		}
	}

	now := t.now().In(loc)
	result := map[string]string{
		"time":     now.Format(time.RFC3339),
		"timezone": loc.String(),
		"weekday":  now.Weekday().String(),
	}

	data, err := json.Marshal(result)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

var _ tools.Tool = (*CurrentTimeTool)(nil)
