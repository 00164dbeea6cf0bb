package std

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/ilkoid/serape-ai/pkg/tools"
)

// --- Tool: get_weather ---
// Демонстрационный инструмент погоды. Без внешнего API: температура
// вычисляется детерминированно из названия города, чтобы агент-циклы
// и тесты были воспроизводимыми. Реальный источник подставляется
// через ForecastFunc.

// Forecast — прогноз для одного города.
type Forecast struct {
	Location    string  `json:"location"`
	Temperature float64 `json:"temperature"`
	Conditions  string  `json:"conditions,omitempty"`
}

// ForecastFunc — источник прогноза. Позволяет подменить демо-генератор
// реальным API без изменения инструмента.
type ForecastFunc func(ctx context.Context, location string) (Forecast, error)

type WeatherTool struct {
	forecast ForecastFunc
}

// NewWeatherTool создает инструмент погоды с демо-генератором.
func NewWeatherTool() *WeatherTool {
	return &WeatherTool{forecast: demoForecast}
}

// NewWeatherToolWithSource создает инструмент с внешним источником прогноза.
func NewWeatherToolWithSource(fn ForecastFunc) *WeatherTool {
	return &WeatherTool{forecast: fn}
}

func (t *WeatherTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:        "get_weather",
		Description: "Возвращает текущую погоду для указанного города: температуру в градусах Цельсия и условия.",
		Parameters: tools.Object(map[string]*tools.Schema{
			"location": tools.String("Город, например 'San Francisco'."),
		}, "location"),
	}
}

func (t *WeatherTool) Execute(ctx context.Context, argsJSON string) (string, error) {
	var args struct {
		Location string `json:"location"`
	}
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if strings.TrimSpace(args.Location) == "" {
		return "", fmt.Errorf("location cannot be empty")
	}

	forecast, err := t.forecast(ctx, args.Location)
	if err != nil {
		return "", fmt.Errorf("weather lookup failed: %w", err)
	}

	data, err := json.Marshal(forecast)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// demoForecast — детерминированный прогноз из хеша названия города.
// Диапазон -10..+30 °C, условия по остатку.
func demoForecast(_ context.Context, location string) (Forecast, error) {
	h := fnv.New32a()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(location))))
	sum := h.Sum32()

	conditions := []string{"sunny", "cloudy", "rainy", "windy", "foggy"}
	return Forecast{
		Location:    location,
		Temperature: float64(int(sum%41)) - 10,
		Conditions:  conditions[sum%uint32(len(conditions))],
	}, nil
}

var _ tools.Tool = (*WeatherTool)(nil)
