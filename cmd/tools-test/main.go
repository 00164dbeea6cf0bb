// Tools Test Utility - CLI утилита для проверки registry, dispatcher
// и политики tool choice без LLM.
//
// Последовательно вызывает стандартные инструменты через Dispatcher
// и прогоняет все четыре режима tool choice против registry.
//
// Использование:
//
//	go run cmd/tools-test/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ilkoid/serape-ai/pkg/tools"
	"github.com/ilkoid/serape-ai/pkg/tools/std"
	"github.com/ilkoid/serape-ai/pkg/utils"
)

// TestResult - результат выполнения инструмента
type TestResult struct {
	ToolName string `json:"tool_name"`
	Args     string `json:"args"`
	Result   string `json:"result"`
	OK       bool   `json:"ok"`
	Duration int64  `json:"duration_ms"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := utils.InitLogger(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to init logger: %v\n", err)
	}
	defer utils.Close()

	utils.Info("Tools Test Utility started")

	// 1. Собираем registry со стандартными инструментами
	registry := tools.NewRegistry()
	for _, tool := range []tools.Tool{
		std.NewWeatherTool(),
		std.NewCurrentTimeTool(),
	} {
		if err := registry.Register(tool); err != nil {
			return fmt.Errorf("failed to register tool: %w", err)
		}
	}

	fmt.Println("🔧 Registered tools:")
	for _, name := range registry.Names() {
		fmt.Printf("  • %s\n", name)
	}
	fmt.Println()

	// 2. Прогоняем вызовы через Dispatcher
	dispatcher := tools.NewDispatcher(registry)
	dispatcher.SetDefaultTimeout(10 * time.Second)

	calls := []tools.ToolCall{
		{ID: "call_1", Name: "get_weather", Args: `{"location":"Moscow"}`},
		{ID: "call_2", Name: "current_time", Args: `{"timezone":"Europe/Moscow"}`},
		// Невалидные аргументы: dispatcher должен вернуть OK=false, а не ошибку
		{ID: "call_3", Name: "get_weather", Args: `{"city":"Moscow"}`},
		// Неизвестный инструмент: тоже OK=false
		{ID: "call_4", Name: "launch_rocket", Args: `{}`},
	}

	ctx := context.Background()
	success, failed := 0, 0

	fmt.Println("🚀 Dispatching calls:")
	for _, call := range calls {
		result, err := dispatcher.Dispatch(ctx, call)
		if err != nil {
			return fmt.Errorf("dispatch aborted: %w", err)
		}

		if result.OK {
			success++
		} else {
			failed++
		}

		out, _ := json.MarshalIndent(TestResult{
			ToolName: result.ToolName,
			Args:     result.Args,
			Result:   result.Result,
			OK:       result.OK,
			Duration: result.Duration,
		}, "", "  ")
		fmt.Println(string(out))
	}

	fmt.Printf("\n📊 Dispatch summary: %d ok, %d failed (fed back to model)\n\n", success, failed)

	// 3. Проверяем все четыре режима tool choice
	fmt.Println("🎯 Tool choice policy:")
	choices := []tools.Choice{
		tools.Auto(),
		tools.Required(),
		tools.None(),
		tools.ForceTool("get_weather"),
	}
	for _, choice := range choices {
		if err := choice.Validate(registry); err != nil {
			return fmt.Errorf("choice %s rejected: %w", choice, err)
		}
		fmt.Printf("  • %-20s allows get_weather=%v, demands call=%v\n",
			choice, choice.Allows("get_weather"), choice.Demands())
	}

	// Forced режим с несуществующим инструментом обязан отклоняться
	if err := tools.ForceTool("launch_rocket").Validate(registry); err == nil {
		return fmt.Errorf("expected validation error for unknown forced tool")
	}
	fmt.Println("  • forced unknown tool correctly rejected")

	utils.Info("Tools Test Utility finished", "ok", success, "failed", failed)
	return nil
}
