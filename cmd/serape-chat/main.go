// Serape AI TUI Application
// Основная точка входа для интерактивного чата с агентом
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ilkoid/serape-ai/internal/ui"
	"github.com/ilkoid/serape-ai/pkg/agent"
	"github.com/ilkoid/serape-ai/pkg/events"
	"github.com/ilkoid/serape-ai/pkg/utils"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Инициализируем логгер
	if err := utils.InitLogger(); err != nil {
		log.Printf("Warning: failed to init logger: %v", err)
	}
	defer utils.Close()

	utils.Info("Application started", "version", "0.1")

	// 2. Создаём агент (config.yaml ищется в текущей директории)
	configPath := "config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	client, err := agent.New(context.Background(), agent.Config{ConfigPath: configPath})
	if err != nil {
		utils.Error("Agent creation failed", "error", err)
		return fmt.Errorf("agent creation failed: %w", err)
	}
	defer client.Close()

	logKeysInfo(client)

	// 3. Подключаем события агента к TUI (Port & Adapter)
	emitter := events.NewChanEmitter(100)
	client.SetEmitter(emitter)
	sub := client.Subscribe()

	utils.Info("Agent client initialized with event emitter")

	// 4. Инициализируем TUI модель с subscriber
	tuiModel := ui.InitialModel(client, client.GetConfig().Models.DefaultChat, sub)

	// 5. Запускаем Bubble Tea программу
	utils.Info("Starting TUI")

	p := tea.NewProgram(
		tuiModel,
		// Без AltScreen - позволяет выделять текст мышкой и копировать в буфер обмена
	)

	if _, err := p.Run(); err != nil {
		utils.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	utils.Info("Application exited normally")
	return nil
}

// maskKey показывает первые 8 символов ключа для идентификации.
func maskKey(key string) string {
	if key == "" {
		return "NOT SET"
	}
	if len(key) <= 8 {
		return key + "..."
	}
	return key[:8] + "..."
}

// logKeysInfo логирует информацию о загруженных API ключах.
func logKeysInfo(client *agent.Client) {
	cfg := client.GetConfig()

	for alias, modelDef := range cfg.Models.Definitions {
		utils.Info("Model key loaded", "model", alias, "api_key", maskKey(modelDef.APIKey))
		break // Показываем только первый
	}

	if cfg.S3.Enabled() {
		utils.Info("S3 keys loaded",
			"access_key", maskKey(cfg.S3.AccessKey),
			"secret_key", maskKey(cfg.S3.SecretKey),
		)
	}
}
