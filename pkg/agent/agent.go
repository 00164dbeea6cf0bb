// Package agent предоставляет простой API для создания и запуска AI агентов.
//
// Пакет реализует фасад над ReActCycle, позволяя создавать агентов
// с минимальным количеством кода. При этом сохраняется полный доступ
// к компонентам (Registry, Dispatcher, ModelRegistry) для продвинутых
// сценариев.
//
// Basic usage:
//
//	client, _ := agent.New(ctx, agent.Config{ConfigPath: "config.yaml"})
//	defer client.Close()
//	result, _ := client.Run(ctx, "What's the weather in Paris?")
//
// With custom tool:
//
//	client, _ := agent.New(ctx, agent.Config{ConfigPath: "config.yaml"})
//	client.RegisterTool(&MyCustomTool{})
//	result, _ := client.Run(ctx, "Use my tool")
//
// With tool choice policy:
//
//	result, _ := client.RunWithChoice(ctx, "Must call a tool", tools.Required())
package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ilkoid/serape-ai/pkg/audit"
	"github.com/ilkoid/serape-ai/pkg/chain"
	"github.com/ilkoid/serape-ai/pkg/config"
	"github.com/ilkoid/serape-ai/pkg/events"
	"github.com/ilkoid/serape-ai/pkg/llm"
	"github.com/ilkoid/serape-ai/pkg/models"
	"github.com/ilkoid/serape-ai/pkg/s3storage"
	"github.com/ilkoid/serape-ai/pkg/state"
	"github.com/ilkoid/serape-ai/pkg/tools"
	"github.com/ilkoid/serape-ai/pkg/tools/std"
	"github.com/ilkoid/serape-ai/pkg/utils"
)

// Client представляет AI агент с простым API для запуска запросов.
//
// Client является фасадом над ReActCycle, скрывая сложность инициализации
// компонентов (Config, ModelRegistry, ToolsRegistry, Dispatcher, CoreState).
//
// Thread-safe: все методы безопасны для параллельного вызова.
type Client struct {
	reactCycle    *chain.ReActCycle
	modelRegistry *models.Registry
	toolsRegistry *tools.Registry
	dispatcher    *tools.Dispatcher
	state         *state.CoreState
	config        *config.AppConfig

	// Optional dependencies (могут быть nil)
	auditStore *audit.Store
	s3Client   *s3storage.Client
	emitter    events.Emitter

	// emitterMu protects emitter field for concurrent access
	emitterMu sync.RWMutex
}

// Config определяет конфигурацию для создания агента.
//
// Все поля опциональны — при пустых значениях используются дефолты:
//   - ConfigPath: "config.yaml" в текущей директории
//   - SystemPrompt: дефолтный промпт ReAct цикла
//   - MaxIterations: из config.yaml или 10
type Config struct {
	// ConfigPath — путь к config.yaml.
	ConfigPath string

	// SystemPrompt — опциональный override для системного промпта.
	SystemPrompt string

	// MaxIterations — максимальное количество итераций ReAct цикла.
	// Если 0 — используется значение из config.yaml или дефолт (10).
	MaxIterations int
}

// New создаёт новый агент с указанной конфигурацией.
//
// Функция выполняет полную инициализацию всех компонентов:
//   - Загружает config.yaml
//   - Создаёт ModelRegistry из определений моделей
//   - Создаёт ToolsRegistry и регистрирует std инструменты (только enabled)
//   - Создаёт S3 клиент если настроен (s3.endpoint)
//   - Создаёт Dispatcher с таймаутами из конфигурации
//   - Подключает SQLite audit журнал если включён (audit.enabled)
//   - Создаём CoreState и ReActCycle
//
// Rule 2: конфигурация через YAML с ENV подстановкой.
// Rule 3: tools регистрируются через Registry.
// Rule 7: возвращает ошибку вместо panic.
// Rule 11: принимает context.Context для распространения отмены.
func New(ctx context.Context, cfg Config) (*Client, error) {
	cfgPath := cfg.ConfigPath
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	appCfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", cfgPath, err)
	}
	utils.Info("Config loaded", "path", cfgPath)

	return NewFromConfig(ctx, appCfg, cfg)
}

// NewFromConfig создаёт агент из готовой конфигурации.
//
// Удобно для тестов и случаев когда config.yaml уже загружен.
func NewFromConfig(ctx context.Context, appCfg *config.AppConfig, cfg Config) (*Client, error) {
	if appCfg == nil {
		return nil, fmt.Errorf("app config is nil")
	}

	// 1. Реестр моделей
	modelRegistry, err := models.NewRegistryFromConfig(appCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build model registry: %w", err)
	}

	// 2. Реестр инструментов + S3 клиент
	client := &Client{
		modelRegistry: modelRegistry,
		config:        appCfg,
	}

	toolsRegistry := tools.NewRegistry()
	if err := client.registerStdTools(toolsRegistry, appCfg); err != nil {
		return nil, fmt.Errorf("failed to register std tools: %w", err)
	}
	client.toolsRegistry = toolsRegistry

	// 3. Диспетчер с таймаутами из конфигурации
	dispatcher := tools.NewDispatcher(toolsRegistry)
	for name := range appCfg.Tools {
		tc := appCfg.GetToolConfig(name)
		if tc.Timeout > 0 {
			dispatcher.SetToolTimeout(name, tc.Timeout)
		}
	}
	client.dispatcher = dispatcher

	// 4. Audit журнал (опционально)
	if appCfg.Audit.Enabled {
		store, err := audit.Open(appCfg.AuditPath())
		if err != nil {
			return nil, fmt.Errorf("failed to open audit store: %w", err)
		}
		dispatcher.AddRecorder(store)
		client.auditStore = store
		utils.Info("Audit journal enabled", "path", appCfg.AuditPath())
	}

	// 5. State
	client.state = state.NewCoreState(appCfg)
	client.state.SetToolsRegistry(toolsRegistry)

	// 6. ReActCycle
	chainCfg := chain.NewReActCycleConfig()
	if cfg.SystemPrompt != "" {
		chainCfg.SystemPrompt = cfg.SystemPrompt
	}
	if cfg.MaxIterations > 0 {
		chainCfg.MaxIterations = cfg.MaxIterations
	} else if appCfg.App.MaxIterations > 0 {
		chainCfg.MaxIterations = appCfg.App.MaxIterations
	}
	if appCfg.App.ToolChoice != "" {
		choice, err := tools.ParseChoice(appCfg.App.ToolChoice)
		if err != nil {
			return nil, fmt.Errorf("invalid app.tool_choice: %w", err)
		}
		chainCfg.ToolChoice = choice
	}

	reactCycle := chain.NewReActCycle(chainCfg)
	reactCycle.SetModelRegistry(modelRegistry, appCfg.Models.DefaultChat)
	reactCycle.SetRegistry(toolsRegistry)
	reactCycle.SetDispatcher(dispatcher)
	reactCycle.SetState(client.state)
	reactCycle.SetStreamingEnabled(appCfg.App.Streaming.Enabled)
	client.reactCycle = reactCycle

	// 7. Debug recorder (опционально)
	if appCfg.App.Debug {
		recorder, err := chain.NewChainDebugRecorder(chain.DebugConfig{
			Enabled:            true,
			LogsDir:            "logs",
			IncludeToolArgs:    true,
			IncludeToolResults: true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create debug recorder: %w", err)
		}
		reactCycle.AttachDebug(recorder)
		dispatcher.AddRecorder(recorder)
	}

	return client, nil
}

// registerStdTools регистрирует стандартные инструменты согласно config.yaml.
//
// Инструменты без секции в tools: считаются включёнными;
// выключение — явное enabled: false.
func (c *Client) registerStdTools(registry *tools.Registry, appCfg *config.AppConfig) error {
	register := func(tool tools.Tool) error {
		name := tool.Definition().Name
		if !appCfg.GetToolConfig(name).Enabled {
			utils.Debug("Tool disabled by config", "name", name)
			return nil
		}
		return registry.Register(tool)
	}

	if err := register(std.NewWeatherTool()); err != nil {
		return err
	}
	if err := register(std.NewCurrentTimeTool()); err != nil {
		return err
	}
	if err := register(std.NewHTTPFetchTool()); err != nil {
		return err
	}

	// S3 инструменты регистрируются только при настроенном хранилище
	if appCfg.S3.Enabled() {
		s3Client, err := s3storage.New(appCfg.S3)
		if err != nil {
			return fmt.Errorf("failed to create s3 client: %w", err)
		}
		c.s3Client = s3Client

		if err := register(std.NewS3ListTool(s3Client)); err != nil {
			return err
		}
		if err := register(std.NewS3GetTool(s3Client)); err != nil {
			return err
		}
		if err := register(std.NewS3PutTool(s3Client)); err != nil {
			return err
		}
	}

	return nil
}

// RegisterTool регистрирует дополнительный инструмент в агенте.
//
// Используется для добавления кастомных tools поверх std инструментов.
//
// Rule 1: инструмент должен реализовывать tools.Tool interface.
// Rule 3: регистрация через Registry.
func (c *Client) RegisterTool(tool tools.Tool) error {
	if c.toolsRegistry == nil {
		return fmt.Errorf("tools registry is not initialized")
	}

	toolName := tool.Definition().Name
	if err := c.toolsRegistry.Register(tool); err != nil {
		return fmt.Errorf("failed to register tool '%s': %w", toolName, err)
	}

	utils.Info("Tool registered", "name", toolName)
	return nil
}

// SetEmitter устанавливает emitter для отправки событий.
//
// Port & Adapter паттерн: Client зависит от абстракции (events.Emitter),
// а не от конкретной реализации UI.
//
// Thread-safe.
func (c *Client) SetEmitter(emitter events.Emitter) {
	c.emitterMu.Lock()
	defer c.emitterMu.Unlock()
	c.emitter = emitter
	if c.reactCycle != nil {
		c.reactCycle.SetEmitter(emitter)
	}
}

// Subscribe возвращает Subscriber для чтения событий.
//
// Если emitter не установлен, создаёт ChanEmitter с буфером 100.
//
// Thread-safe.
func (c *Client) Subscribe() events.Subscriber {
	c.emitterMu.Lock()
	if c.emitter == nil {
		c.emitter = events.NewChanEmitter(100)
		if c.reactCycle != nil {
			c.reactCycle.SetEmitter(c.emitter)
		}
	}
	emitter := c.emitter
	c.emitterMu.Unlock()

	chanEmitter, ok := emitter.(*events.ChanEmitter)
	if !ok {
		// Кастомный emitter без подписки — возвращаем пустой канал
		fallback := events.NewChanEmitter(0)
		fallback.Close()
		return fallback.Subscribe()
	}
	return chanEmitter.Subscribe()
}

// SetStreamingEnabled включает или выключает streaming режим.
//
// Thread-safe.
func (c *Client) SetStreamingEnabled(enabled bool) {
	if c.reactCycle != nil {
		c.reactCycle.SetStreamingEnabled(enabled)
	}
}

// Run выполняет запрос пользователя через агента.
//
// Метод делегирует выполнение ReActCycle, который:
//  1. Добавляет запрос в историю
//  2. Выполняет ReAct цикл (LLM → Tools → LLM → ...)
//  3. Возвращает финальный ответ
//
// Отправляет события через emitter если установлен (Port & Adapter).
//
// Thread-safe.
// Rule 11: принимает context.Context для отмены операции.
func (c *Client) Run(ctx context.Context, query string) (string, error) {
	if c.reactCycle == nil {
		return "", fmt.Errorf("agent is not properly initialized")
	}

	c.emitEvent(ctx, events.Event{
		Type:      events.EventThinking,
		Data:      events.ThinkingData{Query: query},
		Timestamp: time.Now(),
	})

	utils.Info("Running agent query", "query", query)

	result, err := c.reactCycle.Run(ctx, query)
	if err != nil {
		c.emitEvent(ctx, events.Event{
			Type:      events.EventError,
			Data:      events.ErrorData{Err: err},
			Timestamp: time.Now(),
		})
		utils.Error("Agent query failed", "error", err)
		return "", err
	}

	utils.Info("Agent query completed", "result_length", len(result))
	return result, nil
}

// RunWithChoice выполняет запрос с явной политикой tool choice.
//
// Политика действует на первую итерацию цикла:
//   - tools.Required(): модель обязана вызвать хотя бы один инструмент
//   - tools.None(): вызовы инструментов запрещены
//   - tools.ForceTool(name): модель обязана вызвать конкретный инструмент
//
// После удовлетворения required/forced политика понижается до auto.
//
// Thread-safe.
func (c *Client) RunWithChoice(ctx context.Context, query string, choice tools.Choice) (string, error) {
	output, err := c.Execute(ctx, chain.ChainInput{
		UserQuery:  query,
		ToolChoice: choice,
	})
	if err != nil {
		return "", err
	}
	return output.Result, nil
}

// Execute выполняет запрос с полным контролем через ChainInput.
//
// Предоставляет доступ к ToolChoice, кастомному Registry/Dispatcher
// и полному ChainOutput (tool results, сигнал завершения, debug path).
//
// Thread-safe.
// Rule 11: принимает context.Context для отмены операции.
func (c *Client) Execute(ctx context.Context, input chain.ChainInput) (chain.ChainOutput, error) {
	if c.reactCycle == nil {
		return chain.ChainOutput{}, fmt.Errorf("agent is not properly initialized")
	}

	utils.Info("Executing agent with ChainInput", "query", input.UserQuery)

	output, err := c.reactCycle.Execute(ctx, input)
	if err != nil {
		utils.Error("Agent execution failed", "error", err)
		return chain.ChainOutput{}, err
	}

	utils.Info("Agent execution completed", "iterations", output.Iterations)
	return output, nil
}

// emitEvent отправляет событие через emitter если он установлен.
//
// Thread-safe.
// Rule 11: уважает context.Context.
func (c *Client) emitEvent(ctx context.Context, event events.Event) {
	c.emitterMu.RLock()
	defer c.emitterMu.RUnlock()
	if c.emitter == nil {
		return
	}
	c.emitter.Emit(ctx, event)
}

// GetHistory возвращает историю диалога агента.
//
// История включает все сообщения: пользовательские, ассистента,
// и результаты выполнения инструментов.
//
// Thread-safe.
func (c *Client) GetHistory() []llm.Message {
	if c.state == nil {
		return []llm.Message{}
	}
	return c.state.GetHistory()
}

// GetModelRegistry возвращает реестр моделей для продвинутых сценариев.
func (c *Client) GetModelRegistry() *models.Registry {
	return c.modelRegistry
}

// GetToolsRegistry возвращает реестр инструментов.
//
// Позволяет напрямую работать с tools (например, для динамической
// регистрации/удаления tools).
func (c *Client) GetToolsRegistry() *tools.Registry {
	return c.toolsRegistry
}

// GetDispatcher возвращает диспетчер tool calls.
//
// Позволяет вручную диспатчить вызовы или добавлять recorder'ы.
func (c *Client) GetDispatcher() *tools.Dispatcher {
	return c.dispatcher
}

// GetState возвращает CoreState для продвинутых сценариев.
func (c *Client) GetState() *state.CoreState {
	return c.state
}

// GetConfig возвращает конфигурацию приложения.
func (c *Client) GetConfig() *config.AppConfig {
	return c.config
}

// Close освобождает ресурсы агента (audit журнал, emitter).
func (c *Client) Close() error {
	c.emitterMu.Lock()
	if chanEmitter, ok := c.emitter.(*events.ChanEmitter); ok {
		chanEmitter.Close()
	}
	c.emitterMu.Unlock()

	if c.auditStore != nil {
		return c.auditStore.Close()
	}
	return nil
}

// Ensure Client implements Agent interface
var _ Agent = (*Client)(nil)
