package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig — корневая структура конфигурации.
// Она зеркалит структуру config.yaml.
type AppConfig struct {
	Models ModelsConfig          `yaml:"models"`
	Tools  map[string]ToolConfig `yaml:"tools"`
	S3     S3Config              `yaml:"s3"`
	Audit  AuditConfig           `yaml:"audit"`
	App    AppSpecific           `yaml:"app"`
}

// ModelsConfig — настройки AI моделей.
type ModelsConfig struct {
	DefaultChat string              `yaml:"default_chat"` // Алиас модели по умолчанию
	Definitions map[string]ModelDef `yaml:"definitions"`  // Словарь определений моделей
}

// ModelDef — параметры конкретной модели.
type ModelDef struct {
	Provider    string        `yaml:"provider"`   // "openai", "zai" и т.д.
	ModelName   string        `yaml:"model_name"` // Реальное имя в API
	APIKey      string        `yaml:"api_key"`    // Поддерживает ${VAR}
	BaseURL     string        `yaml:"base_url"`   // Для OpenAI-совместимых провайдеров
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"` // Go умеет парсить строки вида "60s", "1m"

	// RateLimit — запросов в минуту к API провайдера (0 = без лимита).
	RateLimit  int `yaml:"rate_limit"`
	BurstLimit int `yaml:"burst_limit"`

	// ParallelToolCalls — может ли модель вызывать несколько
	// инструментов за один ход. nil = дефолт провайдера.
	ParallelToolCalls *bool `yaml:"parallel_tool_calls"`
}

// ToolConfig — настройки инструментов.
type ToolConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Description string        `yaml:"description"` // Override описания для LLM
	Timeout     time.Duration `yaml:"timeout"`
	RetryCount  int           `yaml:"retry_count"`
}

// S3Config — настройки объектного хранилища (для s3 инструментов).
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"` // Поддерживает ${VAR}
	SecretKey string `yaml:"secret_key"` // Поддерживает ${VAR}
	UseSSL    bool   `yaml:"use_ssl"`
}

// Enabled сообщает, настроено ли хранилище.
//
// S3 опционален: без endpoint s3 инструменты просто не регистрируются.
func (s S3Config) Enabled() bool {
	return s.Endpoint != ""
}

// AuditConfig — настройки SQLite журнала tool calls.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // Путь к .db файлу (default: serape-audit.db)
}

// AppSpecific — общие настройки приложения.
type AppSpecific struct {
	Debug         bool            `yaml:"debug"`
	MaxIterations int             `yaml:"max_iterations"` // Лимит итераций агент-цикла
	ToolChoice    string          `yaml:"tool_choice"`    // "auto" | "required" | "none" | "tool:<name>"
	Streaming     StreamingConfig `yaml:"streaming"`
}

// StreamingConfig — настройки стриминга ответов.
type StreamingConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load читает YAML файл, подставляет ENV переменные и возвращает готовую структуру.
func Load(path string) (*AppConfig, error) {
	// 1. Проверяем существование файла
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found at: %s", path)
	}

	// 2. Читаем файл целиком
	rawBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// 3. Подставляем переменные окружения.
	// os.ExpandEnv заменяет ${VAR} или $VAR на значение из системы.
	contentWithEnv := os.ExpandEnv(string(rawBytes))

	// 4. Парсим YAML в структуру
	var cfg AppConfig
	if err := yaml.Unmarshal([]byte(contentWithEnv), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	// 5. Валидируем критические настройки
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// validate проверяет обязательные поля.
func (c *AppConfig) validate() error {
	if c.Models.DefaultChat != "" {
		if _, ok := c.Models.Definitions[c.Models.DefaultChat]; !ok {
			return fmt.Errorf("default_chat model '%s' is not defined in definitions", c.Models.DefaultChat)
		}
	}
	if c.S3.Enabled() && c.S3.Bucket == "" {
		return fmt.Errorf("s3.bucket is required when s3.endpoint is set")
	}
	return nil
}

// Helper методы для удобства доступа (Syntactic sugar)

// GetChatModel возвращает конфигурацию модели по умолчанию или по имени.
func (c *AppConfig) GetChatModel(name string) (ModelDef, bool) {
	if name == "" {
		name = c.Models.DefaultChat
	}
	m, ok := c.Models.Definitions[name]
	return m, ok
}

// GetToolConfig возвращает конфигурацию инструмента.
//
// Отсутствующая секция трактуется как enabled — инструменты выключаются
// явным enabled: false.
func (c *AppConfig) GetToolConfig(name string) ToolConfig {
	if c.Tools == nil {
		return ToolConfig{Enabled: true}
	}
	tc, ok := c.Tools[name]
	if !ok {
		return ToolConfig{Enabled: true}
	}
	return tc
}

// AuditPath возвращает путь к audit базе с дефолтом.
func (c *AppConfig) AuditPath() string {
	if c.Audit.Path != "" {
		return c.Audit.Path
	}
	return "serape-audit.db"
}
