// Package state предоставляет thread-safe core состояние для tool-calling SDK.
//
// CoreState содержит переиспользуемую бизнес-логику фреймворка:
// - Конфигурацию приложения
// - Реестр инструментов (tools registry)
// - Историю диалога (включая tool calls и tool results)
// - Унифицированное key-value хранилище для пользовательских данных
//
// Package state следует правилам из dev_manifest.md:
//   - Rule 5: Thread-safe доступ через sync.RWMutex, никаких глобальных переменных
//   - Rule 6: Library code готовый к переиспользованию, без зависимостей от internal/
//   - Rule 7: Все ошибки возвращаются, никаких panic в бизнес-логике
package state

import (
	"fmt"
	"sync"

	"github.com/ilkoid/serape-ai/pkg/config"
	"github.com/ilkoid/serape-ai/pkg/llm"
	"github.com/ilkoid/serape-ai/pkg/tools"
)

// CoreState представляет thread-safe core состояние SDK.
//
// Может использоваться в различных приложениях: CLI, TUI, HTTP API.
//
// Rule 5: Все изменения runtime полей (history, store) защищены мьютексом.
// Rule 6: Не зависит от internal/, готов к переиспользованию.
type CoreState struct {
	// Config - конфигурация приложения (Rule 2: YAML with ENV support)
	Config *config.AppConfig

	mu sync.RWMutex

	// toolsRegistry - реестр инструментов (Rule 3)
	toolsRegistry *tools.Registry

	// history - хронология диалога (User <-> Agent), включая
	// assistant-сообщения с tool calls и tool-сообщения с результатами
	history []llm.Message

	// store - унифицированное key-value хранилище для пользовательских
	// данных. Зарезервированные ключи (см. keys.go) защищены от Set.
	store map[string]any
}

// NewCoreState создает новое thread-safe core состояние.
//
// Rule 7: Никаких panic при nil конфигурации - валидация делегируется вызывающему.
func NewCoreState(cfg *config.AppConfig) *CoreState {
	return &CoreState{
		Config:  cfg,
		history: make([]llm.Message, 0),
		store:   make(map[string]any),
	}
}

// SetToolsRegistry устанавливает реестр инструментов.
//
// Rule 5: Thread-safe доступ к полям структуры.
func (s *CoreState) SetToolsRegistry(registry *tools.Registry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toolsRegistry = registry
}

// GetToolsRegistry возвращает реестр инструментов.
func (s *CoreState) GetToolsRegistry() *tools.Registry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.toolsRegistry
}

// AppendMessage добавляет сообщение в историю диалога.
//
// Rule 5: Thread-safe.
func (s *CoreState) AppendMessage(msg llm.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, msg)
}

// GetHistory возвращает копию истории диалога.
//
// Возвращается копия слайса — вызывающий может итерировать без
// блокировки состояния.
func (s *CoreState) GetHistory() []llm.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := make([]llm.Message, len(s.history))
	copy(history, s.history)
	return history
}

// SetHistory заменяет историю диалога целиком.
//
// Используется для восстановления сессии.
func (s *CoreState) SetHistory(history []llm.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = make([]llm.Message, len(history))
	copy(s.history, history)
}

// ClearHistory очищает историю диалога.
func (s *CoreState) ClearHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = s.history[:0]
}

// HistoryLen возвращает длину истории.
func (s *CoreState) HistoryLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history)
}

// Get возвращает значение по ключу из унифицированного хранилища.
func (s *CoreState) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.store[key]
	return val, ok
}

// Set сохраняет значение по ключу.
//
// Зарезервированные ключи защищены (ErrKeyReserved) — история и
// реестр доступны только через типизированные методы.
func (s *CoreState) Set(key string, value any) error {
	if IsReservedKey(key) {
		return fmt.Errorf("%w: %s", ErrKeyReserved, key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.store[key] = value
	return nil
}

// Update атомарно обновляет значение по ключу.
//
// fn получает текущее значение (или nil если ключ не существует)
// и должен вернуть новое значение. Если fn возвращает nil — ключ удаляется.
func (s *CoreState) Update(key string, fn func(current any) any) error {
	if IsReservedKey(key) {
		return fmt.Errorf("%w: %s", ErrKeyReserved, key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := fn(s.store[key])
	if next == nil {
		delete(s.store, key)
		return nil
	}
	s.store[key] = next
	return nil
}
