// Реестр для хранения и поиска инструментов.
package tools

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

// entry — инструмент вместе со скомпилированной схемой параметров.
//
// Схема компилируется один раз при регистрации, чтобы диспетчер не
// резолвил её на каждый вызов.
type entry struct {
	tool     Tool
	resolved *jsonschema.Resolved
}

// Registry — потокобезопасное хранилище инструментов.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewRegistry создает новый пустой реестр.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]entry),
	}
}

// Register добавляет инструмент в реестр с валидацией схемы.
//
// Возвращает ошибку если:
//   - имя пустое (ErrEmptyName)
//   - инструмент с таким именем уже зарегистрирован (ErrAlreadyRegistered)
//   - схема параметров отсутствует или не компилируется (ErrInvalidSchema)
//
// Для обновления существующего инструмента используется Replace.
func (r *Registry) Register(tool Tool) error {
	def := tool.Definition()
	if def.Name == "" {
		return ErrEmptyName
	}

	resolved, err := compileSchema(def)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[def.Name]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, def.Name)
	}

	r.entries[def.Name] = entry{tool: tool, resolved: resolved}
	return nil
}

// Replace обновляет существующий инструмент.
//
// Возвращает ErrToolNotFound если инструмента с таким именем нет.
// Схема нового определения валидируется так же как в Register.
func (r *Registry) Replace(tool Tool) error {
	def := tool.Definition()
	if def.Name == "" {
		return ErrEmptyName
	}

	resolved, err := compileSchema(def)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[def.Name]; !exists {
		return fmt.Errorf("%w: %s", ErrToolNotFound, def.Name)
	}

	r.entries[def.Name] = entry{tool: tool, resolved: resolved}
	return nil
}

// Get ищет инструмент по имени.
func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return e.tool, nil
}

// Has сообщает, зарегистрирован ли инструмент с таким именем.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.entries[name]
	return ok
}

// lookup возвращает инструмент вместе со скомпилированной схемой.
//
// Внутренний метод для диспетчера.
func (r *Registry) lookup(name string) (entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	if !ok {
		return entry{}, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return e, nil
}

// GetDefinitions возвращает список всех определений для отправки в LLM.
//
// Порядок детерминирован (по имени) — так definitions стабильно
// сериализуются в запрос и в debug логи.
func (r *Registry) GetDefinitions() []ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]ToolDefinition, 0, len(r.entries))
	for _, e := range r.entries {
		defs = append(defs, e.tool.Definition())
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Names возвращает отсортированный список имён инструментов.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len возвращает количество зарегистрированных инструментов.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
