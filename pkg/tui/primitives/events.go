package primitives

import (
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/ilkoid/serape-ai/pkg/events"
)

// EventHandler рендерит события агента в styled строки лога.
//
// Strategy pattern: каждый тип события имеет свой renderer, который
// можно заменить через RegisterRenderer.
//
// Thread-safe.
type EventHandler struct {
	viewportMgr *ViewportManager
	statusMgr   *StatusBarManager
	renderers   map[events.EventType]EventRenderer
	mu          sync.RWMutex
}

// EventRenderer конвертирует событие в (контент, стиль).
//
// Пустой контент означает "не выводить в лог" (например, streaming
// чанки рендерятся отдельно).
type EventRenderer func(event events.Event) (content string, style lipgloss.Style)

// NewEventHandler создаёт обработчик с дефолтными renderers.
//
// vm получает отрендеренные строки, sm переключает spinner
// (EventThinking включает, EventDone/EventError выключают).
func NewEventHandler(vm *ViewportManager, sm *StatusBarManager) *EventHandler {
	eh := &EventHandler{
		viewportMgr: vm,
		statusMgr:   sm,
		renderers:   make(map[events.EventType]EventRenderer),
	}
	eh.registerDefaultRenderers()
	return eh
}

func (eh *EventHandler) registerDefaultRenderers() {
	grayStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	yellowStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("228"))
	greenStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	redStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true)

	eh.RegisterRenderer(events.EventThinking, func(event events.Event) (string, lipgloss.Style) {
		if data, ok := event.Data.(events.ThinkingData); ok && data.Query != "" {
			return "🤔 " + data.Query, grayStyle
		}
		return "🤔 Thinking...", grayStyle
	})

	// Streaming чанки рендерятся инкрементально внешним кодом
	eh.RegisterRenderer(events.EventContentChunk, func(event events.Event) (string, lipgloss.Style) {
		return "", lipgloss.Style{}
	})

	eh.RegisterRenderer(events.EventToolCall, func(event events.Event) (string, lipgloss.Style) {
		if data, ok := event.Data.(events.ToolCallData); ok {
			args := data.Args
			if len(args) > 50 {
				args = args[:47] + "..."
			}
			return "🔧 Calling: " + data.ToolName + "(" + args + ")", yellowStyle
		}
		return "🔧 Calling...", yellowStyle
	})

	eh.RegisterRenderer(events.EventToolResult, func(event events.Event) (string, lipgloss.Style) {
		data, ok := event.Data.(events.ToolResultData)
		if !ok {
			return "✓ Result", greenStyle
		}
		if !data.OK {
			return "✗ Failed: " + data.ToolName + " — " + data.Result, redStyle
		}
		return "✓ Result: " + data.ToolName + " (" + data.Duration.String() + ")", greenStyle
	})

	eh.RegisterRenderer(events.EventMessage, func(event events.Event) (string, lipgloss.Style) {
		if data, ok := event.Data.(events.MessageData); ok {
			return data.Content, lipgloss.NewStyle()
		}
		return "", lipgloss.Style{}
	})

	eh.RegisterRenderer(events.EventError, func(event events.Event) (string, lipgloss.Style) {
		if data, ok := event.Data.(events.ErrorData); ok && data.Err != nil {
			return "❌ Error: " + data.Err.Error(), redStyle
		}
		return "❌ Error", redStyle
	})

	// EventDone: финальный контент уже пришёл в EventMessage
	eh.RegisterRenderer(events.EventDone, func(event events.Event) (string, lipgloss.Style) {
		return "", lipgloss.Style{}
	})
}

// RegisterRenderer заменяет renderer для типа события.
func (eh *EventHandler) RegisterRenderer(eventType events.EventType, renderer EventRenderer) {
	eh.mu.Lock()
	defer eh.mu.Unlock()
	eh.renderers[eventType] = renderer
}

// Render возвращает отрендеренный контент события без вывода в viewport.
func (eh *EventHandler) Render(event events.Event) (string, lipgloss.Style, bool) {
	eh.mu.RLock()
	renderer, ok := eh.renderers[event.Type]
	eh.mu.RUnlock()

	if !ok {
		return "", lipgloss.Style{}, false
	}
	content, style := renderer(event)
	return content, style, content != ""
}

// HandleEvent рендерит событие в viewport и обновляет статус-бар.
//
// Побочные эффекты:
//   - EventThinking включает spinner
//   - EventDone и EventError выключают spinner
func (eh *EventHandler) HandleEvent(event events.Event) {
	switch event.Type {
	case events.EventThinking:
		if eh.statusMgr != nil {
			eh.statusMgr.SetProcessing(true)
		}
	case events.EventDone, events.EventError:
		if eh.statusMgr != nil {
			eh.statusMgr.SetProcessing(false)
		}
	}

	content, style, ok := eh.Render(event)
	if !ok || eh.viewportMgr == nil {
		return
	}
	eh.viewportMgr.Append(style.Render(content), true)
}
