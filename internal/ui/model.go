// Package ui реализует Model компонент Bubble Tea TUI.
//
// Чат с агентом: лог событий (tool calls, результаты, ответы),
// поле ввода и статус-бар со spinner'ом.
//
// Port & Adapter: UI знает только интерфейс agent.Agent и
// events.Subscriber, конкретный клиент собирается в cmd/serape-chat.
package ui

import (
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ilkoid/serape-ai/pkg/agent"
	"github.com/ilkoid/serape-ai/pkg/events"
	"github.com/ilkoid/serape-ai/pkg/tui"
	"github.com/ilkoid/serape-ai/pkg/tui/primitives"
)

// runFinishedMsg сообщает что агент завершил обработку запроса.
//
// Ошибка сюда не кладётся: она уже пришла через EventError.
type runFinishedMsg struct{}

// MainModel представляет главную модель UI (Bubble Tea Model).
//
// Содержит компоненты TUI:
//   - viewportMgr: область лога чата с word-wrap
//   - statusMgr: статус-бар со spinner'ом
//   - eventHandler: рендеринг событий агента в лог
//   - textarea: поле ввода пользователя
type MainModel struct {
	textarea textarea.Model

	viewportMgr  *primitives.ViewportManager
	statusMgr    *primitives.StatusBarManager
	eventHandler *primitives.EventHandler

	orchestrator agent.Agent
	eventSub     events.Subscriber

	currentModel string

	// ready флаг первой инициализации размеров окна
	ready bool
}

// InitialModel создает начальное состояние UI.
//
// orchestrator выполняет запросы, eventSub отдаёт события цикла
// tool calling (подписка создаётся снаружи через client.Subscribe()).
func InitialModel(orchestrator agent.Agent, currentModel string, eventSub events.Subscriber) MainModel {
	ta := textarea.New()
	ta.Placeholder = "Спросите агента (например: погода в Москве)..."
	ta.Focus()
	ta.Prompt = "┃ "
	ta.CharLimit = 500
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	vm := primitives.NewViewportManager(primitives.ViewportConfig{})
	vm.SetInitialContent(systemMsgStyle("Serape AI initialized. Tools are ready."))

	sm := primitives.NewStatusBarManager(primitives.DefaultStatusBarConfig())

	return MainModel{
		textarea:     ta,
		viewportMgr:  vm,
		statusMgr:    sm,
		eventHandler: primitives.NewEventHandler(vm, sm),
		orchestrator: orchestrator,
		eventSub:     eventSub,
		currentModel: currentModel,
	}
}

// Init запускается один раз при старте Bubble Tea программы.
//
// Возвращает команды для мигания курсора, анимации spinner'а
// и чтения событий агента.
func (m MainModel) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.statusMgr.Tick(),
		tui.ReceiveEventCmd(m.eventSub, func(event events.Event) tea.Msg {
			return tui.EventMsg(event)
		}),
	)
}
