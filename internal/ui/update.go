// Логика - обрабатывает нажатия клавиш и события агента.

package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ilkoid/serape-ai/pkg/agent"
	"github.com/ilkoid/serape-ai/pkg/events"
	"github.com/ilkoid/serape-ai/pkg/tui"
)

func (m MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var tiCmd tea.Cmd
	m.textarea, tiCmd = m.textarea.Update(msg)

	switch msg := msg.(type) {

	// 1. Изменение размера окна терминала
	case tea.WindowSizeMsg:
		headerHeight := 1
		footerHeight := m.textarea.Height() + 2 // + статус-бар и граница
		m.viewportMgr.HandleResize(msg, headerHeight, footerHeight)
		m.textarea.SetWidth(msg.Width)
		m.ready = true

	// 2. Клавиши
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit

		case tea.KeyPgUp:
			m.viewportMgr.ScrollUp(5)

		case tea.KeyPgDown:
			m.viewportMgr.ScrollDown(5)

		case tea.KeyEnter:
			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}
			if m.statusMgr.IsProcessing() {
				// Агент занят, не запускаем второй запрос
				return m, nil
			}

			m.textarea.Reset()
			m.viewportMgr.Append(userMsgStyle("USER > ")+input, true)
			m.statusMgr.SetProcessing(true)

			return m, tea.Batch(performQuery(m.orchestrator, input), m.statusMgr.Tick())
		}

	// 3. Анимация spinner'а
	case spinner.TickMsg:
		return m, m.statusMgr.UpdateSpinner(msg)

	// 4. Событие агента (tool call, результат, ответ)
	case tui.EventMsg:
		m.eventHandler.HandleEvent(events.Event(msg))
		return m, tui.WaitForEvent(m.eventSub, func(event events.Event) tea.Msg {
			return tui.EventMsg(event)
		})

	// 5. Агент завершил запрос
	case runFinishedMsg:
		m.statusMgr.SetProcessing(false)
		m.textarea.Focus()
	}

	return m, tiCmd
}

// performQuery запускает агента асинхронно, чтобы не завис UI.
//
// Промежуточные события (thinking, tool calls) приходят через
// Subscriber; здесь мы возвращаем только сигнал завершения.
func performQuery(orchestrator agent.Agent, query string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		// Результат и ошибки прилетают событиями (EventDone / EventError)
		_, _ = orchestrator.Run(ctx, query)

		return runFinishedMsg{}
	}
}
