// Рендер
package ui

import (
	"fmt"
)

func (m MainModel) View() string {
	if !m.ready {
		return "Initializing UI..."
	}

	width, _ := m.viewportMgr.GetDimensions()

	// Хедер с именем модели
	header := headerStyle.
		Width(width).
		Render(fmt.Sprintf(" SERAPE | MODEL: %s ", m.currentModel))

	vp := m.viewportMgr.GetViewport()

	// Header + Viewport + StatusBar + Input
	return fmt.Sprintf("%s\n%s\n%s\n%s",
		header,
		vp.View(),
		m.statusMgr.Render(),
		m.textarea.View(),
	)
}
