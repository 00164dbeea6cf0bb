// Package primitives предоставляет reusable low-level UI компоненты.
//
// Foundational primitives для построения TUI приложений:
//   - ViewportManager: viewport с word-wrap и smart scroll
//   - StatusBarManager: статус-бар со spinner'ом
//   - EventHandler: рендеринг событий агента с pluggable renderers
package primitives

import (
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wrap"
)

// ViewportManager — thread-safe обёртка над bubbles viewport.
//
// Хранит исходные строки лога без word-wrap: при каждом resize контент
// переформатируется под новую ширину, а не накапливает старые переносы.
//
// Инварианты smart scroll:
//   - wasAtBottom вычисляется ДО изменения высоты
//   - высота никогда не опускается ниже 1 строки
//   - YOffset после reflow зажимается в [0, maxOffset]
type ViewportManager struct {
	viewport viewport.Model
	logLines []string
	mu       sync.RWMutex
}

// ViewportConfig — минимальные размеры viewport.
type ViewportConfig struct {
	MinWidth  int
	MinHeight int
}

// NewViewportManager создаёт ViewportManager с нулевыми размерами.
//
// Реальные размеры придут с первым tea.WindowSizeMsg.
func NewViewportManager(cfg ViewportConfig) *ViewportManager {
	return &ViewportManager{
		viewport: viewport.New(0, 0),
		logLines: []string{},
	}
}

// HandleResize обрабатывает изменение размеров окна.
//
// headerHeight и footerHeight — строки, занятые хедером и полем ввода.
func (vm *ViewportManager) HandleResize(msg tea.WindowSizeMsg, headerHeight, footerHeight int) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	vpHeight := msg.Height - headerHeight - footerHeight
	if vpHeight < 1 {
		vpHeight = 1
	}
	vpWidth := msg.Width
	if vpWidth < 20 {
		vpWidth = 20
	}

	// wasAtBottom до изменения высоты, иначе сравнение ломается
	totalLinesBefore := vm.viewport.TotalLineCount()
	wasAtBottom := vm.viewport.YOffset+vm.viewport.Height >= totalLinesBefore

	vm.viewport.Height = vpHeight
	vm.viewport.Width = vpWidth

	vm.viewport.SetContent(vm.reflow(vpWidth))

	if wasAtBottom {
		vm.viewport.GotoBottom()
		return
	}

	maxOffset := vm.viewport.TotalLineCount() - vm.viewport.Height
	if maxOffset < 0 {
		maxOffset = 0
	}
	if vm.viewport.YOffset > maxOffset {
		vm.viewport.YOffset = maxOffset
	}
}

// Append добавляет строку в лог.
//
// preservePosition=true сохраняет позицию скролла, если пользователь
// прокрутил вверх; у нижней границы лог автоматически следует за
// новыми строками.
func (vm *ViewportManager) Append(content string, preservePosition bool) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	vm.logLines = append(vm.logLines, content)
	fullContent := vm.reflow(vm.viewport.Width)

	if preservePosition {
		wasAtBottom := vm.viewport.YOffset+vm.viewport.Height >= vm.viewport.TotalLineCount()
		vm.viewport.SetContent(fullContent)
		if wasAtBottom {
			vm.viewport.GotoBottom()
		}
		return
	}
	vm.viewport.SetContent(fullContent)
}

// reflow переформатирует исходные строки под ширину width.
//
// Вызывать под mutex.
func (vm *ViewportManager) reflow(width int) string {
	var wrappedLines []string
	for _, line := range vm.logLines {
		wrapped := wrap.String(line, width)
		wrappedLines = append(wrappedLines, strings.Split(wrapped, "\n")...)
	}
	return strings.Join(wrappedLines, "\n")
}

// SetInitialContent устанавливает стартовый контент (приветствие).
func (vm *ViewportManager) SetInitialContent(content string) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	vm.logLines = []string{content}
	vm.viewport.SetContent(content)
	vm.viewport.YOffset = 0
}

// Content возвращает исходные строки лога.
func (vm *ViewportManager) Content() []string {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.logLines
}

// GetViewport возвращает underlying viewport.Model для рендеринга.
func (vm *ViewportManager) GetViewport() viewport.Model {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.viewport
}

// ScrollUp прокручивает лог вверх на n строк.
func (vm *ViewportManager) ScrollUp(n int) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.viewport.ScrollUp(n)
}

// ScrollDown прокручивает лог вниз на n строк.
func (vm *ViewportManager) ScrollDown(n int) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.viewport.ScrollDown(n)
}

// GotoBottom прокручивает лог к последней строке.
func (vm *ViewportManager) GotoBottom() {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.viewport.GotoBottom()
}

// SetDimensions задаёт размеры напрямую (для тестов).
func (vm *ViewportManager) SetDimensions(width, height int) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.viewport.Width = width
	vm.viewport.Height = height
}

// GetDimensions возвращает текущие размеры viewport.
func (vm *ViewportManager) GetDimensions() (width, height int) {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.viewport.Width, vm.viewport.Height
}
