package primitives

import (
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// StatusBarManager — статус-бар со spinner'ом, DEBUG индикатором и
// опциональной дополнительной информацией (имя модели, счётчики).
//
// Thread-safe: Render и сеттеры можно вызывать из разных goroutine.
type StatusBarManager struct {
	spinner      spinner.Model
	isProcessing bool
	debugMode    bool
	mu           sync.RWMutex

	cfg StatusBarConfig

	// customExtra добавляет текст в хвост статус-бара
	customExtra func() string
}

// StatusBarConfig — цветовая схема статус-бара.
type StatusBarConfig struct {
	SpinnerColor    lipgloss.Color
	IdleColor       lipgloss.Color
	BackgroundColor lipgloss.Color
	DebugColor      lipgloss.Color
	DebugText       lipgloss.Color
	ExtraText       lipgloss.Color
}

// DefaultStatusBarConfig возвращает дефолтную цветовую схему.
func DefaultStatusBarConfig() StatusBarConfig {
	return StatusBarConfig{
		SpinnerColor:    lipgloss.Color("86"),
		IdleColor:       lipgloss.Color("242"),
		BackgroundColor: lipgloss.Color("235"),
		DebugColor:      lipgloss.Color("196"),
		DebugText:       lipgloss.Color("15"),
		ExtraText:       lipgloss.Color("252"),
	}
}

// NewStatusBarManager создаёт статус-бар с указанной схемой.
func NewStatusBarManager(cfg StatusBarConfig) *StatusBarManager {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(cfg.SpinnerColor)

	return &StatusBarManager{
		spinner: s,
		cfg:     cfg,
	}
}

// Render возвращает статус-бар как styled строку.
func (sm *StatusBarManager) Render() string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	var spinnerText string
	if sm.isProcessing {
		spinnerText = sm.spinner.View()
	} else {
		spinnerText = "✓ Ready"
	}

	fg := sm.cfg.IdleColor
	if sm.isProcessing {
		fg = sm.cfg.SpinnerColor
	}

	result := lipgloss.NewStyle().
		Background(sm.cfg.BackgroundColor).
		Padding(0, 1).
		Foreground(fg).
		Render(spinnerText)

	if sm.debugMode {
		result += lipgloss.NewStyle().
			Background(sm.cfg.DebugColor).
			Foreground(sm.cfg.DebugText).
			Bold(true).
			Padding(0, 1).
			Render("DEBUG")
	}

	if sm.customExtra != nil {
		if extraInfo := sm.customExtra(); extraInfo != "" {
			result += lipgloss.NewStyle().
				Background(sm.cfg.BackgroundColor).
				Padding(0, 1).
				Foreground(sm.cfg.ExtraText).
				Render(extraInfo)
		}
	}

	return result
}

// SetProcessing переключает spinner (true = агент работает).
func (sm *StatusBarManager) SetProcessing(processing bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.isProcessing = processing
}

// IsProcessing возвращает текущее состояние spinner'а.
func (sm *StatusBarManager) IsProcessing() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.isProcessing
}

// SetDebugMode включает DEBUG индикатор.
func (sm *StatusBarManager) SetDebugMode(enabled bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.debugMode = enabled
}

// SetCustomExtra устанавливает callback для дополнительной информации.
func (sm *StatusBarManager) SetCustomExtra(fn func() string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.customExtra = fn
}

// UpdateSpinner прокручивает анимацию spinner'а (из tea.Update).
func (sm *StatusBarManager) UpdateSpinner(msg spinner.TickMsg) tea.Cmd {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	updated, cmd := sm.spinner.Update(msg)
	sm.spinner = updated
	return cmd
}

// Tick возвращает команду запуска анимации spinner'а.
func (sm *StatusBarManager) Tick() tea.Cmd {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.spinner.Tick
}
