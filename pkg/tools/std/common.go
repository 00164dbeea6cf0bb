// Package std содержит стандартный набор инструментов агента.
//
// Каждый инструмент — отдельный тип, реализующий tools.Tool
// (Rule 1: Raw In, String Out — аргументы приходят сырым JSON,
// результат уходит строкой модели).
package std

import "fmt"

// formatSize форматирует размер в человекочитаемый вид.
// "10.5 KB" читаемее для LLM, чем байты.
func formatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
