// Package utils предоставляет вспомогательные функции для обработки данных.
//
// Включает утилиты для очистки вывода LLM от markdown-обёртки:
// аргументы tool calls и JSON-ответы часто приходят завёрнутыми
// в кодовые блоки.
package utils

import (
	"strings"
)

// CleanJsonBlock удаляет markdown-обёртку вокруг JSON.
//
// LLM часто возвращает JSON аргументов обёрнутым в markdown кодовые блоки:
//
//	```json
//	{"location": "San Francisco"}
//	```
//
// Эта функция очищает такие обёртки, возвращая чистый JSON.
// Диспетчер применяет её к аргументам каждого tool call перед валидацией.
func CleanJsonBlock(s string) string {
	s = strings.TrimSpace(s)

	// Удаляем ```json в начале
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```Json")

	// Удаляем ``` в начале
	s = strings.TrimPrefix(s, "```")

	// Удаляем ``` в конце
	s = strings.TrimSuffix(s, "```")

	return strings.TrimSpace(s)
}

// CleanMarkdownCode удаляет все markdown code blocks из текста.
//
// В отличие от CleanJsonBlock работает с полным текстом, содержащим
// несколько code blocks, и удаляет их все, оставляя только обычный текст.
func CleanMarkdownCode(s string) string {
	lines := strings.Split(s, "\n")
	var result []string

	inCodeBlock := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") {
			inCodeBlock = !inCodeBlock
			continue
		}

		if !inCodeBlock {
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

// ExtractJSON пытается извлечь JSON объект из строки.
//
// LLM иногда возвращает JSON вместе с пояснительным текстом.
// Функция находит первый JSON-объект в тексте по балансу скобок.
//
// Возвращает пустую строку если JSON-объект не найден.
//
// ВНИМАНИЕ: не валидирует JSON, только извлекает его по эвристикам.
// Для валидации используйте json.Unmarshal().
func ExtractJSON(s string) string {
	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}

	// Пропускаем элементы массива ([{...])
	if start > 0 && s[start-1] == '[' {
		return ""
	}

	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}

	return s[start:]
}
