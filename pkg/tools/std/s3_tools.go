/* Инструменты для работы с S3.

s3_list_objects: аналог ls — агент "осматривается" в бакете.
s3_get_object: аналог cat — читает текстовый файл.
s3_put_object: записывает результат работы агента обратно в хранилище.
*/
package std

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ilkoid/serape-ai/pkg/s3storage"
	"github.com/ilkoid/serape-ai/pkg/tools"
)

// --- Tool: s3_list_objects ---

type S3ListTool struct {
	client s3storage.ClientInterface
}

func NewS3ListTool(c s3storage.ClientInterface) *S3ListTool {
	return &S3ListTool{client: c}
}

func (t *S3ListTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:        "s3_list_objects",
		Description: "Возвращает список объектов в S3 хранилище по указанному префиксу. Используй, чтобы найти нужные файлы.",
		Parameters: tools.Object(map[string]*tools.Schema{
			"prefix": tools.String("Путь к папке (например 'reports/' или пусто для корня)."),
		}),
	}
}

func (t *S3ListTool) Execute(ctx context.Context, argsJSON string) (string, error) {
	var args struct {
		Prefix string `json:"prefix"`
	}
	// Если аргументы пустые или кривые, пробуем продолжить с дефолтом
	if argsJSON != "" {
		_ = json.Unmarshal([]byte(argsJSON), &args)
	}

	objects, err := t.client.ListObjects(ctx, args.Prefix)
	if err != nil {
		return "", fmt.Errorf("s3 list error: %w", err)
	}

	// Упрощаем ответ для LLM (экономим токены)
	type simpleFile struct {
		Key  string `json:"key"`
		Size string `json:"size"`
	}

	simpleList := make([]simpleFile, 0, len(objects))
	for _, obj := range objects {
		simpleList = append(simpleList, simpleFile{
			Key:  obj.Key,
			Size: formatSize(obj.Size),
		})
	}

	data, err := json.Marshal(simpleList)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// --- Tool: s3_get_object ---

type S3GetTool struct {
	client s3storage.ClientInterface
}

func NewS3GetTool(c s3storage.ClientInterface) *S3GetTool {
	return &S3GetTool{client: c}
}

func (t *S3GetTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:        "s3_get_object",
		Description: "Читает содержимое текстового файла из S3 (JSON, TXT, MD, CSV). Не используй для картинок и бинарных файлов.",
		Parameters: tools.Object(map[string]*tools.Schema{
			"key": tools.String("Полный путь к файлу (ключ), полученный из s3_list_objects."),
		}, "key"),
	}
}

func (t *S3GetTool) Execute(ctx context.Context, argsJSON string) (string, error) {
	var args struct {
		Key string `json:"key"`
	}
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}

	// Защита от скачивания бинарников в контекст
	ext := strings.ToLower(filepath.Ext(args.Key))
	if isBinaryExt(ext) {
		return "", fmt.Errorf("file type '%s' is binary; only text files can be read", ext)
	}

	content, err := t.client.GetObject(ctx, args.Key)
	if err != nil {
		return "", fmt.Errorf("s3 download error: %w", err)
	}

	// Ограничиваем длину, чтобы не забить контекст LLM
	const maxTextSize = 8192
	if len(content) > maxTextSize {
		return string(content[:maxTextSize]) + "\n\n...[TRUNCATED - file too large for context]", nil
	}

	return string(content), nil
}

// --- Tool: s3_put_object ---

type S3PutTool struct {
	client s3storage.ClientInterface
}

func NewS3PutTool(c s3storage.ClientInterface) *S3PutTool {
	return &S3PutTool{client: c}
}

func (t *S3PutTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:        "s3_put_object",
		Description: "Сохраняет текстовое содержимое в S3 под указанным ключом. Используй для записи отчетов и результатов.",
		Parameters: tools.Object(map[string]*tools.Schema{
			"key":     tools.String("Полный путь (ключ) для сохранения, например 'reports/summary.md'."),
			"content": tools.String("Текстовое содержимое файла."),
		}, "key", "content"),
	}
}

func (t *S3PutTool) Execute(ctx context.Context, argsJSON string) (string, error) {
	var args struct {
		Key     string `json:"key"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if args.Key == "" {
		return "", fmt.Errorf("key cannot be empty")
	}

	contentType := "text/plain"
	switch strings.ToLower(filepath.Ext(args.Key)) {
	case ".json":
		contentType = "application/json"
	case ".md":
		contentType = "text/markdown"
	case ".csv":
		contentType = "text/csv"
	}

	if err := t.client.PutObject(ctx, args.Key, []byte(args.Content), contentType); err != nil {
		return "", fmt.Errorf("s3 upload error: %w", err)
	}

	result := map[string]any{
		"key":  args.Key,
		"size": len(args.Content),
	}
	data, err := json.Marshal(result)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// isBinaryExt определяет расширения, которые нельзя читать как текст.
func isBinaryExt(ext string) bool {
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp",
		".pdf", ".zip", ".gz", ".tar", ".mp4", ".mov", ".avi",
		".xls", ".xlsx", ".doc", ".docx", ".bin", ".exe":
		return true
	}
	return false
}

var (
	_ tools.Tool = (*S3ListTool)(nil)
	_ tools.Tool = (*S3GetTool)(nil)
	_ tools.Tool = (*S3PutTool)(nil)
)
