package std

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ilkoid/serape-ai/pkg/tools"
)

// --- Tool: http_fetch ---
// Позволяет агенту прочитать текстовый ресурс по URL.
// Два ограничителя: rate limiter (не даём модели заспамить внешний
// сервис) и лимит размера тела (не даём забить контекст LLM).

const (
	// defaultFetchLimit — максимальный размер тела ответа в байтах
	defaultFetchLimit = 64 * 1024

	// defaultFetchRate — запросов в секунду
	defaultFetchRate = 2
)

type HTTPFetchTool struct {
	client   *http.Client
	limiter  *rate.Limiter
	maxBytes int64
}

func NewHTTPFetchTool() *HTTPFetchTool {
	return &HTTPFetchTool{
		client:   &http.Client{Timeout: 15 * time.Second},
		limiter:  rate.NewLimiter(rate.Limit(defaultFetchRate), defaultFetchRate),
		maxBytes: defaultFetchLimit,
	}
}

// NewHTTPFetchToolWithClient создает инструмент с кастомным http.Client
// (для тестов и прокси).
func NewHTTPFetchToolWithClient(client *http.Client) *HTTPFetchTool {
	t := NewHTTPFetchTool()
	t.client = client
	return t
}

func (t *HTTPFetchTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:        "http_fetch",
		Description: "Скачивает текстовое содержимое по URL (http/https). Большие ответы обрезаются. Не используй для бинарных файлов.",
		Parameters: tools.Object(map[string]*tools.Schema{
			"url": tools.String("Полный URL, например 'https://example.com/data.json'."),
		}, "url"),
	}
}

func (t *HTTPFetchTool) Execute(ctx context.Context, argsJSON string) (string, error) {
	var args struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}

	parsed, err := url.Parse(args.URL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", fmt.Errorf("url must be http or https, got %q", args.URL)
	}

	// Rate limiting с учётом контекста (Rule 11)
	if err := t.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, args.URL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("fetch failed: HTTP %d for %s", resp.StatusCode, args.URL)
	}

	// Читаем на байт больше лимита, чтобы понять было ли обрезание
	body, err := io.ReadAll(io.LimitReader(resp.Body, t.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}

	truncated := false
	if int64(len(body)) > t.maxBytes {
		body = body[:t.maxBytes]
		truncated = true
	}

	content := string(body)
	if truncated {
		content += "\n\n...[TRUNCATED - response too large for context]"
	}

	// Для text/* и json отдаем как есть, остальное — предупреждение
	ct := resp.Header.Get("Content-Type")
	if ct != "" && !strings.HasPrefix(ct, "text/") && !strings.Contains(ct, "json") && !strings.Contains(ct, "xml") {
		return "", fmt.Errorf("content type %q is not text; refusing to fetch binary data", ct)
	}

	return content, nil
}

var _ tools.Tool = (*HTTPFetchTool)(nil)
