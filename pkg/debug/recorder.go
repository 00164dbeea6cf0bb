// Package debug предоставляет инструменты для записи и анализа выполнения AI-агента.
package debug

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ilkoid/serape-ai/pkg/tools"
)

// Recorder записывает трейс выполнения агента и сохраняет в JSON файл.
//
// Потокобезопасен — может использоваться из разных горутин.
// Реализует tools.Recorder, поэтому подключается напрямую к диспетчеру
// через Dispatcher.AddRecorder.
type Recorder struct {
	mu sync.Mutex

	// config — конфигурация рекордера
	config RecorderConfig

	// log — накапливаемый трейс выполнения
	log DebugLog

	// currentIteration — текущая итерация (заполняется по мере выполнения)
	currentIteration *Iteration

	// visitedTools — множество уникальных инструментов
	visitedTools map[string]struct{}

	// errors — список ошибок выполнения
	errors []string
}

// RecorderConfig конфигурация для создания Recorder.
type RecorderConfig struct {
	// LogsDir — директория для сохранения логов
	LogsDir string

	// IncludeToolArgs — включать аргументы инструментов в лог
	IncludeToolArgs bool

	// IncludeToolResults — включать результаты инструментов в лог
	IncludeToolResults bool

	// MaxResultSize — максимальный размер результата (превышение обрезается)
	// 0 означает без ограничений
	MaxResultSize int
}

// NewRecorder создает новый Recorder с заданной конфигурацией.
//
// Если LogsDir не существует, пытается создать её.
func NewRecorder(cfg RecorderConfig) (*Recorder, error) {
	if cfg.LogsDir != "" {
		if err := os.MkdirAll(cfg.LogsDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create logs directory: %w", err)
		}
	}

	runID := fmt.Sprintf("debug_%s", time.Now().Format("20060102_150405"))

	return &Recorder{
		config: cfg,
		log: DebugLog{
			RunID:     runID,
			Timestamp: time.Now(),
		},
		visitedTools: make(map[string]struct{}),
		errors:       make([]string, 0),
	}, nil
}

// Start начинает запись новой сессии с пользовательским запросом.
func (r *Recorder) Start(userQuery string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.log.UserQuery = userQuery
	r.log.Timestamp = time.Now()
}

// StartIteration начинает запись новой итерации.
func (r *Recorder) StartIteration(num int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.currentIteration = &Iteration{
		Number: num,
	}
}

// RecordLLMRequest записывает информацию о запросе к LLM.
func (r *Recorder) RecordLLMRequest(req LLMRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.currentIteration != nil {
		r.currentIteration.LLMRequest = req
	}
}

// RecordLLMResponse записывает ответ от LLM.
func (r *Recorder) RecordLLMResponse(resp LLMResponse) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.currentIteration != nil {
		r.currentIteration.LLMResponse = resp

		if resp.Error != "" {
			r.errors = append(r.errors, fmt.Sprintf("LLM error: %s", resp.Error))
		}
	}
}

// RecordDispatch записывает результат выполнения одного tool call.
//
// Реализует tools.Recorder — диспетчер вызывает этот метод после
// каждого dispatch, успешного или нет.
func (r *Recorder) RecordDispatch(call tools.ToolCall, result tools.ToolResult) {
	exec := ToolExecution{
		ToolCallID: result.ToolCallID,
		Name:       result.ToolName,
		Args:       result.Args,
		Result:     result.Result,
		Duration:   result.Duration,
		Success:    result.OK,
	}
	if result.Err != nil {
		exec.Error = result.Err.Error()
	}
	r.recordToolExecution(exec)
}

// recordToolExecution добавляет выполнение инструмента в текущую итерацию.
func (r *Recorder) recordToolExecution(exec ToolExecution) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.currentIteration == nil {
		return
	}

	// Применяем конфигурацию включения/обрезки данных
	if !r.config.IncludeToolArgs {
		exec.Args = ""
	}
	if !r.config.IncludeToolResults {
		exec.Result = ""
	} else if r.config.MaxResultSize > 0 && len(exec.Result) > r.config.MaxResultSize {
		exec.Result = exec.Result[:r.config.MaxResultSize] + "... (truncated)"
		exec.ResultTruncated = true
	}

	r.currentIteration.ToolsExecuted = append(r.currentIteration.ToolsExecuted, exec)
	r.visitedTools[exec.Name] = struct{}{}

	if !exec.Success && exec.Error != "" {
		r.errors = append(r.errors, fmt.Sprintf("Tool %s: %s", exec.Name, exec.Error))
	}
}

// EndIteration завершает текущую итерацию.
func (r *Recorder) EndIteration() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.currentIteration != nil {
		r.log.Iterations = append(r.log.Iterations, *r.currentIteration)
		r.currentIteration = nil
	}
}

// Finalize завершает запись и сохраняет лог в файл.
//
// Возвращает путь к сохраненному файлу или ошибку.
func (r *Recorder) Finalize(finalResult string, duration time.Duration) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.log.FinalResult = finalResult
	r.log.Duration = duration.Milliseconds()

	r.buildSummary()

	data, err := json.MarshalIndent(r.log, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal debug log: %w", err)
	}

	filePath := r.getFilePath()
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write debug log: %w", err)
	}

	return filePath, nil
}

// buildSummary формирует агрегированную статистику.
func (r *Recorder) buildSummary() {
	summary := Summary{
		Errors:       r.errors,
		VisitedTools: make([]string, 0, len(r.visitedTools)),
	}

	for tool := range r.visitedTools {
		summary.VisitedTools = append(summary.VisitedTools, tool)
	}

	for _, iter := range r.log.Iterations {
		summary.TotalLLMCalls++
		summary.TotalLLMDuration += iter.LLMResponse.Duration

		for _, tool := range iter.ToolsExecuted {
			summary.TotalToolsExecuted++
			summary.TotalToolDuration += tool.Duration
		}
	}

	r.log.Summary = summary
}

// getFilePath возвращает путь к файлу для сохранения.
func (r *Recorder) getFilePath() string {
	if r.config.LogsDir != "" {
		return filepath.Join(r.config.LogsDir, r.log.RunID+".json")
	}
	return r.log.RunID + ".json"
}

// GetRunID возвращает идентификатор текущей сессии.
func (r *Recorder) GetRunID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.log.RunID
}

var _ tools.Recorder = (*Recorder)(nil)
