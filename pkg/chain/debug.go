// Package chain предоставляет Chain Pattern для AI агента.
package chain

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/ilkoid/serape-ai/pkg/debug"
	"github.com/ilkoid/serape-ai/pkg/llm"
	"github.com/ilkoid/serape-ai/pkg/tools"
)

// ChainDebugRecorder — обёртка над debug.Recorder для Chain Pattern.
//
// Реализует два контракта:
//   - ExecutionObserver: следит за жизненным циклом выполнения
//   - tools.Recorder: получает результаты tool calls от диспетчера
type ChainDebugRecorder struct {
	recorder *debug.Recorder
	enabled  bool
	logsDir  string
}

// NewChainDebugRecorder создаёт новый ChainDebugRecorder.
func NewChainDebugRecorder(cfg DebugConfig) (*ChainDebugRecorder, error) {
	if !cfg.Enabled {
		return &ChainDebugRecorder{enabled: false}, nil
	}

	recorderCfg := debug.RecorderConfig{
		LogsDir:            cfg.LogsDir,
		IncludeToolArgs:    cfg.IncludeToolArgs,
		IncludeToolResults: cfg.IncludeToolResults,
		MaxResultSize:      cfg.MaxResultSize,
	}

	recorder, err := debug.NewRecorder(recorderCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create debug recorder: %w", err)
	}

	return &ChainDebugRecorder{
		recorder: recorder,
		enabled:  true,
		logsDir:  cfg.LogsDir,
	}, nil
}

// Enabled возвращает true если debug логирование включено.
func (r *ChainDebugRecorder) Enabled() bool {
	return r.enabled
}

// RecordLLMRequest записывает LLM запрос.
func (r *ChainDebugRecorder) RecordLLMRequest(model string, opts llm.GenerateOptions, messagesCount int) {
	if !r.enabled {
		return
	}
	r.recorder.RecordLLMRequest(debug.LLMRequest{
		Model:             model,
		Temperature:       opts.Temperature,
		MaxTokens:         opts.MaxTokens,
		Format:            opts.Format,
		MessagesCount:     messagesCount,
		ToolChoice:        opts.ToolChoice.String(),
		ParallelToolCalls: opts.ParallelToolCalls,
	})
}

// RecordLLMResponse записывает LLM ответ.
func (r *ChainDebugRecorder) RecordLLMResponse(content string, toolCalls []llm.ToolCall, duration int64) {
	if !r.enabled {
		return
	}

	debugToolCalls := make([]debug.ToolCallInfo, len(toolCalls))
	for i, tc := range toolCalls {
		debugToolCalls[i] = debug.ToolCallInfo{
			ID:   tc.ID,
			Name: tc.Name,
			Args: tc.Args,
		}
	}

	r.recorder.RecordLLMResponse(debug.LLMResponse{
		Content:   content,
		ToolCalls: debugToolCalls,
		Duration:  duration,
	})
}

// RecordDispatch записывает результат одного tool call.
//
// Реализует tools.Recorder — ChainDebugRecorder подключается к
// диспетчеру напрямую, без промежуточного слоя.
func (r *ChainDebugRecorder) RecordDispatch(call tools.ToolCall, result tools.ToolResult) {
	if !r.enabled {
		return
	}
	r.recorder.RecordDispatch(call, result)
}

// GetLogPath возвращает путь к файлу лога.
//
// Возвращает пустую строку если debug отключён или log ещё не сохранён.
func (r *ChainDebugRecorder) GetLogPath() string {
	if !r.enabled {
		return ""
	}
	runID := r.recorder.GetRunID()
	if runID == "" {
		return ""
	}
	if r.logsDir != "" {
		return filepath.Join(r.logsDir, runID+".json")
	}
	return runID + ".json"
}

// GetRunID возвращает ID текущего запуска.
func (r *ChainDebugRecorder) GetRunID() string {
	if !r.enabled {
		return ""
	}
	return r.recorder.GetRunID()
}

// --- ExecutionObserver implementation ---

// OnStart начинает запись новой цепочки.
func (r *ChainDebugRecorder) OnStart(_ context.Context, exec *ReActExecution) {
	if !r.enabled {
		return
	}
	r.recorder.Start(exec.chainCtx.Input.UserQuery)
}

// OnIterationStart начинает запись новой итерации ReAct цикла.
func (r *ChainDebugRecorder) OnIterationStart(iteration int) {
	if !r.enabled {
		return
	}
	r.recorder.StartIteration(iteration)
}

// OnIterationEnd завершает запись текущей итерации.
func (r *ChainDebugRecorder) OnIterationEnd(iteration int) {
	if !r.enabled {
		return
	}
	r.recorder.EndIteration()
}

// OnFinish финализирует debug лог и сохраняет его в файл.
func (r *ChainDebugRecorder) OnFinish(result ChainOutput, err error) {
	if !r.enabled {
		return
	}
	// Ошибка записи лога не должна ронять выполнение
	_, _ = r.recorder.Finalize(result.Result, result.Duration)
}

var (
	_ ExecutionObserver = (*ChainDebugRecorder)(nil)
	_ tools.Recorder    = (*ChainDebugRecorder)(nil)
)
