// Package chain предоставляет Chain Pattern для AI агента.
package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/ilkoid/serape-ai/pkg/config"
	"github.com/ilkoid/serape-ai/pkg/events"
	"github.com/ilkoid/serape-ai/pkg/llm"
	"github.com/ilkoid/serape-ai/pkg/models"
	"github.com/ilkoid/serape-ai/pkg/tools"
	"github.com/ilkoid/serape-ai/pkg/utils"
)

// LLMInvocationStep — Step для вызова LLM.
//
// Используется в ReAct цикле для получения ответа от LLM.
// Вызывает LLM с текущим контекстом (история сообщений + системный
// промпт), передаёт определения инструментов и политику tool choice,
// затем проверяет ответ модели против этой политики.
//
// Rule 4: Работает через llm.Provider интерфейс.
// Rule 5: Thread-safe через ChainContext.
// Rule 7: Возвращает ошибку вместо panic.
type LLMInvocationStep struct {
	// modelRegistry — реестр LLM провайдеров (Rule 3)
	modelRegistry *models.Registry

	// defaultModel — имя модели по умолчанию для fallback
	defaultModel string

	// registry — реестр инструментов для получения определений (Rule 3)
	registry *tools.Registry

	// systemPrompt — базовый системный промпт
	systemPrompt string

	// debugRecorder — опциональный debug recorder
	debugRecorder *ChainDebugRecorder

	// emitter — для отправки streaming событий (EventContentChunk)
	emitter events.Emitter

	// startTime — время начала выполнения step (для duration tracking)
	startTime time.Time
}

// Name возвращает имя Step (для логирования).
func (s *LLMInvocationStep) Name() string {
	return "llm_invocation"
}

// Execute выполняет LLM вызов.
//
// Возвращает:
//   - StepResult{Action: ActionContinue, Signal: SignalNone} — ответ с tool calls
//   - StepResult{Action: ActionBreak, Signal: SignalFinalAnswer} — финальный ответ
//   - StepResult с ошибкой — нарушение tool choice политики или сбой LLM
func (s *LLMInvocationStep) Execute(ctx context.Context, chainCtx *ChainContext) StepResult {
	s.startTime = time.Now()

	// 1. Получаем провайдер и конфигурацию из реестра
	provider, modelDef, actualModel, err := s.modelRegistry.GetWithFallback(s.defaultModel, s.defaultModel)
	if err != nil {
		return StepResult{}.WithError(fmt.Errorf("failed to get model provider: %w", err))
	}

	// 2. Определяем параметры LLM
	opts := s.determineLLMOptions(chainCtx, modelDef)

	// 3. Формируем сообщения для LLM
	messages := chainCtx.BuildContextMessages(s.systemPrompt)

	// 4. Подготавливаем функциональные опции
	generateOpts := s.buildGenerateOpts(opts)

	// 5. Записываем LLM request в debug
	if s.debugRecorder != nil && s.debugRecorder.Enabled() {
		s.debugRecorder.RecordLLMRequest(actualModel, opts, len(messages))
	}

	// 6. Вызываем LLM (Rule 4)
	llmStart := time.Now()
	var response llm.Message

	if streamingProvider, ok := provider.(llm.StreamingProvider); ok && s.emitter != nil {
		response, err = s.invokeStreamingLLM(ctx, streamingProvider, messages, generateOpts)
	} else {
		response, err = provider.Generate(ctx, messages, generateOpts...)
	}
	llmDuration := time.Since(llmStart).Milliseconds()

	if err != nil {
		return StepResult{}.WithError(fmt.Errorf("LLM generation failed: %w", err))
	}

	// 7. Записываем LLM response в debug
	if s.debugRecorder != nil && s.debugRecorder.Enabled() {
		s.debugRecorder.RecordLLMResponse(response.Content, response.ToolCalls, llmDuration)
	}

	// 8. Проверяем ответ против tool choice политики
	if err := s.enforceChoice(opts.ToolChoice, response); err != nil {
		return StepResult{}.WithError(err)
	}

	// 9. Добавляем assistant message в историю (thread-safe)
	chainCtx.AppendMessage(llm.Message{
		Role:      llm.RoleAssistant,
		Content:   response.Content,
		ToolCalls: response.ToolCalls,
	})

	// 10. Сохраняем фактические параметры модели в контексте
	chainCtx.SetActualModel(actualModel)
	chainCtx.SetActualTemperature(opts.Temperature)
	chainCtx.SetActualMaxTokens(opts.MaxTokens)

	// 11. Определяем сигнал на основе ответа
	if len(response.ToolCalls) == 0 {
		return StepResult{
			Action: ActionBreak,
			Signal: SignalFinalAnswer,
		}
	}

	return StepResult{
		Action: ActionContinue,
		Signal: SignalNone,
	}
}

// enforceChoice проверяет tool calls модели против политики.
//
// Нарушения:
//   - required/tool без единого tool call → tools.ErrNoToolCall
//   - none с tool calls → tools.ErrToolCallForbidden
//   - forced tool, но модель позвала другой → tools.ErrWrongTool
//
// Модель, игнорирующая политику — это ошибка backend'а, а не повод
// молча выполнить запрещённый инструмент.
func (s *LLMInvocationStep) enforceChoice(choice tools.Choice, response llm.Message) error {
	switch choice.Mode {
	case tools.ChoiceNone:
		if len(response.ToolCalls) > 0 {
			return fmt.Errorf("%w: model requested %q with tool_choice=none",
				tools.ErrToolCallForbidden, response.ToolCalls[0].Name)
		}

	case tools.ChoiceRequired:
		if len(response.ToolCalls) == 0 {
			return fmt.Errorf("%w: tool_choice=required but model returned plain text",
				tools.ErrNoToolCall)
		}

	case tools.ChoiceTool:
		if len(response.ToolCalls) == 0 {
			return fmt.Errorf("%w: tool_choice forces %q but model returned plain text",
				tools.ErrNoToolCall, choice.ToolName)
		}
		for _, tc := range response.ToolCalls {
			if !choice.Allows(tc.Name) {
				return fmt.Errorf("%w: tool_choice forces %q but model called %q",
					tools.ErrWrongTool, choice.ToolName, tc.Name)
			}
		}
	}
	return nil
}

// determineLLMOptions определяет параметры LLM для текущей итерации.
//
// Комбинирует дефолтные значения из modelDef с runtime состоянием
// контекста (инструменты, tool choice текущей итерации).
func (s *LLMInvocationStep) determineLLMOptions(chainCtx *ChainContext, modelDef config.ModelDef) llm.GenerateOptions {
	opts := llm.GenerateOptions{
		Model:       modelDef.ModelName,
		Temperature: modelDef.Temperature,
		MaxTokens:   modelDef.MaxTokens,
	}

	if modelDef.ParallelToolCalls != nil {
		opts.ParallelToolCalls = modelDef.ParallelToolCalls
	}

	// Инструменты и политика — из текущего состояния цикла.
	// При tool_choice=none определения всё равно отправляются:
	// модель должна знать об инструментах, но не звать их.
	if s.registry != nil {
		opts.Tools = s.registry.GetDefinitions()
	}
	opts.ToolChoice = chainCtx.GetToolChoice()

	return opts
}

// buildGenerateOpts конвертирует GenerateOptions в функциональные опции.
func (s *LLMInvocationStep) buildGenerateOpts(opts llm.GenerateOptions) []llm.GenerateOption {
	generateOpts := make([]llm.GenerateOption, 0, 7)

	if opts.Model != "" {
		generateOpts = append(generateOpts, llm.WithModel(opts.Model))
	}
	if opts.Temperature != 0 {
		generateOpts = append(generateOpts, llm.WithTemperature(opts.Temperature))
	}
	if opts.MaxTokens != 0 {
		generateOpts = append(generateOpts, llm.WithMaxTokens(opts.MaxTokens))
	}
	if opts.Format != "" {
		generateOpts = append(generateOpts, llm.WithFormat(opts.Format))
	}
	if len(opts.Tools) > 0 {
		generateOpts = append(generateOpts, llm.WithTools(opts.Tools))
		generateOpts = append(generateOpts, llm.WithToolChoice(opts.ToolChoice))
	}
	if opts.ParallelToolCalls != nil {
		generateOpts = append(generateOpts, llm.WithParallelToolCalls(*opts.ParallelToolCalls))
	}

	return generateOpts
}

// GetDuration возвращает длительность выполнения step.
func (s *LLMInvocationStep) GetDuration() time.Duration {
	return time.Since(s.startTime)
}

// invokeStreamingLLM вызывает LLM с поддержкой стриминга.
//
// Отправляет EventContentChunk для каждой порции контента.
func (s *LLMInvocationStep) invokeStreamingLLM(
	ctx context.Context,
	provider llm.StreamingProvider,
	messages []llm.Message,
	opts []llm.GenerateOption,
) (llm.Message, error) {
	callback := func(chunk llm.StreamChunk) {
		// Rule 11: проверяем context
		select {
		case <-ctx.Done():
			return
		default:
		}

		switch chunk.Type {
		case llm.ChunkContent:
			s.emitContentChunk(ctx, chunk)
		case llm.ChunkError:
			if s.emitter != nil && chunk.Error != nil {
				s.emitter.Emit(ctx, events.Event{
					Type:      events.EventError,
					Data:      events.ErrorData{Err: chunk.Error},
					Timestamp: time.Now(),
				})
			}
		case llm.ChunkDone:
			// Стриминг завершен
		}
	}

	utils.Debug("Invoking streaming LLM", "messages", len(messages))
	return provider.GenerateStream(ctx, messages, callback, opts...)
}

// emitContentChunk отправляет событие с порцией контента.
func (s *LLMInvocationStep) emitContentChunk(ctx context.Context, chunk llm.StreamChunk) {
	if s.emitter == nil {
		return
	}
	s.emitter.Emit(ctx, events.Event{
		Type: events.EventContentChunk,
		Data: events.ContentChunkData{
			Chunk:       chunk.Delta,
			Accumulated: chunk.Content,
		},
		Timestamp: time.Now(),
	})
}
