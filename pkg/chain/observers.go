package chain

import (
	"context"
	"time"

	"github.com/ilkoid/serape-ai/pkg/events"
	"github.com/ilkoid/serape-ai/pkg/llm"
	"github.com/ilkoid/serape-ai/pkg/tools"
)

// EmitterObserver — наблюдатель, отправляющий финальные события
// выполнения через events.Emitter.
//
// Изолирует отправку EventDone/EventError от оркестрации:
// исполнитель не знает про UI, он знает про наблюдателей.
//
// Rule 5: thread-safe (делегирует thread-safety эмиттеру).
type EmitterObserver struct {
	emitter events.Emitter
	ctx     context.Context
}

// NewEmitterObserver создаёт наблюдатель над указанным эмиттером.
//
// Если emitter == nil, все уведомления становятся no-op.
func NewEmitterObserver(emitter events.Emitter) *EmitterObserver {
	return &EmitterObserver{emitter: emitter}
}

// OnStart запоминает context выполнения для последующих уведомлений.
func (o *EmitterObserver) OnStart(ctx context.Context, exec *ReActExecution) {
	o.ctx = ctx
}

// OnIterationStart — no-op: события внутри итерации отправляет
// EmitterIterationObserver.
func (o *EmitterObserver) OnIterationStart(iteration int) {}

// OnIterationEnd — no-op.
func (o *EmitterObserver) OnIterationEnd(iteration int) {}

// OnFinish отправляет EventDone (успех) или EventError (ошибка).
func (o *EmitterObserver) OnFinish(result ChainOutput, err error) {
	if o.emitter == nil {
		return
	}

	ctx := o.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	if err != nil {
		o.emitter.Emit(ctx, events.Event{
			Type:      events.EventError,
			Data:      events.ErrorData{Err: err},
			Timestamp: time.Now(),
		})
		return
	}

	o.emitter.Emit(ctx, events.Event{
		Type:      events.EventDone,
		Data:      events.MessageData{Content: result.Result},
		Timestamp: time.Now(),
	})
}

// EmitterIterationObserver отправляет события внутри итерации:
// мысли модели, запрошенные tool calls и их результаты.
//
// В отличие от ExecutionObserver эти события привязаны к данным
// итерации (конкретный tool call, конкретный результат), поэтому
// вынесены в отдельный наблюдатель с типизированными методами.
type EmitterIterationObserver struct {
	emitter events.Emitter
}

// NewEmitterIterationObserver создаёт наблюдатель над эмиттером.
func NewEmitterIterationObserver(emitter events.Emitter) *EmitterIterationObserver {
	return &EmitterIterationObserver{emitter: emitter}
}

// EmitThinking отправляет EventThinking с текстом рассуждения модели.
//
// Пустой контент не отправляется — модель сразу запросила инструменты.
func (o *EmitterIterationObserver) EmitThinking(ctx context.Context, content string) {
	if o.emitter == nil || content == "" {
		return
	}
	o.emitter.Emit(ctx, events.Event{
		Type:      events.EventThinking,
		Data:      events.ThinkingData{Query: content},
		Timestamp: time.Now(),
	})
}

// EmitToolCall отправляет EventToolCall для запрошенного вызова.
func (o *EmitterIterationObserver) EmitToolCall(ctx context.Context, tc llm.ToolCall) {
	if o.emitter == nil {
		return
	}
	o.emitter.Emit(ctx, events.Event{
		Type: events.EventToolCall,
		Data: events.ToolCallData{
			ToolCallID: tc.ID,
			ToolName:   tc.Name,
			Args:       tc.Args,
		},
		Timestamp: time.Now(),
	})
}

// EmitToolResult отправляет EventToolResult.
//
// ToolCallID в данных совпадает с исходным EventToolCall —
// UI может связать запрос и ответ.
func (o *EmitterIterationObserver) EmitToolResult(ctx context.Context, tr tools.ToolResult) {
	if o.emitter == nil {
		return
	}
	o.emitter.Emit(ctx, events.Event{
		Type: events.EventToolResult,
		Data: events.ToolResultData{
			ToolCallID: tr.ToolCallID,
			ToolName:   tr.ToolName,
			Result:     tr.Result,
			OK:         tr.OK,
			Duration:   time.Duration(tr.Duration) * time.Millisecond,
		},
		Timestamp: time.Now(),
	})
}

// EmitMessage отправляет EventMessage с финальным текстом ответа.
func (o *EmitterIterationObserver) EmitMessage(ctx context.Context, content string) {
	if o.emitter == nil || content == "" {
		return
	}
	o.emitter.Emit(ctx, events.Event{
		Type:      events.EventMessage,
		Data:      events.MessageData{Content: content},
		Timestamp: time.Now(),
	})
}

// Ensure EmitterObserver implements ExecutionObserver
var _ ExecutionObserver = (*EmitterObserver)(nil)
