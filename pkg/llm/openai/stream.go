// Streaming реализация для OpenAI-совместимых API.
//
// Модель стримит аргументы tool calls кусками: сначала приходит ID и
// имя функции, затем инкременты JSON аргументов. Аккумулируем их по
// index из delta и собираем финальные ToolCalls.
package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ilkoid/serape-ai/pkg/llm"
	"github.com/ilkoid/serape-ai/pkg/utils"
)

// GenerateStream выполняет запрос с потоковой передачей ответа.
//
// Реализует llm.StreamingProvider. Callback получает ChunkContent для
// текста, ChunkToolCall для инкрементов аргументов и ChunkDone в конце.
//
// Rule 11: уважает context.Context — отмена прерывает стрим.
func (c *Client) GenerateStream(
	ctx context.Context,
	messages []llm.Message,
	callback func(llm.StreamChunk),
	opts ...llm.GenerateOption,
) (llm.Message, error) {
	startTime := time.Now()
	options := llm.ApplyOptions(opts...)

	req, err := c.buildRequest(messages, options)
	if err != nil {
		return llm.Message{}, err
	}
	req.Stream = true

	if err := c.wait(ctx); err != nil {
		return llm.Message{}, err
	}

	stream, err := c.api.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return llm.Message{}, fmt.Errorf("openai stream error: %w", err)
	}
	defer stream.Close()

	var content strings.Builder
	acc := newToolCallAccumulator()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if callback != nil {
				callback(llm.StreamChunk{Type: llm.ChunkError, Error: err})
			}
			return llm.Message{}, fmt.Errorf("openai stream recv: %w", err)
		}

		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta

		if delta.Content != "" {
			content.WriteString(delta.Content)
			if callback != nil {
				callback(llm.StreamChunk{
					Type:    llm.ChunkContent,
					Delta:   delta.Content,
					Content: content.String(),
				})
			}
		}

		for _, tc := range delta.ToolCalls {
			chunk := acc.add(tc)
			if callback != nil && chunk.Delta != "" {
				callback(chunk)
			}
		}
	}

	result := llm.Message{
		Role:      llm.RoleAssistant,
		Content:   content.String(),
		ToolCalls: acc.calls(),
	}

	if callback != nil {
		callback(llm.StreamChunk{
			Type:    llm.ChunkDone,
			Content: result.Content,
			Done:    true,
		})
	}

	utils.Info("LLM stream finished",
		"model", req.Model,
		"tool_calls_count", len(result.ToolCalls),
		"content_length", len(result.Content),
		"duration_ms", time.Since(startTime).Milliseconds())

	return result, nil
}

// toolCallAccumulator собирает tool calls из стриминговых delta.
//
// SDK присылает Index для каждого инкремента; ID и имя приходят в
// первой delta вызова, дальше только куски Arguments.
type toolCallAccumulator struct {
	order []int
	byIdx map[int]*llm.ToolCall
}

func newToolCallAccumulator() *toolCallAccumulator {
	return &toolCallAccumulator{byIdx: make(map[int]*llm.ToolCall)}
}

// add применяет одну delta и возвращает чанк для callback.
func (a *toolCallAccumulator) add(tc openai.ToolCall) llm.StreamChunk {
	idx := 0
	if tc.Index != nil {
		idx = *tc.Index
	}

	call, ok := a.byIdx[idx]
	if !ok {
		call = &llm.ToolCall{}
		a.byIdx[idx] = call
		a.order = append(a.order, idx)
	}

	if tc.ID != "" {
		call.ID = tc.ID
	}
	if tc.Function.Name != "" {
		call.Name = tc.Function.Name
	}
	call.Args += tc.Function.Arguments

	return llm.StreamChunk{
		Type:       llm.ChunkToolCall,
		ToolCallID: call.ID,
		ToolName:   call.Name,
		Delta:      tc.Function.Arguments,
		Content:    call.Args,
	}
}

// calls возвращает собранные tool calls в порядке появления.
func (a *toolCallAccumulator) calls() []llm.ToolCall {
	if len(a.order) == 0 {
		return nil
	}
	result := make([]llm.ToolCall, 0, len(a.order))
	for _, idx := range a.order {
		result = append(result, *a.byIdx[idx])
	}
	return result
}

// Ensure Client implements both provider interfaces
var (
	_ llm.Provider          = (*Client)(nil)
	_ llm.StreamingProvider = (*Client)(nil)
)
