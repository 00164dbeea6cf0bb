// Package openai реализует адаптер LLM провайдера для OpenAI-совместимых API.
//
// Поддерживает Function Calling (tools) и tool choice политику.
// Соблюдает правило 4 манифеста: работает только через интерфейс llm.Provider.
package openai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/ilkoid/serape-ai/pkg/config"
	"github.com/ilkoid/serape-ai/pkg/llm"
	"github.com/ilkoid/serape-ai/pkg/tools"
	"github.com/ilkoid/serape-ai/pkg/utils"
)

// Client реализует интерфейсы llm.Provider и llm.StreamingProvider
// для OpenAI-совместимых API.
//
// Поддерживает:
//   - Базовую генерацию текста
//   - Function Calling (tools) с политикой tool choice
//   - Streaming с накоплением tool call аргументов
type Client struct {
	api     *openai.Client
	model   string
	limiter *rate.Limiter

	// parallelToolCalls — дефолт из конфигурации модели,
	// переопределяется через WithParallelToolCalls
	parallelToolCalls *bool
}

// NewClient создает OpenAI клиент на основе конфигурации модели.
//
// Принимает ModelDef напрямую для упрощения создания клиентов через factory.
// Использует APIKey из конфигурации для аутентификации.
//
// Правило 2: Все настройки из конфигурации, никакого хардкода.
func NewClient(modelDef config.ModelDef) *Client {
	// Поддержка custom BaseURL для non-OpenAI провайдеров (Zai, DeepSeek и т.д.)
	cfg := openai.DefaultConfig(modelDef.APIKey)
	if modelDef.BaseURL != "" {
		cfg.BaseURL = modelDef.BaseURL
	}

	client := &Client{
		api:               openai.NewClientWithConfig(cfg),
		model:             modelDef.ModelName,
		parallelToolCalls: modelDef.ParallelToolCalls,
	}

	// Rate limiter защищает от 429 у провайдера. RateLimit в запросах
	// в минуту; 0 — без ограничения.
	if modelDef.RateLimit > 0 {
		burst := modelDef.BurstLimit
		if burst <= 0 {
			burst = 1
		}
		client.limiter = rate.NewLimiter(rate.Limit(float64(modelDef.RateLimit)/60.0), burst)
	}

	return client
}

// Generate выполняет запрос к API и возвращает ответ модели.
//
// Алгоритм:
//  1. Конвертирует внутренние сообщения в формат OpenAI SDK
//  2. Если переданы tools — добавляет их и маппит tool choice
//  3. Вызывает API (через rate limiter)
//  4. Конвертирует ответ обратно в наш формат
//  5. Извлекает ToolCalls если модель решила вызвать функции
//
// Правило 7: Все ошибки возвращаются, никаких panic.
func (c *Client) Generate(ctx context.Context, messages []llm.Message, opts ...llm.GenerateOption) (llm.Message, error) {
	startTime := time.Now()
	options := llm.ApplyOptions(opts...)

	utils.Debug("LLM request started",
		"model", c.modelFor(options),
		"messages_count", len(messages),
		"tools_count", len(options.Tools),
		"tool_choice", options.ToolChoice.String())

	req, err := c.buildRequest(messages, options)
	if err != nil {
		return llm.Message{}, err
	}

	if err := c.wait(ctx); err != nil {
		return llm.Message{}, err
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		utils.Error("LLM API request failed",
			"error", err,
			"model", req.Model,
			"duration_ms", time.Since(startTime).Milliseconds())
		return llm.Message{}, fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return llm.Message{}, fmt.Errorf("no choices in response")
	}

	result := mapFromOpenAI(resp.Choices[0].Message)

	utils.Info("LLM response received",
		"model", req.Model,
		"tool_calls_count", len(result.ToolCalls),
		"content_length", len(result.Content),
		"duration_ms", time.Since(startTime).Milliseconds())

	return result, nil
}

// buildRequest собирает ChatCompletionRequest из сообщений и опций.
func (c *Client) buildRequest(messages []llm.Message, options llm.GenerateOptions) (openai.ChatCompletionRequest, error) {
	openaiMsgs := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		openaiMsgs[i] = mapToOpenAI(m)
	}

	req := openai.ChatCompletionRequest{
		Model:    c.modelFor(options),
		Messages: openaiMsgs,
	}

	if options.Temperature > 0 {
		req.Temperature = float32(options.Temperature)
	}
	if options.MaxTokens > 0 {
		req.MaxTokens = options.MaxTokens
	}
	if options.Format == "json_object" {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	if len(options.Tools) > 0 {
		req.Tools = convertToolsToOpenAI(options.Tools)

		choice, err := convertChoiceToOpenAI(options.ToolChoice)
		if err != nil {
			return openai.ChatCompletionRequest{}, err
		}
		req.ToolChoice = choice

		parallel := c.parallelToolCalls
		if options.ParallelToolCalls != nil {
			parallel = options.ParallelToolCalls
		}
		if parallel != nil {
			req.ParallelToolCalls = *parallel
		}
	}

	return req, nil
}

// modelFor возвращает модель из опций или дефолт клиента.
func (c *Client) modelFor(options llm.GenerateOptions) string {
	if options.Model != "" {
		return options.Model
	}
	return c.model
}

// wait пропускает запрос через rate limiter (если настроен).
func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

// mapToOpenAI конвертирует наше внутреннее сообщение в формат SDK.
//
// Assistant-сообщение с tool calls и tool-сообщение с ToolCallID
// маппятся в соответствующие поля SDK — иначе API отвергнет историю.
func mapToOpenAI(m llm.Message) openai.ChatCompletionMessage {
	msg := openai.ChatCompletionMessage{
		Role:    m.Role,
		Content: m.Content,
	}

	if m.ToolCallID != "" {
		msg.ToolCallID = m.ToolCallID
	}

	for _, tc := range m.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
			ID:   tc.ID,
			Type: openai.ToolTypeFunction,
			Function: openai.FunctionCall{
				Name:      tc.Name,
				Arguments: tc.Args,
			},
		})
	}

	return msg
}

// mapFromOpenAI конвертирует ответ SDK в наш формат.
func mapFromOpenAI(choice openai.ChatCompletionMessage) llm.Message {
	result := llm.Message{
		Role:    choice.Role,
		Content: choice.Content,
	}

	if len(choice.ToolCalls) > 0 {
		result.ToolCalls = make([]llm.ToolCall, len(choice.ToolCalls))
		for i, tc := range choice.ToolCalls {
			result.ToolCalls[i] = llm.ToolCall{
				ID:   tc.ID,
				Name: tc.Function.Name,
				Args: tc.Function.Arguments,
			}
		}
	}

	return result
}

// convertToolsToOpenAI конвертирует определения инструментов во внутреннем формате
// в формат OpenAI Function Calling.
//
// Соответствие структур:
//   tools.ToolDefinition → openai.Tool (type=function)
//   Parameters (*tools.Schema) → openai.FunctionDefinition.Parameters
//
// Schema сериализуется в JSON Schema объект и напрямую передаётся в SDK.
func convertToolsToOpenAI(defs []tools.ToolDefinition) []openai.Tool {
	result := make([]openai.Tool, len(defs))

	for i, def := range defs {
		result[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  def.Parameters,
			},
		}
	}

	return result
}

// convertChoiceToOpenAI маппит нашу политику tool choice на wire-формат OpenAI.
//
// Соответствие:
//   auto | required | none → строка
//   tool:<name>            → {"type":"function","function":{"name":...}}
func convertChoiceToOpenAI(choice tools.Choice) (any, error) {
	choice = choice.Normalize()

	switch choice.Mode {
	case tools.ChoiceAuto, tools.ChoiceRequired, tools.ChoiceNone:
		return string(choice.Mode), nil
	case tools.ChoiceTool:
		return openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: choice.ToolName},
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", tools.ErrUnknownChoice, choice.Mode)
	}
}
