// Package llm provides options pattern for LLM generation parameters.
//
// This package implements functional options for runtime parameter overrides
// while maintaining backward compatibility with existing code.
package llm

import "github.com/ilkoid/serape-ai/pkg/tools"

// GenerateOptions holds parameters for LLM generation.
// These options can be set at initialization (from config.yaml) and
// overridden at runtime (from direct calls).
type GenerateOptions struct {
	// Model is the model identifier (e.g., "gpt-4o", "glm-4.6")
	Model string

	// Temperature controls randomness in responses (0.0 = deterministic, 1.0 = random)
	Temperature float64

	// MaxTokens limits the response length
	MaxTokens int

	// Format specifies response format (e.g., "json_object" for structured output)
	Format string

	// Tools is the list of tool definitions advertised to the model
	// for Function Calling. Empty slice means no tools.
	Tools []tools.ToolDefinition

	// ToolChoice constrains whether/which tool the model must invoke.
	// Zero value means "auto". Ignored when Tools is empty.
	ToolChoice tools.Choice

	// ParallelToolCalls controls whether LLM can call multiple tools at once.
	// nil = use model default from config.yaml
	ParallelToolCalls *bool
}

// GenerateOption is a functional option for configuring GenerateOptions.
type GenerateOption func(*GenerateOptions)

// ApplyOptions builds GenerateOptions from a list of functional options.
func ApplyOptions(opts ...GenerateOption) GenerateOptions {
	var o GenerateOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithModel sets the model for generation.
// Runtime override: takes precedence over config.yaml default.
func WithModel(model string) GenerateOption {
	return func(o *GenerateOptions) {
		o.Model = model
	}
}

// WithTemperature sets the temperature for generation.
func WithTemperature(temp float64) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = temp
	}
}

// WithMaxTokens sets the maximum tokens for generation.
func WithMaxTokens(tokens int) GenerateOption {
	return func(o *GenerateOptions) {
		o.MaxTokens = tokens
	}
}

// WithFormat sets the response format for generation.
// Use "json_object" for structured JSON output.
func WithFormat(format string) GenerateOption {
	return func(o *GenerateOptions) {
		o.Format = format
	}
}

// WithTools advertises tool definitions to the model.
func WithTools(defs []tools.ToolDefinition) GenerateOption {
	return func(o *GenerateOptions) {
		o.Tools = defs
	}
}

// WithToolChoice constrains the model's tool use for this request.
// Accepts tools.Auto(), tools.Required(), tools.None() or
// tools.ForceTool(name).
func WithToolChoice(choice tools.Choice) GenerateOption {
	return func(o *GenerateOptions) {
		o.ToolChoice = choice
	}
}

// WithParallelToolCalls controls whether the model may emit several
// tool calls in a single turn.
func WithParallelToolCalls(enabled bool) GenerateOption {
	return func(o *GenerateOptions) {
		o.ParallelToolCalls = &enabled
	}
}
