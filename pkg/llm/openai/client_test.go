package openai

import (
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ilkoid/serape-ai/pkg/config"
	"github.com/ilkoid/serape-ai/pkg/llm"
	"github.com/ilkoid/serape-ai/pkg/tools"
)

// TestConvertChoiceToOpenAI checks the wire mapping for all policy modes.
func TestConvertChoiceToOpenAI(t *testing.T) {
	tests := []struct {
		name   string
		choice tools.Choice
		want   string
	}{
		{"auto", tools.Auto(), "auto"},
		{"required", tools.Required(), "required"},
		{"none", tools.None(), "none"},
		{"zero value means auto", tools.Choice{}, "auto"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := convertChoiceToOpenAI(tt.choice)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %v", tt.want, got)
			}
		})
	}
}

// TestConvertChoiceToOpenAIForcedTool checks the object form for tool:<name>.
func TestConvertChoiceToOpenAIForcedTool(t *testing.T) {
	got, err := convertChoiceToOpenAI(tools.ForceTool("get_weather"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tc, ok := got.(openai.ToolChoice)
	if !ok {
		t.Fatalf("expected openai.ToolChoice, got %T", got)
	}
	if tc.Type != openai.ToolTypeFunction {
		t.Errorf("expected function type, got %s", tc.Type)
	}
	if tc.Function.Name != "get_weather" {
		t.Errorf("expected get_weather, got %s", tc.Function.Name)
	}
}

// TestConvertChoiceToOpenAIUnknown checks rejection of unknown modes.
func TestConvertChoiceToOpenAIUnknown(t *testing.T) {
	_, err := convertChoiceToOpenAI(tools.Choice{Mode: "sometimes"})
	if !errors.Is(err, tools.ErrUnknownChoice) {
		t.Errorf("expected ErrUnknownChoice, got %v", err)
	}
}

// TestMapToOpenAIRoundTrip checks message conversion including tool calls.
func TestMapToOpenAIRoundTrip(t *testing.T) {
	assistant := llm.Message{
		Role:    llm.RoleAssistant,
		Content: "",
		ToolCalls: []llm.ToolCall{
			{ID: "call_1", Name: "get_weather", Args: `{"location":"Oslo"}`},
		},
	}

	mapped := mapToOpenAI(assistant)
	if len(mapped.ToolCalls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(mapped.ToolCalls))
	}
	if mapped.ToolCalls[0].Type != openai.ToolTypeFunction {
		t.Errorf("expected function type, got %s", mapped.ToolCalls[0].Type)
	}
	if mapped.ToolCalls[0].Function.Name != "get_weather" {
		t.Errorf("expected get_weather, got %s", mapped.ToolCalls[0].Function.Name)
	}

	back := mapFromOpenAI(mapped)
	if len(back.ToolCalls) != 1 || back.ToolCalls[0].ID != "call_1" {
		t.Errorf("round trip lost tool call identity: %+v", back.ToolCalls)
	}

	// Tool result message must carry ToolCallID.
	toolMsg := mapToOpenAI(llm.ToolMessage("call_1", "+20C"))
	if toolMsg.ToolCallID != "call_1" {
		t.Errorf("expected call_1, got %s", toolMsg.ToolCallID)
	}
	if toolMsg.Role != llm.RoleTool {
		t.Errorf("expected tool role, got %s", toolMsg.Role)
	}
}

// TestBuildRequestWithTools checks tools, choice and parallel flag wiring.
func TestBuildRequestWithTools(t *testing.T) {
	parallel := false
	client := NewClient(config.ModelDef{
		ModelName:         "gpt-4o-mini",
		APIKey:            "sk-test",
		ParallelToolCalls: &parallel,
	})

	defs := []tools.ToolDefinition{
		{
			Name:        "get_weather",
			Description: "Прогноз погоды",
			Parameters: tools.Object(map[string]*tools.Schema{
				"location": tools.String("Город"),
			}, "location"),
		},
	}

	req, err := client.buildRequest(
		[]llm.Message{llm.UserMessage("погода в Осло")},
		llm.ApplyOptions(
			llm.WithTools(defs),
			llm.WithToolChoice(tools.Required()),
			llm.WithMaxTokens(500),
		),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if req.Model != "gpt-4o-mini" {
		t.Errorf("expected gpt-4o-mini, got %s", req.Model)
	}
	if len(req.Tools) != 1 || req.Tools[0].Function.Name != "get_weather" {
		t.Fatalf("tools not wired: %+v", req.Tools)
	}
	if req.ToolChoice != "required" {
		t.Errorf("expected required, got %v", req.ToolChoice)
	}
	if req.ParallelToolCalls != false {
		t.Errorf("expected parallel tool calls disabled")
	}
	if req.MaxTokens != 500 {
		t.Errorf("expected 500 max tokens, got %d", req.MaxTokens)
	}
}

// TestBuildRequestModelOverride checks WithModel over the client default.
func TestBuildRequestModelOverride(t *testing.T) {
	client := NewClient(config.ModelDef{ModelName: "default-model", APIKey: "sk"})

	req, err := client.buildRequest(
		[]llm.Message{llm.UserMessage("hi")},
		llm.ApplyOptions(llm.WithModel("override-model")),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Model != "override-model" {
		t.Errorf("expected override-model, got %s", req.Model)
	}
}

// TestBuildRequestWithoutToolsSkipsChoice checks that tool choice is not
// sent when no tools are attached.
func TestBuildRequestWithoutToolsSkipsChoice(t *testing.T) {
	client := NewClient(config.ModelDef{ModelName: "m", APIKey: "sk"})

	req, err := client.buildRequest(
		[]llm.Message{llm.UserMessage("hi")},
		llm.ApplyOptions(llm.WithToolChoice(tools.Required())),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.ToolChoice != nil {
		t.Errorf("expected nil tool choice without tools, got %v", req.ToolChoice)
	}
}
