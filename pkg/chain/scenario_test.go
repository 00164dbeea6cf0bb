package chain

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/ilkoid/serape-ai/pkg/config"
	"github.com/ilkoid/serape-ai/pkg/llm"
	"github.com/ilkoid/serape-ai/pkg/models"
	"github.com/ilkoid/serape-ai/pkg/tools"
	"github.com/ilkoid/serape-ai/pkg/tools/std"
)

// TestWeatherScenarioRequiredChoice runs the canonical end-to-end flow:
// required choice forces a weather call on the first turn, the real
// weather tool produces a forecast, and the model answers from it.
func TestWeatherScenarioRequiredChoice(t *testing.T) {
	provider := &scriptedProvider{
		responses: []llm.Message{
			{
				Role: llm.RoleAssistant,
				ToolCalls: []llm.ToolCall{
					{ID: "call_w1", Name: "get_weather", Args: `{"location":"San Francisco"}`},
				},
			},
			llm.AssistantMessage("It is mild in San Francisco today."),
		},
	}

	modelRegistry := models.NewRegistry()
	if err := modelRegistry.Register("test-model", config.ModelDef{ModelName: "test-model"}, provider); err != nil {
		t.Fatalf("failed to register model: %v", err)
	}

	registry := tools.NewRegistry()
	if err := registry.Register(std.NewWeatherTool()); err != nil {
		t.Fatalf("failed to register weather tool: %v", err)
	}

	cycle := NewReActCycle(NewReActCycleConfig())
	cycle.SetModelRegistry(modelRegistry, "test-model")
	cycle.SetRegistry(registry)
	cycle.SetDispatcher(tools.NewDispatcher(registry))

	output, err := cycle.Execute(context.Background(), ChainInput{
		UserQuery:  "What's the weather in San Francisco?",
		ToolChoice: tools.Required(),
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if output.Result != "It is mild in San Francisco today." {
		t.Errorf("unexpected result: %q", output.Result)
	}

	// The produced call names the weather tool with a non-empty location.
	if len(output.ToolResults) != 1 {
		t.Fatalf("expected 1 tool result, got %d", len(output.ToolResults))
	}
	tr := output.ToolResults[0]
	if tr.ToolCallID != "call_w1" || tr.ToolName != "get_weather" {
		t.Errorf("tool result identity mismatch: %+v", tr)
	}
	if !tr.OK {
		t.Fatalf("weather call failed: %s", tr.Result)
	}

	var callArgs struct {
		Location string `json:"location"`
	}
	if err := json.Unmarshal([]byte(tr.Args), &callArgs); err != nil {
		t.Fatalf("failed to parse call args: %v", err)
	}
	if callArgs.Location == "" {
		t.Error("expected non-empty location in call args")
	}

	// The forecast carries the location back plus a temperature number.
	var forecast struct {
		Location    string   `json:"location"`
		Temperature *float64 `json:"temperature"`
	}
	if err := json.Unmarshal([]byte(tr.Result), &forecast); err != nil {
		t.Fatalf("failed to parse forecast: %v", err)
	}
	if forecast.Location != "San Francisco" {
		t.Errorf("expected San Francisco, got %q", forecast.Location)
	}
	if forecast.Temperature == nil {
		t.Error("expected a temperature number in the forecast")
	}

	// Required is enforced on the first turn and relaxed afterwards.
	if len(provider.seenOpts) != 2 {
		t.Fatalf("expected 2 LLM turns, got %d", len(provider.seenOpts))
	}
	if provider.seenOpts[0].ToolChoice.Mode != tools.ChoiceRequired {
		t.Errorf("first turn: expected required, got %s", provider.seenOpts[0].ToolChoice.Mode)
	}
	if provider.seenOpts[1].ToolChoice.Mode != tools.ChoiceAuto {
		t.Errorf("second turn: expected auto after satisfied, got %s", provider.seenOpts[1].ToolChoice.Mode)
	}
}
