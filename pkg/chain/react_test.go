// Package chain предоставляет Chain Pattern для AI агента.
package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/ilkoid/serape-ai/pkg/llm"
	"github.com/ilkoid/serape-ai/pkg/tools"
)

// TestReActCycleImplementsChain verifies interface compliance.
func TestReActCycleImplementsChain(t *testing.T) {
	var _ Chain = (*ReActCycle)(nil)
	var _ Agent = (*ReActCycle)(nil)
}

// TestValidateDependencies verifies Execute fails fast without deps.
func TestValidateDependencies(t *testing.T) {
	cycle := NewReActCycle(NewReActCycleConfig())

	_, err := cycle.Execute(context.Background(), ChainInput{UserQuery: "hi"})
	if err == nil {
		t.Fatal("expected error for missing model registry")
	}
}

// TestToolChoiceRequiredViolation: policy demands a tool call, the
// model answers in plain text — the run must fail with ErrNoToolCall.
func TestToolChoiceRequiredViolation(t *testing.T) {
	provider := &scriptedProvider{
		responses: []llm.Message{
			llm.AssistantMessage("I refuse to use tools."),
		},
	}

	cycle, _ := newTestCycle(t, provider, NewReActCycleConfig())

	_, err := cycle.Execute(context.Background(), ChainInput{
		UserQuery:  "echo something",
		ToolChoice: tools.Required(),
	})
	if !errors.Is(err, tools.ErrNoToolCall) {
		t.Fatalf("expected ErrNoToolCall, got %v", err)
	}
}

// TestToolChoiceNoneViolation: tool calls are forbidden but the model
// emits one anyway.
func TestToolChoiceNoneViolation(t *testing.T) {
	provider := &scriptedProvider{
		responses: []llm.Message{
			{
				Role: llm.RoleAssistant,
				ToolCalls: []llm.ToolCall{
					{ID: "call_x", Name: "echo", Args: `{"text":"nope"}`},
				},
			},
		},
	}

	cycle, _ := newTestCycle(t, provider, NewReActCycleConfig())

	_, err := cycle.Execute(context.Background(), ChainInput{
		UserQuery:  "no tools please",
		ToolChoice: tools.None(),
	})
	if !errors.Is(err, tools.ErrToolCallForbidden) {
		t.Fatalf("expected ErrToolCallForbidden, got %v", err)
	}
}

// TestToolChoiceForcedWrongTool: the model calls a different tool than
// the one it was forced to use.
func TestToolChoiceForcedWrongTool(t *testing.T) {
	provider := &scriptedProvider{
		responses: []llm.Message{
			{
				Role: llm.RoleAssistant,
				ToolCalls: []llm.ToolCall{
					{ID: "call_y", Name: "echo", Args: `{"text":"wrong"}`},
				},
			},
		},
	}

	cycle, _ := newTestCycle(t, provider, NewReActCycleConfig())

	_, err := cycle.Execute(context.Background(), ChainInput{
		UserQuery:  "use the other tool",
		ToolChoice: tools.ForceTool("other_tool"),
	})
	if !errors.Is(err, tools.ErrWrongTool) {
		t.Fatalf("expected ErrWrongTool, got %v", err)
	}
}

// TestToolChoiceRequiredRelaxesAfterSatisfied: required is enforced on
// the first turn only; once a tool ran, the policy downgrades to auto
// so the model can produce a final answer.
func TestToolChoiceRequiredRelaxesAfterSatisfied(t *testing.T) {
	provider := &scriptedProvider{
		responses: []llm.Message{
			{
				Role: llm.RoleAssistant,
				ToolCalls: []llm.ToolCall{
					{ID: "call_1", Name: "echo", Args: `{"text":"first"}`},
				},
			},
			llm.AssistantMessage("done"),
		},
	}

	cycle, _ := newTestCycle(t, provider, NewReActCycleConfig())

	output, err := cycle.Execute(context.Background(), ChainInput{
		UserQuery:  "must use a tool once",
		ToolChoice: tools.Required(),
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if output.Result != "done" {
		t.Errorf("unexpected result: %q", output.Result)
	}

	// The second request must carry the relaxed policy.
	if len(provider.seenOpts) != 2 {
		t.Fatalf("expected 2 LLM requests, got %d", len(provider.seenOpts))
	}
	if provider.seenOpts[0].ToolChoice.Mode != tools.ChoiceRequired {
		t.Errorf("first request choice = %v, want required", provider.seenOpts[0].ToolChoice.Mode)
	}
	if provider.seenOpts[1].ToolChoice.Mode != tools.ChoiceAuto {
		t.Errorf("second request choice = %v, want auto", provider.seenOpts[1].ToolChoice.Mode)
	}
}

// TestToolChoiceForcedHappyPath: forced tool is called and the policy
// relaxes for the follow-up turn.
func TestToolChoiceForcedHappyPath(t *testing.T) {
	provider := &scriptedProvider{
		responses: []llm.Message{
			{
				Role: llm.RoleAssistant,
				ToolCalls: []llm.ToolCall{
					{ID: "call_f", Name: "echo", Args: `{"text":"forced"}`},
				},
			},
			llm.AssistantMessage("forced tool done"),
		},
	}

	cycle, _ := newTestCycle(t, provider, NewReActCycleConfig())

	output, err := cycle.Execute(context.Background(), ChainInput{
		UserQuery:  "call echo",
		ToolChoice: tools.ForceTool("echo"),
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(output.ToolResults) != 1 || output.ToolResults[0].Result != "echo: forced" {
		t.Errorf("unexpected tool results: %+v", output.ToolResults)
	}
}

// TestToolChoiceNoneStillSendsDefinitions: with none the model must
// still see the tool definitions, just not be allowed to call them.
func TestToolChoiceNoneStillSendsDefinitions(t *testing.T) {
	provider := &scriptedProvider{
		responses: []llm.Message{
			llm.AssistantMessage("plain answer"),
		},
	}

	cycle, _ := newTestCycle(t, provider, NewReActCycleConfig())

	output, err := cycle.Execute(context.Background(), ChainInput{
		UserQuery:  "just answer",
		ToolChoice: tools.None(),
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if output.Result != "plain answer" {
		t.Errorf("unexpected result: %q", output.Result)
	}

	if len(provider.seenOpts) != 1 {
		t.Fatalf("expected 1 LLM request, got %d", len(provider.seenOpts))
	}
	if len(provider.seenOpts[0].Tools) == 0 {
		t.Error("tool definitions were not sent with none policy")
	}
	if provider.seenOpts[0].ToolChoice.Mode != tools.ChoiceNone {
		t.Errorf("request choice = %v, want none", provider.seenOpts[0].ToolChoice.Mode)
	}
}

// TestRunConvenience verifies the Agent-style Run wrapper.
func TestRunConvenience(t *testing.T) {
	provider := &scriptedProvider{
		responses: []llm.Message{
			llm.AssistantMessage("42"),
		},
	}

	cycle, _ := newTestCycle(t, provider, NewReActCycleConfig())

	result, err := cycle.Run(context.Background(), "what is the answer")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result != "42" {
		t.Errorf("unexpected result: %q", result)
	}
}
