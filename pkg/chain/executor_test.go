// Package chain предоставляет Chain Pattern для AI агента.
package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/ilkoid/serape-ai/pkg/config"
	"github.com/ilkoid/serape-ai/pkg/llm"
	"github.com/ilkoid/serape-ai/pkg/models"
	"github.com/ilkoid/serape-ai/pkg/tools"
)

// TestStepExecutorInterface verifies that ReActExecutor implements StepExecutor.
func TestStepExecutorInterface(t *testing.T) {
	var _ StepExecutor = (*ReActExecutor)(nil)
}

// TestNewReActExecutor verifies executor creation.
func TestNewReActExecutor(t *testing.T) {
	executor := NewReActExecutor()

	if executor == nil {
		t.Fatal("NewReActExecutor returned nil")
	}

	if executor.observers == nil {
		t.Error("observers slice not initialized")
	}
}

// scriptedProvider is a fake llm.Provider that replays a fixed sequence
// of responses and records the options of every request.
type scriptedProvider struct {
	responses []llm.Message
	calls     int
	seenOpts  []llm.GenerateOptions
}

func (p *scriptedProvider) Generate(ctx context.Context, messages []llm.Message, opts ...llm.GenerateOption) (llm.Message, error) {
	p.seenOpts = append(p.seenOpts, llm.ApplyOptions(opts...))

	if p.calls >= len(p.responses) {
		return llm.Message{}, fmt.Errorf("scripted provider exhausted after %d calls", p.calls)
	}
	msg := p.responses[p.calls]
	p.calls++
	return msg, nil
}

// newTestCycle wires a ReActCycle around a scripted provider and an
// echo tool that returns its "text" argument back.
func newTestCycle(t *testing.T, provider llm.Provider, cfg ReActCycleConfig) (*ReActCycle, *tools.Registry) {
	t.Helper()

	modelRegistry := models.NewRegistry()
	if err := modelRegistry.Register("test-model", config.ModelDef{ModelName: "test-model"}, provider); err != nil {
		t.Fatalf("failed to register model: %v", err)
	}

	registry := tools.NewRegistry()
	echo := tools.NewFuncTool("echo", "Echo the text back", tools.Object(map[string]*tools.Schema{
		"text": tools.String("Text to echo"),
	}, "text"), func(ctx context.Context, args json.RawMessage) (string, error) {
		var a struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(args, &a); err != nil {
			return "", err
		}
		return "echo: " + a.Text, nil
	})
	if err := registry.Register(echo); err != nil {
		t.Fatalf("failed to register tool: %v", err)
	}

	cycle := NewReActCycle(cfg)
	cycle.SetModelRegistry(modelRegistry, "test-model")
	cycle.SetRegistry(registry)
	cycle.SetDispatcher(tools.NewDispatcher(registry))

	return cycle, registry
}

// TestReActExecutorFullCycle runs one tool-calling iteration followed
// by a final answer and checks the assembled ChainOutput.
func TestReActExecutorFullCycle(t *testing.T) {
	provider := &scriptedProvider{
		responses: []llm.Message{
			{
				Role: llm.RoleAssistant,
				ToolCalls: []llm.ToolCall{
					{ID: "call_1", Name: "echo", Args: `{"text":"hello"}`},
				},
			},
			llm.AssistantMessage("The echo said hello."),
		},
	}

	cycle, _ := newTestCycle(t, provider, NewReActCycleConfig())

	output, err := cycle.Execute(context.Background(), ChainInput{UserQuery: "say hello"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if output.Result != "The echo said hello." {
		t.Errorf("unexpected result: %q", output.Result)
	}
	if output.Iterations != 2 {
		t.Errorf("expected 2 iterations, got %d", output.Iterations)
	}
	if output.Signal != SignalFinalAnswer {
		t.Errorf("expected SignalFinalAnswer, got %v", output.Signal)
	}

	if len(output.ToolResults) != 1 {
		t.Fatalf("expected 1 tool result, got %d", len(output.ToolResults))
	}
	tr := output.ToolResults[0]
	if tr.ToolCallID != "call_1" || tr.ToolName != "echo" {
		t.Errorf("tool result identity mismatch: %+v", tr)
	}
	if !tr.OK {
		t.Errorf("tool result not OK: %s", tr.Result)
	}
	if tr.Result != "echo: hello" {
		t.Errorf("unexpected tool result: %q", tr.Result)
	}

	// History: user, assistant(tool_calls), tool, assistant(final)
	if len(output.FinalState) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(output.FinalState))
	}
	if output.FinalState[2].Role != llm.RoleTool || output.FinalState[2].ToolCallID != "call_1" {
		t.Errorf("tool message mismatch: %+v", output.FinalState[2])
	}
}

// TestReActExecutorMaxIterations verifies the loop stops with
// SignalMaxIterations when the model keeps calling tools.
func TestReActExecutorMaxIterations(t *testing.T) {
	toolCallMsg := llm.Message{
		Role: llm.RoleAssistant,
		ToolCalls: []llm.ToolCall{
			{ID: "call_loop", Name: "echo", Args: `{"text":"again"}`},
		},
	}

	provider := &scriptedProvider{
		responses: []llm.Message{toolCallMsg, toolCallMsg, toolCallMsg},
	}

	cfg := NewReActCycleConfig()
	cfg.MaxIterations = 3
	cycle, _ := newTestCycle(t, provider, cfg)

	output, err := cycle.Execute(context.Background(), ChainInput{UserQuery: "loop forever"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if output.Signal != SignalMaxIterations {
		t.Errorf("expected SignalMaxIterations, got %v", output.Signal)
	}
	if output.Iterations != 3 {
		t.Errorf("expected 3 iterations, got %d", output.Iterations)
	}
	if len(output.ToolResults) != 3 {
		t.Errorf("expected 3 tool results, got %d", len(output.ToolResults))
	}
}

// TestReActExecutorToolErrorFedBack verifies that a failing tool does
// not abort the loop: the error text goes back to the model.
func TestReActExecutorToolErrorFedBack(t *testing.T) {
	provider := &scriptedProvider{
		responses: []llm.Message{
			{
				Role: llm.RoleAssistant,
				ToolCalls: []llm.ToolCall{
					{ID: "call_bad", Name: "failing", Args: `{}`},
				},
			},
			llm.AssistantMessage("The tool failed, sorry."),
		},
	}

	modelRegistry := models.NewRegistry()
	if err := modelRegistry.Register("test-model", config.ModelDef{ModelName: "test-model"}, provider); err != nil {
		t.Fatalf("failed to register model: %v", err)
	}

	registry := tools.NewRegistry()
	failing := tools.NewFuncTool("failing", "Always fails", tools.Object(nil),
		func(ctx context.Context, args json.RawMessage) (string, error) {
			return "", errors.New("boom")
		})
	if err := registry.Register(failing); err != nil {
		t.Fatalf("failed to register tool: %v", err)
	}

	cycle := NewReActCycle(NewReActCycleConfig())
	cycle.SetModelRegistry(modelRegistry, "test-model")
	cycle.SetRegistry(registry)
	cycle.SetDispatcher(tools.NewDispatcher(registry))

	output, err := cycle.Execute(context.Background(), ChainInput{UserQuery: "try it"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if output.Result != "The tool failed, sorry." {
		t.Errorf("unexpected result: %q", output.Result)
	}
	if len(output.ToolResults) != 1 {
		t.Fatalf("expected 1 tool result, got %d", len(output.ToolResults))
	}
	if output.ToolResults[0].OK {
		t.Error("expected OK=false for failing tool")
	}
}

// mockObserver is a mock ExecutionObserver for testing.
type mockObserver struct {
	startCalls          int
	iterationStartCalls int
	iterationEndCalls   int
	finishCalls         int
	lastResult          ChainOutput
	lastError           error
}

func (m *mockObserver) OnStart(ctx context.Context, exec *ReActExecution) {
	m.startCalls++
}

func (m *mockObserver) OnIterationStart(iteration int) {
	m.iterationStartCalls++
}

func (m *mockObserver) OnIterationEnd(iteration int) {
	m.iterationEndCalls++
}

func (m *mockObserver) OnFinish(result ChainOutput, err error) {
	m.finishCalls++
	m.lastResult = result
	m.lastError = err
}

// TestReActExecutorObserverNotifications verifies observer lifecycle.
func TestReActExecutorObserverNotifications(t *testing.T) {
	provider := &scriptedProvider{
		responses: []llm.Message{
			llm.AssistantMessage("direct answer"),
		},
	}

	cycle, registry := newTestCycle(t, provider, NewReActCycleConfig())

	input := ChainInput{
		UserQuery:  "test query",
		Registry:   registry,
		Dispatcher: tools.NewDispatcher(registry),
	}

	execution := NewReActExecution(
		input,
		cycle.llmStep,
		cycle.toolStep,
		nil,
		nil,
		false,
		&cycle.config,
	)

	executor := NewReActExecutor()
	observer := &mockObserver{}
	executor.AddObserver(observer)

	output, err := executor.Execute(context.Background(), execution)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if observer.startCalls != 1 {
		t.Errorf("expected 1 OnStart call, got %d", observer.startCalls)
	}
	if observer.finishCalls != 1 {
		t.Errorf("expected 1 OnFinish call, got %d", observer.finishCalls)
	}
	if observer.iterationStartCalls != 1 {
		t.Errorf("expected 1 OnIterationStart call, got %d", observer.iterationStartCalls)
	}
	if observer.lastResult.Result != output.Result {
		t.Errorf("observer saw different result: %q vs %q", observer.lastResult.Result, output.Result)
	}
}

// TestReActExecutorLLMErrorNotifiesObservers verifies OnFinish receives
// the error when the provider fails.
func TestReActExecutorLLMErrorNotifiesObservers(t *testing.T) {
	provider := &scriptedProvider{responses: nil} // exhausted immediately

	cycle, _ := newTestCycle(t, provider, NewReActCycleConfig())

	executor := NewReActExecutor()
	observer := &mockObserver{}
	executor.AddObserver(observer)

	execution := NewReActExecution(
		ChainInput{UserQuery: "fail", Registry: cycle.registry, Dispatcher: cycle.dispatcher},
		cycle.llmStep,
		cycle.toolStep,
		nil,
		nil,
		false,
		&cycle.config,
	)

	_, err := executor.Execute(context.Background(), execution)
	if err == nil {
		t.Fatal("expected error from exhausted provider")
	}
	if observer.finishCalls != 1 {
		t.Errorf("expected 1 OnFinish call, got %d", observer.finishCalls)
	}
	if observer.lastError == nil {
		t.Error("observer did not receive the error")
	}
}
