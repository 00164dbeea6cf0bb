package agent

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/ilkoid/serape-ai/pkg/config"
	"github.com/ilkoid/serape-ai/pkg/events"
	"github.com/ilkoid/serape-ai/pkg/tools"
)

func testAppConfig() *config.AppConfig {
	return &config.AppConfig{
		Models: config.ModelsConfig{
			DefaultChat: "test",
			Definitions: map[string]config.ModelDef{
				"test": {
					Provider:  "openai",
					ModelName: "gpt-4o-mini",
					APIKey:    "test-key",
				},
			},
		},
	}
}

func TestNewFromConfigRegistersStdTools(t *testing.T) {
	client, err := NewFromConfig(context.Background(), testAppConfig(), Config{})
	if err != nil {
		t.Fatalf("NewFromConfig failed: %v", err)
	}
	defer client.Close()

	registry := client.GetToolsRegistry()
	for _, name := range []string{"get_weather", "current_time", "http_fetch"} {
		if !registry.Has(name) {
			t.Errorf("std tool %q not registered", name)
		}
	}

	// S3 not configured — s3 tools must be absent
	if registry.Has("s3_list_objects") {
		t.Error("s3 tools registered without s3 config")
	}
}

func TestNewFromConfigDisabledTool(t *testing.T) {
	cfg := testAppConfig()
	cfg.Tools = map[string]config.ToolConfig{
		"http_fetch": {Enabled: false},
	}

	client, err := NewFromConfig(context.Background(), cfg, Config{})
	if err != nil {
		t.Fatalf("NewFromConfig failed: %v", err)
	}
	defer client.Close()

	if client.GetToolsRegistry().Has("http_fetch") {
		t.Error("disabled tool was registered")
	}
	if !client.GetToolsRegistry().Has("get_weather") {
		t.Error("tool without config section must stay enabled")
	}
}

func TestRegisterCustomTool(t *testing.T) {
	client, err := NewFromConfig(context.Background(), testAppConfig(), Config{})
	if err != nil {
		t.Fatalf("NewFromConfig failed: %v", err)
	}
	defer client.Close()

	custom := tools.NewFuncTool("custom_tool", "A custom tool", tools.Object(nil),
		func(ctx context.Context, args json.RawMessage) (string, error) {
			return "ok", nil
		})

	if err := client.RegisterTool(custom); err != nil {
		t.Fatalf("RegisterTool failed: %v", err)
	}
	if !client.GetToolsRegistry().Has("custom_tool") {
		t.Error("custom tool not found in registry")
	}

	// Duplicate registration must fail
	if err := client.RegisterTool(custom); err == nil {
		t.Error("expected error on duplicate registration")
	}
}

func TestSubscribeCreatesDefaultEmitter(t *testing.T) {
	client, err := NewFromConfig(context.Background(), testAppConfig(), Config{})
	if err != nil {
		t.Fatalf("NewFromConfig failed: %v", err)
	}
	defer client.Close()

	sub := client.Subscribe()
	if sub == nil {
		t.Fatal("Subscribe returned nil")
	}

	// The emitter wired by Subscribe must reach emitEvent
	client.emitEvent(context.Background(), events.Event{
		Type: events.EventThinking,
		Data: events.ThinkingData{Query: "test"},
	})

	select {
	case ev := <-sub.Events():
		if ev.Type != events.EventThinking {
			t.Errorf("unexpected event type: %v", ev.Type)
		}
	default:
		t.Error("no event received on subscriber channel")
	}
}

func TestDispatchThroughFacade(t *testing.T) {
	client, err := NewFromConfig(context.Background(), testAppConfig(), Config{})
	if err != nil {
		t.Fatalf("NewFromConfig failed: %v", err)
	}
	defer client.Close()

	result, err := client.GetDispatcher().Dispatch(context.Background(), tools.ToolCall{
		ID:   "call_1",
		Name: "current_time",
		Args: `{"timezone":"UTC"}`,
	})
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if !result.OK {
		t.Errorf("dispatch not OK: %s", result.Result)
	}
	if result.ToolCallID != "call_1" || result.ToolName != "current_time" {
		t.Errorf("result identity mismatch: %+v", result)
	}
}
