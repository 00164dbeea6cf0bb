package tools

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
)

func makeTool(name string) Tool {
	return NewFuncTool(name, "test tool", Object(map[string]*Schema{
		"input": String("test input"),
	}), func(ctx context.Context, args json.RawMessage) (string, error) {
		return "done", nil
	})
}

func TestRegisterAndGet(t *testing.T) {
	registry := NewRegistry()

	if err := registry.Register(makeTool("alpha")); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	tool, err := registry.Get("alpha")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if tool.Definition().Name != "alpha" {
		t.Errorf("wrong tool returned: %s", tool.Definition().Name)
	}

	if !registry.Has("alpha") {
		t.Error("Has returned false for registered tool")
	}
	if registry.Has("beta") {
		t.Error("Has returned true for unknown tool")
	}
}

func TestRegisterEmptyName(t *testing.T) {
	registry := NewRegistry()

	err := registry.Register(makeTool(""))
	if !errors.Is(err, ErrEmptyName) {
		t.Errorf("expected ErrEmptyName, got %v", err)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	registry := NewRegistry()

	if err := registry.Register(makeTool("dup")); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}

	err := registry.Register(makeTool("dup"))
	if !errors.Is(err, ErrAlreadyRegistered) {
		t.Errorf("expected ErrAlreadyRegistered, got %v", err)
	}
}

func TestRegisterNilSchema(t *testing.T) {
	registry := NewRegistry()

	tool := NewFuncTool("no_schema", "missing params", nil, nil)
	err := registry.Register(tool)
	if !errors.Is(err, ErrInvalidSchema) {
		t.Errorf("expected ErrInvalidSchema, got %v", err)
	}
}

func TestRegisterNonObjectSchema(t *testing.T) {
	registry := NewRegistry()

	tool := NewFuncTool("bad_root", "string root", String("not an object"), nil)
	err := registry.Register(tool)
	if !errors.Is(err, ErrInvalidSchema) {
		t.Errorf("expected ErrInvalidSchema, got %v", err)
	}
}

func TestReplace(t *testing.T) {
	registry := NewRegistry()

	// Replace before Register must fail
	if err := registry.Replace(makeTool("gamma")); !errors.Is(err, ErrToolNotFound) {
		t.Errorf("expected ErrToolNotFound, got %v", err)
	}

	if err := registry.Register(makeTool("gamma")); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	replacement := NewFuncTool("gamma", "replaced", Object(nil),
		func(ctx context.Context, args json.RawMessage) (string, error) {
			return "v2", nil
		})
	if err := registry.Replace(replacement); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	tool, _ := registry.Get("gamma")
	if tool.Definition().Description != "replaced" {
		t.Error("Replace did not swap the tool")
	}
}

func TestGetUnknown(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Get("missing")
	if !errors.Is(err, ErrToolNotFound) {
		t.Errorf("expected ErrToolNotFound, got %v", err)
	}
}

func TestGetDefinitionsSorted(t *testing.T) {
	registry := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := registry.Register(makeTool(name)); err != nil {
			t.Fatalf("Register %s failed: %v", name, err)
		}
	}

	defs := registry.GetDefinitions()
	if len(defs) != 3 {
		t.Fatalf("expected 3 definitions, got %d", len(defs))
	}

	want := []string{"alpha", "mid", "zeta"}
	for i, def := range defs {
		if def.Name != want[i] {
			t.Errorf("definition %d = %s, want %s", i, def.Name, want[i])
		}
	}

	names := registry.Names()
	for i, name := range names {
		if name != want[i] {
			t.Errorf("name %d = %s, want %s", i, name, want[i])
		}
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(makeTool("shared")); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = registry.Get("shared")
			_ = registry.GetDefinitions()
			_ = registry.Has("shared")
			_ = registry.Len()
		}()
	}
	wg.Wait()
}
