package state

import (
	"errors"
	"sync"
	"testing"

	"github.com/ilkoid/serape-ai/pkg/llm"
)

// TestHistoryOperations checks append, copy semantics, replace and clear.
func TestHistoryOperations(t *testing.T) {
	s := NewCoreState(nil)

	s.AppendMessage(llm.UserMessage("hello"))
	s.AppendMessage(llm.AssistantMessage("hi"))

	if s.HistoryLen() != 2 {
		t.Fatalf("expected 2 messages, got %d", s.HistoryLen())
	}

	// GetHistory returns a copy: mutating it must not affect state.
	history := s.GetHistory()
	history[0] = llm.UserMessage("mutated")
	if s.GetHistory()[0].Content != "hello" {
		t.Error("GetHistory must return a copy")
	}

	s.SetHistory([]llm.Message{llm.SystemMessage("restored")})
	if s.HistoryLen() != 1 {
		t.Errorf("expected 1 message after SetHistory, got %d", s.HistoryLen())
	}

	s.ClearHistory()
	if s.HistoryLen() != 0 {
		t.Errorf("expected empty history, got %d", s.HistoryLen())
	}
}

// TestStoreSetGet checks the key-value store.
func TestStoreSetGet(t *testing.T) {
	s := NewCoreState(nil)

	if err := s.Set("session_id", "abc-123"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	val, ok := s.Get("session_id")
	if !ok || val != "abc-123" {
		t.Errorf("expected abc-123, got %v (ok=%v)", val, ok)
	}

	if _, ok := s.Get("missing"); ok {
		t.Error("expected miss for unknown key")
	}
}

// TestStoreReservedKeys checks that reserved keys are rejected.
func TestStoreReservedKeys(t *testing.T) {
	s := NewCoreState(nil)

	for _, key := range []string{KeyHistory, KeyToolsRegistry, KeyConfig} {
		if err := s.Set(key, "x"); !errors.Is(err, ErrKeyReserved) {
			t.Errorf("Set(%q): expected ErrKeyReserved, got %v", key, err)
		}
		if err := s.Update(key, func(any) any { return "x" }); !errors.Is(err, ErrKeyReserved) {
			t.Errorf("Update(%q): expected ErrKeyReserved, got %v", key, err)
		}
	}
}

// TestStoreUpdate checks atomic update and delete-on-nil.
func TestStoreUpdate(t *testing.T) {
	s := NewCoreState(nil)

	if err := s.Update("counter", func(current any) any {
		if current == nil {
			return 1
		}
		return current.(int) + 1
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	val, _ := s.Get("counter")
	if val != 1 {
		t.Errorf("expected 1, got %v", val)
	}

	// Returning nil deletes the key.
	if err := s.Update("counter", func(any) any { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := s.Get("counter"); ok {
		t.Error("expected key deleted after nil update")
	}
}

// TestConcurrentAccess checks thread safety under the race detector.
func TestConcurrentAccess(t *testing.T) {
	s := NewCoreState(nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s.AppendMessage(llm.UserMessage("msg"))
				_ = s.GetHistory()
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = s.Set("key", j)
				_, _ = s.Get("key")
			}
		}()
	}
	wg.Wait()

	if s.HistoryLen() != 500 {
		t.Errorf("expected 500 messages, got %d", s.HistoryLen())
	}
}

// TestIsReservedKey checks the key classifier.
func TestIsReservedKey(t *testing.T) {
	if !IsReservedKey(KeyHistory) {
		t.Error("history must be reserved")
	}
	if IsReservedKey("user_data") {
		t.Error("user_data must not be reserved")
	}
}
