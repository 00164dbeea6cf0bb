package events

import (
	"context"
	"sync"
	"testing"
	"time"
)

// TestEmitAndReceive checks the basic emit/subscribe path.
func TestEmitAndReceive(t *testing.T) {
	emitter := NewChanEmitter(4)
	sub := emitter.Subscribe()

	emitter.Emit(context.Background(), Event{
		Type:      EventToolCall,
		Data:      ToolCallData{ToolCallID: "call_1", ToolName: "get_weather", Args: "{}"},
		Timestamp: time.Now(),
	})

	select {
	case event := <-sub.Events():
		if event.Type != EventToolCall {
			t.Errorf("expected tool_call, got %s", event.Type)
		}
		data, ok := event.Data.(ToolCallData)
		if !ok {
			t.Fatalf("expected ToolCallData, got %T", event.Data)
		}
		if data.ToolName != "get_weather" {
			t.Errorf("expected get_weather, got %s", data.ToolName)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

// TestEmitAfterCloseIsSilent checks that Emit after Close drops events.
func TestEmitAfterCloseIsSilent(t *testing.T) {
	emitter := NewChanEmitter(4)
	emitter.Close()

	// Must not panic on closed channel.
	emitter.Emit(context.Background(), Event{Type: EventDone})
}

// TestCloseIsIdempotent checks double Close.
func TestCloseIsIdempotent(t *testing.T) {
	emitter := NewChanEmitter(1)
	emitter.Close()
	emitter.Close()
}

// TestCloseClosesSubscriberChannel checks that subscribers observe Close.
func TestCloseClosesSubscriberChannel(t *testing.T) {
	emitter := NewChanEmitter(1)
	sub := emitter.Subscribe()

	emitter.Close()

	select {
	case _, ok := <-sub.Events():
		if ok {
			t.Error("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}

// TestEmitRespectsContext checks that a cancelled context unblocks Emit
// when the channel buffer is full.
func TestEmitRespectsContext(t *testing.T) {
	emitter := NewChanEmitter(0) // unbuffered, blocks without a reader

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		emitter.Emit(ctx, Event{Type: EventThinking})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit did not honor cancelled context")
	}
}

// TestEmitCloseRace checks that closing the emitter while senders are
// blocked never panics with "send on closed channel".
func TestEmitCloseRace(t *testing.T) {
	emitter := NewChanEmitter(0) // unbuffered, every Emit blocks

	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				emitter.Emit(ctx, Event{Type: EventMessage})
			}
		}()
	}

	// Cancel unblocks pending sends, Close races against them.
	cancel()
	emitter.Close()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("emitters did not finish after close")
	}
}

// TestConcurrentEmit checks thread safety.
func TestConcurrentEmit(t *testing.T) {
	emitter := NewChanEmitter(100)
	sub := emitter.Subscribe()

	const total = 100
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 10; j++ {
				emitter.Emit(context.Background(), Event{Type: EventMessage})
			}
		}()
	}

	received := 0
	timeout := time.After(2 * time.Second)
	for received < total {
		select {
		case <-sub.Events():
			received++
		case <-timeout:
			t.Fatalf("received %d of %d events", received, total)
		}
	}
}
