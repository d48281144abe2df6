package shutdown

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestHandler_HooksRunInReverseOrder(t *testing.T) {
	h := NewHandler(time.Second, nil)

	var order []string
	h.OnShutdown("first", func(context.Context) error {
		order = append(order, "first")
		return nil
	})
	h.OnShutdown("second", func(context.Context) error {
		order = append(order, "second")
		return nil
	})
	h.OnShutdown("third", func(context.Context) error {
		order = append(order, "third")
		return nil
	})

	done := make(chan error, 1)
	go func() { done <- h.Wait() }()
	h.Trigger()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Wait: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return")
	}

	want := []string{"third", "second", "first"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestHandler_ReturnsHookError(t *testing.T) {
	h := NewHandler(time.Second, nil)
	boom := errors.New("boom")

	h.OnShutdown("ok", func(context.Context) error { return nil })
	h.OnShutdown("failing", func(context.Context) error { return boom })

	done := make(chan error, 1)
	go func() { done <- h.Wait() }()
	h.Trigger()

	if err := <-done; !errors.Is(err, boom) {
		t.Fatalf("Wait = %v, want boom", err)
	}
}

func TestHandler_DoneCloses(t *testing.T) {
	h := NewHandler(time.Second, nil)

	go h.Wait()
	h.Trigger()

	select {
	case <-h.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Done never closed")
	}
}

func TestHandler_TriggerIsIdempotent(t *testing.T) {
	h := NewHandler(time.Second, nil)
	go h.Wait()
	h.Trigger()
	h.Trigger()
	<-h.Done()
}

func TestHandler_HookSeesDeadline(t *testing.T) {
	h := NewHandler(50*time.Millisecond, nil)

	h.OnShutdown("deadline", func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("hook context has no deadline")
		}
		return nil
	})

	go h.Wait()
	h.Trigger()
	<-h.Done()
}
