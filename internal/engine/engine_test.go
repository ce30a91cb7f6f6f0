package engine

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, workers int) *Engine {
	t.Helper()
	e := New(slog.Default(), workers)
	go e.Run()
	t.Cleanup(e.Stop)
	return e
}

func TestDoRunsOnLoop(t *testing.T) {
	e := newTestEngine(t, 1)

	done := make(chan int, 1)
	e.Do(func() { done <- 42 })

	select {
	case v := <-done:
		assert.Equal(t, 42, v)
	case <-time.After(2 * time.Second):
		t.Fatal("task never ran")
	}
}

func TestCallWaits(t *testing.T) {
	e := newTestEngine(t, 1)

	ran := false
	e.Call(func() { ran = true })
	assert.True(t, ran)
}

func TestTasksRunSequentially(t *testing.T) {
	e := newTestEngine(t, 1)

	// Tasks posted in order must observe each other's writes without
	// synchronization, because a single goroutine runs them all.
	var order []int
	for i := 0; i < 10; i++ {
		i := i
		e.Do(func() { order = append(order, i) })
	}

	e.Call(func() {})
	require.Len(t, order, 10)
	for i, v := range order {
		assert.Equal(t, i, v)
	}
}

func TestSubmitSuccessContinuationOnLoop(t *testing.T) {
	e := newTestEngine(t, 2)

	done := make(chan any, 1)
	e.Submit(
		func(ctx context.Context) (any, error) { return "payload", nil },
		func(result any) { done <- result },
		func(err error) { t.Errorf("unexpected failure: %v", err) },
	)

	select {
	case v := <-done:
		assert.Equal(t, "payload", v)
	case <-time.After(2 * time.Second):
		t.Fatal("continuation never ran")
	}
}

func TestSubmitFailureContinuation(t *testing.T) {
	e := newTestEngine(t, 2)

	wantErr := errors.New("provider down")
	done := make(chan error, 1)
	e.Submit(
		func(ctx context.Context) (any, error) { return nil, wantErr },
		func(result any) { t.Error("unexpected success") },
		func(err error) { done <- err },
	)

	select {
	case err := <-done:
		assert.Equal(t, wantErr, err)
	case <-time.After(2 * time.Second):
		t.Fatal("continuation never ran")
	}
}

func TestAfterFires(t *testing.T) {
	e := newTestEngine(t, 1)

	done := make(chan struct{})
	e.After(20*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timer never fired")
	}
}

func TestAfterCancel(t *testing.T) {
	e := newTestEngine(t, 1)

	fired := make(chan struct{}, 1)
	timer := e.After(30*time.Millisecond, func() { fired <- struct{}{} })
	timer.Cancel()

	time.Sleep(100 * time.Millisecond)
	e.Call(func() {})
	select {
	case <-fired:
		t.Fatal("cancelled timer fired")
	default:
	}
}

func TestCancelAfterScheduleRace(t *testing.T) {
	e := newTestEngine(t, 1)

	// Cancelling after the AfterFunc fires but before the loop runs the
	// posted closure must still suppress the callback.
	block := make(chan struct{})
	e.Do(func() { <-block })

	fired := make(chan struct{}, 1)
	timer := e.After(time.Millisecond, func() { fired <- struct{}{} })
	time.Sleep(30 * time.Millisecond)
	timer.Cancel()
	close(block)

	e.Call(func() {})
	select {
	case <-fired:
		t.Fatal("cancelled timer fired")
	default:
	}
}
