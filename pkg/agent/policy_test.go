package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AdityaNG/ugv-cam/pkg/ugv"
)

func TestDispatchRetriesTransport(t *testing.T) {
	p := FailurePolicy{ChassisRetries: 1, RetryWait: time.Millisecond}

	calls := 0
	err := p.Dispatch(context.Background(), func(context.Context) error {
		calls++
		if calls == 1 {
			return &ugv.TransportError{Op: "send", Err: errors.New("refused")}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestDispatchExhaustsBudget(t *testing.T) {
	p := FailurePolicy{ChassisRetries: 2, RetryWait: time.Millisecond}

	calls := 0
	err := p.Dispatch(context.Background(), func(context.Context) error {
		calls++
		return &ugv.TransportError{Op: "send", Err: errors.New("refused")}
	})
	if !ugv.IsTransport(err) {
		t.Fatalf("Dispatch error = %v, want transport", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDispatchNeverRetriesProtocol(t *testing.T) {
	p := FailurePolicy{ChassisRetries: 5, RetryWait: time.Millisecond}

	calls := 0
	err := p.Dispatch(context.Background(), func(context.Context) error {
		calls++
		return &ugv.ProtocolError{Reason: "garbage reply"}
	})
	if !ugv.IsProtocol(err) {
		t.Fatalf("Dispatch error = %v, want protocol", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDispatchStopsOnCancel(t *testing.T) {
	p := FailurePolicy{ChassisRetries: 10, RetryWait: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- p.Dispatch(ctx, func(context.Context) error {
			calls++
			return &ugv.TransportError{Op: "send", Err: errors.New("refused")}
		})
	}()
	cancel()

	select {
	case err := <-done:
		if !ugv.IsTransport(err) {
			t.Errorf("Dispatch error = %v, want the last transport failure", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Dispatch did not return after cancel")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
