package agent

import (
	"context"
	"time"

	"github.com/AdityaNG/ugv-cam/pkg/ugv"
)

// FailurePolicy expresses the two-tier failure handling of a control step
// as one testable value: chassis transport failures get a bounded retry
// and then escalate, while camera failures never fail a step at all (the
// aggregator substitutes the prior frame).
type FailurePolicy struct {
	// ChassisRetries is how many extra attempts follow a chassis
	// transport failure. Protocol errors are never retried.
	ChassisRetries int

	// RetryWait separates consecutive attempts.
	RetryWait time.Duration
}

// DefaultPolicy matches the contract: one retry, short fixed wait.
func DefaultPolicy() FailurePolicy {
	return FailurePolicy{
		ChassisRetries: 1,
		RetryWait:      100 * time.Millisecond,
	}
}

// Dispatch runs send, retrying transport failures within the budget.
// Anything that is not a *ugv.TransportError returns immediately.
func (p FailurePolicy) Dispatch(ctx context.Context, send func(context.Context) error) error {
	var err error
	for attempt := 0; attempt <= p.ChassisRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return err
			case <-time.After(p.RetryWait):
			}
		}

		err = send(ctx)
		if err == nil || !ugv.IsTransport(err) {
			return err
		}
	}
	return err
}
