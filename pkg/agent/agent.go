// Package agent is the façade over the whole control surface. One Step is
// one control cycle: validate the action, dispatch it to the chassis,
// attach the latest camera frame, log the snapshot, and hand it back.
// A single control-loop caller drives Step sequentially; the camera reader
// and the session writer are the only concurrent activities, and neither
// can block a step.
package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AdityaNG/ugv-cam/internal/log"
	"github.com/AdityaNG/ugv-cam/pkg/camera"
	"github.com/AdityaNG/ugv-cam/pkg/schema"
	"github.com/AdityaNG/ugv-cam/pkg/session"
	"github.com/AdityaNG/ugv-cam/pkg/ugv"
)

// ErrClosed is returned by Step after Shutdown.
var ErrClosed = errors.New("agent: closed")

// Status is the agent's state machine state.
type Status int32

const (
	StatusReady Status = iota
	StatusDegraded
	StatusClosed
)

// String returns the lowercase status name.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusDegraded:
		return "degraded"
	case StatusClosed:
		return "closed"
	}
	return "unknown"
}

// Config wires an Agent to its two devices and its log root.
type Config struct {
	// UGVURL is the chassis REST base URL.
	UGVURL string

	// CameraURL is the camera stream base URL.
	CameraURL string

	// LogDir is the root under which the session directory is created.
	LogDir string

	// Policy overrides the failure policy; zero value means DefaultPolicy.
	Policy FailurePolicy

	// CameraWarmup bounds how long Connect waits for a first frame.
	// The wait is best-effort: an empty stream logs a warning and
	// Connect proceeds. Default 5s.
	CameraWarmup time.Duration
}

// Agent owns one chassis connection, one camera stream, and one session.
type Agent struct {
	ugv    *ugv.Client
	cam    *camera.Client
	sess   *session.Session
	policy FailurePolicy

	agg   aggregator
	steps atomic.Uint64
	state atomic.Int32

	shutdownOnce sync.Once
}

// Connect builds the clients, starts the camera stream, probes the chassis
// with a base-feedback query (under the retry policy), and opens a fresh
// session. A chassis that cannot be probed fails Connect; a camera that
// has not produced a frame yet does not.
func Connect(ctx context.Context, cfg Config) (*Agent, error) {
	policy := cfg.Policy
	if policy == (FailurePolicy{}) {
		policy = DefaultPolicy()
	}
	warmup := cfg.CameraWarmup
	if warmup <= 0 {
		warmup = 5 * time.Second
	}

	a := &Agent{
		ugv:    ugv.NewClient(cfg.UGVURL),
		cam:    camera.NewClient(cfg.CameraURL),
		policy: policy,
	}

	a.cam.Start()

	probe := func(ctx context.Context) error {
		_, _, err := a.ugv.Send(ctx, schema.BaseFeedback())
		return err
	}
	if err := policy.Dispatch(ctx, probe); err != nil {
		a.cam.Stop()
		return nil, fmt.Errorf("agent: chassis probe: %w", err)
	}

	if _, err := a.cam.WaitForFrame(warmup); err != nil {
		log.Warn("camera not producing frames yet, continuing without imagery", "url", cfg.CameraURL)
	}

	sess, err := session.Open(cfg.LogDir)
	if err != nil {
		a.cam.Stop()
		return nil, err
	}
	a.sess = sess

	a.state.Store(int32(StatusReady))
	log.Info("agent connected", "ugv", cfg.UGVURL, "camera", cfg.CameraURL, "session", sess.ID())
	return a, nil
}

// Step executes one control cycle and returns the resulting snapshot.
//
// A zero or hand-built action fails immediately with a *ValidationError
// and touches nothing. A chassis transport failure is retried once; two
// consecutive failures leave the agent Degraded and surface the error
// without advancing the step index or logging a record. A protocol error
// surfaces immediately without retry. A camera failure never fails the
// step; the prior frame rides along, flagged repeated.
func (a *Agent) Step(ctx context.Context, action schema.Action) (schema.State, error) {
	if a.Status() == StatusClosed {
		return schema.State{}, ErrClosed
	}
	if !action.Valid() {
		return schema.State{}, &schema.ValidationError{Kind: action.Kind(), Reason: "action not validated"}
	}

	var (
		imu schema.ImuData
		fb  schema.ChassisFeedback
	)
	err := a.policy.Dispatch(ctx, func(ctx context.Context) error {
		var serr error
		imu, fb, serr = a.ugv.Send(ctx, action)
		return serr
	})
	if err != nil {
		if ugv.IsTransport(err) {
			if a.state.CompareAndSwap(int32(StatusReady), int32(StatusDegraded)) {
				log.Warn("chassis unreachable, agent degraded", "error", err)
			}
		}
		return schema.State{}, err
	}

	if a.state.CompareAndSwap(int32(StatusDegraded), int32(StatusReady)) {
		log.Info("chassis reachable again, agent ready")
	}

	frame, frameErr := a.cam.Latest()
	if frameErr != nil {
		log.Debug("camera frame unavailable, reusing previous", "error", frameErr)
	}

	st := a.agg.combine(a.steps.Load(), imu, fb, frame, frameErr)
	a.steps.Add(1)

	a.sess.Record(st, action)
	return st, nil
}

// Status returns the current state machine state.
func (a *Agent) Status() Status {
	return Status(a.state.Load())
}

// Steps returns the number of completed steps.
func (a *Agent) Steps() uint64 {
	return a.steps.Load()
}

// Warnings returns the session's logging warning count. Logging problems
// are informational only; control flow is unaffected by them.
func (a *Agent) Warnings() uint64 {
	return a.sess.Warnings()
}

// SessionDir returns the open session's directory.
func (a *Agent) SessionDir() string {
	return a.sess.Dir()
}

// Shutdown halts the vehicle (best effort), stops the camera stream, and
// drains and closes the session. Idempotent; Step fails with ErrClosed
// afterwards.
func (a *Agent) Shutdown() error {
	var err error
	a.shutdownOnce.Do(func() {
		a.state.Store(int32(StatusClosed))

		ctx, cancel := context.WithTimeout(context.Background(), ugv.RequestTimeout)
		defer cancel()
		if _, _, serr := a.ugv.Send(ctx, schema.Stop()); serr != nil {
			log.Warn("could not stop vehicle during shutdown", "error", serr)
		}

		a.cam.Stop()
		err = a.sess.Close()
		log.Info("agent shut down", "steps", a.steps.Load(), "warnings", a.sess.Warnings())
	})
	return err
}
