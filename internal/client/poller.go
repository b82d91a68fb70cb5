package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	jitterbug "github.com/lthibault/jitterbug/v2"
)

// State is the phase a polling run is in.
type State string

const (
	StateSubmitting State = "SUBMITTING"
	StatePolling    State = "POLLING"
	StateCompleted  State = "COMPLETED"
	StateFailed     State = "FAILED"
	StateTimedOut   State = "TIMED_OUT"
	StateErrored    State = "ERRORED"
)

// ErrTimeout means the job did not reach a terminal status within the
// attempt ceiling or the wall deadline.
var ErrTimeout = errors.New("polling timed out")

// Snapshot is one observation of a polling run side-channel.
type Snapshot struct {
	State     State
	JobID     string
	Attempt   int
	JobStatus string
	Result    *Result
	Err       error
}

type PollerOption func(*Poller)

func WithInterval(interval time.Duration) PollerOption {
	return func(p *Poller) {
		p.interval = interval
	}
}

func WithMaxAttempts(attempts int) PollerOption {
	return func(p *Poller) {
		p.maxAttempts = attempts
	}
}

func WithMaxWait(wait time.Duration) PollerOption {
	return func(p *Poller) {
		p.maxWait = wait
	}
}

// Poller drives a simulation from submission to result: submit, poll the job
// status on a jittered interval, and fetch the result exactly once after the
// job completes.
type Poller struct {
	client      *Client
	interval    time.Duration
	maxAttempts int
	maxWait     time.Duration
	snapshots   chan Snapshot
}

func NewPoller(client *Client, opts ...PollerOption) *Poller {
	p := &Poller{
		client:      client,
		interval:    5 * time.Second,
		maxAttempts: 240,
		maxWait:     20 * time.Minute,
		snapshots:   make(chan Snapshot, 16),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Snapshots exposes the run's observations. The channel is never closed and
// sends never block; a slow reader just misses intermediate snapshots.
func (p *Poller) Snapshots() <-chan Snapshot {
	return p.snapshots
}

func (p *Poller) emit(s Snapshot) {
	select {
	case p.snapshots <- s:
	default:
	}
}

// Run submits the document and polls until the job reaches a terminal
// status, the attempt ceiling or deadline is hit, or the context ends.
func (p *Poller) Run(ctx context.Context, doc []byte) (*Result, error) {
	p.emit(Snapshot{State: StateSubmitting})

	accepted, err := p.client.StartSimulation(ctx, doc)
	if err != nil {
		p.emit(Snapshot{State: StateErrored, Err: err})
		return nil, err
	}
	jobID := accepted.JobId

	deadline := time.Now().Add(p.maxWait)
	ticker := jitterbug.New(p.interval, &jitterbug.Norm{Stdev: 100 * time.Millisecond, Mean: 0})
	defer ticker.Stop()

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			p.emit(Snapshot{State: StateErrored, JobID: jobID, Attempt: attempt, Err: ctx.Err()})
			return nil, ctx.Err()
		case <-ticker.C:
		}

		if time.Now().After(deadline) {
			break
		}

		status, err := p.client.GetJobStatus(ctx, jobID)
		if err != nil {
			var statusErr *StatusError
			if errors.As(err, &statusErr) && statusErr.Permanent() {
				p.emit(Snapshot{State: StateErrored, JobID: jobID, Attempt: attempt, Err: err})
				return nil, err
			}
			// transient; keep polling
			p.emit(Snapshot{State: StatePolling, JobID: jobID, Attempt: attempt, Err: err})
			continue
		}

		p.emit(Snapshot{State: StatePolling, JobID: jobID, Attempt: attempt, JobStatus: status.Status})

		switch status.Status {
		case "COMPLETED":
			result, err := p.client.GetResult(ctx, jobID)
			if err != nil {
				if errors.Is(err, ErrNotReady) {
					// completed but the artifact has not landed; poll on
					continue
				}
				p.emit(Snapshot{State: StateErrored, JobID: jobID, Attempt: attempt, Err: err})
				return nil, err
			}
			p.emit(Snapshot{State: StateCompleted, JobID: jobID, Attempt: attempt, JobStatus: status.Status, Result: result})
			return result, nil
		case "FAILED":
			failure := fmt.Errorf("job %s failed", jobID)
			if status.Error != nil {
				failure = fmt.Errorf("job %s failed: %s", jobID, *status.Error)
			}
			p.emit(Snapshot{State: StateFailed, JobID: jobID, Attempt: attempt, JobStatus: status.Status, Err: failure})
			return nil, failure
		}
	}

	p.emit(Snapshot{State: StateTimedOut, JobID: jobID, Err: ErrTimeout})
	return nil, fmt.Errorf("job %s: %w", jobID, ErrTimeout)
}
