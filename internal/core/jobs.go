package core

import (
	"context"
	"fmt"
)

// ReviewRequest is the input of one EnsureReview call.
type ReviewRequest struct {
	ID     ReviewID
	Prompt string
	Owner  UserID
}

// Validate checks the request before any stage runs.
func (r ReviewRequest) Validate() error {
	if err := r.ID.Validate(); err != nil {
		return err
	}
	if r.Prompt == "" {
		return fmt.Errorf("%w: prompt cannot be empty", ErrInvalidRequest)
	}
	if r.Owner == "" {
		return fmt.Errorf("%w: owner cannot be empty", ErrInvalidRequest)
	}
	return nil
}

// JobDispatcher defines the contract for a system that can accept and queue
// background review runs. It decouples the HTTP layer from execution.
type JobDispatcher interface {
	// Dispatch queues a run. It returns an error if the queue is full,
	// providing a mechanism for backpressure.
	Dispatch(ctx context.Context, req ReviewRequest) error
	// Stop drains the queue and waits for in-flight runs.
	Stop()
}

// Job represents a single, executable unit of work processed by a dispatcher.
type Job interface {
	Run(ctx context.Context, req ReviewRequest) error
}
