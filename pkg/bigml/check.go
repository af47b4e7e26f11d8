package bigml

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

var ErrRetriesExhausted = errors.New("retries exhausted before the resource finished")

type CheckOptions struct {
	// Query is appended to every status request.
	Query string
	// Retries bounds the number of polls. Zero polls until a terminal status.
	Retries int
	// WaitStep overrides the client interval between polls.
	WaitStep time.Duration
}

// CheckResource polls id at a fixed interval until it is finished or faulty.
// A faulty resource is returned together with a *FaultyResourceError.
func (c *Client) CheckResource(ctx context.Context, id string, opts CheckOptions) (*Resource, error) {
	step := opts.WaitStep
	if step <= 0 {
		step = c.waitStep
	}

	for attempt := 1; ; attempt++ {
		resource, err := c.Get(ctx, id, opts.Query)
		if err != nil {
			return nil, err
		}

		status := resource.Status()
		c.logger.Debug("resource status", zap.String("resource", id), zap.Stringer("status", status), zap.Int("attempt", attempt))
		switch status {
		case Finished:
			return resource, nil
		case Faulty:
			return resource, &FaultyResourceError{ResourceID: id, Message: resource.StatusMessage()}
		}

		if opts.Retries > 0 && attempt >= opts.Retries {
			return resource, fmt.Errorf("%s is %s: %w", id, status, ErrRetriesExhausted)
		}

		if err := sleep(ctx, step); err != nil {
			return resource, err
		}
	}
}

// WaitForAvailableTasks blocks while inprogress holds maxParallel ids or
// more. Each round checks every id once: the first finished one is removed
// from the returned list, a faulty one aborts.
func (c *Client) WaitForAvailableTasks(ctx context.Context, inprogress []string, maxParallel int, kind string) ([]string, error) {
	if maxParallel <= 0 {
		return inprogress, nil
	}

	for len(inprogress) >= maxParallel {
		for i, id := range inprogress {
			resource, err := c.Get(ctx, id, "full=false")
			if err != nil {
				return inprogress, err
			}
			switch resource.Status() {
			case Finished:
				remaining := make([]string, 0, len(inprogress)-1)
				remaining = append(remaining, inprogress[:i]...)
				remaining = append(remaining, inprogress[i+1:]...)
				return remaining, nil
			case Faulty:
				return inprogress, fmt.Errorf("failed to get a finished %s: %w", kind, &FaultyResourceError{ResourceID: id, Message: resource.StatusMessage()})
			}
		}

		if err := sleep(ctx, time.Duration(maxParallel)*c.waitStep); err != nil {
			return inprogress, err
		}
	}

	return inprogress, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
