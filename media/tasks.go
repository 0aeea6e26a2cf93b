// ABOUTME: Shared polling loop for providers that run generation as async tasks.
// ABOUTME: Bounds the submit-to-completion window and maps expiry onto the timeout error type.

package media

import (
	"context"
	"time"
)

// taskProbe checks an async task once. It returns done=true with the asset
// URL on completion, done=false to keep polling, or an error to stop.
type taskProbe func(ctx context.Context) (done bool, assetURL string, err error)

// pollTask polls probe at the given interval until it reports done, fails, or
// the wall-clock budget expires. The caller's context cancels polling early.
func pollTask(ctx context.Context, interval, budget time.Duration, probe taskProbe) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		done, assetURL, err := probe(ctx)
		if err != nil {
			if ctx.Err() == context.DeadlineExceeded {
				return "", &RequestTimeoutError{SDKError: SDKError{
					Message: "generation task did not finish in time", Cause: err,
				}}
			}
			return "", err
		}
		if done {
			return assetURL, nil
		}

		select {
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				return "", &RequestTimeoutError{SDKError: SDKError{
					Message: "generation task did not finish in time",
				}}
			}
			return "", &SDKError{Message: "polling canceled", Cause: ctx.Err()}
		case <-ticker.C:
		}
	}
}
