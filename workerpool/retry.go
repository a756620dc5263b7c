package workerpool

import (
	"context"
	"errors"
	"time"

	"github.com/pitabwire/util"
)

const (
	retryBackoffBaseDelay    = 100 * time.Millisecond
	retryBackoffMaxDelay     = 30 * time.Second
	retryBackoffMaxRunNumber = 10
)

func retryBackoffDelay(run int) time.Duration {
	if run < 1 {
		run = 1
	}

	if run > retryBackoffMaxRunNumber {
		run = retryBackoffMaxRunNumber
	}

	delay := retryBackoffBaseDelay * time.Duration(1<<(run-1))
	if delay > retryBackoffMaxDelay {
		return retryBackoffMaxDelay
	}

	return delay
}

// SubmitWithRetry runs task on pool. A failing task is resubmitted after an exponential
// backoff until it has run retries+1 times. When the first submit succeeds, onDone, if set,
// is called exactly once: with nil after a successful run, otherwise with the last error.
func SubmitWithRetry(
	ctx context.Context,
	pool WorkerPool,
	retries int,
	task func(ctx context.Context) error,
	onDone func(ctx context.Context, err error),
) error {
	if onDone == nil {
		onDone = func(context.Context, error) {}
	}
	return submitRun(ctx, pool, retries, 1, task, onDone)
}

func submitRun(
	ctx context.Context,
	pool WorkerPool,
	retries, run int,
	task func(ctx context.Context) error,
	onDone func(ctx context.Context, err error),
) error {
	return pool.Submit(ctx, func() {
		err := task(ctx)
		if err == nil || errors.Is(err, context.Canceled) {
			onDone(ctx, err)
			return
		}

		log := util.Log(ctx).WithError(err).WithField("run", run)
		if run > retries {
			log.Error("task failed; retries exhausted")
			onDone(ctx, err)
			return
		}

		log.Warn("task failed, attempting to retry it")
		go func() {
			timer := time.NewTimer(retryBackoffDelay(run))
			defer timer.Stop()

			select {
			case <-ctx.Done():
				onDone(ctx, errors.Join(err, ctx.Err()))
				return
			case <-timer.C:
			}

			if resubmitErr := submitRun(ctx, pool, retries, run+1, task, onDone); resubmitErr != nil {
				log.WithError(resubmitErr).Error("failed to resubmit task")
				onDone(ctx, errors.Join(err, resubmitErr))
			}
		}()
	})
}
