package stage

import (
	"context"

	"github.com/avast/retry-go"

	"github.com/kstepanov/bombardier/internal/models"
	"github.com/kstepanov/bombardier/internal/serviceapi"
)

// MaxRetryAttempts is the "up to 5 times" policy from spec.md §4.7.
const MaxRetryAttempts = 5

// retrySignal is the sentinel error retry.Do retries on; it carries no
// information because the wrapped stage's Continuation is tracked outside
// retry-go's own error channel (see RetryableStage.Run below).
type retrySignal struct{}

func (retrySignal) Error() string { return "stage requested retry" }

// RetryableStage runs the wrapped stage up to MaxRetryAttempts times while
// it returns Retry; any other outcome passes through unchanged. If the
// final attempt also returns Retry, RetryableStage itself returns Retry —
// the pipeline treats that as non-Continue and ends the test (spec.md
// §4.7). Built on github.com/avast/retry-go (direct dep of
// armadaproject-armada) for the attempt-counting loop and its RetryIf hook.
type RetryableStage struct {
	Inner Stage
}

func (r *RetryableStage) Name() string { return r.Inner.Name() }
func (r *RetryableStage) Unwrap() Stage { return r.Inner }

func (r *RetryableStage) Run(ctx context.Context, tc *models.TestContext, api serviceapi.ExternalServiceAPI) Continuation {
	var last Continuation

	err := retry.Do(
		func() error {
			last = r.Inner.Run(ctx, tc, api)
			if last == Retry {
				return retrySignal{}
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(MaxRetryAttempts),
		retry.Delay(0),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			_, isRetrySignal := err.(retrySignal)
			return isRetrySignal
		}),
	)
	_ = err // retry.Do's terminal error is fully reflected by `last`.

	return last
}
