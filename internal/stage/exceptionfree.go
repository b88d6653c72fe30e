package stage

import (
	"context"
	"errors"

	"github.com/kstepanov/bombardier/internal/logger"
	"github.com/kstepanov/bombardier/internal/models"
	"github.com/kstepanov/bombardier/internal/serviceapi"
	"go.uber.org/zap"
)

// ExceptionFreeStage catches any panic escaping the wrapped stage's Run.
// A declared *TestStageFailedException maps to Fail; anything else maps
// to Error, logged with the innermost stage name for diagnosis (spec.md
// §4.7). Go has no checked exceptions, so "catches all exceptions" is
// modeled as a deferred recover() around the call.
type ExceptionFreeStage struct {
	Inner Stage
}

func (e *ExceptionFreeStage) Name() string { return e.Inner.Name() }
func (e *ExceptionFreeStage) Unwrap() Stage { return e.Inner }

func (e *ExceptionFreeStage) Run(ctx context.Context, tc *models.TestContext, api serviceapi.ExternalServiceAPI) (result Continuation) {
	defer func() {
		if r := recover(); r != nil {
			name := InnermostName(e.Inner)
			var failure *TestStageFailedException
			if err, ok := r.(error); ok && errors.As(err, &failure) {
				logger.Log.Info("stage: business failure",
					zap.String("stage", name), zap.Error(failure))
				result = Fail
				return
			}
			logger.Log.Error("stage: unexpected panic",
				zap.String("stage", name), zap.Any("recovered", r))
			result = Error
		}
	}()

	return e.Inner.Run(ctx, tc, api)
}
