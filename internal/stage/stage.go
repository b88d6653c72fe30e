// Package stage declares the Test Stage contract and its decorators
// (spec.md §4.7): retry, exception-free classification, and metric
// recording. Decorators compose by wrapping, per the design note in
// spec.md §9 ("prefer composition via wrapper objects over inheritance").
package stage

import (
	"context"

	"github.com/kstepanov/bombardier/internal/models"
	"github.com/kstepanov/bombardier/internal/serviceapi"
)

// Continuation is the outcome enum driving the pipeline (spec.md §4.7).
type Continuation int

const (
	Continue Continuation = iota
	Fail
	Error
	Retry
	Stop
)

func (c Continuation) String() string {
	switch c {
	case Continue:
		return "CONTINUE"
	case Fail:
		return "FAIL"
	case Error:
		return "ERROR"
	case Retry:
		return "RETRY"
	case Stop:
		return "STOP"
	default:
		return "UNKNOWN"
	}
}

// IsFailState reports whether c is one of the "fail states" used for
// metric labeling (spec.md §4.7: "FAIL and ERROR are fail states").
func (c Continuation) IsFailState() bool {
	return c == Fail || c == Error
}

// Stage is the contract every pipeline step implements. tc is passed
// explicitly rather than looked up ambiently, per spec.md §9's neutral
// strategy design note.
type Stage interface {
	Run(ctx context.Context, tc *models.TestContext, api serviceapi.ExternalServiceAPI) Continuation
	// Name is the stage's identity for metrics/logs; decorators delegate
	// to the innermost concrete stage, per spec.md §4.7.
	Name() string
}

// Wrapped is implemented by decorators so Name() (and any other chain
// walk) can reach the innermost concrete stage.
type Wrapped interface {
	Unwrap() Stage
}

// InnermostName walks a decorator chain to find the concrete stage name
// used for metrics/logs (spec.md §4.7, §4.1 "innermost stage name").
func InnermostName(s Stage) string {
	for {
		w, ok := s.(Wrapped)
		if !ok {
			return s.Name()
		}
		s = w.Unwrap()
	}
}

// TestStageFailedException is the declared business-failure signal a
// stage can raise (typically from an awaiter's OnFailure handler or an
// explicit assertion). ExceptionFreeStage maps it to Fail; any other
// panic maps to Error. Code is a short machine-checkable tag such as
// E_ILLEGAL_ORDER_TRANSITION.
type TestStageFailedException struct {
	Code    string
	Message string
}

func (e *TestStageFailedException) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return e.Code + ": " + e.Message
}

func NewFailure(code, message string) *TestStageFailedException {
	return &TestStageFailedException{Code: code, Message: message}
}

// Common failure codes (spec.md §7, §4.1, §4.8).
const (
	CodeIllegalOrderTransition = "E_ILLEGAL_ORDER_TRANSITION"
	CodeUnexpectedStatus       = "E_UNEXPECTED_STATUS"
	CodeTimeout                = "E_TIMEOUT"
	CodeInvariantViolation     = "E_INVARIANT_VIOLATION"
)
