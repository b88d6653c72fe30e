package stages

import (
	"fmt"

	"github.com/kstepanov/bombardier/internal/stage"
)

// failNow raises the stage-failed signal the ExceptionFreeStage decorator
// maps to Continuation Fail (spec.md §4.7). It is a panic/recover
// control-transfer, the same pattern encoding/json uses internally to
// unwind out of deeply nested calls (including an awaiter's OnFailure
// closure, which has no Continuation return path of its own) back up to
// the decorator boundary.
func failNow(code, format string, args ...interface{}) {
	panic(stage.NewFailure(code, fmt.Sprintf(format, args...)))
}
