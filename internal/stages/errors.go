package stages

import "errors"

// These indicate a pipeline-ordering bug (a later stage ran without an
// earlier one assigning the context field it depends on), not a target
// service failure, so they panic as plain errors and surface as
// Continuation Error rather than Fail.
var (
	errNoUserID  = errors.New("stages: no userID on test context")
	errNoOrderID = errors.New("stages: no orderID on test context")
)
