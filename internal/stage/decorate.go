package stage

// Decorate wraps s with the standard decorator stack used by every
// pipeline stage (spec.md §4.9: composition over inheritance), innermost
// to outermost: retry, then exception-free, then metric recording. Metric
// recording wraps everything so its {outcome} label reflects what the
// pipeline actually sees, including outcomes the inner decorators
// translated (e.g. a panic turned into Error).
func Decorate(s Stage, retryable bool) Stage {
	var wrapped Stage = s
	if retryable {
		wrapped = &RetryableStage{Inner: wrapped}
	}
	wrapped = &ExceptionFreeStage{Inner: wrapped}
	wrapped = &MetricRecordableStage{Inner: wrapped}
	return wrapped
}
