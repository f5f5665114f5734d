package filesystem

// Observer receives measurements from the retry wrappers. The metrics
// package supplies the Prometheus-backed implementation; the indirection
// exists because metrics already imports this package for its collectors.
//
// op is the wrapped call ("stat", "open", "readdir") and volume the
// resolved mount label ("music", "video", "cache", "database").
type Observer interface {
	// ObserveOperation records one completed call, retried or not.
	ObserveOperation(volume, op string, seconds float64, err error)

	ObserveRetryAttempt(op, volume string)
	ObserveRetrySuccess(op, volume string)
	ObserveRetryFailure(op, volume string)
	ObserveRetryDuration(op, volume string, seconds float64)
	ObserveStaleError(op, volume string)
}

// Installed once from main. A nil observer drops measurements, which is
// what package tests rely on.
var defaultObserver Observer

func SetObserver(o Observer) {
	defaultObserver = o
}

type nopObserver struct{}

func (nopObserver) ObserveOperation(string, string, float64, error) {}
func (nopObserver) ObserveRetryAttempt(string, string)              {}
func (nopObserver) ObserveRetrySuccess(string, string)              {}
func (nopObserver) ObserveRetryFailure(string, string)              {}
func (nopObserver) ObserveRetryDuration(string, string, float64)    {}
func (nopObserver) ObserveStaleError(string, string)                {}

func observe() Observer {
	if defaultObserver == nil {
		return nopObserver{}
	}
	return defaultObserver
}
