// Package safego launches fire-and-forget goroutines that survive panics.
package safego

import "log/slog"

// Go runs fn in a new goroutine under the given name. A panic in fn is
// recovered and logged with the name instead of crashing the process, so a
// long-lived background job (retention pruning, rate-limiter cleanup) cannot
// take the server down with it. The goroutine ends on the first panic; it is
// the caller's job to restart if the work should resume.
func Go(name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("background goroutine panicked", "goroutine", name, "panic", r)
			}
		}()
		fn()
	}()
}
