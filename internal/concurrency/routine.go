// Package concurrency holds goroutine helpers.
package concurrency

import (
	"fmt"
	"log/slog"
	"runtime/debug"
)

// Go runs fn in a goroutine. A panic is logged with its stack under name
// and handed to onPanic as an error.
func Go(name string, fn func(), onPanic func(error)) {
	go func() {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			slog.Error("Panic recovered", "routine", name, "panic", r, "stack", string(debug.Stack()))
			if onPanic != nil {
				onPanic(fmt.Errorf("%s panicked: %v", name, r))
			}
		}()
		fn()
	}()
}
