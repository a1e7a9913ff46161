// Package goroutine wraps the fire-and-forget work the billing flows
// spin off after a request commits, such as async snapshot rebuilds and
// receipt mail.
package goroutine

import (
	"fmt"
	"runtime/debug"

	"github.com/clawncore/colabwize-backend/internal/shared/logger"
)

// SafeGo runs fn on a new goroutine with panic recovery. Background work
// kicked off from a webhook or a purchase must never take the process
// down, so a panic is logged with its stack under the given name and
// swallowed.
func SafeGo(log logger.Interface, name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Errorw("background task panicked",
					"task", name,
					"panic", fmt.Sprintf("%v", r),
					"stack", string(debug.Stack()),
				)
			}
		}()
		fn()
	}()
}
