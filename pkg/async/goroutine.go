// Package async provides safe concurrent execution for fire-and-forget
// background tasks like webhook delivery and avatar downloads.
package async

import (
	"context"
	"log"
	"runtime/debug"
	"time"
)

// SafeGo executes a function in a goroutine with:
// - Context cancellation support
// - Panic recovery
// - Timeout enforcement
// - Error logging
//
// Use this instead of bare `go func()` to prevent goroutine leaks and crashes.
//
// Example:
//
//	SafeGo(context.Background(), 10*time.Second, "webhook delivery", func(ctx context.Context) error {
//	    return notifier.Send(ctx, event)
//	})
func SafeGo(parentCtx context.Context, timeout time.Duration, taskName string, fn func(context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(parentCtx, timeout)
		defer cancel()

		defer func() {
			if r := recover(); r != nil {
				log.Printf("[SafeGo] PANIC in %s: %v\nStack trace:\n%s",
					taskName, r, string(debug.Stack()))
			}
		}()

		if err := fn(ctx); err != nil {
			log.Printf("[SafeGo] error in %s: %v", taskName, err)
		}
	}()
}

// Detached returns a context that outlives the request that spawned
// the task but keeps its values (request id). Background work started
// from a handler must not die when the client disconnects.
func Detached(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
