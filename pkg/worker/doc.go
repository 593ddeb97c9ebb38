// Package worker writes journal events in the background.
//
// Responders run on the goroutine that drives a workflow, usually a UI
// loop. A Worker lets the journal responder hand events to a queue instead
// of waiting on a slow store such as Postgres or MongoDB. The worker writes
// them in order and retries failed appends according to a RetryPolicy.
//
// # Usage
//
//	queue := taskqueue.NewInMemoryQueue(256)
//	w := worker.NewWithConfig(store, queue, worker.Config{
//		Retry: worker.RetryPolicy{MaxAttempts: 3, InitialBackoff: 50 * time.Millisecond},
//	})
//	go w.Run(ctx)
//
// The worker itself implements AppendEvent, so it can be passed wherever an
// appender is expected. Events that still fail after the last attempt are
// logged and counted as dropped; the worker keeps going.
//
// Most applications do not construct workers directly; waypoint.Config
// creates one when AsyncJournal is set.
package worker
