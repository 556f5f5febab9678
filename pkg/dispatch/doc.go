/*
Package dispatch feeds a throttler from a fixed set of worker goroutines.

A Throttler decides synchronously on the caller's goroutine. A Dispatcher
moves that work off the caller: submissions are queued and a worker hands
them to the throttler. Each key is bound to one worker, chosen by hashing
the key, so per-key submission order is preserved while different keys are
processed in parallel.

Basic usage:

	th := throttle.New[string](10, deliver, drop)

	d, err := dispatch.New[string, Message](th, dispatch.Config{Workers: 4})
	if err != nil {
		return err
	}
	defer func() { <-d.Shutdown() }()

	if err := d.Submit(ctx, msg.User, msg); err != nil {
		return err
	}

Submission methods:

  - Submit blocks while the worker queue is full, until ctx is done.
  - SubmitWithTimeout fails with errors.ErrTimeout after the given wait.
  - TrySubmit never blocks and fails with errors.ErrCapacityExceeded.

All of them fail with errors.ErrClosed once Shutdown was called. Shutdown
delivers everything that was already queued before the workers exit.

A panic raised by an accept or reject callback is recovered, logged and
counted; the worker goes on with the next submission.
*/
package dispatch
