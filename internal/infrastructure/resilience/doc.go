/*
Package resilience provides bounded retry schedules and cancellable delayed tasks.

# Overview

Recovery from backend failures is driven by explicit state rather than by
goroutines sleeping in a loop: a Linear policy answers "may I retry, and after
how long", and a Task is a single scheduled action that can be cancelled before
it fires. Owners check their own state when the task runs, so a cancelled or
superseded action never touches a torn-down object.

# Usage

	policy := resilience.Linear{MaxRetries: 3, Step: time.Second}
	if delay, ok := policy.Next(retry); ok {
		task := resilience.Schedule(delay, func() { attempt(retry + 1) })
		defer task.Cancel()
	}

# Schedule

For Step=1s and MaxRetries=3 the waits are 1s, 2s, 3s; a fourth failure ends
the chain.
*/
package resilience
