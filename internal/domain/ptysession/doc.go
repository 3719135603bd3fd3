/*
Package ptysession owns the lifecycle of one pane's pseudo-terminal session.

# Overview

A Session drives a single backend PTY through creation, bounded retry, write
failure recovery, resize and automatic restart after the shell exits. Output
events from the backend are routed to the owning Session by a Router and
coalesced by a DataBuffer before they reach the pane's Renderer.

	Uninitialized -> Creating -> Active -> Exiting -> Restarting -> Creating
	                    |                     |
	                    v                     v
	                  Failed                Closed

Closed and Failed are absorbing. Failed is entered once every create attempt
allowed by the retry policy has failed; only a new Create call leaves it.

# Scheduling

Every create chain carries a generation number. Retry and restart timers
capture the generation they were scheduled for and do nothing when it is stale
or the session has been closed, so a late continuation can never overwrite the
id established by a newer attempt.

# Usage

	router := ptysession.NewRouter(logger)
	go router.Run(ctx, backend.Events())

	s := ptysession.New(backend, router, surface, ptysession.DefaultOptions())
	s.Create(80, 24)
	defer s.Dispose()
*/
package ptysession
