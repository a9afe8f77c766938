// Package schedule runs deferred work for pending actions.
//
// RunAt and RunAfter execute a function asynchronously once a delay elapses.
// Engine keeps at most one live timer per action and completes the action
// through its store when the timer fires. Reconcile re-arms every pending
// action after a restart.
package schedule
