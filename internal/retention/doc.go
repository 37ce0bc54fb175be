// Package retention implements the timer-driven deletion of expired entries.
//
// The sweeper is the only timer-driven actor in the system and the only
// caller of the store's DeleteOlderThan primitive. Sweeps on one handle are
// serialized; an overlapping tick is skipped rather than queued. All sweep
// errors are logged and swallowed so a single bad pass never stops the
// schedule.
package retention
