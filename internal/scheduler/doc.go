// Package scheduler decides when an update check runs. It owns the recurring
// interval, debounces ad-hoc triggers (startup, visibility, reconnect, push,
// manual), and holds the single in-flight guard: a trigger that arrives while
// a check is running is dropped, never queued. Time comes from an injectable
// clockwork.Clock so tests advance it deterministically.
package scheduler
