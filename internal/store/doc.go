// Package store persists the three update records (applied build, snooze,
// dismiss) as independent JSON values behind a pluggable Backend. Reads never
// fail: a missing, unreadable or corrupt record is reported as absent, and a
// corrupt one is deleted. Writes return typed errors that callers log.
package store
