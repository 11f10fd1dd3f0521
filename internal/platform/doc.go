// Package platform wraps filesystem operations whose behavior differs across
// operating systems. Record files written by the file store are restricted to
// the owning user on Unix; on Windows the permission calls are no-ops.
package platform
