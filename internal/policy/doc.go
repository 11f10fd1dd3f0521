// Package policy decides whether a freshly fetched descriptor should be
// offered to the user, given the last applied build and any snooze or dismiss
// the user recorded. Decide is pure: it never touches storage and takes the
// current time as an argument.
package policy
