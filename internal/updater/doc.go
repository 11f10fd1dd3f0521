// Package updater coordinates update checks for a deployed build.
//
// A Coordinator owns the check state machine (idle, checking, update
// available, applying), runs checks through a scheduler, consults the
// decision policy and persists the user's apply, snooze and dismiss choices
// in a store. Presentation layers observe it through State snapshots.
package updater
