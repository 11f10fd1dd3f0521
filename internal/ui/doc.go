// Package ui provides the Bubble Tea prompt shown by `updatewatch watch --tui`.
// Terminal focus stands in for page visibility: losing focus pauses the
// interval checks and regaining it triggers a check.
package ui
